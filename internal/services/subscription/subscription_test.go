package subscription

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/course-platform/internal/models"
	"github.com/magabrotheeeer/course-platform/internal/permissions"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ToggleSubscription(ctx context.Context, userUID string, courseID int) (bool, error) {
	args := m.Called(ctx, userUID, courseID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) IsSubscribed(ctx context.Context, userUID string, courseID int) (bool, error) {
	args := m.Called(ctx, userUID, courseID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) GetCourse(ctx context.Context, id int) (*models.Course, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Course), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestSubscriptionService_Toggle(t *testing.T) {
	actor := permissions.Actor{Authenticated: true, UserUID: "u1"}
	course := &models.Course{ID: 5, Title: "Go"}

	tests := []struct {
		name        string
		actor       permissions.Actor
		courseID    int
		setupMocks  func(*MockRepository)
		wantMessage string
		wantErr     error
	}{
		{
			name:     "subscription added",
			actor:    actor,
			courseID: 5,
			setupMocks: func(r *MockRepository) {
				r.On("GetCourse", mock.Anything, 5).Return(course, nil).Once()
				r.On("ToggleSubscription", mock.Anything, "u1", 5).Return(true, nil).Once()
			},
			wantMessage: MessageAdded,
		},
		{
			name:     "subscription removed",
			actor:    actor,
			courseID: 5,
			setupMocks: func(r *MockRepository) {
				r.On("GetCourse", mock.Anything, 5).Return(course, nil).Once()
				r.On("ToggleSubscription", mock.Anything, "u1", 5).Return(false, nil).Once()
			},
			wantMessage: MessageRemoved,
		},
		{
			name:     "course not found",
			actor:    actor,
			courseID: 404,
			setupMocks: func(r *MockRepository) {
				r.On("GetCourse", mock.Anything, 404).Return(nil, sql.ErrNoRows).Once()
			},
			wantErr: ErrCourseNotFound,
		},
		{
			name:       "forbidden for anonymous actor",
			actor:      permissions.Actor{},
			courseID:   5,
			setupMocks: func(_ *MockRepository) {},
			wantErr:    ErrForbidden,
		},
		{
			name:     "storage error is propagated",
			actor:    actor,
			courseID: 5,
			setupMocks: func(r *MockRepository) {
				r.On("GetCourse", mock.Anything, 5).Return(course, nil).Once()
				r.On("ToggleSubscription", mock.Anything, "u1", 5).
					Return(false, errors.New("serialization failure")).Once()
			},
			wantErr: errors.New("serialization failure"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			service := NewSubscriptionService(repo, newNoopLogger())

			tt.setupMocks(repo)

			message, err := service.Toggle(context.Background(), tt.actor, tt.courseID)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr.Error())
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantMessage, message)
			}

			repo.AssertExpectations(t)
		})
	}
}

func TestSubscriptionService_IsSubscribed(t *testing.T) {
	t.Run("delegates to repository", func(t *testing.T) {
		repo := new(MockRepository)
		service := NewSubscriptionService(repo, newNoopLogger())

		repo.On("IsSubscribed", mock.Anything, "u1", 5).Return(true, nil).Once()

		subscribed, err := service.IsSubscribed(context.Background(),
			permissions.Actor{Authenticated: true, UserUID: "u1"}, 5)
		require.NoError(t, err)
		assert.True(t, subscribed)

		repo.AssertExpectations(t)
	})

	t.Run("forbidden for anonymous actor", func(t *testing.T) {
		service := NewSubscriptionService(new(MockRepository), newNoopLogger())

		_, err := service.IsSubscribed(context.Background(), permissions.Actor{}, 5)
		assert.ErrorIs(t, err, ErrForbidden)
	})
}
