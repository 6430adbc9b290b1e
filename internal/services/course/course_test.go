package course

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/course-platform/internal/models"
	"github.com/magabrotheeeer/course-platform/internal/permissions"
	"github.com/magabrotheeeer/course-platform/internal/rabbitmq"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateCourse(ctx context.Context, course models.Course) (int, error) {
	args := m.Called(ctx, course)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) GetCourse(ctx context.Context, id int) (*models.Course, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Course), args.Error(1)
}

func (m *MockRepository) ListAllCourses(ctx context.Context, limit, offset int) ([]*models.Course, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Course), args.Error(1)
}

func (m *MockRepository) ListCoursesByOwner(ctx context.Context, ownerUID string, limit, offset int) ([]*models.Course, error) {
	args := m.Called(ctx, ownerUID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Course), args.Error(1)
}

func (m *MockRepository) UpdateCourse(ctx context.Context, id int, course models.DummyCourse) (int64, error) {
	args := m.Called(ctx, id, course)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) DeleteCourse(ctx context.Context, id int) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) CountLessonsByCourse(ctx context.Context, courseID int) (int, error) {
	args := m.Called(ctx, courseID)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) IsSubscribed(ctx context.Context, userUID string, courseID int) (bool, error) {
	args := m.Called(ctx, userUID, courseID)
	return args.Bool(0), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Set(key string, value any, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) Invalidate(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(exchange, routingkey string, message any) error {
	args := m.Called(exchange, routingkey, message)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newService(repo *MockRepository, cache *MockCache, publisher *MockPublisher) *CourseService {
	return NewCourseService(repo, cache, publisher, newNoopLogger())
}

func TestCourseService_Create(t *testing.T) {
	t.Run("owner is always the actor", func(t *testing.T) {
		repo := new(MockRepository)
		service := newService(repo, new(MockCache), new(MockPublisher))

		repo.On("CreateCourse", mock.Anything, mock.MatchedBy(func(c models.Course) bool {
			return c.Title == "Go" && c.OwnerUID != nil && *c.OwnerUID == "u1"
		})).Return(5, nil).Once()

		id, err := service.Create(context.Background(),
			permissions.Actor{Authenticated: true, UserUID: "u1"},
			models.DummyCourse{Title: "Go"})
		require.NoError(t, err)
		assert.Equal(t, 5, id)

		repo.AssertExpectations(t)
	})

	t.Run("forbidden for moderator", func(t *testing.T) {
		service := newService(new(MockRepository), new(MockCache), new(MockPublisher))

		_, err := service.Create(context.Background(),
			permissions.Actor{Authenticated: true, UserUID: "m1", Roles: []string{permissions.ModeratorsGroup}},
			models.DummyCourse{Title: "Go"})
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestCourseService_Read(t *testing.T) {
	actor := permissions.Actor{Authenticated: true, UserUID: "u1"}
	course := &models.Course{ID: 5, Title: "Go"}

	t.Run("cache miss reads storage and fills cache", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockCache)
		service := newService(repo, cache, new(MockPublisher))

		cache.On("Get", "course:5", mock.Anything).Return(false, nil).Once()
		repo.On("GetCourse", mock.Anything, 5).Return(course, nil).Once()
		cache.On("Set", "course:5", course, time.Hour).Return(nil).Once()
		repo.On("CountLessonsByCourse", mock.Anything, 5).Return(3, nil).Once()
		repo.On("IsSubscribed", mock.Anything, "u1", 5).Return(true, nil).Once()

		info, err := service.Read(context.Background(), actor, 5)
		require.NoError(t, err)
		assert.Equal(t, course, info.Course)
		assert.Equal(t, 3, info.LessonsCount)
		assert.True(t, info.Subscribed)

		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("cache hit skips storage but recomputes derived fields", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockCache)
		service := newService(repo, cache, new(MockPublisher))

		cache.On("Get", "course:5", mock.Anything).
			Run(func(args mock.Arguments) {
				ptr := args.Get(1).(**models.Course)
				*ptr = course
			}).
			Return(true, nil).Once()
		repo.On("CountLessonsByCourse", mock.Anything, 5).Return(4, nil).Once()
		repo.On("IsSubscribed", mock.Anything, "u1", 5).Return(false, nil).Once()

		info, err := service.Read(context.Background(), actor, 5)
		require.NoError(t, err)
		assert.Equal(t, course, info.Course)
		assert.Equal(t, 4, info.LessonsCount)
		assert.False(t, info.Subscribed)

		repo.AssertNotCalled(t, "GetCourse", mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("cache failure falls back to storage", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockCache)
		service := newService(repo, cache, new(MockPublisher))

		cache.On("Get", "course:5", mock.Anything).Return(false, errors.New("redis down")).Once()
		repo.On("GetCourse", mock.Anything, 5).Return(course, nil).Once()
		cache.On("Set", "course:5", course, time.Hour).Return(errors.New("redis down")).Once()
		repo.On("CountLessonsByCourse", mock.Anything, 5).Return(0, nil).Once()
		repo.On("IsSubscribed", mock.Anything, "u1", 5).Return(false, nil).Once()

		info, err := service.Read(context.Background(), actor, 5)
		require.NoError(t, err)
		assert.Equal(t, course, info.Course)

		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("course not found", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockCache)
		service := newService(repo, cache, new(MockPublisher))

		cache.On("Get", "course:404", mock.Anything).Return(false, nil).Once()
		repo.On("GetCourse", mock.Anything, 404).Return(nil, sql.ErrNoRows).Once()

		_, err := service.Read(context.Background(), actor, 404)
		assert.ErrorIs(t, err, ErrNotFound)

		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("forbidden for anonymous actor", func(t *testing.T) {
		service := newService(new(MockRepository), new(MockCache), new(MockPublisher))

		_, err := service.Read(context.Background(), permissions.Actor{}, 5)
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestCourseService_List(t *testing.T) {
	courses := []*models.Course{{ID: 1}, {ID: 2}}

	t.Run("moderator sees all courses", func(t *testing.T) {
		repo := new(MockRepository)
		service := newService(repo, new(MockCache), new(MockPublisher))

		repo.On("ListAllCourses", mock.Anything, 20, 0).Return(courses, nil).Once()

		got, err := service.List(context.Background(),
			permissions.Actor{Authenticated: true, UserUID: "m1", Roles: []string{permissions.ModeratorsGroup}},
			20, 0)
		require.NoError(t, err)
		assert.Len(t, got, 2)

		repo.AssertExpectations(t)
	})

	t.Run("regular user sees only own courses", func(t *testing.T) {
		repo := new(MockRepository)
		service := newService(repo, new(MockCache), new(MockPublisher))

		repo.On("ListCoursesByOwner", mock.Anything, "u1", 20, 0).Return(courses[:1], nil).Once()

		got, err := service.List(context.Background(),
			permissions.Actor{Authenticated: true, UserUID: "u1"}, 20, 0)
		require.NoError(t, err)
		assert.Len(t, got, 1)

		repo.AssertNotCalled(t, "ListAllCourses", mock.Anything, mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
	})
}

func TestCourseService_Update(t *testing.T) {
	owner := "u1"
	course := &models.Course{ID: 5, Title: "Go", OwnerUID: &owner}
	req := models.DummyCourse{Title: "Go, второе издание"}

	t.Run("owner update publishes event and invalidates cache", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockCache)
		publisher := new(MockPublisher)
		service := newService(repo, cache, publisher)

		repo.On("GetCourse", mock.Anything, 5).Return(course, nil).Once()
		repo.On("UpdateCourse", mock.Anything, 5, req).Return(int64(1), nil).Once()
		cache.On("Invalidate", "course:5").Return(nil).Once()
		publisher.On("Publish", rabbitmq.NotificationsExchange, rabbitmq.CourseUpdatedKey,
			models.CourseUpdatedEvent{CourseID: 5}).Return(nil).Once()

		err := service.Update(context.Background(),
			permissions.Actor{Authenticated: true, UserUID: "u1"}, 5, req)
		require.NoError(t, err)

		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("stranger cannot update", func(t *testing.T) {
		repo := new(MockRepository)
		service := newService(repo, new(MockCache), new(MockPublisher))

		repo.On("GetCourse", mock.Anything, 5).Return(course, nil).Once()

		err := service.Update(context.Background(),
			permissions.Actor{Authenticated: true, UserUID: "someone-else"}, 5, req)
		assert.ErrorIs(t, err, ErrForbidden)

		repo.AssertNotCalled(t, "UpdateCourse", mock.Anything, mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
	})

	t.Run("moderator can update foreign course", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockCache)
		publisher := new(MockPublisher)
		service := newService(repo, cache, publisher)

		repo.On("GetCourse", mock.Anything, 5).Return(course, nil).Once()
		repo.On("UpdateCourse", mock.Anything, 5, req).Return(int64(1), nil).Once()
		cache.On("Invalidate", "course:5").Return(nil).Once()
		publisher.On("Publish", rabbitmq.NotificationsExchange, rabbitmq.CourseUpdatedKey,
			models.CourseUpdatedEvent{CourseID: 5}).Return(nil).Once()

		err := service.Update(context.Background(),
			permissions.Actor{Authenticated: true, UserUID: "m1", Roles: []string{permissions.ModeratorsGroup}},
			5, req)
		require.NoError(t, err)

		repo.AssertExpectations(t)
	})

	t.Run("course not found", func(t *testing.T) {
		repo := new(MockRepository)
		service := newService(repo, new(MockCache), new(MockPublisher))

		repo.On("GetCourse", mock.Anything, 404).Return(nil, sql.ErrNoRows).Once()

		err := service.Update(context.Background(),
			permissions.Actor{Authenticated: true, UserUID: "u1"}, 404, req)
		assert.ErrorIs(t, err, ErrNotFound)

		repo.AssertExpectations(t)
	})
}

func TestCourseService_Delete(t *testing.T) {
	owner := "u1"
	course := &models.Course{ID: 5, Title: "Go", OwnerUID: &owner}

	t.Run("owner delete invalidates cache", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockCache)
		service := newService(repo, cache, new(MockPublisher))

		repo.On("GetCourse", mock.Anything, 5).Return(course, nil).Once()
		cache.On("Invalidate", "course:5").Return(nil).Once()
		repo.On("DeleteCourse", mock.Anything, 5).Return(int64(1), nil).Once()

		err := service.Delete(context.Background(),
			permissions.Actor{Authenticated: true, UserUID: "u1"}, 5)
		require.NoError(t, err)

		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("stranger cannot delete", func(t *testing.T) {
		repo := new(MockRepository)
		service := newService(repo, new(MockCache), new(MockPublisher))

		repo.On("GetCourse", mock.Anything, 5).Return(course, nil).Once()

		err := service.Delete(context.Background(),
			permissions.Actor{Authenticated: true, UserUID: "someone-else"}, 5)
		assert.ErrorIs(t, err, ErrForbidden)

		repo.AssertNotCalled(t, "DeleteCourse", mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
	})
}
