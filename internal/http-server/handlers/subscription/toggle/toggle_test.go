package toggle

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/course-platform/internal/http-server/middlewarectx"
	"github.com/magabrotheeeer/course-platform/internal/permissions"
	"github.com/magabrotheeeer/course-platform/internal/services/subscription"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Toggle(ctx context.Context, actor permissions.Actor, courseID int) (string, error) {
	args := m.Called(ctx, actor, courseID)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestHandler_ServeHTTP(t *testing.T) {
	actor := permissions.Actor{Authenticated: true, UserUID: "u1"}

	tests := []struct {
		name           string
		body           string
		withActor      bool
		setupMocks     func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:      "успешное добавление подписки",
			body:      `{"course_id": 5}`,
			withActor: true,
			setupMocks: func(s *MockService) {
				s.On("Toggle", mock.Anything, actor, 5).
					Return(subscription.MessageAdded, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   "subscription added",
		},
		{
			name:      "успешное удаление подписки",
			body:      `{"course_id": 5}`,
			withActor: true,
			setupMocks: func(s *MockService) {
				s.On("Toggle", mock.Anything, actor, 5).
					Return(subscription.MessageRemoved, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   "subscription removed",
		},
		{
			name:      "курс не найден",
			body:      `{"course_id": 404}`,
			withActor: true,
			setupMocks: func(s *MockService) {
				s.On("Toggle", mock.Anything, actor, 404).
					Return("", subscription.ErrCourseNotFound).Once()
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   "course not found",
		},
		{
			name:           "некорректный JSON",
			body:           `{course_id: 5}`,
			withActor:      true,
			setupMocks:     func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "invalid request body",
		},
		{
			name:           "отсутствует course_id",
			body:           `{}`,
			withActor:      true,
			setupMocks:     func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "CourseID",
		},
		{
			name:           "нет актора в контексте",
			body:           `{"course_id": 5}`,
			withActor:      false,
			setupMocks:     func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "unauthorized",
		},
		{
			name:      "внутренняя ошибка сервиса",
			body:      `{"course_id": 5}`,
			withActor: true,
			setupMocks: func(s *MockService) {
				s.On("Toggle", mock.Anything, actor, 5).
					Return("", errors.New("db down")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "could not toggle subscription",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockService)
			handler := New(newNoopLogger(), service)

			tt.setupMocks(service)

			req := httptest.NewRequest(http.MethodPost, "/subscriptions/toggle",
				bytes.NewBufferString(tt.body))
			if tt.withActor {
				req = req.WithContext(context.WithValue(req.Context(),
					middlewarectx.ActorKey, actor))
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)

			service.AssertExpectations(t)
		})
	}
}
