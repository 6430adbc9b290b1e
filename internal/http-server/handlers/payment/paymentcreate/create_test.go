package paymentcreate

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/course-platform/internal/http-server/middlewarectx"
	"github.com/magabrotheeeer/course-platform/internal/models"
	"github.com/magabrotheeeer/course-platform/internal/permissions"
	"github.com/magabrotheeeer/course-platform/internal/services/payment"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, actor permissions.Actor, req models.DummyPayment) (*payment.PaymentResult, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.PaymentResult), args.Error(1)
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
			name:      "успешное создание платежа за курс",
			body:      `{"course_id": 5, "amount": 1500, "payment_method": "transfer"}`,
			withActor: true,
			setupMocks: func(s *MockService) {
				s.On("Create", mock.Anything, actor, models.DummyPayment{
					CourseID: 5, Amount: 1500, PaymentMethod: "transfer",
				}).Return(&payment.PaymentResult{
					PaymentID:  42,
					SessionID:  "cs_1",
					PaymentURL: "https://pay.example.com/cs_1",
				}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   "https://pay.example.com/cs_1",
		},
		{
			name:      "указаны и курс, и урок",
			body:      `{"course_id": 5, "lesson_id": 9, "amount": 100, "payment_method": "cash"}`,
			withActor: true,
			setupMocks: func(s *MockService) {
				s.On("Create", mock.Anything, actor, mock.Anything).
					Return(nil, payment.ErrBadTarget).Once()
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "exactly one of course_id or lesson_id",
		},
		{
			name:      "курс не найден",
			body:      `{"course_id": 404, "amount": 100, "payment_method": "cash"}`,
			withActor: true,
			setupMocks: func(s *MockService) {
				s.On("Create", mock.Anything, actor, mock.Anything).
					Return(nil, payment.ErrTargetNotFound).Once()
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   "paid course or lesson not found",
		},
		{
			name:           "недопустимый способ оплаты",
			body:           `{"course_id": 5, "amount": 100, "payment_method": "bitcoin"}`,
			withActor:      true,
			setupMocks:     func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "PaymentMethod",
		},
		{
			name:           "нет актора в контексте",
			body:           `{"course_id": 5, "amount": 100, "payment_method": "cash"}`,
			withActor:      false,
			setupMocks:     func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "unauthorized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockService)
			handler := New(newNoopLogger(), service)

			tt.setupMocks(service)

			req := httptest.NewRequest(http.MethodPost, "/payments",
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
