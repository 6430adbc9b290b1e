package payment

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

	"github.com/magabrotheeeer/course-platform/internal/gateway"
	"github.com/magabrotheeeer/course-platform/internal/models"
	"github.com/magabrotheeeer/course-platform/internal/permissions"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreatePayment(ctx context.Context, payment models.Payment) (int, error) {
	args := m.Called(ctx, payment)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) GetPayment(ctx context.Context, id int) (*models.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockRepository) ListPayments(ctx context.Context, filter models.PaymentFilter, limit, offset int) ([]*models.Payment, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}

func (m *MockRepository) UpdatePaymentStatus(ctx context.Context, id int, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockRepository) GetCourse(ctx context.Context, id int) (*models.Course, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Course), args.Error(1)
}

func (m *MockRepository) GetLesson(ctx context.Context, id int) (*models.Lesson, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lesson), args.Error(1)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateProduct(name, description string) (string, error) {
	args := m.Called(name, description)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) CreatePrice(productID string, minorAmount int64, currency string) (string, error) {
	args := m.Called(productID, minorAmount, currency)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) CreateCheckoutSession(priceID, successURL, cancelURL string) (*gateway.CheckoutSession, error) {
	args := m.Called(priceID, successURL, cancelURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.CheckoutSession), args.Error(1)
}

func (m *MockGateway) GetSessionStatus(sessionID string) (string, error) {
	args := m.Called(sessionID)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newService(repo *MockRepository, gw *MockGateway) *PaymentService {
	return NewPaymentService(repo, gw, "https://example.com/success", "https://example.com/cancel", newNoopLogger())
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(100000), MinorUnits(1000))
	assert.Equal(t, int64(99999), MinorUnits(999.999))
	assert.Equal(t, int64(1), MinorUnits(0.019))
}

func TestPaymentService_Create(t *testing.T) {
	actor := permissions.Actor{Authenticated: true, UserUID: "u1"}
	course := &models.Course{ID: 5, Title: "Go", Description: "Основы"}

	t.Run("success - full gateway sequence then persist", func(t *testing.T) {
		repo := new(MockRepository)
		gw := new(MockGateway)
		service := newService(repo, gw)

		repo.On("GetCourse", mock.Anything, 5).Return(course, nil).Once()
		gw.On("CreateProduct", "Go", "Основы").Return("prod_1", nil).Once()
		gw.On("CreatePrice", "prod_1", int64(150000), "rub").Return("price_1", nil).Once()
		gw.On("CreateCheckoutSession", "price_1", "https://example.com/success", "https://example.com/cancel").
			Return(&gateway.CheckoutSession{SessionID: "cs_1", PaymentURL: "https://pay.example.com/cs_1"}, nil).Once()
		repo.On("CreatePayment", mock.Anything, mock.MatchedBy(func(p models.Payment) bool {
			return p.UserUID == "u1" &&
				p.CourseID != nil && *p.CourseID == 5 && p.LessonID == nil &&
				p.StripeProductID == "prod_1" && p.StripePriceID == "price_1" &&
				p.StripeSessionID == "cs_1" && p.StripeStatus == "open"
		})).Return(42, nil).Once()

		result, err := service.Create(context.Background(), actor, models.DummyPayment{
			CourseID:      5,
			Amount:        1500,
			PaymentMethod: "transfer",
		})
		require.NoError(t, err)
		assert.Equal(t, 42, result.PaymentID)
		assert.Equal(t, "cs_1", result.SessionID)
		assert.Equal(t, "https://pay.example.com/cs_1", result.PaymentURL)

		repo.AssertExpectations(t)
		gw.AssertExpectations(t)
	})

	t.Run("both course and lesson set", func(t *testing.T) {
		service := newService(new(MockRepository), new(MockGateway))

		_, err := service.Create(context.Background(), actor, models.DummyPayment{
			CourseID: 5, LessonID: 7, Amount: 100, PaymentMethod: "cash",
		})
		assert.ErrorIs(t, err, ErrBadTarget)
	})

	t.Run("neither course nor lesson set", func(t *testing.T) {
		service := newService(new(MockRepository), new(MockGateway))

		_, err := service.Create(context.Background(), actor, models.DummyPayment{
			Amount: 100, PaymentMethod: "cash",
		})
		assert.ErrorIs(t, err, ErrBadTarget)
	})

	t.Run("course not found", func(t *testing.T) {
		repo := new(MockRepository)
		service := newService(repo, new(MockGateway))

		repo.On("GetCourse", mock.Anything, 404).Return(nil, sql.ErrNoRows).Once()

		_, err := service.Create(context.Background(), actor, models.DummyPayment{
			CourseID: 404, Amount: 100, PaymentMethod: "cash",
		})
		assert.ErrorIs(t, err, ErrTargetNotFound)
		repo.AssertExpectations(t)
	})

	t.Run("price failure - payment is never persisted", func(t *testing.T) {
		repo := new(MockRepository)
		gw := new(MockGateway)
		service := newService(repo, gw)

		repo.On("GetCourse", mock.Anything, 5).Return(course, nil).Once()
		gw.On("CreateProduct", "Go", "Основы").Return("prod_1", nil).Once()
		gw.On("CreatePrice", "prod_1", int64(10000), "rub").Return("", errors.New("gateway down")).Once()

		_, err := service.Create(context.Background(), actor, models.DummyPayment{
			CourseID: 5, Amount: 100, PaymentMethod: "transfer",
		})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create price")

		repo.AssertNotCalled(t, "CreatePayment", mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
		gw.AssertExpectations(t)
	})

	t.Run("lesson payment", func(t *testing.T) {
		repo := new(MockRepository)
		gw := new(MockGateway)
		service := newService(repo, gw)

		lesson := &models.Lesson{ID: 9, Title: "Горутины", Description: "", CourseID: 5}
		repo.On("GetLesson", mock.Anything, 9).Return(lesson, nil).Once()
		gw.On("CreateProduct", "Горутины", "").Return("prod_2", nil).Once()
		gw.On("CreatePrice", "prod_2", int64(5000), "rub").Return("price_2", nil).Once()
		gw.On("CreateCheckoutSession", "price_2", mock.Anything, mock.Anything).
			Return(&gateway.CheckoutSession{SessionID: "cs_2", PaymentURL: "https://pay.example.com/cs_2"}, nil).Once()
		repo.On("CreatePayment", mock.Anything, mock.MatchedBy(func(p models.Payment) bool {
			return p.CourseID == nil && p.LessonID != nil && *p.LessonID == 9
		})).Return(43, nil).Once()

		result, err := service.Create(context.Background(), actor, models.DummyPayment{
			LessonID: 9, Amount: 50, PaymentMethod: "cash",
		})
		require.NoError(t, err)
		assert.Equal(t, 43, result.PaymentID)

		repo.AssertExpectations(t)
		gw.AssertExpectations(t)
	})

	t.Run("forbidden for anonymous actor", func(t *testing.T) {
		service := newService(new(MockRepository), new(MockGateway))

		_, err := service.Create(context.Background(), permissions.Actor{}, models.DummyPayment{
			CourseID: 5, Amount: 100, PaymentMethod: "cash",
		})
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestPaymentService_RefreshStatus(t *testing.T) {
	t.Run("polls gateway and stores status", func(t *testing.T) {
		repo := new(MockRepository)
		gw := new(MockGateway)
		service := newService(repo, gw)

		repo.On("GetPayment", mock.Anything, 42).
			Return(&models.Payment{ID: 42, StripeSessionID: "cs_1", StripeStatus: "open"}, nil).Once()
		gw.On("GetSessionStatus", "cs_1").Return("complete", nil).Once()
		repo.On("UpdatePaymentStatus", mock.Anything, 42, "complete").Return(nil).Once()

		status, err := service.RefreshStatus(context.Background(), 42)
		require.NoError(t, err)
		assert.Equal(t, "complete", status)

		repo.AssertExpectations(t)
		gw.AssertExpectations(t)
	})

	t.Run("repeated poll is idempotent", func(t *testing.T) {
		repo := new(MockRepository)
		gw := new(MockGateway)
		service := newService(repo, gw)

		repo.On("GetPayment", mock.Anything, 42).
			Return(&models.Payment{ID: 42, StripeSessionID: "cs_1", StripeStatus: "complete"}, nil).Twice()
		gw.On("GetSessionStatus", "cs_1").Return("complete", nil).Twice()
		repo.On("UpdatePaymentStatus", mock.Anything, 42, "complete").Return(nil).Twice()

		for i := 0; i < 2; i++ {
			status, err := service.RefreshStatus(context.Background(), 42)
			require.NoError(t, err)
			assert.Equal(t, "complete", status)
		}

		repo.AssertNotCalled(t, "CreatePayment", mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
		gw.AssertExpectations(t)
	})

	t.Run("payment not found", func(t *testing.T) {
		repo := new(MockRepository)
		service := newService(repo, new(MockGateway))

		repo.On("GetPayment", mock.Anything, 404).Return(nil, sql.ErrNoRows).Once()

		_, err := service.RefreshStatus(context.Background(), 404)
		assert.ErrorIs(t, err, ErrNotFound)
		repo.AssertExpectations(t)
	})
}

func TestPaymentService_List(t *testing.T) {
	actor := permissions.Actor{Authenticated: true, UserUID: "u1"}

	t.Run("passes filters through", func(t *testing.T) {
		repo := new(MockRepository)
		service := newService(repo, new(MockGateway))

		courseID := 5
		filter := models.PaymentFilter{CourseID: &courseID}
		repo.On("ListPayments", mock.Anything, filter, 20, 0).
			Return([]*models.Payment{{ID: 1}, {ID: 2}}, nil).Once()

		payments, err := service.List(context.Background(), actor, filter, 20, 0)
		require.NoError(t, err)
		assert.Len(t, payments, 2)

		repo.AssertExpectations(t)
	})

	t.Run("forbidden for anonymous actor", func(t *testing.T) {
		service := newService(new(MockRepository), new(MockGateway))

		_, err := service.List(context.Background(), permissions.Actor{}, models.PaymentFilter{}, 20, 0)
		assert.ErrorIs(t, err, ErrForbidden)
	})
}
