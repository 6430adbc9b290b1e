// Package payment содержит оркестрацию платежей через внешний платёжный шлюз.
//
// Создание платежа выполняет последовательность обращений к шлюзу: продукт,
// цена, сессия оплаты. Любая ошибка прерывает последовательность, локальная
// запись платежа создаётся только после успеха всех трёх шагов.
package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/course-platform/internal/gateway"
	"github.com/magabrotheeeer/course-platform/internal/models"
	"github.com/magabrotheeeer/course-platform/internal/permissions"
)

// ErrForbidden операция запрещена политикой доступа.
var ErrForbidden = errors.New("forbidden")

// ErrNotFound платёж не найден.
var ErrNotFound = errors.New("payment not found")

// ErrTargetNotFound оплачиваемый курс или урок не найден.
var ErrTargetNotFound = errors.New("paid course or lesson not found")

// ErrBadTarget должно быть указано ровно одно из двух: курс или урок.
var ErrBadTarget = errors.New("exactly one of course_id or lesson_id must be set")

// Валюта платежей. Сумма конвертируется в минорные единицы (копейки)
// умножением на 100 с усечением.
const currency = "rub"

// Gateway описывает операции внешнего платёжного шлюза.
type Gateway interface {
	CreateProduct(name, description string) (string, error)
	CreatePrice(productID string, minorAmount int64, currency string) (string, error)
	CreateCheckoutSession(priceID, successURL, cancelURL string) (*gateway.CheckoutSession, error)
	GetSessionStatus(sessionID string) (string, error)
}

// PaymentRepository определяет методы для работы с платежами в хранилище.
type PaymentRepository interface {
	// CreatePayment сохраняет платёж и возвращает его ID.
	CreatePayment(ctx context.Context, payment models.Payment) (int, error)
	// GetPayment возвращает платёж по ID.
	GetPayment(ctx context.Context, id int) (*models.Payment, error)
	// ListPayments возвращает платежи по фильтрам с пагинацией.
	ListPayments(ctx context.Context, filter models.PaymentFilter, limit, offset int) ([]*models.Payment, error)
	// UpdatePaymentStatus обновляет статус платёжной сессии.
	UpdatePaymentStatus(ctx context.Context, id int, status string) error
	// GetCourse возвращает курс по ID.
	GetCourse(ctx context.Context, id int) (*models.Course, error)
	// GetLesson возвращает урок по ID.
	GetLesson(ctx context.Context, id int) (*models.Lesson, error)
}

// PaymentResult результат создания платежа.
type PaymentResult struct {
	PaymentID  int
	SessionID  string
	PaymentURL string
}

// PaymentService реализует оркестрацию платежей.
type PaymentService struct {
	repo       PaymentRepository
	gateway    Gateway
	successURL string
	cancelURL  string
	log        *slog.Logger
}

// NewPaymentService создает новый экземпляр PaymentService.
func NewPaymentService(repo PaymentRepository, gw Gateway, successURL, cancelURL string, log *slog.Logger) *PaymentService {
	return &PaymentService{
		repo:       repo,
		gateway:    gw,
		successURL: successURL,
		cancelURL:  cancelURL,
		log:        log,
	}
}

// MinorUnits переводит сумму в минорные единицы валюты: умножение на 100
// с усечением.
func MinorUnits(amount float64) int64 {
	return int64(amount * 100)
}

// Create выполняет последовательность обращений к шлюзу и сохраняет платёж.
// Запись в хранилище появляется только после успеха всех шагов; частично
// созданные сущности шлюза локально не сохраняются.
func (s *PaymentService) Create(ctx context.Context, actor permissions.Actor, req models.DummyPayment) (*PaymentResult, error) {
	if !permissions.PaymentCreate.Allows(actor) {
		return nil, ErrForbidden
	}
	if (req.CourseID == 0) == (req.LessonID == 0) {
		return nil, ErrBadTarget
	}

	var name, description string
	var courseID, lessonID *int
	if req.CourseID != 0 {
		c, err := s.repo.GetCourse(ctx, req.CourseID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTargetNotFound
		}
		if err != nil {
			return nil, err
		}
		name, description = c.Title, c.Description
		courseID = &c.ID
	} else {
		l, err := s.repo.GetLesson(ctx, req.LessonID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTargetNotFound
		}
		if err != nil {
			return nil, err
		}
		name, description = l.Title, l.Description
		lessonID = &l.ID
	}

	productID, err := s.gateway.CreateProduct(name, description)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	priceID, err := s.gateway.CreatePrice(productID, MinorUnits(req.Amount), currency)
	if err != nil {
		return nil, fmt.Errorf("failed to create price: %w", err)
	}
	session, err := s.gateway.CreateCheckoutSession(priceID, s.successURL, s.cancelURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	id, err := s.repo.CreatePayment(ctx, models.Payment{
		UserUID:         actor.UserUID,
		CourseID:        courseID,
		LessonID:        lessonID,
		Amount:          req.Amount,
		PaymentMethod:   req.PaymentMethod,
		StripeProductID: productID,
		StripePriceID:   priceID,
		StripeSessionID: session.SessionID,
		StripePayURL:    session.PaymentURL,
		StripeStatus:    "open",
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("created new payment", slog.Int("id", id),
		slog.String("session_id", session.SessionID))
	return &PaymentResult{
		PaymentID:  id,
		SessionID:  session.SessionID,
		PaymentURL: session.PaymentURL,
	}, nil
}

// RefreshStatus опрашивает шлюз и обновляет локально сохранённый статус
// сессии. Операция идемпотентна: платежи здесь не создаются и не удаляются.
func (s *PaymentService) RefreshStatus(ctx context.Context, id int) (string, error) {
	p, err := s.repo.GetPayment(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}

	status, err := s.gateway.GetSessionStatus(p.StripeSessionID)
	if err != nil {
		return "", fmt.Errorf("failed to get session status: %w", err)
	}
	if err = s.repo.UpdatePaymentStatus(ctx, id, status); err != nil {
		return "", err
	}
	s.log.Info("refreshed payment status", slog.Int("id", id), slog.String("status", status))
	return status, nil
}

// List возвращает платежи по фильтрам, упорядоченные по дате оплаты.
func (s *PaymentService) List(ctx context.Context, actor permissions.Actor, filter models.PaymentFilter, limit, offset int) ([]*models.Payment, error) {
	if !actor.Authenticated {
		return nil, ErrForbidden
	}
	return s.repo.ListPayments(ctx, filter, limit, offset)
}
