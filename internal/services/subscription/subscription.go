// Package subscription содержит бизнес-логику переключения подписки на курс.
package subscription

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/magabrotheeeer/course-platform/internal/models"
	"github.com/magabrotheeeer/course-platform/internal/permissions"
)

// ErrForbidden операция запрещена политикой доступа.
var ErrForbidden = errors.New("forbidden")

// ErrCourseNotFound курс не найден.
var ErrCourseNotFound = errors.New("course not found")

// Ответы операции переключения.
const (
	MessageAdded   = "subscription added"
	MessageRemoved = "subscription removed"
)

// SubscriptionRepository определяет методы для работы с подписками в хранилище.
type SubscriptionRepository interface {
	// ToggleSubscription атомарно переключает подписку пары (пользователь, курс)
	// и возвращает true, если подписка была добавлена.
	ToggleSubscription(ctx context.Context, userUID string, courseID int) (bool, error)
	// IsSubscribed проверяет наличие подписки.
	IsSubscribed(ctx context.Context, userUID string, courseID int) (bool, error)
	// GetCourse возвращает курс по ID.
	GetCourse(ctx context.Context, id int) (*models.Course, error)
}

// SubscriptionService реализует бизнес-логику подписок.
type SubscriptionService struct {
	repo SubscriptionRepository
	log  *slog.Logger
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(repo SubscriptionRepository, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo: repo,
		log:  log,
	}
}

// Toggle переключает подписку актора на курс: существующая запись удаляется,
// отсутствующая создаётся. Возвращает сообщение о результате.
func (s *SubscriptionService) Toggle(ctx context.Context, actor permissions.Actor, courseID int) (string, error) {
	if !permissions.SubscriptionToggle.Allows(actor) {
		return "", ErrForbidden
	}

	_, err := s.repo.GetCourse(ctx, courseID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrCourseNotFound
	}
	if err != nil {
		return "", err
	}

	added, err := s.repo.ToggleSubscription(ctx, actor.UserUID, courseID)
	if err != nil {
		return "", err
	}
	if added {
		s.log.Info("subscription added",
			slog.String("user_uid", actor.UserUID), slog.Int("course_id", courseID))
		return MessageAdded, nil
	}
	s.log.Info("subscription removed",
		slog.String("user_uid", actor.UserUID), slog.Int("course_id", courseID))
	return MessageRemoved, nil
}

// IsSubscribed сообщает, подписан ли актор на курс. Значение всегда
// вычисляется проверкой существования записи, без кэширования.
func (s *SubscriptionService) IsSubscribed(ctx context.Context, actor permissions.Actor, courseID int) (bool, error) {
	if !actor.Authenticated {
		return false, ErrForbidden
	}
	return s.repo.IsSubscribed(ctx, actor.UserUID, courseID)
}
