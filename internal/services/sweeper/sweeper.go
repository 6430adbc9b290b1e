// Package sweeper содержит периодическую деактивацию неактивных пользователей.
package sweeper

import (
	"context"
	"log/slog"
	"time"
)

// InactivityPeriod срок без входа, после которого учётная запись
// деактивируется.
const InactivityPeriod = 30 * 24 * time.Hour

// UserRepository определяет массовую деактивацию пользователей.
type UserRepository interface {
	// DeactivateUsersInactiveSince снимает флаг активности со всех активных
	// пользователей, чей последний вход раньше cutoff, и возвращает число
	// затронутых строк.
	DeactivateUsersInactiveSince(ctx context.Context, cutoff time.Time) (int64, error)
}

// SweeperService деактивирует пользователей, не входивших больше месяца.
type SweeperService struct {
	repo UserRepository
	log  *slog.Logger
}

// NewSweeperService создает новый экземпляр SweeperService.
func NewSweeperService(repo UserRepository, log *slog.Logger) *SweeperService {
	return &SweeperService{
		repo: repo,
		log:  log,
	}
}

// DeactivateInactiveUsers деактивирует всех пользователей, чей последний вход
// был раньше, чем 30 дней назад. Пользователи без даты входа не затрагиваются.
// Возвращает число деактивированных записей.
func (s *SweeperService) DeactivateInactiveUsers(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-InactivityPeriod)
	count, err := s.repo.DeactivateUsersInactiveSince(ctx, cutoff)
	if err != nil {
		s.log.Error("failed to deactivate inactive users", slog.Any("err", err))
		return 0, err
	}
	s.log.Info("deactivated inactive users",
		slog.Int64("count", count), slog.Time("cutoff", cutoff))
	return count, nil
}

// CheckUserActivity выполняет ту же деактивацию, что и DeactivateInactiveUsers.
// Отдельное имя сохранено для второго расписания планировщика.
func (s *SweeperService) CheckUserActivity(ctx context.Context) (int64, error) {
	return s.DeactivateInactiveUsers(ctx)
}
