// Package scheduler содержит планировщик периодических задач платформы.
//
// По расписанию выполняется деактивация пользователей, не входивших больше
// месяца: ежедневная задача и еженедельная контрольная проверка активности.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/magabrotheeeer/course-platform/internal/config"
	sweeperservice "github.com/magabrotheeeer/course-platform/internal/services/sweeper"
	"github.com/magabrotheeeer/course-platform/internal/storage/repository"
)

// App представляет приложение планировщика.
type App struct {
	sweeperService *sweeperservice.SweeperService
	cron           *cron.Cron
	cfg            *config.Config
	db             *repository.Storage
	logger         *slog.Logger
}

func waitForDB(db *repository.Storage) error {
	for range 10 {
		err := db.CheckDatabaseReady(context.Background())
		if err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err := waitForDB(db); err != nil {
		return nil, err
	}

	sweeperService := sweeperservice.NewSweeperService(db, logger)

	return &App{
		sweeperService: sweeperService,
		cron:           cron.New(),
		cfg:            cfg,
		db:             db,
		logger:         logger,
	}, nil
}

// Run регистрирует задачи по расписаниям из конфига и работает до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	_, err := a.cron.AddFunc(a.cfg.DeactivateCron, func() {
		if _, err := a.sweeperService.DeactivateInactiveUsers(ctx); err != nil {
			a.logger.Error("deactivate inactive users job failed", slog.Any("err", err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to register deactivate job: %w", err)
	}

	_, err = a.cron.AddFunc(a.cfg.ActivityCheckCron, func() {
		if _, err := a.sweeperService.CheckUserActivity(ctx); err != nil {
			a.logger.Error("user activity check job failed", slog.Any("err", err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to register activity check job: %w", err)
	}

	a.cron.Start()
	a.logger.Info("scheduler started",
		slog.String("deactivate_cron", a.cfg.DeactivateCron),
		slog.String("activity_check_cron", a.cfg.ActivityCheckCron))

	<-ctx.Done()
	a.logger.Info("shutting down scheduler service")

	stopCtx := a.cron.Stop()
	<-stopCtx.Done()

	if err := a.db.DB.Close(); err != nil {
		a.logger.Error("failed to close storage", slog.Any("err", err))
	}
	return nil
}
