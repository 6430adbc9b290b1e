// Package course содержит бизнес-логику для управления курсами, включая
// кеширование чтения и публикацию событий обновления в очередь уведомлений.
package course

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/course-platform/internal/models"
	"github.com/magabrotheeeer/course-platform/internal/permissions"
	"github.com/magabrotheeeer/course-platform/internal/rabbitmq"
)

// ErrForbidden операция запрещена политикой доступа.
var ErrForbidden = errors.New("forbidden")

// ErrNotFound курс не найден.
var ErrNotFound = errors.New("course not found")

// CourseRepository определяет методы для работы с курсами в хранилище.
type CourseRepository interface {
	// CreateCourse добавляет новый курс и возвращает его ID.
	CreateCourse(ctx context.Context, course models.Course) (int, error)
	// GetCourse возвращает курс по ID.
	GetCourse(ctx context.Context, id int) (*models.Course, error)
	// ListAllCourses возвращает список всех курсов с пагинацией.
	ListAllCourses(ctx context.Context, limit, offset int) ([]*models.Course, error)
	// ListCoursesByOwner возвращает список курсов пользователя с пагинацией.
	ListCoursesByOwner(ctx context.Context, ownerUID string, limit, offset int) ([]*models.Course, error)
	// UpdateCourse обновляет данные курса по ID.
	UpdateCourse(ctx context.Context, id int, course models.DummyCourse) (int64, error)
	// DeleteCourse удаляет курс по ID.
	DeleteCourse(ctx context.Context, id int) (int64, error)
	// CountLessonsByCourse подсчитывает количество уроков курса.
	CountLessonsByCourse(ctx context.Context, courseID int) (int, error)
	// IsSubscribed проверяет наличие подписки пары (пользователь, курс).
	IsSubscribed(ctx context.Context, userUID string, courseID int) (bool, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// EventPublisher описывает публикацию событий в очередь.
type EventPublisher interface {
	Publish(exchange, routingkey string, message any) error
}

// CourseInfo курс вместе с вычисляемыми при чтении полями.
// Факт подписки никогда не кэшируется: он вычисляется проверкой
// существования записи при каждом чтении.
type CourseInfo struct {
	Course       *models.Course
	LessonsCount int
	Subscribed   bool
}

// CourseService реализует бизнес-логику работы с курсами.
type CourseService struct {
	repo      CourseRepository
	cache     Cache
	publisher EventPublisher
	log       *slog.Logger
}

// NewCourseService создает новый экземпляр CourseService.
func NewCourseService(repo CourseRepository, cache Cache, publisher EventPublisher, log *slog.Logger) *CourseService {
	return &CourseService{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		log:       log,
	}
}

// Create создает новый курс. Владельцем всегда записывается аутентифицированный
// актор: поле владельца из запроса клиента не принимается.
func (s *CourseService) Create(ctx context.Context, actor permissions.Actor, req models.DummyCourse) (int, error) {
	if !permissions.CourseCreate.Allows(actor) {
		return 0, ErrForbidden
	}

	ownerUID := actor.UserUID
	id, err := s.repo.CreateCourse(ctx, models.Course{
		Title:       req.Title,
		Description: req.Description,
		PreviewURL:  req.PreviewURL,
		OwnerUID:    &ownerUID,
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("created new course", slog.Int("id", id))
	return id, nil
}

// Read возвращает курс по ID, используя кеш или репозиторий.
// Признак подписки актора вычисляется заново при каждом чтении.
func (s *CourseService) Read(ctx context.Context, actor permissions.Actor, id int) (*CourseInfo, error) {
	if !permissions.CourseRead.Allows(actor) {
		return nil, ErrForbidden
	}

	var result *models.Course
	cacheKey := fmt.Sprintf("course:%d", id)
	found, err := s.cache.Get(cacheKey, &result)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("key", cacheKey), slog.Any("err", err))
		found = false
	}
	if !found {
		result, err = s.repo.GetCourse(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		if err = s.cache.Set(cacheKey, result, time.Hour); err != nil {
			s.log.Warn("failed to cache course", slog.String("key", cacheKey), slog.Any("err", err))
		}
	}

	lessonsCount, err := s.repo.CountLessonsByCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	subscribed, err := s.repo.IsSubscribed(ctx, actor.UserUID, id)
	if err != nil {
		return nil, err
	}

	return &CourseInfo{
		Course:       result,
		LessonsCount: lessonsCount,
		Subscribed:   subscribed,
	}, nil
}

// List возвращает список курсов в зависимости от роли пользователя:
// staff и модераторы видят все курсы, остальные — только свои.
func (s *CourseService) List(ctx context.Context, actor permissions.Actor, limit, offset int) ([]*models.Course, error) {
	if !permissions.CourseRead.Allows(actor) {
		return nil, ErrForbidden
	}
	if permissions.SeesAll(actor) {
		return s.repo.ListAllCourses(ctx, limit, offset)
	}
	return s.repo.ListCoursesByOwner(ctx, actor.UserUID, limit, offset)
}

// Update обновляет курс, обновляет кеш и публикует событие для асинхронной
// рассылки уведомлений подписчикам. В очередь передаётся только идентификатор
// курса: рассыльщик перечитает актуальное состояние при выполнении задачи.
func (s *CourseService) Update(ctx context.Context, actor permissions.Actor, id int, req models.DummyCourse) error {
	current, err := s.repo.GetCourse(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	actor.OwnerUID = current.OwnerUID
	if !permissions.CourseModify.Allows(actor) {
		return ErrForbidden
	}

	count, err := s.repo.UpdateCourse(ctx, id, req)
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	s.log.Info("updated course in storage", slog.Int("id", id))

	cacheKey := fmt.Sprintf("course:%d", id)
	if err = s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("key", cacheKey), slog.Any("err", err))
	}

	event := models.CourseUpdatedEvent{CourseID: id}
	if err = s.publisher.Publish(rabbitmq.NotificationsExchange, rabbitmq.CourseUpdatedKey, event); err != nil {
		return fmt.Errorf("failed to publish course update event: %w", err)
	}
	s.log.Info("published course update event", slog.Int("course_id", id))
	return nil
}

// Delete удаляет курс вместе с его уроками и инвалидирует кеш.
func (s *CourseService) Delete(ctx context.Context, actor permissions.Actor, id int) error {
	current, err := s.repo.GetCourse(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	actor.OwnerUID = current.OwnerUID
	if !permissions.CourseModify.Allows(actor) {
		return ErrForbidden
	}

	cacheKey := fmt.Sprintf("course:%d", id)
	if err = s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("key", cacheKey), slog.Any("err", err))
	}

	count, err := s.repo.DeleteCourse(ctx, id)
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	s.log.Info("deleted course", slog.Int("id", id))
	return nil
}
