// Package lesson содержит бизнес-логику для управления уроками.
package lesson

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/magabrotheeeer/course-platform/internal/lib/videolink"
	"github.com/magabrotheeeer/course-platform/internal/models"
	"github.com/magabrotheeeer/course-platform/internal/permissions"
)

// ErrForbidden операция запрещена политикой доступа.
var ErrForbidden = errors.New("forbidden")

// ErrNotFound урок не найден.
var ErrNotFound = errors.New("lesson not found")

// ErrCourseNotFound курс, к которому привязывается урок, не найден.
var ErrCourseNotFound = errors.New("course not found")

// LessonRepository определяет методы для работы с уроками в хранилище.
type LessonRepository interface {
	// CreateLesson добавляет новый урок и возвращает его ID.
	CreateLesson(ctx context.Context, lesson models.Lesson) (int, error)
	// GetLesson возвращает урок по ID.
	GetLesson(ctx context.Context, id int) (*models.Lesson, error)
	// ListAllLessons возвращает список всех уроков с пагинацией.
	ListAllLessons(ctx context.Context, limit, offset int) ([]*models.Lesson, error)
	// ListLessonsByOwner возвращает список уроков пользователя с пагинацией.
	ListLessonsByOwner(ctx context.Context, ownerUID string, limit, offset int) ([]*models.Lesson, error)
	// UpdateLesson обновляет данные урока по ID.
	UpdateLesson(ctx context.Context, id int, lesson models.DummyLesson) (int64, error)
	// DeleteLesson удаляет урок по ID.
	DeleteLesson(ctx context.Context, id int) (int64, error)
	// GetCourse возвращает курс по ID.
	GetCourse(ctx context.Context, id int) (*models.Course, error)
}

// LessonService реализует бизнес-логику работы с уроками.
type LessonService struct {
	repo LessonRepository
	log  *slog.Logger
}

// NewLessonService создает новый экземпляр LessonService.
func NewLessonService(repo LessonRepository, log *slog.Logger) *LessonService {
	return &LessonService{
		repo: repo,
		log:  log,
	}
}

// Create создает новый урок. Ссылка на видео проверяется до записи:
// допускаются только youtube.com. Владельцем записывается актор.
func (s *LessonService) Create(ctx context.Context, actor permissions.Actor, req models.DummyLesson) (int, error) {
	if !permissions.LessonCreate.Allows(actor) {
		return 0, ErrForbidden
	}
	if err := videolink.Validate(req.VideoLink); err != nil {
		return 0, err
	}

	_, err := s.repo.GetCourse(ctx, req.CourseID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrCourseNotFound
	}
	if err != nil {
		return 0, err
	}

	ownerUID := actor.UserUID
	id, err := s.repo.CreateLesson(ctx, models.Lesson{
		Title:       req.Title,
		Description: req.Description,
		PreviewURL:  req.PreviewURL,
		VideoLink:   req.VideoLink,
		CourseID:    req.CourseID,
		OwnerUID:    &ownerUID,
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("created new lesson", slog.Int("id", id))
	return id, nil
}

// Read возвращает урок по ID: доступен модераторам, владельцу и staff.
func (s *LessonService) Read(ctx context.Context, actor permissions.Actor, id int) (*models.Lesson, error) {
	l, err := s.repo.GetLesson(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	actor.OwnerUID = l.OwnerUID
	if !permissions.LessonReadUpdate.Allows(actor) {
		return nil, ErrForbidden
	}
	return l, nil
}

// List возвращает список уроков в зависимости от роли пользователя:
// staff и модераторы видят все уроки, остальные — только свои.
func (s *LessonService) List(ctx context.Context, actor permissions.Actor, limit, offset int) ([]*models.Lesson, error) {
	if !actor.Authenticated {
		return nil, ErrForbidden
	}
	if permissions.SeesAll(actor) {
		return s.repo.ListAllLessons(ctx, limit, offset)
	}
	return s.repo.ListLessonsByOwner(ctx, actor.UserUID, limit, offset)
}

// Update обновляет урок: доступно модераторам, владельцу и staff.
// Ссылка на видео проверяется до записи.
func (s *LessonService) Update(ctx context.Context, actor permissions.Actor, id int, req models.DummyLesson) error {
	if err := videolink.Validate(req.VideoLink); err != nil {
		return err
	}

	current, err := s.repo.GetLesson(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	actor.OwnerUID = current.OwnerUID
	if !permissions.LessonReadUpdate.Allows(actor) {
		return ErrForbidden
	}

	count, err := s.repo.UpdateLesson(ctx, id, req)
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	s.log.Info("updated lesson", slog.Int("id", id))
	return nil
}

// Delete удаляет урок: доступно владельцу и staff, но не модераторам.
func (s *LessonService) Delete(ctx context.Context, actor permissions.Actor, id int) error {
	current, err := s.repo.GetLesson(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	actor.OwnerUID = current.OwnerUID
	if !permissions.LessonDelete.Allows(actor) {
		return ErrForbidden
	}

	count, err := s.repo.DeleteLesson(ctx, id)
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	s.log.Info("deleted lesson", slog.Int("id", id))
	return nil
}
