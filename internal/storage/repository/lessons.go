package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/course-platform/internal/models"
)

// CreateLesson добавляет новый урок и возвращает его ID.
func (s *Storage) CreateLesson(ctx context.Context, lesson models.Lesson) (int, error) {
	const op = "storage.CreateLesson"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID int
	query := `INSERT INTO lessons (title, description, preview_url, video_link, course_id, owner_uid)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		lesson.Title, lesson.Description, lesson.PreviewURL, lesson.VideoLink,
		lesson.CourseID, lesson.OwnerUID).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetLesson возвращает урок по ID.
func (s *Storage) GetLesson(ctx context.Context, id int) (*models.Lesson, error) {
	const op = "storage.GetLesson"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, title, description, preview_url, video_link, course_id, owner_uid
			  FROM lessons
			  WHERE id = $1`
	l := &models.Lesson{}
	var ownerUID sql.NullString
	row := s.DB.QueryRowContext(ctx, query, id)
	if err := row.Scan(&l.ID, &l.Title, &l.Description, &l.PreviewURL, &l.VideoLink,
		&l.CourseID, &ownerUID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if ownerUID.Valid {
		l.OwnerUID = &ownerUID.String
	}
	return l, nil
}

func (s *Storage) listLessons(ctx context.Context, op, query string, args ...any) ([]*models.Lesson, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.Lesson
	for rows.Next() {
		var l models.Lesson
		var ownerUID sql.NullString
		if err = rows.Scan(&l.ID, &l.Title, &l.Description, &l.PreviewURL, &l.VideoLink,
			&l.CourseID, &ownerUID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if ownerUID.Valid {
			l.OwnerUID = &ownerUID.String
		}
		result = append(result, &l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListAllLessons возвращает список всех уроков с пагинацией.
func (s *Storage) ListAllLessons(ctx context.Context, limit, offset int) ([]*models.Lesson, error) {
	const op = "storage.ListAllLessons"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, title, description, preview_url, video_link, course_id, owner_uid
			  FROM lessons
			  ORDER BY id
			  LIMIT $1 OFFSET $2`
	return s.listLessons(ctx, op, query, limit, offset)
}

// ListLessonsByOwner возвращает список уроков пользователя с пагинацией.
func (s *Storage) ListLessonsByOwner(ctx context.Context, ownerUID string, limit, offset int) ([]*models.Lesson, error) {
	const op = "storage.ListLessonsByOwner"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, title, description, preview_url, video_link, course_id, owner_uid
			  FROM lessons
			  WHERE owner_uid = $1
			  ORDER BY id
			  LIMIT $2 OFFSET $3`
	return s.listLessons(ctx, op, query, ownerUID, limit, offset)
}

// UpdateLesson обновляет данные урока по ID и возвращает количество обновлённых записей.
func (s *Storage) UpdateLesson(ctx context.Context, id int, lesson models.DummyLesson) (int64, error) {
	const op = "storage.UpdateLesson"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE lessons
			  SET title = $1,
			      description = $2,
			      preview_url = $3,
			      video_link = $4,
			      course_id = $5
			  WHERE id = $6`
	res, err := s.DB.ExecContext(ctx, query, lesson.Title, lesson.Description,
		lesson.PreviewURL, lesson.VideoLink, lesson.CourseID, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// DeleteLesson удаляет урок по ID и возвращает количество удалённых записей.
func (s *Storage) DeleteLesson(ctx context.Context, id int) (int64, error) {
	const op = "storage.DeleteLesson"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM lessons
			  WHERE id = $1`
	res, err := s.DB.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
