package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/course-platform/internal/models"
)

// CreateCourse добавляет новый курс и возвращает его ID.
func (s *Storage) CreateCourse(ctx context.Context, course models.Course) (int, error) {
	const op = "storage.CreateCourse"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID int
	query := `INSERT INTO courses (title, description, preview_url, owner_uid)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		course.Title, course.Description, course.PreviewURL, course.OwnerUID).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

func scanCourse(row *sql.Row) (*models.Course, error) {
	c := &models.Course{}
	var ownerUID sql.NullString
	if err := row.Scan(&c.ID, &c.Title, &c.Description, &c.PreviewURL, &ownerUID); err != nil {
		return nil, err
	}
	if ownerUID.Valid {
		c.OwnerUID = &ownerUID.String
	}
	return c, nil
}

// GetCourse возвращает курс по ID.
func (s *Storage) GetCourse(ctx context.Context, id int) (*models.Course, error) {
	const op = "storage.GetCourse"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, title, description, preview_url, owner_uid
			  FROM courses
			  WHERE id = $1`
	c, err := scanCourse(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

func (s *Storage) listCourses(ctx context.Context, op, query string, args ...any) ([]*models.Course, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.Course
	for rows.Next() {
		var c models.Course
		var ownerUID sql.NullString
		if err = rows.Scan(&c.ID, &c.Title, &c.Description, &c.PreviewURL, &ownerUID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if ownerUID.Valid {
			c.OwnerUID = &ownerUID.String
		}
		result = append(result, &c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListAllCourses возвращает список всех курсов с пагинацией.
func (s *Storage) ListAllCourses(ctx context.Context, limit, offset int) ([]*models.Course, error) {
	const op = "storage.ListAllCourses"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, title, description, preview_url, owner_uid
			  FROM courses
			  ORDER BY id
			  LIMIT $1 OFFSET $2`
	return s.listCourses(ctx, op, query, limit, offset)
}

// ListCoursesByOwner возвращает список курсов пользователя с пагинацией.
func (s *Storage) ListCoursesByOwner(ctx context.Context, ownerUID string, limit, offset int) ([]*models.Course, error) {
	const op = "storage.ListCoursesByOwner"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, title, description, preview_url, owner_uid
			  FROM courses
			  WHERE owner_uid = $1
			  ORDER BY id
			  LIMIT $2 OFFSET $3`
	return s.listCourses(ctx, op, query, ownerUID, limit, offset)
}

// UpdateCourse обновляет данные курса по ID и возвращает количество обновлённых записей.
func (s *Storage) UpdateCourse(ctx context.Context, id int, course models.DummyCourse) (int64, error) {
	const op = "storage.UpdateCourse"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE courses
			  SET title = $1,
			      description = $2,
			      preview_url = $3
			  WHERE id = $4`
	res, err := s.DB.ExecContext(ctx, query, course.Title, course.Description, course.PreviewURL, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// DeleteCourse удаляет курс по ID и возвращает количество удалённых записей.
// Уроки курса удаляются каскадно на уровне базы данных.
func (s *Storage) DeleteCourse(ctx context.Context, id int) (int64, error) {
	const op = "storage.DeleteCourse"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM courses
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

// CountLessonsByCourse подсчитывает количество уроков курса.
func (s *Storage) CountLessonsByCourse(ctx context.Context, courseID int) (int, error) {
	const op = "storage.CountLessonsByCourse"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	query := `SELECT COUNT(*)
			  FROM lessons
			  WHERE course_id = $1`
	if err := s.DB.QueryRowContext(ctx, query, courseID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
