package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/course-platform/internal/models"
)

// ToggleSubscription атомарно переключает подписку пары (пользователь, курс).
// Если запись есть — удаляет её и возвращает added = false, иначе создаёт
// и возвращает added = true. Проверка и мутация выполняются в одной
// транзакции; проигранная гонка вставки (ON CONFLICT DO NOTHING) сводится
// к повторному удалению, так что операция безопасна при конкурентных вызовах.
func (s *Storage) ToggleSubscription(ctx context.Context, userUID string, courseID int) (bool, error) {
	const op = "storage.ToggleSubscription"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM subscriptions
		 WHERE user_uid = $1 AND course_id = $2`, userUID, courseID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if deleted > 0 {
		if err = tx.Commit(); err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
		return false, nil
	}

	res, err = tx.ExecContext(ctx,
		`INSERT INTO subscriptions (user_uid, course_id)
		 VALUES ($1, $2)
		 ON CONFLICT (user_uid, course_id) DO NOTHING`, userUID, courseID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if inserted == 0 {
		// Конкурентная вставка успела раньше: текущий вызов превращается в удаление.
		if _, err = tx.ExecContext(ctx,
			`DELETE FROM subscriptions
			 WHERE user_uid = $1 AND course_id = $2`, userUID, courseID); err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
		if err = tx.Commit(); err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
		return false, nil
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// IsSubscribed проверяет наличие подписки пары (пользователь, курс).
// Факт подписки нигде не кэшируется и всегда вычисляется проверкой существования.
func (s *Storage) IsSubscribed(ctx context.Context, userUID string, courseID int) (bool, error) {
	const op = "storage.IsSubscribed"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var id int
	query := `SELECT id
			  FROM subscriptions
			  WHERE user_uid = $1 AND course_id = $2`
	err := s.DB.QueryRowContext(ctx, query, userUID, courseID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// ListSubscribersByCourse возвращает подписчиков курса с данными для отправки писем.
func (s *Storage) ListSubscribersByCourse(ctx context.Context, courseID int) ([]*models.Subscriber, error) {
	const op = "storage.ListSubscribersByCourse"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT u.email, u.first_name
			  FROM subscriptions s
			  JOIN users u ON u.uid = s.user_uid
			  WHERE s.course_id = $1
			  ORDER BY s.subscribed_at`
	rows, err := s.DB.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.Subscriber
	for rows.Next() {
		var sub models.Subscriber
		if err = rows.Scan(&sub.Email, &sub.FirstName); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &sub)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
