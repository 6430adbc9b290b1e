package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/course-platform/internal/models"
)

// CreatePayment сохраняет платёж и возвращает его ID. Запись создаётся
// только после того, как все обращения к платёжному шлюзу прошли успешно.
func (s *Storage) CreatePayment(ctx context.Context, payment models.Payment) (int, error) {
	const op = "storage.CreatePayment"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID int
	query := `INSERT INTO payments (user_uid, course_id, lesson_id, amount, payment_method,
			      stripe_product_id, stripe_price_id, stripe_session_id, stripe_payment_url,
			      stripe_status)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		payment.UserUID, payment.CourseID, payment.LessonID, payment.Amount,
		payment.PaymentMethod, payment.StripeProductID, payment.StripePriceID,
		payment.StripeSessionID, payment.StripePayURL, payment.StripeStatus).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetPayment возвращает платёж по ID.
func (s *Storage) GetPayment(ctx context.Context, id int) (*models.Payment, error) {
	const op = "storage.GetPayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, payment_date, course_id, lesson_id, amount, payment_method,
			      stripe_product_id, stripe_price_id, stripe_session_id, stripe_payment_url,
			      stripe_status
			  FROM payments
			  WHERE id = $1`
	p := &models.Payment{}
	var courseID, lessonID sql.NullInt64
	row := s.DB.QueryRowContext(ctx, query, id)
	if err := row.Scan(&p.ID, &p.UserUID, &p.PaymentDate, &courseID, &lessonID,
		&p.Amount, &p.PaymentMethod, &p.StripeProductID, &p.StripePriceID,
		&p.StripeSessionID, &p.StripePayURL, &p.StripeStatus); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if courseID.Valid {
		v := int(courseID.Int64)
		p.CourseID = &v
	}
	if lessonID.Valid {
		v := int(lessonID.Int64)
		p.LessonID = &v
	}
	return p, nil
}

// ListPayments возвращает платежи по фильтрам, упорядоченные по дате оплаты,
// с пагинацией.
func (s *Storage) ListPayments(ctx context.Context, filter models.PaymentFilter, limit, offset int) ([]*models.Payment, error) {
	const op = "storage.ListPayments"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, payment_date, course_id, lesson_id, amount, payment_method,
			      stripe_product_id, stripe_price_id, stripe_session_id, stripe_payment_url,
			      stripe_status
			  FROM payments
			  WHERE ($1::INTEGER IS NULL OR course_id = $1)
			    AND ($2::INTEGER IS NULL OR lesson_id = $2)
			    AND ($3::TEXT IS NULL OR payment_method = $3)
			  ORDER BY payment_date DESC
			  LIMIT $4 OFFSET $5`
	rows, err := s.DB.QueryContext(ctx, query,
		filter.CourseID, filter.LessonID, filter.PaymentMethod, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.Payment
	for rows.Next() {
		var p models.Payment
		var courseID, lessonID sql.NullInt64
		if err = rows.Scan(&p.ID, &p.UserUID, &p.PaymentDate, &courseID, &lessonID,
			&p.Amount, &p.PaymentMethod, &p.StripeProductID, &p.StripePriceID,
			&p.StripeSessionID, &p.StripePayURL, &p.StripeStatus); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if courseID.Valid {
			v := int(courseID.Int64)
			p.CourseID = &v
		}
		if lessonID.Valid {
			v := int(lessonID.Int64)
			p.LessonID = &v
		}
		result = append(result, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdatePaymentStatus обновляет только статус платёжной сессии.
func (s *Storage) UpdatePaymentStatus(ctx context.Context, id int, status string) error {
	const op = "storage.UpdatePaymentStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE payments
			  SET stripe_status = $1
			  WHERE id = $2`
	if _, err := s.DB.ExecContext(ctx, query, status, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
