package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/magabrotheeeer/course-platform/internal/models"
)

// Роли хранятся в колонке text[], но через database/sql массивы
// проходят в виде строки: при записи string_to_array, при чтении array_to_string.
func joinRoles(roles []string) string {
	return strings.Join(roles, ",")
}

func splitRoles(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

// RegisterUser сохраняет нового пользователя в базу данных и возвращает его UID.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO users (email, password_hash, first_name, phone, city, avatar_url,
			      is_staff, is_superuser, is_active, roles)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, string_to_array(NULLIF($10, ''), ','))
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, user.FirstName, user.Phone, user.City, user.AvatarURL,
		user.IsStaff, user.IsSuperuser, user.IsActive, joinRoles(user.Roles)).Scan(&newUID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

const userColumns = `uid, email, password_hash, first_name, phone, city, avatar_url,
			      is_staff, is_superuser, is_active, last_login,
			      array_to_string(roles, ',')`

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var lastLogin sql.NullTime
	var roles string
	if err := row.Scan(&u.UID, &u.Email, &u.PasswordHash, &u.FirstName, &u.Phone, &u.City,
		&u.AvatarURL, &u.IsStaff, &u.IsSuperuser, &u.IsActive, &lastLogin, &roles); err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	u.Roles = splitRoles(roles)
	return u, nil
}

// GetUserByEmail возвращает пользователя по его email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE email = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE uid = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userUID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdateUserProfile обновляет профильные поля пользователя и возвращает
// количество обновлённых записей.
func (s *Storage) UpdateUserProfile(ctx context.Context, userUID string, upd models.DummyUserUpdate) (int64, error) {
	const op = "storage.UpdateUserProfile"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET first_name = $1,
			      phone = $2,
			      city = $3,
			      avatar_url = $4
			  WHERE uid = $5`
	res, err := s.DB.ExecContext(ctx, query, upd.FirstName, upd.Phone, upd.City, upd.AvatarURL, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// UpdateLastLogin обновляет время последней аутентификации пользователя.
func (s *Storage) UpdateLastLogin(ctx context.Context, userUID string, loginTime time.Time) error {
	const op = "storage.UpdateLastLogin"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET last_login = $1
			  WHERE uid = $2`
	if _, err := s.DB.ExecContext(ctx, query, loginTime, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteUser удаляет пользователя по UID и возвращает количество удалённых записей.
func (s *Storage) DeleteUser(ctx context.Context, userUID string) (int64, error) {
	const op = "storage.DeleteUser"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM users
			  WHERE uid = $1`
	res, err := s.DB.ExecContext(ctx, query, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// DeactivateUsersInactiveSince массово деактивирует активных пользователей,
// чей последний вход был строго раньше cutoff, и возвращает количество затронутых.
func (s *Storage) DeactivateUsersInactiveSince(ctx context.Context, cutoff time.Time) (int64, error) {
	const op = "storage.DeactivateUsersInactiveSince"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET is_active = FALSE
			  WHERE last_login < $1
			    AND is_active = TRUE`
	res, err := s.DB.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
