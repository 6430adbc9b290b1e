// Package user содержит бизнес-логику регистрации, входа и управления профилем.
package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/course-platform/internal/lib/jwt"
	"github.com/magabrotheeeer/course-platform/internal/lib/password"
	"github.com/magabrotheeeer/course-platform/internal/models"
	"github.com/magabrotheeeer/course-platform/internal/permissions"
)

// ErrForbidden операция запрещена политикой доступа.
var ErrForbidden = errors.New("forbidden")

// ErrNotFound пользователь не найден.
var ErrNotFound = errors.New("user not found")

// ErrInvalidCredentials неверная пара email/пароль.
var ErrInvalidCredentials = errors.New("invalid email or password")

// UserRepository определяет методы для работы с пользователями в хранилище.
type UserRepository interface {
	// RegisterUser сохраняет нового пользователя и возвращает его UID.
	RegisterUser(ctx context.Context, user models.User) (string, error)
	// GetUserByEmail возвращает пользователя по email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUser возвращает пользователя по UID.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	// UpdateUserProfile обновляет профильные поля пользователя.
	UpdateUserProfile(ctx context.Context, userUID string, upd models.DummyUserUpdate) (int64, error)
	// UpdateLastLogin обновляет время последней аутентификации.
	UpdateLastLogin(ctx context.Context, userUID string, loginTime time.Time) error
	// DeleteUser удаляет пользователя по UID.
	DeleteUser(ctx context.Context, userUID string) (int64, error)
}

// UserService реализует бизнес-логику работы с пользователями.
type UserService struct {
	repo     UserRepository
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// NewUserService создает новый экземпляр UserService.
func NewUserService(repo UserRepository, jwtMaker jwt.Maker, log *slog.Logger) *UserService {
	return &UserService{
		repo:     repo,
		jwtMaker: jwtMaker,
		log:      log,
	}
}

// Register регистрирует нового пользователя. Аутентификация не требуется,
// пользователь сразу активен.
func (s *UserService) Register(ctx context.Context, req models.DummyRegister) (string, error) {
	passwordHash, err := password.GetHash(req.Password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	newUID, err := s.repo.RegisterUser(ctx, models.User{
		Email:        req.Email,
		PasswordHash: passwordHash,
		FirstName:    req.FirstName,
		Phone:        req.Phone,
		City:         req.City,
		IsActive:     true,
	})
	if err != nil {
		return "", err
	}

	s.log.Info("registered new user", slog.String("uid", newUID))
	return newUID, nil
}

// Login проверяет пару email/пароль, обновляет время последнего входа
// и возвращает JWT токен.
func (s *UserService) Login(ctx context.Context, req models.DummyLogin) (string, error) {
	u, err := s.repo.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if !u.IsActive {
		return "", ErrInvalidCredentials
	}
	if err = password.CompareHash(u.PasswordHash, req.Password); err != nil {
		return "", ErrInvalidCredentials
	}

	if err = s.repo.UpdateLastLogin(ctx, u.UID, time.Now()); err != nil {
		return "", err
	}

	token, err := s.jwtMaker.GenerateToken(u.UID, u.Email, u.Roles, u.IsStaff, u.IsSuperuser)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	s.log.Info("user logged in", slog.String("uid", u.UID))
	return token, nil
}

// Read возвращает пользователя по UID: разрешено самому пользователю и staff.
func (s *UserService) Read(ctx context.Context, actor permissions.Actor, targetUID string) (*models.User, error) {
	u, err := s.repo.GetUser(ctx, targetUID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	actor.OwnerUID = &u.UID
	if !permissions.UserModify.Allows(actor) {
		return nil, ErrForbidden
	}
	return u, nil
}

// Update обновляет профильные поля: разрешено самому пользователю и staff.
func (s *UserService) Update(ctx context.Context, actor permissions.Actor, targetUID string, req models.DummyUserUpdate) error {
	u, err := s.repo.GetUser(ctx, targetUID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	actor.OwnerUID = &u.UID
	if !permissions.UserModify.Allows(actor) {
		return ErrForbidden
	}

	count, err := s.repo.UpdateUserProfile(ctx, targetUID, req)
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	s.log.Info("updated user profile", slog.String("uid", targetUID))
	return nil
}

// Delete удаляет пользователя: разрешено самому пользователю и staff.
func (s *UserService) Delete(ctx context.Context, actor permissions.Actor, targetUID string) error {
	u, err := s.repo.GetUser(ctx, targetUID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	actor.OwnerUID = &u.UID
	if !permissions.UserModify.Allows(actor) {
		return ErrForbidden
	}

	count, err := s.repo.DeleteUser(ctx, targetUID)
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	s.log.Info("deleted user", slog.String("uid", targetUID))
	return nil
}
