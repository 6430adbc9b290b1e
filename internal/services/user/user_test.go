package user

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/course-platform/internal/lib/jwt"
	"github.com/magabrotheeeer/course-platform/internal/lib/password"
	"github.com/magabrotheeeer/course-platform/internal/models"
	"github.com/magabrotheeeer/course-platform/internal/permissions"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) RegisterUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *MockRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockRepository) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockRepository) UpdateUserProfile(ctx context.Context, userUID string, upd models.DummyUserUpdate) (int64, error) {
	args := m.Called(ctx, userUID, upd)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) UpdateLastLogin(ctx context.Context, userUID string, loginTime time.Time) error {
	args := m.Called(ctx, userUID, loginTime)
	return args.Error(0)
}

func (m *MockRepository) DeleteUser(ctx context.Context, userUID string) (int64, error) {
	args := m.Called(ctx, userUID)
	return args.Get(0).(int64), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newService(repo *MockRepository) *UserService {
	return NewUserService(repo, jwt.NewJWTMaker("test-secret", time.Hour), newNoopLogger())
}

func TestUserService_Register(t *testing.T) {
	repo := new(MockRepository)
	service := newService(repo)

	repo.On("RegisterUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.Email == "new@example.com" && u.IsActive &&
			u.PasswordHash != "" && u.PasswordHash != "secret-password"
	})).Return("uid-1", nil).Once()

	uid, err := service.Register(context.Background(), models.DummyRegister{
		Email:    "new@example.com",
		Password: "secret-password",
	})
	require.NoError(t, err)
	assert.Equal(t, "uid-1", uid)

	repo.AssertExpectations(t)
}

func TestUserService_Login(t *testing.T) {
	hash, err := password.GetHash("secret-password")
	require.NoError(t, err)

	activeUser := &models.User{
		UID: "uid-1", Email: "user@example.com", PasswordHash: hash, IsActive: true,
	}

	t.Run("success updates last login and returns token", func(t *testing.T) {
		repo := new(MockRepository)
		service := newService(repo)

		repo.On("GetUserByEmail", mock.Anything, "user@example.com").Return(activeUser, nil).Once()
		repo.On("UpdateLastLogin", mock.Anything, "uid-1", mock.AnythingOfType("time.Time")).Return(nil).Once()

		token, err := service.Login(context.Background(), models.DummyLogin{
			Email: "user@example.com", Password: "secret-password",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, token)

		repo.AssertExpectations(t)
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := new(MockRepository)
		service := newService(repo)

		repo.On("GetUserByEmail", mock.Anything, "user@example.com").Return(activeUser, nil).Once()

		_, err := service.Login(context.Background(), models.DummyLogin{
			Email: "user@example.com", Password: "wrong",
		})
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		repo.AssertNotCalled(t, "UpdateLastLogin", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown email", func(t *testing.T) {
		repo := new(MockRepository)
		service := newService(repo)

		repo.On("GetUserByEmail", mock.Anything, "ghost@example.com").Return(nil, sql.ErrNoRows).Once()

		_, err := service.Login(context.Background(), models.DummyLogin{
			Email: "ghost@example.com", Password: "secret-password",
		})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("deactivated user cannot log in", func(t *testing.T) {
		repo := new(MockRepository)
		service := newService(repo)

		inactive := &models.User{UID: "uid-2", PasswordHash: hash, IsActive: false}
		repo.On("GetUserByEmail", mock.Anything, "old@example.com").Return(inactive, nil).Once()

		_, err := service.Login(context.Background(), models.DummyLogin{
			Email: "old@example.com", Password: "secret-password",
		})
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		repo.AssertNotCalled(t, "UpdateLastLogin", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestUserService_Update(t *testing.T) {
	target := &models.User{UID: "uid-1", Email: "user@example.com"}
	req := models.DummyUserUpdate{City: "Казань"}

	t.Run("self update allowed", func(t *testing.T) {
		repo := new(MockRepository)
		service := newService(repo)

		repo.On("GetUser", mock.Anything, "uid-1").Return(target, nil).Once()
		repo.On("UpdateUserProfile", mock.Anything, "uid-1", req).Return(int64(1), nil).Once()

		err := service.Update(context.Background(),
			permissions.Actor{Authenticated: true, UserUID: "uid-1"}, "uid-1", req)
		require.NoError(t, err)

		repo.AssertExpectations(t)
	})

	t.Run("staff can update anyone", func(t *testing.T) {
		repo := new(MockRepository)
		service := newService(repo)

		repo.On("GetUser", mock.Anything, "uid-1").Return(target, nil).Once()
		repo.On("UpdateUserProfile", mock.Anything, "uid-1", req).Return(int64(1), nil).Once()

		err := service.Update(context.Background(),
			permissions.Actor{Authenticated: true, UserUID: "s1", IsStaff: true}, "uid-1", req)
		require.NoError(t, err)
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		repo := new(MockRepository)
		service := newService(repo)

		repo.On("GetUser", mock.Anything, "uid-1").Return(target, nil).Once()

		err := service.Update(context.Background(),
			permissions.Actor{Authenticated: true, UserUID: "uid-2"}, "uid-1", req)
		assert.ErrorIs(t, err, ErrForbidden)

		repo.AssertNotCalled(t, "UpdateUserProfile", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("user not found", func(t *testing.T) {
		repo := new(MockRepository)
		service := newService(repo)

		repo.On("GetUser", mock.Anything, "ghost").Return(nil, sql.ErrNoRows).Once()

		err := service.Update(context.Background(),
			permissions.Actor{Authenticated: true, UserUID: "uid-1"}, "ghost", req)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUserService_Delete(t *testing.T) {
	target := &models.User{UID: "uid-1"}

	t.Run("self delete allowed", func(t *testing.T) {
		repo := new(MockRepository)
		service := newService(repo)

		repo.On("GetUser", mock.Anything, "uid-1").Return(target, nil).Once()
		repo.On("DeleteUser", mock.Anything, "uid-1").Return(int64(1), nil).Once()

		err := service.Delete(context.Background(),
			permissions.Actor{Authenticated: true, UserUID: "uid-1"}, "uid-1")
		require.NoError(t, err)
	})

	t.Run("moderator is forbidden", func(t *testing.T) {
		repo := new(MockRepository)
		service := newService(repo)

		repo.On("GetUser", mock.Anything, "uid-1").Return(target, nil).Once()

		err := service.Delete(context.Background(),
			permissions.Actor{Authenticated: true, UserUID: "m1", Roles: []string{permissions.ModeratorsGroup}},
			"uid-1")
		assert.ErrorIs(t, err, ErrForbidden)

		repo.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything)
	})
}
