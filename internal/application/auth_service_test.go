package application

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Barklim/bio/internal/apperr"
	"github.com/Barklim/bio/internal/domain/entity"
	"github.com/Barklim/bio/pkg/helpers"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, u *entity.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmailWithPassword(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *mockUserRepo) List(ctx context.Context) ([]*entity.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.User), args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, u *entity.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUserRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	args := m.Called(ctx, id, hash)
	return args.Error(0)
}

func (m *mockUserRepo) TouchLastLogin(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newAuthService(repo *mockUserRepo) *AuthService {
	return NewAuthService(repo, helpers.NewJWTManager("test-secret", "1h"), quietLogger(), nil)
}

func TestRegister(t *testing.T) {
	repo := new(mockUserRepo)
	svc := newAuthService(repo)

	repo.On("GetByEmail", mock.Anything, "jane@example.com").Return(nil, apperr.ErrUserNotFound)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*entity.User")).Run(func(args mock.Arguments) {
		u := args.Get(1).(*entity.User)
		u.ID = 1
	}).Return(nil)

	res, err := svc.Register(context.Background(), RegisterInput{
		Email:     "  Jane@Example.COM ",
		FirstName: "Jane",
		LastName:  "Doe",
		Password:  "Password123",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, 3600, res.ExpiresIn)
	assert.Equal(t, int64(1), res.User.ID)
	assert.Equal(t, "jane@example.com", res.User.Email, "email must be normalized before storage")

	created := repo.Calls[1].Arguments.Get(1).(*entity.User)
	assert.Equal(t, "jane@example.com", created.Email)
	assert.NotEqual(t, "Password123", created.PasswordHash)
	assert.True(t, helpers.CheckPassword(created.PasswordHash, "Password123"))
	repo.AssertExpectations(t)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := new(mockUserRepo)
	svc := newAuthService(repo)

	existing := &entity.User{ID: 1, Email: "jane@example.com"}
	repo.On("GetByEmail", mock.Anything, "jane@example.com").Return(existing, nil)

	// Case-folded duplicate hits the same conflict.
	_, err := svc.Register(context.Background(), RegisterInput{
		Email:     "JANE@EXAMPLE.COM",
		FirstName: "Jane",
		LastName:  "Doe",
		Password:  "Password123",
	})
	assert.ErrorIs(t, err, apperr.ErrEmailTaken)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegisterLosesCreationRace(t *testing.T) {
	// The pre-check passes but the unique index rejects the insert: a
	// concurrent registration won. Still a conflict, not a 500.
	repo := new(mockUserRepo)
	svc := newAuthService(repo)

	repo.On("GetByEmail", mock.Anything, "jane@example.com").Return(nil, apperr.ErrUserNotFound)
	repo.On("Create", mock.Anything, mock.Anything).Return(apperr.ErrEmailTaken)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:     "jane@example.com",
		FirstName: "Jane",
		LastName:  "Doe",
		Password:  "Password123",
	})
	assert.ErrorIs(t, err, apperr.ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	repo := new(mockUserRepo)
	svc := newAuthService(repo)

	hash, err := helpers.HashPassword("Password123")
	require.NoError(t, err)
	u := &entity.User{ID: 7, Email: "jane@example.com", FirstName: "Jane", LastName: "Doe", PasswordHash: hash, IsActive: true}

	repo.On("GetByEmailWithPassword", mock.Anything, "jane@example.com").Return(u, nil)
	repo.On("TouchLastLogin", mock.Anything, int64(7)).Return(nil)

	res, err := svc.Login(context.Background(), "Jane@Example.com", "Password123")
	require.NoError(t, err)

	assert.Equal(t, int64(7), res.User.ID)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.NotEmpty(t, res.AccessToken)
	repo.AssertExpectations(t)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	hash, err := helpers.HashPassword("Password123")
	require.NoError(t, err)

	tests := []struct {
		name  string
		setup func(repo *mockUserRepo)
	}{
		{
			name: "unknown email",
			setup: func(repo *mockUserRepo) {
				repo.On("GetByEmailWithPassword", mock.Anything, "jane@example.com").Return(nil, apperr.ErrUserNotFound)
			},
		},
		{
			name: "wrong password",
			setup: func(repo *mockUserRepo) {
				u := &entity.User{ID: 7, Email: "jane@example.com", PasswordHash: hash, IsActive: true}
				repo.On("GetByEmailWithPassword", mock.Anything, "jane@example.com").Return(u, nil)
			},
		},
		{
			name: "inactive account",
			setup: func(repo *mockUserRepo) {
				u := &entity.User{ID: 7, Email: "jane@example.com", PasswordHash: hash, IsActive: false}
				repo.On("GetByEmailWithPassword", mock.Anything, "jane@example.com").Return(u, nil)
			},
		},
		{
			name: "no credentials on record",
			setup: func(repo *mockUserRepo) {
				u := &entity.User{ID: 7, Email: "jane@example.com", IsActive: true}
				repo.On("GetByEmailWithPassword", mock.Anything, "jane@example.com").Return(u, nil)
			},
		},
		{
			name: "store failure",
			setup: func(repo *mockUserRepo) {
				repo.On("GetByEmailWithPassword", mock.Anything, "jane@example.com").Return(nil, errors.New("connection refused"))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockUserRepo)
			tt.setup(repo)
			svc := newAuthService(repo)

			_, err := svc.Login(context.Background(), "jane@example.com", "bad-guess")
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
			assert.Equal(t, "Invalid email or password", err.Error())
		})
	}
}

func TestValidateUser(t *testing.T) {
	repo := new(mockUserRepo)
	svc := newAuthService(repo)

	u := &entity.User{ID: 7, Email: "jane@example.com", IsActive: true}
	repo.On("GetByID", mock.Anything, int64(7)).Return(u, nil)

	got := svc.ValidateUser(context.Background(), 7)
	require.NotNil(t, got)
	assert.Equal(t, int64(7), got.ID)
}

func TestValidateUserDeniesOnAnyFailure(t *testing.T) {
	tests := []struct {
		name  string
		setup func(repo *mockUserRepo)
	}{
		{
			name: "not found",
			setup: func(repo *mockUserRepo) {
				repo.On("GetByID", mock.Anything, int64(7)).Return(nil, apperr.ErrUserNotFound)
			},
		},
		{
			name: "inactive",
			setup: func(repo *mockUserRepo) {
				repo.On("GetByID", mock.Anything, int64(7)).Return(&entity.User{ID: 7, IsActive: false}, nil)
			},
		},
		{
			name: "store failure",
			setup: func(repo *mockUserRepo) {
				repo.On("GetByID", mock.Anything, int64(7)).Return(nil, errors.New("timeout"))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockUserRepo)
			tt.setup(repo)
			svc := newAuthService(repo)

			assert.Nil(t, svc.ValidateUser(context.Background(), 7))
		})
	}
}
