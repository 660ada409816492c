package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/repository"
	auth "storefront/internal/usecase/auth_usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepoMock) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// テスト用の固定ハッシュ
type hasherStub struct{}

func (hasherStub) Hash(plain string) (string, error) { return "hashed:" + plain, nil }

type clockStub struct{ now time.Time }

func (c clockStub) Now() time.Time { return c.now }

func fixedNow() time.Time {
	return time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
}

func TestRegisterUser_InvalidEmail(t *testing.T) {
	uc := auth.NewRegisterUserUsecase(new(UserRepoMock), hasherStub{}, clockStub{fixedNow()})

	_, err := uc.Execute(context.Background(), auth.RegisterUserInput{
		Email:    "not-an-email",
		Password: "password123",
	})
	assert.ErrorIs(t, err, auth.ErrInvalidEmailFormat)
}

func TestRegisterUser_PasswordTooShort(t *testing.T) {
	uc := auth.NewRegisterUserUsecase(new(UserRepoMock), hasherStub{}, clockStub{fixedNow()})

	_, err := uc.Execute(context.Background(), auth.RegisterUserInput{
		Email:    "taro@example.com",
		Password: "short",
	})
	assert.ErrorIs(t, err, auth.ErrPasswordTooShort)
}

func TestRegisterUser_InvalidRole(t *testing.T) {
	uc := auth.NewRegisterUserUsecase(new(UserRepoMock), hasherStub{}, clockStub{fixedNow()})

	_, err := uc.Execute(context.Background(), auth.RegisterUserInput{
		Email:    "taro@example.com",
		Password: "password123",
		Role:     "SUPERUSER",
	})
	assert.ErrorIs(t, err, auth.ErrInvalidRole)
}

func TestRegisterUser_DuplicateEmail(t *testing.T) {
	repoMock := new(UserRepoMock)
	uc := auth.NewRegisterUserUsecase(repoMock, hasherStub{}, clockStub{fixedNow()})

	repoMock.On("FindByEmail", mock.Anything, "taro@example.com").
		Return(&model.User{ID: 1, Email: "taro@example.com"}, nil)

	_, err := uc.Execute(context.Background(), auth.RegisterUserInput{
		Email:    "taro@example.com",
		Password: "password123",
	})
	assert.ErrorIs(t, err, auth.ErrEmailAlreadyExists)
}

func TestRegisterUser_Success(t *testing.T) {
	repoMock := new(UserRepoMock)
	uc := auth.NewRegisterUserUsecase(repoMock, hasherStub{}, clockStub{fixedNow()})

	repoMock.On("FindByEmail", mock.Anything, "taro@example.com").
		Return(nil, repository.ErrUserNotFound)
	repoMock.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Email == "taro@example.com" &&
			u.PasswordHash == "hashed:password123" &&
			u.Role == model.RoleUser &&
			u.IsActive &&
			u.LastLoginAt == nil
	})).Return(nil)

	out, err := uc.Execute(context.Background(), auth.RegisterUserInput{
		Email:    "taro@example.com",
		Password: "password123",
	})
	assert.NoError(t, err)
	assert.Equal(t, "taro@example.com", out.User.Email)
	// 平文パスワードは残さない
	assert.NotContains(t, out.User.PasswordHash, "password123\n")
	repoMock.AssertExpectations(t)
}

func TestRegisterUser_RoleAliases(t *testing.T) {
	cases := []struct {
		raw  string
		want model.Role
	}{
		{"", model.RoleUser},
		{"USER", model.RoleUser},
		{"customer", model.RoleUser},
		{"admin", model.RoleAdmin},
	}

	for _, tc := range cases {
		repoMock := new(UserRepoMock)
		uc := auth.NewRegisterUserUsecase(repoMock, hasherStub{}, clockStub{fixedNow()})

		repoMock.On("FindByEmail", mock.Anything, mock.Anything).Return(nil, repository.ErrUserNotFound)
		repoMock.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
			return u.Role == tc.want
		})).Return(nil)

		_, err := uc.Execute(context.Background(), auth.RegisterUserInput{
			Email:    "taro@example.com",
			Password: "password123",
			Role:     tc.raw,
		})
		assert.NoError(t, err, "role %q", tc.raw)
	}
}

func TestRegisterUser_CreateFails(t *testing.T) {
	repoMock := new(UserRepoMock)
	uc := auth.NewRegisterUserUsecase(repoMock, hasherStub{}, clockStub{fixedNow()})

	repoMock.On("FindByEmail", mock.Anything, mock.Anything).Return(nil, repository.ErrUserNotFound)
	repoMock.On("Create", mock.Anything, mock.Anything).Return(errors.New("insert failed"))

	_, err := uc.Execute(context.Background(), auth.RegisterUserInput{
		Email:    "taro@example.com",
		Password: "password123",
	})
	assert.Error(t, err)
}

func TestBcryptPasswordHasher_RoundTrip(t *testing.T) {
	hasher := auth.NewBcryptPasswordHasher(4)
	verifier := auth.NewBcryptPasswordVerifier()

	hashed, err := hasher.Hash("password123")
	assert.NoError(t, err)
	assert.NotEqual(t, "password123", hashed)

	assert.True(t, verifier.Verify("password123", hashed))
	assert.False(t, verifier.Verify("wrongpass", hashed))
}
