package auth

import (
	"context"
	"errors"

	"app/internal/domain/model"
	"app/internal/repository"
)

// LogoutUsecase はtoken_versionを上げて既存トークンを無効化する。
type LogoutUsecase struct {
	userRepo repository.UserRepository
}

func NewLogoutUsecase(userRepo repository.UserRepository) *LogoutUsecase {
	return &LogoutUsecase{userRepo: userRepo}
}

func (u *LogoutUsecase) Execute(ctx context.Context, userID int64) error {
	return u.userRepo.IncrementTokenVersion(ctx, userID)
}

// CurrentUserUsecase は /auth/me 用。
type CurrentUserUsecase struct {
	userRepo repository.UserRepository
}

func NewCurrentUserUsecase(userRepo repository.UserRepository) *CurrentUserUsecase {
	return &CurrentUserUsecase{userRepo: userRepo}
}

func (u *CurrentUserUsecase) Execute(ctx context.Context, userID int64) (model.User, error) {
	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.User{}, ErrInvalidCredentials
		}
		return model.User{}, err
	}
	return *user, nil
}
