package services

import (
	"context"

	"cold-backend/internal/auth"
	"cold-backend/internal/models"
	"cold-backend/internal/repositories"
	"cold-backend/pkg/utils"
)

type UserService struct {
	Repo       *repositories.UserRepository
	JWTManager *auth.JWTManager
}

func NewUserService(repo *repositories.UserRepository, jwtManager *auth.JWTManager) *UserService {
	return &UserService{Repo: repo, JWTManager: jwtManager}
}

// Login verifies credentials and issues a token. Deliberately returns the same
// Unauthorized error for "no such user" and "wrong password" so the boundary can't be
// used to enumerate usernames.
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.Repo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, utils.NewError(utils.Unauthorized, "invalid username or password")
	}
	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, utils.NewError(utils.Unauthorized, "invalid username or password")
	}
	if !user.IsActive {
		return nil, utils.NewError(utils.Forbidden, "account suspended")
	}

	token, err := s.JWTManager.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: user}, nil
}

func (s *UserService) ChangeOwnPassword(ctx context.Context, userID int, req *models.ChangePasswordRequest) error {
	user, err := s.Repo.Get(ctx, userID)
	if err != nil {
		return utils.NewError(utils.NotFound, "user not found")
	}
	if !auth.VerifyPassword(user.PasswordHash, req.OldPassword) {
		return utils.NewError(utils.Validation, "current password is incorrect")
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.Repo.UpdatePassword(ctx, userID, hash)
}

// ResetPassword is an admin/superadmin action against another user's account, gated by
// RBAC middleware rather than a current-password check.
func (s *UserService) ResetPassword(ctx context.Context, userID int, req *models.ResetPasswordRequest) error {
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.Repo.UpdatePassword(ctx, userID, hash)
}

func (s *UserService) CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:     req.Username,
		PasswordHash: hash,
		Role:         req.Role,
		IsActive:     true,
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id int) (*models.User, error) {
	return s.Repo.Get(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.Repo.List(ctx)
}

func (s *UserService) UpdateUser(ctx context.Context, id int, req *models.UpdateUserRequest) (*models.User, error) {
	user := &models.User{ID: id, Username: req.Username, Role: req.Role, IsActive: req.IsActive}
	if err := s.Repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return s.Repo.Get(ctx, id)
}

func (s *UserService) DeleteUser(ctx context.Context, id int) error {
	return s.Repo.Delete(ctx, id)
}
