package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"anoa.com/ecotrack/internal/engine"
	"anoa.com/ecotrack/internal/entity"
	"anoa.com/ecotrack/internal/modules/user/dto"
	"anoa.com/ecotrack/internal/modules/user/repository"
	"anoa.com/ecotrack/pkg/apperror"
	commonDto "anoa.com/ecotrack/pkg/dto"
	"anoa.com/ecotrack/pkg/sanitizer"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// UserService covers what the gamification API needs from accounts: admins register
// users and mint bearer tokens for them; users read their own profile.
type UserService interface {
	CreateUser(ctx context.Context, req dto.CreateUserRequest) (*dto.CreateUserResponse, error)
	IssueToken(ctx context.Context, userID uuid.UUID) (*dto.TokenResponse, error)
	GetMe(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error)
	ListUsers(ctx context.Context, q commonDto.PaginationQuery) ([]dto.UserResponse, commonDto.PaginationMeta, error)
}

type userService struct {
	repo     repository.UserRepository
	secret   string
	tokenTTL time.Duration
}

func NewUserService(repo repository.UserRepository, secret string, tokenTTL time.Duration) UserService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &userService{repo: repo, secret: secret, tokenTTL: tokenTTL}
}

func (s *userService) CreateUser(ctx context.Context, req dto.CreateUserRequest) (*dto.CreateUserResponse, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.repo.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: username or email already registered", apperror.ErrValidation)
	}

	role := req.Role
	if role == "" {
		role = entity.RoleUser
	}

	user := &entity.User{
		Username:  username,
		Email:     email,
		FullName:  sanitizer.Text(req.FullName),
		Role:      role,
		AvatarURL: req.Avatar,
		Level:     1,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return nil, err
	}

	return &dto.CreateUserResponse{User: toResponse(user), Token: *token}, nil
}

func (s *userService) IssueToken(ctx context.Context, userID uuid.UUID) (*dto.TokenResponse, error) {
	if _, err := s.repo.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.generateToken(userID)
}

func (s *userService) GetMe(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	res := toResponse(user)
	return &res, nil
}

func (s *userService) ListUsers(ctx context.Context, q commonDto.PaginationQuery) ([]dto.UserResponse, commonDto.PaginationMeta, error) {
	q.Normalize()
	users, total, err := s.repo.FindAll(ctx, q.Limit, q.Offset())
	if err != nil {
		return nil, commonDto.PaginationMeta{}, err
	}

	out := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toResponse(u))
	}
	return out, commonDto.NewPaginationMeta(q, total), nil
}

func (s *userService) generateToken(userID uuid.UUID) (*dto.TokenResponse, error) {
	expiresAt := time.Now().Add(s.tokenTTL)

	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   expiresAt.Unix(),
	}, nil
}

func toResponse(u *entity.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		AvatarURL: u.AvatarURL,
		Points:    u.Points,
		Level:     engine.LevelProgressFor(u.Points),
		CreatedAt: u.CreatedAt,
	}
}
