package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"anoa.com/ecotrack/internal/entity"
	"anoa.com/ecotrack/internal/modules/user/dto"
	"anoa.com/ecotrack/pkg/apperror"
	commonDto "anoa.com/ecotrack/pkg/dto"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type fakeRepo struct {
	users []*entity.User
}

func (f *fakeRepo) Create(ctx context.Context, user *entity.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	f.users = append(f.users, user)
	return nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", id, apperror.ErrNotFound)
}

func (f *fakeRepo) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, apperror.ErrNotFound
}

func (f *fakeRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	for _, u := range f.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) FindAll(ctx context.Context, limit, offset int) ([]*entity.User, int64, error) {
	total := int64(len(f.users))
	if offset >= len(f.users) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(f.users) {
		end = len(f.users)
	}
	return f.users[offset:end], total, nil
}

func (f *fakeRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(f.users)), nil
}

const secret = "test-secret"

func TestCreateUserIssuesValidToken(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewUserService(repo, secret, time.Hour)

	res, err := svc.CreateUser(context.Background(), dto.CreateUserRequest{
		Username: "  greta ",
		Email:    "Greta@Example.com",
		FullName: "<b>Greta</b>",
	})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	if res.User.Username != "greta" || res.User.Email != "greta@example.com" {
		t.Errorf("user = %q/%q, want trimmed and lower-cased", res.User.Username, res.User.Email)
	}
	if res.User.Role != entity.RoleUser {
		t.Errorf("role = %q, want %q", res.User.Role, entity.RoleUser)
	}
	if res.User.Level.Level != 1 {
		t.Errorf("level = %d, want 1", res.User.Level.Level)
	}
	if res.Token.TokenType != "Bearer" {
		t.Errorf("token type = %q", res.Token.TokenType)
	}

	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(res.Token.AccessToken, claims, func(tok *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		t.Fatalf("token does not verify: %v", err)
	}
	if claims.Subject != res.User.ID.String() {
		t.Errorf("subject = %q, want %q", claims.Subject, res.User.ID)
	}
}

func TestCreateUserRejectsDuplicate(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewUserService(repo, secret, time.Hour)
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, dto.CreateUserRequest{Username: "greta", Email: "g@example.com"}); err != nil {
		t.Fatalf("first CreateUser() error = %v", err)
	}
	_, err := svc.CreateUser(ctx, dto.CreateUserRequest{Username: "other", Email: "G@example.com"})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("duplicate email error = %v, want ErrValidation", err)
	}
}

func TestIssueTokenUnknownUser(t *testing.T) {
	svc := NewUserService(&fakeRepo{}, secret, time.Hour)
	if _, err := svc.IssueToken(context.Background(), uuid.New()); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("IssueToken() error = %v, want ErrNotFound", err)
	}
}

func TestGetMeReportsLevelProgress(t *testing.T) {
	id := uuid.New()
	repo := &fakeRepo{users: []*entity.User{{ID: id, Username: "eco", Points: 250, Level: 3}}}
	svc := NewUserService(repo, secret, time.Hour)

	me, err := svc.GetMe(context.Background(), id)
	if err != nil {
		t.Fatalf("GetMe() error = %v", err)
	}
	if me.Level.Level != 3 || me.Level.PointsToNext != 50 || me.Level.Progress != 50 {
		t.Errorf("level = %+v, want level 3, 50 to next, 50%%", me.Level)
	}
}

func TestListUsersPaginates(t *testing.T) {
	repo := &fakeRepo{}
	for i := 0; i < 5; i++ {
		repo.users = append(repo.users, &entity.User{ID: uuid.New(), Username: fmt.Sprintf("u%d", i)})
	}
	svc := NewUserService(repo, secret, time.Hour)

	users, meta, err := svc.ListUsers(context.Background(), commonDto.PaginationQuery{Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 2 || users[0].Username != "u2" {
		t.Errorf("page 2 = %+v", users)
	}
	if meta.TotalPages != 3 || meta.TotalItems != 5 {
		t.Errorf("meta = %+v, want 3 pages of 5 items", meta)
	}
}
