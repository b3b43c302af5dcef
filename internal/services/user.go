package services

import (
	"context"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	dataagg "github.com/yungbote/labflow-backend/internal/data/aggregates"
	"github.com/yungbote/labflow-backend/internal/data/repos"
	types "github.com/yungbote/labflow-backend/internal/domain"
	domainagg "github.com/yungbote/labflow-backend/internal/domain/aggregates"
	"github.com/yungbote/labflow-backend/internal/domain/user"
	"github.com/yungbote/labflow-backend/internal/platform/ctxutil"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
)

type NewUser struct {
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	Role      user.Role `json:"role"`
}

// UserPatch edits a user. Nil fields are left alone; a new password is re-hashed.
type UserPatch struct {
	FirstName *string    `json:"first_name"`
	LastName  *string    `json:"last_name"`
	Email     *string    `json:"email"`
	Username  *string    `json:"username"`
	Password  *string    `json:"password"`
	Role      *user.Role `json:"role"`
}

type UserService interface {
	Create(ctx context.Context, in NewUser) (*types.User, error)
	Update(ctx context.Context, id uuid.UUID, patch UserPatch) (*types.User, error)
	List(ctx context.Context) ([]*types.User, error)
	GetMe(ctx context.Context) (*types.User, error)
}

type userService struct {
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(log *logger.Logger, userRepo repos.UserRepo) UserService {
	return &userService{log: log.With("service", "UserService"), userRepo: userRepo}
}

func (us *userService) Create(ctx context.Context, in NewUser) (*types.User, error) {
	const op = "user.create"
	u := &types.User{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Username:  strings.TrimSpace(in.Username),
		Role:      in.Role,
	}
	if err := validateUser(op, u); err != nil {
		return nil, err
	}
	if len(in.Password) < 6 {
		return nil, domainagg.Validation(op, "password must be at least 6 characters")
	}
	exists, err := us.userRepo.EmailOrUsernameExists(ctx, nil, u.Email, u.Username)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	if exists {
		return nil, domainagg.Conflict(op, "email or username already in use")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "hash password", err)
	}
	u.Password = string(hash)
	created, err := us.userRepo.Create(ctx, nil, []*types.User{u})
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	us.log.Info("user created", "username", u.Username, "role", u.Role.String())
	return created[0], nil
}

func (us *userService) Update(ctx context.Context, id uuid.UUID, patch UserPatch) (*types.User, error) {
	const op = "user.update"
	found, err := us.userRepo.GetByIDs(ctx, nil, []uuid.UUID{id})
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	if len(found) == 0 {
		return nil, domainagg.NotFound(op, "user %s not found", id)
	}
	u := found[0]
	if patch.FirstName != nil {
		u.FirstName = strings.TrimSpace(*patch.FirstName)
	}
	if patch.LastName != nil {
		u.LastName = strings.TrimSpace(*patch.LastName)
	}
	if patch.Email != nil {
		u.Email = strings.ToLower(strings.TrimSpace(*patch.Email))
	}
	if patch.Username != nil {
		u.Username = strings.TrimSpace(*patch.Username)
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}
	if err := validateUser(op, u); err != nil {
		return nil, err
	}
	if patch.Password != nil {
		if len(*patch.Password) < 6 {
			return nil, domainagg.Validation(op, "password must be at least 6 characters")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, domainagg.NewError(domainagg.CodeInternal, op, "hash password", err)
		}
		u.Password = string(hash)
	}
	if err := us.userRepo.Update(ctx, nil, u); err != nil {
		return nil, dataagg.MapError(op, err)
	}
	return u, nil
}

func (us *userService) List(ctx context.Context) ([]*types.User, error) {
	out, err := us.userRepo.List(ctx, nil)
	if err != nil {
		return nil, dataagg.MapError("user.list", err)
	}
	return out, nil
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
	const op = "user.me"
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil {
		us.log.Warn("Request data not set in context")
		return nil, domainagg.Unauthorized(op, "request data not set in context")
	}
	found, err := us.userRepo.GetByIDs(ctx, nil, []uuid.UUID{rd.UserID})
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	if len(found) == 0 {
		return nil, domainagg.NotFound(op, "user %s not found", rd.UserID)
	}
	return found[0], nil
}

func validateUser(op string, u *types.User) error {
	switch {
	case u.FirstName == "" || u.LastName == "":
		return domainagg.Validation(op, "first and last name are required")
	case u.Username == "":
		return domainagg.Validation(op, "username is required")
	case !u.Role.Valid():
		return domainagg.Validation(op, "unknown role %d", u.Role)
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return domainagg.Validation(op, "invalid email %q", u.Email)
	}
	return nil
}
