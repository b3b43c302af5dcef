package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	dataagg "github.com/yungbote/labflow-backend/internal/data/aggregates"
	"github.com/yungbote/labflow-backend/internal/data/repos"
	types "github.com/yungbote/labflow-backend/internal/domain"
	domainagg "github.com/yungbote/labflow-backend/internal/domain/aggregates"
	"github.com/yungbote/labflow-backend/internal/platform/ctxutil"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
)

// JWTClaims is the bearer token payload.
type JWTClaims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Role     int    `json:"role"`
	jwt.RegisteredClaims
}

type AuthService interface {
	Login(ctx context.Context, username, password string) (string, *types.User, error)
	// Authenticate validates a bearer token and attaches the caller to ctx.
	Authenticate(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	log          *logger.Logger
	userRepo     repos.UserRepo
	jwtSecretKey string
	accessTTL    time.Duration
	now          func() time.Time
}

func NewAuthService(log *logger.Logger, userRepo repos.UserRepo, jwtSecretKey string, accessTTL time.Duration) AuthService {
	if accessTTL <= 0 {
		accessTTL = 24 * time.Hour
	}
	return &authService{
		log:          log.With("service", "AuthService"),
		userRepo:     userRepo,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
		now:          time.Now,
	}
}

func (as *authService) Login(ctx context.Context, username, password string) (string, *types.User, error) {
	const op = "auth.login"
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", nil, domainagg.Validation(op, "username and password are required")
	}
	u, err := as.userRepo.GetByUsername(ctx, nil, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, domainagg.Unauthorized(op, "invalid credentials")
	}
	if err != nil {
		return "", nil, dataagg.MapError(op, err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		as.log.Info("login rejected", "username", username)
		return "", nil, domainagg.Unauthorized(op, "invalid credentials")
	}
	token, err := as.generateAccessToken(u)
	if err != nil {
		return "", nil, domainagg.NewError(domainagg.CodeInternal, op, "sign token", err)
	}
	as.log.Info("login", "username", u.Username, "role", u.Role.String())
	return token, u, nil
}

func (as *authService) generateAccessToken(u *types.User) (string, error) {
	now := as.now()
	claims := JWTClaims{
		UserID:   u.ID.String(),
		Username: u.Username,
		Role:     int(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) Authenticate(ctx context.Context, tokenString string) (context.Context, error) {
	const op = "auth.authenticate"
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return ctx, domainagg.Unauthorized(op, "missing token")
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(as.now))
	if err != nil {
		return ctx, domainagg.Unauthorized(op, "invalid token: %v", err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, domainagg.Unauthorized(op, "invalid or expired token")
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return ctx, domainagg.Unauthorized(op, "invalid user id in token")
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		UserID:   userID,
		Username: claims.Username,
		Role:     claims.Role,
	}), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}
