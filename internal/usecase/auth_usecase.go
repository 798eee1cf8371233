package usecase

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

// 認証まわり（登録・ログイン）。
type AuthUsecase struct {
	userRepo  repo.UserRepository
	jwtSecret string
	logger    *zap.Logger
}

func NewAuthUsecase(userRepo repo.UserRepository, jwtSecret string, logger *zap.Logger) *AuthUsecase {
	return &AuthUsecase{userRepo: userRepo, jwtSecret: jwtSecret, logger: logger}
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserOutput struct {
	ID        int64      `json:"id"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login_at,omitempty"`
}

type LoginOutput struct {
	Token string     `json:"token"`
	User  UserOutput `json:"user"`
}

// Register は一般ユーザーを登録する。roleは常にUSER。
func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (UserOutput, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return UserOutput{}, NewValidationError("invalid email")
	}
	if len(in.Password) < 8 {
		return UserOutput{}, NewValidationError("password must be at least 8 characters")
	}

	if _, err := u.userRepo.FindByEmail(ctx, email); err == nil {
		return UserOutput{}, NewHTTPError(http.StatusConflict, "email already registered")
	} else if !errors.Is(err, repo.ErrNotFound) {
		return UserOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), 12)
	if err != nil {
		return UserOutput{}, NewHTTPError(http.StatusInternalServerError, "failed to hash password")
	}

	user := model.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
		IsActive:     true,
	}
	if err := u.userRepo.Create(ctx, &user); err != nil {
		//uniqueIndex違反との競合も409に寄せる
		return UserOutput{}, NewHTTPError(http.StatusConflict, "email already registered")
	}

	return toUserOutput(user), nil
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login はemail/passwordを検証してJWTを発行する。
// ユーザー不在とパスワード不一致は同じ401で返す（存在の有無を漏らさない）。
func (u *AuthUsecase) Login(ctx context.Context, in LoginInput) (LoginOutput, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || in.Password == "" {
		return LoginOutput{}, NewValidationError("email and password are required")
	}

	user, err := u.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return LoginOutput{}, NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}
	if err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !user.IsActive {
		return LoginOutput{}, NewHTTPError(http.StatusForbidden, "account disabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  strconv.FormatInt(user.ID, 10),
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(tokenTTL).Unix(),
	})
	signed, err := token.SignedString([]byte(u.jwtSecret))
	if err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusInternalServerError, "failed to sign token")
	}

	// 最終ログインの更新はベストエフォート
	user.LastLoginAt = &now
	if err := u.userRepo.Update(ctx, user); err != nil {
		u.logger.Warn("failed to update last login", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	return LoginOutput{Token: signed, User: toUserOutput(user)}, nil
}

// GetMe はトークンの主体であるユーザー自身を返す。
func (u *AuthUsecase) GetMe(ctx context.Context, userID int64) (UserOutput, error) {
	if userID <= 0 {
		return UserOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	user, err := u.userRepo.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return UserOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return UserOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toUserOutput(user), nil
}

func toUserOutput(u model.User) UserOutput {
	return UserOutput{
		ID:        u.ID,
		Email:     u.Email,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLoginAt,
	}
}
