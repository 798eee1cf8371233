package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

// 管理者向けのユーザー管理。
type AdminUserUsecase struct {
	userRepo  repo.UserRepository
	auditRepo repo.AuditLogRepository
	logger    *zap.Logger
}

func NewAdminUserUsecase(userRepo repo.UserRepository, auditRepo repo.AuditLogRepository, logger *zap.Logger) *AdminUserUsecase {
	return &AdminUserUsecase{userRepo: userRepo, auditRepo: auditRepo, logger: logger}
}

type UserListOutput struct {
	Items []UserOutput `json:"items"`
	Total int64        `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}

func (u *AdminUserUsecase) List(ctx context.Context, page int, limit int) (UserListOutput, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	users, total, err := u.userRepo.List(ctx, page, limit)
	if err != nil {
		return UserListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items := make([]UserOutput, 0, len(users))
	for _, usr := range users {
		items = append(items, toUserOutput(usr))
	}
	return UserListOutput{Items: items, Total: total, Page: page, Limit: limit}, nil
}

type AdminUpdateUserInput struct {
	Role     *string `json:"role,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// Update はロール変更とアカウントの有効/無効を切り替える。
// 自分自身の降格・無効化は誤操作防止のため拒否する。
func (u *AdminUserUsecase) Update(ctx context.Context, adminUserID int64, targetUserID int64, in AdminUpdateUserInput) (UserOutput, error) {
	if adminUserID <= 0 {
		return UserOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if targetUserID <= 0 {
		return UserOutput{}, NewValidationError("invalid id")
	}
	if in.Role == nil && in.IsActive == nil {
		return UserOutput{}, NewValidationError("nothing to update")
	}
	if in.Role != nil {
		switch model.Role(*in.Role) {
		case model.RoleUser, model.RoleAdmin:
		default:
			return UserOutput{}, NewValidationError("invalid role")
		}
	}
	if adminUserID == targetUserID {
		return UserOutput{}, NewValidationError("cannot modify own account")
	}

	user, err := u.userRepo.FindByID(ctx, targetUserID)
	if errors.Is(err, repo.ErrNotFound) {
		return UserOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return UserOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	before, _ := json.Marshal(map[string]any{"role": user.Role, "is_active": user.IsActive})

	if in.Role != nil {
		user.Role = model.Role(*in.Role)
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}

	if err := u.userRepo.Update(ctx, user); err != nil {
		return UserOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	after, _ := json.Marshal(map[string]any{"role": user.Role, "is_active": user.IsActive})
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  adminUserID,
		Action:       model.AuditActionUpdateUser,
		ResourceType: model.AuditResourceUser,
		ResourceID:   targetUserID,
		BeforeJSON:   string(before),
		AfterJSON:    string(after),
		CreatedAt:    time.Now(),
	}); err != nil {
		// 本体の更新は済んでいるので監査の失敗はログに残すだけ
		u.logger.Warn("failed to write audit log",
			zap.Int64("admin_user_id", adminUserID),
			zap.Int64("target_user_id", targetUserID),
			zap.Error(err))
	}

	return toUserOutput(user), nil
}
