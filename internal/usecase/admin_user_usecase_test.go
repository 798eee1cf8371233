package usecase_test

import (
	"context"
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestAdminUserUsecase_Update_PromoteToAdmin(t *testing.T) {
	users := new(UserRepoMock)
	audit := new(AuditRepoMock)

	users.On("FindByID", mock.Anything, int64(7)).Return(model.User{
		ID: 7, Email: "taro@example.com", Role: model.RoleUser, IsActive: true,
	}, nil)
	users.On("Update", mock.Anything, mock.MatchedBy(func(u model.User) bool {
		return u.ID == 7 && u.Role == model.RoleAdmin
	})).Return(nil)
	audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.ActorUserID == 99 &&
			l.Action == model.AuditActionUpdateUser &&
			l.ResourceID == 7
	})).Return(nil)

	uc := usecase.NewAdminUserUsecase(users, audit, zap.NewNop())

	role := "ADMIN"
	out, err := uc.Update(context.Background(), 99, 7, usecase.AdminUpdateUserInput{Role: &role})
	assert.NoError(t, err)
	assert.Equal(t, "ADMIN", out.Role)
	audit.AssertCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAdminUserUsecase_Update_CannotModifySelf(t *testing.T) {
	users := new(UserRepoMock)

	uc := usecase.NewAdminUserUsecase(users, new(AuditRepoMock), zap.NewNop())

	active := false
	_, err := uc.Update(context.Background(), 99, 99, usecase.AdminUpdateUserInput{IsActive: &active})
	assertErrContains(t, err, "cannot modify own account")
	users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestAdminUserUsecase_Update_InvalidRole(t *testing.T) {
	uc := usecase.NewAdminUserUsecase(new(UserRepoMock), new(AuditRepoMock), zap.NewNop())

	role := "SUPERUSER"
	_, err := uc.Update(context.Background(), 99, 7, usecase.AdminUpdateUserInput{Role: &role})
	assertErrContains(t, err, "invalid role")
}

func TestAdminUserUsecase_Update_NothingToUpdate(t *testing.T) {
	uc := usecase.NewAdminUserUsecase(new(UserRepoMock), new(AuditRepoMock), zap.NewNop())

	_, err := uc.Update(context.Background(), 99, 7, usecase.AdminUpdateUserInput{})
	assertErrContains(t, err, "nothing to update")
}
