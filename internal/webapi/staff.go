package webapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/brewpos/brewpos/internal/domain"
	"github.com/brewpos/brewpos/internal/webserver"
)

func registerStaffRoutes() {
	webserver.ApiGET("/get-staff", getStaff)
	webserver.ApiPOST("/update-staff-role", updateStaffRole)
}

func getStaff(c echo.Context) error {
	var staff []domain.SysOpr
	if err := GetDB(c).Order("username").Find(&staff).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query staff", err.Error())
	}
	return ok(c, staff)
}

type staffRolePayload struct {
	UserID int64 `json:"user_id"`
	Role   int   `json:"role"`
}

// updateStaffRole promotes or demotes an account. Only admins may change
// roles, and an operator cannot change their own.
func updateStaffRole(c echo.Context) error {
	if currentUserRole(c) > domain.RoleAdmin {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Admin role required", nil)
	}

	var payload staffRolePayload
	if err := decodePayload(c, &payload); err != nil || payload.UserID == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse role change", nil)
	}
	if payload.Role < domain.RoleDeveloper || payload.Role > domain.RolePending {
		return fail(c, http.StatusBadRequest, "INVALID_ROLE", "Unknown role", payload.Role)
	}
	if payload.UserID == currentUserID(c) {
		return fail(c, http.StatusConflict, "SELF_CHANGE", "Cannot change your own role", nil)
	}

	res := GetDB(c).Model(&domain.SysOpr{}).
		Where("id = ?", payload.UserID).
		Update("role", payload.Role)
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update role", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "USER_NOT_FOUND", "Account not found", nil)
	}

	zap.L().Info("staff role changed",
		zap.Int64("user_id", payload.UserID),
		zap.Int("role", payload.Role),
		zap.Int64("by", currentUserID(c)))
	return ok(c, echo.Map{"user_id": payload.UserID, "role": payload.Role})
}
