package webapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/brewpos/brewpos/internal/domain"
	"github.com/brewpos/brewpos/internal/webserver"
)

func registerAuthRoutes() {
	webserver.PubPOST("/register", register)
	webserver.PubPOST("/login", login)
	webserver.PubGET("/get-session-key", getSessionKey)
	webserver.ApiPOST("/logout", logout)
}

type registerPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Confirm  string `json:"confirm_password"`
}

type loginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// register creates an operator account in the pending role. An admin promotes
// it before the account can sign in.
func register(c echo.Context) error {
	var payload registerPayload
	if err := decodePayload(c, &payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse registration", nil)
	}

	payload.Username = strings.TrimSpace(payload.Username)
	if len(payload.Username) < 3 {
		return fail(c, http.StatusBadRequest, "INVALID_USERNAME", "Username must be at least 3 characters", nil)
	}
	if len(payload.Password) < 8 {
		return fail(c, http.StatusBadRequest, "WEAK_PASSWORD", "Password must be at least 8 characters", nil)
	}
	if payload.Confirm != "" && payload.Confirm != payload.Password {
		return fail(c, http.StatusBadRequest, "PASSWORD_MISMATCH", "Passwords do not match", nil)
	}

	var exists int64
	GetDB(c).Model(&domain.SysOpr{}).Where("username = ?", payload.Username).Count(&exists)
	if exists > 0 {
		return fail(c, http.StatusConflict, "USERNAME_TAKEN", "Username already exists", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "HASH_ERROR", "Failed to hash password", nil)
	}

	opr := domain.SysOpr{
		Username: payload.Username,
		Password: string(hash),
		Role:     domain.RolePending,
	}
	if err := GetDB(c).Create(&opr).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create account", err.Error())
	}

	zap.L().Info("operator registered", zap.String("username", opr.Username))
	return ok(c, echo.Map{"id": opr.ID, "username": opr.Username, "role": opr.Role})
}

func login(c echo.Context) error {
	var payload loginPayload
	if err := decodePayload(c, &payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse credentials", nil)
	}

	var opr domain.SysOpr
	err := GetDB(c).Where("username = ?", strings.TrimSpace(payload.Username)).First(&opr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusUnauthorized, "BAD_CREDENTIALS", "Invalid username or password", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query account", err.Error())
	}

	if bcrypt.CompareHashAndPassword([]byte(opr.Password), []byte(payload.Password)) != nil {
		return fail(c, http.StatusUnauthorized, "BAD_CREDENTIALS", "Invalid username or password", nil)
	}
	if opr.Role == domain.RolePending {
		return fail(c, http.StatusForbidden, "PENDING_APPROVAL", "Account is awaiting approval", nil)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid":      opr.ID,
		"username": opr.Username,
		"role":     opr.Role,
		"exp":      time.Now().Add(12 * time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(webserver.Config().Web.JwtSecret))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "TOKEN_ERROR", "Failed to sign token", nil)
	}

	now := time.Now()
	GetDB(c).Model(&domain.SysOpr{}).Where("id = ?", opr.ID).Update("last_login", now)

	zap.L().Info("operator login", zap.String("username", opr.Username))
	return ok(c, echo.Map{
		"token":    signed,
		"id":       opr.ID,
		"username": opr.Username,
		"role":     opr.Role,
	})
}

// logout is a bookkeeping endpoint; the token simply expires client-side.
func logout(c echo.Context) error {
	zap.L().Info("operator logout", zap.Int64("uid", currentUserID(c)))
	return ok(c, echo.Map{"logged_out": true})
}

// getSessionKey hands the payload envelope key to the web client so it can
// seal command payloads.
func getSessionKey(c echo.Context) error {
	key := webserver.Config().Web.PayloadKey
	if key == "" {
		return fail(c, http.StatusNotFound, "NO_SESSION_KEY", "Payload encryption is disabled", nil)
	}
	return c.JSON(http.StatusOK, apiResponse{Status: true, Data: echo.Map{"key": key}})
}
