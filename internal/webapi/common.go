// Package webapi exposes the POS command surface over HTTP. Every mutating
// command takes a sealed payload envelope and answers with the same ok/fail
// envelope the web client expects.
package webapi

import (
	"net/http"
	"strconv"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gorm.io/gorm"

	"github.com/brewpos/brewpos/internal/webserver"
)

// RegisterRoutes wires every command handler onto the web server. Called once
// from main after webserver.Init.
func RegisterRoutes() {
	registerAuthRoutes()
	registerMenuRoutes()
	registerInventoryRoutes()
	registerRecipeRoutes()
	registerAvailabilityRoutes()
	registerCartRoutes()
	registerOrderRoutes()
	registerSalesRoutes()
	registerStaffRoutes()
}

type apiResponse struct {
	Status  bool        `json:"status"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Detail  interface{} `json:"detail,omitempty"`
}

type pagedResponse struct {
	Status   bool        `json:"status"`
	Data     interface{} `json:"data"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// ok answers 200 with the data sealed in the payload envelope when a codec is
// configured, plain JSON otherwise (tests, envelope disabled).
func ok(c echo.Context, data interface{}) error {
	if codec := webserver.Codec(); codec != nil && data != nil {
		sealed, err := codec.Encrypt(data)
		if err != nil {
			return fail(c, http.StatusInternalServerError, "ENCRYPT_ERROR", "Failed to seal response", nil)
		}
		return c.JSON(http.StatusOK, apiResponse{Status: true, Data: sealed})
	}
	return c.JSON(http.StatusOK, apiResponse{Status: true, Data: data})
}

// fail answers with the error envelope. Raw storage detail is only exposed in
// debug mode; business detail the client needs goes through failWith.
func fail(c echo.Context, status int, code, message string, detail interface{}) error {
	if !webserver.Config().Web.Debug {
		detail = nil
	}
	return failWith(c, status, code, message, detail)
}

func failWith(c echo.Context, status int, code, message string, detail interface{}) error {
	return c.JSON(status, apiResponse{Status: false, Code: code, Message: message, Detail: detail})
}

func paged(c echo.Context, data interface{}, total int64, page, pageSize int) error {
	return c.JSON(http.StatusOK, pagedResponse{
		Status: true, Data: data, Total: total, Page: page, PageSize: pageSize,
	})
}

func parsePagination(c echo.Context) (page, pageSize int) {
	page = cast.ToInt(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize = cast.ToInt(c.QueryParam("pageSize"))
	if pageSize < 1 || pageSize > 500 {
		pageSize = 20
	}
	return page, pageSize
}

// GetDB returns the application database scoped to the request context.
func GetDB(c echo.Context) *gorm.DB {
	return webserver.DB().WithContext(c.Request().Context())
}

// decodePayload reads the request body and fills out. Sealed requests carry
// base64 ciphertext under "data"; the decrypted JSON is mapped weakly typed so
// numeric ids arriving as strings from the client still bind.
func decodePayload(c echo.Context, out interface{}) error {
	var body map[string]interface{}
	if err := c.Bind(&body); err != nil {
		return errors.Wrap(err, "read request body")
	}

	if sealed, found := body["data"].(string); found && webserver.Codec() != nil {
		raw := make(map[string]interface{})
		if err := webserver.Codec().Decrypt(sealed, &raw); err != nil {
			return err
		}
		body = raw
	}
	return bindWeak(body, out)
}

func bindWeak(in map[string]interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "json",
		Result:           out,
	})
	if err != nil {
		return errors.Wrap(err, "build payload decoder")
	}
	if err := dec.Decode(in); err != nil {
		return errors.Wrap(err, "bind payload")
	}
	return nil
}

// currentUserID extracts the operator id from the verified JWT. Returns 0 on
// public routes.
func currentUserID(c echo.Context) int64 {
	token, found := c.Get("user").(*jwt.Token)
	if !found {
		return 0
	}
	claims, found := token.Claims.(jwt.MapClaims)
	if !found {
		return 0
	}
	return cast.ToInt64(claims["uid"])
}

func currentUserRole(c echo.Context) int {
	token, found := c.Get("user").(*jwt.Token)
	if !found {
		return -1
	}
	claims, found := token.Claims.(jwt.MapClaims)
	if !found {
		return -1
	}
	return cast.ToInt(claims["role"])
}

func paramID(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}
