package webserver

import (
	"fmt"
	"net/http"

	"github.com/asaskevich/EventBus"
	"github.com/golang-jwt/jwt/v4"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/brewpos/brewpos/config"
	"github.com/brewpos/brewpos/pkg/secrypt"
)

// AppContext is what the web layer needs from the application container.
type AppContext interface {
	DB() *gorm.DB
	Config() *config.AppConfig
	Bus() EventBus.Bus
}

var (
	appctx AppContext
	root   *echo.Echo
	api    *echo.Group
	pub    *echo.Group
	codec  *secrypt.Codec
)

// Init builds the echo server, middleware chain and route groups. Handlers
// register themselves afterwards through the Api*/Pub* helpers.
func Init(ctx AppContext) error {
	appctx = ctx
	cfg := ctx.Config()

	codec = nil
	if cfg.Web.PayloadKey != "" {
		var err error
		codec, err = secrypt.NewCodec(cfg.Web.PayloadKey)
		if err != nil {
			return err
		}
	}

	root = echo.New()
	root.HideBanner = true
	root.Debug = cfg.Web.Debug
	root.Use(middleware.Recover())
	root.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: requestID,
	}))
	root.Use(ZapLogger())
	root.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
	}))

	pub = root.Group("/api")
	api = root.Group("/api")
	api.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(cfg.Web.JwtSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return jwt.MapClaims{}
		},
	}))

	return nil
}

// Start blocks serving HTTP until the process exits.
func Start() error {
	cfg := appctx.Config()
	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	zap.S().Infof("starting web server on %s", addr)
	return root.Start(addr)
}

// Instance exposes the echo root, mainly for tests.
func Instance() *echo.Echo { return root }

func DB() *gorm.DB { return appctx.DB() }

func Config() *config.AppConfig { return appctx.Config() }

func Bus() EventBus.Bus { return appctx.Bus() }

// Codec returns the payload envelope codec; nil when no key is configured.
func Codec() *secrypt.Codec { return codec }

// Authenticated routes.
func ApiGET(path string, h echo.HandlerFunc)    { api.GET(path, h) }
func ApiPOST(path string, h echo.HandlerFunc)   { api.POST(path, h) }
func ApiPUT(path string, h echo.HandlerFunc)    { api.PUT(path, h) }
func ApiDELETE(path string, h echo.HandlerFunc) { api.DELETE(path, h) }

// Public routes (login, register, session key).
func PubGET(path string, h echo.HandlerFunc)  { pub.GET(path, h) }
func PubPOST(path string, h echo.HandlerFunc) { pub.POST(path, h) }
