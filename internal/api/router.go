package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/creatorspace/community-api/docs"
	"github.com/creatorspace/community-api/internal/api/handler"
	"github.com/creatorspace/community-api/internal/api/middleware"
	"github.com/creatorspace/community-api/internal/core/domain"
	"github.com/creatorspace/community-api/internal/core/ports"
)

const jsonBodyLimit = "1M"

// Deps carries everything the router wires into handlers.
type Deps struct {
	Log         zerolog.Logger
	Development bool

	Tokens  ports.TokenVerifier
	Auth    ports.AuthService
	Users   ports.UserService
	Posts   ports.PostService
	Limiter ports.RateLimiter // nil disables rate limiting
	Health  map[string]handler.Pinger

	Cookie         handler.CookieOptions
	FrontendOrigin string
	UploadDir      string // served under /uploads when set
	MaxUploadBytes int64
	// TrustProxy takes the client IP from X-Forwarded-For sent by private
	// network proxies. Otherwise only the socket address is used.
	TrustProxy bool

	// Registry receives the HTTP metrics; the default registry when nil.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log, d.Development)
	// Rate limits key on RealIP, so it must not follow client supplied headers.
	e.IPExtractor = echo.ExtractIPDirect()
	if d.TrustProxy {
		e.IPExtractor = echo.ExtractIPFromXFFHeader()
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echomiddleware.Secure())
	if d.FrontendOrigin != "" {
		e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
			AllowOrigins:     []string{d.FrontendOrigin},
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, echo.HeaderXCSRFToken},
			AllowCredentials: true,
		}))
	}
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "community",
		Registerer: registerer,
	}))

	// --- Middleware chains ---
	jsonBody := echomiddleware.BodyLimit(jsonBodyLimit)
	uploadBody := echomiddleware.BodyLimit(uploadLimit(d.MaxUploadBytes))
	auth := middleware.VerifyToken(d.Tokens)
	anyRole := middleware.VerifyRoles(domain.Roles()...)
	adminOnly := middleware.VerifyRoles(domain.RoleAdmin)
	limit := func(p middleware.RatePolicy) echo.MiddlewareFunc {
		return middleware.RateLimit(d.Limiter, p, d.Log)
	}

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Cookie)
	userHandler := handler.NewUserHandler(d.Users)
	postHandler := handler.NewPostHandler(d.Posts)
	healthHandler := handler.NewHealthHandler(d.Health)

	// --- Public routes ---
	e.GET("/", healthHandler.Root)
	e.GET("/ping", healthHandler.Ping)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/csrf-token", handler.CSRFToken, echomiddleware.CSRFWithConfig(echomiddleware.CSRFConfig{
		TokenLookup:    "header:" + echo.HeaderXCSRFToken,
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   d.Cookie.Secure,
		CookieSameSite: http.SameSiteStrictMode,
	}))
	if d.UploadDir != "" {
		e.Static("/uploads", d.UploadDir)
	}

	// --- Auth routes ---
	e.POST("/api/create", authHandler.Register, limit(middleware.CreateUserPolicy), jsonBody)
	e.POST("/login", authHandler.Login, limit(middleware.LoginPolicy), jsonBody)
	e.POST("/api/logout", authHandler.Logout, auth)

	// --- Profile routes ---
	e.GET("/api/userprofile", userHandler.Profile, limit(middleware.ProfilePolicy), auth, anyRole)
	e.PUT("/userprofile/:id", userHandler.Update, jsonBody, auth, anyRole)
	e.DELETE("/userprofile/:id", userHandler.Delete, auth, adminOnly)

	// --- Post routes ---
	posts := e.Group("/api/posts", auth)
	posts.POST("", postHandler.Create, limit(middleware.CreatePostPolicy), uploadBody, anyRole)
	posts.GET("/feed", postHandler.Feed, limit(middleware.FeedPolicy))
	posts.GET("/user/:userId", postHandler.ListByUser)
	posts.GET("/:id", postHandler.Get)
	posts.DELETE("/:id", postHandler.Delete)

	return e
}

// uploadLimit leaves room for the multipart envelope around the file.
func uploadLimit(maxUpload int64) string {
	if maxUpload <= 0 {
		maxUpload = 100 << 20
	}
	return fmt.Sprintf("%dK", (maxUpload+(1<<20))/1024)
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			log.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
