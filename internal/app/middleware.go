package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"
	"golang.org/x/crypto/bcrypt"

	"github.com/vendinha-erp/vendinha-erp/internal/observability"
	"github.com/vendinha-erp/vendinha-erp/internal/platform/httpx"
)

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics
}

// MiddlewareStack installs the default middleware chain.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		FeaturePolicy:      "none",
		SSLRedirect:        cfg.Config != nil && cfg.Config.IsProduction(),
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
	})

	timeout := 30 * time.Second
	if cfg.Config != nil && cfg.Config.AppRequestTimeout > 0 {
		timeout = cfg.Config.AppRequestTimeout
	}

	limit, window := 300, time.Minute
	if cfg.Config != nil && cfg.Config.RateLimitRequests > 0 {
		limit = cfg.Config.RateLimitRequests
	}
	if cfg.Config != nil && cfg.Config.RateLimitWindow > 0 {
		window = cfg.Config.RateLimitWindow
	}

	middlewares := []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		middleware.Recoverer,
		middleware.Timeout(timeout),
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := secureMiddleware.Process(w, r); err != nil {
					cfg.Logger.Warn("secure headers blocked request", slog.Any("error", err))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				next.ServeHTTP(w, r)
			})
		},
		middleware.Compress(5),
		httprate.Limit(limit, window, httprate.WithKeyFuncs(httprate.KeyByIP)),
	}
	if cfg.Config != nil && cfg.Config.SystemPINHash != "" {
		middlewares = append(middlewares, pinGate(cfg.Config.SystemPINHash, cfg.Logger))
	}
	if cfg.Metrics != nil {
		middlewares = append(middlewares, func(next http.Handler) http.Handler {
			return cfg.Metrics.Middleware(next)
		})
	}
	return middlewares
}

// pinGate requires a valid X-System-PIN header on mutating requests.
// Reads stay open so the counter screen works without unlocking.
func pinGate(pinHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			pin := r.Header.Get("X-System-PIN")
			if pin == "" {
				httpx.Problem(w, http.StatusUnauthorized, "PIN required", "mutating requests require the X-System-PIN header")
				return
			}
			if err := bcrypt.CompareHashAndPassword([]byte(pinHash), []byte(pin)); err != nil {
				logger.Warn("pin validation failed", slog.String("path", r.URL.Path))
				httpx.Problem(w, http.StatusForbidden, "invalid PIN", "the supplied PIN does not match")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
