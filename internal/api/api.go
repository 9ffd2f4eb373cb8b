package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/dmitrymomot/seokit/handler"
	"github.com/dmitrymomot/seokit/internal/history"
	"github.com/dmitrymomot/seokit/pkg/binder"
	"github.com/dmitrymomot/seokit/pkg/clientip"
	"github.com/dmitrymomot/seokit/pkg/httpserver"
	"github.com/dmitrymomot/seokit/pkg/jwt"
	"github.com/dmitrymomot/seokit/pkg/logger"
	"github.com/dmitrymomot/seokit/pkg/ratelimiter"
	"github.com/dmitrymomot/seokit/pkg/requestid"
	"github.com/dmitrymomot/seokit/pkg/subscription"
	"github.com/dmitrymomot/seokit/pkg/tools"
)

var ErrMissingDependency = errors.New("api: missing dependency")

// Config holds HTTP API settings.
type Config struct {
	AllowedOrigins    []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	ReadinessTimeout  time.Duration `env:"READINESS_TIMEOUT" envDefault:"5s"`
	MaxToolInputBytes int64         `env:"TOOL_INPUT_MAX_BYTES" envDefault:"262144"`
}

// ToolInvoker runs a content tool.
type ToolInvoker interface {
	Configured(res subscription.Resource) bool
	Invoke(ctx context.Context, res subscription.Resource, input json.RawMessage) (*tools.Result, error)
}

// HistoryStore keeps tool results per user.
type HistoryStore interface {
	Save(ctx context.Context, userID uuid.UUID, res subscription.Resource, input, output json.RawMessage) (history.Entry, error)
	ListByTool(ctx context.Context, userID uuid.UUID, res subscription.Resource, limit int) ([]history.Entry, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// BillingProcessor applies verified billing events.
type BillingProcessor interface {
	Process(ctx context.Context, ev *subscription.WebhookEvent) error
}

// Deps are the collaborators of the API. Manager, JWT and Tools are required.
type Deps struct {
	Manager *subscription.Manager
	JWT     *jwt.Service
	Tools   ToolInvoker

	History   HistoryStore                  // history routes answer 503 when nil
	Gateway   subscription.CheckoutProvider // serves /api/create-checkout
	Webhooks  subscription.WebhookParser
	Processor BillingProcessor
	Limiter   *ratelimiter.Bucket // tool calls are not throttled when nil
	Metrics   *Metrics
	Checks    map[string]httpserver.Check
	Logger    *slog.Logger
}

type server struct {
	cfg     Config
	deps    Deps
	log     *slog.Logger
	metrics *Metrics
	onError handler.ErrorHandler[handler.Context]
}

// NewRouter builds the HTTP API.
func NewRouter(cfg Config, deps Deps) (http.Handler, error) {
	switch {
	case deps.Manager == nil:
		return nil, errors.Join(ErrMissingDependency, errors.New("session manager"))
	case deps.JWT == nil:
		return nil, errors.Join(ErrMissingDependency, errors.New("jwt service"))
	case deps.Tools == nil:
		return nil, errors.Join(ErrMissingDependency, errors.New("tool invoker"))
	}

	s := &server{
		cfg:     cfg,
		deps:    deps,
		log:     deps.Logger,
		metrics: deps.Metrics,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	if s.cfg.ReadinessTimeout <= 0 {
		s.cfg.ReadinessTimeout = 5 * time.Second
	}
	s.onError = handler.NewErrorHandler(s.log, mapDomainErrors)

	return s.routes(), nil
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(
		requestid.Middleware,
		clientip.Middleware(),
		middleware.Recoverer,
		s.metrics.Middleware,
	)
	if len(s.cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.onError(handler.NewContext(w, r), handler.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.onError(handler.NewContext(w, r), handler.NewHTTPError(http.StatusMethodNotAllowed, "method_not_allowed"))
	})

	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(s.log, s.cfg.ReadinessTimeout, s.deps.Checks))
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/plans", wrap(s, s.listPlans))
		r.Post("/billing/webhook", s.billingWebhook)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate, s.attachSession)

			r.Get("/me", wrap(s, s.me))
			r.Post("/me/refresh", wrap(s, s.refresh))
			r.Post("/me/sign-out", wrap(s, s.signOut))
			r.Delete("/me/notice", wrap(s, s.clearNotice))
			r.Get("/payments", wrap(s, s.payments))
			r.Post("/checkout", wrap(s, s.checkout, binder.JSON()))
			r.Post("/create-checkout", wrap(s, s.createCheckout, binder.JSON()))

			r.With(s.throttle()).Post("/tools/{resource}",
				wrap(s, s.invokeTool, binder.JSONWithLimit(s.cfg.maxToolInput()), binder.Path(chi.URLParam)))
			r.Get("/tools/{resource}/history",
				wrap(s, s.listHistory, binder.Query(), binder.Path(chi.URLParam)))
			r.Delete("/history/{id}", wrap(s, s.deleteHistory, binder.Path(chi.URLParam)))
		})
	})

	return r
}

func (c Config) maxToolInput() int64 {
	if c.MaxToolInputBytes <= 0 {
		return binder.DefaultMaxJSONSize
	}
	return c.MaxToolInputBytes
}

// wrap adapts a typed handler with the server's error handler and binders.
func wrap[R any](s *server, h handler.HandlerFunc[handler.Context, R], binders ...handler.Bind) http.HandlerFunc {
	opts := []handler.WrapOption[handler.Context, R]{
		handler.WithErrorHandler[handler.Context, R](s.onError),
	}
	if len(binders) > 0 {
		opts = append(opts, handler.WithBinders[handler.Context, R](binders...))
	}
	return handler.Wrap(h, opts...)
}

// authenticate verifies the bearer token and answers 401 in the JSON envelope.
func (s *server) authenticate(next http.Handler) http.Handler {
	return jwt.MiddlewareWithConfig(jwt.MiddlewareConfig{
		Service: s.deps.JWT,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			s.onError(handler.NewContext(w, r), err)
		},
	})(next)
}

// attachSession resolves the user's session, signing them in on first use.
func (s *server) attachSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := jwt.UserIDFromContext(r.Context())
		if !ok {
			s.onError(handler.NewContext(w, r), handler.ErrUnauthorized)
			return
		}

		sess, err := s.deps.Manager.Resolve(r.Context(), userID)
		if err != nil {
			s.onError(handler.NewContext(w, r), err)
			return
		}
		ctx := subscription.WithSession(r.Context(), sess)
		ctx = logger.ContextWithAttrs(ctx, logger.UserID(userID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// throttle limits tool calls per user, or per client address without one.
func (s *server) throttle() func(http.Handler) http.Handler {
	if s.deps.Limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}

	key := ratelimiter.FirstOf(
		func(r *http.Request) string {
			if id, ok := jwt.UserIDFromContext(r.Context()); ok {
				return "user:" + id.String()
			}
			return ""
		},
		func(r *http.Request) string {
			if ip := clientip.FromContext(r.Context()); ip != "" {
				return "ip:" + ip
			}
			return ""
		},
	)

	return ratelimiter.Middleware(s.deps.Limiter, key,
		ratelimiter.WithLimitedHandler(func(w http.ResponseWriter, r *http.Request, _ *ratelimiter.Result) {
			s.onError(handler.NewContext(w, r), errRateLimited)
		}),
		ratelimiter.WithStoreErrorObserver(func(r *http.Request, err error) {
			s.log.WarnContext(r.Context(), "rate limiter unavailable, request allowed",
				logger.Component("ratelimiter"),
				logger.Error(err),
			)
		}),
	)
}

func sessionFrom(ctx context.Context) (*subscription.Session, error) {
	sess, ok := subscription.SessionFromContext(ctx)
	if !ok {
		return nil, handler.ErrUnauthorized
	}
	return sess, nil
}
