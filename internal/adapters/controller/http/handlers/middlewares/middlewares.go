package middlewares

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Badsnus/festival-booking/cmd/app"
	"github.com/Badsnus/festival-booking/internal/adapters/controller/http/handlers/response"
	"github.com/Badsnus/festival-booking/internal/domain/dto"
	"github.com/Badsnus/festival-booking/pkg/logger/types"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("festival/http")

type authService interface {
	Authenticate(ctx context.Context, token string) (dto.Principal, error)
}

type roleService interface {
	Session(ctx context.Context, principal dto.Principal) dto.Session
}

type Handler struct {
	logger      *types.Logger
	authService authService
	roleService roleService
}

func New(a *app.App) *Handler {
	return &Handler{
		logger:      a.Logger,
		authService: a.Services.Auth,
		roleService: a.Services.Roles,
	}
}

type sessionKey struct{}

func WithSession(ctx context.Context, session dto.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// Session returns the caller's session. Unauthenticated requests get the
// zero session, which holds no role and passes no permission check.
func Session(ctx context.Context) dto.Session {
	session, _ := ctx.Value(sessionKey{}).(dto.Session)
	return session
}

// Token reads the bearer token, falling back to the token query parameter
// for websocket clients that cannot set headers.
func Token(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// Authorized resolves the session for the bearer token and rejects the
// request when there is none.
func (h Handler) Authorized(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := h.authService.Authenticate(r.Context(), Token(r))
		if err != nil {
			response.Error(w, h.logger, r, err)
			return
		}
		session := h.roleService.Session(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

func (h Handler) Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Infof("(request: %s) %s %s -> %d in %s",
			chimiddleware.GetReqID(r.Context()), r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}

// Trace opens one span per request, named after the matched route.
func Trace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "http.request", trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		span.SetName(r.Method + " " + route)
		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", ww.Status()),
		)
		if ww.Status() >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(ww.Status()))
		}
	})
}
