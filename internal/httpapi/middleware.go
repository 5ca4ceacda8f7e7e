package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-retail-service/internal/auth"
	"github.com/fekuna/omnipos-retail-service/internal/model"
	"github.com/fekuna/omnipos-retail-service/internal/pkg/logger"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
)

func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyRequestID).(string)
	return v
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID, reqID)))
	})
}

func WithLogging(log logger.ZapLogger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sr, r)
		log.Info("http_request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sr.status),
			zap.Int("bytes", sr.bytes),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", RequestIDFromContext(r.Context())),
		)
	})
}

// WithCORS lets browser clients on other origins call the API.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Accept-Language, X-Request-Id, Idempotency-Key")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Expose-Headers", "X-Request-Id, X-Total-Count")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// protect requires a valid bearer token and, when roles is non-empty, one of
// those roles.
func (a *App) protect(roles []model.Role, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := a.authenticate(w, r)
		if !ok {
			return
		}
		ctx := auth.WithUser(r.Context(), user)
		if _, err := auth.Authorize(ctx, roles...); err != nil {
			a.writeError(w, r, err)
			return
		}
		next(w, r.WithContext(ctx))
	})
}

func (a *App) authenticate(w http.ResponseWriter, r *http.Request) (auth.UserContext, bool) {
	raw, err := auth.BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		a.writeMessage(w, r, http.StatusUnauthorized, msgUnauthenticated)
		return auth.UserContext{}, false
	}
	user, err := a.Tokens.Parse(raw)
	if err != nil {
		a.writeMessage(w, r, http.StatusUnauthorized, msgUnauthenticated)
		return auth.UserContext{}, false
	}
	return user, true
}
