// Package trace tags every request with an id and logs when it starts and
// finishes.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"tracker/internal/log"
)

type ctxKey struct{}

// RequestIDHeader carries the id back to the client.
const RequestIDHeader = "X-Request-ID"

// Metrics is a snapshot of the request counters.
type Metrics struct {
	TotalRequests int64
	InFlight      int64
	ServerErrors  int64
}

// Middleware assigns request ids and records request logs and counters.
type Middleware struct {
	extractIP func(*http.Request) string
	logger    *log.StructuredLogger

	total    atomic.Int64
	inFlight atomic.Int64
	errors5x atomic.Int64
}

// NewMiddleware logs under the http component. extractIP may be nil, in
// which case RemoteAddr is logged as is.
func NewMiddleware(logger *log.Logger, extractIP func(*http.Request) string) *Middleware {
	if extractIP == nil {
		extractIP = func(r *http.Request) string { return r.RemoteAddr }
	}
	return &Middleware{
		extractIP: extractIP,
		logger:    log.NewStructuredLogger(logger.WithComponent(log.ComponentHTTP)),
	}
}

func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		began := time.Now()
		id := GenerateRequestID()
		ip := m.extractIP(r)

		ctx := context.WithValue(r.Context(), ctxKey{}, id)
		r = r.WithContext(ctx)
		w.Header().Set(RequestIDHeader, id)

		m.total.Add(1)
		m.inFlight.Add(1)
		defer m.inFlight.Add(-1)

		m.logger.LogHTTPStart(ctx, r, id, ip)

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.Status()
		if status >= http.StatusInternalServerError {
			m.errors5x.Add(1)
		}
		m.logger.LogHTTPEnd(ctx, r, status, time.Since(began).Milliseconds(), id, ip)
	})
}

// statusRecorder remembers the first status written. A handler that only
// calls Write implicitly answers 200.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

func (s *statusRecorder) Status() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}

// GenerateRequestID returns "req_" followed by 16 hex digits.
func GenerateRequestID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "req_" + strconv.FormatInt(time.Now().UnixNano(), 16)
	}
	return "req_" + hex.EncodeToString(b[:])
}

// GetRequestID returns the id stored by the middleware, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// RequestID reads the id assigned to r. It fits log.RequestIDMiddleware.
func RequestID(r *http.Request) string {
	return GetRequestID(r.Context())
}

func (m *Middleware) GetMetrics() Metrics {
	return Metrics{
		TotalRequests: m.total.Load(),
		InFlight:      m.inFlight.Load(),
		ServerErrors:  m.errors5x.Load(),
	}
}
