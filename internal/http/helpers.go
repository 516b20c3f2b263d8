package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type contextKey string

// requestIDKey carries the trace id assigned by the middleware.
const requestIDKey contextKey = "request_id"

// DefaultUser is the account owner assumed when no X-User-ID header is sent.
// Single-user deployments never need to set the header.
const DefaultUser = "local"

// userID extracts the acting user from the request headers.
func userID(r *http.Request) string {
	if id := sanitizeInput(r.Header.Get("X-User-ID")); id != "" {
		return id
	}
	return DefaultUser
}

// requestIDFrom returns the trace id stored by the middleware, or empty.
func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
