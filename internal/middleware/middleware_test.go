package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(handlers...)
	r.GET("/ping", func(c *gin.Context) {
		id, _ := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"user": id, "request_id": GetRequestID(c)})
	})
	return r
}

func get(r http.Handler, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error APIError `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error.Code
}

func TestAuthDisabledWithoutSecret(t *testing.T) {
	w := get(newRouter(Auth("", zap.NewNop())), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestAuthRejectsMissingAndBadTokens(t *testing.T) {
	r := newRouter(Auth("secret", zap.NewNop()))

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"not bearer", "Basic abc"},
		{"garbage", "Bearer not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.header != "" {
				h.Set("Authorization", tt.header)
			}
			w := get(r, h)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", w.Code)
			}
			if code := errorCode(t, w); code != ErrCodeUnauthorized {
				t.Errorf("expected %s, got %s", ErrCodeUnauthorized, code)
			}
		})
	}

	wrongKey, err := IssueToken("other-secret", "alice", time.Minute)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	if w := get(r, http.Header{"Authorization": {"Bearer " + wrongKey}}); w.Code != http.StatusUnauthorized {
		t.Errorf("token signed with another key: expected 401, got %d", w.Code)
	}

	expired, err := IssueToken("secret", "alice", -time.Minute)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	if w := get(r, http.Header{"Authorization": {"Bearer " + expired}}); w.Code != http.StatusUnauthorized {
		t.Errorf("expired token: expected 401, got %d", w.Code)
	}
}

func TestAuthAcceptsValidToken(t *testing.T) {
	token, err := IssueToken("secret", "alice", time.Minute)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	w := get(newRouter(Auth("secret", zap.NewNop())), http.Header{"Authorization": {"Bearer " + token}})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["user"] != "alice" {
		t.Errorf("expected user alice, got %q", body["user"])
	}
}

func TestRequestID(t *testing.T) {
	r := newRouter(RequestID())

	w := get(r, nil)
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("expected a generated request ID")
	}

	w = get(r, http.Header{RequestIDHeader: {"abc-123"}})
	if got := w.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("expected incoming request ID to be kept, got %q", got)
	}
}

func TestRateLimiterRefill(t *testing.T) {
	now := time.Unix(0, 0)
	rl := NewRateLimiter(2, 1, time.Minute)
	rl.now = func() time.Time { return now }

	if !rl.Allow("k") || !rl.Allow("k") {
		t.Fatal("expected the first two requests to pass")
	}
	if rl.Allow("k") {
		t.Fatal("expected the bucket to be empty")
	}
	if !rl.Allow("other") {
		t.Error("keys must not share a bucket")
	}

	now = now.Add(90 * time.Second)
	if !rl.Allow("k") {
		t.Fatal("expected one token after a refill period")
	}
	if rl.Allow("k") {
		t.Error("expected only one refilled token")
	}

	now = now.Add(30 * time.Second)
	if !rl.Allow("k") {
		t.Error("expected partial periods to carry over")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	r := newRouter(RateLimitMiddleware(NewRateLimiter(1, 1, time.Hour)))

	w := get(r, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("expected remaining 0, got %q", got)
	}

	w = get(r, nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if code := errorCode(t, w); code != ErrCodeRateLimited {
		t.Errorf("expected %s, got %s", ErrCodeRateLimited, code)
	}
	if got := w.Header().Get("X-RateLimit-Limit"); got != "1" {
		t.Errorf("expected limit 1, got %q", got)
	}
}
