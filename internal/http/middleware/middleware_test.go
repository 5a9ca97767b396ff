package middleware

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return body
}

// captureLogs redirects the global logger for the duration of the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func TestRequestID_GenerateAndPropagate(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, RequestIDFrom(c)) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	if got := w.Header().Get("X-Request-ID"); got == "" || got != w.Body.String() {
		t.Fatalf("generated id mismatch: header=%q body=%q", got, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	if w := serve(r, req); w.Header().Get("X-Request-ID") != "abc" {
		t.Fatalf("inbound id not propagated")
	}
}

func TestRecovery(t *testing.T) {
	captureLogs(t)
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })
	r.GET("/late", func(c *gin.Context) {
		c.String(http.StatusOK, "partial")
		panic("after write")
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if body := decode(t, w); body["code"] != "internal_error" || body["request_id"] == "" {
		t.Fatalf("body = %v", body)
	}

	w = serve(r, httptest.NewRequest(http.MethodGet, "/late", nil))
	if w.Body.String() != "partial" {
		t.Fatalf("written body should be kept, got %q", w.Body.String())
	}
}

func TestRedact(t *testing.T) {
	cases := map[string]string{
		"contact=13812345678":                         "contact=[REDACTED:phone]",
		"tel +86 13912345678":                         "tel [REDACTED:phone]",
		"mail u.ser@example.com":                      "mail [REDACTED:email]",
		"id 110101199003071234":                       "id [REDACTED:idcard]",
		"sid 123e4567-e89b-12d3-a456-426614174000":    "sid [REDACTED:id]",
		"":                                            "",
		"page=2":                                      "page=2",
	}
	for in, want := range cases {
		if got := Redact(in); got != want {
			t.Fatalf("Redact(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAccessLog_ScrubsAndScopesLogger(t *testing.T) {
	buf := captureLogs(t)
	r := gin.New()
	r.Use(RequestID(), AccessLog(RedactOptions{MaskHeaders: []string{"X-Secret"}}))
	r.GET("/c", func(c *gin.Context) {
		LoggerFrom(c).Info().Msg("inside")
		c.Status(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/c?contact=13812345678", nil)
	req.Header.Set("X-Request-ID", "rid-1")
	req.Header.Set("X-Admin-Token", "s3cret")
	req.Header.Set("X-Secret", "hidden")
	serve(r, req)

	out := buf.String()
	for _, leak := range []string{"13812345678", "s3cret", "hidden"} {
		if strings.Contains(out, leak) {
			t.Fatalf("log leaked %q:\n%s", leak, out)
		}
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("want 2 log lines, got %d:\n%s", len(lines), out)
	}
	for _, l := range lines {
		if !strings.Contains(l, `"request_id":"rid-1"`) {
			t.Fatalf("line missing request id: %s", l)
		}
	}
	if !strings.Contains(lines[1], `"level":"warn"`) || !strings.Contains(lines[1], `"status":418`) {
		t.Fatalf("access line = %s", lines[1])
	}
}

func TestLoggerFrom_Fallback(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if LoggerFrom(c) == nil {
		t.Fatalf("nil logger")
	}
	c.Set(loggerKey, "not a logger")
	if LoggerFrom(c) == nil {
		t.Fatalf("nil logger for wrong type")
	}
}

func TestSessionID(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	if got := SessionID(c); got != DefaultSession {
		t.Fatalf("default = %q", got)
	}
	c.Request = httptest.NewRequest(http.MethodPost, "/api/chat?session_id=q", nil)
	if got := SessionID(c); got != "q" {
		t.Fatalf("query = %q", got)
	}
	c.Request.Header.Set(HeaderSessionID, " h ")
	if got := SessionID(c); got != "h" {
		t.Fatalf("header = %q", got)
	}
}

func TestIdempotencyValidator(t *testing.T) {
	var gotSession, gotKey string
	lookup := func(_ context.Context, sid, key string, _ time.Time) (bool, error) {
		gotSession, gotKey = sid, key
		return key == "seen", nil
	}
	r := gin.New()
	r.Use(IdempotencyValidator(IdempotencyOptions{MaxLen: 10}, lookup))
	r.POST("/chat", func(c *gin.Context) {
		key, _ := GetIdempotencyKey(c)
		c.JSON(http.StatusOK, gin.H{"key": key, "replay": IsReplay(c), "bypass": IsRateBypass(c)})
	})

	w := serve(r, httptest.NewRequest(http.MethodPost, "/chat", nil))
	if body := decode(t, w); body["key"] != "" || body["replay"] != false || gotKey != "" {
		t.Fatalf("no header: %v (lookup key %q)", body, gotKey)
	}

	for _, bad := range []string{"has space", "waytoolongkey1"} {
		req := httptest.NewRequest(http.MethodPost, "/chat", nil)
		req.Header.Set(HeaderIdempotencyKey, bad)
		w := serve(r, req)
		if w.Code != http.StatusBadRequest || decode(t, w)["code"] != "bad_idempotency_key" {
			t.Fatalf("key %q: status %d body %s", bad, w.Code, w.Body.String())
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/chat", nil)
	req.Header.Set(HeaderIdempotencyKey, "seen")
	req.Header.Set(HeaderSessionID, "s1")
	body := decode(t, serve(r, req))
	if body["replay"] != true || body["bypass"] != true || gotSession != "s1" {
		t.Fatalf("replay: %v session=%q", body, gotSession)
	}

	req = httptest.NewRequest(http.MethodPost, "/chat", nil)
	req.Header.Set(HeaderIdempotencyKey, "fresh")
	body = decode(t, serve(r, req))
	if body["key"] != "fresh" || body["replay"] != false || gotSession != DefaultSession {
		t.Fatalf("fresh: %v session=%q", body, gotSession)
	}
}

func TestIdempotencyValidator_BodySession(t *testing.T) {
	var gotSession string
	lookup := func(_ context.Context, sid, _ string, _ time.Time) (bool, error) {
		gotSession = sid
		return true, nil
	}
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 64)
		c.Next()
	})
	r.Use(IdempotencyValidator(IdempotencyOptions{}, lookup))
	r.POST("/chat", func(c *gin.Context) {
		var req struct {
			Message   string `json:"message"`
			SessionID string `json:"session_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": req.Message, "session": ResolveSession(c, req.SessionID)})
	})

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"hi","session_id":"from-body"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderIdempotencyKey, "k1")
	req.Header.Set(HeaderSessionID, "from-header")
	body := decode(t, serve(r, req))
	if gotSession != "from-body" || body["session"] != "from-body" || body["message"] != "hi" {
		t.Fatalf("lookup session %q, handler saw %v", gotSession, body)
	}

	req = httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderIdempotencyKey, "k1")
	req.Header.Set(HeaderSessionID, "from-header")
	if body := decode(t, serve(r, req)); gotSession != "from-header" || body["session"] != "from-header" {
		t.Fatalf("header fallback: lookup %q, handler %v", gotSession, body)
	}

	req = httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"`+strings.Repeat("x", 100)+`"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderIdempotencyKey, "k1")
	if w := serve(r, req); w.Code != http.StatusRequestEntityTooLarge || gotSession != DefaultSession {
		t.Fatalf("oversized body: %d session %q", w.Code, gotSession)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.5, 1, nil)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if c.GetHeader("X-Replay") != "" {
			c.Set(ctxKeyRateBypass, true)
		}
		c.Next()
	})
	r.Use(rl.Handler())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	if w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil)); w.Code != http.StatusNoContent {
		t.Fatalf("first = %d", w.Code)
	}
	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") != "2" {
		t.Fatalf("second = %d retry=%q", w.Code, w.Header().Get("Retry-After"))
	}
	if decode(t, w)["code"] != "rate_limited" {
		t.Fatalf("body = %s", w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Replay", "1")
	if w := serve(r, req); w.Code != http.StatusNoContent {
		t.Fatalf("bypass = %d", w.Code)
	}
}

func TestRateLimiter_SweepsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(1, 1, KeyByClientIP())
	rl.ttl = time.Nanosecond
	rl.limiter("old")
	time.Sleep(time.Millisecond)
	rl.lookups = sweepEvery - 1
	rl.limiter("new")
	if _, ok := rl.buckets["old"]; ok {
		t.Fatalf("idle bucket not swept")
	}
	if _, ok := rl.buckets["new"]; !ok {
		t.Fatalf("current bucket missing")
	}
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), SecurityHeaders(SecurityOptions{EnableHSTS: true, NoStore: true, EnablePolicy: true, HSTSMaxAge: time.Hour}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	h := w.Header()
	if h.Get("X-Frame-Options") != "DENY" || h.Get("X-Content-Type-Options") != "nosniff" || h.Get("Cache-Control") != "no-store" {
		t.Fatalf("baseline headers: %v", h)
	}
	if h.Get("Strict-Transport-Security") != "" {
		t.Fatalf("HSTS on plain HTTP")
	}
	if h.Get("Access-Control-Expose-Headers") != "X-Request-ID" || h.Get("Permissions-Policy") == "" {
		t.Fatalf("expose/policy headers: %v", h)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	if got := serve(r, req).Header().Get("Strict-Transport-Security"); got != "max-age=3600; includeSubDomains; preload" {
		t.Fatalf("HSTS = %q", got)
	}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "HTTPS")
	if serve(r, req).Header().Get("Strict-Transport-Security") == "" {
		t.Fatalf("HSTS missing behind TLS proxy")
	}
}

func TestAdminToken(t *testing.T) {
	mk := func(token string) *gin.Engine {
		r := gin.New()
		r.GET("/admin", AdminToken(token), func(c *gin.Context) { c.Status(http.StatusOK) })
		return r
	}

	if w := serve(mk(""), httptest.NewRequest(http.MethodGet, "/admin", nil)); w.Code != http.StatusNotFound {
		t.Fatalf("disabled admin = %d", w.Code)
	}

	r := mk("s3cret")
	if w := serve(r, httptest.NewRequest(http.MethodGet, "/admin", nil)); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token = %d", w.Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(HeaderAdminToken, "s3cret")
	if w := serve(r, req); w.Code != http.StatusOK {
		t.Fatalf("valid token = %d", w.Code)
	}
}

func TestMetrics(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/m/:id", func(c *gin.Context) { c.String(http.StatusOK, "x") })

	before := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/m/:id", "200"))
	before404 := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/nope", "404"))
	serve(r, httptest.NewRequest(http.MethodGet, "/m/1", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/m/2", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/m/:id", "200")) - before; got != 2 {
		t.Fatalf("route counter delta = %v", got)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/nope", "404")) - before404; got != 1 {
		t.Fatalf("404 counter delta = %v", got)
	}
	if testutil.ToFloat64(httpInflight) != 0 {
		t.Fatalf("inflight not released")
	}
}
