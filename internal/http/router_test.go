package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/opc-agent/internal/config"
	"github.com/tbourn/opc-agent/internal/domain"
	"github.com/tbourn/opc-agent/internal/http/handlers"
	"github.com/tbourn/opc-agent/internal/repo"
	"github.com/tbourn/opc-agent/internal/services"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:router_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

type countingAgent struct {
	calls atomic.Int32
}

func (a *countingAgent) Respond(_ context.Context, sid, msg string) (string, error) {
	n := a.calls.Add(1)
	return fmt.Sprintf("%s#%d:%s", sid, n, msg), nil
}

func testConfig(t *testing.T) config.Config {
	return config.Config{
		APIBasePath: "/api",
		RateRPS:     100,
		RateBurst:   10,
		OTEL:        config.OTELConfig{ServiceName: "test-svc"},
		Payment: config.PaymentConfig{
			ProductName:   "OPC创业指导PDF",
			Price:         decimal.RequireFromString("68"),
			WechatAccount: "opc_wx",
		},
		Report: config.ReportConfig{Dir: t.TempDir(), PublicBaseURL: "http://localhost:8080"},
	}
}

type harness struct {
	r     *gin.Engine
	agent *countingAgent
	db    *gorm.DB
}

func newHarness(t *testing.T, cfg config.Config) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	agent := &countingAgent{}
	r := gin.New()
	RegisterRoutes(r, Deps{
		DB:        db,
		Chat:      services.NewChatService(db, agent, time.Hour, 4000),
		Customers: services.NewCustomerService(db),
		Welcome:   "欢迎",
	}, cfg)
	return &harness{r: r, agent: agent, db: db}
}

func (h *harness) do(method, target, body string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.r.ServeHTTP(w, req)
	return w
}

func TestRegisterRoutes_PublicSurface(t *testing.T) {
	h := newHarness(t, testConfig(t))

	w := h.do(http.MethodGet, "/api/health", "", map[string]string{"Origin": "https://any.example"})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"service":"opc-agent"`) {
		t.Fatalf("health = %d %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow-all CORS expected '*', got %q", got)
	}
	if w.Header().Get("X-Request-ID") == "" || w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("baseline headers missing: %v", w.Header())
	}

	if w := h.do(http.MethodGet, "/metrics", "", nil); w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("metrics = %d", w.Code)
	}
	if w := h.do(http.MethodGet, "/", "", nil); !strings.Contains(w.Body.String(), "OPC") {
		t.Fatalf("index page missing")
	}
	if w := h.do(http.MethodGet, "/api/welcome", "", nil); !strings.Contains(w.Body.String(), "欢迎") {
		t.Fatalf("welcome = %s", w.Body.String())
	}
	if w := h.do(http.MethodGet, "/api/payment/info", "", nil); !strings.Contains(w.Body.String(), `"price":"68.00"`) {
		t.Fatalf("payment info = %s", w.Body.String())
	}
	if w := h.do(http.MethodGet, "/api/share/qrcode.png", "", nil); w.Code != http.StatusOK {
		t.Fatalf("share qr = %d", w.Code)
	}

	w = h.do(http.MethodGet, "/nope", "", nil)
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), `"code":"not_found"`) {
		t.Fatalf("NoRoute = %d %s", w.Code, w.Body.String())
	}
	w = h.do(http.MethodGet, "/api/chat", "", nil)
	if w.Code != http.StatusMethodNotAllowed || !strings.Contains(w.Body.String(), "method_not_allowed") {
		t.Fatalf("NoMethod = %d %s", w.Code, w.Body.String())
	}
	if w := h.do(http.MethodGet, "/swagger/index.html", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("swagger mounted while disabled: %d", w.Code)
	}
}

func TestRegisterRoutes_ChatIdempotency(t *testing.T) {
	h := newHarness(t, testConfig(t))
	hdr := map[string]string{"Idempotency-Key": "k-1", "X-Session-ID": "s1"}

	first := h.do(http.MethodPost, "/api/chat", `{"message":"你好"}`, hdr)
	if first.Code != http.StatusOK || !strings.Contains(first.Body.String(), `"reply":"s1#1:你好"`) {
		t.Fatalf("first = %d %s", first.Code, first.Body.String())
	}
	second := h.do(http.MethodPost, "/api/chat", `{"message":"你好"}`, hdr)
	if second.Body.String() != first.Body.String() || second.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("replay = %s %v", second.Body.String(), second.Header())
	}
	if n := h.agent.calls.Load(); n != 1 {
		t.Fatalf("agent called %d times", n)
	}

	// Same key in another session is a fresh turn.
	other := h.do(http.MethodPost, "/api/chat", `{"message":"你好","session_id":"s2"}`, map[string]string{"Idempotency-Key": "k-1"})
	if !strings.Contains(other.Body.String(), "s2#2") {
		t.Fatalf("other session = %s", other.Body.String())
	}

	w := h.do(http.MethodPost, "/api/chat", `{"message":"x"}`, map[string]string{"Idempotency-Key": "bad key"})
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "bad_idempotency_key") {
		t.Fatalf("bad key = %d %s", w.Code, w.Body.String())
	}

	w = h.do(http.MethodPost, "/api/chat", `{"message":""}`, nil)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "请提供消息内容") {
		t.Fatalf("empty = %d %s", w.Code, w.Body.String())
	}
}

func TestRegisterRoutes_RateLimitBypassOnReplay(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateRPS, cfg.RateBurst = 0.001, 1
	h := newHarness(t, cfg)

	if w := h.do(http.MethodPost, "/api/chat", `{"message":"a"}`, map[string]string{"Idempotency-Key": "r-1"}); w.Code != http.StatusOK {
		t.Fatalf("first = %d", w.Code)
	}
	w := h.do(http.MethodPost, "/api/chat", `{"message":"b"}`, map[string]string{"Idempotency-Key": "r-2"})
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") == "" {
		t.Fatalf("second = %d", w.Code)
	}
	w = h.do(http.MethodPost, "/api/chat", `{"message":"a"}`, map[string]string{"Idempotency-Key": "r-1"})
	if w.Code != http.StatusOK || w.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("replay should bypass the limiter: %d", w.Code)
	}
	if w := h.do(http.MethodGet, "/api/health", "", nil); w.Code != http.StatusOK {
		t.Fatalf("health limited: %d", w.Code)
	}
}

func TestRegisterRoutes_BodySessionReplayBypass(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateRPS, cfg.RateBurst = 0.001, 1
	h := newHarness(t, cfg)

	body := `{"message":"a","session_id":"body-only"}`
	if w := h.do(http.MethodPost, "/api/chat", body, map[string]string{"Idempotency-Key": "b-1"}); w.Code != http.StatusOK {
		t.Fatalf("first = %d", w.Code)
	}
	w := h.do(http.MethodPost, "/api/chat", body, map[string]string{"Idempotency-Key": "b-1"})
	if w.Code != http.StatusOK || w.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("body-session replay = %d %v", w.Code, w.Header())
	}
	if !strings.Contains(w.Body.String(), `"success":true`) {
		t.Fatalf("handler lost the body: %s", w.Body.String())
	}
	if n := h.agent.calls.Load(); n != 1 {
		t.Fatalf("agent calls = %d; want 1", n)
	}
}

func TestRegisterRoutes_Admin(t *testing.T) {
	h := newHarness(t, testConfig(t))
	if w := h.do(http.MethodGet, "/api/admin/stats", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("admin without token configured = %d", w.Code)
	}

	cfg := testConfig(t)
	cfg.Admin.Token = "s3cret"
	h = newHarness(t, cfg)
	if _, err := services.NewCustomerService(h.db).SaveCustomerInfo(context.Background(), "a@x.com", domain.ProfileFields{}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if w := h.do(http.MethodGet, "/api/admin/stats", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token = %d", w.Code)
	}
	auth := map[string]string{"X-Admin-Token": "s3cret"}
	if w := h.do(http.MethodGet, "/api/admin/stats", "", auth); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"users":1`) {
		t.Fatalf("stats = %d %s", w.Code, w.Body.String())
	}
	if w := h.do(http.MethodGet, "/api/admin/customers", "", auth); !strings.Contains(w.Body.String(), `"total":1`) {
		t.Fatalf("customers = %s", w.Body.String())
	}
	if w := h.do(http.MethodGet, "/api/admin/customers/a@x.com", "", auth); w.Code != http.StatusOK {
		t.Fatalf("customer = %d", w.Code)
	}
	if w := h.do(http.MethodGet, "/api/admin/customers/nobody", "", auth); w.Code != http.StatusNotFound {
		t.Fatalf("unknown customer = %d", w.Code)
	}
}

func TestRegisterRoutes_FilesAndCORSAllowlist(t *testing.T) {
	cfg := testConfig(t)
	cfg.CORS.AllowedOrigins = []string{"https://opc.example.com"}
	if err := os.WriteFile(filepath.Join(cfg.Report.Dir, "opc_guide_abcd1234.pdf"), []byte("%PDF-1.3"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	h := newHarness(t, cfg)

	w := h.do(http.MethodGet, "/files/opc_guide_abcd1234.pdf", "", map[string]string{"Origin": "https://opc.example.com"})
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Body.String(), "%PDF") {
		t.Fatalf("files = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://opc.example.com" {
		t.Fatalf("allowlisted origin not echoed: %q", got)
	}

	w = h.do(http.MethodGet, "/api/health", "", map[string]string{"Origin": "https://evil.example"})
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("unlisted origin allowed")
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB")))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	groupWithPrefix(r, "/").GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	groupWithPrefix(r, "").GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })
	groupWithPrefix(r, "/api").GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, rec.Code, rec.Body.String())
		}
	}
}

func TestReplayLookup(t *testing.T) {
	if replayLookup(nil) != nil {
		t.Fatalf("nil db should disable lookup")
	}
	db := newTestDB(t)
	lookup := replayLookup(db)
	ctx := context.Background()

	if hit, err := lookup(ctx, "s", "k", time.Now()); hit || err != nil {
		t.Fatalf("miss: hit=%v err=%v", hit, err)
	}
	if _, err := repo.CreateReplay(ctx, db, "s", "k", "reply", time.Hour); err != nil {
		t.Fatalf("create: %v", err)
	}
	if hit, _ := lookup(ctx, "s", "k", time.Now().UTC()); !hit {
		t.Fatalf("expected hit")
	}
	if hit, _ := lookup(ctx, "s", "k", time.Now().UTC().Add(2*time.Hour)); hit {
		t.Fatalf("expired replay reported as hit")
	}
}

var _ handlers.ChatSender = (*services.ChatService)(nil)
