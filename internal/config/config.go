// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, the database, the LLM agent, payment and community-group details,
// report storage, rate limiting, and observability.
//
// A Config is constructed once at process start and passed explicitly to
// the components that need it.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DatabaseConfig selects and locates the SQL backend.
type DatabaseConfig struct {
	Driver string // DB_DRIVER: sqlite|postgres
	Path   string // DB_PATH: SQLite file
	DSN    string // DB_DSN: postgres connection string
}

// LLMConfig configures the chat-completion backend and the agent loop.
type LLMConfig struct {
	APIKey         string        // LLM_API_KEY (falls back to OPENAI_API_KEY)
	BaseURL        string        // LLM_BASE_URL, for OpenAI-compatible gateways
	Model          string        // LLM_MODEL
	Temperature    float64       // LLM_TEMPERATURE in [0,2]
	Timeout        time.Duration // LLM_TIMEOUT
	MaxToolRounds  int           // AGENT_MAX_TOOL_ROUNDS
	HistoryWindow  int           // AGENT_HISTORY_WINDOW (messages)
	PromptPath     string        // AGENT_PROMPT_PATH, optional override of the embedded prompt
	WelcomeMessage string        // AGENT_WELCOME_MESSAGE, optional override
}

// Enabled reports whether an API key is configured.
func (c LLMConfig) Enabled() bool { return strings.TrimSpace(c.APIKey) != "" }

// PaymentConfig describes the static QR-code payment flow.
type PaymentConfig struct {
	ProductName     string          // PAYMENT_PRODUCT_NAME
	Price           decimal.Decimal // PAYMENT_PRICE
	WechatQRCodeURL string          // WECHAT_QRCODE_URL
	AlipayQRCodeURL string          // ALIPAY_QRCODE_URL
	WechatAccount   string          // WECHAT_ACCOUNT
	AlipayAccount   string          // ALIPAY_ACCOUNT
}

// GroupConfig describes the paid community group.
type GroupConfig struct {
	Name      string // GROUP_NAME
	QRCodeURL string // GROUP_QRCODE_URL
	Notice    string // GROUP_NOTICE
}

// ReportConfig configures PDF rendering and storage.
type ReportConfig struct {
	Dir           string // REPORT_DIR
	FontPath      string // PDF_FONT_PATH
	PublicBaseURL string // PUBLIC_BASE_URL, used for download and share links
}

// FilesURL returns the public URL prefix of stored reports.
func (c ReportConfig) FilesURL() string {
	return strings.TrimRight(c.PublicBaseURL, "/") + "/files"
}

// AdminConfig guards the admin API.
type AdminConfig struct {
	Token string // ADMIN_TOKEN; empty disables the admin API
}

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration // must exceed LLM.Timeout for long agent turns
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug|release|test

	// Logging / Docs
	LogLevel       string
	LogPretty      bool
	SwaggerEnabled bool
	APIBasePath    string

	Database DatabaseConfig
	LLM      LLMConfig

	// Offline FAQ fallback
	FAQPath      string  // FAQ_PATH, optional override of the embedded FAQ
	FAQThreshold float64 // FAQ_THRESHOLD in [0,1]

	Payment PaymentConfig
	Group   GroupConfig
	Report  ReportConfig
	Admin   AdminConfig

	// Chat limits
	MaxMessageRunes int           // MAX_MESSAGE_RUNES
	IdempotencyTTL  time.Duration // how long a given Idempotency-Key is valid

	// Rate limiting
	RateRPS   float64
	RateBurst int

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 11*time.Minute),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api")),

		Database: DatabaseConfig{
			Driver: strings.ToLower(getenv("DB_DRIVER", "sqlite")),
			Path:   getenv("DB_PATH", "opc.db"),
			DSN:    getenv("DB_DSN", ""),
		},

		LLM: LLMConfig{
			APIKey:         getenv("LLM_API_KEY", getenv("OPENAI_API_KEY", "")),
			BaseURL:        getenv("LLM_BASE_URL", ""),
			Model:          getenv("LLM_MODEL", "gpt-4o-mini"),
			Temperature:    getfloat("LLM_TEMPERATURE", 0.7),
			Timeout:        getdur("LLM_TIMEOUT", 600*time.Second),
			MaxToolRounds:  getint("AGENT_MAX_TOOL_ROUNDS", 8),
			HistoryWindow:  getint("AGENT_HISTORY_WINDOW", 40),
			PromptPath:     getenv("AGENT_PROMPT_PATH", ""),
			WelcomeMessage: getenv("AGENT_WELCOME_MESSAGE", ""),
		},

		FAQPath:      getenv("FAQ_PATH", ""),
		FAQThreshold: getfloat("FAQ_THRESHOLD", 0.15),

		Payment: PaymentConfig{
			ProductName:     getenv("PAYMENT_PRODUCT_NAME", "OPC创业指导PDF"),
			Price:           getdecimal("PAYMENT_PRICE", decimal.RequireFromString("68.00")),
			WechatQRCodeURL: getenv("WECHAT_QRCODE_URL", ""),
			AlipayQRCodeURL: getenv("ALIPAY_QRCODE_URL", ""),
			WechatAccount:   getenv("WECHAT_ACCOUNT", ""),
			AlipayAccount:   getenv("ALIPAY_ACCOUNT", ""),
		},

		Group: GroupConfig{
			Name:      getenv("GROUP_NAME", "OPC超级个体孵化群"),
			QRCodeURL: getenv("GROUP_QRCODE_URL", ""),
			Notice:    getenv("GROUP_NOTICE", ""),
		},

		Report: ReportConfig{
			Dir:           getenv("REPORT_DIR", "data/reports"),
			FontPath:      getenv("PDF_FONT_PATH", ""),
			PublicBaseURL: strings.TrimRight(getenv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		},

		Admin: AdminConfig{
			Token: getenv("ADMIN_TOKEN", ""),
		},

		MaxMessageRunes: getint("MAX_MESSAGE_RUNES", 4000),
		IdempotencyTTL:  getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 2.0),
		RateBurst: getint("RATE_BURST", 5),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "opc-agent"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.Database.Driver == "postgresql" || cfg.Database.Driver == "pg" {
		cfg.Database.Driver = "postgres"
	}
	cfg.Payment.Price = cfg.Payment.Price.Round(2)

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	switch cfg.Database.Driver {
	case "sqlite":
		if strings.TrimSpace(cfg.Database.Path) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(cfg.Database.DSN) == "" {
			return cfg, errors.New("DB_DSN is required when DB_DRIVER=postgres")
		}
	default:
		return cfg, errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}
	if strings.TrimSpace(cfg.LLM.Model) == "" {
		return cfg, errors.New("LLM_MODEL must not be empty")
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		return cfg, errors.New("LLM_TEMPERATURE must be between 0 and 2")
	}
	if cfg.LLM.Timeout <= 0 {
		return cfg, errors.New("LLM_TIMEOUT must be > 0")
	}
	if cfg.LLM.MaxToolRounds < 1 {
		return cfg, errors.New("AGENT_MAX_TOOL_ROUNDS must be >= 1")
	}
	if cfg.LLM.HistoryWindow < 2 {
		return cfg, errors.New("AGENT_HISTORY_WINDOW must be >= 2")
	}
	if cfg.FAQThreshold < 0 || cfg.FAQThreshold > 1 {
		return cfg, errors.New("FAQ_THRESHOLD must be between 0 and 1")
	}
	if !cfg.Payment.Price.IsPositive() {
		return cfg, errors.New("PAYMENT_PRICE must be > 0")
	}
	if strings.TrimSpace(cfg.Report.Dir) == "" {
		return cfg, errors.New("REPORT_DIR must not be empty")
	}
	if cfg.MaxMessageRunes < 0 {
		return cfg, errors.New("MAX_MESSAGE_RUNES must be >= 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getdecimal(k string, def decimal.Decimal) decimal.Decimal {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := decimal.NewFromString(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
