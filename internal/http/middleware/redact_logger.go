package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RedactOptions configures AccessLog.
type RedactOptions struct {
	// MaskHeaders are replaced with "[REDACTED]" in addition to
	// Authorization, Cookie, Set-Cookie and X-Admin-Token.
	MaskHeaders []string
}

// Patterns run in order: ids, emails, mainland ID cards, mainland mobiles,
// then generic phone numbers. Customer contacts are emails or phone numbers,
// so query strings and headers are scrubbed before they reach the log.
var redactors = []struct {
	re   *regexp.Regexp
	with string
}{
	{regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`), "[REDACTED:id]"},
	{regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`), "[REDACTED:email]"},
	{regexp.MustCompile(`\b[1-9]\d{5}(?:19|20)\d{2}(?:0[1-9]|1[0-2])(?:0[1-9]|[12]\d|3[01])\d{3}[\dXx]\b`), "[REDACTED:idcard]"},
	{regexp.MustCompile(`(?:\+?86[ -]?)?\b1[3-9]\d{9}\b`), "[REDACTED:phone]"},
	{regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`), "[REDACTED:phone]"},
}

// Redact scrubs contact data from s.
func Redact(s string) string {
	if s == "" {
		return s
	}
	for _, r := range redactors {
		s = r.re.ReplaceAllString(s, r.with)
	}
	return s
}

// AccessLog emits one structured line per request with PII scrubbed from the
// query string and headers, and installs a request-scoped logger carrying the
// request id. Bodies are never logged. 4xx log at warn, 5xx at error.
func AccessLog(opts RedactOptions) gin.HandlerFunc {
	masked := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
		"x-admin-token": {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			masked[h] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()
		rid := RequestIDFrom(c)

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		l := log.With().
			Str("request_id", rid).
			Str("method", c.Request.Method).
			Str("path", path).
			Logger()
		c.Set(loggerKey, &l)

		headers := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := masked[strings.ToLower(k)]; ok {
				headers[k] = "[REDACTED]"
				continue
			}
			headers[k] = Redact(strings.Join(vv, ", "))
		}
		query := truncate(Redact(c.Request.URL.RawQuery), maxQueryLogLength)

		c.Next()

		status := c.Writer.Status()
		ev := l.Info()
		switch {
		case status >= 500 || len(c.Errors) > 0:
			ev = l.Error()
			if len(c.Errors) > 0 {
				ev = ev.Str("errors", c.Errors.String())
			}
		case status >= 400:
			ev = l.Warn()
		}
		ev.
			Str("query", query).
			Str("remote_ip", c.ClientIP()).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Int64("bytes_in", c.Request.ContentLength).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http_request")
	}
}
