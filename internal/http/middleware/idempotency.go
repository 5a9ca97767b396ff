package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Headers understood by the chat endpoint.
const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderSessionID      = "X-Session-ID"
)

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"
)

// DefaultSession is used when a request names no session.
const DefaultSession = "default"

// SessionID returns the chat session of the request: the X-Session-ID
// header, else the session_id query parameter, else DefaultSession.
func SessionID(c *gin.Context) string {
	if v := strings.TrimSpace(c.GetHeader(HeaderSessionID)); v != "" {
		return v
	}
	if v := strings.TrimSpace(c.Query("session_id")); v != "" {
		return v
	}
	return DefaultSession
}

// ResolveSession picks the chat session: bodySession (the JSON body's
// session_id) when set, else SessionID(c). The chat handler and the replay
// lookup both resolve sessions through it.
func ResolveSession(c *gin.Context, bodySession string) string {
	if v := strings.TrimSpace(bodySession); v != "" {
		return v
	}
	return SessionID(c)
}

// bodySessionID reads session_id from a JSON request body and puts the
// body back for the handler. Any read or decode problem yields "".
func bodySessionID(c *gin.Context) string {
	if c.Request.Body == nil || c.ContentType() != gin.MIMEJSON {
		return ""
	}
	orig := c.Request.Body
	b, err := io.ReadAll(orig)
	if err != nil {
		// Replay the failure (e.g. body too large) to the handler.
		c.Request.Body = readCloser{io.MultiReader(bytes.NewReader(b), failingReader{err}), orig}
		return ""
	}
	c.Request.Body = readCloser{bytes.NewReader(b), orig}
	var body struct {
		SessionID string `json:"session_id"`
	}
	if json.Unmarshal(b, &body) != nil {
		return ""
	}
	return body.SessionID
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

type readCloser struct {
	io.Reader
	io.Closer
}

// GetIdempotencyKey returns the key validated by IdempotencyValidator.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, _ := c.Get(ctxKeyIdemKey)
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether a stored reply exists for the request's session
// and key.
func IsReplay(c *gin.Context) bool {
	v, _ := c.Get(ctxKeyIdemReplay)
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions configures key validation.
type IdempotencyOptions struct {
	// MaxLen caps the key length; <= 0 means 200.
	MaxLen int
	// Pattern restricts key characters; nil means ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
}

// IdempotencyLookup reports whether an unexpired reply is stored for
// (sessionID, key). Errors are treated as a miss.
type IdempotencyLookup func(ctx context.Context, sessionID, key string, now time.Time) (bool, error)

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// IdempotencyValidator checks the Idempotency-Key header when present,
// rejects malformed keys with 400 bad_idempotency_key, and stashes the key
// for handlers. A key with a stored reply marks the request as a replay,
// which also exempts it from rate limiting. Replies themselves are served by
// the handler.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultKeyPattern
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": RequestIDFrom(c),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			session := ResolveSession(c, bodySessionID(c))
			if hit, err := lookup(c.Request.Context(), session, key, time.Now().UTC()); err == nil && hit {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}
		c.Next()
	}
}
