package knowledge

import (
	"bytes"
	_ "embed"
	"strings"
)

//go:embed data/faq.md
var defaultFAQ []byte

// DefaultFAQ returns the built-in FAQ document.
func DefaultFAQ() []byte { return bytes.Clone(defaultFAQ) }

// NoMatchReply is returned when no entry clears the threshold.
const NoMatchReply = "抱歉，我暂时无法回答这个问题。你可以告诉我你的城市、技能、工作经验和兴趣，我来为你推荐适合的创业方向；或者问我价格、支付方式、入群方式等问题。"

// Load builds the FAQ index from path, or from the built-in FAQ when path
// is empty.
func Load(path string, opts ...Option) (Index, error) {
	if strings.TrimSpace(path) == "" {
		return NewIndexFromReader(bytes.NewReader(defaultFAQ), opts...)
	}
	return NewIndexFromFile(path, opts...)
}

// Answerer replies from an Index.
type Answerer struct {
	Index     Index
	Threshold float64
}

// Answer returns the best entry scoring at least Threshold, with its
// heading stripped, or NoMatchReply.
func (a Answerer) Answer(question string) (string, bool) {
	if a.Index == nil {
		return NoMatchReply, false
	}
	res := a.Index.TopK(question, 1)
	if len(res) == 0 || res[0].Score < a.Threshold {
		return NoMatchReply, false
	}
	return stripHeading(res[0].Snippet), true
}

func stripHeading(s string) string {
	first, rest, ok := strings.Cut(s, "\n")
	if ok && strings.HasPrefix(strings.TrimSpace(first), "#") {
		return strings.TrimSpace(rest)
	}
	return s
}
