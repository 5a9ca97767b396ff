// Package knowledge answers customer questions offline from a Markdown FAQ.
//
// The FAQ is split into entries on blank lines. An entry whose first line is
// a heading ("## ...") or a question ("Q：..." / "问：...") is matched on that
// line only; any other entry is matched on its full text. Scoring is the
// Jaccard similarity of token sets, |Q ∩ E| / |Q ∪ E|, where tokens are
// lower-cased Latin words and numbers plus overlapping bigrams of Han runs.
//
// An Index is immutable after construction and safe for concurrent use.
package knowledge

import (
	"bytes"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Result is a ranked FAQ entry with its similarity score.
type Result struct {
	Snippet string
	Score   float64
}

// Index ranks entries against a query.
type Index interface {
	TopK(query string, k int) []Result
	Len() int
}

type Option func(*options)

type options struct {
	minEntryRunes int
	stopwords     map[string]struct{}
	maxEntries    int
}

func defaultOptions() options {
	return options{minEntryRunes: 8}
}

// WithMinEntryRunes drops entries shorter than n runes.
func WithMinEntryRunes(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.minEntryRunes = n
		}
	}
}

// WithStopwords removes the given tokens from both queries and entries.
// Han stopwords are matched as bigrams.
func WithStopwords(words []string) Option {
	return func(o *options) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			o.stopwords = m
		}
	}
}

// WithMaxEntries caps the number of indexed entries.
func WithMaxEntries(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxEntries = n
		}
	}
}

type entry struct {
	text   string
	tokens map[string]struct{}
}

type index struct {
	opts    options
	entries []entry
}

// NewIndexFromFile builds an Index from the Markdown file at path.
func NewIndexFromFile(path string, opts ...Option) (Index, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return &index{opts: defaultOptions()}, err
	}
	return NewIndexFromReader(bytes.NewReader(b), opts...)
}

// NewIndexFromReader builds an Index from UTF-8 Markdown read from r.
func NewIndexFromReader(r io.Reader, opts ...Option) (Index, error) {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	all, err := io.ReadAll(r)
	if err != nil {
		return &index{opts: o}, err
	}
	return build(splitEntries(FlattenTables(all)), o), nil
}

// NewIndexFromStrings builds an Index from pre-split entries.
func NewIndexFromStrings(entries []string, opts ...Option) Index {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return build(entries, o)
}

func build(raw []string, o options) *index {
	out := make([]entry, 0, len(raw))
	for _, r := range raw {
		t := strings.TrimSpace(collapseSpaces(r))
		if t == "" {
			continue
		}
		if o.minEntryRunes > 0 && utf8.RuneCountInString(t) < o.minEntryRunes {
			continue
		}
		// A bare heading has no answer to return.
		if strings.HasPrefix(t, "#") && !strings.Contains(t, "\n") {
			continue
		}
		toks := tokenize(matchKey(t), o.stopwords)
		if len(toks) == 0 {
			continue
		}
		out = append(out, entry{text: t, tokens: toks})
		if o.maxEntries > 0 && len(out) >= o.maxEntries {
			break
		}
	}
	return &index{opts: o, entries: out}
}

func (i *index) Len() int { return len(i.entries) }

// TopK returns up to k entries with a positive score, best first. Ties go to
// the shorter entry, then lexical order.
func (i *index) TopK(q string, k int) []Result {
	if len(i.entries) == 0 || strings.TrimSpace(q) == "" {
		return nil
	}
	if k <= 0 {
		k = 3
	}
	qt := tokenize(q, i.opts.stopwords)
	if len(qt) == 0 {
		return nil
	}

	type scored struct {
		text  string
		score float64
		runes int
	}
	buf := make([]scored, 0, min(k*4, len(i.entries)))
	for _, e := range i.entries {
		over := overlap(qt, e.tokens)
		if over == 0 {
			continue
		}
		union := len(qt) + len(e.tokens) - over
		buf = append(buf, scored{
			text:  e.text,
			score: float64(over) / float64(union),
			runes: utf8.RuneCountInString(e.text),
		})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].score != buf[b].score {
			return buf[a].score > buf[b].score
		}
		if buf[a].runes != buf[b].runes {
			return buf[a].runes < buf[b].runes
		}
		return buf[a].text < buf[b].text
	})

	k = min(k, len(buf))
	out := make([]Result, k)
	for n := 0; n < k; n++ {
		out[n] = Result{Snippet: buf[n].text, Score: buf[n].score}
	}
	return out
}

var questionPrefixes = []string{"q:", "q：", "问:", "问："}

// matchKey returns the part of an entry that queries are scored against.
func matchKey(text string) string {
	first, _, _ := strings.Cut(text, "\n")
	first = strings.TrimSpace(first)
	if strings.HasPrefix(first, "#") {
		return strings.TrimLeft(first, "# ")
	}
	lower := strings.ToLower(first)
	for _, p := range questionPrefixes {
		if strings.HasPrefix(lower, p) {
			return first
		}
	}
	return text
}

var latinRE = regexp.MustCompile(`[\p{Latin}\p{N}]+`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	s = strings.ToLower(s)
	out := make(map[string]struct{})
	add := func(tok string) {
		if stop != nil {
			if _, skip := stop[tok]; skip {
				return
			}
		}
		out[tok] = struct{}{}
	}

	for _, w := range latinRE.FindAllString(s, -1) {
		add(w)
	}

	var run []rune
	flush := func() {
		switch len(run) {
		case 0:
		case 1:
			add(string(run))
		default:
			for n := 0; n+1 < len(run); n++ {
				add(string(run[n : n+2]))
			}
		}
		run = run[:0]
	}
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			run = append(run, r)
			continue
		}
		flush()
	}
	flush()

	if len(out) == 0 {
		return nil
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prev := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' {
			if !prev {
				b.WriteByte(' ')
				prev = true
			}
			continue
		}
		prev = false
		b.WriteRune(r)
	}
	return b.String()
}

var blankLineRE = regexp.MustCompile(`\n\s*\n`)

func splitEntries(all []byte) []string {
	chunks := blankLineRE.Split(string(all), -1)
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if t := strings.TrimSpace(c); t != "" {
			out = append(out, t)
		}
	}
	return out
}
