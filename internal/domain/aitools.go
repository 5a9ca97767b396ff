package domain

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// AITool is one AI product suggested alongside a recommendation.
type AITool struct {
	Name     string   `json:"name"`
	Category string   `json:"category,omitempty"`
	Usage    string   `json:"usage,omitempty"`
	URL      string   `json:"url,omitempty"`
	Score    *float64 `json:"score,omitempty"`
}

// UnmarshalJSON accepts either an object or a bare string (taken as the
// tool name). Score may be a number or a numeric string; other fields of
// the wrong type are ignored rather than failing the tool.
func (t *AITool) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var name string
		if err := json.Unmarshal(b, &name); err != nil {
			return err
		}
		*t = AITool{Name: name}
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	*t = AITool{
		Name:     textField(fields["name"]),
		Category: textField(fields["category"]),
		Usage:    textField(fields["usage"]),
		URL:      textField(fields["url"]),
		Score:    numberField(fields["score"]),
	}
	return nil
}

// textField returns a JSON string or number as text, "" otherwise.
func textField(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return ""
}

func numberField(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}
	var f float64
	if json.Unmarshal(raw, &f) == nil {
		return &f
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return &f
		}
	}
	return nil
}

// AIToolkit is the ai_tools payload of a Recommendation.
//
// Raw is the payload exactly as supplied and is what gets stored, so shapes
// the struct does not model survive a round trip. Tools and Notes are the
// part of Raw that could be interpreted.
type AIToolkit struct {
	Tools []AITool        `json:"tools"`
	Notes string          `json:"notes,omitempty"`
	Raw   json.RawMessage `json:"-"`
}

// MarshalJSON writes Raw when present, else the structured fields.
func (k AIToolkit) MarshalJSON() ([]byte, error) {
	if len(k.Raw) > 0 {
		return k.Raw, nil
	}
	type plain AIToolkit
	return json.Marshal(plain(k))
}

// UnmarshalJSON interprets any JSON value; see ParseAIToolkit.
func (k *AIToolkit) UnmarshalJSON(b []byte) error {
	kit, err := ParseAIToolkit(string(b))
	if err != nil {
		return err
	}
	*k = kit
	return nil
}

// Len returns the number of tools.
func (k AIToolkit) Len() int { return len(k.Tools) }

// Empty reports whether nothing was supplied at all.
func (k AIToolkit) Empty() bool { return len(k.Raw) == 0 && len(k.Tools) == 0 && k.Notes == "" }

// Names returns the tool names in order.
func (k AIToolkit) Names() []string {
	out := make([]string, 0, len(k.Tools))
	for _, t := range k.Tools {
		if t.Name != "" {
			out = append(out, t.Name)
		}
	}
	return out
}

// ParseAIToolkit decodes the serialized form agents send for ai_tools.
// Any valid JSON is accepted and kept in Raw. Tools are read from:
//
//	{"tools":[{"name":"文心一言","score":4.8}], "notes":"..."}
//	[{"name":"Midjourney"}, "ChatGPT"]
//	{"name":"Notion AI"}
//	{"写作":"ChatGPT","设计":{"name":"Midjourney"}}   (key becomes Category)
//
// Elements that cannot be read as a tool are skipped. An empty string or
// JSON null yields an empty toolkit; invalid JSON is an error.
func ParseAIToolkit(raw string) (AIToolkit, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return AIToolkit{}, nil
	}
	var v json.RawMessage
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return AIToolkit{}, err
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, v); err != nil {
		return AIToolkit{}, err
	}
	kit := AIToolkit{Raw: json.RawMessage(compact.Bytes())}

	switch raw[0] {
	case '[':
		kit.Tools = toolList(v)
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(v, &fields); err != nil {
			return AIToolkit{}, err
		}
		switch {
		case fields["tools"] != nil:
			kit.Tools = toolList(fields["tools"])
			kit.Notes = textField(fields["notes"])
		case fields["name"] != nil:
			if t, ok := oneTool(v); ok {
				kit.Tools = []AITool{t}
			}
		default:
			kit.Tools = categorized(fields)
		}
	case '"':
		if t, ok := oneTool(v); ok {
			kit.Tools = []AITool{t}
		}
	}
	return kit, nil
}

func toolList(raw json.RawMessage) []AITool {
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return nil
	}
	out := make([]AITool, 0, len(items))
	for _, it := range items {
		if t, ok := oneTool(it); ok {
			out = append(out, t)
		}
	}
	return out
}

func oneTool(raw json.RawMessage) (AITool, bool) {
	var t AITool
	if err := json.Unmarshal(raw, &t); err != nil || strings.TrimSpace(t.Name) == "" {
		return AITool{}, false
	}
	return t, true
}

// categorized reads {"category": tool-or-tools} maps in key order.
func categorized(fields map[string]json.RawMessage) []AITool {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []AITool
	for _, k := range keys {
		raw := bytes.TrimSpace(fields[k])
		var tools []AITool
		if len(raw) > 0 && raw[0] == '[' {
			tools = toolList(raw)
		} else if t, ok := oneTool(raw); ok {
			tools = []AITool{t}
		}
		for _, t := range tools {
			if t.Category == "" {
				t.Category = k
			}
			out = append(out, t)
		}
	}
	return out
}
