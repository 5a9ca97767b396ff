package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRender_CoreFontFallback(t *testing.T) {
	r := Renderer{FontPath: filepath.Join(t.TempDir(), "missing.ttf")}
	out, err := r.Render(Input{
		UserInfo: "城市：杭州\n技能：编程",
		Projects: `[{"name":"AI咨询","estimated_income":"20万"}]`,
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", out[:min(len(out), 16)])
	}
}

func TestCheckFont(t *testing.T) {
	if err := (Renderer{}).CheckFont(); !errors.Is(err, ErrNoFont) {
		t.Fatalf("unset font: %v", err)
	}

	dir := t.TempDir()
	if err := (Renderer{FontPath: filepath.Join(dir, "missing.ttf")}).CheckFont(); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing font: %v", err)
	}

	bogus := filepath.Join(dir, "bogus.ttf")
	if err := os.WriteFile(bogus, []byte(strings.Repeat("not a font ", 16)), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := (Renderer{FontPath: bogus}).CheckFont(); err == nil || errors.Is(err, ErrNoFont) {
		t.Fatalf("bogus font: %v", err)
	}
}

func TestRender_EmptyInput(t *testing.T) {
	if _, err := (Renderer{}).Render(Input{UserInfo: " ", Projects: ""}); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestParseUserInfo(t *testing.T) {
	u := ParseUserInfo("城市：上海\n技能: 写作\n工作经验：5年运营\n兴趣：旅行\n随便写点")
	if u.City != "上海" || u.Skills != "写作" || u.Experience != "5年运营" || u.Interests != "旅行" {
		t.Fatalf("unexpected parse: %+v", u)
	}
}

func TestLookupCity(t *testing.T) {
	if _, ok := LookupCity("杭州"); !ok {
		t.Fatalf("杭州 should have a dedicated entry")
	}
	if _, ok := LookupCity("深圳市"); !ok {
		t.Fatalf("suffixed city name should match")
	}
	p, ok := LookupCity("拉萨")
	if ok || p != cityTable[DefaultCity] {
		t.Fatalf("unknown city should return default profile")
	}
	if _, ok := LookupCity(DefaultCity); ok {
		t.Fatalf("default key is not a dedicated city")
	}
}

func TestParseProjects(t *testing.T) {
	ps, ok := parseProjects(`[{"name":"AI咨询","core_advantage":"懂技术","ai_tools":["ChatGPT",{"name":"Midjourney"}]}]`)
	if !ok || len(ps) != 1 {
		t.Fatalf("parse failed: ok=%v len=%d", ok, len(ps))
	}
	if ps[0].name != "AI咨询" {
		t.Fatalf("name = %q", ps[0].name)
	}
	got := map[string]string{}
	for _, kv := range ps[0].fields {
		got[kv[0]] = kv[1]
	}
	if got["核心优势"] != "懂技术" || got["AI工具"] != "ChatGPT、Midjourney" {
		t.Fatalf("fields = %v", got)
	}

	if _, ok := parseProjects("1. 做自媒体"); ok {
		t.Fatalf("free text must not parse as JSON")
	}
	if _, ok := parseProjects("[not json"); ok {
		t.Fatalf("broken JSON must fall back to text")
	}
	if ps, ok := parseProjects(`{"project_name":"单个"}`); !ok || ps[0].name != "单个" {
		t.Fatalf("single object: ok=%v %+v", ok, ps)
	}
}

func TestLatin1(t *testing.T) {
	if got := latin1("café 杭州"); got != "café ??" {
		t.Fatalf("latin1 = %q", got)
	}
}
