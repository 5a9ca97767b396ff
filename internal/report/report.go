// Package report renders the personalised OPC start-up guide delivered to
// paying customers as a PDF.
//
// The document layout is fixed: a title, five numbered sections (profile,
// city environment, recommended projects, start-up steps, risks) and a
// disclaimer. Chinese text requires a UTF-8 TrueType font; without one the
// built-in Helvetica font is used and characters outside Latin-1 are
// replaced.
package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-pdf/fpdf"
)

// Input is the content of one report.
type Input struct {
	// UserInfo is free text, typically "城市：杭州\n技能：编程\n...".
	UserInfo string
	// Projects is either a JSON array of objects or free text.
	Projects string
	// City overrides the city parsed from UserInfo.
	City string
}

// Renderer builds report PDFs. The zero value uses the core font.
type Renderer struct {
	// FontPath is a UTF-8 TTF font file. Missing files fall back to the
	// core font.
	FontPath string
}

const (
	fontFamily     = "opc"
	coreFamily     = "Helvetica"
	bodySize       = 11
	headingSize    = 15
	titleSize      = 22
	lineHeight     = 7
	disclaimerText = "免责声明：本指南仅供参考，具体创业决策请根据实际情况谨慎评估。"
)

// ErrEmptyInput is returned when both UserInfo and Projects are blank.
var ErrEmptyInput = errors.New("report: empty input")

// ErrNoFont means no UTF-8 font is configured; CJK text renders as '?'.
var ErrNoFont = errors.New("report: no UTF-8 font configured")

// CheckFont reports whether FontPath can be used for CJK text. It returns
// ErrNoFont when unset and a wrapped error when the file is missing or not
// a loadable TTF.
func (r Renderer) CheckFont() error {
	if r.FontPath == "" {
		return ErrNoFont
	}
	if _, err := os.Stat(r.FontPath); err != nil {
		return fmt.Errorf("report: font: %w", err)
	}
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddUTF8Font(fontFamily, "", r.FontPath)
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("report: font %s: %w", r.FontPath, err)
	}
	return nil
}

// Render produces the PDF bytes for in.
func (r Renderer) Render(in Input) ([]byte, error) {
	if strings.TrimSpace(in.UserInfo) == "" && strings.TrimSpace(in.Projects) == "" {
		return nil, ErrEmptyInput
	}
	city := strings.TrimSpace(in.City)
	if city == "" {
		city = ParseUserInfo(in.UserInfo).City
	}

	d := newDoc(r.FontPath)
	d.pdf.AddPage()

	d.title(titleFor(city))

	d.heading("一、用户画像分析")
	d.body(in.UserInfo)

	profile, known := LookupCity(city)
	label := city
	if !known || label == "" {
		label = DefaultCity
	}
	d.heading(fmt.Sprintf("二、%s创业环境分析", label))
	d.field("人口结构", profile.Population)
	d.field("产业结构", profile.Industry)
	d.field("商业环境", profile.Business)
	d.field("政府政策", profile.Policy)
	d.field("创业机会", profile.Opportunities)
	d.field("针对性建议", profile.Recommendations)

	d.heading("三、精选创业项目推荐")
	d.body("以下项目基于您的个人特点和市场趋势精选而成：")
	projects, ok := parseProjects(in.Projects)
	if ok {
		for i, p := range projects {
			d.subheading(fmt.Sprintf("项目 %d：%s", i+1, p.name))
			for _, kv := range p.fields {
				d.field(kv[0], kv[1])
			}
		}
	} else {
		d.body(in.Projects)
	}

	d.heading("四、启动指南")
	d.field("1. 市场调研", "深入了解目标用户需求和竞争对手情况。")
	d.field("2. 最小可行产品（MVP）", "快速推出核心功能，验证市场需求。")
	d.field("3. 品牌建设", "建立专业形象，包括网站、社交媒体等。")
	d.field("4. 客户获取", "制定营销策略，快速获取首批客户。")
	d.field("5. 持续迭代", "根据用户反馈不断优化产品和服务。")

	d.heading("五、风险提示")
	d.field("1. 资金风险", "预留足够的启动资金，避免过早扩张。")
	d.field("2. 时间管理", "合理分配时间，避免过度承诺。")
	d.field("3. 法律合规", "了解相关法律法规，确保合规经营。")
	d.field("4. 竞争风险", "保持敏锐度，及时调整策略应对竞争。")
	d.field("5. 心理准备", "创业过程充满挑战，保持积极心态。")

	d.disclaimer(disclaimerText)

	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("report: render: %w", err)
	}
	return buf.Bytes(), nil
}

func titleFor(city string) string {
	if city == "" {
		return "OPC超级个体创业指导手册"
	}
	return city + "OPC超级个体创业指导手册"
}

// UserInfo is the structured form of Input.UserInfo.
type UserInfo struct {
	City       string
	Skills     string
	Experience string
	Interests  string
}

// ParseUserInfo extracts labelled lines ("城市：", "技能：", "经验：", "兴趣：")
// from free text. Both full-width and ASCII colons are accepted.
func ParseUserInfo(s string) UserInfo {
	var u UserInfo
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		label, value, ok := cutLabel(line)
		if !ok {
			continue
		}
		switch {
		case strings.Contains(label, "城市") || strings.Contains(label, "地址"):
			u.City = value
		case strings.Contains(label, "技能"):
			u.Skills = value
		case strings.Contains(label, "经验"):
			u.Experience = value
		case strings.Contains(label, "兴趣"):
			u.Interests = value
		}
	}
	return u
}

func cutLabel(line string) (label, value string, ok bool) {
	for _, sep := range []string{"：", ":"} {
		if l, v, found := strings.Cut(line, sep); found {
			return strings.TrimSpace(l), strings.TrimSpace(v), true
		}
	}
	return "", "", false
}

type project struct {
	name   string
	fields [][2]string
}

var projectLabels = map[string]string{
	"core_advantage":   "核心优势",
	"advantage":        "核心优势",
	"estimated_income": "预估收入",
	"income":           "预估收入",
	"startup_cost":     "启动成本",
	"cost":             "启动成本",
	"ai_tools":         "AI工具",
	"tools":            "AI工具",
	"description":      "项目简介",
}

// parseProjects decodes a JSON array (or single object) of projects. ok is
// false for free text.
func parseProjects(s string) ([]project, bool) {
	s = strings.TrimSpace(s)
	if s == "" || (s[0] != '[' && s[0] != '{') {
		return nil, false
	}
	var list []map[string]any
	if s[0] == '{' {
		var one map[string]any
		if err := json.Unmarshal([]byte(s), &one); err != nil {
			return nil, false
		}
		list = []map[string]any{one}
	} else if err := json.Unmarshal([]byte(s), &list); err != nil {
		return nil, false
	}

	out := make([]project, 0, len(list))
	for _, m := range list {
		p := project{name: stringify(firstOf(m, "name", "project_name", "项目名称"))}
		keys := make([]string, 0, len(m))
		for k := range m {
			if k != "name" && k != "project_name" && k != "项目名称" {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			label := k
			if l, ok := projectLabels[k]; ok {
				label = l
			}
			p.fields = append(p.fields, [2]string{label, stringify(m[k])})
		}
		out = append(out, p)
	}
	return out, true
}

func firstOf(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return ""
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, stringify(e))
		}
		return strings.Join(parts, "、")
	case map[string]any:
		if n, ok := t["name"]; ok {
			return stringify(n)
		}
		b, _ := json.Marshal(t)
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}

// doc wraps fpdf with the report's typography.
type doc struct {
	pdf    *fpdf.Fpdf
	family string
	bold   string
	tr     func(string) string
}

func newDoc(fontPath string) *doc {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetTitle("OPC超级个体创业指导手册", true)

	d := &doc{pdf: pdf, family: coreFamily, bold: "B"}
	if fontPath != "" {
		if _, err := os.Stat(fontPath); err == nil {
			pdf.AddUTF8Font(fontFamily, "", fontPath)
			if pdf.Err() {
				// Unusable font file; start over with the core font.
				pdf = fpdf.New("P", "mm", "A4", "")
				pdf.SetMargins(20, 20, 20)
				pdf.SetAutoPageBreak(true, 20)
				d.pdf = pdf
			} else {
				d.family, d.bold = fontFamily, ""
				d.tr = func(s string) string { return s }
			}
		}
	}
	if d.tr == nil {
		cp := pdf.UnicodeTranslatorFromDescriptor("")
		d.tr = func(s string) string { return cp(latin1(s)) }
	}
	return d
}

// latin1 replaces runes the core fonts cannot encode.
func latin1(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xFF {
			return '?'
		}
		return r
	}, s)
}

func (d *doc) title(s string) {
	d.pdf.SetFont(d.family, d.bold, titleSize)
	d.pdf.SetTextColor(0x2E, 0x86, 0xAB)
	d.pdf.MultiCell(0, 12, d.tr(s), "", "C", false)
	d.pdf.Ln(6)
}

func (d *doc) heading(s string) {
	d.pdf.Ln(4)
	d.pdf.SetFont(d.family, d.bold, headingSize)
	d.pdf.SetTextColor(0x44, 0x44, 0x44)
	d.pdf.MultiCell(0, 9, d.tr(s), "", "L", false)
	d.pdf.Ln(2)
}

func (d *doc) subheading(s string) {
	d.pdf.SetFont(d.family, d.bold, bodySize+1)
	d.pdf.SetTextColor(0x2E, 0x86, 0xAB)
	d.pdf.MultiCell(0, lineHeight+1, d.tr(s), "", "L", false)
}

func (d *doc) body(s string) {
	d.pdf.SetFont(d.family, "", bodySize)
	d.pdf.SetTextColor(0x33, 0x33, 0x33)
	d.pdf.MultiCell(0, lineHeight, d.tr(strings.TrimSpace(s)), "", "L", false)
	d.pdf.Ln(2)
}

func (d *doc) field(label, value string) {
	d.body(label + "：" + value)
}

func (d *doc) disclaimer(s string) {
	d.pdf.Ln(8)
	d.pdf.SetFont(d.family, "", 9)
	d.pdf.SetTextColor(0x99, 0x99, 0x99)
	d.pdf.MultiCell(0, 6, d.tr(s), "", "C", false)
}
