package tools

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// SaveUserInfoRequest is the argument set of save_user_info. Omitted
// profile fields leave stored values untouched.
type SaveUserInfoRequest struct {
	ContactInfo    string           `json:"contact_info" validate:"required,max=255"`
	TargetCity     *string          `json:"target_city" validate:"omitempty,max=100"`
	Skills         *string          `json:"skills"`
	WorkExperience *string          `json:"work_experience"`
	Interests      *string          `json:"interests"`
	RiskTolerance  *string          `json:"risk_tolerance" validate:"omitempty,max=50"`
	TimeCommitment *string          `json:"time_commitment" validate:"omitempty,max=50"`
	StartupBudget  *decimal.Decimal `json:"startup_budget" validate:"omitempty,gte=0"`
}

// SavePaymentRequest is the argument set of save_payment_and_pdf.
type SavePaymentRequest struct {
	ContactInfo   string          `json:"contact_info" validate:"required,max=255"`
	Amount        decimal.Decimal `json:"amount" validate:"gt=0"`
	PaymentProof  string          `json:"payment_proof"`
	PDFURL        string          `json:"pdf_url" validate:"max=500"`
	PaymentMethod string          `json:"payment_method" validate:"max=50"`
}

// ContactRequest carries only a contact; used by mark_user_joined_group and
// get_customer_info.
type ContactRequest struct {
	ContactInfo string `json:"contact_info" validate:"required,max=255"`
}

// SaveRecommendationRequest is the argument set of save_recommendations.
// AITools is accepted either as a JSON-encoded string or as inline JSON.
type SaveRecommendationRequest struct {
	ContactInfo     string      `json:"contact_info" validate:"required,max=255"`
	ProjectName     string      `json:"project_name" validate:"required,max=200"`
	CoreAdvantage   string      `json:"core_advantage"`
	EstimatedIncome string      `json:"estimated_income" validate:"max=100"`
	StartupCost     string      `json:"startup_cost" validate:"max=20"`
	AITools         LooseString `json:"ai_tools"`
}

// ConfirmPaymentRequest is the argument set of confirm_payment.
type ConfirmPaymentRequest struct {
	PaymentProof string `json:"payment_proof" validate:"required"`
	ContactInfo  string `json:"contact_info" validate:"required,max=255"`
}

// GeneratePDFRequest is the argument set of generate_opc_pdf.
type GeneratePDFRequest struct {
	UserInfo LooseString `json:"user_info" validate:"required"`
	Projects LooseString `json:"projects"`
	City     string      `json:"city"`
}

// LooseString decodes a JSON string as its value and any other JSON value
// as its compact encoding. Models often inline JSON where a serialized
// string is declared.
type LooseString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *LooseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = LooseString(v)
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, b); err != nil {
		return err
	}
	*s = LooseString(buf.String())
	return nil
}

// --- JSON schemas published to the model ---

func str(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func num(desc string) map[string]any {
	return map[string]any{"type": "number", "description": desc}
}

func object(required []string, props map[string]any) map[string]any {
	if required == nil {
		required = []string{}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

var (
	saveUserInfoSchema = object([]string{"contact_info"}, map[string]any{
		"contact_info":    str("联系方式（邮箱/手机号/微信号）"),
		"target_city":     str("目标城市"),
		"skills":          str("专业技能"),
		"work_experience": str("工作经验"),
		"interests":       str("个人兴趣"),
		"risk_tolerance":  str("风险承受能力"),
		"time_commitment": str("时间投入"),
		"startup_budget":  num("启动资金（万元）"),
	})

	savePaymentSchema = object([]string{"contact_info", "amount"}, map[string]any{
		"contact_info":   str("联系方式"),
		"amount":         num("支付金额（元）"),
		"payment_proof":  str("支付凭证"),
		"pdf_url":        str("PDF下载链接"),
		"payment_method": str("支付方式（默认：微信支付）"),
	})

	contactSchema = object([]string{"contact_info"}, map[string]any{
		"contact_info": str("联系方式"),
	})

	saveRecommendationSchema = object([]string{"contact_info", "project_name"}, map[string]any{
		"contact_info":     str("联系方式"),
		"project_name":     str("项目名称"),
		"core_advantage":   str("核心优势"),
		"estimated_income": str("预期收入"),
		"startup_cost":     str("启动成本"),
		"ai_tools":         str(`AI工具推荐（JSON字符串，如 {"tools":[{"name":"文心一言","score":4.8}]}）`),
	})

	emptySchema = object(nil, map[string]any{})

	confirmPaymentSchema = object([]string{"payment_proof", "contact_info"}, map[string]any{
		"payment_proof": str("支付凭证描述（如：支付截图已发送、转账时间等）"),
		"contact_info":  str("联系方式（手机号或邮箱）"),
	})

	generatePDFSchema = object([]string{"user_info", "projects"}, map[string]any{
		"user_info": str("用户信息（城市、技能、经验、兴趣），每行一项，如 城市：杭州"),
		"projects":  str("推荐的创业项目列表（JSON字符串或格式化文本）"),
		"city":      str("用户所在城市（可选）"),
	})
)
