package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tbourn/opc-agent/internal/domain"
	"github.com/tbourn/opc-agent/internal/services"
)

// CustomerStore is the subset of services.CustomerService the tools use.
type CustomerStore interface {
	SaveCustomerInfo(ctx context.Context, contact string, f domain.ProfileFields) (*services.SaveCustomerResult, error)
	SavePaymentAndService(ctx context.Context, contact string, in services.PaymentInput) (*services.SavePaymentResult, error)
	GetCustomerSummary(ctx context.Context, contact string) (*services.CustomerSummary, error)
	SaveRecommendation(ctx context.Context, contact string, f domain.RecommendationFields) (*domain.Recommendation, error)
	MarkJoinedGroup(ctx context.Context, contact string) (*services.JoinResult, error)
}

const timeLayout = "2006-01-02 15:04:05"

func registerCustomerTools(r *Registry, store CustomerStore) {
	r.Register(Spec{
		Name:        "save_user_info",
		Description: "保存用户信息和创业偏好。同一联系方式重复调用会更新已有档案，未提供的字段保持不变。",
		Parameters:  saveUserInfoSchema,
	}, typed(func(ctx context.Context, req SaveUserInfoRequest) (string, error) {
		return saveUserInfo(ctx, store, req)
	}))

	r.Register(Spec{
		Name:        "save_payment_and_pdf",
		Description: "保存支付信息和PDF下载链接。每次调用都会新增一条支付记录和服务记录。",
		Parameters:  savePaymentSchema,
	}, typed(func(ctx context.Context, req SavePaymentRequest) (string, error) {
		return savePayment(ctx, store, req)
	}))

	r.Register(Spec{
		Name:        "mark_user_joined_group",
		Description: "标记用户已加入企业微信群（需已完成支付）。",
		Parameters:  contactSchema,
	}, typed(func(ctx context.Context, req ContactRequest) (string, error) {
		return markJoined(ctx, store, req)
	}))

	r.Register(Spec{
		Name:        "get_customer_info",
		Description: "查询客户完整信息：档案、推荐项目、支付记录和服务记录。",
		Parameters:  contactSchema,
	}, typed(func(ctx context.Context, req ContactRequest) (string, error) {
		return getCustomerInfo(ctx, store, req)
	}))

	r.Register(Spec{
		Name:        "save_recommendations",
		Description: "保存为用户推荐的创业项目（用户需已保存信息）。",
		Parameters:  saveRecommendationSchema,
	}, typed(func(ctx context.Context, req SaveRecommendationRequest) (string, error) {
		return saveRecommendation(ctx, store, req)
	}))
}

// contactProblem maps service-level input errors to reply strings.
func contactProblem(err error) (string, bool) {
	switch {
	case errors.Is(err, services.ErrEmptyContact):
		return "❌ 参数错误：contact_info 不能为空", true
	case errors.Is(err, services.ErrInvalidAmount):
		return "❌ 参数错误：amount 必须大于 0", true
	}
	return "", false
}

func notFoundUser(contact string) string {
	return fmt.Sprintf("⚠️ **未找到用户**：联系方式 %s 不存在，请先保存用户信息", contact)
}

func orUnset(p *string) string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return "未填写"
	}
	return *p
}

func orUnsetValue(s string) string {
	if strings.TrimSpace(s) == "" {
		return "未填写"
	}
	return s
}

func saveUserInfo(ctx context.Context, store CustomerStore, req SaveUserInfoRequest) (string, error) {
	res, err := store.SaveCustomerInfo(ctx, req.ContactInfo, domain.ProfileFields{
		TargetCity:     req.TargetCity,
		Skills:         req.Skills,
		WorkExperience: req.WorkExperience,
		Interests:      req.Interests,
		RiskTolerance:  req.RiskTolerance,
		TimeCommitment: req.TimeCommitment,
		StartupBudget:  req.StartupBudget,
	})
	if msg, ok := contactProblem(err); ok {
		return msg, nil
	}
	if err != nil {
		return "", err
	}

	budget := "未填写"
	if req.StartupBudget != nil {
		budget = req.StartupBudget.Round(2).String() + "万元"
	}

	return fmt.Sprintf(`✅ **用户信息保存成功！**

📋 **保存的用户信息**：
- 联系方式：%s
- 用户ID：%d
- 档案ID：%d

📍 **创业信息**：
- 目标城市：%s
- 专业技能：%s
- 启动资金：%s

这些信息已保存到数据库，后续可以用于：
- 个性化推荐
- 数据分析
- 客户管理`, res.ContactInfo, res.UserID, res.ProfileID, orUnset(req.TargetCity), orUnset(req.Skills), budget), nil
}

func savePayment(ctx context.Context, store CustomerStore, req SavePaymentRequest) (string, error) {
	method := strings.TrimSpace(req.PaymentMethod)
	if method == "" {
		method = domain.DefaultPaymentMethod
	}
	res, err := store.SavePaymentAndService(ctx, req.ContactInfo, services.PaymentInput{
		Amount: req.Amount,
		Method: method,
		Proof:  req.PaymentProof,
		PDFURL: req.PDFURL,
	})
	if msg, ok := contactProblem(err); ok {
		return msg, nil
	}
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`✅ **支付信息保存成功！**

💰 **支付记录**：
- 支付金额：¥%s
- 支付方式：%s
- 支付凭证：%s
- 支付ID：%d

📄 **服务记录**：
- PDF下载链接：%s
- 服务记录ID：%d

📊 **用户信息**：
- 用户ID：%d
- 联系方式：%s

这些信息已保存到数据库，便于后续查询和管理。`,
		req.Amount.StringFixed(2), method, orUnsetValue(req.PaymentProof), res.PaymentID,
		orUnsetValue(req.PDFURL), res.ServiceRecordID,
		res.UserID, res.ContactInfo), nil
}

func markJoined(ctx context.Context, store CustomerStore, req ContactRequest) (string, error) {
	res, err := store.MarkJoinedGroup(ctx, req.ContactInfo)
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return notFoundUser(req.ContactInfo), nil
	case errors.Is(err, services.ErrServiceRecordNotFound):
		return fmt.Sprintf("⚠️ **未找到服务记录**：用户 %s 尚未完成支付，无法标记入群", req.ContactInfo), nil
	}
	if msg, ok := contactProblem(err); ok {
		return msg, nil
	}
	if err != nil {
		return "", err
	}

	if res.AlreadyJoined {
		return fmt.Sprintf("ℹ️ **用户已入群**：用户 %s 已经在 %s 入群",
			res.User.ContactInfo, formatTime(res.Record.GroupJoinedAt)), nil
	}
	return fmt.Sprintf(`✅ **入群标记成功！**

🎉 **用户信息**：
- 联系方式：%s
- 用户ID：%d
- 服务记录ID：%d

📊 **状态更新**：
- 入群状态：已加入
- 入群时间：%s

用户已成功加入企业微信群！`, res.User.ContactInfo, res.User.ID, res.Record.ID, formatTime(res.Record.GroupJoinedAt)), nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "未记录"
	}
	return t.Local().Format(timeLayout)
}

func getCustomerInfo(ctx context.Context, store CustomerStore, req ContactRequest) (string, error) {
	sum, err := store.GetCustomerSummary(ctx, req.ContactInfo)
	if msg, ok := contactProblem(err); ok {
		return msg, nil
	}
	if err != nil {
		return "", err
	}
	if sum == nil {
		return fmt.Sprintf("⚠️ **未找到客户**：联系方式 %s 不存在", req.ContactInfo), nil
	}
	return FormatSummary(sum), nil
}

// FormatSummary renders a customer summary as chat text.
func FormatSummary(sum *services.CustomerSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, `📋 **客户信息查询结果**

👤 **基本信息**：
- 用户ID：%d
- 联系方式：%s
- 创建时间：%s
- 最后活跃：%s

`, sum.User.ID, sum.User.ContactInfo, formatTime(&sum.User.CreatedAt), formatTime(&sum.User.LastActiveAt))

	if p := sum.Profile; p != nil {
		budget := "未填写"
		if p.StartupBudget.Valid {
			budget = p.StartupBudget.Decimal.String() + "万元"
		}
		fmt.Fprintf(&b, `📝 **创业信息**：
- 目标城市：%s
- 专业技能：%s
- 工作经验：%s
- 个人兴趣：%s
- 风险承受：%s
- 时间投入：%s
- 启动资金：%s

`, orUnsetValue(p.TargetCity), orUnsetValue(p.Skills), orUnsetValue(p.WorkExperience),
			orUnsetValue(p.Interests), orUnsetValue(p.RiskTolerance), orUnsetValue(p.TimeCommitment), budget)
	}

	if len(sum.Recommendations) > 0 {
		fmt.Fprintf(&b, "🎯 **推荐项目**：共 %d 个\n", len(sum.Recommendations))
		for _, rec := range sum.Recommendations {
			fmt.Fprintf(&b, "- %s：%s\n", rec.ProjectName, orUnsetValue(rec.EstimatedIncome))
			if names := rec.AITools.Data().Names(); len(names) > 0 {
				fmt.Fprintf(&b, "  AI工具：%s\n", strings.Join(names, "、"))
			}
		}
	}

	if len(sum.Payments) > 0 {
		fmt.Fprintf(&b, "\n💰 **支付记录**：共 %d 笔\n", len(sum.Payments))
		total := decimal.Zero
		for _, pay := range sum.Payments {
			fmt.Fprintf(&b, "- ¥%s（%s）- %s\n", pay.Amount.StringFixed(2), pay.PaymentStatus, formatTime(&pay.CreatedAt))
			if pay.PaymentStatus == domain.PaymentPaid {
				total = total.Add(pay.Amount)
			}
		}
		fmt.Fprintf(&b, "- 已支付合计：¥%s\n", total.StringFixed(2))
	}

	if rec := sum.ServiceRecord; rec != nil {
		b.WriteString("\n📄 **服务记录**：\n")
		if rec.PDFURL != "" {
			fmt.Fprintf(&b, "- PDF下载链接：%s\n", rec.PDFURL)
		}
		if rec.GroupJoined {
			fmt.Fprintf(&b, "- 已入群（%s）\n", formatTime(rec.GroupJoinedAt))
		} else {
			b.WriteString("- 未入群\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func saveRecommendation(ctx context.Context, store CustomerStore, req SaveRecommendationRequest) (string, error) {
	kit, perr := domain.ParseAIToolkit(string(req.AITools))
	if perr != nil {
		kit = domain.AIToolkit{}
	}
	rec, err := store.SaveRecommendation(ctx, req.ContactInfo, domain.RecommendationFields{
		ProjectName:     req.ProjectName,
		CoreAdvantage:   req.CoreAdvantage,
		EstimatedIncome: req.EstimatedIncome,
		StartupCost:     req.StartupCost,
		AITools:         kit,
	})
	if errors.Is(err, services.ErrUserNotFound) {
		return notFoundUser(req.ContactInfo), nil
	}
	if msg, ok := contactProblem(err); ok {
		return msg, nil
	}
	if err != nil {
		return "", err
	}

	tools := "无"
	switch names := kit.Names(); {
	case len(names) > 0:
		tools = strings.Join(names, "、")
	case !kit.Empty():
		tools = "未识别到工具名称（原始数据已保存）"
	}
	out := fmt.Sprintf(`✅ **推荐项目保存成功！**

🎯 **项目信息**：
- 项目名称：%s
- 核心优势：%s
- 预期收入：%s
- 启动成本：%s
- AI工具：%s
- 推荐ID：%d

📊 **用户信息**：
- 用户ID：%d
- 联系方式：%s

推荐项目已保存到数据库，便于后续查询和统计。`,
		rec.ProjectName, orUnsetValue(rec.CoreAdvantage), orUnsetValue(rec.EstimatedIncome), orUnsetValue(rec.StartupCost),
		tools, rec.ID, rec.UserID, domain.NormalizeContact(req.ContactInfo))
	if perr != nil {
		out += "\n\n⚠️ ai_tools 不是合法的 JSON，已按空列表保存。"
	}
	return out, nil
}
