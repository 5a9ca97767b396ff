package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tbourn/opc-agent/internal/config"
)

func registerPaymentTools(r *Registry, pay config.PaymentConfig, group config.GroupConfig, baseURL string) {
	r.Register(Spec{
		Name:        "get_payment_qrcode",
		Description: "获取收款方式（微信/支付宝收款码或账号）以及价格。",
		Parameters:  emptySchema,
	}, func(context.Context, json.RawMessage) (string, error) {
		return PaymentInstructions(pay, baseURL), nil
	})

	r.Register(Spec{
		Name:        "confirm_payment",
		Description: "用户发送支付凭证后确认支付，并告知后续交付步骤。",
		Parameters:  confirmPaymentSchema,
	}, typed(func(_ context.Context, req ConfirmPaymentRequest) (string, error) {
		return fmt.Sprintf(`✅ **支付确认成功！**

📝 支付凭证：%s
📧 联系方式：%s

🔄 正在为您生成PDF文档，请稍候...

💡 **接下来的步骤**：
1. 我将为您生成专属的OPC创业指导PDF
2. 同时提供微信群入群二维码
3. 您将收到PDF下载链接和入群方式

⏳ 请稍等片刻，正在处理中...`, req.PaymentProof, req.ContactInfo), nil
	}))

	r.Register(Spec{
		Name:        "get_wechat_group_info",
		Description: "获取付费用户专属企业微信群的名称和入群二维码。",
		Parameters:  emptySchema,
	}, func(context.Context, json.RawMessage) (string, error) {
		return GroupInfo(group), nil
	})
}

// PaymentInstructions renders the payment prompt. A configured QR image URL
// wins over the account-transfer steps for each channel.
func PaymentInstructions(pay config.PaymentConfig, baseURL string) string {
	price := pay.Price.StringFixed(2)
	base := strings.TrimRight(baseURL, "/")

	var b strings.Builder
	fmt.Fprintf(&b, "💰 **支付方式**\n\n📦 **商品**：%s\n💵 **价格**：¥%s\n\n", pay.ProductName, price)

	switch {
	case pay.WechatQRCodeURL != "":
		fmt.Fprintf(&b, "### 🟢 微信支付\n📱 请扫描以下二维码支付：\n\n```\n%s\n```\n\n", pay.WechatQRCodeURL)
		if base != "" {
			fmt.Fprintf(&b, "🖼️ 二维码图片：%s/api/payment/qrcode.png?channel=wechat\n\n", base)
		}
	case pay.WechatAccount != "":
		fmt.Fprintf(&b, `### 🟢 微信支付
📱 微信搜索或扫描添加：
**%[1]s**

💡 操作步骤：
1. 打开微信 → 点击「+」→「扫一扫」
2. 扫描或添加微信号：%[1]s
3. 转账 ¥%[2]s 元，备注「OPC创业指导」

`, pay.WechatAccount, price)
	}

	switch {
	case pay.AlipayQRCodeURL != "":
		fmt.Fprintf(&b, "### 🔵 支付宝支付\n📱 请扫描以下二维码支付：\n\n```\n%s\n```\n\n", pay.AlipayQRCodeURL)
		if base != "" {
			fmt.Fprintf(&b, "🖼️ 二维码图片：%s/api/payment/qrcode.png?channel=alipay\n\n", base)
		}
	case pay.AlipayAccount != "":
		fmt.Fprintf(&b, `### 🔵 支付宝支付
📱 支付宝账号：
**%[1]s**

💡 操作步骤：
1. 打开支付宝 → 点击「转账」
2. 输入账号：%[1]s
3. 转账 ¥%[2]s 元，备注「OPC创业指导」

`, pay.AlipayAccount, price)
	}

	b.WriteString(`⚠️ **温馨提示**：
- 支付时请务必备注「OPC创业指导」或「手机号/邮箱」
- 支付完成后，请将支付截图发给我
- 我将为您生成PDF文档并提供入群二维码

⏰ **处理时间**：10分钟内完成
📞 **客服支持**：如有问题请联系客服

感谢您的支持！💪`)
	return b.String()
}

// GroupInfo renders the community group invitation.
func GroupInfo(group config.GroupConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👥 **企业微信群**：%s\n\n", group.Name)
	if group.QRCodeURL != "" {
		fmt.Fprintf(&b, "📱 **入群二维码**：\n%s\n\n", group.QRCodeURL)
	} else {
		b.WriteString("📱 入群二维码暂未配置，请联系客服获取。\n\n")
	}
	if group.Notice != "" {
		fmt.Fprintf(&b, "📢 **群公告**：%s\n\n", group.Notice)
	}
	b.WriteString("💡 入群后请修改群昵称为「城市-项目方向」，方便交流。")
	return b.String()
}
