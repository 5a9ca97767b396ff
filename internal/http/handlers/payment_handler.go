package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/opc-agent/internal/qrcode"
	"github.com/tbourn/opc-agent/internal/sysutil"
)

// PaymentInfo is the public payment configuration.
type PaymentInfo struct {
	ProductName     string `json:"product_name"      example:"OPC创业指导PDF"`
	Price           string `json:"price"             example:"68.00"`
	WechatAccount   string `json:"wechat_account"`
	AlipayAccount   string `json:"alipay_account"`
	WechatQRCodeURL string `json:"wechat_qrcode_url"`
	AlipayQRCodeURL string `json:"alipay_qrcode_url"`
}

// PaymentInfo godoc
// @ID          getPaymentInfo
// @Summary     Payment details
// @Tags        Payment
// @Produce     json
// @Success     200  {object}  handlers.PaymentInfo
// @Router      /payment/info [get]
func (h *Handlers) PaymentInfo(c *gin.Context) {
	p := h.opts.Payment
	ok(c, http.StatusOK, PaymentInfo{
		ProductName:     p.ProductName,
		Price:           p.Price.StringFixed(2),
		WechatAccount:   p.WechatAccount,
		AlipayAccount:   p.AlipayAccount,
		WechatQRCodeURL: p.WechatQRCodeURL,
		AlipayQRCodeURL: p.AlipayQRCodeURL,
	})
}

// PaymentQRCode godoc
// @ID          getPaymentQRCode
// @Summary     Payment QR code
// @Description Encodes the configured collection QR URL of the channel, falling back to its account.
// @Tags        Payment
// @Produce     png
// @Param       channel  query  string  false  "wechat or alipay"  Enums(wechat, alipay)  default(wechat)
// @Success     200  {file}    binary
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown channel"
// @Failure     404  {object}  handlers.ErrorResponse  "Channel not configured"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /payment/qrcode.png [get]
func (h *Handlers) PaymentQRCode(c *gin.Context) {
	p := h.opts.Payment
	var content string
	switch strings.ToLower(strings.TrimSpace(c.DefaultQuery("channel", "wechat"))) {
	case "wechat":
		content = sysutil.FirstNonEmpty(p.WechatQRCodeURL, p.WechatAccount)
	case "alipay":
		content = sysutil.FirstNonEmpty(p.AlipayQRCodeURL, p.AlipayAccount)
	default:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "channel must be wechat or alipay")
		return
	}
	if strings.TrimSpace(content) == "" {
		fail(c, http.StatusNotFound, ErrCodeNotConfigured, "payment channel not configured")
		return
	}
	data, err := qrcode.PNG(content, qrcode.DefaultSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeQRCodeFailed, err.Error())
		return
	}
	png(c, data)
}
