package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/opc-agent/internal/qrcode"
)

// ShareTexts holds the promotional copy per channel.
type ShareTexts struct {
	WechatMoment string `json:"wechat_moment"`
	WechatFriend string `json:"wechat_friend"`
	Weibo        string `json:"weibo"`
	Default      string `json:"default"`
}

const shareTagline = `🚀 OPC 超级个体孵化助手

研究发现100个OPC成功案例，
10年产品经理打造，帮你定制专属创业方案！

立即体验：%s`

// BuildShareTexts renders the share copy for link.
func BuildShareTexts(link string) ShareTexts {
	base := fmt.Sprintf(shareTagline, link)
	return ShareTexts{
		WechatMoment: fmt.Sprintf(`我发现了一个超棒的OPC创业助手！
研究了100个成功案例，10年产品经理打造，
帮我定制了专属创业方案，3个月就能月入过万！

扫码体验 👇
%s`, link),
		WechatFriend: base + "\n\n#OPC创业 #超级个体 #副业增收",
		Weibo:        base + "\n\n#OPC创业 #超级个体 #副业增收 #创业干货",
		Default:      base,
	}
}

// shareLink returns the ?url= parameter when it is an absolute http(s) URL,
// else the configured share URL.
func (h *Handlers) shareLink(c *gin.Context) string {
	if raw := strings.TrimSpace(c.Query("url")); raw != "" {
		if u, err := url.Parse(raw); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
			return u.String()
		}
	}
	return h.opts.ShareURL
}

// ShareText godoc
// @ID          getShareText
// @Summary     Share copy
// @Description Returns ready-to-post promotional texts for WeChat Moments, WeChat chats and Weibo.
// @Tags        Share
// @Produce     json
// @Param       url  query  string  false  "Link to share (defaults to the public site)"
// @Success     200  {object}  handlers.ShareTexts
// @Router      /share/text [get]
func (h *Handlers) ShareText(c *gin.Context) {
	ok(c, http.StatusOK, BuildShareTexts(h.shareLink(c)))
}

// ShareQRCode godoc
// @ID          getShareQRCode
// @Summary     Share QR code
// @Tags        Share
// @Produce     png
// @Param       url  query  string  false  "Link to encode (defaults to the public site)"
// @Success     200  {file}    binary
// @Failure     404  {object}  handlers.ErrorResponse  "No share link configured"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /share/qrcode.png [get]
func (h *Handlers) ShareQRCode(c *gin.Context) {
	link := h.shareLink(c)
	if link == "" {
		fail(c, http.StatusNotFound, ErrCodeNotConfigured, "share link not configured")
		return
	}
	data, err := qrcode.PNG(link, qrcode.DefaultSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeQRCodeFailed, err.Error())
		return
	}
	png(c, data)
}
