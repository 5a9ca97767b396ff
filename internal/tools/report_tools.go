package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/tbourn/opc-agent/internal/report"
)

// ReportGenerator renders and stores a report, returning its URL.
type ReportGenerator interface {
	Generate(ctx context.Context, in report.Input) (string, error)
}

func registerReportTools(r *Registry, gen ReportGenerator) {
	r.Register(Spec{
		Name:        "generate_opc_pdf",
		Description: "根据用户信息和推荐项目生成OPC创业指导PDF，返回下载链接。",
		Parameters:  generatePDFSchema,
	}, typed(func(ctx context.Context, req GeneratePDFRequest) (string, error) {
		url, err := gen.Generate(ctx, report.Input{
			UserInfo: string(req.UserInfo),
			Projects: string(req.Projects),
			City:     req.City,
		})
		if errors.Is(err, report.ErrEmptyInput) {
			return badArgs(errors.New("user_info 和 projects 不能同时为空")), nil
		}
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(`✅ PDF文档已生成！

📄 下载链接：
%s

💡 提示：
- 点击链接即可下载PDF文档
- 链接长期有效，请妥善保存
- 如无法打开，请复制链接到浏览器访问`, url), nil
	}))
}
