package agent

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
)

//go:embed prompt/system.md
var defaultSystemPrompt string

// DefaultWelcome is the greeting shown before the first message.
const DefaultWelcome = `你好！我是OPC超级个体孵化助手。我们深度研究了100个超级个体成功案例，并针对全国主要城市的市场环境进行了充分调研。基于这些数据和经验，我可以为你推荐最适合的创业方向，并提供资源对接孵化群的持续支持。

为了给你精准匹配创业项目，请告诉我以下信息：

1. 你的常住地址或计划创业的城市是哪里？
2. 你拥有哪些专业技能？比如编程、设计、写作、营销、摄影等？
3. 能简单介绍一下你的工作经验吗？包括所在行业、职位和工作年限？
4. 你的个人兴趣和爱好是什么？比如是否喜欢内容创作、手工制作、社交活动等？

💡 你也可以直接告诉我你想了解的内容，比如：
- "我想做XX类型的创业"
- "帮我推荐适合我的创业项目"
- "我想了解AI工具推荐"

期待你的回复！`

// LoadSystemPrompt reads the prompt at path, or returns the built-in prompt
// when path is empty.
func LoadSystemPrompt(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return defaultSystemPrompt, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read system prompt: %w", err)
	}
	p := strings.TrimSpace(string(b))
	if p == "" {
		return "", fmt.Errorf("system prompt %s is empty", path)
	}
	return p, nil
}

// Welcome returns override when set, else DefaultWelcome.
func Welcome(override string) string {
	if strings.TrimSpace(override) != "" {
		return override
	}
	return DefaultWelcome
}
