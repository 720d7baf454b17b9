package enrich

import (
	"regexp"
	"strings"
	"unicode"
)

// localSummaryMaxChars 本地摘要的最大字符数（按 rune 计）
const localSummaryMaxChars = 200

var sentenceEndRE = regexp.MustCompile(`[。！？!?.]`)

// LocalSummary 不依赖外部服务的确定性摘要：取正文第一句，
// 过长则截断加省略号。纯函数，相同输入永远得到相同输出。
func LocalSummary(text, title string) string {
	clean := strings.TrimSpace(text)
	title = strings.TrimSpace(title)

	if clean == "" {
		if title != "" {
			return "要点：" + title
		}
		return "暂无摘要。"
	}

	candidate := clean
	if loc := sentenceEndRE.FindStringIndex(clean); loc != nil {
		candidate = clean[:loc[1]]
	}
	if runes := []rune(candidate); len(runes) > localSummaryMaxChars {
		candidate = strings.TrimRightFunc(string(runes[:localSummaryMaxChars-1]), unicode.IsSpace) + "…"
	}

	if title != "" && candidate == clean {
		// 整段都没有句读时带上标题，避免摘要没头没尾
		return "要点：" + title + "——" + candidate
	}
	return "要点：" + candidate
}
