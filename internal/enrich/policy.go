package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cwj/useful_push/internal/collector"
)

// summaryUnavailable 摘要生成失败时的占位文案
const summaryUnavailable = "无法生成摘要，已保留原文。"

// Enricher 决定每条新闻走外部翻译还是本地兜底，并归一化结果
type Enricher struct {
	client         Completer
	force          bool
	maxPromptChars int
}

func NewEnricher(client Completer, force bool, maxPromptChars int) *Enricher {
	return &Enricher{
		client:         client,
		force:          force,
		maxPromptChars: maxPromptChars,
	}
}

// EnrichEntries 逐条填充 Translation/Summary/KeptOriginal。
// 条目在返回值里恰好被写入一次，之后交给渲染层不再修改。
func (e *Enricher) EnrichEntries(ctx context.Context, entries []collector.NewsEntry, topicLabel string) []collector.NewsEntry {
	enriched := make([]collector.NewsEntry, 0, len(entries))
	for _, entry := range entries {
		if e.shouldTranslate(entry) {
			enriched = append(enriched, e.translateAndSummarize(ctx, entry, topicLabel))
			continue
		}
		fallback := entry.Description
		if fallback == "" {
			fallback = entry.Title
		}
		entry.Translation = fallback
		entry.Summary = LocalSummary(fallback, entry.Title)
		entry.KeptOriginal = true
		enriched = append(enriched, entry)
	}
	return enriched
}

// shouldTranslate 含中文的内容视作已经是目标语言，跳过外部调用；
// 空内容保险起见也交给外部模型
func (e *Enricher) shouldTranslate(entry collector.NewsEntry) bool {
	if e.force {
		return true
	}
	text := strings.TrimSpace(entry.Title + " " + entry.Description)
	if text == "" {
		return true
	}
	return !ContainsCJK(text)
}

// ContainsCJK 判断文本是否含有 CJK 统一表意文字（U+4E00..U+9FFF）
func ContainsCJK(s string) bool {
	for _, r := range s {
		if r >= 0x4e00 && r <= 0x9fff {
			return true
		}
	}
	return false
}

func (e *Enricher) translateAndSummarize(ctx context.Context, entry collector.NewsEntry, topicLabel string) collector.NewsEntry {
	response, err := e.client.Complete(ctx, []Message{
		{Role: "user", Content: e.buildPrompt(entry, topicLabel)},
	}, 0.2)

	var translation, summary string
	if err == nil {
		if result := extractJSON(response); result != nil {
			translation = collector.TrimWhitespace(result.Translation)
			summary = collector.TrimWhitespace(result.Summary)
		}
	}

	usedTranslation := true
	if translation != "" {
		translation = collector.StripHTML(translation)
	}
	if translation == "" {
		translation = entry.Description
		if translation == "" {
			translation = entry.Title
		}
		usedTranslation = false
	}
	if summary == "" {
		summary = summaryUnavailable
	}

	entry.Translation = translation
	entry.Summary = summary
	entry.KeptOriginal = !usedTranslation
	return entry
}

// buildPrompt 组装翻译+摘要提示词；正文超过 maxPromptChars 个字符时截断，
// 这是客户端依赖的输入规模上限
func (e *Enricher) buildPrompt(entry collector.NewsEntry, topicLabel string) string {
	body := entry.Description
	if body == "" {
		body = "（无摘要）"
	}
	if e.maxPromptChars > 0 {
		if runes := []rune(body); len(runes) > e.maxPromptChars {
			body = string(runes[:e.maxPromptChars]) + "……"
		}
	}
	return fmt.Sprintf(`你是资讯助理。请阅读以下关于%s的新闻，将原文翻译成自然中文（如果已经是中文，请保持原文），
并用两句话以内给出中文摘要。返回 JSON，格式为：
{
  "translation": "<中文译文或原文>",
  "summary": "<中文摘要>",
  "language": "<检测到的原文语言，例如 zh / en>"
}
仅输出 JSON，不要带其它文字。
新闻原文：
标题：%s
内容：%s`, topicLabel, entry.Title, body)
}

type llmResult struct {
	Translation string `json:"translation"`
	Summary     string `json:"summary"`
	Language    string `json:"language"`
}

// extractJSON 从模型输出里提取 JSON 对象：先整体解析，
// 失败再取第一个 { 到最后一个 } 之间的子串，都不行返回 nil
func extractJSON(text string) *llmResult {
	if text == "" {
		return nil
	}
	var result llmResult
	if err := json.Unmarshal([]byte(text), &result); err == nil {
		return &result
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &result); err != nil {
		return nil
	}
	return &result
}
