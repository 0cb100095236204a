// Package classifier is the deterministic keyword classifier used whenever
// the AI path is unavailable or returns something unusable.
package classifier

import (
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/sabo/internal/client/models"
)

const (
	// MaxSummaryLen is the longest summary, in runes, Classify returns.
	MaxSummaryLen = 50
	ellipsis      = "..."
	ideaMarker    = " のアイデア"
	emptySummary  = "(empty)"
)

type group struct {
	category models.Category
	keywords []string
}

// Groups are tested in order; the first group with a matching keyword wins.
var categoryGroups = []group{
	{models.CategoryWork, []string{
		"したい", "やりたい", "やらなきゃ", "しないと", "しなきゃ", "やる", "つくる", "作る",
		"仕事", "作業", "ブログ", "せどり", "経理", "編集", "開発", "締め切り", "締切",
	}},
	{models.CategoryIdea, []string{
		"ひらめいた", "閃いた", "アイデア", "思いついた", "考えた", "いいかも", "構想",
	}},
	{models.CategoryLife, []string{
		"買い物", "掃除", "ご飯", "風呂", "洗濯", "料理", "家事", "体調", "病院", "連絡",
	}},
	{models.CategoryEmotion, []string{
		"疲れた", "しんどい", "嬉しい", "だるい", "ムカつく", "悲しい", "楽しい", "落ち込", "パンク",
	}},
	{models.CategoryMind, []string{
		"気づき", "気付き", "学び", "振り返り", "書きたい", "内省",
	}},
	{models.CategorySystem, []string{
		"os", "仕様", "設計", "要件定義", "プロンプト", "システム", "影分身",
	}},
}

var (
	todayKeywords    = []string{"今日", "いま", "すぐ", "急", "明日まで"}
	thisWeekKeywords = []string{"今週", "週末", "来週"}
)

// Suffixes stripped from work and idea summaries. Longer forms come first so
// "やりたい" is not reduced to "や".
var trailingSuffixes = []string{"やらなきゃ", "やりたい", "しないと", "しなきゃ", "したい"}

// Result is the rule classification of one piece of text.
type Result struct {
	Category models.Category
	Scope    models.Scope
	Summary  string
}

// Classify never fails: text matching nothing is other/someday, and the
// summary is never empty.
func Classify(text string) Result {
	category := Category(text)
	return Result{
		Category: category,
		Scope:    Scope(text),
		Summary:  Summary(text, category),
	}
}

func Category(text string) models.Category {
	lower := strings.ToLower(text)
	for _, g := range categoryGroups {
		if containsAny(lower, g.keywords) {
			return g.category
		}
	}
	return models.CategoryOther
}

func Scope(text string) models.Scope {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, todayKeywords):
		return models.ScopeToday
	case containsAny(lower, thisWeekKeywords):
		return models.ScopeThisWeek
	default:
		return models.ScopeSomeday
	}
}

// Summary derives the display label: trim, strip one trailing suffix for
// work and idea, mark ideas, then cap at MaxSummaryLen runes. An idea
// keeps its marker; only the text before it is shortened.
func Summary(text string, category models.Category) string {
	trimmed := strings.TrimSpace(text)
	s := trimmed

	if category == models.CategoryWork || category == models.CategoryIdea {
		for _, suffix := range trailingSuffixes {
			if strings.HasSuffix(s, suffix) {
				s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
				break
			}
		}
	}
	if s == "" {
		s = trimmed
	}
	if category == models.CategoryIdea && s != "" && !strings.Contains(s, "アイデア") {
		// the marker always survives; the text gives way
		s = truncateTo(s, MaxSummaryLen-utf8.RuneCountInString(ideaMarker)) + ideaMarker
	}

	s = truncate(s)
	switch {
	case s != "":
		return s
	case text != "":
		return truncate(text)
	default:
		return emptySummary
	}
}

func truncate(s string) string {
	return truncateTo(s, MaxSummaryLen)
}

// truncateTo caps s at limit runes, ending in an ellipsis when cut.
func truncateTo(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-utf8.RuneCountInString(ellipsis)]) + ellipsis
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
