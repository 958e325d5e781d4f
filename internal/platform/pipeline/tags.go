package pipeline

import (
	"strings"

	"github.com/samber/lo"
)

// CleanTags 去掉空白和 # 前缀，丢弃空标签，保持顺序取前 max 个
func CleanTags(tags []string, max int) []string {
	cleaned := lo.FilterMap(tags, func(t string, _ int) (string, bool) {
		t = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(t), "#"))
		return t, t != ""
	})
	if max > 0 && len(cleaned) > max {
		cleaned = cleaned[:max]
	}
	return cleaned
}

// Hashtags 生成 "#a #b" 形式的标签文本
func Hashtags(tags []string) string {
	return strings.Join(lo.Map(tags, func(t string, _ int) string { return "#" + t }), " ")
}

// MergeTags 将新标签并入已有列表，去重后截断到 max
func MergeTags(existing []string, add []string, max int) []string {
	merged := lo.Uniq(append(append([]string{}, existing...), add...))
	if max > 0 && len(merged) > max {
		merged = merged[:max]
	}
	return merged
}

// toStrings 将框架数据中的列表转为字符串切片
func toStrings(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		return lo.FilterMap(list, func(item any, _ int) (string, bool) {
			s, ok := item.(string)
			return s, ok && s != ""
		})
	default:
		return nil
	}
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
