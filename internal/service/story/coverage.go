package story

import (
	"strings"
	"unicode"

	"storyreel/internal/model/task"
)

// Coverage 字幕对正文的覆盖情况
type Coverage struct {
	Exact      bool    // 正文逐词按顺序出现且没有重复
	Ratio      float64 // 按顺序匹配上的正文词占比
	Missing    int     // 未出现在字幕中的正文词数
	Duplicated int     // 字幕中超出正文出现次数的正文词数，提问场景不计
}

var quoteReplacer = strings.NewReplacer(
	"‘", "'", "’", "'", "“", `"`, "”", `"`,
	"—", " ", "–", " ", "…", "...",
)

// coverageWords 规整引号与空白后按词切分，比较时忽略大小写与词两端标点
func coverageWords(s string) []string {
	fields := strings.Fields(quoteReplacer.Replace(s))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.ToLower(strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		}))
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

// CheckCoverage 计算字幕拼接后对正文的有序覆盖率与重复
//
// 开场场景的提问不来自正文，不在正文中的字幕词不影响结果。
func CheckCoverage(storyText string, sb *task.Storyboard) Coverage {
	story := coverageWords(storyText)
	if len(story) == 0 {
		return Coverage{Exact: true, Ratio: 1}
	}

	var subs []string
	remaining := make(map[string]int, len(story))
	for _, w := range story {
		remaining[w]++
	}
	duplicated := 0
	if sb != nil {
		for _, s := range sb.Scenes {
			words := coverageWords(s.Subtitles)
			subs = append(subs, words...)
			if isQuestion(s.Subtitles) {
				continue
			}
			for _, w := range words {
				n, ok := remaining[w]
				switch {
				case !ok:
				case n > 0:
					remaining[w] = n - 1
				default:
					duplicated++
				}
			}
		}
	}

	matched := lcsLength(story, subs)
	return Coverage{
		Exact:      matched == len(story) && duplicated == 0,
		Ratio:      float64(matched) / float64(len(story)),
		Missing:    len(story) - matched,
		Duplicated: duplicated,
	}
}

func isQuestion(subtitles string) bool {
	return strings.HasSuffix(strings.TrimSpace(quoteReplacer.Replace(subtitles)), "?")
}

// lcsLength 最长公共子序列长度，滚动数组
func lcsLength(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
