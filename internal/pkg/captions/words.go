// Package captions 词级字幕：时间对齐与 ASS 生成
package captions

import (
	"strings"
	"sync"
	"unicode"

	"github.com/go-ego/gse"
	"github.com/rs/zerolog/log"
)

// Word 词及其时间（秒）
type Word struct {
	Text  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Offset 将时间整体平移，用于把片段内时间换算到成片时间轴
func Offset(words []Word, by float64) []Word {
	out := make([]Word, len(words))
	for i, w := range words {
		out[i] = Word{Text: w.Text, Start: w.Start + by, End: w.End + by}
	}
	return out
}

// Segmenter 分词器，中日韩文本使用 gse，其余按空白切分
type Segmenter struct {
	once sync.Once
	seg  *gse.Segmenter
}

// NewSegmenter 创建分词器，gse 词典延迟加载
func NewSegmenter() *Segmenter {
	return &Segmenter{}
}

// Tokenize 切分为字幕词
func (s *Segmenter) Tokenize(text string) []string {
	if !hasCJK(text) {
		return strings.Fields(text)
	}

	s.once.Do(func() {
		var seg gse.Segmenter
		if err := seg.LoadDict(); err != nil {
			log.Warn().Err(err).Msg("gse init failed, falling back to rune split")
			return
		}
		s.seg = &seg
	})

	var tokens []string
	if s.seg != nil {
		tokens = s.seg.Cut(text, true)
	} else {
		for _, r := range text {
			tokens = append(tokens, string(r))
		}
	}

	words := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if isPunct(t) && len(words) > 0 {
			// 标点并入前一个词
			words[len(words)-1] += t
			continue
		}
		words = append(words, t)
	}
	return words
}

func hasCJK(text string) bool {
	for _, r := range text {
		if isCJK(r) {
			return true
		}
	}
	return false
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) || unicode.Is(unicode.Hangul, r)
}

func isPunct(s string) bool {
	for _, r := range s {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			return false
		}
	}
	return true
}
