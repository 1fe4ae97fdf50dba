package captions

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	highlightColour = `{\c&H0000FFFF&}` // 黄色
	normalColour    = `{\c&H00FFFFFF&}`
)

// ASSGenerator ASS字幕生成器
// 每次只显示一行，当前朗读的词高亮
type ASSGenerator struct {
	Font            string
	FontSize        int
	Width           int
	Height          int
	MaxWordsPerLine int
}

// NewASSGenerator 创建ASS字幕生成器实例
func NewASSGenerator(font string, fontSize, width, height, maxWordsPerLine int) *ASSGenerator {
	if font == "" {
		font = "Arial"
	}
	if fontSize <= 0 {
		fontSize = 64
	}
	if width <= 0 {
		width = 720
	}
	if height <= 0 {
		height = 1280
	}
	if maxWordsPerLine <= 0 {
		maxWordsPerLine = 4
	}
	return &ASSGenerator{
		Font:            font,
		FontSize:        fontSize,
		Width:           width,
		Height:          height,
		MaxWordsPerLine: maxWordsPerLine,
	}
}

// Generate 生成ASS格式内容
func (g *ASSGenerator) Generate(words []Word, title string) string {
	if title == "" {
		title = "Generated Subtitle"
	}

	var b strings.Builder
	fmt.Fprintf(&b, `[Script Info]
Title: %s
ScriptType: v4.00+
WrapStyle: 0
ScaledBorderAndShadow: yes
PlayResX: %d
PlayResY: %d

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Default,%s,%d,&H00FFFFFF,&H000000FF,&H00000000,&H80000000,1,0,0,0,100,100,0,0,1,3,2,5,20,20,0,1

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
`, escapeText(title), g.Width, g.Height, g.Font, g.FontSize)

	for _, line := range g.lines(words) {
		for i, w := range line {
			end := w.End
			if i+1 < len(line) && line[i+1].Start > w.Start {
				end = line[i+1].Start
			}
			if end <= w.Start {
				end = w.Start + 0.05
			}
			fmt.Fprintf(&b, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
				formatTimeForASS(w.Start), formatTimeForASS(end), renderLine(line, i))
		}
	}
	return b.String()
}

// lines 按最大词数分行
func (g *ASSGenerator) lines(words []Word) [][]Word {
	var out [][]Word
	for start := 0; start < len(words); start += g.MaxWordsPerLine {
		end := start + g.MaxWordsPerLine
		if end > len(words) {
			end = len(words)
		}
		out = append(out, words[start:end])
	}
	return out
}

func renderLine(line []Word, current int) string {
	var b strings.Builder
	for i, w := range line {
		if i > 0 && needsSpace(line[i-1].Text, w.Text) {
			b.WriteByte(' ')
		}
		text := escapeText(w.Text)
		if i == current {
			b.WriteString(highlightColour + text + normalColour)
		} else {
			b.WriteString(text)
		}
	}
	return b.String()
}

func needsSpace(prev, next string) bool {
	a, _ := utf8.DecodeLastRuneInString(prev)
	z, _ := utf8.DecodeRuneInString(next)
	return !(isCJK(a) || isCJK(z))
}

// escapeText 转义ASS控制字符
func escapeText(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "{", "(")
	return strings.ReplaceAll(s, "}", ")")
}

// formatTimeForASS 将秒数转换为ASS时间格式 (H:MM:SS.CC)
func formatTimeForASS(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	cs := int(seconds*100 + 0.5)
	h := cs / 360000
	m := (cs % 360000) / 6000
	s := (cs % 6000) / 100
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs%100)
}
