package captions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrNoWords 无法得到词级时间
var ErrNoWords = errors.New("no word timings")

// Aligner 为一段旁白音频计算词级时间
type Aligner interface {
	Align(ctx context.Context, audioPath, text string, duration float64) ([]Word, error)
}

// ProportionalAligner 按词长比例把音频时长分配给每个词
type ProportionalAligner struct {
	seg *Segmenter
}

// NewProportionalAligner 创建比例对齐器
func NewProportionalAligner(seg *Segmenter) *ProportionalAligner {
	if seg == nil {
		seg = NewSegmenter()
	}
	return &ProportionalAligner{seg: seg}
}

// Align 实现 Aligner
func (a *ProportionalAligner) Align(_ context.Context, _ string, text string, duration float64) ([]Word, error) {
	tokens := a.seg.Tokenize(text)
	if len(tokens) == 0 || duration <= 0 {
		return nil, ErrNoWords
	}

	total := 0
	for _, t := range tokens {
		total += utf8.RuneCountInString(t)
	}

	words := make([]Word, 0, len(tokens))
	cursor := 0.0
	for i, t := range tokens {
		span := duration * float64(utf8.RuneCountInString(t)) / float64(total)
		end := cursor + span
		if i == len(tokens)-1 {
			end = duration
		}
		words = append(words, Word{Text: t, Start: cursor, End: end})
		cursor = end
	}
	return words, nil
}

// WhisperAligner 调用 OpenAI 兼容 /audio/transcriptions 接口获取词级时间
type WhisperAligner struct {
	url        string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewWhisperAligner 创建 Whisper 对齐器
func NewWhisperAligner(url, apiKey, model string) *WhisperAligner {
	if model == "" {
		model = "whisper-1"
	}
	return &WhisperAligner{
		url:        url,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

type whisperResponse struct {
	Words []Word `json:"words"`
}

// Align 实现 Aligner，text 与 duration 不参与识别
func (a *WhisperAligner) Align(ctx context.Context, audioPath, _ string, _ float64) ([]Word, error) {
	body, contentType, err := a.multipartBody(audioPath)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whisper request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("whisper returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out whisperResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode whisper response: %w", err)
	}

	words := out.Words[:0]
	for _, w := range out.Words {
		w.Text = strings.TrimSpace(w.Text)
		if w.Text != "" {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return nil, ErrNoWords
	}
	return words, nil
}

func (a *WhisperAligner) multipartBody(audioPath string) (io.Reader, string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", err
	}
	_ = w.WriteField("model", a.model)
	_ = w.WriteField("response_format", "verbose_json")
	_ = w.WriteField("timestamp_granularities[]", "word")
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// Chain 依次尝试多个对齐器，返回第一个成功的结果
type Chain []Aligner

// Align 实现 Aligner
func (c Chain) Align(ctx context.Context, audioPath, text string, duration float64) ([]Word, error) {
	var lastErr error = ErrNoWords
	for _, a := range c {
		if a == nil {
			continue
		}
		words, err := a.Align(ctx, audioPath, text, duration)
		if err == nil && len(words) > 0 {
			return words, nil
		}
		if err != nil {
			lastErr = err
		}
	}
	return nil, lastErr
}
