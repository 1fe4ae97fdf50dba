package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"storyreel/internal/pkg/id"
)

const (
	defaultVolcanoURL     = "https://openspeech.bytedance.com/api/v1/tts"
	defaultVolcanoCluster = "volcano_tts"
	volcanoSuccessCode    = 3000
)

// VolcanoConfig 火山引擎 TTS 配置
type VolcanoConfig struct {
	APIURL      string
	AccessToken string
	AppID       string
	Cluster     string
	SampleRate  int
	Speed       float64
}

// VolcanoClient 火山引擎 TTS，返回 mp3 与词级时间戳
type VolcanoClient struct {
	apiURL      string
	accessToken string
	appID       string
	cluster     string
	sampleRate  int
	speed       float64
	httpClient  *http.Client
}

// NewVolcanoClient 创建火山引擎 TTS 客户端
func NewVolcanoClient(cfg VolcanoConfig) (*VolcanoClient, error) {
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("TTS access token is required")
	}
	c := &VolcanoClient{
		apiURL:      cfg.APIURL,
		accessToken: cfg.AccessToken,
		appID:       cfg.AppID,
		cluster:     cfg.Cluster,
		sampleRate:  cfg.SampleRate,
		speed:       cfg.Speed,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
	}
	if c.apiURL == "" {
		c.apiURL = defaultVolcanoURL
	}
	if c.cluster == "" {
		c.cluster = defaultVolcanoCluster
	}
	if c.sampleRate == 0 {
		c.sampleRate = 44100
	}
	if c.speed <= 0 {
		c.speed = 1.0
	}
	return c, nil
}

func (c *VolcanoClient) Name() string { return "volcano" }

type volcanoResponse struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Data     string `json:"data"`
	Addition struct {
		Duration json.RawMessage `json:"duration"` // 毫秒，字符串或数字
		Frontend json.RawMessage `json:"frontend"` // JSON 字符串或对象
	} `json:"addition"`
}

type volcanoFrontend struct {
	Words []struct {
		Word      string  `json:"word"`
		StartTime float64 `json:"start_time"`
		EndTime   float64 `json:"end_time"`
	} `json:"words"`
}

// Synthesize 合成语音，voice 为音色ID
func (c *VolcanoClient) Synthesize(ctx context.Context, text, voice string) (*Speech, error) {
	requestID := id.New()
	reqBody, err := json.Marshal(c.buildRequest(text, voice, requestID))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer; "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	log.Debug().Str("request_id", requestID).Int("text_len", len(text)).Msg("sending TTS request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts request failed: status %d, body: %s", resp.StatusCode, truncate(respBody, 256))
	}

	var apiResp volcanoResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if err := json.Unmarshal([]byte(fixJSON(string(respBody))), &apiResp); err != nil {
			return nil, fmt.Errorf("failed to parse JSON response: %w", err)
		}
	}
	if apiResp.Code != volcanoSuccessCode {
		msg := apiResp.Message
		if msg == "" {
			msg = "unknown error"
		}
		return nil, fmt.Errorf("tts response error: %s (code: %d)", msg, apiResp.Code)
	}

	audio, err := base64.StdEncoding.DecodeString(apiResp.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio data: %w", err)
	}
	if len(audio) == 0 {
		return nil, ErrEmptyAudio
	}

	return &Speech{
		Audio:    audio,
		Format:   "mp3",
		Duration: parseMillis(apiResp.Addition.Duration),
		Words:    parseFrontend(apiResp.Addition.Frontend),
	}, nil
}

func (c *VolcanoClient) buildRequest(text, voice, requestID string) map[string]interface{} {
	app := map[string]interface{}{
		"token":   c.accessToken,
		"cluster": c.cluster,
	}
	if c.appID != "" {
		app["appid"] = c.appID
	}
	return map[string]interface{}{
		"app":  app,
		"user": map[string]interface{}{"uid": requestID},
		"audio": map[string]interface{}{
			"voice_type":   voice,
			"encoding":     "mp3",
			"rate":         c.sampleRate,
			"speed_ratio":  c.speed,
			"volume_ratio": 1.0,
			"pitch_ratio":  1.0,
		},
		"request": map[string]interface{}{
			"reqid":         requestID,
			"text":          text,
			"text_type":     "plain",
			"operation":     "query",
			"with_frontend": "1",
			"frontend_type": "unitTson",
		},
	}
}

func parseMillis(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	s := strings.Trim(string(raw), `"`)
	ms, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return ms / 1000.0
}

func parseFrontend(raw json.RawMessage) []Word {
	if len(raw) == 0 {
		return nil
	}
	// frontend 可能是被转义过的 JSON 字符串
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		raw = json.RawMessage(encoded)
	}
	var fe volcanoFrontend
	if err := json.Unmarshal(raw, &fe); err != nil {
		log.Warn().Err(err).Msg("failed to parse frontend data")
		return nil
	}
	words := make([]Word, 0, len(fe.Words))
	for _, w := range fe.Words {
		if strings.TrimSpace(w.Word) == "" {
			continue
		}
		words = append(words, Word{Text: w.Word, Start: w.StartTime, End: w.EndTime})
	}
	return words
}

// fixJSON 修复响应中相邻对象缺少逗号的问题
func fixJSON(s string) string {
	s = strings.ReplaceAll(s, "}{\"phone", "},{\"phone")
	s = strings.ReplaceAll(s, "}{\"word", "},{\"word")
	return strings.ReplaceAll(s, "}{", "},{")
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
