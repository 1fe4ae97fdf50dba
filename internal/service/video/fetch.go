package video

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// ImageFetcher 把场景图片落地为适配画幅的 png
type ImageFetcher interface {
	Fetch(ctx context.Context, src, outPath string) error
}

// HTTPFetcher 下载远程图片（或读取本地文件）并裁切到目标尺寸
type HTTPFetcher struct {
	client *http.Client
	width  int
	height int
}

// NewHTTPFetcher 创建图片下载器
func NewHTTPFetcher(width, height int) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{Timeout: 60 * time.Second},
		width:  width,
		height: height,
	}
}

// Fetch 实现 ImageFetcher，非 200 响应视为失败
func (f *HTTPFetcher) Fetch(ctx context.Context, src, outPath string) error {
	rc, err := f.open(ctx, src)
	if err != nil {
		return err
	}
	defer rc.Close()

	img, err := imaging.Decode(rc, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	img = imaging.Fill(img, f.width, f.height, imaging.Center, imaging.Lanczos)

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	if err := imaging.Save(img, outPath); err != nil {
		return fmt.Errorf("save image: %w", err)
	}
	return nil
}

func (f *HTTPFetcher) open(ctx context.Context, src string) (io.ReadCloser, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return os.Open(src)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("download image: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}
