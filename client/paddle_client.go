package client

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// DefaultPaddleURL is the PaddleHub serving endpoint of the OCR system model.
const DefaultPaddleURL = "http://paddleocr:8866/predict/ocr_system"

// PaddleClient sends rendered pages to a PaddleOCR HTTP service. It is an
// alternative to Tesseract for hosts without the native library.
type PaddleClient struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

func NewPaddleClient(endpoint string, logger *zap.Logger) *PaddleClient {
	if endpoint == "" {
		endpoint = DefaultPaddleURL
	}
	return &PaddleClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
		logger:   logger,
	}
}

type paddleRequest struct {
	Images []string `json:"images"`
}

type paddleResponse struct {
	Status  string `json:"status"`
	Msg     string `json:"msg"`
	Results [][]struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	} `json:"results"`
}

// ExtractTextFromImage posts one page and returns its lines and the mean
// line confidence scaled to 0-100.
func (p *PaddleClient) ExtractTextFromImage(img image.Image) (string, float64, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", 0, fmt.Errorf("failed to encode image: %w", err)
	}

	payload, err := json.Marshal(paddleRequest{Images: []string{base64.StdEncoding.EncodeToString(buf.Bytes())}})
	if err != nil {
		return "", 0, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("failed to call PaddleOCR API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", 0, fmt.Errorf("PaddleOCR API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result paddleResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", 0, fmt.Errorf("failed to decode PaddleOCR response: %w", err)
	}

	var (
		text  strings.Builder
		total float64
		lines int
	)
	if len(result.Results) > 0 {
		for _, line := range result.Results[0] {
			text.WriteString(line.Text)
			text.WriteString("\n")
			total += line.Confidence
			lines++
		}
	}
	if lines == 0 {
		return "", 0, fmt.Errorf("PaddleOCR extracted no text from image")
	}

	confidence := total / float64(lines) * 100
	p.logger.Debug("paddle OCR finished", zap.Int("lines", lines), zap.Float64("confidence", confidence))
	return text.String(), confidence, nil
}

// Close is a no-op; the client holds no native resources.
func (p *PaddleClient) Close() {}
