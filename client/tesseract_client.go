package client

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"
)

// DefaultLanguages cover the four national payslip languages.
var DefaultLanguages = []string{"deu", "fra", "ita", "eng"}

type TesseractClient struct {
	dataPath  string
	languages []string
	logger    *zap.Logger
}

func NewTesseractClient(dataPath string, languages []string, logger *zap.Logger) *TesseractClient {
	if len(languages) == 0 {
		languages = DefaultLanguages
	}
	return &TesseractClient{
		dataPath:  dataPath,
		languages: languages,
		logger:    logger,
	}
}

func (tc *TesseractClient) newClient() (*gosseract.Client, error) {
	client := gosseract.NewClient()
	if tc.dataPath != "" {
		if err := client.SetTessdataPrefix(tc.dataPath); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}
	if err := client.SetLanguage(tc.languages...); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	// payslips are tables; keep the row layout
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation: %w", err)
	}
	return client, nil
}

// ExtractTextFromImage runs OCR on a rendered page and returns the text and
// the mean word confidence (0-100).
func (tc *TesseractClient) ExtractTextFromImage(img image.Image) (string, float64, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", 0, fmt.Errorf("failed to encode image: %w", err)
	}

	client, err := tc.newClient()
	if err != nil {
		return "", 0, err
	}
	defer client.Close()

	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", 0, fmt.Errorf("failed to set image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", 0, fmt.Errorf("failed to extract text: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		tc.logger.Debug("bounding boxes unavailable", zap.Error(err))
		return text, 0, nil
	}
	var total float64
	for _, box := range boxes {
		total += box.Confidence
	}
	confidence := 0.0
	if len(boxes) > 0 {
		confidence = total / float64(len(boxes))
	}
	return text, confidence, nil
}

// Close performs cleanup
func (tc *TesseractClient) Close() {
	tc.logger.Debug("tesseract client closed")
}
