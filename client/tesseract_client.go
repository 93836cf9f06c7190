package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"

	"github.com/Aashish23092/income-underwriting/config"
)

// TesseractClient OCRs page images of scanned statements and slips.
type TesseractClient struct {
	dataPath string
	language string
	logger   *zap.Logger
}

func NewTesseractClient(cfg config.OCRConfig, logger *zap.Logger) *TesseractClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	language := cfg.Language
	if language == "" {
		language = "eng"
	}
	return &TesseractClient{
		dataPath: cfg.TesseractDataPath,
		language: language,
		logger:   logger,
	}
}

// ExtractImageText returns the text tesseract reads from one encoded image.
// gosseract is not cancellable, so ctx is only checked before starting.
func (tc *TesseractClient) ExtractImageText(ctx context.Context, img []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	text, conf, err := tc.extractTextAndQuality(img)
	if err != nil {
		return "", fmt.Errorf("OCR extraction failed: %w", err)
	}

	tc.logger.Debug("OCR page processed",
		zap.Int("chars", len(text)),
		zap.Float64("mean_word_confidence", conf))
	return text, nil
}

func (tc *TesseractClient) extractTextAndQuality(img []byte) (string, float64, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if tc.dataPath != "" {
		client.SetTessdataPrefix(tc.dataPath)
	}
	if err := client.SetLanguage(tc.language); err != nil {
		return "", 0, fmt.Errorf("failed to set language: %w", err)
	}
	// Statements are laid out in columns; treat each page as one uniform block
	// so rows stay on one line.
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return "", 0, fmt.Errorf("failed to set page segmentation: %w", err)
	}

	if err := client.SetImageFromBytes(img); err != nil {
		return "", 0, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", 0, fmt.Errorf("failed to extract text: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return strings.TrimSpace(text), 0, nil
	}

	var total float64
	for _, box := range boxes {
		total += box.Confidence
	}
	return strings.TrimSpace(text), total / float64(len(boxes)), nil
}
