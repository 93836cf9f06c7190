package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Aashish23092/income-underwriting/config"
)

// PaddleClient sends page images to a PaddleOCR serving endpoint.
type PaddleClient struct {
	apiURL     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewPaddleClient creates a client for the endpoint in cfg.PaddleURL
func NewPaddleClient(cfg config.OCRConfig, logger *zap.Logger) *PaddleClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaddleClient{
		apiURL:     cfg.PaddleURL,
		httpClient: &http.Client{Timeout: cfg.PaddleTimeout},
		logger:     logger,
	}
}

type paddleRequest struct {
	Images []string `json:"images"`
}

type paddleResponse struct {
	Results [][]struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	} `json:"results"`
}

// ExtractImageText posts one encoded image and returns the recognised lines in
// the order the engine reports them.
func (p *PaddleClient) ExtractImageText(ctx context.Context, img []byte) (string, error) {
	payload, err := json.Marshal(paddleRequest{
		Images: []string{base64.StdEncoding.EncodeToString(img)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build PaddleOCR request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call PaddleOCR API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("PaddleOCR API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result paddleResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode PaddleOCR response: %w", err)
	}

	var sb strings.Builder
	var total float64
	lines := 0
	if len(result.Results) > 0 {
		for _, line := range result.Results[0] {
			sb.WriteString(line.Text)
			sb.WriteByte('\n')
			total += line.Confidence
			lines++
		}
	}

	text := strings.TrimSpace(sb.String())
	if lines > 0 {
		p.logger.Debug("PaddleOCR page processed",
			zap.Int("lines", lines),
			zap.Float64("mean_confidence", total/float64(lines)))
	}
	return text, nil
}
