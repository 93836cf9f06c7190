package service

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFProcessor is the document engine behind the decryptor. Implementations
// must be safe for concurrent use.
type PDFProcessor interface {
	// IsEncrypted reports whether the document needs a user password to open.
	IsEncrypted(pdfData []byte) (bool, error)
	// Decrypt returns an unencrypted copy of the document, or an error when
	// password does not open it.
	Decrypt(pdfData []byte, password string) ([]byte, error)
	// ExtractText returns the text layer, one line per visual row.
	ExtractText(pdfData []byte) (string, error)
	// ExtractImages returns the encoded images embedded in the pages, in page order.
	ExtractImages(pdfData []byte) ([][]byte, error)
}

type pdfProcessor struct{}

func NewPDFProcessor() PDFProcessor {
	return &pdfProcessor{}
}

// IsEncrypted opens the document with an empty user password. Owner-only
// protection opens that way and is not reported as encrypted.
func (p *pdfProcessor) IsEncrypted(pdfData []byte) (bool, error) {
	_, err := api.ReadContext(bytes.NewReader(pdfData), model.NewDefaultConfiguration())
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, pdfcpu.ErrWrongPassword):
		return true, nil
	default:
		return false, fmt.Errorf("failed to open pdf: %w", err)
	}
}

func (p *pdfProcessor) Decrypt(pdfData []byte, password string) ([]byte, error) {
	conf := model.NewDefaultConfiguration()
	conf.UserPW = password

	var out bytes.Buffer
	if err := api.Decrypt(bytes.NewReader(pdfData), &out, conf); err != nil {
		return nil, fmt.Errorf("failed to decrypt pdf: %w", err)
	}
	return out.Bytes(), nil
}

func (p *pdfProcessor) ExtractText(pdfData []byte) (text string, err error) {
	// ledongthuc/pdf panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to extract text: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(pdfData), int64(len(pdfData)))
	if err != nil {
		// ledongthuc/pdf only reads RC4 V1/V2 with an empty password; let
		// pdfcpu strip owner-only AES or V4 protection and retry.
		plain, derr := p.Decrypt(pdfData, "")
		if derr != nil {
			return "", fmt.Errorf("failed to open pdf: %w", err)
		}
		if r, err = pdf.NewReader(bytes.NewReader(plain), int64(len(plain))); err != nil {
			return "", fmt.Errorf("failed to open pdf: %w", err)
		}
	}

	var sb strings.Builder
	for pageIndex := 1; pageIndex <= r.NumPage(); pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		for _, row := range rows {
			for i, word := range row.Content {
				if i > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(word.S)
			}
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}

func (p *pdfProcessor) ExtractImages(pdfData []byte) ([][]byte, error) {
	tempDir, err := os.MkdirTemp("", "statement-images-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	inFile := filepath.Join(tempDir, "document.pdf")
	if err := os.WriteFile(inFile, pdfData, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write pdf data: %w", err)
	}

	outDir := filepath.Join(tempDir, "images")
	if err := os.Mkdir(outDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create image dir: %w", err)
	}

	if err := api.ExtractImagesFile(inFile, outDir, nil, model.NewDefaultConfiguration()); err != nil {
		return nil, fmt.Errorf("failed to extract images: %w", err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read image dir: %w", err)
	}
	// Stable order so OCR output is reproducible across runs.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var images [][]byte
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(outDir, entry.Name()))
		if err != nil {
			continue
		}
		images = append(images, data)
	}
	return images, nil
}
