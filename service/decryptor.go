package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Aashish23092/income-underwriting/dto"
	"github.com/Aashish23092/income-underwriting/logger"
	"github.com/Aashish23092/income-underwriting/utils"
)

// ImageTextExtractor reads text from one encoded page image.
type ImageTextExtractor interface {
	ExtractImageText(ctx context.Context, img []byte) (string, error)
}

// DecryptedDocument is the text of an opened statement.
type DecryptedDocument struct {
	Text string
	// CandidateIndex is the position of the password that opened the
	// document, or -1 when it was not encrypted.
	CandidateIndex int
	Source         dto.TextSource
}

// DocumentDecryptor opens password-protected PDFs by trying an ordered list of
// candidate passwords and returns the text layer.
type DocumentDecryptor struct {
	pdf    PDFProcessor
	ocr    ImageTextExtractor
	logger *zap.Logger
}

// NewDocumentDecryptor wires the PDF engine. ocr may be nil, in which case
// image-only documents fail with EmptyDocument.
func NewDocumentDecryptor(pdf PDFProcessor, ocr ImageTextExtractor, log *zap.Logger) *DocumentDecryptor {
	return &DocumentDecryptor{
		pdf:    pdf,
		ocr:    ocr,
		logger: logger.OrNop(log),
	}
}

type openResult struct {
	doc *DecryptedDocument
	err error
}

// Open decrypts and reads the document. The work runs in its own goroutine so
// the call returns as soon as ctx expires, with DecryptionTimeout on deadline.
func (d *DocumentDecryptor) Open(ctx context.Context, pdfData []byte, candidates []string) (*DecryptedDocument, error) {
	done := make(chan openResult, 1)
	go func() {
		doc, err := d.open(ctx, pdfData, candidates)
		done <- openResult{doc: doc, err: err}
	}()

	select {
	case res := <-done:
		return res.doc, res.err
	case <-ctx.Done():
		return nil, contextError(ctx.Err())
	}
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return dto.ErrDecryptionTimeout.With("document decryption did not finish in time", err)
	}
	return err
}

func (d *DocumentDecryptor) open(ctx context.Context, pdfData []byte, candidates []string) (*DecryptedDocument, error) {
	encrypted, err := d.pdf.IsEncrypted(pdfData)
	if err != nil {
		return nil, dto.ErrEmptyDocument.With("document could not be read as a PDF", err)
	}

	plain := pdfData
	index := -1
	if encrypted {
		plain, index, err = d.tryCandidates(ctx, pdfData, candidates)
		if err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, contextError(err)
	}

	text, err := d.pdf.ExtractText(plain)
	if err != nil {
		d.logger.Warn("text layer extraction failed", zap.Error(err))
	}
	source := dto.TextSourcePDF

	if strings.TrimSpace(text) == "" && d.ocr != nil {
		d.logger.Info("document has no text layer, falling back to OCR")
		text, err = d.ocrPages(ctx, plain)
		if err != nil {
			return nil, err
		}
		source = dto.TextSourceOCR
	}

	if strings.TrimSpace(text) == "" {
		return nil, dto.ErrEmptyDocument
	}

	return &DecryptedDocument{Text: text, CandidateIndex: index, Source: source}, nil
}

func (d *DocumentDecryptor) tryCandidates(ctx context.Context, pdfData []byte, candidates []string) ([]byte, int, error) {
	var lastErr error
	for i, pw := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, -1, contextError(err)
		}

		plain, err := d.pdf.Decrypt(pdfData, pw)
		if err != nil {
			d.logger.Debug("password candidate rejected",
				zap.Int("candidate_index", i),
				zap.String("password_prefix", utils.MaskPassword(pw)))
			lastErr = err
			continue
		}

		d.logger.Info("statement decrypted",
			zap.Int("candidate_index", i),
			zap.String("password_prefix", utils.MaskPassword(pw)))
		return plain, i, nil
	}

	return nil, -1, dto.ErrDecryptionExhausted.With(
		fmt.Sprintf("none of %d password candidates opened the document", len(candidates)), lastErr)
}

func (d *DocumentDecryptor) ocrPages(ctx context.Context, plain []byte) (string, error) {
	images, err := d.pdf.ExtractImages(plain)
	if err != nil {
		d.logger.Warn("page image extraction failed", zap.Error(err))
		return "", nil
	}

	var sb strings.Builder
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return "", contextError(err)
		}
		pageText, err := d.ocr.ExtractImageText(ctx, img)
		if err != nil {
			d.logger.Warn("OCR failed for page image", zap.Int("image", i), zap.Error(err))
			continue
		}
		sb.WriteString(pageText)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}
