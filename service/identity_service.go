package service

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"go.uber.org/zap"

	"github.com/Aashish23092/income-underwriting/dto"
	"github.com/Aashish23092/income-underwriting/logger"
	"github.com/Aashish23092/income-underwriting/utils"
)

var ErrNoQRCode = errors.New("no readable QR code in image")

// IdentityService reads applicant identity from an Aadhaar card or letter
// image, for callers that have no typed name and DOB.
type IdentityService struct {
	ocr    ImageTextExtractor
	logger *zap.Logger
}

// NewIdentityService creates the service. ocr may be nil, in which case only
// the QR code is read.
func NewIdentityService(ocr ImageTextExtractor, log *zap.Logger) *IdentityService {
	return &IdentityService{ocr: ocr, logger: logger.OrNop(log)}
}

// FromAadhaarImage reads the QR code and falls back to OCR of the printed
// text when the image has no readable code.
func (s *IdentityService) FromAadhaarImage(ctx context.Context, data []byte) (dto.Identity, error) {
	id, err := s.FromQRImage(data)
	if err == nil || !errors.Is(err, ErrNoQRCode) || s.ocr == nil {
		return id, err
	}

	s.logger.Info("no QR code on Aadhaar image, falling back to OCR")
	text, ocrErr := s.ocr.ExtractImageText(ctx, data)
	if ocrErr != nil {
		return dto.Identity{}, fmt.Errorf("OCR of Aadhaar image failed: %w", ocrErr)
	}

	id = utils.ParseAadhaarText(text)
	if id.FullName == "" || id.DateOfBirth == "" {
		return dto.Identity{}, dto.ErrInsufficientIdentityData.With(
			"name and date of birth could not be read from the Aadhaar image", err)
	}
	return id, nil
}

// FromQRImage decodes a PNG or JPEG image holding the QR code.
func (s *IdentityService) FromQRImage(data []byte) (dto.Identity, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return dto.Identity{}, fmt.Errorf("failed to decode image: %w", err)
	}

	text, err := decodeQR(img)
	if err != nil {
		return dto.Identity{}, err
	}
	s.logger.Debug("QR code decoded", zap.Int("bytes", len(text)))

	return ParseAadhaarQR(text)
}

func decodeQR(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("failed to create binary bitmap: %w", err)
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	result, err := qrcode.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoQRCode, err)
	}
	return result.GetText(), nil
}

// ParseAadhaarQR turns the QR XML payload into an Identity with the date of
// birth in DD/MM/YYYY form.
func ParseAadhaarQR(payload string) (dto.Identity, error) {
	var qr dto.AadhaarQRData
	if err := xml.Unmarshal([]byte(strings.TrimSpace(payload)), &qr); err != nil {
		return dto.Identity{}, fmt.Errorf("failed to parse QR XML data: %w", err)
	}
	if qr.Name == "" {
		return dto.Identity{}, dto.ErrInsufficientIdentityData.With("QR code carries no name", nil)
	}

	dob := qr.GetDOB()
	// Newer letters print ISO dates in the QR.
	if t, err := time.Parse("2006-01-02", dob); err == nil {
		dob = t.Format("02/01/2006")
	}

	return dto.Identity{FullName: strings.TrimSpace(qr.Name), DateOfBirth: dob}, nil
}
