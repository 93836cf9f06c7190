package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"github.com/Aashish23092/income-underwriting/dto"
	"github.com/Aashish23092/income-underwriting/logger"
)

// Underwriter is the pipeline the handlers call.
type Underwriter interface {
	ExtractIncome(ctx context.Context, docs dto.IncomeDocuments) (*dto.IncomeReport, error)
	Evaluate(ctx context.Context, in dto.UnderwritingInput) (*dto.UnderwritingResponse, error)
	EvaluatePolicy(req dto.PolicyRequest) dto.PolicyDecision
}

type UnderwritingHandler struct {
	service Underwriter
	logger  *zap.Logger
}

func NewUnderwritingHandler(service Underwriter, log *zap.Logger) *UnderwritingHandler {
	return &UnderwritingHandler{
		service: service,
		logger:  logger.OrNop(log),
	}
}

// ExtractIncome handles the POST /income/extract endpoint
func (h *UnderwritingHandler) ExtractIncome(c *gin.Context) {
	req, ok := h.bindUpload(c)
	if !ok {
		return
	}

	docs, err := readDocuments(req)
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Failed to read uploaded files", err)
		return
	}

	report, err := h.service.ExtractIncome(c.Request.Context(), docs)
	if err != nil {
		h.sendPipelineError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// EvaluateApplication handles the POST /underwriting/evaluate endpoint
func (h *UnderwritingHandler) EvaluateApplication(c *gin.Context) {
	req, ok := h.bindUpload(c)
	if !ok {
		return
	}
	if req.Payload.ApplicationProfile == nil {
		h.sendError(c, http.StatusBadRequest, "application_profile is required", nil)
		return
	}

	docs, err := readDocuments(req)
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Failed to read uploaded files", err)
		return
	}

	resp, err := h.service.Evaluate(c.Request.Context(), dto.UnderwritingInput{
		IncomeDocuments: docs,
		Profile:         *req.Payload.ApplicationProfile,
	})
	if err != nil {
		h.sendPipelineError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// EvaluatePolicy handles the POST /policy/evaluate endpoint
func (h *UnderwritingHandler) EvaluatePolicy(c *gin.Context) {
	var req dto.PolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	c.JSON(http.StatusOK, h.service.EvaluatePolicy(req))
}

// bindUpload parses the multipart form: a JSON "payload" field plus the
// optional "statement", "salary_slip" and "aadhaar_qr" files.
func (h *UnderwritingHandler) bindUpload(c *gin.Context) (*dto.UnderwritingRequest, bool) {
	if _, err := c.MultipartForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.sendError(c, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Upload exceeds the %d byte limit", tooLarge.Limit), nil)
			return nil, false
		}
	}

	raw := c.PostForm("payload")
	if raw == "" {
		h.sendError(c, http.StatusBadRequest, "payload is required", nil)
		return nil, false
	}

	req := &dto.UnderwritingRequest{}
	if err := json.Unmarshal([]byte(raw), &req.Payload); err != nil {
		h.sendError(c, http.StatusBadRequest, "Invalid payload JSON", err)
		return nil, false
	}
	if err := binding.Validator.ValidateStruct(&req.Payload); err != nil {
		h.sendError(c, http.StatusBadRequest, "Invalid payload", err)
		return nil, false
	}

	req.Statement = formFile(c, "statement")
	req.SalarySlip = formFile(c, "salary_slip")
	req.AadhaarQR = formFile(c, "aadhaar_qr")

	if err := req.Validate(); err != nil {
		h.sendError(c, http.StatusBadRequest, err.Error(), err)
		return nil, false
	}
	return req, true
}

func formFile(c *gin.Context, field string) *multipart.FileHeader {
	f, err := c.FormFile(field)
	if err != nil {
		return nil
	}
	return f
}

func readDocuments(req *dto.UnderwritingRequest) (dto.IncomeDocuments, error) {
	docs := dto.IncomeDocuments{
		ApplicationID: req.Payload.ApplicationID,
		Identity:      req.Payload.Identity,
		SlipNetSalary: req.Payload.SlipNetSalary,
	}

	var err error
	if docs.StatementPDF, err = readFile(req.Statement); err != nil {
		return docs, err
	}
	if docs.SalarySlipPDF, err = readFile(req.SalarySlip); err != nil {
		return docs, err
	}
	if docs.AadhaarQR, err = readFile(req.AadhaarQR); err != nil {
		return docs, err
	}
	return docs, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	if fh == nil {
		return nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
	}
	return data, nil
}

// sendPipelineError maps recoverable pipeline failures to 422 with a fallback
// action; anything else is a 500.
func (h *UnderwritingHandler) sendPipelineError(c *gin.Context, err error) {
	var pe *dto.PipelineError
	if errors.As(err, &pe) {
		h.logger.Info("pipeline error returned to caller",
			zap.String("error_code", string(pe.Code)),
			zap.String("fallback", pe.Fallback))
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error:    string(pe.Code),
			Message:  pe.Message,
			Fallback: pe.Fallback,
			Code:     http.StatusUnprocessableEntity,
		})
		return
	}
	h.sendError(c, http.StatusInternalServerError, "Failed to process application", err)
}

// sendError sends a structured error response
func (h *UnderwritingHandler) sendError(c *gin.Context, statusCode int, message string, err error) {
	errorMsg := message
	if err != nil {
		errorMsg = fmt.Sprintf("%s: %v", message, err)
		h.logger.Warn(message, zap.Error(err), zap.Int("status", statusCode))
	}

	errCode := "INVALID_REQUEST"
	if statusCode >= http.StatusInternalServerError {
		errCode = "PROCESSING_FAILED"
		errorMsg = message
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   errCode,
		Message: errorMsg,
		Code:    statusCode,
	})
}
