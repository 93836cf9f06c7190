package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aashish23092/income-underwriting/dto"
)

type fakeUnderwriter struct {
	docs     dto.IncomeDocuments
	input    dto.UnderwritingInput
	policy   dto.PolicyRequest
	err      error
	decision dto.PolicyDecision
}

func (f *fakeUnderwriter) ExtractIncome(_ context.Context, docs dto.IncomeDocuments) (*dto.IncomeReport, error) {
	f.docs = docs
	if f.err != nil {
		return nil, f.err
	}
	return &dto.IncomeReport{
		ApplicationID: docs.ApplicationID,
		Income:        dto.IncomeEstimate{ValidatedSalary: decimal.NewFromInt(50000), IsValid: true},
	}, nil
}

func (f *fakeUnderwriter) Evaluate(_ context.Context, in dto.UnderwritingInput) (*dto.UnderwritingResponse, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &dto.UnderwritingResponse{
		IncomeReport: dto.IncomeReport{ApplicationID: in.ApplicationID},
		Decision:     f.decision,
	}, nil
}

func (f *fakeUnderwriter) EvaluatePolicy(req dto.PolicyRequest) dto.PolicyDecision {
	f.policy = req
	return f.decision
}

func newTestRouter(svc Underwriter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return SetupRouter(NewUnderwritingHandler(svc, nil), 8, nil)
}

type upload struct {
	field, filename string
	content         []byte
}

func multipartRequest(t *testing.T, path, payload string, files ...upload) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if payload != "" {
		require.NoError(t, w.WriteField("payload", payload))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

const profileJSON = `{
	"requested_amount": 300000,
	"employment_type": "private_mnc",
	"employment_years": 5,
	"age": 32,
	"preferred_tenure_months": 24,
	"bureau_data": {"credit_score": 780, "risk_bucket": "excellent"}
}`

func TestHealth(t *testing.T) {
	router := newTestRouter(&fakeUnderwriter{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"Income Underwriting"}`, w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(&fakeUnderwriter{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExtractIncome(t *testing.T) {
	svc := &fakeUnderwriter{}
	router := newTestRouter(svc)

	req := multipartRequest(t, "/api/v1/income/extract",
		`{"application_id":"APP-1","identity":{"full_name":"Rajesh Kumar Sharma","date_of_birth":"15/08/1990"},"slip_net_salary":52000}`,
		upload{"statement", "statement.PDF", []byte("%PDF-statement")},
		upload{"salary_slip", "slip.pdf", []byte("%PDF-slip")},
	)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report dto.IncomeReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "APP-1", report.ApplicationID)

	assert.Equal(t, "APP-1", svc.docs.ApplicationID)
	assert.Equal(t, "Rajesh Kumar Sharma", svc.docs.Identity.FullName)
	assert.Equal(t, []byte("%PDF-statement"), svc.docs.StatementPDF)
	assert.Equal(t, []byte("%PDF-slip"), svc.docs.SalarySlipPDF)
	assert.Nil(t, svc.docs.AadhaarQR)
	require.NotNil(t, svc.docs.SlipNetSalary)
	assert.True(t, decimal.NewFromInt(52000).Equal(*svc.docs.SlipNetSalary))
}

func TestExtractIncome_BadRequests(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		files   []upload
		message string
	}{
		{
			name:    "missing payload",
			files:   []upload{{"statement", "s.pdf", []byte("x")}},
			message: "payload is required",
		},
		{
			name:    "invalid json",
			payload: `{"application_id":`,
			message: "Invalid payload JSON",
		},
		{
			name:    "missing application id",
			payload: `{"slip_net_salary":1000}`,
			message: "Invalid payload",
		},
		{
			name:    "no income source",
			payload: `{"application_id":"APP-1"}`,
			message: "a bank statement, a salary slip or slip_net_salary is required",
		},
		{
			name:    "statement is not a pdf",
			payload: `{"application_id":"APP-1"}`,
			files:   []upload{{"statement", "statement.png", []byte("x")}},
			message: "statement and salary slip must be PDF files",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeUnderwriter{}
			w := httptest.NewRecorder()
			newTestRouter(svc).ServeHTTP(w, multipartRequest(t, "/api/v1/income/extract", tt.payload, tt.files...))

			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "INVALID_REQUEST", resp.Error)
			assert.True(t, strings.HasPrefix(resp.Message, tt.message), resp.Message)
			assert.Empty(t, svc.docs.ApplicationID)
		})
	}
}

func TestExtractIncome_UploadTooLarge(t *testing.T) {
	svc := &fakeUnderwriter{}
	router := SetupRouter(NewUnderwritingHandler(svc, nil), 1, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, multipartRequest(t, "/api/v1/income/extract",
		`{"application_id":"APP-1"}`,
		upload{"statement", "statement.pdf", bytes.Repeat([]byte("A"), 2<<20)}))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
	assert.Contains(t, resp.Message, "1048576 byte limit")
	assert.Empty(t, svc.docs.ApplicationID)
}

func TestExtractIncome_PipelineError(t *testing.T) {
	svc := &fakeUnderwriter{err: dto.ErrDecryptionExhausted.With("none of 5 password candidates opened the document", nil)}

	w := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(w, multipartRequest(t, "/api/v1/income/extract",
		`{"application_id":"APP-1"}`, upload{"statement", "s.pdf", []byte("x")}))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.JSONEq(t, `{
		"error": "DECRYPTION_EXHAUSTED",
		"message": "none of 5 password candidates opened the document",
		"fallback": "REQUEST_PASSWORD",
		"code": 422
	}`, w.Body.String())
}

func TestExtractIncome_InternalError(t *testing.T) {
	svc := &fakeUnderwriter{err: errors.New("disk on fire")}

	w := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(w, multipartRequest(t, "/api/v1/income/extract",
		`{"application_id":"APP-1","slip_net_salary":1000}`))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "disk on fire")
	assert.Contains(t, w.Body.String(), "PROCESSING_FAILED")
}

func TestEvaluateApplication(t *testing.T) {
	svc := &fakeUnderwriter{decision: dto.PolicyDecision{
		DecisionID: "d-1",
		Decision:   dto.DecisionApproved,
		Conditions: []string{},
		Reasons:    []string{},
	}}

	w := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(w, multipartRequest(t, "/api/v1/underwriting/evaluate",
		`{"application_id":"APP-1","slip_net_salary":60000,"application_profile":`+profileJSON+`}`))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.UnderwritingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "APP-1", resp.ApplicationID)
	assert.Equal(t, dto.DecisionApproved, resp.Decision.Decision)

	assert.Equal(t, 32, svc.input.Profile.Age)
	assert.Equal(t, dto.RiskExcellent, svc.input.Profile.Bureau.RiskBucket)
	assert.True(t, decimal.NewFromInt(300000).Equal(svc.input.Profile.RequestedAmount))
}

func TestEvaluateApplication_RequiresProfile(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter(&fakeUnderwriter{}).ServeHTTP(w, multipartRequest(t, "/api/v1/underwriting/evaluate",
		`{"application_id":"APP-1","slip_net_salary":60000}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "application_profile is required")
}

func TestEvaluateApplication_ProfileNeedsRiskBucket(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter(&fakeUnderwriter{}).ServeHTTP(w, multipartRequest(t, "/api/v1/underwriting/evaluate",
		`{"application_id":"APP-1","slip_net_salary":60000,"application_profile":{"age":30,"bureau_data":{"credit_score":700}}}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEvaluatePolicy(t *testing.T) {
	svc := &fakeUnderwriter{decision: dto.PolicyDecision{
		DecisionID: "d-2",
		Decision:   dto.DecisionManualReview,
		Conditions: []string{},
		Reasons:    []string{"invalid tenure of 0 months"},
	}}

	body := `{"application_id":"APP-9","validated_salary":"45000.50","income_is_valid":false,"application_profile":` + profileJSON + `}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/policy/evaluate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"decision":"manual_review"`)

	assert.Equal(t, "APP-9", svc.policy.ApplicationID)
	assert.Equal(t, "45000.5", svc.policy.ValidatedSalary.String())
	require.NotNil(t, svc.policy.IncomeIsValid)
	assert.False(t, *svc.policy.IncomeIsValid)
}

func TestEvaluatePolicy_InvalidBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/policy/evaluate", strings.NewReader(`{"validated_salary":1}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	newTestRouter(&fakeUnderwriter{}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
