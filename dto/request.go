package dto

import (
	"errors"
	"mime/multipart"
	"strings"

	"github.com/shopspring/decimal"
)

// UnderwritingPayload is the JSON "payload" form field of a multipart
// underwriting request.
type UnderwritingPayload struct {
	ApplicationID      string            `json:"application_id" binding:"required"`
	Identity           Identity          `json:"identity"`
	SlipNetSalary      *decimal.Decimal  `json:"slip_net_salary"`
	ApplicationProfile *ApplicantProfile `json:"application_profile"`
}

// UnderwritingRequest represents the incoming multipart request
type UnderwritingRequest struct {
	Payload    UnderwritingPayload
	Statement  *multipart.FileHeader
	SalarySlip *multipart.FileHeader
	AadhaarQR  *multipart.FileHeader
}

// Validate performs basic validation on the request
func (r *UnderwritingRequest) Validate() error {
	if r.Statement == nil && r.SalarySlip == nil && r.Payload.SlipNetSalary == nil {
		return errors.New("a bank statement, a salary slip or slip_net_salary is required")
	}
	for _, f := range []*multipart.FileHeader{r.Statement, r.SalarySlip} {
		if f != nil && !strings.HasSuffix(strings.ToLower(f.Filename), ".pdf") {
			return errors.New("statement and salary slip must be PDF files")
		}
	}
	if r.Payload.SlipNetSalary != nil && r.Payload.SlipNetSalary.IsNegative() {
		return errors.New("slip_net_salary must not be negative")
	}
	return nil
}

// PolicyRequest asks for a policy decision on an already verified income.
type PolicyRequest struct {
	ApplicationID      string           `json:"application_id" binding:"required"`
	ValidatedSalary    decimal.Decimal  `json:"validated_salary"`
	IncomeNotes        string           `json:"income_notes"`
	IncomeIsValid      *bool            `json:"income_is_valid"`
	ApplicationProfile ApplicantProfile `json:"application_profile"`
}

// Estimate turns the request into the IncomeEstimate the policy engine reads.
func (r *PolicyRequest) Estimate() IncomeEstimate {
	valid := true
	if r.IncomeIsValid != nil {
		valid = *r.IncomeIsValid
	}
	return IncomeEstimate{
		ValidatedSalary: r.ValidatedSalary,
		IsValid:         valid,
		Notes:           r.IncomeNotes,
	}
}

// IncomeDocuments is everything the income pipeline reads for one application.
// Callers fill it from an upload or from local files.
type IncomeDocuments struct {
	ApplicationID string
	Identity      Identity
	AadhaarQR     []byte
	StatementPDF  []byte
	SalarySlipPDF []byte
	SlipNetSalary *decimal.Decimal
}

// UnderwritingInput adds the applicant profile to the income documents.
type UnderwritingInput struct {
	IncomeDocuments
	Profile ApplicantProfile
}
