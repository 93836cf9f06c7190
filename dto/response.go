package dto

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error    string `json:"error"`
	Message  string `json:"message"`
	Fallback string `json:"fallback,omitempty"`
	Code     int    `json:"code"`
}

// IncomeReport is the output of the income half of the pipeline.
type IncomeReport struct {
	ApplicationID string            `json:"application_id"`
	Income        IncomeEstimate    `json:"income"`
	Statement     *StatementSummary `json:"statement,omitempty"`
	SalarySlip    *SalarySlipData   `json:"salary_slip,omitempty"`
	CrossCheck    CrossCheckResult  `json:"cross_check"`
}

// CrossCheckResult compares the salary slip against the applicant and the statement.
// Nil flags mean the comparison could not be made.
type CrossCheckResult struct {
	NameMatch         *bool    `json:"name_match"`
	SalaryCreditFound *bool    `json:"salary_credit_found"`
	Notes             []string `json:"notes"`
}

// UnderwritingResponse is the final response structure
type UnderwritingResponse struct {
	IncomeReport
	Decision PolicyDecision `json:"decision"`
}
