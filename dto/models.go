package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// Transaction is one parsed statement line. Amount is never negative; the
// sign is carried by Direction.
type Transaction struct {
	Date        *time.Time      `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Direction   Direction       `json:"direction"`
	RawLine     string          `json:"raw_line"`
}

func (t Transaction) IsCredit() bool {
	return t.Direction == DirectionCredit
}

type SalaryCandidate struct {
	Transaction     Transaction `json:"transaction"`
	Confidence      float64     `json:"confidence"`
	MatchedKeywords []string    `json:"matched_keywords"`
}

// IncomeEstimate is the reconciled monthly income for one application.
type IncomeEstimate struct {
	BankDerivedSalary *decimal.Decimal `json:"bank_derived_salary"`
	DeclaredSalary    *decimal.Decimal `json:"declared_salary"`
	ValidatedSalary   decimal.Decimal  `json:"validated_salary"`
	DifferencePct     float64          `json:"difference_pct"`
	IsValid           bool             `json:"is_valid"`
	Notes             string           `json:"notes"`
}

type Identity struct {
	FullName    string `json:"full_name"`
	DateOfBirth string `json:"date_of_birth"`
}

type RiskBucket string

const (
	RiskExcellent RiskBucket = "excellent"
	RiskGood      RiskBucket = "good"
	RiskFair      RiskBucket = "fair"
	RiskPoor      RiskBucket = "poor"
)

type BureauData struct {
	CreditScore                int             `json:"credit_score" binding:"gte=0"`
	RiskBucket                 RiskBucket      `json:"risk_bucket" binding:"required"`
	ExistingMonthlyObligations decimal.Decimal `json:"existing_monthly_obligations"`
}

// ApplicantProfile is supplied by the caller and never modified by the pipeline.
type ApplicantProfile struct {
	RequestedAmount       decimal.Decimal `json:"requested_amount"`
	Purpose               string          `json:"purpose"`
	MonthlyIncomeClaim    decimal.Decimal `json:"monthly_income_claim"`
	EmploymentType        string          `json:"employment_type"`
	EmploymentYears       float64         `json:"employment_years" binding:"gte=0"`
	Age                   int             `json:"age" binding:"gte=0"`
	PreferredTenureMonths int             `json:"preferred_tenure_months"`
	Bureau                BureauData      `json:"bureau_data"`
}

type DecisionOutcome string

const (
	DecisionApproved     DecisionOutcome = "approved"
	DecisionRejected     DecisionOutcome = "rejected"
	DecisionManualReview DecisionOutcome = "manual_review"
)

// PolicyDecision is the immutable outcome of one policy evaluation.
type PolicyDecision struct {
	DecisionID      string          `json:"decision_id"`
	PolicyVersion   string          `json:"policy_version"`
	Decision        DecisionOutcome `json:"decision"`
	ApprovedAmount  decimal.Decimal `json:"approved_amount"`
	InterestRate    float64         `json:"interest_rate"`
	TenureMonths    int             `json:"tenure_months"`
	MonthlyEMI      decimal.Decimal `json:"monthly_emi"`
	FOIR            float64         `json:"foir"`
	RiskScaleFactor float64         `json:"risk_scale_factor"`
	Conditions      []string        `json:"conditions"`
	Reasons         []string        `json:"reasons"`
}

type TextSource string

const (
	TextSourcePDF TextSource = "pdf_text"
	TextSourceOCR TextSource = "ocr"
)

// StatementSummary records how the statement was read, for audit.
type StatementSummary struct {
	PasswordCandidateIndex int               `json:"password_candidate_index"`
	TextSource             TextSource        `json:"text_source"`
	TotalTransactions      int               `json:"total_transactions"`
	CreditTransactions     int               `json:"credit_transactions"`
	SalaryCandidates       int               `json:"salary_candidates"`
	TopCandidates          []SalaryCandidate `json:"top_candidates"`
	ScoringVersion         string            `json:"scoring_version"`
}

type SalarySlipData struct {
	EmployeeName  string          `json:"employee_name"`
	PayMonth      string          `json:"pay_month"`
	NetSalary     decimal.Decimal `json:"net_salary"`
	AccountNumber string          `json:"account_number,omitempty"`
}
