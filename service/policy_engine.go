package service

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Aashish23092/income-underwriting/config"
	"github.com/Aashish23092/income-underwriting/dto"
)

var decisionNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:income-underwriting:decision"))

// PolicyEngine applies the credit policy to a verified income and an applicant
// profile. It is deterministic: equal inputs give equal decisions, including
// the decision ID.
type PolicyEngine struct {
	cfg config.PolicyConfig
}

func NewPolicyEngine(cfg config.PolicyConfig) *PolicyEngine {
	return &PolicyEngine{cfg: cfg}
}

// Version identifies the policy thresholds in use.
func (e *PolicyEngine) Version() string {
	return e.cfg.Version
}

// Evaluate never fails; every outcome, including a rejection, is a decision.
func (e *PolicyEngine) Evaluate(income dto.IncomeEstimate, profile dto.ApplicantProfile) dto.PolicyDecision {
	d := dto.PolicyDecision{
		DecisionID:    e.decisionID(income, profile),
		PolicyVersion: e.cfg.Version,
		Conditions:    []string{},
		Reasons:       []string{},
	}

	salary := income.ValidatedSalary

	// Hard rules, first failure wins.
	if reason := e.hardRuleFailure(salary, profile); reason != "" {
		d.Decision = dto.DecisionRejected
		d.Reasons = append(d.Reasons, reason)
		return d
	}

	obligations := decimal.Max(profile.Bureau.ExistingMonthlyObligations, decimal.Zero)
	maxEMI := salary.Mul(decimal.NewFromFloat(e.cfg.MaxFOIR)).Sub(obligations).Round(2)
	if !maxEMI.IsPositive() {
		d.Decision = dto.DecisionRejected
		d.FOIR = roundTo(obligations.Div(salary).InexactFloat64(), 4)
		d.Reasons = append(d.Reasons, fmt.Sprintf(
			"insufficient affordability: existing obligations %s leave no EMI capacity within FOIR %.2f",
			obligations.StringFixed(2), e.cfg.MaxFOIR))
		return d
	}

	factor, ok := e.cfg.RiskScaleFactors[string(profile.Bureau.RiskBucket)]
	if !ok {
		d.Decision = dto.DecisionManualReview
		d.Reasons = append(d.Reasons, fmt.Sprintf("unknown risk bucket %q", profile.Bureau.RiskBucket))
		return d
	}
	d.RiskScaleFactor = factor

	tenure := profile.PreferredTenureMonths
	if tenure <= 0 {
		d.Decision = dto.DecisionManualReview
		d.Reasons = append(d.Reasons, fmt.Sprintf("invalid tenure of %d months", tenure))
		return d
	}

	rate := roundTo(e.cfg.BaseRate*factor, 2)
	monthlyRate := rate / 12 / 100
	eligible := maxPrincipal(maxEMI, monthlyRate, tenure)

	approved := decimal.Min(profile.RequestedAmount, eligible)
	maxLoan := decimal.NewFromFloat(e.cfg.MaxLoanAmount)
	capped := e.cfg.MaxLoanAmount > 0 && approved.GreaterThan(maxLoan)
	if capped {
		approved = maxLoan
	}
	approved = decimal.Max(approved, decimal.Zero).Floor()

	emi := monthlyInstalment(approved, monthlyRate, tenure)

	d.ApprovedAmount = approved
	d.InterestRate = rate
	d.TenureMonths = tenure
	d.MonthlyEMI = emi
	d.FOIR = roundTo(obligations.Add(emi).Div(salary).InexactFloat64(), 4)

	d.Conditions = e.softConditions(income, profile, approved, eligible, capped)

	if approved.LessThan(decimal.NewFromFloat(e.cfg.MinApprovalAmount)) {
		d.Decision = dto.DecisionManualReview
		d.Reasons = append(d.Reasons, fmt.Sprintf(
			"eligible amount %s is below the minimum approval amount %.0f",
			approved.StringFixed(0), e.cfg.MinApprovalAmount))
		return d
	}

	d.Decision = dto.DecisionApproved
	return d
}

func (e *PolicyEngine) hardRuleFailure(salary decimal.Decimal, profile dto.ApplicantProfile) string {
	switch {
	case !salary.IsPositive():
		return fmt.Sprintf("monthly income %s is not positive", salary.StringFixed(2))
	case salary.LessThan(decimal.NewFromFloat(e.cfg.MinMonthlyIncome)):
		return fmt.Sprintf("monthly income %s is below the minimum of %.0f",
			salary.StringFixed(2), e.cfg.MinMonthlyIncome)
	case profile.Bureau.CreditScore < e.cfg.MinCreditScore:
		return fmt.Sprintf("credit score %d is below the minimum of %d",
			profile.Bureau.CreditScore, e.cfg.MinCreditScore)
	case profile.Age < e.cfg.MinAge || profile.Age > e.cfg.MaxAge:
		return fmt.Sprintf("applicant age %d is outside the accepted range %d-%d",
			profile.Age, e.cfg.MinAge, e.cfg.MaxAge)
	}
	return ""
}

func (e *PolicyEngine) softConditions(income dto.IncomeEstimate, profile dto.ApplicantProfile, approved, eligible decimal.Decimal, capped bool) []string {
	conditions := []string{}

	if !income.IsValid && income.Notes != "" {
		conditions = append(conditions, income.Notes)
	}

	if profile.Bureau.CreditScore < e.cfg.ComfortCreditScore {
		conditions = append(conditions, fmt.Sprintf(
			"credit score %d is below %d; additional verification required",
			profile.Bureau.CreditScore, e.cfg.ComfortCreditScore))
	}

	if profile.RequestedAmount.GreaterThan(eligible) {
		conditions = append(conditions, fmt.Sprintf(
			"amount reduced from %s to %s based on affordability",
			profile.RequestedAmount.StringFixed(0), approved.StringFixed(0)))
	} else if capped {
		conditions = append(conditions, fmt.Sprintf(
			"amount capped at the maximum loan size of %.0f", e.cfg.MaxLoanAmount))
	}

	claim := profile.MonthlyIncomeClaim
	if claim.IsPositive() && income.ValidatedSalary.IsPositive() {
		limit := income.ValidatedSalary.Mul(decimal.NewFromFloat(1 + e.cfg.IncomeClaimTolerance/100))
		if claim.GreaterThan(limit) {
			conditions = append(conditions, fmt.Sprintf(
				"declared monthly income %s exceeds verified income %s by more than %.0f%%",
				claim.StringFixed(0), income.ValidatedSalary.StringFixed(0), e.cfg.IncomeClaimTolerance))
		}
	}

	if minYears, ok := e.cfg.MinEmploymentYears[profile.EmploymentType]; ok && profile.EmploymentYears < minYears {
		conditions = append(conditions, fmt.Sprintf(
			"employment tenure of %.1f years is below %.0f years for %s",
			profile.EmploymentYears, minYears, profile.EmploymentType))
	}

	return conditions
}

// decisionID is a name-based UUID over the canonical JSON of the inputs and
// the policy version.
func (e *PolicyEngine) decisionID(income dto.IncomeEstimate, profile dto.ApplicantProfile) string {
	payload, err := json.Marshal(struct {
		PolicyVersion string               `json:"policy_version"`
		Income        dto.IncomeEstimate   `json:"income"`
		Profile       dto.ApplicantProfile `json:"profile"`
	}{e.cfg.Version, income, profile})
	if err != nil {
		payload = []byte(fmt.Sprintf("%s|%v|%v", e.cfg.Version, income, profile))
	}
	return uuid.NewSHA1(decisionNamespace, payload).String()
}

// maxPrincipal inverts the EMI formula: the largest principal whose EMI over n
// months at monthly rate r does not exceed emi, floored to the rupee.
func maxPrincipal(emi decimal.Decimal, r float64, n int) decimal.Decimal {
	if r == 0 {
		return emi.Mul(decimal.NewFromInt(int64(n))).Floor()
	}
	growth := math.Pow(1+r, float64(n))
	annuity := (growth - 1) / (r * growth)
	return emi.Mul(decimal.NewFromFloat(annuity)).Floor()
}

// monthlyInstalment is the EMI for principal p over n months at monthly rate r.
func monthlyInstalment(p decimal.Decimal, r float64, n int) decimal.Decimal {
	if p.IsZero() {
		return decimal.Zero
	}
	if r == 0 {
		return p.Div(decimal.NewFromInt(int64(n))).Round(2)
	}
	growth := math.Pow(1+r, float64(n))
	return p.Mul(decimal.NewFromFloat(r * growth / (growth - 1))).Round(2)
}
