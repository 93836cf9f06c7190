package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Aashish23092/income-underwriting/config"
	"github.com/Aashish23092/income-underwriting/dto"
)

const (
	notePerfectMatch       = "Perfect match between bank statement and salary slip"
	noteBankConservative   = "Using bank statement amount (lower than slip) for conservative estimate"
	noteSlipConservative   = "Using salary slip amount (lower than bank) for conservative estimate"
	noteBankOnly           = "Income derived from bank statement only"
	noteSlipOnly           = "Income taken from salary slip only"
	discrepancyNoteFormat  = "Significant discrepancy (%.1f%%) between bank and slip amounts - manual review recommended"
	noteSlipNoSalaryCredit = "No salary credits found in bank statement; using salary slip amount"
)

// IncomeValidator reconciles the statement-derived salary with the declared one.
type IncomeValidator struct {
	thresholdPct float64
}

func NewIncomeValidator(cfg config.IncomeConfig) *IncomeValidator {
	return &IncomeValidator{thresholdPct: cfg.DiscrepancyThresholdPct}
}

// Validate picks the lower of the two figures when both exist. A discrepancy
// above the threshold marks the estimate invalid but still returns it.
func (v *IncomeValidator) Validate(bank, slip *decimal.Decimal) (dto.IncomeEstimate, error) {
	est := dto.IncomeEstimate{
		BankDerivedSalary: bank,
		DeclaredSalary:    slip,
	}

	switch {
	case bank == nil && slip == nil:
		return dto.IncomeEstimate{}, dto.ErrNoIncomeData

	case bank == nil:
		est.ValidatedSalary = *slip
		est.IsValid = true
		est.Notes = noteSlipOnly
		return est, nil

	case slip == nil:
		est.ValidatedSalary = *bank
		est.IsValid = true
		est.Notes = noteBankOnly
		return est, nil
	}

	est.ValidatedSalary = decimal.Min(*bank, *slip)
	est.DifferencePct = differencePct(*bank, *slip)
	est.IsValid = est.DifferencePct <= v.thresholdPct

	switch {
	case !est.IsValid:
		est.Notes = fmt.Sprintf(discrepancyNoteFormat, est.DifferencePct)
	case bank.Equal(*slip):
		est.Notes = notePerfectMatch
	case bank.LessThan(*slip):
		est.Notes = noteBankConservative
	default:
		est.Notes = noteSlipConservative
	}
	return est, nil
}

// differencePct is |a-b| / max(a,b) * 100, to two decimals.
func differencePct(a, b decimal.Decimal) float64 {
	larger := decimal.Max(a, b)
	if larger.IsZero() {
		return 0
	}
	pct := a.Sub(b).Abs().Div(larger).Mul(decimal.NewFromInt(100)).Round(2)
	return pct.InexactFloat64()
}
