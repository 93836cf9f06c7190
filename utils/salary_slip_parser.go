package utils

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Aashish23092/income-underwriting/dto"
)

// Labelled amounts in priority order: net pay is what reaches the account.
var slipAmountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)net\s*(?:pay|salary|amount|payment)[\s:]*(?:Rs\.?|INR|₹)?\s*([0-9,]+\.?\d*)`),
	regexp.MustCompile(`(?i)take\s*home[\s:]*(?:pay|salary)?[\s:]*(?:Rs\.?|INR|₹)?\s*([0-9,]+\.?\d*)`),
	regexp.MustCompile(`(?i)total\s*(?:pay|salary|amount)[\s:]*(?:Rs\.?|INR|₹)?\s*([0-9,]+\.?\d*)`),
	regexp.MustCompile(`(?i)salary[\s:]*(?:Rs\.?|INR|₹)?\s*([0-9,]+\.?\d*)`),
	regexp.MustCompile(`(?i)gross\s*(?:pay|salary)[\s:]*(?:Rs\.?|INR|₹)?\s*([0-9,]+\.?\d*)`),
}

var (
	monthNames = []string{
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	}
	monthYearRegex    = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*[\s\-,']*(\d{4})\b`)
	numericMonthRegex = regexp.MustCompile(`\b(\d{1,2})[/-](\d{4})\b`)

	accountLabelRegex  = regexp.MustCompile(`(?i)(?:account\s*(?:no|number)|a/c\s*no|acc?\s*no)\.?[\s:\-]*([0-9]{9,18})`)
	maskedAccountRegex = regexp.MustCompile(`(?i)[x*]{4,}([0-9]{3,6})`)

	employeeNameRegex = regexp.MustCompile(`(?i)(?:employee\s*name|emp\.?\s*name|name\s*of\s*employee|name)\s*[:\-]\s*([A-Za-z][A-Za-z .]{1,60})`)
	alphaWordRegex    = regexp.MustCompile(`^[A-Za-z.]+$`)
)

// ParseSalarySlip extracts structured data from salary slip text. NetSalary is
// zero when no labelled amount is found.
func ParseSalarySlip(text string) dto.SalarySlipData {
	text = NormalizeStatementText(text)
	return dto.SalarySlipData{
		EmployeeName:  extractEmployeeName(text),
		PayMonth:      extractPayMonth(text),
		NetSalary:     extractNetSalary(text),
		AccountNumber: extractAccountNumber(text),
	}
}

func extractNetSalary(text string) decimal.Decimal {
	for _, re := range slipAmountPatterns {
		m := re.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		raw := strings.TrimRight(strings.ReplaceAll(m[1], ",", ""), ".")
		amount, err := decimal.NewFromString(raw)
		if err == nil && amount.IsPositive() {
			return amount
		}
	}
	return decimal.Zero
}

func extractPayMonth(text string) string {
	if m := monthYearRegex.FindStringSubmatch(text); len(m) > 2 {
		prefix := strings.ToLower(m[1])
		for _, name := range monthNames {
			if strings.HasPrefix(strings.ToLower(name), prefix) {
				return name + " " + m[2]
			}
		}
	}
	if m := numericMonthRegex.FindStringSubmatch(text); len(m) > 2 {
		return m[1] + "/" + m[2]
	}
	return ""
}

func extractAccountNumber(text string) string {
	if m := accountLabelRegex.FindStringSubmatch(text); len(m) > 1 {
		return m[1]
	}
	if m := maskedAccountRegex.FindStringSubmatch(text); len(m) > 1 {
		return m[1]
	}
	return ""
}

func extractEmployeeName(text string) string {
	for _, line := range strings.Split(text, "\n") {
		m := employeeNameRegex.FindStringSubmatch(line)
		if len(m) < 2 {
			continue
		}
		if name := cleanName(m[1]); name != "" {
			return name
		}
	}
	return ""
}

// cleanName keeps leading alphabetic words and stops at the first label-like
// word that OCR glued onto the same line.
func cleanName(s string) string {
	stopWords := map[string]bool{
		"designation": true, "department": true, "employee": true, "emp": true,
		"code": true, "id": true, "bank": true, "account": true, "pan": true,
		"uan": true, "month": true, "date": true, "salary": true,
	}

	var words []string
	for _, w := range strings.Fields(s) {
		if stopWords[strings.ToLower(strings.Trim(w, "."))] || !alphaWordRegex.MatchString(w) {
			break
		}
		words = append(words, w)
		if len(words) == 4 {
			break
		}
	}
	return strings.Join(words, " ")
}
