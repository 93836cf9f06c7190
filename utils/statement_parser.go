package utils

import (
	"iter"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Aashish23092/income-underwriting/config"
	"github.com/Aashish23092/income-underwriting/dto"
)

// amountRegex matches a currency-prefixed amount (₹12,345.00, Rs. 12345, INR 500)
// or a plain amount that is either digit-grouped or carries paise (12,345.67, 500.00).
// Bare integers without a currency marker are treated as reference numbers,
// except for the trailing-integer fallback below.
var amountRegex = regexp.MustCompile(
	`(?i)(?:₹|\brs\.?|\binr)\s*(\d[\d,]*(?:\.\d{1,2})?)` +
		`|\b(\d{1,3}(?:,\d{2,3})+(?:\.\d{1,2})?|\d+\.\d{1,2})\b`)

// trailingIntegerRegex is a bare integer of at most eight digits ending the
// line. It is used only when the line has no other amount; UPI, IMPS and
// cheque references are longer.
var trailingIntegerRegex = regexp.MustCompile(`(?:^|\s)(\d{1,8})\s*$`)

var (
	splitGroupRegex   = regexp.MustCompile(`(\d),\s+(\d)`)
	splitDecimalRegex = regexp.MustCompile(`(\d)\s+\.(\d)`)
	ocrWordFixer      = strings.NewReplacer(
		"ACCOU NT", "ACCOUNT",
		"BALANC E", "BALANCE",
		"WITHDR AWAL", "WITHDRAWAL",
		"DEPO SIT", "DEPOSIT",
		"PAYM ENT", "PAYMENT",
		"TRANSF ER", "TRANSFER",
		"SALA RY", "SALARY",
		"SAL ARY", "SALARY",
		"CREDI T", "CREDIT",
		"DEBI T", "DEBIT",
	)
)

// StatementParser turns extracted statement text into transactions, one per line.
type StatementParser struct {
	rules       config.StatementConfig
	creditRegex *regexp.Regexp
	debitRegex  *regexp.Regexp
	skipMarkers []string
}

func NewStatementParser(rules config.StatementConfig) *StatementParser {
	skip := make([]string, 0, len(rules.SkipMarkers))
	for _, m := range rules.SkipMarkers {
		skip = append(skip, strings.ToUpper(m))
	}
	return &StatementParser{
		rules:       rules,
		creditRegex: keywordRegex(rules.CreditKeywords),
		debitRegex:  keywordRegex(rules.DebitKeywords),
		skipMarkers: skip,
	}
}

func keywordRegex(words []string) *regexp.Regexp {
	if len(words) == 0 {
		return nil
	}
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// Version identifies the keyword rules in use.
func (p *StatementParser) Version() string {
	return p.rules.Version
}

// Transactions lazily yields the transactions found in text. The sequence can
// be ranged over any number of times.
func (p *StatementParser) Transactions(text string) iter.Seq[dto.Transaction] {
	return func(yield func(dto.Transaction) bool) {
		for line := range strings.Lines(NormalizeStatementText(text)) {
			tx, ok := p.parseLineSafe(line)
			if !ok {
				continue
			}
			if !yield(tx) {
				return
			}
		}
	}
}

// ParseStatement collects every transaction in text.
func (p *StatementParser) ParseStatement(text string) []dto.Transaction {
	return slices.Collect(p.Transactions(text))
}

// parseLineSafe drops a line instead of aborting the statement if parsing panics.
func (p *StatementParser) parseLineSafe(line string) (tx dto.Transaction, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			tx, ok = dto.Transaction{}, false
		}
	}()
	return p.ParseLine(line)
}

// ParseLine parses a single statement line. Lines need both a date token and an
// amount token; anything else is reported as not a transaction. The first
// amount on the line is the transaction amount; later ones (running balance)
// are dropped from the description.
func (p *StatementParser) ParseLine(line string) (dto.Transaction, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return dto.Transaction{}, false
	}

	upper := strings.ToUpper(line)
	for _, marker := range p.skipMarkers {
		if strings.Contains(upper, marker) {
			return dto.Transaction{}, false
		}
	}

	dateLoc := statementDateRegex.FindStringSubmatchIndex(line)
	if dateLoc == nil {
		return dto.Transaction{}, false
	}
	dateToken := line[dateLoc[2]:dateLoc[3]]
	// Value-date columns repeat the date; none of them may be read as an amount.
	rest := statementDateRegex.ReplaceAllString(line, " ")

	var amountToken string
	switch amountLoc := amountRegex.FindStringSubmatchIndex(rest); {
	case amountLoc == nil:
		loc := trailingIntegerRegex.FindStringSubmatchIndex(rest)
		if loc == nil {
			return dto.Transaction{}, false
		}
		amountToken = rest[loc[2]:loc[3]]
		rest = rest[:loc[2]]
	case amountLoc[2] >= 0:
		amountToken = rest[amountLoc[2]:amountLoc[3]]
	default:
		amountToken = rest[amountLoc[4]:amountLoc[5]]
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(amountToken, ",", ""))
	if err != nil {
		return dto.Transaction{}, false
	}
	rest = amountRegex.ReplaceAllString(rest, " ")

	var date *time.Time
	if t, ok := parseStatementDate(dateToken); ok {
		date = &t
	}

	return dto.Transaction{
		Date:        date,
		Description: describe(rest),
		Amount:      amount.Abs(),
		Direction:   p.direction(rest),
		RawLine:     line,
	}, true
}

// describe collapses whitespace and drops sign characters left behind by
// removed amounts.
func describe(rest string) string {
	words := strings.Fields(rest)
	kept := words[:0]
	for _, w := range words {
		if strings.Trim(w, "+-") != "" {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// direction checks credit markers before debit markers. Unlabelled lines are
// debits so they never count towards income.
func (p *StatementParser) direction(text string) dto.Direction {
	switch {
	case p.creditRegex != nil && p.creditRegex.MatchString(text):
		return dto.DirectionCredit
	case p.debitRegex != nil && p.debitRegex.MatchString(text):
		return dto.DirectionDebit
	default:
		return dto.DirectionDebit
	}
}

// NormalizeStatementText repairs common text-layer and OCR splits such as
// "5,71, 126.22" or "SALA RY".
func NormalizeStatementText(text string) string {
	text = splitGroupRegex.ReplaceAllString(text, "$1,$2")
	text = splitDecimalRegex.ReplaceAllString(text, "$1.$2")
	return ocrWordFixer.Replace(text)
}
