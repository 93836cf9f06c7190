package service

import (
	"cmp"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Aashish23092/income-underwriting/config"
	"github.com/Aashish23092/income-underwriting/dto"
)

// CreditTransactions returns the credits in txs, keeping their order.
func CreditTransactions(txs []dto.Transaction) []dto.Transaction {
	credits := make([]dto.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.IsCredit() {
			credits = append(credits, tx)
		}
	}
	return credits
}

// SalaryIdentifier scores credits by how likely they are to be salary.
type SalaryIdentifier struct {
	cfg config.ScoringConfig
}

func NewSalaryIdentifier(cfg config.ScoringConfig) *SalaryIdentifier {
	return &SalaryIdentifier{cfg: cfg}
}

// Version identifies the scoring weights in use.
func (s *SalaryIdentifier) Version() string {
	return s.cfg.Version
}

// Identify returns the credits with a non-zero salary confidence, best first.
// Keyword scores are computed per transaction; the recurrence boost is then
// applied to the batch. Returns ErrNoSalaryTransactionsFound when nothing scores.
func (s *SalaryIdentifier) Identify(credits []dto.Transaction) ([]dto.SalaryCandidate, error) {
	credits = CreditTransactions(credits)

	scored := make([]dto.SalaryCandidate, len(credits))
	for i, tx := range credits {
		confidence, matched := s.keywordScore(tx.Description)
		scored[i] = dto.SalaryCandidate{
			Transaction:     tx,
			Confidence:      confidence,
			MatchedKeywords: matched,
		}
	}

	for i := range s.recurring(credits) {
		scored[i].Confidence = min(1.0, scored[i].Confidence+s.cfg.RecurrenceBoost)
	}

	candidates := make([]dto.SalaryCandidate, 0, len(scored))
	for _, c := range scored {
		c.Confidence = roundTo(c.Confidence, 4)
		if c.Confidence > 0 {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return nil, dto.ErrNoSalaryTransactionsFound
	}

	slices.SortStableFunc(candidates, compareCandidates)
	return candidates, nil
}

// EstimateSalary is the mean amount of the top ranked candidates, to the paisa.
func (s *SalaryIdentifier) EstimateSalary(candidates []dto.SalaryCandidate) (decimal.Decimal, bool) {
	n := min(len(candidates), max(1, s.cfg.TopCandidatesForMean))
	if n == 0 {
		return decimal.Zero, false
	}

	sum := decimal.Zero
	for _, c := range candidates[:n] {
		sum = sum.Add(c.Transaction.Amount)
	}
	return sum.Div(decimal.NewFromInt(int64(n))).Round(2), true
}

func (s *SalaryIdentifier) keywordScore(description string) (float64, []string) {
	desc := strings.ToLower(description)
	matched := map[string]struct{}{}
	score := 0.0

	tiers := []struct {
		keywords []string
		weight   float64
	}{
		{s.cfg.HighKeywords, s.cfg.HighWeight},
		{s.cfg.MediumKeywords, s.cfg.MediumWeight},
		{s.cfg.BoosterKeywords, s.cfg.BoosterWeight},
	}
	for _, tier := range tiers {
		for _, kw := range tier.keywords {
			kw = strings.ToLower(kw)
			if kw != "" && strings.Contains(desc, kw) {
				score += tier.weight
				matched[kw] = struct{}{}
			}
		}
	}

	keywords := make([]string, 0, len(matched))
	for kw := range matched {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)
	return min(1.0, score), keywords
}

// recurring returns the indices of credits that belong to a run of at least
// RecurrenceMinCount similar amounts paid roughly every RecurrenceDays.
func (s *SalaryIdentifier) recurring(credits []dto.Transaction) map[int]struct{} {
	marked := map[int]struct{}{}
	minCount := max(2, s.cfg.RecurrenceMinCount)

	dated := make([]int, 0, len(credits))
	for i, tx := range credits {
		if tx.Date != nil && tx.Amount.IsPositive() {
			dated = append(dated, i)
		}
	}
	if len(dated) < minCount {
		return marked
	}

	slices.SortFunc(dated, func(a, b int) int {
		return credits[a].Amount.Cmp(credits[b].Amount)
	})

	// Every credit anchors a window of the credits within tolerance above it,
	// so an unrelated amount between two paydays cannot split the run.
	tolerance := decimal.NewFromFloat(1 + s.cfg.RecurrenceTolerance)
	for a, anchor := range dated {
		limit := credits[anchor].Amount.Mul(tolerance)
		end := a
		for end < len(dated) && credits[dated[end]].Amount.LessThanOrEqual(limit) {
			end++
		}
		if end-a < minCount {
			continue
		}
		window := slices.Clone(dated[a:end])
		for _, idx := range s.chained(credits, window, minCount) {
			marked[idx] = struct{}{}
		}
	}
	return marked
}

// chained returns the members of window that form runs of at least minCount
// credits spaced RecurrenceDays apart, give or take the slack.
func (s *SalaryIdentifier) chained(credits []dto.Transaction, window []int, minCount int) []int {
	lo := float64(s.cfg.RecurrenceDays - s.cfg.RecurrenceSlackDays)
	hi := float64(s.cfg.RecurrenceDays + s.cfg.RecurrenceSlackDays)

	slices.SortFunc(window, func(a, b int) int {
		return credits[a].Date.Compare(*credits[b].Date)
	})

	var out []int
	used := make([]bool, len(window))
	for start := range window {
		if used[start] {
			continue
		}
		chain := []int{start}
		for cur, next := start, start+1; next < len(window); next++ {
			if used[next] {
				continue
			}
			gap := credits[window[next]].Date.Sub(*credits[window[cur]].Date).Hours() / 24
			if gap > hi {
				break
			}
			if gap >= lo {
				chain = append(chain, next)
				cur = next
			}
		}
		if len(chain) < minCount {
			continue
		}
		for _, pos := range chain {
			used[pos] = true
			out = append(out, window[pos])
		}
	}
	return out
}

func compareCandidates(a, b dto.SalaryCandidate) int {
	if c := cmp.Compare(b.Confidence, a.Confidence); c != 0 {
		return c
	}
	if c := b.Transaction.Amount.Cmp(a.Transaction.Amount); c != 0 {
		return c
	}
	da, db := a.Transaction.Date, b.Transaction.Date
	switch {
	case da == nil && db == nil:
		return 0
	case da == nil:
		return 1
	case db == nil:
		return -1
	default:
		return db.Compare(*da)
	}
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
