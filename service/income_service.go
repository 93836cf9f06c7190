package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Aashish23092/income-underwriting/config"
	"github.com/Aashish23092/income-underwriting/dto"
	"github.com/Aashish23092/income-underwriting/logger"
	"github.com/Aashish23092/income-underwriting/metrics"
	"github.com/Aashish23092/income-underwriting/utils"
)

const maxTopCandidates = 5

// salaryMatchTolerance is how far a statement credit may be from the slip's
// net pay and still count as that salary being paid.
var salaryMatchTolerance = decimal.RequireFromString("0.01")

// IncomeService turns a statement and a salary slip into one verified monthly
// income. It holds no per-request state and is safe for concurrent use.
type IncomeService struct {
	decryptor      *DocumentDecryptor
	parser         *utils.StatementParser
	identifier     *SalaryIdentifier
	validator      *IncomeValidator
	identity       *IdentityService
	decryptTimeout time.Duration
	logger         *zap.Logger
}

// NewIncomeService wires the pipeline stages from configuration. ocr may be nil.
func NewIncomeService(cfg *config.Config, pdf PDFProcessor, ocr ImageTextExtractor, log *zap.Logger) *IncomeService {
	log = logger.OrNop(log)
	return &IncomeService{
		decryptor:      NewDocumentDecryptor(pdf, ocr, log),
		parser:         utils.NewStatementParser(cfg.Statement),
		identifier:     NewSalaryIdentifier(cfg.Scoring),
		validator:      NewIncomeValidator(cfg.Income),
		identity:       NewIdentityService(ocr, log),
		decryptTimeout: cfg.Decrypt.Timeout,
		logger:         log,
	}
}

// statementAnalysis is what one bank statement contributes to the report.
type statementAnalysis struct {
	summary    *dto.StatementSummary
	credits    []dto.Transaction
	candidates []dto.SalaryCandidate
}

// ExtractIncome runs password derivation, decryption, parsing, salary
// identification and validation for one application.
func (s *IncomeService) ExtractIncome(ctx context.Context, docs dto.IncomeDocuments) (*dto.IncomeReport, error) {
	start := time.Now()
	defer func() {
		metrics.PipelineDuration.WithLabelValues("income").Observe(time.Since(start).Seconds())
	}()

	log := s.logger.With(zap.String("application_id", docs.ApplicationID))
	report := &dto.IncomeReport{ApplicationID: docs.ApplicationID}

	identity, err := s.resolveIdentity(ctx, docs)
	if err != nil {
		return nil, s.fail(log, "identity", err)
	}

	declared := docs.SlipNetSalary
	if len(docs.SalarySlipPDF) > 0 {
		slip, err := s.readSalarySlip(ctx, docs.SalarySlipPDF, identity)
		switch {
		case err == nil:
			report.SalarySlip = slip
			if declared == nil && slip.NetSalary.IsPositive() {
				net := slip.NetSalary
				declared = &net
			}
		case ctx.Err() != nil:
			return nil, s.fail(log, "salary_slip", contextError(ctx.Err()))
		default:
			log.Warn("salary slip could not be read", zap.Error(err))
		}
	}

	var (
		bank         *decimal.Decimal
		analysis     *statementAnalysis
		slipFallback bool
	)
	if len(docs.StatementPDF) > 0 {
		analysis, err = s.analyzeStatement(ctx, docs.StatementPDF, identity)
		switch {
		case err == nil:
			estimate, _ := s.identifier.EstimateSalary(analysis.candidates)
			bank = &estimate
		case errors.Is(err, dto.ErrNoSalaryTransactionsFound) && declared != nil:
			log.Info("no salary credits in statement, using salary slip")
			slipFallback = true
		default:
			return nil, s.fail(log, "statement", err)
		}
		report.Statement = analysis.summary
	}

	income, err := s.validator.Validate(bank, declared)
	if err != nil {
		return nil, s.fail(log, "validation", err)
	}
	if slipFallback {
		income.Notes = noteSlipNoSalaryCredit
	}
	report.Income = income
	report.CrossCheck = crossCheck(identity, report.SalarySlip, declared, analysis)

	log.Info("income extracted",
		zap.String("validated_salary", income.ValidatedSalary.StringFixed(2)),
		zap.Bool("is_valid", income.IsValid),
		zap.Float64("difference_pct", income.DifferencePct))
	return report, nil
}

// resolveIdentity prefers the typed identity and falls back to the Aadhaar image.
func (s *IncomeService) resolveIdentity(ctx context.Context, docs dto.IncomeDocuments) (dto.Identity, error) {
	if !docs.Identity.IsEmpty() || len(docs.AadhaarQR) == 0 {
		return docs.Identity, nil
	}
	id, err := s.identity.FromAadhaarImage(ctx, docs.AadhaarQR)
	if err != nil {
		var pe *dto.PipelineError
		if errors.As(err, &pe) {
			return dto.Identity{}, err
		}
		return dto.Identity{}, dto.ErrInsufficientIdentityData.With("identity could not be read from the Aadhaar image", err)
	}
	return id, nil
}

// open derives the password candidates and decrypts pdfData within the
// configured timeout. An identity that cannot produce passwords only matters
// when the document turns out to be encrypted.
func (s *IncomeService) open(ctx context.Context, pdfData []byte, identity dto.Identity) (*DecryptedDocument, error) {
	var candidates []string
	passwords, idErr := utils.DeriveStatementPasswords(identity)
	if idErr == nil {
		candidates = passwords.All()
		s.logger.Debug("password candidates derived",
			zap.String("primary_prefix", passwords.Prefix()),
			zap.Int("count", len(candidates)))
	}

	if s.decryptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.decryptTimeout)
		defer cancel()
	}

	doc, err := s.decryptor.Open(ctx, pdfData, candidates)
	if err != nil {
		if idErr != nil && errors.Is(err, dto.ErrDecryptionExhausted) {
			return nil, idErr
		}
		return nil, err
	}
	return doc, nil
}

func (s *IncomeService) analyzeStatement(ctx context.Context, pdfData []byte, identity dto.Identity) (*statementAnalysis, error) {
	doc, err := s.open(ctx, pdfData, identity)
	if err != nil {
		return nil, err
	}
	metrics.PasswordCandidateIndex.Observe(float64(doc.CandidateIndex))
	metrics.StatementTextSource.WithLabelValues(string(doc.Source)).Inc()

	if err := ctx.Err(); err != nil {
		return nil, contextError(err)
	}

	txs := s.parser.ParseStatement(doc.Text)
	credits := CreditTransactions(txs)

	analysis := &statementAnalysis{
		credits: credits,
		summary: &dto.StatementSummary{
			PasswordCandidateIndex: doc.CandidateIndex,
			TextSource:             doc.Source,
			TotalTransactions:      len(txs),
			CreditTransactions:     len(credits),
			TopCandidates:          []dto.SalaryCandidate{},
			ScoringVersion:         s.identifier.Version(),
		},
	}

	candidates, err := s.identifier.Identify(credits)
	if err != nil {
		return analysis, err
	}
	analysis.candidates = candidates
	analysis.summary.SalaryCandidates = len(candidates)
	analysis.summary.TopCandidates = candidates[:min(len(candidates), maxTopCandidates)]

	s.logger.Info("statement analyzed",
		zap.Int("candidate_index", doc.CandidateIndex),
		zap.String("text_source", string(doc.Source)),
		zap.Int("transactions", len(txs)),
		zap.Int("credits", len(credits)),
		zap.Int("salary_candidates", len(candidates)))
	return analysis, nil
}

func (s *IncomeService) readSalarySlip(ctx context.Context, pdfData []byte, identity dto.Identity) (*dto.SalarySlipData, error) {
	doc, err := s.open(ctx, pdfData, identity)
	if err != nil {
		return nil, err
	}
	slip := utils.ParseSalarySlip(doc.Text)
	if !slip.NetSalary.IsPositive() {
		return &slip, fmt.Errorf("no net salary found on salary slip")
	}
	return &slip, nil
}

// crossCheck compares the slip with the applicant and the statement credits.
func crossCheck(identity dto.Identity, slip *dto.SalarySlipData, declared *decimal.Decimal, analysis *statementAnalysis) dto.CrossCheckResult {
	result := dto.CrossCheckResult{Notes: []string{}}

	if slip != nil && slip.EmployeeName != "" && identity.FullName != "" {
		match := utils.NamesMatch(slip.EmployeeName, identity.FullName)
		result.NameMatch = &match
		if !match {
			result.Notes = append(result.Notes, fmt.Sprintf(
				"Salary slip employee name %q does not match applicant", slip.EmployeeName))
		}
	}

	if declared != nil && declared.IsPositive() && analysis != nil {
		found := false
		for _, tx := range analysis.credits {
			diff := tx.Amount.Sub(*declared).Abs()
			if diff.LessThanOrEqual(declared.Mul(salaryMatchTolerance)) {
				found = true
				break
			}
		}
		result.SalaryCreditFound = &found
		if !found {
			result.Notes = append(result.Notes, fmt.Sprintf(
				"No statement credit matches the declared net salary %s", declared.StringFixed(2)))
		}
	}

	return result
}

func (s *IncomeService) fail(log *zap.Logger, stage string, err error) error {
	code := "INTERNAL"
	var pe *dto.PipelineError
	if errors.As(err, &pe) {
		code = string(pe.Code)
	}
	metrics.PipelineErrorsTotal.WithLabelValues(stage, code).Inc()
	log.Warn("income pipeline failed", zap.String("stage", stage), zap.String("error_code", code), zap.Error(err))
	return err
}
