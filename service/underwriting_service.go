package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Aashish23092/income-underwriting/dto"
	"github.com/Aashish23092/income-underwriting/logger"
	"github.com/Aashish23092/income-underwriting/metrics"
)

// UnderwritingService runs the income pipeline and then the credit policy.
type UnderwritingService struct {
	income *IncomeService
	policy *PolicyEngine
	logger *zap.Logger
}

func NewUnderwritingService(income *IncomeService, policy *PolicyEngine, log *zap.Logger) *UnderwritingService {
	return &UnderwritingService{
		income: income,
		policy: policy,
		logger: logger.OrNop(log),
	}
}

// ExtractIncome runs only the income half of the pipeline.
func (s *UnderwritingService) ExtractIncome(ctx context.Context, docs dto.IncomeDocuments) (*dto.IncomeReport, error) {
	return s.income.ExtractIncome(ctx, docs)
}

// Evaluate extracts income from the documents and decides on the application.
func (s *UnderwritingService) Evaluate(ctx context.Context, in dto.UnderwritingInput) (*dto.UnderwritingResponse, error) {
	report, err := s.income.ExtractIncome(ctx, in.IncomeDocuments)
	if err != nil {
		return nil, err
	}

	decision := s.decide(in.ApplicationID, report.Income, in.Profile)
	return &dto.UnderwritingResponse{
		IncomeReport: *report,
		Decision:     decision,
	}, nil
}

// EvaluatePolicy decides on an income that was verified elsewhere.
func (s *UnderwritingService) EvaluatePolicy(req dto.PolicyRequest) dto.PolicyDecision {
	return s.decide(req.ApplicationID, req.Estimate(), req.ApplicationProfile)
}

func (s *UnderwritingService) decide(applicationID string, income dto.IncomeEstimate, profile dto.ApplicantProfile) dto.PolicyDecision {
	start := time.Now()
	decision := s.policy.Evaluate(income, profile)
	metrics.PipelineDuration.WithLabelValues("policy").Observe(time.Since(start).Seconds())
	metrics.DecisionsTotal.WithLabelValues(string(decision.Decision), decision.PolicyVersion).Inc()

	s.logger.Info("policy decision",
		zap.String("application_id", applicationID),
		zap.String("decision_id", decision.DecisionID),
		zap.String("decision", string(decision.Decision)),
		zap.String("approved_amount", decision.ApprovedAmount.StringFixed(0)),
		zap.Int("conditions", len(decision.Conditions)),
		zap.Strings("reasons", decision.Reasons))
	return decision
}
