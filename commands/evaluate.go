package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Aashish23092/income-underwriting/config"
	"github.com/Aashish23092/income-underwriting/dto"
	"github.com/Aashish23092/income-underwriting/logger"
)

type evaluateOptions struct {
	applicationID string
	statement     string
	salarySlip    string
	aadhaarQR     string
	name          string
	dob           string
	slipNetSalary string
	profile       string
}

func newEvaluateCommand() *cobra.Command {
	opts := &evaluateOptions{}

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run the pipeline on local files and print the result as JSON",
		Long: `Extract income from a bank statement and/or salary slip on disk.
With --profile the credit policy is applied as well and the decision is printed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			return runEvaluate(cmd, cfg, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.applicationID, "application-id", "local", "application identifier")
	f.StringVar(&opts.statement, "statement", "", "path to the bank statement PDF")
	f.StringVar(&opts.salarySlip, "slip", "", "path to the salary slip PDF")
	f.StringVar(&opts.aadhaarQR, "aadhaar-qr", "", "path to an Aadhaar QR image, used when --name is empty")
	f.StringVar(&opts.name, "name", "", "applicant full name")
	f.StringVar(&opts.dob, "dob", "", "applicant date of birth (DD/MM/YYYY)")
	f.StringVar(&opts.slipNetSalary, "slip-net-salary", "", "declared net monthly salary")
	f.StringVar(&opts.profile, "profile", "", "path to an application_profile JSON file")

	return cmd
}

func runEvaluate(cmd *cobra.Command, cfg *config.Config, opts *evaluateOptions) error {
	log := logger.New(cfg.Log.Level, "console")
	defer log.Sync() //nolint:errcheck

	docs := dto.IncomeDocuments{
		ApplicationID: opts.applicationID,
		Identity:      dto.Identity{FullName: opts.name, DateOfBirth: opts.dob},
	}

	var err error
	if docs.StatementPDF, err = readOptionalFile(opts.statement); err != nil {
		return err
	}
	if docs.SalarySlipPDF, err = readOptionalFile(opts.salarySlip); err != nil {
		return err
	}
	if docs.AadhaarQR, err = readOptionalFile(opts.aadhaarQR); err != nil {
		return err
	}
	if opts.slipNetSalary != "" {
		v, err := decimal.NewFromString(opts.slipNetSalary)
		if err != nil {
			return fmt.Errorf("invalid --slip-net-salary: %w", err)
		}
		docs.SlipNetSalary = &v
	}

	svc := newUnderwritingService(cfg, log)
	ctx := cmd.Context()

	var result any
	if opts.profile == "" {
		result, err = svc.ExtractIncome(ctx, docs)
	} else {
		var profile dto.ApplicantProfile
		raw, readErr := os.ReadFile(opts.profile)
		if readErr != nil {
			return fmt.Errorf("failed to read profile: %w", readErr)
		}
		if err := json.Unmarshal(raw, &profile); err != nil {
			return fmt.Errorf("invalid profile JSON: %w", err)
		}
		result, err = svc.Evaluate(ctx, dto.UnderwritingInput{IncomeDocuments: docs, Profile: profile})
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func readOptionalFile(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
