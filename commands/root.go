package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Aashish23092/income-underwriting/client"
	"github.com/Aashish23092/income-underwriting/config"
	"github.com/Aashish23092/income-underwriting/service"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "underwriter",
		Short: "Income extraction and credit underwriting service",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newEvaluateCommand())

	return rootCmd
}

// newUnderwritingService wires the pipeline shared by serve and evaluate.
func newUnderwritingService(cfg *config.Config, log *zap.Logger) *service.UnderwritingService {
	var ocr service.ImageTextExtractor
	if cfg.OCR.Enabled {
		switch cfg.OCR.Engine {
		case "paddle":
			ocr = client.NewPaddleClient(cfg.OCR, log)
		default:
			ocr = client.NewTesseractClient(cfg.OCR, log)
		}
	}

	income := service.NewIncomeService(cfg, service.NewPDFProcessor(), ocr, log)
	policy := service.NewPolicyEngine(cfg.Policy)
	return service.NewUnderwritingService(income, policy, log)
}
