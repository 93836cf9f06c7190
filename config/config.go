package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	OCR       OCRConfig       `mapstructure:"ocr"`
	Decrypt   DecryptConfig   `mapstructure:"decrypt"`
	Statement StatementConfig `mapstructure:"statement"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	Income    IncomeConfig    `mapstructure:"income"`
	Policy    PolicyConfig    `mapstructure:"policy"`
}

type ServerConfig struct {
	Port        string `mapstructure:"port"`
	MaxUploadMB int64  `mapstructure:"max_upload_mb"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OCRConfig selects the engine used for image-only documents: "tesseract"
// runs in process, "paddle" calls a PaddleOCR serving endpoint.
type OCRConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Engine            string        `mapstructure:"engine"`
	TesseractDataPath string        `mapstructure:"tesseract_data_path"`
	Language          string        `mapstructure:"language"`
	PaddleURL         string        `mapstructure:"paddle_url"`
	PaddleTimeout     time.Duration `mapstructure:"paddle_timeout"`
}

type DecryptConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// StatementConfig holds the keyword rules used to read statement lines.
type StatementConfig struct {
	Version        string   `mapstructure:"version"`
	CreditKeywords []string `mapstructure:"credit_keywords"`
	DebitKeywords  []string `mapstructure:"debit_keywords"`
	SkipMarkers    []string `mapstructure:"skip_markers"`
}

// ScoringConfig holds salary detection weights. Changing any value must bump Version.
type ScoringConfig struct {
	Version              string   `mapstructure:"version"`
	HighKeywords         []string `mapstructure:"high_keywords"`
	HighWeight           float64  `mapstructure:"high_weight"`
	MediumKeywords       []string `mapstructure:"medium_keywords"`
	MediumWeight         float64  `mapstructure:"medium_weight"`
	BoosterKeywords      []string `mapstructure:"booster_keywords"`
	BoosterWeight        float64  `mapstructure:"booster_weight"`
	RecurrenceBoost      float64  `mapstructure:"recurrence_boost"`
	RecurrenceMinCount   int      `mapstructure:"recurrence_min_count"`
	RecurrenceTolerance  float64  `mapstructure:"recurrence_tolerance"`
	RecurrenceDays       int      `mapstructure:"recurrence_days"`
	RecurrenceSlackDays  int      `mapstructure:"recurrence_slack_days"`
	TopCandidatesForMean int      `mapstructure:"top_candidates_for_mean"`
}

type IncomeConfig struct {
	DiscrepancyThresholdPct float64 `mapstructure:"discrepancy_threshold_pct"`
}

// PolicyConfig carries the credit policy constants. Amounts are rupees, rates are % p.a.
type PolicyConfig struct {
	Version              string             `mapstructure:"version"`
	MinMonthlyIncome     float64            `mapstructure:"min_monthly_income"`
	MinCreditScore       int                `mapstructure:"min_credit_score"`
	ComfortCreditScore   int                `mapstructure:"comfort_credit_score"`
	MinAge               int                `mapstructure:"min_age"`
	MaxAge               int                `mapstructure:"max_age"`
	MaxFOIR              float64            `mapstructure:"max_foir"`
	BaseRate             float64            `mapstructure:"base_rate"`
	RiskScaleFactors     map[string]float64 `mapstructure:"risk_scale_factors"`
	MinApprovalAmount    float64            `mapstructure:"min_approval_amount"`
	MaxLoanAmount        float64            `mapstructure:"max_loan_amount"`
	IncomeClaimTolerance float64            `mapstructure:"income_claim_tolerance_pct"`
	MinEmploymentYears   map[string]float64 `mapstructure:"min_employment_years"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.max_upload_mb", 32)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("ocr.enabled", false)
	v.SetDefault("ocr.engine", "tesseract")
	v.SetDefault("ocr.tesseract_data_path", "/usr/share/tesseract-ocr/5/tessdata/")
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.paddle_url", "http://paddleocr:8866/predict/ocr_system")
	v.SetDefault("ocr.paddle_timeout", 30*time.Second)

	v.SetDefault("decrypt.timeout", 15*time.Second)

	v.SetDefault("statement.version", "statement-2024.1")
	v.SetDefault("statement.credit_keywords", []string{"CR", "CREDIT", "DEPOSIT", "RECEIVED"})
	v.SetDefault("statement.debit_keywords", []string{"DR", "DEBIT", "WITHDRAWAL", "PAID"})
	v.SetDefault("statement.skip_markers", []string{"B/F", "C/F", "BALANCE FORWARD", "BALANCE CARRIED", "OPENING BALANCE", "CLOSING BALANCE"})

	v.SetDefault("scoring.version", "salary-2024.1")
	v.SetDefault("scoring.high_keywords", []string{"salary", "payroll", "wages", "salary credit"})
	v.SetDefault("scoring.high_weight", 0.9)
	v.SetDefault("scoring.medium_keywords", []string{"sal", "pay", "compensation", "earnings"})
	v.SetDefault("scoring.medium_weight", 0.5)
	v.SetDefault("scoring.booster_keywords", []string{"monthly", "recurring", "employee", "staff"})
	v.SetDefault("scoring.booster_weight", 0.1)
	v.SetDefault("scoring.recurrence_boost", 0.15)
	v.SetDefault("scoring.recurrence_min_count", 3)
	v.SetDefault("scoring.recurrence_tolerance", 0.02)
	v.SetDefault("scoring.recurrence_days", 30)
	v.SetDefault("scoring.recurrence_slack_days", 5)
	v.SetDefault("scoring.top_candidates_for_mean", 3)

	v.SetDefault("income.discrepancy_threshold_pct", 15.0)

	v.SetDefault("policy.version", "credit-policy-2024.1")
	v.SetDefault("policy.min_monthly_income", 25000.0)
	v.SetDefault("policy.min_credit_score", 650)
	v.SetDefault("policy.comfort_credit_score", 700)
	v.SetDefault("policy.min_age", 21)
	v.SetDefault("policy.max_age", 65)
	v.SetDefault("policy.max_foir", 0.55)
	v.SetDefault("policy.base_rate", 12.0)
	v.SetDefault("policy.risk_scale_factors", map[string]float64{
		"excellent": 0.8,
		"good":      0.9,
		"fair":      1.0,
		"poor":      1.1,
	})
	v.SetDefault("policy.min_approval_amount", 10000.0)
	v.SetDefault("policy.max_loan_amount", 2000000.0)
	v.SetDefault("policy.income_claim_tolerance_pct", 15.0)
	v.SetDefault("policy.min_employment_years", map[string]float64{
		"government":       1,
		"private_mnc":      2,
		"private_domestic": 2,
		"self_employed":    3,
		"business":         3,
	})
}

// Default returns the configuration with every built-in default applied and no
// file or environment overrides.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config defaults do not decode: %v", err))
	}
	return &cfg
}

// LoadConfig reads config.yaml (if present), then .env and the process
// environment. Nested keys map to env vars by replacing dots with underscores,
// e.g. POLICY_MIN_CREDIT_SCORE.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// legacy variable names
	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("ocr.tesseract_data_path", "TESSDATA_PREFIX")
	_ = v.BindEnv("ocr.paddle_url", "PADDLEOCR_API_URL")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate rejects configurations that would make the policy or scoring
// behave nonsensically.
func (c *Config) Validate() error {
	if c.Decrypt.Timeout <= 0 {
		return fmt.Errorf("decrypt.timeout must be positive")
	}
	if c.OCR.Engine != "tesseract" && c.OCR.Engine != "paddle" {
		return fmt.Errorf("ocr.engine must be tesseract or paddle, got %q", c.OCR.Engine)
	}
	if c.Income.DiscrepancyThresholdPct < 0 {
		return fmt.Errorf("income.discrepancy_threshold_pct must not be negative")
	}
	if c.Policy.MaxFOIR <= 0 || c.Policy.MaxFOIR > 1 {
		return fmt.Errorf("policy.max_foir must be in (0, 1], got %v", c.Policy.MaxFOIR)
	}
	if c.Policy.MinMonthlyIncome <= 0 {
		return fmt.Errorf("policy.min_monthly_income must be positive, got %v", c.Policy.MinMonthlyIncome)
	}
	if c.Policy.MinAge > c.Policy.MaxAge {
		return fmt.Errorf("policy.min_age %d exceeds policy.max_age %d", c.Policy.MinAge, c.Policy.MaxAge)
	}
	if c.Policy.BaseRate < 0 {
		return fmt.Errorf("policy.base_rate must not be negative")
	}
	if len(c.Policy.RiskScaleFactors) == 0 {
		return fmt.Errorf("policy.risk_scale_factors must not be empty")
	}
	if c.Scoring.TopCandidatesForMean < 1 {
		return fmt.Errorf("scoring.top_candidates_for_mean must be at least 1")
	}
	if c.Scoring.RecurrenceMinCount < 2 {
		return fmt.Errorf("scoring.recurrence_min_count must be at least 2")
	}
	return nil
}
