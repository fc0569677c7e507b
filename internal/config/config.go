package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"loanmerge/internal/cleaning"
	apperrors "loanmerge/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" split_words:"true"`
	Inputs    InputsConfig    `yaml:"inputs" split_words:"true"`
	Auxiliary AuxiliaryConfig `yaml:"auxiliary" split_words:"true"`
	Output    OutputConfig    `yaml:"output" split_words:"true"`
	Analytics AnalyticsConfig `yaml:"analytics" split_words:"true"`
	Cleaning  cleaning.Rules  `yaml:"cleaning" split_words:"true"`
	Telemetry TelemetryConfig `yaml:"telemetry" split_words:"true"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" split_words:"true" validate:"oneof=debug info warn error"`
	Format      string `yaml:"format" split_words:"true" validate:"oneof=json text"`
	Output      string `yaml:"output" split_words:"true" validate:"oneof=console file both"`
	FilePath    string `yaml:"file_path" split_words:"true" validate:"required_unless=Output console"`
	Development bool   `yaml:"development" split_words:"true"`
}

// InputsConfig holds the paths of the five local input files.
type InputsConfig struct {
	LoanData          string `yaml:"loan_data" split_words:"true" validate:"required"`
	PaymentSchedule   string `yaml:"payment_schedule" split_words:"true" validate:"required"`
	HistoricalPayment string `yaml:"historical_payment" split_words:"true" validate:"required"`
	CustomerData      string `yaml:"customer_data" split_words:"true" validate:"required"`
	Collateral        string `yaml:"collateral" split_words:"true" validate:"required"`
}

// InputFile is one local input in declared order.
type InputFile struct {
	Name string
	Path string
}

// Files lists the inputs in declared order under their logical names.
func (i InputsConfig) Files() []InputFile {
	return []InputFile{
		{Name: TableLoanData, Path: i.LoanData},
		{Name: TablePaymentSchedule, Path: i.PaymentSchedule},
		{Name: TableHistoricalPayment, Path: i.HistoricalPayment},
		{Name: TableCustomerData, Path: i.CustomerData},
		{Name: TableCollateral, Path: i.Collateral},
	}
}

// AuxiliaryConfig controls the remote auxiliary sheet.
type AuxiliaryConfig struct {
	Enabled         bool          `yaml:"enabled" split_words:"true"`
	SheetID         string        `yaml:"sheet_id" split_words:"true" validate:"required_if=Enabled true"`
	GID             string        `yaml:"gid" split_words:"true" validate:"numeric"`
	Timeout         time.Duration `yaml:"timeout" split_words:"true" validate:"gt=0"`
	BaseURL         string        `yaml:"base_url" split_words:"true" validate:"omitempty,url"`
	APIKey          string        `yaml:"api_key" split_words:"true"`
	CredentialsFile string        `yaml:"credentials_file" split_words:"true"`
}

// UseSheetsAPI reports whether the Sheets API should be used instead of the
// public CSV export link.
func (a AuxiliaryConfig) UseSheetsAPI() bool {
	return a.APIKey != "" || a.CredentialsFile != ""
}

// OutputConfig controls the merged output file.
type OutputConfig struct {
	Path      string `yaml:"path" split_words:"true" validate:"required"`
	BOMPrefix bool   `yaml:"bom_prefix" split_words:"true"`
}

// AnalyticsConfig controls the metrics step.
type AnalyticsConfig struct {
	Enabled   bool    `yaml:"enabled" split_words:"true"`
	Threshold float64 `yaml:"threshold" split_words:"true" validate:"gte=0"`
	OutDir    string  `yaml:"out_dir" split_words:"true"`
}

// TelemetryConfig controls tracing and the metrics textfile.
type TelemetryConfig struct {
	ServiceName   string `yaml:"service_name" split_words:"true" validate:"required"`
	TraceExporter string `yaml:"trace_exporter" split_words:"true" validate:"oneof=none stdout"`
	MetricsFile   string `yaml:"metrics_file" split_words:"true"`
}

// Load builds the configuration from defaults, then the YAML file at path
// (when path is empty the usual locations are searched), then LOANMERGE_*
// environment variables. Later sources win.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("failed to load config file %s", path), err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg. Keys absent from the file
// keep their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

// Validate checks the configuration and returns a VALIDATION error listing
// every offending field.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewConfigError("config validation failed", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, formatValidationError(fe))
	}
	return apperrors.NewAppValidationError("invalid configuration: "+strings.Join(msgs, "; ")).
		WithContext("fields", len(verrs))
}

// formatValidationError formats validation error messages
func formatValidationError(err validator.FieldError) string {
	field := err.Namespace()
	param := err.Param()

	switch err.Tag() {
	case "required", "required_if", "required_unless":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "numeric":
		return fmt.Sprintf("%s must be numeric", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// getConfigFilePath returns the first config file found in the usual
// locations, or "" when there is none.
func getConfigFilePath() string {
	locations := []string{
		"loanmerge.yaml",
		"configs/loanmerge.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   "console",
			FilePath: "logs/loanmerge.log",
		},
		Inputs: InputsConfig{
			LoanData:          DefaultLoanDataFile,
			PaymentSchedule:   DefaultPaymentScheduleFile,
			HistoricalPayment: DefaultHistoricalPaymentFile,
			CustomerData:      DefaultCustomerDataFile,
			Collateral:        DefaultCollateralFile,
		},
		Auxiliary: AuxiliaryConfig{
			Enabled: true,
			SheetID: DefaultAuxiliarySheetID,
			GID:     DefaultAuxiliaryGID,
			Timeout: DefaultHTTPTimeout,
		},
		Output: OutputConfig{
			Path: DefaultOutputFile,
		},
		Analytics: AnalyticsConfig{
			Threshold: DefaultThreshold,
		},
		Cleaning: cleaning.DefaultRules(),
		Telemetry: TelemetryConfig{
			ServiceName:   AppName,
			TraceExporter: "none",
		},
	}
}
