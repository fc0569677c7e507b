package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"loanmerge/internal/analytics"
	"loanmerge/internal/cleaning"
	"loanmerge/internal/config"
	"loanmerge/internal/exporter"
	"loanmerge/internal/infrastructure"
	"loanmerge/internal/loader"
	"loanmerge/internal/operations"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// inputFlags maps each input flag to the config field it overrides.
func inputFlags(cfg *config.Config) map[string]*string {
	return map[string]*string{
		config.TableLoanData:          &cfg.Inputs.LoanData,
		config.TablePaymentSchedule:   &cfg.Inputs.PaymentSchedule,
		config.TableHistoricalPayment: &cfg.Inputs.HistoricalPayment,
		config.TableCustomerData:      &cfg.Inputs.CustomerData,
		config.TableCollateral:        &cfg.Inputs.Collateral,
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          config.AppName,
		Short:        "Merge the loan book CSV files into one table",
		Version:      config.AppVersion,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runMerge,
	}

	flags := cmd.Flags()
	flags.String("output", config.DefaultOutputFile, "output file (.csv, .xlsx or .parquet)")
	flags.String(config.TableLoanData, config.DefaultLoanDataFile, "loan data file")
	flags.String(config.TablePaymentSchedule, config.DefaultPaymentScheduleFile, "payment schedule file")
	flags.String(config.TableHistoricalPayment, config.DefaultHistoricalPaymentFile, "historical payment file")
	flags.String(config.TableCustomerData, config.DefaultCustomerDataFile, "customer data file")
	flags.String(config.TableCollateral, config.DefaultCollateralFile, "collateral file")
	flags.Bool("skip-auxiliary", false, "do not fetch the auxiliary sheet")
	cmd.PersistentFlags().String("config", "", "config file (default loanmerge.yaml or configs/loanmerge.yaml)")

	cmd.AddCommand(newMetricsCmd())
	return cmd
}

// loadConfig reads the config file named by --config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// session holds the process-wide logger and telemetry of one command run.
type session struct {
	logger    *slog.Logger
	providers *infrastructure.OTelProviders
	closeLog  func() error
}

func openSession(cfg *config.Config, stderr io.Writer) (*session, error) {
	logger, closeLog, err := infrastructure.NewLogger(cfg.Logging, stderr)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	providers, err := infrastructure.InitializeOTel(&infrastructure.OTelConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: config.AppVersion,
		TraceExporter:  cfg.Telemetry.TraceExporter,
		TraceWriter:    stderr,
		MetricsFile:    cfg.Telemetry.MetricsFile,
	}, logger)
	if err != nil {
		_ = closeLog()
		return nil, err
	}
	return &session{logger: logger, providers: providers, closeLog: closeLog}, nil
}

func (s *session) close(ctx context.Context) {
	if err := s.providers.Shutdown(ctx); err != nil {
		s.logger.WarnContext(ctx, "telemetry shutdown failed", slog.String("error", err.Error()))
	}
	_ = s.closeLog()
}

func runMerge(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output.Path, _ = flags.GetString("output")
	}
	for name, field := range inputFlags(cfg) {
		if flags.Changed(name) {
			*field, _ = flags.GetString(name)
		}
	}
	if skip, _ := flags.GetBool("skip-auxiliary"); skip {
		cfg.Auxiliary.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	sess, err := openSession(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer sess.close(ctx)

	fetcher, err := operations.NewFetcher(ctx, cfg.Auxiliary)
	if err != nil {
		return err
	}
	registry, err := operations.NewMergeRegistry(cfg, fetcher, sess.logger)
	if err != nil {
		return err
	}

	pipeline := operations.NewPipeline(registry,
		operations.WithLogger(sess.logger),
		operations.WithTelemetry(sess.providers.Tracer, sess.providers.Metrics),
	)
	state := operations.NewRunState(infrastructure.GenerateRunID())
	if err := pipeline.Run(ctx, state); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Merged data saved to %s\n", state.OutputPath)
	return nil
}

func newMetricsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Compute repayment metrics for a table",
		Args:  cobra.NoArgs,
		RunE:  runMetrics,
	}

	flags := cmd.Flags()
	flags.String("input", "", "table to analyze (.csv or .xlsx)")
	flags.Float64("threshold", analytics.DefaultThreshold, "repayment rate below which customers are listed")
	flags.String("out-dir", "", "directory to write each metric table as CSV")
	flags.Int("max-rows", 20, "rows printed per table")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runMetrics(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	input, _ := flags.GetString("input")
	if flags.Changed("threshold") {
		cfg.Analytics.Threshold, _ = flags.GetFloat64("threshold")
	}
	if flags.Changed("out-dir") {
		cfg.Analytics.OutDir, _ = flags.GetString("out-dir")
	}
	maxRows, _ := flags.GetInt("max-rows")
	if err := cfg.Validate(); err != nil {
		return err
	}

	sess, err := openSession(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer sess.close(ctx)

	ctx = infrastructure.EnsureRunID(ctx)
	name := baseSansExt(input)
	tables, err := loader.LoadTables(ctx, sess.logger, []loader.Source{{Name: name, Path: input}})
	if err != nil {
		return err
	}
	t := cleaning.ApplyBasic(cleaning.StandardizeColumns(tables[0].Table), cfg.Cleaning)

	report, err := analytics.BuildReport(t, cfg.Analytics.Threshold)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, nt := range report.Tables() {
		if err := exporter.RenderTable(out, nt.Name, nt.Table, maxRows); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}

	if cfg.Analytics.OutDir != "" {
		writer := exporter.NewWriter(sess.logger, exporter.WriteOptions{BOMPrefix: cfg.Output.BOMPrefix})
		if err := operations.WriteReport(ctx, writer, cfg.Analytics.OutDir, report); err != nil {
			return err
		}
		fmt.Fprintf(out, "Metrics saved to %s\n", cfg.Analytics.OutDir)
	}
	return nil
}

func baseSansExt(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
