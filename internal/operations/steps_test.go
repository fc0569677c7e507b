package operations_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanmerge/internal/config"
	apperrors "loanmerge/internal/errors"
	"loanmerge/internal/loader"
	"loanmerge/internal/operations"
	sharedtest "loanmerge/internal/shared/testutil"
)

const (
	loanDataCSV = "Company,Loan ID,Customer ID,Disbursement Amount\n" +
		"Acme,A-1,C1,\"$1,000.00\"\n" +
		"Acme,A-2,C2,$500\n"
	scheduleCSV   = "company,loan_id,customer_id,due_date\nAcme,A-1,C1,2024-01-31\n"
	historicalCSV = "company,loan_id,customer_id,true_total_payment\nAcme,A-1,C1,$900\nAcme,A-2,C2,$100\n"
	customerCSV   = "customer_id,name\nC1,Alice\nC2,Bob\n"
	collateralCSV = "loan_id,collateral_value\n"
	auxiliaryCSV  = "Company,Loan ID,Officer\nAcme,A-1,Zed\n"
)

// fixtureConfig writes the five inputs into a temp dir and points a config at
// them and at the auxiliary server.
func fixtureConfig(t *testing.T, auxURL string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	cfg := config.Default()
	cfg.Inputs.LoanData = write(config.DefaultLoanDataFile, loanDataCSV)
	cfg.Inputs.PaymentSchedule = write(config.DefaultPaymentScheduleFile, scheduleCSV)
	cfg.Inputs.HistoricalPayment = write(config.DefaultHistoricalPaymentFile, historicalCSV)
	cfg.Inputs.CustomerData = write(config.DefaultCustomerDataFile, customerCSV)
	cfg.Inputs.Collateral = write(config.DefaultCollateralFile, collateralCSV)
	cfg.Output.Path = filepath.Join(dir, "out", "merged.csv")
	cfg.Auxiliary.BaseURL = auxURL
	cfg.Analytics.Enabled = true
	cfg.Analytics.OutDir = filepath.Join(dir, "metrics")
	return cfg
}

func auxiliaryServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "csv", r.URL.Query().Get("format"))
		_, _ = w.Write([]byte(auxiliaryCSV))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func runMerge(t *testing.T, cfg *config.Config) (*operations.RunState, error) {
	t.Helper()
	logger, _ := sharedtest.NewTestLogger(t)

	fetcher, err := operations.NewFetcher(context.Background(), cfg.Auxiliary)
	require.NoError(t, err)
	registry, err := operations.NewMergeRegistry(cfg, fetcher, logger)
	require.NoError(t, err)

	state := operations.NewRunState("run-e2e")
	err = operations.NewPipeline(registry, operations.WithLogger(logger)).Run(context.Background(), state)
	return state, err
}

func TestMergePipelineEndToEnd(t *testing.T) {
	cfg := fixtureConfig(t, auxiliaryServer(t).URL)

	state, err := runMerge(t, cfg)
	require.NoError(t, err)

	data, err := os.ReadFile(cfg.Output.Path)
	require.NoError(t, err)
	assert.Equal(t,
		"company,loan_id,customer_id,disbursement_amount,due_date,true_total_payment,name,officer\n"+
			"Acme,A-1,C1,1000,2024-01-31,900,Alice,Zed\n"+
			"Acme,A-2,C2,500,,100,Bob,\n",
		string(data))

	assert.Equal(t, cfg.Output.Path, state.OutputPath)
	assert.Equal(t, "loan_data", state.MergeReport.Base)
	assert.Equal(t, []string{"collateral"}, state.MergeReport.Skipped)
	require.Len(t, state.MergeReport.Steps, 4)
	assert.Equal(t, "auxiliary", state.MergeReport.Steps[3].Table)
	assert.Equal(t, []string{"company", "loan_id"}, state.MergeReport.Steps[3].Keys)

	var ids []string
	for _, st := range state.Steps() {
		ids = append(ids, st.ID)
		assert.Equal(t, operations.StepStatusCompleted, st.GetStatus(), st.ID)
	}
	assert.Equal(t, []string{"load", "auxiliary", "clean", "merge", "metrics", "write"}, ids)
	assert.Equal(t, 2, state.GetStep("merge").GetRows())

	require.NotNil(t, state.Metrics)
	assert.Equal(t, []string{"C2"}, sharedtest.Column(t, state.Metrics.BelowThreshold, "customer_id"))
	assert.Equal(t, []string{"0.9", "0.2"}, sharedtest.Column(t, state.Metrics.RepaymentRates, "repayment_rate"))

	for _, name := range []string{"total_paid", "total_disbursed", "repayment_rate", "customers_below_threshold", "loans_per_prefix"} {
		assert.FileExists(t, filepath.Join(cfg.Analytics.OutDir, name+".csv"))
	}
	prefixes, err := os.ReadFile(filepath.Join(cfg.Analytics.OutDir, "loans_per_prefix.csv"))
	require.NoError(t, err)
	assert.Equal(t, "loan_prefix,loan_count,avg_loans_per_prefix\nA,2,2\n", string(prefixes))
}

func TestMergePipelineWithoutAuxiliary(t *testing.T) {
	cfg := fixtureConfig(t, "")
	cfg.Auxiliary.Enabled = false
	cfg.Analytics.Enabled = false

	state, err := runMerge(t, cfg)
	require.NoError(t, err)

	assert.Equal(t, operations.StepStatusSkipped, state.GetStep(operations.StepAuxiliary).GetStatus())
	assert.Nil(t, state.GetStep(operations.StepMetrics))
	assert.NotContains(t, state.Merged.Columns(), "officer")
	assert.Equal(t, 2, state.Merged.NumRows())
}

func TestMergePipelineMissingInput(t *testing.T) {
	cfg := fixtureConfig(t, auxiliaryServer(t).URL)
	require.NoError(t, os.Remove(cfg.Inputs.CustomerData))

	state, err := runMerge(t, cfg)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	assert.Equal(t, operations.RunStatusFailed, state.GetStatus())
	assert.NoFileExists(t, cfg.Output.Path)
}

func TestMergePipelineMetricsFailureWritesNothing(t *testing.T) {
	cfg := fixtureConfig(t, auxiliaryServer(t).URL)
	require.NoError(t, os.WriteFile(cfg.Inputs.HistoricalPayment,
		[]byte("company,loan_id,customer_id,amount_due\nAcme,A-1,C1,$900\n"), 0o644))

	state, err := runMerge(t, cfg)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeMissingColumn))
	assert.Contains(t, err.Error(), "step metrics failed")
	assert.Equal(t, operations.StepStatusFailed, state.GetStep(operations.StepMetrics).GetStatus())
	assert.Equal(t, operations.StepStatusPending, state.GetStep(operations.StepWrite).GetStatus())
	assert.Empty(t, state.OutputPath)
	assert.NoFileExists(t, cfg.Output.Path)
	assert.NoDirExists(t, cfg.Analytics.OutDir)
}

func TestMergePipelineReportFailureRemovesOutput(t *testing.T) {
	cfg := fixtureConfig(t, auxiliaryServer(t).URL)
	blocker := filepath.Join(filepath.Dir(cfg.Inputs.LoanData), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	cfg.Analytics.OutDir = filepath.Join(blocker, "metrics")

	state, err := runMerge(t, cfg)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
	assert.Equal(t, operations.StepStatusCompleted, state.GetStep(operations.StepMetrics).GetStatus())
	assert.Equal(t, operations.StepStatusFailed, state.GetStep(operations.StepWrite).GetStatus())
	assert.Equal(t, operations.RunStatusFailed, state.GetStatus())
	assert.NoFileExists(t, cfg.Output.Path)
}

func TestMergePipelineAuxiliaryFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := fixtureConfig(t, srv.URL)
	state, err := runMerge(t, cfg)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNetwork))
	assert.Equal(t, operations.StepStatusFailed, state.GetStep(operations.StepAuxiliary).GetStatus())
	assert.Equal(t, operations.StepStatusPending, state.GetStep(operations.StepMerge).GetStatus())
	assert.NoFileExists(t, cfg.Output.Path)
}

func TestNewFetcher(t *testing.T) {
	aux := config.Default().Auxiliary

	f, err := operations.NewFetcher(context.Background(), aux)
	require.NoError(t, err)
	assert.IsType(t, &loader.CSVExportFetcher{}, f)

	aux.APIKey = "key"
	f, err = operations.NewFetcher(context.Background(), aux)
	require.NoError(t, err)
	assert.IsType(t, &loader.SheetsFetcher{}, f)

	aux.Enabled = false
	f, err = operations.NewFetcher(context.Background(), aux)
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestMetricsStepSkipsEmptyMerge(t *testing.T) {
	step := operations.NewMetricsStep(0.8)
	state := operations.NewRunState("run-metrics")

	err := step.Execute(context.Background(), state)
	reason, ok := operations.IsSkip(err)
	assert.True(t, ok)
	assert.Equal(t, "merged table is empty", reason)
}
