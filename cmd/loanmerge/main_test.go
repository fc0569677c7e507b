package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "loanmerge/internal/errors"
)

func writeInputs(t *testing.T) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"loan_data":          "Company,Loan ID,Customer ID,Disbursement Amount\nAcme,A-1,C1,$1000\nAcme,B-7,C2,$400\n",
		"payment_schedule":   "company,loan_id,customer_id,due_date\nAcme,A-1,C1,2024-02-29\n",
		"historical_payment": "company,loan_id,customer_id,true_total_payment\nAcme,A-1,C1,$1000\nAcme,B-7,C2,$100\n",
		"customer_data":      "customer_id,name\nC1,Alice\n",
		"collateral":         "company,loan_id,collateral_value\nAcme,B-7,\"$2,500\"\n",
	}

	var args []string
	for flag, content := range files {
		path := filepath.Join(dir, flag+".csv")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		args = append(args, "--"+flag, path)
	}
	return dir, args
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestMergeCommand(t *testing.T) {
	dir, args := writeInputs(t)
	output := filepath.Join(dir, "merged.csv")

	stdout, stderr, err := execute(t, append(args, "--skip-auxiliary", "--output", output)...)
	require.NoError(t, err, stderr)
	assert.Equal(t, "Merged data saved to "+output+"\n", stdout)
	assert.Contains(t, stderr, `"msg":"pipeline finished"`)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "company,loan_id,customer_id,disbursement_amount,due_date,true_total_payment,name,collateral_value", lines[0])
	assert.Equal(t, "Acme,A-1,C1,1000,2024-02-29,1000,Alice,", lines[1])
	assert.Equal(t, "Acme,B-7,C2,400,,100,,2500", lines[2])
}

func TestMergeCommandXLSXOutput(t *testing.T) {
	dir, args := writeInputs(t)
	output := filepath.Join(dir, "out", "merged.xlsx")

	_, stderr, err := execute(t, append(args, "--skip-auxiliary", "--output", output)...)
	require.NoError(t, err, stderr)
	assert.FileExists(t, output)
}

func TestMergeCommandMissingFile(t *testing.T) {
	dir, args := writeInputs(t)
	args = append(args, "--skip-auxiliary", "--customer_data", filepath.Join(dir, "absent.csv"))

	_, _, err := execute(t, args...)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	assert.Contains(t, err.Error(), "absent.csv")
	assert.NoFileExists(t, filepath.Join(dir, "merged.csv"))
}

func TestMergeCommandRejectsArgs(t *testing.T) {
	_, _, err := execute(t, "extra")
	assert.Error(t, err)
}

func TestMetricsCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "merged.csv")
	require.NoError(t, os.WriteFile(input, []byte(
		"customer_id,loan_id,disbursement_amount,true_total_payment\n"+
			"C1,A-1,$100,$90\n"+
			"C1,A-2,$100,$90\n"+
			"C2,B-1,$200,$50\n"), 0o644))
	outDir := filepath.Join(dir, "metrics")

	stdout, stderr, err := execute(t, "metrics", "--input", input, "--threshold", "0.5", "--out-dir", outDir)
	require.NoError(t, err, stderr)

	assert.Contains(t, stdout, "repayment_rate (2 rows)")
	assert.Contains(t, stdout, "customers_below_threshold (1 rows)")
	assert.Contains(t, stdout, "Metrics saved to "+outDir)

	below, err := os.ReadFile(filepath.Join(outDir, "customers_below_threshold.csv"))
	require.NoError(t, err)
	assert.Equal(t,
		"customer_id,total_amount_paid,total_amount_disbursed,repayment_rate\nC2,50,200,0.25\n",
		string(below))
}

func TestMetricsCommandRequiresInput(t *testing.T) {
	_, _, err := execute(t, "metrics")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "input" not set`)
}

func TestMetricsCommandMissingColumn(t *testing.T) {
	input := filepath.Join(t.TempDir(), "t.csv")
	require.NoError(t, os.WriteFile(input, []byte("loan_id\nA-1\n"), 0o644))

	_, _, err := execute(t, "metrics", "--input", input)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeMissingColumn))
}
