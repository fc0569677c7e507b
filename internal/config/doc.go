// Package config loads the loanmerge configuration.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Command-line flags (applied by the CLI after Load)
//	2. Environment variables
//	3. A YAML file (--config, or loanmerge.yaml / configs/loanmerge.yaml)
//	4. Default values
//
// # Environment Variables
//
// All environment variables follow the pattern LOANMERGE_<SECTION>_<FIELD>:
//
//	LOANMERGE_LOGGING_LEVEL=debug
//	LOANMERGE_OUTPUT_PATH=out/merged.parquet
//	LOANMERGE_AUXILIARY_ENABLED=false
//	LOANMERGE_AUXILIARY_TIMEOUT=10s
//	LOANMERGE_CLEANING_MONETARY=disbursement_amount,true_total_payment
//
// # Validation
//
// Load validates the result with struct tags and returns a VALIDATION error
// naming every offending field.
package config
