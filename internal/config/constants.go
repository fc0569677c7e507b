package config

import "time"

// Application constants
const (
	AppName    = "loanmerge"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable, e.g.
	// LOANMERGE_OUTPUT_PATH.
	EnvPrefix = "LOANMERGE"
)

// Logical table names, in declared load order.
const (
	TableLoanData          = "loan_data"
	TablePaymentSchedule   = "payment_schedule"
	TableHistoricalPayment = "historical_payment"
	TableCustomerData      = "customer_data"
	TableCollateral        = "collateral"
	TableAuxiliary         = "auxiliary"
)

// Default input and output locations.
const (
	DefaultLoanDataFile          = "Loan Data (2).csv"
	DefaultPaymentScheduleFile   = "Payment Schedule (2).csv"
	DefaultHistoricalPaymentFile = "Historical Real Payment (2).csv"
	DefaultCustomerDataFile      = "Customer Data (2).csv"
	DefaultCollateralFile        = "Untitled (4).csv"
	DefaultOutputFile            = "merged.csv"
)

// Remote auxiliary sheet.
const (
	DefaultAuxiliarySheetID = "15FkuqNP-egeLAcMlkp33BpizsOv8hRAJD7m-EXJma-8"
	DefaultAuxiliaryGID     = "0"
	DefaultHTTPTimeout      = 30 * time.Second
)

// Log and analytics defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultThreshold = 0.8
)
