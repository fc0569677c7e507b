// Package loader reads the pipeline inputs: the local loan-book files and the
// remote auxiliary spreadsheet.
//
// Local files are checked for existence in declared order before any of them
// is parsed, so a missing file fails fast with a NOT_FOUND error naming it.
// Parsing fans out with errgroup and keeps the declared order in the result.
//
// The auxiliary sheet is fetched either through its public CSV export link
// (CSVExportFetcher) or through the Sheets v4 API (SheetsFetcher). Both are
// bounded by a timeout and the caller's context and are never retried.
package loader
