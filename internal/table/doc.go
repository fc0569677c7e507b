// Package table holds the in-memory tabular model shared by the loader, the
// cleaners, the merge engine and the analytics.
//
// A Table is an ordered list of unique column names plus rows of loosely
// typed Values. A Value is either missing, a string, a number or a date. The
// missing marker is distinct from every real value: it renders as an empty
// cell in output files, stringifies as "nan" before re-parsing, and only
// matches another missing value when used as a join or group key.
//
// Delimited text is read with ReadCSV, which treats the usual spreadsheet
// NA spellings ("", "NA", "#N/A", "null", ...) as missing.
package table
