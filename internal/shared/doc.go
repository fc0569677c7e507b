// Package shared holds helpers used by more than one package.
//
// The testutil subpackage provides a buffered slog handler for asserting on
// log output and small builders for table fixtures. It must only be imported
// from _test.go files.
package shared
