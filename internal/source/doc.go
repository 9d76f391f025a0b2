// Package source fetches the raw CSV files the timing engine consumes.
//
// Source is the boundary: List returns the available *.csv files and Fetch
// returns one file's content. Two implementations exist:
//   - Dir reads a local directory; a missing directory lists as empty
//   - GitHub reads a directory through the GitHub contents API; a 404 lists as
//     empty and file content is base64-decoded
//
// FetchAll materialises every listed file. A listing error aborts the batch and is
// returned; a single file that fails to fetch is reported as a skipped
// timing.FileDiagnostic and the rest of the batch continues.
//
// WatchDir calls back, debounced, whenever a *.csv file in a directory changes.
package source
