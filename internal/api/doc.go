// Package api implements the REST API of pccalc-server.
//
// All endpoints live under /api/v1/ and return JSON unless an export format
// says otherwise:
//
//	GET  /api/v1/health           run state summary, always 200
//	GET  /api/v1/report           latest report, successful or not
//	GET  /api/v1/sections         sections of the current report
//	GET  /api/v1/bibs             bib records in report order
//	GET  /api/v1/bibs/{bib}       one bib record
//	GET  /api/v1/overlaps         overlapping file pairs
//	GET  /api/v1/duplicates       duplicate crossings
//	GET  /api/v1/diagnostics      per-file diagnostics
//	GET  /api/v1/alerts           firing and recently resolved alerts
//	GET  /api/v1/export?format=   json | csv | parquet | table
//	POST /api/v1/compute          recompute now and return the report
//
// The derived views serve the current report: the latest one when it
// succeeded, otherwise the last successful one. They answer 404 until a
// report exists.
package api
