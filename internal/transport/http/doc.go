// Package http serves the computed analysis results over a read-mostly
// JSON API. Results come from the most recent pipeline run; POST /api/run
// triggers a fresh one.
package http
