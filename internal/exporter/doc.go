// Package exporter writes analysis results to disk as CSV and Excel
// tables. Output files are never overwritten: when a target path already
// exists a version suffix is appended to the file name.
package exporter
