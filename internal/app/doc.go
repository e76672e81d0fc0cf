// Package app wires the pipeline stages together: load raw extracts,
// normalize, trim to the target regions, deflate against the price index,
// aggregate, and export. Both the command-line pipeline and the results
// server run through the same Runner.
package app
