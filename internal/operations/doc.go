// Package operations runs the per-station analysis.
//
// Each station is processed by an ordered list of Steps held in a Registry:
// assemble, features, regress and export. A Runner executes the stations as
// independent jobs with bounded concurrency; a failing station is recorded in
// the run Manifest and, unless fail-fast is configured, does not stop the
// others. Every step runs in its own span and feeds the step duration
// histogram.
//
// The package also hosts the venue normalization flow shared by the scraper
// and normalize commands.
package operations
