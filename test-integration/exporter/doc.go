// Package integration provides end-to-end tests of the catalog exporter against a
// real PostgreSQL server: full and delta runs, side tables, the export run
// records and the manifest.
package integration
