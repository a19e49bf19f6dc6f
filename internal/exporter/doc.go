// Package exporter renders the quarter-grouped release document to
// downloadable formats: a styled Excel workbook and a flat CSV file.
package exporter
