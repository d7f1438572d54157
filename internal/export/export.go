// Package export renders job records as CSV, XLSX or JSON.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"remotejobs-engine/internal/domain"
)

type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
	JSON Format = "json"
)

// Formats lists every supported format in display order.
var Formats = []Format{CSV, XLSX, JSON}

var ErrUnknownFormat = errors.New("unknown export format")

// tagSeparator joins tags in tabular exports.
const tagSeparator = ", "

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case CSV, XLSX, JSON:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

func (f Format) ContentType() string {
	switch f {
	case CSV:
		return "text/csv; charset=utf-8"
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case JSON:
		return "application/json"
	}
	return "application/octet-stream"
}

// FileName is the default download name for f.
func (f Format) FileName() string {
	return "jobs." + string(f)
}

// ContentType and FileName are package-level shorthands for the Format methods.
func ContentType(f Format) string { return f.ContentType() }
func FileName(f Format) string    { return f.FileName() }

// Write renders jobs to w. An empty list still produces the header (or "[]").
func Write(w io.Writer, f Format, jobs []domain.JobRecord) error {
	switch f {
	case CSV:
		return writeCSV(w, jobs)
	case XLSX:
		return writeXLSX(w, jobs)
	case JSON:
		return writeJSON(w, jobs)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
}

// row is the tabular projection shared by CSV and XLSX.
func row(j domain.JobRecord) []string {
	return []string{j.Title, j.Company, strings.Join(j.Tags, tagSeparator), j.URL}
}
