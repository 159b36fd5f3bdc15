// Package export writes every page of a list to a file or a spreadsheet.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/hostelctl/hostelctl/internal/listing"
	"github.com/hostelctl/hostelctl/internal/model"
)

// Format selects the export encoding.
type Format string

// Supported formats.
const (
	FormatCSV    Format = "csv"
	FormatJSON   Format = "json"
	FormatSheets Format = "sheets"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatSheets:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want csv, json or sheets)", s)
	}
}

// SheetWriter writes a table into a spreadsheet tab.
type SheetWriter interface {
	WriteTable(ctx context.Context, title string, headers []string, rows [][]string) (string, error)
}

// ProgressFunc is told how many items are loaded out of the server total.
type ProgressFunc func(loaded, total int)

// Table is a rendered list.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Options configures Run.
type Options struct {
	Out      io.Writer
	Sheets   SheetWriter
	Progress ProgressFunc
	Format   Format
}

// Result describes a finished export.
type Result struct {
	SpreadsheetID string
	// Fetched counts records received before any client-side filtering.
	Fetched int
	Rows    int
}

// Run loads every page through ctrl and writes the result.
func Run[T model.Entity](ctx context.Context, screen listing.Screen[T], ctrl *listing.Controller[T], opts Options) (Result, error) {
	items, err := Drain(ctx, ctrl, opts.Progress)
	if err != nil {
		return Result{}, err
	}

	res := Result{Rows: len(items), Fetched: ctrl.Snapshot().Fetched}

	switch opts.Format {
	case FormatCSV:
		err = WriteCSV(opts.Out, NewTable(screen, items))
	case FormatJSON:
		err = WriteJSON(opts.Out, items)
	case FormatSheets:
		if opts.Sheets == nil {
			return res, fmt.Errorf("sheets export requires a sheet writer")
		}
		t := NewTable(screen, items)
		res.SpreadsheetID, err = opts.Sheets.WriteTable(ctx, t.Title, t.Headers, t.Rows)
	default:
		return res, fmt.Errorf("unknown export format %q", opts.Format)
	}
	if err != nil {
		return res, fmt.Errorf("failed to write %s export: %w", opts.Format, err)
	}

	slog.Info("Export complete", "list", screen.Name, "format", opts.Format, "rows", res.Rows, "fetched", res.Fetched)
	return res, nil
}

// Drain reloads ctrl from page 1 and appends pages until the last one.
// On failure the error is returned and the partial list is discarded.
func Drain[T model.Entity](ctx context.Context, ctrl *listing.Controller[T], progress ProgressFunc) ([]T, error) {
	report := func() {
		if progress != nil {
			snap := ctrl.Snapshot()
			progress(snap.Fetched, snap.Pagination.Total)
		}
	}

	if err := ctrl.Reset(ctx); err != nil {
		return nil, err
	}
	report()

	for {
		issued, err := ctrl.LoadMore(ctx)
		if err != nil {
			return nil, err
		}
		if !issued {
			break
		}
		report()
	}

	return ctrl.Snapshot().Items, nil
}

// NewTable renders items with the screen's columns.
func NewTable[T model.Entity](screen listing.Screen[T], items []T) Table {
	rows := make([][]string, len(items))
	for i, item := range items {
		rows[i] = screen.Row(item)
	}
	return Table{Title: screen.Title, Headers: screen.Headers(), Rows: rows}
}

// WriteCSV writes t as CSV with a header row.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteJSON writes items as an indented JSON array using the API field
// names.
func WriteJSON[T any](w io.Writer, items []T) error {
	if items == nil {
		items = []T{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}
