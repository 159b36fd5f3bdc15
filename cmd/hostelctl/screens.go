package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hostelctl/hostelctl/internal/cli"
	"github.com/hostelctl/hostelctl/internal/config"
	"github.com/hostelctl/hostelctl/internal/export"
	"github.com/hostelctl/hostelctl/internal/listing"
	"github.com/hostelctl/hostelctl/internal/model"
	"github.com/hostelctl/hostelctl/internal/sheets"
	"github.com/hostelctl/hostelctl/internal/tui"
	"github.com/hostelctl/hostelctl/internal/tui/themes"
)

// screenCmd groups the list, browse and export commands of one screen.
func screenCmd[T model.Entity](env *rootEnv, screen listing.Screen[T], needLocation bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   screen.Name,
		Short: "Work with " + strings.ToLower(screen.Title),
	}

	cmd.AddCommand(
		listCmd(env, screen, needLocation),
		browseCmd(env, screen, needLocation),
		exportCmd(env, screen, needLocation),
	)
	return cmd
}

// newController builds a controller for screen with the command's filter
// flags applied. Nothing is fetched yet.
func newController[T model.Entity](cmd *cobra.Command, sess *session, screen listing.Screen[T], filters *filterFlags) (*listing.Controller[T], error) {
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		limit = sess.client.PageSize()
	}

	ctrl := screen.NewController(sess.client, limit)
	if err := ctrl.UpdateFilters(func(set *listing.FilterSet) error {
		return filters.apply(cmd, set)
	}); err != nil {
		return nil, err
	}
	return ctrl, nil
}

func listCmd[T model.Entity](env *rootEnv, screen listing.Screen[T], needLocation bool) *cobra.Command {
	title := strings.ToLower(screen.Title)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List " + title,
		Long: fmt.Sprintf(`List %s one page at a time.

The first page is shown by default; --pages loads more and --all loads
every page. Filters narrow the list on the server.`, title),
		Args: cobra.NoArgs,
	}

	filters := addFilterFlags(cmd, screen.Filters)
	cmd.Flags().Int("pages", 1, "number of pages to load")
	cmd.Flags().Bool("all", false, "load every page")
	cmd.Flags().Int("limit", 0, "records per page (default: api.page_size)")
	cmd.Flags().String("format", "table", "output format (table, json, csv)")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		format, _ := cmd.Flags().GetString("format")
		format = strings.ToLower(strings.TrimSpace(format))
		switch format {
		case "table", "json", "csv":
		default:
			return fmt.Errorf("unknown format %q (want table, json or csv)", format)
		}
		pages, _ := cmd.Flags().GetInt("pages")
		all, _ := cmd.Flags().GetBool("all")

		sess, err := env.connect(ctx, needLocation)
		if err != nil {
			return err
		}
		defer sess.Close()

		ctrl, err := newController(cmd, sess, screen, filters)
		if err != nil {
			return err
		}

		if err := ctrl.Reset(ctx); err != nil {
			return err
		}
		for loaded := 1; all || loaded < pages; loaded++ {
			issued, err := ctrl.LoadMore(ctx)
			if err != nil {
				return err
			}
			if !issued {
				break
			}
		}

		return printList(cmd.OutOrStdout(), env.theme(), screen, ctrl.Snapshot(), format)
	}

	return cmd
}

// printList writes the loaded records of snap in format.
func printList[T model.Entity](w io.Writer, theme themes.Theme, screen listing.Screen[T], snap listing.Snapshot[T], format string) error {
	switch format {
	case "json":
		return export.WriteJSON(w, snap.Items)
	case "csv":
		return export.WriteCSV(w, export.NewTable(screen, snap.Items))
	}

	if len(snap.Items) == 0 {
		_, err := fmt.Fprintln(w, cli.InfoStyle.Render("No records match the current filters"))
		return err
	}

	rows := make([][]string, len(snap.Items))
	for i, item := range snap.Items {
		rows[i] = screen.Row(item)
	}

	if _, err := fmt.Fprintln(w, tui.RenderTable(theme, screen.Headers(), rows)); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	summary := tui.RenderListSummary(theme, len(snap.Items), snap.Fetched, snap.Cursor, snap.Pagination.Total, snap.Active)
	if _, err := fmt.Fprintln(w, summary); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	if snap.Cursor.HasMore {
		if _, err := fmt.Fprintln(w, cli.SubtleStyle.Render("Use --pages or --all to load more.")); err != nil {
			return fmt.Errorf("failed to write hint: %w", err)
		}
	}
	return nil
}

func browseCmd[T model.Entity](env *rootEnv, screen listing.Screen[T], needLocation bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse " + strings.ToLower(screen.Title) + " interactively",
		Long: `Open a scrollable list that loads more records as you approach the end.

Keys: / search, s cycle status, q cycle date shortcut, c clear filters,
r refresh, ? help, esc or ctrl+c quit. Filter flags set the starting
selection.`,
		Args: cobra.NoArgs,
	}

	filters := addFilterFlags(cmd, screen.Filters)
	cmd.Flags().Int("limit", 0, "records per page (default: api.page_size)")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		sess, err := env.connect(ctx, needLocation)
		if err != nil {
			return err
		}
		defer sess.Close()

		ctrl, err := newController(cmd, sess, screen, filters)
		if err != nil {
			return err
		}
		return tui.Browse(ctx, screen, ctrl, env.browseOptions()...)
	}

	return cmd
}

func exportCmd[T model.Entity](env *rootEnv, screen listing.Screen[T], needLocation bool) *cobra.Command {
	title := strings.ToLower(screen.Title)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export " + title,
		Long: fmt.Sprintf(`Load every page of %s matching the filters and write them out.

CSV and JSON go to --out (stdout by default). The file is only written
once every page has loaded. Sheets writes a tab named
%q in the configured spreadsheet, creating the spreadsheet if needed.`, title, screen.Title),
		Args: cobra.NoArgs,
	}

	filters := addFilterFlags(cmd, screen.Filters)
	cmd.Flags().String("format", "csv", "destination format (csv, json, sheets)")
	cmd.Flags().StringP("out", "o", "-", "output file for csv and json")
	cmd.Flags().Int("limit", 0, "records per page (default: api.page_size)")
	cmd.Flags().Bool("no-progress", false, "hide the progress bar")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		name, _ := cmd.Flags().GetString("format")
		format, err := export.ParseFormat(name)
		if err != nil {
			return err
		}
		outPath, _ := cmd.Flags().GetString("out")
		noProgress, _ := cmd.Flags().GetBool("no-progress")

		opts := export.Options{Format: format}
		if format == export.FormatSheets {
			sheetsCfg, err := config.LoadSheetsConfig(env.v)
			if err != nil {
				return fmt.Errorf("failed to load sheets config: %w", err)
			}
			writer, err := sheets.NewWriter(ctx, *sheetsCfg, slog.Default())
			if err != nil {
				return fmt.Errorf("failed to create sheets writer: %w", err)
			}
			opts.Sheets = writer
		}

		sess, err := env.connect(ctx, needLocation)
		if err != nil {
			return err
		}
		defer sess.Close()

		ctrl, err := newController(cmd, sess, screen, filters)
		if err != nil {
			return err
		}

		toFile := outPath != "" && outPath != "-"
		var out *lazyFile
		if format != export.FormatSheets {
			opts.Out = cmd.OutOrStdout()
			if toFile {
				out = &lazyFile{path: config.ExpandPath(outPath)}
				opts.Out = out
			}
		}
		if !noProgress && (toFile || format == export.FormatSheets) {
			opts.Progress = export.NewProgressBar(cmd.ErrOrStderr(), "Exporting "+title)
		}

		res, err := export.Run(ctx, screen, ctrl, opts)
		if out != nil {
			if closeErr := out.finish(err != nil); closeErr != nil && err == nil {
				err = closeErr
			}
		}
		if err != nil {
			return err
		}

		msg := fmt.Sprintf("Exported %d %s", res.Rows, title)
		if res.SpreadsheetID != "" {
			msg += " to spreadsheet " + res.SpreadsheetID
		} else if toFile {
			msg += " to " + outPath
		}
		fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess(msg))
		return nil
	}

	return cmd
}

// lazyFile creates path on the first write, so an export that fails while
// loading pages leaves any existing file alone.
type lazyFile struct {
	f    *os.File
	path string
}

func (l *lazyFile) Write(p []byte) (int, error) {
	if l.f == nil {
		f, err := os.Create(l.path)
		if err != nil {
			return 0, fmt.Errorf("failed to create output file: %w", err)
		}
		l.f = f
	}
	return l.f.Write(p)
}

// finish closes the file, removing it when the export failed part way.
func (l *lazyFile) finish(failed bool) error {
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	if failed {
		if rmErr := os.Remove(l.path); rmErr != nil {
			slog.Warn("failed to remove partial export", "path", l.path, "error", rmErr)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}
