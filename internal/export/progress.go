package export

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"
)

// NewProgressBar returns a ProgressFunc drawing a bar on w. The maximum
// follows the server total as pages arrive.
func NewProgressBar(w io.Writer, description string) ProgressFunc {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan][bold]%s[reset]", description)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)

	return func(loaded, total int) {
		if total > 0 && int64(total) != bar.GetMax64() {
			bar.ChangeMax(total)
		}
		if err := bar.Set(loaded); err != nil {
			slog.Warn("Failed to update progress bar", "error", err)
		}
		if total > 0 && loaded >= total {
			_ = bar.Finish()
		}
	}
}
