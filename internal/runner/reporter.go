package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/maltedev/product-page-scraper/internal/models"
)

const errorPreviewLimit = 100

// Reporter prints the human-facing progress lines of a run.
type Reporter struct {
	out io.Writer
}

func NewReporter(out io.Writer) *Reporter {
	if out == nil {
		out = io.Discard
	}
	return &Reporter{out: out}
}

func (r *Reporter) Start(total int) {
	fmt.Fprintf(r.out, "🚀 Starting to scrape %d products...\n", total)
}

func (r *Reporter) Progress(index, total int, title string, took time.Duration) {
	fmt.Fprintf(r.out, "\n[%d/%d] %s\n", index, total, title)
	fmt.Fprintf(r.out, "⏱ Processing time: %.1f sec\n", took.Seconds())
	fmt.Fprintln(r.out, "✓ Saved")
}

func (r *Reporter) Failure(err error) {
	fmt.Fprintf(r.out, "\n❌ Error: %s...\n", previewError(err))
}

func (r *Reporter) ImageFailure(err error) {
	fmt.Fprintf(r.out, "❌ Failed to save image: %s...\n", previewError(err))
}

func (r *Reporter) Delay(d time.Duration) {
	fmt.Fprintf(r.out, "⏳ Delay: %.1f sec\n", d.Seconds())
}

// Summary closes the console output. runErr is the reason the run stopped
// early, nil for a run that went through the whole list.
func (r *Reporter) Summary(state models.RunState, elapsed time.Duration, csvPath, imageDir string, runErr error) {
	line := strings.Repeat("=", 50)
	fmt.Fprintf(r.out, "\n%s\n", line)
	switch {
	case runErr == nil:
		fmt.Fprintln(r.out, "✓ Scraping completed!")
	case errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded):
		fmt.Fprintln(r.out, "⚠ Scraping interrupted!")
	default:
		fmt.Fprintf(r.out, "❌ Scraping aborted: %s\n", previewError(runErr))
	}
	fmt.Fprintf(r.out, "⏱ Total time: %s\n", FormatElapsed(elapsed))
	fmt.Fprintf(r.out, "📊 Processed successfully: %d/%d\n", state.Processed, state.Total)
	fmt.Fprintf(r.out, "💾 Results saved to: %s\n", csvPath)
	fmt.Fprintf(r.out, "🖼 Images in folder: %s\n", imageDir)
	fmt.Fprintf(r.out, "%s\n", line)
}

// FormatElapsed renders whole minutes and rounded remaining seconds.
func FormatElapsed(d time.Duration) string {
	total := int(d.Round(time.Second).Seconds())
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%d min %d sec", total/60, total%60)
}

func previewError(err error) string {
	if err == nil {
		return ""
	}
	msg := []rune(err.Error())
	if len(msg) > errorPreviewLimit {
		msg = msg[:errorPreviewLimit]
	}
	return string(msg)
}
