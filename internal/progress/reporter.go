// Package progress reports page generation progress as a terminal bar,
// plain lines for CI logs, or log entries for background rebuilds.
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/ziadkadry99/kqlcatalog/internal/logging"
)

// Reporter receives the page count once, then one update per page written.
type Reporter interface {
	Start(total int)
	Update(current int, message string)
	Finish()
}

// NewReporter returns a Lines reporter when running under CI, otherwise a
// Bar. Both write to w.
func NewReporter(w io.Writer) Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &Lines{w: w}
	}
	return &Bar{w: w}
}

// Nop returns a Reporter that reports nothing.
func Nop() Reporter { return nopReporter{} }

type nopReporter struct{}

func (nopReporter) Start(int)          {}
func (nopReporter) Update(int, string) {}
func (nopReporter) Finish()            {}

// Bar draws a progress bar of pages written.
type Bar struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func (r *Bar) Start(total int) {
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.w),
		progressbar.OptionSetDescription("Generating site"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *Bar) Update(current int, message string) {
	if r.bar == nil {
		return
	}
	r.bar.Describe(message)
	_ = r.bar.Set(current)
}

func (r *Bar) Finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}

// Lines prints one line per page, suitable for CI logs.
type Lines struct {
	w     io.Writer
	total int
}

// NewLines returns a Lines reporter writing to w.
func NewLines(w io.Writer) *Lines { return &Lines{w: w} }

func (r *Lines) Start(total int) {
	r.total = total
	fmt.Fprintf(r.w, "Generating %d pages\n", total)
}

func (r *Lines) Update(current int, message string) {
	fmt.Fprintf(r.w, "[%d/%d] %s\n", current, r.total, message)
}

func (r *Lines) Finish() {
	fmt.Fprintln(r.w, "Site generation complete")
}

// Logged reports through a logger: start and finish at info, pages at
// debug. It is used for rebuilds triggered by file changes.
type Logged struct {
	logger *zap.Logger
	total  int
}

// NewLogged returns a Logged reporter. A nil logger reports nothing.
func NewLogged(logger *zap.Logger) *Logged {
	return &Logged{logger: logging.OrNop(logger)}
}

func (r *Logged) Start(total int) {
	r.total = total
	r.logger.Info("generating site", zap.Int("pages", total))
}

func (r *Logged) Update(current int, message string) {
	r.logger.Debug("page written", zap.Int("page", current), zap.Int("of", r.total), zap.String("page_name", message))
}

func (r *Logged) Finish() {
	r.logger.Info("site generated", zap.Int("pages", r.total))
}
