// internal/reporting/text_reporter.go
package reporting

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// TextReporter renders a per-user table followed by the totals.
type TextReporter struct {
	writer io.WriteCloser
}

// NewTextReporter takes ownership of writer.
func NewTextReporter(writer io.WriteCloser) *TextReporter {
	return &TextReporter{writer: writer}
}

func (r *TextReporter) Write(summary *Summary) error {
	if summary == nil {
		return fmt.Errorf("summary cannot be nil")
	}
	tw := tabwriter.NewWriter(r.writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "USER\tID\tOUTCOME\tROUNDS\tPAGES\tRESETS\tREJECTED\tDEAD ENDS\tDURATION\tERROR")
	for _, u := range summary.Users() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\t%s\n",
			u.Index, shortID(u.UserID), u.Outcome, u.Rounds, u.PagesOpened, u.Resets,
			u.Rejected, u.DeadEnds, u.Duration.Round(time.Millisecond), u.Error)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	t := summary.Totals()
	_, err := fmt.Fprintf(r.writer, "\n%d users: %d success, %d partial, %d failure; %d pages opened, %d resets in %s\n",
		t.Users, t.Success, t.Partial, t.Failure, t.PagesOpened, t.Resets, summary.Elapsed().Round(time.Millisecond))
	return err
}

func (r *TextReporter) Close() error {
	return r.writer.Close()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
