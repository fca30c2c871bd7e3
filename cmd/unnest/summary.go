// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/unnest/unnest/internal/engine"
)

// summary is what the end-of-run card shows.
type summary struct {
	dir            string
	backupDir      string
	deleteOriginal bool
	stats          engine.Stats
}

func stopReasonText(r engine.StopReason) string {
	switch r {
	case engine.StopNoArchives:
		return "no archives left"
	case engine.StopStalled:
		return "no progress in last round"
	case engine.StopRoundLimit:
		return "round limit reached"
	case engine.StopInterrupted:
		return "interrupted"
	default:
		return string(r)
	}
}

// renderSummary prints the final statistics card. Freed space is shown only
// when originals were deleted and something was freed.
func renderSummary(w io.Writer, s summary) {
	st := s.stats
	var rows []string
	row := func(label, value string) {
		rows = append(rows, summaryLabelStyle.Render(label)+value)
	}

	row("Directory", CmdStyle.Render(s.dir))
	if s.backupDir != "" {
		row("Backup", CmdStyle.Render(s.backupDir))
	}
	row("Archives found", fmt.Sprintf("%d (%s)", st.Found, humanize.IBytes(uint64(st.TotalSize))))
	row("Processed", strconv.Itoa(st.Processed))
	row("Succeeded", SuccessStyle.Render(strconv.Itoa(st.Success)))
	failed := strconv.Itoa(st.Error)
	if st.Error > 0 {
		failed = ErrorStyle.Render(failed)
	}
	row("Failed", failed)
	row("Extracted files", strconv.Itoa(st.ExtractedFiles))
	if s.deleteOriginal && st.FreedSize > 0 {
		row("Freed space", humanize.IBytes(uint64(st.FreedSize)))
	}
	row("Rounds", strconv.Itoa(st.Rounds))
	reason := stopReasonText(st.StopReason)
	if st.StopReason != engine.StopNoArchives {
		reason = WarningStyle.Render(reason)
	}
	row("Stopped", reason)
	row("Elapsed", st.Elapsed.Round(time.Millisecond).String())

	card := summaryCardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		append([]string{TitleStyle.Render("unnest summary"), ""}, rows...)...))
	fmt.Fprintln(w, card)

	if len(st.Failures) == 0 {
		return
	}
	var b strings.Builder
	b.WriteString(ErrorStyle.Render("Failed archives:"))
	for _, f := range st.Failures {
		fmt.Fprintf(&b, "\n  %s %s %s", ErrorStyle.Render("✗"), f.Path, SubtitleStyle.Render("("+f.Kind.String()+")"))
	}
	fmt.Fprintln(w, b.String())
}
