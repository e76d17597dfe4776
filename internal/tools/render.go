package tools

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/HendryAvila/wprollup/internal/store"
	"github.com/HendryAvila/wprollup/internal/workpkg"
)

// Detail level constants for read tools.
//   - summary: ID, subject and ratio only
//   - standard: derived values and status
//   - full: every stored field plus timestamps
const (
	DetailSummary  = "summary"
	DetailStandard = "standard"
	DetailFull     = "full"
)

// DetailLevelValues returns the enum values for MCP tool definitions.
func DetailLevelValues() []string {
	return []string{DetailSummary, DetailStandard, DetailFull}
}

// ParseDetailLevel normalizes a detail_level string, defaulting to "standard"
// for empty or unrecognized values.
func ParseDetailLevel(s string) string {
	switch s {
	case DetailSummary, DetailFull:
		return s
	default:
		return DetailStandard
	}
}

// NavigationHint returns a one-line footer when results are capped by a limit.
// Returns an empty string when all results fit or total is 0.
func NavigationHint(showing, total int, hint string) string {
	if total <= 0 || showing >= total {
		return ""
	}
	if hint != "" {
		return fmt.Sprintf("\n📊 Showing %d of %d. %s", showing, total, hint)
	}
	return fmt.Sprintf("\n📊 Showing %d of %d.", showing, total)
}

// ─── Items ───────────────────────────────────────────────────────────────────

// itemLine renders one work package on a single line.
func itemLine(it *workpkg.Item, level string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", it.Ref(), it.Subject)
	fmt.Fprintf(&b, " [%s]", ratio(it.DoneRatio))
	if level == DetailSummary {
		return b.String()
	}

	if it.Status != nil {
		fmt.Fprintf(&b, " status=%s", it.Status.Name)
		if it.Closed {
			b.WriteString(" (closed)")
		}
	}
	if it.EstimatedHours != nil {
		fmt.Fprintf(&b, " est=%sh", hours(it.EstimatedHours))
	}
	if it.DerivedEstimatedHours != nil {
		fmt.Fprintf(&b, " derived=%sh", hours(it.DerivedEstimatedHours))
	}
	if level == DetailFull {
		if it.StoryPoints != nil {
			fmt.Fprintf(&b, " sp=%d", *it.StoryPoints)
		}
		if it.ParentID != nil {
			fmt.Fprintf(&b, " parent=#%d", *it.ParentID)
		}
		if it.UpdatedAt != "" {
			fmt.Fprintf(&b, " updated=%s", it.UpdatedAt)
		}
	}
	return b.String()
}

func ratio(v *int) string {
	if v == nil {
		return "–"
	}
	return strconv.Itoa(*v) + "%"
}

func hours(v *float64) string {
	if v == nil {
		return "–"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// formatTree renders a subtree as an indented outline.
func formatTree(nodes []store.TreeNode, level string) string {
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(strings.Repeat("  ", n.Depth))
		b.WriteString("- ")
		b.WriteString(itemLine(n.Item, level))
		b.WriteByte('\n')
	}
	return b.String()
}

// ─── Write results ───────────────────────────────────────────────────────────

// formatWrite renders the outcome of a write: the subject, every
// cascaded ancestor with its own result, and the overall status.
func formatWrite(verb string, res *store.WriteResult) string {
	p := res.Propagation
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", verb, itemLine(p.Subject, DetailStandard))
	if names := res.Change.Attributes.Names(); len(names) > 0 {
		fmt.Fprintf(&b, "Changed: %s\n", strings.Join(names, ", "))
	} else {
		b.WriteString("Changed: nothing\n")
	}

	if len(p.Dependents) == 0 {
		b.WriteString("Ancestors updated: none\n")
	} else {
		fmt.Fprintf(&b, "Ancestors updated (%d):\n", len(p.Dependents))
		for _, d := range p.Dependents {
			mark := "✅"
			if !d.Success {
				mark = "❌"
			}
			fmt.Fprintf(&b, "  %s %s", mark, itemLine(d.Item, DetailStandard))
			if d.Err != nil {
				fmt.Fprintf(&b, " error: %v", d.Err)
			}
			b.WriteByte('\n')
		}
	}

	if p.Success {
		b.WriteString("Status: ok")
	} else {
		fmt.Fprintf(&b, "Status: partial failure (%d of %d ancestors not saved). Run wp_recompute to retry.",
			len(p.Failed()), len(p.Dependents))
	}
	if res.RunID != "" {
		fmt.Fprintf(&b, "\nRun: %s", res.RunID)
	}
	return b.String()
}

// formatJournal renders one journal entry.
func formatJournal(j store.Journal) string {
	kind := "edit"
	if j.Cascade {
		kind = "cascade"
	}
	line := fmt.Sprintf("[%s] %s", j.CreatedAt, kind)
	if j.Changes != "" {
		line += " — " + j.Changes
	}
	if j.Notes != "" {
		line += "\n    " + j.Notes
	}
	return line
}
