package scenario

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/signals/signal"
)

// Styles controls report rendering.
type Styles struct {
	Title  lipgloss.Style
	Op     lipgloss.Style
	Dim    lipgloss.Style
	Pass   lipgloss.Style
	Fail   lipgloss.Style
	Insert lipgloss.Style
	Delete lipgloss.Style
}

// NewStyles returns the report styles. Without color every style is plain.
func NewStyles(color bool) Styles {
	if !color {
		plain := lipgloss.NewStyle()
		return Styles{Title: plain, Op: plain, Dim: plain, Pass: plain, Fail: plain, Insert: plain, Delete: plain}
	}
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true),
		Op:     lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")),
		Dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")),
		Pass:   lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true),
		Fail:   lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true),
		Insert: lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")),
		Delete: lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")),
	}
}

// RenderOptions controls what Render prints.
type RenderOptions struct {
	Styles  Styles
	ShowIDs bool
}

// Render formats a report for the terminal.
func Render(r *Report, opts RenderOptions) string {
	st := opts.Styles
	var b strings.Builder

	title := r.Name
	if title == "" {
		title = "scenario"
	}
	fmt.Fprintf(&b, "%s %s\n", st.Title.Render(title), st.Dim.Render(fmt.Sprintf("(%s, run %s)", r.Kind, r.RunID)))

	for _, s := range r.Steps {
		line := fmt.Sprintf("%3d  %-18s", s.Index+1, st.Op.Render(s.Summary()))

		switch s.Op {
		case "add", "remove":
			line += " " + st.Dim.Render(formatIDs(s.IDs))
		case "dispatch":
			line += " " + formatCalls(s.Calls, opts.ShowIDs)
			if s.Panic != nil {
				line += " " + st.Fail.Render("panic: "+s.Panic.Error())
			}
		}
		if s.Failed {
			line += " " + st.Fail.Render("FAIL")
		}
		b.WriteString(strings.TrimRight(line, " "))
		b.WriteByte('\n')

		if s.Diff != "" {
			for _, d := range strings.Split(strings.TrimSuffix(s.Diff, "\n"), "\n") {
				switch {
				case strings.HasPrefix(d, "+"):
					d = st.Insert.Render(d)
				case strings.HasPrefix(d, "-"):
					d = st.Delete.Render(d)
				}
				b.WriteString("       " + d + "\n")
			}
		}
	}

	if r.OK() {
		b.WriteString(st.Pass.Render(fmt.Sprintf("ok: %d steps", len(r.Steps))))
	} else {
		b.WriteString(st.Fail.Render(fmt.Sprintf("FAIL: %d of %d steps failed", r.Failed, len(r.Steps))))
	}
	b.WriteByte('\n')
	return b.String()
}

func formatIDs(ids []signal.ListenerID) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("#%d", id)
	}
	return strings.Join(parts, " ")
}

func formatCalls(calls []Call, showIDs bool) string {
	if len(calls) == 0 {
		return "(no listeners)"
	}
	parts := make([]string, len(calls))
	for i, c := range calls {
		if showIDs {
			parts[i] = fmt.Sprintf("%s#%d", c.Listener, c.ID)
		} else {
			parts[i] = c.Listener
		}
	}
	return strings.Join(parts, " ")
}
