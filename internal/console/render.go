package console

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"taskora/internal/domain"
)

const (
	ansiReset  = "\x1b[0m"
	dateLayout = "02 Jan 2006"
	descWidth  = 40
)

// palettes keep every escape the same width so tabwriter columns stay aligned.
var palettes = map[Theme]map[domain.Status]string{
	ThemeLight: {
		domain.StatusPending:    "\x1b[33m",
		domain.StatusInProgress: "\x1b[34m",
		domain.StatusCompleted:  "\x1b[32m",
	},
	ThemeDark: {
		domain.StatusPending:    "\x1b[93m",
		domain.StatusInProgress: "\x1b[96m",
		domain.StatusCompleted:  "\x1b[92m",
	},
}

// Renderer writes views as plain text. Color=false disables ANSI escapes.
type Renderer struct {
	Color bool
}

func (r Renderer) Render(w io.Writer, v View) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Taskora  %d tasks  [%s]\n", v.Counts.Total, v.Theme)
	fmt.Fprintf(&b, "pending %d · in progress %d · completed %d\n",
		v.Counts.Pending, v.Counts.InProgress, v.Counts.Completed)
	fmt.Fprintf(&b, "\nTasks: %s\n", v.Subtitle())
	fmt.Fprintf(&b, "filter: %s", v.Filter)
	if s := strings.TrimSpace(v.Search); s != "" {
		fmt.Fprintf(&b, "  search: %q", s)
	}
	b.WriteString("\n\n")

	if len(v.Tasks) == 0 {
		fmt.Fprintf(&b, "  %s\n", v.EmptyState())
	} else {
		tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tTITLE\tDESCRIPTION\tCREATED\tSTATUS")
		for i, t := range v.Tasks {
			marker := ""
			if v.Mode == ModeEdit && t.ID == v.EditingID {
				marker = "*"
			}
			created := ""
			if !t.CreatedAt.IsZero() {
				created = t.CreatedAt.Local().Format(dateLayout)
			}
			fmt.Fprintf(tw, "%d%s\t%s\t%s\t%s\t%s\n",
				i+1, marker, t.Title, truncate(t.Description, descWidth), created, r.statusTag(v.Theme, t.Status))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintf(&b, "\n[%s] title=%q desc=%q status=%s  (%s)\n",
		v.FormTitle(), v.Form.Title, v.Form.Description, v.Form.Status, v.SubmitLabel())
	if v.Error != "" {
		fmt.Fprintf(&b, "! %s\n", v.Error)
	}
	if v.Toast != "" {
		fmt.Fprintf(&b, "● %s\n", v.Toast)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (r Renderer) statusTag(theme Theme, s domain.Status) string {
	label := s.Label()
	if !r.Color {
		return label
	}
	code, ok := palettes[theme][s]
	if !ok {
		return label
	}
	return code + label + ansiReset
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
