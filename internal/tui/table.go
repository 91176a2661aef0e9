package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/codingwatching/companion/internal/constants"
	"github.com/codingwatching/companion/internal/domain"
)

// TableColumn defines a column in a table.
type TableColumn struct {
	Name  string
	Width int
	Align Alignment
}

// Alignment defines text alignment in a column.
type Alignment int

// Alignment constants.
const (
	AlignLeft Alignment = iota
	AlignRight
)

// Table provides styled table rendering with width-aware cells.
type Table struct {
	w       io.Writer
	styles  *TableStyles
	columns []TableColumn
}

// NewTable creates a new table with the given columns.
func NewTable(w io.Writer, columns []TableColumn) *Table {
	return &Table{
		w:       w,
		styles:  NewTableStyles(),
		columns: columns,
	}
}

// WriteHeader writes the table header row.
func (t *Table) WriteHeader() {
	cells := make([]string, 0, len(t.columns))
	for _, col := range t.columns {
		cells = append(cells, t.formatCell(col, col.Name))
	}
	_, _ = fmt.Fprintln(t.w, t.styles.Header.Render(strings.Join(cells, "  ")))
}

// WriteRow writes a data row to the table.
func (t *Table) WriteRow(values ...string) {
	cells := make([]string, 0, len(t.columns))
	for i, col := range t.columns {
		value := ""
		if i < len(values) {
			value = values[i]
		}
		cells = append(cells, t.formatCell(col, value))
	}
	_, _ = fmt.Fprintln(t.w, strings.Join(cells, "  "))
}

// WriteDimRow writes a data row rendered in the dim style.
// Used for rows that are present but inactive (completed tasks, idle agents).
func (t *Table) WriteDimRow(values ...string) {
	cells := make([]string, 0, len(t.columns))
	for i, col := range t.columns {
		value := ""
		if i < len(values) {
			value = values[i]
		}
		cells = append(cells, t.formatCell(col, value))
	}
	_, _ = fmt.Fprintln(t.w, t.styles.Dim.Render(strings.Join(cells, "  ")))
}

// formatCell truncates and pads a value to the column's display width.
// Truncation appends an ellipsis so cut values stay recognizable as cut.
func (t *Table) formatCell(col TableColumn, value string) string {
	if col.Width <= 0 {
		return value
	}

	if runewidth.StringWidth(value) > col.Width {
		value = runewidth.Truncate(value, col.Width, "…")
	}

	pad := col.Width - runewidth.StringWidth(value)
	if pad <= 0 {
		return value
	}
	if col.Align == AlignRight {
		return strings.Repeat(" ", pad) + value
	}
	return value + strings.Repeat(" ", pad)
}

// TaskTableColumns returns the standard columns for task listings.
func TaskTableColumns() []TableColumn {
	return []TableColumn{
		{Name: "ID", Width: 4, Align: AlignRight},
		{Name: "STATUS", Width: 14},
		{Name: "SUBJECT", Width: 40},
		{Name: "OWNER", Width: 12},
		{Name: "BLOCKED BY", Width: 12},
	}
}

// WriteTaskRow writes one task as a row using the standard task columns.
// Completed tasks are rendered dim.
func WriteTaskRow(t *Table, task *domain.Task) {
	values := []string{
		task.ID,
		FormatTaskStatus(task.Status),
		task.Subject,
		task.Owner,
		strings.Join(task.BlockedBy, ","),
	}
	if task.Status == constants.TaskStatusCompleted {
		t.WriteDimRow(values...)
		return
	}
	t.WriteRow(values...)
}

// MemberTableColumns returns the standard columns for roster listings.
func MemberTableColumns() []TableColumn {
	return []TableColumn{
		{Name: "NAME", Width: 16},
		{Name: "TYPE", Width: 10},
		{Name: "AGENT ID", Width: 24},
		{Name: "UNREAD", Width: 6, Align: AlignRight},
	}
}

// WriteMemberRow writes one roster member as a row using the standard member
// columns. The unread count is rendered as "-" when negative (unknown).
func WriteMemberRow(t *Table, member *domain.Member, unread int) {
	unreadCell := "-"
	if unread >= 0 {
		unreadCell = fmt.Sprintf("%d", unread)
	}
	t.WriteRow(
		member.Name,
		AgentTypeLabel(member.AgentType),
		member.AgentID,
		unreadCell,
	)
}
