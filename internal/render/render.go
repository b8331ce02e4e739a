// Package render formats indicator results as terminal tables.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/vadiminshakov/merx/internal/services/market/analysis"
	"github.com/vadiminshakov/merx/pkg/series"
)

// Undefined is printed for positions without a value.
const Undefined = "—"

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"})
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	cachedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// Table renders the last rows of t with a time column followed by every value column.
func Table(t *series.Table, rows int) string {
	from := 0
	if rows > 0 && t.Len() > rows {
		from = t.Len() - rows
	}

	headers := append([]string{"time"}, t.Columns()...)
	body := make([][]string, 0, t.Len()-from)
	for i := from; i < t.Len(); i++ {
		row := make([]string, 0, len(headers))
		row = append(row, t.Time(i).UTC().Format("2006-01-02 15:04"))
		for _, name := range t.Columns() {
			row = append(row, Value(t.At(i, name)))
		}
		body = append(body, row)
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(body...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}

// Value formats one cell.
func Value(v float64, ok bool) string {
	if !ok {
		return Undefined
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// Results writes every result under its market heading. cached lists markets served from the
// snapshot cache.
func Results(w io.Writer, results []analysis.Result, rows int, cached map[string]bool) error {
	var b strings.Builder
	market := ""
	for _, res := range results {
		if res.Market != market {
			market = res.Market
			b.WriteString("\n" + titleStyle.Render(market))
			if cached[market] {
				b.WriteString(" " + cachedStyle.Render("(from snapshot cache)"))
			}
			b.WriteString("\n")
		}

		b.WriteString(res.Spec.Label() + "\n")
		if res.Err != nil {
			b.WriteString(errorStyle.Render("error: "+res.Err.Error()) + "\n")
			continue
		}
		b.WriteString(Table(res.Table, rows) + "\n")
	}

	_, err := fmt.Fprint(w, b.String())
	return err
}
