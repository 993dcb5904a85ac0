package cli

import (
	"fmt"
	"strings"

	"fintrack/internal/core"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorText).Align(lipgloss.Center)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	valueStyle  = lipgloss.NewStyle().Foreground(ColorText)
	mutedStyle  = lipgloss.NewStyle().Foreground(ColorTextMuted)
	dimStyle    = lipgloss.NewStyle().Foreground(ColorTextDim)
)

// Table is a bordered text table. The first column is left aligned and the
// rest right aligned.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

func RenderTitle(title string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(48).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(titleStyle.Render(title))
}

func RenderTable(t Table) string {
	numCols := len(t.Headers)
	if numCols == 0 {
		return ""
	}

	widths := make([]int, numCols)
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i := 0; i < numCols && i < len(row); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	line := func(left, mid, right string) string {
		parts := make([]string, numCols)
		for i, w := range widths {
			parts[i] = strings.Repeat("─", w+2)
		}
		return dimStyle.Render(left+strings.Join(parts, mid)+right) + "\n"
	}
	cells := func(row []string, style lipgloss.Style) string {
		var b strings.Builder
		b.WriteString(dimStyle.Render("│"))
		for i, w := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			pad := strings.Repeat(" ", w-lipgloss.Width(cell))
			if i == 0 {
				cell += pad
			} else {
				cell = pad + cell
			}
			b.WriteString(style.Render(" " + cell + " "))
			b.WriteString(dimStyle.Render("│"))
		}
		b.WriteString("\n")
		return b.String()
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  " + headerStyle.Render(t.Title) + "\n")
	}
	b.WriteString(line("╭", "┬", "╮"))
	b.WriteString(cells(t.Headers, headerStyle))
	b.WriteString(line("├", "┼", "┤"))
	for _, row := range t.Rows {
		b.WriteString(cells(row, valueStyle))
	}
	b.WriteString(line("╰", "┴", "╯"))
	return b.String()
}

func money(symbol string, d decimal.Decimal) string {
	return symbol + core.FormatAmount(d)
}

func signedStyle(d decimal.Decimal) lipgloss.Style {
	if d.IsNegative() {
		return lipgloss.NewStyle().Foreground(ColorRed)
	}
	return lipgloss.NewStyle().Foreground(ColorGreen)
}

// RenderDashboard renders a dashboard summary: totals, the category
// breakdown, budget usage and the budget-vs-income summary.
func RenderDashboard(d core.DashboardSummary, symbol string) string {
	var b strings.Builder
	b.WriteString(RenderTitle(fmt.Sprintf("DASHBOARD %04d-%02d", d.Year, d.Month)))
	b.WriteString("\n\n")

	b.WriteString(RenderTable(Table{
		Title:   "Overview",
		Headers: []string{"Metric", "Amount"},
		Rows: [][]string{
			{"Income", money(symbol, d.Income)},
			{"Spent", money(symbol, d.TotalSpent)},
			{"Monthly balance", money(symbol, d.MonthlyBalance)},
			{"Savings balance", money(symbol, d.SavingsBalance)},
		},
	}))
	b.WriteString("  " + signedStyle(d.SavingsBalance).Render("Savings "+money(symbol, d.SavingsBalance)) + "\n\n")

	if len(d.CategoryBreakdown) > 0 {
		var rows [][]string
		for _, c := range core.AllCategories {
			if v, ok := d.CategoryBreakdown[c]; ok {
				rows = append(rows, []string{c.Label(), money(symbol, v)})
			}
		}
		b.WriteString(RenderTable(Table{Title: "Spending by category", Headers: []string{"Category", "Spent"}, Rows: rows}))
		b.WriteString("\n")
	}

	if len(d.CategoryBudgets) > 0 {
		var rows [][]string
		for _, c := range core.AllCategories {
			u, ok := d.CategoryBudgets[c]
			if !ok {
				continue
			}
			rows = append(rows, []string{
				c.Label(),
				money(symbol, u.Budget),
				money(symbol, u.Spent),
				u.Percentage.StringFixed(2) + "%",
			})
		}
		b.WriteString(RenderTable(Table{Title: "Budgets", Headers: []string{"Category", "Budget", "Spent", "Used"}, Rows: rows}))

		s := d.BudgetSummary
		status := lipgloss.NewStyle().Foreground(ColorGreen).Render("within income")
		if s.IsOverBudgeted {
			status = lipgloss.NewStyle().Foreground(ColorRed).Render("over income")
		}
		fmt.Fprintf(&b, "  Total budget %s of income %s, %s (%s)\n",
			money(symbol, s.TotalBudget), money(symbol, s.Income), money(symbol, s.Difference), status)
	} else {
		b.WriteString("  " + mutedStyle.Render("No budgets set for this month.") + "\n")
	}
	return b.String()
}

// RenderInsights renders insights one per line, coloured by severity.
func RenderInsights(insights []core.Insight) string {
	if len(insights) == 0 {
		return "  " + mutedStyle.Render("No insights for this month.") + "\n"
	}
	var b strings.Builder
	for _, in := range insights {
		var color lipgloss.Color
		switch in.Severity {
		case core.SeverityPositive:
			color = ColorGreen
		case core.SeverityWarning:
			color = ColorOrange
		default:
			color = ColorRed
		}
		tag := lipgloss.NewStyle().Bold(true).Foreground(color).Render(fmt.Sprintf("[%s]", in.Severity))
		fmt.Fprintf(&b, "  %s %s\n", tag, in.Message)
	}
	return b.String()
}

// RenderSavings renders a single savings balance line.
func RenderSavings(year, month int, balance decimal.Decimal, symbol string) string {
	return fmt.Sprintf("  Savings %04d-%02d: %s\n", year, month, signedStyle(balance).Render(money(symbol, balance)))
}
