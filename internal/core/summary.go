package core

import (
	"sort"
)

// UncategorizedLabel names the bucket for transactions without a category.
const UncategorizedLabel = "Uncategorized"

// ExportNoCategory is written to export rows without a category.
const ExportNoCategory = "None"

// ExportHeader is the first row of every delimited export.
var ExportHeader = []string{"Date", "Title", "Category", "Type", "Amount"}

type (
	// Summary totals a user's ledger; Balance is income minus expense.
	Summary struct {
		TotalIncome  Money `json:"total_income"`
		TotalExpense Money `json:"total_expense"`
		Balance      Money `json:"balance"`
	}

	// CategoryTotal is the sum of one category's amounts. Name is empty for
	// transactions without a category.
	CategoryTotal struct {
		Name  string
		Total Money
	}

	// ExpenseChart is the chart payload: parallel label and value sequences.
	ExpenseChart struct {
		Labels []string  `json:"labels"`
		Values []float64 `json:"values"`
	}

	Dashboard struct {
		Summary  Summary       `json:"summary"`
		Recent   []Transaction `json:"transactions"`
		Chart    ExpenseChart  `json:"chart"`
		Currency Currency      `json:"currency"`
	}

	ExportRow struct {
		Date     Date
		Title    string
		Category string
		Type     TransactionType
		Amount   Money
	}
)

func NewSummary(income, expense Money) Summary {
	return Summary{
		TotalIncome:  income,
		TotalExpense: expense,
		Balance:      income.Sub(expense),
	}
}

// NewExpenseChart labels the null bucket and orders buckets by label.
func NewExpenseChart(totals []CategoryTotal) ExpenseChart {
	sorted := make([]CategoryTotal, len(totals))
	copy(sorted, totals)
	for i := range sorted {
		if sorted[i].Name == "" {
			sorted[i].Name = UncategorizedLabel
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	chart := ExpenseChart{
		Labels: make([]string, 0, len(sorted)),
		Values: make([]float64, 0, len(sorted)),
	}
	for _, t := range sorted {
		chart.Labels = append(chart.Labels, t.Name)
		chart.Values = append(chart.Values, t.Total.Float64())
	}
	return chart
}

// Record renders the row in ExportHeader column order.
func (r ExportRow) Record() []string {
	category := r.Category
	if category == "" {
		category = ExportNoCategory
	}
	return []string{r.Date.String(), r.Title, category, string(r.Type), r.Amount.String()}
}
