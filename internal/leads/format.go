package leads

import (
	"math"
	"math/big"
	"time"
)

const (
	lakh         = 100000
	missingValue = "—"
)

// FormatBudget renders rupees in lakhs with one decimal: 250000 -> "₹2.5L".
// Exact halves round away from zero, so 125000 -> "₹1.3L".
func FormatBudget(amount int) string {
	return "₹" + formatTenths(float64(amount)/lakh) + "L"
}

// formatTenths rounds the exact binary value of x to one decimal, ties away
// from zero. 0.15 is stored just below 0.15 and renders as "0.1".
func formatTenths(x float64) string {
	sign := ""
	if x < 0 {
		sign = "-"
	}
	v := new(big.Float).SetPrec(128).SetFloat64(math.Abs(x))
	v.Mul(v, big.NewFloat(10))
	v.Add(v, big.NewFloat(0.5))
	tenths, _ := v.Int(nil)

	whole, frac := new(big.Int).QuoRem(tenths, big.NewInt(10), new(big.Int))
	return sign + whole.String() + "." + frac.String()
}

// FormatBudgetBound renders one side of a budget, or an em dash when unset.
func FormatBudgetBound(amount *int) string {
	if amount == nil {
		return missingValue
	}
	return FormatBudget(*amount)
}

// FormatBudgetRange renders the list-view budget column.
func FormatBudgetRange(low, high *int) string {
	hasLow := low != nil && *low != 0
	hasHigh := high != nil && *high != 0
	switch {
	case hasLow && hasHigh:
		return FormatBudget(*low) + " - " + FormatBudget(*high)
	case hasLow:
		return FormatBudget(*low)
	case hasHigh:
		return FormatBudget(*high)
	default:
		return "N/A"
	}
}

// LeadView is a lead plus its display strings.
type LeadView struct {
	*Lead
	Budget           string `json:"budget"`
	BudgetMinDisplay string `json:"budgetMinDisplay"`
	BudgetMaxDisplay string `json:"budgetMaxDisplay"`
	UpdatedOn        string `json:"updatedOn"`
}

// NewLeadView derives the display fields for a lead.
func NewLeadView(lead *Lead) LeadView {
	return LeadView{
		Lead:             lead,
		Budget:           FormatBudgetRange(lead.BudgetMin, lead.BudgetMax),
		BudgetMinDisplay: FormatBudgetBound(lead.BudgetMin),
		BudgetMaxDisplay: FormatBudgetBound(lead.BudgetMax),
		UpdatedOn:        lead.UpdatedAt.UTC().Format(time.DateOnly),
	}
}

// NewLeadViews maps a slice of leads to views.
func NewLeadViews(leads []*Lead) []LeadView {
	views := make([]LeadView, 0, len(leads))
	for _, lead := range leads {
		views = append(views, NewLeadView(lead))
	}
	return views
}
