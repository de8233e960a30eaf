package engine

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/montelibero/npi/internal/model"
)

// monthLength is the flat month used for coverage arithmetic. Calendar months
// would shift verdicts near boundaries, so the constant stays.
const monthLength = 30 * 24 * time.Hour

// Coverage is the outcome of weighing accumulated payments against the time
// elapsed since the most recent one.
type Coverage struct {
	Last          *model.PaymentRecord
	Total         decimal.Decimal
	MonthsCovered int
	Success       bool
}

// EvaluateCoverage decides whether the given payments cover the elapsed time
// since the most recent of them. Callers guarantee the records are already
// filtered to the relevant asset and beneficiary; they are sorted newest-first
// here. This is a coverage test, not a paid-this-month test: a single large
// payment can cover many future months, and a member only falls out of
// compliance once accumulated coverage lags the time since their last payment.
func EvaluateCoverage(records []model.PaymentRecord, tokensPerMonth decimal.Decimal, now time.Time) Coverage {
	if len(records) == 0 {
		return Coverage{}
	}

	sorted := make([]model.PaymentRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	total := decimal.Zero
	for _, rec := range sorted {
		total = total.Add(rec.Amount)
	}

	last := sorted[0]
	monthsCovered := int(total.Div(tokensPerMonth).IntPart())
	monthsSince := int(now.Sub(last.CreatedAt) / monthLength)

	return Coverage{
		Success:       monthsCovered >= monthsSince,
		Total:         total,
		MonthsCovered: monthsCovered,
		Last:          &last,
	}
}
