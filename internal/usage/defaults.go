package usage

import "time"

const (
	PlanFree = "free"
	PlanPro  = "pro"

	freeMonthlyDocuments = 50
	proMonthlyDocuments  = 500

	periodLength = 30 * 24 * time.Hour
)

// normalizeFreeLimit falls back to the stock free allowance for zero or
// negative overrides.
func normalizeFreeLimit(n int) int {
	if n <= 0 {
		return freeMonthlyDocuments
	}
	return n
}

func defaultUsage(freeLimit int) Usage {
	return Usage{
		Plan:     PlanFree,
		Limit:    freeLimit,
		Used:     0,
		ResetsAt: time.Now().UTC().Add(periodLength),
	}
}

// limitForPlan returns the per-period document allowance of a plan.
func limitForPlan(plan string, freeLimit int) int {
	if plan == PlanPro {
		return proMonthlyDocuments
	}
	return freeLimit
}
