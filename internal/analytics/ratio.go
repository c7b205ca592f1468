// Package analytics derives the dashboard's funnel, campaign and checkout
// metrics from warehouse rows. Everything here is pure; no I/O.
package analytics

// TopN is the length of the ranked product lists.
const TopN = 10

// percentOrNull returns num/den*100, or nil when den is zero.
func percentOrNull(num, den int64) *float64 {
	if den == 0 {
		return nil
	}
	v := float64(num) / float64(den) * 100
	return &v
}

// ratioOrZero returns num/den, or 0 when den is zero.
func ratioOrZero(num, den int64) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// meanOfPresent averages the non-nil values. Returns nil when none are present.
func meanOfPresent(values []*float64) *float64 {
	var sum float64
	var n int
	for _, v := range values {
		if v == nil {
			continue
		}
		sum += *v
		n++
	}
	if n == 0 {
		return nil
	}
	m := sum / float64(n)
	return &m
}

// greaterNullsLast orders by descending value with nil values after every
// present value.
func greaterNullsLast(a, b *float64) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return *a > *b
	}
}
