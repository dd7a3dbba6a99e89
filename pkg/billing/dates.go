package billing

import (
	"time"

	"github.com/billfold/billfold/pkg/plans"
)

// dateLayout is the wire format for date-only fields
const dateLayout = "2006-01-02"

// NextBillingDate advances a start date by one billing cycle using
// calendar arithmetic. AddDate normalizes overflow into the following
// month, so 2024-01-31 + 1 month = 2024-03-02. That matches the behavior
// billing has always had and existing invoices depend on it.
func NextBillingDate(start time.Time, cycle plans.BillingCycle) time.Time {
	if cycle == plans.BillingCycleAnnual {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}

// FirstInvoiceDueDate is a fixed 30 calendar days after the start date,
// regardless of billing cycle.
func FirstInvoiceDueDate(start time.Time) time.Time {
	return start.AddDate(0, 0, 30)
}

// BillingMonth formats a time as the "YYYY-MM" period an invoice is
// attributed to.
func BillingMonth(t time.Time) string {
	return t.Format("2006-01")
}

// ParseDate parses a "YYYY-MM-DD" date string
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}
