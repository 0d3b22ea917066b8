package orders

import (
	"github.com/shopspring/decimal"

	"github.com/agilaxstudios/agilax-backend/pkg/db/models"
)

// WeekdayEarnings is one Sun..Sat bucket of summed order amounts.
type WeekdayEarnings struct {
	Weekday string          `json:"weekday"`
	Total   decimal.Decimal `json:"total"`
}

var weekdayLabels = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// BucketByWeekday groups orders by the weekday of their order date and sums
// amounts per bucket. Output is always seven buckets in fixed Sunday-first
// order, zero-filled, regardless of input order or emptiness.
func BucketByWeekday(orders []models.Order) []WeekdayEarnings {
	totals := [7]decimal.Decimal{}
	for i := range totals {
		totals[i] = decimal.Zero
	}

	for i := range orders {
		day := int(orders[i].OrderDate.Weekday()) // time.Sunday == 0
		totals[day] = totals[day].Add(orders[i].Amount)
	}

	out := make([]WeekdayEarnings, 0, 7)
	for i := 0; i < 7; i++ {
		out = append(out, WeekdayEarnings{Weekday: weekdayLabels[i], Total: totals[i]})
	}
	return out
}
