package progress

import (
	"fmt"
	"math"

	"seacomms/internal/domain/commendation"
)

// Item is the derived display state of one commendation for the current user.
type Item struct {
	Commendation commendation.Commendation `json:"commendation"`
	Current      int                       `json:"current"`
	Clamped      int                       `json:"clamped"`
	Completed    bool                      `json:"completed"`
	BarPercent   float64                   `json:"bar_percent"`
}

// Summary aggregates a category. PercentLabel is Percent with one decimal digit.
type Summary struct {
	TotalRequired  int    `json:"total_required"`
	TotalProgress  int    `json:"total_progress"`
	CompletedCount int    `json:"completed_count"`
	TotalCount     int    `json:"total_count"`
	Percent        int    `json:"percent"`
	PercentLabel   string `json:"percent_label"`
}

// CategoryProgress is the aggregator output. Summary is nil when there is no data.
type CategoryProgress struct {
	Items   []Item   `json:"items"`
	Summary *Summary `json:"summary"`
}

// Clamp bounds an amount to [0, total].
func Clamp(amount, total int) int {
	if amount > total {
		amount = total
	}
	if amount < 0 {
		amount = 0
	}
	return amount
}

// Aggregate derives per-item and per-category metrics.
// Percent is floor(progress/required*100) computed in float64, then printed with
// one decimal place, so the label always ends in ".0".
// PRE: rows belong to a single user
// POST: Items follows the order of comms; Summary is nil when comms is empty
// or the required total is 0
func Aggregate(comms []commendation.Commendation, rows []UserProgress) CategoryProgress {
	byID := make(map[int64]int, len(rows))
	for _, r := range rows {
		byID[r.CommendationID] = r.CurrentAmount
	}

	out := CategoryProgress{Items: make([]Item, 0, len(comms))}
	var required, progressed, completed int
	for _, c := range comms {
		current := byID[c.ID]
		clamped := Clamp(current, c.TotalAmount)
		done := clamped >= c.TotalAmount

		out.Items = append(out.Items, Item{
			Commendation: c,
			Current:      current,
			Clamped:      clamped,
			Completed:    done,
			BarPercent:   barPercent(current, c.TotalAmount),
		})

		required += c.TotalAmount
		progressed += clamped
		if done {
			completed++
		}
	}

	if len(comms) == 0 || required == 0 {
		return out
	}

	pct := int(math.Floor(float64(progressed) / float64(required) * 100))
	out.Summary = &Summary{
		TotalRequired:  required,
		TotalProgress:  progressed,
		CompletedCount: completed,
		TotalCount:     len(comms),
		Percent:        pct,
		PercentLabel:   fmt.Sprintf("%.1f", float64(pct)),
	}
	return out
}

func barPercent(current, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Max(0, math.Min(float64(current)/float64(total)*100, 100))
}
