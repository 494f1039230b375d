package progress_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"seacomms/internal/domain/commendation"
	"seacomms/internal/domain/progress"
)

// TestClampProperty verifies clamped = min(a, t) and completion iff clamped >= t.
// Property: for a >= 0 and t > 0, Aggregate agrees with min(a, t)
func TestClampProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("clamped amount is min(a, t)", prop.ForAll(
		func(a, total int) bool {
			comms := []commendation.Commendation{{ID: 1, TotalAmount: total}}
			rows := []progress.UserProgress{{UserID: "u", CommendationID: 1, CurrentAmount: a}}
			item := progress.Aggregate(comms, rows).Items[0]

			want := a
			if total < a {
				want = total
			}
			return item.Clamped == want && item.Completed == (want >= total)
		},
		gen.IntRange(0, 1_000_000),
		gen.IntRange(1, 1_000_000),
	))

	properties.TestingRun(t)
}

// TestPercentBoundsProperty verifies 0 <= percent <= 100 for any non-empty category.
// Property: Summary exists and its Percent lies in [0, 100]
func TestPercentBoundsProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("percent stays within 0..100", prop.ForAll(
		func(totals []int, amounts []int) bool {
			if len(totals) == 0 {
				return true
			}
			comms := make([]commendation.Commendation, len(totals))
			var rows []progress.UserProgress
			for i, total := range totals {
				comms[i] = commendation.Commendation{ID: int64(i + 1), TotalAmount: total}
				if i < len(amounts) {
					rows = append(rows, progress.UserProgress{UserID: "u", CommendationID: int64(i + 1), CurrentAmount: amounts[i]})
				}
			}
			s := progress.Aggregate(comms, rows).Summary
			return s != nil && s.Percent >= 0 && s.Percent <= 100 && s.CompletedCount <= s.TotalCount
		},
		gen.SliceOf(gen.IntRange(1, 10_000)),
		gen.SliceOf(gen.IntRange(0, 20_000)),
	))

	properties.TestingRun(t)
}
