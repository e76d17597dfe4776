package rollup

import (
	"math"

	"github.com/HendryAvila/wprollup/internal/workpkg"
)

// Derived holds the values the aggregator proposes for one ancestor.
type Derived struct {
	// DoneRatio is nil when no ratio was produced; the ancestor keeps
	// its current value.
	DoneRatio *int

	// EstimatedHours is nil when the leaves carry no estimate.
	EstimatedHours *float64
}

// Aggregate computes both derived fields of ancestor from its leaves.
// It does not modify ancestor or leaves.
func Aggregate(ancestor *workpkg.Item, leaves []*workpkg.Item, policy Policy) Derived {
	return Derived{
		DoneRatio:      DoneRatio(ancestor, leaves, policy),
		EstimatedHours: DerivedEstimatedHours(leaves),
	}
}

// DoneRatio returns the weighted average completion of leaves, or nil
// when the policy or the ancestor's status pins the ratio, or there are
// no leaves to average.
func DoneRatio(ancestor *workpkg.Item, leaves []*workpkg.Item, policy Policy) *int {
	if policy.DoneRatioDisabled {
		return nil
	}
	if policy.UseStatusForDoneRatio && ancestor.Status != nil && ancestor.Status.DefaultDoneRatio != nil {
		return nil
	}

	progress, ok := weightedProgress(leaves)
	if !ok {
		return nil
	}
	return workpkg.Int(int(math.Round(progress)))
}

// weightedProgress is the weighted average rounded to two decimals.
// Story points win over estimated hours, which win over a uniform
// weight of 1; the choice is made once for the whole leaf set.
func weightedProgress(leaves []*workpkg.Item) (float64, bool) {
	count := len(leaves)
	if count == 0 {
		return 0, false
	}

	weight := func(*workpkg.Item) float64 { return 1 }
	average := 1.0

	if sp := averageStoryPoints(leaves); sp > 0 {
		weight = leafStoryPoints
		average = sp
	} else if h := averageEstimatedHours(leaves); h > 0 {
		weight = leafEstimatedHours
		average = h
	}

	var sum float64
	for _, leaf := range leaves {
		sum += weight(leaf) * leafDoneRatio(leaf)
	}

	return round2(sum / (average * float64(count))), true
}

// averageStoryPoints averages over every leaf; unset counts as 0.
func averageStoryPoints(leaves []*workpkg.Item) float64 {
	var sum float64
	for _, leaf := range leaves {
		sum += leafStoryPoints(leaf)
	}
	return sum / float64(max(len(leaves), 1))
}

// averageEstimatedHours averages over every leaf, so a leaf without an
// estimate carries weight 0 instead of shrinking the divisor.
func averageEstimatedHours(leaves []*workpkg.Item) float64 {
	var sum float64
	for _, leaf := range leaves {
		sum += leafEstimatedHours(leaf)
	}
	return sum / float64(max(len(leaves), 1))
}

func leafStoryPoints(leaf *workpkg.Item) float64 {
	if leaf.StoryPoints == nil {
		return 0
	}
	return float64(*leaf.StoryPoints)
}

func leafEstimatedHours(leaf *workpkg.Item) float64 {
	if leaf.EstimatedHours == nil || *leaf.EstimatedHours <= 0 {
		return 0
	}
	return *leaf.EstimatedHours
}

// leafDoneRatio is 100 for closed leaves regardless of the stored ratio.
func leafDoneRatio(leaf *workpkg.Item) float64 {
	if leaf.Closed {
		return workpkg.MaxDoneRatio
	}
	if leaf.DoneRatio == nil {
		return 0
	}
	return float64(*leaf.DoneRatio)
}

// DerivedEstimatedHours sums the leaves' estimates, preferring a leaf's
// own derived estimate over its direct one. A zero total is reported as
// nil, never as 0.
func DerivedEstimatedHours(leaves []*workpkg.Item) *float64 {
	var sum float64
	for _, h := range estimates(leaves) {
		sum += h
	}
	if sum == 0 {
		return nil
	}
	return workpkg.Float(sum)
}

// estimates lists the non-zero estimates of items, preferring an item's
// derived estimate when present.
func estimates(items []*workpkg.Item) []float64 {
	out := make([]float64, 0, len(items))
	for _, it := range items {
		h := it.EstimatedHours
		if it.DerivedEstimatedHours != nil {
			h = it.DerivedEstimatedHours
		}
		if h == nil || *h == 0 {
			continue
		}
		out = append(out, *h)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
