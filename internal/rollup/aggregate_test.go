package rollup_test

import (
	"testing"

	"github.com/HendryAvila/wprollup/internal/rollup"
	"github.com/HendryAvila/wprollup/internal/workpkg"
	"github.com/google/go-cmp/cmp"
)

// ─── Done ratio ─────────────────────────────────────────────────────────────

func TestDoneRatio_Weighting(t *testing.T) {
	tests := []struct {
		name   string
		leaves []*workpkg.Item
		want   *int
	}{
		{
			name:   "no leaves",
			leaves: nil,
			want:   nil,
		},
		{
			name: "story points win",
			leaves: []*workpkg.Item{
				{ID: 1, StoryPoints: workpkg.Int(4), Closed: true},
				{ID: 2, StoryPoints: workpkg.Int(2), DoneRatio: workpkg.Int(50)},
			},
			// (4*100 + 2*50) / (3 * 2) = 83.33
			want: workpkg.Int(83),
		},
		{
			name: "story points win over hours",
			leaves: []*workpkg.Item{
				{ID: 1, StoryPoints: workpkg.Int(1), EstimatedHours: workpkg.Float(100), DoneRatio: workpkg.Int(0)},
				{ID: 2, StoryPoints: workpkg.Int(3), EstimatedHours: workpkg.Float(1), DoneRatio: workpkg.Int(100)},
			},
			// (1*0 + 3*100) / (2 * 2) = 75
			want: workpkg.Int(75),
		},
		{
			name: "estimated hours when no story points",
			leaves: []*workpkg.Item{
				{ID: 1, EstimatedHours: workpkg.Float(2), DoneRatio: workpkg.Int(100)},
				{ID: 2, EstimatedHours: workpkg.Float(6), DoneRatio: workpkg.Int(0)},
				{ID: 3, DoneRatio: workpkg.Int(50)},
			},
			// (2*100 + 6*0 + 0*50) / (8/3 * 3) = 25
			want: workpkg.Int(25),
		},
		{
			name: "unestimated leaf carries no weight",
			leaves: []*workpkg.Item{
				{ID: 1, EstimatedHours: workpkg.Float(10), DoneRatio: workpkg.Int(100)},
				{ID: 2, DoneRatio: workpkg.Int(0)},
			},
			// (10*100 + 0*0) / (5 * 2) = 100
			want: workpkg.Int(100),
		},
		{
			name: "uniform weight without estimates",
			leaves: []*workpkg.Item{
				{ID: 1, DoneRatio: workpkg.Int(20)},
				{ID: 2, DoneRatio: workpkg.Int(40)},
				{ID: 3, Closed: true},
			},
			// (20 + 40 + 100) / 3 = 53.33
			want: workpkg.Int(53),
		},
		{
			name: "zero story points and zero hours are uniform",
			leaves: []*workpkg.Item{
				{ID: 1, StoryPoints: workpkg.Int(0), EstimatedHours: workpkg.Float(0), DoneRatio: workpkg.Int(30)},
				{ID: 2, StoryPoints: workpkg.Int(0), EstimatedHours: workpkg.Float(0), DoneRatio: workpkg.Int(60)},
			},
			want: workpkg.Int(45),
		},
		{
			name: "unset ratio counts as zero",
			leaves: []*workpkg.Item{
				{ID: 1},
				{ID: 2, DoneRatio: workpkg.Int(100)},
			},
			want: workpkg.Int(50),
		},
		{
			name: "rounds half away from zero",
			leaves: []*workpkg.Item{
				{ID: 1, DoneRatio: workpkg.Int(0)},
				{ID: 2, DoneRatio: workpkg.Int(1)},
			},
			want: workpkg.Int(1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rollup.DoneRatio(&workpkg.Item{ID: 99}, tt.leaves, rollup.Policy{})
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DoneRatio() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDoneRatio_ClosedLeafIgnoresStoredRatio(t *testing.T) {
	leaves := []*workpkg.Item{
		{ID: 1, DoneRatio: workpkg.Int(10), Closed: true},
	}
	got := rollup.DoneRatio(&workpkg.Item{ID: 9}, leaves, rollup.Policy{})
	if got == nil || *got != 100 {
		t.Fatalf("DoneRatio() = %v, want 100", got)
	}
}

func TestDoneRatio_Policy(t *testing.T) {
	leaves := []*workpkg.Item{{ID: 1, DoneRatio: workpkg.Int(40)}}
	pinned := &workpkg.Item{ID: 9, Status: &workpkg.Status{ID: 1, Name: "In progress", DefaultDoneRatio: workpkg.Int(10)}}
	unpinned := &workpkg.Item{ID: 9, Status: &workpkg.Status{ID: 2, Name: "New"}}

	tests := []struct {
		name     string
		ancestor *workpkg.Item
		policy   rollup.Policy
		want     *int
	}{
		{"disabled", unpinned, rollup.Policy{DoneRatioDisabled: true}, nil},
		{"status pins ratio", pinned, rollup.Policy{UseStatusForDoneRatio: true}, nil},
		{"status without default", unpinned, rollup.Policy{UseStatusForDoneRatio: true}, workpkg.Int(40)},
		{"status default ignored in field mode", pinned, rollup.Policy{}, workpkg.Int(40)},
		{"no status in status mode", &workpkg.Item{ID: 9}, rollup.Policy{UseStatusForDoneRatio: true}, workpkg.Int(40)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rollup.DoneRatio(tt.ancestor, leaves, tt.policy)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DoneRatio() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// ─── Derived estimated hours ────────────────────────────────────────────────

func TestDerivedEstimatedHours(t *testing.T) {
	tests := []struct {
		name   string
		leaves []*workpkg.Item
		want   *float64
	}{
		{"no leaves", nil, nil},
		{
			"sums direct estimates",
			[]*workpkg.Item{
				{ID: 1, EstimatedHours: workpkg.Float(1.5)},
				{ID: 2, EstimatedHours: workpkg.Float(2)},
			},
			workpkg.Float(3.5),
		},
		{
			"derived estimate wins",
			[]*workpkg.Item{
				{ID: 1, EstimatedHours: workpkg.Float(1), DerivedEstimatedHours: workpkg.Float(8)},
				{ID: 2, EstimatedHours: workpkg.Float(2)},
			},
			workpkg.Float(10),
		},
		{
			"all zero is unset",
			[]*workpkg.Item{
				{ID: 1, EstimatedHours: workpkg.Float(0)},
				{ID: 2},
			},
			nil,
		},
		{
			"zero estimates do not contribute",
			[]*workpkg.Item{
				{ID: 1, EstimatedHours: workpkg.Float(0)},
				{ID: 2, EstimatedHours: workpkg.Float(4)},
			},
			workpkg.Float(4),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rollup.DerivedEstimatedHours(tt.leaves)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DerivedEstimatedHours() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAggregate_DoesNotMutateInputs(t *testing.T) {
	ancestor := &workpkg.Item{ID: 1, DoneRatio: workpkg.Int(5)}
	leaves := []*workpkg.Item{
		{ID: 2, ParentID: workpkg.Int64(1), StoryPoints: workpkg.Int(3), DoneRatio: workpkg.Int(50)},
		{ID: 3, ParentID: workpkg.Int64(1), EstimatedHours: workpkg.Float(2), Closed: true},
	}
	wantAncestor := ancestor.Clone()
	wantLeaves := []*workpkg.Item{leaves[0].Clone(), leaves[1].Clone()}

	got := rollup.Aggregate(ancestor, leaves, rollup.Policy{})

	if got.DoneRatio == nil || *got.DoneRatio != 50 {
		t.Errorf("DoneRatio = %v, want 50", got.DoneRatio)
	}
	if got.EstimatedHours == nil || *got.EstimatedHours != 2 {
		t.Errorf("EstimatedHours = %v, want 2", got.EstimatedHours)
	}
	if diff := cmp.Diff(wantAncestor, ancestor); diff != "" {
		t.Errorf("ancestor mutated (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantLeaves, leaves); diff != "" {
		t.Errorf("leaves mutated (-want +got):\n%s", diff)
	}
}
