package stats

import (
	"math"
	"testing"
)

func ptr(v float64) *float64 { return &v }

func TestRollingMean_GapWithMinPeriods(t *testing.T) {
	// Window 3 over [1, 2, missing, 4] with minPeriods 2:
	// index 2 sees {1,2}, index 3 sees {2,4}.
	values := []*float64{ptr(1), ptr(2), nil, ptr(4)}

	out := RollingMean(values, 3, 2)

	if out[0] != nil {
		t.Errorf("expected index 0 undefined (1 valid < minPeriods 2), got %f", *out[0])
	}
	if out[1] == nil || *out[1] != 1.5 {
		t.Errorf("expected 1.5 at index 1, got %v", out[1])
	}
	if out[2] == nil || *out[2] != 1.5 {
		t.Errorf("expected 1.5 at index 2, got %v", out[2])
	}
	if out[3] == nil || *out[3] != 3.0 {
		t.Errorf("expected 3.0 at index 3, got %v", out[3])
	}
}

func TestRollingMean_StrictFullWindow(t *testing.T) {
	// minPeriods 0 means the full window must be valid.
	values := []*float64{ptr(1), ptr(2), nil, ptr(4)}

	out := RollingMean(values, 3, 0)

	for i, v := range out {
		if v != nil {
			t.Errorf("expected index %d undefined under full-window policy, got %f", i, *v)
		}
	}

	values = []*float64{ptr(1), ptr(2), ptr(3), ptr(4)}
	out = RollingMean(values, 3, 0)
	if out[2] == nil || *out[2] != 2.0 {
		t.Errorf("expected 2.0 at index 2, got %v", out[2])
	}
	if out[3] == nil || *out[3] != 3.0 {
		t.Errorf("expected 3.0 at index 3, got %v", out[3])
	}
}

func TestRollingStd_SampleVariance(t *testing.T) {
	values := []*float64{ptr(2), ptr(4), ptr(4), ptr(4), ptr(5), ptr(5), ptr(7), ptr(9)}

	out := RollingStd(values, 8, 8)

	// Sample std of the canonical set: variance 32/7.
	want := math.Sqrt(32.0 / 7.0)
	got := out[7]
	if got == nil || math.Abs(*got-want) > 1e-12 {
		t.Errorf("expected std %f, got %v", want, got)
	}
}

func TestRollingStd_NeedsTwoPoints(t *testing.T) {
	values := []*float64{ptr(5), nil, nil}

	out := RollingStd(values, 3, 1)

	for i, v := range out {
		if v != nil {
			t.Errorf("expected index %d undefined with one valid point, got %f", i, *v)
		}
	}
}

func TestZScore_ConstantWindowIsMissing(t *testing.T) {
	// std == 0 must yield missing, not zero and not a division by zero.
	values := []*float64{ptr(3), ptr(3), ptr(3), ptr(3)}

	out := ZScore(values, 4, 2)

	for i, v := range out {
		if v != nil {
			t.Errorf("expected index %d undefined on constant window, got %f", i, *v)
		}
	}
}

func TestZScore_TrailingWindow(t *testing.T) {
	values := []*float64{ptr(1), ptr(2), ptr(3), ptr(10)}

	out := ZScore(values, 4, 2)

	if out[0] != nil {
		t.Errorf("expected index 0 undefined (window of one), got %f", *out[0])
	}
	// Index 3: mean 4, sample std of {1,2,3,10} = sqrt(50/3).
	want := (10.0 - 4.0) / math.Sqrt(50.0/3.0)
	if out[3] == nil || math.Abs(*out[3]-want) > 1e-12 {
		t.Errorf("expected z %f at index 3, got %v", want, out[3])
	}
}

func TestZScore_MissingObservationStaysMissing(t *testing.T) {
	values := []*float64{ptr(1), ptr(2), nil, ptr(4), ptr(8)}

	out := ZScore(values, 5, 2)

	if out[2] != nil {
		t.Errorf("expected missing observation to stay missing, got %f", *out[2])
	}
	if out[4] == nil {
		t.Error("expected defined z-score at index 4")
	}
}

func TestPercentileRank(t *testing.T) {
	values := []*float64{ptr(1), ptr(2), nil, ptr(3), ptr(4)}

	rank := PercentileRank(values, 5, 3.5)
	if rank == nil || *rank != 0.75 {
		t.Errorf("expected rank 0.75, got %v", rank)
	}

	rank = PercentileRank(values, 2, 1.0)
	if rank == nil || *rank != 0.0 {
		t.Errorf("expected rank 0.0, got %v", rank)
	}

	empty := []*float64{nil, nil}
	if got := PercentileRank(empty, 2, 1.0); got != nil {
		t.Errorf("expected nil rank over all-missing window, got %f", *got)
	}
}

func TestRollingMean_WindowSlidesPastGap(t *testing.T) {
	// A value must leave the running sums when it falls out of the window
	// even when newer slots are missing.
	values := []*float64{ptr(100), nil, nil, nil, ptr(2), ptr(4)}

	out := RollingMean(values, 3, 1)

	if out[4] == nil || *out[4] != 2.0 {
		t.Errorf("expected 2.0 at index 4 after 100 left the window, got %v", out[4])
	}
	if out[5] == nil || *out[5] != 3.0 {
		t.Errorf("expected 3.0 at index 5, got %v", out[5])
	}
}
