package normalize

import "testing"

func almostEqual(a, b float64) bool {
	const eps = 1e-9
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < eps
}

func TestMinMax(t *testing.T) {
	got := MinMax([]float64{10, 20, 30, 40, 50}, 0, 1)
	want := []float64{0, 0.25, 0.5, 0.75, 1.0}
	for i := range want {
		if !almostEqual(got[i], want[i]) {
			t.Errorf("MinMax[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMinMax_AllEqual(t *testing.T) {
	got := MinMax([]float64{5, 5, 5}, 0, 1)
	for i, v := range got {
		if v != 0.5 {
			t.Errorf("MinMax all-equal[%d] = %v, want 0.5", i, v)
		}
	}
}

func TestZScore_ZeroStd(t *testing.T) {
	got := ZScore([]float64{7, 7, 7})
	for i, v := range got {
		if v != 0 {
			t.Errorf("ZScore zero-std[%d] = %v, want 0", i, v)
		}
	}
}

func TestRank_SingleValue(t *testing.T) {
	got := Rank([]float64{42}, true)
	if got[0] != 0.5 {
		t.Errorf("Rank single value = %v, want 0.5", got[0])
	}
}

func TestPercentileRank(t *testing.T) {
	got := PercentileRank([]float64{10, 20, 30, 40, 50}, 35)
	if got != 60.0 {
		t.Errorf("PercentileRank = %v, want 60.0", got)
	}
}

func TestInverse(t *testing.T) {
	got := Inverse([]float64{0, 50, 100})
	want := []float64{1, 0.5, 0}
	for i := range want {
		if !almostEqual(got[i], want[i]) {
			t.Errorf("Inverse[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRobust_ZeroIQR(t *testing.T) {
	got := Robust([]float64{3, 3, 3, 3})
	for i, v := range got {
		if v != 0 {
			t.Errorf("Robust zero-IQR[%d] = %v, want 0", i, v)
		}
	}
}

func TestScaleToRange(t *testing.T) {
	got := ScaleToRange(75, 0, 100, 0, 10)
	if !almostEqual(got, 7.5) {
		t.Errorf("ScaleToRange = %v, want 7.5", got)
	}
}

func TestScaleToRange_DegenerateRange(t *testing.T) {
	got := ScaleToRange(5, 10, 10, 0, 10)
	if got != 5.0 {
		t.Errorf("ScaleToRange degenerate = %v, want midpoint 5.0", got)
	}
}

func TestWeightedSum(t *testing.T) {
	scores := map[string]float64{"momentum": 8.0, "volume": 9.0, "sentiment": 7.0}
	weights := map[string]float64{"momentum": 0.3, "volume": 0.25, "sentiment": 0.2}
	// weights sum to 0.75, not 1.0 — must error
	if _, err := WeightedSum(scores, weights); err != ErrWeights {
		t.Errorf("WeightedSum with weights summing to 0.75 = %v, want ErrWeights", err)
	}

	weights2 := map[string]float64{"momentum": 0.5, "volume": 0.3, "sentiment": 0.2}
	got, err := WeightedSum(scores, weights2)
	if err != nil {
		t.Fatalf("WeightedSum returned error: %v", err)
	}
	want := 8.0*0.5 + 9.0*0.3 + 7.0*0.2
	if !almostEqual(got, want) {
		t.Errorf("WeightedSum = %v, want %v", got, want)
	}
}

func TestWeightedSum_IgnoresUnweightedMetrics(t *testing.T) {
	scores := map[string]float64{"a": 10, "b": 20}
	weights := map[string]float64{"a": 1.0}
	got, err := WeightedSum(scores, weights)
	if err != nil {
		t.Fatalf("WeightedSum returned error: %v", err)
	}
	if got != 10.0 {
		t.Errorf("WeightedSum ignoring unweighted metric = %v, want 10.0", got)
	}
}
