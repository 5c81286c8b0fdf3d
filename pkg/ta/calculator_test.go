package ta

import (
	"math"
	"testing"
)

func TestPercentChange(t *testing.T) {
	values := []float64{100, 100, 100, 110}

	pct, ok := PercentChange(values, 2)
	if !ok {
		t.Fatal("expected ok for sufficient history")
	}
	if math.Abs(pct-10.0) > 1e-9 {
		t.Fatalf("expected +10%%, got %f", pct)
	}

	pct, ok = PercentChange(values, 4)
	if !ok || math.Abs(pct-10.0) > 1e-9 {
		t.Fatalf("expected +10%% over full window, got %f (ok=%v)", pct, ok)
	}
}

func TestPercentChangeInsufficientHistory(t *testing.T) {
	if _, ok := PercentChange([]float64{100, 101}, 3); ok {
		t.Fatal("expected not ok for short series")
	}
	if _, ok := PercentChange(nil, 1); ok {
		t.Fatal("expected not ok for empty series")
	}
}

func TestPercentChangeZeroReference(t *testing.T) {
	// 参照收盘价为零必须视为数据不足，不能除零
	if _, ok := PercentChange([]float64{0, 50, 60}, 3); ok {
		t.Fatal("expected not ok for zero reference close")
	}
}

func TestVolumeTrendUp(t *testing.T) {
	rising := []float64{1, 1, 1, 1, 1, 1, 2, 2, 2, 2, 2, 2}
	up, ok := VolumeTrendUp(rising, 6)
	if !ok || !up {
		t.Fatalf("expected rising volume trend, got up=%v ok=%v", up, ok)
	}

	flat := []float64{2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2}
	up, ok = VolumeTrendUp(flat, 6)
	if !ok {
		t.Fatal("expected ok for sufficient history")
	}
	if up {
		t.Fatal("equal volume must not count as rising (strictly greater required)")
	}

	if _, ok = VolumeTrendUp(rising[:11], 6); ok {
		t.Fatal("expected not ok with fewer than 2*window samples")
	}
}

func TestSampleStdDev(t *testing.T) {
	// 总体标准差恰好为 2 的经典样本，样本标准差 = 2*sqrt(8/7)
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	std, ok := SampleStdDev(values, 8)
	if !ok {
		t.Fatal("expected ok")
	}
	want := 2 * math.Sqrt(8.0/7.0)
	if math.Abs(std-want) > 1e-9 {
		t.Fatalf("expected %f, got %f", want, std)
	}
}

func TestRelativeVolatility(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 8}
	ratio, ok := RelativeVolatility(values, 8)
	if !ok {
		t.Fatal("expected ok")
	}
	if ratio <= 0 {
		t.Fatalf("expected positive ratio, got %f", ratio)
	}

	if _, ok := RelativeVolatility([]float64{1, 1, 1, 0}, 4); ok {
		t.Fatal("expected not ok when latest close is zero")
	}
}
