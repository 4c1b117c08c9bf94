package metrics

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestScoreMultisetOverlap(t *testing.T) {
	t.Parallel()

	r := Score([]string{"r", "R", "x"}, []string{"r", "R", "r"}, 10)
	if r.TP != 2 {
		t.Fatalf("tp: got %d, want 2", r.TP)
	}
	if !almostEqual(r.Precision, 2.0/3) || !almostEqual(r.Recall, 2.0/3) || !almostEqual(r.F1, 2.0/3) {
		t.Fatalf("got p=%v r=%v f1=%v, want 2/3 each", r.Precision, r.Recall, r.F1)
	}
}

func TestScoreInvariants(t *testing.T) {
	t.Parallel()

	pairs := []struct {
		predicted []string
		truth     []string
	}{
		{nil, nil},
		{[]string{"a"}, nil},
		{nil, []string{"a"}},
		{[]string{"a", "a", "b"}, []string{"a", "b", "b", "c"}},
		{[]string{"x", "y", "z"}, []string{"z"}},
		{[]string{"r", "R", "x"}, []string{"r", "R", "r"}},
	}

	for _, pair := range pairs {
		r := Score(pair.predicted, pair.truth, 10)

		min := r.PredCount
		if r.TruthCount < min {
			min = r.TruthCount
		}
		if r.TP > min {
			t.Fatalf("%v vs %v: tp=%d exceeds min(%d, %d)", pair.predicted, pair.truth, r.TP, r.PredCount, r.TruthCount)
		}
		for name, v := range map[string]float64{
			"precision": r.Precision, "recall": r.Recall, "f1": r.F1,
			"ap": r.AP, "rr": r.RR, "ndcg": r.NDCG,
		} {
			if v < 0 || v > 1 {
				t.Fatalf("%v vs %v: %s=%v out of [0,1]", pair.predicted, pair.truth, name, v)
			}
		}

		again := Score(pair.predicted, pair.truth, 10)
		if again != r {
			t.Fatalf("%v vs %v: not idempotent: %#v != %#v", pair.predicted, pair.truth, again, r)
		}
	}
}

func TestAveragePrecisionOrderSensitive(t *testing.T) {
	t.Parallel()

	// Hits at positions 1 and 3; second "a" consumes the remaining
	// multiplicity instead of double counting.
	ap := AveragePrecision([]string{"a", "b", "a"}, []string{"a", "a"})
	want := (1.0 + 2.0/3) / 2
	if !almostEqual(ap, want) {
		t.Fatalf("ap: got %v, want %v", ap, want)
	}

	// A third "a" finds no remaining multiplicity.
	ap = AveragePrecision([]string{"a", "a", "a"}, []string{"a", "a"})
	want = (1.0 + 1.0) / 2
	if !almostEqual(ap, want) {
		t.Fatalf("ap over-match: got %v, want %v", ap, want)
	}

	if got := AveragePrecision([]string{"a"}, nil); got != 0 {
		t.Fatalf("empty truth: got %v, want 0", got)
	}
}

func TestReciprocalRank(t *testing.T) {
	t.Parallel()

	if got := ReciprocalRank([]string{"x", "y", "z"}, []string{"z"}); !almostEqual(got, 1.0/3) {
		t.Fatalf("got %v, want 1/3", got)
	}
	if got := ReciprocalRank([]string{"x", "y"}, []string{"z"}); got != 0 {
		t.Fatalf("no hit: got %v, want 0", got)
	}
	if got := ReciprocalRank(nil, []string{"z"}); got != 0 {
		t.Fatalf("empty prediction: got %v, want 0", got)
	}
}

func TestNDCG(t *testing.T) {
	t.Parallel()

	if got := NDCG([]string{"z", "y"}, []string{"z"}, 2); !almostEqual(got, 1) {
		t.Fatalf("first-position hit: got %v, want 1", got)
	}

	// Hit at position 2 only: dcg = 1/log2(3), idcg = 1/log2(2).
	got := NDCG([]string{"y", "z"}, []string{"z"}, 2)
	want := (1 / math.Log2(3)) / 1
	if !almostEqual(got, want) {
		t.Fatalf("second-position hit: got %v, want %v", got, want)
	}

	// Duplicate gains consume multiplicity.
	got = NDCG([]string{"a", "a"}, []string{"a"}, 2)
	if !almostEqual(got, 1) {
		t.Fatalf("duplicate prediction: got %v, want 1", got)
	}

	if got := NDCG([]string{"a"}, nil, 2); got != 0 {
		t.Fatalf("empty truth: got %v, want 0", got)
	}
	if got := NDCG([]string{"a"}, []string{"a"}, 0); got != 0 {
		t.Fatalf("k=0: got %v, want 0", got)
	}
}

func TestScoreEmptyBoundaries(t *testing.T) {
	t.Parallel()

	r := Score(nil, []string{"a", "b"}, 10)
	if r.Precision != 0 || r.Recall != 0 || r.F1 != 0 || r.AP != 0 || r.RR != 0 || r.NDCG != 0 {
		t.Fatalf("empty prediction: got %#v, want all zeros", r)
	}

	r = Score([]string{"a", "b"}, nil, 10)
	if r.Recall != 0 || r.AP != 0 || r.RR != 0 || r.NDCG != 0 {
		t.Fatalf("empty truth: got %#v, want zero recall/ap/rr/ndcg", r)
	}
}
