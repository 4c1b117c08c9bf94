// Package metrics scores a predicted extraction list against a ground-truth
// list using multiset semantics: duplicate tokens are distinct countable
// occurrences, so a truth list with three "r" entries expects three matches.
package metrics

import "math"

// Result holds the overlap metrics for one predicted/truth pair.
type Result struct {
	Precision  float64
	Recall     float64
	F1         float64
	TP         int
	PredCount  int
	TruthCount int

	AP   float64 // order-sensitive average precision
	RR   float64 // reciprocal rank of the first hit
	NDCG float64 // normalized DCG at the cutoff used to compute it
}

// Counts builds a token -> occurrence count map.
func Counts(tokens []string) map[string]int {
	out := make(map[string]int, len(tokens))
	for _, t := range tokens {
		out[t]++
	}
	return out
}

// TruePositives returns the multiset-intersection cardinality:
// sum over tokens of min(count in predicted, count in truth).
func TruePositives(predicted, truth []string) int {
	truthCounts := Counts(truth)
	tp := 0
	for token, n := range Counts(predicted) {
		m := truthCounts[token]
		if m < n {
			tp += m
		} else {
			tp += n
		}
	}
	return tp
}

// Score computes precision, recall, F1, AP, RR and nDCG@k for a pair.
// k bounds the nDCG cutoff only; precision/recall/F1 use the full prediction.
func Score(predicted, truth []string, k int) Result {
	r := Result{
		TP:         TruePositives(predicted, truth),
		PredCount:  len(predicted),
		TruthCount: len(truth),
	}
	if r.PredCount > 0 {
		r.Precision = float64(r.TP) / float64(r.PredCount)
	}
	if r.TruthCount > 0 {
		r.Recall = float64(r.TP) / float64(r.TruthCount)
	}
	if r.Precision+r.Recall > 0 {
		r.F1 = 2 * r.Precision * r.Recall / (r.Precision + r.Recall)
	}
	r.AP = AveragePrecision(predicted, truth)
	r.RR = ReciprocalRank(predicted, truth)
	r.NDCG = NDCG(predicted, truth, k)
	return r
}

// AveragePrecision walks the prediction left to right with a remaining
// truth-multiplicity map; each hit consumes one unit of multiplicity so an
// over-matched token is not double counted. Returns 0 for empty truth.
func AveragePrecision(predicted, truth []string) float64 {
	if len(truth) == 0 {
		return 0
	}
	remaining := Counts(truth)
	hits := 0
	sum := 0.0
	for i, token := range predicted {
		if remaining[token] > 0 {
			remaining[token]--
			hits++
			sum += float64(hits) / float64(i+1)
		}
	}
	return sum / float64(len(truth))
}

// ReciprocalRank returns 1/i for the first position i (1-indexed) whose token
// still has remaining truth multiplicity, or 0 when nothing matches.
func ReciprocalRank(predicted, truth []string) float64 {
	remaining := Counts(truth)
	for i, token := range predicted {
		if remaining[token] > 0 {
			return 1 / float64(i+1)
		}
		// Misses never consume multiplicity, so no decrement on this path.
	}
	return 0
}

// NDCG computes normalized discounted cumulative gain at cutoff k with binary
// gains: position i (0-indexed) contributes 1/log2(i+2) when its token still
// has remaining truth multiplicity, consuming one unit.
func NDCG(predicted, truth []string, k int) float64 {
	if k <= 0 || len(truth) == 0 {
		return 0
	}
	top := predicted
	if k < len(top) {
		top = top[:k]
	}

	remaining := Counts(truth)
	dcg := 0.0
	for i, token := range top {
		if remaining[token] > 0 {
			remaining[token]--
			dcg += 1 / math.Log2(float64(i+2))
		}
	}

	ideal := k
	if len(truth) < ideal {
		ideal = len(truth)
	}
	idcg := 0.0
	for i := 0; i < ideal; i++ {
		idcg += 1 / math.Log2(float64(i + 2))
	}
	if idcg == 0 {
		return 0
	}
	return dcg / idcg
}
