package field

import "testing"

func records(t *testing.T, texts []string, typ Type, length uint64) [][]byte {
	t.Helper()
	out := make([][]byte, len(texts))
	for i, s := range texts {
		enc, status := EncodeText(s, typ, length)
		if status != ParseOK {
			t.Fatalf("encoding %q: %v", s, status)
		}
		out[i] = enc
	}
	return out
}

func TestAggregateSum(t *testing.T) {
	recs := records(t, []string{"1", "2", "null", "4"}, TypeI32, 5)
	res, err := Aggregate(AggSum, recs, 0, TypeI32, 5)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got := Render(res.Encoded, res.ResultType); got != "7" {
		t.Fatalf("expected 7, got %s", got)
	}
}

func TestAggregateCountSkipsNulls(t *testing.T) {
	recs := records(t, []string{"1", "null", "3"}, TypeI32, 5)
	res, err := Aggregate(AggCount, recs, 0, TypeI32, 5)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got := Render(res.Encoded, res.ResultType); got != "2" {
		t.Fatalf("expected count 2 (count(field) counts non-null rows), got %s", got)
	}
}

func TestAggregateAvgAllNullIsNull(t *testing.T) {
	recs := records(t, []string{"null", "null"}, TypeI32, 5)
	res, err := Aggregate(AggAvg, recs, 0, TypeI32, 5)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !IsNull(res.Encoded) {
		t.Fatalf("expected NULL average over an all-null group")
	}
}

func TestAggregateMaxMin(t *testing.T) {
	recs := records(t, []string{"3", "1", "4", "1", "5"}, TypeI32, 5)
	max, err := Aggregate(AggMax, recs, 0, TypeI32, 5)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got := Render(max.Encoded, max.ResultType); got != "5" {
		t.Fatalf("expected max 5, got %s", got)
	}
	min, err := Aggregate(AggMin, recs, 0, TypeI32, 5)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got := Render(min.Encoded, min.ResultType); got != "1" {
		t.Fatalf("expected min 1, got %s", got)
	}
}
