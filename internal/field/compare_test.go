package field

import "testing"

func TestCompareOrdersNullBeforeNonNull(t *testing.T) {
	n := EncodeNull(5)
	v, status := EncodeText("1", TypeI32, 5)
	if status != ParseOK {
		t.Fatalf("unexpected status %v", status)
	}
	if c := Compare(n, v, TypeI32, 5); c >= 0 {
		t.Fatalf("expected null to sort before non-null, got %d", c)
	}
	if c := Compare(v, n, TypeI32, 5); c <= 0 {
		t.Fatalf("expected non-null to sort after null, got %d", c)
	}
	if c := Compare(n, EncodeNull(5), TypeI32, 5); c != 0 {
		t.Fatalf("expected two nulls to compare equal, got %d", c)
	}
}

func TestCompareIntegers(t *testing.T) {
	a, _ := EncodeText("10", TypeI32, 5)
	b, _ := EncodeText("20", TypeI32, 5)
	if Compare(a, b, TypeI32, 5) >= 0 {
		t.Fatalf("expected 10 < 20")
	}
	if Compare(b, a, TypeI32, 5) <= 0 {
		t.Fatalf("expected 20 > 10")
	}
}

func TestCompareStrings(t *testing.T) {
	a, _ := EncodeText("apple", TypeChar, 8)
	b, _ := EncodeText("banana", TypeChar, 8)
	if Compare(a, b, TypeChar, 8) >= 0 {
		t.Fatalf("expected apple < banana")
	}
}
