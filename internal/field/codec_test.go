package field

import "testing"

func TestParseLiteralQuotedString(t *testing.T) {
	enc, status := ParseLiteral("'gud'", TypeChar, 9)
	if status != ParseOK {
		t.Fatalf("expected ParseOK, got %v", status)
	}
	if got := Render(enc, TypeChar); got != "'gud'" {
		t.Fatalf("expected 'gud', got %s", got)
	}
}

func TestEncodeTextAlreadyUnquoted(t *testing.T) {
	enc, status := EncodeText("gud", TypeChar, 9)
	if status != ParseOK {
		t.Fatalf("expected ParseOK, got %v", status)
	}
	if got := Render(enc, TypeChar); got != "'gud'" {
		t.Fatalf("expected 'gud', got %s", got)
	}
}

func TestEncodeTextNull(t *testing.T) {
	enc, status := EncodeText("null", TypeI32, 5)
	if status != ParseOK {
		t.Fatalf("expected ParseOK, got %v", status)
	}
	if !IsNull(enc) {
		t.Fatalf("expected null encoding")
	}
}

func TestEncodeTextOutOfRange(t *testing.T) {
	_, status := EncodeText("300", TypeU8, 2)
	if status != ParseOutOfRange {
		t.Fatalf("expected ParseOutOfRange, got %v", status)
	}
}

func TestEncodeTextIntegerRoundTrip(t *testing.T) {
	enc, status := EncodeText("-42", TypeI32, 5)
	if status != ParseOK {
		t.Fatalf("expected ParseOK, got %v", status)
	}
	if got := Render(enc, TypeI32); got != "-42" {
		t.Fatalf("expected -42, got %s", got)
	}
}

func TestEncodeTextBool(t *testing.T) {
	enc, status := EncodeText("true", TypeBool, 2)
	if status != ParseOK {
		t.Fatalf("expected ParseOK, got %v", status)
	}
	if got := Render(enc, TypeBool); got != "true" {
		t.Fatalf("expected true, got %s", got)
	}
}
