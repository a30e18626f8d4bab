package expr

import "testing"

func eval(t *testing.T, s string, symbols map[string]int64) int64 {
	t.Helper()
	e, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	v, err := e.Eval(symbols)
	if err != nil {
		t.Fatalf("Eval(%q): %v", s, err)
	}
	return v
}

func TestPrecedence(t *testing.T) {
	cases := []struct {
		expr string
		want int64
	}{
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"10 - 2 - 3", 5},
		{"2 | 1 & 3", 3},
		{"2 ^ 3 & 1", 3},
		{"8 / 2 / 2", 2},
		{"7 % 3", 1},
		{"-5 + 10", 5},
		{"-(5 + 10)", -15},
		{"$FF", 255},
		{"0x10", 16},
		{"0b1010", 10},
		{"'A'", 65},
	}
	for _, c := range cases {
		if got := eval(t, c.expr, nil); got != c.want {
			t.Errorf("eval(%q) = %d, want %d", c.expr, got, c.want)
		}
	}
}

func TestIdentLookup(t *testing.T) {
	symbols := map[string]int64{"BASE": 0x100, "SIZE": 16}
	if got := eval(t, "BASE + SIZE * 2", symbols); got != 0x120 {
		t.Errorf("got %d, want %d", got, 0x120)
	}
}

func TestMissingIdentifier(t *testing.T) {
	e, err := Parse("UNDEFINED + 1")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = e.Eval(map[string]int64{})
	if err == nil {
		t.Fatal("expected missing identifier error")
	}
	name, ok := IsMissingIdentifier(err)
	if !ok || name != "UNDEFINED" {
		t.Errorf("IsMissingIdentifier = %q, %v, want UNDEFINED, true", name, ok)
	}
}

func TestDivideByZero(t *testing.T) {
	e, err := Parse("1 / 0")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := e.Eval(nil); err == nil {
		t.Fatal("expected arithmetic error for division by zero")
	}
}

func TestOverflow(t *testing.T) {
	e, err := Parse("9223372036854775807 + 1")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := e.Eval(nil); err == nil {
		t.Fatal("expected arithmetic error for overflow")
	}
}

func TestNarrowing(t *testing.T) {
	e, _ := Parse("0x1234")
	if _, err := AsU8(e, nil); err == nil {
		t.Fatal("expected range error narrowing 0x1234 to a byte")
	}
	b, err := AsU16(e, nil)
	if err != nil {
		t.Fatalf("AsU16: %v", err)
	}
	if b != [2]byte{0x34, 0x12} {
		t.Errorf("AsU16 = %v, want little-endian 34 12", b)
	}

	bitIdx, _ := Parse("7")
	if _, err := AsBitIndex(bitIdx, nil); err != nil {
		t.Errorf("AsBitIndex(7): %v", err)
	}
	badBit, _ := Parse("8")
	if _, err := AsBitIndex(badBit, nil); err == nil {
		t.Fatal("expected range error for bit index 8")
	}

	neg, _ := Parse("-1")
	got, err := AsU8(neg, nil)
	if err != nil {
		t.Fatalf("AsU8(-1): %v", err)
	}
	if got != 0xFF {
		t.Errorf("AsU8(-1) = %#02x, want 0xFF (two's-complement truncation)", got)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{"1 +", "(1 + 2", "1 2", ""}
	for _, c := range cases {
		if _, err := Parse(c); err == nil {
			t.Errorf("Parse(%q) expected error", c)
		}
	}
}
