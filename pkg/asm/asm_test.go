package asm

import (
	"bytes"
	"strings"
	"testing"
)

func assembleAt(t *testing.T, source string, startAddr uint32) []byte {
	t.Helper()
	nodes, errs := ParseSource(strings.NewReader(source), "test.asm")
	if len(errs) != 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	symbols := map[string]int64{}
	if _, err := ResolveLabels(nodes, startAddr, symbols); err != nil {
		t.Fatalf("ResolveLabels: %v", err)
	}
	var equs []Equ
	for _, n := range nodes {
		if e, ok := n.(Equ); ok {
			equs = append(equs, e)
		}
	}
	if err := ResolveEquations(equs, symbols); err != nil {
		t.Fatalf("ResolveEquations: %v", err)
	}

	var out []byte
	addr := startAddr
	for _, n := range nodes {
		b, err := Encode(n, uint16(addr), symbols)
		if err != nil {
			t.Fatalf("Encode(%#v): %v", n, err)
		}
		out = append(out, b...)
		addr += uint32(len(b))
	}
	return out
}

// S2: jr back-edge.
func TestScenarioJrBackEdge(t *testing.T) {
	src := "loop: nop\n      jr loop\n"
	got := assembleAt(t, src, 0x0150)
	want := []byte{0x00, 0x18, 0xFD}
	if !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
}

// S3: jr forward.
func TestScenarioJrForward(t *testing.T) {
	src := "jr z, target\nnop\nnop\nnop\nnop\ntarget: nop\n"
	got := assembleAt(t, src, 0x0150)
	want := []byte{0x28, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
}

// S4: bit opcode.
func TestScenarioBitOpcode(t *testing.T) {
	got := assembleAt(t, "bit 3, a\n", 0x0150)
	want := []byte{0xCB, 0x5F}
	if !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
}

// S5: equ fixed point, independent of declaration order.
func TestScenarioEquFixedPoint(t *testing.T) {
	for _, src := range []string{
		"A equ B+1\nB equ C*2\nC equ 3\n",
		"C equ 3\nB equ C*2\nA equ B+1\n",
	} {
		nodes, errs := ParseSource(strings.NewReader(src), "test.asm")
		if len(errs) != 0 {
			t.Fatalf("parse errors: %v", errs)
		}
		symbols := map[string]int64{}
		var equs []Equ
		for _, n := range nodes {
			equs = append(equs, n.(Equ))
		}
		if err := ResolveEquations(equs, symbols); err != nil {
			t.Fatalf("ResolveEquations: %v", err)
		}
		if symbols["A"] != 7 || symbols["B"] != 6 || symbols["C"] != 3 {
			t.Errorf("got A=%d B=%d C=%d, want A=7 B=6 C=3", symbols["A"], symbols["B"], symbols["C"])
		}
	}
}

// S6: cyclic equ.
func TestScenarioCyclicEqu(t *testing.T) {
	src := "A equ B\nB equ A\n"
	nodes, errs := ParseSource(strings.NewReader(src), "test.asm")
	if len(errs) != 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	var equs []Equ
	for _, n := range nodes {
		equs = append(equs, n.(Equ))
	}
	err := ResolveEquations(equs, map[string]int64{})
	if err == nil {
		t.Fatal("expected cyclic dependency error")
	}
	if _, ok := err.(*CyclicDependencyError); !ok {
		t.Errorf("got %T (%v), want *CyclicDependencyError", err, err)
	}
}

func TestUndeclaredIdentifier(t *testing.T) {
	src := "A equ NOTDEFINED\n"
	nodes, errs := ParseSource(strings.NewReader(src), "test.asm")
	if len(errs) != 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	var equs []Equ
	for _, n := range nodes {
		equs = append(equs, n.(Equ))
	}
	err := ResolveEquations(equs, map[string]int64{})
	if _, ok := err.(*UndeclaredIdentifierError); !ok {
		t.Errorf("got %T (%v), want *UndeclaredIdentifierError", err, err)
	}
}

func TestRetCQuirk(t *testing.T) {
	got := assembleAt(t, "ret c\n", 0x0150)
	if !bytes.Equal(got, []byte{0xC9}) {
		t.Errorf("got % X, want C9 (ret c aliases unconditional ret per spec)", got)
	}
}

func TestArithOptionalALeadingOperand(t *testing.T) {
	withA := assembleAt(t, "add a, b\n", 0x0150)
	withoutA := assembleAt(t, "add b\n", 0x0150)
	if !bytes.Equal(withA, withoutA) {
		t.Errorf("add a, b = % X, add b = % X, want equal", withA, withoutA)
	}
	if !bytes.Equal(withA, []byte{0x80}) {
		t.Errorf("got % X, want 80", withA)
	}
}

func TestAddAMHL(t *testing.T) {
	got := assembleAt(t, "add a, [hl]\n", 0x0150)
	if !bytes.Equal(got, []byte{0x86}) {
		t.Errorf("got % X, want 86", got)
	}
}

func TestLdFamily(t *testing.T) {
	cases := []struct {
		src  string
		want []byte
	}{
		{"ld b, c\n", []byte{0x41}},
		{"ld a, 5\n", []byte{0x3E, 0x05}},
		{"ld bc, 0x1234\n", []byte{0x01, 0x34, 0x12}},
		{"ld [hl], 7\n", []byte{0x36, 0x07}},
		{"ld [hl], a\n", []byte{0x77}},
		{"ld a, [hl]\n", []byte{0x7E}},
		{"ld [bc], a\n", []byte{0x02}},
		{"ld a, [de]\n", []byte{0x1A}},
		{"ld [hl+], a\n", []byte{0x22}},
		{"ld [hl-], a\n", []byte{0x32}},
		{"ld a, [hl+]\n", []byte{0x2A}},
		{"ld a, [hl-]\n", []byte{0x3A}},
		{"ld [0x9000], a\n", []byte{0xEA, 0x00, 0x90}},
		{"ld a, [0x9000]\n", []byte{0xFA, 0x00, 0x90}},
		{"ld sp, hl\n", []byte{0xF9}},
		{"ld [0x9000], sp\n", []byte{0x08, 0x00, 0x90}},
		{"ld hl, sp+4\n", []byte{0xF8, 0x04}},
		{"ldh [0xFF00+4], a\n", []byte{0xE0, 0x04}},
		{"ldh a, [0xFF00+4]\n", []byte{0xF0, 0x04}},
		{"ldh [0xFF00+c], a\n", []byte{0xE2}},
		{"ldh a, [0xFF00+c]\n", []byte{0xF2}},
	}
	for _, c := range cases {
		got := assembleAt(t, c.src, 0x0150)
		if !bytes.Equal(got, c.want) {
			t.Errorf("%q: got % X, want % X", c.src, got, c.want)
		}
	}
}

func TestShiftAndBitFamily(t *testing.T) {
	cases := []struct {
		src  string
		want []byte
	}{
		{"rlc b\n", []byte{0xCB, 0x00}},
		{"swap [hl]\n", []byte{0xCB, 0x36}},
		{"res 0, a\n", []byte{0xCB, 0x87}},
		{"set 7, [hl]\n", []byte{0xCB, 0xFE}},
	}
	for _, c := range cases {
		got := assembleAt(t, c.src, 0x0150)
		if !bytes.Equal(got, c.want) {
			t.Errorf("%q: got % X, want % X", c.src, got, c.want)
		}
	}
}

func TestPushPop(t *testing.T) {
	if got := assembleAt(t, "push af\n", 0x0150); !bytes.Equal(got, []byte{0xF5}) {
		t.Errorf("push af: got % X, want F5", got)
	}
	if got := assembleAt(t, "pop bc\n", 0x0150); !bytes.Equal(got, []byte{0xC1}) {
		t.Errorf("pop bc: got % X, want C1", got)
	}
}

func TestDbStringAndBytes(t *testing.T) {
	got := assembleAt(t, `db "AB", 1, 2`+"\n", 0x0150)
	want := []byte{'A', 'B', 1, 2}
	if !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
}

func TestDbDeferredExpression(t *testing.T) {
	got := assembleAt(t, "dw TARGET\nTARGET: nop\n", 0x0150)
	want := []byte{0x52, 0x01, 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
}

func TestAdvanceAddress(t *testing.T) {
	got := assembleAt(t, "nop\nadvance_address 0x0156\nnop\n", 0x0150)
	want := []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
}

func TestJrOutOfRange(t *testing.T) {
	nodes, errs := ParseSource(strings.NewReader("jr target\n"), "test.asm")
	if len(errs) != 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	symbols := map[string]int64{"target": 0x1000}
	if _, err := Encode(nodes[0], 0x0150, symbols); err == nil {
		t.Fatal("expected out-of-range jr displacement error")
	}
}

func TestParseErrorIsolation(t *testing.T) {
	src := "nop\n@@@garbage@@@\nhalt\n"
	nodes, errs := ParseSource(strings.NewReader(src), "test.asm")
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
	if len(nodes) != 2 {
		t.Fatalf("got %d nodes, want 2 (the bad line should not stop parsing)", len(nodes))
	}
}

func TestDuplicateLabel(t *testing.T) {
	nodes, errs := ParseSource(strings.NewReader("foo: nop\nfoo: nop\n"), "test.asm")
	if len(errs) != 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	if _, err := ResolveLabels(nodes, 0x0150, map[string]int64{}); err == nil {
		t.Fatal("expected duplicate label error")
	}
}
