// Package asm implements the LR35902 (Game Boy CPU) instruction set: the
// instruction AST, the line-oriented assembly parser, the byte encoder, and
// the two-phase label/equ symbol resolver.
package asm

import "fmt"

// Reg8 names an 8-bit register operand.
type Reg8 int

const (
	RegB Reg8 = iota
	RegC
	RegD
	RegE
	RegH
	RegL
	RegA
)

func (r Reg8) String() string {
	return [...]string{"B", "C", "D", "E", "H", "L", "A"}[r]
}

// reg8Index implements the authoritative reg_index table from spec §4.D/§6:
// B=0, C=1, D=2, E=3, H=4, L=5, (HL)=6, A=7. Reg8 values already hold the
// right index for every register except A, which is pushed to the end to
// leave room for the (HL) pseudo-register at 6.
var reg8Index = map[Reg8]byte{
	RegB: 0, RegC: 1, RegD: 2, RegE: 3, RegH: 4, RegL: 5, RegA: 7,
}

const mhlIndex byte = 6

// Reg16 names a 16-bit register pair used by ld/inc/dec/add-hl.
type Reg16 int

const (
	RegBC Reg16 = iota
	RegDE
	RegHL
	RegSP
)

func (r Reg16) String() string {
	return [...]string{"BC", "DE", "HL", "SP"}[r]
}

var reg16Index = map[Reg16]byte{RegBC: 0, RegDE: 1, RegHL: 2, RegSP: 3}

// Reg16Push names a push/pop operand; AF replaces SP in this family.
type Reg16Push int

const (
	PushBC Reg16Push = iota
	PushDE
	PushHL
	PushAF
)

func (r Reg16Push) String() string {
	return [...]string{"BC", "DE", "HL", "AF"}[r]
}

var reg16PushIndex = map[Reg16Push]byte{PushBC: 0, PushDE: 1, PushHL: 2, PushAF: 3}

// Flag names a branch condition; Always has no opcode-table entry of its
// own and instead selects the unconditional form of each instruction.
type Flag int

const (
	FlagAlways Flag = iota
	FlagZ
	FlagNZ
	FlagC
	FlagNC
)

func (f Flag) String() string {
	switch f {
	case FlagAlways:
		return ""
	case FlagZ:
		return "Z"
	case FlagNZ:
		return "NZ"
	case FlagC:
		return "C"
	case FlagNC:
		return "NC"
	default:
		return "?"
	}
}

// ArithOp names an 8-bit arithmetic/logic mnemonic with the three operand
// forms (register, [HL], immediate).
type ArithOp int

const (
	ArithAdd ArithOp = iota
	ArithAdc
	ArithSub
	ArithSbc
	ArithAnd
	ArithXor
	ArithOr
	ArithCp
)

func (op ArithOp) String() string {
	return [...]string{"ADD", "ADC", "SUB", "SBC", "AND", "XOR", "OR", "CP"}[op]
}

// arithRegBase is the bits 3-5 base byte for the register form of each op,
// indexed by ArithOp: add=0x80, adc=0x88, sub=0x90, sbc=0x98, and=0xA0,
// xor=0xA8, or=0xB0, cp=0xB8.
var arithRegBase = [...]byte{0x80, 0x88, 0x90, 0x98, 0xA0, 0xA8, 0xB0, 0xB8}

// arithImmOpcode is the single-byte opcode for the immediate form of each op.
var arithImmOpcode = [...]byte{0xC6, 0xCE, 0xD6, 0xDE, 0xE6, 0xEE, 0xF6, 0xFE}

// ShiftOp names a 0xCB-prefixed rotate/shift mnemonic.
type ShiftOp int

const (
	ShiftRlc ShiftOp = iota
	ShiftRrc
	ShiftRl
	ShiftRr
	ShiftSla
	ShiftSra
	ShiftSwap
	ShiftSrl
)

func (op ShiftOp) String() string {
	return [...]string{"RLC", "RRC", "RL", "RR", "SLA", "SRA", "SWAP", "SRL"}[op]
}

// shiftBase is the CB-page base byte for each shift op: rlc=0x00, rrc=0x08,
// rl=0x10, rr=0x18, sla=0x20, sra=0x28, swap=0x30, srl=0x38.
var shiftBase = [...]byte{0x00, 0x08, 0x10, 0x18, 0x20, 0x28, 0x30, 0x38}

// BitOp names a 0xCB-prefixed bit/res/set mnemonic.
type BitOp int

const (
	BitOpBit BitOp = iota
	BitOpRes
	BitOpSet
)

func (op BitOp) String() string {
	return [...]string{"BIT", "RES", "SET"}[op]
}

// bitOpBase is the CB-page base byte for bit (0x40), res (0x80), set (0xC0).
var bitOpBase = [...]byte{0x40, 0x80, 0xC0}

// LayoutError reports a builder/encoder invariant violation: a value out of
// its required range, or an out-of-order operation.
type LayoutError struct {
	Message string
}

func (e *LayoutError) Error() string { return e.Message }

// ParseError reports that a source line could not be parsed into any AST
// alternative. File and Line make it possible to report per-line failures
// without aborting the rest of the file (spec §4.C/§7).
type ParseError struct {
	File    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// SymbolConflictError reports that a label or equ was declared twice.
type SymbolConflictError struct {
	Name string
}

func (e *SymbolConflictError) Error() string {
	return fmt.Sprintf("symbol %q declared more than once", e.Name)
}

// CyclicDependencyError reports that a set of equ declarations could not be
// reduced to a fixed point.
type CyclicDependencyError struct {
	Names []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency among equ declarations: %v", e.Names)
}

// UndeclaredIdentifierError reports a missing identifier that is not itself
// a pending equ target (so no amount of further iteration would resolve it).
type UndeclaredIdentifierError struct {
	Name string
}

func (e *UndeclaredIdentifierError) Error() string {
	return fmt.Sprintf("undeclared identifier %q", e.Name)
}
