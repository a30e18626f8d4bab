package asm

import "github.com/minz/gbasm/pkg/expr"

// Instruction is one assembled unit: a directive or a single LR35902
// opcode. Length reports how many bytes Encode will append for it, given
// the in-bank offset the instruction starts at (only AdvanceAddress's
// length depends on that offset).
type Instruction interface {
	Length(bankOffset uint16) uint16
}

// fixedLength implementations share a trivial Length method.
type fixedLength struct{ n uint16 }

func (f fixedLength) Length(uint16) uint16 { return f.n }

// --- Meta / directives -----------------------------------------------

// Label declares a name bound to the current absolute address. Emits no
// bytes.
type Label struct{ Name string }

func (Label) Length(uint16) uint16 { return 0 }

// Equ declares a named constant expression, resolved during the equ
// fixed-point pass. Emits no bytes.
type Equ struct {
	Name  string
	Value expr.Expr
}

func (Equ) Length(uint16) uint16 { return 0 }

// EmptyLine is a blank or comment-only source line.
type EmptyLine struct{}

func (EmptyLine) Length(uint16) uint16 { return 0 }

// Db is a literal byte sequence (from a db directive mixing string and byte
// literals).
type Db struct{ Bytes []byte }

func (d Db) Length(uint16) uint16 { return uint16(len(d.Bytes)) }

// DbExpr8 defers narrowing an expression to a single byte until encode time.
type DbExpr8 struct{ Value expr.Expr }

func (DbExpr8) Length(uint16) uint16 { return 1 }

// DbExpr16 defers narrowing an expression to a little-endian word until
// encode time.
type DbExpr16 struct{ Value expr.Expr }

func (DbExpr16) Length(uint16) uint16 { return 2 }

// AdvanceAddress pads with zero bytes up to Target, an in-bank offset. Its
// length depends on the current in-bank offset, unlike every other
// instruction.
type AdvanceAddress struct{ Target uint16 }

func (a AdvanceAddress) Length(bankOffset uint16) uint16 {
	return a.Target - bankOffset
}

// --- Zero-operand opcodes ----------------------------------------------

type Nop struct{ fixedLength }
type Stop struct{ fixedLength }
type Halt struct{ fixedLength }
type Di struct{ fixedLength }
type Ei struct{ fixedLength }
type Rrca struct{ fixedLength }
type Rra struct{ fixedLength }
type Rlca struct{ fixedLength }
type Rla struct{ fixedLength }
type Cpl struct{ fixedLength }
type Ccf struct{ fixedLength }
type Scf struct{ fixedLength }
type Daa struct{ fixedLength }
type Reti struct{ fixedLength }
type JpHL struct{ fixedLength }

func NewNop() Nop   { return Nop{fixedLength{1}} }
func NewStop() Stop { return Stop{fixedLength{2}} }
func NewHalt() Halt { return Halt{fixedLength{1}} }
func NewDi() Di     { return Di{fixedLength{1}} }
func NewEi() Ei     { return Ei{fixedLength{1}} }
func NewRrca() Rrca { return Rrca{fixedLength{1}} }
func NewRra() Rra   { return Rra{fixedLength{1}} }
func NewRlca() Rlca { return Rlca{fixedLength{1}} }
func NewRla() Rla   { return Rla{fixedLength{1}} }
func NewCpl() Cpl   { return Cpl{fixedLength{1}} }
func NewCcf() Ccf   { return Ccf{fixedLength{1}} }
func NewScf() Scf   { return Scf{fixedLength{1}} }
func NewDaa() Daa   { return Daa{fixedLength{1}} }
func NewReti() Reti { return Reti{fixedLength{1}} }
func NewJpHL() JpHL { return JpHL{fixedLength{1}} }

// --- Conditional control flow -------------------------------------------

// Ret returns, conditionally. Always and Z/NZ/NC have their standard
// opcodes; C is the documented quirk aliased with Always (see §6).
type Ret struct {
	Flag Flag
}

func (Ret) Length(uint16) uint16 { return 1 }

// Call pushes the return address and jumps, conditionally.
type Call struct {
	Flag   Flag
	Target expr.Expr
}

func (Call) Length(uint16) uint16 { return 3 }

// JpI16 jumps to a 16-bit absolute address, conditionally.
type JpI16 struct {
	Flag   Flag
	Target expr.Expr
}

func (JpI16) Length(uint16) uint16 { return 3 }

// Jr jumps to a PC-relative 8-bit signed displacement, conditionally.
type Jr struct {
	Flag   Flag
	Target expr.Expr
}

func (Jr) Length(uint16) uint16 { return 2 }

// --- 8-bit arithmetic/logic ----------------------------------------------

// ArithR8 is the register form: `add b`, `cp a` (with or without the
// leading `a,`).
type ArithR8 struct {
	Op  ArithOp
	Reg Reg8
}

func (ArithR8) Length(uint16) uint16 { return 1 }

// ArithMHL is the `[hl]` form.
type ArithMHL struct{ Op ArithOp }

func (ArithMHL) Length(uint16) uint16 { return 1 }

// ArithImm8 is the immediate form.
type ArithImm8 struct {
	Op    ArithOp
	Value expr.Expr
}

func (ArithImm8) Length(uint16) uint16 { return 2 }

// --- 16-bit arithmetic ----------------------------------------------------

// AddHLR16 is `add hl, r16`.
type AddHLR16 struct{ Reg Reg16 }

func (AddHLR16) Length(uint16) uint16 { return 1 }

// AddSPImm8 is `add sp, i8` (signed 8-bit immediate).
type AddSPImm8 struct{ Value expr.Expr }

func (AddSPImm8) Length(uint16) uint16 { return 2 }

// --- inc/dec ---------------------------------------------------------------

type IncR16 struct{ Reg Reg16 }
type DecR16 struct{ Reg Reg16 }
type IncR8 struct{ Reg Reg8 }
type DecR8 struct{ Reg Reg8 }
type IncMHL struct{}
type DecMHL struct{}

func (IncR16) Length(uint16) uint16 { return 1 }
func (DecR16) Length(uint16) uint16 { return 1 }
func (IncR8) Length(uint16) uint16  { return 1 }
func (DecR8) Length(uint16) uint16  { return 1 }
func (IncMHL) Length(uint16) uint16 { return 1 }
func (DecMHL) Length(uint16) uint16 { return 1 }

// --- ld family ---------------------------------------------------------------

// LdR8R8 is `ld dst, src` over registers (HALT is the reserved slot where
// dst and src would both be (HL), which never arises through this type).
type LdR8R8 struct{ Dst, Src Reg8 }

func (LdR8R8) Length(uint16) uint16 { return 1 }

// LdR8Imm8 is `ld r8, n`.
type LdR8Imm8 struct {
	Dst   Reg8
	Value expr.Expr
}

func (LdR8Imm8) Length(uint16) uint16 { return 2 }

// LdR16Imm16 is `ld r16, nn`.
type LdR16Imm16 struct {
	Dst   Reg16
	Value expr.Expr
}

func (LdR16Imm16) Length(uint16) uint16 { return 3 }

// LdMHLImm8 is `ld [hl], n`.
type LdMHLImm8 struct{ Value expr.Expr }

func (LdMHLImm8) Length(uint16) uint16 { return 2 }

// LdMHLR8 is `ld [hl], r8`.
type LdMHLR8 struct{ Src Reg8 }

func (LdMHLR8) Length(uint16) uint16 { return 1 }

// LdR8MHL is `ld r8, [hl]`.
type LdR8MHL struct{ Dst Reg8 }

func (LdR8MHL) Length(uint16) uint16 { return 1 }

// LdMR16A is `ld [bc], a` / `ld [de], a`.
type LdMR16A struct{ Reg Reg16 }

func (LdMR16A) Length(uint16) uint16 { return 1 }

// LdAMR16 is `ld a, [bc]` / `ld a, [de]`.
type LdAMR16 struct{ Reg Reg16 }

func (LdAMR16) Length(uint16) uint16 { return 1 }

type LdMHLIncA struct{}
type LdMHLDecA struct{}
type LdAMHLInc struct{}
type LdAMHLDec struct{}

func (LdMHLIncA) Length(uint16) uint16 { return 1 }
func (LdMHLDecA) Length(uint16) uint16 { return 1 }
func (LdAMHLInc) Length(uint16) uint16 { return 1 }
func (LdAMHLDec) Length(uint16) uint16 { return 1 }

// LdMImm16A is `ld [nn], a`.
type LdMImm16A struct{ Addr expr.Expr }

func (LdMImm16A) Length(uint16) uint16 { return 3 }

// LdAMImm16 is `ld a, [nn]`.
type LdAMImm16 struct{ Addr expr.Expr }

func (LdAMImm16) Length(uint16) uint16 { return 3 }

// LdhMImm8A is `ldh [0xFF00+n], a`.
type LdhMImm8A struct{ Offset expr.Expr }

func (LdhMImm8A) Length(uint16) uint16 { return 2 }

// LdhAMImm8 is `ldh a, [0xFF00+n]`.
type LdhAMImm8 struct{ Offset expr.Expr }

func (LdhAMImm8) Length(uint16) uint16 { return 2 }

type LdhMCA struct{}
type LdhAMC struct{}

func (LdhMCA) Length(uint16) uint16 { return 1 }
func (LdhAMC) Length(uint16) uint16 { return 1 }

// LdHLSPImm8 is `ld hl, sp+n`.
type LdHLSPImm8 struct{ Value expr.Expr }

func (LdHLSPImm8) Length(uint16) uint16 { return 2 }

type LdSPHL struct{}

func (LdSPHL) Length(uint16) uint16 { return 1 }

// LdMImm16SP is `ld [nn], sp`.
type LdMImm16SP struct{ Addr expr.Expr }

func (LdMImm16SP) Length(uint16) uint16 { return 3 }

// --- push/pop ---------------------------------------------------------------

type Push struct{ Reg Reg16Push }
type Pop struct{ Reg Reg16Push }

func (Push) Length(uint16) uint16 { return 1 }
func (Pop) Length(uint16) uint16  { return 1 }

// --- 0xCB-prefixed shift/rotate ---------------------------------------------

type ShiftR8 struct {
	Op  ShiftOp
	Reg Reg8
}
type ShiftMHL struct{ Op ShiftOp }

func (ShiftR8) Length(uint16) uint16  { return 2 }
func (ShiftMHL) Length(uint16) uint16 { return 2 }

// --- 0xCB-prefixed bit/res/set -----------------------------------------------

type BitR8 struct {
	Op    BitOp
	Index expr.Expr
	Reg   Reg8
}
type BitMHL struct {
	Op    BitOp
	Index expr.Expr
}

func (BitR8) Length(uint16) uint16  { return 2 }
func (BitMHL) Length(uint16) uint16 { return 2 }
