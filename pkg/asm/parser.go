package asm

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/minz/gbasm/pkg/expr"
)

// ParseSource reads src line by line and parses each one independently.
// Per spec §4.C/§7, a line that fails to parse does not abort the rest of
// the file: its error (carrying the file name and 1-based line number) is
// collected into errs and the line contributes no node, so nodes holds
// only the lines that did parse.
func ParseSource(r io.Reader, file string) ([]Instruction, []error) {
	var nodes []Instruction
	var errs []error
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		parsed, err := ParseLine(file, lineNo, scanner.Text())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		nodes = append(nodes, parsed...)
	}
	return nodes, errs
}

// ParseLine parses one physical source line. It returns an optional Label
// (when the line opens with `name:`) followed by the node(s) for the
// directive or instruction the rest of the line names, matching scenario
// S2's `loop: nop` form; a db line yields one node per operand, every
// other line at most one. A blank or comment-only line yields a single
// EmptyLine.
func ParseLine(file string, lineNo int, raw string) ([]Instruction, error) {
	line := stripComment(raw)
	label, rest := splitLabel(line)
	rest = strings.TrimSpace(rest)

	var nodes []Instruction
	if label != "" {
		nodes = append(nodes, Label{Name: label})
	}
	if rest == "" {
		if label == "" {
			return []Instruction{EmptyLine{}}, nil
		}
		return nodes, nil
	}

	if name, exprText, ok := matchEquLine(rest); ok {
		value, err := expr.Parse(exprText)
		if err != nil {
			return nil, &ParseError{File: file, Line: lineNo, Message: err.Error()}
		}
		return append(nodes, Equ{Name: name, Value: value}), nil
	}

	mnemonic, operandText := fields(rest)
	operands := tokenizeOperands(operandText)
	instrs, err := parseInstruction(strings.ToUpper(mnemonic), operands)
	if err != nil {
		return nil, &ParseError{File: file, Line: lineNo, Message: err.Error()}
	}
	return append(nodes, instrs...), nil
}

// matchEquLine recognises the colon-free `NAME EQU EXPR` directive form.
func matchEquLine(rest string) (name, exprText string, ok bool) {
	first, after := fields(rest)
	if first == "" {
		return "", "", false
	}
	second, remainder := fields(after)
	if !strings.EqualFold(second, "equ") || remainder == "" {
		return "", "", false
	}
	if !isIdentStart(first[0]) {
		return "", "", false
	}
	for i := 1; i < len(first); i++ {
		if !isIdentByte(first[i]) {
			return "", "", false
		}
	}
	return first, remainder, true
}

func parseInstruction(mnemonic string, ops []string) ([]Instruction, error) {
	one := func(i Instruction) ([]Instruction, error) { return []Instruction{i}, nil }

	switch mnemonic {
	case "NOP":
		return one(NewNop())
	case "STOP":
		return one(NewStop())
	case "HALT":
		return one(NewHalt())
	case "DI":
		return one(NewDi())
	case "EI":
		return one(NewEi())
	case "RLCA":
		return one(NewRlca())
	case "RRCA":
		return one(NewRrca())
	case "RLA":
		return one(NewRla())
	case "RRA":
		return one(NewRra())
	case "CPL":
		return one(NewCpl())
	case "CCF":
		return one(NewCcf())
	case "SCF":
		return one(NewScf())
	case "DAA":
		return one(NewDaa())
	case "RETI":
		return one(NewReti())

	case "JP":
		return parseJp(ops)
	case "JR":
		return parseJr(ops)
	case "CALL":
		return parseCallOrJp(ops, false)
	case "RET":
		return parseRet(ops)

	case "PUSH":
		r, ok := parseReg16Push(atOrEmpty(ops, 0))
		if !ok {
			return nil, fmt.Errorf("push: expected one of bc, de, hl, af, got %q", atOrEmpty(ops, 0))
		}
		return one(Push{Reg: r})
	case "POP":
		r, ok := parseReg16Push(atOrEmpty(ops, 0))
		if !ok {
			return nil, fmt.Errorf("pop: expected one of bc, de, hl, af, got %q", atOrEmpty(ops, 0))
		}
		return one(Pop{Reg: r})

	case "INC":
		return parseIncDec(ops, true)
	case "DEC":
		return parseIncDec(ops, false)

	case "ADD":
		return parseAdd(ops)
	case "ADC":
		return parseArith(ArithAdc, ops)
	case "SUB":
		return parseArith(ArithSub, ops)
	case "SBC":
		return parseArith(ArithSbc, ops)
	case "AND":
		return parseArith(ArithAnd, ops)
	case "XOR":
		return parseArith(ArithXor, ops)
	case "OR":
		return parseArith(ArithOr, ops)
	case "CP":
		return parseArith(ArithCp, ops)

	case "LD":
		return parseLd(ops)
	case "LDH":
		return parseLdh(ops)

	case "RLC":
		return parseShift(ShiftRlc, ops)
	case "RRC":
		return parseShift(ShiftRrc, ops)
	case "RL":
		return parseShift(ShiftRl, ops)
	case "RR":
		return parseShift(ShiftRr, ops)
	case "SLA":
		return parseShift(ShiftSla, ops)
	case "SRA":
		return parseShift(ShiftSra, ops)
	case "SWAP":
		return parseShift(ShiftSwap, ops)
	case "SRL":
		return parseShift(ShiftSrl, ops)

	case "BIT":
		return parseBitOp(BitOpBit, ops)
	case "RES":
		return parseBitOp(BitOpRes, ops)
	case "SET":
		return parseBitOp(BitOpSet, ops)

	case "DB":
		return parseDb(ops)
	case "DW":
		return parseDw(ops)
	case "ADVANCE_ADDRESS":
		return parseAdvanceAddress(ops)

	default:
		return nil, fmt.Errorf("unknown mnemonic %q", mnemonic)
	}
}

func atOrEmpty(ops []string, i int) string {
	if i < len(ops) {
		return ops[i]
	}
	return ""
}

func parseFlag(s string) (Flag, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "Z":
		return FlagZ, true
	case "NZ":
		return FlagNZ, true
	case "C":
		return FlagC, true
	case "NC":
		return FlagNC, true
	default:
		return FlagAlways, false
	}
}

func parseReg8(s string) (Reg8, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "B":
		return RegB, true
	case "C":
		return RegC, true
	case "D":
		return RegD, true
	case "E":
		return RegE, true
	case "H":
		return RegH, true
	case "L":
		return RegL, true
	case "A":
		return RegA, true
	default:
		return 0, false
	}
}

func parseReg16(s string) (Reg16, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BC":
		return RegBC, true
	case "DE":
		return RegDE, true
	case "HL":
		return RegHL, true
	case "SP":
		return RegSP, true
	default:
		return 0, false
	}
}

func parseReg16Push(s string) (Reg16Push, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BC":
		return PushBC, true
	case "DE":
		return PushDE, true
	case "HL":
		return PushHL, true
	case "AF":
		return PushAF, true
	default:
		return 0, false
	}
}

func bracketInner(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '[' && s[len(s)-1] == ']' {
		return strings.TrimSpace(s[1 : len(s)-1]), true
	}
	return "", false
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, s)
}

func matchHighPageC(inner string) bool {
	return strings.EqualFold(stripSpaces(inner), "0xFF00+C")
}

// matchHighPageImm recognises the required `0xFF00 + expr` marker (spec
// §4.C: "The literal 0xFF00 is a required marker"); equivalent literals
// such as a bare 65280 are deliberately not accepted (see DESIGN.md).
func matchHighPageImm(inner string) (string, bool) {
	stripped := stripSpaces(inner)
	const marker = "0XFF00+"
	if len(stripped) <= len(marker) || !strings.EqualFold(stripped[:len(marker)], marker) {
		return "", false
	}
	return stripped[len(marker):], true
}

func matchHLIncDec(inner string) (isInc, isDec bool) {
	switch strings.ToUpper(stripSpaces(inner)) {
	case "HL+", "HLI":
		return true, false
	case "HL-", "HLD":
		return false, true
	default:
		return false, false
	}
}

func matchSPPlus(s string) (string, bool) {
	stripped := stripSpaces(s)
	if len(stripped) <= 3 || !strings.EqualFold(stripped[:3], "SP+") {
		return "", false
	}
	return stripped[3:], true
}

func parseExprOperand(s string) (expr.Expr, error) {
	e, err := expr.Parse(s)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func parseJp(ops []string) ([]Instruction, error) {
	if len(ops) == 1 && strings.EqualFold(strings.TrimSpace(ops[0]), "HL") {
		return []Instruction{NewJpHL()}, nil
	}
	return parseCallOrJp(ops, true)
}

func parseCallOrJp(ops []string, isJp bool) ([]Instruction, error) {
	name := "call"
	if isJp {
		name = "jp"
	}
	var flag Flag
	var targetText string
	switch len(ops) {
	case 1:
		flag, targetText = FlagAlways, ops[0]
	case 2:
		f, ok := parseFlag(ops[0])
		if !ok {
			return nil, fmt.Errorf("%s: unknown condition %q", name, ops[0])
		}
		flag, targetText = f, ops[1]
	default:
		return nil, fmt.Errorf("%s: expected 1 or 2 operands, got %d", name, len(ops))
	}
	target, err := parseExprOperand(targetText)
	if err != nil {
		return nil, err
	}
	if isJp {
		return []Instruction{JpI16{Flag: flag, Target: target}}, nil
	}
	return []Instruction{Call{Flag: flag, Target: target}}, nil
}

func parseJr(ops []string) ([]Instruction, error) {
	var flag Flag
	var targetText string
	switch len(ops) {
	case 1:
		flag, targetText = FlagAlways, ops[0]
	case 2:
		f, ok := parseFlag(ops[0])
		if !ok {
			return nil, fmt.Errorf("jr: unknown condition %q", ops[0])
		}
		flag, targetText = f, ops[1]
	default:
		return nil, fmt.Errorf("jr: expected 1 or 2 operands, got %d", len(ops))
	}
	target, err := parseExprOperand(targetText)
	if err != nil {
		return nil, err
	}
	return []Instruction{Jr{Flag: flag, Target: target}}, nil
}

func parseRet(ops []string) ([]Instruction, error) {
	switch len(ops) {
	case 0:
		return []Instruction{Ret{Flag: FlagAlways}}, nil
	case 1:
		f, ok := parseFlag(ops[0])
		if !ok {
			return nil, fmt.Errorf("ret: unknown condition %q", ops[0])
		}
		return []Instruction{Ret{Flag: f}}, nil
	default:
		return nil, fmt.Errorf("ret: expected 0 or 1 operands, got %d", len(ops))
	}
}

func parseIncDec(ops []string, isInc bool) ([]Instruction, error) {
	name := "dec"
	if isInc {
		name = "inc"
	}
	if len(ops) != 1 {
		return nil, fmt.Errorf("%s: expected exactly one operand, got %d", name, len(ops))
	}
	operand := ops[0]
	if inner, ok := bracketInner(operand); ok && strings.EqualFold(inner, "HL") {
		if isInc {
			return []Instruction{IncMHL{}}, nil
		}
		return []Instruction{DecMHL{}}, nil
	}
	if r, ok := parseReg16(operand); ok {
		if isInc {
			return []Instruction{IncR16{Reg: r}}, nil
		}
		return []Instruction{DecR16{Reg: r}}, nil
	}
	if r, ok := parseReg8(operand); ok {
		if isInc {
			return []Instruction{IncR8{Reg: r}}, nil
		}
		return []Instruction{DecR8{Reg: r}}, nil
	}
	return nil, fmt.Errorf("%s: unrecognised operand %q", name, operand)
}

// stripOptionalA implements the "leading A, is optional" idiom (spec §4.C):
// `add b` and `add a, b` both parse to the same node.
func stripOptionalA(ops []string) ([]string, error) {
	switch len(ops) {
	case 1:
		return ops, nil
	case 2:
		if !strings.EqualFold(strings.TrimSpace(ops[0]), "A") {
			return nil, fmt.Errorf("expected leading a, operand, got %q", ops[0])
		}
		return ops[1:], nil
	default:
		return nil, fmt.Errorf("expected 1 or 2 operands, got %d", len(ops))
	}
}

func parseArith(op ArithOp, ops []string) ([]Instruction, error) {
	rest, err := stripOptionalA(ops)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	operand := rest[0]
	if inner, ok := bracketInner(operand); ok && strings.EqualFold(inner, "HL") {
		return []Instruction{ArithMHL{Op: op}}, nil
	}
	if r, ok := parseReg8(operand); ok {
		return []Instruction{ArithR8{Op: op, Reg: r}}, nil
	}
	value, err := parseExprOperand(operand)
	if err != nil {
		return nil, err
	}
	return []Instruction{ArithImm8{Op: op, Value: value}}, nil
}

func parseAdd(ops []string) ([]Instruction, error) {
	if len(ops) == 2 && strings.EqualFold(strings.TrimSpace(ops[0]), "HL") {
		r, ok := parseReg16(ops[1])
		if !ok {
			return nil, fmt.Errorf("add hl: unrecognised operand %q", ops[1])
		}
		return []Instruction{AddHLR16{Reg: r}}, nil
	}
	if len(ops) == 2 && strings.EqualFold(strings.TrimSpace(ops[0]), "SP") {
		value, err := parseExprOperand(ops[1])
		if err != nil {
			return nil, err
		}
		return []Instruction{AddSPImm8{Value: value}}, nil
	}
	return parseArith(ArithAdd, ops)
}

func parseShift(op ShiftOp, ops []string) ([]Instruction, error) {
	if len(ops) != 1 {
		return nil, fmt.Errorf("%s: expected exactly one operand, got %d", op, len(ops))
	}
	operand := ops[0]
	if inner, ok := bracketInner(operand); ok && strings.EqualFold(inner, "HL") {
		return []Instruction{ShiftMHL{Op: op}}, nil
	}
	if r, ok := parseReg8(operand); ok {
		return []Instruction{ShiftR8{Op: op, Reg: r}}, nil
	}
	return nil, fmt.Errorf("%s: unrecognised operand %q", op, operand)
}

func parseBitOp(op BitOp, ops []string) ([]Instruction, error) {
	if len(ops) != 2 {
		return nil, fmt.Errorf("%s: expected exactly two operands, got %d", op, len(ops))
	}
	index, err := parseExprOperand(ops[0])
	if err != nil {
		return nil, err
	}
	operand := ops[1]
	if inner, ok := bracketInner(operand); ok && strings.EqualFold(inner, "HL") {
		return []Instruction{BitMHL{Op: op, Index: index}}, nil
	}
	if r, ok := parseReg8(operand); ok {
		return []Instruction{BitR8{Op: op, Index: index, Reg: r}}, nil
	}
	return nil, fmt.Errorf("%s: unrecognised register operand %q", op, operand)
}

func parseLdh(ops []string) ([]Instruction, error) {
	if len(ops) != 2 {
		return nil, fmt.Errorf("ldh: expected exactly two operands, got %d", len(ops))
	}
	a, b := ops[0], ops[1]
	if inner, ok := bracketInner(a); ok {
		if matchHighPageC(inner) && strings.EqualFold(strings.TrimSpace(b), "A") {
			return []Instruction{LdhMCA{}}, nil
		}
		if offsetText, ok := matchHighPageImm(inner); ok && strings.EqualFold(strings.TrimSpace(b), "A") {
			offset, err := parseExprOperand(offsetText)
			if err != nil {
				return nil, err
			}
			return []Instruction{LdhMImm8A{Offset: offset}}, nil
		}
	}
	if strings.EqualFold(strings.TrimSpace(a), "A") {
		if inner, ok := bracketInner(b); ok {
			if matchHighPageC(inner) {
				return []Instruction{LdhAMC{}}, nil
			}
			if offsetText, ok := matchHighPageImm(inner); ok {
				offset, err := parseExprOperand(offsetText)
				if err != nil {
					return nil, err
				}
				return []Instruction{LdhAMImm8{Offset: offset}}, nil
			}
		}
	}
	return nil, fmt.Errorf("ldh: unrecognised operands %q, %q (expected the literal 0xFF00 high-page marker)", a, b)
}

func parseLd(ops []string) ([]Instruction, error) {
	if len(ops) != 2 {
		return nil, fmt.Errorf("ld: expected exactly two operands, got %d", len(ops))
	}
	a, b := strings.TrimSpace(ops[0]), strings.TrimSpace(ops[1])

	if strings.EqualFold(a, "SP") && strings.EqualFold(b, "HL") {
		return []Instruction{LdSPHL{}}, nil
	}

	if aInner, aIsBracket := bracketInner(a); aIsBracket {
		if strings.EqualFold(aInner, "HL") {
			if r, ok := parseReg8(b); ok {
				return []Instruction{LdMHLR8{Src: r}}, nil
			}
			value, err := parseExprOperand(b)
			if err != nil {
				return nil, err
			}
			return []Instruction{LdMHLImm8{Value: value}}, nil
		}
		if isInc, isDec := matchHLIncDec(aInner); (isInc || isDec) && strings.EqualFold(b, "A") {
			if isInc {
				return []Instruction{LdMHLIncA{}}, nil
			}
			return []Instruction{LdMHLDecA{}}, nil
		}
		if (strings.EqualFold(aInner, "BC") || strings.EqualFold(aInner, "DE")) && strings.EqualFold(b, "A") {
			r, _ := parseReg16(aInner)
			return []Instruction{LdMR16A{Reg: r}}, nil
		}
		if matchHighPageC(aInner) && strings.EqualFold(b, "A") {
			return []Instruction{LdhMCA{}}, nil
		}
		if offsetText, ok := matchHighPageImm(aInner); ok && strings.EqualFold(b, "A") {
			offset, err := parseExprOperand(offsetText)
			if err != nil {
				return nil, err
			}
			return []Instruction{LdhMImm8A{Offset: offset}}, nil
		}
		if strings.EqualFold(b, "A") {
			addr, err := parseExprOperand(aInner)
			if err != nil {
				return nil, err
			}
			return []Instruction{LdMImm16A{Addr: addr}}, nil
		}
		if strings.EqualFold(b, "SP") {
			addr, err := parseExprOperand(aInner)
			if err != nil {
				return nil, err
			}
			return []Instruction{LdMImm16SP{Addr: addr}}, nil
		}
		return nil, fmt.Errorf("ld: unrecognised indirect destination %q", a)
	}

	if strings.EqualFold(a, "A") {
		if bInner, bIsBracket := bracketInner(b); bIsBracket {
			if isInc, isDec := matchHLIncDec(bInner); isInc || isDec {
				if isInc {
					return []Instruction{LdAMHLInc{}}, nil
				}
				return []Instruction{LdAMHLDec{}}, nil
			}
			if strings.EqualFold(bInner, "HL") {
				dst, _ := parseReg8(a)
				return []Instruction{LdR8MHL{Dst: dst}}, nil
			}
			if strings.EqualFold(bInner, "BC") || strings.EqualFold(bInner, "DE") {
				r, _ := parseReg16(bInner)
				return []Instruction{LdAMR16{Reg: r}}, nil
			}
			if matchHighPageC(bInner) {
				return []Instruction{LdhAMC{}}, nil
			}
			if offsetText, ok := matchHighPageImm(bInner); ok {
				offset, err := parseExprOperand(offsetText)
				if err != nil {
					return nil, err
				}
				return []Instruction{LdhAMImm8{Offset: offset}}, nil
			}
			addr, err := parseExprOperand(bInner)
			if err != nil {
				return nil, err
			}
			return []Instruction{LdAMImm16{Addr: addr}}, nil
		}
	}

	if dst, ok := parseReg8(a); ok {
		if bInner, bIsBracket := bracketInner(b); bIsBracket {
			if strings.EqualFold(bInner, "HL") {
				return []Instruction{LdR8MHL{Dst: dst}}, nil
			}
			return nil, fmt.Errorf("ld: unrecognised indirect source %q", b)
		}
		if src, ok := parseReg8(b); ok {
			return []Instruction{LdR8R8{Dst: dst, Src: src}}, nil
		}
		value, err := parseExprOperand(b)
		if err != nil {
			return nil, err
		}
		return []Instruction{LdR8Imm8{Dst: dst, Value: value}}, nil
	}

	if dst, ok := parseReg16(a); ok {
		if dst == RegHL {
			if spOffset, ok := matchSPPlus(b); ok {
				value, err := parseExprOperand(spOffset)
				if err != nil {
					return nil, err
				}
				return []Instruction{LdHLSPImm8{Value: value}}, nil
			}
		}
		value, err := parseExprOperand(b)
		if err != nil {
			return nil, err
		}
		return []Instruction{LdR16Imm16{Dst: dst, Value: value}}, nil
	}

	return nil, fmt.Errorf("ld: unrecognised destination operand %q", a)
}

func parseDb(ops []string) ([]Instruction, error) {
	if len(ops) == 0 {
		return nil, fmt.Errorf("db: expected at least one operand")
	}
	var nodes []Instruction
	for _, item := range ops {
		item = strings.TrimSpace(item)
		if len(item) >= 2 && item[0] == '"' && item[len(item)-1] == '"' {
			nodes = append(nodes, Db{Bytes: []byte(item[1 : len(item)-1])})
			continue
		}
		e, err := parseExprOperand(item)
		if err != nil {
			return nil, err
		}
		if v, err := e.Eval(nil); err == nil && v >= 0 && v <= 0xFF {
			nodes = append(nodes, Db{Bytes: []byte{byte(v)}})
			continue
		}
		nodes = append(nodes, DbExpr8{Value: e})
	}
	return nodes, nil
}

func parseDw(ops []string) ([]Instruction, error) {
	if len(ops) != 1 {
		return nil, fmt.Errorf("dw: expected exactly one operand, got %d", len(ops))
	}
	e, err := parseExprOperand(ops[0])
	if err != nil {
		return nil, err
	}
	if v, err := e.Eval(nil); err == nil {
		if v < 0 || v > 0xFFFF {
			return nil, &expr.RangeError{Message: fmt.Sprintf("dw value 0x%X does not fit in a word", v)}
		}
		return []Instruction{Db{Bytes: []byte{byte(v), byte(v >> 8)}}}, nil
	}
	return []Instruction{DbExpr16{Value: e}}, nil
}

func parseAdvanceAddress(ops []string) ([]Instruction, error) {
	if len(ops) != 1 {
		return nil, fmt.Errorf("advance_address: expected exactly one operand, got %d", len(ops))
	}
	e, err := parseExprOperand(ops[0])
	if err != nil {
		return nil, err
	}
	v, err := e.Eval(nil)
	if err != nil {
		return nil, fmt.Errorf("advance_address: target must be a constant expression: %w", err)
	}
	if v < 0 || v > 0xFFFF {
		return nil, &expr.RangeError{Message: fmt.Sprintf("advance_address target 0x%X out of range", v)}
	}
	return []Instruction{AdvanceAddress{Target: uint16(v)}}, nil
}
