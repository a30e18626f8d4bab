package asm

import (
	"fmt"

	"github.com/minz/gbasm/pkg/expr"
)

// Encode returns the bytes for instr, for the caller to append to the
// running image. addr is the absolute address of the first emitted byte,
// used by Jr's PC-relative fixup (spec §4.D: `target - (emit_position + 2)`)
// and by AdvanceAddress, whose padding depends on addr's in-bank offset.
// symbols is the fully resolved identifier table.
func Encode(instr Instruction, addr uint16, symbols map[string]int64) ([]byte, error) {
	switch v := instr.(type) {
	case Label, Equ, EmptyLine:
		return nil, nil
	case AdvanceAddress:
		n := v.Target - uint16(addr%0x4000)
		return make([]byte, n), nil
	case Db:
		return append([]byte(nil), v.Bytes...), nil
	case DbExpr8:
		b, err := expr.AsU8(v.Value, symbols)
		if err != nil {
			return nil, err
		}
		return []byte{b}, nil
	case DbExpr16:
		w, err := expr.AsU16(v.Value, symbols)
		if err != nil {
			return nil, err
		}
		return w[:], nil

	case Nop:
		return []byte{0x00}, nil
	case Stop:
		return []byte{0x10, 0x00}, nil
	case Halt:
		return []byte{0x76}, nil
	case Di:
		return []byte{0xF3}, nil
	case Ei:
		return []byte{0xFB}, nil
	case Rlca:
		return []byte{0x07}, nil
	case Rrca:
		return []byte{0x0F}, nil
	case Rla:
		return []byte{0x17}, nil
	case Rra:
		return []byte{0x1F}, nil
	case Daa:
		return []byte{0x27}, nil
	case Cpl:
		return []byte{0x2F}, nil
	case Scf:
		return []byte{0x37}, nil
	case Ccf:
		return []byte{0x3F}, nil
	case Reti:
		return []byte{0xD9}, nil
	case JpHL:
		return []byte{0xE9}, nil

	case Ret:
		return []byte{retOpcode(v.Flag)}, nil
	case Call:
		return encodeFlagPlusWord(callOpcode(v.Flag), v.Target, symbols)
	case JpI16:
		return encodeFlagPlusWord(jpOpcode(v.Flag), v.Target, symbols)
	case Jr:
		return encodeJr(v, addr, symbols)

	case ArithR8:
		return []byte{arithRegBase[v.Op] + reg8Index[v.Reg]}, nil
	case ArithMHL:
		return []byte{arithRegBase[v.Op] + mhlIndex}, nil
	case ArithImm8:
		b, err := expr.AsU8(v.Value, symbols)
		if err != nil {
			return nil, err
		}
		return []byte{arithImmOpcode[v.Op], b}, nil

	case AddHLR16:
		return []byte{0x09 + 0x10*reg16Index[v.Reg]}, nil
	case AddSPImm8:
		b, err := expr.AsI8(v.Value, symbols)
		if err != nil {
			return nil, err
		}
		return []byte{0xE8, byte(b)}, nil

	case IncR16:
		return []byte{0x03 + 0x10*reg16Index[v.Reg]}, nil
	case DecR16:
		return []byte{0x0B + 0x10*reg16Index[v.Reg]}, nil
	case IncR8:
		return []byte{0x04 + 8*reg8Index[v.Reg]}, nil
	case DecR8:
		return []byte{0x05 + 8*reg8Index[v.Reg]}, nil
	case IncMHL:
		return []byte{0x34}, nil
	case DecMHL:
		return []byte{0x35}, nil

	case LdR8R8:
		return []byte{0x40 + 8*reg8Index[v.Dst] + reg8Index[v.Src]}, nil
	case LdR8Imm8:
		b, err := expr.AsU8(v.Value, symbols)
		if err != nil {
			return nil, err
		}
		return []byte{0x06 + 8*reg8Index[v.Dst], b}, nil
	case LdR16Imm16:
		w, err := expr.AsU16(v.Value, symbols)
		if err != nil {
			return nil, err
		}
		return []byte{0x01 + 0x10*reg16Index[v.Dst], w[0], w[1]}, nil
	case LdMHLImm8:
		b, err := expr.AsU8(v.Value, symbols)
		if err != nil {
			return nil, err
		}
		return []byte{0x36, b}, nil
	case LdMHLR8:
		return []byte{0x70 + reg8Index[v.Src]}, nil
	case LdR8MHL:
		return []byte{0x40 + 8*reg8Index[v.Dst] + mhlIndex}, nil
	case LdMR16A:
		return []byte{ldMR16AOpcode(v.Reg)}, nil
	case LdAMR16:
		return []byte{ldAMR16Opcode(v.Reg)}, nil
	case LdMHLIncA:
		return []byte{0x22}, nil
	case LdMHLDecA:
		return []byte{0x32}, nil
	case LdAMHLInc:
		return []byte{0x2A}, nil
	case LdAMHLDec:
		return []byte{0x3A}, nil
	case LdMImm16A:
		w, err := expr.AsU16(v.Addr, symbols)
		if err != nil {
			return nil, err
		}
		return []byte{0xEA, w[0], w[1]}, nil
	case LdAMImm16:
		w, err := expr.AsU16(v.Addr, symbols)
		if err != nil {
			return nil, err
		}
		return []byte{0xFA, w[0], w[1]}, nil
	case LdhMImm8A:
		b, err := expr.AsU8(v.Offset, symbols)
		if err != nil {
			return nil, err
		}
		return []byte{0xE0, b}, nil
	case LdhAMImm8:
		b, err := expr.AsU8(v.Offset, symbols)
		if err != nil {
			return nil, err
		}
		return []byte{0xF0, b}, nil
	case LdhMCA:
		return []byte{0xE2}, nil
	case LdhAMC:
		return []byte{0xF2}, nil
	case LdHLSPImm8:
		b, err := expr.AsI8(v.Value, symbols)
		if err != nil {
			return nil, err
		}
		return []byte{0xF8, byte(b)}, nil
	case LdSPHL:
		return []byte{0xF9}, nil
	case LdMImm16SP:
		w, err := expr.AsU16(v.Addr, symbols)
		if err != nil {
			return nil, err
		}
		return []byte{0x08, w[0], w[1]}, nil

	case Push:
		return []byte{0xC5 + 0x10*reg16PushIndex[v.Reg]}, nil
	case Pop:
		return []byte{0xC1 + 0x10*reg16PushIndex[v.Reg]}, nil

	case ShiftR8:
		return []byte{0xCB, shiftBase[v.Op] + reg8Index[v.Reg]}, nil
	case ShiftMHL:
		return []byte{0xCB, shiftBase[v.Op] + mhlIndex}, nil

	case BitR8:
		n, err := expr.AsBitIndex(v.Index, symbols)
		if err != nil {
			return nil, err
		}
		return []byte{0xCB, bitOpBase[v.Op] + 8*n + reg8Index[v.Reg]}, nil
	case BitMHL:
		n, err := expr.AsBitIndex(v.Index, symbols)
		if err != nil {
			return nil, err
		}
		return []byte{0xCB, bitOpBase[v.Op] + 8*n + mhlIndex}, nil

	default:
		return nil, fmt.Errorf("asm: no encoding for instruction %T", instr)
	}
}

func retOpcode(f Flag) byte {
	switch f {
	case FlagZ:
		return 0xC8
	case FlagC:
		// Documented quirk (spec §6/§9): aliased with the unconditional
		// form rather than the standard 0xD8 encoding. Preserved
		// deliberately, not a bug.
		return 0xC9
	case FlagNZ:
		return 0xC0
	case FlagNC:
		return 0xD0
	default:
		return 0xC9
	}
}

func callOpcode(f Flag) byte {
	switch f {
	case FlagZ:
		return 0xCC
	case FlagC:
		return 0xDC
	case FlagNZ:
		return 0xC4
	case FlagNC:
		return 0xD4
	default:
		return 0xCD
	}
}

func jpOpcode(f Flag) byte {
	switch f {
	case FlagZ:
		return 0xCA
	case FlagC:
		return 0xDA
	case FlagNZ:
		return 0xC2
	case FlagNC:
		return 0xD2
	default:
		return 0xC3
	}
}

func jrOpcode(f Flag) byte {
	switch f {
	case FlagZ:
		return 0x28
	case FlagC:
		return 0x38
	case FlagNZ:
		return 0x20
	case FlagNC:
		return 0x30
	default:
		return 0x18
	}
}

func ldMR16AOpcode(r Reg16) byte {
	if r == RegDE {
		return 0x12
	}
	return 0x02 // BC
}

func ldAMR16Opcode(r Reg16) byte {
	if r == RegDE {
		return 0x1A
	}
	return 0x0A // BC
}

func encodeFlagPlusWord(opcode byte, target expr.Expr, symbols map[string]int64) ([]byte, error) {
	w, err := expr.AsU16(target, symbols)
	if err != nil {
		return nil, err
	}
	return []byte{opcode, w[0], w[1]}, nil
}

func encodeJr(v Jr, addr uint16, symbols map[string]int64) ([]byte, error) {
	dest, err := v.Target.Eval(symbols)
	if err != nil {
		return nil, err
	}
	rel := dest - int64(addr) - 2
	if rel > 0x7F || rel < -0x80 {
		return nil, &LayoutError{Message: fmt.Sprintf(
			"jr displacement %d out of range [-0x80, 0x7F] (from 0x%04X to 0x%X)", rel, addr, dest)}
	}
	return []byte{jrOpcode(v.Flag), byte(int8(rel))}, nil
}
