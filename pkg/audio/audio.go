// Package audio parses the line-oriented audio text format and compiles it
// into the Db/DbExpr16/Label instruction stream the audio player asm plays
// back, driving the Game Boy's channel 2 square-wave sound registers.
package audio

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/minz/gbasm/pkg/asm"
	"github.com/minz/gbasm/pkg/expr"
)

// Note is one of the seven natural notes; Channel2State.Sharp selects the
// sharp variant of whichever Note is set.
type Note byte

const (
	NoteA Note = iota
	NoteB
	NoteC
	NoteD
	NoteE
	NoteF
	NoteG
)

func (n Note) String() string {
	return string("ABCDEFG"[n])
}

func noteFromByte(b byte) (Note, bool) {
	switch b {
	case 'a', 'A':
		return NoteA, true
	case 'b', 'B':
		return NoteB, true
	case 'c', 'C':
		return NoteC, true
	case 'd', 'D':
		return NoteD, true
	case 'e', 'E':
		return NoteE, true
	case 'f', 'F':
		return NoteF, true
	case 'g', 'G':
		return NoteG, true
	default:
		return 0, false
	}
}

// Channel2State captures one fully specified note played on channel 2 (the
// square wave channel without sweep), matching registers NR21-NR24
// (0xFF16-0xFF19).
type Channel2State struct {
	Note                   Note
	Sharp                  bool
	Octave                 uint8
	Duty                   uint8
	Length                 uint8
	EnvelopeInitialVolume  uint8
	EnvelopeArgument       uint8
	EnvelopeIncrease       bool
	EnableLength           bool
	Initial                bool
}

// LineKind discriminates the variants of a parsed audio line.
type LineKind int

const (
	LineChannel1 LineKind = iota
	LineChannel2
	LineChannel3
	LineChannel4
	LineLabel
	LinePlayFrom
	LineRest
	LineDisable
)

// AudioLine is one line of the parsed audio text format.
type AudioLine struct {
	Kind     LineKind
	Channel2 Channel2State
	Label    string
	Rest     uint8
}

// ParseAudioText parses the line-oriented audio format into a slice of
// AudioLine. Each physical line is independent; blank lines are skipped.
//
// Commands: `rest N`, `playfrom LABEL`, `label NAME`, `disable`. Any other
// non-blank line is a channel-2 note encoded as 15 fixed-position
// characters: `<note><octave> <duty> <length-hex2> <vol>,<arg><inc>,<len><init>`
// rendered as note(1) octave(1) separator duty(1) separator length(2 hex)
// separator envelope-volume(1 hex) separator envelope-arg(1)
// envelope-increase(1) separator enable-length(1) initial(1), e.g.
// "C4 2 3F 5,1Y,YY" — see the channel2 parsing below for the exact column
// indices.
func ParseAudioText(text string) ([]AudioLine, error) {
	var result []AudioLine
	for _, line := range strings.Split(text, "\n") {
		tokens := strings.Fields(line)
		if len(tokens) == 0 {
			continue
		}
		switch strings.ToLower(tokens[0]) {
		case "rest":
			if len(tokens) != 2 {
				return nil, fmt.Errorf("audio: rest instruction needs exactly one argument")
			}
			v, err := strconv.ParseUint(tokens[1], 10, 8)
			if err != nil {
				return nil, fmt.Errorf("audio: rest instruction argument is not an integer")
			}
			result = append(result, AudioLine{Kind: LineRest, Rest: uint8(v)})
		case "playfrom":
			if len(tokens) != 2 {
				return nil, fmt.Errorf("audio: expected 1 argument for playfrom, got %d", len(tokens)-1)
			}
			result = append(result, AudioLine{Kind: LinePlayFrom, Label: tokens[1]})
		case "label":
			if len(tokens) != 2 {
				return nil, fmt.Errorf("audio: expected 1 argument for label, got %d", len(tokens)-1)
			}
			result = append(result, AudioLine{Kind: LineLabel, Label: tokens[1]})
		case "disable":
			result = append(result, AudioLine{Kind: LineDisable})
		default:
			state, err := parseChannel2Line(line)
			if err != nil {
				return nil, err
			}
			result = append(result, AudioLine{Kind: LineChannel2, Channel2: state})
		}
	}
	return result, nil
}

// parseChannel2Line decodes a fixed-column channel-2 note line, e.g.
// "C4 2 3F 5,1Y,YY". Columns: note(0) octave(1) duty(3) length(5:7)
// envelope-volume(8) envelope-arg(10) envelope-increase(11)
// enable-length(13) initial(14), matching the original column layout.
func parseChannel2Line(line string) (Channel2State, error) {
	if len(line) < 15 {
		return Channel2State{}, fmt.Errorf("audio: line too short for a channel 2 note: %q", line)
	}
	note, ok := noteFromByte(line[0])
	if !ok {
		return Channel2State{}, fmt.Errorf("audio: invalid character for note: %q", line)
	}
	sharp := line[0] >= 'a' && line[0] <= 'z'

	octave, err := strconv.ParseUint(string(line[1]), 10, 8)
	if err != nil {
		return Channel2State{}, fmt.Errorf("audio: invalid character for octave: %q", line)
	}
	duty, err := strconv.ParseUint(string(line[3]), 10, 8)
	if err != nil {
		return Channel2State{}, fmt.Errorf("audio: invalid character for duty: %q", line)
	}
	length, err := strconv.ParseUint(line[5:7], 16, 8)
	if err != nil {
		return Channel2State{}, fmt.Errorf("audio: invalid character for length: %q", line)
	}
	envVolume, err := strconv.ParseUint(string(line[8]), 16, 8)
	if err != nil {
		return Channel2State{}, fmt.Errorf("audio: invalid character for envelope initial volume: %q", line)
	}
	envArg, err := strconv.ParseUint(string(line[10]), 10, 8)
	if err != nil {
		return Channel2State{}, fmt.Errorf("audio: invalid character for envelope argument: %q", line)
	}
	envInc, err := yesNo(line[11])
	if err != nil {
		return Channel2State{}, fmt.Errorf("audio: invalid character for envelope increase: %q", line)
	}
	enableLength, err := yesNo(line[13])
	if err != nil {
		return Channel2State{}, fmt.Errorf("audio: invalid character for enable length: %q", line)
	}
	initial, err := yesNo(line[14])
	if err != nil {
		return Channel2State{}, fmt.Errorf("audio: invalid character for initial: %q", line)
	}

	return Channel2State{
		Note:                  note,
		Sharp:                 sharp,
		Octave:                uint8(octave),
		Duty:                  uint8(duty),
		Length:                uint8(length),
		EnvelopeInitialVolume: uint8(envVolume),
		EnvelopeArgument:      uint8(envArg),
		EnvelopeIncrease:      envInc,
		EnableLength:          enableLength,
		Initial:               initial,
	}, nil
}

func yesNo(b byte) (bool, error) {
	switch b {
	case 'Y':
		return true, nil
	case 'N':
		return false, nil
	default:
		return false, fmt.Errorf("expected Y or N, got %q", b)
	}
}

// GenerateAudioData compiles parsed lines into the instruction stream the
// audio player asm expects: Db-encoded register writes per note, a Db{0xFC}
// for disable, a Db{0xFE}+DbExpr16(label) pair for playfrom, and bare
// Label nodes. It rejects input that has no way to cleanly exit playback:
// some disable or playfrom line must come after the last label, and input
// with no labels must still contain at least one disable or playfrom.
func GenerateAudioData(lines []AudioLine) ([]asm.Instruction, error) {
	cleanExit := false
	badLabel := ""
	for _, line := range lines {
		switch line.Kind {
		case LineDisable, LinePlayFrom:
			cleanExit = true
		case LineLabel:
			cleanExit = false
			badLabel = line.Label
		}
	}
	if !cleanExit {
		if badLabel != "" {
			return nil, fmt.Errorf("audio: it is impossible to cleanly exit from label %q; ensure disable or playfrom is used at least once after it", badLabel)
		}
		return nil, fmt.Errorf("audio: audio has no labels so there is no way to use it")
	}

	var result []asm.Instruction
	for _, line := range lines {
		switch line.Kind {
		case LineChannel2:
			result = append(result, asm.Db{Bytes: encodeChannel2(line.Channel2)})
		case LineDisable:
			result = append(result, asm.Db{Bytes: []byte{0xFC}})
		case LinePlayFrom:
			result = append(result, asm.Db{Bytes: []byte{0xFE}})
			result = append(result, asm.DbExpr16{Value: expr.Ident{Name: line.Label}})
		case LineLabel:
			result = append(result, asm.Label{Name: line.Label})
		}
	}
	return result, nil
}

// encodeChannel2 packs one note into the 10-byte player opcode stream:
// four (register, value) pairs for NR21-NR24, followed by a 0xFF stop
// marker and a rest-frame count.
func encodeChannel2(s Channel2State) []byte {
	frequency := noteToFrequency(s.Octave, s.Note, s.Sharp)
	length := 0x3f - s.Length // 0 means shortest, higher means longer.

	nr21 := (s.Duty << 6 & 0b11000000) | (length & 0b00111111)

	var envInc uint8
	if s.EnvelopeIncrease {
		envInc = 1
	}
	nr22 := (s.EnvelopeInitialVolume << 4) | (envInc << 3) | (s.EnvelopeArgument & 0b00000111)

	nr23 := byte(frequency & 0xFF)

	var enableLength, initial uint16
	if s.EnableLength {
		enableLength = 1
	}
	if s.Initial {
		initial = 1
	}
	nr24 := byte(frequency>>8&0b00000111) | byte(enableLength<<6) | byte(initial<<7)

	const restFrames = 0x09
	return []byte{
		0x16, nr21,
		0x17, nr22,
		0x18, nr23,
		0x19, nr24,
		0xFF, restFrames,
	}
}

var noteFrequencies = map[[3]int]uint16{
	{3, int(NoteC), 0}: 44, {3, int(NoteC), 1}: 156,
	{3, int(NoteD), 0}: 262, {3, int(NoteD), 1}: 363,
	{3, int(NoteE), 0}: 457,
	{3, int(NoteF), 0}: 547, {3, int(NoteF), 1}: 631,
	{3, int(NoteG), 0}: 710, {3, int(NoteG), 1}: 786,
	{3, int(NoteA), 0}: 854, {3, int(NoteA), 1}: 923,
	{3, int(NoteB), 0}: 986,

	{4, int(NoteC), 0}: 1046, {4, int(NoteC), 1}: 1102,
	{4, int(NoteD), 0}: 1155, {4, int(NoteD), 1}: 1205,
	{4, int(NoteE), 0}: 1253,
	{4, int(NoteF), 0}: 1297, {4, int(NoteF), 1}: 1339,
	{4, int(NoteG), 0}: 1379, {4, int(NoteG), 1}: 1417,
	{4, int(NoteA), 0}: 1452, {4, int(NoteA), 1}: 1486,
	{4, int(NoteB), 0}: 1517,

	{5, int(NoteC), 0}: 1546, {5, int(NoteC), 1}: 1575,
	{5, int(NoteD), 0}: 1602, {5, int(NoteD), 1}: 1627,
	{5, int(NoteE), 0}: 1650,
	{5, int(NoteF), 0}: 1673, {5, int(NoteF), 1}: 1694,
	{5, int(NoteG), 0}: 1714, {5, int(NoteG), 1}: 1732,
	{5, int(NoteA), 0}: 1750, {5, int(NoteA), 1}: 1767,
	{5, int(NoteB), 0}: 1783,

	{6, int(NoteC), 0}: 1798, {6, int(NoteC), 1}: 1812,
	{6, int(NoteD), 0}: 1825, {6, int(NoteD), 1}: 1837,
	{6, int(NoteE), 0}: 1849,
	{6, int(NoteF), 0}: 1860, {6, int(NoteF), 1}: 1871,
	{6, int(NoteG), 0}: 1881, {6, int(NoteG), 1}: 1890,
	{6, int(NoteA), 0}: 1899, {6, int(NoteA), 1}: 1907,
	{6, int(NoteB), 0}: 1915,

	{7, int(NoteC), 0}: 1923, {7, int(NoteC), 1}: 1930,
	{7, int(NoteD), 0}: 1936, {7, int(NoteD), 1}: 1943,
	{7, int(NoteE), 0}: 1949,
	{7, int(NoteF), 0}: 1954, {7, int(NoteF), 1}: 1959,
	{7, int(NoteG), 0}: 1964, {7, int(NoteG), 1}: 1969,
	{7, int(NoteA), 0}: 1974, {7, int(NoteA), 1}: 1978,
	{7, int(NoteB), 0}: 1982,

	{8, int(NoteC), 0}: 1985, {8, int(NoteC), 1}: 1988,
	{8, int(NoteD), 0}: 1992, {8, int(NoteD), 1}: 1995,
	{8, int(NoteE), 0}: 1998,
	{8, int(NoteF), 0}: 2001, {8, int(NoteF), 1}: 2004,
	{8, int(NoteG), 0}: 2006, {8, int(NoteG), 1}: 2009,
	{8, int(NoteA), 0}: 2011, {8, int(NoteA), 1}: 2013,
	{8, int(NoteB), 0}: 2015,
}

// noteToFrequency converts an octave/note/sharp triple into the 11-bit
// frequency value the hardware's NR23/NR24 pair expects. Panics on a note
// with no table entry (e.g. a sharp on E or B, which have no black key),
// matching the reference player's behaviour of treating that as a build-time
// input error rather than something to recover from at runtime.
func noteToFrequency(octave uint8, note Note, sharp bool) uint16 {
	sharpKey := 0
	if sharp {
		sharpKey = 1
	}
	if f, ok := noteFrequencies[[3]int{int(octave), int(note), sharpKey}]; ok {
		return f
	}
	accidental := ""
	if sharp {
		accidental = "#"
	}
	panic(fmt.Sprintf("audio: invalid note %d%s%s", octave, note, accidental))
}
