// Package rom implements the ROM builder state machine: a fluent sequence
// of regions (dummy interrupt table, header, raw bytes, instructions) laid
// out at monotonically increasing absolute addresses, compiled into a
// final byte image with header checksum and MBC/size validation.
package rom

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/minz/gbasm/internal/project"
	"github.com/minz/gbasm/pkg/asm"
	"github.com/minz/gbasm/pkg/audio"
	"github.com/minz/gbasm/pkg/cart"
	"github.com/minz/gbasm/pkg/tiles"
)

// BankSize is the size of one switchable ROM bank (0x4000 bytes); bank 0
// occupies the fixed region 0x0000-0x3FFF.
const BankSize uint32 = 0x4000

type regionKind int

const (
	kindDummyInterruptsAndJumps regionKind = iota
	kindHeader
	kindBinary
	kindInstructions
)

// region is one entry in the builder's ordered payload list, grounded on
// rom_builder.rs's DataHolder/Data pair.
type region struct {
	kind         regionKind
	address      uint32
	header       cart.Header
	bytes        []byte
	identifier   string
	instructions []asm.Instruction
	source       string
}

// Builder sequences heterogeneous ROM data at a monotonically increasing
// address. Every method returns (*Builder, error) so calls can be chained;
// on error the chain should stop (the receiver is left unmodified on
// failure, matching the teacher's error-short-circuit idiom).
type Builder struct {
	regions []region
	address uint32
	rootDir string
	symbols map[string]int64
}

// New creates a Builder rooted at the nearest go.mod above the current
// working directory, the Go analogue of rom_builder.rs's Cargo.toml walk.
func New() (*Builder, error) {
	root, err := project.FindRoot("")
	if err != nil {
		return nil, err
	}
	return &Builder{rootDir: root, symbols: map[string]int64{}}, nil
}

// NewAt creates a Builder rooted at root directly, for callers (the gbasm
// build CLI) that have already resolved the project root themselves.
func NewAt(root string) *Builder {
	return &Builder{rootDir: root, symbols: map[string]int64{}}
}

// AddBasicInterruptsAndJumps adds the dummy interrupt and jump table
// spanning 0x0000-0x0103: the entry point jumps to 0x0150, interrupts
// return immediately, and the RST vectors jump to the entry point. The
// builder must be at address 0x0000.
func (b *Builder) AddBasicInterruptsAndJumps() (*Builder, error) {
	if b.address != 0x0000 {
		return nil, fmt.Errorf("rom: add_basic_interrupts_and_jumps requires address 0x0000, was 0x%04X", b.address)
	}
	b.regions = append(b.regions, region{kind: kindDummyInterruptsAndJumps, address: 0, source: "code"})
	b.address = 0x0104
	return b, nil
}

// AddHeader adds the cartridge header at 0x0104-0x014F. The builder must be
// at address 0x0104.
func (b *Builder) AddHeader(h cart.Header) (*Builder, error) {
	if b.address != 0x0104 {
		return nil, fmt.Errorf("rom: add_header requires address 0x0104, was 0x%04X", b.address)
	}
	if len(h.Title) > 0x10 {
		return nil, fmt.Errorf("rom: header title %q exceeds 16 bytes", h.Title)
	}
	if len(h.Title) == 0x10 && h.ColorSupport.IsSupported() {
		return nil, fmt.Errorf("rom: header title %q is 16 bytes while colour support is set", h.Title)
	}
	b.regions = append(b.regions, region{kind: kindHeader, header: h, address: b.address, source: "code"})
	b.address = 0x0150
	return b, nil
}

// AddBytes includes raw bytes at the current address, under identifier so
// later instructions can reference its address by name. Crossing a bank
// boundary is an error.
func (b *Builder) AddBytes(data []byte, identifier string) (*Builder, error) {
	endAddr := b.address + uint32(len(data))
	if endAddr/BankSize != b.GetBank() {
		return nil, fmt.Errorf("rom: bytes %q cross rom bank boundaries", identifier)
	}
	b.symbols[identifier] = int64(b.address)
	b.regions = append(b.regions, region{
		kind:       kindBinary,
		bytes:      append([]byte(nil), data...),
		identifier: identifier,
		address:    b.address,
		source:     "code",
	})
	b.address = endAddr
	return b, nil
}

// AddAsmFile parses fileName from the project's gbasm directory and
// appends its instructions.
func (b *Builder) AddAsmFile(fileName string) (*Builder, error) {
	path := filepath.Join(b.rootDir, "gbasm", fileName)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rom: cannot read file %s: %w", fileName, err)
	}
	defer f.Close()

	nodes, errs := asm.ParseSource(f, fileName)
	if len(errs) > 0 {
		return nil, fmt.Errorf("rom: cannot parse file %s: %w (and %d more error(s))", fileName, errs[0], len(errs)-1)
	}
	return b.addInstructions(nodes, fmt.Sprintf("file %s", fileName))
}

// AddInstructions appends an already-constructed instruction list.
func (b *Builder) AddInstructions(instrs []asm.Instruction) (*Builder, error) {
	return b.addInstructions(instrs, "code")
}

func (b *Builder) addInstructions(instrs []asm.Instruction, source string) (*Builder, error) {
	symbols := make(map[string]int64, len(b.symbols))
	for name, v := range b.symbols {
		symbols[name] = v
	}
	endAddr, err := asm.ResolveLabels(instrs, b.address, symbols)
	if err != nil {
		return nil, err
	}
	if endAddr/BankSize != b.GetBank() {
		return nil, fmt.Errorf("rom: instructions from %s cross rom bank boundaries", source)
	}
	b.symbols = symbols
	b.regions = append(b.regions, region{
		kind:         kindInstructions,
		instructions: instrs,
		address:      b.address,
		source:       source,
	})
	b.address = endAddr
	return b, nil
}

// AddAudioFile parses fileName (from the project's audio directory) as the
// line-oriented audio text format and appends the resulting directive
// stream.
func (b *Builder) AddAudioFile(fileName string) (*Builder, error) {
	path := filepath.Join(b.rootDir, "audio", fileName)
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rom: cannot read audio file %s: %w", fileName, err)
	}
	lines, err := audio.ParseAudioText(string(text))
	if err != nil {
		return nil, fmt.Errorf("rom: cannot parse audio file %s: %w", fileName, err)
	}
	instrs, err := audio.GenerateAudioData(lines)
	if err != nil {
		return nil, fmt.Errorf("rom: cannot generate audio data for %s: %w", fileName, err)
	}
	return b.addInstructions(instrs, fmt.Sprintf("audio file %s", fileName))
}

// AddAudioPlayer appends the bundled audio player routine that interprets
// the directive stream AddAudioFile produces.
func (b *Builder) AddAudioPlayer() (*Builder, error) {
	nodes, errs := asm.ParseSource(strings.NewReader(audioPlayerSource), "audio_player.asm")
	if len(errs) > 0 {
		return nil, fmt.Errorf("rom: internal error parsing bundled audio player: %w", errs[0])
	}
	return b.addInstructions(nodes, "audio player")
}

// AddImage decodes the PNG at the project's graphics directory, converts
// it to 2bpp planar tile data via colors, and appends the result as raw
// bytes under identifier.
func (b *Builder) AddImage(fileName, identifier string, colors tiles.ColorMap) (*Builder, error) {
	path := filepath.Join(b.rootDir, "graphics", fileName)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rom: cannot read image %s: %w", fileName, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("rom: cannot decode image %s: %w", fileName, err)
	}

	data, err := tiles.Convert(img, colors)
	if err != nil {
		return nil, fmt.Errorf("rom: %s: %w", fileName, err)
	}
	return b.AddBytes(data, identifier)
}

// AdvanceAddress sets the current address and bank. It can only move the
// cursor forward; to cross a bank boundary you must use this method (the
// per-region helpers above reject attempts to do so implicitly).
func (b *Builder) AdvanceAddress(bank, addressInBank uint32) (*Builder, error) {
	newAddress := addressInBank + bank*BankSize
	if newAddress < b.address {
		return nil, fmt.Errorf("rom: attempted to advance to a previous address (0x%X < 0x%X)", newAddress, b.address)
	}
	b.address = newAddress
	return b, nil
}

// GetAddressGlobal returns the current address within the entire ROM.
func (b *Builder) GetAddressGlobal() uint32 { return b.address }

// GetAddressBank returns the current address within the current bank.
func (b *Builder) GetAddressBank() uint16 { return uint16(b.address % BankSize) }

// GetBank returns the current bank.
func (b *Builder) GetBank() uint32 { return b.address / BankSize }

var cartridgeSizeLimits = map[cart.CartridgeType]byte{
	cart.RomOnly:              0,
	cart.RomRam:                0,
	cart.RomRamBattery:         0,
	cart.Mbc1:                  6,
	cart.Mbc1Ram:               6,
	cart.Mbc1RamBattery:        6,
	cart.Mbc2:                  3,
	cart.Mbc2Battery:           3,
	cart.Mbc3TimerBattery:      6,
	cart.Mbc3TimerRamBattery:   6,
	cart.Mbc3:                  6,
	cart.Mbc3Ram:               6,
	cart.Mbc3RamBattery:        6,
	cart.Mbc5:                  8,
	cart.Mbc5Ram:               8,
	cart.Mbc5RamBattery:        8,
	cart.Mbc5Rumble:            8,
	cart.Mbc5RumbleRam:         8,
	cart.Mbc5RumbleRamBattery:  8,
	cart.PocketCamera:          8,
	cart.HuC1RamBattery:        6,
}

// Compile runs the equ fixed-point pass over every instruction region's
// equs, then emits the final byte image: each region is padded with zeroes
// up to its start address, the dummy interrupt table/header/bytes/
// instructions are rendered in order, the ROM size factor is derived from
// the final address, the cartridge type and size factor are checked for
// MBC compatibility, and the image is padded to its declared size.
func (b *Builder) Compile() ([]byte, error) {
	if len(b.regions) == 0 {
		return nil, fmt.Errorf("rom: no instructions or binary data was added to the builder")
	}

	var equs []asm.Equ
	for _, r := range b.regions {
		if r.kind != kindInstructions {
			continue
		}
		for _, n := range r.instructions {
			if e, ok := n.(asm.Equ); ok {
				equs = append(equs, e)
			}
		}
	}
	if err := asm.ResolveEquations(equs, b.symbols); err != nil {
		return nil, err
	}

	romSizeFactor, err := romSizeFactorFor(b.address)
	if err != nil {
		return nil, err
	}

	var out []byte
	for _, r := range b.regions {
		for int32(r.address)-int32(len(out)) > 0 {
			out = append(out, 0x00)
		}

		switch r.kind {
		case kindDummyInterruptsAndJumps:
			out = append(out, dummyInterruptsAndJumps()...)
		case kindHeader:
			for len(out) < 0x0150 {
				out = append(out, 0x00)
			}
			if _, err := r.header.Write(out[:0x0150], romSizeFactor); err != nil {
				return nil, err
			}
		case kindBinary:
			out = append(out, r.bytes...)
		case kindInstructions:
			for i, n := range r.instructions {
				enc, err := asm.Encode(n, uint16(len(out)), b.symbols)
				if err != nil {
					return nil, fmt.Errorf("rom: error in %s at node %d: %w", r.source, i+1, err)
				}
				out = append(out, enc...)
			}
		}
	}

	if len(out) < 0x014F {
		return nil, fmt.Errorf("rom: rom is too small, header is not finished (only %d bytes)", len(out))
	}

	cartridgeType := cart.CartridgeTypeFromByte(out[0x0147])
	finalSizeFactor := out[0x0148]
	if finalSizeFactor >= 0x20 {
		return nil, fmt.Errorf("rom: rom size factor (0x0148) must be less than 32, was %d", finalSizeFactor)
	}
	finalSize := (BankSize * 2) << finalSizeFactor
	if limit, known := cartridgeSizeLimits[cartridgeType]; known && finalSizeFactor > limit {
		return nil, fmt.Errorf("rom: rom is too big for %s (size factor %d exceeds the maximum of %d)", cartridgeType, finalSizeFactor, limit)
	}

	for uint32(len(out)) < finalSize {
		out = append(out, 0x00)
	}
	return out, nil
}

func romSizeFactorFor(address uint32) (byte, error) {
	for factor := byte(0); factor <= 8; factor++ {
		if address <= (BankSize*2)<<factor {
			return factor, nil
		}
	}
	return 0, fmt.Errorf("rom: rom is too big, no mbc supports a rom larger than 8MB (raw size was %d bytes)", address)
}

// dummyInterruptsAndJumps renders the fixed 0x0104-byte placeholder table:
// 8 jumps to the entry point, 5 interrupt handlers that return immediately,
// padding, then the entry jump to 0x0150.
func dummyInterruptsAndJumps() []byte {
	var out []byte
	for i := 0; i < 8; i++ {
		out = append(out, 0xC3, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00)
	}
	for i := 0; i < 5; i++ {
		out = append(out, 0xD9, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00)
	}
	for i := 0; i < 0x98; i++ {
		out = append(out, 0x00)
	}
	out = append(out, 0x00, 0xC3, 0x50, 0x01)
	return out
}
