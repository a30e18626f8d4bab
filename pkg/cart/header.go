// Package cart implements the Game Boy cartridge header: the fixed-layout
// record written at ROM offset 0x0104-0x014F, its enumerated fields, and
// the checksum algorithm hardware uses to validate it at boot.
package cart

import "fmt"

// Logo is the 48-byte Nintendo logo bitmap every cartridge must carry
// verbatim at offset 0x0104; the boot ROM halts if it does not match.
var Logo = [48]byte{
	0xCE, 0xED, 0x66, 0x66, 0xCC, 0x0D, 0x00, 0x0B,
	0x03, 0x73, 0x00, 0x83, 0x00, 0x0C, 0x00, 0x0D,
	0x00, 0x08, 0x11, 0x1F, 0x88, 0x89, 0x00, 0x0E,
	0xDC, 0xCC, 0x6E, 0xE6, 0xDD, 0xDD, 0xD9, 0x99,
	0xBB, 0xBB, 0x67, 0x63, 0x6E, 0x0E, 0xEC, 0xCC,
	0xDD, 0xDC, 0x99, 0x9F, 0xBB, 0xB9, 0x33, 0x3E,
}

// ColorSupport is the CGB compatibility byte at offset 0x0143.
type ColorSupport byte

const (
	ColorUnsupported                   ColorSupport = 0x00
	ColorSupportedBackwardsCompatible  ColorSupport = 0x80
	ColorSupportedGBCOnly              ColorSupport = 0xC0
)

// IsSupported reports whether this value places a colour-support byte in
// the header at all (Unsupported omits the byte entirely).
func (c ColorSupport) IsSupported() bool {
	return c == ColorSupportedBackwardsCompatible || c == ColorSupportedGBCOnly
}

// RamType is the cartridge RAM size byte at offset 0x0149.
type RamType byte

const (
	RamNone   RamType = 0x00
	RamMbc2   RamType = 0x00 // MBC2 has built-in RAM; this byte is unused.
	Ram2KB    RamType = 0x01
	Ram8KB    RamType = 0x02
	Ram32KB   RamType = 0x03
)

// CartridgeType enumerates the MBC byte at offset 0x0147. Values outside
// the known set round-trip through Unknown rather than failing, matching
// the original's Unknown(u8) passthrough variant.
type CartridgeType struct {
	name  string
	value byte
}

func (c CartridgeType) Byte() byte     { return c.value }
func (c CartridgeType) String() string { return c.name }

var (
	RomOnly              = CartridgeType{"RomOnly", 0x00}
	Mbc1                 = CartridgeType{"Mbc1", 0x01}
	Mbc1Ram              = CartridgeType{"Mbc1Ram", 0x02}
	Mbc1RamBattery       = CartridgeType{"Mbc1RamBattery", 0x03}
	Mbc2                 = CartridgeType{"Mbc2", 0x05}
	Mbc2Battery          = CartridgeType{"Mbc2Battery", 0x06}
	RomRam               = CartridgeType{"RomRam", 0x08}
	RomRamBattery        = CartridgeType{"RomRamBattery", 0x09}
	Mmm01                = CartridgeType{"Mmm01", 0x0B}
	Mmm01Ram             = CartridgeType{"Mmm01Ram", 0x0C}
	Mmm01RamBattery      = CartridgeType{"Mmm01RamBattery", 0x0D}
	Mbc3TimerBattery     = CartridgeType{"Mbc3TimerBattery", 0x0F}
	Mbc3TimerRamBattery  = CartridgeType{"Mbc3TimerRamBattery", 0x10}
	Mbc3                 = CartridgeType{"Mbc3", 0x11}
	Mbc3Ram              = CartridgeType{"Mbc3Ram", 0x12}
	Mbc3RamBattery       = CartridgeType{"Mbc3RamBattery", 0x13}
	Mbc5                 = CartridgeType{"Mbc5", 0x19}
	Mbc5Ram              = CartridgeType{"Mbc5Ram", 0x1A}
	Mbc5RamBattery       = CartridgeType{"Mbc5RamBattery", 0x1B}
	Mbc5Rumble           = CartridgeType{"Mbc5Rumble", 0x1C}
	Mbc5RumbleRam        = CartridgeType{"Mbc5RumbleRam", 0x1D}
	Mbc5RumbleRamBattery = CartridgeType{"Mbc5RumbleRamBattery", 0x1E}
	PocketCamera         = CartridgeType{"PocketCamera", 0xFC}
	HuC3                 = CartridgeType{"HuC3", 0xFE}
	HuC1RamBattery       = CartridgeType{"HuC1RamBattery", 0xFF}
)

var knownCartridgeTypes = []CartridgeType{
	RomOnly, Mbc1, Mbc1Ram, Mbc1RamBattery, Mbc2, Mbc2Battery, RomRam,
	RomRamBattery, Mmm01, Mmm01Ram, Mmm01RamBattery, Mbc3TimerBattery,
	Mbc3TimerRamBattery, Mbc3, Mbc3Ram, Mbc3RamBattery, Mbc5, Mbc5Ram,
	Mbc5RamBattery, Mbc5Rumble, Mbc5RumbleRam, Mbc5RumbleRamBattery,
	PocketCamera, HuC3, HuC1RamBattery,
}

// CartridgeTypeFromByte is the reverse mapping from a header byte to its
// named variant, falling back to an Unknown(byte) value.
func CartridgeTypeFromByte(b byte) CartridgeType {
	for _, t := range knownCartridgeTypes {
		if t.value == b {
			return t
		}
	}
	return CartridgeType{fmt.Sprintf("Unknown(0x%02X)", b), b}
}

// Header is the fixed-layout record the builder writes at offset 0x0104.
type Header struct {
	Title         string
	ColorSupport  ColorSupport
	Licence       [2]byte
	SGBSupport    bool
	CartridgeType CartridgeType
	RamType       RamType
	Japanese      bool
	VersionNumber byte
}

// MaxTitleLen returns the title budget: 15 bytes when a colour-support byte
// occupies 0x0143, 16 otherwise.
func (h Header) MaxTitleLen() int {
	if h.ColorSupport.IsSupported() {
		return 15
	}
	return 16
}

// Write renders the header into rom at offsets 0x0104-0x014F (rom must
// already be at least 0x014F+1 bytes long) and returns the computed header
// checksum. romSizeFactor is the k in 0x8000<<k chosen by the ROM builder.
func (h Header) Write(rom []byte, romSizeFactor byte) (byte, error) {
	if len(h.Title) > h.MaxTitleLen() {
		return 0, fmt.Errorf("cart: title %q exceeds %d bytes", h.Title, h.MaxTitleLen())
	}
	if len(h.Title) == 0x10 && h.ColorSupport.IsSupported() {
		return 0, fmt.Errorf("cart: title %q is 16 bytes but colour support leaves no room for the support byte", h.Title)
	}
	if len(rom) < 0x150 {
		return 0, fmt.Errorf("cart: rom buffer too short to hold the header (need >= 0x150 bytes, got %d)", len(rom))
	}

	copy(rom[0x104:0x104+48], Logo[:])

	pos := 0x134
	pos += copy(rom[pos:], h.Title)
	titleEnd := 0x134 + h.MaxTitleLen()
	for pos < titleEnd {
		rom[pos] = 0
		pos++
	}
	if h.ColorSupport.IsSupported() {
		rom[pos] = byte(h.ColorSupport)
		pos++
	}

	rom[0x144] = h.Licence[0]
	rom[0x145] = h.Licence[1]

	if h.SGBSupport {
		rom[0x146] = 0x03
	} else {
		rom[0x146] = 0x00
	}

	rom[0x147] = h.CartridgeType.Byte()
	rom[0x148] = romSizeFactor
	rom[0x149] = byte(h.RamType)

	if h.Japanese {
		rom[0x14A] = 0x00
	} else {
		rom[0x14A] = 0x01
	}

	rom[0x14B] = 0x33
	rom[0x14C] = h.VersionNumber

	checksum := HeaderChecksum(rom)
	rom[0x14D] = checksum
	rom[0x14E] = 0
	rom[0x14F] = 0
	return checksum, nil
}

// HeaderChecksum computes the header checksum byte per the boot ROM
// algorithm: x = 0; for b in rom[0x134..=0x14C]: x = x - b - 1 (mod 256).
func HeaderChecksum(rom []byte) byte {
	var x byte
	for i := 0x134; i <= 0x14C; i++ {
		x = x - rom[i] - 1
	}
	return x
}
