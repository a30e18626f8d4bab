package cart

import "testing"

func TestHeaderChecksum(t *testing.T) {
	rom := make([]byte, 0x150)
	h := Header{Title: "TEST", CartridgeType: RomOnly, Licence: [2]byte{0x00, 0x00}}
	checksum, err := h.Write(rom, 0)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := HeaderChecksum(rom); got != checksum {
		t.Errorf("HeaderChecksum(rom) = %#02x, Write returned %#02x", got, checksum)
	}

	var x byte
	for i := 0x134; i <= 0x14C; i++ {
		x = x - rom[i] - 1
	}
	if x != checksum {
		t.Errorf("recomputed checksum %#02x, want %#02x", x, checksum)
	}
}

func TestHeaderWriteLayout(t *testing.T) {
	rom := make([]byte, 0x150)
	h := Header{
		Title:         "GAME",
		CartridgeType: Mbc1RamBattery,
		RamType:       Ram8KB,
		Licence:       [2]byte{0x30, 0x31},
		SGBSupport:    true,
		VersionNumber: 2,
	}
	if _, err := h.Write(rom, 3); err != nil {
		t.Fatalf("Write: %v", err)
	}
	for i, b := range Logo {
		if rom[0x104+i] != b {
			t.Fatalf("logo byte %d mismatch: got %#02x, want %#02x", i, rom[0x104+i], b)
		}
	}
	if string(rom[0x134:0x138]) != "GAME" {
		t.Errorf("title = %q, want GAME", rom[0x134:0x138])
	}
	for i := 0x138; i < 0x144; i++ {
		if rom[i] != 0 {
			t.Errorf("rom[0x%X] = %#02x, want 0 (unused title padding)", i, rom[i])
		}
	}
	if rom[0x144] != 0x30 || rom[0x145] != 0x31 {
		t.Errorf("licence bytes = %#02x %#02x, want 30 31", rom[0x144], rom[0x145])
	}
	if rom[0x146] != 0x03 {
		t.Errorf("sgb flag = %#02x, want 03", rom[0x146])
	}
	if rom[0x147] != Mbc1RamBattery.Byte() {
		t.Errorf("cartridge type byte = %#02x, want %#02x", rom[0x147], Mbc1RamBattery.Byte())
	}
	if rom[0x148] != 3 {
		t.Errorf("rom size factor = %d, want 3", rom[0x148])
	}
	if rom[0x149] != byte(Ram8KB) {
		t.Errorf("ram type byte = %#02x, want %#02x", rom[0x149], byte(Ram8KB))
	}
	if rom[0x14A] != 0x01 {
		t.Errorf("destination code = %#02x, want 01 (non-japanese)", rom[0x14A])
	}
	if rom[0x14B] != 0x33 {
		t.Errorf("old licence byte = %#02x, want 33", rom[0x14B])
	}
	if rom[0x14C] != 2 {
		t.Errorf("version = %d, want 2", rom[0x14C])
	}
	if rom[0x14E] != 0 || rom[0x14F] != 0 {
		t.Errorf("global checksum bytes = %#02x %#02x, want 00 00", rom[0x14E], rom[0x14F])
	}
}

func TestHeaderColorSupportByteOmittedWhenUnsupported(t *testing.T) {
	rom := make([]byte, 0x150)
	h := Header{Title: "0123456789ABCDEF", CartridgeType: RomOnly}
	if _, err := h.Write(rom, 0); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if string(rom[0x134:0x144]) != "0123456789ABCDEF" {
		t.Errorf("title = %q, want full 16 bytes", rom[0x134:0x144])
	}
}

func TestHeaderColorSupportTitleTooLong(t *testing.T) {
	h := Header{Title: "0123456789ABCDEF", ColorSupport: ColorSupportedGBCOnly, CartridgeType: RomOnly}
	rom := make([]byte, 0x150)
	if _, err := h.Write(rom, 0); err == nil {
		t.Fatal("expected an error: a 16-byte title leaves no room for the colour support byte")
	}
}

func TestHeaderTitleTooLong(t *testing.T) {
	h := Header{Title: "0123456789ABCDEFG", CartridgeType: RomOnly}
	rom := make([]byte, 0x150)
	if _, err := h.Write(rom, 0); err == nil {
		t.Fatal("expected title-too-long error")
	}
}

func TestCartridgeTypeFromByteRoundTrip(t *testing.T) {
	for _, want := range knownCartridgeTypes {
		got := CartridgeTypeFromByte(want.Byte())
		if got != want {
			t.Errorf("CartridgeTypeFromByte(%#02x) = %v, want %v", want.Byte(), got, want)
		}
	}
}

func TestCartridgeTypeFromByteUnknown(t *testing.T) {
	got := CartridgeTypeFromByte(0x7F)
	if got.Byte() != 0x7F {
		t.Errorf("Byte() = %#02x, want 7F", got.Byte())
	}
	if got.String() != "Unknown(0x7F)" {
		t.Errorf("String() = %q, want Unknown(0x7F)", got.String())
	}
}
