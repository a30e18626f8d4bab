package rom

import (
	"bytes"
	"testing"

	"github.com/minz/gbasm/pkg/cart"
)

func newTestBuilder() *Builder {
	return &Builder{symbols: map[string]int64{}}
}

// S1: an empty rom1 with only the dummy table and header compiles to a
// 32768-byte image with the expected fixed bytes.
func TestScenarioEmptyRom(t *testing.T) {
	b := newTestBuilder()
	if _, err := b.AddBasicInterruptsAndJumps(); err != nil {
		t.Fatalf("AddBasicInterruptsAndJumps: %v", err)
	}
	h := cart.Header{
		Title:         "RustOnly",
		ColorSupport:  cart.ColorUnsupported,
		CartridgeType: cart.RomOnly,
		RamType:       cart.RamNone,
	}
	if _, err := b.AddHeader(h); err != nil {
		t.Fatalf("AddHeader: %v", err)
	}
	out, err := b.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(out) != 32768 {
		t.Fatalf("got rom of length %d, want 32768", len(out))
	}
	if !bytes.Equal(out[0x100:0x104], []byte{0x00, 0xC3, 0x50, 0x01}) {
		t.Errorf("out[0x100:0x104] = % X, want 00 C3 50 01", out[0x100:0x104])
	}
	if !bytes.Equal(out[0x104:0x134], cart.Logo[:]) {
		t.Errorf("out[0x104:0x134] does not match the Nintendo logo")
	}
	wantTitle := append([]byte("RustOnly"), make([]byte, 8)...)
	if !bytes.Equal(out[0x134:0x144], wantTitle) {
		t.Errorf("out[0x134:0x144] = % X, want %q followed by zero padding", out[0x134:0x144], "RustOnly")
	}
	if out[0x147] != 0x00 {
		t.Errorf("out[0x147] (cartridge type) = %#02x, want 00", out[0x147])
	}
	if out[0x148] != 0x00 {
		t.Errorf("out[0x148] (rom size factor) = %#02x, want 00", out[0x148])
	}
}

// S7: an 8 MiB image declared as RomOnly fails to compile with a size error,
// since RomOnly only supports the 32768-byte, unbanked image.
func TestScenarioMBCMismatch(t *testing.T) {
	b := newTestBuilder()
	if _, err := b.AddBasicInterruptsAndJumps(); err != nil {
		t.Fatalf("AddBasicInterruptsAndJumps: %v", err)
	}
	h := cart.Header{
		Title:         "BIGGAME",
		CartridgeType: cart.RomOnly,
	}
	if _, err := b.AddHeader(h); err != nil {
		t.Fatalf("AddHeader: %v", err)
	}
	if _, err := b.AdvanceAddress(8*1024*1024/BankSize, 0); err != nil {
		t.Fatalf("AdvanceAddress: %v", err)
	}
	_, err := b.Compile()
	if err == nil {
		t.Fatal("expected a ROM-size error: RomOnly cannot address an 8 MiB image")
	}
}

// AddBytes rejects a single call that would straddle a bank boundary; the
// caller must use AdvanceAddress to cross one explicitly.
func TestAddBytesRejectsBankCrossing(t *testing.T) {
	b := newTestBuilder()
	if _, err := b.AddBasicInterruptsAndJumps(); err != nil {
		t.Fatalf("AddBasicInterruptsAndJumps: %v", err)
	}
	h := cart.Header{CartridgeType: cart.RomOnly}
	if _, err := b.AddHeader(h); err != nil {
		t.Fatalf("AddHeader: %v", err)
	}
	big := make([]byte, int(BankSize))
	if _, err := b.AddBytes(big, "filler"); err == nil {
		t.Fatal("expected an error: bytes starting mid-bank-0 cross into bank 1")
	}
}

func TestAddBasicInterruptsAndJumpsRequiresZeroAddress(t *testing.T) {
	b := newTestBuilder()
	b.address = 1
	if _, err := b.AddBasicInterruptsAndJumps(); err == nil {
		t.Fatal("expected an error when address is not 0")
	}
}

func TestAddHeaderRequiresPostInterruptTableAddress(t *testing.T) {
	b := newTestBuilder()
	if _, err := b.AddHeader(cart.Header{CartridgeType: cart.RomOnly}); err == nil {
		t.Fatal("expected an error: header added before the interrupt table")
	}
}

func TestCompileRejectsEmptyBuilder(t *testing.T) {
	b := newTestBuilder()
	if _, err := b.Compile(); err == nil {
		t.Fatal("expected an error compiling a builder with no regions")
	}
}

func TestAddressAccessors(t *testing.T) {
	b := newTestBuilder()
	if _, err := b.AdvanceAddress(1, 0x10); err != nil {
		t.Fatalf("AdvanceAddress: %v", err)
	}
	if got := b.GetBank(); got != 1 {
		t.Errorf("GetBank() = %d, want 1", got)
	}
	if got := b.GetAddressBank(); got != 0x10 {
		t.Errorf("GetAddressBank() = %#x, want 0x10", got)
	}
	if got := b.GetAddressGlobal(); got != uint32(BankSize)+0x10 {
		t.Errorf("GetAddressGlobal() = %#x, want %#x", got, uint32(BankSize)+0x10)
	}
}

func TestAdvanceAddressRejectsGoingBackwards(t *testing.T) {
	b := newTestBuilder()
	if _, err := b.AdvanceAddress(1, 0); err != nil {
		t.Fatalf("AdvanceAddress: %v", err)
	}
	if _, err := b.AdvanceAddress(0, 0); err == nil {
		t.Fatal("expected an error moving the cursor backwards")
	}
}
