package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/minz/gbasm/internal/project"
	"github.com/minz/gbasm/pkg/asm"
	"github.com/minz/gbasm/pkg/cart"
	"github.com/minz/gbasm/pkg/rom"
	"github.com/minz/gbasm/pkg/version"
	"github.com/spf13/cobra"
)

var (
	verbose     bool
	showVersion bool

	outputFile       string
	headerTitle      string
	headerLicence    string
	headerCartType   string
	headerRamType    string
	headerSGB        bool
	headerJapanese   bool
	headerVersionNum uint8
)

var rootCmd = &cobra.Command{
	Use:   "gbasm",
	Short: "gbasm " + version.GetVersion(),
	Long: `gbasm - Game Boy (SM83/LR35902) assembler and ROM builder

Assembles gbasm-dialect source into LR35902 machine code and links it,
together with a cartridge header and any raw binary data, into a
bootable Game Boy ROM image.

COMMANDS:
  build <project-dir>  assemble a project's gbasm/main.asm and produce a
                        ROM image
  asm <file.asm>        assemble a single file and print its symbol table

EXAMPLES:
  gbasm build .                        # build ./gbasm/main.asm into game.gb
  gbasm build . -o mygame.gb --title "MY GAME" --cartridge-type 0x01
  gbasm asm gbasm/main.asm             # print the symbol table only`,
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion {
			fmt.Println(version.GetFullVersion())
			return
		}
		cmd.Help()
	},
}

var buildCmd = &cobra.Command{
	Use:   "build <project-dir>",
	Short: "assemble a project and write a Game Boy ROM image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(args[0])
	},
}

var asmCmd = &cobra.Command{
	Use:   "asm <file.asm>",
	Short: "assemble a single file and print its symbol table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAsm(args[0])
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print diagnostics to stderr")
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "show version")

	buildCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output ROM file (default: <project-dir>/game.gb)")
	buildCmd.Flags().StringVar(&headerTitle, "title", "", "cartridge title (up to 16 bytes, 15 if colour support is set)")
	buildCmd.Flags().StringVar(&headerLicence, "licence", "00", "two-character new licensee code")
	buildCmd.Flags().StringVar(&headerCartType, "cartridge-type", "0x00", "cartridge/MBC type byte (e.g. 0x00 for RomOnly, 0x19 for Mbc5)")
	buildCmd.Flags().StringVar(&headerRamType, "ram-type", "0x00", "cartridge RAM size byte")
	buildCmd.Flags().BoolVar(&headerSGB, "sgb", false, "set the Super Game Boy support flag")
	buildCmd.Flags().BoolVar(&headerJapanese, "japanese", false, "set the Japanese destination code")
	buildCmd.Flags().Uint8Var(&headerVersionNum, "version-number", 0, "cartridge version number byte")

	rootCmd.AddCommand(buildCmd, asmCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runBuild(projectDir string) error {
	root, err := project.FindRoot(projectDir)
	if err != nil {
		return fmt.Errorf("cannot locate project root: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Project root: %s\n", root)
	}

	h, err := headerFromFlags()
	if err != nil {
		return err
	}

	b := rom.NewAt(root)
	if _, err := b.AddBasicInterruptsAndJumps(); err != nil {
		return err
	}
	if _, err := b.AddHeader(h); err != nil {
		return err
	}
	if _, err := b.AddAsmFile("main.asm"); err != nil {
		return err
	}

	out, err := b.Compile()
	if err != nil {
		return fmt.Errorf("compile failed: %w", err)
	}

	outPath := outputFile
	if outPath == "" {
		outPath = filepath.Join(root, "game.gb")
	}
	if err := os.WriteFile(outPath, out, 0644); err != nil {
		return fmt.Errorf("failed to write rom %s: %w", outPath, err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Wrote %d bytes to %s\n", len(out), outPath)
	}
	return nil
}

func headerFromFlags() (cart.Header, error) {
	cartByte, err := strconv.ParseUint(headerCartType, 0, 8)
	if err != nil {
		return cart.Header{}, fmt.Errorf("invalid --cartridge-type %q: %w", headerCartType, err)
	}
	ramByte, err := strconv.ParseUint(headerRamType, 0, 8)
	if err != nil {
		return cart.Header{}, fmt.Errorf("invalid --ram-type %q: %w", headerRamType, err)
	}
	var licence [2]byte
	if len(headerLicence) == 2 {
		licence[0], licence[1] = headerLicence[0], headerLicence[1]
	} else if headerLicence != "" {
		return cart.Header{}, fmt.Errorf("--licence must be exactly two characters, got %q", headerLicence)
	}
	return cart.Header{
		Title:         headerTitle,
		Licence:       licence,
		SGBSupport:    headerSGB,
		CartridgeType: cart.CartridgeTypeFromByte(byte(cartByte)),
		RamType:       cart.RamType(byte(ramByte)),
		Japanese:      headerJapanese,
		VersionNumber: headerVersionNum,
	}, nil
}

func runAsm(file string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", file, err)
	}
	defer f.Close()

	nodes, errs := asm.ParseSource(f, file)
	if len(errs) > 0 {
		fmt.Fprintln(os.Stderr, "Assembly errors:")
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "  %v\n", e)
		}
		return fmt.Errorf("%d parse error(s)", len(errs))
	}

	symbols := map[string]int64{}
	endAddr, err := asm.ResolveLabels(nodes, 0, symbols)
	if err != nil {
		return err
	}
	var equs []asm.Equ
	for _, n := range nodes {
		if e, ok := n.(asm.Equ); ok {
			equs = append(equs, e)
		}
	}
	if err := asm.ResolveEquations(equs, symbols); err != nil {
		return err
	}

	names := make([]string, 0, len(symbols))
	for name := range symbols {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("Symbol table for %s\n", file)
	for _, name := range names {
		fmt.Printf("  %-24s = 0x%04X (%d)\n", name, uint16(symbols[name]), symbols[name])
	}
	fmt.Printf("Size: %d bytes\n", endAddr)
	return nil
}
