package asm

import (
	"fmt"
	"sort"

	"github.com/minz/gbasm/pkg/expr"
)

// ResolveLabels runs the label pass (spec §4.E.1) over nodes, a region's
// instruction stream, starting at startAddr (the region's absolute start
// address) with startAddr%0x4000 as the initial in-bank offset. It inserts
// each label's absolute address into symbols, mutating it in place, and
// returns the address immediately following the last node (the region's
// end address).
func ResolveLabels(nodes []Instruction, startAddr uint32, symbols map[string]int64) (uint32, error) {
	addr := startAddr
	for _, n := range nodes {
		if l, ok := n.(Label); ok {
			if _, exists := symbols[l.Name]; exists {
				return 0, &SymbolConflictError{Name: l.Name}
			}
			symbols[l.Name] = int64(addr)
			continue
		}
		bankOffset := uint16(addr % 0x4000)
		addr += uint32(n.Length(bankOffset))
	}
	return addr, nil
}

// ResolveEquations runs the equ fixed-point pass (spec §4.E.2) over every
// Equ collected across all regions, inserting resolved values into symbols
// in place. It terminates successfully once every equ has been resolved,
// or fails with either an UndeclaredIdentifierError (a missing name that is
// not itself a pending equ target) or a CyclicDependencyError (a pending
// set that cannot make further progress).
func ResolveEquations(equs []Equ, symbols map[string]int64) error {
	pending := make(map[string]Equ, len(equs))
	for _, e := range equs {
		if _, exists := symbols[e.Name]; exists {
			return &SymbolConflictError{Name: e.Name}
		}
		if _, dup := pending[e.Name]; dup {
			return &SymbolConflictError{Name: e.Name}
		}
		pending[e.Name] = e
	}

	for len(pending) > 0 {
		progress := false
		var missingNames []string
		for name, e := range pending {
			v, err := e.Value.Eval(symbols)
			if err != nil {
				if missing, ok := expr.IsMissingIdentifier(err); ok {
					missingNames = append(missingNames, missing)
					continue
				}
				return fmt.Errorf("equ %s: %w", name, err)
			}
			symbols[name] = v
			delete(pending, name)
			progress = true
		}
		if progress {
			continue
		}
		return equFixedPointFailure(pending, missingNames)
	}
	return nil
}

func equFixedPointFailure(pending map[string]Equ, missingNames []string) error {
	names := make([]string, 0, len(pending))
	for name := range pending {
		names = append(names, name)
	}
	sort.Strings(names)

	sort.Strings(missingNames)
	for _, missing := range missingNames {
		if _, isPending := pending[missing]; !isPending {
			return &UndeclaredIdentifierError{Name: missing}
		}
	}
	return &CyclicDependencyError{Names: names}
}
