// Package xlate translates guest A32 and Thumb code into ARM64 host code.
//
// A Translator walks guest instructions from a start address, classifies
// each with the insts decoder and hands it to the handler registered for
// its kind. Handlers read fields through the insts views, borrow host
// temporaries from a regalloc.Allocator and emit host instructions through
// a host.Assembler. All per-block state lives in a Context that is threaded
// through every handler.
//
// Translated code expects the following host state on entry:
//   - X0-X14 hold guest r0-r14 as zero-extended 32-bit values
//   - NZCV holds the guest condition flags
//   - V0-V15 hold guest Q0-Q15
//   - X28 holds the memory base (direct policy) or page table (table policy)
//   - X29 points at the guest state block
//
// A block ends with RET after writing the next guest PC to X15, bit 0 set
// for Thumb. Trapping instructions end with BRK instead.
package xlate

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/sarchlab/armxlate/host"
)

// ErrUnimplemented is returned for a guest encoding the translator has no
// handler for. The block containing it is discarded.
var ErrUnimplemented = errors.New("xlate: unimplemented encoding")

// ErrBlockTooLarge is returned when a block's host code would exceed the
// range of the host's conditional branches.
var ErrBlockTooLarge = errors.New("xlate: block too large")

// maxHostInsts bounds a block so that every internal B.cond reaches.
const maxHostInsts = 1 << 18

// Policy selects how guest addresses become host addresses.
type Policy uint8

// Address translation policies.
const (
	// PolicyDirect adds the guest address to a fixed base held in X28.
	PolicyDirect Policy = iota
	// PolicyTable looks the guest page up in a table of host page
	// addresses held in X28.
	PolicyTable
)

func (p Policy) String() string {
	if p == PolicyTable {
		return "table"
	}
	return "direct"
}

// ParsePolicy converts a policy name into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "direct":
		return PolicyDirect, nil
	case "table":
		return PolicyTable, nil
	}
	return 0, fmt.Errorf("xlate: unknown policy %q", s)
}

// Trap kinds, carried in the BRK immediate of a trap placeholder.
const (
	TrapSVC    = 1 // supervisor call; argument is the immediate
	TrapBKPT   = 2 // breakpoint; argument is the immediate
	TrapUDF    = 3 // permanently undefined; argument is the immediate
	TrapCoproc = 4 // coprocessor access; argument is the encoding
	TrapSystem = 5 // privileged system access; argument is the encoding
	TrapWait   = 6 // WFI, WFE or SEV; argument is the hint number
)

// CodeSource supplies guest code to the translator.
type CodeSource interface {
	Fetch32(addr uint32) (uint32, error)
	Fetch16(addr uint32) (uint16, error)
}

// Image is a CodeSource over a flat byte slice loaded at Base.
type Image struct {
	Base uint32
	Data []byte
}

// NewImage wraps code loaded at base.
func NewImage(base uint32, code []byte) *Image {
	return &Image{Base: base, Data: code}
}

func (m *Image) slice(addr uint32, n uint32) ([]byte, error) {
	if addr < m.Base || addr-m.Base+n > uint32(len(m.Data)) || addr-m.Base+n < n {
		return nil, fmt.Errorf("xlate: fetch of %d bytes at 0x%08x outside image", n, addr)
	}
	off := addr - m.Base
	return m.Data[off : off+n], nil
}

// Fetch32 reads a little-endian word.
func (m *Image) Fetch32(addr uint32) (uint32, error) {
	b, err := m.slice(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Fetch16 reads a little-endian halfword.
func (m *Image) Fetch16(addr uint32) (uint16, error) {
	b, err := m.slice(addr, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// Block is one translated guest block.
type Block struct {
	GuestPC    uint32
	Thumb      bool
	Size       uint32 // guest bytes covered
	GuestInsts int
	Insts      []host.Inst
	Code       []byte

	// FlagsModified is set when the block leaves host flags different from
	// what it found, so a consumer holding a snapshot must re-read them.
	FlagsModified bool
}

// End returns the first guest address after the block.
func (b *Block) End() uint32 { return b.GuestPC + b.Size }

// Listing returns the host code as text.
func (b *Block) Listing() string { return host.Listing(b.Insts, nil) }

// Publisher receives blocks that translated completely.
type Publisher interface {
	Publish(b *Block)
}
