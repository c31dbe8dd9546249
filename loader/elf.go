// Package loader reads 32-bit ARM ELF executables as guest code sources.
package loader

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
	"io"
)

// SegmentFlags represents memory protection flags for a segment.
type SegmentFlags uint32

const (
	// SegmentFlagExecute indicates the segment is executable.
	SegmentFlagExecute SegmentFlags = 1 << iota
	// SegmentFlagWrite indicates the segment is writable.
	SegmentFlagWrite
	// SegmentFlagRead indicates the segment is readable.
	SegmentFlagRead
)

// DefaultStackTop is the initial guest stack pointer.
const DefaultStackTop = 0xC0000000

// Segment represents a loadable segment.
type Segment struct {
	// VirtAddr is the guest address of the first byte.
	VirtAddr uint32
	// Data contains the segment contents from the file.
	Data []byte
	// MemSize is the size in memory (may be larger than len(Data) for BSS).
	MemSize uint32
	// Flags contains the segment protection flags.
	Flags SegmentFlags
}

func (s *Segment) contains(addr, n uint32) bool {
	return addr >= s.VirtAddr && uint64(addr)+uint64(n) <= uint64(s.VirtAddr)+uint64(len(s.Data))
}

// Program is a loaded guest executable. It implements xlate.CodeSource over
// its executable segments.
type Program struct {
	// EntryPoint is the entry address with the Thumb bit cleared.
	EntryPoint uint32
	// Thumb is set when the entry address had bit 0 set.
	Thumb bool
	// Segments contains all loadable segments.
	Segments []Segment
	// InitialSP is the initial guest stack pointer.
	InitialSP uint32
}

// Load parses a little-endian 32-bit ARM ELF executable.
func Load(path string) (*Program, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if f.Class != elf.ELFCLASS32 {
		return nil, fmt.Errorf("not a 32-bit ELF file")
	}
	if f.Data != elf.ELFDATA2LSB {
		return nil, fmt.Errorf("not a little-endian ELF file")
	}
	if f.Machine != elf.EM_ARM {
		return nil, fmt.Errorf("not an ARM ELF file (machine type: %v)", f.Machine)
	}

	entry := uint32(f.Entry)
	prog := &Program{
		EntryPoint: entry &^ 1,
		Thumb:      entry&1 != 0,
		InitialSP:  DefaultStackTop,
	}

	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}

		data := make([]byte, phdr.Filesz)
		if phdr.Filesz > 0 {
			n, err := phdr.ReadAt(data, 0)
			if err != nil && err != io.EOF {
				return nil, fmt.Errorf("failed to read segment at 0x%x: %w", phdr.Vaddr, err)
			}
			if uint64(n) != phdr.Filesz {
				return nil, fmt.Errorf("short read for segment at 0x%x: got %d bytes, expected %d",
					phdr.Vaddr, n, phdr.Filesz)
			}
		}

		prog.Segments = append(prog.Segments, Segment{
			VirtAddr: uint32(phdr.Vaddr),
			Data:     data,
			MemSize:  uint32(phdr.Memsz),
			Flags:    segmentFlags(phdr.Flags),
		})
	}

	return prog, nil
}

func segmentFlags(pf elf.ProgFlag) SegmentFlags {
	var flags SegmentFlags
	for _, m := range [...]struct {
		pf elf.ProgFlag
		sf SegmentFlags
	}{
		{elf.PF_X, SegmentFlagExecute},
		{elf.PF_W, SegmentFlagWrite},
		{elf.PF_R, SegmentFlagRead},
	} {
		if pf&m.pf != 0 {
			flags |= m.sf
		}
	}
	return flags
}

func (p *Program) code(addr, n uint32) ([]byte, error) {
	for i := range p.Segments {
		s := &p.Segments[i]
		if s.Flags&SegmentFlagExecute != 0 && s.contains(addr, n) {
			off := addr - s.VirtAddr
			return s.Data[off : off+n], nil
		}
	}
	return nil, fmt.Errorf("loader: no executable segment holds 0x%08x", addr)
}

// Fetch32 reads a little-endian word from an executable segment.
func (p *Program) Fetch32(addr uint32) (uint32, error) {
	b, err := p.code(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Fetch16 reads a little-endian halfword from an executable segment.
func (p *Program) Fetch16(addr uint32) (uint16, error) {
	b, err := p.code(addr, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ByteWriter is memory that segments can be copied into.
type ByteWriter interface {
	Write8(addr uint64, v uint8)
}

// LoadInto copies every segment to base plus its guest address. BSS bytes
// are written as zero.
func (p *Program) LoadInto(m ByteWriter, base uint64) {
	for _, s := range p.Segments {
		addr := base + uint64(s.VirtAddr)
		for i, b := range s.Data {
			m.Write8(addr+uint64(i), b)
		}
		for i := uint32(len(s.Data)); i < s.MemSize; i++ {
			m.Write8(addr+uint64(i), 0)
		}
	}
}
