package emu

import "encoding/binary"

const (
	pageShift = 12
	pageSize  = 1 << pageShift
	pageMask  = pageSize - 1
)

// Memory is a sparse, byte-addressable 64-bit address space. Pages are
// allocated on first write; unwritten memory reads as zero.
type Memory struct {
	pages map[uint64]*[pageSize]byte
}

// NewMemory creates an empty memory.
func NewMemory() *Memory {
	return &Memory{pages: make(map[uint64]*[pageSize]byte)}
}

func (m *Memory) page(addr uint64, alloc bool) *[pageSize]byte {
	p := m.pages[addr>>pageShift]
	if p == nil && alloc {
		p = new([pageSize]byte)
		m.pages[addr>>pageShift] = p
	}
	return p
}

// Read8 reads one byte.
func (m *Memory) Read8(addr uint64) uint8 {
	if p := m.page(addr, false); p != nil {
		return p[addr&pageMask]
	}
	return 0
}

// Write8 writes one byte.
func (m *Memory) Write8(addr uint64, v uint8) {
	m.page(addr, true)[addr&pageMask] = v
}

// ReadBytes copies len(dst) bytes starting at addr.
func (m *Memory) ReadBytes(addr uint64, dst []byte) {
	for i := range dst {
		dst[i] = m.Read8(addr + uint64(i))
	}
}

// WriteBytes stores src starting at addr.
func (m *Memory) WriteBytes(addr uint64, src []byte) {
	for i, b := range src {
		m.Write8(addr+uint64(i), b)
	}
}

// Read reads a little-endian value of size bytes (1, 2, 4 or 8).
func (m *Memory) Read(addr uint64, size int) uint64 {
	var buf [8]byte
	m.ReadBytes(addr, buf[:size])
	return binary.LittleEndian.Uint64(buf[:])
}

// Write stores the low size bytes of v little-endian.
func (m *Memory) Write(addr uint64, size int, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	m.WriteBytes(addr, buf[:size])
}

// Read16 reads a halfword.
func (m *Memory) Read16(addr uint64) uint16 { return uint16(m.Read(addr, 2)) }

// Read32 reads a word.
func (m *Memory) Read32(addr uint64) uint32 { return uint32(m.Read(addr, 4)) }

// Read64 reads a doubleword.
func (m *Memory) Read64(addr uint64) uint64 { return m.Read(addr, 8) }

// Write16 writes a halfword.
func (m *Memory) Write16(addr uint64, v uint16) { m.Write(addr, 2, uint64(v)) }

// Write32 writes a word.
func (m *Memory) Write32(addr uint64, v uint32) { m.Write(addr, 4, uint64(v)) }

// Write64 writes a doubleword.
func (m *Memory) Write64(addr uint64, v uint64) { m.Write(addr, 8, v) }

// Pages returns the number of allocated pages.
func (m *Memory) Pages() int { return len(m.pages) }
