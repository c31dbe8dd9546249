package emu

import "github.com/sarchlab/armxlate/host"

// LoadStoreUnit implements ARM64 integer loads and stores, including the
// exclusive monitor the load/store-exclusive instructions share.
type LoadStoreUnit struct {
	regFile *RegFile
	memory  *Memory

	monitorValid bool
	monitorAddr  uint64
	monitorSize  int
}

// NewLoadStoreUnit creates a new LoadStoreUnit connected to the given
// register file and memory.
func NewLoadStoreUnit(regFile *RegFile, memory *Memory) *LoadStoreUnit {
	return &LoadStoreUnit{
		regFile: regFile,
		memory:  memory,
	}
}

// Address computes the effective address of a load or store.
func (lsu *LoadStoreUnit) Address(in host.Inst) uint64 {
	base := lsu.regFile.ReadRegOrSP(in.Rn)
	switch in.Op {
	case host.OpLDRReg, host.OpSTRReg:
		return base + extendValue(lsu.regFile.ReadReg(in.Rm), in.Ext, in.Amount, true)
	case host.OpLDR, host.OpSTR, host.OpLDUR, host.OpSTUR, host.OpLDP, host.OpSTP,
		host.OpLDRFP, host.OpSTRFP, host.OpLDURFP, host.OpSTURFP:
		return base + uint64(in.Imm)
	}
	return base
}

func (lsu *LoadStoreUnit) load(addr uint64, size uint8, signed, is64 bool) uint64 {
	v := lsu.memory.Read(addr, 1<<size)
	if signed {
		shift := 64 - 8*(uint(1)<<size)
		v = uint64(int64(v<<shift) >> shift)
	}
	if !is64 {
		v &= 0xFFFFFFFF
	}
	return v
}

// store writes memory and breaks any exclusive reservation it overlaps.
func (lsu *LoadStoreUnit) store(addr uint64, size int, v uint64) {
	if lsu.monitorValid && addr < lsu.monitorAddr+uint64(lsu.monitorSize) &&
		lsu.monitorAddr < addr+uint64(size) {
		lsu.monitorValid = false
	}
	lsu.memory.Write(addr, size, v)
}

// LoadStore executes LDR/STR in the immediate, unscaled and register forms.
func (lsu *LoadStoreUnit) LoadStore(in host.Inst) {
	addr := lsu.Address(in)
	if in.Op.IsLoad() {
		lsu.regFile.WriteReg(in.Rd, lsu.load(addr, in.Size, in.Signed, in.Sf || in.Size == 3))
		return
	}
	lsu.store(addr, 1<<in.Size, lsu.regFile.ReadReg(in.Rd))
}

// Pair executes LDP/STP.
func (lsu *LoadStoreUnit) Pair(in host.Inst) {
	addr := lsu.Address(in)
	size := 1 << in.Size
	if in.Op == host.OpLDP {
		first := lsu.load(addr, in.Size, false, in.Sf)
		second := lsu.load(addr+uint64(size), in.Size, false, in.Sf)
		lsu.regFile.WriteReg(in.Rd, first)
		lsu.regFile.WriteReg(in.Ra, second)
		return
	}
	lsu.store(addr, size, lsu.regFile.ReadReg(in.Rd))
	lsu.store(addr+uint64(size), size, lsu.regFile.ReadReg(in.Ra))
}

// Exclusive executes the single-register exclusive and ordered accesses.
func (lsu *LoadStoreUnit) Exclusive(in host.Inst) {
	addr := lsu.regFile.ReadRegOrSP(in.Rn)
	size := 1 << in.Size
	switch in.Op {
	case host.OpLDXR, host.OpLDAXR:
		lsu.monitorValid, lsu.monitorAddr, lsu.monitorSize = true, addr, size
		fallthrough
	case host.OpLDAR:
		lsu.regFile.WriteReg(in.Rd, lsu.load(addr, in.Size, false, true))
	case host.OpSTLR:
		lsu.store(addr, size, lsu.regFile.ReadReg(in.Rd))
	default:
		lsu.regFile.WriteReg32(in.Rm, lsu.storeExclusive(addr, size, func() {
			lsu.store(addr, size, lsu.regFile.ReadReg(in.Rd))
		}))
	}
}

// ExclusivePair executes LDXP/LDAXP/STXP/STLXP.
func (lsu *LoadStoreUnit) ExclusivePair(in host.Inst) {
	addr := lsu.regFile.ReadRegOrSP(in.Rn)
	size := 1 << in.Size
	switch in.Op {
	case host.OpLDXP, host.OpLDAXP:
		lsu.monitorValid, lsu.monitorAddr, lsu.monitorSize = true, addr, 2*size
		lsu.regFile.WriteReg(in.Rd, lsu.load(addr, in.Size, false, in.Sf))
		lsu.regFile.WriteReg(in.Ra, lsu.load(addr+uint64(size), in.Size, false, in.Sf))
	default:
		lsu.regFile.WriteReg32(in.Rm, lsu.storeExclusive(addr, 2*size, func() {
			first, second := lsu.regFile.ReadReg(in.Rd), lsu.regFile.ReadReg(in.Ra)
			lsu.store(addr, size, first)
			lsu.store(addr+uint64(size), size, second)
		}))
	}
}

// storeExclusive performs write when the reservation covers the access and
// returns the status register value: 0 on success, 1 on failure. The
// reservation is consumed either way.
func (lsu *LoadStoreUnit) storeExclusive(addr uint64, size int, write func()) uint32 {
	ok := lsu.monitorValid && lsu.monitorAddr == addr && lsu.monitorSize == size
	lsu.monitorValid = false
	if !ok {
		return 1
	}
	write()
	return 0
}

// ClearExclusive executes CLREX.
func (lsu *LoadStoreUnit) ClearExclusive() { lsu.monitorValid = false }

// Reserved reports whether an exclusive reservation is held.
func (lsu *LoadStoreUnit) Reserved() bool { return lsu.monitorValid }
