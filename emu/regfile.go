// Package emu provides functional execution of translated host code.
//
// A Machine runs a sequence of structured host.Inst records with the same
// semantics the ARM64 hardware gives their encodings. It exists to check
// that translated blocks reproduce the guest behavior, and to let the CLI
// execute a block without real ARM64 hardware.
package emu

// RegFile represents the ARM64 register file.
// It contains 31 general-purpose registers (X0-X30),
// the stack pointer (SP), and the condition flags.
type RegFile struct {
	// X holds general-purpose registers X0-X30.
	// X[31] is never read: register 31 is either XZR or SP.
	X [32]uint64

	// SP is the stack pointer.
	SP uint64

	// PSTATE holds the processor state flags.
	PSTATE PSTATE
}

// PSTATE represents the processor state flags.
type PSTATE struct {
	// N is the negative flag.
	N bool
	// Z is the zero flag.
	Z bool
	// C is the carry flag.
	C bool
	// V is the overflow flag.
	V bool
}

// NZCV packs the flags the way MRS NZCV returns them: N at bit 31 down to
// V at bit 28.
func (p PSTATE) NZCV() uint64 {
	var v uint64
	if p.N {
		v |= 1 << 31
	}
	if p.Z {
		v |= 1 << 30
	}
	if p.C {
		v |= 1 << 29
	}
	if p.V {
		v |= 1 << 28
	}
	return v
}

// SetNZCV unpacks flags from bits 31:28 of v.
func (p *PSTATE) SetNZCV(v uint64) {
	p.N = v>>31&1 == 1
	p.Z = v>>30&1 == 1
	p.C = v>>29&1 == 1
	p.V = v>>28&1 == 1
}

// ReadReg reads a register value. Register 31 returns 0 (XZR).
func (r *RegFile) ReadReg(reg uint8) uint64 {
	if reg >= 31 {
		return 0
	}
	return r.X[reg]
}

// ReadRegOrSP reads a register value, treating register 31 as SP (not XZR).
// This is used by instructions like ADD/SUB immediate where Rn=31 means SP.
func (r *RegFile) ReadRegOrSP(reg uint8) uint64 {
	if reg == 31 {
		return r.SP
	}
	return r.X[reg]
}

// WriteRegOrSP writes a register value, treating register 31 as SP (not XZR).
func (r *RegFile) WriteRegOrSP(reg uint8, value uint64) {
	if reg == 31 {
		r.SP = value
		return
	}
	r.X[reg] = value
}

// WriteReg writes a value to a register. Writes to register 31 are ignored.
func (r *RegFile) WriteReg(reg uint8, value uint64) {
	if reg >= 31 {
		return
	}
	r.X[reg] = value
}

// ReadReg32 reads the lower 32 bits of a register.
func (r *RegFile) ReadReg32(reg uint8) uint32 {
	return uint32(r.ReadReg(reg))
}

// WriteReg32 writes to the lower 32 bits and zero-extends.
func (r *RegFile) WriteReg32(reg uint8, value uint32) {
	r.WriteReg(reg, uint64(value))
}

// readWidth reads a register at the instruction's operand width.
func (r *RegFile) readWidth(reg uint8, is64 bool) uint64 {
	v := r.ReadReg(reg)
	if !is64 {
		v &= 0xFFFFFFFF
	}
	return v
}

// writeWidth writes a register, zero-extending W results.
func (r *RegFile) writeWidth(reg uint8, v uint64, is64 bool) {
	if !is64 {
		v &= 0xFFFFFFFF
	}
	r.WriteReg(reg, v)
}
