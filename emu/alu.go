package emu

import (
	"math/bits"

	"github.com/sarchlab/armxlate/host"
)

// ALU implements ARM64 integer data processing.
type ALU struct {
	regFile *RegFile
}

// NewALU creates a new ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

func widthMask(is64 bool) uint64 {
	if is64 {
		return ^uint64(0)
	}
	return 0xFFFFFFFF
}

func widthBits(is64 bool) uint {
	if is64 {
		return 64
	}
	return 32
}

// shiftValue applies a shifted-register operand shift.
func shiftValue(v uint64, sh host.Shift, amt uint8, is64 bool) uint64 {
	w := widthBits(is64)
	v &= widthMask(is64)
	n := uint(amt) % w
	switch sh {
	case host.ShiftLSL:
		return v << n & widthMask(is64)
	case host.ShiftLSR:
		return v >> n
	case host.ShiftASR:
		if is64 {
			return uint64(int64(v) >> n)
		}
		return uint64(uint32(int32(uint32(v)) >> n))
	default:
		if is64 {
			return bits.RotateLeft64(v, -int(n))
		}
		return uint64(bits.RotateLeft32(uint32(v), -int(n)))
	}
}

// extendValue applies an extended-register operand option and shift.
func extendValue(v uint64, ext host.Extend, amt uint8, is64 bool) uint64 {
	switch ext {
	case host.ExtUXTB:
		v = uint64(uint8(v))
	case host.ExtUXTH:
		v = uint64(uint16(v))
	case host.ExtUXTW:
		v = uint64(uint32(v))
	case host.ExtSXTB:
		v = uint64(int64(int8(v)))
	case host.ExtSXTH:
		v = uint64(int64(int16(v)))
	case host.ExtSXTW:
		v = uint64(int64(int32(v)))
	}
	return v << amt & widthMask(is64)
}

// addWithCarry returns x + y + carry at the operand width and the flags the
// flag-setting forms produce.
func addWithCarry(x, y uint64, carry bool, is64 bool) (uint64, PSTATE) {
	var c uint64
	if carry {
		c = 1
	}
	var result uint64
	var flags PSTATE
	if is64 {
		var carryOut uint64
		result, carryOut = bits.Add64(x, y, c)
		flags.C = carryOut == 1
		flags.V = (x^result)&(y^result)>>63 == 1
		flags.N = result>>63 == 1
	} else {
		x, y = x&0xFFFFFFFF, y&0xFFFFFFFF
		sum := x + y + c
		result = sum & 0xFFFFFFFF
		flags.C = sum>>32 != 0
		signed := int64(int32(uint32(x))) + int64(int32(uint32(y))) + int64(c)
		flags.V = signed != int64(int32(uint32(result)))
		flags.N = result>>31 == 1
	}
	flags.Z = result == 0
	return result, flags
}

// setLogicFlags sets NZ from a logical result and clears C and V.
func (a *ALU) setLogicFlags(result uint64, is64 bool) {
	a.regFile.PSTATE = PSTATE{
		N: result>>(widthBits(is64)-1)&1 == 1,
		Z: result == 0,
	}
}

func (a *ALU) addSub(in host.Inst, op1, op2 uint64, sub, carry bool, spDest bool) {
	if sub {
		op2 = ^op2 & widthMask(in.Sf)
	}
	result, flags := addWithCarry(op1, op2, carry, in.Sf)
	if in.S {
		a.regFile.PSTATE = flags
	}
	if spDest && !in.S {
		a.regFile.WriteRegOrSP(in.Rd, result)
		return
	}
	a.regFile.writeWidth(in.Rd, result, in.Sf)
}

// AddSubImm executes ADD/SUB (immediate). Rn and a non-flag-setting Rd of
// 31 name the stack pointer.
func (a *ALU) AddSubImm(in host.Inst) {
	op1 := a.regFile.ReadRegOrSP(in.Rn) & widthMask(in.Sf)
	sub := in.Op == host.OpSUBImm
	a.addSub(in, op1, uint64(in.Imm), sub, sub, true)
}

// AddSubReg executes ADD/SUB (shifted register).
func (a *ALU) AddSubReg(in host.Inst) {
	op1 := a.regFile.readWidth(in.Rn, in.Sf)
	op2 := shiftValue(a.regFile.ReadReg(in.Rm), in.Shift, in.Amount, in.Sf)
	sub := in.Op == host.OpSUBReg
	a.addSub(in, op1, op2, sub, sub, false)
}

// AddSubExt executes ADD/SUB (extended register).
func (a *ALU) AddSubExt(in host.Inst) {
	op1 := a.regFile.ReadRegOrSP(in.Rn) & widthMask(in.Sf)
	op2 := extendValue(a.regFile.ReadReg(in.Rm), in.Ext, in.Amount, in.Sf)
	sub := in.Op == host.OpSUBExt
	a.addSub(in, op1, op2, sub, sub, true)
}

// AddSubCarry executes ADC/SBC and their flag-setting forms.
func (a *ALU) AddSubCarry(in host.Inst) {
	op1 := a.regFile.readWidth(in.Rn, in.Sf)
	op2 := a.regFile.readWidth(in.Rm, in.Sf)
	a.addSub(in, op1, op2, in.Op == host.OpSBC, a.regFile.PSTATE.C, false)
}

func (a *ALU) logical(in host.Inst, op1, op2 uint64) {
	var result uint64
	switch in.Op {
	case host.OpAND, host.OpANDImm:
		result = op1 & op2
	case host.OpBIC:
		result = op1 &^ op2
	case host.OpORR, host.OpORRImm:
		result = op1 | op2
	case host.OpORN:
		result = op1 | ^op2
	case host.OpEOR, host.OpEORImm:
		result = op1 ^ op2
	case host.OpEON:
		result = op1 ^ ^op2
	}
	result &= widthMask(in.Sf)
	if in.S {
		a.setLogicFlags(result, in.Sf)
	}
	if !in.S && (in.Op == host.OpANDImm || in.Op == host.OpORRImm || in.Op == host.OpEORImm) {
		a.regFile.WriteRegOrSP(in.Rd, result)
		return
	}
	a.regFile.writeWidth(in.Rd, result, in.Sf)
}

// Logical executes AND/BIC/ORR/ORN/EOR/EON (shifted register).
func (a *ALU) Logical(in host.Inst) {
	op1 := a.regFile.readWidth(in.Rn, in.Sf)
	op2 := shiftValue(a.regFile.ReadReg(in.Rm), in.Shift, in.Amount, in.Sf)
	a.logical(in, op1, op2)
}

// LogicalImm executes AND/ORR/EOR with a bitmask immediate.
func (a *ALU) LogicalImm(in host.Inst) {
	op1 := a.regFile.readWidth(in.Rn, in.Sf)
	a.logical(in, op1, uint64(in.Imm)&widthMask(in.Sf))
}

// MoveWide executes MOVZ/MOVN/MOVK.
func (a *ALU) MoveWide(in host.Inst) {
	imm := uint64(in.Imm) << in.Amount
	var result uint64
	switch in.Op {
	case host.OpMOVZ:
		result = imm
	case host.OpMOVN:
		result = ^imm
	default:
		old := a.regFile.ReadReg(in.Rd)
		result = old&^(0xFFFF<<in.Amount) | imm
	}
	a.regFile.writeWidth(in.Rd, result, in.Sf)
}

// ShiftVar executes LSLV/LSRV/ASRV/RORV.
func (a *ALU) ShiftVar(in host.Inst) {
	sh := map[host.Op]host.Shift{
		host.OpLSLV: host.ShiftLSL, host.OpLSRV: host.ShiftLSR,
		host.OpASRV: host.ShiftASR, host.OpRORV: host.ShiftROR,
	}[in.Op]
	amt := uint8(a.regFile.ReadReg(in.Rm) % uint64(widthBits(in.Sf)))
	a.regFile.writeWidth(in.Rd, shiftValue(a.regFile.ReadReg(in.Rn), sh, amt, in.Sf), in.Sf)
}

// Bitfield executes UBFM/SBFM/BFM.
func (a *ALU) Bitfield(in host.Inst) {
	w := widthBits(in.Sf)
	r, s := uint(in.Imm), uint(in.Imm2)
	src := a.regFile.readWidth(in.Rn, in.Sf)
	dst := a.regFile.readWidth(in.Rd, in.Sf)
	mask := widthMask(in.Sf)

	// Field width, its source position and its destination position.
	var width, from, to uint
	if s >= r {
		width, from, to = s-r+1, r, 0
	} else {
		width, from, to = s+1, 0, w-r
	}
	fieldMask := uint64(1)<<width - 1
	if width == 64 {
		fieldMask = ^uint64(0)
	}
	field := src >> from & fieldMask

	var result uint64
	switch in.Op {
	case host.OpUBFM:
		result = field << to
	case host.OpSBFM:
		top := to + width
		result = field << to
		if field>>(width-1)&1 == 1 && top < 64 {
			result |= ^uint64(0) << top
		}
	default:
		result = dst&^(fieldMask<<to) | field<<to
	}
	a.regFile.writeWidth(in.Rd, result&mask, in.Sf)
}

// Extract executes EXTR.
func (a *ALU) Extract(in host.Inst) {
	hi := a.regFile.readWidth(in.Rn, in.Sf)
	lo := a.regFile.readWidth(in.Rm, in.Sf)
	lsb := uint(in.Amount)
	var result uint64
	if in.Sf {
		result = lo
		if lsb != 0 {
			result = lo>>lsb | hi<<(64-lsb)
		}
	} else {
		result = (hi<<32 | lo) >> lsb
	}
	a.regFile.writeWidth(in.Rd, result, in.Sf)
}

// MulAdd executes MADD/MSUB.
func (a *ALU) MulAdd(in host.Inst) {
	prod := a.regFile.ReadReg(in.Rn) * a.regFile.ReadReg(in.Rm)
	acc := a.regFile.ReadReg(in.Ra)
	if in.Op == host.OpMSUB {
		a.regFile.writeWidth(in.Rd, acc-prod, in.Sf)
		return
	}
	a.regFile.writeWidth(in.Rd, acc+prod, in.Sf)
}

// MulLong executes UMADDL/SMADDL.
func (a *ALU) MulLong(in host.Inst) {
	n, m := a.regFile.ReadReg32(in.Rn), a.regFile.ReadReg32(in.Rm)
	var prod uint64
	if in.Op == host.OpSMADDL {
		prod = uint64(int64(int32(n)) * int64(int32(m)))
	} else {
		prod = uint64(n) * uint64(m)
	}
	a.regFile.WriteReg(in.Rd, a.regFile.ReadReg(in.Ra)+prod)
}

// Divide executes UDIV/SDIV. Division by zero yields zero.
func (a *ALU) Divide(in host.Inst) {
	n := a.regFile.readWidth(in.Rn, in.Sf)
	m := a.regFile.readWidth(in.Rm, in.Sf)
	var result uint64
	switch {
	case m == 0:
	case in.Op == host.OpUDIV:
		result = n / m
	case in.Sf:
		result = uint64(int64(n) / int64(m))
	default:
		result = uint64(uint32(int32(uint32(n)) / int32(uint32(m))))
	}
	a.regFile.writeWidth(in.Rd, result, in.Sf)
}

// Unary executes CLZ/RBIT/REV/REV16.
func (a *ALU) Unary(in host.Inst) {
	v := a.regFile.readWidth(in.Rn, in.Sf)
	var result uint64
	switch in.Op {
	case host.OpCLZ:
		if in.Sf {
			result = uint64(bits.LeadingZeros64(v))
		} else {
			result = uint64(bits.LeadingZeros32(uint32(v)))
		}
	case host.OpRBIT:
		if in.Sf {
			result = bits.Reverse64(v)
		} else {
			result = uint64(bits.Reverse32(uint32(v)))
		}
	case host.OpREV:
		if in.Sf {
			result = bits.ReverseBytes64(v)
		} else {
			result = uint64(bits.ReverseBytes32(uint32(v)))
		}
	default:
		result = (v&0x00FF00FF00FF00FF)<<8 | (v>>8)&0x00FF00FF00FF00FF
	}
	a.regFile.writeWidth(in.Rd, result, in.Sf)
}

// CondSelect executes CSEL/CSINC/CSINV/CSNEG given the evaluated condition.
func (a *ALU) CondSelect(in host.Inst, holds bool) {
	if holds {
		a.regFile.writeWidth(in.Rd, a.regFile.ReadReg(in.Rn), in.Sf)
		return
	}
	v := a.regFile.ReadReg(in.Rm)
	switch in.Op {
	case host.OpCSINC:
		v++
	case host.OpCSINV:
		v = ^v
	case host.OpCSNEG:
		v = -v
	}
	a.regFile.writeWidth(in.Rd, v, in.Sf)
}

// ReadFlags executes MRS Xt, NZCV.
func (a *ALU) ReadFlags(in host.Inst) {
	a.regFile.WriteReg(in.Rd, a.regFile.PSTATE.NZCV())
}

// WriteFlags executes MSR NZCV, Xt.
func (a *ALU) WriteFlags(in host.Inst) {
	a.regFile.PSTATE.SetNZCV(a.regFile.ReadReg(in.Rd))
}
