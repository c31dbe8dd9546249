package insts

// A32 encoding layouts. Field names follow the architecture manual.
var (
	LayoutDPImm = &Layout{Name: "DPImm", Width: 32, Fixed: 0b001 << 25, Fields: []Field{
		fld("cond", 28, 4), fld("opcode", 21, 4), fld("S", 20, 1), fld("Rn", 16, 4),
		fld("Rd", 12, 4), fld("rotate", 8, 4), fld("imm8", 0, 8),
	}}
	LayoutDPReg = &Layout{Name: "DPReg", Width: 32, Fields: []Field{
		fld("cond", 28, 4), fld("opcode", 21, 4), fld("S", 20, 1), fld("Rn", 16, 4),
		fld("Rd", 12, 4), fld("imm5", 7, 5), fld("type", 5, 2), fld("Rm", 0, 4),
	}}
	LayoutDPRegShift = &Layout{Name: "DPRegShift", Width: 32, Fixed: 1 << 4, Fields: []Field{
		fld("cond", 28, 4), fld("opcode", 21, 4), fld("S", 20, 1), fld("Rn", 16, 4),
		fld("Rd", 12, 4), fld("Rs", 8, 4), fld("type", 5, 2), fld("Rm", 0, 4),
	}}
	LayoutMovWide = &Layout{Name: "MovWide", Width: 32, Fixed: 0x03000000, Fields: []Field{
		fld("cond", 28, 4), fld("H", 22, 1), fld("imm4", 16, 4), fld("Rd", 12, 4),
		fld("imm12", 0, 12),
	}}
	LayoutMul = &Layout{Name: "Mul", Width: 32, Fixed: 0x00000090, Fields: []Field{
		fld("cond", 28, 4), fld("op", 21, 3), fld("S", 20, 1), fld("Rd", 16, 4),
		fld("Ra", 12, 4), fld("Rm", 8, 4), fld("Rn", 0, 4),
	}}
	LayoutMulLong = &Layout{Name: "MulLong", Width: 32, Fixed: 0x00800090, Fields: []Field{
		fld("cond", 28, 4), fld("U", 22, 1), fld("A", 21, 1), fld("S", 20, 1),
		fld("RdHi", 16, 4), fld("RdLo", 12, 4), fld("Rm", 8, 4), fld("Rn", 0, 4),
	}}
	LayoutDiv = &Layout{Name: "Div", Width: 32, Fixed: 0x0710F010, Fields: []Field{
		fld("cond", 28, 4), fld("U", 21, 1), fld("Rd", 16, 4), fld("Rm", 8, 4),
		fld("Rn", 0, 4),
	}}
	LayoutRdRm = &Layout{Name: "RdRm", Width: 32, Fixed: 0x000F0F00, Fields: []Field{
		fld("cond", 28, 4), fld("op1", 20, 8), fld("Rd", 12, 4), fld("op2", 4, 4),
		fld("Rm", 0, 4),
	}}
	LayoutExtend = &Layout{Name: "Extend", Width: 32, Fixed: 0x06800070, Fields: []Field{
		fld("cond", 28, 4), fld("U", 22, 1), fld("op", 20, 2), fld("Rn", 16, 4),
		fld("Rd", 12, 4), fld("rotate", 10, 2), fld("Rm", 0, 4),
	}}
	LayoutBitfield = &Layout{Name: "Bitfield", Width: 32, Fixed: 0x07800010, Fields: []Field{
		fld("cond", 28, 4), fld("op", 21, 2), fld("msb", 16, 5), fld("Rd", 12, 4),
		fld("lsb", 7, 5), fld("op2", 5, 2), fld("Rn", 0, 4),
	}}
	LayoutLdStImm = &Layout{Name: "LdStImm", Width: 32, Fixed: 0b010 << 25, Fields: []Field{
		fld("cond", 28, 4), fld("P", 24, 1), fld("U", 23, 1), fld("B", 22, 1),
		fld("W", 21, 1), fld("L", 20, 1), fld("Rn", 16, 4), fld("Rt", 12, 4),
		fld("imm12", 0, 12),
	}}
	LayoutLdStReg = &Layout{Name: "LdStReg", Width: 32, Fixed: 0b011 << 25, Fields: []Field{
		fld("cond", 28, 4), fld("P", 24, 1), fld("U", 23, 1), fld("B", 22, 1),
		fld("W", 21, 1), fld("L", 20, 1), fld("Rn", 16, 4), fld("Rt", 12, 4),
		fld("imm5", 7, 5), fld("type", 5, 2), fld("Rm", 0, 4),
	}}
	LayoutExtraLdStImm = &Layout{Name: "ExtraLdStImm", Width: 32, Fixed: 0x00400090, Fields: []Field{
		fld("cond", 28, 4), fld("P", 24, 1), fld("U", 23, 1), fld("W", 21, 1),
		fld("L", 20, 1), fld("Rn", 16, 4), fld("Rt", 12, 4), fld("imm4H", 8, 4),
		fld("op2", 5, 2), fld("imm4L", 0, 4),
	}}
	LayoutExtraLdStReg = &Layout{Name: "ExtraLdStReg", Width: 32, Fixed: 0x00000090, Fields: []Field{
		fld("cond", 28, 4), fld("P", 24, 1), fld("U", 23, 1), fld("W", 21, 1),
		fld("L", 20, 1), fld("Rn", 16, 4), fld("Rt", 12, 4), fld("op2", 5, 2),
		fld("Rm", 0, 4),
	}}
	LayoutSync = &Layout{Name: "Sync", Width: 32, Fixed: 0x01800C90, Fields: []Field{
		fld("cond", 28, 4), fld("sz", 21, 2), fld("L", 20, 1), fld("Rn", 16, 4),
		fld("Rd", 12, 4), fld("ord", 8, 2), fld("Rt", 0, 4),
	}}
	LayoutBlockTransfer = &Layout{Name: "BlockTransfer", Width: 32, Fixed: 0b100 << 25, Fields: []Field{
		fld("cond", 28, 4), fld("P", 24, 1), fld("U", 23, 1), fld("S", 22, 1),
		fld("W", 21, 1), fld("L", 20, 1), fld("Rn", 16, 4), fld("list", 0, 16),
	}}
	LayoutBranch = &Layout{Name: "Branch", Width: 32, Fixed: 0b101 << 25, Fields: []Field{
		fld("cond", 28, 4), fld("L", 24, 1), fld("imm24", 0, 24),
	}}
	LayoutBranchReg = &Layout{Name: "BranchReg", Width: 32, Fixed: 0x012FFF10, Fields: []Field{
		fld("cond", 28, 4), fld("L", 5, 1), fld("Rm", 0, 4),
	}}
	LayoutSVC = &Layout{Name: "SVC", Width: 32, Fixed: 0x0F000000, Fields: []Field{
		fld("cond", 28, 4), fld("imm24", 0, 24),
	}}
	LayoutBKPT = &Layout{Name: "BKPT", Width: 32, Fixed: 0x01200070, Fields: []Field{
		fld("cond", 28, 4), fld("imm12", 8, 12), fld("imm4", 0, 4),
	}}
	LayoutUDF = &Layout{Name: "UDF", Width: 32, Fixed: 0x07F000F0, Fields: []Field{
		fld("cond", 28, 4), fld("imm12", 8, 12), fld("imm4", 0, 4),
	}}
	LayoutStatusReg = &Layout{Name: "StatusReg", Width: 32, Fixed: 0x01000000, Fields: []Field{
		fld("cond", 28, 4), fld("I", 25, 1), fld("R", 22, 1), fld("write", 21, 1),
		fld("mask", 16, 4), fld("Rd", 12, 4), fld("operand", 0, 12),
	}}
	LayoutCoproc = &Layout{Name: "Coproc", Width: 32, Fixed: 0x0E000000, Fields: []Field{
		fld("cond", 28, 4), fld("opc1", 21, 3), fld("L", 20, 1), fld("CRn", 16, 4),
		fld("Rt", 12, 4), fld("coproc", 8, 4), fld("opc2", 5, 3), fld("transfer", 4, 1),
		fld("CRm", 0, 4),
	}}
	LayoutBarrier = &Layout{Name: "Barrier", Width: 32, Fixed: 0xF57FF000, Fields: []Field{
		fld("op", 4, 4), fld("option", 0, 4),
	}}
	LayoutHint = &Layout{Name: "Hint", Width: 32, Fixed: 0x0320F000, Fields: []Field{
		fld("cond", 28, 4), fld("op", 0, 8),
	}}
	LayoutVFPData = &Layout{Name: "VFPData", Width: 32, Fixed: 0x0E000A00, Fields: []Field{
		fld("cond", 28, 4), fld("p", 23, 1), fld("D", 22, 1), fld("opc", 20, 2),
		fld("Vn", 16, 4), fld("Vd", 12, 4), fld("sz", 8, 1), fld("N", 7, 1),
		fld("op", 6, 1), fld("M", 5, 1), fld("Vm", 0, 4),
	}}
	LayoutVMovCoreSingle = &Layout{Name: "VMovCoreSingle", Width: 32, Fixed: 0x0E000A10, Fields: []Field{
		fld("cond", 28, 4), fld("op", 20, 1), fld("Vn", 16, 4), fld("Rt", 12, 4),
		fld("N", 7, 1),
	}}
	LayoutVMovCorePair = &Layout{Name: "VMovCorePair", Width: 32, Fixed: 0x0C400A10, Fields: []Field{
		fld("cond", 28, 4), fld("op", 20, 1), fld("Rt2", 16, 4), fld("Rt", 12, 4),
		fld("sz", 8, 1), fld("M", 5, 1), fld("Vm", 0, 4),
	}}
	LayoutVLdSt = &Layout{Name: "VLdSt", Width: 32, Fixed: 0x0D000A00, Fields: []Field{
		fld("cond", 28, 4), fld("U", 23, 1), fld("D", 22, 1), fld("L", 20, 1),
		fld("Rn", 16, 4), fld("Vd", 12, 4), fld("sz", 8, 1), fld("imm8", 0, 8),
	}}
	LayoutVLdStMulti = &Layout{Name: "VLdStMulti", Width: 32, Fixed: 0x0C000A00, Fields: []Field{
		fld("cond", 28, 4), fld("P", 24, 1), fld("U", 23, 1), fld("D", 22, 1),
		fld("W", 21, 1), fld("L", 20, 1), fld("Rn", 16, 4), fld("Vd", 12, 4),
		fld("sz", 8, 1), fld("imm8", 0, 8),
	}}
	LayoutVSysReg = &Layout{Name: "VSysReg", Width: 32, Fixed: 0x0EE00A10, Fields: []Field{
		fld("cond", 28, 4), fld("L", 20, 1), fld("reg", 16, 4), fld("Rt", 12, 4),
	}}
	LayoutNEONThreeSame = &Layout{Name: "NEONThreeSame", Width: 32, Fixed: 0xF2000000, Fields: []Field{
		fld("U", 24, 1), fld("D", 22, 1), fld("size", 20, 2), fld("Vn", 16, 4),
		fld("Vd", 12, 4), fld("opc", 8, 4), fld("N", 7, 1), fld("Q", 6, 1),
		fld("M", 5, 1), fld("op", 4, 1), fld("Vm", 0, 4),
	}}
)

// ShiftRRX is the rotate-right-with-extend shift, encoded as ROR #0.
const ShiftRRX ShiftType = 4

// DecodeImmShift returns the effective shift for an immediate shift field.
// LSR and ASR by zero mean 32; ROR by zero means RRX.
func DecodeImmShift(t ShiftType, imm5 uint8) (ShiftType, uint8) {
	switch t {
	case ShiftLSR, ShiftASR:
		if imm5 == 0 {
			return t, 32
		}
	case ShiftROR:
		if imm5 == 0 {
			return ShiftRRX, 1
		}
	}
	return t, imm5
}

// ExpandImmARM expands an A32 modified immediate. When the rotation is non
// zero the shifter carry out is bit 31 of the result; otherwise the carry is
// unchanged and carrySet is false.
func ExpandImmARM(rotate, imm8 uint8) (value uint32, carry, carrySet bool) {
	amt := uint(rotate) * 2
	v := uint32(imm8)
	if amt == 0 {
		return v, false, false
	}
	v = v>>amt | v<<(32-amt)
	return v, v>>31 == 1, true
}

func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}

// DPImm is the A32 data-processing (immediate) layout.
type DPImm uint32

func (v DPImm) Cond() Cond { return Cond(field(uint32(v), 28, 4)) }
func (v DPImm) Opcode() uint8 { return uint8(field(uint32(v), 21, 4)) }
func (v DPImm) S() bool { return flag(uint32(v), 20) }
func (v DPImm) Rn() uint8 { return uint8(field(uint32(v), 16, 4)) }
func (v DPImm) Rd() uint8 { return uint8(field(uint32(v), 12, 4)) }
func (v DPImm) Rotate() uint8 { return uint8(field(uint32(v), 8, 4)) }
func (v DPImm) Imm8() uint8 { return uint8(field(uint32(v), 0, 8)) }
func (v DPImm) Fields() Fields { return LayoutDPImm.Decode(uint32(v)) }

// Imm32 returns the expanded immediate operand.
func (v DPImm) Imm32() uint32 {
	imm, _, _ := ExpandImmARM(v.Rotate(), v.Imm8())
	return imm
}

// DPReg is the A32 data-processing (register, immediate shift) layout.
type DPReg uint32

func (v DPReg) Cond() Cond { return Cond(field(uint32(v), 28, 4)) }
func (v DPReg) Opcode() uint8 { return uint8(field(uint32(v), 21, 4)) }
func (v DPReg) S() bool { return flag(uint32(v), 20) }
func (v DPReg) Rn() uint8 { return uint8(field(uint32(v), 16, 4)) }
func (v DPReg) Rd() uint8 { return uint8(field(uint32(v), 12, 4)) }
func (v DPReg) Imm5() uint8 { return uint8(field(uint32(v), 7, 5)) }
func (v DPReg) Type() ShiftType { return ShiftType(field(uint32(v), 5, 2)) }
func (v DPReg) Rm() uint8 { return uint8(field(uint32(v), 0, 4)) }
func (v DPReg) Fields() Fields { return LayoutDPReg.Decode(uint32(v)) }
func (v DPReg) Shift() (ShiftType, uint8) { return DecodeImmShift(v.Type(), v.Imm5()) }

// DPRegShift is the A32 data-processing (register-shifted register) layout.
type DPRegShift uint32

func (v DPRegShift) Cond() Cond { return Cond(field(uint32(v), 28, 4)) }
func (v DPRegShift) Opcode() uint8 { return uint8(field(uint32(v), 21, 4)) }
func (v DPRegShift) S() bool { return flag(uint32(v), 20) }
func (v DPRegShift) Rn() uint8 { return uint8(field(uint32(v), 16, 4)) }
func (v DPRegShift) Rd() uint8 { return uint8(field(uint32(v), 12, 4)) }
func (v DPRegShift) Rs() uint8 { return uint8(field(uint32(v), 8, 4)) }
func (v DPRegShift) Type() ShiftType { return ShiftType(field(uint32(v), 5, 2)) }
func (v DPRegShift) Rm() uint8 { return uint8(field(uint32(v), 0, 4)) }
func (v DPRegShift) Fields() Fields { return LayoutDPRegShift.Decode(uint32(v)) }

// MovWide is the MOVW/MOVT layout.
type MovWide uint32

func (v MovWide) Cond() Cond { return Cond(field(uint32(v), 28, 4)) }
func (v MovWide) Top() bool { return flag(uint32(v), 22) }
func (v MovWide) Rd() uint8 { return uint8(field(uint32(v), 12, 4)) }
func (v MovWide) Imm16() uint16 { return uint16(field(uint32(v), 16, 4)<<12 | field(uint32(v), 0, 12)) }
func (v MovWide) Fields() Fields { return LayoutMovWide.Decode(uint32(v)) }

// Mul is the MUL/MLA/MLS layout.
type Mul uint32

func (v Mul) Cond() Cond { return Cond(field(uint32(v), 28, 4)) }
func (v Mul) Op() uint8 { return uint8(field(uint32(v), 21, 3)) }
func (v Mul) S() bool { return flag(uint32(v), 20) }
func (v Mul) Rd() uint8 { return uint8(field(uint32(v), 16, 4)) }
func (v Mul) Ra() uint8 { return uint8(field(uint32(v), 12, 4)) }
func (v Mul) Rm() uint8 { return uint8(field(uint32(v), 8, 4)) }
func (v Mul) Rn() uint8 { return uint8(field(uint32(v), 0, 4)) }
func (v Mul) Fields() Fields { return LayoutMul.Decode(uint32(v)) }

// Mul op values.
const (
	MulOpMUL = 0b000
	MulOpMLA = 0b001
	MulOpMLS = 0b011
)

// MulLong is the UMULL/UMLAL/SMULL/SMLAL layout.
type MulLong uint32

func (v MulLong) Cond() Cond { return Cond(field(uint32(v), 28, 4)) }
func (v MulLong) Signed() bool { return flag(uint32(v), 22) }
func (v MulLong) Accumulate() bool { return flag(uint32(v), 21) }
func (v MulLong) S() bool { return flag(uint32(v), 20) }
func (v MulLong) RdHi() uint8 { return uint8(field(uint32(v), 16, 4)) }
func (v MulLong) RdLo() uint8 { return uint8(field(uint32(v), 12, 4)) }
func (v MulLong) Rm() uint8 { return uint8(field(uint32(v), 8, 4)) }
func (v MulLong) Rn() uint8 { return uint8(field(uint32(v), 0, 4)) }
func (v MulLong) Fields() Fields { return LayoutMulLong.Decode(uint32(v)) }

// Div is the SDIV/UDIV layout.
type Div uint32

func (v Div) Cond() Cond { return Cond(field(uint32(v), 28, 4)) }
func (v Div) Unsigned() bool { return flag(uint32(v), 21) }
func (v Div) Rd() uint8 { return uint8(field(uint32(v), 16, 4)) }
func (v Div) Rm() uint8 { return uint8(field(uint32(v), 8, 4)) }
func (v Div) Rn() uint8 { return uint8(field(uint32(v), 0, 4)) }
func (v Div) Fields() Fields { return LayoutDiv.Decode(uint32(v)) }

// RdRm is the two-register misc layout of CLZ, REV, REV16, REVSH and RBIT.
type RdRm uint32

func (v RdRm) Cond() Cond { return Cond(field(uint32(v), 28, 4)) }
func (v RdRm) Op1() uint8 { return uint8(field(uint32(v), 20, 8)) }
func (v RdRm) Rd() uint8 { return uint8(field(uint32(v), 12, 4)) }
func (v RdRm) Op2() uint8 { return uint8(field(uint32(v), 4, 4)) }
func (v RdRm) Rm() uint8 { return uint8(field(uint32(v), 0, 4)) }
func (v RdRm) Fields() Fields { return LayoutRdRm.Decode(uint32(v)) }

// Misc op1/op2 pairs.
const (
	RdRmCLZ   = 0x16<<4 | 0x1
	RdRmREV   = 0x6B<<4 | 0x3
	RdRmREV16 = 0x6B<<4 | 0xB
	RdRmRBIT  = 0x6F<<4 | 0x3
	RdRmREVSH = 0x6F<<4 | 0xB
)

// Op returns op1<<4 | op2 for comparison against the RdRm constants.
func (v RdRm) Op() uint16 { return uint16(v.Op1())<<4 | uint16(v.Op2()) }

// Extend is the SXTB/SXTH/UXTB/UXTH (and accumulate) layout.
type Extend uint32

func (v Extend) Cond() Cond { return Cond(field(uint32(v), 28, 4)) }
func (v Extend) Unsigned() bool { return flag(uint32(v), 22) }
func (v Extend) Op() uint8 { return uint8(field(uint32(v), 20, 2)) }
func (v Extend) Rn() uint8 { return uint8(field(uint32(v), 16, 4)) }
func (v Extend) Rd() uint8 { return uint8(field(uint32(v), 12, 4)) }
func (v Extend) Rotation() uint8 { return uint8(field(uint32(v), 10, 2)) * 8 }
func (v Extend) Rm() uint8 { return uint8(field(uint32(v), 0, 4)) }
func (v Extend) Fields() Fields { return LayoutExtend.Decode(uint32(v)) }

// Extend op values.
const (
	ExtendByte16 = 0b00
	ExtendByte   = 0b10
	ExtendHalf   = 0b11
)

// Bitfield is the UBFX/SBFX/BFI/BFC layout.
type Bitfield uint32

func (v Bitfield) Cond() Cond { return Cond(field(uint32(v), 28, 4)) }
func (v Bitfield) Op() uint8 { return uint8(field(uint32(v), 21, 2)) }
func (v Bitfield) Msb() uint8 { return uint8(field(uint32(v), 16, 5)) }
func (v Bitfield) Rd() uint8 { return uint8(field(uint32(v), 12, 4)) }
func (v Bitfield) Lsb() uint8 { return uint8(field(uint32(v), 7, 5)) }
func (v Bitfield) Op2() uint8 { return uint8(field(uint32(v), 5, 2)) }
func (v Bitfield) Rn() uint8 { return uint8(field(uint32(v), 0, 4)) }
func (v Bitfield) Fields() Fields { return LayoutBitfield.Decode(uint32(v)) }

// WidthM1 is the extract width minus one; the msb field holds it for
// UBFX and SBFX.
func (v Bitfield) WidthM1() uint8 { return v.Msb() }

// Bitfield op values.
const (
	BitfieldSBFX = 0b01
	BitfieldBFI  = 0b10
	BitfieldUBFX = 0b11
)

// LdStImm is the A32 load/store word and unsigned byte (immediate) layout.
type LdStImm uint32

func (v LdStImm) Cond() Cond { return Cond(field(uint32(v), 28, 4)) }
func (v LdStImm) P() bool { return flag(uint32(v), 24) }
func (v LdStImm) U() bool { return flag(uint32(v), 23) }
func (v LdStImm) B() bool { return flag(uint32(v), 22) }
func (v LdStImm) W() bool { return flag(uint32(v), 21) }
func (v LdStImm) L() bool { return flag(uint32(v), 20) }
func (v LdStImm) Rn() uint8 { return uint8(field(uint32(v), 16, 4)) }
func (v LdStImm) Rt() uint8 { return uint8(field(uint32(v), 12, 4)) }
func (v LdStImm) Imm12() uint32 { return field(uint32(v), 0, 12) }
func (v LdStImm) Fields() Fields { return LayoutLdStImm.Decode(uint32(v)) }

// LdStReg is the A32 load/store word and unsigned byte (register) layout.
type LdStReg uint32

func (v LdStReg) Cond() Cond { return Cond(field(uint32(v), 28, 4)) }
func (v LdStReg) P() bool { return flag(uint32(v), 24) }
func (v LdStReg) U() bool { return flag(uint32(v), 23) }
func (v LdStReg) B() bool { return flag(uint32(v), 22) }
func (v LdStReg) W() bool { return flag(uint32(v), 21) }
func (v LdStReg) L() bool { return flag(uint32(v), 20) }
func (v LdStReg) Rn() uint8 { return uint8(field(uint32(v), 16, 4)) }
func (v LdStReg) Rt() uint8 { return uint8(field(uint32(v), 12, 4)) }
func (v LdStReg) Imm5() uint8 { return uint8(field(uint32(v), 7, 5)) }
func (v LdStReg) Type() ShiftType { return ShiftType(field(uint32(v), 5, 2)) }
func (v LdStReg) Rm() uint8 { return uint8(field(uint32(v), 0, 4)) }
func (v LdStReg) Fields() Fields { return LayoutLdStReg.Decode(uint32(v)) }
func (v LdStReg) Shift() (ShiftType, uint8) { return DecodeImmShift(v.Type(), v.Imm5()) }

// Extra load/store op2 values (with L).
const (
	ExtraOpH  = 0b01 // STRH / LDRH
	ExtraOpD  = 0b10 // LDRD (L=0) / LDRSB (L=1)
	ExtraOpDS = 0b11 // STRD (L=0) / LDRSH (L=1)
	ExtraOpSB = ExtraOpD
	ExtraOpSH = ExtraOpDS
)

// ExtraLdStImm is the halfword, signed and doubleword (immediate) layout.
type ExtraLdStImm uint32

func (v ExtraLdStImm) Cond() Cond { return Cond(field(uint32(v), 28, 4)) }
func (v ExtraLdStImm) P() bool { return flag(uint32(v), 24) }
func (v ExtraLdStImm) U() bool { return flag(uint32(v), 23) }
func (v ExtraLdStImm) W() bool { return flag(uint32(v), 21) }
func (v ExtraLdStImm) L() bool { return flag(uint32(v), 20) }
func (v ExtraLdStImm) Rn() uint8 { return uint8(field(uint32(v), 16, 4)) }
func (v ExtraLdStImm) Rt() uint8 { return uint8(field(uint32(v), 12, 4)) }
func (v ExtraLdStImm) Op2() uint8 { return uint8(field(uint32(v), 5, 2)) }
func (v ExtraLdStImm) Imm8() uint32 { return field(uint32(v), 8, 4)<<4 | field(uint32(v), 0, 4) }
func (v ExtraLdStImm) Fields() Fields { return LayoutExtraLdStImm.Decode(uint32(v)) }

// ExtraLdStReg is the halfword, signed and doubleword (register) layout.
type ExtraLdStReg uint32

func (v ExtraLdStReg) Cond() Cond { return Cond(field(uint32(v), 28, 4)) }
func (v ExtraLdStReg) P() bool { return flag(uint32(v), 24) }
func (v ExtraLdStReg) U() bool { return flag(uint32(v), 23) }
func (v ExtraLdStReg) W() bool { return flag(uint32(v), 21) }
func (v ExtraLdStReg) L() bool { return flag(uint32(v), 20) }
func (v ExtraLdStReg) Rn() uint8 { return uint8(field(uint32(v), 16, 4)) }
func (v ExtraLdStReg) Rt() uint8 { return uint8(field(uint32(v), 12, 4)) }
func (v ExtraLdStReg) Op2() uint8 { return uint8(field(uint32(v), 5, 2)) }
func (v ExtraLdStReg) Rm() uint8 { return uint8(field(uint32(v), 0, 4)) }
func (v ExtraLdStReg) Fields() Fields { return LayoutExtraLdStReg.Decode(uint32(v)) }

// Sync sizes.
const (
	SyncWord   = 0b00
	SyncDouble = 0b01
	SyncByte   = 0b10
	SyncHalf   = 0b11
)

// Sync is the exclusive and acquire/release layout: LDREX, STREX, LDA,
// STL, LDAEX, STLEX in all sizes.
type Sync uint32

func (v Sync) Cond() Cond { return Cond(field(uint32(v), 28, 4)) }
func (v Sync) Size() uint8 { return uint8(field(uint32(v), 21, 2)) }
func (v Sync) L() bool { return flag(uint32(v), 20) }
func (v Sync) Rn() uint8 { return uint8(field(uint32(v), 16, 4)) }
func (v Sync) Rd() uint8 { return uint8(field(uint32(v), 12, 4)) }
func (v Sync) Rt() uint8 { return uint8(field(uint32(v), 0, 4)) }
func (v Sync) Fields() Fields { return LayoutSync.Decode(uint32(v)) }

// Exclusive reports an exclusive access (LDREX/STREX/LDAEX/STLEX).
func (v Sync) Exclusive() bool { return flag(uint32(v), 9) }

// Ordered reports acquire/release semantics (LDA/STL/LDAEX/STLEX).
func (v Sync) Ordered() bool { return !flag(uint32(v), 8) }

// LoadRt returns the destination of a load, which lives in the Rd slot.
func (v Sync) LoadRt() uint8 { return v.Rd() }

// BlockTransfer is the LDM/STM layout.
type BlockTransfer uint32

func (v BlockTransfer) Cond() Cond { return Cond(field(uint32(v), 28, 4)) }
func (v BlockTransfer) P() bool { return flag(uint32(v), 24) }
func (v BlockTransfer) U() bool { return flag(uint32(v), 23) }
func (v BlockTransfer) S() bool { return flag(uint32(v), 22) }
func (v BlockTransfer) W() bool { return flag(uint32(v), 21) }
func (v BlockTransfer) L() bool { return flag(uint32(v), 20) }
func (v BlockTransfer) Rn() uint8 { return uint8(field(uint32(v), 16, 4)) }
func (v BlockTransfer) RegList() uint16 { return uint16(field(uint32(v), 0, 16)) }
func (v BlockTransfer) Fields() Fields { return LayoutBlockTransfer.Decode(uint32(v)) }

// Branch is the B/BL/BLX (immediate) layout.
type Branch uint32

func (v Branch) Cond() Cond { return Cond(field(uint32(v), 28, 4)) }
func (v Branch) L() bool { return flag(uint32(v), 24) }
func (v Branch) Imm24() uint32 { return field(uint32(v), 0, 24) }
func (v Branch) Fields() Fields { return LayoutBranch.Decode(uint32(v)) }

// Offset returns the byte offset from PC+8. For BLX (immediate) the L bit
// is the H halfword bit.
func (v Branch) Offset() int32 {
	off := signExtend(v.Imm24()<<2, 26)
	if v.Cond() == CondNV && v.L() {
		off += 2
	}
	return off
}

// BranchReg is the BX/BLX (register) layout.
type BranchReg uint32

func (v BranchReg) Cond() Cond { return Cond(field(uint32(v), 28, 4)) }
func (v BranchReg) Link() bool { return flag(uint32(v), 5) }
func (v BranchReg) Rm() uint8 { return uint8(field(uint32(v), 0, 4)) }
func (v BranchReg) Fields() Fields { return LayoutBranchReg.Decode(uint32(v)) }

// SVC is the supervisor call layout.
type SVC uint32

func (v SVC) Cond() Cond { return Cond(field(uint32(v), 28, 4)) }
func (v SVC) Imm24() uint32 { return field(uint32(v), 0, 24) }
func (v SVC) Fields() Fields { return LayoutSVC.Decode(uint32(v)) }

// Imm16 is the split-immediate layout shared by BKPT and UDF.
type Imm16 uint32

func (v Imm16) Cond() Cond { return Cond(field(uint32(v), 28, 4)) }
func (v Imm16) Imm16() uint16 { return uint16(field(uint32(v), 8, 12)<<4 | field(uint32(v), 0, 4)) }

// Fields decodes against the BKPT or UDF layout, whichever matches.
func (v Imm16) Fields() Fields {
	if LayoutUDF.Matches(uint32(v)) {
		return LayoutUDF.Decode(uint32(v))
	}
	return LayoutBKPT.Decode(uint32(v))
}

// StatusReg is the MRS/MSR layout.
type StatusReg uint32

func (v StatusReg) Cond() Cond { return Cond(field(uint32(v), 28, 4)) }
func (v StatusReg) Immediate() bool { return flag(uint32(v), 25) }
func (v StatusReg) SPSR() bool { return flag(uint32(v), 22) }
func (v StatusReg) Write() bool { return flag(uint32(v), 21) }
func (v StatusReg) Mask() uint8 { return uint8(field(uint32(v), 16, 4)) }
func (v StatusReg) Rd() uint8 { return uint8(field(uint32(v), 12, 4)) }
func (v StatusReg) Rn() uint8 { return uint8(field(uint32(v), 0, 4)) }
func (v StatusReg) Operand() uint32 { return field(uint32(v), 0, 12) }
func (v StatusReg) Fields() Fields { return LayoutStatusReg.Decode(uint32(v)) }

// Coproc is the MCR/MRC/CDP layout.
type Coproc uint32

func (v Coproc) Cond() Cond { return Cond(field(uint32(v), 28, 4)) }
func (v Coproc) Opc1() uint8 { return uint8(field(uint32(v), 21, 3)) }
func (v Coproc) L() bool { return flag(uint32(v), 20) }
func (v Coproc) CRn() uint8 { return uint8(field(uint32(v), 16, 4)) }
func (v Coproc) Rt() uint8 { return uint8(field(uint32(v), 12, 4)) }
func (v Coproc) CoprocNum() uint8 { return uint8(field(uint32(v), 8, 4)) }
func (v Coproc) Opc2() uint8 { return uint8(field(uint32(v), 5, 3)) }
func (v Coproc) Transfer() bool { return flag(uint32(v), 4) }
func (v Coproc) CRm() uint8 { return uint8(field(uint32(v), 0, 4)) }
func (v Coproc) Fields() Fields { return LayoutCoproc.Decode(uint32(v)) }

// Barrier ops.
const (
	BarrierCLREX = 0b0001
	BarrierDSB   = 0b0100
	BarrierDMB   = 0b0101
	BarrierISB   = 0b0110
)

// Barrier is the CLREX/DSB/DMB/ISB layout. Thumb-2 uses the same low byte.
type Barrier uint32

func (v Barrier) Op() uint8 { return uint8(field(uint32(v), 4, 4)) }
func (v Barrier) Option() uint8 { return uint8(field(uint32(v), 0, 4)) }
func (v Barrier) Fields() Fields { return LayoutBarrier.Decode(uint32(v)) }

// Hint ops.
const (
	HintNOP   = 0
	HintYIELD = 1
	HintWFE   = 2
	HintWFI   = 3
	HintSEV   = 4
)

// Hint is the NOP/YIELD/WFE/WFI/SEV layout.
type Hint uint32

func (v Hint) Cond() Cond { return Cond(field(uint32(v), 28, 4)) }
func (v Hint) Op() uint8 { return uint8(field(uint32(v), 0, 8)) }
func (v Hint) Fields() Fields { return LayoutHint.Decode(uint32(v)) }

// VFPData is the VFP data-processing layout.
type VFPData uint32

func (v VFPData) Cond() Cond { return Cond(field(uint32(v), 28, 4)) }
func (v VFPData) Opc1() uint8 { return uint8(field(uint32(v), 23, 1)<<2 | field(uint32(v), 20, 2)) }
func (v VFPData) Opc2() uint8 { return uint8(field(uint32(v), 16, 4)) }
func (v VFPData) Double() bool { return flag(uint32(v), 8) }
func (v VFPData) Op() bool { return flag(uint32(v), 6) }
func (v VFPData) Bit7() bool { return flag(uint32(v), 7) }
func (v VFPData) Fields() Fields { return LayoutVFPData.Decode(uint32(v)) }

// Opc1 values.
const (
	VFPOpcMLA  = 0b000 // VMLA / VMLS
	VFPOpcNMLA = 0b001 // VNMLS / VNMLA
	VFPOpcMUL  = 0b010 // VMUL / VNMUL
	VFPOpcADD  = 0b011 // VADD / VSUB
	VFPOpcDIV  = 0b100
	VFPOpcFMA  = 0b110 // VFMA / VFMS
	VFPOpcMisc = 0b111
)

// vfpReg assembles a VFP register number: D registers put the extra bit on
// top, S registers put it at the bottom.
func vfpReg(four uint32, extra uint32, double bool) uint8 {
	if double {
		return uint8(extra<<4 | four)
	}
	return uint8(four<<1 | extra)
}

// Vd returns the destination register number in the instruction's bank.
func (v VFPData) Vd() uint8 {
	return vfpReg(field(uint32(v), 12, 4), field(uint32(v), 22, 1), v.Double())
}

// Vn returns the first operand register number.
func (v VFPData) Vn() uint8 {
	return vfpReg(field(uint32(v), 16, 4), field(uint32(v), 7, 1), v.Double())
}

// Vm returns the second operand register number.
func (v VFPData) Vm() uint8 {
	return vfpReg(field(uint32(v), 0, 4), field(uint32(v), 5, 1), v.Double())
}

// VmSingle returns Vm in the single bank regardless of the size bit, as
// the conversions from single precision need.
func (v VFPData) VmSingle() uint8 {
	return vfpReg(field(uint32(v), 0, 4), field(uint32(v), 5, 1), false)
}

// VmDouble returns Vm in the double bank regardless of the size bit.
func (v VFPData) VmDouble() uint8 {
	return vfpReg(field(uint32(v), 0, 4), field(uint32(v), 5, 1), true)
}

// VdSingle returns Vd in the single bank regardless of the size bit.
func (v VFPData) VdSingle() uint8 {
	return vfpReg(field(uint32(v), 12, 4), field(uint32(v), 22, 1), false)
}

// VdDouble returns Vd in the double bank regardless of the size bit.
func (v VFPData) VdDouble() uint8 {
	return vfpReg(field(uint32(v), 12, 4), field(uint32(v), 22, 1), true)
}

// VMovCoreSingle is the VMOV between a core register and an S register.
type VMovCoreSingle uint32

func (v VMovCoreSingle) Cond() Cond { return Cond(field(uint32(v), 28, 4)) }
func (v VMovCoreSingle) ToCore() bool { return flag(uint32(v), 20) }
func (v VMovCoreSingle) Rt() uint8 { return uint8(field(uint32(v), 12, 4)) }
func (v VMovCoreSingle) Sn() uint8 { return vfpReg(field(uint32(v), 16, 4), field(uint32(v), 7, 1), false) }
func (v VMovCoreSingle) Fields() Fields { return LayoutVMovCoreSingle.Decode(uint32(v)) }

// VMovCorePair is the VMOV between two core registers and a D register or
// a pair of S registers.
type VMovCorePair uint32

func (v VMovCorePair) Cond() Cond { return Cond(field(uint32(v), 28, 4)) }
func (v VMovCorePair) ToCore() bool { return flag(uint32(v), 20) }
func (v VMovCorePair) Rt2() uint8 { return uint8(field(uint32(v), 16, 4)) }
func (v VMovCorePair) Rt() uint8 { return uint8(field(uint32(v), 12, 4)) }
func (v VMovCorePair) Double() bool { return flag(uint32(v), 8) }
func (v VMovCorePair) Fields() Fields { return LayoutVMovCorePair.Decode(uint32(v)) }

// Vm returns the D register, or the first of the two S registers.
func (v VMovCorePair) Vm() uint8 {
	return vfpReg(field(uint32(v), 0, 4), field(uint32(v), 5, 1), v.Double())
}

// VLdSt is the VLDR/VSTR layout.
type VLdSt uint32

func (v VLdSt) Cond() Cond { return Cond(field(uint32(v), 28, 4)) }
func (v VLdSt) U() bool { return flag(uint32(v), 23) }
func (v VLdSt) L() bool { return flag(uint32(v), 20) }
func (v VLdSt) Rn() uint8 { return uint8(field(uint32(v), 16, 4)) }
func (v VLdSt) Double() bool { return flag(uint32(v), 8) }
func (v VLdSt) Imm32() uint32 { return field(uint32(v), 0, 8) << 2 }
func (v VLdSt) Fields() Fields { return LayoutVLdSt.Decode(uint32(v)) }

// Vd returns the transferred register number in the instruction's bank.
func (v VLdSt) Vd() uint8 {
	return vfpReg(field(uint32(v), 12, 4), field(uint32(v), 22, 1), v.Double())
}

// VLdStMulti is the VLDM/VSTM/VPUSH/VPOP layout.
type VLdStMulti uint32

func (v VLdStMulti) Cond() Cond { return Cond(field(uint32(v), 28, 4)) }
func (v VLdStMulti) P() bool { return flag(uint32(v), 24) }
func (v VLdStMulti) U() bool { return flag(uint32(v), 23) }
func (v VLdStMulti) W() bool { return flag(uint32(v), 21) }
func (v VLdStMulti) L() bool { return flag(uint32(v), 20) }
func (v VLdStMulti) Rn() uint8 { return uint8(field(uint32(v), 16, 4)) }
func (v VLdStMulti) Double() bool { return flag(uint32(v), 8) }
func (v VLdStMulti) Imm8() uint8 { return uint8(field(uint32(v), 0, 8)) }
func (v VLdStMulti) Fields() Fields { return LayoutVLdStMulti.Decode(uint32(v)) }

// Vd returns the first transferred register number.
func (v VLdStMulti) Vd() uint8 {
	return vfpReg(field(uint32(v), 12, 4), field(uint32(v), 22, 1), v.Double())
}

// Count returns the number of registers transferred.
func (v VLdStMulti) Count() uint8 {
	if v.Double() {
		return v.Imm8() / 2
	}
	return v.Imm8()
}

// VFP system registers.
const (
	VSysFPSID = 0b0000
	VSysFPSCR = 0b0001
	VSysMVFR1 = 0b0110
	VSysMVFR0 = 0b0111
	VSysFPEXC = 0b1000
)

// VSysReg is the VMRS/VMSR layout.
type VSysReg uint32

func (v VSysReg) Cond() Cond { return Cond(field(uint32(v), 28, 4)) }
func (v VSysReg) ToCore() bool { return flag(uint32(v), 20) }
func (v VSysReg) Reg() uint8 { return uint8(field(uint32(v), 16, 4)) }
func (v VSysReg) Rt() uint8 { return uint8(field(uint32(v), 12, 4)) }
func (v VSysReg) Fields() Fields { return LayoutVSysReg.Decode(uint32(v)) }

// NEONThreeSame is the Advanced SIMD three-registers-same-length layout.
type NEONThreeSame uint32

func (v NEONThreeSame) U() bool { return flag(uint32(v), 24) }
func (v NEONThreeSame) Size() uint8 { return uint8(field(uint32(v), 20, 2)) }
func (v NEONThreeSame) Opc() uint8 { return uint8(field(uint32(v), 8, 4)) }
func (v NEONThreeSame) Q() bool { return flag(uint32(v), 6) }
func (v NEONThreeSame) Op() bool { return flag(uint32(v), 4) }
func (v NEONThreeSame) Fields() Fields { return LayoutNEONThreeSame.Decode(uint32(v)) }

// Vd returns the destination D register number (even when Q is set).
func (v NEONThreeSame) Vd() uint8 { return vfpReg(field(uint32(v), 12, 4), field(uint32(v), 22, 1), true) }

// Vn returns the first operand D register number.
func (v NEONThreeSame) Vn() uint8 { return vfpReg(field(uint32(v), 16, 4), field(uint32(v), 7, 1), true) }

// Vm returns the second operand D register number.
func (v NEONThreeSame) Vm() uint8 { return vfpReg(field(uint32(v), 0, 4), field(uint32(v), 5, 1), true) }
