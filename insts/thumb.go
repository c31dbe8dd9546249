package insts

// Thumb 16-bit encoding layouts.
var (
	LayoutT16ShiftImm = &Layout{Name: "T16ShiftImm", Width: 16, Fields: []Field{
		fld("op", 11, 2), fld("imm5", 6, 5), fld("Rm", 3, 3), fld("Rd", 0, 3),
	}}
	LayoutT16AddSub3 = &Layout{Name: "T16AddSub3", Width: 16, Fixed: 0x1800, Fields: []Field{
		fld("I", 10, 1), fld("op", 9, 1), fld("Rm", 6, 3), fld("Rn", 3, 3), fld("Rd", 0, 3),
	}}
	LayoutT16Imm8 = &Layout{Name: "T16Imm8", Width: 16, Fixed: 0x2000, Fields: []Field{
		fld("op", 11, 2), fld("Rd", 8, 3), fld("imm8", 0, 8),
	}}
	LayoutT16ALU = &Layout{Name: "T16ALU", Width: 16, Fixed: 0x4000, Fields: []Field{
		fld("op", 6, 4), fld("Rm", 3, 3), fld("Rdn", 0, 3),
	}}
	LayoutT16HiReg = &Layout{Name: "T16HiReg", Width: 16, Fixed: 0x4400, Fields: []Field{
		fld("op", 8, 2), fld("DN", 7, 1), fld("Rm", 3, 4), fld("Rdn", 0, 3),
	}}
	LayoutT16LoadLiteral = &Layout{Name: "T16LoadLiteral", Width: 16, Fixed: 0x4800, Fields: []Field{
		fld("Rt", 8, 3), fld("imm8", 0, 8),
	}}
	LayoutT16LdStReg = &Layout{Name: "T16LdStReg", Width: 16, Fixed: 0x5000, Fields: []Field{
		fld("op", 9, 3), fld("Rm", 6, 3), fld("Rn", 3, 3), fld("Rt", 0, 3),
	}}
	LayoutT16LdStImm = &Layout{Name: "T16LdStImm", Width: 16, Fields: []Field{
		fld("opA", 12, 4), fld("L", 11, 1), fld("imm5", 6, 5), fld("Rn", 3, 3), fld("Rt", 0, 3),
	}}
	LayoutT16LdStSP = &Layout{Name: "T16LdStSP", Width: 16, Fixed: 0x9000, Fields: []Field{
		fld("L", 11, 1), fld("Rt", 8, 3), fld("imm8", 0, 8),
	}}
	LayoutT16ADR = &Layout{Name: "T16ADR", Width: 16, Fixed: 0xA000, Fields: []Field{
		fld("SP", 11, 1), fld("Rd", 8, 3), fld("imm8", 0, 8),
	}}
	LayoutT16AdjustSP = &Layout{Name: "T16AdjustSP", Width: 16, Fixed: 0xB000, Fields: []Field{
		fld("S", 7, 1), fld("imm7", 0, 7),
	}}
	LayoutT16CBZ = &Layout{Name: "T16CBZ", Width: 16, Fixed: 0xB100, Fields: []Field{
		fld("op", 11, 1), fld("i", 9, 1), fld("imm5", 3, 5), fld("Rn", 0, 3),
	}}
	LayoutT16ExtRev = &Layout{Name: "T16ExtRev", Width: 16, Fixed: 0xB200, Fields: []Field{
		fld("rev", 11, 1), fld("op", 6, 2), fld("Rm", 3, 3), fld("Rd", 0, 3),
	}}
	LayoutT16PushPop = &Layout{Name: "T16PushPop", Width: 16, Fixed: 0xB400, Fields: []Field{
		fld("L", 11, 1), fld("R", 8, 1), fld("list", 0, 8),
	}}
	LayoutT16IT = &Layout{Name: "T16IT", Width: 16, Fixed: 0xBF00, Fields: []Field{
		fld("firstcond", 4, 4), fld("mask", 0, 4),
	}}
	LayoutT16Misc = &Layout{Name: "T16Misc", Width: 16, Fixed: 0xB000, Fields: []Field{
		fld("op", 8, 4), fld("imm8", 0, 8),
	}}
	LayoutT16LdStMulti = &Layout{Name: "T16LdStMulti", Width: 16, Fixed: 0xC000, Fields: []Field{
		fld("L", 11, 1), fld("Rn", 8, 3), fld("list", 0, 8),
	}}
	LayoutT16CondBranch = &Layout{Name: "T16CondBranch", Width: 16, Fixed: 0xD000, Fields: []Field{
		fld("cond", 8, 4), fld("imm8", 0, 8),
	}}
	LayoutT16Branch = &Layout{Name: "T16Branch", Width: 16, Fixed: 0xE000, Fields: []Field{
		fld("imm11", 0, 11),
	}}
)

// Thumb-2 encoding layouts over hw1<<16 | hw2.
var (
	LayoutT32Branch = &Layout{Name: "T32Branch", Width: 32, Fixed: 0xF0008000, Fields: []Field{
		fld("S", 26, 1), fld("imm10", 16, 10), fld("op1", 14, 1), fld("J1", 13, 1),
		fld("op2", 12, 1), fld("J2", 11, 1), fld("imm11", 0, 11),
	}}
	LayoutT32ModImm = &Layout{Name: "T32ModImm", Width: 32, Fixed: 0xF0000000, Fields: []Field{
		fld("i", 26, 1), fld("op", 21, 4), fld("S", 20, 1), fld("Rn", 16, 4),
		fld("imm3", 12, 3), fld("Rd", 8, 4), fld("imm8", 0, 8),
	}}
	LayoutT32PlainImm = &Layout{Name: "T32PlainImm", Width: 32, Fixed: 0xF2000000, Fields: []Field{
		fld("i", 26, 1), fld("op", 20, 5), fld("Rn", 16, 4), fld("imm3", 12, 3),
		fld("Rd", 8, 4), fld("imm8", 0, 8),
	}}
	LayoutT32ShiftedReg = &Layout{Name: "T32ShiftedReg", Width: 32, Fixed: 0xEA000000, Fields: []Field{
		fld("op", 21, 4), fld("S", 20, 1), fld("Rn", 16, 4), fld("imm3", 12, 3),
		fld("Rd", 8, 4), fld("imm2", 6, 2), fld("type", 4, 2), fld("Rm", 0, 4),
	}}
	LayoutT32RegOp = &Layout{Name: "T32RegOp", Width: 32, Fixed: 0xFA00F000, Fields: []Field{
		fld("op1", 20, 4), fld("Rn", 16, 4), fld("Rd", 8, 4), fld("op2", 4, 4), fld("Rm", 0, 4),
	}}
	LayoutT32LdStImm12 = &Layout{Name: "T32LdStImm12", Width: 32, Fixed: 0xF8800000, Fields: []Field{
		fld("S", 24, 1), fld("size", 21, 2), fld("L", 20, 1), fld("Rn", 16, 4),
		fld("Rt", 12, 4), fld("imm12", 0, 12),
	}}
	LayoutT32LdStImm8 = &Layout{Name: "T32LdStImm8", Width: 32, Fixed: 0xF8000800, Fields: []Field{
		fld("S", 24, 1), fld("size", 21, 2), fld("L", 20, 1), fld("Rn", 16, 4),
		fld("Rt", 12, 4), fld("P", 10, 1), fld("U", 9, 1), fld("W", 8, 1), fld("imm8", 0, 8),
	}}
	LayoutT32LdStReg = &Layout{Name: "T32LdStReg", Width: 32, Fixed: 0xF8000000, Fields: []Field{
		fld("S", 24, 1), fld("size", 21, 2), fld("L", 20, 1), fld("Rn", 16, 4),
		fld("Rt", 12, 4), fld("imm2", 4, 2), fld("Rm", 0, 4),
	}}
	LayoutT32LoadLiteral = &Layout{Name: "T32LoadLiteral", Width: 32, Fixed: 0xF81F0000, Fields: []Field{
		fld("S", 24, 1), fld("U", 23, 1), fld("size", 21, 2), fld("Rt", 12, 4), fld("imm12", 0, 12),
	}}
	LayoutT32LdStMulti = &Layout{Name: "T32LdStMulti", Width: 32, Fixed: 0xE8000000, Fields: []Field{
		fld("op", 23, 2), fld("W", 21, 1), fld("L", 20, 1), fld("Rn", 16, 4), fld("list", 0, 16),
	}}
	LayoutT32LdStDual = &Layout{Name: "T32LdStDual", Width: 32, Fixed: 0xE8400000, Fields: []Field{
		fld("P", 24, 1), fld("U", 23, 1), fld("W", 21, 1), fld("L", 20, 1), fld("Rn", 16, 4),
		fld("Rt", 12, 4), fld("Rt2", 8, 4), fld("imm8", 0, 8),
	}}
	LayoutT32Exclusive = &Layout{Name: "T32Exclusive", Width: 32, Fixed: 0xE8400000, Fields: []Field{
		fld("L", 20, 1), fld("Rn", 16, 4), fld("Rt", 12, 4), fld("Rd", 8, 4), fld("imm8", 0, 8),
	}}
	LayoutT32ExclusiveSized = &Layout{Name: "T32ExclusiveSized", Width: 32, Fixed: 0xE8C00000, Fields: []Field{
		fld("L", 20, 1), fld("Rn", 16, 4), fld("Rt", 12, 4), fld("Rt2", 8, 4),
		fld("op", 4, 4), fld("Rd", 0, 4),
	}}
	LayoutT32Mul = &Layout{Name: "T32Mul", Width: 32, Fixed: 0xFB000000, Fields: []Field{
		fld("op1", 20, 3), fld("Rn", 16, 4), fld("Ra", 12, 4), fld("Rd", 8, 4),
		fld("op2", 4, 4), fld("Rm", 0, 4),
	}}
	LayoutT32MulLong = &Layout{Name: "T32MulLong", Width: 32, Fixed: 0xFB800000, Fields: []Field{
		fld("op1", 20, 3), fld("Rn", 16, 4), fld("RdLo", 12, 4), fld("RdHi", 8, 4),
		fld("op2", 4, 4), fld("Rm", 0, 4),
	}}
)

// ExpandImmThumb expands a Thumb-2 modified immediate i:imm3:imm8. Carry
// semantics match ExpandImmARM.
func ExpandImmThumb(imm12 uint16) (value uint32, carry, carrySet bool) {
	imm8 := uint32(imm12 & 0xFF)
	if imm12>>10 == 0 {
		switch imm12 >> 8 & 3 {
		case 0:
			return imm8, false, false
		case 1:
			return imm8<<16 | imm8, false, false
		case 2:
			return imm8<<24 | imm8<<8, false, false
		default:
			return imm8 * 0x01010101, false, false
		}
	}
	unrot := 0x80 | uint32(imm12&0x7F)
	amt := uint(imm12 >> 7)
	v := unrot>>amt | unrot<<(32-amt)
	return v, v>>31 == 1, true
}

// ITState is the 8-bit IT execution state: the base condition in the high
// nibble and the remaining then/else mask below it.
type ITState uint8

// NewITState returns the state established by IT firstcond, mask.
func NewITState(firstCond Cond, mask uint8) ITState {
	return ITState(uint8(firstCond)<<4 | mask&0xF)
}

// Active reports whether an IT block is in progress.
func (s ITState) Active() bool { return s&0xF != 0 }

// Cond returns the condition for the current instruction.
func (s ITState) Cond() Cond { return Cond(s >> 4) }

// Last reports whether the current instruction is the last of the block.
func (s ITState) Last() bool { return s&0xF == 0b1000 }

// Advance steps to the next instruction of the block.
func (s ITState) Advance() ITState {
	if s&0x7 == 0 {
		return 0
	}
	return s&0xE0 | (s<<1)&0x1F
}

// Len returns the number of instructions the IT block still covers.
func (s ITState) Len() int {
	m := uint8(s & 0xF)
	if m == 0 {
		return 0
	}
	n := 4
	for m&1 == 0 {
		m >>= 1
		n--
	}
	return n
}

// T16ShiftImm is LSL/LSR/ASR (immediate).
type T16ShiftImm uint16

func (v T16ShiftImm) Op() ShiftType { return ShiftType(field(uint32(v), 11, 2)) }
func (v T16ShiftImm) Imm5() uint8 { return uint8(field(uint32(v), 6, 5)) }
func (v T16ShiftImm) Rm() uint8 { return uint8(field(uint32(v), 3, 3)) }
func (v T16ShiftImm) Rd() uint8 { return uint8(field(uint32(v), 0, 3)) }
func (v T16ShiftImm) Fields() Fields { return LayoutT16ShiftImm.Decode(uint32(v)) }

// T16AddSub3 is ADD/SUB with a register or a 3-bit immediate.
type T16AddSub3 uint16

func (v T16AddSub3) Immediate() bool { return flag(uint32(v), 10) }
func (v T16AddSub3) Sub() bool { return flag(uint32(v), 9) }
func (v T16AddSub3) RmImm3() uint8 { return uint8(field(uint32(v), 6, 3)) }
func (v T16AddSub3) Rn() uint8 { return uint8(field(uint32(v), 3, 3)) }
func (v T16AddSub3) Rd() uint8 { return uint8(field(uint32(v), 0, 3)) }
func (v T16AddSub3) Fields() Fields { return LayoutT16AddSub3.Decode(uint32(v)) }

// T16Imm8 ops.
const (
	T16Imm8MOV = 0b00
	T16Imm8CMP = 0b01
	T16Imm8ADD = 0b10
	T16Imm8SUB = 0b11
)

// T16Imm8 is MOV/CMP/ADD/SUB with an 8-bit immediate.
type T16Imm8 uint16

func (v T16Imm8) Op() uint8 { return uint8(field(uint32(v), 11, 2)) }
func (v T16Imm8) Rd() uint8 { return uint8(field(uint32(v), 8, 3)) }
func (v T16Imm8) Imm8() uint8 { return uint8(field(uint32(v), 0, 8)) }
func (v T16Imm8) Fields() Fields { return LayoutT16Imm8.Decode(uint32(v)) }

// T16ALU ops.
const (
	T16ALUAND = 0x0
	T16ALUEOR = 0x1
	T16ALULSL = 0x2
	T16ALULSR = 0x3
	T16ALUASR = 0x4
	T16ALUADC = 0x5
	T16ALUSBC = 0x6
	T16ALUROR = 0x7
	T16ALUTST = 0x8
	T16ALURSB = 0x9
	T16ALUCMP = 0xA
	T16ALUCMN = 0xB
	T16ALUORR = 0xC
	T16ALUMUL = 0xD
	T16ALUBIC = 0xE
	T16ALUMVN = 0xF
)

// T16ALU is the two-register data-processing group.
type T16ALU uint16

func (v T16ALU) Op() uint8 { return uint8(field(uint32(v), 6, 4)) }
func (v T16ALU) Rm() uint8 { return uint8(field(uint32(v), 3, 3)) }
func (v T16ALU) Rdn() uint8 { return uint8(field(uint32(v), 0, 3)) }
func (v T16ALU) Fields() Fields { return LayoutT16ALU.Decode(uint32(v)) }

// T16HiReg ops.
const (
	T16HiADD = 0b00
	T16HiCMP = 0b01
	T16HiMOV = 0b10
	T16HiBX  = 0b11
)

// T16HiReg is ADD/CMP/MOV on any registers, and BX/BLX.
type T16HiReg uint16

func (v T16HiReg) Op() uint8 { return uint8(field(uint32(v), 8, 2)) }
func (v T16HiReg) Rm() uint8 { return uint8(field(uint32(v), 3, 4)) }
func (v T16HiReg) Link() bool { return flag(uint32(v), 7) }
func (v T16HiReg) Fields() Fields { return LayoutT16HiReg.Decode(uint32(v)) }

// Rdn returns the four-bit destination DN:Rdn.
func (v T16HiReg) Rdn() uint8 { return uint8(field(uint32(v), 7, 1)<<3 | field(uint32(v), 0, 3)) }

// T16LoadLiteral is LDR Rt, [PC, #imm8*4].
type T16LoadLiteral uint16

func (v T16LoadLiteral) Rt() uint8 { return uint8(field(uint32(v), 8, 3)) }
func (v T16LoadLiteral) Imm32() uint32 { return field(uint32(v), 0, 8) << 2 }
func (v T16LoadLiteral) Fields() Fields { return LayoutT16LoadLiteral.Decode(uint32(v)) }

// T16LdStReg ops.
const (
	T16LdStSTR   = 0b000
	T16LdStSTRH  = 0b001
	T16LdStSTRB  = 0b010
	T16LdStLDRSB = 0b011
	T16LdStLDR   = 0b100
	T16LdStLDRH  = 0b101
	T16LdStLDRB  = 0b110
	T16LdStLDRSH = 0b111
)

// T16LdStReg is load/store with a register offset.
type T16LdStReg uint16

func (v T16LdStReg) Op() uint8 { return uint8(field(uint32(v), 9, 3)) }
func (v T16LdStReg) Rm() uint8 { return uint8(field(uint32(v), 6, 3)) }
func (v T16LdStReg) Rn() uint8 { return uint8(field(uint32(v), 3, 3)) }
func (v T16LdStReg) Rt() uint8 { return uint8(field(uint32(v), 0, 3)) }
func (v T16LdStReg) Fields() Fields { return LayoutT16LdStReg.Decode(uint32(v)) }

// T16LdStImm is load/store word, byte or halfword with a 5-bit offset.
type T16LdStImm uint16

func (v T16LdStImm) L() bool { return flag(uint32(v), 11) }
func (v T16LdStImm) Imm5() uint8 { return uint8(field(uint32(v), 6, 5)) }
func (v T16LdStImm) Rn() uint8 { return uint8(field(uint32(v), 3, 3)) }
func (v T16LdStImm) Rt() uint8 { return uint8(field(uint32(v), 0, 3)) }
func (v T16LdStImm) Fields() Fields { return LayoutT16LdStImm.Decode(uint32(v)) }

// Size returns the access size in bytes: 4 for 0110, 1 for 0111, 2 for 1000.
func (v T16LdStImm) Size() uint8 {
	switch field(uint32(v), 12, 4) {
	case 0b0110:
		return 4
	case 0b0111:
		return 1
	default:
		return 2
	}
}

// Offset returns the scaled byte offset.
func (v T16LdStImm) Offset() uint32 { return uint32(v.Imm5()) * uint32(v.Size()) }

// T16LdStSP is LDR/STR Rt, [SP, #imm8*4].
type T16LdStSP uint16

func (v T16LdStSP) L() bool { return flag(uint32(v), 11) }
func (v T16LdStSP) Rt() uint8 { return uint8(field(uint32(v), 8, 3)) }
func (v T16LdStSP) Imm32() uint32 { return field(uint32(v), 0, 8) << 2 }
func (v T16LdStSP) Fields() Fields { return LayoutT16LdStSP.Decode(uint32(v)) }

// T16ADR is ADR and ADD Rd, SP, #imm8*4.
type T16ADR uint16

func (v T16ADR) SP() bool { return flag(uint32(v), 11) }
func (v T16ADR) Rd() uint8 { return uint8(field(uint32(v), 8, 3)) }
func (v T16ADR) Imm32() uint32 { return field(uint32(v), 0, 8) << 2 }
func (v T16ADR) Fields() Fields { return LayoutT16ADR.Decode(uint32(v)) }

// T16AdjustSP is ADD/SUB SP, SP, #imm7*4.
type T16AdjustSP uint16

func (v T16AdjustSP) Sub() bool { return flag(uint32(v), 7) }
func (v T16AdjustSP) Imm32() uint32 { return field(uint32(v), 0, 7) << 2 }
func (v T16AdjustSP) Fields() Fields { return LayoutT16AdjustSP.Decode(uint32(v)) }

// T16CBZ is CBZ/CBNZ.
type T16CBZ uint16

func (v T16CBZ) NonZero() bool { return flag(uint32(v), 11) }
func (v T16CBZ) Rn() uint8 { return uint8(field(uint32(v), 0, 3)) }
func (v T16CBZ) Fields() Fields { return LayoutT16CBZ.Decode(uint32(v)) }

// Offset returns the forward byte offset from PC+4.
func (v T16CBZ) Offset() uint32 {
	return field(uint32(v), 9, 1)<<6 | field(uint32(v), 3, 5)<<1
}

// T16ExtRev is SXTH/SXTB/UXTH/UXTB and REV/REV16/REVSH.
type T16ExtRev uint16

func (v T16ExtRev) Rev() bool { return flag(uint32(v), 11) }
func (v T16ExtRev) Op() uint8 { return uint8(field(uint32(v), 6, 2)) }
func (v T16ExtRev) Rm() uint8 { return uint8(field(uint32(v), 3, 3)) }
func (v T16ExtRev) Rd() uint8 { return uint8(field(uint32(v), 0, 3)) }
func (v T16ExtRev) Fields() Fields { return LayoutT16ExtRev.Decode(uint32(v)) }

// T16PushPop is PUSH {list, LR} and POP {list, PC}.
type T16PushPop uint16

func (v T16PushPop) Pop() bool { return flag(uint32(v), 11) }
func (v T16PushPop) Fields() Fields { return LayoutT16PushPop.Decode(uint32(v)) }

// RegList returns the full 16-bit register list, adding LR for PUSH or PC
// for POP when the R bit is set.
func (v T16PushPop) RegList() uint16 {
	list := uint16(field(uint32(v), 0, 8))
	if flag(uint32(v), 8) {
		if v.Pop() {
			list |= 1 << 15
		} else {
			list |= 1 << 14
		}
	}
	return list
}

// T16IT is the IT instruction.
type T16IT uint16

func (v T16IT) FirstCond() Cond { return Cond(field(uint32(v), 4, 4)) }
func (v T16IT) Mask() uint8 { return uint8(field(uint32(v), 0, 4)) }
func (v T16IT) State() ITState { return NewITState(v.FirstCond(), v.Mask()) }
func (v T16IT) Fields() Fields { return LayoutT16IT.Decode(uint32(v)) }

// T16Misc is the immediate-carrying miscellaneous group: BKPT, CPS and the
// hints (IT with a zero mask).
type T16Misc uint16

func (v T16Misc) Op() uint8 { return uint8(field(uint32(v), 8, 4)) }
func (v T16Misc) Imm8() uint8 { return uint8(field(uint32(v), 0, 8)) }
func (v T16Misc) Fields() Fields { return LayoutT16Misc.Decode(uint32(v)) }

// T16LdStMulti is LDMIA/STMIA Rn!, {list}.
type T16LdStMulti uint16

func (v T16LdStMulti) L() bool { return flag(uint32(v), 11) }
func (v T16LdStMulti) Rn() uint8 { return uint8(field(uint32(v), 8, 3)) }
func (v T16LdStMulti) RegList() uint16 { return uint16(field(uint32(v), 0, 8)) }
func (v T16LdStMulti) Fields() Fields { return LayoutT16LdStMulti.Decode(uint32(v)) }

// T16CondBranch is B<c> with an 8-bit offset, plus UDF and SVC.
type T16CondBranch uint16

func (v T16CondBranch) Cond() Cond { return Cond(field(uint32(v), 8, 4)) }
func (v T16CondBranch) Imm8() uint8 { return uint8(field(uint32(v), 0, 8)) }
func (v T16CondBranch) Offset() int32 { return signExtend(field(uint32(v), 0, 8)<<1, 9) }
func (v T16CondBranch) Fields() Fields { return LayoutT16CondBranch.Decode(uint32(v)) }

// T16Branch is the unconditional B with an 11-bit offset.
type T16Branch uint16

func (v T16Branch) Offset() int32 { return signExtend(field(uint32(v), 0, 11)<<1, 12) }
func (v T16Branch) Fields() Fields { return LayoutT16Branch.Decode(uint32(v)) }

// T32Branch is B.W, B<c>.W, BL and BLX (immediate).
type T32Branch uint32

func (v T32Branch) S() uint32 { return field(uint32(v), 26, 1) }
func (v T32Branch) Link() bool { return flag(uint32(v), 14) }
func (v T32Branch) Thumb() bool { return flag(uint32(v), 12) }
func (v T32Branch) Cond() Cond { return Cond(field(uint32(v), 22, 4)) }
func (v T32Branch) Fields() Fields { return LayoutT32Branch.Decode(uint32(v)) }

// Offset returns the byte offset from PC+4 for the unconditional forms.
func (v T32Branch) Offset() int32 {
	s := v.S()
	i1 := ^(field(uint32(v), 13, 1) ^ s) & 1
	i2 := ^(field(uint32(v), 11, 1) ^ s) & 1
	imm := s<<24 | i1<<23 | i2<<22 | field(uint32(v), 16, 10)<<12 | field(uint32(v), 0, 11)<<1
	return signExtend(imm, 25)
}

// CondOffset returns the byte offset from PC+4 for B<c>.W.
func (v T32Branch) CondOffset() int32 {
	imm := v.S()<<20 | field(uint32(v), 11, 1)<<19 | field(uint32(v), 13, 1)<<18 |
		field(uint32(v), 16, 6)<<12 | field(uint32(v), 0, 11)<<1
	return signExtend(imm, 21)
}

// T32ModImm is data processing with a modified immediate.
type T32ModImm uint32

func (v T32ModImm) Op() uint8 { return uint8(field(uint32(v), 21, 4)) }
func (v T32ModImm) S() bool { return flag(uint32(v), 20) }
func (v T32ModImm) Rn() uint8 { return uint8(field(uint32(v), 16, 4)) }
func (v T32ModImm) Rd() uint8 { return uint8(field(uint32(v), 8, 4)) }
func (v T32ModImm) Fields() Fields { return LayoutT32ModImm.Decode(uint32(v)) }

// Imm12 returns i:imm3:imm8.
func (v T32ModImm) Imm12() uint16 {
	return uint16(field(uint32(v), 26, 1)<<11 | field(uint32(v), 12, 3)<<8 | field(uint32(v), 0, 8))
}

// Imm32 returns the expanded immediate.
func (v T32ModImm) Imm32() uint32 {
	imm, _, _ := ExpandImmThumb(v.Imm12())
	return imm
}

// T32PlainImm ops.
const (
	T32PlainADDW = 0b00000
	T32PlainMOVW = 0b00100
	T32PlainSUBW = 0b01010
	T32PlainMOVT = 0b01100
	T32PlainSBFX = 0b10100
	T32PlainBFI  = 0b10110
	T32PlainUBFX = 0b11100
)

// T32PlainImm is ADDW/SUBW/MOVW/MOVT and the bitfield instructions.
type T32PlainImm uint32

func (v T32PlainImm) Op() uint8 { return uint8(field(uint32(v), 20, 5)) }
func (v T32PlainImm) Rn() uint8 { return uint8(field(uint32(v), 16, 4)) }
func (v T32PlainImm) Rd() uint8 { return uint8(field(uint32(v), 8, 4)) }
func (v T32PlainImm) Fields() Fields { return LayoutT32PlainImm.Decode(uint32(v)) }

// Imm12 returns i:imm3:imm8 for ADDW and SUBW.
func (v T32PlainImm) Imm12() uint32 {
	return field(uint32(v), 26, 1)<<11 | field(uint32(v), 12, 3)<<8 | field(uint32(v), 0, 8)
}

// Imm16 returns imm4:i:imm3:imm8 for MOVW and MOVT.
func (v T32PlainImm) Imm16() uint16 { return uint16(v.Rn())<<12 | uint16(v.Imm12()) }

// Lsb returns imm3:imm2 for the bitfield forms.
func (v T32PlainImm) Lsb() uint8 {
	return uint8(field(uint32(v), 12, 3)<<2 | field(uint32(v), 6, 2))
}

// Msb returns the low five bits: widthm1 for UBFX/SBFX, msb for BFI.
func (v T32PlainImm) Msb() uint8 { return uint8(field(uint32(v), 0, 5)) }

// T32ShiftedReg is data processing with a shifted register.
type T32ShiftedReg uint32

func (v T32ShiftedReg) Op() uint8 { return uint8(field(uint32(v), 21, 4)) }
func (v T32ShiftedReg) S() bool { return flag(uint32(v), 20) }
func (v T32ShiftedReg) Rn() uint8 { return uint8(field(uint32(v), 16, 4)) }
func (v T32ShiftedReg) Rd() uint8 { return uint8(field(uint32(v), 8, 4)) }
func (v T32ShiftedReg) Type() ShiftType { return ShiftType(field(uint32(v), 4, 2)) }
func (v T32ShiftedReg) Rm() uint8 { return uint8(field(uint32(v), 0, 4)) }
func (v T32ShiftedReg) Fields() Fields { return LayoutT32ShiftedReg.Decode(uint32(v)) }

// Imm5 returns imm3:imm2.
func (v T32ShiftedReg) Imm5() uint8 {
	return uint8(field(uint32(v), 12, 3)<<2 | field(uint32(v), 6, 2))
}

// Shift returns the effective shift.
func (v T32ShiftedReg) Shift() (ShiftType, uint8) { return DecodeImmShift(v.Type(), v.Imm5()) }

// T32RegOp is the 0xFA group: register-controlled shifts, extends and the
// miscellaneous REV/RBIT/CLZ ops.
type T32RegOp uint32

func (v T32RegOp) Op1() uint8 { return uint8(field(uint32(v), 20, 4)) }
func (v T32RegOp) Rn() uint8 { return uint8(field(uint32(v), 16, 4)) }
func (v T32RegOp) Rd() uint8 { return uint8(field(uint32(v), 8, 4)) }
func (v T32RegOp) Op2() uint8 { return uint8(field(uint32(v), 4, 4)) }
func (v T32RegOp) Rm() uint8 { return uint8(field(uint32(v), 0, 4)) }
func (v T32RegOp) Fields() Fields { return LayoutT32RegOp.Decode(uint32(v)) }

// ShiftType returns the shift of the register-shift form.
func (v T32RegOp) ShiftType() ShiftType { return ShiftType(field(uint32(v), 21, 2)) }

// S reports the flag-setting register-shift form.
func (v T32RegOp) S() bool { return flag(uint32(v), 20) }

// Rotation returns the extend rotation in bits.
func (v T32RegOp) Rotation() uint8 { return uint8(field(uint32(v), 4, 2)) * 8 }

// T32LdSt sizes.
const (
	T32SizeByte = 0b00
	T32SizeHalf = 0b01
	T32SizeWord = 0b10
)

// T32LdStImm12 is LDR/STR{B,H,SB,SH}.W Rt, [Rn, #imm12].
type T32LdStImm12 uint32

func (v T32LdStImm12) Signed() bool { return flag(uint32(v), 24) }
func (v T32LdStImm12) Size() uint8 { return uint8(field(uint32(v), 21, 2)) }
func (v T32LdStImm12) L() bool { return flag(uint32(v), 20) }
func (v T32LdStImm12) Rn() uint8 { return uint8(field(uint32(v), 16, 4)) }
func (v T32LdStImm12) Rt() uint8 { return uint8(field(uint32(v), 12, 4)) }
func (v T32LdStImm12) Imm12() uint32 { return field(uint32(v), 0, 12) }
func (v T32LdStImm12) Fields() Fields { return LayoutT32LdStImm12.Decode(uint32(v)) }

// T32LdStImm8 is the indexed 8-bit offset form with P, U and W.
type T32LdStImm8 uint32

func (v T32LdStImm8) Signed() bool { return flag(uint32(v), 24) }
func (v T32LdStImm8) Size() uint8 { return uint8(field(uint32(v), 21, 2)) }
func (v T32LdStImm8) L() bool { return flag(uint32(v), 20) }
func (v T32LdStImm8) Rn() uint8 { return uint8(field(uint32(v), 16, 4)) }
func (v T32LdStImm8) Rt() uint8 { return uint8(field(uint32(v), 12, 4)) }
func (v T32LdStImm8) P() bool { return flag(uint32(v), 10) }
func (v T32LdStImm8) U() bool { return flag(uint32(v), 9) }
func (v T32LdStImm8) W() bool { return flag(uint32(v), 8) }
func (v T32LdStImm8) Imm8() uint32 { return field(uint32(v), 0, 8) }
func (v T32LdStImm8) Fields() Fields { return LayoutT32LdStImm8.Decode(uint32(v)) }

// T32LdStReg is the register offset form with LSL #imm2.
type T32LdStReg uint32

func (v T32LdStReg) Signed() bool { return flag(uint32(v), 24) }
func (v T32LdStReg) Size() uint8 { return uint8(field(uint32(v), 21, 2)) }
func (v T32LdStReg) L() bool { return flag(uint32(v), 20) }
func (v T32LdStReg) Rn() uint8 { return uint8(field(uint32(v), 16, 4)) }
func (v T32LdStReg) Rt() uint8 { return uint8(field(uint32(v), 12, 4)) }
func (v T32LdStReg) Imm2() uint8 { return uint8(field(uint32(v), 4, 2)) }
func (v T32LdStReg) Rm() uint8 { return uint8(field(uint32(v), 0, 4)) }
func (v T32LdStReg) Fields() Fields { return LayoutT32LdStReg.Decode(uint32(v)) }

// T32LoadLiteral is LDR{B,H,SB,SH}.W Rt, [PC, #±imm12].
type T32LoadLiteral uint32

func (v T32LoadLiteral) Signed() bool { return flag(uint32(v), 24) }
func (v T32LoadLiteral) U() bool { return flag(uint32(v), 23) }
func (v T32LoadLiteral) Size() uint8 { return uint8(field(uint32(v), 21, 2)) }
func (v T32LoadLiteral) Rt() uint8 { return uint8(field(uint32(v), 12, 4)) }
func (v T32LoadLiteral) Imm12() uint32 { return field(uint32(v), 0, 12) }
func (v T32LoadLiteral) Fields() Fields { return LayoutT32LoadLiteral.Decode(uint32(v)) }

// T32LdStMulti is LDM/STM (IA and DB) including PUSH.W and POP.W.
type T32LdStMulti uint32

func (v T32LdStMulti) DB() bool { return field(uint32(v), 23, 2) == 0b10 }
func (v T32LdStMulti) W() bool { return flag(uint32(v), 21) }
func (v T32LdStMulti) L() bool { return flag(uint32(v), 20) }
func (v T32LdStMulti) Rn() uint8 { return uint8(field(uint32(v), 16, 4)) }
func (v T32LdStMulti) RegList() uint16 { return uint16(field(uint32(v), 0, 16)) }
func (v T32LdStMulti) Fields() Fields { return LayoutT32LdStMulti.Decode(uint32(v)) }

// T32LdStDual is LDRD/STRD (immediate).
type T32LdStDual uint32

func (v T32LdStDual) P() bool { return flag(uint32(v), 24) }
func (v T32LdStDual) U() bool { return flag(uint32(v), 23) }
func (v T32LdStDual) W() bool { return flag(uint32(v), 21) }
func (v T32LdStDual) L() bool { return flag(uint32(v), 20) }
func (v T32LdStDual) Rn() uint8 { return uint8(field(uint32(v), 16, 4)) }
func (v T32LdStDual) Rt() uint8 { return uint8(field(uint32(v), 12, 4)) }
func (v T32LdStDual) Rt2() uint8 { return uint8(field(uint32(v), 8, 4)) }
func (v T32LdStDual) Imm32() uint32 { return field(uint32(v), 0, 8) << 2 }
func (v T32LdStDual) Fields() Fields { return LayoutT32LdStDual.Decode(uint32(v)) }

// T32Exclusive is LDREX/STREX in every size plus LDA/STL and friends.
// Word LDREX/STREX use the E84x encoding; everything else uses E8Cx with
// an op nibble.
type T32Exclusive uint32

func (v T32Exclusive) Sized() bool { return flag(uint32(v), 23) }
func (v T32Exclusive) L() bool { return flag(uint32(v), 20) }
func (v T32Exclusive) Rn() uint8 { return uint8(field(uint32(v), 16, 4)) }
func (v T32Exclusive) Rt() uint8 { return uint8(field(uint32(v), 12, 4)) }
func (v T32Exclusive) Op() uint8 { return uint8(field(uint32(v), 4, 4)) }

// Rd returns the store-exclusive status register.
func (v T32Exclusive) Rd() uint8 {
	if v.Sized() {
		return uint8(field(uint32(v), 0, 4))
	}
	return uint8(field(uint32(v), 8, 4))
}

// Rt2 returns the second register of the doubleword forms.
func (v T32Exclusive) Rt2() uint8 { return uint8(field(uint32(v), 8, 4)) }

// Imm32 returns the word-form offset.
func (v T32Exclusive) Imm32() uint32 {
	if v.Sized() {
		return 0
	}
	return field(uint32(v), 0, 8) << 2
}

// Size returns the access size as a Sync size constant.
func (v T32Exclusive) Size() uint8 {
	if !v.Sized() {
		return SyncWord
	}
	switch v.Op() & 3 {
	case 0:
		return SyncByte
	case 1:
		return SyncHalf
	case 2:
		return SyncWord
	default:
		return SyncDouble
	}
}

// Exclusive reports an exclusive access rather than a plain LDA/STL.
func (v T32Exclusive) Exclusive() bool { return !v.Sized() || v.Op()&0b1100 != 0b1000 }

// Ordered reports acquire/release semantics.
func (v T32Exclusive) Ordered() bool { return v.Sized() && v.Op()&0b1000 != 0 }

// Fields decodes against the word or sized exclusive layout.
func (v T32Exclusive) Fields() Fields {
	if v.Sized() {
		return LayoutT32ExclusiveSized.Decode(uint32(v))
	}
	return LayoutT32Exclusive.Decode(uint32(v))
}

// T32Mul is MUL/MLA/MLS.
type T32Mul uint32

func (v T32Mul) Op1() uint8 { return uint8(field(uint32(v), 20, 3)) }
func (v T32Mul) Rn() uint8 { return uint8(field(uint32(v), 16, 4)) }
func (v T32Mul) Ra() uint8 { return uint8(field(uint32(v), 12, 4)) }
func (v T32Mul) Rd() uint8 { return uint8(field(uint32(v), 8, 4)) }
func (v T32Mul) Op2() uint8 { return uint8(field(uint32(v), 4, 4)) }
func (v T32Mul) Rm() uint8 { return uint8(field(uint32(v), 0, 4)) }
func (v T32Mul) Fields() Fields { return LayoutT32Mul.Decode(uint32(v)) }

// T32MulLong is SMULL/UMULL/SMLAL/UMLAL and SDIV/UDIV.
type T32MulLong uint32

func (v T32MulLong) Op1() uint8 { return uint8(field(uint32(v), 20, 3)) }
func (v T32MulLong) Rn() uint8 { return uint8(field(uint32(v), 16, 4)) }
func (v T32MulLong) RdLo() uint8 { return uint8(field(uint32(v), 12, 4)) }
func (v T32MulLong) RdHi() uint8 { return uint8(field(uint32(v), 8, 4)) }
func (v T32MulLong) Op2() uint8 { return uint8(field(uint32(v), 4, 4)) }
func (v T32MulLong) Rm() uint8 { return uint8(field(uint32(v), 0, 4)) }
func (v T32MulLong) Fields() Fields { return LayoutT32MulLong.Decode(uint32(v)) }

// T32 long multiply op1 values.
const (
	T32LongSMULL = 0b000
	T32LongSDIV  = 0b001
	T32LongUMULL = 0b010
	T32LongUDIV  = 0b011
	T32LongSMLAL = 0b100
	T32LongUMLAL = 0b110
)

// T32SysReg is MRS Rd, APSR and MSR APSR_<bits>, Rn.
type T32SysReg uint32

func (v T32SysReg) Rd() uint8 { return uint8(field(uint32(v), 8, 4)) }
func (v T32SysReg) Rn() uint8 { return uint8(field(uint32(v), 16, 4)) }
func (v T32SysReg) SPSR() bool { return flag(uint32(v), 20) }
func (v T32SysReg) Mask() uint8 { return uint8(field(uint32(v), 10, 2)) }

// ThumbNEONToARM rewrites a Thumb Advanced SIMD data-processing encoding
// 111U 1111 ... as its A32 form 1111 001U ....
func ThumbNEONToARM(raw uint32) uint32 {
	u := raw >> 28 & 1
	return 0xF2000000 | u<<24 | raw&0x00FFFFFF
}

// ThumbCoprocToARM rewrites a Thumb coprocessor-space encoding 111x 11xx
// as its A32 form: 1110 maps to the AL condition, 1111 to the
// unconditional space.
func ThumbCoprocToARM(raw uint32) uint32 {
	cond := uint32(CondAL)
	if raw&(1<<28) != 0 {
		cond = uint32(CondNV)
	}
	return cond<<28 | raw&0x0FFFFFFF
}
