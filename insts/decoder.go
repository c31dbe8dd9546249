package insts

// Decoder classifies raw guest encodings into instruction kinds.
type Decoder struct{}

// NewDecoder creates a new A32/Thumb instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// DecodeARM classifies a 32-bit A32 encoding.
func (d *Decoder) DecodeARM(raw uint32) Kind {
	if raw>>28 == uint32(CondNV) {
		return d.decodeUnconditional(raw)
	}

	// bits [27:25] select the major group
	switch raw >> 25 & 0x7 {
	case 0b000:
		return d.decodeDataProcAndMisc(raw)
	case 0b001:
		return d.decodeDataProcImm(raw)
	case 0b010:
		return KindARMLoadStoreImm
	case 0b011:
		if raw&(1<<4) == 0 {
			return KindARMLoadStoreReg
		}
		return d.decodeMedia(raw)
	case 0b100:
		return KindARMBlockTransfer
	case 0b101:
		return KindARMBranch
	case 0b110:
		return d.decodeCoprocLoadStore(raw)
	default:
		return d.decodeCoprocData(raw)
	}
}

// isMultiply checks for the multiply group: bits [27:24] == 0000, [7:4] == 1001.
func (d *Decoder) isMultiply(raw uint32) bool {
	return raw&0x0F0000F0 == 0x00000090
}

// isSync checks for the synchronization group: bits [27:23] == 00011,
// [11:10] == 11, [7:4] == 1001.
func (d *Decoder) isSync(raw uint32) bool {
	return raw&0x0F800CF0 == 0x01800C90
}

// isExtraLoadStore checks for halfword, signed byte and doubleword
// transfers: bit 7 and bit 4 set with op2 != 00.
func (d *Decoder) isExtraLoadStore(raw uint32) bool {
	return raw&0x90 == 0x90 && raw&0x60 != 0
}

// isMiscellaneous checks for the data-processing hole TST/TEQ/CMP/CMN
// without S, which holds BX, CLZ, MRS, MSR and BKPT.
func (d *Decoder) isMiscellaneous(raw uint32) bool {
	return raw&0x01900000 == 0x01000000
}

func (d *Decoder) decodeDataProcAndMisc(raw uint32) Kind {
	switch {
	case d.isMultiply(raw):
		if raw&(1<<23) != 0 {
			return KindARMMulLong
		}
		switch Mul(raw).Op() {
		case MulOpMUL, MulOpMLA, MulOpMLS:
			return KindARMMul
		}
		return KindUndefined
	case d.isSync(raw):
		return KindARMSync
	case d.isExtraLoadStore(raw):
		if raw&(1<<22) != 0 {
			return KindARMExtraLoadStoreImm
		}
		if raw&0xF00 != 0 {
			return KindUndefined
		}
		return KindARMExtraLoadStoreReg
	case d.isMiscellaneous(raw):
		return d.decodeMisc(raw)
	case raw&0x10 == 0:
		return KindARMDataProcReg
	case raw&0x80 == 0:
		return KindARMDataProcRegShift
	}
	return KindUndefined
}

func (d *Decoder) decodeMisc(raw uint32) Kind {
	switch {
	case raw&0x0FFFFFD0 == 0x012FFF10:
		return KindARMBranchReg
	case raw&0x0FFF0FF0 == 0x016F0F10:
		return KindARMCLZ
	case raw&0x0FBF0FFF == 0x010F0000:
		return KindARMMRS
	case raw&0x0FB0FFF0 == 0x0120F000:
		return KindARMMSR
	case raw&0x0FF000F0 == 0x01200070:
		return KindARMBKPT
	}
	return KindUndefined
}

func (d *Decoder) decodeDataProcImm(raw uint32) Kind {
	switch {
	case raw&0x0FF00000 == 0x03000000:
		return KindARMMovW
	case raw&0x0FF00000 == 0x03400000:
		return KindARMMovT
	case raw&0x0FFFFF00 == 0x0320F000:
		return KindARMHint
	case raw&0x0FB00000 == 0x03200000:
		// MSR (immediate) with a non-zero mask
		if StatusReg(raw).Mask() == 0 {
			return KindUndefined
		}
		return KindARMMSR
	case d.isMiscellaneous(raw):
		return KindUndefined
	}
	return KindARMDataProcImm
}

func (d *Decoder) decodeMedia(raw uint32) Kind {
	switch {
	case raw&0x0FF000F0 == 0x07F000F0:
		return KindARMUDF
	case raw&0x0FD0F0F0 == 0x0710F010:
		return KindARMDiv
	case raw&0x0FA00070 == 0x07A00050:
		// SBFX 0111101, UBFX 0111111
		return KindARMBitfield
	case raw&0x0FE00070 == 0x07C00010:
		// BFI, BFC (Rn == 1111)
		return KindARMBitfield
	case raw&0x0FA003F0 == 0x06A00070:
		// SXTB/SXTH/UXTB/UXTH and the accumulating forms
		return KindARMExtend
	}

	switch raw & 0x0FFF0FF0 {
	case 0x06BF0F30, 0x06BF0FB0, 0x06FF0F30, 0x06FF0FB0:
		return KindARMRev
	}
	return KindUndefined
}

// isVFPCoproc checks for coprocessor 10 or 11: bits [11:9] == 101.
func (d *Decoder) isVFPCoproc(raw uint32) bool {
	return raw&0x0E00 == 0x0A00
}

func (d *Decoder) decodeCoprocLoadStore(raw uint32) Kind {
	if !d.isVFPCoproc(raw) {
		return KindARMCoproc
	}

	p, u, w := flag(raw, 24), flag(raw, 23), flag(raw, 21)
	switch {
	case raw&0x0FE000D0 == 0x0C400010:
		return KindVFPMovCorePair
	case !p && !u && !w:
		return KindUndefined
	case p && !w:
		return KindVFPLoadStore
	case p == u:
		// P=1 U=1 W=1 and P=0 U=0 W=1 are unallocated
		return KindUndefined
	}
	return KindVFPLoadStoreMulti
}

func (d *Decoder) decodeCoprocData(raw uint32) Kind {
	if raw&(1<<24) != 0 {
		return KindARMSVC
	}
	if !d.isVFPCoproc(raw) {
		return KindARMCoproc
	}

	switch {
	case raw&0x10 == 0:
		return KindVFPDataProc
	case raw&0x0FE00FFF == 0x0EE00A10:
		return KindVFPSysReg
	case raw&0x0FE00F7F == 0x0E000A10:
		return KindVFPMovCoreSingle
	}
	return KindUndefined
}

// decodeUnconditional handles the cond == 1111 space.
func (d *Decoder) decodeUnconditional(raw uint32) Kind {
	switch {
	case raw&0x0E000000 == 0x0A000000:
		return KindARMBLXImm
	case raw&0xFFFFFF00 == 0xF57FF000:
		switch Barrier(raw).Op() {
		case BarrierCLREX, BarrierDSB, BarrierDMB, BarrierISB:
			return KindARMBarrier
		}
		return KindUndefined
	case raw&0xFF70F000 == 0xF550F000, raw&0xFF70F000 == 0xF450F000:
		// PLD and PLI behave as hints
		return KindARMHint
	case raw&0xFFF10020 == 0xF1000000:
		return KindARMCPS
	case raw&0xFE000000 == 0xF2000000:
		return d.decodeNEONData(raw)
	case raw&0xFFB00F00 == 0xFC200D00:
		return KindNEONDotProduct
	case raw&0xFF000E10 == 0xFE000A00:
		// VSEL, VMAXNM/VMINNM, VRINT{A,N,P,M}, VCVT{A,N,P,M}
		return KindVFPSelect
	}
	return KindUndefined
}

func (d *Decoder) decodeNEONData(raw uint32) Kind {
	if raw&0xFFB30E10 == 0xF3B00200 {
		// AESE/AESD/AESMC/AESIMC and the two-register SHA ops
		return KindNEONCrypto
	}
	if raw&(1<<23) != 0 {
		return KindUndefined
	}

	v := NEONThreeSame(raw)
	if v.Opc() == 0xC && !v.Op() {
		// SHA1C/SHA1P/SHA1M/SHA1SU0/SHA256H/SHA256H2/SHA256SU1
		return KindNEONCrypto
	}
	return KindNEONThreeSame
}

// IsThumb32 reports whether hw1 is the first halfword of a 32-bit Thumb
// encoding: bits [15:11] are 11101, 11110 or 11111.
func IsThumb32(hw1 uint16) bool {
	return hw1>>11 >= 0b11101
}

// DecodeThumb classifies a Thumb encoding and returns its size in bytes.
// hw2 is ignored for 16-bit encodings.
func (d *Decoder) DecodeThumb(hw1, hw2 uint16) (Kind, int) {
	if IsThumb32(hw1) {
		return d.decodeThumb32(uint32(hw1)<<16 | uint32(hw2)), 4
	}
	return d.decodeThumb16(hw1), 2
}

func (d *Decoder) decodeThumb16(hw uint16) Kind {
	switch {
	case hw>>11 == 0b00011:
		return KindT16AddSub3
	case hw>>13 == 0b000:
		return KindT16ShiftImm
	case hw>>13 == 0b001:
		return KindT16Imm8
	case hw>>10 == 0b010000:
		return KindT16ALU
	case hw>>10 == 0b010001:
		if hw>>8&3 == T16HiBX {
			if hw&0x7 != 0 {
				return KindUndefined
			}
			return KindT16BranchReg
		}
		return KindT16HiReg
	case hw>>11 == 0b01001:
		return KindT16LoadLiteral
	case hw>>12 == 0b0101:
		return KindT16LoadStoreReg
	case hw>>13 == 0b011, hw>>12 == 0b1000:
		return KindT16LoadStoreImm
	case hw>>12 == 0b1001:
		return KindT16LoadStoreSP
	case hw>>11 == 0b10100:
		return KindT16ADR
	case hw>>11 == 0b10101:
		return KindT16AddSP
	case hw>>12 == 0b1011:
		return d.decodeThumb16Misc(hw)
	case hw>>12 == 0b1100:
		return KindT16LoadStoreMulti
	case hw>>12 == 0b1101:
		switch Cond(hw >> 8 & 0xF) {
		case CondAL:
			return KindT16UDF
		case CondNV:
			return KindT16SVC
		}
		return KindT16CondBranch
	case hw>>11 == 0b11100:
		return KindT16Branch
	}
	return KindUndefined
}

func (d *Decoder) decodeThumb16Misc(hw uint16) Kind {
	switch {
	case hw&0xFF00 == 0xB000:
		return KindT16AdjustSP
	case hw&0xF500 == 0xB100:
		return KindT16CBZ
	case hw&0xFF00 == 0xB200:
		return KindT16Extend
	case hw&0xFF00 == 0xBA00:
		if hw>>6&3 == 0b10 {
			// HLT
			return KindUndefined
		}
		return KindT16Rev
	case hw&0xF600 == 0xB400:
		return KindT16PushPop
	case hw&0xFFE8 == 0xB660:
		return KindT16CPS
	case hw&0xFF00 == 0xBE00:
		return KindT16BKPT
	case hw&0xFF00 == 0xBF00:
		if hw&0xF == 0 {
			return KindT16Hint
		}
		return KindT16IT
	}
	return KindUndefined
}

// isThumbNEON checks for Advanced SIMD data processing: 111U 1111.
func (d *Decoder) isThumbNEON(raw uint32) bool {
	return raw>>16&0xEF00 == 0xEF00
}

// isThumbCoproc checks for the coprocessor space: 111x 11xx.
func (d *Decoder) isThumbCoproc(raw uint32) bool {
	return raw>>16&0xEC00 == 0xEC00
}

func (d *Decoder) decodeThumb32(raw uint32) Kind {
	hw1, hw2 := raw>>16, raw&0xFFFF

	if d.isThumbNEON(raw) || d.isThumbCoproc(raw) {
		return d.DecodeARM(SharedARMForm(raw))
	}

	switch hw1 >> 11 & 3 {
	case 0b01:
		return d.decodeThumb32LoadStoreMulti(hw1, hw2)
	case 0b10:
		if hw2&0x8000 != 0 {
			return d.decodeThumb32Branch(hw1, hw2)
		}
		if hw1&(1<<9) == 0 {
			if !validT32DataOp(uint8(hw1 >> 5 & 0xF)) {
				return KindUndefined
			}
			return KindT32DataProcModImm
		}
		return d.decodeThumb32PlainImm(raw)
	default:
		return d.decodeThumb32Other(hw1, hw2)
	}
}

func validT32DataOp(op uint8) bool {
	switch op {
	case T32OpAND, T32OpBIC, T32OpORR, T32OpORN, T32OpEOR,
		T32OpADD, T32OpADC, T32OpSBC, T32OpSUB, T32OpRSB:
		return true
	}
	return false
}

func (d *Decoder) decodeThumb32LoadStoreMulti(hw1, hw2 uint32) Kind {
	switch {
	case hw1&0xFE40 == 0xE800:
		switch hw1 >> 7 & 3 {
		case 0b01, 0b10:
			return KindT32LoadStoreMulti
		}
		return KindUndefined
	case hw1&0xFFE0 == 0xE840:
		return KindT32Exclusive
	case hw1&0xFFE0 == 0xE8C0:
		switch hw2 >> 4 & 0xF {
		case 0b0100, 0b0101, 0b0111, 0b1000, 0b1001, 0b1010, 0b1100, 0b1101, 0b1110, 0b1111:
			return KindT32Exclusive
		}
		// TBB, TBH
		return KindUndefined
	case hw1&0xFE40 == 0xE840:
		return KindT32LoadStoreDual
	case hw1&0xFE00 == 0xEA00:
		if !validT32DataOp(uint8(hw1 >> 5 & 0xF)) {
			return KindUndefined
		}
		return KindT32DataProcReg
	}
	return KindUndefined
}

func (d *Decoder) decodeThumb32Branch(hw1, hw2 uint32) Kind {
	switch hw2 & 0x5000 {
	case 0x5000, 0x4000:
		return KindT32BL
	case 0x1000:
		return KindT32Branch
	}

	if Cond(hw1>>6&0xF) < CondAL {
		return KindT32CondBranch
	}

	switch {
	case hw1&0xFFF0 == 0xF3B0 && hw2&0xFF00 == 0x8F00:
		switch Barrier(hw2).Op() {
		case BarrierCLREX, BarrierDSB, BarrierDMB, BarrierISB:
			return KindT32Barrier
		}
	case hw1 == 0xF3AF && hw2&0xFF00 == 0x8000:
		return KindT32Hint
	case hw1&0xFFEF == 0xF3EF && hw2&0xF0FF == 0x8000:
		return KindT32MRS
	case hw1&0xFFE0 == 0xF380 && hw2&0xF3FF == 0x8000:
		return KindT32MSR
	case hw1&0xFFF0 == 0xF7F0 && hw2&0xF000 == 0xA000:
		return KindT32UDF
	}
	return KindUndefined
}

func (d *Decoder) decodeThumb32PlainImm(raw uint32) Kind {
	switch T32PlainImm(raw).Op() {
	case T32PlainADDW, T32PlainMOVW, T32PlainSUBW, T32PlainMOVT:
		return KindT32PlainImm
	case T32PlainSBFX, T32PlainBFI, T32PlainUBFX:
		return KindT32Bitfield
	}
	return KindUndefined
}

func (d *Decoder) decodeThumb32Other(hw1, hw2 uint32) Kind {
	switch {
	case hw1&0xFE00 == 0xF800:
		return d.decodeThumb32LoadStore(hw1, hw2)
	case hw1&0xFF00 == 0xFA00:
		return d.decodeThumb32RegOp(hw1, hw2)
	case hw1&0xFF80 == 0xFB00:
		if hw1&0x70 == 0 && hw2>>4&0xF <= 1 {
			return KindT32Mul
		}
	case hw1&0xFF80 == 0xFB80:
		switch T32MulLong(hw1<<16 | hw2).Op1() {
		case T32LongSMULL, T32LongUMULL, T32LongSMLAL, T32LongUMLAL:
			if hw2>>4&0xF == 0 {
				return KindT32MulLong
			}
		case T32LongSDIV, T32LongUDIV:
			if hw2&0xF0F0 == 0xF0F0 {
				return KindT32Div
			}
		}
	}
	return KindUndefined
}

func (d *Decoder) decodeThumb32LoadStore(hw1, hw2 uint32) Kind {
	size := hw1 >> 5 & 3
	load := hw1&(1<<4) != 0
	signed := hw1&(1<<8) != 0
	rn, rt := hw1&0xF, hw2>>12

	switch {
	case size == 0b11:
		return KindUndefined
	case signed && (!load || size == T32SizeWord):
		return KindUndefined
	case load && rt == 15 && size != T32SizeWord:
		// PLD, PLI
		return KindT32Hint
	case load && rn == 15:
		return KindT32LoadLiteral
	case rn == 15:
		return KindUndefined
	case hw1&(1<<7) != 0:
		return KindT32LoadStoreImm12
	case hw2&0x0800 != 0:
		if hw2&0x0500 == 0 {
			// P=0 W=0
			return KindUndefined
		}
		return KindT32LoadStoreImm8
	case hw2&0x0FC0 == 0:
		return KindT32LoadStoreReg
	}
	return KindUndefined
}

func (d *Decoder) decodeThumb32RegOp(hw1, hw2 uint32) Kind {
	if hw2&0xF000 != 0xF000 {
		return KindUndefined
	}

	op1 := hw1 >> 4 & 0x7
	if hw1&0x80 == 0 {
		switch {
		case hw2&0xF0 == 0:
			return KindT32ShiftReg
		case hw2&0xC0 == 0x80:
			switch op1 {
			case 0b000, 0b001, 0b100, 0b101:
				return KindT32Extend
			}
		}
		return KindUndefined
	}

	if hw2&0xC0 != 0x80 {
		return KindUndefined
	}
	switch {
	case op1 == 0b001:
		// REV, REV16, RBIT, REVSH
		return KindT32Misc
	case op1 == 0b011 && hw2>>4&3 == 0:
		// CLZ
		return KindT32Misc
	}
	return KindUndefined
}

// Shared reports kinds whose A32 and Thumb encodings share one layout.
// Thumb encodings of these kinds must be rewritten with SharedARMForm before
// the views are applied.
func (k Kind) Shared() bool {
	switch k {
	case KindVFPDataProc, KindVFPMovCoreSingle, KindVFPMovCorePair,
		KindVFPLoadStore, KindVFPLoadStoreMulti, KindVFPSysReg,
		KindNEONThreeSame, KindNEONCrypto, KindNEONDotProduct,
		KindVFPSelect, KindARMCoproc:
		return true
	}
	return false
}

// SharedARMForm rewrites a Thumb coprocessor-space or Advanced SIMD
// encoding as the equivalent A32 encoding.
func SharedARMForm(raw uint32) uint32 {
	if raw>>16&0xEF00 == 0xEF00 {
		return ThumbNEONToARM(raw)
	}
	return ThumbCoprocToARM(raw)
}
