package host

import (
	"encoding/binary"
	"fmt"
)

// EncodeError reports a host instruction whose operands have no ARM64
// encoding. It is raised as a panic: callers are expected to pass only
// encodable operands.
type EncodeError struct {
	Inst   Inst
	Reason string
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("host: cannot encode %q: %s", e.Inst.String(), e.Reason)
}

func fail(in Inst, format string, args ...any) {
	panic(&EncodeError{Inst: in, Reason: fmt.Sprintf(format, args...)})
}

func bit(b bool, pos uint) uint32 {
	if b {
		return 1 << pos
	}
	return 0
}

func checkReg(in Inst, r uint8) uint32 {
	if r > 31 {
		fail(in, "register %d out of range", r)
	}
	return uint32(r)
}

// Encode lowers one instruction to its 32-bit machine word. Branch
// instructions must already carry their resolved offset in Imm.
func Encode(in Inst) uint32 {
	rd := checkReg(in, in.Rd)
	rn := checkReg(in, in.Rn)
	rm := checkReg(in, in.Rm)
	ra := checkReg(in, in.Ra)
	sf := bit(in.Sf, 31)
	s := bit(in.S, 29)

	switch in.Op {
	case OpADDImm, OpSUBImm:
		imm := in.Imm
		var sh uint32
		switch {
		case imm >= 0 && imm <= 0xFFF:
		case imm > 0 && imm&0xFFF == 0 && imm>>12 <= 0xFFF:
			sh, imm = 1, imm>>12
		default:
			fail(in, "immediate %d outside the 12-bit envelope", in.Imm)
		}
		return sf | bit(in.Op == OpSUBImm, 30) | s | 0x11000000 | sh<<22 |
			uint32(imm)<<10 | rn<<5 | rd

	case OpADDReg, OpSUBReg:
		if in.Shift == ShiftROR {
			fail(in, "ror is not a valid arithmetic shift")
		}
		checkAmount(in)
		return sf | bit(in.Op == OpSUBReg, 30) | s | 0x0B000000 |
			uint32(in.Shift)<<22 | rm<<16 | uint32(in.Amount)<<10 | rn<<5 | rd

	case OpADDExt, OpSUBExt:
		if in.Amount > 4 {
			fail(in, "extend shift %d exceeds 4", in.Amount)
		}
		return sf | bit(in.Op == OpSUBExt, 30) | s | 0x0B200000 | rm<<16 |
			uint32(in.Ext)<<13 | uint32(in.Amount)<<10 | rn<<5 | rd

	case OpADC:
		return sf | s | 0x1A000000 | rm<<16 | rn<<5 | rd
	case OpSBC:
		return sf | s | 0x5A000000 | rm<<16 | rn<<5 | rd

	case OpAND, OpBIC, OpORR, OpORN, OpEOR, OpEON:
		checkAmount(in)
		opc, neg := logicalOpc(in.Op)
		if in.S {
			if opc != 0 {
				fail(in, "only and/bic set flags")
			}
			opc = 3
		}
		return sf | opc<<29 | 0x0A000000 | uint32(in.Shift)<<22 | bit(neg, 21) |
			rm<<16 | uint32(in.Amount)<<10 | rn<<5 | rd

	case OpANDImm, OpORRImm, OpEORImm:
		n, immr, imms, ok := EncodeBitmask(uint64(in.Imm), in.Sf)
		if !ok {
			fail(in, "0x%x is not a logical immediate", uint64(in.Imm))
		}
		opc, _ := logicalOpc(in.Op)
		if in.S {
			if in.Op != OpANDImm {
				fail(in, "only and sets flags")
			}
			opc = 3
		}
		return sf | opc<<29 | 0x12000000 | n<<22 | immr<<16 | imms<<10 | rn<<5 | rd

	case OpMOVZ, OpMOVN, OpMOVK:
		if in.Imm < 0 || in.Imm > 0xFFFF {
			fail(in, "move-wide immediate %d exceeds 16 bits", in.Imm)
		}
		if in.Amount%16 != 0 || (!in.Sf && in.Amount > 16) || in.Amount > 48 {
			fail(in, "move-wide shift %d", in.Amount)
		}
		opc := map[Op]uint32{OpMOVN: 0, OpMOVZ: 2, OpMOVK: 3}[in.Op]
		return sf | opc<<29 | 0x12800000 | uint32(in.Amount/16)<<21 |
			uint32(in.Imm)<<5 | rd

	case OpLSLV, OpLSRV, OpASRV, OpRORV, OpUDIV, OpSDIV:
		opcode := map[Op]uint32{
			OpUDIV: 2, OpSDIV: 3, OpLSLV: 8, OpLSRV: 9, OpASRV: 10, OpRORV: 11,
		}[in.Op]
		return sf | 0x1AC00000 | rm<<16 | opcode<<10 | rn<<5 | rd

	case OpUBFM, OpSBFM, OpBFM:
		width := int64(32)
		if in.Sf {
			width = 64
		}
		if in.Imm < 0 || in.Imm >= width || in.Imm2 < 0 || in.Imm2 >= width {
			fail(in, "bitfield immr/imms out of range")
		}
		opc := map[Op]uint32{OpSBFM: 0, OpBFM: 1, OpUBFM: 2}[in.Op]
		return sf | opc<<29 | 0x13000000 | bit(in.Sf, 22) | uint32(in.Imm)<<16 |
			uint32(in.Imm2)<<10 | rn<<5 | rd

	case OpEXTR:
		checkAmount(in)
		return sf | 0x13800000 | bit(in.Sf, 22) | rm<<16 | uint32(in.Amount)<<10 |
			rn<<5 | rd

	case OpMADD:
		return sf | 0x1B000000 | rm<<16 | ra<<10 | rn<<5 | rd
	case OpMSUB:
		return sf | 0x1B008000 | rm<<16 | ra<<10 | rn<<5 | rd
	case OpSMADDL:
		return 0x9B200000 | rm<<16 | ra<<10 | rn<<5 | rd
	case OpUMADDL:
		return 0x9BA00000 | rm<<16 | ra<<10 | rn<<5 | rd

	case OpRBIT, OpREV16, OpREV, OpCLZ:
		opcode := map[Op]uint32{OpRBIT: 0, OpREV16: 1, OpREV: 2, OpCLZ: 4}[in.Op]
		if in.Op == OpREV && in.Sf {
			opcode = 3
		}
		return sf | 0x5AC00000 | opcode<<10 | rn<<5 | rd

	case OpCSEL, OpCSINC, OpCSINV, OpCSNEG:
		base := map[Op]uint32{
			OpCSEL:  0x1A800000, OpCSINC: 0x1A800400,
			OpCSINV: 0x5A800000, OpCSNEG: 0x5A800400,
		}[in.Op]
		return sf | base | rm<<16 | uint32(in.Cond&15)<<12 | rn<<5 | rd

	case OpMRS:
		return 0xD53B4200 | rd
	case OpMSR:
		return 0xD51B4200 | rd

	case OpB:
		checkBranch(in, 26)
		return 0x14000000 | uint32(in.Imm)&0x3FFFFFF
	case OpBCond:
		checkBranch(in, 19)
		return 0x54000000 | (uint32(in.Imm)&0x7FFFF)<<5 | uint32(in.Cond&15)
	case OpCBZ, OpCBNZ:
		checkBranch(in, 19)
		return sf | 0x34000000 | bit(in.Op == OpCBNZ, 24) |
			(uint32(in.Imm)&0x7FFFF)<<5 | rd
	case OpBR:
		return 0xD61F0000 | rn<<5
	case OpRET:
		return 0xD65F0000 | rn<<5
	case OpBRK:
		if in.Imm < 0 || in.Imm > 0xFFFF {
			fail(in, "brk immediate %d exceeds 16 bits", in.Imm)
		}
		return 0xD4200000 | uint32(in.Imm)<<5
	case OpNOP:
		return 0xD503201F

	case OpLDR, OpSTR:
		scale := int64(1) << in.Size
		if in.Imm < 0 || in.Imm%scale != 0 || in.Imm/scale > 0xFFF {
			fail(in, "offset %d outside the scaled envelope", in.Imm)
		}
		return uint32(in.Size)<<30 | memOpc(in)<<22 | 0x39000000 |
			uint32(in.Imm/scale)<<10 | rn<<5 | rd

	case OpLDUR, OpSTUR:
		checkUnscaled(in)
		return uint32(in.Size)<<30 | memOpc(in)<<22 | 0x38000000 |
			(uint32(in.Imm)&0x1FF)<<12 | rn<<5 | rd

	case OpLDRReg, OpSTRReg:
		if in.Amount != 0 && in.Amount != in.Size {
			fail(in, "index shift must be 0 or %d", in.Size)
		}
		ext := in.Ext
		if ext != ExtUXTW && ext != ExtSXTW && ext != ExtSXTX {
			ext = ExtUXTX
		}
		return uint32(in.Size)<<30 | memOpc(in)<<22 | 0x38200800 | rm<<16 |
			uint32(ext)<<13 | bit(in.Amount != 0, 12) | rn<<5 | rd

	case OpLDP, OpSTP:
		scale := int64(4)
		base := uint32(0x29000000)
		if in.Sf {
			scale, base = 8, 0xA9000000
		}
		if in.Imm%scale != 0 || in.Imm/scale < -64 || in.Imm/scale > 63 {
			fail(in, "pair offset %d out of range", in.Imm)
		}
		return base | bit(in.Op == OpLDP, 22) | (uint32(in.Imm/scale)&0x7F)<<15 |
			ra<<10 | rn<<5 | rd

	case OpLDXR, OpLDAXR, OpLDAR, OpSTXR, OpSTLXR, OpSTLR:
		base := map[Op]uint32{
			OpLDXR: 0x085F7C00, OpLDAXR: 0x085FFC00, OpLDAR: 0x08DFFC00,
			OpSTXR: 0x08007C00, OpSTLXR: 0x0800FC00, OpSTLR: 0x089FFC00,
		}[in.Op]
		if in.Op == OpSTXR || in.Op == OpSTLXR {
			if rm == rd || rm == rn {
				fail(in, "status register overlaps transfer or base register")
			}
			base |= rm << 16
		}
		return uint32(in.Size)<<30 | base | rn<<5 | rd

	case OpLDXP, OpLDAXP, OpSTXP, OpSTLXP:
		base := map[Op]uint32{
			OpLDXP: 0x887F0000, OpLDAXP: 0x887F8000,
			OpSTXP: 0x88200000, OpSTLXP: 0x88208000,
		}[in.Op]
		if in.Op == OpSTXP || in.Op == OpSTLXP {
			if rm == rd || rm == ra || rm == rn {
				fail(in, "status register overlaps transfer or base register")
			}
			base |= rm << 16
		} else if rd == ra {
			fail(in, "pair load into one register")
		}
		return bit(in.Sf, 30) | base | ra<<10 | rn<<5 | rd

	case OpCLREX:
		return 0xD5033F5F
	case OpDMB:
		return 0xD50330BF | uint32(in.Imm&15)<<8
	case OpDSB:
		return 0xD503309F | uint32(in.Imm&15)<<8
	case OpISB:
		return 0xD5033FDF

	case OpFADD, OpFSUB, OpFMUL, OpFDIV, OpFNMUL:
		opcode := map[Op]uint32{OpFMUL: 0, OpFDIV: 1, OpFADD: 2, OpFSUB: 3, OpFNMUL: 8}[in.Op]
		return 0x1E200800 | ftype(in, in.Size)<<22 | rm<<16 | opcode<<12 | rn<<5 | rd

	case OpFMOV, OpFABS, OpFNEG, OpFSQRT:
		opc := map[Op]uint32{OpFMOV: 0, OpFABS: 1, OpFNEG: 2, OpFSQRT: 3}[in.Op]
		return 0x1E204000 | ftype(in, in.Size)<<22 | opc<<15 | rn<<5 | rd

	case OpFCVT:
		src := uint8(in.Imm)
		if src == in.Size {
			fail(in, "fcvt between equal sizes")
		}
		opc := 4 | ftype(in, in.Size)
		return 0x1E204000 | ftype(in, src)<<22 | opc<<15 | rn<<5 | rd

	case OpFCMP:
		opc := uint32(0)
		if in.Imm&FCmpZero != 0 {
			opc |= 8
			rm = 0
		}
		if in.Imm&FCmpSignal != 0 {
			opc |= 0x10
		}
		return 0x1E202000 | ftype(in, in.Size)<<22 | rm<<16 | rn<<5 | opc

	case OpFCVTZS, OpFCVTZU, OpSCVTF, OpUCVTF:
		base := map[Op]uint32{
			OpFCVTZS: 0x1E380000, OpFCVTZU: 0x1E390000,
			OpSCVTF:  0x1E220000, OpUCVTF: 0x1E230000,
		}[in.Op]
		return sf | base | ftype(in, in.Size)<<22 | rn<<5 | rd

	case OpFMOVToGPR, OpFMOVFromGPR:
		if in.Sf != (in.Size == uint8(FPDouble)) {
			fail(in, "fmov between mismatched widths")
		}
		base := uint32(0x1E260000)
		if in.Op == OpFMOVFromGPR {
			base = 0x1E270000
		}
		return sf | base | ftype(in, in.Size)<<22 | rn<<5 | rd

	case OpLDRFP, OpSTRFP:
		scale := int64(1) << in.Size
		if in.Imm < 0 || in.Imm%scale != 0 || in.Imm/scale > 0xFFF {
			fail(in, "offset %d outside the scaled envelope", in.Imm)
		}
		size, opc := fpMemBits(in)
		return size<<30 | opc<<22 | 0x3D000000 | uint32(in.Imm/scale)<<10 | rn<<5 | rd

	case OpLDURFP, OpSTURFP:
		checkUnscaled(in)
		size, opc := fpMemBits(in)
		return size<<30 | opc<<22 | 0x3C000000 | (uint32(in.Imm)&0x1FF)<<12 | rn<<5 | rd

	case OpDUPElem:
		return 0x5E000400 | imm5(in, in.Index2)<<16 | rn<<5 | rd
	case OpINSElem:
		return 0x6E000400 | imm5(in, in.Index)<<16 | uint32(in.Index2)<<(11+in.Size) |
			rn<<5 | rd
	case OpINSGPR:
		return 0x4E001C00 | imm5(in, in.Index)<<16 | rn<<5 | rd
	case OpUMOV:
		return bit(in.Size == 3, 30) | 0x0E003C00 | imm5(in, in.Index2)<<16 | rn<<5 | rd

	case OpLD1Lane, OpST1Lane:
		if int(in.Index) >= ElemSize(in.Size).Lanes() {
			fail(in, "lane %d out of range", in.Index)
		}
		idx := uint32(in.Index)
		var q, sBit, size, opcode uint32
		switch in.Size {
		case 0:
			q, sBit, size = idx>>3, idx>>2&1, idx&3
		case 1:
			opcode = 2
			q, sBit, size = idx>>2, idx>>1&1, (idx&1)<<1
		case 2:
			opcode = 4
			q, sBit = idx>>1, idx&1
		default:
			opcode, size = 4, 1
			q = idx
		}
		return q<<30 | 0x0D000000 | bit(in.Op == OpLD1Lane, 22) | opcode<<13 |
			sBit<<12 | size<<10 | rn<<5 | rd

	case OpVADD, OpVSUB, OpVMUL:
		if in.Size > 3 || (in.Op == OpVMUL && in.Size == 3) || (!in.Q && in.Size == 3) {
			fail(in, "invalid arrangement")
		}
		base := map[Op]uint32{OpVADD: 0x0E208400, OpVSUB: 0x2E208400, OpVMUL: 0x0E209C00}[in.Op]
		return bit(in.Q, 30) | base | uint32(in.Size)<<22 | rm<<16 | rn<<5 | rd

	case OpVAND, OpVORR, OpVEOR, OpVBIC:
		base := map[Op]uint32{
			OpVAND: 0x0E201C00, OpVBIC: 0x0E601C00, OpVORR: 0x0EA01C00, OpVEOR: 0x2E201C00,
		}[in.Op]
		return bit(in.Q, 30) | base | rm<<16 | rn<<5 | rd

	case OpVFADD, OpVFSUB, OpVFMUL:
		if in.Size != 2 && !(in.Size == 3 && in.Q) {
			fail(in, "invalid floating-point arrangement")
		}
		base := map[Op]uint32{OpVFADD: 0x0E20D400, OpVFSUB: 0x0EA0D400, OpVFMUL: 0x2E20DC00}[in.Op]
		return bit(in.Q, 30) | base | uint32(in.Size-2)<<22 | rm<<16 | rn<<5 | rd
	}

	fail(in, "unknown op")
	return 0
}

func checkAmount(in Inst) {
	if (!in.Sf && in.Amount > 31) || in.Amount > 63 {
		fail(in, "shift amount %d out of range", in.Amount)
	}
}

func checkUnscaled(in Inst) {
	if in.Imm < -256 || in.Imm > 255 {
		fail(in, "offset %d outside the unscaled envelope", in.Imm)
	}
}

func checkBranch(in Inst, width uint) {
	lim := int64(1) << (width - 1)
	if in.Imm < -lim || in.Imm >= lim {
		fail(in, "branch offset %d out of range", in.Imm)
	}
}

func logicalOpc(op Op) (opc uint32, neg bool) {
	switch op {
	case OpAND, OpANDImm:
		return 0, false
	case OpBIC:
		return 0, true
	case OpORR, OpORRImm:
		return 1, false
	case OpORN:
		return 1, true
	case OpEOR, OpEORImm:
		return 2, false
	default:
		return 2, true
	}
}

// memOpc selects STR/LDR/LDRS for integer loads and stores.
func memOpc(in Inst) uint32 {
	if in.Op.IsStore() {
		return 0
	}
	if !in.Signed {
		return 1
	}
	if in.Size == 3 {
		fail(in, "signed doubleword load")
	}
	if in.Sf {
		return 2
	}
	if in.Size == 2 {
		fail(in, "ldrsw needs an X destination")
	}
	return 3
}

func ftype(in Inst, size uint8) uint32 {
	switch FPSize(size) {
	case FPSingle:
		return 0
	case FPDouble:
		return 1
	}
	fail(in, "floating-point size %d", size)
	return 0
}

func fpMemBits(in Inst) (size, opc uint32) {
	load := in.Op == OpLDRFP || in.Op == OpLDURFP
	switch in.Size {
	case 2, 3:
		size = uint32(in.Size)
	case 4:
		size, opc = 0, 2
	default:
		fail(in, "floating-point access size %d", in.Size)
	}
	if load {
		opc |= 1
	}
	return size, opc
}

func imm5(in Inst, idx uint8) uint32 {
	if in.Size > 3 || int(idx) >= ElemSize(in.Size).Lanes() {
		fail(in, "lane %d of size %d out of range", idx, in.Size)
	}
	return uint32(idx)<<(in.Size+1) | 1<<in.Size
}

// AppendCode appends the little-endian machine words of insts to dst.
func AppendCode(dst []byte, insts []Inst) []byte {
	for _, in := range insts {
		dst = binary.LittleEndian.AppendUint32(dst, Encode(in))
	}
	return dst
}
