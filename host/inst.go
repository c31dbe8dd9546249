package host

import (
	"fmt"
	"slices"
	"strings"
)

// Op identifies a host instruction form.
type Op uint16

// Host instruction forms.
const (
	OpInvalid Op = iota

	// Integer data processing.
	OpADDImm
	OpSUBImm
	OpADDReg
	OpSUBReg
	OpADDExt
	OpSUBExt
	OpADC
	OpSBC
	OpAND
	OpBIC
	OpORR
	OpORN
	OpEOR
	OpEON
	OpANDImm
	OpORRImm
	OpEORImm
	OpMOVZ
	OpMOVN
	OpMOVK
	OpLSLV
	OpLSRV
	OpASRV
	OpRORV
	OpUBFM
	OpSBFM
	OpBFM
	OpEXTR
	OpMADD
	OpMSUB
	OpUMADDL
	OpSMADDL
	OpUDIV
	OpSDIV
	OpCLZ
	OpRBIT
	OpREV
	OpREV16
	OpCSEL
	OpCSINC
	OpCSINV
	OpCSNEG
	OpMRS
	OpMSR

	// Control flow.
	OpB
	OpBCond
	OpCBZ
	OpCBNZ
	OpBR
	OpRET
	OpBRK
	OpNOP

	// Integer memory access.
	OpLDR
	OpSTR
	OpLDUR
	OpSTUR
	OpLDRReg
	OpSTRReg
	OpLDP
	OpSTP
	OpLDXR
	OpLDAXR
	OpLDAR
	OpSTXR
	OpSTLXR
	OpSTLR
	OpLDXP
	OpLDAXP
	OpSTXP
	OpSTLXP
	OpCLREX
	OpDMB
	OpDSB
	OpISB

	// Scalar floating point.
	OpFADD
	OpFSUB
	OpFMUL
	OpFDIV
	OpFNMUL
	OpFMOV
	OpFABS
	OpFNEG
	OpFSQRT
	OpFCMP
	OpFCVT
	OpFCVTZS
	OpFCVTZU
	OpSCVTF
	OpUCVTF
	OpFMOVToGPR
	OpFMOVFromGPR
	OpLDRFP
	OpSTRFP
	OpLDURFP
	OpSTURFP

	// Lane moves and vector arithmetic.
	OpDUPElem
	OpINSElem
	OpINSGPR
	OpUMOV
	OpLD1Lane
	OpST1Lane
	OpVADD
	OpVSUB
	OpVMUL
	OpVAND
	OpVORR
	OpVEOR
	OpVBIC
	OpVFADD
	OpVFSUB
	OpVFMUL

	numOps
)

var opNames = [numOps]string{
	OpInvalid:     "invalid",
	OpADDImm:      "add",
	OpSUBImm:      "sub",
	OpADDReg:      "add",
	OpSUBReg:      "sub",
	OpADDExt:      "add",
	OpSUBExt:      "sub",
	OpADC:         "adc",
	OpSBC:         "sbc",
	OpAND:         "and",
	OpBIC:         "bic",
	OpORR:         "orr",
	OpORN:         "orn",
	OpEOR:         "eor",
	OpEON:         "eon",
	OpANDImm:      "and",
	OpORRImm:      "orr",
	OpEORImm:      "eor",
	OpMOVZ:        "movz",
	OpMOVN:        "movn",
	OpMOVK:        "movk",
	OpLSLV:        "lslv",
	OpLSRV:        "lsrv",
	OpASRV:        "asrv",
	OpRORV:        "rorv",
	OpUBFM:        "ubfm",
	OpSBFM:        "sbfm",
	OpBFM:         "bfm",
	OpEXTR:        "extr",
	OpMADD:        "madd",
	OpMSUB:        "msub",
	OpUMADDL:      "umaddl",
	OpSMADDL:      "smaddl",
	OpUDIV:        "udiv",
	OpSDIV:        "sdiv",
	OpCLZ:         "clz",
	OpRBIT:        "rbit",
	OpREV:         "rev",
	OpREV16:       "rev16",
	OpCSEL:        "csel",
	OpCSINC:       "csinc",
	OpCSINV:       "csinv",
	OpCSNEG:       "csneg",
	OpMRS:         "mrs",
	OpMSR:         "msr",
	OpB:           "b",
	OpBCond:       "b",
	OpCBZ:         "cbz",
	OpCBNZ:        "cbnz",
	OpBR:          "br",
	OpRET:         "ret",
	OpBRK:         "brk",
	OpNOP:         "nop",
	OpLDR:         "ldr",
	OpSTR:         "str",
	OpLDUR:        "ldur",
	OpSTUR:        "stur",
	OpLDRReg:      "ldr",
	OpSTRReg:      "str",
	OpLDP:         "ldp",
	OpSTP:         "stp",
	OpLDXR:        "ldxr",
	OpLDAXR:       "ldaxr",
	OpLDAR:        "ldar",
	OpSTXR:        "stxr",
	OpSTLXR:       "stlxr",
	OpSTLR:        "stlr",
	OpLDXP:        "ldxp",
	OpLDAXP:       "ldaxp",
	OpSTXP:        "stxp",
	OpSTLXP:       "stlxp",
	OpCLREX:       "clrex",
	OpDMB:         "dmb",
	OpDSB:         "dsb",
	OpISB:         "isb",
	OpFADD:        "fadd",
	OpFSUB:        "fsub",
	OpFMUL:        "fmul",
	OpFDIV:        "fdiv",
	OpFNMUL:       "fnmul",
	OpFMOV:        "fmov",
	OpFABS:        "fabs",
	OpFNEG:        "fneg",
	OpFSQRT:       "fsqrt",
	OpFCMP:        "fcmp",
	OpFCVT:        "fcvt",
	OpFCVTZS:      "fcvtzs",
	OpFCVTZU:      "fcvtzu",
	OpSCVTF:       "scvtf",
	OpUCVTF:       "ucvtf",
	OpFMOVToGPR:   "fmov",
	OpFMOVFromGPR: "fmov",
	OpLDRFP:       "ldr",
	OpSTRFP:       "str",
	OpLDURFP:      "ldur",
	OpSTURFP:      "stur",
	OpDUPElem:     "dup",
	OpINSElem:     "ins",
	OpINSGPR:      "ins",
	OpUMOV:        "umov",
	OpLD1Lane:     "ld1",
	OpST1Lane:     "st1",
	OpVADD:        "add",
	OpVSUB:        "sub",
	OpVMUL:        "mul",
	OpVAND:        "and",
	OpVORR:        "orr",
	OpVEOR:        "eor",
	OpVBIC:        "bic",
	OpVFADD:       "fadd",
	OpVFSUB:       "fsub",
	OpVFMUL:       "fmul",
}

func (op Op) String() string {
	if op < numOps && opNames[op] != "" {
		return opNames[op]
	}
	return fmt.Sprintf("op(%d)", uint16(op))
}

// IsBranch reports whether the op transfers control to a label.
func (op Op) IsBranch() bool {
	return op == OpB || op == OpBCond || op == OpCBZ || op == OpCBNZ
}

// IsLoad reports whether the op reads memory into a register.
func (op Op) IsLoad() bool {
	switch op {
	case OpLDR, OpLDUR, OpLDRReg, OpLDP, OpLDXR, OpLDAXR, OpLDAR, OpLDXP,
		OpLDAXP, OpLDRFP, OpLDURFP, OpLD1Lane:
		return true
	}
	return false
}

// IsStore reports whether the op writes memory.
func (op Op) IsStore() bool {
	switch op {
	case OpSTR, OpSTUR, OpSTRReg, OpSTP, OpSTXR, OpSTLXR, OpSTLR, OpSTXP,
		OpSTLXP, OpSTRFP, OpSTURFP, OpST1Lane:
		return true
	}
	return false
}

// Cond is an ARM condition code. Guest and host share the numbering.
type Cond uint8

// Condition codes.
const (
	CondEQ Cond = iota
	CondNE
	CondCS
	CondCC
	CondMI
	CondPL
	CondVS
	CondVC
	CondHI
	CondLS
	CondGE
	CondLT
	CondGT
	CondLE
	CondAL
	CondNV
)

// Invert returns the logically opposite condition.
func (c Cond) Invert() Cond { return c ^ 1 }

func (c Cond) String() string {
	return [...]string{
		"eq", "ne", "cs", "cc", "mi", "pl", "vs", "vc",
		"hi", "ls", "ge", "lt", "gt", "le", "al", "nv",
	}[c&15]
}

// Shift is a shifted-register operand shift type.
type Shift uint8

// Shift types.
const (
	ShiftLSL Shift = iota
	ShiftLSR
	ShiftASR
	ShiftROR
)

func (s Shift) String() string {
	return [...]string{"lsl", "lsr", "asr", "ror"}[s&3]
}

// Extend is an extended-register operand option.
type Extend uint8

// Extend options.
const (
	ExtUXTB Extend = iota
	ExtUXTH
	ExtUXTW
	ExtUXTX
	ExtSXTB
	ExtSXTH
	ExtSXTW
	ExtSXTX
)

func (e Extend) String() string {
	return [...]string{"uxtb", "uxth", "uxtw", "uxtx", "sxtb", "sxth", "sxtw", "sxtx"}[e&7]
}

// Barrier options for DMB and DSB.
const (
	BarrierISH = 0xB
	BarrierSY  = 0xF
)

// FCMP variants, stored in Inst.Imm.
const (
	FCmpZero   = 1
	FCmpSignal = 2
)

// Label is an assembler-local branch target.
type Label int

// NoLabel marks an instruction without a label operand.
const NoLabel Label = -1

// Inst is one structured host instruction.
//
// Field use by family:
//   - data processing: Rd, Rn, Rm, Ra; Imm/Imm2 carry immediates (Imm2 is imms
//     for bitfield moves); Shift/Amount or Ext/Amount qualify Rm.
//   - memory: Rd is the transfer register, Rn the base, Rm the index or the
//     exclusive status register, Ra the second transfer register of a pair.
//     Size is log2 of the access width; Signed selects sign extension.
//   - floating point: Size is the FPSize; FCVT keeps the source size in Imm.
//   - lanes and vectors: Size is the element size, Index/Index2 the lanes.
//   - branches: Label names the target; Imm holds the resolved offset in
//     instructions once the label is bound.
type Inst struct {
	Op     Op
	Sf     bool
	S      bool
	Rd     uint8
	Rn     uint8
	Rm     uint8
	Ra     uint8
	Imm    int64
	Imm2   int64
	Shift  Shift
	Amount uint8
	Ext    Extend
	Cond   Cond
	Size   uint8
	Signed bool
	Q      bool
	Index  uint8
	Index2 uint8
	Label  Label
}

func (in Inst) gpr(n uint8) string {
	return GPR{N: n, Is64: in.Sf}.String()
}

func (in Inst) fp(n uint8, size uint8) string {
	return fmt.Sprintf("%s%d", [...]string{"b", "h", "s", "d", "q"}[size%5], n)
}

func (in Inst) mnemonic() string {
	name := in.Op.String()
	if in.S {
		switch in.Op {
		case OpADDImm, OpSUBImm, OpADDReg, OpSUBReg, OpADDExt, OpSUBExt,
			OpADC, OpSBC, OpAND, OpBIC, OpANDImm:
			name += "s"
		}
	}
	return name
}

func memSuffix(size uint8, signed bool) string {
	s := ""
	if signed {
		s = "s"
	}
	switch size {
	case 0:
		return s + "b"
	case 1:
		return s + "h"
	case 2:
		if signed {
			return "sw"
		}
	}
	return ""
}

// String renders the instruction in assembler syntax.
func (in Inst) String() string {
	m := in.mnemonic()
	switch in.Op {
	case OpADDImm, OpSUBImm:
		return fmt.Sprintf("%s %s, %s, #%d", m, in.gpr(in.Rd), in.gpr(in.Rn), in.Imm)
	case OpADDReg, OpSUBReg, OpAND, OpBIC, OpORR, OpORN, OpEOR, OpEON:
		s := fmt.Sprintf("%s %s, %s, %s", m, in.gpr(in.Rd), in.gpr(in.Rn), in.gpr(in.Rm))
		if in.Amount != 0 {
			s += fmt.Sprintf(", %s #%d", in.Shift, in.Amount)
		}
		return s
	case OpADDExt, OpSUBExt:
		rm := W(in.Rm)
		if in.Ext == ExtUXTX || in.Ext == ExtSXTX {
			rm = X(in.Rm)
		}
		s := fmt.Sprintf("%s %s, %s, %s, %s", m, in.gpr(in.Rd), in.gpr(in.Rn), rm, in.Ext)
		if in.Amount != 0 {
			s += fmt.Sprintf(" #%d", in.Amount)
		}
		return s
	case OpADC, OpSBC, OpLSLV, OpLSRV, OpASRV, OpRORV, OpUDIV, OpSDIV:
		return fmt.Sprintf("%s %s, %s, %s", m, in.gpr(in.Rd), in.gpr(in.Rn), in.gpr(in.Rm))
	case OpANDImm, OpORRImm, OpEORImm:
		return fmt.Sprintf("%s %s, %s, #0x%x", m, in.gpr(in.Rd), in.gpr(in.Rn), uint64(in.Imm))
	case OpMOVZ, OpMOVN, OpMOVK:
		s := fmt.Sprintf("%s %s, #0x%x", m, in.gpr(in.Rd), in.Imm)
		if in.Amount != 0 {
			s += fmt.Sprintf(", lsl #%d", in.Amount)
		}
		return s
	case OpUBFM, OpSBFM, OpBFM:
		return fmt.Sprintf("%s %s, %s, #%d, #%d", m, in.gpr(in.Rd), in.gpr(in.Rn), in.Imm, in.Imm2)
	case OpEXTR:
		return fmt.Sprintf("%s %s, %s, %s, #%d", m, in.gpr(in.Rd), in.gpr(in.Rn), in.gpr(in.Rm), in.Amount)
	case OpMADD, OpMSUB:
		return fmt.Sprintf("%s %s, %s, %s, %s", m, in.gpr(in.Rd), in.gpr(in.Rn), in.gpr(in.Rm), in.gpr(in.Ra))
	case OpUMADDL, OpSMADDL:
		return fmt.Sprintf("%s %s, %s, %s, %s", m, X(in.Rd), W(in.Rn), W(in.Rm), X(in.Ra))
	case OpCLZ, OpRBIT, OpREV, OpREV16:
		return fmt.Sprintf("%s %s, %s", m, in.gpr(in.Rd), in.gpr(in.Rn))
	case OpCSEL, OpCSINC, OpCSINV, OpCSNEG:
		return fmt.Sprintf("%s %s, %s, %s, %s", m, in.gpr(in.Rd), in.gpr(in.Rn), in.gpr(in.Rm), in.Cond)
	case OpMRS:
		return fmt.Sprintf("mrs %s, nzcv", X(in.Rd))
	case OpMSR:
		return fmt.Sprintf("msr nzcv, %s", X(in.Rd))
	case OpB:
		return fmt.Sprintf("b L%d", in.Label)
	case OpBCond:
		return fmt.Sprintf("b.%s L%d", in.Cond, in.Label)
	case OpCBZ, OpCBNZ:
		return fmt.Sprintf("%s %s, L%d", m, in.gpr(in.Rd), in.Label)
	case OpBR:
		return fmt.Sprintf("br %s", X(in.Rn))
	case OpRET, OpNOP, OpCLREX, OpISB:
		return m
	case OpBRK:
		return fmt.Sprintf("brk #0x%x", in.Imm)
	case OpDMB, OpDSB:
		opt := "sy"
		if in.Imm == BarrierISH {
			opt = "ish"
		}
		return fmt.Sprintf("%s %s", m, opt)
	case OpLDR, OpSTR, OpLDUR, OpSTUR:
		return fmt.Sprintf("%s%s %s, [%s, #%d]", m, memSuffix(in.Size, in.Signed), in.gpr(in.Rd), X(in.Rn), in.Imm)
	case OpLDRReg, OpSTRReg:
		s := fmt.Sprintf("%s%s %s, [%s, %s", m, memSuffix(in.Size, in.Signed), in.gpr(in.Rd), X(in.Rn), X(in.Rm))
		if in.Amount != 0 {
			s += fmt.Sprintf(", lsl #%d", in.Amount)
		}
		return s + "]"
	case OpLDP, OpSTP:
		return fmt.Sprintf("%s %s, %s, [%s, #%d]", m, in.gpr(in.Rd), in.gpr(in.Ra), X(in.Rn), in.Imm)
	case OpLDXR, OpLDAXR, OpLDAR, OpSTLR:
		return fmt.Sprintf("%s%s %s, [%s]", m, memSuffix(in.Size, false), in.gpr(in.Rd), X(in.Rn))
	case OpSTXR, OpSTLXR:
		return fmt.Sprintf("%s%s %s, %s, [%s]", m, memSuffix(in.Size, false), W(in.Rm), in.gpr(in.Rd), X(in.Rn))
	case OpLDXP, OpLDAXP:
		return fmt.Sprintf("%s %s, %s, [%s]", m, in.gpr(in.Rd), in.gpr(in.Ra), X(in.Rn))
	case OpSTXP, OpSTLXP:
		return fmt.Sprintf("%s %s, %s, %s, [%s]", m, W(in.Rm), in.gpr(in.Rd), in.gpr(in.Ra), X(in.Rn))
	case OpFADD, OpFSUB, OpFMUL, OpFDIV, OpFNMUL:
		return fmt.Sprintf("%s %s, %s, %s", m, in.fp(in.Rd, in.Size), in.fp(in.Rn, in.Size), in.fp(in.Rm, in.Size))
	case OpFMOV, OpFABS, OpFNEG, OpFSQRT:
		return fmt.Sprintf("%s %s, %s", m, in.fp(in.Rd, in.Size), in.fp(in.Rn, in.Size))
	case OpFCMP:
		if in.Imm&FCmpSignal != 0 {
			m = "fcmpe"
		}
		if in.Imm&FCmpZero != 0 {
			return fmt.Sprintf("%s %s, #0.0", m, in.fp(in.Rn, in.Size))
		}
		return fmt.Sprintf("%s %s, %s", m, in.fp(in.Rn, in.Size), in.fp(in.Rm, in.Size))
	case OpFCVT:
		return fmt.Sprintf("%s %s, %s", m, in.fp(in.Rd, in.Size), in.fp(in.Rn, uint8(in.Imm)))
	case OpFCVTZS, OpFCVTZU:
		return fmt.Sprintf("%s %s, %s", m, in.gpr(in.Rd), in.fp(in.Rn, in.Size))
	case OpSCVTF, OpUCVTF:
		return fmt.Sprintf("%s %s, %s", m, in.fp(in.Rd, in.Size), in.gpr(in.Rn))
	case OpFMOVToGPR:
		return fmt.Sprintf("%s %s, %s", m, in.gpr(in.Rd), in.fp(in.Rn, in.Size))
	case OpFMOVFromGPR:
		return fmt.Sprintf("%s %s, %s", m, in.fp(in.Rd, in.Size), in.gpr(in.Rn))
	case OpLDRFP, OpSTRFP, OpLDURFP, OpSTURFP:
		return fmt.Sprintf("%s %s, [%s, #%d]", m, in.fp(in.Rd, in.Size), X(in.Rn), in.Imm)
	case OpDUPElem:
		return fmt.Sprintf("%s %s, v%d.%s[%d]", m, in.fp(in.Rd, in.Size), in.Rn, ElemSize(in.Size).suffix(), in.Index2)
	case OpINSElem:
		sfx := ElemSize(in.Size).suffix()
		return fmt.Sprintf("%s v%d.%s[%d], v%d.%s[%d]", m, in.Rd, sfx, in.Index, in.Rn, sfx, in.Index2)
	case OpINSGPR:
		return fmt.Sprintf("%s v%d.%s[%d], %s", m, in.Rd, ElemSize(in.Size).suffix(), in.Index, GPR{N: in.Rn, Is64: in.Size == 3})
	case OpUMOV:
		return fmt.Sprintf("%s %s, v%d.%s[%d]", m, GPR{N: in.Rd, Is64: in.Size == 3}, in.Rn, ElemSize(in.Size).suffix(), in.Index2)
	case OpLD1Lane, OpST1Lane:
		return fmt.Sprintf("%s {v%d.%s}[%d], [%s]", m, in.Rd, ElemSize(in.Size).suffix(), in.Index, X(in.Rn))
	case OpVADD, OpVSUB, OpVMUL, OpVAND, OpVORR, OpVEOR, OpVBIC, OpVFADD, OpVFSUB, OpVFMUL:
		arr := Arr(ElemSize(in.Size), in.Q)
		switch in.Op {
		case OpVAND, OpVORR, OpVEOR, OpVBIC:
			arr = Arr(Elem8, in.Q)
		}
		return fmt.Sprintf("%s v%d.%s, v%d.%s, v%d.%s", m, in.Rd, arr, in.Rn, arr, in.Rm, arr)
	}
	return m
}

// Listing renders a sequence one instruction per line, with label markers.
func Listing(insts []Inst, labels map[Label]int) string {
	at := make(map[int][]Label, len(labels))
	for l, idx := range labels {
		at[idx] = append(at[idx], l)
	}
	var sb strings.Builder
	for i := 0; i <= len(insts); i++ {
		slices.Sort(at[i])
		for _, l := range at[i] {
			fmt.Fprintf(&sb, "L%d:\n", l)
		}
		if i < len(insts) {
			fmt.Fprintf(&sb, "\t%s\n", insts[i])
		}
	}
	return sb.String()
}
