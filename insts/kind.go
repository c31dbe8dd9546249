package insts

import "fmt"

// Kind identifies the encoding family of a guest instruction. The set is
// closed: the translator holds one handler per Kind.
type Kind uint16

// Instruction kinds.
const (
	KindUndefined Kind = iota

	// A32.
	KindARMDataProcImm
	KindARMDataProcReg
	KindARMDataProcRegShift
	KindARMMovW
	KindARMMovT
	KindARMMul
	KindARMMulLong
	KindARMDiv
	KindARMCLZ
	KindARMRev
	KindARMExtend
	KindARMBitfield
	KindARMLoadStoreImm
	KindARMLoadStoreReg
	KindARMExtraLoadStoreImm
	KindARMExtraLoadStoreReg
	KindARMSync
	KindARMBlockTransfer
	KindARMBranch
	KindARMBLXImm
	KindARMBranchReg
	KindARMSVC
	KindARMBKPT
	KindARMUDF
	KindARMMRS
	KindARMMSR
	KindARMCoproc
	KindARMBarrier
	KindARMHint
	KindARMCPS

	// VFP and Advanced SIMD, shared by A32 and Thumb-2.
	KindVFPDataProc
	KindVFPMovCoreSingle
	KindVFPMovCorePair
	KindVFPLoadStore
	KindVFPLoadStoreMulti
	KindVFPSysReg
	KindNEONThreeSame

	// Recognized but not yet translated.
	KindNEONCrypto
	KindNEONDotProduct
	KindVFPSelect

	// Thumb 16-bit.
	KindT16ShiftImm
	KindT16AddSub3
	KindT16Imm8
	KindT16ALU
	KindT16HiReg
	KindT16BranchReg
	KindT16LoadLiteral
	KindT16LoadStoreReg
	KindT16LoadStoreImm
	KindT16LoadStoreSP
	KindT16ADR
	KindT16AddSP
	KindT16AdjustSP
	KindT16CBZ
	KindT16Extend
	KindT16Rev
	KindT16PushPop
	KindT16IT
	KindT16Hint
	KindT16BKPT
	KindT16CPS
	KindT16LoadStoreMulti
	KindT16CondBranch
	KindT16SVC
	KindT16UDF
	KindT16Branch

	// Thumb 32-bit.
	KindT32BL
	KindT32CondBranch
	KindT32Branch
	KindT32DataProcModImm
	KindT32PlainImm
	KindT32Bitfield
	KindT32DataProcReg
	KindT32ShiftReg
	KindT32Extend
	KindT32Misc
	KindT32LoadStoreImm12
	KindT32LoadStoreImm8
	KindT32LoadStoreReg
	KindT32LoadLiteral
	KindT32LoadStoreMulti
	KindT32LoadStoreDual
	KindT32Exclusive
	KindT32Mul
	KindT32MulLong
	KindT32Div
	KindT32Barrier
	KindT32Hint
	KindT32UDF
	KindT32MRS
	KindT32MSR

	NumKinds
)

var kindNames = [NumKinds]string{
	KindUndefined:            "Undefined",
	KindARMDataProcImm:       "ARMDataProcImm",
	KindARMDataProcReg:       "ARMDataProcReg",
	KindARMDataProcRegShift:  "ARMDataProcRegShift",
	KindARMMovW:              "ARMMovW",
	KindARMMovT:              "ARMMovT",
	KindARMMul:               "ARMMul",
	KindARMMulLong:           "ARMMulLong",
	KindARMDiv:               "ARMDiv",
	KindARMCLZ:               "ARMCLZ",
	KindARMRev:               "ARMRev",
	KindARMExtend:            "ARMExtend",
	KindARMBitfield:          "ARMBitfield",
	KindARMLoadStoreImm:      "ARMLoadStoreImm",
	KindARMLoadStoreReg:      "ARMLoadStoreReg",
	KindARMExtraLoadStoreImm: "ARMExtraLoadStoreImm",
	KindARMExtraLoadStoreReg: "ARMExtraLoadStoreReg",
	KindARMSync:              "ARMSync",
	KindARMBlockTransfer:     "ARMBlockTransfer",
	KindARMBranch:            "ARMBranch",
	KindARMBLXImm:            "ARMBLXImm",
	KindARMBranchReg:         "ARMBranchReg",
	KindARMSVC:               "ARMSVC",
	KindARMBKPT:              "ARMBKPT",
	KindARMUDF:               "ARMUDF",
	KindARMMRS:               "ARMMRS",
	KindARMMSR:               "ARMMSR",
	KindARMCoproc:            "ARMCoproc",
	KindARMBarrier:           "ARMBarrier",
	KindARMHint:              "ARMHint",
	KindARMCPS:               "ARMCPS",
	KindVFPDataProc:          "VFPDataProc",
	KindVFPMovCoreSingle:     "VFPMovCoreSingle",
	KindVFPMovCorePair:       "VFPMovCorePair",
	KindVFPLoadStore:         "VFPLoadStore",
	KindVFPLoadStoreMulti:    "VFPLoadStoreMulti",
	KindVFPSysReg:            "VFPSysReg",
	KindNEONThreeSame:        "NEONThreeSame",
	KindNEONCrypto:           "NEONCrypto",
	KindNEONDotProduct:       "NEONDotProduct",
	KindVFPSelect:            "VFPSelect",
	KindT16ShiftImm:          "T16ShiftImm",
	KindT16AddSub3:           "T16AddSub3",
	KindT16Imm8:              "T16Imm8",
	KindT16ALU:               "T16ALU",
	KindT16HiReg:             "T16HiReg",
	KindT16BranchReg:         "T16BranchReg",
	KindT16LoadLiteral:       "T16LoadLiteral",
	KindT16LoadStoreReg:      "T16LoadStoreReg",
	KindT16LoadStoreImm:      "T16LoadStoreImm",
	KindT16LoadStoreSP:       "T16LoadStoreSP",
	KindT16ADR:               "T16ADR",
	KindT16AddSP:             "T16AddSP",
	KindT16AdjustSP:          "T16AdjustSP",
	KindT16CBZ:               "T16CBZ",
	KindT16Extend:            "T16Extend",
	KindT16Rev:               "T16Rev",
	KindT16PushPop:           "T16PushPop",
	KindT16IT:                "T16IT",
	KindT16Hint:              "T16Hint",
	KindT16BKPT:              "T16BKPT",
	KindT16CPS:               "T16CPS",
	KindT16LoadStoreMulti:    "T16LoadStoreMulti",
	KindT16CondBranch:        "T16CondBranch",
	KindT16SVC:               "T16SVC",
	KindT16UDF:               "T16UDF",
	KindT16Branch:            "T16Branch",
	KindT32BL:                "T32BL",
	KindT32CondBranch:        "T32CondBranch",
	KindT32Branch:            "T32Branch",
	KindT32DataProcModImm:    "T32DataProcModImm",
	KindT32PlainImm:          "T32PlainImm",
	KindT32Bitfield:          "T32Bitfield",
	KindT32DataProcReg:       "T32DataProcReg",
	KindT32ShiftReg:          "T32ShiftReg",
	KindT32Extend:            "T32Extend",
	KindT32Misc:              "T32Misc",
	KindT32LoadStoreImm12:    "T32LoadStoreImm12",
	KindT32LoadStoreImm8:     "T32LoadStoreImm8",
	KindT32LoadStoreReg:      "T32LoadStoreReg",
	KindT32LoadLiteral:       "T32LoadLiteral",
	KindT32LoadStoreMulti:    "T32LoadStoreMulti",
	KindT32LoadStoreDual:     "T32LoadStoreDual",
	KindT32Exclusive:         "T32Exclusive",
	KindT32Mul:               "T32Mul",
	KindT32MulLong:           "T32MulLong",
	KindT32Div:               "T32Div",
	KindT32Barrier:           "T32Barrier",
	KindT32Hint:              "T32Hint",
	KindT32UDF:               "T32UDF",
	KindT32MRS:               "T32MRS",
	KindT32MSR:               "T32MSR",
}

func (k Kind) String() string {
	if k < NumKinds && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint16(k))
}

// Backlog reports whether the kind is recognized but has no translation.
func (k Kind) Backlog() bool {
	return k == KindNEONCrypto || k == KindNEONDotProduct || k == KindVFPSelect
}

// Cond is an A32 condition code.
type Cond uint8

// A32 condition codes.
const (
	CondEQ Cond = 0b0000 // Equal (Z == 1)
	CondNE Cond = 0b0001 // Not Equal (Z == 0)
	CondCS Cond = 0b0010 // Carry Set / Unsigned higher or same (C == 1)
	CondCC Cond = 0b0011 // Carry Clear / Unsigned lower (C == 0)
	CondMI Cond = 0b0100 // Minus / Negative (N == 1)
	CondPL Cond = 0b0101 // Plus / Positive or zero (N == 0)
	CondVS Cond = 0b0110 // Overflow (V == 1)
	CondVC Cond = 0b0111 // No overflow (V == 0)
	CondHI Cond = 0b1000 // Unsigned higher (C == 1 && Z == 0)
	CondLS Cond = 0b1001 // Unsigned lower or same (C == 0 || Z == 1)
	CondGE Cond = 0b1010 // Signed greater than or equal (N == V)
	CondLT Cond = 0b1011 // Signed less than (N != V)
	CondGT Cond = 0b1100 // Signed greater than (Z == 0 && N == V)
	CondLE Cond = 0b1101 // Signed less than or equal (Z == 1 || N != V)
	CondAL Cond = 0b1110 // Always (unconditional)
	CondNV Cond = 0b1111 // Unconditional instruction space
)

// ShiftType is an A32 immediate or register shift type.
type ShiftType uint8

// Shift types.
const (
	ShiftLSL ShiftType = 0b00 // Logical shift left
	ShiftLSR ShiftType = 0b01 // Logical shift right
	ShiftASR ShiftType = 0b10 // Arithmetic shift right
	ShiftROR ShiftType = 0b11 // Rotate right (RRX when the amount is zero)
)

// A32 data-processing opcodes.
const (
	OpAND uint8 = 0b0000
	OpEOR uint8 = 0b0001
	OpSUB uint8 = 0b0010
	OpRSB uint8 = 0b0011
	OpADD uint8 = 0b0100
	OpADC uint8 = 0b0101
	OpSBC uint8 = 0b0110
	OpRSC uint8 = 0b0111
	OpTST uint8 = 0b1000
	OpTEQ uint8 = 0b1001
	OpCMP uint8 = 0b1010
	OpCMN uint8 = 0b1011
	OpORR uint8 = 0b1100
	OpMOV uint8 = 0b1101
	OpBIC uint8 = 0b1110
	OpMVN uint8 = 0b1111
)

// Thumb-2 data-processing opcodes. TST, TEQ, CMN and CMP are the AND, EOR,
// ADD and SUB forms with Rd == 15; MOV and MVN are ORR and ORN with Rn == 15.
const (
	T32OpAND uint8 = 0b0000
	T32OpBIC uint8 = 0b0001
	T32OpORR uint8 = 0b0010
	T32OpORN uint8 = 0b0011
	T32OpEOR uint8 = 0b0100
	T32OpADD uint8 = 0b1000
	T32OpADC uint8 = 0b1010
	T32OpSBC uint8 = 0b1011
	T32OpSUB uint8 = 0b1101
	T32OpRSB uint8 = 0b1110
)
