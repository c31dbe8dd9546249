package xlate

import "github.com/sarchlab/armxlate/insts"

// handler translates one guest instruction of a known kind.
type handler func(c *Context, raw uint32) error

// handlers maps every instruction kind to its translation. Kinds left nil
// are reported as unimplemented.
var handlers = [insts.NumKinds]handler{
	insts.KindARMDataProcImm:       translateARMDataProcImm,
	insts.KindARMDataProcReg:       translateARMDataProcReg,
	insts.KindARMDataProcRegShift:  translateARMDataProcRegShift,
	insts.KindARMMovW:              translateARMMovW,
	insts.KindARMMovT:              translateARMMovT,
	insts.KindARMMul:               translateARMMul,
	insts.KindARMMulLong:           translateARMMulLong,
	insts.KindARMDiv:               translateARMDiv,
	insts.KindARMCLZ:               translateARMCLZ,
	insts.KindARMRev:               translateARMRev,
	insts.KindARMExtend:            translateARMExtend,
	insts.KindARMBitfield:          translateARMBitfield,
	insts.KindARMLoadStoreImm:      translateARMLoadStoreImm,
	insts.KindARMLoadStoreReg:      translateARMLoadStoreReg,
	insts.KindARMExtraLoadStoreImm: translateARMExtraLoadStoreImm,
	insts.KindARMExtraLoadStoreReg: translateARMExtraLoadStoreReg,
	insts.KindARMSync:              translateARMSync,
	insts.KindARMBlockTransfer:     translateARMBlockTransfer,
	insts.KindARMBranch:            translateARMBranch,
	insts.KindARMBLXImm:            translateARMBLXImm,
	insts.KindARMBranchReg:         translateARMBranchReg,
	insts.KindARMSVC:               translateARMSVC,
	insts.KindARMBKPT:              translateARMBKPT,
	insts.KindARMUDF:               translateARMUDF,
	insts.KindARMMRS:               translateARMMRS,
	insts.KindARMMSR:               translateARMMSR,
	insts.KindARMCoproc:            translateARMCoproc,
	insts.KindARMBarrier:           translateARMBarrier,
	insts.KindARMHint:              translateARMHint,
	insts.KindARMCPS:               translateSystem,

	insts.KindVFPDataProc:       translateVFPDataProc,
	insts.KindVFPMovCoreSingle:  translateVFPMovCoreSingle,
	insts.KindVFPMovCorePair:    translateVFPMovCorePair,
	insts.KindVFPLoadStore:      translateVFPLoadStore,
	insts.KindVFPLoadStoreMulti: translateVFPLoadStoreMulti,
	insts.KindVFPSysReg:         translateVFPSysReg,
	insts.KindNEONThreeSame:     translateNEONThreeSame,

	insts.KindT16ShiftImm:       translateT16ShiftImm,
	insts.KindT16AddSub3:        translateT16AddSub3,
	insts.KindT16Imm8:           translateT16Imm8,
	insts.KindT16ALU:            translateT16ALU,
	insts.KindT16HiReg:          translateT16HiReg,
	insts.KindT16BranchReg:      translateT16BranchReg,
	insts.KindT16LoadLiteral:    translateT16LoadLiteral,
	insts.KindT16LoadStoreReg:   translateT16LoadStoreReg,
	insts.KindT16LoadStoreImm:   translateT16LoadStoreImm,
	insts.KindT16LoadStoreSP:    translateT16LoadStoreSP,
	insts.KindT16ADR:            translateT16ADR,
	insts.KindT16AddSP:          translateT16ADR,
	insts.KindT16AdjustSP:       translateT16AdjustSP,
	insts.KindT16CBZ:            translateT16CBZ,
	insts.KindT16Extend:         translateT16Extend,
	insts.KindT16Rev:            translateT16Rev,
	insts.KindT16PushPop:        translateT16PushPop,
	insts.KindT16IT:             translateT16IT,
	insts.KindT16Hint:           translateT16Hint,
	insts.KindT16BKPT:           translateT16BKPT,
	insts.KindT16CPS:            translateSystem,
	insts.KindT16LoadStoreMulti: translateT16LoadStoreMulti,
	insts.KindT16CondBranch:     translateT16CondBranch,
	insts.KindT16SVC:            translateT16SVC,
	insts.KindT16UDF:            translateT16UDF,
	insts.KindT16Branch:         translateT16Branch,

	insts.KindT32BL:             translateT32BL,
	insts.KindT32CondBranch:     translateT32CondBranch,
	insts.KindT32Branch:         translateT32Branch,
	insts.KindT32DataProcModImm: translateT32DataProcModImm,
	insts.KindT32PlainImm:       translateT32PlainImm,
	insts.KindT32Bitfield:       translateT32Bitfield,
	insts.KindT32DataProcReg:    translateT32DataProcReg,
	insts.KindT32ShiftReg:       translateT32ShiftReg,
	insts.KindT32Extend:         translateT32Extend,
	insts.KindT32Misc:           translateT32Misc,
	insts.KindT32LoadStoreImm12: translateT32LoadStoreImm12,
	insts.KindT32LoadStoreImm8:  translateT32LoadStoreImm8,
	insts.KindT32LoadStoreReg:   translateT32LoadStoreReg,
	insts.KindT32LoadLiteral:    translateT32LoadLiteral,
	insts.KindT32LoadStoreMulti: translateT32LoadStoreMulti,
	insts.KindT32LoadStoreDual:  translateT32LoadStoreDual,
	insts.KindT32Exclusive:      translateT32Exclusive,
	insts.KindT32Mul:            translateT32Mul,
	insts.KindT32MulLong:        translateT32MulLong,
	insts.KindT32Div:            translateT32Div,
	insts.KindT32Barrier:        translateT32Barrier,
	insts.KindT32Hint:           translateT32Hint,
	insts.KindT32UDF:            translateT32UDF,
	insts.KindT32MRS:            translateT32MRS,
	insts.KindT32MSR:            translateT32MSR,
}

// dispatch translates the instruction the context has begun.
func (c *Context) dispatch() error {
	h := handlers[c.kind]
	if h == nil {
		return c.unimplemented()
	}
	return h(c, c.raw)
}
