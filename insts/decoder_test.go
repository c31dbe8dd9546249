package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armxlate/insts"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	DescribeTable("A32 encodings",
		func(raw uint32, want insts.Kind) {
			Expect(decoder.DecodeARM(raw)).To(Equal(want))
		},
		Entry("ADD r0, r1, #5", uint32(0xE2810005), insts.KindARMDataProcImm),
		Entry("MOV r0, #0xFF000000", uint32(0xE3A004FF), insts.KindARMDataProcImm),
		Entry("ADDS r0, r1, r2", uint32(0xE0910002), insts.KindARMDataProcReg),
		Entry("ADD r0, r1, r2, LSL r3", uint32(0xE0810312), insts.KindARMDataProcRegShift),
		Entry("MOVW r0, #0x1234", uint32(0xE3010234), insts.KindARMMovW),
		Entry("MOVT r0, #0x5678", uint32(0xE3450678), insts.KindARMMovT),
		Entry("MUL r0, r1, r2", uint32(0xE0000291), insts.KindARMMul),
		Entry("MLA r0, r1, r2, r3", uint32(0xE0203291), insts.KindARMMul),
		Entry("UMULL r0, r1, r2, r3", uint32(0xE0810392), insts.KindARMMulLong),
		Entry("SDIV r0, r1, r2", uint32(0xE710F211), insts.KindARMDiv),
		Entry("UDIV r0, r1, r2", uint32(0xE730F211), insts.KindARMDiv),
		Entry("CLZ r0, r1", uint32(0xE16F0F11), insts.KindARMCLZ),
		Entry("REV r0, r1", uint32(0xE6BF0F31), insts.KindARMRev),
		Entry("UXTB r0, r1", uint32(0xE6EF0071), insts.KindARMExtend),
		Entry("SXTH r0, r1", uint32(0xE6BF0071), insts.KindARMExtend),
		Entry("UBFX r0, r1, #4, #8", uint32(0xE7E70251), insts.KindARMBitfield),
		Entry("BFI r0, r1, #8, #4", uint32(0xE7CB0411), insts.KindARMBitfield),
		Entry("LDR r0, [r1, #8]", uint32(0xE5910008), insts.KindARMLoadStoreImm),
		Entry("STR r0, [r1, -r2, LSL #2]!", uint32(0xE7210102), insts.KindARMLoadStoreReg),
		Entry("LDRH r0, [r1, #2]", uint32(0xE1D100B2), insts.KindARMExtraLoadStoreImm),
		Entry("LDRD r2, [r1, r4]", uint32(0xE18120D4), insts.KindARMExtraLoadStoreReg),
		Entry("LDREX r0, [r1]", uint32(0xE1910F9F), insts.KindARMSync),
		Entry("STREX r2, r0, [r1]", uint32(0xE1812F90), insts.KindARMSync),
		Entry("LDMIA r0!, {r1-r3}", uint32(0xE8B0000E), insts.KindARMBlockTransfer),
		Entry("POP {r4, r5, pc}", uint32(0xE8BD8030), insts.KindARMBlockTransfer),
		Entry("B", uint32(0xEA000000), insts.KindARMBranch),
		Entry("BL", uint32(0xEB000000), insts.KindARMBranch),
		Entry("BLX imm", uint32(0xFA000000), insts.KindARMBLXImm),
		Entry("BX lr", uint32(0xE12FFF1E), insts.KindARMBranchReg),
		Entry("BLX r3", uint32(0xE12FFF33), insts.KindARMBranchReg),
		Entry("SVC #0", uint32(0xEF000000), insts.KindARMSVC),
		Entry("BKPT #0x1234", uint32(0xE1212374), insts.KindARMBKPT),
		Entry("UDF #0", uint32(0xE7F000F0), insts.KindARMUDF),
		Entry("MRS r0, APSR", uint32(0xE10F0000), insts.KindARMMRS),
		Entry("MSR APSR_nzcvq, r0", uint32(0xE128F000), insts.KindARMMSR),
		Entry("MCR p15", uint32(0xEE070FBA), insts.KindARMCoproc),
		Entry("DMB ISH", uint32(0xF57FF05B), insts.KindARMBarrier),
		Entry("CLREX", uint32(0xF57FF01F), insts.KindARMBarrier),
		Entry("NOP", uint32(0xE320F000), insts.KindARMHint),
		Entry("VADD.F32 s0, s1, s2", uint32(0xEE300A81), insts.KindVFPDataProc),
		Entry("VMOV s0, r0", uint32(0xEE000A10), insts.KindVFPMovCoreSingle),
		Entry("VMOV r0, r1, d0", uint32(0xEC510B10), insts.KindVFPMovCorePair),
		Entry("VLDR d0, [r0, #8]", uint32(0xED900B02), insts.KindVFPLoadStore),
		Entry("VPUSH {d8-d9}", uint32(0xED2D8B04), insts.KindVFPLoadStoreMulti),
		Entry("VMRS APSR_nzcv, FPSCR", uint32(0xEEF1FA10), insts.KindVFPSysReg),
		Entry("VADD.I32 q0, q1, q2", uint32(0xF2220844), insts.KindNEONThreeSame),
		Entry("AESE.8 q0, q1", uint32(0xF3B00302), insts.KindNEONCrypto),
		Entry("VSEL", uint32(0xFE000A00), insts.KindVFPSelect),
		Entry("SWP", uint32(0xE1010092), insts.KindUndefined),
	)

	DescribeTable("Thumb 16-bit encodings",
		func(hw uint16, want insts.Kind) {
			kind, size := decoder.DecodeThumb(hw, 0)
			Expect(kind).To(Equal(want))
			Expect(size).To(Equal(2))
		},
		Entry("MOVS r0, #1", uint16(0x2001), insts.KindT16Imm8),
		Entry("ADDS r0, r1, #2", uint16(0x1C88), insts.KindT16AddSub3),
		Entry("LSLS r0, r1, #2", uint16(0x0088), insts.KindT16ShiftImm),
		Entry("ANDS r0, r1", uint16(0x4008), insts.KindT16ALU),
		Entry("MOV r8, r0", uint16(0x4680), insts.KindT16HiReg),
		Entry("BX lr", uint16(0x4770), insts.KindT16BranchReg),
		Entry("LDR r0, [pc, #4]", uint16(0x4801), insts.KindT16LoadLiteral),
		Entry("LDR r0, [r1, r2]", uint16(0x5888), insts.KindT16LoadStoreReg),
		Entry("LDR r0, [r1, #4]", uint16(0x6848), insts.KindT16LoadStoreImm),
		Entry("STRH r0, [r1, #2]", uint16(0x8048), insts.KindT16LoadStoreImm),
		Entry("STR r0, [sp, #4]", uint16(0x9001), insts.KindT16LoadStoreSP),
		Entry("ADR r0, #4", uint16(0xA001), insts.KindT16ADR),
		Entry("ADD r0, sp, #4", uint16(0xA801), insts.KindT16AddSP),
		Entry("SUB sp, #8", uint16(0xB082), insts.KindT16AdjustSP),
		Entry("CBZ r0", uint16(0xB110), insts.KindT16CBZ),
		Entry("SXTH r0, r1", uint16(0xB208), insts.KindT16Extend),
		Entry("REV r0, r1", uint16(0xBA08), insts.KindT16Rev),
		Entry("PUSH {r4, lr}", uint16(0xB510), insts.KindT16PushPop),
		Entry("POP {r4, pc}", uint16(0xBD10), insts.KindT16PushPop),
		Entry("IT EQ", uint16(0xBF08), insts.KindT16IT),
		Entry("NOP", uint16(0xBF00), insts.KindT16Hint),
		Entry("BKPT #0", uint16(0xBE00), insts.KindT16BKPT),
		Entry("CPSID i", uint16(0xB672), insts.KindT16CPS),
		Entry("LDMIA r0!, {r1, r2}", uint16(0xC806), insts.KindT16LoadStoreMulti),
		Entry("BEQ", uint16(0xD0FE), insts.KindT16CondBranch),
		Entry("UDF", uint16(0xDE00), insts.KindT16UDF),
		Entry("SVC", uint16(0xDF00), insts.KindT16SVC),
		Entry("B", uint16(0xE7FE), insts.KindT16Branch),
	)

	DescribeTable("Thumb 32-bit encodings",
		func(hw1, hw2 uint16, want insts.Kind) {
			kind, size := decoder.DecodeThumb(hw1, hw2)
			Expect(kind).To(Equal(want))
			Expect(size).To(Equal(4))
		},
		Entry("BL", uint16(0xF000), uint16(0xF800), insts.KindT32BL),
		Entry("BLX", uint16(0xF000), uint16(0xE800), insts.KindT32BL),
		Entry("B.W", uint16(0xF000), uint16(0xB800), insts.KindT32Branch),
		Entry("BEQ.W", uint16(0xF000), uint16(0x8000), insts.KindT32CondBranch),
		Entry("ADD.W r0, r1, #1", uint16(0xF101), uint16(0x0001), insts.KindT32DataProcModImm),
		Entry("MOVW r0, #0x1234", uint16(0xF241), uint16(0x2034), insts.KindT32PlainImm),
		Entry("UBFX r0, r1, #4, #8", uint16(0xF3C1), uint16(0x1007), insts.KindT32Bitfield),
		Entry("ORR.W r0, r1, r2, LSL #2", uint16(0xEA41), uint16(0x0082), insts.KindT32DataProcReg),
		Entry("LSL.W r0, r1, r2", uint16(0xFA01), uint16(0xF002), insts.KindT32ShiftReg),
		Entry("SXTH.W r0, r1", uint16(0xFA0F), uint16(0xF081), insts.KindT32Extend),
		Entry("REV.W r0, r1", uint16(0xFA91), uint16(0xF081), insts.KindT32Misc),
		Entry("CLZ r0, r1", uint16(0xFAB1), uint16(0xF081), insts.KindT32Misc),
		Entry("LDR.W r0, [r1, #8]", uint16(0xF8D1), uint16(0x0008), insts.KindT32LoadStoreImm12),
		Entry("LDR r0, [r1, #-4]", uint16(0xF851), uint16(0x0C04), insts.KindT32LoadStoreImm8),
		Entry("LDR.W r0, [r1, r2, LSL #2]", uint16(0xF851), uint16(0x0022), insts.KindT32LoadStoreReg),
		Entry("LDR.W r0, [pc, #8]", uint16(0xF8DF), uint16(0x0008), insts.KindT32LoadLiteral),
		Entry("PUSH.W {r4-r11, lr}", uint16(0xE92D), uint16(0x4FF0), insts.KindT32LoadStoreMulti),
		Entry("LDRD r0, r1, [r2, #8]", uint16(0xE9D2), uint16(0x0102), insts.KindT32LoadStoreDual),
		Entry("LDREX r0, [r1]", uint16(0xE851), uint16(0x0F00), insts.KindT32Exclusive),
		Entry("STREXB r2, r0, [r1]", uint16(0xE8C1), uint16(0x0F42), insts.KindT32Exclusive),
		Entry("TBB [r0, r1]", uint16(0xE8D0), uint16(0xF001), insts.KindUndefined),
		Entry("MUL r0, r1, r2", uint16(0xFB01), uint16(0xF002), insts.KindT32Mul),
		Entry("SMULL r0, r1, r2, r3", uint16(0xFB82), uint16(0x0103), insts.KindT32MulLong),
		Entry("SDIV r0, r1, r2", uint16(0xFB91), uint16(0xF0F2), insts.KindT32Div),
		Entry("DMB ISH", uint16(0xF3BF), uint16(0x8F5B), insts.KindT32Barrier),
		Entry("NOP.W", uint16(0xF3AF), uint16(0x8000), insts.KindT32Hint),
		Entry("MRS r0, APSR", uint16(0xF3EF), uint16(0x8000), insts.KindT32MRS),
		Entry("MSR APSR_nzcvq, r0", uint16(0xF380), uint16(0x8800), insts.KindT32MSR),
		Entry("UDF.W", uint16(0xF7F0), uint16(0xA000), insts.KindT32UDF),
		Entry("VADD.F32 s0, s1, s2", uint16(0xEE30), uint16(0x0A81), insts.KindVFPDataProc),
		Entry("VADD.I32 q0, q1, q2", uint16(0xEF22), uint16(0x0844), insts.KindNEONThreeSame),
	)

	It("should recognize 32-bit Thumb prefixes", func() {
		Expect(insts.IsThumb32(0xE7FE)).To(BeFalse())
		Expect(insts.IsThumb32(0xE800)).To(BeTrue())
		Expect(insts.IsThumb32(0xF000)).To(BeTrue())
		Expect(insts.IsThumb32(0xF800)).To(BeTrue())
	})

	It("should rewrite shared Thumb encodings in A32 form", func() {
		Expect(insts.SharedARMForm(0xEE300A81)).To(Equal(uint32(0xEE300A81)))
		Expect(insts.SharedARMForm(0xEF220844)).To(Equal(uint32(0xF2220844)))
		Expect(insts.SharedARMForm(0xFF220844)).To(Equal(uint32(0xF3220844)))
		Expect(insts.SharedARMForm(0xFE000A00)).To(Equal(uint32(0xFE000A00)))
	})

	It("should flag the backlog kinds", func() {
		Expect(insts.KindNEONCrypto.Backlog()).To(BeTrue())
		Expect(insts.KindNEONDotProduct.Backlog()).To(BeTrue())
		Expect(insts.KindVFPSelect.Backlog()).To(BeTrue())
		Expect(insts.KindARMDataProcImm.Backlog()).To(BeFalse())
	})

	It("should name every kind", func() {
		for k := insts.KindUndefined; k < insts.NumKinds; k++ {
			Expect(k.String()).NotTo(HavePrefix("Kind("))
		}
		Expect(insts.NumKinds.String()).To(HavePrefix("Kind("))
	})
})
