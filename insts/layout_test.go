package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armxlate/insts"
)

var _ = Describe("Layout", func() {
	It("should have non-overlapping fields in every layout", func() {
		for _, l := range insts.Layouts {
			Expect(l.Validate()).To(Succeed(), l.Name)
		}
	})

	It("should split every layout into fixed and field bits", func() {
		for _, l := range insts.Layouts {
			full := uint32(0xFFFFFFFF)
			if l.Width == 16 {
				full = 0xFFFF
			}
			Expect(l.FixedMask()&l.FieldMask()).To(BeZero(), l.Name)
			Expect(l.FixedMask()|l.FieldMask()).To(Equal(full), l.Name)
			Expect(l.Fixed&^l.FixedMask()).To(BeZero(), l.Name)
		}
	})

	It("should reject overlapping fields", func() {
		l := &insts.Layout{Name: "bad", Width: 32, Fields: []insts.Field{
			{Name: "a", Lo: 0, Width: 8},
			{Name: "b", Lo: 4, Width: 8},
		}}
		Expect(l.Validate()).To(MatchError(ContainSubstring("overlaps")))
	})

	It("should reject fields past the encoding width", func() {
		l := &insts.Layout{Name: "bad", Width: 16, Fields: []insts.Field{
			{Name: "a", Lo: 12, Width: 8},
		}}
		Expect(l.Validate()).To(MatchError(ContainSubstring("out of range")))
	})

	DescribeTable("decode then re-encode reproduces the raw value",
		func(l *insts.Layout, raw uint32) {
			Expect(l.Matches(raw)).To(BeTrue())
			Expect(l.Decode(raw).Encode()).To(Equal(raw))
		},
		Entry("DPImm", insts.LayoutDPImm, uint32(0xE2810005)),
		Entry("DPReg", insts.LayoutDPReg, uint32(0xE0910002)),
		Entry("DPRegShift", insts.LayoutDPRegShift, uint32(0xE0810312)),
		Entry("MovWide", insts.LayoutMovWide, uint32(0xE3450678)),
		Entry("Mul", insts.LayoutMul, uint32(0xE0203291)),
		Entry("MulLong", insts.LayoutMulLong, uint32(0xE0810392)),
		Entry("Div", insts.LayoutDiv, uint32(0xE730F211)),
		Entry("RdRm", insts.LayoutRdRm, uint32(0xE6BF0F31)),
		Entry("Extend", insts.LayoutExtend, uint32(0xE6EF0071)),
		Entry("Bitfield", insts.LayoutBitfield, uint32(0xE7E70251)),
		Entry("LdStImm", insts.LayoutLdStImm, uint32(0xE5910008)),
		Entry("LdStReg", insts.LayoutLdStReg, uint32(0xE7210102)),
		Entry("ExtraLdStImm", insts.LayoutExtraLdStImm, uint32(0xE1D100B2)),
		Entry("ExtraLdStReg", insts.LayoutExtraLdStReg, uint32(0xE18120D4)),
		Entry("Sync", insts.LayoutSync, uint32(0xE1812F90)),
		Entry("BlockTransfer", insts.LayoutBlockTransfer, uint32(0xE8BD8030)),
		Entry("Branch", insts.LayoutBranch, uint32(0xEB00000A)),
		Entry("BranchReg", insts.LayoutBranchReg, uint32(0xE12FFF33)),
		Entry("SVC", insts.LayoutSVC, uint32(0xEF00002A)),
		Entry("BKPT", insts.LayoutBKPT, uint32(0xE1212374)),
		Entry("UDF", insts.LayoutUDF, uint32(0xE7F123F4)),
		Entry("StatusReg", insts.LayoutStatusReg, uint32(0xE128F000)),
		Entry("Coproc", insts.LayoutCoproc, uint32(0xEE070FBA)),
		Entry("Barrier", insts.LayoutBarrier, uint32(0xF57FF05B)),
		Entry("Hint", insts.LayoutHint, uint32(0xE320F003)),
		Entry("VFPData", insts.LayoutVFPData, uint32(0xEE300A81)),
		Entry("VMovCoreSingle", insts.LayoutVMovCoreSingle, uint32(0xEE100A90)),
		Entry("VMovCorePair", insts.LayoutVMovCorePair, uint32(0xEC510B10)),
		Entry("VLdSt", insts.LayoutVLdSt, uint32(0xED900B02)),
		Entry("VLdStMulti", insts.LayoutVLdStMulti, uint32(0xED2D8B04)),
		Entry("VSysReg", insts.LayoutVSysReg, uint32(0xEEF1FA10)),
		Entry("NEONThreeSame", insts.LayoutNEONThreeSame, uint32(0xF2220844)),
		Entry("T16ShiftImm", insts.LayoutT16ShiftImm, uint32(0x0088)),
		Entry("T16AddSub3", insts.LayoutT16AddSub3, uint32(0x1C88)),
		Entry("T16Imm8", insts.LayoutT16Imm8, uint32(0x2001)),
		Entry("T16ALU", insts.LayoutT16ALU, uint32(0x4008)),
		Entry("T16HiReg", insts.LayoutT16HiReg, uint32(0x4680)),
		Entry("T16LoadLiteral", insts.LayoutT16LoadLiteral, uint32(0x4801)),
		Entry("T16LdStReg", insts.LayoutT16LdStReg, uint32(0x5888)),
		Entry("T16LdStImm", insts.LayoutT16LdStImm, uint32(0x6848)),
		Entry("T16LdStSP", insts.LayoutT16LdStSP, uint32(0x9001)),
		Entry("T16ADR", insts.LayoutT16ADR, uint32(0xA801)),
		Entry("T16AdjustSP", insts.LayoutT16AdjustSP, uint32(0xB082)),
		Entry("T16CBZ", insts.LayoutT16CBZ, uint32(0xB110)),
		Entry("T16ExtRev", insts.LayoutT16ExtRev, uint32(0xBA08)),
		Entry("T16PushPop", insts.LayoutT16PushPop, uint32(0xBD10)),
		Entry("T16IT", insts.LayoutT16IT, uint32(0xBF08)),
		Entry("T16Misc", insts.LayoutT16Misc, uint32(0xBE2A)),
		Entry("T16LdStMulti", insts.LayoutT16LdStMulti, uint32(0xC806)),
		Entry("T16CondBranch", insts.LayoutT16CondBranch, uint32(0xD0FE)),
		Entry("T16Branch", insts.LayoutT16Branch, uint32(0xE7FE)),
		Entry("T32Branch", insts.LayoutT32Branch, uint32(0xF7FFFFFE)),
		Entry("T32ModImm", insts.LayoutT32ModImm, uint32(0xF1010001)),
		Entry("T32PlainImm", insts.LayoutT32PlainImm, uint32(0xF2412034)),
		Entry("T32ShiftedReg", insts.LayoutT32ShiftedReg, uint32(0xEA410082)),
		Entry("T32RegOp", insts.LayoutT32RegOp, uint32(0xFA91F081)),
		Entry("T32LdStImm12", insts.LayoutT32LdStImm12, uint32(0xF8D10008)),
		Entry("T32LdStImm8", insts.LayoutT32LdStImm8, uint32(0xF8510C04)),
		Entry("T32LdStReg", insts.LayoutT32LdStReg, uint32(0xF8510022)),
		Entry("T32LoadLiteral", insts.LayoutT32LoadLiteral, uint32(0xF8DF0008)),
		Entry("T32LdStMulti", insts.LayoutT32LdStMulti, uint32(0xE92D4FF0)),
		Entry("T32LdStDual", insts.LayoutT32LdStDual, uint32(0xE9D20102)),
		Entry("T32Exclusive", insts.LayoutT32Exclusive, uint32(0xE8510F00)),
		Entry("T32ExclusiveSized", insts.LayoutT32ExclusiveSized, uint32(0xE8C10F42)),
		Entry("T32Mul", insts.LayoutT32Mul, uint32(0xFB01F002)),
		Entry("T32MulLong", insts.LayoutT32MulLong, uint32(0xFB820103)),
	)

	It("should refuse encodings from another layout", func() {
		// ADD r0, r1, #5 read as a load/store layout
		Expect(insts.LayoutLdStImm.Matches(0xE2810005)).To(BeFalse())
		Expect(insts.LayoutBranch.Matches(0xE5910008)).To(BeFalse())
		Expect(insts.LayoutT16IT.Matches(0xBE00)).To(BeFalse())
	})

	It("should expose and replace named fields", func() {
		f := insts.DPImm(0xE2810005).Fields()
		Expect(f.Get("Rn")).To(Equal(uint32(1)))
		Expect(f.Get("imm8")).To(Equal(uint32(5)))

		g := f.Set("Rd", 7).Set("imm8", 0x1FF)
		Expect(g.Encode()).To(Equal(uint32(0xE28170FF)))
		Expect(f.Encode()).To(Equal(uint32(0xE2810005)))
	})

	It("should panic on unknown field names", func() {
		f := insts.DPImm(0xE2810005).Fields()
		Expect(func() { f.Get("Rt") }).To(Panic())
	})
})
