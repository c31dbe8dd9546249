package xlate_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armxlate/host"
	"github.com/sarchlab/armxlate/xlate"
)

func ops(b *xlate.Block) []host.Op {
	out := make([]host.Op, len(b.Insts))
	for i, in := range b.Insts {
		out[i] = in.Op
	}
	return out
}

// Each block here holds one guest instruction followed by the
// constant exit to the next address (MOVZ, RET).
var _ = Describe("Emitted code", func() {
	one := xlate.WithMaxBlockInsts(1)

	It("should add an immediate with one host instruction", func() {
		b := translate(armImage(0xE2810005, armBXLR), false, one) // add r0, r1, #5
		Expect(ops(b)).To(Equal([]host.Op{host.OpADDImm, host.OpMOVZ, host.OpRET}))
		Expect(b.Insts[0].S).To(BeFalse())
	})

	It("should set Thumb flags natively outside an IT block", func() {
		b := translate(thumbImage(0x1C88, thumbBXLR), true, one) // adds r0, r1, #2
		Expect(ops(b)).To(Equal([]host.Op{host.OpADDImm, host.OpMOVZ, host.OpRET}))
		Expect(b.Insts[0].S).To(BeTrue())
		Expect(count(b, host.OpMRS)).To(BeZero())
		Expect(count(b, host.OpMSR)).To(BeZero())
	})

	It("should not set flags for a Thumb add inside an IT block", func() {
		b := translate(thumbImage(
			0xBF08, // it eq
			0x1C88, // addeq r0, r1, #2
			thumbBXLR), true)
		Expect(count(b, host.OpMRS)).To(BeZero())
		Expect(count(b, host.OpMSR)).To(BeZero())
		Expect(count(b, host.OpCSEL)).To(Equal(1))
		for _, in := range b.Insts {
			if in.Op == host.OpADDImm {
				Expect(in.S).To(BeFalse())
			}
		}
	})

	It("should load with one address add and one scaled load under the direct policy", func() {
		b := translate(armImage(0xE5910004, armBXLR), false, one, xlate.WithPolicy(xlate.PolicyDirect)) // ldr r0, [r1, #4]
		Expect(ops(b)).To(Equal([]host.Op{host.OpADDExt, host.OpLDR, host.OpMOVZ, host.OpRET}))
		Expect(b.Insts[1].Imm).To(Equal(int64(4)))
		Expect(b.Insts[1].Size).To(Equal(uint8(2)))
	})

	It("should walk the page table before a load under the table policy", func() {
		b := translate(armImage(0xE5910004, armBXLR), false, one, xlate.WithPolicy(xlate.PolicyTable)) // ldr r0, [r1, #4]
		Expect(count(b, host.OpLDRReg)).To(Equal(1))
		Expect(count(b, host.OpANDImm)).To(Equal(1))
		Expect(count(b, host.OpADDExt)).To(Equal(1))
		Expect(count(b, host.OpLDR)).To(Equal(1))
	})

	DescribeTable("copying single-precision operands down to lane zero",
		func(word uint32, dups int) {
			b := translate(armImage(word, armBXLR), false, one)
			Expect(count(b, host.OpDUPElem)).To(Equal(dups))
			Expect(count(b, host.OpINSElem)).To(Equal(1))
		},
		Entry("vadd.f32 s0, s1, s2", uint32(0xEE300A81), 2),
		Entry("vadd.f32 s0, s1, s4", uint32(0xEE300A82), 1),
		Entry("vadd.f32 s0, s4, s8", uint32(0xEE320A04), 0),
	)
})
