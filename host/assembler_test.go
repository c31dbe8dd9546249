package host_test

import (
	"encoding/binary"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armxlate/host"
)

var _ = Describe("Assembler", func() {
	var a *host.Assembler

	BeforeEach(func() {
		a = host.NewAssembler()
	})

	Describe("labels", func() {
		It("should resolve a forward conditional branch when bound", func() {
			skip := a.NewLabel()
			a.BCond(host.CondNE, skip)
			a.Nop()
			a.Bind(skip)
			a.Ret()

			Expect(a.Insts()[0].Imm).To(Equal(int64(2)))
			// B.NE +8 -> 0x54000041
			code := a.Bytes()
			Expect(binary.LittleEndian.Uint32(code[0:4])).To(Equal(uint32(0x54000041)))
		})

		It("should resolve a backward branch at emission", func() {
			top := a.NewLabel()
			a.Bind(top)
			a.Nop()
			a.Cbz(host.W(0), top)

			Expect(a.Insts()[1].Imm).To(Equal(int64(-1)))
		})

		It("should panic on Bytes with an unbound label", func() {
			l := a.NewLabel()
			a.B(l)
			Expect(func() { a.Bytes() }).To(Panic())
		})

		It("should panic on binding a label twice", func() {
			l := a.NewLabel()
			a.Bind(l)
			Expect(func() { a.Bind(l) }).To(Panic())
		})

		It("should print labels in the listing", func() {
			l := a.NewLabel()
			a.B(l)
			a.Bind(l)
			a.Ret()
			Expect(a.String()).To(Equal("\tb L0\nL0:\n\tret\n"))
		})
	})

	Describe("MovImm", func() {
		It("should use a single MOVZ for small values", func() {
			a.MovImm(host.W(0), 0x1234)
			Expect(a.Len()).To(Equal(1))
			Expect(a.Insts()[0].Op).To(Equal(host.OpMOVZ))
		})

		It("should use MOVZ with a shift for a high halfword", func() {
			a.MovImm(host.W(0), 0xABCD0000)
			Expect(a.Len()).To(Equal(1))
			Expect(a.Insts()[0].Amount).To(Equal(uint8(16)))
		})

		It("should use MOVN for values with one non-ones halfword", func() {
			a.MovImm(host.W(0), 0xFFFFFFF0)
			Expect(a.Len()).To(Equal(1))
			Expect(a.Insts()[0].Op).To(Equal(host.OpMOVN))
			Expect(a.Insts()[0].Imm).To(Equal(int64(0xF)))
		})

		It("should use a bitmask ORR when encodable", func() {
			a.MovImm(host.W(0), 0x00FF00FF)
			Expect(a.Len()).To(Equal(1))
			Expect(a.Insts()[0].Op).To(Equal(host.OpORRImm))
		})

		It("should fall back to MOVZ and MOVK", func() {
			a.MovImm(host.W(0), 0x12345678)
			Expect(a.Len()).To(Equal(2))
			Expect(a.Insts()[0].Op).To(Equal(host.OpMOVZ))
			Expect(a.Insts()[1].Op).To(Equal(host.OpMOVK))
		})

		It("should emit MOVZ #0 for zero", func() {
			a.MovImm(host.W(3), 0)
			Expect(a.Insts()).To(HaveLen(1))
			Expect(a.Insts()[0].Imm).To(Equal(int64(0)))
		})
	})

	Describe("listing", func() {
		It("should render assembler syntax", func() {
			a.AddImm(host.W(0), host.W(1), 5)
			a.Ldr(host.W(2), host.X(16), 8, 2, false)
			a.Csel(host.W(3), host.W(16), host.W(3), host.CondEQ)
			Expect(a.String()).To(Equal(
				"\tadd w0, w1, #5\n" +
					"\tldr w2, [x16, #8]\n" +
					"\tcsel w3, w16, w3, eq\n"))
		})
	})

	Describe("Reset", func() {
		It("should drop emitted instructions and labels", func() {
			l := a.NewLabel()
			a.B(l)
			a.Reset()
			Expect(a.Len()).To(Equal(0))
			Expect(a.Bytes()).To(BeEmpty())
		})
	})
})

var _ = Describe("EncodeBitmask", func() {
	DescribeTable("round trips through DecodeBitmask",
		func(v uint64, is64 bool) {
			n, immr, imms, ok := host.EncodeBitmask(v, is64)
			Expect(ok).To(BeTrue())
			Expect(host.DecodeBitmask(n, immr, imms, is64)).To(Equal(v))
		},
		Entry("byte mask", uint64(0xFF), false),
		Entry("carry bit", uint64(0x20000000), false),
		Entry("not carry", uint64(0xDFFFFFFF), false),
		Entry("nzcv mask", uint64(0xF0000000), false),
		Entry("alternating", uint64(0x55555555), false),
		Entry("low word", uint64(0xFFFFFFFF), true),
		Entry("rotated run", uint64(0x8000000000000001), true),
		Entry("page mask", uint64(0xFFF), true),
	)

	DescribeTable("rejects non-bitmask values",
		func(v uint64, is64 bool) {
			_, _, _, ok := host.EncodeBitmask(v, is64)
			Expect(ok).To(BeFalse())
		},
		Entry("zero", uint64(0), false),
		Entry("all ones", uint64(0xFFFFFFFF), false),
		Entry("two runs", uint64(0x12345), false),
	)
})
