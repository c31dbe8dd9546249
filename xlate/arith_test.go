package xlate_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armxlate/emu"
	"github.com/sarchlab/armxlate/host"
	"github.com/sarchlab/armxlate/xlate"
)

var _ = Describe("Data processing", func() {
	var g *guest

	BeforeEach(func() {
		g = newGuest(xlate.PolicyDirect)
		g.setR(14, retAddr)
	})

	It("should move an immediate and return through LR", func() {
		b := translate(armImage(0xE3A0002A, armBXLR), false) // mov r0, #42
		Expect(b.GuestInsts).To(Equal(2))
		Expect(b.Size).To(Equal(uint32(8)))
		Expect(b.Insts[len(b.Insts)-1].Op).To(Equal(host.OpRET))

		g.run(b)
		Expect(g.r(0)).To(Equal(uint32(42)))
		Expect(g.exit()).To(Equal(uint32(retAddr)))
	})

	DescribeTable("ADDS flags",
		func(x, y, want uint32, flags emu.PSTATE) {
			g.setR(1, x)
			g.setR(2, y)
			g.run(translate(armImage(0xE0910002, armBXLR), false)) // adds r0, r1, r2
			Expect(g.r(0)).To(Equal(want))
			Expect(g.flags()).To(Equal(flags))
		},
		Entry("plain", uint32(1), uint32(2), uint32(3), emu.PSTATE{}),
		Entry("signed overflow", uint32(0x7FFFFFFF), uint32(1), uint32(0x80000000), emu.PSTATE{N: true, V: true}),
		Entry("carry to zero", uint32(0xFFFFFFFF), uint32(1), uint32(0), emu.PSTATE{Z: true, C: true}),
		Entry("both", uint32(0x80000000), uint32(0x80000000), uint32(0), emu.PSTATE{Z: true, C: true, V: true}),
	)

	DescribeTable("SUBS flags",
		func(x, y, want uint32, flags emu.PSTATE) {
			g.setR(1, x)
			g.setR(2, y)
			g.run(translate(armImage(0xE0510002, armBXLR), false)) // subs r0, r1, r2
			Expect(g.r(0)).To(Equal(want))
			Expect(g.flags()).To(Equal(flags))
		},
		Entry("equal", uint32(5), uint32(5), uint32(0), emu.PSTATE{Z: true, C: true}),
		Entry("borrow", uint32(0), uint32(1), uint32(0xFFFFFFFF), emu.PSTATE{N: true}),
		Entry("signed overflow", uint32(0x80000000), uint32(1), uint32(0x7FFFFFFF), emu.PSTATE{C: true, V: true}),
	)

	// r0 starts at 0x5A5A so the compare forms can show it is untouched.
	DescribeTable("carry-using and reversed arithmetic flags",
		func(word, x, y uint32, carryIn bool, want uint32, flags emu.PSTATE) {
			g.setR(0, 0x5A5A)
			g.setR(1, x)
			g.setR(2, y)
			g.setFlags(emu.PSTATE{C: carryIn})
			g.run(translate(armImage(word, armBXLR), false))
			Expect(g.r(0)).To(Equal(want))
			Expect(g.flags()).To(Equal(flags))
		},
		// adcs r0, r1, r2
		Entry("adcs plain", uint32(0xE0B10002), uint32(1), uint32(2), true, uint32(4), emu.PSTATE{}),
		Entry("adcs carry in to zero", uint32(0xE0B10002), uint32(0xFFFFFFFF), uint32(0), true, uint32(0), emu.PSTATE{Z: true, C: true}),
		Entry("adcs carry in overflow", uint32(0xE0B10002), uint32(0x7FFFFFFF), uint32(0), true, uint32(0x80000000), emu.PSTATE{N: true, V: true}),
		Entry("adcs carry out", uint32(0xE0B10002), uint32(0xFFFFFFFF), uint32(0xFFFFFFFF), false, uint32(0xFFFFFFFE), emu.PSTATE{N: true, C: true}),

		// sbcs r0, r1, r2
		Entry("sbcs no borrow in", uint32(0xE0D10002), uint32(5), uint32(3), true, uint32(2), emu.PSTATE{C: true}),
		Entry("sbcs borrow in", uint32(0xE0D10002), uint32(5), uint32(3), false, uint32(1), emu.PSTATE{C: true}),
		Entry("sbcs borrow out", uint32(0xE0D10002), uint32(0), uint32(0), false, uint32(0xFFFFFFFF), emu.PSTATE{N: true}),
		Entry("sbcs overflow", uint32(0xE0D10002), uint32(0x80000000), uint32(0), false, uint32(0x7FFFFFFF), emu.PSTATE{C: true, V: true}),

		// rsbs r0, r1, r2
		Entry("rsbs plain", uint32(0xE0710002), uint32(1), uint32(3), false, uint32(2), emu.PSTATE{C: true}),
		Entry("rsbs borrow", uint32(0xE0710002), uint32(3), uint32(1), false, uint32(0xFFFFFFFE), emu.PSTATE{N: true}),
		Entry("rsbs equal", uint32(0xE0710002), uint32(7), uint32(7), false, uint32(0), emu.PSTATE{Z: true, C: true}),
		Entry("rsbs overflow", uint32(0xE0710002), uint32(1), uint32(0x80000000), false, uint32(0x7FFFFFFF), emu.PSTATE{C: true, V: true}),

		// rscs r0, r1, r2
		Entry("rscs no borrow in", uint32(0xE0F10002), uint32(1), uint32(3), true, uint32(2), emu.PSTATE{C: true}),
		Entry("rscs borrow in", uint32(0xE0F10002), uint32(1), uint32(3), false, uint32(1), emu.PSTATE{C: true}),
		Entry("rscs borrow out", uint32(0xE0F10002), uint32(3), uint32(3), false, uint32(0xFFFFFFFF), emu.PSTATE{N: true}),

		// cmn r1, r2
		Entry("cmn plain", uint32(0xE1710002), uint32(1), uint32(1), true, uint32(0x5A5A), emu.PSTATE{}),
		Entry("cmn to zero", uint32(0xE1710002), uint32(0xFFFFFFFF), uint32(1), false, uint32(0x5A5A), emu.PSTATE{Z: true, C: true}),
		Entry("cmn overflow", uint32(0xE1710002), uint32(0x7FFFFFFF), uint32(1), false, uint32(0x5A5A), emu.PSTATE{N: true, V: true}),
	)

	DescribeTable("carry out of a modified immediate",
		func(word uint32, before emu.PSTATE, want uint32, flags emu.PSTATE) {
			g.setFlags(before)
			g.run(translate(armImage(word, armBXLR), false))
			Expect(g.r(0)).To(Equal(want))
			Expect(g.flags()).To(Equal(flags))
		},
		Entry("rotated, bit 31 set", uint32(0xE3B00102), emu.PSTATE{}, uint32(0x80000000), emu.PSTATE{N: true, C: true}),
		Entry("rotated, bit 31 clear", uint32(0xE3B00E3F), emu.PSTATE{C: true, V: true}, uint32(0x3F0), emu.PSTATE{V: true}),
		Entry("unrotated keeps C", uint32(0xE3B00005), emu.PSTATE{C: true}, uint32(5), emu.PSTATE{C: true}),
		Entry("ands with a rotated mask", uint32(0xE2100102), emu.PSTATE{}, uint32(0), emu.PSTATE{Z: true, C: true}),
	)

	It("should take C from the shifter and keep V on MOVS", func() {
		g.setR(1, 0x80000001)
		g.setFlags(emu.PSTATE{V: true})
		g.run(translate(armImage(0xE1B00081, armBXLR), false)) // movs r0, r1, lsl #1
		Expect(g.r(0)).To(Equal(uint32(2)))
		Expect(g.flags()).To(Equal(emu.PSTATE{C: true, V: true}))
	})

	It("should set N and Z on ANDS without touching C or V", func() {
		g.setR(1, 0xF0)
		g.setR(2, 0x0F)
		g.setFlags(emu.PSTATE{C: true, V: true})
		g.run(translate(armImage(0xE0110002, armBXLR), false)) // ands r0, r1, r2
		Expect(g.r(0)).To(BeZero())
		Expect(g.flags()).To(Equal(emu.PSTATE{Z: true, C: true, V: true}))
	})

	It("should add with carry", func() {
		g.setR(1, 10)
		g.setR(2, 20)
		g.setFlags(emu.PSTATE{C: true})
		g.run(translate(armImage(0xE0A10002, armBXLR), false)) // adc r0, r1, r2
		Expect(g.r(0)).To(Equal(uint32(31)))
	})

	It("should read the PC as the instruction address plus eight", func() {
		g.run(translate(armImage(0xE28F0004, armBXLR), false)) // add r0, pc, #4
		Expect(g.r(0)).To(Equal(uint32(codeBase + 12)))
	})

	It("should leave the block on a move to PC", func() {
		g.setR(1, 0xA001)
		b := translate(armImage(0xE1A0F001, 0xE3A0002A), false) // mov pc, r1
		Expect(b.GuestInsts).To(Equal(1))
		g.run(b)
		Expect(g.exit()).To(Equal(uint32(0xA001)))
	})

	It("should leave a predicated instruction's register alone when it fails", func() {
		g.setR(0, 7)
		g.setFlags(emu.PSTATE{})
		g.run(translate(armImage(0x03A00001, armBXLR), false)) // moveq r0, #1
		Expect(g.r(0)).To(Equal(uint32(7)))

		g.setFlags(emu.PSTATE{Z: true})
		g.run(translate(armImage(0x03A00001, armBXLR), false))
		Expect(g.r(0)).To(Equal(uint32(1)))
	})

	It("should build constants with MOVW and MOVT", func() {
		g.run(translate(armImage(0xE3010234, 0xE3450678, armBXLR), false))
		Expect(g.r(0)).To(Equal(uint32(0x56781234)))
	})

	Describe("multiply and divide", func() {
		It("should multiply and accumulate", func() {
			g.setR(1, 6)
			g.setR(2, 7)
			g.setR(3, 100)
			g.run(translate(armImage(
				0xE0000291, // mul r0, r1, r2
				0xE0243291, // mla r4, r1, r2, r3
				armBXLR), false))
			Expect(g.r(0)).To(Equal(uint32(42)))
			Expect(g.r(4)).To(Equal(uint32(142)))
		})

		It("should produce a 64-bit unsigned product", func() {
			g.setR(2, 0xFFFFFFFF)
			g.setR(3, 0x10)
			g.run(translate(armImage(0xE0810392, armBXLR), false)) // umull r0, r1, r2, r3
			Expect(g.r(0)).To(Equal(uint32(0xFFFFFFF0)))
			Expect(g.r(1)).To(Equal(uint32(0xF)))
		})

		DescribeTable("division",
			func(word, n, m, want uint32) {
				g.setR(1, n)
				g.setR(2, m)
				g.run(translate(armImage(word, armBXLR), false))
				Expect(g.r(0)).To(Equal(want))
			},
			Entry("signed", uint32(0xE710F211), uint32(0xFFFFFFF9), uint32(2), uint32(0xFFFFFFFD)),
			Entry("unsigned", uint32(0xE730F211), uint32(0xFFFFFFF9), uint32(2), uint32(0x7FFFFFFC)),
			Entry("by zero", uint32(0xE730F211), uint32(5), uint32(0), uint32(0)),
		)
	})

	DescribeTable("bit manipulation",
		func(word, in, want uint32) {
			g.setR(1, in)
			g.run(translate(armImage(word, armBXLR), false))
			Expect(g.r(0)).To(Equal(want))
		},
		Entry("clz", uint32(0xE16F0F11), uint32(0x00010000), uint32(15)),
		Entry("rev", uint32(0xE6BF0F31), uint32(0x11223344), uint32(0x44332211)),
		Entry("ubfx #4, #8", uint32(0xE7E70251), uint32(0x00012345), uint32(0x34)),
		Entry("uxtb", uint32(0xE6EF0071), uint32(0x123456F0), uint32(0xF0)),
		Entry("sxth", uint32(0xE6BF0071), uint32(0x00018000), uint32(0xFFFF8000)),
	)

	Describe("predicated move fusion", func() {
		code := func() *xlate.Image {
			return armImage(
				0xE1500001, // cmp r0, r1
				0x03A02001, // moveq r2, #1
				0x13A02000, // movne r2, #0
				armBXLR)
		}

		DescribeTable("gives the same result fused and unfused",
			func(x, y, want uint32) {
				fused := translate(code(), false, xlate.WithFusion(true))
				plain := translate(code(), false, xlate.WithFusion(false))
				Expect(fused.GuestInsts).To(Equal(4))
				Expect(plain.GuestInsts).To(Equal(4))
				Expect(count(fused, host.OpCSEL)).To(Equal(1))
				Expect(len(fused.Insts)).To(BeNumerically("<", len(plain.Insts)))

				for _, b := range []*xlate.Block{fused, plain} {
					g.setR(0, x)
					g.setR(1, y)
					g.setR(2, 0xDEAD)
					g.run(b)
					Expect(g.r(2)).To(Equal(want))
				}
			},
			Entry("equal", uint32(3), uint32(3), uint32(1)),
			Entry("different", uint32(3), uint32(4), uint32(0)),
		)

		It("should not fuse moves to different registers", func() {
			b := translate(armImage(0x03A02001, 0x13A03000, armBXLR), false)
			Expect(count(b, host.OpCSEL)).To(Equal(2))
		})

		It("should fuse Thumb moves inside ITE", func() {
			code := thumbImage(
				0x2800, // cmp r0, #0
				0xBF0C, // ite eq
				0x2101, // moveq r1, #1
				0x2102, // movne r1, #2
				thumbBXLR)
			for _, fusion := range []bool{true, false} {
				b := translate(code, true, xlate.WithFusion(fusion))
				Expect(b.GuestInsts).To(Equal(5))

				g.setR(0, 0)
				g.run(b)
				Expect(g.r(1)).To(Equal(uint32(1)))

				g.setR(0, 5)
				g.run(b)
				Expect(g.r(1)).To(Equal(uint32(2)))
			}
		})
	})

	Describe("Thumb", func() {
		It("should set flags outside IT blocks", func() {
			b := translate(thumbImage(
				0x2005, // movs r0, #5
				0x3803, // subs r0, #3
				thumbBXLR), true)
			g.run(b)
			Expect(g.r(0)).To(Equal(uint32(2)))
			Expect(g.flags()).To(Equal(emu.PSTATE{C: true}))
		})

		It("should add three registers", func() {
			g.setR(1, 40)
			g.setR(2, 2)
			g.run(translate(thumbImage(0x1888, thumbBXLR), true)) // adds r0, r1, r2
			Expect(g.r(0)).To(Equal(uint32(42)))
		})

		It("should read the PC as the instruction address plus four", func() {
			g.run(translate(thumbImage(0xBF00, 0xA001, thumbBXLR), true)) // nop; adr r0, #4
			Expect(g.r(0)).To(Equal(uint32(codeBase + 4 + 4)))
		})

		It("should translate Thumb-2 modified immediates", func() {
			g.setR(1, 1)
			g.run(translate(thumbImage(0xF101, 0x30FF, thumbBXLR), true)) // add.w r0, r1, #0xFFFFFFFF
			Expect(g.r(0)).To(Equal(uint32(0)))
		})
	})
})
