package xlate_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armxlate/emu"
	"github.com/sarchlab/armxlate/xlate"
)

var _ = Describe("Branches", func() {
	var g *guest

	BeforeEach(func() {
		g = newGuest(xlate.PolicyDirect)
		g.setR(14, retAddr)
	})

	Describe("A32", func() {
		It("should end the block at an unconditional branch", func() {
			b := translate(armImage(0xE3A00001, 0xEA000000, 0xE3A00002), false) // mov; b; mov
			Expect(b.GuestInsts).To(Equal(2))
			g.run(b)
			Expect(g.r(0)).To(Equal(uint32(1)))
			Expect(g.exit()).To(Equal(uint32(codeBase + 4 + 8)))
		})

		It("should branch backwards", func() {
			g.run(translate(armImage(0xEAFFFFFE), false)) // b .
			Expect(g.exit()).To(Equal(uint32(codeBase)))
		})

		It("should link", func() {
			g.run(translate(armImage(0xEB000000), false)) // bl
			Expect(g.r(14)).To(Equal(uint32(codeBase + 4)))
			Expect(g.exit()).To(Equal(uint32(codeBase + 8)))
		})

		DescribeTable("conditional branch exits",
			func(flags emu.PSTATE, want uint32) {
				g.setR(14, retAddr)
				g.setFlags(flags)
				b := translate(armImage(0x0A000000), false) // beq
				Expect(b.GuestInsts).To(Equal(1))
				g.run(b)
				Expect(g.exit()).To(Equal(want))
				Expect(g.r(14)).To(Equal(uint32(retAddr)))
			},
			Entry("taken", emu.PSTATE{Z: true}, uint32(codeBase+8)),
			Entry("not taken", emu.PSTATE{}, uint32(codeBase+4)),
		)

		DescribeTable("conditional link",
			func(flags emu.PSTATE, lr, want uint32) {
				g.setFlags(flags)
				g.run(translate(armImage(0x1B000000), false)) // blne
				Expect(g.r(14)).To(Equal(lr))
				Expect(g.exit()).To(Equal(want))
			},
			Entry("taken", emu.PSTATE{}, uint32(codeBase+4), uint32(codeBase+8)),
			Entry("not taken", emu.PSTATE{Z: true}, uint32(retAddr), uint32(codeBase+4)),
		)

		It("should switch to Thumb with BLX immediate", func() {
			g.run(translate(armImage(0xFB000000), false)) // blx, H set
			Expect(g.r(14)).To(Equal(uint32(codeBase + 4)))
			Expect(g.exit()).To(Equal(uint32(codeBase + 8 + 2 + 1)))
		})

		It("should branch through a register", func() {
			g.setR(1, 0xB001)
			g.run(translate(armImage(0xE12FFF31), false)) // blx r1
			Expect(g.r(14)).To(Equal(uint32(codeBase + 4)))
			Expect(g.exit()).To(Equal(uint32(0xB001)))
		})

		It("should read the target before writing the link register", func() {
			g.setR(14, 0xC000)
			g.run(translate(armImage(0xE12FFF3E), false)) // blx lr
			Expect(g.exit()).To(Equal(uint32(0xC000)))
			Expect(g.r(14)).To(Equal(uint32(codeBase + 4)))
		})
	})

	Describe("Thumb", func() {
		It("should branch unconditionally", func() {
			g.run(translate(thumbImage(0xE000), true)) // b #0
			Expect(g.exit()).To(Equal(uint32(codeBase + 4 + 1)))
		})

		It("should call with BL", func() {
			g.run(translate(thumbImage(0xF000, 0xF800), true)) // bl #0
			Expect(g.r(14)).To(Equal(uint32(codeBase + 4 + 1)))
			Expect(g.exit()).To(Equal(uint32(codeBase + 4 + 1)))
		})

		It("should switch to A32 with BLX", func() {
			g.run(translate(thumbImage(0xBF00, 0xF000, 0xE800), true)) // nop; blx #0
			Expect(g.r(14)).To(Equal(uint32(codeBase + 6 + 1)))
			Expect(g.exit()).To(Equal(uint32(codeBase + 4)))
		})

		DescribeTable("conditional branch",
			func(flags emu.PSTATE, want uint32) {
				g.setFlags(flags)
				g.run(translate(thumbImage(0xD000), true)) // beq #0
				Expect(g.exit()).To(Equal(want))
			},
			Entry("taken", emu.PSTATE{Z: true}, uint32(codeBase+4+1)),
			Entry("not taken", emu.PSTATE{}, uint32(codeBase+2+1)),
		)

		DescribeTable("CBZ and CBNZ",
			func(half uint16, r0, want uint32) {
				g.setR(0, r0)
				b := translate(thumbImage(half, thumbBXLR), true)
				Expect(b.GuestInsts).To(Equal(1))
				g.run(b)
				Expect(g.exit()).To(Equal(want))
			},
			Entry("cbz taken", uint16(0xB108), uint32(0), uint32(codeBase+4+2+1)),
			Entry("cbz not taken", uint16(0xB108), uint32(3), uint32(codeBase+2+1)),
			Entry("cbnz taken", uint16(0xB908), uint32(3), uint32(codeBase+4+2+1)),
			Entry("cbnz not taken", uint16(0xB908), uint32(0), uint32(codeBase+2+1)),
		)

		It("should leave the flags alone in CBZ", func() {
			g.setFlags(emu.PSTATE{N: true, C: true})
			g.run(translate(thumbImage(0xB108), true))
			Expect(g.flags()).To(Equal(emu.PSTATE{N: true, C: true}))
		})

		It("should return with BX LR", func() {
			g.run(translate(thumbImage(thumbBXLR), true))
			Expect(g.exit()).To(Equal(uint32(retAddr)))
		})

		It("should stay in Thumb on a move to PC", func() {
			g.setR(1, 0xB000)
			g.run(translate(thumbImage(0x468F), true)) // mov pc, r1
			Expect(g.exit()).To(Equal(uint32(0xB001)))
		})

		It("should predicate a branch at the end of an IT block", func() {
			code := thumbImage(
				0xBF08, // it eq
				0xE000, // beq #0
				thumbBXLR)
			b := translate(code, true)
			Expect(b.GuestInsts).To(Equal(2))

			g.setFlags(emu.PSTATE{Z: true})
			g.run(b)
			Expect(g.exit()).To(Equal(uint32(codeBase + 2 + 4 + 1)))

			g.setFlags(emu.PSTATE{})
			g.run(b)
			Expect(g.exit()).To(Equal(uint32(codeBase + 4 + 1)))
		})
	})
})
