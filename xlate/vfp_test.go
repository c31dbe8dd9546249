package xlate_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armxlate/emu"
	"github.com/sarchlab/armxlate/regalloc"
	"github.com/sarchlab/armxlate/xlate"
)

var _ = Describe("VFP and NEON", func() {
	var (
		g    *guest
		simd *emu.SIMDRegFile
	)

	block := func(words ...uint32) *xlate.Block {
		return translate(armImage(append(words, armBXLR)...), false)
	}

	BeforeEach(func() {
		g = newGuest(xlate.PolicyDirect)
		g.setR(14, retAddr)
		simd = g.m.SIMDRegFile()
	})

	It("should add singles without touching the other lanes", func() {
		simd.WriteFloat32(0, 1, 1.5)
		simd.WriteFloat32(0, 2, 2.25)
		simd.WriteLane32(0, 3, 0x7F00DEAD)
		g.run(block(0xEE300A81)) // vadd.f32 s0, s1, s2
		Expect(simd.ReadFloat32(0, 0)).To(Equal(float32(3.75)))
		Expect(simd.ReadFloat32(0, 1)).To(Equal(float32(1.5)))
		Expect(simd.ReadFloat32(0, 2)).To(Equal(float32(2.25)))
		Expect(simd.ReadLane32(0, 3)).To(Equal(uint32(0x7F00DEAD)))
	})

	It("should write an odd single lane", func() {
		simd.WriteFloat32(0, 0, 3)
		simd.WriteFloat32(0, 1, 4)
		g.run(block(0xEE601A20)) // vmul.f32 s3, s0, s1
		Expect(simd.ReadFloat32(0, 3)).To(Equal(float32(12)))
		Expect(simd.ReadFloat32(0, 0)).To(Equal(float32(3)))
	})

	It("should add doubles", func() {
		simd.WriteFloat64(0, 1, 1.25)
		simd.WriteFloat64(1, 0, 2.5)
		g.run(block(0xEE310B02)) // vadd.f64 d0, d1, d2
		Expect(simd.ReadFloat64(0, 0)).To(Equal(3.75))
		Expect(simd.ReadFloat64(0, 1)).To(Equal(1.25))
	})

	It("should divide doubles", func() {
		simd.WriteFloat64(0, 1, 1)
		simd.WriteFloat64(1, 0, 4)
		g.run(block(0xEE810B02)) // vdiv.f64 d0, d1, d2
		Expect(simd.ReadFloat64(0, 0)).To(Equal(0.25))
	})

	DescribeTable("single-operand operations",
		func(word uint32, in, want float32) {
			simd.WriteFloat32(0, 1, in)
			g.run(block(word))
			Expect(simd.ReadFloat32(0, 0)).To(Equal(want))
		},
		Entry("vneg", uint32(0xEEB10A60), float32(2), float32(-2)),
		Entry("vabs", uint32(0xEEB00AE0), float32(-2), float32(2)),
		Entry("vsqrt", uint32(0xEEB10AE0), float32(16), float32(4)),
		Entry("vmov", uint32(0xEEB00A60), float32(7.5), float32(7.5)),
	)

	It("should load a floating-point immediate", func() {
		g.run(block(0xEEB70A00)) // vmov.f32 s0, #1.0
		Expect(simd.ReadFloat32(0, 0)).To(Equal(float32(1)))
	})

	It("should widen a single to a double", func() {
		simd.WriteFloat32(0, 0, 1.5)
		g.run(block(0xEEB71AC0)) // vcvt.f64.f32 d1, s0
		Expect(simd.ReadFloat64(0, 1)).To(Equal(1.5))
	})

	It("should convert between integers and floats", func() {
		simd.WriteLane32(0, 1, 7)
		g.run(block(0xEEB80AE0)) // vcvt.f32.s32 s0, s1
		Expect(simd.ReadFloat32(0, 0)).To(Equal(float32(7)))

		simd.WriteFloat32(0, 1, -2.75)
		g.run(block(0xEEBD0AE0)) // vcvt.s32.f32 s0, s1
		Expect(simd.ReadLane32(0, 0)).To(Equal(uint32(0xFFFFFFFE)))
	})

	It("should move between core and VFP registers", func() {
		g.setR(0, math.Float32bits(2.5))
		g.run(block(
			0xEE000A10, // vmov s0, r0
			0xEE101A10, // vmov r1, s0
		))
		Expect(simd.ReadFloat32(0, 0)).To(Equal(float32(2.5)))
		Expect(g.r(1)).To(Equal(math.Float32bits(2.5)))
	})

	It("should move a core register pair into a double", func() {
		bits := math.Float64bits(-3.5)
		g.setR(0, uint32(bits))
		g.setR(1, uint32(bits>>32))
		g.run(block(
			0xEC410B10, // vmov d0, r0, r1
			0xEC532B10, // vmov r2, r3, d0
		))
		Expect(simd.ReadFloat64(0, 0)).To(Equal(-3.5))
		Expect(g.r(2)).To(Equal(uint32(bits)))
		Expect(g.r(3)).To(Equal(uint32(bits >> 32)))
	})

	DescribeTable("compare and transfer flags",
		func(a, b float32, flags emu.PSTATE, fpscr uint32) {
			simd.WriteFloat32(0, 0, a)
			simd.WriteFloat32(0, 1, b)
			g.setFlags(emu.PSTATE{})
			g.run(block(0xEEB40A60)) // vcmp.f32 s0, s1
			Expect(g.flags()).To(Equal(emu.PSTATE{}))
			Expect(g.state32(regalloc.StateFPSCR) >> 28).To(Equal(fpscr))

			b2 := block(0xEEF1FA10) // vmrs APSR_nzcv, fpscr
			Expect(b2.FlagsModified).To(BeTrue())
			g.run(b2)
			Expect(g.flags()).To(Equal(flags))
		},
		Entry("less", float32(1), float32(2), emu.PSTATE{N: true}, uint32(0x8)),
		Entry("equal", float32(2), float32(2), emu.PSTATE{Z: true, C: true}, uint32(0x6)),
		Entry("greater", float32(3), float32(2), emu.PSTATE{C: true}, uint32(0x2)),
		Entry("unordered", float32(math.NaN()), float32(2), emu.PSTATE{C: true, V: true}, uint32(0x3)),
	)

	Describe("memory", func() {
		BeforeEach(func() {
			g.setR(1, 0x1000)
			g.write32(0x1000, math.Float32bits(1))
			g.write32(0x1004, math.Float32bits(2))
			g.write32(0x1008, math.Float32bits(3))
			g.write32(0x100C, math.Float32bits(4))
		})

		It("should load a single", func() {
			g.run(block(0xED910A01)) // vldr s0, [r1, #4]
			Expect(simd.ReadFloat32(0, 0)).To(Equal(float32(2)))
		})

		It("should store a double", func() {
			simd.WriteLane64(0, 0, 0x1122334455667788)
			g.run(block(0xED810B00)) // vstr d0, [r1]
			Expect(g.read32(0x1000)).To(Equal(uint32(0x55667788)))
			Expect(g.read32(0x1004)).To(Equal(uint32(0x11223344)))
		})

		It("should load multiple singles", func() {
			g.run(block(0xEC910A04)) // vldmia r1, {s0-s3}
			for i := uint8(0); i < 4; i++ {
				Expect(simd.ReadFloat32(0, i)).To(Equal(float32(i + 1)))
			}
			Expect(g.r(1)).To(Equal(uint32(0x1000)))
		})

		It("should push doubles", func() {
			g.setR(13, 0x2000)
			simd.WriteLane64(4, 0, 0xAAAAAAAABBBBBBBB)
			simd.WriteLane64(4, 1, 0xCCCCCCCCDDDDDDDD)
			g.run(block(0xED2D8B04)) // vpush {d8, d9}
			Expect(g.r(13)).To(Equal(uint32(0x1FF0)))
			Expect(g.read32(0x1FF0)).To(Equal(uint32(0xBBBBBBBB)))
			Expect(g.read32(0x1FFC)).To(Equal(uint32(0xCCCCCCCC)))
		})
	})

	Describe("NEON", func() {
		It("should add quad integer vectors", func() {
			simd.WriteQ(1, 0x0000000200000001, 0x0000000400000003)
			simd.WriteQ(2, 0x0000001000000010, 0x0000001000000010)
			g.run(block(0xF2220844)) // vadd.i32 q0, q1, q2
			lo, hi := simd.ReadQ(0)
			Expect(lo).To(Equal(uint64(0x0000001200000011)))
			Expect(hi).To(Equal(uint64(0x0000001400000013)))
		})

		It("should add doubleword vectors in place", func() {
			simd.WriteQ(0, 0, 0x0000000200000001)
			simd.WriteQ(1, 0x0000001000000010, 0xFFFF)
			g.run(block(0xF2210802)) // vadd.i32 d0, d1, d2
			lo, hi := simd.ReadQ(0)
			Expect(lo).To(Equal(uint64(0x0000001200000011)))
			Expect(hi).To(Equal(uint64(0x0000000200000001)))
		})

		It("should add float vectors", func() {
			for i := uint8(0); i < 4; i++ {
				simd.WriteFloat32(1, i, float32(i))
				simd.WriteFloat32(2, i, 0.5)
			}
			g.run(block(0xF2020D44)) // vadd.f32 q0, q1, q2
			for i := uint8(0); i < 4; i++ {
				Expect(simd.ReadFloat32(0, i)).To(Equal(float32(i) + 0.5))
			}
		})

		It("should exclusive-or", func() {
			simd.WriteQ(1, 0xFF00FF00FF00FF00, 0x1)
			simd.WriteQ(2, 0x0FF00FF00FF00FF0, 0x1)
			g.run(block(0xF3020154)) // veor q0, q1, q2
			lo, hi := simd.ReadQ(0)
			Expect(lo).To(Equal(uint64(0xF0F0F0F0F0F0F0F0)))
			Expect(hi).To(BeZero())
		})
	})
})
