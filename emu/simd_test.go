package emu_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armxlate/emu"
	"github.com/sarchlab/armxlate/host"
)

var _ = Describe("SIMD", func() {
	var (
		m *emu.Machine
		v *emu.SIMDRegFile
	)

	BeforeEach(func() {
		m = emu.NewMachine(emu.WithMaxInstructions(1000))
		v = m.SIMDRegFile()
	})

	Describe("scalar arithmetic", func() {
		It("should add singles and zero the rest of the register", func() {
			v.WriteQ(0, 0xDEADBEEF_00000000, 0xFFFFFFFF_FFFFFFFF)
			v.WriteFloat32(1, 0, 1.5)
			v.WriteFloat32(2, 0, 2.25)
			run(m, func(a *host.Assembler) {
				a.FArith(host.OpFADD, host.FPSingle, 0, 1, 2)
			})
			Expect(v.ReadFloat32(0, 0)).To(Equal(float32(3.75)))
			lo, hi := v.ReadQ(0)
			Expect(lo >> 32).To(BeZero())
			Expect(hi).To(BeZero())
		})

		It("should compute doubles", func() {
			v.WriteFloat64(3, 0, 10)
			v.WriteFloat64(4, 0, 4)
			run(m, func(a *host.Assembler) {
				a.FArith(host.OpFDIV, host.FPDouble, 5, 3, 4)
				a.FArith(host.OpFNMUL, host.FPDouble, 6, 3, 4)
			})
			Expect(v.ReadFloat64(5, 0)).To(Equal(2.5))
			Expect(v.ReadFloat64(6, 0)).To(Equal(-40.0))
		})

		It("should flip only the sign bit on FNEG", func() {
			v.WriteLane32(1, 0, 0x7FC00001) // quiet NaN with payload
			run(m, func(a *host.Assembler) {
				a.FUnary(host.OpFNEG, host.FPSingle, 0, 1)
				a.FUnary(host.OpFABS, host.FPSingle, 2, 0)
			})
			Expect(v.ReadLane32(0, 0)).To(Equal(uint32(0xFFC00001)))
			Expect(v.ReadLane32(2, 0)).To(Equal(uint32(0x7FC00001)))
		})

		It("should convert between precisions", func() {
			v.WriteFloat32(1, 0, 0.5)
			run(m, func(a *host.Assembler) {
				a.FCvt(host.FPDouble, host.FPSingle, 0, 1)
			})
			Expect(v.ReadFloat64(0, 0)).To(Equal(0.5))
		})
	})

	DescribeTable("FCMP flags",
		func(x, y float64, want emu.PSTATE) {
			v.WriteFloat64(1, 0, x)
			v.WriteFloat64(2, 0, y)
			run(m, func(a *host.Assembler) {
				a.FCmp(host.FPDouble, 1, 2, 0)
			})
			Expect(m.RegFile().PSTATE).To(Equal(want))
		},
		Entry("equal", 1.0, 1.0, emu.PSTATE{Z: true, C: true}),
		Entry("less", 1.0, 2.0, emu.PSTATE{N: true}),
		Entry("greater", 3.0, 2.0, emu.PSTATE{C: true}),
		Entry("unordered", math.NaN(), 2.0, emu.PSTATE{C: true, V: true}),
	)

	It("should compare against zero", func() {
		v.WriteFloat32(1, 0, -1)
		run(m, func(a *host.Assembler) {
			a.FCmp(host.FPSingle, 1, 0, host.FCmpZero)
		})
		Expect(m.RegFile().PSTATE).To(Equal(emu.PSTATE{N: true}))
	})

	DescribeTable("FCVTZS saturation",
		func(x float64, want uint64) {
			v.WriteFloat64(1, 0, x)
			run(m, func(a *host.Assembler) {
				a.FToInt(host.OpFCVTZS, host.W(0), host.FPDouble, 1)
			})
			Expect(m.RegFile().ReadReg(0)).To(Equal(want))
		},
		Entry("truncates", 2.9, uint64(2)),
		Entry("negative", -2.9, uint64(0xFFFFFFFE)),
		Entry("too large", 1e20, uint64(0x7FFFFFFF)),
		Entry("too small", -1e20, uint64(0x80000000)),
		Entry("NaN", math.NaN(), uint64(0)),
	)

	It("should convert integers to floats", func() {
		m.RegFile().WriteReg32(1, 0xFFFFFFFF)
		run(m, func(a *host.Assembler) {
			a.IntToF(host.OpSCVTF, host.FPDouble, 0, host.W(1))
			a.IntToF(host.OpUCVTF, host.FPDouble, 2, host.W(1))
		})
		Expect(v.ReadFloat64(0, 0)).To(Equal(-1.0))
		Expect(v.ReadFloat64(2, 0)).To(Equal(4294967295.0))
	})

	Describe("lanes", func() {
		It("should duplicate a lane into a scalar", func() {
			v.WriteQ(1, 0x33333333_22222222, 0x55555555_44444444)
			run(m, func(a *host.Assembler) {
				a.DupElem(host.Elem32, 0, 1, 2)
			})
			lo, hi := v.ReadQ(0)
			Expect(lo).To(Equal(uint64(0x44444444)))
			Expect(hi).To(BeZero())
		})

		It("should insert a lane and keep the others", func() {
			v.WriteQ(0, 0x11111111_00000000, 0x33333333_22222222)
			v.WriteLane32(1, 0, 0xAAAAAAAA)
			run(m, func(a *host.Assembler) {
				a.InsElem(host.Elem32, 0, 3, 1, 0)
			})
			lo, hi := v.ReadQ(0)
			Expect(lo).To(Equal(uint64(0x11111111_00000000)))
			Expect(hi).To(Equal(uint64(0xAAAAAAAA_22222222)))
		})

		It("should move lanes to and from general registers", func() {
			m.RegFile().WriteReg32(2, 0xCAFEF00D)
			run(m, func(a *host.Assembler) {
				a.InsGPR(host.Elem32, 4, 1, host.W(2))
				a.Umov(host.W(3), host.Elem32, 4, 1)
			})
			Expect(v.ReadLane32(4, 1)).To(Equal(uint32(0xCAFEF00D)))
			Expect(m.RegFile().ReadReg(3)).To(Equal(uint64(0xCAFEF00D)))
		})

		It("should load and store a single lane", func() {
			m.Memory().Write32(0x1000, 0x01020304)
			m.RegFile().WriteReg(5, 0x1000)
			m.RegFile().WriteReg(6, 0x2000)
			run(m, func(a *host.Assembler) {
				a.Ld1Lane(host.Elem32, 0, 3, host.X(5))
				a.St1Lane(host.Elem32, 0, 3, host.X(6))
			})
			Expect(v.ReadLane32(0, 3)).To(Equal(uint32(0x01020304)))
			Expect(m.Memory().Read32(0x2000)).To(Equal(uint32(0x01020304)))
		})
	})

	Describe("vectors", func() {
		It("should add 4S lanes", func() {
			for i := uint8(0); i < 4; i++ {
				v.WriteLane32(1, i, uint32(i))
				v.WriteLane32(2, i, 0xFFFFFFFF)
			}
			run(m, func(a *host.Assembler) {
				a.Vec(host.OpVADD, host.Arr4S, 0, 1, 2)
			})
			Expect(v.ReadLane32(0, 0)).To(Equal(uint32(0xFFFFFFFF)))
			Expect(v.ReadLane32(0, 3)).To(Equal(uint32(2)))
		})

		It("should clear the upper half for 64-bit arrangements", func() {
			v.WriteQ(0, 1, 1)
			v.WriteQ(1, 0xF0F0, 0xFFFF)
			v.WriteQ(2, 0xFF00, 0xFFFF)
			run(m, func(a *host.Assembler) {
				a.Vec(host.OpVEOR, host.Arr8B, 0, 1, 2)
			})
			lo, hi := v.ReadQ(0)
			Expect(lo).To(Equal(uint64(0x0FF0)))
			Expect(hi).To(BeZero())
		})

		It("should multiply 2D floats", func() {
			v.WriteFloat64(1, 0, 2)
			v.WriteFloat64(1, 1, 3)
			v.WriteFloat64(2, 0, 4)
			v.WriteFloat64(2, 1, 5)
			run(m, func(a *host.Assembler) {
				a.Vec(host.OpVFMUL, host.Arr2D, 0, 1, 2)
			})
			Expect(v.ReadFloat64(0, 0)).To(Equal(8.0))
			Expect(v.ReadFloat64(0, 1)).To(Equal(15.0))
		})
	})

	It("should load Q registers and store D registers", func() {
		m.Memory().Write64(0x3000, 0x1111)
		m.Memory().Write64(0x3008, 0x2222)
		m.RegFile().WriteReg(1, 0x3000)
		run(m, func(a *host.Assembler) {
			a.LdrFP(4, 7, host.X(1), 0)
			a.SturFP(3, 7, host.X(1), 0x20)
		})
		lo, hi := v.ReadQ(7)
		Expect(lo).To(Equal(uint64(0x1111)))
		Expect(hi).To(Equal(uint64(0x2222)))
		Expect(m.Memory().Read64(0x3020)).To(Equal(uint64(0x1111)))
		Expect(m.Memory().Read64(0x3028)).To(BeZero())
	})
})
