package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armxlate/emu"
	"github.com/sarchlab/armxlate/host"
)

var _ = Describe("Machine", func() {
	var m *emu.Machine

	BeforeEach(func() {
		m = emu.NewMachine(emu.WithMaxInstructions(1000))
	})

	Describe("exits", func() {
		It("should report RET with the link register", func() {
			m.RegFile().WriteReg(30, 0x1234)
			res := run(m, func(a *host.Assembler) {})
			Expect(res.Reason).To(Equal(emu.ExitReturn))
			Expect(res.Target).To(Equal(uint64(0x1234)))
			Expect(res.Reason.String()).To(Equal("return"))
		})

		It("should report BRK immediates", func() {
			a := host.NewAssembler()
			a.Brk(0x42)
			res := m.Run(a.Insts())
			Expect(res.Reason).To(Equal(emu.ExitBreak))
			Expect(res.BreakImm).To(Equal(uint16(0x42)))
		})

		It("should report indirect branches", func() {
			a := host.NewAssembler()
			a.MovImm(host.W(15), 0x8001)
			a.Br(host.X(15))
			res := m.Run(a.Insts())
			Expect(res.Reason).To(Equal(emu.ExitBranch))
			Expect(res.Target).To(Equal(uint64(0x8001)))
		})

		It("should fail when running off the end", func() {
			a := host.NewAssembler()
			a.Nop()
			res := m.Run(a.Insts())
			Expect(res.Err).To(HaveOccurred())
		})

		It("should stop at the instruction limit", func() {
			a := host.NewAssembler()
			loop := a.NewLabel()
			a.Bind(loop)
			a.B(loop)
			res := m.Run(a.Insts())
			Expect(res.Err).To(MatchError(emu.ErrMaxInstructions))
			Expect(m.InstructionCount()).To(Equal(uint64(1000)))
		})
	})

	Describe("branches", func() {
		It("should count down with CBNZ", func() {
			m.RegFile().WriteReg32(0, 5)
			res := run(m, func(a *host.Assembler) {
				top := a.NewLabel()
				a.Bind(top)
				a.AddImm(host.W(1), host.W(1), 2)
				a.SubImm(host.W(0), host.W(0), 1)
				a.Cbnz(host.W(0), top)
			})
			Expect(res.Err).NotTo(HaveOccurred())
			Expect(m.RegFile().ReadReg(1)).To(Equal(uint64(10)))
		})

		It("should skip code on a taken condition", func() {
			m.RegFile().WriteReg32(0, 3)
			run(m, func(a *host.Assembler) {
				skip := a.NewLabel()
				a.CmpImm(host.W(0), 3)
				a.BCond(host.CondEQ, skip)
				a.MovImm(host.W(1), 99)
				a.Bind(skip)
				a.AddImm(host.W(2), host.W(0), 1)
			})
			Expect(m.RegFile().ReadReg(1)).To(BeZero())
			Expect(m.RegFile().ReadReg(2)).To(Equal(uint64(4)))
		})
	})

	Describe("memory", func() {
		BeforeEach(func() {
			m.RegFile().WriteReg(28, 0x10000)
		})

		It("should sign-extend narrow loads into W registers", func() {
			m.Memory().Write8(0x10004, 0x80)
			m.Memory().Write16(0x10006, 0x8001)
			run(m, func(a *host.Assembler) {
				a.Ldr(host.W(0), host.X(28), 4, 0, true)
				a.Ldr(host.W(1), host.X(28), 6, 1, true)
				a.Ldr(host.W(2), host.X(28), 6, 1, false)
			})
			Expect(m.RegFile().ReadReg(0)).To(Equal(uint64(0xFFFFFF80)))
			Expect(m.RegFile().ReadReg(1)).To(Equal(uint64(0xFFFF8001)))
			Expect(m.RegFile().ReadReg(2)).To(Equal(uint64(0x8001)))
		})

		It("should store and reload through unscaled and register forms", func() {
			m.RegFile().WriteReg32(3, 0xAABBCCDD)
			m.RegFile().WriteReg(4, 0x40)
			run(m, func(a *host.Assembler) {
				a.AddImm(host.X(5), host.X(28), 0x100)
				a.Stur(host.W(3), host.X(5), -4, 2)
				a.StrReg(host.W(3), host.X(28), host.X(4), 0, false)
				a.LdrReg(host.W(6), host.X(28), host.X(4), 0, false, false)
			})
			Expect(m.Memory().Read32(0x100FC)).To(Equal(uint32(0xAABBCCDD)))
			Expect(m.Memory().Read8(0x10040)).To(Equal(uint8(0xDD)))
			Expect(m.Memory().Read8(0x10041)).To(BeZero())
			Expect(m.RegFile().ReadReg(6)).To(Equal(uint64(0xDD)))
		})

		It("should transfer pairs", func() {
			m.RegFile().WriteReg32(0, 1)
			m.RegFile().WriteReg32(1, 2)
			run(m, func(a *host.Assembler) {
				a.Stp(host.W(0), host.W(1), host.X(28), 8)
				a.Ldp(host.W(3), host.W(2), host.X(28), 8)
			})
			Expect(m.Memory().Read32(0x10008)).To(Equal(uint32(1)))
			Expect(m.Memory().Read32(0x1000C)).To(Equal(uint32(2)))
			Expect(m.RegFile().ReadReg(3)).To(Equal(uint64(1)))
			Expect(m.RegFile().ReadReg(2)).To(Equal(uint64(2)))
		})
	})

	Describe("exclusive monitor", func() {
		BeforeEach(func() {
			m.RegFile().WriteReg(1, 0x2000)
			m.Memory().Write32(0x2000, 7)
			m.RegFile().WriteReg32(2, 9)
		})

		It("should succeed when the reservation is intact", func() {
			run(m, func(a *host.Assembler) {
				a.LoadExclusive(host.OpLDXR, host.W(0), host.X(1), 2)
				a.StoreExclusive(host.OpSTXR, host.W(3), host.W(2), host.X(1), 2)
			})
			Expect(m.RegFile().ReadReg(0)).To(Equal(uint64(7)))
			Expect(m.RegFile().ReadReg(3)).To(BeZero())
			Expect(m.Memory().Read32(0x2000)).To(Equal(uint32(9)))
			Expect(m.Reserved()).To(BeFalse())
		})

		It("should fail after an intervening store", func() {
			run(m, func(a *host.Assembler) {
				a.LoadExclusive(host.OpLDXR, host.W(0), host.X(1), 2)
				a.Str(host.WZR, host.X(1), 0, 0)
				a.StoreExclusive(host.OpSTXR, host.W(3), host.W(2), host.X(1), 2)
			})
			Expect(m.RegFile().ReadReg(3)).To(Equal(uint64(1)))
			Expect(m.Memory().Read32(0x2000)).To(Equal(uint32(0)))
		})

		It("should fail after CLREX", func() {
			run(m, func(a *host.Assembler) {
				a.LoadExclusive(host.OpLDXR, host.W(0), host.X(1), 2)
				a.Clrex()
				a.StoreExclusive(host.OpSTXR, host.W(3), host.W(2), host.X(1), 2)
			})
			Expect(m.RegFile().ReadReg(3)).To(Equal(uint64(1)))
			Expect(m.Memory().Read32(0x2000)).To(Equal(uint32(7)))
		})

		It("should handle exclusive pairs", func() {
			m.Memory().Write32(0x2004, 8)
			m.RegFile().WriteReg32(4, 10)
			run(m, func(a *host.Assembler) {
				a.LoadExclusivePair(host.OpLDXP, host.W(5), host.W(6), host.X(1))
				a.StoreExclusivePair(host.OpSTXP, host.W(3), host.W(2), host.W(4), host.X(1))
			})
			Expect(m.RegFile().ReadReg(5)).To(Equal(uint64(7)))
			Expect(m.RegFile().ReadReg(6)).To(Equal(uint64(8)))
			Expect(m.RegFile().ReadReg(3)).To(BeZero())
			Expect(m.Memory().Read64(0x2000)).To(Equal(uint64(10)<<32 | 9))
		})
	})

	It("should share memory passed in as an option", func() {
		mem := emu.NewMemory()
		mem.Write32(0x40, 5)
		m2 := emu.NewMachine(emu.WithMemory(mem), emu.WithStackPointer(0x8000))
		Expect(m2.Memory()).To(BeIdenticalTo(mem))
		Expect(m2.RegFile().SP).To(Equal(uint64(0x8000)))
	})
})
