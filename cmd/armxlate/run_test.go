package main

import (
	"encoding/binary"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armxlate/xlate"
)

const imageBase = 0x8000

func rawImage(words ...uint32) *guestProgram {
	data := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(data[4*i:], w)
	}
	return &guestProgram{code: xlate.NewImage(imageBase, data), data: data, base: imageBase}
}

func rawThumb(halves ...uint16) *guestProgram {
	data := make([]byte, 2*len(halves))
	for i, h := range halves {
		binary.LittleEndian.PutUint16(data[2*i:], h)
	}
	return &guestProgram{code: xlate.NewImage(imageBase, data), data: data, base: imageBase}
}

func translateEntry(src *guestProgram, policy xlate.Policy, thumb bool) *xlate.Block {
	b, err := xlate.New(src.code, xlate.WithPolicy(policy)).TranslateBlock(imageBase, thumb)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	return b
}

var _ = Describe("Block execution", func() {
	for _, policy := range []xlate.Policy{xlate.PolicyDirect, xlate.PolicyTable} {
		policy := policy

		Context(fmt.Sprintf("with the %s policy", policy), func() {
			It("should use the stack below the image and return", func() {
				src := rawImage(
					0xE3A04007, // mov r4, #7
					0xE92D4010, // push {r4, lr}
					0xE3A04000, // mov r4, #0
					0xE8BD8010, // pop {r4, pc}
				)
				m := prepare(src, policy, 12)
				out, err := execute(m, translateEntry(src, policy, false))
				Expect(err).NotTo(HaveOccurred())
				Expect(out.Trapped).To(BeFalse())
				Expect(out.PC).To(Equal(uint32(haltAddr)))
				Expect(m.RegFile().ReadReg32(4)).To(Equal(uint32(7)))
				Expect(m.RegFile().ReadReg32(13)).To(Equal(uint32(imageBase)))
			})

			It("should read the loaded image as data", func() {
				src := rawImage(
					0xE59F0000, // ldr r0, [pc]
					0xE12FFF1E, // bx lr
					0x12345678,
				)
				m := prepare(src, policy, 12)
				_, err := execute(m, translateEntry(src, policy, false))
				Expect(err).NotTo(HaveOccurred())
				Expect(m.RegFile().ReadReg32(0)).To(Equal(uint32(0x12345678)))
			})
		})
	}

	It("should report a trap", func() {
		src := rawImage(0xE3A00007, 0xEF000042) // mov r0, #7; svc #0x42
		m := prepare(src, xlate.PolicyDirect, 12)
		out, err := execute(m, translateEntry(src, xlate.PolicyDirect, false))
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Trapped).To(BeTrue())
		Expect(out.Trap).To(Equal(uint16(xlate.TrapSVC)))
		Expect(out.TrapArg).To(Equal(uint32(0x42)))
		Expect(out.PC).To(Equal(uint32(imageBase + 4)))
		Expect(m.RegFile().ReadReg32(0)).To(Equal(uint32(7)))
	})

	It("should report the Thumb state of the exit", func() {
		src := rawThumb(0x2003, 0xE000) // movs r0, #3; b #0
		m := prepare(src, xlate.PolicyDirect, 12)
		out, err := execute(m, translateEntry(src, xlate.PolicyDirect, true))
		Expect(err).NotTo(HaveOccurred())
		Expect(out.PC).To(Equal(uint32(imageBase + 6)))
		Expect(out.Thumb).To(BeTrue())
		Expect(m.RegFile().ReadReg32(0)).To(Equal(uint32(3)))
	})
})

var _ = Describe("parseStarts", func() {
	It("should split addresses and take Thumb from bit 0", func() {
		starts, err := parseStarts("0x8000, 0x8101")
		Expect(err).NotTo(HaveOccurred())
		Expect(starts).To(Equal([]xlate.Start{
			{PC: 0x8000},
			{PC: 0x8100, Thumb: true},
		}))
	})

	It("should accept an empty list", func() {
		starts, err := parseStarts("")
		Expect(err).NotTo(HaveOccurred())
		Expect(starts).To(BeEmpty())
	})

	It("should reject garbage", func() {
		_, err := parseStarts("0x8000,zz")
		Expect(err).To(HaveOccurred())
	})
})
