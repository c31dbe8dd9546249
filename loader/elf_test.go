package loader_test

import (
	"encoding/binary"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armxlate/emu"
	"github.com/sarchlab/armxlate/loader"
	"github.com/sarchlab/armxlate/xlate"
)

const (
	pfX = 0x1
	pfW = 0x2
	pfR = 0x4
)

type segment struct {
	vaddr uint32
	data  []byte
	memsz uint32
	flags uint32
}

// writeELF32 writes a little-endian ELF32 executable with one PT_LOAD per
// segment.
func writeELF32(path string, machine uint16, entry uint32, segs ...segment) {
	const ehsize, phentsize = 52, 32

	hdr := make([]byte, ehsize)
	copy(hdr[0:4], []byte{0x7f, 'E', 'L', 'F'})
	hdr[4] = 1 // 32-bit
	hdr[5] = 1 // little endian
	hdr[6] = 1
	binary.LittleEndian.PutUint16(hdr[16:18], 2) // executable
	binary.LittleEndian.PutUint16(hdr[18:20], machine)
	binary.LittleEndian.PutUint32(hdr[20:24], 1)
	binary.LittleEndian.PutUint32(hdr[24:28], entry)
	binary.LittleEndian.PutUint32(hdr[28:32], ehsize)
	binary.LittleEndian.PutUint16(hdr[40:42], ehsize)
	binary.LittleEndian.PutUint16(hdr[42:44], phentsize)
	binary.LittleEndian.PutUint16(hdr[44:46], uint16(len(segs)))
	binary.LittleEndian.PutUint16(hdr[46:48], 40)

	offset := uint32(ehsize + phentsize*len(segs))
	var phdrs, body []byte
	for _, s := range segs {
		ph := make([]byte, phentsize)
		binary.LittleEndian.PutUint32(ph[0:4], 1) // PT_LOAD
		binary.LittleEndian.PutUint32(ph[4:8], offset+uint32(len(body)))
		binary.LittleEndian.PutUint32(ph[8:12], s.vaddr)
		binary.LittleEndian.PutUint32(ph[12:16], s.vaddr)
		binary.LittleEndian.PutUint32(ph[16:20], uint32(len(s.data)))
		memsz := s.memsz
		if memsz == 0 {
			memsz = uint32(len(s.data))
		}
		binary.LittleEndian.PutUint32(ph[20:24], memsz)
		binary.LittleEndian.PutUint32(ph[24:28], s.flags)
		binary.LittleEndian.PutUint32(ph[28:32], 0x1000)
		phdrs = append(phdrs, ph...)
		body = append(body, s.data...)
	}

	out := append(append(hdr, phdrs...), body...)
	Expect(os.WriteFile(path, out, 0644)).To(Succeed())
}

var armCode = []byte{
	0x2a, 0x00, 0xa0, 0xe3, // mov r0, #42
	0x1e, 0xff, 0x2f, 0xe1, // bx lr
}

var _ = Describe("ELF Loader", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	Describe("Load", func() {
		It("should read the entry point and segments", func() {
			path := filepath.Join(dir, "arm.elf")
			writeELF32(path, 40, 0x8000, segment{vaddr: 0x8000, data: armCode, flags: pfR | pfX})

			prog, err := loader.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.EntryPoint).To(Equal(uint32(0x8000)))
			Expect(prog.Thumb).To(BeFalse())
			Expect(prog.InitialSP).To(Equal(uint32(loader.DefaultStackTop)))
			Expect(prog.Segments).To(HaveLen(1))
			Expect(prog.Segments[0].Data).To(Equal(armCode))
			Expect(prog.Segments[0].Flags).To(Equal(loader.SegmentFlagRead | loader.SegmentFlagExecute))
		})

		It("should take the Thumb state from the entry bit", func() {
			path := filepath.Join(dir, "thumb.elf")
			writeELF32(path, 40, 0x8001, segment{vaddr: 0x8000, data: []byte{0x70, 0x47}, flags: pfR | pfX})

			prog, err := loader.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.EntryPoint).To(Equal(uint32(0x8000)))
			Expect(prog.Thumb).To(BeTrue())
		})

		It("should keep BSS size", func() {
			path := filepath.Join(dir, "bss.elf")
			writeELF32(path, 40, 0x8000,
				segment{vaddr: 0x8000, data: armCode, flags: pfR | pfX},
				segment{vaddr: 0x10000, data: []byte{1, 2, 3, 4}, memsz: 0x100, flags: pfR | pfW})

			prog, err := loader.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments).To(HaveLen(2))
			Expect(prog.Segments[1].MemSize).To(Equal(uint32(0x100)))
			Expect(prog.Segments[1].Data).To(HaveLen(4))
		})

		It("should reject a non-ARM machine", func() {
			path := filepath.Join(dir, "x86.elf")
			writeELF32(path, 3, 0x8000, segment{vaddr: 0x8000, data: armCode, flags: pfX})

			_, err := loader.Load(path)
			Expect(err).To(MatchError(ContainSubstring("not an ARM ELF")))
		})

		It("should reject a missing file", func() {
			_, err := loader.Load(filepath.Join(dir, "missing.elf"))
			Expect(err).To(HaveOccurred())
		})

		It("should reject a non-ELF file", func() {
			path := filepath.Join(dir, "text")
			Expect(os.WriteFile(path, []byte("not an elf"), 0644)).To(Succeed())
			_, err := loader.Load(path)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Program as a code source", func() {
		var prog *loader.Program

		BeforeEach(func() {
			path := filepath.Join(dir, "code.elf")
			writeELF32(path, 40, 0x8000,
				segment{vaddr: 0x8000, data: armCode, flags: pfR | pfX},
				segment{vaddr: 0x9000, data: []byte{0xde, 0xad, 0xbe, 0xef}, flags: pfR | pfW})
			var err error
			prog, err = loader.Load(path)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should fetch words and halfwords", func() {
			w, err := prog.Fetch32(0x8000)
			Expect(err).NotTo(HaveOccurred())
			Expect(w).To(Equal(uint32(0xe3a0002a)))

			h, err := prog.Fetch16(0x8006)
			Expect(err).NotTo(HaveOccurred())
			Expect(h).To(Equal(uint16(0xe12f)))
		})

		It("should refuse fetches outside executable segments", func() {
			_, err := prog.Fetch32(0x9000)
			Expect(err).To(HaveOccurred())
			_, err = prog.Fetch32(0x8006)
			Expect(err).To(HaveOccurred())
		})

		It("should feed the translator", func() {
			b, err := xlate.New(prog).TranslateBlock(prog.EntryPoint, prog.Thumb)
			Expect(err).NotTo(HaveOccurred())
			Expect(b.GuestInsts).To(Equal(2))
			Expect(b.Size).To(Equal(uint32(8)))
		})

		It("should copy segments into memory", func() {
			mem := emu.NewMemory()
			prog.LoadInto(mem, 0x100000)
			Expect(mem.Read8(0x108000)).To(Equal(uint8(0x2a)))
			Expect(mem.Read8(0x109003)).To(Equal(uint8(0xef)))
		})
	})
})
