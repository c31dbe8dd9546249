package xlate_test

import (
	"encoding/binary"
	"sync"

	. "github.com/onsi/gomega"

	"github.com/sarchlab/armxlate/emu"
	"github.com/sarchlab/armxlate/host"
	"github.com/sarchlab/armxlate/regalloc"
	"github.com/sarchlab/armxlate/xlate"
)

// Host memory layout used by the tests. Guest addresses stay below 256 KiB.
const (
	codeBase  = 0x8000
	memBase   = 0x1_0000_0000
	stateBase = 0x2_0000_0000
	tableBase = 0x3_0000_0000
	pageBase  = 0x4_0000_0000
	pages     = 64
)

func armImage(words ...uint32) *xlate.Image {
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[4*i:], w)
	}
	return xlate.NewImage(codeBase, buf)
}

func thumbImage(halves ...uint16) *xlate.Image {
	buf := make([]byte, 2*len(halves))
	for i, h := range halves {
		binary.LittleEndian.PutUint16(buf[2*i:], h)
	}
	return xlate.NewImage(codeBase, buf)
}

// translate translates the block at codeBase and fails the test on error.
func translate(src xlate.CodeSource, thumb bool, opts ...xlate.Option) *xlate.Block {
	b, err := xlate.New(src, opts...).TranslateBlock(codeBase, thumb)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	return b
}

func count(b *xlate.Block, op host.Op) int {
	n := 0
	for _, in := range b.Insts {
		if in.Op == op {
			n++
		}
	}
	return n
}

// guest is a host machine prepared with the entry state translated code
// expects. Under the table policy the guest pages are mapped in reverse
// order so that neighbouring guest pages are not neighbours on the host.
type guest struct {
	m      *emu.Machine
	policy xlate.Policy
}

func newGuest(policy xlate.Policy) *guest {
	g := &guest{m: emu.NewMachine(emu.WithMaxInstructions(100000)), policy: policy}
	rf := g.m.RegFile()
	rf.WriteReg(regalloc.RegState, stateBase)
	if policy == xlate.PolicyDirect {
		rf.WriteReg(regalloc.RegMemBase, memBase)
		return g
	}
	rf.WriteReg(regalloc.RegMemBase, tableBase)
	for p := uint64(0); p < pages; p++ {
		g.m.Memory().Write64(tableBase+8*p, pageBase+(pages-1-p)*0x1000)
	}
	return g
}

func (g *guest) host(addr uint32) uint64 {
	if g.policy == xlate.PolicyDirect {
		return memBase + uint64(addr)
	}
	p := uint64(addr >> 12)
	return pageBase + (pages-1-p)*0x1000 + uint64(addr&0xFFF)
}

func (g *guest) r(n uint8) uint32 { return uint32(g.m.RegFile().ReadReg(n)) }
func (g *guest) setR(n uint8, v uint32) { g.m.RegFile().WriteReg(n, uint64(v)) }
func (g *guest) exit() uint32 { return g.r(regalloc.RegExit) }
func (g *guest) flags() emu.PSTATE { return g.m.RegFile().PSTATE }
func (g *guest) setFlags(f emu.PSTATE) { g.m.RegFile().PSTATE = f }
func (g *guest) read32(addr uint32) uint32 { return g.m.Memory().Read32(g.host(addr)) }
func (g *guest) read8(addr uint32) uint8 { return g.m.Memory().Read8(g.host(addr)) }
func (g *guest) write32(addr, v uint32) { g.m.Memory().Write32(g.host(addr), v) }
func (g *guest) state32(off uint64) uint32 { return g.m.Memory().Read32(stateBase + off) }

func (g *guest) write16(addr uint32, v uint16) {
	g.m.Memory().Write16(g.host(addr), v)
}

func (g *guest) read16(addr uint32) uint16 {
	return g.m.Memory().Read16(g.host(addr))
}

// run executes a block and expects it to leave through RET.
func (g *guest) run(b *xlate.Block) {
	res := g.m.Run(b.Insts)
	ExpectWithOffset(1, res.Err).NotTo(HaveOccurred())
	ExpectWithOffset(1, res.Reason).To(Equal(emu.ExitReturn))
}

// trap executes a block and expects it to stop at a trap placeholder.
func (g *guest) trap(b *xlate.Block) uint16 {
	res := g.m.Run(b.Insts)
	ExpectWithOffset(1, res.Err).NotTo(HaveOccurred())
	ExpectWithOffset(1, res.Reason).To(Equal(emu.ExitBreak))
	return res.BreakImm
}

// recorder is a Publisher that keeps every block it receives.
type recorder struct {
	mu     sync.Mutex
	blocks []*xlate.Block
}

func (r *recorder) Publish(b *xlate.Block) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blocks = append(r.blocks, b)
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.blocks)
}

var policies = []xlate.Policy{xlate.PolicyDirect, xlate.PolicyTable}

// Common guest encodings.
const (
	armBXLR   = 0xE12FFF1E
	thumbBXLR = 0x4770
	retAddr   = 0x9000
)
