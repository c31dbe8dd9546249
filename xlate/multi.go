package xlate

import (
	"math/bits"

	"github.com/sarchlab/armxlate/host"
	"github.com/sarchlab/armxlate/insts"
	"github.com/sarchlab/armxlate/regalloc"
)

// blockMode is the address progression of a multiple transfer.
type blockMode uint8

const (
	modeIA blockMode = iota // increment after
	modeIB                  // increment before
	modeDA                  // decrement after
	modeDB                  // decrement before
)

func armBlockMode(p, u bool) blockMode {
	switch {
	case u && !p:
		return modeIA
	case u:
		return modeIB
	case !p:
		return modeDA
	}
	return modeDB
}

// lowest returns the offset of the lowest transferred word from the base.
func (m blockMode) lowest(n int) int64 {
	switch m {
	case modeIB:
		return 4
	case modeDA:
		return 4 - 4*int64(n)
	case modeDB:
		return -4 * int64(n)
	}
	return 0
}

func (m blockMode) decrement() bool { return m == modeDA || m == modeDB }

// blockTransfer emits LDM/STM and their aliases. Registers move in
// ascending order to ascending addresses. The written-back base is computed
// before the loop and committed after it.
func (c *Context) blockTransfer(rn uint8, list uint16, load, writeback bool, mode blockMode) error {
	n := bits.OnesCount16(list)
	if n == 0 || rn == regalloc.GuestPC {
		return c.unimplemented()
	}
	done := c.guard()
	defer done()

	a := &address{}
	defer a.release()
	base := regalloc.Remap(rn)
	start := base
	if off := mode.lowest(n); off != 0 {
		start = a.hold(c.Alloc.AcquireGPR()).W()
		c.addConst(start, base, uint32(off))
	}
	// Table addresses are formed from start per word, so a base that the
	// list overwrites must be copied first.
	if start == base && load && list&(1<<rn) != 0 && c.Policy == PolicyTable {
		start = a.hold(c.Alloc.AcquireGPR()).W()
		c.Asm.Mov(start, base)
	}
	var next host.GPR
	if writeback {
		delta := uint32(4 * n)
		if mode.decrement() {
			delta = -delta
		}
		next = a.hold(c.Alloc.AcquireGPR()).W()
		c.addConst(next, base, delta)
	}

	if c.Policy == PolicyDirect {
		c.transferDirect(load, list, a.hold(c.hostAddr(start)).X(), a)
	} else {
		c.transferTable(load, list, start, a)
	}

	if writeback {
		c.Asm.Mov(base, next)
	}
	if load && list&(1<<regalloc.GuestPC) != 0 {
		c.exit()
	}
	return nil
}

// slot returns the host register that carries guest register r.
func (c *Context) slot(load bool, r uint8, a *address) host.GPR {
	if r != regalloc.GuestPC {
		return regalloc.Remap(r)
	}
	if load {
		return host.W(regalloc.RegExit)
	}
	return a.hold(c.constant(c.ReadPC())).W()
}

// transferDirect moves the list through one host base, pairing adjacent
// registers into LDP/STP.
func (c *Context) transferDirect(load bool, list uint16, xa host.GPR, a *address) {
	k := int64(0)
	for r := uint8(0); r < 16; r++ {
		if list&(1<<r) == 0 {
			continue
		}
		off := 4 * k
		if r+1 < regalloc.GuestPC && list&(1<<(r+1)) != 0 {
			t1, t2 := regalloc.Remap(r), regalloc.Remap(r+1)
			if load {
				c.Asm.Ldp(t1, t2, xa, off)
			} else {
				c.Asm.Stp(t1, t2, xa, off)
			}
			r++
			k += 2
			continue
		}
		t := c.slot(load, r, a)
		if load {
			c.Asm.Ldr(t, xa, off, 2, false)
		} else {
			c.Asm.Str(t, xa, off, 2)
		}
		k++
	}
}

// transferTable translates every word's address separately.
func (c *Context) transferTable(load bool, list uint16, start host.GPR, a *address) {
	addr := a.hold(c.Alloc.AcquireGPR()).W()
	k := uint32(0)
	for r := uint8(0); r < 16; r++ {
		if list&(1<<r) == 0 {
			continue
		}
		ea := start
		if k > 0 {
			c.Asm.AddImm(addr, start, 4*k)
			ea = addr
		}
		xa := c.hostAddr(ea)
		t := c.slot(load, r, a)
		if load {
			c.Asm.Ldr(t, xa.X(), 0, 2, false)
		} else {
			c.Asm.Str(t, xa.X(), 0, 2)
		}
		xa.Release()
		k++
	}
}

func translateARMBlockTransfer(c *Context, raw uint32) error {
	v := insts.BlockTransfer(raw)
	if v.S() {
		c.trap(TrapSystem, raw)
		return nil
	}
	return c.blockTransfer(v.Rn(), v.RegList(), v.L(), v.W(), armBlockMode(v.P(), v.U()))
}

func translateT16PushPop(c *Context, raw uint32) error {
	v := insts.T16PushPop(raw)
	if v.Pop() {
		return c.blockTransfer(regalloc.GuestSP, v.RegList(), true, true, modeIA)
	}
	return c.blockTransfer(regalloc.GuestSP, v.RegList(), false, true, modeDB)
}

func translateT16LoadStoreMulti(c *Context, raw uint32) error {
	v := insts.T16LdStMulti(raw)
	writeback := !v.L() || v.RegList()&(1<<v.Rn()) == 0
	return c.blockTransfer(v.Rn(), v.RegList(), v.L(), writeback, modeIA)
}

func translateT32LoadStoreMulti(c *Context, raw uint32) error {
	v := insts.T32LdStMulti(raw)
	mode := modeIA
	if v.DB() {
		mode = modeDB
	}
	return c.blockTransfer(v.Rn(), v.RegList(), v.L(), v.W(), mode)
}
