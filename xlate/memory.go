package xlate

import (
	"github.com/sarchlab/armxlate/host"
	"github.com/sarchlab/armxlate/insts"
	"github.com/sarchlab/armxlate/regalloc"
)

// addrMode is a guest addressing mode: offset, pre-indexed or
// post-indexed, adding or subtracting an immediate or a shifted register.
type addrMode struct {
	rn        uint8
	index     bool // access at the offset address
	add       bool
	writeback bool
	imm       uint32
	regOffset bool
	rm        uint8
	shift     insts.ShiftType
	amount    uint8
}

func immMode(rn uint8, p, u, w bool, imm uint32) addrMode {
	return addrMode{rn: rn, index: p, add: u, writeback: w || !p, imm: imm}
}

func regMode(rn uint8, p, u, w bool, rm uint8, t insts.ShiftType, amt uint8) addrMode {
	return addrMode{
		rn:        rn,
		index:     p,
		add:       u,
		writeback: w || !p,
		regOffset: true,
		rm:        rm,
		shift:     t,
		amount:    amt,
	}
}

func offsetMode(rn uint8, imm uint32) addrMode {
	return immMode(rn, true, true, false, imm)
}

// Host offset envelopes.

func fitsScaled(off int64, size uint8) bool {
	return off >= 0 && off%(1<<size) == 0 && off>>size <= 0xFFF
}

func fitsUnscaled(off int64) bool { return off >= -256 && off <= 255 }

func fitsPair(off int64) bool { return off%4 == 0 && off >= -256 && off <= 252 }

// address is a resolved guest address.
type address struct {
	ea    host.GPR // guest address of the access
	next  host.GPR // base value after write-back
	fold  int64    // constant left for the host access to add
	temps []*regalloc.Handle
}

func (a *address) hold(h *regalloc.Handle) *regalloc.Handle {
	a.temps = append(a.temps, h)
	return h
}

func (a *address) release() {
	for _, h := range a.temps {
		h.Release()
	}
	a.temps = nil
}

// resolve computes the guest address of m. A constant offset is left in
// fold when canFold accepts it and no write-back is needed.
func (c *Context) resolve(m addrMode, canFold func(off int64) bool) *address {
	a := &address{}
	base := a.hold(c.regOr(m.rn, c.alignedPC())).W()
	if !m.regOffset && m.imm == 0 {
		a.ea, a.next = base, base
		return a
	}

	off := int64(m.imm)
	if !m.add {
		off = -off
	}
	if !m.regOffset && m.index && !m.writeback && canFold != nil && canFold(off) {
		a.ea, a.next, a.fold = base, base, off
		return a
	}

	sum := a.hold(c.Alloc.AcquireGPR()).W()
	if m.regOffset {
		o := c.shiftedOperand(m.rm, m.shift, m.amount, false)
		o.noRotate(c)
		if m.add {
			c.Asm.AddReg(sum, base, o.reg, o.shift, o.amount)
		} else {
			c.Asm.SubReg(sum, base, o.reg, o.shift, o.amount)
		}
		o.release()
	} else {
		c.addConst(sum, base, uint32(off))
	}
	a.next = sum
	a.ea = base
	if m.index {
		a.ea = sum
	}
	return a
}

// addConst emits dst = n + v.
func (c *Context) addConst(dst, n host.GPR, v uint32) {
	o := immOperand(v, false, false)
	c.addSub(false, dst, n, o)
	o.release()
}

// hostAddr translates the guest address in ea into a host address.
func (c *Context) hostAddr(ea host.GPR) *regalloc.Handle {
	a := c.Alloc.AcquireGPR()
	base := host.X(regalloc.RegMemBase)
	if c.Policy == PolicyDirect {
		c.Asm.AddExt(a.X(), base, ea, host.ExtUXTW, 0)
		return a
	}
	off := c.Alloc.AcquireGPR()
	c.Asm.Lsr(a.W(), ea, c.PageShift)
	c.Asm.LdrReg(a.X(), base, a.X(), 3, false, true)
	c.Asm.AndImm(off.W(), ea, uint64(1)<<c.PageShift-1)
	c.Asm.AddExt(a.X(), a.X(), off.W(), host.ExtUXTW, 0)
	off.Release()
	return a
}

func (c *Context) canFold(size uint8) func(int64) bool {
	return func(off int64) bool {
		return c.Policy == PolicyDirect && (fitsScaled(off, size) || fitsUnscaled(off))
	}
}

func (c *Context) emitLoad(rt, xa host.GPR, off int64, size uint8, signed bool) {
	if fitsScaled(off, size) {
		c.Asm.Ldr(rt, xa, off, size, signed)
		return
	}
	c.Asm.Ldur(rt, xa, off, size, signed)
}

func (c *Context) emitStore(rt, xa host.GPR, off int64, size uint8) {
	if fitsScaled(off, size) {
		c.Asm.Str(rt, xa, off, size)
		return
	}
	c.Asm.Stur(rt, xa, off, size)
}

// writeBack commits the updated base.
func (c *Context) writeBack(m addrMode, a *address) {
	if m.writeback {
		c.Asm.Mov(regalloc.Remap(m.rn), a.next)
	}
}

// access emits a single load or store of 1<<size bytes. A load writes the
// base back before loading, so a loaded Rt == Rn wins; a store stores the
// old value first.
func (c *Context) access(load bool, size uint8, signed bool, rt uint8, m addrMode) error {
	if m.writeback && m.rn == regalloc.GuestPC {
		return c.unimplemented()
	}
	if rt == regalloc.GuestPC && load && size != 2 {
		return c.unimplemented()
	}
	done := c.guard()
	defer done()

	a := c.resolve(m, c.canFold(size))
	defer a.release()
	xa := c.hostAddr(a.ea)
	defer xa.Release()

	if load {
		c.writeBack(m, a)
		if rt == regalloc.GuestPC {
			c.emitLoad(host.W(regalloc.RegExit), xa.X(), a.fold, size, false)
			c.exit()
			return nil
		}
		c.emitLoad(regalloc.Remap(rt), xa.X(), a.fold, size, signed)
		return nil
	}

	v := c.regOr(rt, c.ReadPC())
	c.emitStore(v.W(), xa.X(), a.fold, size)
	v.Release()
	c.writeBack(m, a)
	return nil
}

// dual emits LDRD or STRD. The direct policy uses one LDP/STP; the table
// policy translates each word separately since they may straddle a page.
func (c *Context) dual(load bool, rt, rt2 uint8, m addrMode) error {
	if anyPC(rt, rt2) || (load && rt == rt2) || (m.writeback && m.rn == regalloc.GuestPC) {
		return c.unimplemented()
	}
	done := c.guard()
	defer done()

	direct := c.Policy == PolicyDirect
	a := c.resolve(m, func(off int64) bool { return direct && fitsPair(off) })
	defer a.release()
	t, t2 := regalloc.Remap(rt), regalloc.Remap(rt2)

	if direct {
		xa := c.hostAddr(a.ea)
		defer xa.Release()
		if load {
			c.writeBack(m, a)
			c.Asm.Ldp(t, t2, xa.X(), a.fold)
			return nil
		}
		c.Asm.Stp(t, t2, xa.X(), a.fold)
		c.writeBack(m, a)
		return nil
	}

	second := c.Alloc.AcquireGPR()
	defer second.Release()
	c.Asm.AddImm(second.W(), a.ea, 4)
	x1 := c.hostAddr(a.ea)
	x2 := c.hostAddr(second.W())
	defer x1.Release()
	defer x2.Release()
	if load {
		c.writeBack(m, a)
		c.Asm.Ldr(t, x1.X(), 0, 2, false)
		c.Asm.Ldr(t2, x2.X(), 0, 2, false)
		return nil
	}
	c.Asm.Str(t, x1.X(), 0, 2)
	c.Asm.Str(t2, x2.X(), 0, 2)
	c.writeBack(m, a)
	return nil
}

// armPair returns the register pair of an A32 doubleword access.
func armPair(rt uint8) (uint8, uint8) {
	if rt%2 != 0 {
		invariant("doubleword transfer with odd r%d", rt)
	}
	return rt, rt + 1
}

// syncAccess is an exclusive or acquire/release access.
type syncAccess struct {
	load      bool
	size      uint8 // insts.Sync* constant
	exclusive bool
	ordered   bool
	rn        uint8
	rt, rt2   uint8
	status    uint8
	imm       uint32
}

func syncLog2(size uint8) uint8 {
	switch size {
	case insts.SyncByte:
		return 0
	case insts.SyncHalf:
		return 1
	}
	return 2
}

// exclusive emits LDREX/STREX, LDA/STL and LDAEX/STLEX in every size.
func (c *Context) exclusive(s syncAccess) error {
	if anyPC(s.rn, s.rt) || s.size == insts.SyncDouble && s.rt2 == regalloc.GuestPC {
		return c.unimplemented()
	}
	if !s.load && s.exclusive && (s.status == regalloc.GuestPC || s.status == s.rt ||
		s.status == s.rn || s.size == insts.SyncDouble && s.status == s.rt2) {
		return c.unimplemented()
	}
	done := c.guard()
	defer done()

	a := c.resolve(offsetMode(s.rn, s.imm), nil)
	defer a.release()
	xa := c.hostAddr(a.ea)
	defer xa.Release()
	rt := regalloc.Remap(s.rt)
	size := syncLog2(s.size)

	if s.load {
		switch {
		case s.size == insts.SyncDouble:
			op := host.OpLDXP
			if s.ordered {
				op = host.OpLDAXP
			}
			c.Asm.LoadExclusivePair(op, rt, regalloc.Remap(s.rt2), xa.X())
		case s.exclusive:
			op := host.OpLDXR
			if s.ordered {
				op = host.OpLDAXR
			}
			c.Asm.LoadExclusive(op, rt, xa.X(), size)
		default:
			c.Asm.LoadExclusive(host.OpLDAR, rt, xa.X(), size)
		}
		return nil
	}

	if !s.exclusive {
		c.Asm.StoreExclusive(host.OpSTLR, host.WZR, rt, xa.X(), size)
		return nil
	}
	st := c.Alloc.AcquireGPR()
	defer st.Release()
	if s.size == insts.SyncDouble {
		op := host.OpSTXP
		if s.ordered {
			op = host.OpSTLXP
		}
		c.Asm.StoreExclusivePair(op, st.W(), rt, regalloc.Remap(s.rt2), xa.X())
	} else {
		op := host.OpSTXR
		if s.ordered {
			op = host.OpSTLXR
		}
		c.Asm.StoreExclusive(op, st.W(), rt, xa.X(), size)
	}
	c.Asm.Mov(regalloc.Remap(s.status), st.W())
	return nil
}

// A32 handlers.

func translateARMLoadStoreImm(c *Context, raw uint32) error {
	v := insts.LdStImm(raw)
	// Post-indexed forms with W set are LDRT/STRT, which behave like
	// plain accesses in user mode.
	m := immMode(v.Rn(), v.P(), v.U(), v.W(), v.Imm12())
	return c.access(v.L(), wordOrByte(v.B()), false, v.Rt(), m)
}

func translateARMLoadStoreReg(c *Context, raw uint32) error {
	v := insts.LdStReg(raw)
	t, amt := v.Shift()
	m := regMode(v.Rn(), v.P(), v.U(), v.W(), v.Rm(), t, amt)
	return c.access(v.L(), wordOrByte(v.B()), false, v.Rt(), m)
}

func wordOrByte(b bool) uint8 {
	if b {
		return 0
	}
	return 2
}

// extraAccess decodes the op2/L pair of the extra load/store group.
func (c *Context) extraAccess(load bool, op2 uint8, rt uint8, m addrMode) error {
	switch {
	case op2 == insts.ExtraOpH:
		return c.access(load, 1, false, rt, m)
	case op2 == insts.ExtraOpSB && load:
		return c.access(true, 0, true, rt, m)
	case op2 == insts.ExtraOpSH && load:
		return c.access(true, 1, true, rt, m)
	case op2 == insts.ExtraOpD:
		r1, r2 := armPair(rt)
		return c.dual(true, r1, r2, m)
	case op2 == insts.ExtraOpDS:
		r1, r2 := armPair(rt)
		return c.dual(false, r1, r2, m)
	}
	return c.unimplemented()
}

func translateARMExtraLoadStoreImm(c *Context, raw uint32) error {
	v := insts.ExtraLdStImm(raw)
	m := immMode(v.Rn(), v.P(), v.U(), v.W(), v.Imm8())
	return c.extraAccess(v.L(), v.Op2(), v.Rt(), m)
}

func translateARMExtraLoadStoreReg(c *Context, raw uint32) error {
	v := insts.ExtraLdStReg(raw)
	m := regMode(v.Rn(), v.P(), v.U(), v.W(), v.Rm(), insts.ShiftLSL, 0)
	return c.extraAccess(v.L(), v.Op2(), v.Rt(), m)
}

func translateARMSync(c *Context, raw uint32) error {
	v := insts.Sync(raw)
	s := syncAccess{
		load:      v.L(),
		size:      v.Size(),
		exclusive: v.Exclusive(),
		ordered:   v.Ordered(),
		rn:        v.Rn(),
	}
	if s.load {
		s.rt = v.LoadRt()
	} else {
		s.rt, s.status = v.Rt(), v.Rd()
	}
	if s.size == insts.SyncDouble {
		s.rt, s.rt2 = armPair(s.rt)
	}
	return c.exclusive(s)
}

// Thumb 16-bit handlers.

func translateT16LoadLiteral(c *Context, raw uint32) error {
	v := insts.T16LoadLiteral(raw)
	return c.access(true, 2, false, v.Rt(), offsetMode(regalloc.GuestPC, v.Imm32()))
}

func translateT16LoadStoreReg(c *Context, raw uint32) error {
	v := insts.T16LdStReg(raw)
	m := regMode(v.Rn(), true, true, false, v.Rm(), insts.ShiftLSL, 0)
	switch v.Op() {
	case insts.T16LdStSTR:
		return c.access(false, 2, false, v.Rt(), m)
	case insts.T16LdStSTRH:
		return c.access(false, 1, false, v.Rt(), m)
	case insts.T16LdStSTRB:
		return c.access(false, 0, false, v.Rt(), m)
	case insts.T16LdStLDRSB:
		return c.access(true, 0, true, v.Rt(), m)
	case insts.T16LdStLDR:
		return c.access(true, 2, false, v.Rt(), m)
	case insts.T16LdStLDRH:
		return c.access(true, 1, false, v.Rt(), m)
	case insts.T16LdStLDRB:
		return c.access(true, 0, false, v.Rt(), m)
	default:
		return c.access(true, 1, true, v.Rt(), m)
	}
}

func translateT16LoadStoreImm(c *Context, raw uint32) error {
	v := insts.T16LdStImm(raw)
	size := [...]uint8{0, 0, 1, 0, 2}[v.Size()]
	return c.access(v.L(), size, false, v.Rt(), offsetMode(v.Rn(), v.Offset()))
}

func translateT16LoadStoreSP(c *Context, raw uint32) error {
	v := insts.T16LdStSP(raw)
	return c.access(v.L(), 2, false, v.Rt(), offsetMode(regalloc.GuestSP, v.Imm32()))
}

// Thumb 32-bit handlers.

func translateT32LoadStoreImm12(c *Context, raw uint32) error {
	v := insts.T32LdStImm12(raw)
	return c.access(v.L(), v.Size(), v.Signed(), v.Rt(), offsetMode(v.Rn(), v.Imm12()))
}

func translateT32LoadStoreImm8(c *Context, raw uint32) error {
	v := insts.T32LdStImm8(raw)
	m := immMode(v.Rn(), v.P(), v.U(), v.W(), v.Imm8())
	return c.access(v.L(), v.Size(), v.Signed(), v.Rt(), m)
}

func translateT32LoadStoreReg(c *Context, raw uint32) error {
	v := insts.T32LdStReg(raw)
	m := regMode(v.Rn(), true, true, false, v.Rm(), insts.ShiftLSL, v.Imm2())
	return c.access(v.L(), v.Size(), v.Signed(), v.Rt(), m)
}

func translateT32LoadLiteral(c *Context, raw uint32) error {
	v := insts.T32LoadLiteral(raw)
	m := immMode(regalloc.GuestPC, true, v.U(), false, v.Imm12())
	return c.access(true, v.Size(), v.Signed(), v.Rt(), m)
}

func translateT32LoadStoreDual(c *Context, raw uint32) error {
	v := insts.T32LdStDual(raw)
	m := immMode(v.Rn(), v.P(), v.U(), v.W(), v.Imm32())
	return c.dual(v.L(), v.Rt(), v.Rt2(), m)
}

func translateT32Exclusive(c *Context, raw uint32) error {
	v := insts.T32Exclusive(raw)
	s := syncAccess{
		load:      v.L(),
		size:      v.Size(),
		exclusive: v.Exclusive(),
		ordered:   v.Ordered(),
		rn:        v.Rn(),
		rt:        v.Rt(),
		rt2:       v.Rt2(),
		status:    v.Rd(),
		imm:       v.Imm32(),
	}
	return c.exclusive(s)
}
