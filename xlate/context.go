package xlate

import (
	"fmt"

	"github.com/sarchlab/armxlate/host"
	"github.com/sarchlab/armxlate/insts"
	"github.com/sarchlab/armxlate/regalloc"
)

// Context is the mutable state of one block translation. Every handler
// receives it explicitly; nothing about a block lives anywhere else.
type Context struct {
	// PC is the guest address of the instruction being translated.
	PC uint32
	// Thumb is the instruction set of the block.
	Thumb bool
	// IT is the Thumb IT state for the current instruction.
	IT insts.ITState
	// SkipNext is set by a handler that consumed the following instruction.
	SkipNext bool

	Policy    Policy
	PageShift uint8
	Fusion    bool

	// FlagsModified records that emitted code rewrote the host flags.
	FlagsModified bool

	Alloc *regalloc.Allocator
	Asm   *host.Assembler

	src     CodeSource
	decoder *insts.Decoder

	raw   uint32
	kind  insts.Kind
	size  uint32
	cond  insts.Cond
	ended bool
	fused int
}

func newContext(src CodeSource, pc uint32, thumb bool) *Context {
	return &Context{
		PC:        pc,
		Thumb:     thumb,
		PageShift: 12,
		Alloc:     regalloc.New(),
		Asm:       host.NewAssembler(),
		src:       src,
		decoder:   insts.NewDecoder(),
	}
}

// InPredicateBlock reports whether the current instruction sits inside a
// Thumb IT block.
func (c *Context) InPredicateBlock() bool { return c.IT.Active() }

// fetch reads and classifies the instruction at pc. Thumb encodings of the
// kinds shared with A32 are rewritten to their A32 form.
func (c *Context) fetch(pc uint32) (raw uint32, kind insts.Kind, size uint32, err error) {
	if !c.Thumb {
		raw, err = c.src.Fetch32(pc)
		if err != nil {
			return 0, 0, 0, err
		}
		return raw, c.decoder.DecodeARM(raw), 4, nil
	}

	hw1, err := c.src.Fetch16(pc)
	if err != nil {
		return 0, 0, 0, err
	}
	var hw2 uint16
	if insts.IsThumb32(hw1) {
		if hw2, err = c.src.Fetch16(pc + 2); err != nil {
			return 0, 0, 0, err
		}
		raw = uint32(hw1)<<16 | uint32(hw2)
	} else {
		raw = uint32(hw1)
	}
	k, n := c.decoder.DecodeThumb(hw1, hw2)
	if k.Shared() {
		raw = insts.SharedARMForm(raw)
	}
	return raw, k, uint32(n), nil
}

// begin prepares the context for one instruction.
func (c *Context) begin(raw uint32, kind insts.Kind, size uint32) {
	c.raw, c.kind, c.size = raw, kind, size
	switch {
	case c.Thumb && c.IT.Active():
		c.cond = c.IT.Cond()
	case c.Thumb:
		c.cond = insts.CondAL
	case insts.Cond(raw>>28) == insts.CondNV:
		c.cond = insts.CondAL
	default:
		c.cond = insts.Cond(raw >> 28)
	}
}

// unimplemented builds the error that aborts the block.
func (c *Context) unimplemented() error {
	return fmt.Errorf("%w: %v 0x%08x at 0x%08x", ErrUnimplemented, c.kind, c.raw, c.PC)
}

// Cond returns the predicate of the current instruction.
func (c *Context) Cond() insts.Cond { return c.cond }

func (c *Context) conditional() bool { return c.cond != insts.CondAL }

func hostCond(cond insts.Cond) host.Cond { return host.Cond(cond) }

func invert(cond insts.Cond) insts.Cond { return cond ^ 1 }

// NextPC returns the address of the following instruction.
func (c *Context) NextPC() uint32 { return c.PC + c.size }

// ReadPC returns the value an instruction observes when it reads r15.
func (c *Context) ReadPC() uint32 {
	if c.Thumb {
		return c.PC + 4
	}
	return c.PC + 8
}

// alignedPC is the word-aligned PC used by literal loads and ADR.
func (c *Context) alignedPC() uint32 { return c.ReadPC() &^ 3 }

func (c *Context) thumbBit() uint32 {
	if c.Thumb {
		return 1
	}
	return 0
}

// invariant aborts translation on a handler precondition failure.
func invariant(format string, args ...any) {
	panic(&regalloc.InvariantError{Msg: fmt.Sprintf(format, args...)})
}

// reg reads guest register n. The program counter is materialized into a
// temporary holding value; any other register is aliased.
func (c *Context) reg(n uint8) *regalloc.Handle {
	return c.regOr(n, c.ReadPC())
}

func (c *Context) regOr(n uint8, pc uint32) *regalloc.Handle {
	if n == regalloc.GuestPC {
		return c.constant(pc)
	}
	return c.Alloc.Alias(host.RegOperand(regalloc.Remap(n)))
}

// constant materializes v into a temporary.
func (c *Context) constant(v uint32) *regalloc.Handle {
	h := c.Alloc.AcquireGPR()
	c.Asm.MovImm(h.W(), uint64(v))
	return h
}

// guard emits a branch around the rest of the instruction when it is
// predicated. The returned function binds the skip target.
func (c *Context) guard() func() {
	if !c.conditional() {
		return func() {}
	}
	skip := c.Asm.NewLabel()
	c.Asm.BCond(hostCond(invert(c.cond)), skip)
	return func() { c.Asm.Bind(skip) }
}

// dest returns where a single-register result should be computed. An
// unconditional instruction writes the guest register directly; a
// predicated one writes a temporary that commit selects into place.
func (c *Context) dest(rd uint8) (dst host.GPR, commit func()) {
	if rd == regalloc.GuestPC {
		invariant("dest used for the program counter")
	}
	target := regalloc.Remap(rd)
	if !c.conditional() {
		return target, func() {}
	}
	t := c.Alloc.AcquireGPR()
	return t.W(), func() {
		c.Asm.Csel(target, t.W(), target, hostCond(c.cond))
		t.Release()
	}
}

// exit ends the current path through the block with the next guest PC in
// the exit register. An unconditional exit ends the block.
func (c *Context) exit() {
	c.Asm.Ret()
	if !c.conditional() {
		c.ended = true
	}
}

// exitTo leaves the block for a constant guest address.
func (c *Context) exitTo(target uint32, thumb bool) {
	if thumb {
		target |= 1
	}
	c.Asm.MovImm(host.W(regalloc.RegExit), uint64(target))
	c.exit()
}

// exitReg leaves the block for the address in r, which already carries
// the interworking bit.
func (c *Context) exitReg(r host.GPR) {
	c.Asm.Mov(host.W(regalloc.RegExit), r.W())
	c.exit()
}

// branchTo emits a direct branch under the current predicate. A predicated
// branch selects between the target and the fall-through address, so both
// paths leave the block here.
func (c *Context) branchTo(target uint32, thumb bool, link uint32, hasLink bool) {
	if thumb {
		target |= 1
	}
	if !c.conditional() {
		if hasLink {
			c.Asm.MovImm(regalloc.Remap(regalloc.GuestLR), uint64(link))
		}
		c.exitTo(target, false)
		return
	}

	hc := hostCond(c.cond)
	t := c.Alloc.AcquireGPR()
	defer t.Release()
	if hasLink {
		lr := regalloc.Remap(regalloc.GuestLR)
		c.Asm.MovImm(t.W(), uint64(link))
		c.Asm.Csel(lr, t.W(), lr, hc)
	}
	exit := host.W(regalloc.RegExit)
	c.Asm.MovImm(t.W(), uint64(target))
	c.Asm.MovImm(exit, uint64(c.NextPC()|c.thumbBit()))
	c.Asm.Csel(exit, t.W(), exit, hc)
	c.Asm.Ret()
	c.ended = true
}

// trap emits a trap placeholder: the argument goes to the state block, the
// exit register holds the trapping instruction and BRK carries the kind.
func (c *Context) trap(kind uint16, arg uint32) {
	done := c.guard()
	t := c.Alloc.AcquireGPR()
	c.Asm.MovImm(t.W(), uint64(arg))
	c.Asm.Str(t.W(), host.X(regalloc.RegState), regalloc.StateTrapArg, 2)
	t.Release()
	c.Asm.MovImm(host.W(regalloc.RegExit), uint64(c.PC|c.thumbBit()))
	c.Asm.Brk(kind)
	if !c.conditional() {
		c.ended = true
	}
	done()
}

// saveFlags preserves NZCV around an internal sequence that clobbers it.
func (c *Context) saveFlags() (restore func()) {
	h := c.Alloc.AcquireGPR()
	c.Asm.MrsNZCV(h.X())
	return func() {
		c.Asm.MsrNZCV(h.X())
		h.Release()
	}
}
