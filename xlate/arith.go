package xlate

import (
	"github.com/sarchlab/armxlate/host"
	"github.com/sarchlab/armxlate/insts"
	"github.com/sarchlab/armxlate/regalloc"
)

// dpOp is a data-processing operation in A32 opcode order, extended with
// the Thumb-2 only ORN.
type dpOp uint8

const (
	dpAND dpOp = iota
	dpEOR
	dpSUB
	dpRSB
	dpADD
	dpADC
	dpSBC
	dpRSC
	dpTST
	dpTEQ
	dpCMP
	dpCMN
	dpORR
	dpMOV
	dpBIC
	dpMVN
	dpORN
)

// logical reports operations whose C flag comes from the shifter.
func (op dpOp) logical() bool {
	switch op {
	case dpAND, dpEOR, dpTST, dpTEQ, dpORR, dpMOV, dpBIC, dpMVN, dpORN:
		return true
	}
	return false
}

// test reports the compare forms that write only flags.
func (op dpOp) test() bool {
	return op == dpTST || op == dpTEQ || op == dpCMP || op == dpCMN
}

// t32Op maps a Thumb-2 data-processing opcode to a dpOp, folding the
// Rd == PC compare forms and the Rn == PC move forms.
func t32Op(op, rn, rd uint8, s bool) (dpOp, bool) {
	toFlags := rd == regalloc.GuestPC && s
	switch op {
	case insts.T32OpAND:
		if toFlags {
			return dpTST, true
		}
		return dpAND, true
	case insts.T32OpBIC:
		return dpBIC, true
	case insts.T32OpORR:
		if rn == regalloc.GuestPC {
			return dpMOV, true
		}
		return dpORR, true
	case insts.T32OpORN:
		if rn == regalloc.GuestPC {
			return dpMVN, true
		}
		return dpORN, true
	case insts.T32OpEOR:
		if toFlags {
			return dpTEQ, true
		}
		return dpEOR, true
	case insts.T32OpADD:
		if toFlags {
			return dpCMN, true
		}
		return dpADD, true
	case insts.T32OpADC:
		return dpADC, true
	case insts.T32OpSBC:
		return dpSBC, true
	case insts.T32OpSUB:
		if toFlags {
			return dpCMP, true
		}
		return dpSUB, true
	case insts.T32OpRSB:
		return dpRSB, true
	}
	return 0, false
}

func addImmOK(v uint32) bool {
	return v < 1<<12 || (v&0xFFF == 0 && v < 1<<24)
}

// dataProc emits one data-processing instruction. The operand is released
// before returning.
func (c *Context) dataProc(op dpOp, s bool, rd, rn uint8, o *operand) error {
	defer o.release()

	if rd == regalloc.GuestPC && !op.test() {
		if s {
			c.trap(TrapSystem, c.raw)
			return nil
		}
		c.dataProcToPC(op, rn, o)
		return nil
	}

	if s || op.test() {
		done := c.guard()
		defer done()
		if op.logical() {
			c.logicalFlags(op, rd, rn, o)
		} else {
			c.arithFlags(op, rd, rn, o)
		}
		return nil
	}

	dst, commit := c.dest(rd)
	c.compute(op, dst, rn, o)
	commit()
	return nil
}

// dataProcToPC writes a computed branch target. Bit 0 of the result selects
// the instruction set in A32; Thumb stays in Thumb.
func (c *Context) dataProcToPC(op dpOp, rn uint8, o *operand) {
	done := c.guard()
	defer done()
	t := c.Alloc.AcquireGPR()
	defer t.Release()
	c.compute(op, t.W(), rn, o)
	if c.Thumb {
		c.Asm.OrrImm(t.W(), t.W(), 1)
	}
	c.exitReg(t.W())
}

// compute emits op without touching the flags.
func (c *Context) compute(op dpOp, dst host.GPR, rn uint8, o *operand) {
	switch op {
	case dpMOV:
		c.move(dst, o)
		return
	case dpMVN:
		if o.isImm {
			c.Asm.MovImm(dst, uint64(^o.imm))
			return
		}
		c.Asm.Mvn(dst, o.reg, o.shift, o.amount)
		return
	}

	n := c.reg(rn)
	defer n.Release()
	switch op {
	case dpAND, dpEOR, dpORR, dpBIC, dpORN, dpTST, dpTEQ:
		c.logical(op, dst, n.W(), o)
	case dpADD, dpCMN:
		c.addSub(false, dst, n.W(), o)
	case dpSUB, dpCMP:
		c.addSub(true, dst, n.W(), o)
	case dpRSB:
		if o.isImm && o.imm == 0 {
			c.Asm.Neg(dst, n.W())
			return
		}
		c.Asm.SubReg(dst, o.plain(c), n.W(), host.ShiftLSL, 0)
	case dpADC:
		c.Asm.Adc(dst, n.W(), o.plain(c), false)
	case dpSBC:
		c.Asm.Sbc(dst, n.W(), o.plain(c), false)
	case dpRSC:
		c.Asm.Sbc(dst, o.plain(c), n.W(), false)
	}
}

func (c *Context) move(dst host.GPR, o *operand) {
	if o.isImm {
		c.Asm.MovImm(dst, uint64(o.imm))
		return
	}
	if o.shift == host.ShiftLSL && o.amount == 0 {
		c.Asm.Mov(dst, o.reg)
		return
	}
	c.Asm.Logical(host.OpORR, false, dst, host.WZR, o.reg, o.shift, o.amount)
}

// logical emits AND, EOR, ORR, BIC or ORN, using the bitmask immediate
// form when the constant allows it.
func (c *Context) logical(op dpOp, dst, n host.GPR, o *operand) {
	if o.isImm {
		imm, immOp := o.imm, host.OpANDImm
		switch op {
		case dpEOR, dpTEQ:
			immOp = host.OpEORImm
		case dpORR:
			immOp = host.OpORRImm
		case dpBIC:
			imm = ^imm
		case dpORN:
			imm, immOp = ^imm, host.OpORRImm
		}
		if _, _, _, ok := host.EncodeBitmask(uint64(imm), false); ok {
			c.Asm.LogicalImm(immOp, false, dst, n, uint64(imm))
			return
		}
		o.materialize(c)
	}

	regOp := host.OpAND
	switch op {
	case dpEOR, dpTEQ:
		regOp = host.OpEOR
	case dpORR:
		regOp = host.OpORR
	case dpBIC:
		regOp = host.OpBIC
	case dpORN:
		regOp = host.OpORN
	}
	c.Asm.Logical(regOp, false, dst, n, o.reg, o.shift, o.amount)
}

func (c *Context) addSub(sub bool, dst, n host.GPR, o *operand) {
	if o.isImm {
		v := o.imm
		if sub {
			v = -v
		}
		switch {
		case addImmOK(v):
			c.Asm.AddImm(dst, n, v)
			return
		case addImmOK(-v):
			c.Asm.SubImm(dst, n, -v)
			return
		}
		o.materialize(c)
	}
	o.noRotate(c)
	if sub {
		c.Asm.SubReg(dst, n, o.reg, o.shift, o.amount)
		return
	}
	c.Asm.AddReg(dst, n, o.reg, o.shift, o.amount)
}

// arithFlags emits a flag-setting arithmetic operation. The host computes
// guest NZCV exactly for these, so the native S form is used.
func (c *Context) arithFlags(op dpOp, rd, rn uint8, o *operand) {
	d := host.WZR
	if !op.test() {
		d = regalloc.Remap(rd)
	}
	n := c.reg(rn)
	defer n.Release()

	switch op {
	case dpADD, dpCMN:
		if o.isImm && addImmOK(o.imm) {
			c.Asm.AddsImm(d, n.W(), o.imm)
			break
		}
		o.materialize(c)
		o.noRotate(c)
		c.Asm.AddsReg(d, n.W(), o.reg, o.shift, o.amount)
	case dpSUB, dpCMP:
		if o.isImm && addImmOK(o.imm) {
			c.Asm.SubsImm(d, n.W(), o.imm)
			break
		}
		o.materialize(c)
		o.noRotate(c)
		c.Asm.SubsReg(d, n.W(), o.reg, o.shift, o.amount)
	case dpRSB:
		c.Asm.SubsReg(d, o.plain(c), n.W(), host.ShiftLSL, 0)
	case dpADC:
		c.Asm.Adc(d, n.W(), o.plain(c), true)
	case dpSBC:
		c.Asm.Sbc(d, n.W(), o.plain(c), true)
	case dpRSC:
		c.Asm.Sbc(d, o.plain(c), n.W(), true)
	}
	c.nativeFlags()
}

// logicalFlags emits a flag-setting logical operation: N and Z from the
// result, C from the shifter, V unchanged.
func (c *Context) logicalFlags(op dpOp, rd, rn uint8, o *operand) {
	f := c.beginFlags(o.carry)
	if op.test() {
		t := c.Alloc.AcquireGPR()
		c.compute(op, t.W(), rn, o)
		f.commit(t.W())
		t.Release()
		return
	}
	d := regalloc.Remap(rd)
	c.compute(op, d, rn, o)
	f.commit(d)
}

// A32 handlers.

func translateARMDataProcImm(c *Context, raw uint32) error {
	v := insts.DPImm(raw)
	op := dpOp(v.Opcode())
	if op == dpMOV && !v.S() && c.tryFuse() {
		return nil
	}
	o := armImm(v.Rotate(), v.Imm8())
	return c.dataProc(op, v.S(), v.Rd(), v.Rn(), o)
}

func translateARMDataProcReg(c *Context, raw uint32) error {
	v := insts.DPReg(raw)
	op := dpOp(v.Opcode())
	if op == dpMOV && !v.S() && c.tryFuse() {
		return nil
	}
	t, amt := v.Shift()
	o := c.shiftedOperand(v.Rm(), t, amt, v.S() && op.logical())
	return c.dataProc(op, v.S(), v.Rd(), v.Rn(), o)
}

func translateARMDataProcRegShift(c *Context, raw uint32) error {
	v := insts.DPRegShift(raw)
	if v.Rd() == regalloc.GuestPC || v.Rm() == regalloc.GuestPC ||
		v.Rn() == regalloc.GuestPC || v.Rs() == regalloc.GuestPC {
		return c.unimplemented()
	}
	op := dpOp(v.Opcode())
	o := c.regShiftOperand(v.Rm(), v.Rs(), v.Type(), v.S() && op.logical())
	return c.dataProc(op, v.S(), v.Rd(), v.Rn(), o)
}

// dataProcBase emits a data-processing instruction whose first operand is
// the constant base rather than a register.
func (c *Context) dataProcBase(op dpOp, s bool, rd uint8, base uint32, o *operand) error {
	defer o.release()
	if s || rd == regalloc.GuestPC || !o.isImm {
		return c.unimplemented()
	}
	v := base + o.imm
	if op == dpSUB {
		v = base - o.imm
	}
	dst, commit := c.dest(rd)
	c.Asm.MovImm(dst, uint64(v))
	commit()
	return nil
}

// Thumb 16-bit handlers. Outside an IT block these set flags; inside they
// do not.

func (c *Context) t16Flags() bool { return !c.IT.Active() }

func translateT16ShiftImm(c *Context, raw uint32) error {
	v := insts.T16ShiftImm(raw)
	t, amt := insts.DecodeImmShift(v.Op(), v.Imm5())
	s := c.t16Flags()
	o := c.shiftedOperand(v.Rm(), t, amt, s)
	return c.dataProc(dpMOV, s, v.Rd(), 0, o)
}

func translateT16AddSub3(c *Context, raw uint32) error {
	v := insts.T16AddSub3(raw)
	op := dpADD
	if v.Sub() {
		op = dpSUB
	}
	var o *operand
	if v.Immediate() {
		o = immOperand(uint32(v.RmImm3()), false, false)
	} else {
		o = c.shiftedOperand(v.RmImm3(), insts.ShiftLSL, 0, false)
	}
	return c.dataProc(op, c.t16Flags(), v.Rd(), v.Rn(), o)
}

func translateT16Imm8(c *Context, raw uint32) error {
	v := insts.T16Imm8(raw)
	o := immOperand(uint32(v.Imm8()), false, false)
	switch v.Op() {
	case insts.T16Imm8MOV:
		if !c.t16Flags() && c.tryFuse() {
			return nil
		}
		return c.dataProc(dpMOV, c.t16Flags(), v.Rd(), 0, o)
	case insts.T16Imm8CMP:
		return c.dataProc(dpCMP, true, 0, v.Rd(), o)
	case insts.T16Imm8ADD:
		return c.dataProc(dpADD, c.t16Flags(), v.Rd(), v.Rd(), o)
	default:
		return c.dataProc(dpSUB, c.t16Flags(), v.Rd(), v.Rd(), o)
	}
}

func translateT16ALU(c *Context, raw uint32) error {
	v := insts.T16ALU(raw)
	rdn, rm := v.Rdn(), v.Rm()
	s := c.t16Flags()
	plain := func(needCarry bool) *operand {
		return c.shiftedOperand(rm, insts.ShiftLSL, 0, needCarry)
	}

	switch v.Op() {
	case insts.T16ALUAND:
		return c.dataProc(dpAND, s, rdn, rdn, plain(false))
	case insts.T16ALUEOR:
		return c.dataProc(dpEOR, s, rdn, rdn, plain(false))
	case insts.T16ALULSL:
		return c.dataProc(dpMOV, s, rdn, 0, c.regShiftOperand(rdn, rm, insts.ShiftLSL, s))
	case insts.T16ALULSR:
		return c.dataProc(dpMOV, s, rdn, 0, c.regShiftOperand(rdn, rm, insts.ShiftLSR, s))
	case insts.T16ALUASR:
		return c.dataProc(dpMOV, s, rdn, 0, c.regShiftOperand(rdn, rm, insts.ShiftASR, s))
	case insts.T16ALUADC:
		return c.dataProc(dpADC, s, rdn, rdn, plain(false))
	case insts.T16ALUSBC:
		return c.dataProc(dpSBC, s, rdn, rdn, plain(false))
	case insts.T16ALUROR:
		return c.dataProc(dpMOV, s, rdn, 0, c.regShiftOperand(rdn, rm, insts.ShiftROR, s))
	case insts.T16ALUTST:
		return c.dataProc(dpTST, true, 0, rdn, plain(false))
	case insts.T16ALURSB:
		return c.dataProc(dpRSB, s, rdn, rm, immOperand(0, false, false))
	case insts.T16ALUCMP:
		return c.dataProc(dpCMP, true, 0, rdn, plain(false))
	case insts.T16ALUCMN:
		return c.dataProc(dpCMN, true, 0, rdn, plain(false))
	case insts.T16ALUORR:
		return c.dataProc(dpORR, s, rdn, rdn, plain(false))
	case insts.T16ALUMUL:
		return c.multiply(s, rdn, rdn, rm)
	case insts.T16ALUBIC:
		return c.dataProc(dpBIC, s, rdn, rdn, plain(false))
	default:
		return c.dataProc(dpMVN, s, rdn, 0, plain(false))
	}
}

func translateT16HiReg(c *Context, raw uint32) error {
	v := insts.T16HiReg(raw)
	rdn, rm := v.Rdn(), v.Rm()
	switch v.Op() {
	case insts.T16HiADD:
		o := c.shiftedOperand(rm, insts.ShiftLSL, 0, false)
		if rdn == regalloc.GuestPC {
			c.dataProcToPC(dpADD, rdn, o)
			o.release()
			return nil
		}
		return c.dataProc(dpADD, false, rdn, rdn, o)
	case insts.T16HiCMP:
		return c.dataProc(dpCMP, true, 0, rdn, c.shiftedOperand(rm, insts.ShiftLSL, 0, false))
	case insts.T16HiMOV:
		if rdn == regalloc.GuestPC {
			o := c.shiftedOperand(rm, insts.ShiftLSL, 0, false)
			c.dataProcToPC(dpMOV, 0, o)
			o.release()
			return nil
		}
		if c.tryFuse() {
			return nil
		}
		return c.dataProc(dpMOV, false, rdn, 0, c.shiftedOperand(rm, insts.ShiftLSL, 0, false))
	}
	return c.unimplemented()
}

// translateT16ADR covers ADR and ADD Rd, SP, #imm.
func translateT16ADR(c *Context, raw uint32) error {
	v := insts.T16ADR(raw)
	o := immOperand(v.Imm32(), false, false)
	if v.SP() {
		return c.dataProc(dpADD, false, v.Rd(), regalloc.GuestSP, o)
	}
	return c.dataProcBase(dpADD, false, v.Rd(), c.alignedPC(), o)
}

func translateT16AdjustSP(c *Context, raw uint32) error {
	v := insts.T16AdjustSP(raw)
	op := dpADD
	if v.Sub() {
		op = dpSUB
	}
	return c.dataProc(op, false, regalloc.GuestSP, regalloc.GuestSP, immOperand(v.Imm32(), false, false))
}

// Thumb 32-bit handlers.

func translateT32DataProcModImm(c *Context, raw uint32) error {
	v := insts.T32ModImm(raw)
	op, ok := t32Op(v.Op(), v.Rn(), v.Rd(), v.S())
	if !ok {
		return c.unimplemented()
	}
	o := thumbImm(v.Imm12())
	return c.dataProc(op, v.S(), v.Rd(), v.Rn(), o)
}

func translateT32DataProcReg(c *Context, raw uint32) error {
	v := insts.T32ShiftedReg(raw)
	op, ok := t32Op(v.Op(), v.Rn(), v.Rd(), v.S())
	if !ok {
		return c.unimplemented()
	}
	t, amt := v.Shift()
	o := c.shiftedOperand(v.Rm(), t, amt, v.S() && op.logical())
	return c.dataProc(op, v.S(), v.Rd(), v.Rn(), o)
}

// translateT32ShiftReg covers LSL/LSR/ASR/ROR Rd, Rn, Rm.
func translateT32ShiftReg(c *Context, raw uint32) error {
	v := insts.T32RegOp(raw)
	o := c.regShiftOperand(v.Rn(), v.Rm(), v.ShiftType(), v.S())
	return c.dataProc(dpMOV, v.S(), v.Rd(), 0, o)
}

// translateT32PlainImm covers ADDW, SUBW, ADR, MOVW and MOVT.
func translateT32PlainImm(c *Context, raw uint32) error {
	v := insts.T32PlainImm(raw)
	switch v.Op() {
	case insts.T32PlainADDW, insts.T32PlainSUBW:
		op := dpADD
		if v.Op() == insts.T32PlainSUBW {
			op = dpSUB
		}
		o := immOperand(v.Imm12(), false, false)
		if v.Rn() == regalloc.GuestPC {
			return c.dataProcBase(op, false, v.Rd(), c.alignedPC(), o)
		}
		return c.dataProc(op, false, v.Rd(), v.Rn(), o)
	case insts.T32PlainMOVW:
		return c.moveWide(v.Rd(), v.Imm16(), false)
	case insts.T32PlainMOVT:
		return c.moveWide(v.Rd(), v.Imm16(), true)
	}
	return c.unimplemented()
}

// Fusion of MOV<c> rd, a / MOV<!c> rd, b into one CSEL.

// plainMove describes an unshifted register or immediate move with no flag
// update and no PC operand.
type plainMove struct {
	rd    uint8
	imm   uint32
	isImm bool
	rm    uint8
}

func movOf(kind insts.Kind, raw uint32, inIT bool) (plainMove, bool) {
	switch kind {
	case insts.KindARMDataProcImm:
		v := insts.DPImm(raw)
		if v.Opcode() != insts.OpMOV || v.S() || v.Rd() == regalloc.GuestPC {
			return plainMove{}, false
		}
		return plainMove{rd: v.Rd(), imm: v.Imm32(), isImm: true}, true
	case insts.KindARMDataProcReg:
		v := insts.DPReg(raw)
		if v.Opcode() != insts.OpMOV || v.S() || v.Imm5() != 0 || v.Type() != insts.ShiftLSL ||
			v.Rd() == regalloc.GuestPC || v.Rm() == regalloc.GuestPC {
			return plainMove{}, false
		}
		return plainMove{rd: v.Rd(), rm: v.Rm()}, true
	case insts.KindT16Imm8:
		v := insts.T16Imm8(raw)
		if !inIT || v.Op() != insts.T16Imm8MOV {
			return plainMove{}, false
		}
		return plainMove{rd: v.Rd(), imm: uint32(v.Imm8()), isImm: true}, true
	case insts.KindT16HiReg:
		v := insts.T16HiReg(raw)
		if !inIT || v.Op() != insts.T16HiMOV || v.Rdn() == regalloc.GuestPC || v.Rm() == regalloc.GuestPC {
			return plainMove{}, false
		}
		return plainMove{rd: v.Rdn(), rm: v.Rm()}, true
	}
	return plainMove{}, false
}

func (c *Context) moveValue(m plainMove) *regalloc.Handle {
	if !m.isImm {
		return c.Alloc.Alias(host.RegOperand(regalloc.Remap(m.rm)))
	}
	if m.imm == 0 {
		return c.Alloc.Alias(host.RegOperand(host.WZR))
	}
	return c.constant(m.imm)
}

// tryFuse folds the current predicated move and an immediately following
// move to the same register under the inverse predicate into one CSEL.
// The second instruction is consumed through SkipNext.
func (c *Context) tryFuse() bool {
	if !c.Fusion || !c.conditional() {
		return false
	}
	first, ok := movOf(c.kind, c.raw, c.IT.Active())
	if !ok {
		return false
	}
	raw, kind, _, err := c.fetch(c.NextPC())
	if err != nil {
		return false
	}

	var cond insts.Cond
	inIT := false
	if c.Thumb {
		it := c.IT.Advance()
		if !it.Active() {
			return false
		}
		cond, inIT = it.Cond(), true
	} else {
		cond = insts.Cond(raw >> 28)
	}
	second, ok := movOf(kind, raw, inIT)
	if !ok || cond != invert(c.cond) || second.rd != first.rd {
		return false
	}

	a := c.moveValue(first)
	b := c.moveValue(second)
	c.Asm.Csel(regalloc.Remap(first.rd), a.W(), b.W(), hostCond(c.cond))
	a.Release()
	b.Release()
	c.SkipNext = true
	c.fused++
	return true
}
