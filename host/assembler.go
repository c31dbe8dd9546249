package host

// Assembler is the host instruction emitter. Every host instruction the
// translator produces goes through one of its methods, always with resolved
// host operands. Instructions are encoded as they are appended, so an
// unencodable operand panics at the call that produced it.
type Assembler struct {
	insts   []Inst
	labels  []int
	pending map[Label][]int
}

// NewAssembler creates an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{pending: make(map[Label][]int)}
}

// Len returns the number of instructions emitted so far.
func (a *Assembler) Len() int { return len(a.insts) }

// Insts returns the emitted instructions.
func (a *Assembler) Insts() []Inst { return a.insts }

// Labels returns the bound position of every label.
func (a *Assembler) Labels() map[Label]int {
	out := make(map[Label]int, len(a.labels))
	for i, pos := range a.labels {
		if pos >= 0 {
			out[Label(i)] = pos
		}
	}
	return out
}

// Reset discards everything emitted so far.
func (a *Assembler) Reset() {
	a.insts = a.insts[:0]
	a.labels = a.labels[:0]
	clear(a.pending)
}

// Bytes encodes the instruction stream as little-endian ARM64 machine code.
// Every referenced label must be bound.
func (a *Assembler) Bytes() []byte {
	for l, sites := range a.pending {
		if len(sites) > 0 {
			fail(a.insts[sites[0]], "label L%d never bound", l)
		}
	}
	return AppendCode(make([]byte, 0, 4*len(a.insts)), a.insts)
}

// String returns a listing of the emitted instructions.
func (a *Assembler) String() string { return Listing(a.insts, a.Labels()) }

// NewLabel allocates an unbound label.
func (a *Assembler) NewLabel() Label {
	a.labels = append(a.labels, -1)
	return Label(len(a.labels) - 1)
}

// Bind attaches l to the next emitted instruction and resolves earlier
// branches to it.
func (a *Assembler) Bind(l Label) {
	if int(l) >= len(a.labels) || a.labels[l] >= 0 {
		panic(&EncodeError{Reason: "label bound twice or never allocated"})
	}
	pos := len(a.insts)
	a.labels[l] = pos
	for _, site := range a.pending[l] {
		a.insts[site].Imm = int64(pos - site)
		Encode(a.insts[site])
	}
	delete(a.pending, l)
}

func (a *Assembler) emit(in Inst) {
	if in.Op.IsBranch() {
		if pos := a.labels[in.Label]; pos >= 0 {
			in.Imm = int64(pos - len(a.insts))
		} else {
			a.pending[in.Label] = append(a.pending[in.Label], len(a.insts))
			a.insts = append(a.insts, in)
			return
		}
	} else {
		in.Label = NoLabel
	}
	Encode(in)
	a.insts = append(a.insts, in)
}

// Emit appends a prebuilt instruction.
func (a *Assembler) Emit(in Inst) { a.emit(in) }

func sameWidth(rs ...GPR) bool {
	for _, r := range rs[1:] {
		if r.Is64 != rs[0].Is64 {
			return false
		}
	}
	return true
}

func (a *Assembler) rrr(op Op, s bool, rd, rn, rm GPR) {
	if !sameWidth(rd, rn, rm) {
		fail(Inst{Op: op, Rd: rd.N, Rn: rn.N, Rm: rm.N}, "mixed register widths")
	}
	a.emit(Inst{Op: op, Sf: rd.Is64, S: s, Rd: rd.N, Rn: rn.N, Rm: rm.N})
}

// Arithmetic.

func (a *Assembler) addSubImm(op Op, s bool, rd, rn GPR, imm uint32) {
	a.emit(Inst{Op: op, Sf: rd.Is64, S: s, Rd: rd.N, Rn: rn.N, Imm: int64(imm)})
}

// AddImm emits ADD rd, rn, #imm.
func (a *Assembler) AddImm(rd, rn GPR, imm uint32) { a.addSubImm(OpADDImm, false, rd, rn, imm) }

// AddsImm emits ADDS rd, rn, #imm.
func (a *Assembler) AddsImm(rd, rn GPR, imm uint32) { a.addSubImm(OpADDImm, true, rd, rn, imm) }

// SubImm emits SUB rd, rn, #imm.
func (a *Assembler) SubImm(rd, rn GPR, imm uint32) { a.addSubImm(OpSUBImm, false, rd, rn, imm) }

// SubsImm emits SUBS rd, rn, #imm.
func (a *Assembler) SubsImm(rd, rn GPR, imm uint32) { a.addSubImm(OpSUBImm, true, rd, rn, imm) }

// CmpImm emits CMP rn, #imm.
func (a *Assembler) CmpImm(rn GPR, imm uint32) {
	a.SubsImm(GPR{N: RegZR, Is64: rn.Is64}, rn, imm)
}

// CmnImm emits CMN rn, #imm.
func (a *Assembler) CmnImm(rn GPR, imm uint32) {
	a.AddsImm(GPR{N: RegZR, Is64: rn.Is64}, rn, imm)
}

func (a *Assembler) addSubReg(op Op, s bool, rd, rn, rm GPR, sh Shift, amt uint8) {
	a.emit(Inst{Op: op, Sf: rd.Is64, S: s, Rd: rd.N, Rn: rn.N, Rm: rm.N, Shift: sh, Amount: amt})
}

// AddReg emits ADD rd, rn, rm, sh #amt.
func (a *Assembler) AddReg(rd, rn, rm GPR, sh Shift, amt uint8) {
	a.addSubReg(OpADDReg, false, rd, rn, rm, sh, amt)
}

// AddsReg emits ADDS rd, rn, rm, sh #amt.
func (a *Assembler) AddsReg(rd, rn, rm GPR, sh Shift, amt uint8) {
	a.addSubReg(OpADDReg, true, rd, rn, rm, sh, amt)
}

// SubReg emits SUB rd, rn, rm, sh #amt.
func (a *Assembler) SubReg(rd, rn, rm GPR, sh Shift, amt uint8) {
	a.addSubReg(OpSUBReg, false, rd, rn, rm, sh, amt)
}

// SubsReg emits SUBS rd, rn, rm, sh #amt.
func (a *Assembler) SubsReg(rd, rn, rm GPR, sh Shift, amt uint8) {
	a.addSubReg(OpSUBReg, true, rd, rn, rm, sh, amt)
}

// CmpReg emits CMP rn, rm.
func (a *Assembler) CmpReg(rn, rm GPR) {
	a.SubsReg(GPR{N: RegZR, Is64: rn.Is64}, rn, rm, ShiftLSL, 0)
}

// CmnReg emits CMN rn, rm.
func (a *Assembler) CmnReg(rn, rm GPR) {
	a.AddsReg(GPR{N: RegZR, Is64: rn.Is64}, rn, rm, ShiftLSL, 0)
}

// Neg emits NEG rd, rm.
func (a *Assembler) Neg(rd, rm GPR) {
	a.SubReg(rd, GPR{N: RegZR, Is64: rd.Is64}, rm, ShiftLSL, 0)
}

// AddExt emits ADD rd, rn, rm, ext #amt. rd and rn may be the stack pointer.
func (a *Assembler) AddExt(rd, rn, rm GPR, ext Extend, amt uint8) {
	a.emit(Inst{Op: OpADDExt, Sf: rd.Is64, Rd: rd.N, Rn: rn.N, Rm: rm.N, Ext: ext, Amount: amt})
}

// SubExt emits SUB rd, rn, rm, ext #amt.
func (a *Assembler) SubExt(rd, rn, rm GPR, ext Extend, amt uint8) {
	a.emit(Inst{Op: OpSUBExt, Sf: rd.Is64, Rd: rd.N, Rn: rn.N, Rm: rm.N, Ext: ext, Amount: amt})
}

// Adc emits ADC, or ADCS when s is set.
func (a *Assembler) Adc(rd, rn, rm GPR, s bool) { a.rrr(OpADC, s, rd, rn, rm) }

// Sbc emits SBC, or SBCS when s is set.
func (a *Assembler) Sbc(rd, rn, rm GPR, s bool) { a.rrr(OpSBC, s, rd, rn, rm) }

// Logical.

// Logical emits one of AND, BIC, ORR, ORN, EOR, EON with a shifted register.
// s selects ANDS/BICS.
func (a *Assembler) Logical(op Op, s bool, rd, rn, rm GPR, sh Shift, amt uint8) {
	a.emit(Inst{Op: op, Sf: rd.Is64, S: s, Rd: rd.N, Rn: rn.N, Rm: rm.N, Shift: sh, Amount: amt})
}

// And emits AND rd, rn, rm.
func (a *Assembler) And(rd, rn, rm GPR) { a.Logical(OpAND, false, rd, rn, rm, ShiftLSL, 0) }

// Orr emits ORR rd, rn, rm.
func (a *Assembler) Orr(rd, rn, rm GPR) { a.Logical(OpORR, false, rd, rn, rm, ShiftLSL, 0) }

// Eor emits EOR rd, rn, rm.
func (a *Assembler) Eor(rd, rn, rm GPR) { a.Logical(OpEOR, false, rd, rn, rm, ShiftLSL, 0) }

// Bic emits BIC rd, rn, rm.
func (a *Assembler) Bic(rd, rn, rm GPR) { a.Logical(OpBIC, false, rd, rn, rm, ShiftLSL, 0) }

// Tst emits TST rn, rm.
func (a *Assembler) Tst(rn, rm GPR) {
	a.Logical(OpAND, true, GPR{N: RegZR, Is64: rn.Is64}, rn, rm, ShiftLSL, 0)
}

// Mov emits MOV rd, rm (ORR rd, zr, rm).
func (a *Assembler) Mov(rd, rm GPR) {
	if rd == rm {
		return
	}
	a.Logical(OpORR, false, rd, GPR{N: RegZR, Is64: rd.Is64}, rm, ShiftLSL, 0)
}

// Mvn emits MVN rd, rm, sh #amt.
func (a *Assembler) Mvn(rd, rm GPR, sh Shift, amt uint8) {
	a.Logical(OpORN, false, rd, GPR{N: RegZR, Is64: rd.Is64}, rm, sh, amt)
}

// LogicalImm emits AND/ORR/EOR with a bitmask immediate.
func (a *Assembler) LogicalImm(op Op, s bool, rd, rn GPR, imm uint64) {
	a.emit(Inst{Op: op, Sf: rd.Is64, S: s, Rd: rd.N, Rn: rn.N, Imm: int64(imm)})
}

// AndImm emits AND rd, rn, #imm.
func (a *Assembler) AndImm(rd, rn GPR, imm uint64) { a.LogicalImm(OpANDImm, false, rd, rn, imm) }

// OrrImm emits ORR rd, rn, #imm.
func (a *Assembler) OrrImm(rd, rn GPR, imm uint64) { a.LogicalImm(OpORRImm, false, rd, rn, imm) }

// EorImm emits EOR rd, rn, #imm.
func (a *Assembler) EorImm(rd, rn GPR, imm uint64) { a.LogicalImm(OpEORImm, false, rd, rn, imm) }

// TstImm emits TST rn, #imm.
func (a *Assembler) TstImm(rn GPR, imm uint64) {
	a.LogicalImm(OpANDImm, true, GPR{N: RegZR, Is64: rn.Is64}, rn, imm)
}

// Moves.

func (a *Assembler) moveWide(op Op, rd GPR, imm uint16, shift uint8) {
	a.emit(Inst{Op: op, Sf: rd.Is64, Rd: rd.N, Imm: int64(imm), Amount: shift})
}

// MovZ emits MOVZ rd, #imm, LSL #shift.
func (a *Assembler) MovZ(rd GPR, imm uint16, shift uint8) { a.moveWide(OpMOVZ, rd, imm, shift) }

// MovN emits MOVN rd, #imm, LSL #shift.
func (a *Assembler) MovN(rd GPR, imm uint16, shift uint8) { a.moveWide(OpMOVN, rd, imm, shift) }

// MovK emits MOVK rd, #imm, LSL #shift.
func (a *Assembler) MovK(rd GPR, imm uint16, shift uint8) { a.moveWide(OpMOVK, rd, imm, shift) }

// MovImm materializes a constant in the fewest instructions available:
// one MOVZ, MOVN or bitmask ORR when possible, otherwise MOVZ plus MOVKs.
func (a *Assembler) MovImm(rd GPR, v uint64) {
	width := 64
	if !rd.Is64 {
		width = 32
		v &= 0xFFFFFFFF
	}
	mask := ^uint64(0) >> (64 - width)
	inv := ^v & mask

	var chunks, invChunks int
	for sh := 0; sh < width; sh += 16 {
		if (v>>sh)&0xFFFF != 0 {
			chunks++
		}
		if (inv>>sh)&0xFFFF != 0 {
			invChunks++
		}
	}

	switch {
	case chunks <= 1:
		for sh := 0; sh < width; sh += 16 {
			if part := (v >> sh) & 0xFFFF; part != 0 || v == 0 {
				a.MovZ(rd, uint16(part), uint8(sh))
				return
			}
		}
	case invChunks <= 1:
		for sh := 0; sh < width; sh += 16 {
			if part := (inv >> sh) & 0xFFFF; part != 0 || inv == 0 {
				a.MovN(rd, uint16(part), uint8(sh))
				return
			}
		}
	}
	if _, _, _, ok := EncodeBitmask(v, rd.Is64); ok {
		a.OrrImm(rd, GPR{N: RegZR, Is64: rd.Is64}, v)
		return
	}
	first := true
	for sh := 0; sh < width; sh += 16 {
		part := uint16(v >> sh)
		if part == 0 {
			continue
		}
		if first {
			a.MovZ(rd, part, uint8(sh))
			first = false
		} else {
			a.MovK(rd, part, uint8(sh))
		}
	}
}

// Shifts and bitfields.

// ShiftVar emits LSLV/LSRV/ASRV/RORV.
func (a *Assembler) ShiftVar(op Op, rd, rn, rm GPR) { a.rrr(op, false, rd, rn, rm) }

func (a *Assembler) bitfield(op Op, rd, rn GPR, immr, imms uint8) {
	a.emit(Inst{Op: op, Sf: rd.Is64, Rd: rd.N, Rn: rn.N, Imm: int64(immr), Imm2: int64(imms)})
}

func regWidth(r GPR) uint8 {
	if r.Is64 {
		return 64
	}
	return 32
}

// Ubfm emits UBFM rd, rn, #immr, #imms.
func (a *Assembler) Ubfm(rd, rn GPR, immr, imms uint8) { a.bitfield(OpUBFM, rd, rn, immr, imms) }

// Sbfm emits SBFM rd, rn, #immr, #imms.
func (a *Assembler) Sbfm(rd, rn GPR, immr, imms uint8) { a.bitfield(OpSBFM, rd, rn, immr, imms) }

// Bfm emits BFM rd, rn, #immr, #imms.
func (a *Assembler) Bfm(rd, rn GPR, immr, imms uint8) { a.bitfield(OpBFM, rd, rn, immr, imms) }

// Lsl emits LSL rd, rn, #amt.
func (a *Assembler) Lsl(rd, rn GPR, amt uint8) {
	w := regWidth(rd)
	amt %= w
	a.Ubfm(rd, rn, (w-amt)%w, w-1-amt)
}

// Lsr emits LSR rd, rn, #amt.
func (a *Assembler) Lsr(rd, rn GPR, amt uint8) { a.Ubfm(rd, rn, amt, regWidth(rd)-1) }

// Asr emits ASR rd, rn, #amt.
func (a *Assembler) Asr(rd, rn GPR, amt uint8) { a.Sbfm(rd, rn, amt, regWidth(rd)-1) }

// Ror emits ROR rd, rn, #amt.
func (a *Assembler) Ror(rd, rn GPR, amt uint8) { a.Extr(rd, rn, rn, amt) }

// Ubfx emits UBFX rd, rn, #lsb, #width.
func (a *Assembler) Ubfx(rd, rn GPR, lsb, width uint8) { a.Ubfm(rd, rn, lsb, lsb+width-1) }

// Sbfx emits SBFX rd, rn, #lsb, #width.
func (a *Assembler) Sbfx(rd, rn GPR, lsb, width uint8) { a.Sbfm(rd, rn, lsb, lsb+width-1) }

// Bfi emits BFI rd, rn, #lsb, #width.
func (a *Assembler) Bfi(rd, rn GPR, lsb, width uint8) {
	w := regWidth(rd)
	a.Bfm(rd, rn, (w-lsb)%w, width-1)
}

// Bfxil emits BFXIL rd, rn, #lsb, #width.
func (a *Assembler) Bfxil(rd, rn GPR, lsb, width uint8) { a.Bfm(rd, rn, lsb, lsb+width-1) }

// Extr emits EXTR rd, rn, rm, #lsb.
func (a *Assembler) Extr(rd, rn, rm GPR, lsb uint8) {
	a.emit(Inst{Op: OpEXTR, Sf: rd.Is64, Rd: rd.N, Rn: rn.N, Rm: rm.N, Amount: lsb})
}

// Multiply and divide.

// Madd emits MADD rd, rn, rm, ra.
func (a *Assembler) Madd(rd, rn, rm, ra GPR) {
	a.emit(Inst{Op: OpMADD, Sf: rd.Is64, Rd: rd.N, Rn: rn.N, Rm: rm.N, Ra: ra.N})
}

// Msub emits MSUB rd, rn, rm, ra.
func (a *Assembler) Msub(rd, rn, rm, ra GPR) {
	a.emit(Inst{Op: OpMSUB, Sf: rd.Is64, Rd: rd.N, Rn: rn.N, Rm: rm.N, Ra: ra.N})
}

// Mul emits MUL rd, rn, rm.
func (a *Assembler) Mul(rd, rn, rm GPR) { a.Madd(rd, rn, rm, GPR{N: RegZR, Is64: rd.Is64}) }

// Umaddl emits UMADDL xd, wn, wm, xa.
func (a *Assembler) Umaddl(xd, wn, wm, xa GPR) {
	a.emit(Inst{Op: OpUMADDL, Sf: true, Rd: xd.N, Rn: wn.N, Rm: wm.N, Ra: xa.N})
}

// Smaddl emits SMADDL xd, wn, wm, xa.
func (a *Assembler) Smaddl(xd, wn, wm, xa GPR) {
	a.emit(Inst{Op: OpSMADDL, Sf: true, Rd: xd.N, Rn: wn.N, Rm: wm.N, Ra: xa.N})
}

// Udiv emits UDIV rd, rn, rm.
func (a *Assembler) Udiv(rd, rn, rm GPR) { a.rrr(OpUDIV, false, rd, rn, rm) }

// Sdiv emits SDIV rd, rn, rm.
func (a *Assembler) Sdiv(rd, rn, rm GPR) { a.rrr(OpSDIV, false, rd, rn, rm) }

// Unary emits CLZ, RBIT, REV or REV16.
func (a *Assembler) Unary(op Op, rd, rn GPR) {
	a.emit(Inst{Op: op, Sf: rd.Is64, Rd: rd.N, Rn: rn.N})
}

// Conditional select.

// CondSelect emits CSEL, CSINC, CSINV or CSNEG.
func (a *Assembler) CondSelect(op Op, rd, rn, rm GPR, c Cond) {
	a.emit(Inst{Op: op, Sf: rd.Is64, Rd: rd.N, Rn: rn.N, Rm: rm.N, Cond: c})
}

// Csel emits CSEL rd, rn, rm, c.
func (a *Assembler) Csel(rd, rn, rm GPR, c Cond) { a.CondSelect(OpCSEL, rd, rn, rm, c) }

// Cset emits CSET rd, c.
func (a *Assembler) Cset(rd GPR, c Cond) {
	zr := GPR{N: RegZR, Is64: rd.Is64}
	a.CondSelect(OpCSINC, rd, zr, zr, c.Invert())
}

// Flags.

// MrsNZCV emits MRS xt, NZCV.
func (a *Assembler) MrsNZCV(xt GPR) { a.emit(Inst{Op: OpMRS, Sf: true, Rd: xt.N}) }

// MsrNZCV emits MSR NZCV, xt.
func (a *Assembler) MsrNZCV(xt GPR) { a.emit(Inst{Op: OpMSR, Sf: true, Rd: xt.N}) }

// Control flow.

// B emits an unconditional branch to l.
func (a *Assembler) B(l Label) { a.emit(Inst{Op: OpB, Label: l}) }

// BCond emits B.c l.
func (a *Assembler) BCond(c Cond, l Label) { a.emit(Inst{Op: OpBCond, Cond: c, Label: l}) }

// Cbz emits CBZ rt, l.
func (a *Assembler) Cbz(rt GPR, l Label) {
	a.emit(Inst{Op: OpCBZ, Sf: rt.Is64, Rd: rt.N, Label: l})
}

// Cbnz emits CBNZ rt, l.
func (a *Assembler) Cbnz(rt GPR, l Label) {
	a.emit(Inst{Op: OpCBNZ, Sf: rt.Is64, Rd: rt.N, Label: l})
}

// Br emits BR xn.
func (a *Assembler) Br(xn GPR) { a.emit(Inst{Op: OpBR, Sf: true, Rn: xn.N}) }

// Ret emits RET.
func (a *Assembler) Ret() { a.emit(Inst{Op: OpRET, Sf: true, Rn: 30}) }

// Brk emits BRK #imm.
func (a *Assembler) Brk(imm uint16) { a.emit(Inst{Op: OpBRK, Imm: int64(imm)}) }

// Nop emits NOP.
func (a *Assembler) Nop() { a.emit(Inst{Op: OpNOP}) }

// Memory.

func (a *Assembler) mem(op Op, rt, xn GPR, off int64, size uint8, signed bool) {
	a.emit(Inst{Op: op, Sf: rt.Is64, Rd: rt.N, Rn: xn.N, Imm: off, Size: size, Signed: signed})
}

// Ldr emits LDR{B,H,SB,SH,SW} rt, [xn, #off] with a scaled unsigned offset.
func (a *Assembler) Ldr(rt, xn GPR, off int64, size uint8, signed bool) {
	a.mem(OpLDR, rt, xn, off, size, signed)
}

// Str emits STR{B,H} rt, [xn, #off] with a scaled unsigned offset.
func (a *Assembler) Str(rt, xn GPR, off int64, size uint8) { a.mem(OpSTR, rt, xn, off, size, false) }

// Ldur emits LDUR with a signed unscaled offset.
func (a *Assembler) Ldur(rt, xn GPR, off int64, size uint8, signed bool) {
	a.mem(OpLDUR, rt, xn, off, size, signed)
}

// Stur emits STUR with a signed unscaled offset.
func (a *Assembler) Stur(rt, xn GPR, off int64, size uint8) { a.mem(OpSTUR, rt, xn, off, size, false) }

// LdrReg emits LDR rt, [xn, xm{, LSL #size}].
func (a *Assembler) LdrReg(rt, xn, xm GPR, size uint8, signed, scaled bool) {
	in := Inst{Op: OpLDRReg, Sf: rt.Is64, Rd: rt.N, Rn: xn.N, Rm: xm.N, Size: size, Signed: signed, Ext: ExtUXTX}
	if scaled {
		in.Amount = size
	}
	a.emit(in)
}

// StrReg emits STR rt, [xn, xm{, LSL #size}].
func (a *Assembler) StrReg(rt, xn, xm GPR, size uint8, scaled bool) {
	in := Inst{Op: OpSTRReg, Sf: rt.Is64, Rd: rt.N, Rn: xn.N, Rm: xm.N, Size: size, Ext: ExtUXTX}
	if scaled {
		in.Amount = size
	}
	a.emit(in)
}

// Ldp emits LDP rt, rt2, [xn, #off].
func (a *Assembler) Ldp(rt, rt2, xn GPR, off int64) {
	a.emit(Inst{Op: OpLDP, Sf: rt.Is64, Rd: rt.N, Ra: rt2.N, Rn: xn.N, Imm: off, Size: 2 + b2u(rt.Is64)})
}

// Stp emits STP rt, rt2, [xn, #off].
func (a *Assembler) Stp(rt, rt2, xn GPR, off int64) {
	a.emit(Inst{Op: OpSTP, Sf: rt.Is64, Rd: rt.N, Ra: rt2.N, Rn: xn.N, Imm: off, Size: 2 + b2u(rt.Is64)})
}

func b2u(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// LoadExclusive emits LDXR, LDAXR or LDAR of the given size.
func (a *Assembler) LoadExclusive(op Op, rt, xn GPR, size uint8) {
	a.emit(Inst{Op: op, Sf: size == 3, Rd: rt.N, Rn: xn.N, Size: size})
}

// StoreExclusive emits STXR or STLXR; ws receives 0 on success. STLR
// ignores ws.
func (a *Assembler) StoreExclusive(op Op, ws, rt, xn GPR, size uint8) {
	a.emit(Inst{Op: op, Sf: size == 3, Rd: rt.N, Rn: xn.N, Rm: ws.N, Size: size})
}

// LoadExclusivePair emits LDXP or LDAXP.
func (a *Assembler) LoadExclusivePair(op Op, rt, rt2, xn GPR) {
	a.emit(Inst{Op: op, Sf: rt.Is64, Rd: rt.N, Ra: rt2.N, Rn: xn.N, Size: 2 + b2u(rt.Is64)})
}

// StoreExclusivePair emits STXP or STLXP.
func (a *Assembler) StoreExclusivePair(op Op, ws, rt, rt2, xn GPR) {
	a.emit(Inst{Op: op, Sf: rt.Is64, Rd: rt.N, Ra: rt2.N, Rn: xn.N, Rm: ws.N, Size: 2 + b2u(rt.Is64)})
}

// Clrex emits CLREX.
func (a *Assembler) Clrex() { a.emit(Inst{Op: OpCLREX}) }

// Barrier emits DMB, DSB or ISB with the given option.
func (a *Assembler) Barrier(op Op, option uint8) { a.emit(Inst{Op: op, Imm: int64(option)}) }

// Scalar floating point.

// FArith emits FADD, FSUB, FMUL, FDIV or FNMUL on scalars.
func (a *Assembler) FArith(op Op, size FPSize, d, n, m VReg) {
	a.emit(Inst{Op: op, Size: uint8(size), Rd: uint8(d), Rn: uint8(n), Rm: uint8(m)})
}

// FUnary emits FMOV, FABS, FNEG or FSQRT on scalars.
func (a *Assembler) FUnary(op Op, size FPSize, d, n VReg) {
	a.emit(Inst{Op: op, Size: uint8(size), Rd: uint8(d), Rn: uint8(n)})
}

// FCmp emits FCMP or FCMPE; flags is a combination of FCmpZero and
// FCmpSignal.
func (a *Assembler) FCmp(size FPSize, n, m VReg, flags int64) {
	a.emit(Inst{Op: OpFCMP, Size: uint8(size), Rn: uint8(n), Rm: uint8(m), Imm: flags})
}

// FCvt emits FCVT between single and double precision.
func (a *Assembler) FCvt(dst, src FPSize, d, n VReg) {
	a.emit(Inst{Op: OpFCVT, Size: uint8(dst), Imm: int64(src), Rd: uint8(d), Rn: uint8(n)})
}

// FToInt emits FCVTZS or FCVTZU.
func (a *Assembler) FToInt(op Op, rd GPR, size FPSize, n VReg) {
	a.emit(Inst{Op: op, Sf: rd.Is64, Size: uint8(size), Rd: rd.N, Rn: uint8(n)})
}

// IntToF emits SCVTF or UCVTF.
func (a *Assembler) IntToF(op Op, size FPSize, d VReg, rn GPR) {
	a.emit(Inst{Op: op, Sf: rn.Is64, Size: uint8(size), Rd: uint8(d), Rn: rn.N})
}

// FMovToGPR emits FMOV Wd, Sn or FMOV Xd, Dn.
func (a *Assembler) FMovToGPR(rd GPR, n VReg) {
	size := FPSingle
	if rd.Is64 {
		size = FPDouble
	}
	a.emit(Inst{Op: OpFMOVToGPR, Sf: rd.Is64, Size: uint8(size), Rd: rd.N, Rn: uint8(n)})
}

// FMovFromGPR emits FMOV Sd, Wn or FMOV Dd, Xn.
func (a *Assembler) FMovFromGPR(d VReg, rn GPR) {
	size := FPSingle
	if rn.Is64 {
		size = FPDouble
	}
	a.emit(Inst{Op: OpFMOVFromGPR, Sf: rn.Is64, Size: uint8(size), Rd: uint8(d), Rn: rn.N})
}

// LdrFP emits LDR St/Dt/Qt, [xn, #off]; size is 2, 3 or 4.
func (a *Assembler) LdrFP(size uint8, vt VReg, xn GPR, off int64) {
	a.emit(Inst{Op: OpLDRFP, Size: size, Rd: uint8(vt), Rn: xn.N, Imm: off})
}

// StrFP emits STR St/Dt/Qt, [xn, #off].
func (a *Assembler) StrFP(size uint8, vt VReg, xn GPR, off int64) {
	a.emit(Inst{Op: OpSTRFP, Size: size, Rd: uint8(vt), Rn: xn.N, Imm: off})
}

// LdurFP emits LDUR with a signed unscaled offset.
func (a *Assembler) LdurFP(size uint8, vt VReg, xn GPR, off int64) {
	a.emit(Inst{Op: OpLDURFP, Size: size, Rd: uint8(vt), Rn: xn.N, Imm: off})
}

// SturFP emits STUR with a signed unscaled offset.
func (a *Assembler) SturFP(size uint8, vt VReg, xn GPR, off int64) {
	a.emit(Inst{Op: OpSTURFP, Size: size, Rd: uint8(vt), Rn: xn.N, Imm: off})
}

// Lanes.

// DupElem emits DUP <T>d, Vn.<T>[idx], moving one lane to lane zero of d.
func (a *Assembler) DupElem(size ElemSize, d, n VReg, idx uint8) {
	a.emit(Inst{Op: OpDUPElem, Size: uint8(size), Rd: uint8(d), Rn: uint8(n), Index2: idx})
}

// InsElem emits INS Vd.<T>[di], Vn.<T>[ni].
func (a *Assembler) InsElem(size ElemSize, d VReg, di uint8, n VReg, ni uint8) {
	a.emit(Inst{Op: OpINSElem, Size: uint8(size), Rd: uint8(d), Index: di, Rn: uint8(n), Index2: ni})
}

// InsGPR emits INS Vd.<T>[di], Rn.
func (a *Assembler) InsGPR(size ElemSize, d VReg, di uint8, rn GPR) {
	a.emit(Inst{Op: OpINSGPR, Size: uint8(size), Rd: uint8(d), Index: di, Rn: rn.N})
}

// Umov emits UMOV Rd, Vn.<T>[ni].
func (a *Assembler) Umov(rd GPR, size ElemSize, n VReg, ni uint8) {
	a.emit(Inst{Op: OpUMOV, Size: uint8(size), Rd: rd.N, Rn: uint8(n), Index2: ni})
}

// Ld1Lane emits LD1 {Vt.<T>}[idx], [xn].
func (a *Assembler) Ld1Lane(size ElemSize, vt VReg, idx uint8, xn GPR) {
	a.emit(Inst{Op: OpLD1Lane, Size: uint8(size), Rd: uint8(vt), Index: idx, Rn: xn.N})
}

// St1Lane emits ST1 {Vt.<T>}[idx], [xn].
func (a *Assembler) St1Lane(size ElemSize, vt VReg, idx uint8, xn GPR) {
	a.emit(Inst{Op: OpST1Lane, Size: uint8(size), Rd: uint8(vt), Index: idx, Rn: xn.N})
}

// Vector.

// Vec emits a three-same vector operation over the arrangement.
func (a *Assembler) Vec(op Op, arr Arrangement, d, n, m VReg) {
	a.emit(Inst{Op: op, Size: uint8(arr.Elem()), Q: arr.Q(), Rd: uint8(d), Rn: uint8(n), Rm: uint8(m)})
}
