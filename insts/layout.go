package insts

import "fmt"

// Field is one named bit range of an encoding layout.
type Field struct {
	Name  string
	Lo    uint8
	Width uint8
}

func (f Field) mask() uint32 { return (1<<f.Width - 1) << f.Lo }

// Layout describes the bit layout of one encoding variant: the identifying
// bits that never change, and the fields that cover every other bit.
type Layout struct {
	Name   string
	Width  uint8 // 16 for Thumb 16-bit encodings, 32 otherwise
	Fixed  uint32
	Fields []Field
}

func (l *Layout) widthMask() uint32 {
	if l.Width == 16 {
		return 0xFFFF
	}
	return 0xFFFFFFFF
}

// FieldMask returns the union of all field bits.
func (l *Layout) FieldMask() uint32 {
	var m uint32
	for _, f := range l.Fields {
		m |= f.mask()
	}
	return m
}

// FixedMask returns the identifying bits: everything no field covers.
func (l *Layout) FixedMask() uint32 { return l.widthMask() &^ l.FieldMask() }

// Matches reports whether raw carries this layout's identifying bits.
func (l *Layout) Matches(raw uint32) bool {
	return raw&l.FixedMask() == l.Fixed&l.FixedMask() && raw&^l.widthMask() == 0
}

// Validate checks that no two fields overlap.
func (l *Layout) Validate() error {
	var seen uint32
	for _, f := range l.Fields {
		if f.Width == 0 || int(f.Lo)+int(f.Width) > int(l.Width) {
			return fmt.Errorf("layout %s: field %s out of range", l.Name, f.Name)
		}
		if seen&f.mask() != 0 {
			return fmt.Errorf("layout %s: field %s overlaps", l.Name, f.Name)
		}
		seen |= f.mask()
	}
	return nil
}

// Decode extracts every field of raw.
func (l *Layout) Decode(raw uint32) Fields {
	vals := make([]uint32, len(l.Fields))
	for i, f := range l.Fields {
		vals[i] = field(raw, uint(f.Lo), uint(f.Width))
	}
	return Fields{Layout: l, Values: vals}
}

// Fields is the decoded field set of one encoding.
type Fields struct {
	Layout *Layout
	Values []uint32
}

// Get returns the named field, or panics if the layout has no such field.
func (f Fields) Get(name string) uint32 {
	for i, fd := range f.Layout.Fields {
		if fd.Name == name {
			return f.Values[i]
		}
	}
	panic(fmt.Sprintf("insts: layout %s has no field %q", f.Layout.Name, name))
}

// Set replaces the named field.
func (f Fields) Set(name string, v uint32) Fields {
	for i, fd := range f.Layout.Fields {
		if fd.Name == name {
			vals := append([]uint32(nil), f.Values...)
			vals[i] = v & (1<<fd.Width - 1)
			return Fields{Layout: f.Layout, Values: vals}
		}
	}
	panic(fmt.Sprintf("insts: layout %s has no field %q", f.Layout.Name, name))
}

// Encode reassembles the raw encoding from the identifying bits and fields.
func (f Fields) Encode() uint32 {
	raw := f.Layout.Fixed & f.Layout.FixedMask()
	for i, fd := range f.Layout.Fields {
		raw |= (f.Values[i] << fd.Lo) & fd.mask()
	}
	return raw
}

func field(raw uint32, lo, width uint) uint32 { return raw >> lo & (1<<width - 1) }

func flag(raw uint32, pos uint) bool { return raw>>pos&1 == 1 }

func fld(name string, lo, width uint8) Field { return Field{Name: name, Lo: lo, Width: width} }

// Layouts lists every encoding layout the views expose.
var Layouts = []*Layout{
	// A32.
	LayoutDPImm, LayoutDPReg, LayoutDPRegShift, LayoutMovWide, LayoutMul,
	LayoutMulLong, LayoutDiv, LayoutRdRm, LayoutExtend, LayoutBitfield,
	LayoutLdStImm, LayoutLdStReg, LayoutExtraLdStImm, LayoutExtraLdStReg,
	LayoutSync, LayoutBlockTransfer, LayoutBranch, LayoutBranchReg, LayoutSVC,
	LayoutBKPT, LayoutUDF, LayoutStatusReg, LayoutCoproc, LayoutBarrier, LayoutHint,
	LayoutVFPData, LayoutVMovCoreSingle, LayoutVMovCorePair, LayoutVLdSt,
	LayoutVLdStMulti, LayoutVSysReg, LayoutNEONThreeSame,
	// Thumb 16-bit.
	LayoutT16ShiftImm, LayoutT16AddSub3, LayoutT16Imm8, LayoutT16ALU,
	LayoutT16HiReg, LayoutT16LoadLiteral, LayoutT16LdStReg, LayoutT16LdStImm,
	LayoutT16LdStSP, LayoutT16ADR, LayoutT16AdjustSP, LayoutT16CBZ,
	LayoutT16ExtRev, LayoutT16PushPop, LayoutT16IT, LayoutT16Misc,
	LayoutT16LdStMulti, LayoutT16CondBranch, LayoutT16Branch,
	// Thumb 32-bit.
	LayoutT32Branch, LayoutT32ModImm, LayoutT32PlainImm, LayoutT32ShiftedReg,
	LayoutT32RegOp, LayoutT32LdStImm12, LayoutT32LdStImm8, LayoutT32LdStReg,
	LayoutT32LoadLiteral, LayoutT32LdStMulti, LayoutT32LdStDual, LayoutT32Exclusive,
	LayoutT32ExclusiveSized, LayoutT32Mul, LayoutT32MulLong,
}
