package xlate_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armxlate/config"
	"github.com/sarchlab/armxlate/xlate"
)

var _ = Describe("Translator", func() {
	movs := func(n int) []uint32 {
		words := make([]uint32, n)
		for i := range words {
			words[i] = 0xE2800001 // add r0, r0, #1
		}
		return words
	}

	It("should stop at the instruction limit and exit to the next address", func() {
		b := translate(armImage(movs(8)...), false, xlate.WithMaxBlockInsts(3))
		Expect(b.GuestInsts).To(Equal(3))
		Expect(b.End()).To(Equal(uint32(codeBase + 12)))

		g := newGuest(xlate.PolicyDirect)
		g.run(b)
		Expect(g.r(0)).To(Equal(uint32(3)))
		Expect(g.exit()).To(Equal(uint32(codeBase + 12)))
	})

	It("should not split an IT block at the limit", func() {
		b := translate(thumbImage(
			0xBF04, // itt eq
			0x2001, // moveq r0, #1
			0x2102, // moveq r1, #2
			0x2203, // movs r2, #3
		), true, xlate.WithMaxBlockInsts(2))
		Expect(b.GuestInsts).To(Equal(3))
		Expect(b.End()).To(Equal(uint32(codeBase + 6)))
	})

	It("should report fetches outside the code", func() {
		_, err := xlate.New(armImage(0xE3A00001)).TranslateBlock(codeBase, false)
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, xlate.ErrUnimplemented)).To(BeFalse())
	})

	It("should publish complete blocks", func() {
		rec := &recorder{}
		b := translate(armImage(0xE3A00001, armBXLR), false, xlate.WithPublisher(rec))
		Expect(rec.blocks).To(ConsistOf(b))
	})

	It("should produce machine code for every host instruction", func() {
		b := translate(armImage(0xE3A00001, armBXLR), false)
		Expect(b.Code).To(HaveLen(4 * len(b.Insts)))
		Expect(b.Listing()).To(ContainSubstring("ret"))
	})

	It("should take settings from a config", func() {
		cfg := config.Default()
		cfg.Policy = "table"
		cfg.MaxBlockInsts = 2
		t := xlate.New(armImage(movs(4)...), xlate.WithConfig(cfg))
		Expect(t.Policy()).To(Equal(xlate.PolicyTable))

		b, err := t.TranslateBlock(codeBase, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(b.GuestInsts).To(Equal(2))
	})

	It("should log a config policy it cannot use", func() {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		cfg := config.Default()
		cfg.Policy = "paged"
		t := xlate.New(armImage(armBXLR), xlate.WithConfig(cfg), xlate.WithLogger(logger))
		Expect(t.Policy()).To(Equal(xlate.PolicyDirect))
		Expect(buf.String()).To(ContainSubstring("config ignored"))
		Expect(buf.String()).To(ContainSubstring("paged"))
	})

	It("should log translated blocks", func() {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		translate(armImage(0xE3A00001, armBXLR), false, xlate.WithLogger(logger))
		Expect(buf.String()).To(ContainSubstring("block translated"))
	})

	Describe("TranslateMany", func() {
		It("should return blocks in start order", func() {
			src := armImage(0xE3A00001, armBXLR, 0xE3A00002, armBXLR, 0xE3A00003, armBXLR)
			rec := &recorder{}
			t := xlate.New(src, xlate.WithPublisher(rec))
			starts := []xlate.Start{{PC: codeBase + 16}, {PC: codeBase}, {PC: codeBase + 8}}

			blocks, err := t.TranslateMany(context.Background(), starts)
			Expect(err).NotTo(HaveOccurred())
			Expect(blocks).To(HaveLen(3))
			for i, s := range starts {
				Expect(blocks[i].GuestPC).To(Equal(s.PC))
			}
			Expect(rec.len()).To(Equal(3))
		})

		It("should fail when any block fails", func() {
			src := armImage(0xE3A00001, armBXLR, 0xEEA00A81)
			_, err := xlate.New(src).TranslateMany(context.Background(),
				[]xlate.Start{{PC: codeBase}, {PC: codeBase + 8}})
			Expect(err).To(MatchError(xlate.ErrUnimplemented))
		})

		It("should stop on a cancelled context", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := xlate.New(armImage(0xE3A00001, armBXLR)).TranslateMany(ctx,
				[]xlate.Start{{PC: codeBase}})
			Expect(err).To(MatchError(context.Canceled))
		})
	})

	Describe("ParsePolicy", func() {
		It("should accept known names", func() {
			p, err := xlate.ParsePolicy("table")
			Expect(err).NotTo(HaveOccurred())
			Expect(p).To(Equal(xlate.PolicyTable))
			Expect(p.String()).To(Equal("table"))
		})

		It("should reject unknown names", func() {
			_, err := xlate.ParsePolicy("paged")
			Expect(err).To(HaveOccurred())
		})
	})
})
