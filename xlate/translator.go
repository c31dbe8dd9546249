package xlate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/armxlate/config"
	"github.com/sarchlab/armxlate/insts"
)

// DefaultMaxBlockInsts bounds the guest instructions of one block.
const DefaultMaxBlockInsts = 64

// Translator turns guest code into host blocks. It holds only immutable
// configuration and may be shared between goroutines.
type Translator struct {
	src       CodeSource
	logger    *slog.Logger
	policy    Policy
	pageShift uint8
	maxInsts  int
	fusion    bool
	publisher Publisher

	// configErr is an option error reported once all options are applied.
	configErr error
}

// Option configures a Translator.
type Option func(*Translator)

// WithLogger sets the logger for translation events.
func WithLogger(l *slog.Logger) Option {
	return func(t *Translator) { t.logger = l }
}

// WithPolicy sets the address translation policy.
func WithPolicy(p Policy) Option {
	return func(t *Translator) { t.policy = p }
}

// WithPageShift sets log2 of the page size used by the table policy.
func WithPageShift(shift uint8) Option {
	return func(t *Translator) { t.pageShift = shift }
}

// WithMaxBlockInsts bounds the number of guest instructions per block.
func WithMaxBlockInsts(n int) Option {
	return func(t *Translator) { t.maxInsts = n }
}

// WithFusion enables folding complementary predicated moves into CSEL.
func WithFusion(enabled bool) Option {
	return func(t *Translator) { t.fusion = enabled }
}

// WithPublisher sets where complete blocks are published.
func WithPublisher(p Publisher) Option {
	return func(t *Translator) { t.publisher = p }
}

// WithConfig applies the translation settings of a validated Config.
func WithConfig(cfg *config.Config) Option {
	return func(t *Translator) {
		p, err := ParsePolicy(cfg.Policy)
		if err != nil {
			t.configErr = err
		} else {
			t.policy = p
		}
		t.pageShift = cfg.PageShift
		t.maxInsts = cfg.MaxBlockInsts
		t.fusion = cfg.Fusion
	}
}

// New creates a Translator reading guest code from src.
func New(src CodeSource, opts ...Option) *Translator {
	t := &Translator{
		src:       src,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		pageShift: 12,
		maxInsts:  DefaultMaxBlockInsts,
		fusion:    true,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.configErr != nil {
		t.logger.Warn("config ignored", "err", t.configErr, "policy", t.policy)
	}
	return t
}

// Policy returns the address translation policy.
func (t *Translator) Policy() Policy { return t.policy }

// TranslateBlock translates the block starting at pc. The block ends at the
// first instruction that unconditionally leaves it, or after the
// instruction limit once no IT block is open. A block that fails is
// neither returned nor published.
func (t *Translator) TranslateBlock(pc uint32, thumb bool) (*Block, error) {
	c := newContext(t.src, pc, thumb)
	c.Policy = t.policy
	c.PageShift = t.pageShift
	c.Fusion = t.fusion

	n := 0
	for !c.ended {
		if n >= t.maxInsts && !c.IT.Active() {
			c.cond = insts.CondAL
			c.exitTo(c.PC, thumb)
			break
		}

		raw, kind, size, err := c.fetch(c.PC)
		if err != nil {
			t.logger.Debug("block aborted", "pc", pc, "error", err)
			return nil, fmt.Errorf("xlate: block at 0x%08x: %w", pc, err)
		}
		c.begin(raw, kind, size)
		it := c.IT
		if err := c.dispatch(); err != nil {
			t.logger.Debug("block aborted", "pc", pc, "error", err)
			return nil, err
		}
		n++
		c.PC += size
		if kind != insts.KindT16IT {
			c.IT = it.Advance()
		}

		if c.SkipNext {
			_, _, next, err := c.fetch(c.PC)
			if err != nil {
				return nil, fmt.Errorf("xlate: block at 0x%08x: %w", pc, err)
			}
			t.logger.Debug("moves fused", "pc", c.PC-size)
			c.PC += next
			c.IT = c.IT.Advance()
			c.SkipNext = false
			n++
		}

		if c.Asm.Len() > maxHostInsts {
			return nil, fmt.Errorf("%w: 0x%08x", ErrBlockTooLarge, pc)
		}
	}

	if live := c.Alloc.Live(); live != 0 {
		invariant("%d register handles live at end of block 0x%08x", live, pc)
	}

	b := &Block{
		GuestPC:       pc,
		Thumb:         thumb,
		Size:          c.PC - pc,
		GuestInsts:    n,
		Insts:         c.Asm.Insts(),
		Code:          c.Asm.Bytes(),
		FlagsModified: c.FlagsModified,
	}
	t.logger.Debug("block translated",
		"pc", pc, "thumb", thumb, "guest", n, "host", len(b.Insts), "fused", c.fused)
	if t.publisher != nil {
		t.publisher.Publish(b)
	}
	return b, nil
}

// Start is a block entry point.
type Start struct {
	PC    uint32
	Thumb bool
}

// TranslateMany translates independent blocks concurrently. Results are in
// the order of starts. The first failure cancels the remaining work.
func (t *Translator) TranslateMany(ctx context.Context, starts []Start) ([]*Block, error) {
	blocks := make([]*Block, len(starts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, s := range starts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := t.TranslateBlock(s.PC, s.Thumb)
			if err != nil {
				return err
			}
			blocks[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return blocks, nil
}
