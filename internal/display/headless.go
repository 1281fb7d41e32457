package display

import (
	"fmt"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Headless is a sink without a panel. It checks block geometry like the real
// driver and counts rows and completed frames.
type Headless struct {
	width, height int
	logger        *zap.SugaredLogger

	rows   atomic.Uint64
	frames atomic.Uint64
}

func NewHeadless(width, height int, logger *zap.SugaredLogger) *Headless {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Headless{width: width, height: height, logger: logger}
}

func (h *Headless) WriteBlock(x0, y0, x1, y1 int, pix []byte) error {
	if x0 < 0 || y0 < 0 || x1 >= h.width || y1 >= h.height || x0 > x1 || y0 > y1 {
		return fmt.Errorf("headless: block (%d,%d)-(%d,%d) outside %dx%d", x0, y0, x1, y1, h.width, h.height)
	}
	if want := (x1 - x0 + 1) * (y1 - y0 + 1) * 2; len(pix) != want {
		return fmt.Errorf("headless: block needs %d bytes, got %d", want, len(pix))
	}
	h.rows.Add(uint64(y1 - y0 + 1))
	if y1 == h.height-1 {
		n := h.frames.Inc()
		h.logger.Debugf("headless: frame %d complete", n)
	}
	return nil
}

// Frames returns the number of blocks that reached the bottom row.
func (h *Headless) Frames() uint64 { return h.frames.Load() }

// Rows returns the total rows written.
func (h *Headless) Rows() uint64 { return h.rows.Load() }
