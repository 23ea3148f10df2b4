package cmd

import (
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// progress wraps schollz/progressbar as a per-pass byte counter. A disabled
// progress swallows every call.
type progress struct {
	enabled bool
	bar     *progressbar.ProgressBar
}

func newProgress(enabled bool) *progress {
	return &progress{enabled: enabled}
}

func (p *progress) Start(pass string, total int64) {
	if !p.enabled {
		return
	}
	opts := []progressbar.Option{
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionThrottle(250 * time.Millisecond),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetDescription(pass),
		progressbar.OptionShowBytes(true),
	}
	if total > 0 {
		opts = append(opts,
			progressbar.OptionSetWidth(30),
			progressbar.OptionSetPredictTime(true),
		)
		p.bar = progressbar.NewOptions64(total, opts...)
		return
	}
	opts = append(opts, progressbar.OptionSpinnerType(14))
	p.bar = progressbar.NewOptions64(-1, opts...)
}

func (p *progress) Add(n int) {
	if p.bar == nil {
		return
	}
	_ = p.bar.Add(n)
}

func (p *progress) Finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
	p.bar = nil
}
