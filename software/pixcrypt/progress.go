package main

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// progressBar adapts a schollz progress bar to cipher.ProgressFunc. The bar is
// created on the first update, once the column count is known.
type progressBar struct {
	w    io.Writer
	desc string
	bar  *progressbar.ProgressBar
}

func newProgressBar(w io.Writer, desc string) *progressBar {
	return &progressBar{w: w, desc: desc}
}

func (p *progressBar) Update(done, total int) {
	if total <= 0 {
		return
	}
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionSetDescription(p.desc),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowCount(),
			progressbar.OptionOnCompletion(func() {
				io.WriteString(p.w, "\n")
			}),
		)
	}
	p.bar.Set(done)
}
