package fetch

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
)

// newProgressBar 在配置了 Progress 输出时返回字节进度条；未知长度（-1）时退化为 spinner。
func (f *Fetcher) newProgressBar(size int64, filename string) *progressbar.ProgressBar {
	if f.progress == nil {
		return nil
	}
	out := f.progress
	return progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(filename),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(out)
		}),
	)
}
