package storage

import (
	"strconv"
	"strings"
)

// DefaultThumbnailMode 默认的缩略模式：限定宽高的最大值等比缩放
const DefaultThumbnailMode = 2

// ThumbnailOptions 缩略图处理参数，零值字段不参与编码
type ThumbnailOptions struct {
	Width   int
	Height  int
	Quality int
	Format  string
	Mode    int
}

// Encode 编码为 imageView2 处理指令，如 "imageView2/2/w/200/h/100/q/75/format/webp"
func (o ThumbnailOptions) Encode() string {
	mode := o.Mode
	if mode <= 0 {
		mode = DefaultThumbnailMode
	}

	var b strings.Builder
	b.WriteString("imageView2/")
	b.WriteString(strconv.Itoa(mode))
	if o.Width > 0 {
		b.WriteString("/w/" + strconv.Itoa(o.Width))
	}
	if o.Height > 0 {
		b.WriteString("/h/" + strconv.Itoa(o.Height))
	}
	if o.Quality > 0 {
		b.WriteString("/q/" + strconv.Itoa(o.Quality))
	}
	if o.Format != "" {
		b.WriteString("/format/" + strings.ToLower(o.Format))
	}
	return b.String()
}
