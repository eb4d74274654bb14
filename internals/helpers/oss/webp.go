// file: internals/helpers/oss/webp.go
package helper

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

var ErrUnsupportedImage = errors.New("unsupported image format (use jpg/png/webp)")

const MaxImageUpload = 5 * 1024 * 1024

type WebPOptions struct {
	MaxSide int     // bounding box for both width and height
	Quality float32 // lossy quality
}

// ToWebP decodes jpeg/png/webp (applying EXIF orientation), shrinks the image into
// MaxSide x MaxSide keeping its aspect, and re-encodes it as WebP.
func ToWebP(r io.Reader, opt WebPOptions) ([]byte, error) {
	src, err := imaging.Decode(io.LimitReader(r, MaxImageUpload+1), imaging.AutoOrientation(true))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, ErrUnsupportedImage
		}
		return nil, fmt.Errorf("decode image: %w", err)
	}

	img := downscale(src, opt.MaxSide)

	q := opt.Quality
	if q <= 0 {
		q = 80
	}
	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, img, &webp.Options{Quality: q}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), nil
}

func downscale(src image.Image, maxSide int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return src
	}
	nw, nh := maxSide, maxSide
	if w >= h {
		nh = max(1, h*maxSide/w)
	} else {
		nw = max(1, w*maxSide/h)
	}
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
