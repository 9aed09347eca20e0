// Package imgio loads images into RGB grids and writes grids back out.
//
// Decoding goes through imaging (PNG, JPEG, GIF, BMP, TIFF, plus WebP
// registered by x/image/webp). Every image is normalised to opaque RGB by
// drawing it through gift. Writes are staged in a temporary file so a failed
// save never leaves a partial output behind.
package imgio

import (
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/disintegration/gift"
	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"

	"github.com/radeeyate/pixcrypt/software/cipher"
)

var (
	ErrNotFound          = errors.New("file not found")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrDecode            = errors.New("failed to decode image")
	ErrEncode            = errors.New("failed to write image")
)

type loadOptions struct {
	height   uint
	onResize func(from, to image.Rectangle)
}

type LoadOption func(*loadOptions)

// WithHeight downscales the decoded image to the given height, keeping the
// aspect ratio. Images already at or below that height are left alone.
func WithHeight(h uint) LoadOption {
	return func(o *loadOptions) {
		o.height = h
	}
}

// OnResize registers fn to be told when WithHeight actually shrank the image.
func OnResize(fn func(from, to image.Rectangle)) LoadOption {
	return func(o *loadOptions) {
		o.onResize = fn
	}
}

// Load decodes the image at path into an RGB grid. Alpha and palette
// information are discarded.
func Load(path string, opts ...LoadOption) (*cipher.Grid, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: '%s'", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: could not open '%s': %w", ErrDecode, path, err)
	}
	defer file.Close()

	grid, err := Decode(file, opts...)
	if err != nil {
		return nil, fmt.Errorf("could not read '%s': %w", path, err)
	}
	return grid, nil
}

// Decode reads any registered image format from r into an RGB grid.
func Decode(r io.Reader, opts ...LoadOption) (*cipher.Grid, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	img, err := imaging.Decode(r)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, ErrUnsupportedFormat
		}
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	if o.height > 0 && img.Bounds().Dy() > int(o.height) {
		from := img.Bounds()
		img = resize.Resize(0, o.height, img, resize.NearestNeighbor)
		if o.onResize != nil {
			o.onResize(from, img.Bounds())
		}
	}
	return toGrid(img), nil
}

// toGrid draws img into a non-premultiplied buffer so colour values survive
// for translucent pixels, then keeps only R, G and B.
func toGrid(img image.Image) *cipher.Grid {
	g := gift.New()
	nrgba := image.NewNRGBA(g.Bounds(img.Bounds()))
	g.Draw(nrgba, img)

	b := nrgba.Bounds()
	grid := cipher.NewGrid(b.Dx(), b.Dy())
	for y := 0; y < grid.Height; y++ {
		row := nrgba.Pix[y*nrgba.Stride:]
		for x := 0; x < grid.Width; x++ {
			px := row[x*4 : x*4+3]
			grid.Set(x, y, cipher.Pixel{R: px[0], G: px[1], B: px[2]})
		}
	}
	return grid
}

// toImage is the inverse of toGrid with every pixel fully opaque.
func toImage(grid *cipher.Grid) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, grid.Width, grid.Height))
	for y := 0; y < grid.Height; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < grid.Width; x++ {
			p := grid.At(x, y)
			copy(row[x*4:x*4+4], []uint8{p.R, p.G, p.B, 0xff})
		}
	}
	return img
}

// Save writes grid to path in the format implied by the file extension.
// The image is encoded into a temporary file next to path and renamed into
// place, so path is only created or replaced on success.
func Save(grid *cipher.Grid, path string) (err error) {
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return fmt.Errorf("%w: %w: '%s'", ErrEncode, ErrUnsupportedFormat, path)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("%w: could not create output file '%s': %w", ErrEncode, path, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = Encode(tmp, grid, format); err != nil {
		return fmt.Errorf("could not encode image to '%s': %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: could not flush data to '%s': %w", ErrEncode, path, err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: could not move output into '%s': %w", ErrEncode, path, err)
	}
	return nil
}

// Encode writes grid to w in the given format.
func Encode(w io.Writer, grid *cipher.Grid, format imaging.Format) error {
	if err := imaging.Encode(w, toImage(grid), format, imaging.JPEGQuality(100)); err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return nil
}

// Lossy reports whether saving to path alters pixel values, which makes an
// encrypted image impossible to decrypt exactly.
func Lossy(path string) bool {
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return false
	}
	return format == imaging.JPEG || format == imaging.GIF
}

// Supported reports whether path has an extension Save can write.
func Supported(path string) bool {
	_, err := imaging.FormatFromFilename(path)
	return err == nil
}
