package imgio

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radeeyate/pixcrypt/software/cipher"
)

func testGrid() *cipher.Grid {
	g := cipher.NewGrid(3, 2)
	g.Set(0, 0, cipher.Pixel{R: 10, G: 20, B: 30})
	g.Set(1, 0, cipher.Pixel{R: 250, G: 5, B: 0})
	g.Set(2, 0, cipher.Pixel{R: 255, G: 255, B: 255})
	g.Set(0, 1, cipher.Pixel{R: 1, G: 2, B: 3})
	g.Set(1, 1, cipher.Pixel{R: 128, G: 64, B: 32})
	return g
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"out.png", "out.bmp", "out.tiff"} {
		path := filepath.Join(dir, name)
		want := testGrid()
		require.NoError(t, Save(want, path))

		got, err := Load(path)
		require.NoError(t, err)
		assert.True(t, want.Equal(got), name)
	}
}

func TestLoadDropsAlpha(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alpha.png")
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 90, G: 180, B: 30, A: 128})
	writePNG(t, path, img)

	g, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, g.Width)
	require.Equal(t, 1, g.Height)
	assert.Equal(t, cipher.Pixel{R: 200, G: 100, B: 50}, g.At(0, 0))

	p := g.At(1, 0)
	assert.InDelta(t, 90, int(p.R), 1)
	assert.InDelta(t, 180, int(p.G), 1)
	assert.InDelta(t, 30, int(p.B), 1)
}

func TestLoadPaletted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "palette.png")
	pal := color.Palette{color.RGBA{0, 0, 0, 255}, color.RGBA{12, 34, 56, 255}}
	img := image.NewPaletted(image.Rect(0, 0, 2, 2), pal)
	img.SetColorIndex(1, 1, 1)
	writePNG(t, path, img)

	g, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cipher.Pixel{}, g.At(0, 0))
	assert.Equal(t, cipher.Pixel{R: 12, G: 34, B: 56}, g.At(1, 1))
}

func TestLoadWithHeight(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.png")
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	writePNG(t, path, img)

	g, err := Load(path, WithHeight(10))
	require.NoError(t, err)
	assert.Equal(t, 20, g.Width)
	assert.Equal(t, 10, g.Height)
	assert.Equal(t, cipher.Pixel{R: 255, G: 255, B: 255}, g.At(19, 9))

	g, err = Load(path, WithHeight(50))
	require.NoError(t, err)
	assert.Equal(t, 40, g.Width)
	assert.Equal(t, 20, g.Height)
}

func TestLoadOnResize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.png")
	writePNG(t, path, image.NewRGBA(image.Rect(0, 0, 40, 20)))

	var calls []image.Rectangle
	record := OnResize(func(from, to image.Rectangle) {
		calls = append(calls, from, to)
	})

	_, err := Load(path, WithHeight(10), record)
	require.NoError(t, err)
	require.Len(t, calls, 2)
	assert.Equal(t, image.Rect(0, 0, 40, 20), calls[0])
	assert.Equal(t, 10, calls[1].Dy())

	// Already at the requested height: nothing is resized or reported.
	calls = nil
	_, err = Load(path, WithHeight(20), record)
	require.NoError(t, err)
	assert.Empty(t, calls)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, ErrNotFound)

	text := filepath.Join(dir, "notes.png")
	require.NoError(t, os.WriteFile(text, []byte("definitely not an image"), 0o644))
	_, err = Load(text)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	truncated := filepath.Join(dir, "truncated.png")
	require.NoError(t, os.WriteFile(truncated, []byte("\x89PNG\r\n\x1a\n\x00\x00"), 0o644))
	_, err = Load(truncated)
	assert.ErrorIs(t, err, ErrDecode)

	badWebp := filepath.Join(dir, "bad.webp")
	require.NoError(t, os.WriteFile(badWebp, []byte("RIFF\x20\x00\x00\x00WEBPVP8 \x00\x00\x00\x00"), 0o644))
	_, err = Load(badWebp)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestSaveErrorsLeaveNoFile(t *testing.T) {
	dir := t.TempDir()

	out := filepath.Join(dir, "out.xyz")
	err := Save(testGrid(), out)
	require.ErrorIs(t, err, ErrEncode)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.NoFileExists(t, out)

	err = Save(testGrid(), filepath.Join(dir, "no", "such", "dir.png"))
	require.ErrorIs(t, err, ErrEncode)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no temporary files may be left behind")
}

func TestSaveReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))
	require.NoError(t, Save(testGrid(), path))

	g, err := Load(path)
	require.NoError(t, err)
	assert.True(t, testGrid().Equal(g))
}

func TestLossy(t *testing.T) {
	assert.True(t, Lossy("a.jpg"))
	assert.True(t, Lossy("a.JPEG"))
	assert.True(t, Lossy("a.gif"))
	assert.False(t, Lossy("a.png"))
	assert.False(t, Lossy("a.bmp"))
	assert.False(t, Lossy("a.unknown"))

	assert.True(t, Supported("x.tif"))
	assert.False(t, Supported("x.webp"))
}

func TestDecodeEncodeStream(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, testGrid(), imaging.PNG))

	g, err := Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.True(t, testGrid().Equal(g))

	_, err = Decode(strings.NewReader("plain text"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
