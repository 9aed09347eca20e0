// Package pipeline runs one load, transform and save pass over an image file.
package pipeline

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"log"
	"os"

	"github.com/radeeyate/pixcrypt/software/cipher"
	"github.com/radeeyate/pixcrypt/software/imgio"
)

var (
	ErrInputNotFound    = errors.New("input file does not exist")
	ErrInvalidOperation = errors.New("operation must be 'encrypt' or 'decrypt'")
	ErrInvalidAlgorithm = cipher.ErrInvalidAlgorithm
	ErrDecode           = imgio.ErrDecode
	ErrEncode           = imgio.ErrEncode
	ErrUnexpected       = errors.New("unexpected failure")
)

type Operation string

const (
	Encrypt Operation = "encrypt"
	Decrypt Operation = "decrypt"
)

func ParseOperation(s string) (Operation, error) {
	switch op := Operation(s); op {
	case Encrypt, Decrypt:
		return op, nil
	}
	return "", fmt.Errorf("%w, got %q", ErrInvalidOperation, s)
}

// Direction picks the transform direction. Only add_key cares; XOR is its
// own inverse.
func (op Operation) Direction() cipher.Direction {
	if op == Decrypt {
		return cipher.Inverse
	}
	return cipher.Forward
}

type Config struct {
	Operation Operation
	Input     string
	Output    string
	// Key is already reduced to [0,255]; see cipher.NormalizeKey.
	Key       uint8
	Algorithm string

	// Workers > 1 transforms column ranges concurrently, 0 and 1 run
	// sequentially and a negative value uses GOMAXPROCS.
	Workers int
	// Height, when non-zero, downscales the input before transforming.
	Height uint
	// Progress observes the transform, one call per finished column.
	Progress cipher.ProgressFunc
}

// Run executes cfg end to end. Output is only written after the whole grid
// has been transformed; every failure comes back as an error wrapping one of
// the Err values above.
func Run(cfg Config) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrUnexpected, r)
		}
	}()

	if _, err := ParseOperation(string(cfg.Operation)); err != nil {
		return err
	}

	if _, err := os.Stat(cfg.Input); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: '%s'", ErrInputNotFound, cfg.Input)
		}
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}

	alg, err := cipher.ParseAlgorithm(cfg.Algorithm)
	if err != nil {
		return err
	}

	var loadOpts []imgio.LoadOption
	if cfg.Height > 0 {
		loadOpts = append(loadOpts, imgio.WithHeight(cfg.Height), imgio.OnResize(func(from, to image.Rectangle) {
			log.Printf("Warning: input scaled from %dx%d to %dx%d, decrypting the output will not restore the original size",
				from.Dx(), from.Dy(), to.Dx(), to.Dy())
		}))
	}
	grid, err := imgio.Load(cfg.Input, loadOpts...)
	if err != nil {
		if errors.Is(err, imgio.ErrDecode) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}

	var opts []cipher.Option
	if cfg.Workers != 0 {
		opts = append(opts, cipher.WithWorkers(cfg.Workers))
	}
	if cfg.Progress != nil {
		opts = append(opts, cipher.WithProgress(cfg.Progress))
	}
	if err := cipher.Apply(grid, int(cfg.Key), alg, cfg.Operation.Direction(), opts...); err != nil {
		if errors.Is(err, cipher.ErrPanic) {
			return fmt.Errorf("%w: %w", ErrUnexpected, err)
		}
		return err
	}

	if imgio.Lossy(cfg.Output) {
		log.Printf("Warning: '%s' uses a lossy format, the result cannot be reversed exactly", cfg.Output)
	}
	return imgio.Save(grid, cfg.Output)
}
