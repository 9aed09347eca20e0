package main

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"

	"github.com/radeeyate/pixcrypt/software/cipher"
	"github.com/radeeyate/pixcrypt/software/imgio"
)

// transformImage decodes data, applies the keyed transform and returns the
// result encoded as PNG, the only output format that keeps every value.
func transformImage(data []byte, key int64, algorithm string, decrypt bool) ([]byte, error) {
	alg, err := cipher.ParseAlgorithm(algorithm)
	if err != nil {
		return nil, err
	}

	grid, err := imgio.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode input image: %w", err)
	}

	dir := cipher.Forward
	if decrypt {
		dir = cipher.Inverse
	}
	// Reduce before narrowing so 32-bit int cannot truncate the key.
	if err := cipher.Apply(grid, int(cipher.NormalizeKey64(key)), alg, dir); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := imgio.Encode(&out, grid, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode processed image to PNG: %w", err)
	}
	return out.Bytes(), nil
}
