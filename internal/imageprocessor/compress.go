package imageprocessor

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	"golang.org/x/image/draw"
)

const (
	compressThreshold    = 8 << 20 // estimated decoded bytes
	maxCompressDimension = 2048
	compressQuality      = 85
)

// Compress returns data unchanged when its estimated decoded size (width x
// height x 4) fits the threshold. Larger images are scaled so the longer side
// is at most 2048 pixels and re-encoded as JPEG.
func Compress(data []byte) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	if int64(cfg.Width)*int64(cfg.Height)*4 <= compressThreshold {
		return data, nil
	}

	img, err := decode(data)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width, height := scaledSize(bounds.Dx(), bounds.Dy())
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: compressQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode compressed image: %w", err)
	}
	return buf.Bytes(), nil
}

func scaledSize(width, height int) (int, int) {
	longer := max(width, height)
	if longer <= maxCompressDimension {
		return width, height
	}

	scale := float64(maxCompressDimension) / float64(longer)
	w := int(math.Round(float64(width) * scale))
	h := int(math.Round(float64(height) * scale))
	return min(max(w, 1), maxCompressDimension), min(max(h, 1), maxCompressDimension)
}
