package imageprocessor

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // register decoder
	"image/jpeg"
	_ "image/png" // register decoder
	"math"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder
)

const (
	contrastFactor   = 1.2
	brightnessOffset = 8
	midpoint         = 128
	enhanceQuality   = 92
)

// Enhance corrects the blue-green cast of underwater photos. Each colour
// channel is scaled towards the overall mean (gray world), then contrast is
// raised around the midpoint and brightness nudged up. Alpha is untouched.
func Enhance(img image.Image) *image.NRGBA {
	out := toNRGBA(img)
	w, h := out.Rect.Dx(), out.Rect.Dy()
	if w == 0 || h == 0 {
		return out
	}

	var sums [3]float64
	for y := 0; y < h; y++ {
		row := out.Pix[y*out.Stride : y*out.Stride+w*4]
		for i := 0; i < len(row); i += 4 {
			sums[0] += float64(row[i])
			sums[1] += float64(row[i+1])
			sums[2] += float64(row[i+2])
		}
	}

	n := float64(w * h)
	avgAll := (sums[0] + sums[1] + sums[2]) / (3 * n)
	var factors [3]float64
	for c := range factors {
		mean := sums[c] / n
		if mean == 0 {
			factors[c] = 1
			continue
		}
		factors[c] = avgAll / mean
	}

	var lut [3][256]uint8
	for c := range lut {
		for v := 0; v < 256; v++ {
			lut[c][v] = adjust(float64(v), factors[c])
		}
	}

	for y := 0; y < h; y++ {
		row := out.Pix[y*out.Stride : y*out.Stride+w*4]
		for i := 0; i < len(row); i += 4 {
			row[i] = lut[0][row[i]]
			row[i+1] = lut[1][row[i+1]]
			row[i+2] = lut[2][row[i+2]]
		}
	}
	return out
}

func adjust(v, factor float64) uint8 {
	x := (v*factor-midpoint)*contrastFactor + midpoint + brightnessOffset
	x = math.RoundToEven(x)
	switch {
	case x < 0:
		return 0
	case x > 255:
		return 255
	default:
		return uint8(x)
	}
}

func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			start := (y+b.Min.Y-src.Rect.Min.Y)*src.Stride + (b.Min.X-src.Rect.Min.X)*4
			copy(out.Pix[y*out.Stride:y*out.Stride+b.Dx()*4], src.Pix[start:start+b.Dx()*4])
		}
		return out
	}
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// EnhanceJPEG decodes a JPEG, PNG, GIF or WebP image, enhances it and
// returns the result as a JPEG.
func EnhanceJPEG(data []byte) ([]byte, error) {
	img, err := decode(data)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Enhance(img), &jpeg.Options{Quality: enhanceQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode enhanced image: %w", err)
	}
	return buf.Bytes(), nil
}

func decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	return img, nil
}
