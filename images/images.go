// Package images turns decoded images into the 8 bit grayscale buffers the
// landmark engine consumes.
package images

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// Load decodes the image at path, applying any EXIF orientation, and converts
// it to grayscale.
func Load(path string) (*image.Gray, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	return ToGray(img), nil
}

// ToGray returns img as an *image.Gray. Images that already are grayscale
// are returned as is, everything else is converted with luminance weights.
// The result of a conversion always has its origin at (0, 0).
func ToGray(img image.Image) *image.Gray {
	if gray, ok := img.(*image.Gray); ok {
		return gray
	}

	// bild writes the luma into all three color channels of an RGBA image,
	// so the R channel is the gray value.
	rgba := effect.Grayscale(img)
	bounds := rgba.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	gray := image.NewGray(image.Rect(0, 0, width, height))
	for y := range height {
		src := rgba.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		dst := y * gray.Stride
		for x := range width {
			gray.Pix[dst+x] = rgba.Pix[src+4*x]
		}
	}
	return gray
}

// Pack returns img's pixels as one contiguous width*height buffer. When the
// image rows are already contiguous the returned slice aliases img.Pix and
// must be treated as read only; otherwise the rows are copied.
func Pack(img *image.Gray) (pix []byte, width, height int) {
	bounds := img.Bounds()
	width, height = bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, width, height
	}

	start := img.PixOffset(bounds.Min.X, bounds.Min.Y)
	if img.Stride == width {
		return img.Pix[start : start+width*height], width, height
	}

	pix = make([]byte, width*height)
	for y := range height {
		row := start + y*img.Stride
		copy(pix[y*width:(y+1)*width], img.Pix[row:row+width])
	}
	return pix, width, height
}

// FromPlane copies an 8 bit plane with the given stride into a new
// *image.Gray. The copy is needed because decoders reuse their plane buffers
// between frames.
func FromPlane(plane []byte, stride, width, height int) (*image.Gray, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid plane size %dx%d", width, height)
	}
	if stride < width || len(plane) < stride*(height-1)+width {
		return nil, fmt.Errorf("plane of %d bytes with stride %d is too small "+
			"for %dx%d", len(plane), stride, width, height)
	}

	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := range height {
		copy(img.Pix[y*img.Stride:y*img.Stride+width],
			plane[y*stride:y*stride+width])
	}
	return img, nil
}
