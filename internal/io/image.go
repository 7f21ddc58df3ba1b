package ioutils

import (
	"bytes"
	"context"
	"image"
	_ "image/gif" // GIF decoder registration
	"image/jpeg"
	_ "image/png" // PNG decoder registration
	"os"

	"golang.org/x/image/draw"
)

// ImageService renders song cover art for the web listing.
//
// UltraStar covers are often large scans; the service shrinks them to a
// bounded thumbnail and always encodes JPEG, whatever the source format.
//
// Example:
//
//	svc := NewImageService(300)
//	thumb, err := svc.Thumbnail(ctx, "/songs/Human/Human [CO].jpg")
type ImageService struct {
	maxSize int
	quality int
}

// NewImageService creates an ImageService producing thumbnails that fit in
// a maxSize x maxSize box.
func NewImageService(maxSize int) *ImageService {
	if maxSize <= 0 {
		maxSize = 300
	}
	return &ImageService{maxSize: maxSize, quality: 85}
}

// Thumbnail reads the image at path and returns it resized to the service
// bounds as JPEG bytes.
func (s *ImageService) Thumbnail(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return s.ResizeImage(ctx, data, s.maxSize, s.maxSize)
}

// ResizeImage resizes an image to fit within the specified maximum dimensions.
//
// The aspect ratio is preserved. Images already within bounds keep their
// size but are still re-encoded as JPEG. The Catmull-Rom kernel is used for
// scaling.
//
// Example:
//
//	// A 1500x1000 image becomes 300x200
//	resized, err := svc.ResizeImage(ctx, imageData, 300, 300)
func (s *ImageService) ResizeImage(ctx context.Context, data []byte, maxWidth, maxHeight int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width, height := fitWithin(bounds.Dx(), bounds.Dy(), maxWidth, maxHeight)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: s.quality}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// fitWithin scales width x height down to fit maxWidth x maxHeight keeping
// the aspect ratio. Smaller sizes are returned unchanged.
func fitWithin(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= maxWidth && height <= maxHeight {
		return width, height
	}

	ratio := float64(width) / float64(height)
	if float64(maxWidth)/float64(maxHeight) > ratio {
		// Height is the limiting factor
		width = max(1, int(float64(maxHeight)*ratio))
		height = maxHeight
	} else {
		height = max(1, int(float64(maxWidth)/ratio))
		width = maxWidth
	}

	return width, height
}
