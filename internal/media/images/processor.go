package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"log/slog"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	// maxDimension caps the longest edge of stored images.
	// Landing pages render at phone width, so anything larger is wasted bytes.
	maxDimension = 1600

	// jpegQuality for re-encoded uploads.
	jpegQuality = 85
)

// ErrInvalidImage means the uploaded payload could not be decoded as an image.
var ErrInvalidImage = errors.New("images: data is not a decodable image")

// Processor normalizes uploaded images and stores them as JPEG.
type Processor struct {
	storage *Storage
	logger  *slog.Logger
}

// NewProcessor creates a new Processor instance.
func NewProcessor(storage *Storage, logger *slog.Logger) *Processor {
	return &Processor{
		storage: storage,
		logger:  logger,
	}
}

// Process decodes an uploaded image (JPEG, PNG, GIF, or WebP), downscales it
// to at most maxDimension on its longest edge, re-encodes it as JPEG under
// the given ID, and returns the BlurHash placeholder for it.
func (p *Processor) Process(id string, data []byte) (string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}

	normalized := downscale(img, maxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, normalized, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}

	if err := p.storage.Save(id, buf.Bytes()); err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}

	hash, err := ComputeBlurHash(normalized)
	if err != nil {
		return "", fmt.Errorf("compute blurhash: %w", err)
	}

	p.logger.Debug("processed image",
		"id", id,
		"format", format,
		"in_bytes", len(data),
		"out_bytes", buf.Len(),
	)

	return hash, nil
}

// downscale resizes img so its longest edge is at most maxEdge,
// preserving aspect ratio. Images already small enough pass through.
func downscale(img image.Image, maxEdge int) image.Image {
	bounds := img.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()

	if srcWidth <= maxEdge && srcHeight <= maxEdge {
		return img
	}

	var dstWidth, dstHeight int
	if srcWidth > srcHeight {
		dstWidth = maxEdge
		dstHeight = (srcHeight * maxEdge) / srcWidth
		if dstHeight < 1 {
			dstHeight = 1
		}
	} else {
		dstHeight = maxEdge
		dstWidth = (srcWidth * maxEdge) / srcHeight
		if dstWidth < 1 {
			dstWidth = 1
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstWidth, dstHeight))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
	return dst
}
