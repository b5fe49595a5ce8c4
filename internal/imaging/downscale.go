package imaging

import (
	"bytes"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder

	"github.com/disintegration/imaging"
	"github.com/ironsheep/gemini-vision-mcp/internal/apperr"
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// Downscale shrinks an image so that neither side exceeds maxDim pixels,
// preserving the aspect ratio.
//
// Parameters:
//   - data: Encoded image bytes (PNG, JPEG, GIF or WebP).
//   - mime: MIME type of data.
//   - maxDim: Largest allowed width or height. Zero or less disables resizing.
//
// Returns the possibly re-encoded bytes and their MIME type. Images already
// within bounds are returned unchanged, byte for byte. Resized JPEGs stay
// JPEG; every other format is re-encoded as PNG because WebP has no encoder
// and re-encoding GIF would drop animation frames anyway.
//
// Decode and encode failures are reported as apperr.IOError.
func Downscale(data []byte, mime string, maxDim int) ([]byte, string, error) {
	if maxDim <= 0 {
		return data, mime, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", apperr.Wrap(err, apperr.IOError, "Failed to decode image")
	}
	if cfg.Width <= maxDim && cfg.Height <= maxDim {
		return data, mime, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", apperr.Wrap(err, apperr.IOError, "Failed to decode image")
	}

	fitted := imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)

	format, outMIME := imaging.PNG, "image/png"
	if mime == "image/jpeg" {
		format, outMIME = imaging.JPEG, "image/jpeg"
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, fitted, format); err != nil {
		return nil, "", apperr.Wrap(err, apperr.IOError, "Failed to encode resized image")
	}

	return buf.Bytes(), outMIME, nil
}
