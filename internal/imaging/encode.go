package imaging

import (
	"encoding/base64"
	"os"

	"github.com/ironsheep/gemini-vision-mcp/internal/apperr"
)

// EncodedImage is image data ready to embed in a model request.
type EncodedImage struct {
	// Data is the standard, padded base64 encoding of the image bytes.
	Data string `json:"data"`

	// MIMEType describes Data once decoded.
	MIMEType string `json:"mime_type"`
}

// DataURI returns the image as a data: URI.
func (e *EncodedImage) DataURI() string {
	return "data:" + e.MIMEType + ";base64," + e.Data
}

// EncodeImage reads the whole file and base64-encodes it.
//
// The returned data decodes back to the exact file contents. Read failures
// are reported as apperr.IOError.
func EncodeImage(img *ValidatedImage) (*EncodedImage, error) {
	return EncodeImageBounded(img, 0)
}

// EncodeImageBounded behaves like EncodeImage, but first shrinks images whose
// width or height exceeds maxDim. See Downscale. A maxDim of zero or less
// disables resizing.
func EncodeImageBounded(img *ValidatedImage, maxDim int) (*EncodedImage, error) {
	data, err := os.ReadFile(img.Path)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.IOError, "Failed to read image %s", img.Path)
	}

	mime := img.MIMEType
	if mime == "" {
		mime = MIMEType(img.Path)
	}

	data, mime, err = Downscale(data, mime, maxDim)
	if err != nil {
		return nil, err
	}

	return &EncodedImage{
		Data:     base64.StdEncoding.EncodeToString(data),
		MIMEType: mime,
	}, nil
}
