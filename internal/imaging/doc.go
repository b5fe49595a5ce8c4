// Package imaging turns a caller-supplied file path into image data a
// multimodal model can consume.
//
// The flow is two steps:
//
//	img, err := imaging.ValidateImagePath(path, maxBytes)
//	enc, err := imaging.EncodeImage(img)
//	uri := enc.DataURI() // data:image/png;base64,...
//
// # Supported Formats
//
// PNG, JPEG (.jpg and .jpeg), GIF and WebP. Extensions are matched
// case-insensitively; file contents are not sniffed. The MIME type sent to
// the model comes from the extension.
//
// # Downscaling
//
// EncodeImageBounded optionally fits large images into a square bounding box
// before encoding, which keeps request payloads and model token usage down.
// Without it the encoded data is the file, byte for byte.
//
// # Error Handling
//
// All errors are *apperr.Error values:
//   - NotFound: the path does not exist
//   - InvalidInput: not a regular file, unsupported extension, too large
//   - IOError: the file could not be read, decoded or re-encoded
package imaging
