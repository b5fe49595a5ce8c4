package imaging

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ironsheep/gemini-vision-mcp/internal/apperr"
)

// mimeTypes maps lower-case file extensions to the MIME type sent to the
// model. Its keys are also the set of extensions the validator accepts.
var mimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// fallbackMIMEType is reported for extensions outside mimeTypes. Validation
// rejects those before encoding, so the dispatcher never sees it.
const fallbackMIMEType = "image/jpeg"

// ValidatedImage is a path that passed ValidateImagePath.
type ValidatedImage struct {
	// Path is the absolute, cleaned file path.
	Path string `json:"path"`

	// MIMEType is derived from the file extension.
	MIMEType string `json:"mime_type"`

	// Size is the file size on disk in bytes.
	Size int64 `json:"size"`
}

// SupportedFormats returns the accepted extensions, sorted, with leading dots.
func SupportedFormats() []string {
	exts := make([]string, 0, len(mimeTypes))
	for ext := range mimeTypes {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// IsSupportedFormat reports whether path has an accepted image extension.
// The comparison is case-insensitive.
func IsSupportedFormat(path string) bool {
	_, ok := mimeTypes[strings.ToLower(filepath.Ext(path))]
	return ok
}

// MIMEType returns the MIME type for path based on its extension.
//
// Unrecognized extensions map to "image/jpeg". Callers should validate the
// path first; the fallback only exists so this function never returns an
// empty type.
func MIMEType(path string) string {
	if mime, ok := mimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mime
	}
	return fallbackMIMEType
}

// ValidateImagePath resolves path and checks that it names an image file the
// model can consume.
//
// Parameters:
//   - path: Absolute or relative path. Relative paths resolve against the
//     process working directory.
//   - maxBytes: Upper bound on the file size. Zero or negative disables it.
//
// # Errors
//
//   - apperr.NotFound if nothing exists at the path
//   - apperr.InvalidInput if the path is a directory or other non-regular file
//   - apperr.InvalidInput if the extension is not png, jpg, jpeg, gif or webp
//   - apperr.InvalidInput if the file exceeds maxBytes
//   - apperr.IOError if the path cannot be resolved or stat'd for another reason
func ValidateImagePath(path string, maxBytes int64) (*ValidatedImage, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.IOError, "Failed to resolve image path %s", path)
	}

	stat, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.New(apperr.NotFound, "Image file not found: %s", path)
		}
		return nil, apperr.Wrap(err, apperr.IOError, "Failed to access image %s", path)
	}

	if !stat.Mode().IsRegular() {
		return nil, apperr.New(apperr.InvalidInput, "Path is not a file: %s", path)
	}

	if !IsSupportedFormat(abs) {
		return nil, apperr.New(apperr.InvalidInput, "Unsupported image format: %s. Supported formats: %s",
			filepath.Ext(abs), strings.Join(SupportedFormats(), ", "))
	}

	if maxBytes > 0 && stat.Size() > maxBytes {
		return nil, apperr.New(apperr.InvalidInput, "Image file too large: %d bytes (max: %d bytes)",
			stat.Size(), maxBytes)
	}

	return &ValidatedImage{
		Path:     abs,
		MIMEType: MIMEType(abs),
		Size:     stat.Size(),
	}, nil
}
