// Package thumbs maintains the derived thumbnail cache: deterministic
// path-keyed cache entries in the object store, timestamp-based staleness
// detection, and regeneration through external converter tools.
package thumbs

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// Family is a closed set of converter families. Every supported file
// extension maps to exactly one family; extensions outside the table are
// excluded from thumbnail generation entirely.
type Family int

const (
	// FamilyImage covers raster images handled directly by ImageMagick.
	FamilyImage Family = iota
	// FamilyFirstPage covers paged documents rasterized from their first page.
	FamilyFirstPage
	// FamilyVector covers vector graphics.
	FamilyVector
	// FamilyVideo covers video containers, thumbnailed from an early frame.
	FamilyVideo
	// FamilyOffice covers office documents converted via LibreOffice.
	FamilyOffice
)

// String returns the family name used in logs and metrics.
func (f Family) String() string {
	switch f {
	case FamilyImage:
		return "image"
	case FamilyFirstPage:
		return "firstpage"
	case FamilyVector:
		return "vector"
	case FamilyVideo:
		return "video"
	case FamilyOffice:
		return "office"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// extensionFamilies is the fixed dispatch table from lowercase file
// extension to converter family.
var extensionFamilies = map[string]Family{
	".jpg":  FamilyImage,
	".jpeg": FamilyImage,
	".png":  FamilyImage,
	".gif":  FamilyImage,
	".webp": FamilyImage,
	".bmp":  FamilyImage,
	".tif":  FamilyImage,
	".tiff": FamilyImage,

	".pdf": FamilyFirstPage,
	".ps":  FamilyFirstPage,
	".eps": FamilyFirstPage,

	".svg": FamilyVector,

	".mp4":  FamilyVideo,
	".mov":  FamilyVideo,
	".avi":  FamilyVideo,
	".mkv":  FamilyVideo,
	".webm": FamilyVideo,

	".doc":  FamilyOffice,
	".docx": FamilyOffice,
	".odt":  FamilyOffice,
	".xls":  FamilyOffice,
	".xlsx": FamilyOffice,
	".ods":  FamilyOffice,
	".ppt":  FamilyOffice,
	".pptx": FamilyOffice,
	".odp":  FamilyOffice,
}

// FamilyForPath returns the converter family for a source path, or false
// when the extension is not in the table.
func FamilyForPath(sourcePath string) (Family, bool) {
	family, ok := extensionFamilies[strings.ToLower(path.Ext(sourcePath))]
	return family, ok
}

// Converter turns source bytes into thumbnail image bytes no larger than
// maxDimension on either edge.
type Converter interface {
	Family() Family
	Convert(ctx context.Context, source []byte, maxDimension int) ([]byte, error)
}

// ConversionError wraps a converter failure with its family. Failures are
// reported per item and never abort a batch.
type ConversionError struct {
	Fam Family
	Err error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s conversion failed: %v", e.Fam, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}
