package domain

// FileType represents the allowed file types for upload.
type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypeJPG  FileType = "jpg"
	FileTypePNG  FileType = "png"
	FileTypeTIFF FileType = "tiff"
	FileTypeBMP  FileType = "bmp"
	FileTypeWEBP FileType = "webp"
)

// AllowedFileTypes maps FileType to its MIME content type.
var AllowedFileTypes = map[FileType]string{
	FileTypePDF:  "application/pdf",
	FileTypeJPG:  "image/jpeg",
	FileTypePNG:  "image/png",
	FileTypeTIFF: "image/tiff",
	FileTypeBMP:  "image/bmp",
	FileTypeWEBP: "image/webp",
}

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
	"image/jpeg":      FileTypeJPG,
	"image/png":       FileTypePNG,
	"image/tiff":      FileTypeTIFF,
	"image/bmp":       FileTypeBMP,
	"image/webp":      FileTypeWEBP,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
	"tif":  FileTypeTIFF,
	"tiff": FileTypeTIFF,
	"bmp":  FileTypeBMP,
	"webp": FileTypeWEBP,
}

// SourceKind says whether a pipeline run started from a PDF or a single image.
type SourceKind string

const (
	SourcePDF   SourceKind = "pdf"
	SourceImage SourceKind = "image"
)

// SourceKindFor returns the pipeline source kind for an upload file type.
func SourceKindFor(ft FileType) SourceKind {
	if ft == FileTypePDF {
		return SourcePDF
	}
	return SourceImage
}

// AllowedDPIs are the rasterization resolutions offered to callers.
var AllowedDPIs = []int{300, 600}

// DefaultDPI is used when a caller does not pick a resolution.
const DefaultDPI = 300

// IsAllowedDPI reports whether dpi is one of AllowedDPIs.
func IsAllowedDPI(dpi int) bool {
	for _, d := range AllowedDPIs {
		if d == dpi {
			return true
		}
	}
	return false
}
