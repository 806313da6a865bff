package scanning

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// DefaultPDFDPI renders PDF pages at their native size
const DefaultPDFDPI = 72

// imageExtensions lists the document extensions decoded as images
var imageExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"bmp":  true,
	"tif":  true,
	"tiff": true,
	"webp": true,
	"heic": true,
	"heif": true,
}

// SupportedExtension reports whether Rasterize accepts the extension
func SupportedExtension(ext string) bool {
	return ext == "pdf" || imageExtensions[ext]
}

// Rasterizer turns an uploaded document into a single image
type Rasterizer struct {
	// PDFDPI is the resolution used to render the first PDF page
	PDFDPI int
	// MaxDimension bounds the width and height of the result. Zero keeps the native size.
	MaxDimension int
}

// NewRasterizer creates a Rasterizer rendering PDFs at native resolution
func NewRasterizer() *Rasterizer {
	return &Rasterizer{PDFDPI: DefaultPDFDPI}
}

// Rasterize decodes the document into an image.
// Only the first page of a PDF is rendered.
func (r *Rasterizer) Rasterize(doc Document) (img image.Image, err error) {
	ext := doc.Extension()

	// The HEIC and PDF decoders can panic on malformed input
	defer func() {
		if p := recover(); p != nil {
			img, err = nil, fmt.Errorf("%w: %v", ErrDecodeFailure, p)
		}
	}()

	switch {
	case ext == "pdf":
		img, err = r.pdfFirstPage(doc.Data)
	case !imageExtensions[ext]:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	case ext == "heic" || ext == "heif" || isHEICFormat(doc.Data):
		// Go's standard image package doesn't support HEIC
		img, err = heic.Decode(bytes.NewReader(doc.Data))
		if err != nil {
			err = fmt.Errorf("%w: decoding HEIC/HEIF image: %w", ErrDecodeFailure, err)
		}
	default:
		// Phone photos carry their rotation in EXIF
		img, err = imaging.Decode(bytes.NewReader(doc.Data), imaging.AutoOrientation(true))
		if err != nil {
			err = fmt.Errorf("%w: decoding image: %w", ErrDecodeFailure, err)
		}
	}
	if err != nil {
		return nil, err
	}

	if r.MaxDimension > 0 {
		b := img.Bounds()
		if b.Dx() > r.MaxDimension || b.Dy() > r.MaxDimension {
			img = imaging.Fit(img, r.MaxDimension, r.MaxDimension, imaging.Lanczos)
		}
	}
	return img, nil
}

// pdfFirstPage renders page one of a PDF
func (r *Rasterizer) pdfFirstPage(pdfData []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("%w: opening PDF: %w", ErrDecodeFailure, err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, fmt.Errorf("%w: PDF has no pages", ErrDecodeFailure)
	}

	dpi := r.PDFDPI
	if dpi <= 0 {
		dpi = DefaultPDFDPI
	}
	img, err := doc.ImageDPI(0, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("%w: rendering PDF page: %w", ErrDecodeFailure, err)
	}
	return img, nil
}

// encodePNG encodes an image for a model request
func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// isHEICFormat checks if the image data is in HEIC/HEIF format
// HEIC files typically start with specific magic bytes
func isHEICFormat(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	// Check for ftyp box at offset 4 with a HEIC-related brand
	if string(data[4:8]) == "ftyp" {
		brand := string(data[8:12])
		if brand == "heic" || brand == "heif" || brand == "mif1" || brand == "msf1" {
			return true
		}
	}
	return false
}
