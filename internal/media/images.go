package media

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP decode support
)

// Variant widths. Uploads wider than a target get an aspect-preserving
// downscale for gallery, card, and thumbnail display.
const (
	LargeWidth     = 1200
	MediumWidth    = 600
	ThumbnailWidth = 150

	jpegQuality = 85
)

// SupportedImageTypes lists the content types accepted for image uploads.
var SupportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// SupportedVideoTypes lists the content types accepted for video uploads.
var SupportedVideoTypes = map[string]bool{
	"video/mp4":  true,
	"video/webm": true,
}

// detectContentType sniffs the upload's magic bytes. Client-supplied
// content types are ignored; the bytes decide.
func detectContentType(data []byte) string {
	if len(data) >= 2 && data[0] == 0xFF && data[1] == 0xD8 {
		return "image/jpeg"
	}
	if len(data) >= 8 && data[0] == 0x89 && data[1] == 'P' && data[2] == 'N' && data[3] == 'G' {
		return "image/png"
	}
	if len(data) >= 6 && data[0] == 'G' && data[1] == 'I' && data[2] == 'F' {
		return "image/gif"
	}
	if len(data) >= 12 && data[0] == 'R' && data[1] == 'I' && data[2] == 'F' && data[3] == 'F' &&
		data[8] == 'W' && data[9] == 'E' && data[10] == 'B' && data[11] == 'P' {
		return "image/webp"
	}
	if len(data) >= 12 && data[4] == 'f' && data[5] == 't' && data[6] == 'y' && data[7] == 'p' {
		return "video/mp4"
	}
	// EBML header, shared by WebM and Matroska
	if len(data) >= 4 && data[0] == 0x1A && data[1] == 0x45 && data[2] == 0xDF && data[3] == 0xA3 {
		return "video/webm"
	}
	return "application/octet-stream"
}

// extensionFor maps a content type to its storage key extension.
func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	default:
		return ".bin"
	}
}

// variantFormat returns the encode format for resized variants. WebP has
// no stdlib encoder, so its variants re-encode as JPEG.
func variantFormat(format string) string {
	switch format {
	case "jpeg", "png", "gif":
		return format
	default:
		return "jpeg"
	}
}

// formatContentType maps an encode format back to a content type.
func formatContentType(format string) string {
	switch format {
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}

// variantExt returns the key extension used by resized variants of an image
// with the given original content type. Must agree with variantFormat.
func variantExt(contentType string) string {
	if contentType == "image/webp" {
		return ".jpg"
	}
	return extensionFor(contentType)
}

// resizeImage scales img down to maxWidth preserving aspect ratio and
// encodes it in the given format.
func resizeImage(img image.Image, maxWidth int, format string) ([]byte, error) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= maxWidth {
		return nil, fmt.Errorf("image already smaller than target")
	}

	newWidth := maxWidth
	newHeight := int(float64(height) * float64(maxWidth) / float64(width))

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	switch format {
	case "png":
		if err := png.Encode(&buf, dst); err != nil {
			return nil, err
		}
	case "gif":
		if err := gif.Encode(&buf, dst, nil); err != nil {
			return nil, err
		}
	default:
		if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// sanitizeFilename strips path components and dangerous characters from an
// uploaded filename and caps its length.
func sanitizeFilename(filename string) string {
	filename = filepath.Base(filename)
	filename = strings.ReplaceAll(filename, "..", "")
	filename = strings.ReplaceAll(filename, "/", "")
	filename = strings.ReplaceAll(filename, "\\", "")
	if len(filename) > 200 {
		ext := filepath.Ext(filename)
		filename = filename[:200-len(ext)] + ext
	}
	return filename
}
