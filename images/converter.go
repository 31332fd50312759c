package images

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/jpeg"
	"image/png"
	"log/slog"
	"math"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// Captured biometric frames are bounded to this box before they go into an
// identity record.
const (
	MaxFrameWidth  = 400
	MaxFrameHeight = 400
)

// NormalizeCapturedFrame decodes a camera frame posted by the client (raw
// base64 or a data URL, PNG or JPEG) and re-encodes it as an optimized
// base64 PNG bounded to MaxFrameWidth x MaxFrameHeight.
func NormalizeCapturedFrame(encoded string) (string, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return "", fmt.Errorf("no frame data provided")
	}

	// data:image/png;base64,....
	if strings.HasPrefix(encoded, "data:") {
		idx := strings.Index(encoded, ",")
		if idx < 0 {
			return "", fmt.Errorf("malformed data URL")
		}
		encoded = encoded[idx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64 frame: %w", err)
	}
	return NormalizeFrameBytes(data)
}

// NormalizeFrameBytes re-encodes raw PNG/JPEG frame bytes as an optimized
// base64 PNG bounded to the frame box.
func NormalizeFrameBytes(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("no frame data provided")
	}

	slog.Debug("Normalizing captured frame", "data_size", len(data))

	img, err := decodeFrame(data)
	if err != nil {
		slog.Warn("Failed to decode captured frame", "error", err)
		return "", fmt.Errorf("failed to decode frame: %w", err)
	}

	bounds := img.Bounds()
	slog.Debug("Frame decoded", "width", bounds.Dx(), "height", bounds.Dy())

	base64Str, err := convertImageToPNGBase64(img, MaxFrameWidth, MaxFrameHeight, 256, png.BestCompression)
	if err != nil {
		slog.Warn("Failed to convert frame to PNG", "error", err)
		return "", fmt.Errorf("failed to convert frame to PNG: %w", err)
	}

	slog.Debug("Frame normalized", "base64_length", len(base64Str))
	return base64Str, nil
}

// decodeFrame attempts to decode a frame from bytes, trying multiple formats
func decodeFrame(data []byte) (image.Image, error) {
	// Try PNG first (canvas.toDataURL default)
	if img, err := png.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	// Try JPEG
	if img, err := jpeg.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	// Try generic image decode as fallback
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	return nil, fmt.Errorf("unsupported or invalid image format")
}

// convertImageToPNGBase64 encodes an image to base64 PNG with optional resize and quantization
//
// maxW/maxH: if >0, the image is downscaled to fit within this box (keeping aspect ratio)
// colors:    if >0, convert to a paletted image (≤256 colors is typical for PNG)
// level:     png.DefaultCompression, png.BestCompression, png.BestSpeed, etc.
func convertImageToPNGBase64(img image.Image, maxW, maxH, colors int, level png.CompressionLevel) (string, error) {
	// 1) Resize if requested
	if maxW > 0 || maxH > 0 {
		img = resizeToFit(img, maxW, maxH)
	}

	// 2) Optional quantization (palettize)
	var out = img
	if colors > 0 {
		// Choose a palette: Plan9 (256 colors) or WebSafe (~216 colors)
		pal := palette.Plan9
		if colors <= 216 {
			pal = palette.WebSafe
		}
		dst := image.NewPaletted(img.Bounds(), pal)
		// Floyd–Steinberg dithering
		draw.FloydSteinberg.Draw(dst, dst.Bounds(), img, image.Point{})
		out = dst
	}

	// 3) Encode with chosen compression
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: level}
	if err := enc.Encode(&buf, out); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// resizeToFit scales img to fit within maxW×maxH (keeping aspect ratio)
func resizeToFit(src image.Image, maxW, maxH int) image.Image {
	bw := src.Bounds().Dx()
	bh := src.Bounds().Dy()

	if maxW <= 0 && maxH <= 0 {
		return src
	}
	if maxW <= 0 {
		scale := float64(maxH) / float64(bh)
		maxW = int(math.Round(float64(bw) * scale))
	}
	if maxH <= 0 {
		scale := float64(maxW) / float64(bw)
		maxH = int(math.Round(float64(bh) * scale))
	}

	scale := math.Min(float64(maxW)/float64(bw), float64(maxH)/float64(bh))
	if scale >= 1.0 {
		return src // already small enough
	}
	w := int(math.Max(1, math.Round(float64(bw)*scale)))
	h := int(math.Max(1, math.Round(float64(bh)*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// CatmullRom = high quality, good for photos/faces
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst
}
