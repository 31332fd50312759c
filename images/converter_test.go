package images

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func encodeTestPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeResult(t *testing.T, b64 string) image.Image {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(b64)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return img
}

func TestNormalizeFrameBytes_DownscalesLargeFrame(t *testing.T) {
	data := encodeTestPNG(t, 1280, 720)

	b64, err := NormalizeFrameBytes(data)
	require.NoError(t, err)

	out := decodeResult(t, b64)
	require.LessOrEqual(t, out.Bounds().Dx(), MaxFrameWidth)
	require.LessOrEqual(t, out.Bounds().Dy(), MaxFrameHeight)
	// aspect ratio preserved: 1280x720 scaled to fit 400x400 is 400x225
	require.Equal(t, 400, out.Bounds().Dx())
	require.Equal(t, 225, out.Bounds().Dy())
}

func TestNormalizeFrameBytes_SmallFrameKeepsSize(t *testing.T) {
	data := encodeTestPNG(t, 120, 90)

	b64, err := NormalizeFrameBytes(data)
	require.NoError(t, err)

	out := decodeResult(t, b64)
	require.Equal(t, 120, out.Bounds().Dx())
	require.Equal(t, 90, out.Bounds().Dy())
}

func TestNormalizeFrameBytes_AcceptsJPEG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	b64, err := NormalizeFrameBytes(buf.Bytes())
	require.NoError(t, err)
	require.NotEmpty(t, b64)
}

func TestNormalizeFrameBytes_RejectsGarbage(t *testing.T) {
	_, err := NormalizeFrameBytes([]byte("definitely not an image"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to decode frame")

	_, err = NormalizeFrameBytes(nil)
	require.Error(t, err)
}

func TestNormalizeCapturedFrame_DataURL(t *testing.T) {
	data := encodeTestPNG(t, 32, 32)
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)

	b64, err := NormalizeCapturedFrame(dataURL)
	require.NoError(t, err)
	require.NotEmpty(t, b64)
}

func TestNormalizeCapturedFrame_RawBase64(t *testing.T) {
	data := encodeTestPNG(t, 32, 32)

	b64, err := NormalizeCapturedFrame(base64.StdEncoding.EncodeToString(data))
	require.NoError(t, err)
	require.NotEmpty(t, b64)
}

func TestNormalizeCapturedFrame_Malformed(t *testing.T) {
	_, err := NormalizeCapturedFrame("data:image/png;base64")
	require.Error(t, err)

	_, err = NormalizeCapturedFrame("%%%not-base64%%%")
	require.Error(t, err)

	_, err = NormalizeCapturedFrame("   ")
	require.Error(t, err)
}
