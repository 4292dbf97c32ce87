package encoder

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeqown/go-qrcode"
)

func samplePayload() Payload {
	return Payload{
		BookingID:    "6b1f3c1e-3c52-4a4e-9a57-1f0f0cf4d0a2",
		Token:        "Ab3dE6gH9jKm",
		MonumentName: "Taj Mahal",
		VisitDate:    "2025-03-10",
		TotalAmount:  50,
		Guests:       1,
	}
}

func TestEncodeProducesPNGDataURL(t *testing.T) {
	enc := NewQREncoder(8)

	out, err := enc.Encode(samplePayload())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, dataURLPrefix))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(out, dataURLPrefix))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), 0)
}

func TestEncodeIsDeterministic(t *testing.T) {
	enc := NewQREncoder(8)

	first, err := enc.Encode(samplePayload())
	require.NoError(t, err)
	second, err := enc.Encode(samplePayload())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other := samplePayload()
	other.Token = "Zz9yX8wV7uTs"
	third, err := enc.Encode(other)
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
}

func TestEncodeHandlesLongMonumentNames(t *testing.T) {
	payload := samplePayload()
	payload.MonumentName = strings.Repeat("Chhatrapati Shivaji Maharaj Vastu Sangrahalaya ", 4)

	out, err := NewQREncoder(4).Encode(payload)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestEncodeUsesMediumCorrectionAndOneModuleMargin(t *testing.T) {
	enc := NewQREncoder(7)
	assert.Equal(t, qrcode.ErrorCorrectionMedium, enc.config.EcLevel)

	out, err := enc.Encode(samplePayload())
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(out, dataURLPrefix))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)

	// (modules + 2) * 7 pixels per side when the quiet zone is one module wide.
	assert.Zero(t, img.Bounds().Dx()%7)
	assert.Equal(t, img.Bounds().Dx(), img.Bounds().Dy())
}
