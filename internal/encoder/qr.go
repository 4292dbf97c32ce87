package encoder

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/yeqown/go-qrcode"
)

const dataURLPrefix = "data:image/png;base64,"

// Payload is the convenience copy of credential fields echoed into the QR
// image. Scanners must still verify the token against the store.
type Payload struct {
	BookingID    string  `json:"bookingId"`
	Token        string  `json:"token"`
	MonumentName string  `json:"monumentName"`
	VisitDate    string  `json:"visitDate"`
	TotalAmount  float64 `json:"totalAmount"`
	Guests       int     `json:"guests"`
}

// QREncoder renders payloads as PNG QR codes wrapped in a data URL. Codes use
// error correction level M and a one-module quiet zone.
type QREncoder struct {
	width  uint8
	config *qrcode.Config
}

// NewQREncoder constructs an encoder. width is the module size in pixels.
func NewQREncoder(width int) *QREncoder {
	if width <= 0 || width > 255 {
		width = 20
	}
	return &QREncoder{
		width:  uint8(width),
		config: &qrcode.Config{EncMode: qrcode.EncModeAuto, EcLevel: qrcode.ErrorCorrectionMedium},
	}
}

// Encode serializes payload and renders it. Output is a pure function of the
// payload.
func (e *QREncoder) Encode(payload Payload) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal qr payload: %w", err)
	}

	qrc, err := qrcode.NewWithConfig(string(data), e.config,
		qrcode.WithBuiltinImageEncoder(qrcode.PNG_FORMAT),
		qrcode.WithQRWidth(e.width),
		qrcode.WithBorderWidth(int(e.width)),
	)
	if err != nil {
		return "", fmt.Errorf("build qr code: %w", err)
	}

	var buf bytes.Buffer
	if err := qrc.SaveTo(&buf); err != nil {
		return "", fmt.Errorf("render qr code: %w", err)
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
