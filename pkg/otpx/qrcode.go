package otpx

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

// DefaultQRSize is the edge length in pixels of the enrollment QR image.
const DefaultQRSize = 256

// QRCodeDataURL renders uri as a PNG QR code and returns it as a data: URL
// that a browser can put straight into an <img> tag.
func QRCodeDataURL(uri string, size int) (string, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	code, err := qr.Encode(uri, qr.M, qr.Auto)
	if err != nil {
		return "", fmt.Errorf("otpx: failed to encode qr code: %w", err)
	}
	code, err = barcode.Scale(code, size, size)
	if err != nil {
		return "", fmt.Errorf("otpx: failed to scale qr code: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, code); err != nil {
		return "", fmt.Errorf("otpx: failed to encode png: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
