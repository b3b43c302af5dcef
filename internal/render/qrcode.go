package render

import (
	"encoding/base64"
	"fmt"
	"html/template"

	qrcode "github.com/skip2/go-qrcode"
)

// QRDataURI encodes content as a PNG data URI, high error correction.
func QRDataURI(content string, size int) (template.URL, error) {
	if content == "" {
		return "", fmt.Errorf("empty qr content")
	}
	if size <= 0 {
		size = 200
	}
	png, err := qrcode.Encode(content, qrcode.High, size)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)), nil
}
