// Package decoder extracts QR payloads from still camera frames.
package decoder

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // frame formats served by snapshot cameras
	_ "image/png"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/ttatard/attendance-frontend/internal/camera"
)

// ErrBadFrame is returned for frames that are not a decodable image.
var ErrBadFrame = errors.New("unsupported frame")

// Decoder turns one frame into an optional payload.
// "No code in frame" is reported as found=false, not as an error.
type Decoder interface {
	Decode(f camera.Frame) (payload string, found bool, err error)
}

// QR decodes QR codes with gozxing. It keeps no state between calls.
type QR struct {
	TryHarder bool
}

// NewQR returns a QR decoder tuned for handheld scanning.
func NewQR() QR {
	return QR{TryHarder: true}
}

// Decode implements Decoder.
func (q QR) Decode(f camera.Frame) (string, bool, error) {
	if len(f.Data) == 0 {
		return "", false, fmt.Errorf("%w: empty frame", ErrBadFrame)
	}
	img, _, err := image.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	return q.DecodeImage(img)
}

// DecodeImage decodes an already rasterised frame.
func (q QR) DecodeImage(img image.Image) (string, bool, error) {
	if img == nil || img.Bounds().Empty() {
		return "", false, fmt.Errorf("%w: empty image", ErrBadFrame)
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	var hints map[gozxing.DecodeHintType]interface{}
	if q.TryHarder {
		hints = map[gozxing.DecodeHintType]interface{}{gozxing.DecodeHintType_TRY_HARDER: true}
	}
	// not found, checksum and format failures all mean no readable code in this frame
	result, err := qrcode.NewQRCodeReader().Decode(bmp, hints)
	if err != nil || result == nil {
		return "", false, nil
	}
	text := result.GetText()
	if text == "" {
		return "", false, nil
	}
	return text, true, nil
}
