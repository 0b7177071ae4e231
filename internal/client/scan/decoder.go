package scan

import (
	"image"

	"github.com/makiuchi-d/gozxing"
	zxqrcode "github.com/makiuchi-d/gozxing/qrcode"
)

// Decoder extracts a QR payload from a frame. Any failure is ErrNoResult.
type Decoder interface {
	Decode(img image.Image) (string, error)
}

type decodePass struct {
	binarizer func(gozxing.LuminanceSource) gozxing.Binarizer
	hints     map[gozxing.DecodeHintType]interface{}
}

// Camera frames go through the hybrid binarizer first. Rendered codes with a
// clean quiet zone sometimes only decode as a pure barcode, and low-contrast
// frames do better with the global histogram.
var decodePasses = []decodePass{
	{
		binarizer: gozxing.NewHybridBinarizer,
		hints:     map[gozxing.DecodeHintType]interface{}{gozxing.DecodeHintType_TRY_HARDER: true},
	},
	{
		binarizer: gozxing.NewHybridBinarizer,
		hints:     map[gozxing.DecodeHintType]interface{}{gozxing.DecodeHintType_PURE_BARCODE: true},
	},
	{
		binarizer: gozxing.NewGlobalHistgramBinarizer,
		hints:     map[gozxing.DecodeHintType]interface{}{gozxing.DecodeHintType_TRY_HARDER: true},
	},
}

// QRDecoder decodes QR codes with gozxing. It is not safe for concurrent use.
type QRDecoder struct {
	reader gozxing.Reader
}

func NewQRDecoder() *QRDecoder {
	return &QRDecoder{reader: zxqrcode.NewQRCodeReader()}
}

func (d *QRDecoder) Decode(img image.Image) (string, error) {
	if img == nil {
		return "", ErrNoResult
	}
	src := gozxing.NewLuminanceSourceFromImage(img)
	for _, p := range decodePasses {
		bmp, err := gozxing.NewBinaryBitmap(p.binarizer(src))
		if err != nil {
			continue
		}
		res, err := d.reader.Decode(bmp, p.hints)
		d.reader.Reset()
		if err == nil && res.GetText() != "" {
			return res.GetText(), nil
		}
	}
	return "", ErrNoResult
}
