// Package qrview turns the QR image the server returns (a PNG data URL) into
// something a terminal can show.
package qrview

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"net/url"
	"os"
	"strings"

	"github.com/dmitrijs2005/qrattend/internal/client/scan"
	"github.com/dmitrijs2005/qrattend/internal/filex"
	"github.com/skip2/go-qrcode"
)

var ErrNotDataURL = errors.New("not an image data URL")

// DataURL is a decoded data: URL.
type DataURL struct {
	MediaType string
	Data      []byte
}

// ParseDataURL decodes "data:<mediatype>[;base64],<data>".
func ParseDataURL(s string) (*DataURL, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(s), "data:")
	if !ok {
		return nil, ErrNotDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, ErrNotDataURL
	}

	mediaType, params, _ := strings.Cut(meta, ";")
	if mediaType == "" {
		mediaType = "text/plain"
	}

	var data []byte
	if params == "base64" || strings.HasSuffix(params, ";base64") {
		b, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNotDataURL, err)
		}
		data = b
	} else {
		p, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNotDataURL, err)
		}
		data = []byte(p)
	}
	return &DataURL{MediaType: mediaType, Data: data}, nil
}

// Content reads the QR code back out of the data URL image.
func Content(dataURL string) (string, error) {
	d, err := ParseDataURL(dataURL)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(d.MediaType, "image/") {
		return "", fmt.Errorf("%w: media type %s", ErrNotDataURL, d.MediaType)
	}
	img, _, err := image.Decode(bytes.NewReader(d.Data))
	if err != nil {
		return "", fmt.Errorf("decode qr image: %w", err)
	}
	return scan.NewQRDecoder().Decode(img)
}

// Terminal renders content as a QR code made of half-block characters.
func Terminal(content string) (string, error) {
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return "", err
	}
	return q.ToSmallString(false), nil
}

// Render decodes the server image and re-draws it for the terminal.
func Render(dataURL string) (content, art string, err error) {
	content, err = Content(dataURL)
	if err != nil {
		return "", "", err
	}
	art, err = Terminal(content)
	return content, art, err
}

// SavePNG writes the image bytes of dataURL to path and returns the absolute
// path written.
func SavePNG(dataURL, path string) (string, error) {
	d, err := ParseDataURL(dataURL)
	if err != nil {
		return "", err
	}
	abs, err := filex.EnsureParentDir(path)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(abs, d.Data, 0o644); err != nil {
		return "", err
	}
	return abs, nil
}
