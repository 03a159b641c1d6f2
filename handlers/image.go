package handlers

import (
	"bytes"
	"net/http"

	"github.com/disintegration/imaging"
)

const maxImageSide = 512

// prepareImage fits a photo into maxImageSide square, honouring EXIF
// orientation. Anything that does not decode as an image is passed through
// untouched.
func prepareImage(data []byte) ([]byte, string) {
	contentType := http.DetectContentType(data)
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return data, contentType
	}

	format, outType := imaging.JPEG, "image/jpeg"
	if contentType == "image/png" {
		format, outType = imaging.PNG, "image/png"
	}

	fitted := imaging.Fit(img, maxImageSide, maxImageSide, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, fitted, format, imaging.JPEGQuality(85)); err != nil {
		return data, contentType
	}
	return buf.Bytes(), outType
}
