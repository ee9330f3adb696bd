package filestorage

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// ResizeImage decodes an image upload, fits it inside maxDim x maxDim and
// re-encodes it as JPEG. The returned upload is held in memory.
func ResizeImage(upload Upload, maxDim int) (Upload, error) {
	src, err := upload.Open()
	if err != nil {
		return Upload{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer src.Close()

	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return Upload{}, fmt.Errorf("unsupported or corrupt image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() > maxDim || b.Dy() > maxDim {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return Upload{}, fmt.Errorf("failed to encode image: %w", err)
	}

	data := buf.Bytes()
	name := strings.TrimSuffix(upload.Filename, filepath.Ext(upload.Filename)) + ".jpg"
	return Upload{
		Filename:    name,
		ContentType: "image/jpeg",
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}, nil
}
