package annotation

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path"

	"github.com/go-git/go-billy/v6"
	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

func DecodeImage(fs billy.Filesystem, filepath string) (image.Image, error) {
	f, err := fs.Open(filepath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// IngestedImage describes a bitmap stored by IngestImage
type IngestedImage struct {
	SHA256   string
	Filename string
	Width    int
	Height   int
}

// IngestImage stores img as a PNG named after its hash inside outputDir.
// Ingesting the same pixels twice keeps the first file.
func IngestImage(fs billy.Filesystem, img image.Image, outputDir string) (*IngestedImage, error) {
	if err := fs.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("while creating output folder '%s': %w", outputDir, err)
	}
	var buf bytes.Buffer
	hasher := sha256.New()
	if err := png.Encode(io.MultiWriter(&buf, hasher), img); err != nil {
		return nil, fmt.Errorf("while encoding image: %w", err)
	}
	hash := fmt.Sprintf("%x", hasher.Sum(nil))
	b := img.Bounds()
	ret := &IngestedImage{SHA256: hash, Filename: hash + ".png", Width: b.Dx(), Height: b.Dy()}

	final := path.Join(outputDir, ret.Filename)
	if _, err := fs.Stat(final); err == nil {
		return ret, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	tempFile := path.Join(outputDir, fmt.Sprintf("%s.png", uuid.New()))
	f, err := fs.Create(tempFile)
	if err != nil {
		return nil, err
	}
	if _, err = f.Write(buf.Bytes()); err != nil {
		f.Close()
		fs.Remove(tempFile)
		return nil, err
	}
	if err = f.Close(); err != nil {
		fs.Remove(tempFile)
		return nil, err
	}
	if err = fs.Rename(tempFile, final); err != nil {
		fs.Remove(tempFile)
		return nil, err
	}
	return ret, nil
}
