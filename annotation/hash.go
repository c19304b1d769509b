package annotation

import (
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/go-git/go-billy/v6"
)

func HashFile(fs billy.Filesystem, filepath string) (string, error) {
	f, err := fs.Open(filepath)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return HashReader(f)
}

func HashReader(r io.Reader) (string, error) {
	hasher := sha256.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}
