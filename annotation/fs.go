package annotation

import (
	"fmt"
	"path/filepath"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/osfs"
)

// HostFile opens the directory holding path as a billy filesystem and
// returns the name of path inside it.
func HostFile(path string) (billy.Filesystem, string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("while resolving '%s': %w", path, err)
	}
	return osfs.New(filepath.Dir(abs)), filepath.Base(abs), nil
}

// HostDir opens dir as a billy filesystem
func HostDir(dir string) (billy.Filesystem, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("while resolving '%s': %w", dir, err)
	}
	return osfs.New(abs), nil
}
