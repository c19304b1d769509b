package annotation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/go-git/go-billy/v6"
)

var (
	ErrNotFound = errors.New("image not found")
	ErrNetwork  = errors.New("network error")
	ErrDecode   = errors.New("image could not be decoded")
)

// LoadedImage is a decoded bitmap together with its identity
type LoadedImage struct {
	URL    string
	Width  int
	Height int
	Bitmap image.Image
	SHA256 string
}

// LoadResult is delivered once per Request
type LoadResult struct {
	Image *LoadedImage
	Err   error
}

// Loader fetches images over http(s) or from a billy filesystem. Anything
// that is not an http(s) URL is taken as a path in Files, with an optional
// file:// prefix.
type Loader struct {
	Client *http.Client
	Files  billy.Filesystem
	Cache  *ImageCache
}

func NewLoader(files billy.Filesystem) *Loader {
	return &Loader{
		Client: &http.Client{Transport: HTTPLogger(nil)},
		Files:  files,
	}
}

// Request loads url in the background. The channel receives exactly one
// result and is then closed.
func (l *Loader) Request(ctx context.Context, url string) <-chan LoadResult {
	ch := make(chan LoadResult, 1)
	go func() {
		defer close(ch)
		img, err := l.Load(ctx, url)
		ch <- LoadResult{Image: img, Err: err}
	}()
	return ch
}

func (l *Loader) cache(ctx context.Context) *ImageCache {
	if l.Cache != nil {
		return l.Cache
	}
	return GetImageCache(ctx)
}

// Load fetches and decodes url. Errors wrap ErrNotFound, ErrNetwork or
// ErrDecode.
func (l *Loader) Load(ctx context.Context, url string) (*LoadedImage, error) {
	cache := l.cache(ctx)
	if cache != nil {
		if img, ok := cache.Get(url); ok {
			return img, nil
		}
	}

	log.Printf("loader: fetching %s", url)
	var data []byte
	var err error
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		data, err = l.fetch(ctx, url)
	} else {
		data, err = l.readFile(url)
	}
	if err != nil {
		return nil, err
	}

	hash, err := HashReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("while hashing '%s': %w", url, err)
	}
	bitmap, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("while decoding '%s': %w: %w", url, ErrDecode, err)
	}
	b := bitmap.Bounds()
	ret := &LoadedImage{URL: url, Width: b.Dx(), Height: b.Dy(), Bitmap: bitmap, SHA256: hash}
	if cache != nil {
		cache.Set(url, ret)
	}
	return ret, nil
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("while building request for '%s': %w: %w", url, ErrNetwork, err)
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("while fetching '%s': %w: %w", url, ErrNetwork, err)
	}
	defer res.Body.Close()
	switch {
	case res.StatusCode == http.StatusNotFound || res.StatusCode == http.StatusGone:
		return nil, fmt.Errorf("while fetching '%s': %w (status %d)", url, ErrNotFound, res.StatusCode)
	case res.StatusCode < 200 || res.StatusCode > 299:
		return nil, fmt.Errorf("while fetching '%s': %w (status %d)", url, ErrNetwork, res.StatusCode)
	}
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("while reading '%s': %w: %w", url, ErrNetwork, err)
	}
	return data, nil
}

func (l *Loader) readFile(url string) ([]byte, error) {
	name := strings.TrimPrefix(url, "file://")
	if l.Files == nil {
		return nil, fmt.Errorf("while opening '%s': %w: no filesystem configured", name, ErrNotFound)
	}
	f, err := l.Files.Open(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("while opening '%s': %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("while opening '%s': %w", name, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("while reading '%s': %w", name, err)
	}
	return data, nil
}

// ApplyTo hands the result to an image consumer such as the editor
func (r LoadResult) ApplyTo(dst interface {
	SetImage(image.Image)
	ImageFailed(error)
}) {
	if r.Err != nil {
		dst.ImageFailed(r.Err)
		return
	}
	dst.SetImage(r.Image.Bitmap)
}
