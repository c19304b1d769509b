package annotation

import (
	"log"
	"net/http"
	"time"
)

// HTTPLogger wraps a transport so every image fetch is logged with its
// duration and status.
func HTTPLogger(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		initialTime := time.Now()
		res, err := next.RoundTrip(r)
		elapsed := time.Since(initialTime) / time.Millisecond
		if err != nil {
			log.Printf("http: time:%dms error %s %s: %v", elapsed, r.Method, r.URL.String(), err)
			return nil, err
		}
		log.Printf("http: time:%dms %d %s %s", elapsed, res.StatusCode, r.Method, r.URL.String())
		return res, nil
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
