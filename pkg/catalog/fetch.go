package catalog

import(
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/valyala/fasthttp"
)

// Fetcher downloads remote files, retrying on failure.
type Fetcher struct {
	Client    *fasthttp.Client
	Retries   int
	Verbosity int
}

func NewFetcher(timeout time.Duration, retries int) *Fetcher {
	return &Fetcher{
		Client: &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		Retries: retries,
	}
}

// Get returns the body of a URL. A 404 is not retried.
func (f *Fetcher)Get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for attempt:=0; attempt<=f.Retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrFetchFailed, url, err)
		}
		if attempt > 0 && f.Verbosity > 0 {
			log.Printf("retrying %s (attempt %d): %v", url, attempt+1, lastErr)
		}

		var status int
		var body []byte
		var err error
		if deadline, ok := ctx.Deadline(); ok {
			status, body, err = f.Client.GetDeadline(nil, url, deadline)
		} else {
			status, body, err = f.Client.Get(nil, url)
		}

		switch {
		case err != nil:
			lastErr = err
		case status == fasthttp.StatusOK:
			return body, nil
		case status == fasthttp.StatusNotFound:
			return nil, fmt.Errorf("%w: %s: HTTP %d", ErrFetchFailed, url, status)
		default:
			lastErr = fmt.Errorf("HTTP %d", status)
		}
	}

	return nil, fmt.Errorf("%w: %s: %v", ErrFetchFailed, url, lastErr)
}

// Download fetches a URL into a local file, unless the file is already
// there. The file only appears once it is complete.
func (f *Fetcher)Download(ctx context.Context, url, filename string) error {
	if _, err := os.Stat(filename); err == nil {
		return nil
	}

	if f.Verbosity > 0 {
		log.Printf("downloading %s -> %s", url, filename)
	}

	body, err := f.Get(ctx, url)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("%w: mkdir for '%s': %v", ErrFetchFailed, filename, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(filename), filepath.Base(filename)+".part*")
	if err != nil {
		return fmt.Errorf("%w: create '%s': %v", ErrFetchFailed, filename, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write '%s': %v", ErrFetchFailed, filename, err)
	} else if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: write '%s': %v", ErrFetchFailed, filename, err)
	}

	if err := os.Rename(tmp.Name(), filename); err != nil {
		return fmt.Errorf("%w: rename into '%s': %v", ErrFetchFailed, filename, err)
	}
	return nil
}
