package model

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/alantsov/voice-input/log"
)

const (
	downloadAttempts = 3
	backoffCap       = 30 * time.Second
)

var errCanceled = errors.New("download canceled")

// downloadFile fetches one artifact to <path>.tmp and renames it into place.
// progress receives whole percentages of this file, each value at most once.
func downloadFile(d Descriptor, cancel <-chan struct{}, progress func(pct int)) error {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go func() {
		select {
		case <-cancel:
			stop()
		case <-ctx.Done():
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.URL, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return errCanceled
		}
		return fmt.Errorf("fetching %s: %w", d.File, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching %s: status %s", d.File, resp.Status)
	}

	total := resp.ContentLength
	if total <= 0 {
		total = d.Size
	}

	if err := os.MkdirAll(filepath.Dir(d.Path), 0o755); err != nil {
		return err
	}
	tmp := d.Path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	var written int64
	lastPct := -1
	buf := make([]byte, 128<<10)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				f.Close()
				os.Remove(tmp)
				return werr
			}
			written += int64(n)
			if total > 0 {
				pct := int(written * 100 / total)
				if pct > 100 {
					pct = 100
				}
				if pct != lastPct {
					lastPct = pct
					progress(pct)
				}
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			f.Close()
			os.Remove(tmp)
			if ctx.Err() != nil {
				return errCanceled
			}
			return fmt.Errorf("reading %s: %w", d.File, rerr)
		}
	}

	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, d.Path)
}

// downloadWithRetry runs downloadFile with exponential backoff. Cancellation
// aborts immediately, including mid-backoff.
func downloadWithRetry(d Descriptor, cancel <-chan struct{}, progress func(pct int)) error {
	var err error
	for attempt := 0; attempt < downloadAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			if backoff > backoffCap {
				backoff = backoffCap
			}
			log.Warnf("retrying %s in %s: %v", d.File, backoff, err)
			select {
			case <-cancel:
				return errCanceled
			case <-time.After(backoff):
			}
		}
		err = downloadFile(d, cancel, progress)
		if err == nil || errors.Is(err, errCanceled) {
			return err
		}
	}
	return fmt.Errorf("downloading %s: %w", d.File, err)
}
