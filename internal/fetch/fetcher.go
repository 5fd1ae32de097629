// Package fetch downloads files from an ordered list of update-server
// URLs with support for resuming partial downloads, free-space
// admission control, and inline progress reporting.
package fetch

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/meridian-os/updatectl/internal/space"
)

// chunkSize balances syscall overhead against progress granularity.
const chunkSize = 64 * 1024

// Identity describes the requesting host. It is sent as a header set
// with every request so update servers can steer trains and collect
// rollout statistics.
type Identity struct {
	Project  string // project name, used to derive the header namespace
	Sequence string // installed manifest sequence
	Version  string // installed version name
	Train    string // current train
	HostID   string // host identity token
	License  string // pre-validated license blob, if any
}

// Progress is passed to the progress callback whenever the integer
// completion percentage advances.
type Progress struct {
	URL     string
	Total   int64 // total size in bytes, including any resumed prefix
	Read    int64 // bytes present so far
	Percent int
	Rate    int64 // instantaneous transfer rate, bytes/sec
}

// ProgressFunc receives progress updates. It runs inline with the
// transfer and must not block.
type ProgressFunc func(Progress)

// Options controls a single Fetch call.
type Options struct {
	// Destination is the path the download is written to. Empty means
	// an anonymous temporary file in the fetcher's temp directory.
	Destination string

	// Resume appends to an existing Destination from its current size
	// instead of truncating it. A failed resumable download keeps its
	// partial file for a later attempt.
	Resume bool

	// Reason names the operation for the server-side request log.
	Reason string

	Progress ProgressFunc

	// SpaceCheck is consulted before streaming when the total size is
	// known and a Destination is set. Nil waives admission control.
	SpaceCheck space.Checker
}

// Fetcher fetches files over HTTP(S). Fallback across the source list
// is the only retry mechanism; a single source is never attempted
// twice.
type Fetcher struct {
	Client   *http.Client
	Identity Identity
	TempDir  string
}

// New returns a Fetcher whose client bounds connecting and waiting for
// response headers at 10 seconds each. The body read is deliberately
// uncapped: package downloads routinely run for minutes, and a stream
// that is still delivering bytes must never be cut off.
func New(identity Identity, tempDir string) *Fetcher {
	return &Fetcher{
		Client: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				ResponseHeaderTimeout: 10 * time.Second,
			},
		},
		Identity: identity,
		TempDir:  tempDir,
	}
}

// Fetch tries each source URL in order and streams the first success
// into the destination. The returned stream is positioned at 0 and
// contains the complete file, including any previously downloaded
// prefix when resuming.
func (f *Fetcher) Fetch(sources []string, opts Options) (*os.File, error) {
	dest, offset, err := f.openDestination(opts)
	if err != nil {
		return nil, err
	}

	var (
		resp        *http.Response
		respURL     string
		lastErr     error
		notFoundErr error
	)
	for _, url := range sources {
		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			lastErr = fmt.Errorf("bad source url %s: %w", url, err)
			continue
		}
		f.setHeaders(req, opts.Reason)
		if opts.Resume {
			req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
		}

		r, err := f.client().Do(req)
		if err != nil {
			lastErr = &ConnectionError{URL: url, Err: err}
			continue
		}

		switch {
		case r.StatusCode == http.StatusRequestedRangeNotSatisfiable:
			// The file is already complete at this offset. Return it
			// without reading anything further.
			r.Body.Close()
			if _, err := dest.Seek(0, io.SeekStart); err != nil {
				dest.Close()
				return nil, fmt.Errorf("failed to rewind destination: %w", err)
			}
			return dest, nil
		case r.StatusCode == http.StatusNotFound:
			r.Body.Close()
			notFoundErr = fmt.Errorf("%s: %w", url, ErrNotFound)
		case r.StatusCode >= 400:
			r.Body.Close()
			lastErr = &ServerError{URL: url, StatusCode: r.StatusCode}
		default:
			resp = r
			respURL = url
		}
		if resp != nil {
			break
		}
	}

	if resp == nil {
		dest.Close()
		// A 404 names the real condition more precisely than whatever
		// transport error happened to come last.
		if notFoundErr != nil {
			return nil, notFoundErr
		}
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, fmt.Errorf("no sources given")
	}
	defer resp.Body.Close()

	var total int64 = -1
	if resp.ContentLength >= 0 {
		total = offset + resp.ContentLength
	}

	if total >= 0 && opts.Destination != "" && opts.SpaceCheck != nil {
		if !opts.SpaceCheck(opts.Destination, total-offset) {
			dest.Close()
			return nil, fmt.Errorf("%d bytes at %s: %w", total-offset, opts.Destination, ErrInsufficientSpace)
		}
	}

	if err := f.stream(resp.Body, dest, respURL, offset, total, opts); err != nil {
		dest.Close()
		if !opts.Resume && opts.Destination != "" {
			// No dangling partial artifact unless it can be resumed.
			os.Remove(opts.Destination)
		}
		return nil, err
	}

	if _, err := dest.Seek(0, io.SeekStart); err != nil {
		dest.Close()
		return nil, fmt.Errorf("failed to rewind destination: %w", err)
	}
	return dest, nil
}

func (f *Fetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

// openDestination prepares the byte sink and reports the resume offset.
func (f *Fetcher) openDestination(opts Options) (*os.File, int64, error) {
	if opts.Destination == "" {
		tmp, err := os.CreateTemp(f.TempDir, "updatectl-fetch-")
		if err != nil {
			return nil, 0, fmt.Errorf("failed to create temporary file: %w", err)
		}
		// Unlink immediately; the handle keeps the anonymous file alive.
		os.Remove(tmp.Name())
		return tmp, 0, nil
	}

	if opts.Resume {
		file, err := os.OpenFile(opts.Destination, os.O_RDWR|os.O_CREATE, 0644)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to open %s: %w", opts.Destination, err)
		}
		offset, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			file.Close()
			return nil, 0, fmt.Errorf("failed to seek %s: %w", opts.Destination, err)
		}
		return file, offset, nil
	}

	file, err := os.OpenFile(opts.Destination, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create %s: %w", opts.Destination, err)
	}
	return file, 0, nil
}

// setHeaders attaches the client identity header set. Header names are
// namespaced by project, e.g. X-Meridian-Train.
func (f *Fetcher) setHeaders(req *http.Request, reason string) {
	id := f.Identity
	project := id.Project
	if project == "" {
		project = "Meridian"
	}
	sequence := id.Sequence
	if sequence == "" {
		sequence = "unknown"
	}

	prefix := "X-" + project + "-"
	manifestVersion := prefix + "Manifest-Version"

	req.Header.Set(prefix+"Project", project)
	req.Header.Set(prefix+"Version", sequence)
	req.Header.Set("User-Agent", fmt.Sprintf("%s=%s", manifestVersion, id.Version))
	if id.Version != "" {
		req.Header.Set(prefix+"Version-Name", id.Version)
	}
	if id.Train != "" {
		req.Header.Set(prefix+"Train", id.Train)
	}
	if id.HostID != "" {
		req.Header.Set(prefix+"HostID", id.HostID)
	}
	if reason != "" {
		req.Header.Set(prefix+"Reason", reason)
	}
	if id.License != "" {
		req.Header.Set(prefix+"License", id.License)
	}
}

// stream copies the response body to the destination in fixed-size
// chunks, invoking the progress callback on whole-percent boundaries.
func (f *Fetcher) stream(body io.Reader, dest *os.File, url string, offset, total int64, opts Options) error {
	var (
		buf         = make([]byte, chunkSize)
		read        = offset
		lastPercent = 0
		lastTime    = time.Now()
	)

	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			now := time.Now()
			rate := int64(chunkSize)
			if elapsed := now.Sub(lastTime).Seconds(); elapsed > 0 {
				rate = int64(float64(n) / elapsed)
			}
			lastTime = now

			if _, werr := dest.Write(buf[:n]); werr != nil {
				return fmt.Errorf("failed to write %s: %w", url, werr)
			}
			read += int64(n)

			if opts.Progress != nil && total > 0 {
				percent := int(float64(read) / float64(total) * 100)
				if percent != lastPercent {
					opts.Progress(Progress{
						URL:     url,
						Total:   total,
						Read:    read,
						Percent: percent,
						Rate:    rate,
					})
				}
				lastPercent = percent
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return fmt.Errorf("failed to read %s: %w", url, rerr)
		}
	}
}
