package paths

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

var (
	cache     map[string][]byte
	cacheLock sync.Mutex
)

// openHTTP fetches url into memory. Fetched files are cached for the lifetime
// of the process.
func openHTTP(url string) (interface {
	io.ReadCloser
	io.Seeker
}, error) {
	cacheLock.Lock()
	defer cacheLock.Unlock()

	if cache == nil {
		cache = make(map[string][]byte)
	}
	if buf, ok := cache[url]; ok {
		glog.V(2).Infof("paths: %s served from cache", url)
		return &bytesReaderWithDummyClose{bytes.NewReader(buf)}, nil
	}

	glog.V(2).Infof("paths: fetching %s", url)
	response, err := http.Get(url)
	if err != nil {
		return nil, errors.Wrapf(err, "paths: fetching %q", url)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		e := os.ErrInvalid
		if response.StatusCode == http.StatusNotFound {
			e = os.ErrNotExist
		}
		return nil, errors.Wrapf(e, "paths: fetching %q: http status %v, want 200", url, response.StatusCode)
	}

	buf := &bytes.Buffer{}
	if _, err := io.Copy(buf, response.Body); err != nil {
		return nil, errors.Wrap(err, "paths: copying response to seekable buffer")
	}
	cache[url] = buf.Bytes()
	return &bytesReaderWithDummyClose{bytes.NewReader(buf.Bytes())}, nil
}

type bytesReaderWithDummyClose struct {
	*bytes.Reader
}

func (bytesReaderWithDummyClose) Close() error {
	return nil
}
