package helpers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/onsi/gomega"

	"github.com/stackb/bcr-api/internal/compress"
	"github.com/stackb/bcr-api/internal/registry"
)

// Compress encodes reg and wraps it in the given container format
func Compress(reg *registry.Registry, format compress.Format) []byte {
	raw, err := reg.MarshalBinary()
	gomega.Expect(err).NotTo(gomega.HaveOccurred())

	var buf bytes.Buffer
	switch format {
	case compress.FormatZstd:
		zw, err := zstd.NewWriter(&buf)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		_, err = zw.Write(raw)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(zw.Close()).To(gomega.Succeed())
	default:
		zw := gzip.NewWriter(&buf)
		_, err = zw.Write(raw)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(zw.Close()).To(gomega.Succeed())
	}
	return buf.Bytes()
}

// WriteSnapshotFile writes a compressed registry snapshot into dir and returns its path
func WriteSnapshotFile(dir string, reg *registry.Registry, format compress.Format) string {
	path := filepath.Join(dir, "registry.pb."+string(format))
	gomega.Expect(os.WriteFile(path, Compress(reg, format), 0600)).To(gomega.Succeed())
	return path
}

// UpstreamServer serves a compressed registry snapshot and counts downloads
type UpstreamServer struct {
	server *httptest.Server
	hits   atomic.Int32

	mu      sync.Mutex
	body    []byte
	status  int
	release chan struct{}
}

// NewUpstreamServer starts a server that answers every request with the compressed snapshot
func NewUpstreamServer(reg *registry.Registry, format compress.Format) *UpstreamServer {
	u := &UpstreamServer{
		body:   Compress(reg, format),
		status: http.StatusOK,
	}
	u.server = httptest.NewServer(http.HandlerFunc(u.serve))
	return u
}

func (u *UpstreamServer) serve(w http.ResponseWriter, _ *http.Request) {
	u.hits.Add(1)

	u.mu.Lock()
	body, status, release := u.body, u.status, u.release
	u.mu.Unlock()

	if release != nil {
		<-release
	}

	if status != http.StatusOK {
		http.Error(w, http.StatusText(status), status)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(body)
}

// SetStatus makes subsequent downloads fail with status, or succeed again with http.StatusOK
func (u *UpstreamServer) SetStatus(status int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.status = status
}

// Hold delays responses until the returned function is called
func (u *UpstreamServer) Hold() func() {
	ch := make(chan struct{})
	u.mu.Lock()
	u.release = ch
	u.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			u.mu.Lock()
			u.release = nil
			u.mu.Unlock()
			close(ch)
		})
	}
}

// URL returns the snapshot URL
func (u *UpstreamServer) URL() string {
	return u.server.URL + "/registry.pb.gz"
}

// Hits returns how many times the snapshot was requested
func (u *UpstreamServer) Hits() int {
	return int(u.hits.Load())
}

// Close shuts the server down
func (u *UpstreamServer) Close() {
	u.server.Close()
}
