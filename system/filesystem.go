// Package system provides the file system and HTTP abstractions used by the
// reference resolver's pluggable document loaders.
package system

import (
	"io/fs"
	"net/http"
	"os"
)

// VirtualFS is the file system documents are loaded through. Implementations
// may serve from disk, memory, or anywhere else that can satisfy fs.FS.
type VirtualFS interface {
	fs.FS
}

// FileSystem is the default VirtualFS reading from the OS file system.
type FileSystem struct{}

var _ VirtualFS = (*FileSystem)(nil)

func (fs *FileSystem) Open(name string) (fs.File, error) {
	return os.Open(name)
}

// Client is the HTTP client used for url based document loads. *http.Client
// satisfies it.
type Client interface {
	Do(req *http.Request) (*http.Response, error)
}

var _ Client = (*http.Client)(nil)
