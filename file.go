package bcc

import (
	"fmt"
	"os"
)

// fileSource wraps *os.File to implement ByteSource. os.File has
// ReadAt but not Size, so the size is captured at construction; it
// also exposes the descriptor for loaders that map the file.
type fileSource struct {
	file *os.File
	size int64
}

func newFileSource(f *os.File) (*fileSource, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("bcc: stat cache file: %w", err)
	}
	return &fileSource{file: f, size: info.Size()}, nil
}

// ReadAt implements io.ReaderAt.
func (fs *fileSource) ReadAt(p []byte, off int64) (int, error) {
	return fs.file.ReadAt(p, off)
}

// Size returns the total size of the file.
func (fs *fileSource) Size() int64 {
	return fs.size
}

// Fd exposes the descriptor for mapping loaders.
func (fs *fileSource) Fd() uintptr {
	return fs.file.Fd()
}

var _ ByteSource = (*fileSource)(nil)

// OpenCacheFile opens and validates the cache artifact at path.
//
// The file is closed before returning; a context mapped by
// [ExecLoader] is private and survives the close.
func OpenCacheFile(path string, expected []Dependency, opts ...Option) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("bcc: open cache file: %w", err)
	}
	defer f.Close()

	src, err := newFileSource(f)
	if err != nil {
		return nil, err
	}
	return OpenCache(src, expected, opts...)
}

// InspectCacheFile decodes the cache artifact at path for diagnostics.
func InspectCacheFile(path string, opts ...Option) (*InspectResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("bcc: open cache file: %w", err)
	}
	defer f.Close()

	src, err := newFileSource(f)
	if err != nil {
		return nil, err
	}
	return InspectCache(src, opts...)
}
