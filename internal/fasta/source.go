package fasta

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
)

// ErrNoRandomAccess is returned by OpenAt when a source can only be streamed
// (compressed inputs).
var ErrNoRandomAccess = errors.New("source does not support random access")

// Source is an input that can be read from the start any number of times.
// Every pass calls Open and closes what it got back.
type Source interface {
	Name() string
	// Size is the number of bytes a full pass reads, or -1 when unknown.
	Size() int64
	Open() (io.ReadCloser, error)
}

// ReaderAtCloser is random access over the raw (uncompressed) bytes.
type ReaderAtCloser interface {
	io.ReaderAt
	io.Closer
}

// RandomAccess sources can be split into byte ranges for parallel passes.
type RandomAccess interface {
	Source
	OpenAt() (ReaderAtCloser, int64, error)
}

// FileSource reads a file from disk, decompressing it when needed.
type FileSource struct {
	path  string
	size  int64
	codec Codec
}

// NewFileSource stats and sniffs path.
func NewFileSource(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	var head [4]byte
	n, _ := io.ReadFull(f, head[:])
	return &FileSource{path: path, size: info.Size(), codec: DetectCodec(head[:n])}, nil
}

func (s *FileSource) Name() string { return s.path }

// Codec reports the compression detected at construction.
func (s *FileSource) Codec() Codec { return s.codec }

func (s *FileSource) Size() int64 {
	if s.codec != Plain {
		return -1
	}
	return s.size
}

func (s *FileSource) Open() (io.ReadCloser, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	rc, _, err := decode(f, f.Close)
	return rc, err
}

func (s *FileSource) OpenAt() (ReaderAtCloser, int64, error) {
	if s.codec != Plain {
		return nil, 0, ErrNoRandomAccess
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, 0, err
	}
	return f, s.size, nil
}

// MmapSource maps a file into memory for each pass instead of copying it
// through read buffers.
type MmapSource struct {
	*FileSource
}

// NewMmapSource is NewFileSource with memory-mapped passes.
func NewMmapSource(path string) (*MmapSource, error) {
	fs, err := NewFileSource(path)
	if err != nil {
		return nil, err
	}
	return &MmapSource{FileSource: fs}, nil
}

type mapping struct {
	*bytes.Reader
	release func() error
}

func (m mapping) Close() error { return m.release() }

func (s *MmapSource) mapFile() (mapping, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return mapping{}, err
	}
	if s.size == 0 {
		_ = f.Close()
		return mapping{Reader: bytes.NewReader(nil), release: func() error { return nil }}, nil
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		_ = f.Close()
		return mapping{}, fmt.Errorf("mmap %s: %w", s.path, err)
	}
	return mapping{
		Reader: bytes.NewReader(m),
		release: func() error {
			uerr := m.Unmap()
			if cerr := f.Close(); uerr == nil {
				uerr = cerr
			}
			return uerr
		},
	}, nil
}

func (s *MmapSource) Open() (io.ReadCloser, error) {
	m, err := s.mapFile()
	if err != nil {
		return nil, err
	}
	rc, _, err := decode(m, m.Close)
	return rc, err
}

func (s *MmapSource) OpenAt() (ReaderAtCloser, int64, error) {
	if s.codec != Plain {
		return nil, 0, ErrNoRandomAccess
	}
	m, err := s.mapFile()
	if err != nil {
		return nil, 0, err
	}
	return m, m.Size(), nil
}

// BytesSource serves an in-memory alignment.
type BytesSource struct {
	name string
	data []byte
}

func NewBytesSource(name string, data []byte) *BytesSource {
	return &BytesSource{name: name, data: data}
}

func (s *BytesSource) Name() string { return s.name }
func (s *BytesSource) Size() int64  { return int64(len(s.data)) }

func (s *BytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

func (s *BytesSource) OpenAt() (ReaderAtCloser, int64, error) {
	return mapping{Reader: bytes.NewReader(s.data), release: func() error { return nil }}, int64(len(s.data)), nil
}

// Spool copies a one-shot stream (stdin) into a temporary file so it can be
// read once per pass. The returned cleanup removes the file.
func Spool(r io.Reader, dir string) (*FileSource, func(), error) {
	f, err := os.CreateTemp(dir, "bactcore-*.fa")
	if err != nil {
		return nil, func() {}, err
	}
	cleanup := func() {
		_ = os.Remove(f.Name())
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		cleanup()
		return nil, func() {}, fmt.Errorf("spool input: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("spool input: %w", err)
	}
	src, err := NewFileSource(f.Name())
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return src, cleanup, nil
}
