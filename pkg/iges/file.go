package iges

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// ReadFile reads and associates an IGES file. Names ending in .gz or .zst
// are decompressed on the fly.
func (m *Model) ReadFile(path string) error {
	rc, err := openFile(path)
	if err != nil {
		return err
	}
	defer rc.Close()
	if err := m.Read(rc); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := m.Associate(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// WriteFile writes the model, compressing when the name ends in .gz or
// .zst. The global file name parameter is set from path.
func (m *Model) WriteFile(path string) (err error) {
	if m.Global.FileName == "" {
		m.Global.FileName = strings.TrimSuffix(strings.TrimSuffix(filepath.Base(path), ".gz"), ".zst")
	}
	wc, err := createFile(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := wc.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("iges: close %s: %w", path, cerr)
		}
	}()
	return m.Write(wc)
}

type stack struct {
	io.Reader
	io.Writer
	closers []func() error
}

func (s *stack) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func openFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("iges: gzip: %w", err)
		}
		return &stack{Reader: zr, closers: []func() error{zr.Close, f.Close}}, nil
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("iges: zstd: %w", err)
		}
		return &stack{Reader: zr, closers: []func() error{func() error { zr.Close(); return nil }, f.Close}}, nil
	}
	return f, nil
}

func createFile(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zw := gzip.NewWriter(f)
		return &stack{Writer: zw, closers: []func() error{zw.Close, f.Close}}, nil
	case ".zst":
		zw, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("iges: zstd: %w", err)
		}
		return &stack{Writer: zw, closers: []func() error{zw.Close, f.Close}}, nil
	}
	return f, nil
}
