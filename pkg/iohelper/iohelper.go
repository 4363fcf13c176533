// Package iohelper reads untrusted input with a size cap: files handed to
// the importer and HTTP bodies returned to the webhook hook.
package iohelper

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// DrainLimit bounds how much of a response body DrainAndClose discards.
const DrainLimit int64 = 64 * 1024

// ErrTooLarge is returned when input exceeds the caller's limit.
var ErrTooLarge = errors.New("iohelper: input exceeds size limit")

// ReadLimited reads all of r up to maxSize bytes. Input longer than
// maxSize returns ErrTooLarge rather than silently truncating.
// A nil reader yields an empty slice.
func ReadLimited(r io.Reader, maxSize int64) ([]byte, error) {
	if r == nil {
		return []byte{}, nil
	}
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, maxSize)
	}
	return data, nil
}

// ReadFile reads path, refusing regular files larger than maxSize before
// opening them and anything else once maxSize bytes have been read.
//
// Usage:
//
//	data, err := iohelper.ReadFile(path, defaults.MaxImportSize)
func ReadFile(path string, maxSize int64) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Mode().IsRegular() && info.Size() > maxSize {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, path, info.Size())
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadLimited(f, maxSize)
}

// DrainAndClose discards up to DrainLimit bytes of r and closes it if it is
// an io.ReadCloser, so HTTP keep-alive connections can be reused.
// Always returns nil to allow use in defer.
func DrainAndClose(r io.Reader) error {
	if r == nil {
		return nil
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(r, DrainLimit))
	if rc, ok := r.(io.ReadCloser); ok {
		rc.Close()
	}
	return nil
}
