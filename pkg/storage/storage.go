// Package storage is the blob store that a dataset is read from
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrNotFound is returned when a file does not exist in the store
var ErrNotFound = errors.New("File not found")

// ErrInvalidName is returned for names that try to escape the root of the store
var ErrInvalidName = errors.New("Invalid file name")

// ErrTooLarge is returned by ReadFile for files above MaxReadSize
var ErrTooLarge = errors.New("File too large")

// MaxReadSize is the largest file that ReadFile will load into memory.
// The largest files of a dataset are its images, which are well below this.
const MaxReadSize = 64 * 1024 * 1024

// Storage is an abstraction of a blob store that holds a dataset (eg a local directory, or GCS).
// Names always use forward slashes, and are relative to the root of the store.
type Storage interface {
	// When finished, you must close the WriteCloser
	WriteFile(name string) (io.WriteCloser, error)

	// When finished, you must close File.Reader
	ReadFile(name string) (*File, error)
}

// File is an element in blob storage.
type File struct {
	Reader     io.ReadCloser
	ModifiedAt time.Time
	Size       int64
}

// WriteFile copies content into a new file
func WriteFile(s Storage, name string, content io.Reader) error {
	f, err := s.WriteFile(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(f, content)
	errClose := f.Close()
	if err != nil {
		return err
	}
	return errClose
}

// ReadFile reads an entire file into memory
func ReadFile(s Storage, name string) ([]byte, error) {
	f, err := s.ReadFile(name)
	if err != nil {
		return nil, err
	}
	defer f.Reader.Close()
	if f.Size > MaxReadSize {
		return nil, fmt.Errorf("%w: %v is %v bytes", ErrTooLarge, name, f.Size)
	}
	buf := bytes.NewBuffer(make([]byte, 0, max(f.Size, 0)))
	// Size can be stale, so the limit is also enforced on the bytes actually read
	if _, err := buf.ReadFrom(io.LimitReader(f.Reader, MaxReadSize+1)); err != nil {
		return nil, err
	}
	if buf.Len() > MaxReadSize {
		return nil, fmt.Errorf("%w: %v", ErrTooLarge, name)
	}
	return buf.Bytes(), nil
}
