// Package objectstore keeps footage bytes outside the database, optionally sealed with age.
package objectstore

import (
	"context"
	"fmt"
	"io"
)

const sealedContentType = "application/age-encrypted"

// Blobs is the raw object backend.
type Blobs interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// FootageStore writes footage through an optional Sealer into Blobs.
type FootageStore struct {
	blobs  Blobs
	sealer *Sealer
}

func NewFootageStore(blobs Blobs, sealer *Sealer) *FootageStore {
	return &FootageStore{blobs: blobs, sealer: sealer}
}

func (s *FootageStore) Sealing() bool {
	return s.sealer != nil
}

// Save streams r to key and reports whether it was sealed.
func (s *FootageStore) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) (bool, error) {
	if s.sealer == nil {
		return false, s.blobs.Put(ctx, key, r, size, contentType)
	}

	pr, pw := io.Pipe()
	go func() {
		enc, err := s.sealer.Seal(pw)
		if err == nil {
			_, err = io.Copy(enc, r)
			if cerr := enc.Close(); err == nil {
				err = cerr
			}
		}
		pw.CloseWithError(err)
	}()

	err := s.blobs.Put(ctx, key, pr, -1, sealedContentType)
	// Unblocks the sealing goroutine if Put stopped reading early.
	pr.CloseWithError(fmt.Errorf("upload finished"))
	return true, err
}

// Open returns the plaintext of the footage at key.
func (s *FootageStore) Open(ctx context.Context, key string, sealed bool) (io.ReadCloser, error) {
	rc, err := s.blobs.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !sealed {
		return rc, nil
	}
	if s.sealer == nil {
		_ = rc.Close()
		return nil, fmt.Errorf("footage %s is sealed and no sealer is configured", key)
	}
	plain, err := s.sealer.Open(rc)
	if err != nil {
		_ = rc.Close()
		return nil, err
	}
	return readCloser{Reader: plain, Closer: rc}, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}
