// util/cache.go
// Copyright(c) 2025 coaster contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrCacheStale is returned when a cached object was written with a
// different format version than the caller expects.
var ErrCacheStale = errors.New("cached object has a different format version")

// cacheEntry is what is stored on disk; the payload is only decoded once
// the version has been checked.
type cacheEntry struct {
	Version int                `msgpack:"version"`
	Stored  time.Time          `msgpack:"stored"`
	Payload msgpack.RawMessage `msgpack:"payload"`
}

// CachePath returns the location of the given path in coaster's cache
// directory.
func CachePath(path string) (string, error) {
	cd, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cd, "Coaster", path), nil
}

// CacheStoreObject msgpack-encodes obj, tags it with version, and writes
// it zstd-compressed to path in the cache directory. The file is
// replaced atomically so that concurrent readers never see a partial
// entry.
func CacheStoreObject(path string, version int, obj any) error {
	payload, err := msgpack.Marshal(obj)
	if err != nil {
		return err
	}

	path, err = CachePath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name()) // no-op after a successful rename

	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		f.Close()
		return err
	}
	entry := cacheEntry{Version: version, Stored: time.Now(), Payload: payload}
	if err := msgpack.NewEncoder(zw).Encode(entry); err != nil {
		zw.Close()
		f.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// CacheRetrieveObject decodes the object stored at path into obj and
// returns the time it was stored. ErrCacheStale is returned if the entry
// was written with another version.
func CacheRetrieveObject(path string, version int, obj any) (time.Time, error) {
	path, err := CachePath(path)
	if err != nil {
		return time.Time{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return time.Time{}, err
	}
	defer zr.Close()

	var entry cacheEntry
	if err := msgpack.NewDecoder(zr).Decode(&entry); err != nil {
		return time.Time{}, err
	}
	if entry.Version != version {
		return time.Time{}, fmt.Errorf("%s: version %d, expected %d: %w", path, entry.Version, version, ErrCacheStale)
	}
	if err := msgpack.Unmarshal(entry.Payload, obj); err != nil {
		return time.Time{}, err
	}
	return entry.Stored, nil
}
