// track/library.go
// Copyright(c) 2025 coaster contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package track

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/coastersim/coaster/log"
	"github.com/coastersim/coaster/util"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Bump when Path's encoding or the build pipeline changes so that stale
// disk cache entries are rebuilt.
const cacheFormatVersion = 1

// Library caches built paths. Lookups first consult an in-memory LRU
// keyed by filename and options, then an on-disk cache keyed by the
// hash of the source contents so that edited track files are rebuilt.
type Library struct {
	lg        *log.Logger
	cache     *expirable.LRU[string, *Path]
	diskCache bool
}

func NewLibrary(diskCache bool, lg *log.Logger) *Library {
	return &Library{
		lg:        lg,
		cache:     expirable.NewLRU[string, *Path](16, nil, time.Hour),
		diskCache: diskCache,
	}
}

func (o ReduceOptions) key() string {
	return fmt.Sprintf("%s-%d-%g", o.Mode, o.ChunkSize, o.MinDist)
}

// diskCacheKey returns the cache path for the track source b built with
// opts.
func diskCacheKey(b []byte, opts ReduceOptions) (string, error) {
	sum, err := util.Hash(bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	return filepath.Join("tracks", hex.EncodeToString(sum)+"-"+opts.key()+".msgpack"), nil
}

// Load returns the path built from the OBJ file at filename. Problems
// reading the source or the caches are logged; an unreadable source gives
// an empty path.
func (l *Library) Load(filename string, opts ReduceOptions) *Path {
	memKey := filename + "|" + opts.key()
	if p, ok := l.cache.Get(memKey); ok {
		l.lg.Debug("track cache hit", slog.String("path", filename))
		return p
	}

	b, err := util.ReadResource(filename)
	if err != nil {
		l.lg.Warn("unable to read track source", slog.String("path", filename), slog.Any("error", err))
		return NewPath(nil)
	}

	cachePath, err := diskCacheKey(b, opts)
	if err != nil {
		l.lg.Warn("unable to hash track source", slog.String("path", filename), slog.Any("error", err))
		return NewPath(nil)
	}

	if l.diskCache {
		var p Path
		if t, err := util.CacheRetrieveObject(cachePath, cacheFormatVersion, &p); err == nil {
			l.lg.Info("loaded cached track", slog.String("path", filename), slog.Time("stored", t), slog.Any("track", &p))
			l.cache.Add(memKey, &p)
			return &p
		} else if errors.Is(err, util.ErrCacheStale) {
			l.lg.Info("rebuilding stale cached track", slog.String("path", filename), slog.Any("error", err))
		}
	}

	points, err := ParseOBJ(bytes.NewReader(b))
	if err != nil {
		l.lg.Warn("malformed track source", slog.String("path", filename), slog.Any("error", err))
		return NewPath(nil)
	}

	start := time.Now()
	p := Build(points, opts)
	l.lg.Info("built track", slog.String("path", filename), slog.Int("vertices", len(points)),
		slog.Duration("elapsed", time.Since(start)), slog.Any("track", p))

	if l.diskCache && p.Len() > 0 {
		if err := util.CacheStoreObject(cachePath, cacheFormatVersion, p); err != nil {
			l.lg.Warn("unable to cache track", slog.String("path", filename), slog.Any("error", err))
		}
	}
	l.cache.Add(memKey, p)
	return p
}
