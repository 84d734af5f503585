package cache

import (
	"bytes"
	"compress/gzip"
	"encoding"
	"encoding/base64"
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
)

type memRecord[V any] struct {
	storedAt   time.Time
	lastReadAt time.Time
	value      V
}

// DiskCache keeps values as (optionally gzipped) json files under basePath with
// a bounded in-memory front
//
// Entries older than ttl are treated as missing; a ttl of zero never expires.
type DiskCache[K comparable, V any] struct {
	basePath   string
	ttl        time.Duration
	maxSize    int
	zipEnabled bool
	now        func() time.Time

	rwm sync.RWMutex
	m   map[K]*memRecord[V]
}

func NewDiskCache[K comparable, V any](path string, maxSize int, ttl time.Duration, zipEnabled bool) (*DiskCache[K, V], error) {
	if maxSize < 0 {
		maxSize = 0
	}

	fi, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		if err := os.MkdirAll(path, fs.ModePerm); err != nil {
			return nil, errors.Wrap(err, "failed to make cache directory")
		}
	} else if !fi.IsDir() {
		return nil, errors.New("existing path is not a directory")
	}

	return &DiskCache[K, V]{
		basePath:   path,
		ttl:        ttl,
		maxSize:    maxSize,
		zipEnabled: zipEnabled,
		now:        time.Now,
		m:          make(map[K]*memRecord[V], maxSize),
	}, nil
}

func (c *DiskCache[K, V]) expired(storedAt time.Time) bool {
	return c.ttl > 0 && c.now().Sub(storedAt) > c.ttl
}

func (c *DiskCache[K, V]) Get(k K) (V, bool, error) {
	var zero V

	c.rwm.Lock()
	if r, ok := c.m[k]; ok {
		if !c.expired(r.storedAt) {
			r.lastReadAt = c.now()
			v := r.value
			c.rwm.Unlock()

			return v, true, nil
		}

		delete(c.m, k)
	}
	c.rwm.Unlock()

	fp, err := c.filePath(k)
	if err != nil {
		return zero, false, err
	}

	fi, err := os.Stat(fp)
	if err != nil {
		if os.IsNotExist(err) {
			return zero, false, nil
		}
		return zero, false, err
	}

	if fi.IsDir() {
		return zero, false, errors.New("is a dir and not a file: " + fp)
	}

	if c.expired(fi.ModTime()) {
		return zero, false, nil
	}

	b, err := os.ReadFile(fp)
	if err != nil {
		return zero, false, err
	}

	v, err := c.bytesToValue(b)
	if err != nil {
		return zero, false, errors.Wrap(err, "failed to deserialize file contents")
	}

	c.remember(k, v, fi.ModTime())

	return v, true, nil
}

func (c *DiskCache[K, V]) Set(k K, v V) error {
	fp, err := c.filePath(k)
	if err != nil {
		return errors.Wrap(err, "failed to encode key")
	}

	b, err := c.valueToBytes(v)
	if err != nil {
		return errors.Wrap(err, "failed to encode value")
	}

	if err := os.WriteFile(fp, b, 0600); err != nil {
		return err
	}

	c.remember(k, v, c.now())

	return nil
}

func (c *DiskCache[K, V]) Delete(k K) error {
	c.rwm.Lock()
	delete(c.m, k)
	c.rwm.Unlock()

	fp, err := c.filePath(k)
	if err != nil {
		return err
	}

	if err := os.Remove(fp); err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}

// Clear forgets every entry, in memory and on disk
func (c *DiskCache[K, V]) Clear() error {
	c.rwm.Lock()
	defer c.rwm.Unlock()

	c.m = make(map[K]*memRecord[V], c.maxSize)

	entries, err := os.ReadDir(c.basePath)
	if err != nil {
		return errors.Wrap(err, "failed to list cache directory")
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		if err := os.Remove(filepath.Join(c.basePath, e.Name())); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return nil
}

func (c *DiskCache[K, V]) remember(k K, v V, storedAt time.Time) {
	if c.maxSize == 0 {
		return
	}

	c.rwm.Lock()
	defer c.rwm.Unlock()

	if _, ok := c.m[k]; !ok && len(c.m) >= c.maxSize {
		c.evict()
	}

	c.m[k] = &memRecord[V]{
		storedAt:   storedAt,
		lastReadAt: c.now(),
		value:      v,
	}
}

// evict drops the least recently read record, leaving it on disk
func (c *DiskCache[K, V]) evict() {
	var (
		victim K
		oldest time.Time
		found  bool
	)

	// TODO: refactor from O(n) to a more constant alg
	for k, r := range c.m {
		if !found || r.lastReadAt.Before(oldest) {
			victim, oldest, found = k, r.lastReadAt, true
		}
	}

	if found {
		delete(c.m, victim)
	}
}

func (c *DiskCache[K, V]) filePath(k K) (string, error) {
	var fileKey []byte

	switch tk := any(k).(type) {
	case string:
		fileKey = []byte(tk)
	case encoding.TextMarshaler:
		b, err := tk.MarshalText()
		if err != nil {
			return "", errors.Wrap(err, "failed to MarshalText")
		}
		fileKey = b
	default:
		b, err := json.Marshal(k)
		if err != nil {
			return "", errors.Wrap(err, "failed to json encode key")
		}
		fileKey = b
	}

	return filepath.Join(c.basePath, base64.RawURLEncoding.EncodeToString(fileKey)), nil
}

func (c *DiskCache[K, V]) valueToBytes(v V) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	if !c.zipEnabled {
		return buf.Bytes(), nil
	}

	return zip(buf.Bytes())
}

func (c *DiskCache[K, V]) bytesToValue(b []byte) (V, error) {
	var result V

	if c.zipEnabled {
		v, err := unzip(b)
		if err != nil {
			return result, err
		}
		b = v
	}

	if err := json.Unmarshal(b, &result); err != nil {
		return result, err
	}

	return result, nil
}

func zip(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)

	if _, err := w.Write(b); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func unzip(b []byte) ([]byte, error) {

	r, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(r)
}
