package embedding

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// Cache file layout, all integers little-endian:
//
//	magic "RSTEMB01"
//	u32 fingerprint length, fingerprint bytes
//	u32 dimensions
//	u32 entry count
//	per entry: u32 id length, id bytes, dimensions*f32 vector
//
// The fingerprint is the corpus fingerprint the vectors were computed from.
// Any mismatch, truncation, or garbage reads as a miss, never an error that
// blocks startup; the caller recomputes and overwrites.
var cacheMagic = []byte("RSTEMB01")

const maxCachedIDLen = 1 << 10

var errCacheMismatch = errors.New("embedding cache does not match corpus")

// loadCache reads cached vectors for the given corpus fingerprint.
func loadCache(path, fingerprint string) (map[string][]float32, int, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	magic := make([]byte, len(cacheMagic))
	if _, err := io.ReadFull(f, magic); err != nil {
		return nil, 0, fmt.Errorf("read cache header: %w", err)
	}
	if string(magic) != string(cacheMagic) {
		return nil, 0, errCacheMismatch
	}

	storedFP, err := readBytes(f, maxCachedIDLen)
	if err != nil {
		return nil, 0, fmt.Errorf("read cache fingerprint: %w", err)
	}
	if string(storedFP) != fingerprint {
		return nil, 0, errCacheMismatch
	}

	var dims, count uint32
	if err := binary.Read(f, binary.LittleEndian, &dims); err != nil {
		return nil, 0, fmt.Errorf("read cache dimensions: %w", err)
	}
	if err := binary.Read(f, binary.LittleEndian, &count); err != nil {
		return nil, 0, fmt.Errorf("read cache count: %w", err)
	}

	vectors := make(map[string][]float32, count)
	raw := make([]byte, int(dims)*4)
	for i := uint32(0); i < count; i++ {
		id, err := readBytes(f, maxCachedIDLen)
		if err != nil {
			return nil, 0, fmt.Errorf("read cache entry %d: %w", i, err)
		}
		if _, err := io.ReadFull(f, raw); err != nil {
			return nil, 0, fmt.Errorf("read cache vector %d: %w", i, err)
		}
		vec := make([]float32, dims)
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(raw[j*4:]))
		}
		vectors[string(id)] = vec
	}
	return vectors, int(dims), nil
}

// saveCache writes vectors atomically: full write to a temp file in the same
// directory, then rename over the target.
func saveCache(path, fingerprint string, dims int, vectors map[string][]float32, ids []string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".embcache-*")
	if err != nil {
		return fmt.Errorf("create cache temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := writeCache(tmp, fingerprint, dims, vectors, ids); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cache temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace cache file: %w", err)
	}
	return nil
}

func writeCache(w io.Writer, fingerprint string, dims int, vectors map[string][]float32, ids []string) error {
	if _, err := w.Write(cacheMagic); err != nil {
		return fmt.Errorf("write cache header: %w", err)
	}
	if err := writeBytes(w, []byte(fingerprint)); err != nil {
		return fmt.Errorf("write cache fingerprint: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(dims)); err != nil {
		return fmt.Errorf("write cache dimensions: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(ids))); err != nil {
		return fmt.Errorf("write cache count: %w", err)
	}

	raw := make([]byte, dims*4)
	for _, id := range ids {
		vec, ok := vectors[id]
		if !ok || len(vec) != dims {
			return fmt.Errorf("cache entry %s: missing or wrong dimension vector", id)
		}
		if err := writeBytes(w, []byte(id)); err != nil {
			return fmt.Errorf("write cache entry %s: %w", id, err)
		}
		for j, f := range vec {
			binary.LittleEndian.PutUint32(raw[j*4:], math.Float32bits(f))
		}
		if _, err := w.Write(raw); err != nil {
			return fmt.Errorf("write cache vector %s: %w", id, err)
		}
	}
	return nil
}

func readBytes(r io.Reader, max uint32) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	if n > max {
		return nil, fmt.Errorf("length %d exceeds limit %d", n, max)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func writeBytes(w io.Writer, b []byte) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}
