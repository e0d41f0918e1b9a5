package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// FileEntry is the sidecar written next to each object so the content type
// and write time survive on a plain filesystem.
type FileEntry struct {
	Bucket      string    `json:"bucket"`
	Key         string    `json:"key"`
	ContentType string    `json:"content_type"`
	Size        int       `json:"size"`
	SavedAt     time.Time `json:"saved_at"`
}

// FileStore stores objects on disk as <Dir>/<bucket>/<key> with a
// <key>.meta.json sidecar. Buckets are plain directories.
type FileStore struct {
	Dir string

	now func() time.Time
}

func (s *FileStore) objectPath(bucket, key string) string {
	return filepath.Join(s.Dir, bucket, filepath.FromSlash(key))
}

func metaPath(objectPath string) string { return objectPath + ".meta.json" }

// Put writes body atomically (temp file + rename) and returns a file:// URI.
func (s *FileStore) Put(_ context.Context, bucket, key string, body []byte, contentType string) (string, error) {
	if s == nil || s.Dir == "" {
		return "", fmt.Errorf("store dir not configured")
	}
	if err := validate(bucket, key); err != nil {
		return "", err
	}
	p := s.objectPath(bucket, key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	meta := FileEntry{
		Bucket:      bucket,
		Key:         key,
		ContentType: contentType,
		Size:        len(body),
		SavedAt:     now().UTC(),
	}
	mb, err := json.Marshal(&meta)
	if err != nil {
		return "", fmt.Errorf("encode meta: %w", err)
	}
	// Sidecar first: an object on disk always has its metadata.
	if err := writeFileAtomic(metaPath(p), mb); err != nil {
		return "", fmt.Errorf("write meta: %w", err)
	}
	if err := writeFileAtomic(p, body); err != nil {
		_ = os.Remove(metaPath(p))
		return "", fmt.Errorf("write object: %w", err)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		abs = p
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

// loadMeta returns the sidecar for an object written by Put.
func (s *FileStore) loadMeta(bucket, key string) (*FileEntry, error) {
	if err := validate(bucket, key); err != nil {
		return nil, err
	}
	f, err := os.Open(metaPath(s.objectPath(bucket, key)))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var e FileEntry
	if err := json.NewDecoder(f).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// load returns the stored object body.
func (s *FileStore) load(bucket, key string) ([]byte, error) {
	if err := validate(bucket, key); err != nil {
		return nil, err
	}
	return os.ReadFile(s.objectPath(bucket, key))
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
