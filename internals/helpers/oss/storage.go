// file: internals/helpers/oss/storage.go
package helper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Storage is the object-storage capability used by the student media feature.
type Storage interface {
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

/* =======================================================================
   Key utils
======================================================================= */

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_]+`)

// SafeName keeps a file name usable inside an object key.
func SafeName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.Trim(unsafeKeyChars.ReplaceAllString(name, "_"), "._")
	if name == "" {
		return "file"
	}
	if len(name) > 80 {
		name = name[len(name)-80:]
	}
	return name
}

func JoinKey(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "/")
}

/* =======================================================================
   In-memory storage (tests, local runs without OSS credentials)
======================================================================= */

type MemObject struct {
	Data        []byte
	ContentType string
}

type MemStorage struct {
	mu      sync.Mutex
	Objects map[string]MemObject
	BaseURL string
}

func NewMemStorage() *MemStorage {
	return &MemStorage{Objects: map[string]MemObject{}, BaseURL: "http://local.storage"}
}

func (m *MemStorage) PresignPut(_ context.Context, key, contentType string, ttl time.Duration) (string, error) {
	q := url.Values{}
	q.Set("content-type", contentType)
	q.Set("expires", fmt.Sprint(time.Now().Add(ttl).Unix()))
	return m.PublicURL(key) + "?" + q.Encode(), nil
}

func (m *MemStorage) Put(_ context.Context, key string, r io.Reader, contentType string) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[key] = MemObject{Data: buf.Bytes(), ContentType: contentType}
	return nil
}

func (m *MemStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, key)
	return nil
}

func (m *MemStorage) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Objects[key]
	return ok
}

func (m *MemStorage) PublicURL(key string) string {
	if key == "" {
		return ""
	}
	return strings.TrimRight(m.BaseURL, "/") + "/" + key
}
