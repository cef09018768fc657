package storage

import (
	"context"
	"net/http"
	"strings"
	"sync"
)

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryBackend keeps objects in process. It backs local development
// (STORAGE_BACKEND=memory) and serves its objects over HTTP so public URLs
// resolve.
type MemoryBackend struct {
	mu            sync.RWMutex
	objects       map[string]memoryObject
	bucket        string
	publicBaseURL string
}

func NewMemoryBackend(bucket, publicBaseURL string) *MemoryBackend {
	return &MemoryBackend{
		objects:       make(map[string]memoryObject),
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (m *MemoryBackend) Upload(_ context.Context, key string, data []byte, contentType string) error {
	cp := make([]byte, len(data))
	copy(cp, data)

	m.mu.Lock()
	m.objects[key] = memoryObject{data: cp, contentType: contentType}
	m.mu.Unlock()

	return nil
}

func (m *MemoryBackend) Remove(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, key := range keys {
		delete(m.objects, key)
	}
	m.mu.Unlock()

	return nil
}

func (m *MemoryBackend) PublicURL(key string) string {
	return m.publicBaseURL + "/" + m.bucket + "/" + key
}

// Object returns the stored bytes for key.
func (m *MemoryBackend) Object(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	return obj.data, ok
}

func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.objects)
}

// ServeHTTP serves GET /{bucket}/{key}.
func (m *MemoryBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key, ok := strings.CutPrefix(strings.TrimPrefix(r.URL.Path, "/"), m.bucket+"/")
	if !ok {
		http.NotFound(w, r)
		return
	}

	m.mu.RLock()
	obj, found := m.objects[key]
	m.mu.RUnlock()

	if !found {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", obj.contentType)
	_, _ = w.Write(obj.data)
}
