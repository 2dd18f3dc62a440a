package subtitle

import (
	"fmt"
	"sync"
)

// blobArena owns the in-memory text of locally created subtitle tracks, keyed
// by track id. Each blob is released exactly once: Release on a missing key is
// a no-op so remove and teardown cannot double-free.
type blobArena struct {
	mu    sync.Mutex
	blobs map[string]string
	seq   int
}

func newBlobArena() *blobArena {
	return &blobArena{blobs: make(map[string]string)}
}

// Store registers content under a fresh blob URL and returns that URL.
func (a *blobArena) Store(trackID, content string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seq++
	a.blobs[trackID] = content
	return fmt.Sprintf("blob:local/%s/%d", trackID, a.seq)
}

// Get returns the locally held text for a track, if any.
func (a *blobArena) Get(trackID string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	content, ok := a.blobs[trackID]
	return content, ok
}

// Release frees the blob for a track. Returns true if a blob was held.
func (a *blobArena) Release(trackID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.blobs[trackID]; !ok {
		return false
	}
	delete(a.blobs, trackID)
	return true
}

// ReleaseAll frees every blob; used on session teardown.
func (a *blobArena) ReleaseAll() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := len(a.blobs)
	a.blobs = make(map[string]string)
	return n
}

func (a *blobArena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.blobs)
}
