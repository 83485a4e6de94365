//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package feedback

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two stores on one path stand in for serve and a CLI writing concurrently:
// they share no mutex, only the lock file.
func TestFileStore_SeparateWritersKeepEveryRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback_log.json")
	a, err := NewFileStore(path, nil)
	require.NoError(t, err)
	b, err := NewFileStore(path, nil)
	require.NoError(t, err)

	const perWriter = 15
	var wg sync.WaitGroup
	for w, s := range []*FileStore{a, b} {
		wg.Add(1)
		go func(w int, s *FileStore) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_, err := s.Record(context.Background(), rec("q", 3, fmt.Sprintf("w%d-%d", w, i)))
				assert.NoError(t, err)
			}
		}(w, s)
	}
	wg.Wait()

	all, err := a.Recent(context.Background(), 100)
	require.NoError(t, err)
	assert.Len(t, all, 2*perWriter)
}
