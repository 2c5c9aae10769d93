package cache

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type entry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

func TestStoreRoundTrip(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	path := store.ScorePath("jd", "rubric", "v1", "resume")

	var missing entry
	ok, err := store.Load(path, &missing)
	require.NoError(t, err)
	require.False(t, ok)

	exists, err := store.Exists(path)
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, store.Save(path, entry{Name: "jane", Score: 42}))

	var got entry
	ok, err = store.Load(path, &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, entry{Name: "jane", Score: 42}, got)

	exists, err = store.Exists(path)
	require.NoError(t, err)
	require.True(t, exists)
}

func TestStorePaths(t *testing.T) {
	store, err := New("/var/cache/screener")
	require.NoError(t, err)

	require.Equal(t, filepath.Join("/var/cache/screener", "rubrics", "abc.json"), store.RubricPath("abc"))
	require.Equal(t,
		filepath.Join("/var/cache/screener", "scores", "jd", "rb", "v2", "res.json"),
		store.ScorePath("jd", "rb", "v2", "res"),
	)
	require.NotEqual(t, store.ScorePath("jd", "rb", "v1", "res"), store.ScorePath("jd", "rb", "v2", "res"))
}

func TestStoreRejectsEmptyRoot(t *testing.T) {
	_, err := New("")
	require.Error(t, err)
}

func TestStoreLeavesNoTemporaryFiles(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	path := store.RubricPath("fp")
	require.NoError(t, store.Save(path, entry{Name: "first"}))
	require.NoError(t, store.Save(path, entry{Name: "second"}))

	files, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.False(t, strings.HasPrefix(files[0].Name(), ".tmp_"))

	var got entry
	_, err = store.Load(path, &got)
	require.NoError(t, err)
	require.Equal(t, "second", got.Name)
}

func TestStoreConcurrentWritersSameKey(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	path := store.ScorePath("jd", "rubric", "v1", "resume")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.Save(path, entry{Name: "same", Score: 7}); err != nil {
				t.Errorf("save: %v", err)
			}
		}()
	}
	wg.Wait()

	var got entry
	ok, err := store.Load(path, &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, entry{Name: "same", Score: 7}, got)
}

func TestStoreLoadCorruptEntry(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	path := store.RubricPath("broken")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	var got entry
	_, err = store.Load(path, &got)
	require.Error(t, err)
}
