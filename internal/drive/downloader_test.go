package drive

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	folders   map[string]string
	files     map[string][]*File
	contents  map[string]string
	delay     time.Duration
	downloads atomic.Int32
}

func (f *fakeRemote) ListFiles(ctx context.Context, folderID string) ([]*File, error) {
	return f.files[folderID], nil
}

func (f *fakeRemote) DownloadFile(ctx context.Context, fileID string, w io.Writer) error {
	body, ok := f.contents[fileID]
	if !ok {
		return errors.New("not found")
	}
	f.downloads.Add(1)
	time.Sleep(f.delay)
	_, err := io.WriteString(w, body)
	return err
}

func (f *fakeRemote) FindFolderByPath(ctx context.Context, path string) (string, error) {
	id, ok := f.folders[path]
	if !ok {
		return "", errors.New("folder not found")
	}
	return id, nil
}

func TestFetchSnapshotByName(t *testing.T) {
	remote := &fakeRemote{
		folders: map[string]string{"Inventario/Balances": "f1"},
		files: map[string][]*File{
			"f1": {
				{ID: "x", Name: "notas.txt"},
				{ID: "b", Name: "balance.CSV", ModifiedTime: "2026-10-01T08:00:00Z"},
				{ID: "old", Name: "Balance.csv"},
			},
		},
		contents: map[string]string{"b": "Codigo,Clave,Descripcion\n"},
	}
	d := &Downloader{service: remote}
	dir := t.TempDir()

	path, err := d.FetchSnapshot(context.Background(), SnapshotOptions{FolderPath: "Inventario/Balances", FileName: "Balance.csv", DownloadDir: dir})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "balance.CSV"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Codigo,Clave,Descripcion\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)))
}

func TestFetchSnapshotNewestSpreadsheet(t *testing.T) {
	remote := &fakeRemote{
		files: map[string][]*File{
			"f2": {{ID: "n", Name: "readme.md"}, {ID: "s", Name: "Balance octubre.xlsx"}},
		},
		contents: map[string]string{"s": "xlsx"},
	}
	d := &Downloader{service: remote}

	path, err := d.FetchSnapshot(context.Background(), SnapshotOptions{FolderID: "f2", DownloadDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "Balance octubre.xlsx", filepath.Base(path))
}

func TestFetchSnapshotErrors(t *testing.T) {
	d := &Downloader{service: &fakeRemote{files: map[string][]*File{}}}

	_, err := d.FetchSnapshot(context.Background(), SnapshotOptions{FolderID: "f"})
	assert.Error(t, err)

	_, err = d.FetchSnapshot(context.Background(), SnapshotOptions{FolderID: "f", DownloadDir: t.TempDir()})
	assert.Error(t, err)

	_, err = d.FetchSnapshot(context.Background(), SnapshotOptions{FolderPath: "missing", DownloadDir: t.TempDir()})
	assert.Error(t, err)
}

func TestFetchSnapshotSkipsUnchangedFile(t *testing.T) {
	remote := &fakeRemote{
		files: map[string][]*File{
			"f1": {{ID: "b", Name: "Balance.csv", ModifiedTime: "2026-10-01T08:00:00Z", Size: 6}},
		},
		contents: map[string]string{"b": "v1,v1\n"},
	}
	d := &Downloader{service: remote}
	opts := SnapshotOptions{FolderID: "f1", DownloadDir: t.TempDir()}

	_, err := d.FetchSnapshot(context.Background(), opts)
	require.NoError(t, err)
	_, err = d.FetchSnapshot(context.Background(), opts)
	require.NoError(t, err)
	assert.EqualValues(t, 1, remote.downloads.Load())

	remote.files["f1"][0].ModifiedTime = "2026-10-02T08:00:00Z"
	_, err = d.FetchSnapshot(context.Background(), opts)
	require.NoError(t, err)
	assert.EqualValues(t, 2, remote.downloads.Load())
}

func TestFetchSnapshotConcurrentCallers(t *testing.T) {
	remote := &fakeRemote{
		files: map[string][]*File{
			"f1": {{ID: "b", Name: "Balance.csv", ModifiedTime: "2026-10-01T08:00:00Z"}},
		},
		contents: map[string]string{"b": "Codigo,Clave,Descripcion\n"},
		delay:    50 * time.Millisecond,
	}
	d := &Downloader{service: remote}
	dir := t.TempDir()
	opts := SnapshotOptions{FolderID: "f1", DownloadDir: dir}

	const callers = 4
	var wg sync.WaitGroup
	paths := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			paths[i], errs[i] = d.FetchSnapshot(context.Background(), opts)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, filepath.Join(dir, "Balance.csv"), paths[i])
	}
	assert.EqualValues(t, 1, remote.downloads.Load())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Balance.csv", entries[0].Name())
}
