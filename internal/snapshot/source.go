// Package snapshot resolves where the balance file comes from and makes it
// available as a local path for ingestion.
package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/andresuchdata/inventory-balance/internal/config"
	"github.com/andresuchdata/inventory-balance/internal/drive"
	"github.com/andresuchdata/inventory-balance/internal/storage"
)

// Source yields a local path to the current balance snapshot.
type Source interface {
	Fetch(ctx context.Context) (string, error)
	Describe() string
}

// LocalSource reads a file already on disk.
type LocalSource struct {
	Path string
}

func (s LocalSource) Fetch(ctx context.Context) (string, error) {
	return s.Path, nil
}

func (s LocalSource) Describe() string {
	return "file://" + s.Path
}

// ObjectSource mirrors one object of an S3-compatible bucket into a local
// directory, downloading only when the remote copy changed. A Key ending in
// "/" is a prefix: the most recently modified CSV or XLSX under it is used.
type ObjectSource struct {
	Store storage.ObjectStorage
	Key   string
	Dir   string
}

func (s ObjectSource) Fetch(ctx context.Context) (string, error) {
	info, err := s.locate(ctx)
	if err != nil {
		return "", err
	}

	localPath := filepath.Join(s.Dir, filepath.Base(info.Key))
	if local, err := os.Stat(localPath); err == nil &&
		local.Size() == info.Size && local.ModTime().Equal(info.LastModified) {
		return localPath, nil
	}

	if err := s.Store.DownloadObject(ctx, info.Key, localPath); err != nil {
		return "", err
	}
	if !info.LastModified.IsZero() {
		_ = os.Chtimes(localPath, info.LastModified, info.LastModified)
	}
	return localPath, nil
}

func (s ObjectSource) locate(ctx context.Context) (storage.ObjectInfo, error) {
	if !strings.HasSuffix(s.Key, "/") {
		return s.Store.StatObject(ctx, s.Key)
	}

	objects, err := s.Store.ListObjects(ctx, s.Key)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	var newest *storage.ObjectInfo
	for i := range objects {
		switch strings.ToLower(filepath.Ext(objects[i].Key)) {
		case ".csv", ".xlsx":
		default:
			continue
		}
		if newest == nil || objects[i].LastModified.After(newest.LastModified) {
			newest = &objects[i]
		}
	}
	if newest == nil {
		return storage.ObjectInfo{}, fmt.Errorf("no balance snapshot under %q", s.Key)
	}
	return *newest, nil
}

func (s ObjectSource) Describe() string {
	return "s3://" + s.Key
}

// DriveSource pulls the snapshot from a Google Drive folder.
type DriveSource struct {
	Downloader *drive.Downloader
	Options    drive.SnapshotOptions
}

func (s DriveSource) Fetch(ctx context.Context) (string, error) {
	return s.Downloader.FetchSnapshot(ctx, s.Options)
}

func (s DriveSource) Describe() string {
	if s.Options.FolderPath != "" {
		return "drive://" + s.Options.FolderPath + "/" + s.Options.FileName
	}
	return "drive://" + s.Options.FolderID + "/" + s.Options.FileName
}

// Refresher is implemented by sources that hold on to a fetched snapshot.
type Refresher interface {
	Refresh()
}

// Pinned fetches from a remote source once and keeps serving that local copy
// until Refresh is called, so requests never wait on the network. Concurrent
// first fetches share one call.
type Pinned struct {
	Source Source

	mu    sync.RWMutex
	path  string
	group singleflight.Group
}

// NewPinned wraps src.
func NewPinned(src Source) *Pinned {
	return &Pinned{Source: src}
}

func (p *Pinned) Fetch(ctx context.Context) (string, error) {
	p.mu.RLock()
	path := p.path
	p.mu.RUnlock()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		p.Refresh()
	}

	v, err, _ := p.group.Do("fetch", func() (interface{}, error) {
		p.mu.RLock()
		pinned := p.path
		p.mu.RUnlock()
		if pinned != "" {
			return pinned, nil
		}

		path, err := p.Source.Fetch(ctx)
		if err != nil {
			return "", err
		}
		p.mu.Lock()
		p.path = path
		p.mu.Unlock()
		return path, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (p *Pinned) Describe() string {
	return p.Source.Describe()
}

// Refresh makes the next Fetch go back to the remote source.
func (p *Pinned) Refresh() {
	p.mu.Lock()
	p.path = ""
	p.mu.Unlock()
}

// New builds the source selected by cfg.Snapshot.Source. Remote sources are
// pinned after their first fetch.
func New(ctx context.Context, cfg *config.Config) (Source, error) {
	switch cfg.Snapshot.Source {
	case "", "local":
		return LocalSource{Path: cfg.Balance.File}, nil
	case "s3", "minio":
		store, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			return nil, err
		}
		return NewPinned(ObjectSource{Store: store, Key: cfg.Storage.ObjectKey, Dir: cfg.Snapshot.DownloadDir}), nil
	case "drive":
		creds, err := driveCredentials(cfg.Drive)
		if err != nil {
			return nil, err
		}
		svc, err := drive.NewService(ctx, creds)
		if err != nil {
			return nil, err
		}
		return NewPinned(DriveSource{
			Downloader: drive.NewDownloader(svc),
			Options: drive.SnapshotOptions{
				FolderID:    cfg.Drive.FolderID,
				FolderPath:  cfg.Drive.FolderPath,
				FileName:    cfg.Drive.FileName,
				DownloadDir: cfg.Snapshot.DownloadDir,
			},
		}), nil
	}
	return nil, fmt.Errorf("unknown snapshot source %q", cfg.Snapshot.Source)
}

func driveCredentials(cfg config.DriveConfig) ([]byte, error) {
	if cfg.CredentialsJSON != "" {
		return []byte(cfg.CredentialsJSON), nil
	}
	if cfg.CredentialsFile == "" {
		return nil, fmt.Errorf("drive credentials must be provided")
	}
	data, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read drive credentials: %w", err)
	}
	return data, nil
}
