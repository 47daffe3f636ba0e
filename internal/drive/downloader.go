package drive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// SnapshotOptions controls which balance file is pulled from Google Drive.
type SnapshotOptions struct {
	FolderID    string
	FolderPath  string
	FileName    string
	DownloadDir string
}

type remote interface {
	ListFiles(ctx context.Context, folderID string) ([]*File, error)
	DownloadFile(ctx context.Context, fileID string, w io.Writer) error
	FindFolderByPath(ctx context.Context, path string) (string, error)
}

// Downloader wraps Service to fetch balance snapshots from a folder.
// Concurrent fetches of the same snapshot share one listing and download.
type Downloader struct {
	service remote
	group   singleflight.Group
}

// NewDownloader creates a new Downloader.
func NewDownloader(s *Service) *Downloader {
	return &Downloader{service: s}
}

// FetchSnapshot downloads the balance file into DownloadDir and returns the
// local path. With FileName set the newest file of that name (case-insensitive)
// is used, otherwise the newest CSV or XLSX in the folder. The local copy keeps
// the remote modification time so the dataset cache sees updates, and a local
// copy with the same modification time and size is reused without downloading.
func (d *Downloader) FetchSnapshot(ctx context.Context, opts SnapshotOptions) (string, error) {
	if opts.DownloadDir == "" {
		return "", fmt.Errorf("download dir is required")
	}

	key := strings.Join([]string{opts.DownloadDir, opts.FolderID, opts.FolderPath, opts.FileName}, "|")
	v, err, _ := d.group.Do(key, func() (interface{}, error) {
		return d.fetch(ctx, opts)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (d *Downloader) fetch(ctx context.Context, opts SnapshotOptions) (string, error) {
	if err := os.MkdirAll(opts.DownloadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create download dir: %w", err)
	}

	folderID := opts.FolderID
	if folderID == "" && opts.FolderPath != "" {
		id, err := d.service.FindFolderByPath(ctx, opts.FolderPath)
		if err != nil {
			return "", err
		}
		folderID = id
	}

	files, err := d.service.ListFiles(ctx, folderID)
	if err != nil {
		return "", err
	}

	f := pickSnapshot(files, opts.FileName)
	if f == nil {
		return "", fmt.Errorf("no balance snapshot found in drive folder %q", folderID)
	}

	localPath := filepath.Join(opts.DownloadDir, filepath.Base(f.Name))
	modified, modErr := time.Parse(time.RFC3339, f.ModifiedTime)
	if modErr == nil && upToDate(localPath, modified, f.Size) {
		log.Debug().Str("file", f.Name).Msg("drive: snapshot unchanged, download skipped")
		return localPath, nil
	}

	out, err := os.CreateTemp(opts.DownloadDir, "."+filepath.Base(f.Name)+".*.part")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file in %s: %w", opts.DownloadDir, err)
	}
	tmpPath := out.Name()
	if err := d.service.DownloadFile(ctx, f.ID, out); err != nil {
		out.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to download %s: %w", f.Name, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, localPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to move %s into place: %w", f.Name, err)
	}

	if modErr == nil {
		_ = os.Chtimes(localPath, modified, modified)
	}
	log.Info().Str("file", f.Name).Str("path", localPath).Msg("drive: snapshot downloaded")
	return localPath, nil
}

// upToDate reports whether the local copy matches the remote file. Native
// Google files report no size, so only the modification time is compared.
func upToDate(localPath string, modified time.Time, size int64) bool {
	info, err := os.Stat(localPath)
	if err != nil {
		return false
	}
	if !info.ModTime().Equal(modified) {
		return false
	}
	return size == 0 || info.Size() == size
}

// pickSnapshot relies on ListFiles returning files newest first.
func pickSnapshot(files []*File, name string) *File {
	for _, f := range files {
		if name != "" {
			if strings.EqualFold(f.Name, name) {
				return f
			}
			continue
		}
		switch strings.ToLower(filepath.Ext(f.Name)) {
		case ".csv", ".xlsx":
			return f
		}
	}
	return nil
}
