package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"welcomer/domain/entities"
	"welcomer/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// FileImageStore keeps templates and pool images on the local filesystem.
//
// Layout:
//
//	<templatesDir>/<guild>/default.png
//	<poolDir>/<guild>/<name>.png
type FileImageStore struct {
	templatesDir string
	poolDir      string
}

// NewFileImageStore creates a store rooted at the given directories
func NewFileImageStore(templatesDir, poolDir string) *FileImageStore {
	return &FileImageStore{templatesDir: templatesDir, poolDir: poolDir}
}

func (s *FileImageStore) path(guildID int64, key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("%w: invalid image key %q", entities.ErrValidation, key)
	}
	guild := strconv.FormatInt(guildID, 10)
	if key == entities.DefaultTemplateKey {
		return filepath.Join(s.templatesDir, guild, key), nil
	}
	return filepath.Join(s.poolDir, guild, key), nil
}

// Exists reports whether the image file is present
func (s *FileImageStore) Exists(ctx context.Context, guildID int64, key string) (bool, error) {
	p, err := s.path(guildID, key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat image %s: %w", key, err)
	}
	return true, nil
}

// Read returns the image bytes, or ErrImageNotFound
func (s *FileImageStore) Read(ctx context.Context, guildID int64, key string) ([]byte, error) {
	p, err := s.path(guildID, key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", entities.ErrImageNotFound, key)
		}
		return nil, fmt.Errorf("failed to read image %s: %w", key, err)
	}
	return data, nil
}

// Stage writes the image to a hidden temp file next to its final path.
// Nothing is visible under the key until the returned image is promoted.
func (s *FileImageStore) Stage(ctx context.Context, guildID int64, key string, data []byte) (interfaces.StagedImage, error) {
	p, err := s.path(guildID, key)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+key+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return nil, fmt.Errorf("failed to write image %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return nil, fmt.Errorf("failed to sync image %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("failed to close image %s: %w", key, err)
	}

	return &stagedImage{
		guildID:   guildID,
		key:       key,
		tmpPath:   tmpName,
		finalPath: p,
		bytes:     len(data),
		replace:   key == entities.DefaultTemplateKey,
	}, nil
}

// stagedImage is a fully written temp file waiting to be moved under its key
type stagedImage struct {
	guildID   int64
	key       string
	tmpPath   string
	finalPath string
	bytes     int
	replace   bool
	done      bool
}

// Promote moves the file into place. The default template is replaced
// atomically; a pool image is only linked in when no file has that name yet.
func (i *stagedImage) Promote() error {
	if i.done {
		return fmt.Errorf("staged image %s was already promoted or discarded", i.key)
	}
	i.done = true

	if i.replace {
		if err := os.Rename(i.tmpPath, i.finalPath); err != nil {
			os.Remove(i.tmpPath)
			return fmt.Errorf("failed to move image %s into place: %w", i.key, err)
		}
	} else {
		err := os.Link(i.tmpPath, i.finalPath)
		os.Remove(i.tmpPath)
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", entities.ErrImageExists, entities.ImageNameFromKey(i.key))
		}
		if err != nil {
			return fmt.Errorf("failed to move image %s into place: %w", i.key, err)
		}
	}

	log.WithFields(log.Fields{
		"guild_id": i.guildID,
		"key":      i.key,
		"bytes":    i.bytes,
	}).Debug("Stored image")
	return nil
}

// Discard removes the temp file. Calling it after Promote does nothing.
func (i *stagedImage) Discard() {
	if i.done {
		return
	}
	i.done = true
	if err := os.Remove(i.tmpPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.WithError(err).WithField("key", i.key).Warn("Failed to remove staged image")
	}
}

// Delete removes the image. A missing file is not an error.
func (s *FileImageStore) Delete(ctx context.Context, guildID int64, key string) error {
	p, err := s.path(guildID, key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete image %s: %w", key, err)
	}
	return nil
}

// ListPool returns the guild's pool image keys in lexical order
func (s *FileImageStore) ListPool(ctx context.Context, guildID int64) ([]string, error) {
	dir := filepath.Join(s.poolDir, strconv.FormatInt(guildID, 10))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list pool images: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != entities.ImageFileExt {
			continue
		}
		keys = append(keys, name)
	}
	sort.Strings(keys)
	return keys, nil
}
