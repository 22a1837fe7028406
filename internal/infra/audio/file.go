package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"voice-assistant/internal/domain"
)

var audioExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".webm": true,
}

const processedSuffix = ".processed"

// FileSource polls a directory for dropped recordings. A .txt file is read
// as a typed utterance. Consumed files are renamed with a .processed suffix.
type FileSource struct {
	dir      string
	interval time.Duration
	// seen guards against re-reading a file whose rename failed.
	seen map[string]bool
}

func NewFileSource(dir string) *FileSource {
	return &FileSource{
		dir:      dir,
		interval: 500 * time.Millisecond,
		seen:     make(map[string]bool),
	}
}

func (f *FileSource) Name() string {
	return "file"
}

func (f *FileSource) Start(_ context.Context) error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("creating audio dir: %w", err)
	}
	return nil
}

func (f *FileSource) Stop() error {
	return nil
}

// NextCommand returns the next pending file in name order.
func (f *FileSource) NextCommand(ctx context.Context) ([]byte, error) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		data, err := f.next()
		if err != nil || data != nil {
			return data, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (f *FileSource) next() ([]byte, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("reading dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(entry.Name()))
		text := ext == ".txt"
		if !text && !audioExtensions[ext] {
			continue
		}

		path := filepath.Join(f.dir, entry.Name())
		if f.seen[path] {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading file %s: %w", path, err)
		}

		f.seen[path] = true
		if err := os.Rename(path, path+processedSuffix); err == nil {
			delete(f.seen, path)
		}

		if !text {
			return data, nil
		}
		if utterance := strings.TrimSpace(string(data)); utterance != "" {
			return []byte(domain.TextCommandPrefix + utterance), nil
		}
	}

	return nil, nil
}
