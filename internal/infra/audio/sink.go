package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"voice-assistant/internal/domain"
)

// FileSink writes each synthesized reply as reply_<uuid>.wav.
type FileSink struct {
	dir string
}

func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

func (f *FileSink) Name() string {
	return "file"
}

func (f *FileSink) Play(_ context.Context, audio domain.Audio) error {
	_, err := writeFile(f.dir, "reply", EncodeWAV(audio.Samples, audio.SampleRate))
	return err
}

// DirArchive saves captured utterances as user_<uuid>.wav.
type DirArchive struct {
	dir string
}

func NewDirArchive(dir string) *DirArchive {
	return &DirArchive{dir: dir}
}

func (d *DirArchive) Save(_ context.Context, audio []byte) (string, error) {
	return writeFile(d.dir, "user", audio)
}

func writeFile(dir, prefix string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.wav", prefix, uuid.NewString()))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
