package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/wondrvoices/wondrsuggest/internal/utils"
	"github.com/wondrvoices/wondrsuggest/pkg/suggest"
)

// FileSource reads a suggestion payload from disk. JSON files are passed
// through unchanged; msgpack snapshots are decoded and re-emitted as the
// normalized JSON object.
type FileSource struct {
	path string
}

// NewFileSource creates a source for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Fetch reads the file.
func (s *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suggestions file: %w", err)
	}
	if !isMsgpack(s.path) {
		return data, nil
	}

	var lists suggest.Lists
	if err := msgpack.Unmarshal(data, &lists); err != nil {
		return nil, fmt.Errorf("failed to decode msgpack snapshot %s: %w", s.path, err)
	}
	log.Debugf("Decoded msgpack snapshot %s (%d values)", s.path, lists.Count())
	return json.Marshal(lists)
}

// WriteSnapshot stores lists at path, as msgpack when the extension asks
// for it and as indented JSON otherwise.
func WriteSnapshot(path string, lists suggest.Lists) error {
	var (
		data []byte
		err  error
	)
	if isMsgpack(path) {
		data, err = msgpack.Marshal(lists)
	} else {
		data, err = json.MarshalIndent(lists, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

func isMsgpack(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".msgpack", ".mpk", ".mp":
		return true
	}
	return false
}

// Static serves a fixed payload from memory.
type Static []byte

// Fetch returns the payload.
func (s Static) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []byte(s), nil
}
