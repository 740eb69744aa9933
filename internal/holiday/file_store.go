package holiday

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"

	"github.com/0xc0d3d00d/candleseries/internal/domain"
	"github.com/spf13/afero"
)

// FileStore keeps one JSON document per year:
//
//	<root>/holidays/2024.json  {"year":2024,"dates":[...],"fetched_at":...}
type FileStore struct {
	fs  afero.Fs
	dir string
}

func NewFileStore(fs afero.Fs, rootDir string) (*FileStore, error) {
	dir := path.Join(rootDir, "holidays")

	exists, err := afero.DirExists(fs, dir)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create holiday directory: %w", err)
		}
	}

	return &FileStore{fs: fs, dir: dir}, nil
}

func (s *FileStore) filename(year int) string {
	return path.Join(s.dir, fmt.Sprintf("%d.json", year))
}

func (s *FileStore) Get(ctx context.Context, year int) (domain.HolidayYear, bool, error) {
	filename := s.filename(year)
	exists, err := afero.Exists(s.fs, filename)
	if err != nil {
		return domain.HolidayYear{}, false, fmt.Errorf("failed to check holiday file: %w", err)
	}
	if !exists {
		return domain.HolidayYear{}, false, nil
	}

	raw, err := afero.ReadFile(s.fs, filename)
	if err != nil {
		return domain.HolidayYear{}, false, fmt.Errorf("failed to read holiday file: %w", err)
	}

	var data domain.HolidayYear
	if err := json.Unmarshal(raw, &data); err != nil {
		// A corrupt entry is a miss; the next successful fetch overwrites it.
		slog.WarnContext(ctx, "ignoring unreadable holiday file", "file", filename, "error", err)
		return domain.HolidayYear{}, false, nil
	}

	return data, true, nil
}

func (s *FileStore) Set(ctx context.Context, data domain.HolidayYear) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}

	filename := s.filename(data.Year)
	if err := afero.WriteFile(s.fs, filename, raw, 0644); err != nil {
		return fmt.Errorf("failed to write holiday file: %w", err)
	}

	slog.DebugContext(ctx, "holiday year saved", "file", filename, "count", len(data.Dates))
	return nil
}
