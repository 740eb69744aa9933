package holiday

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Source returns candidate holiday dates for a year. Entries are filtered by
// the cache, so a source may return dates of other years or malformed values.
type Source interface {
	Holidays(ctx context.Context, year int) ([]string, error)
}

// FileSource reads a static exchange calendar:
//
//	years:
//	  2024:
//	    - "2024-01-26"
//	    - "2024-03-08"
type FileSource struct {
	fs   afero.Fs
	path string
}

type calendarFile struct {
	Years map[int][]string `yaml:"years"`
}

func NewFileSource(fs afero.Fs, path string) *FileSource {
	return &FileSource{fs: fs, path: path}
}

func (s *FileSource) Holidays(_ context.Context, year int) ([]string, error) {
	raw, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return nil, fmt.Errorf("read holiday calendar: %w", err)
	}

	var cal calendarFile
	if err := yaml.Unmarshal(raw, &cal); err != nil {
		return nil, fmt.Errorf("parse holiday calendar: %w", err)
	}

	return cal.Years[year], nil
}
