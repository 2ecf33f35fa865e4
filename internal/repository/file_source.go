package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"feudlive/internal/model"

	"gopkg.in/yaml.v3"
)

var ErrInvalidSetID = errors.New("invalid question set id")

// FileSource reads question sets from <dir>/<id>.yaml
type FileSource struct {
	dir string
}

// NewFileSource creates a file-backed question source
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

func (s *FileSource) GetSet(ctx context.Context, id string) (*model.QuestionSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return nil, ErrInvalidSetID
	}

	set, err := LoadSetFile(filepath.Join(s.dir, id+".yaml"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return set, nil
}

// LoadSetFile decodes one YAML question set
func LoadSetFile(path string) (*model.QuestionSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var set model.QuestionSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if set.ID == "" {
		set.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &set, nil
}
