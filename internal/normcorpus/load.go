package normcorpus

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/coursegen-backend/internal/domain"
)

// Parse decodes one corpus document. JSON is accepted since it is valid YAML.
func Parse(data []byte) (domain.NormCorpus, error) {
	var c domain.NormCorpus
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return domain.NormCorpus{}, fmt.Errorf("%w: %v", ErrInvalidCorpus, err)
	}
	return c, nil
}

func LoadFile(path string) (domain.NormCorpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.NormCorpus{}, fmt.Errorf("read %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return domain.NormCorpus{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

// LoadDir loads every *.yaml, *.yml and *.json file in dir, in file name order.
func LoadDir(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read norms dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	corpora := make([]domain.NormCorpus, 0, len(names))
	for _, name := range names {
		c, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		corpora = append(corpora, c)
	}
	return NewRegistry(corpora...)
}
