package file

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"timed-quiz-service/internal/domain"
)

// QuestionLoader reads question sets from disk. The path is either a single
// file (served for any set id) or a directory holding <setID>.json/.yaml files.
// A file may contain a bare array of questions or a {id, questions} object.
type QuestionLoader struct {
	path string
}

func NewQuestionLoader(path string) *QuestionLoader {
	return &QuestionLoader{path: path}
}

var extensions = []string{".json", ".yaml", ".yml"}

func (l *QuestionLoader) LoadQuestionSet(_ context.Context, setID string) (domain.QuestionSet, error) {
	path, err := l.resolve(setID)
	if err != nil {
		return domain.QuestionSet{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.QuestionSet{}, errors.Wrapf(err, "read question file %s", path)
	}
	set, err := Decode(data, filepath.Ext(path))
	if err != nil {
		return domain.QuestionSet{}, errors.Wrapf(err, "decode question file %s", path)
	}
	if set.ID == "" {
		set.ID = setID
	}
	if err := set.Validate(); err != nil {
		return domain.QuestionSet{}, err
	}
	return set, nil
}

func (l *QuestionLoader) resolve(setID string) (string, error) {
	info, err := os.Stat(l.path)
	if err != nil {
		return "", errors.Wrapf(err, "stat %s", l.path)
	}
	if !info.IsDir() {
		return l.path, nil
	}
	for _, ext := range extensions {
		candidate := filepath.Join(l.path, setID+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", errors.Wrapf(domain.ErrQuestionSetNotFound, "%s in %s", setID, l.path)
}

// Decode parses a question payload; ext selects YAML (".yaml", ".yml") or JSON.
func Decode(data []byte, ext string) (domain.QuestionSet, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		return decodeYAML(data)
	default:
		return decodeJSON(data)
	}
}

func decodeJSON(data []byte) (domain.QuestionSet, error) {
	var set domain.QuestionSet
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err := json.Unmarshal(trimmed, &set.Questions)
		return set, err
	}
	err := json.Unmarshal(trimmed, &set)
	return set, err
}

func decodeYAML(data []byte) (domain.QuestionSet, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return domain.QuestionSet{}, err
	}
	var set domain.QuestionSet
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		err := node.Decode(&set.Questions)
		return set, err
	}
	err := node.Decode(&set)
	return set, err
}
