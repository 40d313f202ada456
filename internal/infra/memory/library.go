package memory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"live-trivia-service/internal/domain"
)

// LibraryFile is the on-disk format of a quiz library.
type LibraryFile struct {
	Quizzes []domain.Quiz `yaml:"quizzes"`
}

// LoadLibraryFile reads and validates a YAML quiz library, keyed by quiz id.
func LoadLibraryFile(path string, limits domain.QuizLimits) (map[string]domain.Quiz, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read quiz library: %w", err)
	}
	return ParseLibrary(data, limits)
}

// ParseLibrary decodes a YAML quiz library.
func ParseLibrary(data []byte, limits domain.QuizLimits) (map[string]domain.Quiz, error) {
	var file LibraryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode quiz library: %w", err)
	}
	quizzes := make(map[string]domain.Quiz, len(file.Quizzes))
	for i, quiz := range file.Quizzes {
		if quiz.ID == "" {
			return nil, fmt.Errorf("quiz %d: %w", i, domain.Invalid("id", "must not be empty"))
		}
		if _, dup := quizzes[quiz.ID]; dup {
			return nil, fmt.Errorf("quiz %q: %w", quiz.ID, domain.Invalid("id", "duplicate id"))
		}
		if err := quiz.Validate(limits); err != nil {
			return nil, fmt.Errorf("quiz %q: %w", quiz.ID, err)
		}
		quizzes[quiz.ID] = quiz
	}
	return quizzes, nil
}
