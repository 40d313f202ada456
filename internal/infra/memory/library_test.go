package memory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"live-trivia-service/internal/domain"
)

const libraryYAML = `
quizzes:
  - id: capitals
    title: Capitals
    questions:
      - text: Capital of France?
        options: [Paris, Rome, Madrid]
        correctAnswer: 0
        timeLimit: 20
      - text: Capital of Japan?
        options: [Osaka, Tokyo]
        correctAnswer: 1
        timeLimit: 15
        explanation: Tokyo has been the capital since 1869.
`

func TestLoadLibraryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.yaml")
	require.NoError(t, os.WriteFile(path, []byte(libraryYAML), 0o600))

	quizzes, err := LoadLibraryFile(path, domain.DefaultQuizLimits)
	require.NoError(t, err)
	require.Contains(t, quizzes, "capitals")

	quiz := quizzes["capitals"]
	assert.Equal(t, "Capitals", quiz.Title)
	require.Len(t, quiz.Questions, 2)
	assert.Equal(t, 1, quiz.Questions[1].CorrectAnswer)
	assert.Equal(t, 15, quiz.Questions[1].TimeLimit)
	assert.NotEmpty(t, quiz.Questions[1].Explanation)
}

func TestParseLibraryRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "missing id", yaml: "quizzes:\n  - title: x\n    questions: []\n"},
		{name: "invalid quiz", yaml: "quizzes:\n  - id: a\n    title: x\n    questions: []\n"},
		{name: "bad yaml", yaml: "quizzes: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLibrary([]byte(tt.yaml), domain.DefaultQuizLimits)
			assert.Error(t, err)
		})
	}
}

func TestLoadLibraryFileMissing(t *testing.T) {
	_, err := LoadLibraryFile(filepath.Join(t.TempDir(), "nope.yaml"), domain.DefaultQuizLimits)
	assert.Error(t, err)
}
