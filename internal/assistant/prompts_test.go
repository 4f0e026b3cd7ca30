package assistant

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPrompts(t *testing.T) {
	p := DefaultPrompts()
	assert.Contains(t, p.SystemGuardrails, "Retail Insights Assistant")
	assert.Contains(t, p.PlannerInstructions, "Return ONLY valid JSON")
	assert.Len(t, p.FewShotHints, 2)
}

func TestLoadPromptsEmptyPath(t *testing.T) {
	p, err := LoadPrompts("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPrompts(), p)
}

func TestLoadPromptsOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	content := "narrator_instructions: Answer in French.\nfew_shot_hints:\n  - custom hint\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	p, err := LoadPrompts(path)
	require.NoError(t, err)

	assert.Equal(t, "Answer in French.", p.NarratorInstructions)
	assert.Equal(t, []string{"custom hint"}, p.FewShotHints)
	// Untouched keys keep their defaults.
	assert.Equal(t, DefaultPrompts().SystemGuardrails, p.SystemGuardrails)
}

func TestLoadPromptsMissingFile(t *testing.T) {
	_, err := LoadPrompts("/nonexistent/prompts.yaml")
	assert.Error(t, err)
}
