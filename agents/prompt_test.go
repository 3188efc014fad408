package agents

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPromptSections(t *testing.T) {
	prompt := BuildPrompt(PromptInput{
		Request:     "  add a Comment model to blog/models.py ",
		Context:     "Models are Python classes.",
		FilePath:    "blog/models.py",
		FileContent: "class Post(models.Model):\n    pass\n",
		Mode:        ModeAction,
	})
	assert.True(t, strings.HasPrefix(prompt, "You are a Django coding assistant."))
	assert.Contains(t, prompt, "--- CONTEXT ---\nModels are Python classes.\n--- END CONTEXT ---")
	assert.Contains(t, prompt, "--- EXISTING FILE: blog/models.py ---\nclass Post(models.Model):\n    pass\n--- END FILE ---")
	assert.Contains(t, prompt, "Selected mode: ACTION MODE")
	assert.True(t, strings.HasSuffix(prompt, "User Request:\nadd a Comment model to blog/models.py"))

	ctxAt := strings.Index(prompt, "--- CONTEXT ---")
	fileAt := strings.Index(prompt, "--- EXISTING FILE")
	reqAt := strings.Index(prompt, "User Request:")
	assert.Less(t, ctxAt, fileAt)
	assert.Less(t, fileAt, reqAt)
}

func TestBuildPromptOmitsEmptySections(t *testing.T) {
	prompt := BuildPrompt(PromptInput{Request: "what is a queryset"})
	assert.NotContains(t, prompt, "--- CONTEXT ---")
	assert.NotContains(t, prompt, "--- EXISTING FILE")
	assert.Contains(t, prompt, "Selected mode: ANSWER MODE")
}
