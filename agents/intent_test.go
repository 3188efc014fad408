package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectMode(t *testing.T) {
	cases := []struct {
		input string
		want  Mode
	}{
		{"What is a ForeignKey?", ModeAnswer},
		{"Explain the models in blog/models.py", ModeAnswer},
		{"How does select_related work", ModeAnswer},
		{"Should I use class based views?", ModeAnswer},
		{"difference between null and blank", ModeAnswer},
		{"Create an Article model", ModeAction},
		{"add a Comment model to blog/models.py", ModeAction},
		{"blog/views.py: list view for posts", ModeAction},
		{"Write a form and explain why it validates", ModeAnswer},
		{"Implement a DRF serializer for Post", ModeAction},
		{"tell me about middleware", ModeAnswer},
		{"", ModeAnswer},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DetectMode(tc.input), tc.input)
	}
}

func TestDetectModeMatchesWholeWords(t *testing.T) {
	// "codebase" and "explains" must not trigger either list.
	assert.Equal(t, ModeAnswer, DetectMode("the codebase explains itself"))
	assert.Equal(t, ModeAction, DetectMode("Generate a view that explains the error"))
}

func TestExtractTargetPath(t *testing.T) {
	cases := map[string]string{
		"add a model to blog/models.py":           "blog/models.py",
		"update `app/urls.py` with a detail route": "app/urls.py",
		`write "templates/base.html" please`:       "templates/base.html",
		"put it in static/site.css.":               "static/site.css",
		"create views.py, then urls.py":            "views.py",
		"no file here":                             "",
		"compiled models.pyc":                      "",
		"(see notes.txt)":                          "notes.txt",
	}
	for input, want := range cases {
		assert.Equal(t, want, ExtractTargetPath(input), input)
	}
}

func TestProfileFor(t *testing.T) {
	assert.InDelta(t, 0.2, ProfileFor(ModeAnswer).Temperature, 1e-9)
	assert.InDelta(t, 0.1, ProfileFor(ModeAction).Temperature, 1e-9)
	assert.True(t, ProfileFor(ModeAction).ToolScope.AllowWrite)
	assert.False(t, ProfileFor(ModeAnswer).ToolScope.AllowWrite)
	assert.Equal(t, ModeAnswer, ProfileFor("unknown").Name)
}
