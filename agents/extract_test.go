package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractCodeFromFence(t *testing.T) {
	response := "Here is the model:\n\n```python\nclass Article(models.Model):\n    title = models.CharField(max_length=200)\n```\n\nExplanation: a single title field."
	code, explanation := ExtractCode(response)
	assert.Equal(t, "class Article(models.Model):\n    title = models.CharField(max_length=200)", code)
	assert.Equal(t, "Here is the model:\n\na single title field.", explanation)
}

func TestExtractCodeExplanationInsideFence(t *testing.T) {
	response := "```python\nclass Subject(models.Model):\n    name = models.CharField(max_length=100)\n\nExplanation: This Subject model has a name.\nIt is short.\n```\n```\nadmin.site.register(Subject)\n```"
	code, explanation := ExtractCode(response)
	assert.Equal(t, "class Subject(models.Model):\n    name = models.CharField(max_length=100)\n\nadmin.site.register(Subject)", code)
	assert.Equal(t, "This Subject model has a name.\nIt is short.", explanation)
}

func TestExtractCodeTildeFenceAndMultipleBlocks(t *testing.T) {
	response := "~~~\nfrom django.db import models\n~~~\ntext\n```\nclass A(models.Model):\n    pass\n```"
	code, explanation := ExtractCode(response)
	assert.Equal(t, "from django.db import models\n\nclass A(models.Model):\n    pass", code)
	assert.Equal(t, "text", explanation)
}

func TestExtractCodeUnclosedFence(t *testing.T) {
	code, _ := ExtractCode("```py\ndef index(request):\n    return HttpResponse('ok')\n")
	assert.Equal(t, "def index(request):\n    return HttpResponse('ok')", code)
}

func TestExtractCodeWithoutFence(t *testing.T) {
	response := "Sure, here you go.\nclass Article(models.Model):\n    title = models.CharField(max_length=200)\n\n\nExplanation: This Article model has a title."
	code, explanation := ExtractCode(response)
	assert.Equal(t, "class Article(models.Model):\n    title = models.CharField(max_length=200)", code)
	assert.Equal(t, "This Article model has a title.", explanation)
}

func TestExtractCodeRecognisesCodeStarts(t *testing.T) {
	starts := []string{
		"import os",
		"from django.urls import path",
		"@admin.register(Post)",
		"urlpatterns = [",
		"{% extends 'base.html' %}",
		"{{ post.title }}",
		"<form method=\"post\">",
		"async def fetch(request):",
		"app_name = 'blog'",
	}
	for _, start := range starts {
		code, _ := ExtractCode("Intro line\n" + start + "\nExplanation: x")
		assert.Equal(t, start, code, start)
	}
}

func TestExtractCodeNothingCodeLike(t *testing.T) {
	code, explanation := ExtractCode("Models describe your data.\nThey map to tables.")
	assert.Empty(t, code)
	assert.Equal(t, "Models describe your data.\nThey map to tables.", explanation)

	code, explanation = ExtractCode("Some words.\nExplanation: nothing to write.")
	assert.Empty(t, code)
	assert.Equal(t, "nothing to write.", explanation)
}

func TestFenceStateRequiresMatchingClose(t *testing.T) {
	var f fenceState
	assert.True(t, f.processLine("````go"))
	assert.False(t, f.processLine("```"))
	assert.True(t, f.inFence)
	assert.True(t, f.processLine("````"))
	assert.False(t, f.inFence)
}
