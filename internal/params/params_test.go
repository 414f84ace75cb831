package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse_SingleLine(t *testing.T) {
	p := Parse("a cat, Steps: 20, CFG scale: 7.5, Sampler: Euler, Seed: 42")

	assert.Equal(t, "a cat", p.Prompt)
	assert.Equal(t, "20", p.Steps)
	assert.Equal(t, "7.5", p.CFGScale)
	assert.Equal(t, "Euler", p.Sampler)
	assert.Equal(t, "42", p.Seed)
}

func TestParse_A1111Layout(t *testing.T) {
	text := "masterpiece, best quality, a cat on a mat\n" +
		"Negative prompt: blurry, low quality\n" +
		"Steps: 30, Sampler: DPM++ 2M Karras, CFG scale: 7, Seed: 1234567, Clip skip: 2, Model: sd_xl_base_1.0"

	p := Parse(text)
	assert.Equal(t, "masterpiece, best quality, a cat on a mat", p.Prompt)
	assert.Equal(t, "blurry, low quality", p.NegativePrompt)
	assert.Equal(t, "30", p.Steps)
	assert.Equal(t, "DPM++ 2M Karras", p.Sampler)
	assert.Equal(t, "7", p.CFGScale)
	assert.Equal(t, "1234567", p.Seed)
	assert.Equal(t, "2", p.ClipSkip)
	assert.Equal(t, "sd_xl_base_1.0", p.Model)
}

func TestParse_ExplicitPromptLabel(t *testing.T) {
	text := "Prompt: a dog in the rain\nSteps: 15"

	p := Parse(text)
	assert.Equal(t, "a dog in the rain", p.Prompt)
	assert.Equal(t, "15", p.Steps)
}

func TestParse_MultilineNegativePrompt(t *testing.T) {
	text := "a forest\n" +
		"Negative prompt: ugly\n" +
		"deformed hands\n" +
		"Steps: 25"

	p := Parse(text)
	assert.Equal(t, "a forest", p.Prompt)
	assert.Equal(t, "ugly\ndeformed hands", p.NegativePrompt)
	assert.Equal(t, "25", p.Steps)
}

func TestParse_NegativeLabelOnFirstLine(t *testing.T) {
	p := Parse("Negative prompt: blurry\nSteps: 10")

	assert.Empty(t, p.Prompt)
	assert.Equal(t, "blurry", p.NegativePrompt)
	assert.Equal(t, "10", p.Steps)
}

func TestParse_FirstKeyOccurrenceWins(t *testing.T) {
	p := Parse("a cat\nSteps: 20, Steps: 99, Model hash: abc123, Model: real_model")

	assert.Equal(t, "20", p.Steps)
	// "Model hash" and "Model" normalize to the same field.
	assert.Equal(t, "abc123", p.Model)
}

func TestParse_KeyAliases(t *testing.T) {
	p := Parse("x\nCFG: 4, Sampler name: DDIM, clip_skip: 2")

	assert.Equal(t, "4", p.CFGScale)
	assert.Equal(t, "DDIM", p.Sampler)
	assert.Equal(t, "2", p.ClipSkip)
}

func TestParse_UnparsableNumberKeptRaw(t *testing.T) {
	p := Parse("x\nSteps: twenty, Seed: abcdef")

	assert.Equal(t, "twenty", p.Steps)
	assert.Equal(t, "abcdef", p.Seed)
}

func TestParse_EmptyInput(t *testing.T) {
	assert.Equal(t, Params{}, Parse(""))
	assert.Equal(t, Params{}, Parse("   \n  \t"))
}
