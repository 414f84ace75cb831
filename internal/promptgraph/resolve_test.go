package promptgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) Graph {
	t.Helper()
	g, err := ParseGraph([]byte(raw))
	require.NoError(t, err)
	return g
}

func TestParseGraph(t *testing.T) {
	g := mustParse(t, `{
		"3": {"class_type": "KSampler", "inputs": {"seed": 42, "model": ["4", 0]}},
		"4": {"class_type": "CheckpointLoaderSimple", "inputs": {"ckpt_name": "sd15.safetensors"}},
		"junk": "not a node"
	}`)

	require.Len(t, g, 2)
	assert.Equal(t, "KSampler", g["3"].ClassType)
	assert.Equal(t, Literal{Val: int64(42)}, g["3"].Inputs["seed"])
	assert.Equal(t, NodeRef{Target: "4", Output: 0}, g["3"].Inputs["model"])
}

func TestParseGraph_Invalid(t *testing.T) {
	_, err := ParseGraph([]byte("not json"))
	assert.Error(t, err)

	_, err = ParseGraph([]byte(`[1, 2, 3]`))
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindSampler, Classify("KSampler"))
	assert.Equal(t, KindSampler, Classify("KSamplerAdvanced"))
	assert.Equal(t, KindTextSource, Classify("CLIPTextEncode"))
	assert.Equal(t, KindLoraLoader, Classify("LoraLoader"))
	assert.Equal(t, KindLoraLoader, Classify("CR LoRA Stack"))
	assert.Equal(t, KindClipSkip, Classify("CLIPSetLastLayer"))
	assert.Equal(t, KindOther, Classify("VAEDecode"))
}

func TestResolve_FullGraph(t *testing.T) {
	g := mustParse(t, `{
		"1": {"class_type": "CheckpointLoaderSimple", "inputs": {"ckpt_name": "sd_xl_base_1.0.safetensors"}},
		"2": {"class_type": "LoraLoader", "inputs": {
			"model": ["1", 0], "clip": ["1", 1],
			"lora_name": "detail_tweaker.safetensors",
			"strength_model": 0.8, "strength_clip": 0.7}},
		"3": {"class_type": "LoraLoader", "inputs": {
			"model": ["2", 0], "clip": ["2", 1],
			"lora_name": "style_boost.safetensors",
			"strength_model": 1.0}},
		"4": {"class_type": "CLIPTextEncode", "inputs": {"text": "a cat on a mat", "clip": ["3", 1]}},
		"5": {"class_type": "CLIPTextEncode", "inputs": {"text": "blurry, low quality", "clip": ["3", 1]}},
		"6": {"class_type": "KSampler", "inputs": {
			"model": ["3", 0],
			"positive": ["4", 0], "negative": ["5", 0],
			"steps": 20, "cfg": 7.5, "sampler_name": "euler", "seed": 42}}
	}`)

	r := Resolve(g)
	require.NotNil(t, r)
	assert.Equal(t, "a cat on a mat", r.PositivePrompt)
	assert.Equal(t, "blurry, low quality", r.NegativePrompt)
	require.NotNil(t, r.Steps)
	assert.Equal(t, 20.0, *r.Steps)
	require.NotNil(t, r.CFGScale)
	assert.Equal(t, 7.5, *r.CFGScale)
	assert.Equal(t, "euler", r.Sampler)
	assert.Equal(t, "42", r.Seed)
	assert.Equal(t, "sd_xl_base_1.0.safetensors", r.Model)

	// Chained loaders report upstream-to-sampler: node 2 feeds node 3.
	require.Len(t, r.Loras, 2)
	assert.Equal(t, "detail_tweaker.safetensors", r.Loras[0].Name)
	require.NotNil(t, r.Loras[0].StrengthModel)
	assert.Equal(t, 0.8, *r.Loras[0].StrengthModel)
	require.NotNil(t, r.Loras[0].StrengthClip)
	assert.Equal(t, 0.7, *r.Loras[0].StrengthClip)
	assert.Equal(t, "style_boost.safetensors", r.Loras[1].Name)
	assert.Nil(t, r.Loras[1].StrengthClip)
}

func TestResolve_CycleSafety(t *testing.T) {
	// A's positive references B; B's text references A.
	g := mustParse(t, `{
		"A": {"class_type": "KSampler", "inputs": {"positive": ["B", 0]}},
		"B": {"class_type": "CLIPTextEncode", "inputs": {"text": ["A", 0]}}
	}`)

	r := Resolve(g)
	require.NotNil(t, r)
	assert.Equal(t, "", r.PositivePrompt)
}

func TestResolve_PrefersSamplerWithPositiveInput(t *testing.T) {
	// Node 1 is an auxiliary sampler with no conditioning; node 9 is the
	// active one and must win despite its later id.
	g := mustParse(t, `{
		"1": {"class_type": "KSampler", "inputs": {"steps": 99}},
		"8": {"class_type": "CLIPTextEncode", "inputs": {"text": "the real prompt"}},
		"9": {"class_type": "KSampler", "inputs": {"positive": ["8", 0], "steps": 12}}
	}`)

	r := Resolve(g)
	require.NotNil(t, r)
	assert.Equal(t, "the real prompt", r.PositivePrompt)
	require.NotNil(t, r.Steps)
	assert.Equal(t, 12.0, *r.Steps)
}

func TestResolve_ScalarsThroughConstantNodes(t *testing.T) {
	g := mustParse(t, `{
		"1": {"class_type": "PrimitiveNode", "inputs": {"value": 35}},
		"2": {"class_type": "Seed Generator", "inputs": {"seed": 777}},
		"3": {"class_type": "KSampler", "inputs": {
			"positive": ["4", 0], "steps": ["1", 0], "noise_seed": ["2", 0]}},
		"4": {"class_type": "CLIPTextEncode", "inputs": {"text": "x"}}
	}`)

	r := Resolve(g)
	require.NotNil(t, r)
	require.NotNil(t, r.Steps)
	assert.Equal(t, 35.0, *r.Steps)
	assert.Equal(t, "777", r.Seed)
}

func TestResolve_ClipSkipOnClipChain(t *testing.T) {
	g := mustParse(t, `{
		"1": {"class_type": "CheckpointLoaderSimple", "inputs": {"ckpt_name": "base.ckpt"}},
		"2": {"class_type": "CLIPSetLastLayer", "inputs": {"clip": ["1", 1], "stop_at_clip_layer": -2}},
		"3": {"class_type": "LoraLoader", "inputs": {
			"model": ["1", 0], "clip": ["2", 0], "lora_name": "x.safetensors"}},
		"4": {"class_type": "KSampler", "inputs": {"positive": ["5", 0], "model": ["3", 0]}},
		"5": {"class_type": "CLIPTextEncode", "inputs": {"text": "y"}}
	}`)

	r := Resolve(g)
	require.NotNil(t, r)
	assert.Equal(t, "base.ckpt", r.Model)
	require.NotNil(t, r.ClipSkip)
	assert.Equal(t, -2.0, *r.ClipSkip)
}

func TestResolve_LoraStack(t *testing.T) {
	g := mustParse(t, `{
		"1": {"class_type": "CR LoRA Stack", "inputs": {
			"lora_stack": [
				["first.safetensors", 0.5, 0.4],
				{"lora_name": "second.safetensors", "strength_model": 1.2}
			]}},
		"2": {"class_type": "KSampler", "inputs": {"positive": ["3", 0], "model": ["1", 0]}},
		"3": {"class_type": "CLIPTextEncode", "inputs": {"text": "z"}}
	}`)

	r := Resolve(g)
	require.NotNil(t, r)
	require.Len(t, r.Loras, 2)
	assert.Equal(t, "first.safetensors", r.Loras[0].Name)
	require.NotNil(t, r.Loras[0].StrengthModel)
	assert.Equal(t, 0.5, *r.Loras[0].StrengthModel)
	require.NotNil(t, r.Loras[0].StrengthClip)
	assert.Equal(t, 0.4, *r.Loras[0].StrengthClip)
	assert.Equal(t, "second.safetensors", r.Loras[1].Name)
	require.NotNil(t, r.Loras[1].StrengthModel)
	assert.Equal(t, 1.2, *r.Loras[1].StrengthModel)
	assert.Nil(t, r.Loras[1].StrengthClip)
}

func TestResolve_NoSampler(t *testing.T) {
	g := mustParse(t, `{
		"1": {"class_type": "CheckpointLoaderSimple", "inputs": {"ckpt_name": "x"}}
	}`)
	assert.Nil(t, Resolve(g))
}

func TestResolve_TextThroughIntermediateNodes(t *testing.T) {
	// The positive input references a combiner node that is not
	// text-bearing; its non-CLIP inputs are concatenated.
	g := mustParse(t, `{
		"1": {"class_type": "ConditioningCombine", "inputs": {
			"conditioning_1": ["2", 0], "conditioning_2": ["3", 0], "clip": ["4", 0]}},
		"2": {"class_type": "CLIPTextEncode", "inputs": {"text": "alpha"}},
		"3": {"class_type": "CLIPTextEncode", "inputs": {"text": "beta"}},
		"4": {"class_type": "CLIPSetLastLayer", "inputs": {}},
		"5": {"class_type": "KSampler", "inputs": {"positive": ["1", 0]}}
	}`)

	r := Resolve(g)
	require.NotNil(t, r)
	assert.Equal(t, "alpha, beta", r.PositivePrompt)
}
