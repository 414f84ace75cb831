package promptgraph

import (
	"regexp"
	"strings"
)

// Kind is the resolution role of a node type.
type Kind int

const (
	KindOther Kind = iota
	KindSampler
	KindTextSource
	KindLoraLoader
	KindClipSkip
)

// samplerTypes is the allowlist of sampler-like class types. Membership
// is policy: these are the node types whose inputs carry the prompt,
// model chain, and sampling parameters.
var samplerTypes = map[string]bool{
	"KSampler":              true,
	"KSamplerAdvanced":      true,
	"KSampler (Efficient)":  true,
	"SamplerCustom":         true,
	"SamplerCustomAdvanced": true,
}

// textSourceTypes are node types whose own text/value input holds prompt
// text directly.
var textSourceTypes = map[string]bool{
	"CLIPTextEncode":            true,
	"CLIPTextEncodeSDXL":        true,
	"CLIPTextEncodeSDXLRefiner": true,
	"Text Multiline":            true,
	"ShowText|pysssss":          true,
	"StringConstant":            true,
	"PrimitiveString":           true,
	"ttN text":                  true,
}

var loraLoaderRe = regexp.MustCompile(`(?i)lora[ _]?(loader|stack)`)

var clipSkipTypes = map[string]bool{
	"CLIPSetLastLayer": true,
}

// Classify maps a raw class_type to its resolution role. Computed once
// per lookup rather than re-derived ad hoc at call sites.
func Classify(classType string) Kind {
	switch {
	case samplerTypes[classType] || strings.Contains(classType, "KSampler"):
		return KindSampler
	case textSourceTypes[classType]:
		return KindTextSource
	case loraLoaderRe.MatchString(classType):
		return KindLoraLoader
	case clipSkipTypes[classType]:
		return KindClipSkip
	}
	return KindOther
}
