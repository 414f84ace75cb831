package promptgraph

import (
	"math"
	"strconv"
	"strings"
)

// LoraEntry is one LoRA discovered on the sampler's model chain.
type LoraEntry struct {
	Name          string
	StrengthModel *float64
	StrengthClip  *float64
}

// Resolved is the outcome of walking a graph from its active sampler.
// Numeric fields are nil when no literal was reachable; sentinel
// substitution happens downstream.
type Resolved struct {
	PositivePrompt string
	NegativePrompt string
	Steps          *float64
	CFGScale       *float64
	Sampler        string
	Seed           string
	Model          string
	ClipSkip       *float64
	Loras          []LoraEntry
}

// Candidate input keys, in lookup order. Ordering is policy, not
// incidental: the first present key wins.
var (
	positiveKeys    = []string{"positive", "positive_conditioning"}
	negativeKeys    = []string{"negative", "negative_conditioning"}
	stepsKeys       = []string{"steps"}
	cfgKeys         = []string{"cfg", "cfg_scale"}
	samplerNameKeys = []string{"sampler_name"}
	seedKeys        = []string{"seed", "noise_seed"}
	textKeys        = []string{"text", "value"}
	modelEdgeKeys   = []string{"model", "clip", "unet"}
	checkpointKeys  = []string{"ckpt_name", "checkpoint", "model_name", "unet_name", "base_ckpt_name"}
	clipSkipKeys    = []string{"stop_at_clip_layer", "clip_skip"}
	constantKeys    = []string{"value", "number", "float", "int", "seed", "string"}
)

// Resolve walks the graph from its active sampler node. Returns nil when
// no sampler-like node exists.
func Resolve(g Graph) *Resolved {
	samplerID, ok := findSampler(g)
	if !ok {
		return nil
	}
	sampler := g[samplerID]

	// Positive and negative resolution each get their own visited set,
	// so one cannot short-circuit the other.
	r := &Resolved{
		PositivePrompt: strings.TrimSpace(resolveText(g, firstInput(sampler, positiveKeys), make(map[string]bool))),
		NegativePrompt: strings.TrimSpace(resolveText(g, firstInput(sampler, negativeKeys), make(map[string]bool))),
		Steps:          resolveNumber(g, sampler, stepsKeys),
		CFGScale:       resolveNumber(g, sampler, cfgKeys),
		Sampler:        resolveString(g, sampler, samplerNameKeys),
		Seed:           resolveString(g, sampler, seedKeys),
	}
	walkModelChain(g, sampler, r)
	return r
}

// findSampler scans nodes in deterministic order, twice: first for a
// sampler with a positive input (graphs can hold auxiliary or disabled
// sampler nodes that must not win), then for any sampler at all.
func findSampler(g Graph) (string, bool) {
	ids := sortedIDs(g)
	for _, id := range ids {
		n := g[id]
		if Classify(n.ClassType) == KindSampler && firstInput(n, positiveKeys) != nil {
			return id, true
		}
	}
	for _, id := range ids {
		if Classify(g[id].ClassType) == KindSampler {
			return id, true
		}
	}
	return "", false
}

func firstInput(n Node, keys []string) Value {
	for _, k := range keys {
		if v, ok := n.Inputs[k]; ok {
			return v
		}
	}
	return nil
}

// resolveText recursively collects prompt text from a value. Re-entering
// an already-visited node short-circuits to the empty string.
func resolveText(g Graph, v Value, visited map[string]bool) string {
	switch t := v.(type) {
	case Literal:
		return literalDisplay(t.Val)
	case NodeRef:
		if visited[t.Target] {
			return ""
		}
		visited[t.Target] = true
		node, ok := g[t.Target]
		if !ok {
			return ""
		}
		if Classify(node.ClassType) == KindTextSource {
			if tv := firstInput(node, textKeys); tv != nil {
				return resolveText(g, tv, visited)
			}
		}
		// Generic node: gather every non-CLIP input.
		var parts []string
		for _, k := range sortedKeys(node.Inputs) {
			if strings.Contains(strings.ToLower(k), "clip") {
				continue
			}
			if s := resolveText(g, node.Inputs[k], visited); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case List:
		var parts []string
		for _, e := range t {
			if s := resolveText(g, e, visited); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case Object:
		var parts []string
		for _, k := range sortedKeys(t) {
			if s := resolveText(g, t[k], visited); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

// resolveLiteral follows node references through constant-like nodes
// until it reaches a literal, or nil if none is reachable.
func resolveLiteral(g Graph, v Value, visited map[string]bool) any {
	switch t := v.(type) {
	case Literal:
		return t.Val
	case NodeRef:
		if visited[t.Target] {
			return nil
		}
		visited[t.Target] = true
		node, ok := g[t.Target]
		if !ok {
			return nil
		}
		for _, key := range constantKeys {
			if iv, ok := node.Inputs[key]; ok {
				return resolveLiteral(g, iv, visited)
			}
		}
		// Single-input nodes pass their one value through.
		if len(node.Inputs) == 1 {
			for _, iv := range node.Inputs {
				return resolveLiteral(g, iv, visited)
			}
		}
	}
	return nil
}

func resolveNumber(g Graph, n Node, keys []string) *float64 {
	v := firstInput(n, keys)
	if v == nil {
		return nil
	}
	return toFloat(resolveLiteral(g, v, make(map[string]bool)))
}

func resolveString(g Graph, n Node, keys []string) string {
	v := firstInput(n, keys)
	if v == nil {
		return ""
	}
	return literalDisplay(resolveLiteral(g, v, make(map[string]bool)))
}

// walkModelChain performs an iterative depth-first walk over the
// model/clip/unet edges upstream of the sampler, collecting the
// checkpoint name, clip-skip, and every LoRA loader on the way. LoRA
// stacks arbitrarily far upstream are all discovered.
func walkModelChain(g Graph, sampler Node, r *Resolved) {
	visited := make(map[string]bool)
	var stack []string
	push := func(n Node) {
		// Reversed so the first edge key is explored first.
		for i := len(modelEdgeKeys) - 1; i >= 0; i-- {
			if ref, ok := n.Inputs[modelEdgeKeys[i]].(NodeRef); ok {
				stack = append(stack, ref.Target)
			}
		}
	}
	push(sampler)

	var groups [][]LoraEntry
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		node, ok := g[id]
		if !ok {
			continue
		}
		if r.Model == "" {
			if v := firstInput(node, checkpointKeys); v != nil {
				r.Model = literalDisplay(resolveLiteral(g, v, make(map[string]bool)))
			}
		}
		if r.ClipSkip == nil {
			if v := firstInput(node, clipSkipKeys); v != nil {
				r.ClipSkip = toFloat(resolveLiteral(g, v, make(map[string]bool)))
			}
		}
		if Classify(node.ClassType) == KindLoraLoader {
			if entries := loraEntries(g, node); len(entries) > 0 {
				groups = append(groups, entries)
			}
		}
		push(node)
	}

	// The walk visits sampler-outward; report upstream-to-sampler.
	for i := len(groups) - 1; i >= 0; i-- {
		r.Loras = append(r.Loras, groups[i]...)
	}
}

func loraEntries(g Graph, node Node) []LoraEntry {
	if stack, ok := node.Inputs["lora_stack"]; ok {
		if entries := loraStackEntries(stack); len(entries) > 0 {
			return entries
		}
	}
	name := ""
	if v := firstInput(node, []string{"lora_name", "lora"}); v != nil {
		name = literalDisplay(resolveLiteral(g, v, make(map[string]bool)))
	}
	if name == "" {
		return nil
	}
	entry := LoraEntry{Name: name}
	if v := firstInput(node, []string{"strength_model", "model_strength"}); v != nil {
		entry.StrengthModel = toFloat(resolveLiteral(g, v, make(map[string]bool)))
	}
	if v := firstInput(node, []string{"strength_clip", "clip_strength"}); v != nil {
		entry.StrengthClip = toFloat(resolveLiteral(g, v, make(map[string]bool)))
	}
	return []LoraEntry{entry}
}

// loraStackEntries decodes a lora_stack input: a list of
// [name, strengthModel, strengthClip] tuples or equivalent objects.
func loraStackEntries(v Value) []LoraEntry {
	list, ok := v.(List)
	if !ok {
		return nil
	}
	var out []LoraEntry
	for _, item := range list {
		switch t := item.(type) {
		case List:
			if len(t) == 0 {
				continue
			}
			name := literalIn(t[0])
			if name == "" {
				continue
			}
			entry := LoraEntry{Name: name}
			if len(t) > 1 {
				entry.StrengthModel = floatIn(t[1])
			}
			if len(t) > 2 {
				entry.StrengthClip = floatIn(t[2])
			}
			out = append(out, entry)
		case Object:
			name := literalIn(firstObjectValue(t, "lora_name", "name", "lora"))
			if name == "" {
				continue
			}
			entry := LoraEntry{Name: name}
			entry.StrengthModel = floatIn(firstObjectValue(t, "strength_model", "model_strength"))
			entry.StrengthClip = floatIn(firstObjectValue(t, "strength_clip", "clip_strength"))
			out = append(out, entry)
		}
	}
	return out
}

func firstObjectValue(o Object, keys ...string) Value {
	for _, k := range keys {
		if v, ok := o[k]; ok {
			return v
		}
	}
	return nil
}

func literalIn(v Value) string {
	if lit, ok := v.(Literal); ok {
		return literalDisplay(lit.Val)
	}
	return ""
}

func floatIn(v Value) *float64 {
	if lit, ok := v.(Literal); ok {
		return toFloat(lit.Val)
	}
	return nil
}

// literalDisplay renders a literal as trimmed display text. Integral
// floats render without a decimal point.
func literalDisplay(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

// toFloat coerces a resolved literal to a finite float, accepting
// numeric strings. Returns nil for everything else.
func toFloat(v any) *float64 {
	switch t := v.(type) {
	case int64:
		f := float64(t)
		return &f
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}
		f := t
		return &f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return &f
	}
	return nil
}
