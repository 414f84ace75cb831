// Package summary reduces the three metadata dialects (graph resolution,
// A1111 flat text, raw chunk passthrough) to one canonical display
// record with field-level source precedence.
package summary

import (
	"fmt"
	"strings"

	"github.com/ohler55/ojg/oj"

	"github.com/agentic-research/genmeta/api"
	"github.com/agentic-research/genmeta/internal/params"
	"github.com/agentic-research/genmeta/internal/promptgraph"
)

// Build is total and deterministic: every summary field is populated,
// with sentinels standing in for absent data. The resolved graph summary
// may be nil (no graph, unparsable graph, or no sampler found).
func Build(chunks map[string]string, resolved *promptgraph.Resolved, a1111 params.Params) api.Summary {
	g := resolved
	if g == nil {
		g = &promptgraph.Resolved{}
	}

	var s api.Summary

	// The raw "prompt" chunk holds the graph JSON; it only makes sense
	// as display text when graph resolution produced nothing at all.
	rawPrompt := ""
	if resolved == nil {
		rawPrompt = chunks["prompt"]
	}
	s.PositivePrompt = orSentinel(textCoalesce(g.PositivePrompt, rawPrompt, a1111.Prompt), api.SentinelNone)
	s.NegativePrompt = orSentinel(
		textCoalesce(g.NegativePrompt, chunkAt(chunks, "negative_prompt", "Negative prompt"), a1111.NegativePrompt),
		api.SentinelNone)
	s.Model = orSentinel(
		textCoalesce(g.Model, chunkAt(chunks, "model", "Model"), a1111.Model),
		api.SentinelNone)

	s.Steps = orSentinel(
		numericCoalesce(g.Steps, a1111.Steps, chunkAt(chunks, "steps", "Steps")),
		api.SentinelNone)
	s.CFGScale = orSentinel(
		numericCoalesce(g.CFGScale, a1111.CFGScale, chunkAt(chunks, "cfg_scale", "cfg")),
		api.SentinelNone)
	s.ClipSkip = orSentinel(
		numericCoalesce(g.ClipSkip, a1111.ClipSkip, chunkAt(chunks, "clip_skip")),
		api.SentinelNone)

	s.Sampler = orSentinel(
		textCoalesce(g.Sampler, chunkAt(chunks, "sampler", "Sampler"), a1111.Sampler),
		api.SentinelNone)
	s.Seed = orSentinel(
		textCoalesce(g.Seed, chunkAt(chunks, "seed", "Seed"), a1111.Seed),
		api.SentinelNone)

	s.Loras = orSentinel(
		textCoalesce(renderLoras(g.Loras), chunkAt(chunks, "loras", "lora")),
		api.SentinelNone)

	s.WorkflowSummary = workflowSummary(chunks["workflow"])
	return s
}

// textCoalesce returns the first non-blank candidate, trimmed.
func textCoalesce(candidates ...string) string {
	for _, c := range candidates {
		if t := strings.TrimSpace(c); t != "" {
			return t
		}
	}
	return ""
}

// numericCoalesce returns the first candidate carrying a finite number,
// formatted for display. Unparsable candidates are skipped, not accepted.
func numericCoalesce(candidates ...any) string {
	for _, c := range candidates {
		switch t := c.(type) {
		case *float64:
			if t != nil && isFinite(*t) {
				return formatNumber(*t)
			}
		case string:
			if f, ok := parseFinite(t); ok {
				return formatNumber(f)
			}
		}
	}
	return ""
}

func chunkAt(chunks map[string]string, keys ...string) string {
	for _, k := range keys {
		if v, ok := chunks[k]; ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func orSentinel(s, sentinel string) string {
	if s == "" {
		return sentinel
	}
	return s
}

// renderLoras joins entries as "name (model X, clip Y)", keeping only
// the strength components each entry actually carried.
func renderLoras(entries []promptgraph.LoraEntry) string {
	rendered := make([]string, 0, len(entries))
	for _, e := range entries {
		var strengths []string
		if e.StrengthModel != nil {
			strengths = append(strengths, "model "+formatNumber(*e.StrengthModel))
		}
		if e.StrengthClip != nil {
			strengths = append(strengths, "clip "+formatNumber(*e.StrengthClip))
		}
		if len(strengths) == 0 {
			rendered = append(rendered, e.Name)
			continue
		}
		rendered = append(rendered, fmt.Sprintf("%s (%s)", e.Name, strings.Join(strengths, ", ")))
	}
	return strings.Join(rendered, ", ")
}

// workflowSummary renders the node count of an embedded workflow
// payload, degrading to a countless mention when the payload exists but
// its shape is indeterminable.
func workflowSummary(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return api.SentinelNotEmbedded
	}
	n, ok := workflowNodeCount(raw)
	if !ok {
		return "Embedded workflow"
	}
	return fmt.Sprintf("Embedded workflow (%d nodes)", n)
}

func workflowNodeCount(raw string) (int, bool) {
	v, err := oj.Parse([]byte(raw))
	if err != nil {
		return 0, false
	}
	switch t := v.(type) {
	case []any:
		return len(t), true
	case map[string]any:
		if nodes, ok := t["nodes"]; ok {
			switch nt := nodes.(type) {
			case []any:
				return len(nt), true
			case map[string]any:
				return len(nt), true
			}
			return 0, false
		}
		return len(t), true
	}
	return 0, false
}
