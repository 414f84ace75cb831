// Package params parses the legacy A1111 flat-text metadata convention:
// a free-form prompt, an optional "Negative prompt:" section, and a run
// of comma-separated "Key: value" pairs.
package params

import (
	"regexp"
	"strings"
)

// Params is the loose record recovered from a parameters string. All
// fields are raw trimmed text; empty means the key never appeared.
// Numeric interpretation is deferred to the coalescing layer, which
// keeps unparsable values as-is rather than dropping them.
type Params struct {
	Prompt         string
	NegativePrompt string
	Steps          string
	CFGScale       string
	Sampler        string
	Seed           string
	ClipSkip       string
	Model          string
}

var (
	promptLabelRe = regexp.MustCompile(`(?i)^[ \t]*prompt:[ \t]*`)
	negLabelRe    = regexp.MustCompile(`(?im)^[ \t]*negative prompt:[ \t]*`)
	keyLabelRe    = regexp.MustCompile(`(?i)^[ \t]*[a-z][a-z0-9_ -]*:`)
	kvRe          = regexp.MustCompile(`([A-Za-z][A-Za-z0-9_ ]*?):[ \t]*([^,\n]*)`)
)

type region struct{ start, end int }

func inRegions(regions []region, pos int) bool {
	for _, r := range regions {
		if pos >= r.start && pos < r.end {
			return true
		}
	}
	return false
}

// Parse never fails: unparsable input yields an empty record.
func Parse(text string) Params {
	var p Params
	if strings.TrimSpace(text) == "" {
		return p
	}

	lines := strings.Split(text, "\n")
	offsets := make([]int, len(lines))
	off := 0
	for i, ln := range lines {
		offsets[i] = off
		off += len(ln) + 1
	}

	// Regions already consumed as prompt text, excluded from the
	// key/value scan below.
	var exclude []region

	// Prompt: an explicit "prompt:" line wins; otherwise the first line,
	// unless that line is itself the negative-prompt label. In the
	// single-line form ("a cat, Steps: 20") the prompt ends where the
	// first recognized key begins.
	labeled := false
	for i, ln := range lines {
		if loc := promptLabelRe.FindStringIndex(ln); loc != nil {
			p.Prompt = strings.TrimSpace(ln[loc[1]:])
			exclude = append(exclude, region{offsets[i], offsets[i] + len(ln)})
			labeled = true
			break
		}
	}
	if !labeled && !negLabelRe.MatchString(lines[0]) {
		prompt, end := cutAtParams(lines[0])
		p.Prompt = prompt
		exclude = append(exclude, region{0, end})
	}

	// Negative prompt: spans from its label to the next Key: label line
	// or end of text.
	if loc := negLabelRe.FindStringIndex(text); loc != nil {
		end := loc[1]
		for i, ln := range strings.Split(text[loc[1]:], "\n") {
			if i > 0 {
				if keyLabelRe.MatchString(ln) {
					break
				}
				end++ // the newline
			}
			end += len(ln)
		}
		p.NegativePrompt = strings.TrimSpace(text[loc[1]:end])
		exclude = append(exclude, region{loc[0], end})
	}

	// Single repeated key/value scan over everything not already
	// consumed. First occurrence of each field wins.
	seen := make(map[string]bool)
	for _, m := range kvRe.FindAllStringSubmatchIndex(text, -1) {
		if inRegions(exclude, m[0]) {
			continue
		}
		field := fieldFor(text[m[2]:m[3]])
		if field == "" || seen[field] {
			continue
		}
		seen[field] = true
		val := strings.TrimSpace(text[m[4]:m[5]])
		switch field {
		case "steps":
			p.Steps = val
		case "cfg":
			p.CFGScale = val
		case "sampler":
			p.Sampler = val
		case "seed":
			p.Seed = val
		case "clipskip":
			p.ClipSkip = val
		case "model":
			p.Model = val
		}
	}
	return p
}

// cutAtParams truncates a prompt line at the first recognized key/value
// pair, returning the prompt and the byte offset where it ended.
func cutAtParams(line string) (string, int) {
	end := len(line)
	for _, m := range kvRe.FindAllStringSubmatchIndex(line, -1) {
		if fieldFor(line[m[2]:m[3]]) != "" {
			end = m[0]
			break
		}
	}
	return strings.TrimSpace(strings.TrimRight(line[:end], " \t,")), end
}

// fieldFor maps a raw key to its field, after lowercasing and stripping
// non-alphanumerics. Unrecognized keys map to "".
func fieldFor(key string) string {
	switch normalizeKey(key) {
	case "steps":
		return "steps"
	case "cfgscale", "cfg":
		return "cfg"
	case "sampler", "samplername", "schedule":
		return "sampler"
	case "seed":
		return "seed"
	case "clipskip":
		return "clipskip"
	case "model", "modelhash", "modelname":
		return "model"
	}
	return ""
}

func normalizeKey(key string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(key) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
