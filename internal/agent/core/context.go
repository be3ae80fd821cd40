package core

import (
	"fmt"
	"regexp"
	"strings"
)

// UploadAlias is the reference for a sole uploaded Pricing2Yaml document.
// With multiple uploads the aliases become "uploaded://pricing/1",
// "uploaded://pricing/2" and so on.
const UploadAlias = "uploaded://pricing"

var (
	urlPattern       = regexp.MustCompile(`https?://[^\s"'<>]+`)
	urlPrefixPattern = regexp.MustCompile(`^https?://[^\s"'<>]+`)
)

// ContextRegistry tracks every pricing context available to a question:
// remote pricing URLs plus uploaded YAML documents addressed by alias.
type ContextRegistry struct {
	urls    []string
	aliases []string
	uploads map[string]string
}

// NewContextRegistry builds a registry from deduplicated URLs and uploaded
// YAML contents. Empty uploads are skipped; a single upload keeps the plain
// alias while several get numbered ones.
func NewContextRegistry(urls []string, yamlContents []string) *ContextRegistry {
	reg := &ContextRegistry{
		urls:    deduplicateStrings(urls),
		uploads: make(map[string]string),
	}
	var kept []string
	for _, content := range yamlContents {
		if strings.TrimSpace(content) == "" {
			continue
		}
		kept = append(kept, content)
	}
	if len(kept) == 1 {
		reg.aliases = []string{UploadAlias}
		reg.uploads[UploadAlias] = kept[0]
		return reg
	}
	for i, content := range kept {
		alias := fmt.Sprintf("%s/%d", UploadAlias, i+1)
		reg.aliases = append(reg.aliases, alias)
		reg.uploads[alias] = content
	}
	return reg
}

// URLs returns the known pricing URLs in request order.
func (r *ContextRegistry) URLs() []string { return r.urls }

// Aliases returns the upload aliases in request order.
func (r *ContextRegistry) Aliases() []string { return r.aliases }

// Upload resolves an alias to its YAML content.
func (r *ContextRegistry) Upload(alias string) (string, bool) {
	content, ok := r.uploads[alias]
	return content, ok
}

// Total counts every available pricing context.
func (r *ContextRegistry) Total() int { return len(r.urls) + len(r.aliases) }

// HasUploads reports whether any uploaded document is registered.
func (r *ContextRegistry) HasUploads() bool { return len(r.aliases) > 0 }

// References lists every usable reference, URLs first.
func (r *ContextRegistry) References() []string {
	refs := make([]string, 0, r.Total())
	refs = append(refs, r.urls...)
	refs = append(refs, r.aliases...)
	return refs
}

// IsKnown reports whether ref names a registered URL or upload alias.
func (r *ContextRegistry) IsKnown(ref string) bool {
	for _, u := range r.urls {
		if u == ref {
			return true
		}
	}
	_, ok := r.uploads[ref]
	return ok
}

func deduplicateStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// extractURLsFromQuestion pulls every http(s) URL mentioned in free text.
func extractURLsFromQuestion(question string) []string {
	return deduplicateStrings(urlPattern.FindAllString(question, -1))
}

// looksLikeURL accepts ad hoc references that start like an http(s) URL.
func looksLikeURL(ref string) bool {
	return urlPrefixPattern.MatchString(strings.TrimSpace(ref))
}
