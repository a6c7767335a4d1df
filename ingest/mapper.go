package ingest

import (
	"net/url"
	"strings"

	"newsdesk/config"

	"github.com/samber/lo"
)

// DefaultCategorySlug is used when no rule matches a feed.
const DefaultCategorySlug = "general"

// CategoryRule matches a feed by name keywords or source domains.
type CategoryRule struct {
	Slug     string
	Keywords []string
	Domains  []string
}

// Mapper maps a feed's name and URL to a best-guess category slug.
// Pure lookup against a fixed ordered table, first match wins: no
// side effects, no I/O, deterministic for the same inputs.
type Mapper struct {
	rules    []CategoryRule
	fallback string
}

// Default rule table for common newsroom sections. A config file can
// replace it entirely.
var defaultRules = []CategoryRule{
	{Slug: "technology", Keywords: []string{"tech", "technology", "software", "developer", "programming"}},
	{Slug: "business", Keywords: []string{"business", "finance", "economy", "market"}},
	{Slug: "sports", Keywords: []string{"sport", "sports", "football", "soccer"}},
	{Slug: "science", Keywords: []string{"science", "research", "space"}},
	{Slug: "culture", Keywords: []string{"culture", "art", "music", "film", "books"}},
	{Slug: "events", Keywords: []string{"event", "events", "calendar", "agenda"}},
}

// NewMapper builds a mapper from the default rule table.
func NewMapper() *Mapper {
	return &Mapper{rules: defaultRules, fallback: DefaultCategorySlug}
}

// NewMapperFromConfig builds a mapper from TOML category rules,
// falling back to the defaults when the config has none.
func NewMapperFromConfig(cfg *config.TomlConfig) *Mapper {
	mapper := NewMapper()
	if cfg == nil {
		return mapper
	}
	if cfg.CategoryFallback != "" {
		mapper.fallback = cfg.CategoryFallback
	}
	if len(cfg.Categories) > 0 {
		mapper.rules = lo.Map(cfg.Categories, func(rule config.TomlCategoryRule, _ int) CategoryRule {
			return CategoryRule{Slug: rule.Slug, Keywords: rule.Keywords, Domains: rule.Domains}
		})
	}
	return mapper
}

// Map returns the slug of the first rule matching the feed name or
// source URL, or the fallback slug when nothing matches.
func (m *Mapper) Map(name, sourceURL string) string {
	loweredName := strings.ToLower(name)
	host := hostOf(sourceURL)

	for _, rule := range m.rules {
		matchesKeyword := lo.SomeBy(rule.Keywords, func(kw string) bool {
			kw = strings.ToLower(kw)
			return kw != "" && (strings.Contains(loweredName, kw) || strings.Contains(host, kw))
		})
		matchesDomain := lo.SomeBy(rule.Domains, func(domain string) bool {
			domain = strings.ToLower(domain)
			return domain != "" && (host == domain || strings.HasSuffix(host, "."+domain))
		})
		if matchesKeyword || matchesDomain {
			return rule.Slug
		}
	}

	return m.fallback
}

func hostOf(sourceURL string) string {
	parsed, err := url.Parse(sourceURL)
	if err != nil || parsed.Host == "" {
		return strings.ToLower(sourceURL)
	}
	return strings.ToLower(parsed.Hostname())
}
