package providers

import "strings"

// ProviderRef is one entry of a provider list such as "groq:main|mock".
// KeyAlias picks the API key or model variant for the named provider.
type ProviderRef struct {
	Raw      string
	Name     string
	KeyAlias string
}

// ParseProviderList splits a list separated by '|' or ','. Names are
// lower-cased and exact duplicates dropped. An empty list falls back to mock
// so the service always starts.
func ParseProviderList(raw string) []ProviderRef {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == '|' || r == ',' })
	seen := make(map[string]bool, len(fields))
	out := make([]ProviderRef, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		name, alias, _ := strings.Cut(f, ":")
		ref := ProviderRef{
			Raw:      f,
			Name:     strings.ToLower(strings.TrimSpace(name)),
			KeyAlias: strings.TrimSpace(alias),
		}
		if ref.Name == "" {
			continue
		}
		key := ref.Name + ":" + ref.KeyAlias
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ref)
	}
	if len(out) == 0 {
		out = append(out, ProviderRef{Raw: "mock", Name: "mock"})
	}
	return out
}
