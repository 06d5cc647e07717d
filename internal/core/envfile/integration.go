package envfile

import "strings"

// =============================================================================
// Optional Integrations
// =============================================================================

// Field is an extra value an integration asks for, with a default offered to
// the operator.
type Field struct {
	Key     string
	Label   string
	Default string
}

// Integration describes an optional sync target the scanner can push
// results to. It is configured through a URL, an auth value and an
// enabled flag.
type Integration struct {
	Name         string
	URLKey       string
	AuthKey      string
	EnabledKey   string
	Placeholders []string // URL values shipped as defaults in the template
	Extra        []Field
}

// Integrations lists the optional integrations in the order they are offered.
var Integrations = []Integration{
	{
		Name:         "SiliconFlow Balancer",
		URLKey:       KeyBalancerURL,
		AuthKey:      KeyBalancerAuth,
		EnabledKey:   KeyBalancerEnabled,
		Placeholders: []string{"http://localhost:3000"},
	},
	{
		Name:       "GPT Load Balancer",
		URLKey:     KeyGPTLoadURL,
		AuthKey:    KeyGPTLoadAuth,
		EnabledKey: KeyGPTLoadEnabled,
		Extra: []Field{
			{Key: KeyGPTLoadGroupName, Label: "group name", Default: "siliconflow"},
		},
	},
}

// NeedsSetup reports whether the integration's URL in f is unset or still a
// template placeholder.
func (i Integration) NeedsSetup(f *File) bool {
	url := strings.TrimSpace(f.Value(i.URLKey))
	if url == "" {
		return true
	}
	for _, p := range i.Placeholders {
		if url == p {
			return true
		}
	}
	return false
}

// Enabled reports whether sync is switched on for the integration in f.
func (i Integration) Enabled(f *File) bool {
	return ParseBool(f.Value(i.EnabledKey))
}

// Apply writes a configured integration: URL, auth, enabled=true and any
// extra fields, in that order.
func (i Integration) Apply(f *File, url, auth string, extra map[string]string) {
	f.Set(i.URLKey, url)
	f.Set(i.AuthKey, auth)
	f.Set(i.EnabledKey, "true")
	for _, field := range i.Extra {
		v := extra[field.Key]
		if v == "" {
			v = field.Default
		}
		f.Set(field.Key, v)
	}
}
