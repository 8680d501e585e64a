// Package zones holds the read-only registry of parent domains this service may
// provision under, together with the provider credentials of each zone.
package zones

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"
	"golang.org/x/net/idna"
)

// Zone is a provider-side container for the records of one parent domain.
type Zone struct {
	ParentDomain string
	ZoneID       string
	APIKey       string
	Email        string
}

// Defaults supplies credentials for zone entries that omit them.
type Defaults struct {
	APIKey string
	Email  string
}

// entry is the on-disk shape of one zone, keyed by parent domain.
type entry struct {
	ZoneID string `yaml:"zone_id"`
	APIKey string `yaml:"api_key"`
	Email  string `yaml:"email"`
}

// Registry maps normalized parent domains to zones. It is immutable once built.
type Registry struct {
	zones map[string]Zone
}

// New builds a registry from zones. Parent domains are trimmed, lowercased
// and converted to their ASCII (punycode) form.
func New(zs ...Zone) (*Registry, error) {
	r := &Registry{zones: make(map[string]Zone, len(zs))}
	for _, z := range zs {
		raw := z.ParentDomain
		z.ParentDomain = normalize(raw)
		if z.ParentDomain == "" {
			return nil, errors.New("zone with empty parent domain")
		}
		ascii, err := idna.ToASCII(z.ParentDomain)
		if err != nil {
			return nil, fmt.Errorf("zone %s: invalid domain name: %w", raw, err)
		}
		z.ParentDomain = ascii
		if z.ZoneID == "" || z.APIKey == "" {
			return nil, fmt.Errorf("zone %s: zone_id and api_key are required", z.ParentDomain)
		}
		if _, dup := r.zones[z.ParentDomain]; dup {
			return nil, fmt.Errorf("zone %s: defined more than once", z.ParentDomain)
		}
		r.zones[z.ParentDomain] = z
	}
	return r, nil
}

// LoadFile reads a zone file mapping parent domains to
// {zone_id, api_key, email?}. Both JSON and YAML are accepted.
//
// A missing file yields an empty registry and found=false so the caller can
// log it; an unreadable or malformed file is an error.
func LoadFile(path string, defaults Defaults) (reg *Registry, found bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		empty, _ := New()
		return empty, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read zone file: %w", err)
	}

	var raw map[string]entry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, true, fmt.Errorf("failed to parse zone file %s: %w", path, err)
	}

	zs := make([]Zone, 0, len(raw))
	for domain, e := range raw {
		z := Zone{ParentDomain: domain, ZoneID: e.ZoneID, APIKey: e.APIKey, Email: e.Email}
		if z.APIKey == "" {
			z.APIKey = defaults.APIKey
		}
		if z.Email == "" {
			z.Email = defaults.Email
		}
		zs = append(zs, z)
	}

	reg, err = New(zs...)
	if err != nil {
		return nil, true, fmt.Errorf("invalid zone file %s: %w", path, err)
	}
	return reg, true, nil
}

// Lookup returns the zone registered for parentDomain. The caller normalizes
// the input to lowercase ASCII; matching is exact.
func (r *Registry) Lookup(parentDomain string) (Zone, bool) {
	z, ok := r.zones[parentDomain]
	return z, ok
}

// ZoneFor re-derives the zone of a fully-qualified name by walking up its
// labels. The longest registered suffix wins; a bare parent domain does not
// match itself because it is not a subdomain.
func (r *Registry) ZoneFor(fqdn string) (Zone, bool) {
	name := normalize(fqdn)
	if ascii, err := idna.ToASCII(name); err == nil {
		name = ascii
	}
	for {
		idx := strings.Index(name, ".")
		if idx < 0 {
			return Zone{}, false
		}
		name = name[idx+1:]
		if z, ok := r.zones[name]; ok {
			return z, true
		}
	}
}

// Domains returns the registered parent domains in sorted order.
func (r *Registry) Domains() []string {
	out := make([]string, 0, len(r.zones))
	for d := range r.zones {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered zones.
func (r *Registry) Len() int {
	return len(r.zones)
}

func normalize(s string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), ".")
}
