package provisioning

import (
	"net/netip"
	"slices"
	"strings"

	"github.com/miekg/dns"
	"golang.org/x/net/idna"
)

// SupportedTypes lists the record types the provider accepts from this service.
var SupportedTypes = []string{"A", "AAAA", "CNAME", "TXT", "MX", "NS", "SRV", "CAA"}

// proxiable lists the types the provider can route through its edge.
var proxiable = []string{"A", "AAAA", "CNAME"}

// NormalizeDomain trims, lowercases and IDNA-encodes a domain name and drops
// a trailing dot. It fails on anything that is not a valid host name.
func NormalizeDomain(raw string) (string, error) {
	name, err := toASCII(raw)
	if err != nil {
		return "", invalid("domain", err.Error())
	}
	if name == "" {
		return "", invalid("domain", "is required")
	}
	if !validName(name, false) {
		return "", invalid("domain", "is not a valid domain name")
	}
	return name, nil
}

// NormalizeLabel normalizes the subdomain part of a request. It may span
// several labels ("api.eu") and may start with a wildcard label.
func NormalizeLabel(raw string) (string, error) {
	label, err := toASCII(raw)
	if err != nil {
		return "", invalid("subdomain", err.Error())
	}
	if label == "" {
		return "", invalid("subdomain", "is required")
	}
	if !validName(label, true) {
		return "", invalid("subdomain", "is not a valid DNS label")
	}
	return label, nil
}

// ComposeFQDN joins a normalized subdomain and parent domain.
func ComposeFQDN(subdomain, domain string) (string, error) {
	fqdn := subdomain + "." + domain
	if _, ok := dns.IsDomainName(fqdn); !ok || len(fqdn) > 253 {
		return "", invalid("subdomain", "makes the name too long")
	}
	return fqdn, nil
}

// NormalizeName normalizes an already fully-qualified name.
func NormalizeName(raw string) (string, error) {
	name, err := toASCII(raw)
	if err != nil {
		return "", invalid("name", err.Error())
	}
	if name == "" {
		return "", invalid("name", "is required")
	}
	if !validName(name, true) {
		return "", invalid("name", "is not a valid domain name")
	}
	return name, nil
}

// NormalizeType uppercases t and checks it is a supported record type.
func NormalizeType(t string) (string, error) {
	t = strings.ToUpper(strings.TrimSpace(t))
	if t == "" {
		return "", invalid("type", "is required")
	}
	if _, known := dns.StringToType[t]; !known || !slices.Contains(SupportedTypes, t) {
		return "", invalid("type", "must be one of "+strings.Join(SupportedTypes, ", "))
	}
	return t, nil
}

// NormalizeContent checks content against the record type and returns its
// canonical form.
func NormalizeContent(recordType, raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", invalid("content", "is required")
	}

	switch recordType {
	case "A":
		addr, err := netip.ParseAddr(content)
		if err != nil || !addr.Is4() {
			return "", invalid("content", "must be an IPv4 address for A records")
		}
		return addr.String(), nil
	case "AAAA":
		addr, err := netip.ParseAddr(content)
		if err != nil || !addr.Is6() || addr.Is4In6() {
			return "", invalid("content", "must be an IPv6 address for AAAA records")
		}
		return addr.String(), nil
	case "CNAME", "NS", "MX":
		host, err := toASCII(content)
		if err != nil || !validName(host, false) || !strings.Contains(host, ".") {
			return "", invalid("content", "must be a host name for "+recordType+" records")
		}
		return host, nil
	default:
		return content, nil
	}
}

// CheckProxied rejects proxying for types the provider cannot proxy.
func CheckProxied(recordType string, proxied bool) error {
	if proxied && !slices.Contains(proxiable, recordType) {
		return invalid("proxied", "is only supported for A, AAAA and CNAME records")
	}
	return nil
}

// OwnerForms returns the spellings under which token may have been stored as
// an owner: as given, then in the canonical form NormalizeContent gives
// addresses and host names.
func OwnerForms(token string) []string {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	forms := []string{token}
	canonical := ""
	if addr, err := netip.ParseAddr(token); err == nil {
		canonical = addr.String()
	} else if host, err := toASCII(token); err == nil {
		canonical = host
	}
	if canonical != "" && canonical != token {
		forms = append(forms, canonical)
	}
	return forms
}

func toASCII(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return "", nil
	}
	return idna.ToASCII(s)
}

// validName checks LDH labels, also allowing underscores (service labels such
// as _acme-challenge) and, when wildcard is set, a leading "*" label.
func validName(name string, wildcard bool) bool {
	if _, ok := dns.IsDomainName(name); !ok || len(name) > 253 {
		return false
	}
	labels := strings.Split(name, ".")
	for i, label := range labels {
		if wildcard && i == 0 && label == "*" {
			continue
		}
		if !validLabel(label) {
			return false
		}
	}
	return true
}

func validLabel(label string) bool {
	if label == "" || len(label) > 63 {
		return false
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}
	for _, c := range label {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
