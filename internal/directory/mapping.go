package directory

import (
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"

	"github.com/supplyconnect/supplyconnect/internal/db/models"
)

// Identity is the profile of a user that authenticated against the directory.
type Identity struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	// DN is the distinguished name of the entry the identity was read from.
	DN string
}

// AttributeMapping names the directory attributes an Identity is read from.
// Every attribute is required.
type AttributeMapping struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
}

// MappingFor returns the attribute mapping configured for a tenant.
func MappingFor(cfg *models.TenantDirectoryConfig) AttributeMapping {
	m := AttributeMapping{
		Username:  cfg.UsernameAttr,
		FirstName: cfg.FirstNameAttr,
		LastName:  cfg.LastNameAttr,
		Email:     cfg.EmailAttr,
	}

	if m.Username == "" {
		m.Username = models.DefaultUsernameAttr
	}

	if m.FirstName == "" {
		m.FirstName = models.DefaultFirstNameAttr
	}

	if m.LastName == "" {
		m.LastName = models.DefaultLastNameAttr
	}

	if m.Email == "" {
		m.Email = models.DefaultEmailAttr
	}

	return m
}

// Attributes returns the attribute list to request, without duplicates.
func (m AttributeMapping) Attributes() []string {
	out := make([]string, 0, 4)          //nolint:mnd
	seen := make(map[string]struct{}, 4) //nolint:mnd

	for _, a := range []string{m.Username, m.FirstName, m.LastName, m.Email} {
		key := strings.ToLower(a)
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}
		out = append(out, a)
	}

	return out
}

// Identity maps entry onto an Identity and fails with ErrProtocol when a mapped
// attribute is missing or empty.
func (m AttributeMapping) Identity(entry *ldap.Entry) (*Identity, error) {
	if entry == nil {
		return nil, fmt.Errorf("%w: empty search entry", ErrProtocol)
	}

	id := &Identity{DN: entry.DN}

	fields := []struct {
		attr string
		dst  *string
	}{
		{m.Username, &id.Username},
		{m.FirstName, &id.FirstName},
		{m.LastName, &id.LastName},
		{m.Email, &id.Email},
	}

	for _, f := range fields {
		v := strings.TrimSpace(entry.GetEqualFoldAttributeValue(f.attr))
		if v == "" {
			return nil, fmt.Errorf("%w: entry %q has no %s attribute", ErrProtocol, entry.DN, f.attr)
		}

		*f.dst = v
	}

	return id, nil
}

// Principal builds the bind name for username.
// Names that already carry a domain (user@domain or DOMAIN\user) are used as-is,
// otherwise the UPN suffix, or the domain spelled by the DC components of the
// base DN, is appended.
func Principal(username string, cfg *models.TenantDirectoryConfig) string {
	if strings.ContainsAny(username, `@\`) {
		return username
	}

	domain := cfg.UPNSuffix
	if domain == "" {
		domain = DomainFromBaseDN(cfg.BaseDN)
	}

	if domain == "" {
		return username
	}

	return username + "@" + domain
}

// DomainFromBaseDN turns DC=br,DC=example,DC=com into br.example.com.
// Returns "" when the DN can not be parsed or has no DC component.
func DomainFromBaseDN(baseDN string) string {
	dn, err := ldap.ParseDN(baseDN)
	if err != nil {
		return ""
	}

	var parts []string

	for _, rdn := range dn.RDNs {
		for _, attr := range rdn.Attributes {
			if strings.EqualFold(attr.Type, "DC") && attr.Value != "" {
				parts = append(parts, attr.Value)
			}
		}
	}

	return strings.Join(parts, ".")
}

// userFilter substitutes the escaped username into the filter template.
func userFilter(template, username string) string {
	if template == "" {
		template = models.DefaultUserFilter
	}

	return strings.ReplaceAll(template, models.UsernamePlaceholder, ldap.EscapeFilter(username))
}
