package directory

import (
	"context"
	"slices"
	"strings"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"

	"github.com/supplyconnect/supplyconnect/internal/db/models"
)

// Attributes requested by the sync fetches.
var (
	groupAttributes = []string{ //nolint:gochecknoglobals
		"cn", "name", "description", "distinguishedName", "member", "sAMAccountName",
	}
	// profile attributes read besides the tenant's attribute mapping
	userProfileAttributes = []string{ //nolint:gochecknoglobals
		"displayName", "department", "title", "distinguishedName",
	}
)

// GroupEntry is a directory group as read by FetchGroups.
type GroupEntry struct {
	DN          string
	Name        string
	AccountName string
	Description string
	// Members are the DNs listed in the member attribute.
	Members []string
}

// UserEntry is a directory person as read by FetchUsers.
type UserEntry struct {
	DN          string
	Username    string
	FirstName   string
	LastName    string
	DisplayName string
	Email       string
	Department  string
	Title       string
}

// FetchGroups reads every group object below the base DN of cfg.
func (c *Connector) FetchGroups(ctx context.Context, cfg *models.TenantDirectoryConfig) ([]GroupEntry, error) {
	entries, err := c.pagedSearch(ctx, cfg, cfg.BaseDN, filterOrDefault(cfg.GroupFilter, models.DefaultGroupFilter), groupAttributes)
	if err != nil {
		return nil, err
	}

	groups := make([]GroupEntry, 0, len(entries))

	for _, entry := range entries {
		name := entry.GetEqualFoldAttributeValue("cn")
		if name == "" {
			name = entry.GetEqualFoldAttributeValue("name")
		}

		groups = append(groups, GroupEntry{
			DN:          entryDN(entry),
			Name:        name,
			AccountName: entry.GetEqualFoldAttributeValue("sAMAccountName"),
			Description: entry.GetEqualFoldAttributeValue("description"),
			Members:     entry.GetEqualFoldAttributeValues("member"),
		})
	}

	return groups, nil
}

// FetchUsers reads every person below the user search base of cfg through the
// tenant's attribute mapping, so mirrors carry the same username a login
// reconciles. Entries without a login name are skipped.
func (c *Connector) FetchUsers(ctx context.Context, cfg *models.TenantDirectoryConfig) ([]UserEntry, error) {
	mapping := MappingFor(cfg)

	entries, err := c.pagedSearch(ctx, cfg, cfg.UserBase(),
		filterOrDefault(cfg.UserSyncFilter, models.DefaultUserSyncFilter), mapping.userAttributes())
	if err != nil {
		return nil, err
	}

	users := make([]UserEntry, 0, len(entries))

	for _, entry := range entries {
		username := strings.TrimSpace(entry.GetEqualFoldAttributeValue(mapping.Username))
		if username == "" {
			log.Debug().Str("dn", entry.DN).Str("attribute", mapping.Username).Msg("skipping directory person without login name")
			continue
		}

		users = append(users, UserEntry{
			DN:          entryDN(entry),
			Username:    username,
			FirstName:   entry.GetEqualFoldAttributeValue(mapping.FirstName),
			LastName:    entry.GetEqualFoldAttributeValue(mapping.LastName),
			DisplayName: entry.GetEqualFoldAttributeValue("displayName"),
			Email:       entry.GetEqualFoldAttributeValue(mapping.Email),
			Department:  entry.GetEqualFoldAttributeValue("department"),
			Title:       entry.GetEqualFoldAttributeValue("title"),
		})
	}

	return users, nil
}

// userAttributes is the mapped attribute list plus the profile attributes.
func (m AttributeMapping) userAttributes() []string {
	attrs := m.Attributes()

	for _, a := range userProfileAttributes {
		if !slices.ContainsFunc(attrs, func(b string) bool { return strings.EqualFold(a, b) }) {
			attrs = append(attrs, a)
		}
	}

	return attrs
}

func (c *Connector) pagedSearch(
	ctx context.Context,
	cfg *models.TenantDirectoryConfig,
	base, filter string,
	attributes []string,
) ([]*ldap.Entry, error) {
	var entries []*ldap.Entry

	err := c.withServiceBind(ctx, cfg, func(conn Conn) error {
		req := ldap.NewSearchRequest(
			base,
			ldap.ScopeWholeSubtree,
			ldap.NeverDerefAliases,
			0,
			0,
			false,
			filter,
			attributes,
			nil,
		)

		result, err := conn.SearchWithPaging(req, c.pageSize)
		if err != nil {
			return translate("search "+filter, err)
		}

		entries = result.Entries

		return nil
	})

	return entries, err
}

// entryDN prefers the distinguishedName attribute, which keeps the server's spelling.
func entryDN(entry *ldap.Entry) string {
	if dn := entry.GetEqualFoldAttributeValue("distinguishedName"); dn != "" {
		return dn
	}

	return entry.DN
}

func filterOrDefault(filter, fallback string) string {
	if strings.TrimSpace(filter) == "" {
		return fallback
	}

	return filter
}
