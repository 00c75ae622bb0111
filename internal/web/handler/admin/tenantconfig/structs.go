package tenantconfig

import (
	"time"

	"github.com/supplyconnect/supplyconnect/internal/db/models"
)

// DirectoryRequest is the body of PUT /admin/directory. Password is sealed
// before it is stored; an empty password keeps the stored credential.
type DirectoryRequest struct {
	ID             uint64                   `json:"id"`
	Global         bool                     `json:"global"`
	Name           string                   `json:"name"             validate:"max=100"`
	Server         string                   `json:"server"           validate:"required,max=255"`
	Port           int                      `json:"port"             validate:"gte=0,lte=65535"`
	Security       models.TransportSecurity `json:"security"         validate:"omitempty,oneof=none starttls ssl"`
	SkipVerify     bool                     `json:"skip_verify"`
	BindDN         string                   `json:"bind_dn"          validate:"max=255"`
	Password       string                   `json:"password"` //nolint:gosec
	BaseDN         string                   `json:"base_dn"          validate:"required,max=500"`
	UserSearchBase string                   `json:"user_search_base" validate:"max=500"`
	UserFilter     string                   `json:"user_filter"      validate:"max=500"`
	UsernameAttr   string                   `json:"username_attr"    validate:"max=100"`
	FirstNameAttr  string                   `json:"first_name_attr"  validate:"max=100"`
	LastNameAttr   string                   `json:"last_name_attr"   validate:"max=100"`
	EmailAttr      string                   `json:"email_attr"       validate:"max=100"`
	UPNSuffix      string                   `json:"upn_suffix"       validate:"max=255"`
	GroupFilter    string                   `json:"group_filter"     validate:"max=500"`
	UserSyncFilter string                   `json:"user_sync_filter" validate:"max=500"`
	TimeoutSeconds int                      `json:"timeout_seconds"  validate:"gte=0"`
	Active         bool                     `json:"active"`
}

func (r *DirectoryRequest) model(tenantID string) *models.TenantDirectoryConfig {
	return &models.TenantDirectoryConfig{
		ID:             r.ID,
		TenantID:       tenantID,
		IsGlobal:       r.Global,
		Name:           r.Name,
		Server:         r.Server,
		Port:           r.Port,
		Security:       r.Security,
		SkipVerify:     r.SkipVerify,
		BindDN:         r.BindDN,
		BaseDN:         r.BaseDN,
		UserSearchBase: r.UserSearchBase,
		UserFilter:     r.UserFilter,
		UsernameAttr:   r.UsernameAttr,
		FirstNameAttr:  r.FirstNameAttr,
		LastNameAttr:   r.LastNameAttr,
		EmailAttr:      r.EmailAttr,
		UPNSuffix:      r.UPNSuffix,
		GroupFilter:    r.GroupFilter,
		UserSyncFilter: r.UserSyncFilter,
		TimeoutSeconds: r.TimeoutSeconds,
		Active:         r.Active,
	}
}

// MailRelayRequest is the body of PUT /admin/mail-relay.
type MailRelayRequest struct {
	ID             uint64                   `json:"id"`
	Global         bool                     `json:"global"`
	Name           string                   `json:"name"            validate:"max=100"`
	Host           string                   `json:"host"            validate:"required,max=255"`
	Port           int                      `json:"port"            validate:"gte=0,lte=65535"`
	Encryption     models.TransportSecurity `json:"encryption"      validate:"omitempty,oneof=none starttls ssl"`
	Username       string                   `json:"username"        validate:"max=255"`
	Password       string                   `json:"password"` //nolint:gosec
	FromEmail      string                   `json:"from_email"      validate:"required,email"`
	FromName       string                   `json:"from_name"       validate:"max=100"`
	TimeoutSeconds int                      `json:"timeout_seconds" validate:"gte=0"`
	Active         bool                     `json:"active"`
}

func (r *MailRelayRequest) model(tenantID string) *models.MailRelayConfig {
	return &models.MailRelayConfig{
		ID:             r.ID,
		TenantID:       tenantID,
		IsGlobal:       r.Global,
		Name:           r.Name,
		Host:           r.Host,
		Port:           r.Port,
		Encryption:     r.Encryption,
		Username:       r.Username,
		FromEmail:      r.FromEmail,
		FromName:       r.FromName,
		TimeoutSeconds: r.TimeoutSeconds,
		Active:         r.Active,
	}
}

// TestRequest selects the row to test. Without an ID the effective
// configuration of the tenant is tested.
type TestRequest struct {
	ID     uint64 `json:"id"`
	Global bool   `json:"global"`
}

// Status is the JSON view of a saved configuration row. Credentials are never returned.
type Status struct {
	ID              uint64     `json:"id"`
	TenantID        string     `json:"tenant,omitempty"`
	Global          bool       `json:"global"`
	Name            string     `json:"name"`
	Server          string     `json:"server"`
	Active          bool       `json:"active"`
	CredentialSet   bool       `json:"credential_set"`
	LastTestAt      *time.Time `json:"last_test_at,omitempty"`
	LastTestOK      bool       `json:"last_test_ok"`
	LastTestMessage string     `json:"last_test_message,omitempty"`
}

func directoryStatus(c *models.TenantDirectoryConfig) Status {
	return Status{
		ID:              c.ID,
		TenantID:        c.TenantID,
		Global:          c.IsGlobal,
		Name:            c.Name,
		Server:          c.URL(),
		Active:          c.Active,
		CredentialSet:   c.BindCredential != "",
		LastTestAt:      c.LastTestAt,
		LastTestOK:      c.LastTestOK,
		LastTestMessage: c.LastTestMessage,
	}
}

func mailRelayStatus(c *models.MailRelayConfig) Status {
	return Status{
		ID:              c.ID,
		TenantID:        c.TenantID,
		Global:          c.IsGlobal,
		Name:            c.Name,
		Server:          c.Addr(),
		Active:          c.Active,
		CredentialSet:   c.Credential != "",
		LastTestAt:      c.LastTestAt,
		LastTestOK:      c.LastTestOK,
		LastTestMessage: c.LastTestMessage,
	}
}
