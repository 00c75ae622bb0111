package tenant

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/supplyconnect/supplyconnect/internal/db/controller/systemdefault"
	"github.com/supplyconnect/supplyconnect/internal/db/models"
)

// MailRelayConfig returns the effective mail relay of tenantID, following the
// same own / inherit_manual / inherit_system_default rules as the directory.
func (s *Store) MailRelayConfig(ctx context.Context, tenantID string) (*models.MailRelayConfig, error) {
	grant, err := s.Grant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	source := models.SourceOwn
	if grant != nil {
		source = grant.EffectiveMailRelaySource()
	}

	db := s.db.WithContext(ctx)

	var cfg models.MailRelayConfig

	switch source {
	case models.SourceInheritManual:
		err = db.Where("is_global = ? AND active = ?", true, true).Order("id").First(&cfg).Error
	case models.SourceInheritSystemDefault:
		def, errDef := systemdefault.Get(db)
		if errors.Is(errDef, systemdefault.ErrNotFound) {
			return nil, ErrMailRelayNotConfigured
		}

		if errDef != nil {
			return nil, errDef
		}

		relay := def.MailRelayConfig()
		if !relay.Active || relay.Host == "" {
			return nil, ErrMailRelayNotConfigured
		}

		return relay, nil
	default:
		err = db.Where("tenant_id = ? AND is_global = ? AND active = ?", tenantID, false, true).
			Order("id desc").First(&cfg).Error
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: tenant %s (%s)", ErrMailRelayNotConfigured, tenantID, source)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load mail relay config: %w", err)
	}

	cfg.ApplyDefaults()

	return &cfg, nil
}

// SaveMailRelayConfig creates or updates cfg with the same rules as
// SaveDirectoryConfig. A non-empty password is sealed into Credential.
func (s *Store) SaveMailRelayConfig(ctx context.Context, cfg *models.MailRelayConfig, password string, actorID *uint64) error {
	cfg.Host = strings.TrimSpace(cfg.Host)
	cfg.FromEmail = strings.TrimSpace(cfg.FromEmail)

	if cfg.Host == "" || cfg.FromEmail == "" {
		return fmt.Errorf("%w: host and sender address are required", ErrInvalidConfig)
	}

	if err := checkScope(cfg.IsGlobal, cfg.TenantID); err != nil {
		return err
	}

	cfg.ApplyDefaults()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if cfg.ID != 0 {
			var existing models.MailRelayConfig
			if err := tx.First(&existing, cfg.ID).Error; err != nil {
				return notFound(err)
			}

			cfg.CreatedAt = existing.CreatedAt
			cfg.CreatedBy = existing.CreatedBy
			cfg.Credential = existing.Credential
		} else {
			cfg.CreatedBy = actorID
		}

		if password != "" {
			sealed, err := s.vault.Seal(password)
			if err != nil {
				return err
			}

			cfg.Credential = sealed
		}

		cfg.UpdatedBy = actorID

		if cfg.IsGlobal {
			if err := ensureSingleGlobal(tx, &models.MailRelayConfig{}, cfg.ID); err != nil {
				return err
			}
		}

		if err := tx.Save(cfg).Error; err != nil {
			return fmt.Errorf("failed to save mail relay config: %w", err)
		}

		if cfg.Active {
			return deactivateOthers(tx, &models.MailRelayConfig{}, cfg.ID, cfg.IsGlobal, cfg.TenantID)
		}

		return nil
	})
}

// RecordMailRelayTest stores the outcome of a relay test on the row.
func (s *Store) RecordMailRelayTest(ctx context.Context, id uint64, testErr error) error {
	return recordTest(s.db.WithContext(ctx), &models.MailRelayConfig{}, id, testErr)
}

// TestMailRelay connects to the relay of cfg, negotiates TLS as configured and
// authenticates when a username is set. No mail is sent.
func (s *Store) TestMailRelay(ctx context.Context, cfg *models.MailRelayConfig) error {
	password, err := s.vault.OpenStrict(cfg.Credential)
	if err != nil {
		return fmt.Errorf("relay credential: %w", err)
	}

	timeout := cfg.Timeout()
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		timeout = time.Until(deadline)
	}

	tlsConfig := &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	dialer := &net.Dialer{Timeout: timeout}

	var conn net.Conn
	if cfg.Encryption == models.SecuritySSL {
		conn, err = tls.DialWithDialer(dialer, "tcp", cfg.Addr(), tlsConfig)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", cfg.Addr())
	}

	if err != nil {
		return fmt.Errorf("%w: %s", ErrMailRelayFailed, err.Error())
	}

	_ = conn.SetDeadline(time.Now().Add(timeout))

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("%w: %s", ErrMailRelayFailed, err.Error())
	}

	defer func() { _ = client.Close() }()

	if cfg.Encryption == models.SecurityStartTLS {
		if ok, _ := client.Extension("STARTTLS"); !ok {
			return fmt.Errorf("%w: server does not offer STARTTLS", ErrMailRelayFailed)
		}

		if err = client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("%w: starttls: %s", ErrMailRelayFailed, err.Error())
		}
	}

	if cfg.Username != "" {
		if err = client.Auth(smtp.PlainAuth("", cfg.Username, password, cfg.Host)); err != nil {
			return fmt.Errorf("%w: auth: %s", ErrMailRelayFailed, err.Error())
		}
	}

	if err = client.Quit(); err != nil {
		return fmt.Errorf("%w: quit: %s", ErrMailRelayFailed, err.Error())
	}

	return nil
}

// MailRelayConfigs lists every mail relay row of tenantID, active or not.
// An empty tenantID lists the global rows.
func (s *Store) MailRelayConfigs(ctx context.Context, tenantID string) ([]models.MailRelayConfig, error) {
	var configs []models.MailRelayConfig

	q := s.db.WithContext(ctx).Order("id")
	if tenantID == "" {
		q = q.Where("is_global = ?", true)
	} else {
		q = q.Where("tenant_id = ? AND is_global = ?", tenantID, false)
	}

	if err := q.Find(&configs).Error; err != nil {
		return nil, fmt.Errorf("failed to list mail relay configs: %w", err)
	}

	return configs, nil
}
