package dirsync

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/supplyconnect/supplyconnect/internal/db/models"
	"github.com/supplyconnect/supplyconnect/internal/directory"
)

func upsertGroups(tx *gorm.DB, tenantID string, groups []directory.GroupEntry, report *Report) error {
	var existing []models.DirectoryGroupMirror
	if err := tx.Where("tenant_id = ?", tenantID).Find(&existing).Error; err != nil {
		return fmt.Errorf("failed to load group mirrors: %w", err)
	}

	byDN := make(map[string]*models.DirectoryGroupMirror, len(existing))
	for i := range existing {
		byDN[dnKey(existing[i].DistinguishedName)] = &existing[i]
	}

	now := time.Now()
	seen := make(map[string]struct{}, len(groups))

	for _, g := range groups {
		key := dnKey(g.DN)
		if key == "" {
			continue
		}

		if _, dup := seen[key]; dup {
			continue
		}

		seen[key] = struct{}{}

		if row, ok := byDN[key]; ok {
			err := tx.Model(row).Updates(map[string]any{
				"name":         g.Name,
				"account_name": g.AccountName,
				"description":  g.Description,
				"member_count": len(g.Members),
				"active":       true,
				"last_sync_at": now,
			}).Error
			if err != nil {
				return fmt.Errorf("failed to update group %q: %w", g.DN, err)
			}

			report.Updated++

			continue
		}

		row := models.DirectoryGroupMirror{
			TenantID:          tenantID,
			DistinguishedName: g.DN,
			Name:              g.Name,
			AccountName:       g.AccountName,
			Description:       g.Description,
			MemberCount:       len(g.Members),
			Active:            true,
			LastSyncAt:        &now,
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create group %q: %w", g.DN, err)
		}

		report.Created++
	}

	var stale []uint64

	for key, row := range byDN {
		if _, ok := seen[key]; !ok && row.Active {
			stale = append(stale, row.ID)
		}
	}

	if len(stale) > 0 {
		if err := tx.Model(&models.DirectoryGroupMirror{}).Where("id IN ?", stale).Update("active", false).Error; err != nil {
			return fmt.Errorf("failed to deactivate groups: %w", err)
		}

		report.Deactivated = len(stale)
	}

	return nil
}

func upsertUsers(tx *gorm.DB, tenantID string, users []directory.UserEntry, report *Report) error {
	var existing []models.DirectoryUserMirror
	if err := tx.Where("tenant_id = ?", tenantID).Find(&existing).Error; err != nil {
		return fmt.Errorf("failed to load user mirrors: %w", err)
	}

	byDN := make(map[string]*models.DirectoryUserMirror, len(existing))
	for i := range existing {
		byDN[dnKey(existing[i].DistinguishedName)] = &existing[i]
	}

	now := time.Now()
	seen := make(map[string]struct{}, len(users))

	for _, u := range users {
		key := dnKey(u.DN)
		if key == "" {
			continue
		}

		if _, dup := seen[key]; dup {
			continue
		}

		seen[key] = struct{}{}

		if row, ok := byDN[key]; ok {
			err := tx.Model(row).Updates(map[string]any{
				"username":     u.Username,
				"first_name":   u.FirstName,
				"last_name":    u.LastName,
				"display_name": u.DisplayName,
				"email":        u.Email,
				"department":   u.Department,
				"title":        u.Title,
				"active":       true,
				"last_sync_at": now,
			}).Error
			if err != nil {
				return fmt.Errorf("failed to update user %q: %w", u.DN, err)
			}

			report.Updated++

			continue
		}

		row := models.DirectoryUserMirror{
			TenantID:          tenantID,
			DistinguishedName: u.DN,
			Username:          u.Username,
			FirstName:         u.FirstName,
			LastName:          u.LastName,
			DisplayName:       u.DisplayName,
			Email:             u.Email,
			Department:        u.Department,
			Title:             u.Title,
			Active:            true,
			LastSyncAt:        &now,
		}
		if err := tx.Omit("Groups").Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create user %q: %w", u.DN, err)
		}

		report.Created++
	}

	var stale []uint64

	for key, row := range byDN {
		if _, ok := seen[key]; !ok && row.Active {
			stale = append(stale, row.ID)
		}
	}

	if len(stale) > 0 {
		if err := tx.Model(&models.DirectoryUserMirror{}).Where("id IN ?", stale).Update("active", false).Error; err != nil {
			return fmt.Errorf("failed to deactivate users: %w", err)
		}

		report.Deactivated = len(stale)
	}

	return nil
}

type link struct {
	user  uint64
	group uint64
}

func replaceMemberships(tx *gorm.DB, tenantID string, groups []directory.GroupEntry, report *Report) error {
	var groupRows []models.DirectoryGroupMirror
	if err := tx.Where("tenant_id = ?", tenantID).Find(&groupRows).Error; err != nil {
		return fmt.Errorf("failed to load group mirrors: %w", err)
	}

	var userRows []models.DirectoryUserMirror
	if err := tx.Where("tenant_id = ?", tenantID).Find(&userRows).Error; err != nil {
		return fmt.Errorf("failed to load user mirrors: %w", err)
	}

	groupByDN := make(map[string]uint64, len(groupRows))
	for _, g := range groupRows {
		groupByDN[dnKey(g.DistinguishedName)] = g.ID
	}

	userByDN := make(map[string]uint64, len(userRows))
	for _, u := range userRows {
		userByDN[dnKey(u.DistinguishedName)] = u.ID
	}

	desired := make(map[link]struct{})

	for _, g := range groups {
		groupID, ok := groupByDN[dnKey(g.DN)]
		if !ok {
			log.Debug().Str("tenant", tenantID).Str("dn", g.DN).Msg("group not mirrored yet, skipping its members")
			continue
		}

		for _, member := range g.Members {
			if userID, found := userByDN[dnKey(member)]; found {
				desired[link{user: userID, group: groupID}] = struct{}{}
			}
		}
	}

	var current []models.DirectoryMembership

	err := tx.Model(&models.DirectoryMembership{}).
		Joins("JOIN directory_user_mirrors ON directory_user_mirrors.id = directory_memberships.directory_user_mirror_id").
		Where("directory_user_mirrors.tenant_id = ?", tenantID).
		Find(&current).Error
	if err != nil {
		return fmt.Errorf("failed to load memberships: %w", err)
	}

	existing := make(map[link]struct{}, len(current))
	changed := make(map[uint64]struct{})

	for _, m := range current {
		l := link{user: m.DirectoryUserMirrorID, group: m.DirectoryGroupMirrorID}
		existing[l] = struct{}{}

		if _, keep := desired[l]; keep {
			continue
		}

		err = tx.Where("directory_user_mirror_id = ? AND directory_group_mirror_id = ?", l.user, l.group).
			Delete(&models.DirectoryMembership{}).Error
		if err != nil {
			return fmt.Errorf("failed to remove membership: %w", err)
		}

		changed[l.user] = struct{}{}
		report.Deactivated++
	}

	for l := range desired {
		if _, ok := existing[l]; ok {
			continue
		}

		err = tx.Create(&models.DirectoryMembership{DirectoryUserMirrorID: l.user, DirectoryGroupMirrorID: l.group}).Error
		if err != nil {
			return fmt.Errorf("failed to add membership: %w", err)
		}

		changed[l.user] = struct{}{}
		report.Created++
	}

	report.Updated = len(changed)

	return nil
}
