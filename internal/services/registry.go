package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/noticeboard/backend/internal/models"
	"github.com/noticeboard/backend/pkg/accesscode"
	"gorm.io/gorm"
)

const maxGroupNameLength = 150

// GroupRegistry owns group records. Access codes live in one global namespace
// enforced by the unique index on groups.access_code.
type GroupRegistry struct {
	DB      *gorm.DB
	Timeout time.Duration
}

func NewGroupRegistry(db *gorm.DB, timeout time.Duration) *GroupRegistry {
	return &GroupRegistry{DB: db, Timeout: timeout}
}

type BulkGroupEntry struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// GroupDeletion is what DeleteGroup removed.
type GroupDeletion struct {
	Group          models.Group
	NoticesRemoved int64
}

func normalizeGroupInput(name, code string) (string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", invalid("name", "is required")
	}
	if len(name) > maxGroupNameLength {
		return "", "", invalid("name", "is too long")
	}

	code = accesscode.Normalize(code)
	if code == "" {
		return "", "", invalid("code", "is required")
	}
	if !accesscode.Valid(code) {
		return "", "", invalid("code", "must be 2-32 characters of A-Z, 0-9, '-' or '_'")
	}
	return name, code, nil
}

func (r *GroupRegistry) CreateGroup(ctx context.Context, ownerOrgID uuid.UUID, name, proposedCode string) (*models.Group, error) {
	name, code, err := normalizeGroupInput(name, proposedCode)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	group := models.Group{
		Name:       name,
		AccessCode: code,
		OwnerOrgID: ownerOrgID,
	}
	if err := r.DB.WithContext(ctx).Create(&group).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, &DuplicateCodeError{Code: code}
		}
		return nil, storeError(ctx, "group_create", err)
	}

	return &group, nil
}

// CreateGroupsBulk inserts every entry with both a name and a code, or none of
// them. Entries with a blank field are dropped first; nothing left to insert
// is a successful no-op.
func (r *GroupRegistry) CreateGroupsBulk(ctx context.Context, ownerOrgID uuid.UUID, entries []BulkGroupEntry) ([]models.Group, error) {
	groups := make([]models.Group, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))

	for _, entry := range entries {
		if strings.TrimSpace(entry.Name) == "" || strings.TrimSpace(entry.Code) == "" {
			continue
		}
		name, code, err := normalizeGroupInput(entry.Name, entry.Code)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[code]; dup {
			return nil, &DuplicateCodeError{Code: code}
		}
		seen[code] = struct{}{}
		groups = append(groups, models.Group{
			Name:       name,
			AccessCode: code,
			OwnerOrgID: ownerOrgID,
		})
	}

	if len(groups) == 0 {
		return groups, nil
	}

	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&groups).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, &DuplicateCodeError{Code: r.firstTakenCode(ctx, groups)}
		}
		return nil, storeError(ctx, "group_bulk_create", err)
	}

	return groups, nil
}

// firstTakenCode looks up which code of a failed batch already exists. It is
// best effort and only used to make the error message useful.
func (r *GroupRegistry) firstTakenCode(ctx context.Context, groups []models.Group) string {
	codes := make([]string, len(groups))
	for i := range groups {
		codes[i] = groups[i].AccessCode
	}

	var taken []string
	if err := r.DB.WithContext(ctx).
		Model(&models.Group{}).
		Where("access_code IN ?", codes).
		Pluck("access_code", &taken).Error; err != nil || len(taken) == 0 {
		return ""
	}

	takenSet := make(map[string]struct{}, len(taken))
	for _, code := range taken {
		takenSet[code] = struct{}{}
	}
	for _, code := range codes {
		if _, ok := takenSet[code]; ok {
			return code
		}
	}
	return ""
}

// ListGroups returns the organization's groups, newest first.
func (r *GroupRegistry) ListGroups(ctx context.Context, ownerOrgID uuid.UUID) ([]models.Group, error) {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	groups := []models.Group{}
	if err := r.DB.WithContext(ctx).
		Where("owner_org_id = ?", ownerOrgID).
		Order("created_at DESC").
		Order("name ASC").
		Find(&groups).Error; err != nil {
		return nil, storeError(ctx, "group_list", err)
	}
	return groups, nil
}

// OwnedGroup loads a group only if ownerOrgID owns it. A missing group and a
// foreign one are indistinguishable to the caller.
func (r *GroupRegistry) OwnedGroup(ctx context.Context, ownerOrgID, groupID uuid.UUID) (*models.Group, error) {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	var group models.Group
	err := r.DB.WithContext(ctx).First(&group, "id = ? AND owner_org_id = ?", groupID, ownerOrgID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFoundOrNotOwned
		}
		return nil, storeError(ctx, "group_lookup", err)
	}
	return &group, nil
}

// DeleteGroup removes an owned group and all of its notices in one
// transaction. Callers are expected to have confirmed the deletion.
func (r *GroupRegistry) DeleteGroup(ctx context.Context, ownerOrgID, groupID uuid.UUID) (*GroupDeletion, error) {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	var deletion GroupDeletion
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&deletion.Group, "id = ? AND owner_org_id = ?", groupID, ownerOrgID).Error; err != nil {
			return err
		}

		res := tx.Where("group_id = ?", groupID).Delete(&models.Notice{})
		if res.Error != nil {
			return res.Error
		}
		deletion.NoticesRemoved = res.RowsAffected

		res = tx.Where("id = ? AND owner_org_id = ?", groupID, ownerOrgID).Delete(&models.Group{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFoundOrNotOwned
		}
		return nil, storeError(ctx, "group_delete", err)
	}

	return &deletion, nil
}

// CodeTaken reports whether a normalized code is already assigned. It only
// informs suggestions; CreateGroup still relies on the unique index.
func (r *GroupRegistry) CodeTaken(ctx context.Context, code string) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	var count int64
	if err := r.DB.WithContext(ctx).
		Model(&models.Group{}).
		Where("access_code = ?", accesscode.Normalize(code)).
		Count(&count).Error; err != nil {
		return false, storeError(ctx, "group_code_lookup", err)
	}
	return count > 0, nil
}
