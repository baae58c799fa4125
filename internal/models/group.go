package models

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Group struct {
	BaseModel
	Name       string       `json:"name" gorm:"type:varchar(150);not null"`
	AccessCode string       `json:"accessCode" gorm:"type:varchar(32);not null;uniqueIndex:idx_groups_access_code"`
	OwnerOrgID uuid.UUID    `json:"ownerOrgID" gorm:"type:uuid;not null;index"`
	Owner      Organization `json:"-" gorm:"foreignKey:OwnerOrgID;constraint:OnDelete:CASCADE"`
	Notices    []Notice     `json:"-" gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE"`
}

func (Group) TableName() string {
	return "groups"
}

// AfterFind coerces codes written before normalization was enforced.
func (g *Group) AfterFind(_ *gorm.DB) error {
	g.AccessCode = strings.ToUpper(strings.TrimSpace(g.AccessCode))
	return nil
}
