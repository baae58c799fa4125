package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NoticeTag string

const (
	NoticeTagGeneral NoticeTag = "General"
	NoticeTagUrgent  NoticeTag = "Urgent"
	NoticeTagHoliday NoticeTag = "Holiday"
	NoticeTagEvent   NoticeTag = "Event"
)

// ParseNoticeTag accepts tags case-insensitively and defaults an empty tag to General.
func ParseNoticeTag(value string) (NoticeTag, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return NoticeTagGeneral, true
	}
	for _, tag := range []NoticeTag{NoticeTagGeneral, NoticeTagUrgent, NoticeTagHoliday, NoticeTagEvent} {
		if strings.EqualFold(string(tag), value) {
			return tag, true
		}
	}
	return "", false
}

// Notice is immutable once written, so it carries no UpdatedAt and does not
// use BaseModel. Seq breaks created_at ties in insertion order.
type Notice struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	GroupID   uuid.UUID `json:"groupID" gorm:"type:uuid;not null;index;uniqueIndex:idx_notices_group_seq"`
	Seq       int64     `json:"-" gorm:"not null;uniqueIndex:idx_notices_group_seq"`
	Title     string    `json:"title" gorm:"type:varchar(255);not null"`
	Body      string    `json:"body" gorm:"type:text;not null;default:''"`
	Tag       NoticeTag `json:"tag" gorm:"type:varchar(20);not null;default:'General'"`
	ImageRef  *string   `json:"imageRef,omitempty" gorm:"type:text;index"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null;index"`
}

func (n *Notice) BeforeCreate(_ *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	return nil
}

func (Notice) TableName() string {
	return "notices"
}
