package models

// Organization is the tenant boundary. Its ID is the principal id handed out by
// the identity provider; everything else here belongs to the bundled password
// provider.
type Organization struct {
	BaseModel
	Name         string  `json:"name" gorm:"type:varchar(150);not null"`
	Email        string  `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string  `json:"-" gorm:"type:text;not null"`
	Groups       []Group `json:"-" gorm:"foreignKey:OwnerOrgID"`
}

func (Organization) TableName() string {
	return "organizations"
}
