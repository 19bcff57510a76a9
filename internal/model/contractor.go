package model

import "time"

// Contractor is a tradesperson or firm in a user's address book.
//
// Email is unique across ALL contractors, not per owner. Two users cannot both
// record the same contractor email.
type Contractor struct {
	ID        string    `json:"id"        db:"id"         gorm:"primaryKey;type:varchar(20)"`
	Name      string    `json:"name"      db:"name"       gorm:"not null;index"`
	Email     string    `json:"email"     db:"email"      gorm:"uniqueIndex;not null"`
	Phone     *string   `json:"phone"     db:"phone"`
	Company   *string   `json:"company"   db:"company"`
	Trades    []string  `json:"trades"    db:"trades"     gorm:"serializer:json;type:text;not null"`
	Rating    float64   `json:"rating"    db:"rating"     gorm:"not null;default:0"`
	OwnerID   string    `json:"ownerId"   db:"owner_id"   gorm:"type:varchar(20);not null;index"`
	Owner     *User     `json:"-"         gorm:"foreignKey:OwnerID;constraint:OnDelete:RESTRICT"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

func (Contractor) TableName() string {
	return "contractors"
}
