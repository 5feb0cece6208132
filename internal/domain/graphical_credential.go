package domain

import "time"

// GraphicalCredential stores the second login factor for a user: the salted
// SHA-256 digest of their ordered image sequence. The raw sequence is never
// persisted. One credential per user, created at registration and immutable
// afterwards.
type GraphicalCredential struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User         *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Salt         string    `gorm:"size:32;not null" json:"-"`
	SequenceHash string    `gorm:"size:64;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
