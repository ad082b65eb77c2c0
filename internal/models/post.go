package models

import "time"

// Post is a titled piece of content owned by one user.
type Post struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Title     string     `gorm:"not null" json:"title"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	Published bool       `gorm:"not null;default:false" json:"published"`
	CreatedAt time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
	OwnerID   uint       `gorm:"not null;index" json:"owner_id"`
	Owner     User       `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"owner"`

	// Votes is read from an aggregate column and never written.
	Votes int64 `gorm:"->;-:migration" json:"votes"`
}

// TableName returns the database table name for Post.
func (Post) TableName() string {
	return "posts"
}
