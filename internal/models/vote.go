package models

import "time"

// Vote records that a user liked a post. Its presence is the whole state.
type Vote struct {
	PostID  uint      `gorm:"primaryKey;autoIncrement:false" json:"post_id"`
	UserID  uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	LikedAt time.Time `gorm:"not null;autoCreateTime" json:"liked_at"`

	Post *Post `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the database table name for Vote.
func (Vote) TableName() string {
	return "votes"
}
