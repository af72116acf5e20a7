package models

import (
	"time"
)

// FriendRequest is a pending, directed proposal. It is created on send and
// deleted on accept, decline or cancel; it is never updated in place.
type FriendRequest struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FromUserID uint      `gorm:"not null;index:idx_friend_request_pair,unique;check:chk_friend_request_not_self,from_user_id <> to_user_id" json:"from_user_id"`
	FromUser   *User     `gorm:"foreignKey:FromUserID;constraint:OnDelete:CASCADE" json:"-"`
	ToUserID   uint      `gorm:"not null;index:idx_friend_request_pair,unique;index" json:"to_user_id"`
	ToUser     *User     `gorm:"foreignKey:ToUserID;constraint:OnDelete:CASCADE" json:"-"`
	SentAt     time.Time `gorm:"autoCreateTime" json:"sent_at"`
}

func (FriendRequest) TableName() string {
	return "friend_requests"
}

// Friendship is one direction of an accepted relationship. Every accepted
// pair is stored as (A,B) and (B,A); both rows exist or neither does.
type Friendship struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UserID   uint      `gorm:"not null;index:idx_friendship_pair,unique" json:"user_id"`
	User     *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	FriendID uint      `gorm:"not null;index:idx_friendship_pair,unique;index" json:"friend_id"`
	Friend   *User     `gorm:"foreignKey:FriendID;constraint:OnDelete:CASCADE" json:"-"`
	Since    time.Time `gorm:"autoCreateTime" json:"since"`
}

func (Friendship) TableName() string {
	return "friends"
}

// Filter is an equality match on column names, ANDed together.
type Filter map[string]any
