package models

import (
	"time"
)

// Card is a user-submitted image post.
type Card struct {
	ID        uint       `gorm:"primaryKey" json:"_id"`
	Name      string     `gorm:"size:30;not null" json:"name"`
	Link      string     `gorm:"not null" json:"link"`
	OwnerID   uint       `gorm:"not null;index" json:"owner"`
	Owner     *User      `gorm:"foreignKey:OwnerID" json:"-"`
	Likes     []CardLike `gorm:"foreignKey:CardID;constraint:OnDelete:CASCADE" json:"-"`
	LikeIDs   []uint     `gorm:"-" json:"likes"`
	CreatedAt time.Time  `json:"createdAt"`
}

// CardLike records one user's like on a card.
// The combination of UserID and CardID must be unique.
type CardLike struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_card_likes_user_card" json:"user_id"`
	CardID    uint      `gorm:"not null;uniqueIndex:idx_card_likes_user_card;index" json:"card_id"`
	CreatedAt time.Time `json:"-"`
}

// SyncLikeIDs copies the loaded likes into the serialized likes list.
func (c *Card) SyncLikeIDs() {
	ids := make([]uint, 0, len(c.Likes))
	for _, l := range c.Likes {
		ids = append(ids, l.UserID)
	}
	c.LikeIDs = ids
}

// IsLikedBy reports whether userID is in the card's likes.
func (c *Card) IsLikedBy(userID uint) bool {
	for _, id := range c.LikeIDs {
		if id == userID {
			return true
		}
	}
	return false
}
