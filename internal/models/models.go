package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is a closed set; any other value is rejected at the policy layer.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is an account. PasswordHash is empty for Google-only accounts.
type User struct {
	ID           string    `gorm:"primarykey;size:36" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email,omitempty"`
	Username     string    `gorm:"not null" json:"username"`
	PasswordHash string    `json:"-"`
	GoogleID     string    `json:"-"`
	Role         Role      `gorm:"not null;default:user" json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Post is a blog entry. IsPrivate is owner-controlled; HiddenByAdmin and
// TakedownReason are moderator-controlled. TakedownReason must be nil
// whenever HiddenByAdmin is false, and is exposed selectively (owner only)
// by the HTTP layer, hence the json:"-".
type Post struct {
	ID             string     `gorm:"primarykey;size:36" json:"id"`
	Title          string     `gorm:"not null" json:"title"`
	Content        string     `gorm:"not null" json:"content"`
	IsPrivate      bool       `gorm:"not null;default:false" json:"isPrivate"`
	HiddenByAdmin  bool       `gorm:"not null;default:false" json:"hiddenByAdmin"`
	TakedownReason *string    `json:"-"`
	AuthorID       string     `gorm:"not null;index;size:36" json:"authorId"`
	Author         *User      `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Reactions      []Reaction `gorm:"foreignKey:PostID" json:"reactions"`
	Comments       []Comment  `gorm:"foreignKey:PostID" json:"comments"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Reaction records one emoji by one user on one post. At most one row may
// exist per (post, user, emoji); the toggle transaction enforces that, not
// a unique index.
type Reaction struct {
	ID        string    `gorm:"primarykey;size:36" json:"id"`
	PostID    string    `gorm:"not null;index;size:36" json:"postId"`
	UserID    string    `gorm:"not null;index;size:36" json:"userId"`
	Emoji     string    `gorm:"not null" json:"emoji"`
	CreatedAt time.Time `json:"createdAt"`
}

func (r *Reaction) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

type Comment struct {
	ID        string    `gorm:"primarykey;size:36" json:"id"`
	PostID    string    `gorm:"not null;index;size:36" json:"postId"`
	UserID    string    `gorm:"not null;size:36" json:"userId"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Text      string    `gorm:"size:1000;not null" json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
