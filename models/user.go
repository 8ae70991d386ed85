package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Email       string             `bson:"email" json:"email"`
	UserName    string             `bson:"userName,omitempty" json:"userName,omitempty"`
	Photo       string             `bson:"photo,omitempty" json:"photo,omitempty"`
	Role        string             `bson:"role,omitempty" json:"role,omitempty"`
	Badge       string             `bson:"badge,omitempty" json:"badge,omitempty"`
	PremiumUser bool               `bson:"premiumUser" json:"premiumUser"`
	TimeStamp   time.Time          `bson:"timeStamp" json:"timeStamp"`
}

// EffectiveRole treats a missing role as a regular user.
func (u User) EffectiveRole() string {
	if u.Role == "" {
		return RoleUser
	}
	return u.Role
}

func (u User) IsAdmin() bool {
	return u.EffectiveRole() == RoleAdmin
}

// UserPatch holds the fields PATCH /update-role may merge into a user.
// Nil fields are left untouched.
type UserPatch struct {
	Role        *string `json:"role"`
	UserName    *string `json:"userName"`
	Photo       *string `json:"photo"`
	Badge       *string `json:"badge"`
	PremiumUser *bool   `json:"premiumUser"`
}

func (p UserPatch) Empty() bool {
	return p.Role == nil && p.UserName == nil && p.Photo == nil && p.Badge == nil && p.PremiumUser == nil
}
