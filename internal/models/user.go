package models

import "slices"

type Role string

const (
	RoleDonor   Role = "donor"
	RoleCreator Role = "creator"
	RoleAdmin   Role = "admin"
)

var Roles = []Role{RoleDonor, RoleCreator, RoleAdmin}

func (r Role) Valid() bool {
	return slices.Contains(Roles, r)
}

type SocialLinks struct {
	Website   string `json:"website,omitempty" bson:"website,omitempty"`
	Twitter   string `json:"twitter,omitempty" bson:"twitter,omitempty"`
	Facebook  string `json:"facebook,omitempty" bson:"facebook,omitempty"`
	Instagram string `json:"instagram,omitempty" bson:"instagram,omitempty"`
}

type User struct {
	BaseModel `bson:",inline"`

	Name         string      `gorm:"not null" bson:"name"`
	Email        string      `gorm:"uniqueIndex;not null" bson:"email"`
	PasswordHash string      `gorm:"not null" bson:"password_hash"`
	Role         Role        `gorm:"type:varchar(16);not null;default:'donor'" bson:"role"`
	ProfilePic   string      `bson:"profile_pic"`
	Bio          string      `gorm:"size:500" bson:"bio"`
	SocialLinks  SocialLinks `gorm:"serializer:json" bson:"social_links"`
	IsActive     bool        `gorm:"not null;default:true" bson:"is_active"`
}
