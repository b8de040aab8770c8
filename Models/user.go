package Models

import "gorm.io/gorm"

// Permission levels checked by the auth middleware.
const (
	PermissionUser       = 1
	PermissionAccountant = 3
	PermissionAdmin      = 4
)

type User struct {
	gorm.Model
	Name       string `json:"name" gorm:"size:100;not null"`
	Email      string `json:"email" gorm:"size:255;uniqueIndex;not null"`
	Password   []byte `json:"-"`
	Permission int    `json:"permission" gorm:"not null;default:1"`
}
