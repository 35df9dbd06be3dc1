package models

import "time"

// User represents a customer or administrator account.
type User struct {
	ID       string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name     string `json:"name" gorm:"type:varchar(100)"`
	Email    string `json:"email" gorm:"uniqueIndex;type:varchar(255)"`
	Password string `json:"-" gorm:"type:varchar(255)"`
	IsAdmin  bool   `json:"isAdmin"`

	IsTwoFactorEnabled  bool       `json:"isTwoFactorEnabled"`
	TwoFactorCode       string     `json:"-" gorm:"type:varchar(6)"`
	TwoFactorCodeExpire *time.Time `json:"-"`

	ResetTokenHash   string     `json:"-" gorm:"type:varchar(64);index"`
	ResetTokenExpire *time.Time `json:"-"`

	Wishlist  []string  `json:"wishlist" gorm:"serializer:json"`
	Version   int       `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ClearTwoFactor removes the pending login code.
func (u *User) ClearTwoFactor() {
	u.TwoFactorCode = ""
	u.TwoFactorCodeExpire = nil
}

// ToggleWishlist adds productID to the wishlist or removes it when present.
// It returns true when the product is on the wishlist after the call.
func (u *User) ToggleWishlist(productID string) bool {
	for i, id := range u.Wishlist {
		if id == productID {
			u.Wishlist = append(u.Wishlist[:i], u.Wishlist[i+1:]...)
			return false
		}
	}
	u.Wishlist = append(u.Wishlist, productID)
	return true
}
