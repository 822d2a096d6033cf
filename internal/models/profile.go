package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:p"`

	UserID    string    `bun:"user_id,pk" json:"userId"`
	FullName  string    `bun:"full_name,nullzero" json:"fullName"`
	Phone     string    `bun:"phone,nullzero" json:"phone"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}

type UpdateProfileRequest struct {
	FullName    *string `json:"fullName" validate:"omitempty,max=200"`
	CountryCode *string `json:"countryCode"`
	Phone       *string `json:"phone"`
}
