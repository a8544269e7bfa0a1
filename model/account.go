package model

import "time"

// AccountStatus gates login.
type AccountStatus int

const (
	StatusBanned AccountStatus = 0
	StatusActive AccountStatus = 1
)

// Account is a crafter login. CraftCount and LastCraftAt are bumped in the
// same transaction as each ledger row.
type Account struct {
	ID           int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string        `gorm:"uniqueIndex;size:32;not null" json:"username"`
	PasswordHash string        `gorm:"size:64;not null" json:"-"`
	Status       AccountStatus `gorm:"not null;default:1" json:"status"`
	CraftCount   int64         `gorm:"not null;default:0" json:"craft_count"`
	LastCraftAt  *time.Time    `json:"last_craft_at"`
	CreatedAt    time.Time     `gorm:"autoCreateTime" json:"created_at"`
	LastLoginAt  *time.Time    `json:"last_login_at"`
	LastLoginIP  string        `gorm:"size:45" json:"last_login_ip"`
}

func (a *Account) Banned() bool { return a.Status == StatusBanned }
