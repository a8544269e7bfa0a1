package model

import (
	"time"

	"gorm.io/datatypes"
)

// CraftedItem is the ledger row written for every successful craft.
// Family-specific stats are kept as JSON. The (account_id, created_at)
// index serves the newest-first recent list.
type CraftedItem struct {
	ID            string         `gorm:"primaryKey;size:36" json:"id"`
	AccountID     int64          `gorm:"index:idx_crafted_account_created,priority:1;not null" json:"account_id"`
	Kind          string         `gorm:"size:16;not null;index:idx_crafted_kind" json:"kind"`
	Archetype     string         `gorm:"size:32;not null" json:"archetype"`
	Name          string         `gorm:"size:64;not null" json:"name"`
	MassKg        float64        `json:"mass_kg"`
	VolumeCm3     float64        `json:"volume_cm3"`
	Durability    float64        `json:"durability"`
	MaxDurability float64        `json:"max_durability"`
	Stats         datatypes.JSON `json:"stats"`
	CreatedAt     time.Time      `gorm:"index:idx_crafted_account_created,priority:2;autoCreateTime" json:"created_at"`
}

// KindCount is one row of a per-kind ledger tally.
type KindCount struct {
	Kind  string `json:"kind"`
	Count int64  `json:"count"`
}
