package model

import (
	"fmt"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates the account, ledger and audit tables.
func AutoMigrate(db *gorm.DB) error {
	for _, m := range []interface{}{&Account{}, &CraftedItem{}, &AuditLog{}} {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("model: migrate %T: %w", m, err)
		}
	}
	return nil
}

// CountByKind tallies ledger rows per item kind, optionally for one account
// (accountID 0 means all).
func CountByKind(db *gorm.DB, accountID int64) ([]KindCount, error) {
	q := db.Model(&CraftedItem{}).Select("kind, COUNT(*) AS count").Group("kind").Order("kind")
	if accountID != 0 {
		q = q.Where("account_id = ?", accountID)
	}
	var out []KindCount
	if err := q.Scan(&out).Error; err != nil {
		return nil, fmt.Errorf("model: count by kind: %w", err)
	}
	return out, nil
}
