package domain

import "gorm.io/gorm"

// Opening balances are written once. Corrections are posted as journal
// entries so the record of what was seeded stays intact.
func (b *Balance) BeforeUpdate(tx *gorm.DB) error {
	_ = tx
	return ErrBalanceFrozen
}
