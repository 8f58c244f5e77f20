package domain

import (
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Posted transactions are frozen at the storage boundary, not only in the
// services: gorm hooks re-read the stored is_posted flag and reject writes
// against a posted row. The posting flip itself passes because the stored
// flag is still false at that point.

func (t *Transaction) BeforeUpdate(tx *gorm.DB) error {
	return rejectIfPosted(tx, t.ID)
}

func (t *Transaction) BeforeDelete(tx *gorm.DB) error {
	return rejectIfPosted(tx, t.ID)
}

func (l *LineItem) BeforeCreate(tx *gorm.DB) error {
	return rejectIfPosted(tx, l.TransactionID)
}

func (l *LineItem) BeforeUpdate(tx *gorm.DB) error {
	return rejectIfPosted(tx, l.TransactionID)
}

func (l *LineItem) BeforeDelete(tx *gorm.DB) error {
	return rejectIfPosted(tx, l.TransactionID)
}

func rejectIfPosted(tx *gorm.DB, transactionID snowflake.ID) error {
	if transactionID == 0 {
		return nil
	}
	var posted bool
	err := tx.Session(&gorm.Session{NewDB: true}).
		Model(&Transaction{}).
		Select("is_posted").
		Where("id = ?", transactionID).
		Scan(&posted).Error
	if err != nil {
		return err
	}
	if posted {
		return &PostedTransactionError{TransactionID: transactionID}
	}
	return nil
}
