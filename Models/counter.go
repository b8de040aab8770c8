package Models

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentCounter holds the last number issued for a document prefix.
type DocumentCounter struct {
	Prefix string `json:"prefix" gorm:"primaryKey;size:16"`
	Seq    int64  `json:"seq" gorm:"not null"`
}

// GormCounterStore increments document counters inside a database transaction.
// Passed a transaction handle, the row lock it takes is held until that outer
// transaction commits, so the number and the document land together.
type GormCounterStore struct {
	DB *gorm.DB
}

func NewCounterStore(db *gorm.DB) *GormCounterStore {
	return &GormCounterStore{DB: db}
}

// Increment bumps the counter for prefix and returns the new value.
func (s *GormCounterStore) Increment(prefix string) (int64, error) {
	var counter DocumentCounter
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		seed := DocumentCounter{Prefix: prefix}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return err
		}
		res := tx.Model(&DocumentCounter{}).
			Where("prefix = ?", prefix).
			UpdateColumn("seq", gorm.Expr("seq + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return fmt.Errorf("counter %s not found after seeding", prefix)
		}
		return tx.Where("prefix = ?", prefix).Take(&counter).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to increment %s counter: %w", prefix, err)
	}
	return counter.Seq, nil
}

// Peek returns the last issued value without changing it.
func (s *GormCounterStore) Peek(prefix string) (int64, error) {
	var counter DocumentCounter
	err := s.DB.Where("prefix = ?", prefix).Limit(1).Find(&counter).Error
	return counter.Seq, err
}
