package models

import (
	"time"
)

// User - a cashier or admin allowed to operate the terminal
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50" json:"username"`
	PasswordHash string    `json:"-"`    // Never return this in JSON
	Role         string    `json:"role"` // 'admin', 'cashier'
	CreatedAt    time.Time `json:"created_at"`
}

// StockAction - the kind of stock change, named as the product API expects it
type StockAction string

const (
	StockActionAdd    StockAction = "add_stock"
	StockActionRemove StockAction = "remove_stock"
	StockActionAdjust StockAction = "adjust_stock"
)

// Valid reports whether a is one of the three known actions.
func (a StockAction) Valid() bool {
	switch a {
	case StockActionAdd, StockActionRemove, StockActionAdjust:
		return true
	}
	return false
}

// StockMutation - one immutable before/after stock transition (append-only)
type StockMutation struct {
	ID         string      `gorm:"primaryKey;size:26" json:"id"`
	VariantID  string      `gorm:"index:idx_stock_mutation_variant_time,priority:1;size:64;not null" json:"variant_id"`
	ActionType StockAction `gorm:"size:16;not null" json:"action_type"`
	Amount     int64       `json:"amount"`
	PrevStock  int64       `json:"prev_stock"`
	CurrStock  int64       `json:"curr_stock"`
	Note       string      `gorm:"size:500" json:"note,omitempty"`
	CreatedBy  uint        `json:"created_by,omitempty"` // Who recorded it
	CreatedAt  time.Time   `gorm:"index:idx_stock_mutation_variant_time,priority:2" json:"created_at"`
}

// Setting - one persisted key/value pair, value is JSON-encoded
type Setting struct {
	Key       string    `gorm:"primaryKey;size:64" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
