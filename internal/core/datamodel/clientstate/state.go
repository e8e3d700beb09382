package clientstate

import "time"

// Entry is one persisted client-side value.
type Entry struct {
	Key       string    `gorm:"primaryKey;column:key"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Entry) TableName() string {
	return "client_state"
}
