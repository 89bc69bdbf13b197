package domain

import "time"

// Idempotency records the task registered for one (index, Idempotency-Key)
// pair so a client retry of the same mutation is answered with the original
// task instead of enqueuing a duplicate.
//
// Fields:
//   - ID: surrogate primary key (UUID).
//   - IndexUID, Key: the replay identity, unique together while unexpired.
//   - TaskUID: the task handed back on replay.
//   - Status: HTTP status of the original acknowledgement.
//   - ExpiresAt: lookups ignore records past this instant; the maintenance
//     sweeper removes them for good.
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	IndexUID  string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_index_key,priority:1"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_index_key,priority:2"`
	TaskUID   uint64    `gorm:"type:INTEGER NOT NULL"`
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
