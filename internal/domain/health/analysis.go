package health

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// HealthAnalysis holds the latest AI analysis for a user. It is replaced on every
// analysis request and only read by plan generation.
type HealthAnalysis struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_health_analysis_user" json:"user_id"`
	Result    datatypes.JSON `gorm:"column:result;not null" json:"result"`
	Summary   string         `gorm:"column:summary;type:text" json:"summary"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (HealthAnalysis) TableName() string { return "health_analysis" }
