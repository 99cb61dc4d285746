package health

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// HealthProfile is the self-reported biometric snapshot; one per user.
type HealthProfile struct {
	ID            uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_health_profile_user" json:"user_id"`
	Age           int            `gorm:"column:age" json:"age"`
	Gender        string         `gorm:"column:gender" json:"gender"`
	HeightCM      float64        `gorm:"column:height_cm" json:"height"`
	WeightKG      float64        `gorm:"column:weight_kg" json:"weight"`
	ActivityLevel string         `gorm:"column:activity_level" json:"activity_level"`
	StressLevel   string         `gorm:"column:stress_level" json:"stress_level"`
	SleepHours    float64        `gorm:"column:sleep_hours" json:"sleep_hours"`
	Goal          string         `gorm:"column:goal" json:"goal"`
	Conditions    datatypes.JSON `gorm:"column:conditions" json:"conditions,omitempty"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
}

func (HealthProfile) TableName() string { return "health_profile" }
