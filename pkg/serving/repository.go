package serving

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nutriscan-ai/platform/pkg/common/models"
	"github.com/nutriscan-ai/platform/pkg/profile"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PredictionLog is the persistence model for serving analytics. One row per
// completed prediction request.
type PredictionLog struct {
	ID            uuid.UUID         `gorm:"primaryKey;column:id"`
	RequestID     string            `gorm:"column:request_id;index"`
	ProfileHash   string            `gorm:"column:profile_hash;index"`
	Request       datatypes.JSONMap `gorm:"column:request"`
	Response      datatypes.JSONMap `gorm:"column:response"`
	LatencyMs     float64           `gorm:"column:latency_ms"`
	WellnessScore float64           `gorm:"column:wellness_score"`
	Failed        int               `gorm:"column:failed_conditions"`
	CreatedAt     time.Time         `gorm:"column:created_at"`
}

// TableName overrides gorm naming.
func (PredictionLog) TableName() string {
	return "prediction_logs"
}

// Repository handles prediction log persistence and queries.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&PredictionLog{})
}

func (r *Repository) RecordPrediction(ctx context.Context, requestID string, p profile.SubjectProfile, result *models.PredictionResult, latency time.Duration) error {
	response := datatypes.JSONMap{}
	failed := 0
	for cond, pred := range result.Predictions {
		entry := map[string]interface{}{
			"risk_score": pred.RiskScore,
			"risk_level": string(pred.RiskLevel),
			"confidence": pred.Confidence,
		}
		if pred.Failed() {
			entry["error"] = pred.Error
			failed++
		}
		response[string(cond)] = entry
	}

	log := PredictionLog{
		ID:          uuid.New(),
		RequestID:   requestID,
		ProfileHash: p.Fingerprint(),
		Request: datatypes.JSONMap{
			"age":              p.Age,
			"gender":           string(p.Gender),
			"race":             p.Race,
			"weight":           p.Weight,
			"height":           p.Height,
			"education":        p.Education,
			"marital_status":   p.MaritalStatus,
			"country_of_birth": p.CountryOfBirth,
		},
		Response:      response,
		LatencyMs:     float64(latency.Microseconds()) / 1000.0,
		WellnessScore: result.WellnessScore,
		Failed:        failed,
		CreatedAt:     time.Now().UTC(),
	}
	return r.db.WithContext(ctx).Create(&log).Error
}

// Recent returns the most recent prediction logs up to limit.
func (r *Repository) Recent(ctx context.Context, limit int) ([]PredictionLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var logs []PredictionLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
