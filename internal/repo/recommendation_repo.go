package repo

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tbourn/opc-agent/internal/domain"
)

// CreateRecommendation appends a recommendation for userID.
func CreateRecommendation(ctx context.Context, db *gorm.DB, userID uint, f domain.RecommendationFields) (*domain.Recommendation, error) {
	r := &domain.Recommendation{
		UserID:          userID,
		ProjectName:     f.ProjectName,
		CoreAdvantage:   f.CoreAdvantage,
		EstimatedIncome: f.EstimatedIncome,
		StartupCost:     f.StartupCost,
		AITools:         datatypes.NewJSONType(f.AITools),
		CreatedAt:       time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// ListRecommendations returns the user's recommendations in insertion order.
func ListRecommendations(ctx context.Context, db *gorm.DB, userID uint) ([]domain.Recommendation, error) {
	var out []domain.Recommendation
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&out).Error
	return out, err
}
