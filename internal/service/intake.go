package service

import (
	"context"
	"encoding/json"
	"fmt"

	"sprintdesk/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type IntakeService struct{ db *gorm.DB }

func NewIntakeService(db *gorm.DB) *IntakeService { return &IntakeService{db: db} }

// Upsert writes the sprint's single intake row. The unique index on
// sprint_id keeps the one-row-per-sprint invariant.
func (s *IntakeService) Upsert(ctx context.Context, sprintID int, req model.IntakeRequest) (*model.IntakeData, error) {
	competitors, _ := json.Marshal(orEmpty(req.Competitors))
	assumptions, _ := json.Marshal(orEmpty(req.Assumptions))
	risks, _ := json.Marshal(orEmpty(req.Risks))

	row := model.IntakeData{
		SprintID:        sprintID,
		BusinessModel:   req.BusinessModel,
		ProductType:     req.ProductType,
		Stage:           req.Stage,
		Industry:        req.Industry,
		Competitors:     datatypes.JSON(competitors),
		Assumptions:     datatypes.JSON(assumptions),
		Risks:           datatypes.JSON(risks),
		PartnerName:     req.PartnerName,
		PartnershipGoal: req.PartnershipGoal,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "sprint_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"business_model", "product_type", "stage", "industry",
			"competitors", "assumptions", "risks",
			"partner_name", "partnership_goal",
		}),
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("upsert intake: %w", err)
	}

	var out model.IntakeData
	if err := s.db.WithContext(ctx).Where("sprint_id = ?", sprintID).First(&out).Error; err != nil {
		return nil, fmt.Errorf("reload intake: %w", err)
	}
	return &out, nil
}

func orEmpty(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
