package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"sprintdesk/internal/model"
	"sprintdesk/internal/tier"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ModuleService owns the per-sprint module rows. Writes to one row are
// serialized through a keyed mutex; the row itself is last-write-wins.
type ModuleService struct {
	db    *gorm.DB
	locks sync.Map // "sprintID/moduleType" -> *sync.Mutex
}

func NewModuleService(db *gorm.DB) *ModuleService { return &ModuleService{db: db} }

func (s *ModuleService) rowLock(sprintID int, moduleType string) *sync.Mutex {
	key := fmt.Sprintf("%d/%s", sprintID, moduleType)
	mu, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (s *ModuleService) Rows(ctx context.Context, sprintID int) ([]model.SprintModule, error) {
	var rows []model.SprintModule
	err := s.db.WithContext(ctx).Where("sprint_id = ?", sprintID).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load module rows: %w", err)
	}
	return rows, nil
}

func (s *ModuleService) Row(ctx context.Context, sprintID int, moduleType string) (*model.SprintModule, error) {
	var row model.SprintModule
	err := s.db.WithContext(ctx).
		Where("sprint_id = ? AND module_type = ?", sprintID, moduleType).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Views merges the tier catalog with the persisted rows into the
// dashboard module list.
func (s *ModuleService) Views(ctx context.Context, sp *model.Sprint) ([]model.SprintModuleView, error) {
	rows, err := s.Rows(ctx, sp.ID)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]model.SprintModule, len(rows))
	for _, r := range rows {
		byKey[r.ModuleType] = r
	}

	descs := tier.ModulesFor(sp.Tier)
	views := make([]model.SprintModuleView, 0, len(descs))
	for _, d := range descs {
		var state *tier.RowState
		var hasData, hasAnalysis bool
		if r, ok := byKey[d.Key]; ok {
			state = &tier.RowState{IsCompleted: r.IsCompleted, IsLocked: r.IsLocked}
			hasData = len(r.Data) > 0
			hasAnalysis = len(r.AIAnalysis) > 0
		}
		views = append(views, model.SprintModuleView{
			Key:          d.Key,
			Title:        d.Title,
			Section:      d.Section,
			RequiredTier: d.RequiredTier,
			Status:       tier.Resolve(d, state),
			HasData:      hasData,
			HasAnalysis:  hasAnalysis,
		})
	}
	return views, nil
}

// getOrCreate tolerates rows missing from pre-seeding (older data) by
// creating them on first write.
func (s *ModuleService) getOrCreate(ctx context.Context, sp *model.Sprint, moduleType string) (*model.SprintModule, error) {
	d, ok := tier.Find(sp.Tier, moduleType)
	if !ok {
		return nil, ErrUnknownModule
	}
	if d.Locked {
		return nil, ErrTierLocked
	}
	row, err := s.Row(ctx, sp.ID, moduleType)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = &model.SprintModule{SprintID: sp.ID, ModuleType: moduleType}
		if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
			return nil, fmt.Errorf("create module row: %w", err)
		}
		return row, nil
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

// SaveData stores the module's working payload.
func (s *ModuleService) SaveData(ctx context.Context, sp *model.Sprint, moduleType string, data json.RawMessage) (*model.SprintModule, error) {
	mu := s.rowLock(sp.ID, moduleType)
	mu.Lock()
	defer mu.Unlock()

	row, err := s.getOrCreate(ctx, sp, moduleType)
	if err != nil {
		return nil, err
	}
	if row.IsLocked {
		return nil, ErrModuleLocked
	}
	if err := s.db.WithContext(ctx).Model(row).Update("data", datatypes.JSON(data)).Error; err != nil {
		return nil, fmt.Errorf("save module data: %w", err)
	}
	row.Data = datatypes.JSON(data)
	return row, nil
}

// SaveAnalysis persists a generated report into the row's aiAnalysis
// field. Called only after the external generation succeeded, so a
// failed call never mutates the row.
func (s *ModuleService) SaveAnalysis(ctx context.Context, sp *model.Sprint, moduleType string, analysis json.RawMessage) (*model.SprintModule, error) {
	mu := s.rowLock(sp.ID, moduleType)
	mu.Lock()
	defer mu.Unlock()

	row, err := s.getOrCreate(ctx, sp, moduleType)
	if err != nil {
		return nil, err
	}
	if row.IsLocked {
		return nil, ErrModuleLocked
	}
	if err := s.db.WithContext(ctx).Model(row).Update("ai_analysis", datatypes.JSON(analysis)).Error; err != nil {
		return nil, fmt.Errorf("save analysis: %w", err)
	}
	row.AIAnalysis = datatypes.JSON(analysis)
	return row, nil
}

// Complete marks the module done. Locked rows must be unlocked first.
func (s *ModuleService) Complete(ctx context.Context, sp *model.Sprint, moduleType string) (*model.SprintModule, error) {
	mu := s.rowLock(sp.ID, moduleType)
	mu.Lock()
	defer mu.Unlock()

	row, err := s.getOrCreate(ctx, sp, moduleType)
	if err != nil {
		return nil, err
	}
	if row.IsLocked {
		return nil, ErrModuleLocked
	}
	if err := s.db.WithContext(ctx).Model(row).Update("is_completed", true).Error; err != nil {
		return nil, fmt.Errorf("complete module: %w", err)
	}
	row.IsCompleted = true
	return row, nil
}

// CompletedCount counts finished modules, used by the decision engine.
func (s *ModuleService) CompletedCount(ctx context.Context, sprintID int) (int, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.SprintModule{}).
		Where("sprint_id = ? AND is_completed = ?", sprintID, true).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count completed: %w", err)
	}
	return int(n), nil
}
