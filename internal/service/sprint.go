package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sprintdesk/internal/model"
	"sprintdesk/internal/tier"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type SprintService struct{ db *gorm.DB }

func NewSprintService(db *gorm.DB) *SprintService { return &SprintService{db: db} }

// List returns every sprint for consultants, owned sprints for clients.
func (s *SprintService) List(ctx context.Context, userID int, consultant bool) ([]model.Sprint, error) {
	q := s.db.WithContext(ctx).Preload("Client").Preload("Consultant").Order("created_at DESC")
	if !consultant {
		q = q.Where("client_id = ?", userID)
	}
	var sprints []model.Sprint
	if err := q.Find(&sprints).Error; err != nil {
		return nil, fmt.Errorf("list sprints: %w", err)
	}
	return sprints, nil
}

func (s *SprintService) Get(ctx context.Context, id int) (*model.Sprint, error) {
	var sp model.Sprint
	err := s.db.WithContext(ctx).
		Preload("Client").Preload("Consultant").Preload("Intake").
		Preload("Modules").Preload("Comments").Preload("Comments.Author").
		First(&sp, id).Error
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

// Create builds a draft sprint for a consultant: finds or invites the
// client user, derives the price from the tier, creates the intake stub
// and pre-seeds one module row per catalog descriptor. Module rows for
// tier-locked descriptors start locked.
func (s *SprintService) Create(ctx context.Context, consultantID int, req model.CreateSprintRequest) (*model.Sprint, error) {
	if !tier.IsTier(req.Tier) {
		return nil, fmt.Errorf("unknown tier %q", req.Tier)
	}

	var sp *model.Sprint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		client, err := findOrCreateClient(tx, req.ClientName, req.ClientEmail)
		if err != nil {
			return err
		}

		sp = &model.Sprint{
			ClientID:                client.ID,
			ConsultantID:            &consultantID,
			Tier:                    req.Tier,
			Status:                  model.StatusDraft,
			CompanyName:             req.CompanyName,
			IsPartnershipEvaluation: req.IsPartnershipEvaluation,
			Price:                   tier.Price(req.Tier),
		}
		if err := tx.Create(sp).Error; err != nil {
			return fmt.Errorf("create sprint: %w", err)
		}

		if err := tx.Create(&model.IntakeData{SprintID: sp.ID}).Error; err != nil {
			return fmt.Errorf("create intake: %w", err)
		}

		for _, d := range tier.ModulesFor(req.Tier) {
			row := model.SprintModule{SprintID: sp.ID, ModuleType: d.Key, IsLocked: d.Locked}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("seed module %s: %w", d.Key, err)
			}
		}

		if req.Notes != "" {
			note := model.Comment{SprintID: sp.ID, AuthorID: consultantID, Content: req.Notes}
			if err := tx.Create(&note).Error; err != nil {
				return fmt.Errorf("create note: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, sp.ID)
}

func findOrCreateClient(tx *gorm.DB, name, email string) (*model.User, error) {
	var u model.User
	err := tx.Where("email = ?", email).First(&u).Error
	if err == nil {
		return &u, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("query client: %w", err)
	}
	// invited account, password set on first login reset
	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u = model.User{Email: email, Password: string(hash), Name: name, IsClient: true}
	if err := tx.Create(&u).Error; err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return &u, nil
}

// Transition applies an explicit lifecycle change and rejects anything
// outside the state machine.
func (s *SprintService) Transition(ctx context.Context, id int, to string) (*model.Sprint, error) {
	var sp model.Sprint
	if err := s.db.WithContext(ctx).First(&sp, id).Error; err != nil {
		return nil, err
	}
	next, err := model.Transition(sp.Status, to)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&sp).Update("status", next).Error; err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	sp.Status = next
	return &sp, nil
}

// AttachPaymentRef stores the provider reference and moves a draft
// sprint to payment_pending. Re-requesting a link on a sprint already
// awaiting payment just refreshes the reference.
func (s *SprintService) AttachPaymentRef(ctx context.Context, id int, ref string) error {
	var sp model.Sprint
	if err := s.db.WithContext(ctx).First(&sp, id).Error; err != nil {
		return err
	}
	updates := map[string]interface{}{"payment_ref": ref}
	switch sp.Status {
	case model.StatusDraft:
		updates["status"] = model.StatusPaymentPending
	case model.StatusPaymentPending:
		// keep status, refresh reference
	default:
		return fmt.Errorf("%w: %s → %s", model.ErrInvalidTransition, sp.Status, model.StatusPaymentPending)
	}
	return s.db.WithContext(ctx).Model(&sp).Updates(updates).Error
}

// ConfirmPayment marks the sprint paid by provider reference and
// activates it.
func (s *SprintService) ConfirmPayment(ctx context.Context, reference string) (*model.Sprint, error) {
	var sp model.Sprint
	if err := s.db.WithContext(ctx).Where("payment_ref = ?", reference).First(&sp).Error; err != nil {
		return nil, err
	}
	next, err := model.Transition(sp.Status, model.StatusActive)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	err = s.db.WithContext(ctx).Model(&sp).Updates(map[string]interface{}{
		"status":  next,
		"paid_at": &now,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("confirm payment: %w", err)
	}
	sp.Status = next
	sp.PaidAt = &now
	return &sp, nil
}

// RecomputeProgress derives the stored progress value from module
// completion. The server owns this number; client-sent progress is
// never trusted.
func (s *SprintService) RecomputeProgress(ctx context.Context, sprintID int) (int, error) {
	var sp model.Sprint
	if err := s.db.WithContext(ctx).First(&sp, sprintID).Error; err != nil {
		return 0, err
	}
	var rows []model.SprintModule
	if err := s.db.WithContext(ctx).Where("sprint_id = ?", sprintID).Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("load modules: %w", err)
	}
	completed := make(map[string]bool, len(rows))
	for _, r := range rows {
		if r.IsCompleted {
			completed[r.ModuleType] = true
		}
	}
	pct := tier.ProgressPercent(tier.ModulesFor(sp.Tier), completed)
	if err := s.db.WithContext(ctx).Model(&sp).Update("progress", pct).Error; err != nil {
		return 0, fmt.Errorf("update progress: %w", err)
	}
	return pct, nil
}
