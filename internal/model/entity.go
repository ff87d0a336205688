package model

import (
	"time"

	"gorm.io/datatypes"
)

type User struct {
	ID           int       `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"size:191;uniqueIndex;not null" json:"email"`
	Password     string    `gorm:"size:255;not null" json:"-"`
	Name         string    `gorm:"size:100" json:"name"`
	IsClient     bool      `gorm:"default:false" json:"is_client"`
	IsConsultant bool      `gorm:"default:false" json:"is_consultant"`
	CreatedAt    time.Time `json:"created_at"`
}

type Sprint struct {
	ID                      int            `gorm:"primaryKey" json:"id"`
	ClientID                int            `gorm:"index;not null" json:"client_id"`
	ConsultantID            *int           `gorm:"index" json:"consultant_id"`
	Tier                    string         `gorm:"size:32;not null" json:"tier"`
	Status                  string         `gorm:"size:32;not null;default:draft" json:"status"`
	CompanyName             string         `gorm:"size:191;not null" json:"company_name"`
	IsPartnershipEvaluation bool           `gorm:"default:false" json:"is_partnership_evaluation"`
	Progress                int            `gorm:"default:0" json:"progress"`
	Price                   int            `gorm:"not null" json:"price"`
	PaidAt                  *time.Time     `json:"paid_at"`
	PaymentRef              string         `gorm:"size:191;index" json:"payment_ref,omitempty"`
	Client                  *User          `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Consultant              *User          `gorm:"foreignKey:ConsultantID" json:"consultant,omitempty"`
	Intake                  *IntakeData    `gorm:"foreignKey:SprintID" json:"intake,omitempty"`
	Modules                 []SprintModule `gorm:"foreignKey:SprintID" json:"modules,omitempty"`
	Comments                []Comment      `gorm:"foreignKey:SprintID" json:"comments,omitempty"`
	CreatedAt               time.Time      `json:"created_at"`
	UpdatedAt               time.Time      `json:"updated_at"`
}

// IntakeData is the business-profile questionnaire, one row per sprint,
// read by every report-generating module as shared context.
type IntakeData struct {
	ID              int            `gorm:"primaryKey" json:"id"`
	SprintID        int            `gorm:"uniqueIndex;not null" json:"sprint_id"`
	BusinessModel   string         `gorm:"size:191" json:"business_model"`
	ProductType     string         `gorm:"size:191" json:"product_type"`
	Stage           string         `gorm:"size:64" json:"stage"`
	Industry        string         `gorm:"size:191" json:"industry"`
	Competitors     datatypes.JSON `json:"competitors"`
	Assumptions     datatypes.JSON `json:"assumptions"`
	Risks           datatypes.JSON `json:"risks"`
	PartnerName     string         `gorm:"size:191" json:"partner_name"`
	PartnershipGoal string         `gorm:"size:512" json:"partnership_goal"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

type SprintModule struct {
	ID          int            `gorm:"primaryKey" json:"id"`
	SprintID    int            `gorm:"uniqueIndex:uk_sprint_module;not null" json:"sprint_id"`
	ModuleType  string         `gorm:"size:64;uniqueIndex:uk_sprint_module;not null" json:"module_type"`
	IsCompleted bool           `gorm:"default:false" json:"is_completed"`
	IsLocked    bool           `gorm:"default:false" json:"is_locked"`
	Data        datatypes.JSON `json:"data"`
	AIAnalysis  datatypes.JSON `json:"ai_analysis"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Comment is append-only: created, never updated or deleted.
type Comment struct {
	ID         int       `gorm:"primaryKey" json:"id"`
	SprintID   int       `gorm:"index;not null" json:"sprint_id"`
	ModuleType string    `gorm:"size:64" json:"module_type,omitempty"`
	AuthorID   int       `gorm:"not null" json:"author_id"`
	Author     *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

func (User) TableName() string         { return "users" }
func (Sprint) TableName() string       { return "sprints" }
func (IntakeData) TableName() string   { return "intake_data" }
func (SprintModule) TableName() string { return "sprint_modules" }
func (Comment) TableName() string      { return "comments" }
