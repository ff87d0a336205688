// Seeds a demo consultant, a demo client and one active feasibility
// sprint so the dashboard has something to show after a fresh migrate.
package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"sprintdesk/internal/config"
	"sprintdesk/internal/logger"
	"sprintdesk/internal/model"
	"sprintdesk/internal/tier"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func main() {
	configFile := flag.String("config", "", "config file path")
	flag.Parse()

	cfg := config.Load(*configFile)
	logger.Init(cfg.Log)
	db, err := cfg.OpenGormDB()
	if err != nil {
		slog.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	if err := db.AutoMigrate(
		&model.User{}, &model.Sprint{}, &model.IntakeData{},
		&model.SprintModule{}, &model.Comment{},
	); err != nil {
		slog.Error("migrate failed", "err", err)
		os.Exit(1)
	}

	consultant := seedUser(db, "nora@sprintdesk.example", "Nora Feld", "consultant-dev-pass", false, true)
	client := seedUser(db, "sam@acme.example", "Sam Ortiz", "client-dev-pass", true, false)

	var count int64
	db.Model(&model.Sprint{}).Where("client_id = ?", client.ID).Count(&count)
	if count > 0 {
		slog.Info("demo sprint already present, nothing to do")
		return
	}

	now := time.Now()
	sp := model.Sprint{
		ClientID:     client.ID,
		ConsultantID: &consultant.ID,
		Tier:         tier.Feasibility,
		Status:       model.StatusActive,
		CompanyName:  "Acme Analytics",
		Price:        tier.Price(tier.Feasibility),
		PaidAt:       &now,
	}
	if err := db.Create(&sp).Error; err != nil {
		slog.Error("seed sprint failed", "err", err)
		os.Exit(1)
	}

	intake := model.IntakeData{
		SprintID:      sp.ID,
		BusinessModel: "B2B SaaS subscription",
		ProductType:   "Analytics platform",
		Stage:         "pre-revenue",
		Industry:      "Logistics",
		Competitors:   datatypes.JSON(`["FleetIQ","RouteMetrics"]`),
		Assumptions:   datatypes.JSON(`["Ops managers will pay for route analytics","Onboarding fits in one week","Data import needs no custom work"]`),
		Risks:         datatypes.JSON(`["Long sales cycles","Integration complexity","Incumbent bundling","Churn before value","Data quality"]`),
	}
	if err := db.Create(&intake).Error; err != nil {
		slog.Error("seed intake failed", "err", err)
		os.Exit(1)
	}

	for _, d := range tier.ModulesFor(sp.Tier) {
		row := model.SprintModule{SprintID: sp.ID, ModuleType: d.Key, IsLocked: d.Locked}
		if err := db.Create(&row).Error; err != nil {
			slog.Error("seed module failed", "module", d.Key, "err", err)
			os.Exit(1)
		}
	}

	slog.Info("seed done", "sprint", sp.ID, "consultant", consultant.Email, "client", client.Email)
}

func seedUser(db *gorm.DB, email, name, password string, isClient, isConsultant bool) *model.User {
	var u model.User
	if err := db.Where("email = ?", email).First(&u).Error; err == nil {
		return &u
	}
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	u = model.User{Email: email, Password: string(hash), Name: name, IsClient: isClient, IsConsultant: isConsultant}
	if err := db.Create(&u).Error; err != nil {
		slog.Error("seed user failed", "email", email, "err", err)
		os.Exit(1)
	}
	return &u
}
