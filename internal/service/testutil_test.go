package service

import (
	"fmt"
	"strings"
	"testing"

	"sprintdesk/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.Sprint{}, &model.IntakeData{},
		&model.SprintModule{}, &model.Comment{},
	))
	return db
}

func seedConsultant(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()
	u := model.User{Email: "consultant@test.example", Password: "x", Name: "Consultant", IsConsultant: true}
	require.NoError(t, db.Create(&u).Error)
	return &u
}
