package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sprintdesk/internal/middleware"
	"sprintdesk/internal/model"
	"sprintdesk/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type env struct {
	db     *gorm.DB
	router *gin.Engine
}

func newEnv(t *testing.T, generatorURL, paymentsURL string) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.Sprint{}, &model.IntakeData{},
		&model.SprintModule{}, &model.Comment{},
	))

	authH := NewAuthHandler(service.NewAuthService(db))
	sprintSvc := service.NewSprintService(db)
	sprintH := NewSprintHandler(sprintSvc)
	moduleH := NewModuleHandler(sprintSvc, service.NewModuleService(db),
		service.NewGeneratorService(generatorURL, "test-key", "qwen-plus"))
	intakeH := NewIntakeHandler(sprintSvc, service.NewIntakeService(db))
	commentH := NewCommentHandler(sprintSvc, db)
	paymentH := NewPaymentHandler(sprintSvc, service.NewPaymentService(paymentsURL, "test-key", "https://app.example/paid"))

	r := gin.New()
	r.POST("/api/login", authH.Login)
	r.POST("/api/signup", authH.Signup)
	r.POST("/api/payments/confirm", paymentH.Confirm)

	api := r.Group("/api", middleware.JWTAuth())
	api.GET("/sprints", sprintH.List)
	api.GET("/sprints/:id", sprintH.Get)
	api.POST("/sprints/:id/status", middleware.ConsultantOnly(), sprintH.Transition)
	api.PUT("/sprints/:id/intake", intakeH.Update)
	api.GET("/sprints/:id/modules", moduleH.List)
	api.POST("/sprints/:id/modules/:type/data", moduleH.SaveData)
	api.POST("/sprints/:id/modules/:type/complete", moduleH.Complete)
	api.POST("/sprints/:id/modules/:type/generate", moduleH.Generate)
	moduleH.RegisterNamed(api)
	api.GET("/sprints/:id/comments", commentH.List)
	api.POST("/sprints/:id/comments", commentH.Create)
	api.POST("/sprints/:id/payment-link", paymentH.CreateLink)
	api.Group("/consultant", middleware.ConsultantOnly()).POST("/create-sprint", sprintH.Create)

	return &env{db: db, router: r}
}

func (e *env) user(t *testing.T, email string, client, consultant bool) *model.User {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	u := model.User{Email: email, Password: string(hash), Name: email, IsClient: client, IsConsultant: consultant}
	require.NoError(t, e.db.Create(&u).Error)
	return &u
}

func token(u *model.User) string {
	return middleware.NewToken(u.ID, u.Name, u.IsClient, u.IsConsultant)
}

func (e *env) do(t *testing.T, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) createSprint(t *testing.T, consultant *model.User, tierName string) model.Sprint {
	t.Helper()
	w := e.do(t, "POST", "/api/consultant/create-sprint", token(consultant), model.CreateSprintRequest{
		ClientName:  "Sam Ortiz",
		ClientEmail: "sam@acme.example",
		CompanyName: "Acme Analytics",
		Tier:        tierName,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var sp model.Sprint
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sp))
	return sp
}

func TestLogin(t *testing.T) {
	e := newEnv(t, "", "")
	e.user(t, "nora@test.example", false, true)

	w := e.do(t, "POST", "/api/login", "", gin.H{"email": "nora@test.example", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp model.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.True(t, resp.User.IsConsultant)

	w = e.do(t, "POST", "/api/login", "", gin.H{"email": "nora@test.example", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSignupDuplicateEmail(t *testing.T) {
	e := newEnv(t, "", "")
	body := gin.H{"email": "new@test.example", "password": "password123", "name": "New User"}
	assert.Equal(t, http.StatusOK, e.do(t, "POST", "/api/signup", "", body).Code)
	assert.Equal(t, http.StatusConflict, e.do(t, "POST", "/api/signup", "", body).Code)
}

func TestAuthRequired(t *testing.T) {
	e := newEnv(t, "", "")
	assert.Equal(t, http.StatusUnauthorized, e.do(t, "GET", "/api/sprints", "", nil).Code)
}

func TestCreateSprintConsultantOnly(t *testing.T) {
	e := newEnv(t, "", "")
	client := e.user(t, "client@test.example", true, false)
	consultant := e.user(t, "nora@test.example", false, true)

	w := e.do(t, "POST", "/api/consultant/create-sprint", token(client), model.CreateSprintRequest{
		ClientName: "X", ClientEmail: "x@test.example", CompanyName: "X", Tier: "discovery",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	sp := e.createSprint(t, consultant, "feasibility")
	assert.Equal(t, 15000, sp.Price)
	assert.Equal(t, model.StatusDraft, sp.Status)
}

func TestCreateSprintValidation(t *testing.T) {
	e := newEnv(t, "", "")
	consultant := e.user(t, "nora@test.example", false, true)

	w := e.do(t, "POST", "/api/consultant/create-sprint", token(consultant), gin.H{
		"clientName": "X", "clientEmail": "not-an-email", "companyName": "X", "tier": "gold",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSprintVisibility(t *testing.T) {
	e := newEnv(t, "", "")
	consultant := e.user(t, "nora@test.example", false, true)
	stranger := e.user(t, "stranger@test.example", true, false)
	sp := e.createSprint(t, consultant, "discovery")

	// consultant sees it
	assert.Equal(t, http.StatusOK, e.do(t, "GET", fmt.Sprintf("/api/sprints/%d", sp.ID), token(consultant), nil).Code)

	// another client gets not-found, not forbidden
	assert.Equal(t, http.StatusNotFound, e.do(t, "GET", fmt.Sprintf("/api/sprints/%d", sp.ID), token(stranger), nil).Code)

	w := e.do(t, "GET", "/api/sprints", token(stranger), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestSprintNotFound(t *testing.T) {
	e := newEnv(t, "", "")
	consultant := e.user(t, "nora@test.example", false, true)
	assert.Equal(t, http.StatusNotFound, e.do(t, "GET", "/api/sprints/9999", token(consultant), nil).Code)
}

func TestTransitionEndpoint(t *testing.T) {
	e := newEnv(t, "", "")
	consultant := e.user(t, "nora@test.example", false, true)
	sp := e.createSprint(t, consultant, "discovery")
	path := fmt.Sprintf("/api/sprints/%d/status", sp.ID)

	// draft cannot jump straight to active
	w := e.do(t, "POST", path, token(consultant), gin.H{"status": "active"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, "POST", path, token(consultant), gin.H{"status": "payment_pending"})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, "POST", path, token(consultant), gin.H{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestModuleListStatuses(t *testing.T) {
	e := newEnv(t, "", "")
	consultant := e.user(t, "nora@test.example", false, true)
	sp := e.createSprint(t, consultant, "discovery")

	w := e.do(t, "GET", fmt.Sprintf("/api/sprints/%d/modules", sp.ID), token(consultant), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var views []model.SprintModuleView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	byKey := map[string]string{}
	for _, v := range views {
		byKey[v.Key] = v.Status
	}
	assert.Equal(t, "tier_locked", byKey["async_interviews"])
	assert.Equal(t, "in_progress", byKey["market_sizing"])
}

func TestCompleteUpdatesProgress(t *testing.T) {
	e := newEnv(t, "", "")
	consultant := e.user(t, "nora@test.example", false, true)
	sp := e.createSprint(t, consultant, "discovery")

	w := e.do(t, "POST", fmt.Sprintf("/api/sprints/%d/modules/market_sizing/complete", sp.ID), token(consultant), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Progress int `json:"progress"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Greater(t, resp.Progress, 0)
}

func fillIntake(t *testing.T, e *env, u *model.User, sprintID int) {
	t.Helper()
	w := e.do(t, "PUT", fmt.Sprintf("/api/sprints/%d/intake", sprintID), token(u), model.IntakeRequest{
		BusinessModel: "B2B SaaS",
		Assumptions:   []string{"a1", "a2", "a3"},
		Risks:         []string{"r1", "r2", "r3", "r4", "r5"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestGenerateSuccessPersistsAnalysis(t *testing.T) {
	gen := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(gin.H{"choices": []gin.H{{"message": gin.H{"content": "Report text."}}}})
	}))
	defer gen.Close()

	e := newEnv(t, gen.URL, "")
	consultant := e.user(t, "nora@test.example", false, true)
	sp := e.createSprint(t, consultant, "feasibility")
	fillIntake(t, e, consultant, sp.ID)

	w := e.do(t, "POST", fmt.Sprintf("/api/sprints/%d/modules/market_sizing/generate", sp.ID), token(consultant), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp model.GenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Report text.", resp.Report)

	var row model.SprintModule
	require.NoError(t, e.db.Where("sprint_id = ? AND module_type = ?", sp.ID, "market_sizing").First(&row).Error)
	assert.JSONEq(t, `{"report":"Report text."}`, string(row.AIAnalysis))
}

func TestGenerateNamedRoute(t *testing.T) {
	gen := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(gin.H{"choices": []gin.H{{"message": gin.H{"content": "Sized."}}}})
	}))
	defer gen.Close()

	e := newEnv(t, gen.URL, "")
	consultant := e.user(t, "nora@test.example", false, true)
	sp := e.createSprint(t, consultant, "feasibility")
	fillIntake(t, e, consultant, sp.ID)

	w := e.do(t, "POST", fmt.Sprintf("/api/sprints/%d/generate-market-sizing-report", sp.ID), token(consultant), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var row model.SprintModule
	require.NoError(t, e.db.Where("sprint_id = ? AND module_type = ?", sp.ID, "market_sizing").First(&row).Error)
	assert.JSONEq(t, `{"report":"Sized."}`, string(row.AIAnalysis))
}

func TestGenerateRemoteFailureLeavesRowUntouched(t *testing.T) {
	gen := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer gen.Close()

	e := newEnv(t, gen.URL, "")
	consultant := e.user(t, "nora@test.example", false, true)
	sp := e.createSprint(t, consultant, "feasibility")
	fillIntake(t, e, consultant, sp.ID)

	w := e.do(t, "POST", fmt.Sprintf("/api/sprints/%d/modules/market_sizing/generate", sp.ID), token(consultant), nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	var row model.SprintModule
	require.NoError(t, e.db.Where("sprint_id = ? AND module_type = ?", sp.ID, "market_sizing").First(&row).Error)
	assert.Empty(t, row.AIAnalysis)
	assert.False(t, row.IsCompleted)
}

func TestGenerateTierLocked(t *testing.T) {
	e := newEnv(t, "http://unused.invalid", "")
	consultant := e.user(t, "nora@test.example", false, true)
	sp := e.createSprint(t, consultant, "discovery")
	fillIntake(t, e, consultant, sp.ID)

	w := e.do(t, "POST", fmt.Sprintf("/api/sprints/%d/modules/async_interviews/generate", sp.ID), token(consultant), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGeneratePreconditionNotMet(t *testing.T) {
	e := newEnv(t, "http://unused.invalid", "")
	consultant := e.user(t, "nora@test.example", false, true)
	sp := e.createSprint(t, consultant, "feasibility")
	// intake left empty: assumption modules need 3 assumptions + 5 risks

	w := e.do(t, "POST", fmt.Sprintf("/api/sprints/%d/generate-assumption-playbook", sp.ID), token(consultant), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestGenerateDecisionEndpoint(t *testing.T) {
	gen := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content := `{"report":"Proceed.","recommendation":"GO","confidence":77}`
		json.NewEncoder(w).Encode(gin.H{"choices": []gin.H{{"message": gin.H{"content": content}}}})
	}))
	defer gen.Close()

	e := newEnv(t, gen.URL, "")
	consultant := e.user(t, "nora@test.example", false, true)
	sp := e.createSprint(t, consultant, "feasibility")
	fillIntake(t, e, consultant, sp.ID)

	require.Equal(t, http.StatusOK,
		e.do(t, "POST", fmt.Sprintf("/api/sprints/%d/modules/risk_assessment/complete", sp.ID), token(consultant), nil).Code)

	w := e.do(t, "POST", fmt.Sprintf("/api/sprints/%d/generate-decision", sp.ID), token(consultant), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp model.DecisionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "GO", resp.Recommendation)
	assert.Equal(t, 77, resp.Confidence)
	assert.Equal(t, 1, resp.ModulesAnalyzed)
}

func TestPaymentLinkAndConfirm(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(gin.H{
			"url":       "https://pay.example/s/abc",
			"reference": req["reference"],
		})
	}))
	defer provider.Close()

	e := newEnv(t, "", provider.URL)
	consultant := e.user(t, "nora@test.example", false, true)
	sp := e.createSprint(t, consultant, "validation")

	w := e.do(t, "POST", fmt.Sprintf("/api/sprints/%d/payment-link", sp.ID), token(consultant), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var link model.PaymentLinkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &link))
	assert.Equal(t, "https://pay.example/s/abc", link.URL)
	require.NotEmpty(t, link.Reference)

	w = e.do(t, "POST", "/api/payments/confirm", "", model.PaymentConfirmRequest{Reference: link.Reference})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var paid model.Sprint
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &paid))
	assert.Equal(t, model.StatusActive, paid.Status)
	assert.NotNil(t, paid.PaidAt)

	// unknown reference
	w = e.do(t, "POST", "/api/payments/confirm", "", model.PaymentConfirmRequest{Reference: "bogus"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPaymentProviderDown(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer provider.Close()

	e := newEnv(t, "", provider.URL)
	consultant := e.user(t, "nora@test.example", false, true)
	sp := e.createSprint(t, consultant, "discovery")

	w := e.do(t, "POST", fmt.Sprintf("/api/sprints/%d/payment-link", sp.ID), token(consultant), nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	// sprint stays draft, retry is safe
	var reloaded model.Sprint
	require.NoError(t, e.db.First(&reloaded, sp.ID).Error)
	assert.Equal(t, model.StatusDraft, reloaded.Status)
}

func TestComments(t *testing.T) {
	e := newEnv(t, "", "")
	consultant := e.user(t, "nora@test.example", false, true)
	sp := e.createSprint(t, consultant, "discovery")

	w := e.do(t, "POST", fmt.Sprintf("/api/sprints/%d/comments", sp.ID), token(consultant), model.CommentRequest{
		ModuleType: "risk_assessment",
		Content:    "needs another pass",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, "GET", fmt.Sprintf("/api/sprints/%d/comments?module=risk_assessment", sp.ID), token(consultant), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var comments []model.Comment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &comments))
	require.Len(t, comments, 1)
	assert.Equal(t, "needs another pass", comments[0].Content)

	w = e.do(t, "GET", fmt.Sprintf("/api/sprints/%d/comments?module=other", sp.ID), token(consultant), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}
