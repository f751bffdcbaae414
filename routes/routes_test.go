package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"trainerpro-backend/config"
	"trainerpro-backend/controllers"
	"trainerpro-backend/models"
	"trainerpro-backend/repository"
	"trainerpro-backend/services"
	"trainerpro-backend/utils"
)

type recordingSender struct {
	mu    sync.Mutex
	texts []string
}

func (s *recordingSender) Name() string       { return "recording" }
func (s *recordingSender) CheckConfig() error { return nil }

func (s *recordingSender) Send(ctx context.Context, phone, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
	return "wamid-1", nil
}

type testAPI struct {
	t      *testing.T
	router *gin.Engine
	sender *recordingSender
	token  string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, config.Migrate(db))
	config.DB = db

	utils.SetJWTConfig("routes-test-secret", 1)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repository.New(db)
	sender := &recordingSender{}
	automation := services.NewAutomationService(store, sender, services.Options{Location: time.UTC, Logger: log})

	cfg := &config.Config{Env: "test", CORSOrigins: []string{"http://localhost:3000"}}
	router := SetupRouter(cfg, Handlers{
		Messages: &controllers.MessageController{Store: store, Automation: automation, Location: time.UTC, Log: log},
		Webhooks: &controllers.WebhookController{Inbound: services.NewInboundService(store, log), APIKey: "hook-key", Log: log},
	}, log)

	return &testAPI{t: t, router: router, sender: sender}
}

func (a *testAPI) do(method, path string, body interface{}, headers ...string) (*httptest.ResponseRecorder, map[string]interface{}) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func (a *testAPI) register() {
	w, out := a.do(http.MethodPost, "/auth/register", gin.H{
		"email":    "coach@example.com",
		"name":     "Carlos Personal",
		"password": "super-secret",
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	a.token = out["token"].(string)
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t)
	api.register()

	w, _ := api.do(http.MethodPost, "/auth/register", gin.H{
		"email": "coach@example.com", "name": "Dup", "password": "super-secret",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	api.token = ""
	w, _ = api.do(http.MethodPost, "/auth/login", gin.H{"identifier": "coach@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, out := api.do(http.MethodPost, "/auth/login", gin.H{"identifier": "COACH@example.com", "password": "super-secret"})
	require.Equal(t, http.StatusOK, w.Code)
	api.token = out["token"].(string)

	w, out = api.do(http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Carlos Personal", out["trainer"].(map[string]interface{})["name"])
}

func TestRecipientsAndManualSend(t *testing.T) {
	api := newTestAPI(t)
	api.register()

	w, out := api.do(http.MethodPost, "/api/recipients", gin.H{
		"kind": "student", "name": "Ana Souza", "phone": "(11) 98765-4321",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "5511987654321", out["phone"])
	assert.Equal(t, true, out["optIn"])
	recipientID := out["id"].(string)

	w, _ = api.do(http.MethodPost, "/api/recipients", gin.H{
		"kind": "student", "name": "Outra Ana", "phone": "+55 11 98765-4321",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = api.do(http.MethodPost, "/api/recipients", gin.H{"kind": "friend", "name": "X", "phone": "11987650000"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, out = api.do(http.MethodPost, "/api/messages", gin.H{"recipientId": recipientID, "message": "Oi {primeiro_nome}, tudo bem?"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "sent", out["status"])
	assert.Equal(t, []string{"Oi Ana, tudo bem?"}, api.sender.texts)

	w, _ = api.do(http.MethodPut, "/api/recipients/"+recipientID, gin.H{"optIn": false})
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = api.do(http.MethodPost, "/api/messages", gin.H{"recipientId": recipientID, "message": "Oi"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Len(t, api.sender.texts, 1)

	w, _ = api.do(http.MethodGet, "/api/messages?recipientId="+recipientID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var logs []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &logs))
	require.Len(t, logs, 1)
	assert.Equal(t, "manual", logs[0]["triggerType"])

	w, _ = api.do(http.MethodGet, "/api/recipients/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAutomationRulesAndRun(t *testing.T) {
	api := newTestAPI(t)
	api.register()

	w, _ := api.do(http.MethodPost, "/api/automations", gin.H{
		"name": "Aniversário de casamento", "triggerType": "anniversary", "message": "Oi",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = api.do(http.MethodPost, "/api/automations", gin.H{
		"name": "Janela inválida", "triggerType": "birthday", "message": "Oi", "windowStart": "25:00",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, out := api.do(http.MethodPost, "/api/automations", gin.H{
		"name": "Aniversário", "triggerType": "birthday", "message": "Feliz aniversário, {nome}!",
		"includeWeekends": true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, true, out["isActive"])
	ruleID := out["id"].(string)

	w, out = api.do(http.MethodPut, "/api/automations/"+ruleID, gin.H{"isActive": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, out["isActive"])

	w, out = api.do(http.MethodPost, "/api/automations/run", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(0), out["sent"])
	assert.Len(t, out["results"], 7)

	w, _ = api.do(http.MethodDelete, "/api/automations/"+ruleID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = api.do(http.MethodGet, "/api/automations/"+ruleID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChargesPay(t *testing.T) {
	api := newTestAPI(t)
	api.register()

	_, recipient := api.do(http.MethodPost, "/api/recipients", gin.H{"kind": "student", "name": "Ana", "phone": "11987654321"})
	w, charge := api.do(http.MethodPost, "/api/charges", gin.H{
		"recipientId": recipient["id"], "description": "Mensalidade", "amount": 150,
		"dueDate": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "pending", charge["status"])
	id := charge["id"].(string)

	w, paid := api.do(http.MethodPost, "/api/charges/"+id+"/pay", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "paid", paid["status"])
	assert.NotNil(t, paid["paidAt"])

	w, _ = api.do(http.MethodPost, "/api/charges/"+id+"/pay", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestStevoWebhook(t *testing.T) {
	api := newTestAPI(t)
	api.register()
	_, _ = api.do(http.MethodPost, "/api/recipients", gin.H{"kind": "student", "name": "Ana", "phone": "11987654321"})
	api.token = ""

	payload := gin.H{
		"event": "messages.upsert",
		"data": gin.H{
			"key":     gin.H{"remoteJid": "5511987654321@s.whatsapp.net", "fromMe": false, "id": "ABC"},
			"message": gin.H{"conversation": "já paguei, segue o comprovante"},
		},
	}

	w, _ := api.do(http.MethodPost, "/webhooks/stevo", payload)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, out := api.do(http.MethodPost, "/webhooks/stevo", payload, "apikey", "hook-key")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(1), out["matched"])
	assert.Equal(t, "high", out["confidence"])
	assert.Equal(t, "auto_confirm", out["action"])

	w, out = api.do(http.MethodPost, "/webhooks/stevo", gin.H{"event": "connection.update", "data": gin.H{}}, "apikey", "hook-key")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ignored", out["status"])
}

func TestOverview(t *testing.T) {
	api := newTestAPI(t)
	api.register()
	_, _ = api.do(http.MethodPost, "/api/recipients", gin.H{"kind": "student", "name": "Ana", "phone": "11987654321"})
	_, _ = api.do(http.MethodPost, "/api/recipients", gin.H{"kind": "lead", "name": "Leo", "phone": "11911112222", "optIn": false})

	w, out := api.do(http.MethodGet, "/api/messages/overview", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(1), out["activeStudents"])
	assert.Equal(t, float64(0), out["activeLeads"])
	assert.Equal(t, float64(1), out["optedOut"])
}

func TestOverviewReportsDatabaseErrors(t *testing.T) {
	api := newTestAPI(t)
	api.register()
	require.NoError(t, config.DB.Migrator().DropTable(&models.Charge{}))

	w, out := api.do(http.MethodGet, "/api/messages/overview", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to load overview", out["error"])
}
