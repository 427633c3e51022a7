package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	appctx "stockroom/internal/core/context"
	"stockroom/internal/core/numerator"
	"stockroom/internal/domain/auth"
	"stockroom/internal/domain/catalog"
	"stockroom/internal/domain/credit"
	"stockroom/internal/domain/expenditure"
	"stockroom/internal/domain/inventory"
	"stockroom/internal/domain/invoice"
	"stockroom/internal/domain/reports"
	"stockroom/internal/domain/ticket"
	v1 "stockroom/internal/infrastructure/http/v1"
	"stockroom/internal/infrastructure/http/v1/middleware"
	"stockroom/internal/infrastructure/storage/memstore"
	"stockroom/internal/infrastructure/storage/postgres"
	"stockroom/pkg/logger"
)

const password = "Secret123!"

type apiFixture struct {
	router *gin.Engine
	auth   *auth.Service
	root   context.Context
}

func newAPI(t *testing.T, idem middleware.IdempotencyStore) *apiFixture {
	t.Helper()
	db := memstore.New()

	authCfg := auth.DefaultServiceConfig()
	authCfg.BcryptCost = bcrypt.MinCost
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig("test-secret"))
	authService := auth.NewService(db.Users(), db, jwtService, authCfg)

	catalogService := catalog.NewService(db.Catalog(), db.Users(), db, db.History())
	inventoryService := inventory.NewService(db.Inventory(), db.Catalog(), db, db.Outbox(), inventory.AlertPolicy{})
	num := &numerator.MockGenerator{}

	cfg := v1.RouterConfig{
		Logger:       logger.Nop(),
		JWTValidator: jwtService,
		Auth:         authService,
		Catalog:      catalogService,
		Inventory:    inventoryService,
		Invoices: invoice.NewService(invoice.Deps{
			Repo:      db.Invoices(),
			Catalog:   db.Catalog(),
			Stock:     inventoryService,
			Ledger:    credit.NewLedger(db.Credit(), db, nil),
			Numerator: num,
			TxManager: db,
			Events:    db.Outbox(),
			History:   db.History(),
		}),
		Tickets:      ticket.NewService(db.Tickets(), db.Catalog(), num, db, db.Outbox(), db.History()),
		Expenditures: expenditure.NewService(db.Expenditures(), db, db.History()),
		Reports:      reports.NewService(db.Reports(), db.Catalog()),
		Version:      "test",
	}
	if idem != nil {
		cfg.Idempotency = idem
	}

	ctx := context.Background()
	_, err := authService.EnsureSuperadmin(ctx, "Root", "root@example.com", password)
	require.NoError(t, err)
	root, err := db.Users().GetByEmail(ctx, "root@example.com")
	require.NoError(t, err)

	return &apiFixture{
		router: v1.NewRouter(cfg),
		auth:   authService,
		root:   appctx.WithUser(ctx, root.Context()),
	}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) login(t *testing.T, email string) string {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token auth.TokenPair `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token.AccessToken)
	return resp.Token.AccessToken
}

func (f *apiFixture) createUser(t *testing.T, ctx context.Context, email string, role appctx.Role) *auth.User {
	t.Helper()
	u, err := f.auth.CreateUser(ctx, auth.CreateUserRequest{Name: email, Email: email, Password: password, Role: role})
	require.NoError(t, err)
	return u
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code
}

func TestHealth(t *testing.T) {
	f := newAPI(t, nil)

	w := f.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "memory")
}

func TestLogin(t *testing.T) {
	f := newAPI(t, nil)

	w := f.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "root@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := f.login(t, "root@example.com")
	w = f.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "root@example.com")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := newAPI(t, nil)

	w := f.do(t, http.MethodGet, "/api/v1/stores", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/stores", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStoreManagerCannotCreateStores(t *testing.T) {
	f := newAPI(t, nil)
	admin := f.createUser(t, f.root, "admin@example.com", appctx.RoleAdmin)
	f.createUser(t, appctx.WithUser(f.root, admin.Context()), "manager@example.com", appctx.RoleStoreManager)

	token := f.login(t, "manager@example.com")
	w := f.do(t, http.MethodPost, "/api/v1/stores", token, map[string]any{"name": "Side Store"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "ACCESS_DENIED", errorCode(t, w))

	w = f.do(t, http.MethodGet, "/api/v1/expenditures", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminCreatesStoreWithDummyOutlet(t *testing.T) {
	f := newAPI(t, nil)
	f.createUser(t, f.root, "admin@example.com", appctx.RoleAdmin)
	token := f.login(t, "admin@example.com")

	w := f.do(t, http.MethodPost, "/api/v1/stores", token, map[string]any{"name": "Central", "creditLimit": "1000"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var store catalog.Store
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &store))

	w = f.do(t, http.MethodGet, "/api/v1/stores/"+store.ID.String()+"/outlets", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var outlets struct {
		Items []catalog.Outlet `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outlets))
	require.Len(t, outlets.Items, 1)
	assert.Equal(t, catalog.OutletDummy, outlets.Items[0].Type)
	assert.Equal(t, "Central - Dummy Outlet", outlets.Items[0].Name)

	w = f.do(t, http.MethodGet, "/api/v1/stores/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// keyStore is an in-memory IdempotencyStore.
type keyStore struct {
	mu       sync.Mutex
	replays  map[string]*postgres.IdempotencyReplay
	acquired int
	failed   int
}

func (s *keyStore) AcquireKey(_ context.Context, key, _, _, _ string) (*postgres.IdempotencyReplay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acquired++
	return s.replays[key], nil
}

func (s *keyStore) CompleteKey(_ context.Context, key string, status int, contentType string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replays[key] = &postgres.IdempotencyReplay{StatusCode: status, ContentType: contentType, Body: body}
	return nil
}

func (s *keyStore) FailKey(ctx context.Context, key string, status int, contentType string, body []byte) error {
	s.mu.Lock()
	s.failed++
	s.mu.Unlock()
	return s.CompleteKey(ctx, key, status, contentType, body)
}

func (s *keyStore) ReleaseKey(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.replays, key)
	return nil
}

func TestInvoiceCreationReplaysStoredResponse(t *testing.T) {
	keys := &keyStore{replays: make(map[string]*postgres.IdempotencyReplay)}
	f := newAPI(t, keys)
	f.createUser(t, f.root, "admin@example.com", appctx.RoleAdmin)
	token := f.login(t, "admin@example.com")

	first := f.do(t, http.MethodPost, "/api/v1/invoices/outlet-sale", token, map[string]any{},
		middleware.HeaderIdempotencyKey, "sale-1")
	require.Equal(t, http.StatusBadRequest, first.Code)

	second := f.do(t, http.MethodPost, "/api/v1/invoices/outlet-sale", token, map[string]any{},
		middleware.HeaderIdempotencyKey, "sale-1")
	assert.Equal(t, first.Code, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 2, keys.acquired)
	assert.Equal(t, 1, keys.failed)
}

func TestReceiveIntoForeignStoreIsDenied(t *testing.T) {
	f := newAPI(t, nil)
	f.createUser(t, f.root, "owner@example.com", appctx.RoleAdmin)
	f.createUser(t, f.root, "other@example.com", appctx.RoleAdmin)
	owner := f.login(t, "owner@example.com")

	w := f.do(t, http.MethodPost, "/api/v1/stores", owner, map[string]any{"name": "Central"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var store catalog.Store
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &store))

	w = f.do(t, http.MethodPost, "/api/v1/inventory/receive", f.login(t, "other@example.com"), map[string]any{
		"storeId":   store.ID,
		"productId": store.ID,
		"location":  map[string]any{"kind": "room", "id": store.ID},
		"quantity":  50,
	})
	assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	assert.Equal(t, "ACCESS_DENIED", errorCode(t, w))
}

func TestOutletStatusRoute(t *testing.T) {
	f := newAPI(t, nil)
	f.createUser(t, f.root, "admin@example.com", appctx.RoleAdmin)
	token := f.login(t, "admin@example.com")

	w := f.do(t, http.MethodPost, "/api/v1/stores", token, map[string]any{"name": "Central"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var store catalog.Store
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &store))

	w = f.do(t, http.MethodPost, "/api/v1/stores/"+store.ID.String()+"/outlets", token, map[string]any{"name": "Kiosk", "creditLimit": "50"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var outlet catalog.Outlet
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outlet))

	w = f.do(t, http.MethodPatch, "/api/v1/outlets/"+outlet.ID.String()+"/status", token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPatch, "/api/v1/outlets/"+outlet.ID.String()+"/status", token, map[string]any{"isActive": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outlet))
	assert.False(t, outlet.IsActive)

	w = f.do(t, http.MethodPut, "/api/v1/outlets/"+outlet.ID.String(), token, map[string]any{"creditLimit": "75"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outlet))
	assert.Equal(t, "75", outlet.CreditLimit.String())
}
