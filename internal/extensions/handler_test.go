package extensions

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"estate-backend/internal/audit"
	"estate-backend/internal/auth"
	"estate-backend/internal/config"
	"estate-backend/internal/database"
	"estate-backend/internal/httpx"
	"estate-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type adminTestEnv struct {
	app   *fiber.App
	store *Store
	db    *gorm.DB
	token string
}

func newAdminTestEnv(t *testing.T) *adminTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	store := NewStore(db)
	recorder := audit.NewRecorder(db)
	cfg := &config.Config{JWTSecret: testSecret}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return httpx.Fail(c, e.Code, e.Message)
			}
			return httpx.Fail(c, fiber.StatusInternalServerError, "unexpected server error")
		},
	})

	adminRoutes := app.Group("/api/admin",
		auth.JWTMiddleware(cfg),
		auth.RequireRole(models.RoleSuperAdmin, models.RoleEditor),
	)
	adminRoutes.Get("/extensions", ListExtensionsHandler(store))
	adminRoutes.Put("/extensions/:id", UpsertExtensionHandler(store, recorder))
	adminRoutes.Delete("/extensions/:id", DeleteExtensionHandler(store, recorder))
	adminRoutes.Post("/extensions/:id/promotions", AddPromotionHandler(store, recorder))
	adminRoutes.Put("/extensions/:id/promotions/:promotionId", UpdatePromotionHandler(store, recorder))
	adminRoutes.Delete("/extensions/:id/promotions", DeletePromotionHandler(store, recorder))
	adminRoutes.Post("/extensions/:id/tags", AddTagHandler(store, recorder))
	adminRoutes.Delete("/extensions/:id/tags", DeleteTagHandler(store, recorder))

	token, err := auth.GenerateToken(testSecret, &models.User{
		ID: 1, Email: "editor@example.com", Role: models.RoleEditor,
	})
	require.NoError(t, err)

	return &adminTestEnv{app: app, store: store, db: db, token: token}
}

func (e *adminTestEnv) do(t *testing.T, method, target, token string, body interface{}) (*http.Response, httpx.Envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env httpx.Envelope
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env))
	}
	return resp, env
}

func TestAdminRoutesRejectMissingToken(t *testing.T) {
	env := newAdminTestEnv(t)

	resp, body := env.do(t, "PUT", "/api/admin/extensions/ext-1", "", map[string]interface{}{"priority": 5})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, body.Success)
	assert.Equal(t, "Unauthorized", body.Error)

	// No side effect on the store.
	_, err := env.store.GetByPropertyID("ext-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdminRoutesRejectGarbageToken(t *testing.T) {
	env := newAdminTestEnv(t)

	resp, _ := env.do(t, "PUT", "/api/admin/extensions/ext-1", "not-a-jwt", map[string]interface{}{"priority": 5})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUpsertExtensionPartialPatch(t *testing.T) {
	env := newAdminTestEnv(t)

	resp, _ := env.do(t, "PUT", "/api/admin/extensions/ext-1", env.token, map[string]interface{}{
		"priority":            5,
		"is_featured_popular": true,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, "PUT", "/api/admin/extensions/ext-1", env.token, map[string]interface{}{
		"is_hidden": true,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ext, err := env.store.GetByPropertyID("ext-1")
	require.NoError(t, err)
	assert.Equal(t, 5, ext.Priority, "second patch leaves earlier fields alone")
	assert.True(t, ext.IsFeaturedPopular)
	assert.True(t, ext.IsHidden)

	var count int64
	env.db.Model(&models.PropertyExtension{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestUpsertRejectsInvalidClosedDealType(t *testing.T) {
	env := newAdminTestEnv(t)

	resp, body := env.do(t, "PUT", "/api/admin/extensions/ext-1", env.token, map[string]interface{}{
		"closed_deal_type": "auction",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, body.Success)
}

func TestPromotionLifecycleOverHTTP(t *testing.T) {
	env := newAdminTestEnv(t)

	resp, body := env.do(t, "POST", "/api/admin/extensions/ext-1/promotions", env.token, map[string]interface{}{
		"label": "March discount",
		"type":  "discount",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	raw, err := json.Marshal(body.Data)
	require.NoError(t, err)
	var promo models.Promotion
	require.NoError(t, json.Unmarshal(raw, &promo))
	assert.True(t, promo.IsActive)

	// Deactivate, then remove.
	resp, _ = env.do(t, "PUT", "/api/admin/extensions/ext-1/promotions/"+promo.ID, env.token, map[string]interface{}{
		"is_active": false,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	updated, err := env.store.GetByPropertyID("ext-1")
	require.NoError(t, err)
	require.Len(t, updated.Promotions, 1)
	assert.False(t, updated.Promotions[0].IsActive)

	resp, _ = env.do(t, "DELETE", "/api/admin/extensions/ext-1/promotions?promotionId="+promo.ID, env.token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAddPromotionRejectsUnknownType(t *testing.T) {
	env := newAdminTestEnv(t)

	resp, body := env.do(t, "POST", "/api/admin/extensions/ext-1/promotions", env.token, map[string]interface{}{
		"label": "Mystery",
		"type":  "mystery",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, body.Success)
}

func TestDeleteExtensionOverHTTP(t *testing.T) {
	env := newAdminTestEnv(t)

	_, err := env.store.Upsert("ext-1", Patch{Priority: intPtr(2)})
	require.NoError(t, err)
	_, err = env.store.AddTag("ext-1", TagInput{Name: "sea view"})
	require.NoError(t, err)

	resp, _ := env.do(t, "DELETE", "/api/admin/extensions/ext-1", env.token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, err = env.store.GetByPropertyID("ext-1")
	assert.ErrorIs(t, err, ErrNotFound)

	var tags int64
	env.db.Model(&models.PropertyTag{}).Count(&tags)
	assert.Equal(t, int64(0), tags)
}

func TestMutationsWriteAuditTrail(t *testing.T) {
	env := newAdminTestEnv(t)

	env.do(t, "PUT", "/api/admin/extensions/ext-1", env.token, map[string]interface{}{"priority": 1})
	env.do(t, "POST", "/api/admin/extensions/ext-1/tags", env.token, map[string]interface{}{"name": "beachfront"})

	var logs []models.AuditLog
	require.NoError(t, env.db.Order("id").Find(&logs).Error)
	require.Len(t, logs, 2)

	assert.Equal(t, "extension", logs[0].EntityType)
	assert.Equal(t, models.AuditActionCreate, logs[0].Action)
	assert.Equal(t, "ext-1", logs[0].PropertyID)
	assert.Equal(t, "editor@example.com", logs[0].UserName)
	assert.Equal(t, "tag", logs[1].EntityType)
}
