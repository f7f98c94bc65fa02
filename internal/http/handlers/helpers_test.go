package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-lostfound-backend/internal/extraction"
	"github.com/tbourn/go-lostfound-backend/internal/http/middleware"
	"github.com/tbourn/go-lostfound-backend/internal/llm"
	"github.com/tbourn/go-lostfound-backend/internal/matching"
	"github.com/tbourn/go-lostfound-backend/internal/repo"
	"github.com/tbourn/go-lostfound-backend/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// offlineHandlers wires the real services over db with the stub model, so
// extraction and categorization use the heuristics and scoring uses word
// overlap.
func offlineHandlers(t *testing.T, db *gorm.DB) *Handlers {
	t.Helper()
	stub := llm.NewStub(nil)
	orch := matching.NewOrchestrator(
		matching.DBPool{DB: db},
		matching.NewLedger(db, 1, zerolog.Nop()),
		matching.NewRubricScorer(stub, nil, zerolog.Nop()),
		matching.NewNotifier(db, 1, zerolog.Nop()),
		matching.DefaultOptions(),
		zerolog.Nop(),
	)
	items := services.NewItemService(db,
		extraction.NewExtractor(stub, zerolog.Nop()),
		extraction.NewCategorizer(stub, extraction.DefaultTaxonomy(), 0, zerolog.Nop()),
		orch, zerolog.Nop())
	sweeps := services.NewSweepService(db, orch, time.Minute, 50, zerolog.Nop())
	return New(items, services.NewNotificationService(db), services.NewMatchService(db), sweeps)
}

// mount registers every endpoint behind the identity and idempotency
// middleware, mirroring the production router.
func mount(h *Handlers, db *gorm.DB) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Identity(middleware.IdentityOptions{}))
	var lookup middleware.IdempotencyLookup
	if db != nil {
		lookup = func(ctx context.Context, uid, scope, key string, now time.Time) (bool, error) {
			_, err := repo.GetIdempotency(ctx, db, uid, scope, key, now)
			return err == nil, nil
		}
	}
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{
		Scope: func(*gin.Context) string { return services.IdempotencyScopeItems },
	}, lookup))

	r.POST("/items", h.SubmitItem)
	r.GET("/items", h.ListItems)
	r.GET("/items/search", h.SearchItems)
	r.GET("/items/:id", h.GetItem)
	r.PATCH("/items/:id/status", h.UpdateItemStatus)
	r.GET("/items/:id/matches", h.ItemMatches)
	r.GET("/categories", h.ListCategories)
	r.GET("/notifications", h.ListNotifications)
	r.GET("/notifications/unread-count", h.UnreadCount)
	r.POST("/notifications/:id/read", h.MarkNotificationRead)
	r.GET("/matches", h.ListMatches)
	r.POST("/sweeps", h.RunSweep)
	return r
}

type call struct {
	method, path, user string
	body               any
	headers            map[string]string
}

func do(t *testing.T, r http.Handler, c call) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if c.body != nil {
		if err := json.NewEncoder(&buf).Encode(c.body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(c.method, c.path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.user != "" {
		req.Header.Set(middleware.HeaderUserID, c.user)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T: %v (body=%s)", v, err, w.Body.String())
	}
	return v
}

func wallet(kind, date string) SubmitItemRequest {
	return SubmitItemRequest{
		LostOrFound: kind,
		Title:       "Black leather wallet",
		Description: "Black leather wallet with engraved initials JD and a library card",
		Location:    "Central Station",
		Date:        date,
	}
}
