// Package handlers implements the REST endpoints of the lost-and-found API.
//
// Handlers are transport-thin: they validate input, call application
// services and translate results into HTTP responses, including weak ETags
// for list endpoints. The caller is identified by middleware.Identity.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-lostfound-backend/internal/domain"
	"github.com/tbourn/go-lostfound-backend/internal/http/middleware"
	"github.com/tbourn/go-lostfound-backend/internal/matching"
	"github.com/tbourn/go-lostfound-backend/internal/repo"
	"github.com/tbourn/go-lostfound-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// ItemService owns item reports: submission (with matching), listing,
// lifecycle updates, search and the category overview.
type ItemService interface {
	Submit(ctx context.Context, userID string, in services.SubmitInput, idemKey string) (*services.SubmitResult, error)
	Get(ctx context.Context, id string) (*domain.ItemReport, error)
	ListPage(ctx context.Context, f repo.ItemFilter, page, pageSize int) ([]domain.ItemReport, int64, error)
	UpdateStatus(ctx context.Context, userID, id, status string) (*domain.ItemReport, error)
	Matches(ctx context.Context, id string) ([]matching.RankedMatch, error)
	Search(ctx context.Context, q string, limit int) ([]services.SearchHit, error)
	Categories(ctx context.Context) (*services.CategoryOverview, error)
}

// NotificationService reads and acknowledges match notifications.
type NotificationService interface {
	ListPage(ctx context.Context, userID string, unreadOnly bool, page, pageSize int) ([]domain.Notification, int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, userID, id string) error
}

// MatchService lists a user's confirmed matches.
type MatchService interface {
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.ConfirmedMatch, int64, error)
}

// SweepService runs a lease-guarded matching sweep.
type SweepService interface {
	Run(ctx context.Context) (*services.SweepReport, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints. Sweeps may be nil, in which case the
// sweep endpoint answers 404.
type Handlers struct {
	items  ItemService
	notes  NotificationService
	match  MatchService
	sweeps SweepService
}

// New constructs Handlers bound to the given services.
func New(items ItemService, notes NotificationService, match MatchService, sweeps SweepService) *Handlers {
	return &Handlers{items: items, notes: notes, match: match, sweeps: sweeps}
}

// requireUser returns the caller's id, or writes 401 and returns false.
func requireUser(c *gin.Context) (string, bool) {
	uid := middleware.UserIDFrom(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "X-User-ID header required")
		return "", false
	}
	return uid, true
}
