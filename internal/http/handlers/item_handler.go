// Item HTTP handlers.
//
// This file exposes REST endpoints for item reports:
//   - POST  /items              (submit a report and run matching)
//   - GET   /items              (list, paginated, ETag support)
//   - GET   /items/search       (lexical search over active reports)
//   - GET   /items/{id}         (fetch one)
//   - PATCH /items/{id}/status  (owner changes lifecycle status)
//   - GET   /items/{id}/matches (confirmed matches, re-running matching)
//   - GET   /categories         (taxonomy with active counts)
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-lostfound-backend/internal/domain"
	"github.com/tbourn/go-lostfound-backend/internal/http/middleware"
	"github.com/tbourn/go-lostfound-backend/internal/matching"
	"github.com/tbourn/go-lostfound-backend/internal/repo"
	"github.com/tbourn/go-lostfound-backend/internal/services"
	"github.com/tbourn/go-lostfound-backend/internal/utils"
)

//
// DTOs
//

// SubmitItemRequest is the JSON payload for reporting a lost or found item.
type SubmitItemRequest struct {
	LostOrFound string `json:"lost_or_found" binding:"required" example:"Lost"`
	Title       string `json:"title" binding:"required" example:"Black leather wallet"`
	Description string `json:"description" binding:"required" example:"Black leather wallet with initials JD engraved"`
	Location    string `json:"location" example:"Central Station, platform 3"`
	Date        string `json:"date" binding:"required" example:"2024-05-09"`
	Time        string `json:"time,omitempty" example:"18:30"`
}

// SubmitItemResponse is the stored report and the best matches found for it.
type SubmitItemResponse struct {
	Item    *domain.ItemReport      `json:"item"`
	Matches []matching.DisplayMatch `json:"matches"`
}

// UpdateStatusRequest changes an item's lifecycle status.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required" example:"returned"`
}

// ListItemsResponse wraps a page of items and pagination information.
type ListItemsResponse struct {
	Items      []domain.ItemReport `json:"items"`
	Pagination Pagination          `json:"pagination"`
}

// SearchItemsResponse holds ranked search hits.
type SearchItemsResponse struct {
	Query string               `json:"query"`
	Hits  []services.SearchHit `json:"hits"`
}

// ItemMatchesResponse lists the confirmed matches of one item.
type ItemMatchesResponse struct {
	ItemID  string                  `json:"item_id"`
	Matches []matching.DisplayMatch `json:"matches"`
}

//
// Handlers
//

// SubmitItem godoc
// @ID          submitItem
// @Summary     Report a lost or found item
// @Description Validates and stores the report, extracts attributes, assigns a category and matches it
// @Description against reports of the opposite kind. Both owners of every qualifying pair are notified.
// @Description Supports idempotency via the Idempotency-Key header (same key returns the stored report).
// @Tags        Items
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  true  "User ID"                                   example(user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"          example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.SubmitItemRequest  true  "Item report"
//
// @Success     201  {object}  handlers.SubmitItemResponse  "Stored report with matches"
// @Success     200  {object}  handlers.SubmitItemResponse  "Replayed submission"
// @Header      200  {string}  Idempotency-Replayed  "true on replay"
// @Failure     400  {object}  handlers.ErrorResponse       "Invalid report"
// @Failure     401  {object}  handlers.ErrorResponse       "Missing user"
// @Failure     500  {object}  handlers.ErrorResponse       "Internal error"
// @Router      /items [post]
func (h *Handlers) SubmitItem(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	var req SubmitItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "lost_or_found, title, description and date are required")
		return
	}
	key, _ := middleware.GetIdempotencyKey(c)

	res, err := h.items.Submit(c.Request.Context(), uid, services.SubmitInput{
		LostOrFound: req.LostOrFound,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Date:        req.Date,
		Time:        req.Time,
	}, key)
	if err != nil {
		if errors.Is(err, services.ErrInvalidItem) {
			fail(c, http.StatusBadRequest, ErrCodeInvalidItem, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeSubmitFailed, err.Error())
		return
	}

	status := http.StatusCreated
	if res.Replayed {
		c.Header("Idempotency-Replayed", "true")
		status = http.StatusOK
	}
	ok(c, status, SubmitItemResponse{Item: res.Item, Matches: matching.FormatForDisplay(res.Matches)})
}

// ListItems godoc
// @ID          listItems
// @Summary     List item reports (paginated)
// @Description Returns reports newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Items
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"items:12:1715280000\")
// @Param       lost_or_found  query   string  false "Lost or Found"               Enums(Lost, Found)
// @Param       category       query   string  false "Category"                    example(Personal Items)
// @Param       subcategory    query   string  false "Subcategory"                 example(Wallets)
// @Param       status         query   string  false "Lifecycle status"            Enums(active, returned, closed)
// @Param       mine           query   bool    false "Only the caller's reports"
// @Param       page           query   int     false "Page number"                 minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"              minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListItemsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     401  {object} handlers.ErrorResponse "mine=true without a user"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /items [get]
func (h *Handlers) ListItems(c *gin.Context) {
	ctx := c.Request.Context()
	f := repo.ItemFilter{
		LostOrFound: strings.TrimSpace(c.Query("lost_or_found")),
		Category:    strings.TrimSpace(c.Query("category")),
		Subcategory: strings.TrimSpace(c.Query("subcategory")),
		Status:      strings.ToLower(strings.TrimSpace(c.Query("status"))),
	}
	if utils.BoolDefault(c.Query("mine"), false) {
		uid, okUser := requireUser(c)
		if !okUser {
			return
		}
		f.UserID = uid
	}
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, ok := h.items.(*services.ItemService); ok {
		db = svc.DB
	}
	if db != nil {
		if count, maxTS, err := repo.ItemsStats(ctx, db, f); err == nil {
			etag := weakETag("items", count, maxTS, f.LostOrFound, f.Category, f.Subcategory, f.Status, f.UserID, page, pageSize)
			if notModified(c, etag) {
				return
			}
		}
	}

	items, total, err := h.items.ListPage(ctx, f, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListItemsResponse{Items: items, Pagination: paginate(page, pageSize, total)})
}

// GetItem godoc
// @ID          getItem
// @Summary     Fetch an item report
// @Tags        Items
// @Produce     json
// @Param       id   path  string  true  "Item ID (UUID)"  format(uuid)
// @Success     200  {object} domain.ItemReport
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Item not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /items/{id} [get]
func (h *Handlers) GetItem(c *gin.Context) {
	id, okID := itemID(c)
	if !okID {
		return
	}
	it, err := h.items.Get(c.Request.Context(), id)
	if err != nil {
		itemError(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, it)
}

// UpdateItemStatus godoc
// @ID          updateItemStatus
// @Summary     Change an item's status
// @Description The owner marks a report returned or closed, or reopens it. Only active reports are matched.
// @Tags        Items
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  true  "User ID"         example(user123)
// @Param       id         path    string  true  "Item ID (UUID)"  format(uuid)
// @Param       body       body    handlers.UpdateStatusRequest  true  "New status"
// @Success     200  {object} domain.ItemReport
// @Failure     400  {object} handlers.ErrorResponse "Invalid status"
// @Failure     401  {object} handlers.ErrorResponse "Missing user"
// @Failure     403  {object} handlers.ErrorResponse "Not the owner"
// @Failure     404  {object} handlers.ErrorResponse "Item not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /items/{id}/status [patch]
func (h *Handlers) UpdateItemStatus(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	id, okID := itemID(c)
	if !okID {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status required")
		return
	}
	it, err := h.items.UpdateStatus(c.Request.Context(), uid, id, req.Status)
	if err != nil {
		itemError(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, it)
}

// ItemMatches godoc
// @ID          itemMatches
// @Summary     List an item's matches
// @Description Runs matching for an active report against reports filed since, then returns every
// @Description confirmed match it takes part in, best first. Pairs already compared are not scored again.
// @Tags        Items
// @Produce     json
// @Param       id   path  string  true  "Item ID (UUID)"  format(uuid)
// @Success     200  {object} handlers.ItemMatchesResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Item not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /items/{id}/matches [get]
func (h *Handlers) ItemMatches(c *gin.Context) {
	id, okID := itemID(c)
	if !okID {
		return
	}
	matches, err := h.items.Matches(c.Request.Context(), id)
	if err != nil {
		itemError(c, err, ErrCodeMatchFailed)
		return
	}
	ok(c, http.StatusOK, ItemMatchesResponse{ItemID: id, Matches: matching.FormatForDisplay(matches)})
}

// SearchItems godoc
// @ID          searchItems
// @Summary     Search active reports
// @Description Ranks active reports by word overlap with the query (title, description, location and attributes).
// @Tags        Items
// @Produce     json
// @Param       q      query  string  true   "Search text"    example(black wallet)
// @Param       limit  query  int     false  "Maximum hits"   minimum(1) maximum(50) default(10)
// @Success     200  {object} handlers.SearchItemsResponse
// @Failure     400  {object} handlers.ErrorResponse "Empty query"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /items/search [get]
func (h *Handlers) SearchItems(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	limit := utils.Clamp(utils.AtoiDefault(c.Query("limit"), 10), 1, 50)

	hits, err := h.items.Search(c.Request.Context(), q, limit)
	if err != nil {
		if errors.Is(err, services.ErrEmptyQuery) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "q required")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeSearchFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, SearchItemsResponse{Query: q, Hits: hits})
}

// ListCategories godoc
// @ID          listCategories
// @Summary     Category tree with counts
// @Description Returns the fixed three-level taxonomy and the number of active reports per subcategory.
// @Tags        Categories
// @Produce     json
// @Success     200  {object} services.CategoryOverview
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /categories [get]
func (h *Handlers) ListCategories(c *gin.Context) {
	ov, err := h.items.Categories(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ov)
}

//
// Helpers
//

func itemID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "item id must be a UUID")
		return "", false
	}
	return id, true
}

// itemError maps item service sentinels to responses; anything else is a
// 500 with fallbackCode.
func itemError(c *gin.Context, err error, fallbackCode string) {
	switch {
	case errors.Is(err, services.ErrItemNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "item not found")
	case errors.Is(err, services.ErrForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "item belongs to another user")
	case errors.Is(err, services.ErrInvalidStatus):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status must be active, returned or closed")
	default:
		fail(c, http.StatusInternalServerError, fallbackCode, err.Error())
	}
}
