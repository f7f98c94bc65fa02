// Notification and match HTTP handlers.
//
// This file exposes the caller's inbox and confirmed matches:
//   - GET  /notifications               (paginated, optional unread filter, ETag)
//   - GET  /notifications/unread-count  (badge count)
//   - POST /notifications/{id}/read     (acknowledge)
//   - GET  /matches                     (confirmed matches the caller is part of)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-lostfound-backend/internal/domain"
	"github.com/tbourn/go-lostfound-backend/internal/repo"
	"github.com/tbourn/go-lostfound-backend/internal/services"
	"github.com/tbourn/go-lostfound-backend/internal/utils"
)

// ListNotificationsResponse wraps a page of notifications.
type ListNotificationsResponse struct {
	Notifications []domain.Notification `json:"notifications"`
	Pagination    Pagination            `json:"pagination"`
}

// UnreadCountResponse is the number of unread notifications.
type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}

// ListMatchesResponse wraps a page of confirmed matches.
type ListMatchesResponse struct {
	Matches    []domain.ConfirmedMatch `json:"matches"`
	Pagination Pagination              `json:"pagination"`
}

// ListNotifications godoc
// @ID          listNotifications
// @Summary     List match notifications (paginated)
// @Description Returns the caller's notifications newest first. Supports weak ETag via If-None-Match.
// @Tags        Notifications
// @Produce     json
// @Param       X-User-ID      header  string  true  "User ID"                     example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       unread         query   bool    false "Only unread notifications"
// @Param       page           query   int     false "Page number"                 minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"              minimum(1) maximum(100) default(20)
// @Success     200  {object} handlers.ListNotificationsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     401  {object} handlers.ErrorResponse "Missing user"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /notifications [get]
func (h *Handlers) ListNotifications(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	ctx := c.Request.Context()
	unreadOnly := utils.BoolDefault(c.Query("unread"), false)
	page, pageSize := clampPagination(c)

	var db *gorm.DB
	if svc, ok := h.notes.(*services.NotificationService); ok {
		db = svc.DB
	}
	if db != nil {
		if count, unread, maxTS, err := repo.NotificationsStats(ctx, db, uid); err == nil {
			if notModified(c, weakETag("notifications", count, maxTS, unread, unreadOnly, page, pageSize)) {
				return
			}
		}
	}

	notes, total, err := h.notes.ListPage(ctx, uid, unreadOnly, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListNotificationsResponse{Notifications: notes, Pagination: paginate(page, pageSize, total)})
}

// UnreadCount godoc
// @ID          unreadCount
// @Summary     Count unread notifications
// @Tags        Notifications
// @Produce     json
// @Param       X-User-ID  header  string  true  "User ID"  example(user123)
// @Success     200  {object} handlers.UnreadCountResponse
// @Failure     401  {object} handlers.ErrorResponse "Missing user"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /notifications/unread-count [get]
func (h *Handlers) UnreadCount(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	n, err := h.notes.UnreadCount(c.Request.Context(), uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, UnreadCountResponse{Unread: n})
}

// MarkNotificationRead godoc
// @ID          markNotificationRead
// @Summary     Mark a notification read
// @Description Idempotent: marking an already read notification succeeds.
// @Tags        Notifications
// @Param       X-User-ID  header  string  true  "User ID"                 example(user123)
// @Param       id         path    string  true  "Notification ID (UUID)"  format(uuid)
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Missing user"
// @Failure     404  {object} handlers.ErrorResponse "Notification not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /notifications/{id}/read [post]
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "notification id must be a UUID")
		return
	}
	if err := h.notes.MarkRead(c.Request.Context(), uid, id); err != nil {
		if errors.Is(err, services.ErrNotificationNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "notification not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}

// ListMatches godoc
// @ID          listMatches
// @Summary     List confirmed matches (paginated)
// @Description Returns matches where the caller owns the lost or the found report, best first.
// @Tags        Matches
// @Produce     json
// @Param       X-User-ID  header  string  true  "User ID"         example(user123)
// @Param       page       query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size  query   int     false "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object} handlers.ListMatchesResponse
// @Failure     401  {object} handlers.ErrorResponse "Missing user"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /matches [get]
func (h *Handlers) ListMatches(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	page, pageSize := clampPagination(c)
	matches, total, err := h.match.ListPage(c.Request.Context(), uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListMatchesResponse{Matches: matches, Pagination: paginate(page, pageSize, total)})
}
