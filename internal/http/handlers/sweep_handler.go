// Sweep HTTP handler.
//
//   - POST /sweeps  (run a full matching sweep now)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-lostfound-backend/internal/services"
)

// RunSweep godoc
// @ID          runSweep
// @Summary     Run a matching sweep
// @Description Re-runs matching for every active report. Only one sweep runs at a time across all
// @Description processes; a concurrent request gets 409. Already compared pairs are skipped.
// @Tags        Sweeps
// @Produce     json
// @Param       X-User-ID  header  string  true  "User ID"  example(ops)
// @Success     200  {object} services.SweepReport
// @Failure     401  {object} handlers.ErrorResponse "Missing user"
// @Failure     404  {object} handlers.ErrorResponse "Sweeps disabled"
// @Failure     409  {object} handlers.ErrorResponse "Sweep already running"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /sweeps [post]
func (h *Handlers) RunSweep(c *gin.Context) {
	if _, okUser := requireUser(c); !okUser {
		return
	}
	if h.sweeps == nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "sweeps are disabled")
		return
	}
	rep, err := h.sweeps.Run(c.Request.Context())
	if err != nil {
		if errors.Is(err, services.ErrSweepInProgress) {
			fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeSweepFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, rep)
}
