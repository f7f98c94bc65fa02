package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/tbourn/go-lostfound-backend/internal/services"
)

type stubSweeps struct {
	err error
}

func (s stubSweeps) Run(context.Context) (*services.SweepReport, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &services.SweepReport{Owner: "test", Items: 3}, nil
}

func TestRunSweep(t *testing.T) {
	cases := []struct {
		name   string
		sweeps SweepService
		user   string
		want   int
		code   string
	}{
		{"anonymous", stubSweeps{}, "", http.StatusUnauthorized, ErrCodeUnauthorized},
		{"disabled", nil, "u1", http.StatusNotFound, ErrCodeNotFound},
		{"in progress", stubSweeps{err: fmt.Errorf("acquire: %w", services.ErrSweepInProgress)}, "u1", http.StatusConflict, ErrCodeConflict},
		{"failure", stubSweeps{err: errors.New("db down")}, "u1", http.StatusInternalServerError, ErrCodeSweepFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := mount(New(nil, nil, nil, tc.sweeps), nil)
			w := do(t, r, call{method: http.MethodPost, path: "/sweeps", user: tc.user})
			if w.Code != tc.want {
				t.Fatalf("status=%d want %d", w.Code, tc.want)
			}
			if er := decode[ErrorResponse](t, w); er.Code != tc.code {
				t.Fatalf("code=%q want %q", er.Code, tc.code)
			}
		})
	}
}

func TestRunSweep_RealService(t *testing.T) {
	db := newTestDB(t)
	r := mount(offlineHandlers(t, db), db)
	seedMatch(t, r)

	w := do(t, r, call{method: http.MethodPost, path: "/sweeps", user: "ops"})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	// The pair was compared at submission, so the sweep finds nothing new.
	rep := decode[services.SweepReport](t, w)
	if rep.Items != 2 || rep.Matches != 0 || rep.Cancelled || rep.Owner == "" {
		t.Fatalf("report = %+v", rep)
	}
}
