package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/tbourn/go-lostfound-backend/internal/domain"
	"github.com/tbourn/go-lostfound-backend/internal/matching"
	"github.com/tbourn/go-lostfound-backend/internal/repo"
	"github.com/tbourn/go-lostfound-backend/internal/services"
)

// stubItems satisfies ItemService for error paths.
type stubItems struct {
	submitFn func(ctx context.Context, uid string, in services.SubmitInput, key string) (*services.SubmitResult, error)
	searchFn func(ctx context.Context, q string, limit int) ([]services.SearchHit, error)
}

func (s *stubItems) Submit(ctx context.Context, uid string, in services.SubmitInput, key string) (*services.SubmitResult, error) {
	return s.submitFn(ctx, uid, in, key)
}
func (s *stubItems) Get(context.Context, string) (*domain.ItemReport, error) {
	return nil, services.ErrItemNotFound
}
func (s *stubItems) ListPage(context.Context, repo.ItemFilter, int, int) ([]domain.ItemReport, int64, error) {
	return nil, 0, errors.New("db down")
}
func (s *stubItems) UpdateStatus(context.Context, string, string, string) (*domain.ItemReport, error) {
	return nil, errors.New("db down")
}
func (s *stubItems) Matches(context.Context, string) ([]matching.RankedMatch, error) {
	return nil, errors.New("db down")
}
func (s *stubItems) Search(ctx context.Context, q string, limit int) ([]services.SearchHit, error) {
	return s.searchFn(ctx, q, limit)
}
func (s *stubItems) Categories(context.Context) (*services.CategoryOverview, error) {
	return nil, errors.New("db down")
}

func TestSubmitItem_MatchesAndNotifies(t *testing.T) {
	db := newTestDB(t)
	r := mount(offlineHandlers(t, db), db)

	w := do(t, r, call{method: http.MethodPost, path: "/items", user: "owner", body: wallet("Lost", "2024-05-09")})
	if w.Code != http.StatusCreated {
		t.Fatalf("lost status=%d body=%s", w.Code, w.Body.String())
	}
	lost := decode[SubmitItemResponse](t, w)
	if lost.Item == nil || lost.Item.Category == "" || len(lost.Matches) != 0 {
		t.Fatalf("lost response: %+v", lost)
	}

	w = do(t, r, call{method: http.MethodPost, path: "/items", user: "finder", body: wallet("Found", "2024-05-10")})
	if w.Code != http.StatusCreated {
		t.Fatalf("found status=%d body=%s", w.Code, w.Body.String())
	}
	found := decode[SubmitItemResponse](t, w)
	if len(found.Matches) != 1 {
		t.Fatalf("found matches: %+v", found.Matches)
	}
	m := found.Matches[0]
	if m.ID != lost.Item.ID || m.Confidence != domain.ConfidenceHigh || m.Details.Title != lost.Item.Title {
		t.Fatalf("match = %+v", m)
	}

	w = do(t, r, call{method: http.MethodGet, path: "/items/" + lost.Item.ID + "/matches"})
	if w.Code != http.StatusOK {
		t.Fatalf("matches status=%d body=%s", w.Code, w.Body.String())
	}
	got := decode[ItemMatchesResponse](t, w)
	if got.ItemID != lost.Item.ID || len(got.Matches) != 1 || got.Matches[0].ID != found.Item.ID {
		t.Fatalf("item matches = %+v", got)
	}
}

func TestSubmitItem_Validation(t *testing.T) {
	db := newTestDB(t)
	r := mount(offlineHandlers(t, db), db)

	cases := []struct {
		name string
		user string
		body any
		want int
		code string
	}{
		{"no user", "", wallet("Lost", "2024-05-09"), http.StatusUnauthorized, ErrCodeUnauthorized},
		{"missing fields", "u1", map[string]string{"title": "x"}, http.StatusBadRequest, ErrCodeBadRequest},
		{"bad kind", "u1", wallet("Misplaced", "2024-05-09"), http.StatusBadRequest, ErrCodeInvalidItem},
		{"bad date", "u1", wallet("Lost", "09/05/2024"), http.StatusBadRequest, ErrCodeInvalidItem},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, r, call{method: http.MethodPost, path: "/items", user: tc.user, body: tc.body})
			if w.Code != tc.want {
				t.Fatalf("status=%d want %d body=%s", w.Code, tc.want, w.Body.String())
			}
			if er := decode[ErrorResponse](t, w); er.Code != tc.code {
				t.Fatalf("code=%q want %q", er.Code, tc.code)
			}
		})
	}
}

func TestSubmitItem_IdempotentReplay(t *testing.T) {
	db := newTestDB(t)
	r := mount(offlineHandlers(t, db), db)
	req := call{
		method:  http.MethodPost,
		path:    "/items",
		user:    "owner",
		body:    wallet("Lost", "2024-05-09"),
		headers: map[string]string{"Idempotency-Key": "submit-0001"},
	}

	w := do(t, r, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("first status=%d body=%s", w.Code, w.Body.String())
	}
	first := decode[SubmitItemResponse](t, w)

	w = do(t, r, req)
	if w.Code != http.StatusOK || w.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("replay status=%d header=%q", w.Code, w.Header().Get("Idempotency-Replayed"))
	}
	second := decode[SubmitItemResponse](t, w)
	if second.Item.ID != first.Item.ID {
		t.Fatalf("replay returned %s, want %s", second.Item.ID, first.Item.ID)
	}
	if n, _ := repo.CountItems(context.Background(), db, repo.ItemFilter{}); n != 1 {
		t.Fatalf("items stored = %d", n)
	}
}

func TestSubmitItem_ServiceError(t *testing.T) {
	h := New(&stubItems{submitFn: func(context.Context, string, services.SubmitInput, string) (*services.SubmitResult, error) {
		return nil, errors.New("disk full")
	}}, nil, nil, nil)
	r := mount(h, nil)

	w := do(t, r, call{method: http.MethodPost, path: "/items", user: "u1", body: wallet("Lost", "2024-05-09")})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	if er := decode[ErrorResponse](t, w); er.Code != ErrCodeSubmitFailed || er.RequestID == "" {
		t.Fatalf("body = %+v", er)
	}
}

func TestListItems_FiltersAndETag(t *testing.T) {
	db := newTestDB(t)
	r := mount(offlineHandlers(t, db), db)
	for _, u := range []string{"u1", "u2"} {
		if w := do(t, r, call{method: http.MethodPost, path: "/items", user: u, body: wallet("Lost", "2024-05-09")}); w.Code != http.StatusCreated {
			t.Fatalf("seed status=%d", w.Code)
		}
	}

	w := do(t, r, call{method: http.MethodGet, path: "/items?page_size=1"})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	page := decode[ListItemsResponse](t, w)
	if len(page.Items) != 1 || page.Pagination.Total != 2 || page.Pagination.TotalPages != 2 || !page.Pagination.HasNext {
		t.Fatalf("page = %+v", page)
	}
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("missing ETag")
	}

	w = do(t, r, call{method: http.MethodGet, path: "/items?page_size=1", headers: map[string]string{"If-None-Match": etag}})
	if w.Code != http.StatusNotModified {
		t.Fatalf("conditional status=%d", w.Code)
	}

	w = do(t, r, call{method: http.MethodGet, path: "/items?mine=true", user: "u2"})
	mine := decode[ListItemsResponse](t, w)
	if w.Code != http.StatusOK || len(mine.Items) != 1 || mine.Items[0].UserID != "u2" {
		t.Fatalf("mine = %d %+v", w.Code, mine)
	}

	if w = do(t, r, call{method: http.MethodGet, path: "/items?mine=true"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous mine status=%d", w.Code)
	}

	w = do(t, r, call{method: http.MethodGet, path: "/items?lost_or_found=Found"})
	if got := decode[ListItemsResponse](t, w); len(got.Items) != 0 || got.Pagination.Total != 0 {
		t.Fatalf("found filter = %+v", got)
	}
}

func TestGetItem(t *testing.T) {
	db := newTestDB(t)
	r := mount(offlineHandlers(t, db), db)
	w := do(t, r, call{method: http.MethodPost, path: "/items", user: "u1", body: wallet("Found", "2024-05-09")})
	created := decode[SubmitItemResponse](t, w)

	if w = do(t, r, call{method: http.MethodGet, path: "/items/" + created.Item.ID}); w.Code != http.StatusOK {
		t.Fatalf("get status=%d", w.Code)
	}
	if got := decode[domain.ItemReport](t, w); got.ID != created.Item.ID || got.LostOrFound != "Found" {
		t.Fatalf("got %+v", got)
	}
	if w = do(t, r, call{method: http.MethodGet, path: "/items/not-a-uuid"}); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id status=%d", w.Code)
	}
	if w = do(t, r, call{method: http.MethodGet, path: "/items/7b0c1a8e-7a52-4c4e-9d43-2f1e0c9d8a11"}); w.Code != http.StatusNotFound {
		t.Fatalf("unknown id status=%d", w.Code)
	}
}

func TestUpdateItemStatus(t *testing.T) {
	db := newTestDB(t)
	r := mount(offlineHandlers(t, db), db)
	w := do(t, r, call{method: http.MethodPost, path: "/items", user: "owner", body: wallet("Lost", "2024-05-09")})
	id := decode[SubmitItemResponse](t, w).Item.ID
	path := "/items/" + id + "/status"

	cases := []struct {
		name string
		user string
		body any
		want int
	}{
		{"anonymous", "", UpdateStatusRequest{Status: "returned"}, http.StatusUnauthorized},
		{"other user", "intruder", UpdateStatusRequest{Status: "returned"}, http.StatusForbidden},
		{"unknown status", "owner", UpdateStatusRequest{Status: "lost-forever"}, http.StatusBadRequest},
		{"missing status", "owner", map[string]string{}, http.StatusBadRequest},
		{"owner", "owner", UpdateStatusRequest{Status: "Returned"}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, r, call{method: http.MethodPatch, path: path, user: tc.user, body: tc.body})
			if w.Code != tc.want {
				t.Fatalf("status=%d want %d body=%s", w.Code, tc.want, w.Body.String())
			}
		})
	}

	w = do(t, r, call{method: http.MethodGet, path: "/items/" + id})
	if got := decode[domain.ItemReport](t, w); got.Status != domain.StatusReturned {
		t.Fatalf("status = %q", got.Status)
	}
}

func TestItemMatches_Errors(t *testing.T) {
	db := newTestDB(t)
	r := mount(offlineHandlers(t, db), db)
	if w := do(t, r, call{method: http.MethodGet, path: "/items/7b0c1a8e-7a52-4c4e-9d43-2f1e0c9d8a11/matches"}); w.Code != http.StatusNotFound {
		t.Fatalf("unknown item status=%d", w.Code)
	}

	r = mount(New(&stubItems{}, nil, nil, nil), nil)
	w := do(t, r, call{method: http.MethodGet, path: "/items/7b0c1a8e-7a52-4c4e-9d43-2f1e0c9d8a11/matches"})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	if er := decode[ErrorResponse](t, w); er.Code != ErrCodeMatchFailed {
		t.Fatalf("code=%q", er.Code)
	}
}

func TestSearchItems(t *testing.T) {
	db := newTestDB(t)
	r := mount(offlineHandlers(t, db), db)
	do(t, r, call{method: http.MethodPost, path: "/items", user: "u1", body: wallet("Lost", "2024-05-09")})

	if w := do(t, r, call{method: http.MethodGet, path: "/items/search?q=%20"}); w.Code != http.StatusBadRequest {
		t.Fatalf("empty q status=%d", w.Code)
	}

	w := do(t, r, call{method: http.MethodGet, path: "/items/search?q=leather+wallet"})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	res := decode[SearchItemsResponse](t, w)
	if res.Query != "leather wallet" || len(res.Hits) != 1 || res.Hits[0].Score <= 0 {
		t.Fatalf("search = %+v", res)
	}
}

func TestSearchItems_ClampsLimit(t *testing.T) {
	var gotLimit int
	h := New(&stubItems{searchFn: func(_ context.Context, _ string, limit int) ([]services.SearchHit, error) {
		gotLimit = limit
		return []services.SearchHit{}, nil
	}}, nil, nil, nil)
	r := mount(h, nil)

	for _, tc := range []struct {
		query string
		want  int
	}{
		{"q=x", 10},
		{"q=x&limit=500", 50},
		{"q=x&limit=0", 1},
		{"q=x&limit=abc", 10},
	} {
		if w := do(t, r, call{method: http.MethodGet, path: "/items/search?" + tc.query}); w.Code != http.StatusOK {
			t.Fatalf("%s status=%d", tc.query, w.Code)
		}
		if gotLimit != tc.want {
			t.Fatalf("%s limit=%d want %d", tc.query, gotLimit, tc.want)
		}
	}
}

func TestListCategories(t *testing.T) {
	db := newTestDB(t)
	r := mount(offlineHandlers(t, db), db)
	do(t, r, call{method: http.MethodPost, path: "/items", user: "u1", body: wallet("Lost", "2024-05-09")})

	w := do(t, r, call{method: http.MethodGet, path: "/categories"})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	ov := decode[services.CategoryOverview](t, w)
	if len(ov.Tree) == 0 || len(ov.Counts) != 1 || ov.Counts[0].Count != 1 {
		t.Fatalf("overview = %+v", ov)
	}

	r = mount(New(&stubItems{}, nil, nil, nil), nil)
	if w = do(t, r, call{method: http.MethodGet, path: "/categories"}); w.Code != http.StatusInternalServerError {
		t.Fatalf("stub status=%d", w.Code)
	}
}
