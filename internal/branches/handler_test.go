package branches

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newTestRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/branches", h.List)
	r.Get("/branches/{code}", h.Get)
	r.Get("/branches/{code}/hours", h.Hours)
	r.Put("/admin/branches/{code}", h.Upsert)
	r.Put("/admin/branches/{code}/hours", h.SetHours)
	return r
}

func seedBranch(t *testing.T, repo Repository, code, name string) {
	t.Helper()
	if _, err := repo.Upsert(context.Background(), &UpsertBranchRequest{Code: code, Name: name}); err != nil {
		t.Fatalf("seed branch failed: %v", err)
	}
}

func TestUpsertBranch(t *testing.T) {
	repo := NewInMemoryRepository()
	router := newTestRouter(NewHandler(repo, nil, nil))

	body, _ := json.Marshal(UpsertBranchRequest{Name: "Vigan Main", Address: "Plaza Burgos", Phone: "077-722-0000"})
	req := httptest.NewRequest(http.MethodPut, "/admin/branches/vigan", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var branch Branch
	if err := json.NewDecoder(w.Body).Decode(&branch); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if branch.Code != "vigan" || branch.Name != "Vigan Main" {
		t.Fatalf("unexpected branch: %+v", branch)
	}
}

func TestUpsertBranchMissingName(t *testing.T) {
	router := newTestRouter(NewHandler(NewInMemoryRepository(), nil, nil))

	body, _ := json.Marshal(UpsertBranchRequest{})
	req := httptest.NewRequest(http.MethodPut, "/admin/branches/vigan", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetBranchNotFound(t *testing.T) {
	router := newTestRouter(NewHandler(NewInMemoryRepository(), nil, nil))

	req := httptest.NewRequest(http.MethodGet, "/branches/ghost", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

type fakeInvalidator struct {
	branches []string
}

func (f *fakeInvalidator) InvalidateBranch(_ context.Context, branch string) error {
	f.branches = append(f.branches, branch)
	return nil
}

func TestSetHoursInvalidatesCache(t *testing.T) {
	repo := NewInMemoryRepository()
	cache := &fakeInvalidator{}
	router := newTestRouter(NewHandler(repo, cache, nil))
	seedBranch(t, repo, "cabugao", "Cabugao Satellite")

	body, _ := json.Marshal(SetHoursRequest{Days: []DaySchedule{
		{Weekday: 0, Closed: true},
		{Weekday: 1, Open: "08:00", Close: "17:00"},
	}})
	req := httptest.NewRequest(http.MethodPut, "/admin/branches/cabugao/hours", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(cache.branches) != 1 || cache.branches[0] != "cabugao" {
		t.Fatalf("expected cache invalidated for cabugao, got %v", cache.branches)
	}

	days, err := repo.Hours(context.Background(), "cabugao")
	if err != nil || len(days) != 2 {
		t.Fatalf("unexpected stored hours: %v %v", days, err)
	}
}

func TestSetHoursRejectsInvertedHours(t *testing.T) {
	repo := NewInMemoryRepository()
	router := newTestRouter(NewHandler(repo, nil, nil))
	seedBranch(t, repo, "vigan", "Vigan Main")

	body, _ := json.Marshal(SetHoursRequest{Days: []DaySchedule{
		{Weekday: 1, Open: "17:00", Close: "08:00"},
	}})
	req := httptest.NewRequest(http.MethodPut, "/admin/branches/vigan/hours", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestListBranches(t *testing.T) {
	repo := NewInMemoryRepository()
	router := newTestRouter(NewHandler(repo, nil, nil))
	seedBranch(t, repo, "vigan", "Vigan Main")
	seedBranch(t, repo, "cabugao", "Cabugao Satellite")

	req := httptest.NewRequest(http.MethodGet, "/branches", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Branches []*Branch `json:"branches"`
		Count    int       `json:"count"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 2 || resp.Branches[0].Code != "cabugao" {
		t.Fatalf("unexpected list: %+v", resp)
	}
}
