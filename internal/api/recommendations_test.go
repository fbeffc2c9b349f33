package api_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/lox/airguard/internal/api"
	"github.com/lox/airguard/internal/models"
)

func postForm(t *testing.T, h http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func listRecommendations(t *testing.T, h http.Handler) []models.Recommendation {
	t.Helper()
	w := do(t, h, "GET", "/api/recommendations", "")
	expectStatus(t, w, http.StatusOK)
	var recs []models.Recommendation
	decodeJSON(t, w, &recs)
	return recs
}

func expectRecommendationCount(t *testing.T, h http.Handler, want int) {
	t.Helper()
	if got := len(listRecommendations(t, h)); got != want {
		t.Errorf("recommendations = %d, want %d", got, want)
	}
}

func recommendationPath(prefix string, id int64) string {
	return prefix + strconv.FormatInt(id, 10)
}

func TestRecommendationsSeeded(t *testing.T) {
	t.Parallel()
	_, h := newServer(t, api.Options{})

	recs := listRecommendations(t, h)
	if len(recs) != 3 {
		t.Fatalf("len(recs) = %d, want 3", len(recs))
	}
	if recs[0].Text != "Wear a mask on days with poor air quality" {
		t.Errorf("first recommendation = %q", recs[0].Text)
	}
}

func TestRecommendationsCRUD(t *testing.T) {
	t.Parallel()
	_, h := newServer(t, api.Options{})

	w := do(t, h, "POST", "/api/recommendations", `{"text": "  <i>Use</i> a HEPA filter  "}`)
	expectStatus(t, w, http.StatusCreated)
	var created models.Recommendation
	decodeJSON(t, w, &created)
	if created.Text != "Use a HEPA filter" {
		t.Errorf("Text = %q, want markup stripped and trimmed", created.Text)
	}

	path := recommendationPath("/api/recommendations/", created.ID)
	expectStatus(t, do(t, h, "GET", path, ""), http.StatusOK)

	w = do(t, h, "PUT", path, `{"text": "Run a HEPA filter indoors"}`)
	expectStatus(t, w, http.StatusOK)
	var updated models.Recommendation
	decodeJSON(t, w, &updated)
	if updated.Text != "Run a HEPA filter indoors" {
		t.Errorf("Text = %q, want updated text", updated.Text)
	}

	expectStatus(t, do(t, h, "DELETE", path, ""), http.StatusNoContent)
	expectStatus(t, do(t, h, "GET", path, ""), http.StatusNotFound)
	expectRecommendationCount(t, h, 3)
}

func TestRecommendationsValidation(t *testing.T) {
	t.Parallel()
	_, h := newServer(t, api.Options{})

	tests := []struct {
		method, target, body string
		want                 int
	}{
		{"POST", "/api/recommendations", `{"text": "   "}`, http.StatusBadRequest},
		{"POST", "/api/recommendations", `{"text": "<p></p>"}`, http.StatusBadRequest},
		{"POST", "/api/recommendations", `not json`, http.StatusBadRequest},
		{"GET", "/api/recommendations/abc", "", http.StatusBadRequest},
		{"PUT", "/api/recommendations/999", `{"text": "x"}`, http.StatusNotFound},
		{"DELETE", "/api/recommendations/999", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		if w := do(t, h, tt.method, tt.target, tt.body); w.Code != tt.want {
			t.Errorf("%s %s %s: expected %d, got %d", tt.method, tt.target, tt.body, tt.want, w.Code)
		}
	}
	expectRecommendationCount(t, h, 3)
}

func TestRecommendationForms(t *testing.T) {
	t.Parallel()
	_, h := newServer(t, api.Options{})

	w := postForm(t, h, "/recommendations", url.Values{"text": {"Check the index before cycling"}})
	expectStatus(t, w, http.StatusSeeOther)
	if got := w.Header().Get("Location"); got != "/?component=data-crud" {
		t.Errorf("Location = %q, want /?component=data-crud", got)
	}

	// blank input is ignored
	expectStatus(t, postForm(t, h, "/recommendations", url.Values{"text": {"   "}}), http.StatusSeeOther)

	recs := listRecommendations(t, h)
	if len(recs) != 4 {
		t.Fatalf("len(recs) = %d, want 4", len(recs))
	}
	added := recs[3]
	if added.Text != "Check the index before cycling" {
		t.Errorf("Text = %q", added.Text)
	}

	w = postForm(t, h, recommendationPath("/recommendations/", added.ID), url.Values{"text": {"Check the index first"}})
	expectStatus(t, w, http.StatusSeeOther)
	if got := listRecommendations(t, h)[3].Text; got != "Check the index first" {
		t.Errorf("Text after edit = %q", got)
	}

	w = postForm(t, h, recommendationPath("/recommendations/", added.ID)+"/delete", url.Values{})
	expectStatus(t, w, http.StatusSeeOther)
	expectRecommendationCount(t, h, 3)
}

func TestDraftRecommendationDisabled(t *testing.T) {
	t.Parallel()
	_, h := newServer(t, api.Options{})

	expectStatus(t, do(t, h, "POST", "/api/recommendations/draft", ""), http.StatusServiceUnavailable)
}

func TestDraftRecommendation(t *testing.T) {
	t.Parallel()
	drafter := &fakeDrafter{}
	_, h := newServer(t, api.Options{Drafter: drafter})

	// no readings yet
	expectStatus(t, do(t, h, "POST", "/api/recommendations/draft", ""), http.StatusNotFound)

	importSample(t, h)

	w := do(t, h, "POST", "/api/recommendations/draft", "")
	expectStatus(t, w, http.StatusOK)
	var draft api.DraftResult
	decodeJSON(t, w, &draft)
	if draft.City != "Lima" {
		t.Errorf("City = %q, want Lima (most polluted)", draft.City)
	}
	if draft.Text != "Stay indoors in Lima" {
		t.Errorf("Text = %q, want cleaned draft", draft.Text)
	}
	if draft.Recommendation != nil {
		t.Errorf("Recommendation = %+v, want nil without save", draft.Recommendation)
	}

	w = do(t, h, "POST", "/api/recommendations/draft?city=Quito&save=true", "")
	expectStatus(t, w, http.StatusCreated)
	decodeJSON(t, w, &draft)
	if drafter.city != "Quito" {
		t.Errorf("drafted for %q, want Quito", drafter.city)
	}
	if draft.Recommendation == nil {
		t.Error("expected saved recommendation")
	}
	expectRecommendationCount(t, h, 4)
}
