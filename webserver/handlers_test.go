package webserver

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tpgainz/sirene-search/sirene"
)

type stubFacade struct {
	searchText     string
	searchCriteria sirene.SearchCriteria
	searchErr      error
	lookupErr      error
}

func (f *stubFacade) SearchByText(_ context.Context, text string, criteria sirene.SearchCriteria, page, _ int) (*sirene.SearchPage, error) {
	f.searchText = text
	f.searchCriteria = criteria

	if f.searchErr != nil {
		return nil, f.searchErr
	}

	return &sirene.SearchPage{
		Results: []sirene.CompanyRecord{{Siren: "552100554", Denomination: "PEUGEOT SA"}},
		Total:   1,
		Page:    page,
	}, nil
}

func (f *stubFacade) SearchBySiren(_ context.Context, siren string) (*sirene.SearchPage, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}

	return &sirene.SearchPage{
		Results: []sirene.CompanyRecord{{Siren: siren}},
		Total:   1,
		Page:    1,
	}, nil
}

func (f *stubFacade) LookupUnit(_ context.Context, siren, _ string) (*sirene.CompanyRecord, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}

	return &sirene.CompanyRecord{Siren: siren, Denomination: "PEUGEOT SA"}, nil
}

func newTestServer(facade *stubFacade, token string) *Server {
	return New(Config{
		Facade:   facade,
		APIToken: token,
	})
}

func TestCompanySearch(t *testing.T) {
	facade := &stubFacade{}
	srv := newTestServer(facade, "")

	req := httptest.NewRequest(http.MethodGet,
		"/api/company-search?q=peugeot&codePostal=75008&etat=A&page=2", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var page sirene.SearchPage
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))

	assert.Equal(t, 1, page.Total)
	assert.Equal(t, "peugeot", facade.searchText)
	assert.Equal(t, "75008", facade.searchCriteria.CodePostal)
	assert.Equal(t, "A", facade.searchCriteria.EtatAdministratif)
}

func TestCompanySearchMalformedCriteria(t *testing.T) {
	facade := &stubFacade{
		searchErr: &sirene.MalformedCriteriaError{Field: "siren", Reason: "9 chiffres attendus"},
	}
	srv := newTestServer(facade, "")

	req := httptest.NewRequest(http.MethodGet, "/api/company-search?siren=123", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompanySearchRateLimited(t *testing.T) {
	facade := &stubFacade{
		searchErr: &sirene.RateLimitError{RetryAfter: 30 * time.Second},
	}
	srv := newTestServer(facade, "")

	req := httptest.NewRequest(http.MethodGet, "/api/company-search?q=x", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
}

func TestCompanySearchAuthFailureLogged(t *testing.T) {
	facade := &stubFacade{searchErr: &sirene.AuthError{Status: http.StatusUnauthorized}}
	srv := newTestServer(facade, "")

	var buf bytes.Buffer

	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	req := httptest.NewRequest(http.MethodGet, "/api/company-search?q=x", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, buf.String(), "CRITIQUE: authentification refusée par le registre")
}

func TestCompanySearchUpstreamTimeout(t *testing.T) {
	facade := &stubFacade{searchErr: &sirene.TimeoutError{Op: "recherche"}}
	srv := newTestServer(facade, "")

	req := httptest.NewRequest(http.MethodGet, "/api/company-search?q=x", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestSireneUnit(t *testing.T) {
	srv := newTestServer(&stubFacade{}, "")

	req := httptest.NewRequest(http.MethodGet, "/api/sirene-unit/552100554?date=2015-01-01", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var record sirene.CompanyRecord
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&record))
	assert.Equal(t, "PEUGEOT SA", record.Denomination)
}

func TestSireneUnitNotFound(t *testing.T) {
	facade := &stubFacade{lookupErr: &sirene.NotFoundError{What: "siren 000000000"}}
	srv := newTestServer(facade, "")

	req := httptest.NewRequest(http.MethodGet, "/api/sirene-unit/000000000", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBearerTokenGuard(t *testing.T) {
	srv := newTestServer(&stubFacade{}, "secret")

	req := httptest.NewRequest(http.MethodGet, "/api/company-search?q=x", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/company-search?q=x", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListsRequireDatabase(t *testing.T) {
	srv := newTestServer(&stubFacade{}, "")

	req := httptest.NewRequest(http.MethodGet, "/api/company-lists/", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&stubFacade{}, "secret")

	// health stays open, no token needed
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
