package integration

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/rgehrsitz/quotego/internal/api"
	"github.com/rgehrsitz/quotego/internal/catalog"
	"github.com/rgehrsitz/quotego/internal/domain"
	"github.com/rgehrsitz/quotego/internal/identity"
	"github.com/rgehrsitz/quotego/internal/output"
	"github.com/rgehrsitz/quotego/internal/session"
	"github.com/rgehrsitz/quotego/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var submittedAt = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

// environment is the long-lived state shared by server instances: the
// quote database and the draft cache
type environment struct {
	t      *testing.T
	cat    *catalog.Catalog
	quotes *store.SQLStore
	drafts *store.MemoryDraftCache
	token  string
	secret string
}

func newEnvironment(t *testing.T) *environment {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cat, err := catalog.Load()
	require.NoError(t, err)

	quotes, err := store.OpenSQL("sqlite", filepath.Join(t.TempDir(), "quotes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { quotes.Close() })

	const secret = "integration-secret"
	issuer, err := identity.NewIssuer(secret, time.Hour)
	require.NoError(t, err)
	token, err := issuer.Issue("agent-42", "Integration Agent")
	require.NoError(t, err)

	return &environment{
		t:      t,
		cat:    cat,
		quotes: quotes,
		drafts: store.NewMemoryDraftCache(time.Hour),
		token:  token,
		secret: secret,
	}
}

// boot starts a fresh server with no live sessions
func (e *environment) boot() http.Handler {
	e.t.Helper()
	verifier, err := identity.NewVerifier(e.secret)
	require.NoError(e.t, err)
	srv := api.NewServer(api.Dependencies{
		Catalog:  e.cat,
		Store:    e.quotes,
		Drafts:   e.drafts,
		Verifier: verifier,
		Options: session.Options{
			SubmitAttempts: 1,
			Now:            func() time.Time { return submittedAt },
		},
	})
	e.t.Cleanup(srv.Shutdown)
	return srv.Router()
}

func (e *environment) call(h http.Handler, method, path string, body any) (int, map[string]any) {
	e.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(e.t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &decoded), w.Body.String())
	}
	return w.Code, decoded
}

func (e *environment) mustCall(h http.Handler, method, path string, body any, want int) map[string]any {
	e.t.Helper()
	code, decoded := e.call(h, method, path, body)
	require.Equal(e.t, want, code, "%s %s: %v", method, path, decoded)
	return decoded
}

func TestMotorQuote_SurvivesRestartAndPersists(t *testing.T) {
	env := newEnvironment(t)
	first := env.boot()

	state := env.mustCall(first, http.MethodPost, "/api/v1/quotes", map[string]string{"line": "motor"}, http.StatusCreated)
	id := state["draft"].(map[string]any)["id"].(string)
	base := "/api/v1/quotes/" + id

	env.mustCall(first, http.MethodPatch, base+"/fields", map[string]any{"fields": map[string]string{
		domain.FieldVehicleCategory: "private",
		domain.FieldCoverType:       domain.CoverThirdParty,
	}}, http.StatusOK)
	state = env.mustCall(first, http.MethodPost, base+"/advance", nil, http.StatusOK)
	require.Equal(t, "vehicle_details", state["stepId"])

	// a new process knows nothing about the session until it is resumed
	second := env.boot()
	code, _ := env.call(second, http.MethodGet, base, nil)
	require.Equal(t, http.StatusNotFound, code)

	state = env.mustCall(second, http.MethodPost, "/api/v1/quotes/resume/"+id, nil, http.StatusOK)
	assert.Equal(t, "vehicle_details", state["stepId"])
	assert.Equal(t, "private", state["draft"].(map[string]any)["fields"].(map[string]any)[domain.FieldVehicleCategory])

	answers := []map[string]string{
		{
			domain.FieldRegistrationNumber: "KDA 123B",
			domain.FieldMake:               "Toyota",
			domain.FieldYearOfManufacture:  "2019",
			domain.FieldVehicleValue:       "1200000",
		},
		{domain.FieldProduct: "private_third_party"},
		{domain.FieldInsurer: "jubilee"},
		{
			domain.FieldFullName: "Achieng Otieno",
			domain.FieldPhone:    "0722000111",
			domain.FieldIDNumber: "22334455",
			domain.FieldKRAPin:   "A123456789Z",
		},
	}
	for _, a := range answers {
		env.mustCall(second, http.MethodPatch, base+"/fields", map[string]any{"fields": a}, http.StatusOK)
		env.mustCall(second, http.MethodPost, base+"/advance", nil, http.StatusOK)
	}
	for _, kind := range []string{domain.DocumentLogbook, domain.DocumentNationalID} {
		env.mustCall(second, http.MethodPost, base+"/documents",
			map[string]any{"kind": kind, "name": kind + ".pdf", "uri": "file:///scans/" + kind + ".pdf"}, http.StatusOK)
	}
	state = env.mustCall(second, http.MethodPost, base+"/advance", nil, http.StatusOK)
	require.Equal(t, "review", state["stepId"])

	calc := env.mustCall(second, http.MethodPost, base+"/calculate", nil, http.StatusOK)
	total := calc["premium"].(map[string]any)["total"].(string)

	env.mustCall(second, http.MethodPost, base+"/advance", nil, http.StatusOK)
	quote := env.mustCall(second, http.MethodPost, base+"/submit", nil, http.StatusCreated)
	ref := quote["reference"].(string)
	assert.True(t, strings.HasPrefix(ref, "QT-MTR-20250701-"), ref)

	_, err := env.drafts.LoadDraft(context.Background(), id)
	assert.ErrorIs(t, err, store.ErrNotFound, "submitted drafts leave the cache")

	saved, err := env.quotes.Get(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "agent-42", saved.AgentID)
	assert.Equal(t, domain.StatusSubmitted, saved.Status)
	assert.Equal(t, total, saved.Total.String())
	require.NotNil(t, saved.Draft.Premium)
	assert.Len(t, saved.Draft.Documents, 2)

	// the stored breakdown renders in every registered format
	for _, name := range output.AvailableFormatterNames() {
		f := output.GetFormatterByName(name)
		require.NotNil(t, f, name)
		data, err := f.Format(saved.Draft.Premium)
		require.NoError(t, err, name)
		assert.NotEmpty(t, data, name)
	}
}

func TestSavedQuotes_LifecycleThroughAPI(t *testing.T) {
	env := newEnvironment(t)
	h := env.boot()

	motor := domain.NewQuoteDraft(domain.InsuranceMotor, submittedAt)
	motor.Merge(map[string]string{
		domain.FieldVehicleCategory:   "private",
		domain.FieldCoverType:         domain.CoverThirdParty,
		domain.FieldVehicleValue:      "800000",
		domain.FieldYearOfManufacture: "2018",
		domain.FieldProduct:           "private_third_party",
	})
	premium, err := env.cat.Quote(env.cat.Calculator(), motor)
	require.NoError(t, err)
	motor.Premium = premium

	travel := domain.NewQuoteDraft(domain.InsuranceTravel, submittedAt)
	travel.Premium = &domain.PremiumBreakdown{Line: domain.InsuranceTravel, Total: decimal.NewFromInt(2500)}

	for _, d := range []*domain.QuoteDraft{motor, travel} {
		require.NoError(t, env.quotes.Save(context.Background(), domain.NewSubmittedQuote(d, "agent-42", submittedAt)))
	}

	list := env.mustCall(h, http.MethodGet, "/api/v1/saved", nil, http.StatusOK)
	assert.Equal(t, float64(2), list["count"])

	list = env.mustCall(h, http.MethodGet, "/api/v1/saved?line=travel", nil, http.StatusOK)
	require.Equal(t, float64(1), list["count"])
	first := list["quotes"].([]any)[0].(map[string]any)
	ref := first["reference"].(string)
	assert.Equal(t, "2500", first["total"])

	updated := env.mustCall(h, http.MethodPatch, "/api/v1/saved/"+ref+"/status", map[string]string{"status": "expired"}, http.StatusOK)
	assert.Equal(t, "expired", updated["status"])
	assert.Equal(t, "expired", updated["draft"].(map[string]any)["status"])

	code, _ := env.call(h, http.MethodPatch, "/api/v1/saved/"+ref+"/status", map[string]string{"status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, code)

	list = env.mustCall(h, http.MethodGet, "/api/v1/saved?status=expired", nil, http.StatusOK)
	assert.Equal(t, float64(1), list["count"])

	req := httptest.NewRequest(http.MethodGet, "/api/v1/saved/export?format=table", nil)
	req.Header.Set("Authorization", "Bearer "+env.token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), ref)
}
