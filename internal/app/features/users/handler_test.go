package users_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	usersfeature "github.com/dalemusser/valuesdao/internal/app/features/users"
	apikeystore "github.com/dalemusser/valuesdao/internal/app/store/apikeys"
	userstore "github.com/dalemusser/valuesdao/internal/app/store/users"
	"github.com/dalemusser/valuesdao/internal/app/system/auth"
	"github.com/dalemusser/valuesdao/internal/domain/models"
	"github.com/dalemusser/valuesdao/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type env struct {
	router http.Handler
	fx     *testutil.Fixtures
	read   string
	write  string
}

func setup(t *testing.T) env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	v := auth.NewValidator(apikeystore.New(db), zap.NewNop())
	h := usersfeature.NewHandler(userstore.New(db), zap.NewNop())
	r := chi.NewRouter()
	r.Mount("/api/user", usersfeature.Routes(h, v.RequireScope))
	r.Mount("/api/value", usersfeature.ValueRoutes(h, v.RequireScope))

	return env{
		router: r,
		fx:     fx,
		read:   fx.CreateAPIKey(ctx, "reader", models.ScopeRead),
		write:  fx.CreateAPIKey(ctx, "writer", models.ScopeWrite),
	}
}

func TestServeUser(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.fx.CreateFarcasterUser(ctx, 3, "honesty")

	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, testutil.NewAPIKeyRequest("GET", "/api/user?fid=3", e.read))
	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		Status int         `json:"status"`
		User   models.User `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.User.FID() != 3 || len(body.User.MintedValues) != 1 {
		t.Errorf("user = %+v", body.User)
	}
}

func TestServeUser_Errors(t *testing.T) {
	e := setup(t)

	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, testutil.NewRequest("GET", "/api/user?fid=3"))
	rec.AssertStatus(t, http.StatusUnauthorized)

	rec = testutil.NewRecorder()
	e.router.ServeHTTP(rec, testutil.NewAPIKeyRequest("GET", "/api/user?fid=404", e.read))
	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertContains(t, "User not found")

	rec = testutil.NewRecorder()
	e.router.ServeHTTP(rec, testutil.NewAPIKeyRequest("GET", "/api/user", e.read))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func postValue(e env, target, key, body string) *testutil.ResponseRecorder {
	req := httptest.NewRequest("POST", target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", key)
	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestServeAddValue_AllowsDuplicates(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.fx.CreateFarcasterUser(ctx, 3)

	body := `{"name":"honesty","value":{"metadata":{"name":"honesty","description":"<b>tell</b> the truth","image":"https://img"},"cid":"https://gateway.pinata.cloud/ipfs/bafy"}}`
	postValue(e, "/api/value?fid=3", e.write, body).AssertStatus(t, http.StatusOK)
	rec := postValue(e, "/api/value?fid=3", e.write, body)
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		User models.User `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(resp.User.MintedValues) != 2 {
		t.Fatalf("expected 2 minted values, got %d", len(resp.User.MintedValues))
	}
	mv := resp.User.MintedValues[1]
	if mv.Value != "honesty" || mv.Metadata.Description != "tell the truth" || mv.CID == "" {
		t.Errorf("minted value = %+v", mv)
	}
}

func TestServeAddValue_RequiresWriteScope(t *testing.T) {
	e := setup(t)
	rec := postValue(e, "/api/value?fid=3", e.read, `{"name":"x"}`)
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestServeAddValue_BadInput(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.fx.CreateFarcasterUser(ctx, 3)

	postValue(e, "/api/value?fid=3", e.write, `not json`).AssertStatus(t, http.StatusBadRequest)
	rec := postValue(e, "/api/value?fid=3", e.write, `{"name":"  "}`)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "name is required.")

	rec = postValue(e, "/api/value?fid=3", e.write, `{"name":"grit","value":{"metadata":{"image":"javascript:alert(1)"}}}`)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "metadata.image must be an http or https URL.")

	postValue(e, "/api/value?fid=99", e.write, `{"name":"grit"}`).AssertStatus(t, http.StatusNotFound)
}
