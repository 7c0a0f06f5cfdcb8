package handlers

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/verivote/app"
	"github.com/danielhkuo/verivote/cliparse"
	"github.com/danielhkuo/verivote/docstore"
	"github.com/danielhkuo/verivote/models"
	"github.com/danielhkuo/verivote/testutil"
)

type testEnv struct {
	app   *app.App
	cfg   cliparse.Config
	store docstore.Store
}

func setupEnv(t *testing.T) testEnv {
	t.Helper()
	cfg := testutil.GetTestConfig()
	store := docstore.NewMemory()
	a := app.New(cfg, store, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { a.Close() })
	return testEnv{app: a, cfg: cfg, store: store}
}

// seedElection writes an active election with two presidential candidates
// and one mayoral candidate.
func seedElection(t *testing.T, env testEnv) models.Election {
	t.Helper()
	e := testutil.CreateTestElection(t, env.store, models.StateActive)
	testutil.AddTestCandidate(t, env.store, "p1", "president", "Ada")
	testutil.AddTestCandidate(t, env.store, "p2", "president", "Grace")
	testutil.AddTestCandidate(t, env.store, "m1", "mayor", "Linus")
	return e
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	testutil.AssertJSON(t, w, &resp)
	return resp
}
