package remote

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"levelup/internal/engine"
	"levelup/internal/server"
	"levelup/internal/storage"
)

func newBackend(t *testing.T, token string) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := storage.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	srv := server.New(storage.NewXPStore(db, nil), server.Options{
		Logger:     log.New(io.Discard, "", 0),
		AdminToken: token,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	ts := newBackend(t, "secret")
	c := New(ts.URL, WithAdminToken("secret"))

	total, err := c.AddXP(ctx, "ana maria", engine.XPGain{XPGain: 260, Reason: "Tarefa concluída", TaskID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, 260, total)

	snap, err := c.FetchXP(ctx, "ana maria")
	require.NoError(t, err)
	assert.Equal(t, engine.XPSnapshot{XP: 260, Level: 3}, snap)

	snap, err = c.SetXP(ctx, "ana maria", 50)
	require.NoError(t, err)
	assert.Equal(t, engine.XPSnapshot{XP: 50, Level: 1}, snap)

	require.NoError(t, c.SetPlan(ctx, "ana maria", engine.PlanTier1))
	plan, err := c.PlanProvider("ana maria").Plan(ctx)
	require.NoError(t, err)
	assert.Equal(t, engine.SubscriptionFor(engine.PlanTier1), plan)
}

func TestClientAdminWithoutToken(t *testing.T) {
	ts := newBackend(t, "secret")
	c := New(ts.URL)

	_, err := c.SetXP(context.Background(), "ana", 10)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.Equal(t, "admin token required", se.Message)
}

func TestClientRetriesReadsOnly(t *testing.T) {
	var gets, posts atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			posts.Add(1)
		} else {
			gets.Add(1)
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	c := New(ts.URL, WithRetryDelay(time.Millisecond))
	_, err := c.FetchXP(context.Background(), "ana")
	assert.Error(t, err)
	assert.Equal(t, int32(maxRetries), gets.Load())

	_, err = c.AddXP(context.Background(), "ana", engine.XPGain{XPGain: 5, Reason: "x"})
	assert.Error(t, err)
	assert.Equal(t, int32(1), posts.Load())
}

func TestClientDrivesSession(t *testing.T) {
	ctx := context.Background()
	ts := newBackend(t, "")
	c := New(ts.URL)

	s := engine.NewSession(ctx, engine.Options{
		UserID:      "ana",
		Persistence: c,
		Plans:       c.PlanProvider("ana"),
		Logger:      log.New(io.Discard, "", 0),
	}, engine.Seed{})
	defer s.Close()

	s.AddXP(ctx, 40, "seed", "")
	s.Wait()

	snap, err := c.FetchXP(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, 40, snap.XP)

	_, err = c.SetXP(ctx, "ana", 300)
	require.NoError(t, err)
	res := s.Reconcile(ctx)
	assert.True(t, res.Applied)
	assert.Equal(t, 3, s.Stats(ctx).CurrentLevel)
}
