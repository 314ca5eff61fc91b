package todoapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/todos/internal/domain"
	"github.com/mmcdole/todos/internal/logging"
	"github.com/mmcdole/todos/internal/todoapi/todoapitest"
)

func newTestClient(t *testing.T) (*Client, *todoapitest.Server) {
	t.Helper()
	srv := todoapitest.NewServer()
	t.Cleanup(srv.Close)
	return NewClient(srv.CollectionURL(), 0, logging.NullLogger()), srv
}

func TestFetchAll(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty", func(t *testing.T) {
		c, _ := newTestClient(t)
		todos, err := c.FetchAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, todos)
	})

	t.Run("PreservesOrder", func(t *testing.T) {
		c, srv := newTestClient(t)
		srv.Seed(
			domain.Todo{ID: "1", Body: "milk"},
			domain.Todo{ID: "2", Body: "eggs", Completed: true},
		)
		todos, err := c.FetchAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []domain.Todo{
			{ID: "1", Body: "milk"},
			{ID: "2", Body: "eggs", Completed: true},
		}, todos)
	})

	t.Run("ServerErrorIsTransport", func(t *testing.T) {
		c, srv := newTestClient(t)
		srv.FailNext(http.MethodGet, http.StatusNotFound)
		_, err := c.FetchAll(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrTransport)
		assert.NotErrorIs(t, err, domain.ErrNotFound)

		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, http.StatusNotFound, se.StatusCode)
	})

	t.Run("Unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL + "/todos"
		srv.Close()

		c := NewClient(url, 0, logging.NullLogger())
		_, err := c.FetchAll(ctx)
		assert.ErrorIs(t, err, domain.ErrTransport)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"not": "a list"}`)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, 0, logging.NullLogger())
		_, err := c.FetchAll(ctx)
		assert.ErrorIs(t, err, domain.ErrTransport)
	})
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("RoundTrip", func(t *testing.T) {
		c, _ := newTestClient(t)
		created, err := c.Create(ctx, "buy milk")
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "buy milk", created.Body)
		assert.False(t, created.Completed)

		todos, err := c.FetchAll(ctx)
		require.NoError(t, err)
		require.Len(t, todos, 1)
		assert.Equal(t, created, todos[0])
	})

	t.Run("RejectedPayloadIsValidation", func(t *testing.T) {
		c, _ := newTestClient(t)
		_, err := c.Create(ctx, "   ")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("ServerErrorIsTransport", func(t *testing.T) {
		c, srv := newTestClient(t)
		srv.FailNext(http.MethodPost, http.StatusInternalServerError)
		_, err := c.Create(ctx, "x")
		assert.ErrorIs(t, err, domain.ErrTransport)
		assert.Len(t, srv.CallsFor(http.MethodPost), 1, "no retries")
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("Body", func(t *testing.T) {
		c, srv := newTestClient(t)
		srv.Seed(domain.Todo{ID: "1", Body: "milk", Completed: true})

		updated, err := c.Update(ctx, "1", domain.BodyPatch("oat milk"))
		require.NoError(t, err)
		assert.Equal(t, domain.Todo{ID: "1", Body: "oat milk", Completed: true}, updated)
	})

	t.Run("Completed", func(t *testing.T) {
		c, srv := newTestClient(t)
		srv.Seed(domain.Todo{ID: "1", Body: "milk"})

		updated, err := c.Update(ctx, "1", domain.CompletedPatch(true))
		require.NoError(t, err)
		assert.True(t, updated.Completed)
		assert.Equal(t, "milk", srv.Todos()[0].Body)
	})

	t.Run("MissingIsNotFound", func(t *testing.T) {
		c, _ := newTestClient(t)
		_, err := c.Update(ctx, "nope", domain.CompletedPatch(true))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("EmptyPatch", func(t *testing.T) {
		c, srv := newTestClient(t)
		_, err := c.Update(ctx, "1", domain.Patch{})
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Empty(t, srv.Calls())
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("ReturnsDeleted", func(t *testing.T) {
		c, srv := newTestClient(t)
		srv.Seed(domain.Todo{ID: "1", Body: "milk"})

		deleted, err := c.Delete(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, domain.Todo{ID: "1", Body: "milk"}, deleted)
		assert.Empty(t, srv.Todos())
	})

	t.Run("MissingIsNotFound", func(t *testing.T) {
		c, _ := newTestClient(t)
		_, err := c.Delete(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("EmptyResponseFallsBackToRequestedID", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/todos/a%2Fb", r.URL.EscapedPath())
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		c := NewClient(srv.URL+"/todos/", 0, logging.NullLogger())
		deleted, err := c.Delete(ctx, "a/b")
		require.NoError(t, err)
		assert.Equal(t, "a/b", deleted.ID)
	})
}

func TestNumericIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"id": 7, "body": "seven", "completed": false}, {"body": "orphan"}]`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0, logging.NullLogger())
	todos, err := c.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Todo{{ID: "7", Body: "seven"}}, todos)
}
