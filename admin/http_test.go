package admin

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"math/rand"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wumpus-simulator/persistence"
	"wumpus-simulator/services"
)

func newTestHandler(t *testing.T) Handler {
	t.Helper()
	store, err := persistence.NewJSONStore(t.TempDir())
	require.NoError(t, err)
	sim := services.NewSimulator(services.Options{
		Storage: store,
		Rand:    rand.New(rand.NewSource(5)),
		Logger:  log.New(io.Discard, "", 0),
	})
	return Handler{Sim: sim}
}

func call(h func(context.Context, *app.RequestContext), body string) *app.RequestContext {
	ctx := &app.RequestContext{}
	if body != "" {
		ctx.Request.SetBody([]byte(body))
	}
	h(context.Background(), ctx)
	return ctx
}

func errorCode(t *testing.T, ctx *app.RequestContext) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &body))
	return body.Error.Code
}

func TestCreateAndStatus(t *testing.T) {
	h := newTestHandler(t)

	ctx := call(h.status, "")
	assert.Equal(t, consts.StatusOK, ctx.Response.StatusCode())
	var st services.Status
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &st))
	assert.False(t, st.Ready)

	ctx = call(h.tiles, "")
	assert.Equal(t, consts.StatusConflict, ctx.Response.StatusCode())
	assert.Equal(t, "not_ready", errorCode(t, ctx))

	ctx = call(h.create, `{"has_arrow":true,"wumpus_count":1,"trap_count":1,"size":4}`)
	require.Equal(t, consts.StatusOK, ctx.Response.StatusCode())
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &st))
	assert.True(t, st.Ready)
	assert.Equal(t, 4, st.Size)
	assert.Equal(t, 1, st.Wumpi)

	ctx = call(h.spawn, `{"agent_id":-1}`)
	require.Equal(t, consts.StatusOK, ctx.Response.StatusCode())
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &st))
	assert.Equal(t, []int{-1}, st.Turns)

	ctx = call(h.tiles, "")
	require.Equal(t, consts.StatusOK, ctx.Response.StatusCode())
	var tiles struct {
		Tiles []services.TileView `json:"tiles"`
	}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &tiles))
	assert.Len(t, tiles.Tiles, 16)
}

func TestCreateRejectsBadInput(t *testing.T) {
	h := newTestHandler(t)

	ctx := call(h.create, `{`)
	assert.Equal(t, consts.StatusBadRequest, ctx.Response.StatusCode())
	assert.Equal(t, "invalid_json", errorCode(t, ctx))

	ctx = call(h.create, `{"size":0}`)
	assert.Equal(t, consts.StatusBadRequest, ctx.Response.StatusCode())
	assert.Equal(t, "bad_request", errorCode(t, ctx))
}

func TestSaveAndLoad(t *testing.T) {
	h := newTestHandler(t)

	ctx := call(h.save, `{"destination":"w"}`)
	assert.Equal(t, consts.StatusConflict, ctx.Response.StatusCode())

	call(h.create, `{"wumpus_count":1,"trap_count":1,"size":4}`)
	ctx = call(h.save, `{"destination":"w"}`)
	require.Equal(t, consts.StatusOK, ctx.Response.StatusCode())

	ctx = call(h.load, `{"world_path":"w"}`)
	require.Equal(t, consts.StatusOK, ctx.Response.StatusCode())

	ctx = call(h.load, `{"world_path":"w"}`)
	assert.Equal(t, consts.StatusConflict, ctx.Response.StatusCode())
	assert.Equal(t, "already_loaded", errorCode(t, ctx))

	ctx = call(h.load, `{"world_path":"missing"}`)
	assert.Equal(t, consts.StatusNotFound, ctx.Response.StatusCode())

	ctx = call(h.load, `{}`)
	assert.Equal(t, consts.StatusBadRequest, ctx.Response.StatusCode())
}
