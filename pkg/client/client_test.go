package client

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/olebedev/emitter"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openconsole/openconsole/internal/api"
	"github.com/openconsole/openconsole/internal/console"
	"github.com/openconsole/openconsole/internal/store"
	"github.com/openconsole/openconsole/pkg/types"
)

type stubSupervisor struct{}

func (stubSupervisor) RunCommand(string, console.Options, console.Callbacks) error { return nil }
func (stubSupervisor) RunProgram(string, []string, console.Options, console.Callbacks) error {
	return nil
}
func (stubSupervisor) RunTerminal(console.Options, console.Callbacks) error { return nil }

func newTestClient(t *testing.T, apiKey string) *Client {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	files, err := store.NewFiles(t.TempDir())
	require.NoError(t, err)

	events := emitter.New(64)
	registry, err := console.NewRegistry(log, stubSupervisor{}, files, events,
		console.RegistryOptions{})
	require.NoError(t, err)

	srv := api.NewServer(log, registry, events, api.ServerOpts{APIKey: apiKey})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return NewClient(ts.URL, apiKey)
}

func TestClientSessionLifecycle(t *testing.T) {
	c := newTestClient(t, "")
	ctx := context.Background()

	info, err := c.CreateSession(ctx, types.CreateSessionRequest{
		Command: "make test",
		Caption: "build",
	})
	require.NoError(t, err)
	require.NotEmpty(t, info.Handle)

	require.NoError(t, c.StartSession(ctx, info.Handle))
	require.NoError(t, c.WriteStdin(ctx, info.Handle, types.WriteStdinRequest{
		Text:      "y\n",
		EchoInput: true,
	}))
	require.NoError(t, c.SetCaption(ctx, info.Handle, "renamed"))
	require.NoError(t, c.SetTitle(ctx, info.Handle, "make"))

	got, err := c.GetSession(ctx, info.Handle)
	require.NoError(t, err)
	assert.True(t, got.Started)
	assert.Equal(t, "renamed", got.Caption)
	assert.Equal(t, "make", got.Title)

	infos, err := c.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, infos, 1)

	buf, err := c.GetBuffer(ctx, info.Handle)
	require.NoError(t, err)
	assert.Equal(t, "\n", buf)

	require.NoError(t, c.EraseBuffer(ctx, info.Handle))
	require.NoError(t, c.ReapSession(ctx, info.Handle))

	_, err = c.GetSession(ctx, info.Handle)
	assert.Error(t, err)
}

func TestClientTerminalResize(t *testing.T) {
	c := newTestClient(t, "")
	ctx := context.Background()

	info, err := c.CreateTerminal(ctx, types.ReattachTerminalRequest{Cols: 80, Rows: 25})
	require.NoError(t, err)
	assert.True(t, info.SmartTerminal)

	require.NoError(t, c.SetSize(ctx, info.Handle, 120, 40))
}

func TestClientSendsAPIKey(t *testing.T) {
	c := newTestClient(t, "sekrit")
	ctx := context.Background()

	_, err := c.ListSessions(ctx)
	require.NoError(t, err)

	unauthed := NewClient(c.BaseURL(), "wrong")
	_, err = unauthed.ListSessions(ctx)
	assert.Error(t, err)
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	c := newTestClient(t, "")
	ctx := context.Background()

	err := c.StartSession(ctx, "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestClientPublicKeyDisabled(t *testing.T) {
	c := newTestClient(t, "")
	_, err := c.PublicKey(context.Background())
	assert.Error(t, err)
}
