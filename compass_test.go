package compass_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/compass"
	"github.com/dmitrymomot/compass/pkg/history"
)

func TestCompass_EndToEnd(t *testing.T) {
	t.Parallel()

	var (
		shown   []string
		started bool
		loaded  int
	)

	blog := compass.ControllerFunc("blog", compass.Actions{
		"show": func(_ context.Context, req *compass.Request, _ *compass.Response) error {
			shown = append(shown, req.Param("id"))
			return nil
		},
	})

	mem := history.NewMemory(history.WithInitialToken("/blog/show/1"))
	app := compass.New(
		compass.WithHistory(mem),
		compass.WithRoute("/blog/:action/:id", blog),
		compass.WithApplicationFilter(compass.ApplicationFilterFuncs{
			Start: func(context.Context, *compass.Event) error {
				started = true
				return nil
			},
		}, 0),
	)
	app.Subscribe(compass.TopicApplicationLoaded, func(context.Context, *compass.Event) error {
		loaded++
		return nil
	})

	require.NoError(t, app.Run(context.Background()))
	mem.Visit("/blog/show/2")
	require.True(t, mem.Back())

	assert.True(t, started)
	assert.Equal(t, []string{"1", "2", "1"}, shown)
	assert.Equal(t, 3, loaded)
	assert.Equal(t, "/blog/show/2", app.Router().Previous())
}

func TestCompass_Errors(t *testing.T) {
	t.Parallel()

	_, err := compass.Compile("/a{")
	assert.ErrorIs(t, err, compass.ErrMalformedTemplate)

	mem := history.NewMemory(history.WithInitialToken("/x"))
	app := compass.New(
		compass.WithHistory(mem),
		compass.WithRoute("/x", compass.ControllerFunc("x", nil)),
	)

	err = app.Run(context.Background())
	var missing *compass.MissingActionError
	require.True(t, errors.As(err, &missing))
	assert.ErrorIs(t, err, compass.ErrMissingAction)
	assert.Equal(t, "index", missing.Action)
}

func TestCompass_Matcher(t *testing.T) {
	t.Parallel()

	m, err := compass.Compile("/files/*path")
	require.NoError(t, err)

	caps, ok := m.Match("/files/a/b/c")
	require.True(t, ok)
	assert.Equal(t, []string{"a/b/c"}, caps.Values())
}
