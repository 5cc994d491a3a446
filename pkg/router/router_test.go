package router_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/compass/pkg/history"
	"github.com/dmitrymomot/compass/pkg/routepattern"
	"github.com/dmitrymomot/compass/pkg/router"
)

func record(calls *[]string, name string) router.Handler {
	return func(_ context.Context, m router.Match) error {
		*calls = append(*calls, name+":"+m.Fragment)
		return nil
	}
}

func TestRouter_FirstMatchWins(t *testing.T) {
	t.Parallel()

	mem := history.NewMemory(history.WithInitialToken("/a"))
	r := router.New(mem)

	var calls []string
	require.NoError(t, r.Route("/a", record(&calls, "first")))
	require.NoError(t, r.Route("/a", record(&calls, "second")))

	require.NoError(t, r.CheckRoutes(context.Background()))
	mem.SetToken("/b")
	mem.SetToken("/a")

	assert.Equal(t, []string{"first:/a", "first:/a"}, calls)
}

func TestRouter_CheckRoutesDoesNotDedupe(t *testing.T) {
	t.Parallel()

	mem := history.NewMemory(history.WithInitialToken("/home"))
	r := router.New(mem)

	var calls []string
	require.NoError(t, r.Route("/home", record(&calls, "home")))

	require.NoError(t, r.CheckRoutes(context.Background()))
	require.NoError(t, r.CheckRoutes(context.Background()))

	assert.Equal(t, []string{"home:/home", "home:/home"}, calls)
	assert.Equal(t, "/home", r.Fragment())
}

func TestRouter_ChangeDedupes(t *testing.T) {
	t.Parallel()

	mem := history.NewMemory()
	r := router.New(mem)

	var calls []string
	require.NoError(t, r.Route("/x", record(&calls, "x")))
	require.NoError(t, r.Route("/y", record(&calls, "y")))

	mem.SetToken("/x")
	mem.Replace("/y")
	mem.Replace("/x")
	// Replacing with the identical token produces no notification, and a
	// notification for an unchanged location does not dispatch.
	mem.Replace("/x")

	assert.Equal(t, []string{"x:/x", "y:/y", "x:/x"}, calls)
}

func TestRouter_ExpiredBeforeStateChange(t *testing.T) {
	t.Parallel()

	mem := history.NewMemory()
	r := router.New(mem)

	var seen []router.Expired
	var liveDuringExpiry []string
	r.OnExpired(func(_ context.Context, e router.Expired) error {
		seen = append(seen, e)
		liveDuringExpiry = append(liveDuringExpiry, r.Fragment())
		return nil
	})

	var calls []string
	require.NoError(t, r.Route("/one", record(&calls, "one")))

	mem.SetToken("/one")
	mem.SetToken("/nowhere")

	assert.Equal(t, []router.Expired{
		{Previous: "", Current: "/one"},
		{Previous: "/one", Current: "/nowhere"},
	}, seen)
	assert.Equal(t, []string{"", "/one"}, liveDuringExpiry)
	assert.Equal(t, []string{"one:/one"}, calls)
	assert.Equal(t, "/nowhere", r.Fragment())
	assert.Equal(t, "/one", r.Previous())
}

func TestRouter_ExpiredListenerErrorDoesNotBlock(t *testing.T) {
	t.Parallel()

	mem := history.NewMemory()
	r := router.New(mem)
	r.OnExpired(func(context.Context, router.Expired) error {
		return errors.New("boom")
	})

	var calls []string
	require.NoError(t, r.Route("/p", record(&calls, "p")))

	mem.SetToken("/p")
	assert.Equal(t, []string{"p:/p"}, calls)
}

func TestRouter_NoMatchIsIgnored(t *testing.T) {
	t.Parallel()

	mem := history.NewMemory(history.WithInitialToken("/missing"))
	r := router.New(mem)
	require.NoError(t, r.Route("/present", record(new([]string), "p")))

	require.NoError(t, r.CheckRoutes(context.Background()))
	assert.Equal(t, "/missing", r.Fragment())
}

func TestRouter_CapturesAndQuery(t *testing.T) {
	t.Parallel()

	mem := history.NewMemory(history.WithInitialToken("/blog/42?page=2&tag=go"))
	r := router.New(mem)

	var got router.Match
	require.NoError(t, r.Route("/blog/:id", func(_ context.Context, m router.Match) error {
		got = m
		return nil
	}))

	require.NoError(t, r.CheckRoutes(context.Background()))

	assert.Equal(t, "/blog/:id", got.Template)
	assert.Equal(t, "/blog/42?page=2&tag=go", got.Fragment)
	assert.Equal(t, "/blog/42", got.Path)
	assert.Equal(t, []string{"42"}, got.Captures.Values())
	assert.Equal(t, "2", got.Query.Get("page"))
	assert.Equal(t, "go", got.Query.Get("tag"))
	require.NotNil(t, got.Matcher)
	assert.Equal(t, "/blog/:id", got.Matcher.Template())
}

func TestRouter_PathFallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		token string
		path  string
		want  string
	}{
		{"token wins", "/t", "/p", "/t"},
		{"blank token uses path", "  ", "/p", "/p"},
		{"root path ignored", "", "/", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mem := history.NewMemory(history.WithInitialToken(tt.token), history.WithPath(tt.path))
			r := router.New(mem)

			var calls []string
			require.NoError(t, r.Route("*", record(&calls, "any")))
			require.NoError(t, r.CheckRoutes(context.Background()))

			assert.Equal(t, []string{"any:" + tt.want}, calls)
		})
	}
}

func TestRouter_HandlerErrorReturned(t *testing.T) {
	t.Parallel()

	mem := history.NewMemory(history.WithInitialToken("/fail"))
	r := router.New(mem)

	errFail := errors.New("fail")
	require.NoError(t, r.Route("/fail", func(context.Context, router.Match) error {
		return errFail
	}))

	assert.ErrorIs(t, r.CheckRoutes(context.Background()), errFail)
}

func TestRouter_NavigateFromHandlerIsQueued(t *testing.T) {
	t.Parallel()

	mem := history.NewMemory()
	r := router.New(mem)

	var calls []string
	require.NoError(t, r.Route("/login", func(context.Context, router.Match) error {
		calls = append(calls, "login:start")
		r.Navigate("/dashboard")
		calls = append(calls, "login:end")
		return nil
	}))
	require.NoError(t, r.Route("/dashboard", record(&calls, "dashboard")))

	mem.SetToken("/login")

	assert.Equal(t, []string{"login:start", "login:end", "dashboard:/dashboard"}, calls)
	assert.Equal(t, "/dashboard", mem.Token())
	assert.Equal(t, "/dashboard", r.Fragment())
}

func TestRouter_BackForward(t *testing.T) {
	t.Parallel()

	mem := history.NewMemory()
	r := router.New(mem)

	var calls []string
	require.NoError(t, r.Route("/:page", record(&calls, "page")))

	r.Navigate("/a")
	r.Navigate("/b")
	require.True(t, mem.Back())
	require.True(t, mem.Forward())

	assert.Equal(t, []string{"page:/a", "page:/b", "page:/a", "page:/b"}, calls)
}

func TestRouter_RegistrationErrors(t *testing.T) {
	t.Parallel()

	r := router.New(history.NewMemory())

	err := r.Route("/bad[", record(new([]string), "x"))
	assert.ErrorIs(t, err, routepattern.ErrMalformedTemplate)

	assert.ErrorIs(t, r.Route("/ok", nil), router.ErrNilHandler)
	assert.ErrorIs(t, r.RouteMatcher(nil, record(new([]string), "x")), router.ErrNilMatcher)
}

func TestRouter_WithContext(t *testing.T) {
	t.Parallel()

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "base")

	mem := history.NewMemory()
	r := router.New(mem, router.WithContext(ctx))

	var got any
	require.NoError(t, r.Route("/c", func(ctx context.Context, _ router.Match) error {
		got = ctx.Value(key{})
		return nil
	}))

	mem.SetToken("/c")
	assert.Equal(t, "base", got)
}

func TestRouter_RecoversFromHandlerPanic(t *testing.T) {
	t.Parallel()

	mem := history.NewMemory(history.WithInitialToken("/fail"))
	r := router.New(mem)

	var calls []string
	require.NoError(t, r.Route("/ok", record(&calls, "ok")))
	require.NoError(t, r.Route("/fail", func(context.Context, router.Match) error {
		panic("handler bug")
	}))

	assert.PanicsWithValue(t, "handler bug", func() { _ = r.CheckRoutes(context.Background()) })

	mem.SetToken("/ok")
	require.NoError(t, r.CheckRoutes(context.Background()))

	assert.Equal(t, []string{"ok:/ok", "ok:/ok"}, calls)
	assert.Equal(t, "/ok", r.Fragment())
}

func TestRouter_NotificationPanicKeepsListening(t *testing.T) {
	t.Parallel()

	mem := history.NewMemory()
	r := router.New(mem)

	var calls []string
	require.NoError(t, r.Route("/ok", record(&calls, "ok")))
	require.NoError(t, r.Route("/fail", func(_ context.Context, m router.Match) error {
		mem.SetToken("/ok") // queued behind the panicking dispatch and dropped
		panic("handler bug")
	}))

	assert.Panics(t, func() { mem.SetToken("/fail") })

	mem.SetToken("/other")
	mem.SetToken("/ok")
	assert.Equal(t, []string{"ok:/ok"}, calls)
}

func TestRouter_ExpiredListenerPanicDoesNotBlock(t *testing.T) {
	t.Parallel()

	mem := history.NewMemory()
	r := router.New(mem)

	var calls []string
	require.NoError(t, r.Route("/a", record(&calls, "a")))
	r.OnExpired(func(context.Context, router.Expired) error {
		panic("listener bug")
	})

	assert.NotPanics(t, func() { mem.SetToken("/a") })
	assert.Equal(t, []string{"a:/a"}, calls)
	assert.Equal(t, "/a", r.Fragment())
}
