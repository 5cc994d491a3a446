// Package compass is a small MVC dispatcher for navigation-driven
// applications.
//
// It maps history locations to controller actions and runs every
// navigation through a pipeline of filters. The location comes from a
// history backend: an in-memory stack for tests and tools, or a browser
// connected over a WebSocket.
//
// # Quick Start
//
//	blog := compass.ControllerFunc("blog", compass.Actions{
//	    "index": func(ctx context.Context, req *compass.Request, resp *compass.Response) error {
//	        return render(ctx, "blog/index")
//	    },
//	    "show": func(ctx context.Context, req *compass.Request, resp *compass.Response) error {
//	        return render(ctx, "blog/show", req.Param("id"))
//	    },
//	})
//
//	app := compass.New(
//	    compass.WithLogger("web", compass.DispatchIDExtractor()),
//	    compass.WithRoute("/blog[/:action][/:id]", blog),
//	)
//
//	if err := app.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Routes
//
// Route templates use a small syntax compiled into anchored matchers:
//
//	:name    one path segment, [a-zA-Z0-9._-]+
//	*name    anything, including "/"
//	[...]    optional section
//	{...}    optional section that never captures
//
// Named captures become request parameters. The "action" parameter selects
// the controller action and defaults to "index". The "controller" parameter
// is the controller's Name.
//
// # Lifecycle
//
// Run sorts the filters, emits APPLICATION_START, dispatches the current
// location and emits APPLICATION_RUN. Each navigation then runs:
//
//	ACTION_EXECUTING -> action -> ACTION_EXECUTED -> APPLICATION_LOADED
//
// The first failing stage stops the pipeline and produces exactly one
// ACTION_EXCEPTION, delivered to the action filters in scope. A route whose
// action does not exist fails immediately with a MissingActionError and no
// events.
//
// # Filters
//
// Application filters see START, RUN and the first LOADED. Action filters see
// EXECUTING, EXECUTED and EXCEPTION and may be scoped to a route template:
//
//	app.AddActionFilter(compass.ActionFilterFuncs{
//	    Executing: requireLogin,
//	}, "/admin/*section", 10)
//
// Filters run in ascending order; equal orders keep registration order.
// Ready-made logging, metrics and tracing filters live in package filters.
package compass
