package internal

import "context"

// ActionFunc handles one action of a controller.
type ActionFunc func(ctx context.Context, req *Request, resp *Response) error

// Actions maps action names to their handlers.
type Actions map[string]ActionFunc

// Controller is a named table of actions.
type Controller interface {
	Name() string
	Actions() Actions
}

// ControllerFactory returns the controller for one navigation.
// It is called once per dispatch so controllers never share state across
// navigations unless the factory chooses to.
type ControllerFactory func() Controller

type controllerFunc struct {
	actions Actions
	name    string
}

func (c controllerFunc) Name() string     { return c.name }
func (c controllerFunc) Actions() Actions { return c.actions }

// ControllerFunc returns a factory for a stateless controller.
//
// Example:
//
//	app.MapRoute("/blog/:action[/:id]", compass.ControllerFunc("blog", compass.Actions{
//	    "index": listPosts,
//	    "show":  showPost,
//	}))
func ControllerFunc(name string, actions Actions) ControllerFactory {
	c := controllerFunc{name: name, actions: actions}
	return func() Controller { return c }
}
