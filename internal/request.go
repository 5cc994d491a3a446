package internal

import (
	"context"
	"maps"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/compass/pkg/routepattern"
)

// Route value keys stamped on every request.
const (
	ParamController = "controller"
	ParamAction     = "action"
)

// DefaultAction is used when a route does not capture an action.
const DefaultAction = "index"

// Request carries the route values of one navigation. It is read-only.
type Request struct {
	params      map[string]string
	query       url.Values
	matcher     *routepattern.Matcher
	url         string
	fragment    string
	route       string
	isFirstLoad bool
}

// Param returns a route value, or "" when absent.
func (r *Request) Param(name string) string {
	return r.params[name]
}

// Params returns a copy of all route values, including controller and action.
func (r *Request) Params() map[string]string {
	return maps.Clone(r.params)
}

// Controller returns the controller name.
func (r *Request) Controller() string {
	return r.params[ParamController]
}

// Action returns the resolved action name.
func (r *Request) Action() string {
	return r.params[ParamAction]
}

// IsFirstLoad reports whether no navigation has completed before this one.
func (r *Request) IsFirstLoad() bool {
	return r.isFirstLoad
}

// URL returns the full location: backend path plus the token as a fragment.
func (r *Request) URL() string {
	return r.url
}

// Fragment returns the resolved location including the query string.
func (r *Request) Fragment() string {
	return r.fragment
}

// Route returns the template of the matched route.
func (r *Request) Route() string {
	return r.route
}

// Query returns the first value of a query parameter.
func (r *Request) Query(name string) string {
	return r.query.Get(name)
}

// QueryValues returns a copy of the parsed query string.
func (r *Request) QueryValues() url.Values {
	out := make(url.Values, len(r.query))
	for k, v := range r.query {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Navigator changes the current location.
type Navigator interface {
	Navigate(fragment string)
}

// Response exposes navigation control to filters and actions.
type Response struct {
	req        *Request
	nav        Navigator
	redirect   string
	mu         sync.Mutex
	redirected bool
}

// Request returns the request this response belongs to.
func (r *Response) Request() *Request {
	return r.req
}

// Navigate moves to fragment. The navigation is dispatched after the
// current pipeline finishes.
func (r *Response) Navigate(fragment string) {
	r.nav.Navigate(fragment)
}

// Redirect is Navigate that is remembered; see Redirected.
func (r *Response) Redirect(fragment string) {
	r.mu.Lock()
	r.redirect = fragment
	r.redirected = true
	r.mu.Unlock()

	r.nav.Navigate(fragment)
}

// Redirected returns the last redirect target.
func (r *Response) Redirected() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.redirect, r.redirected
}

// FilterContext pairs the request and response of one dispatch.
//
// It also carries the dispatch context. Every filter stage and the action
// receive the context current at the time they run, so a filter may derive
// from it in OnActionExecuting (a tracing span, a deadline, per-dispatch
// values) and have the action and later filters see the result.
type FilterContext struct {
	ctx      context.Context
	Request  *Request
	Response *Response
	mu       sync.Mutex
	ID       uuid.UUID
}

func newFilterContext(ctx context.Context, req *Request, nav Navigator) *FilterContext {
	fc := &FilterContext{
		ID:       uuid.New(),
		Request:  req,
		Response: &Response{req: req, nav: nav},
	}
	fc.ctx = withFilterContext(ctx, fc)
	return fc
}

// Context returns the dispatch context.
func (fc *FilterContext) Context() context.Context {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.ctx
}

// SetContext replaces the dispatch context. It should be derived from
// Context so the values already stored on it are kept. Nil is ignored.
func (fc *FilterContext) SetContext(ctx context.Context) {
	if ctx == nil {
		return
	}
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.ctx = ctx
}

// buildParams maps named captures to their values. Unnamed and unmatched
// captures are skipped.
func buildParams(controller string, names []string, caps routepattern.Captures) map[string]string {
	params := map[string]string{ParamController: controller}
	for i, name := range names {
		if name == "" {
			continue
		}
		if v, ok := caps.Get(i); ok {
			params[name] = v
		}
	}
	if params[ParamAction] == "" {
		params[ParamAction] = DefaultAction
	}
	return params
}

// locationURL renders path with token as its fragment.
func locationURL(path, token string) string {
	if strings.TrimSpace(token) == "" {
		return path
	}
	return path + "#" + token
}
