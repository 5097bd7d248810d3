package vesta

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

const baseURL = "/"

// ErrRequestNotSet is the panic value of BaseURL on an Action that has no request yet.
var ErrRequestNotSet = errors.New("action has no request")

// ActionFunc is a single action of a controller.
type ActionFunc func(act *Action) error

// Dispatcher selects the action a request names and invokes it.
type Dispatcher interface {
	Dispatch(act *Action, req *Request, resp *Response) error
}

// Action holds the request/response pair of one invocation and gives action handlers
// access to the attribute store and the base URL. An Action serves one invocation at
// a time; the router allocates a new one per request.
type Action struct {
	dispatcher Dispatcher
	attributes AttributeStore
	views      *Views

	name     string
	request  *Request
	response *Response
}

type ActionOption func(*Action)

func WithViews(v *Views) ActionOption {
	return func(a *Action) {
		a.views = v
	}
}

func NewAction(dispatcher Dispatcher, attributes AttributeStore, opts ...ActionOption) *Action {
	act := &Action{
		dispatcher: dispatcher,
		attributes: attributes,
	}

	for _, opt := range opts {
		opt(act)
	}

	return act
}

// Perform stores req and resp and hands them to the dispatcher. Whatever the
// dispatcher returns is returned as is.
func (a *Action) Perform(req *Request, resp *Response) error {
	a.SetRequest(req)
	a.SetResponse(resp)

	return a.dispatcher.Dispatch(a, req, resp)
}

func (a *Action) SetRequest(req *Request) {
	a.request = req
}

func (a *Action) SetResponse(resp *Response) {
	a.response = resp
}

func (a *Action) Request() *Request {
	return a.request
}

func (a *Action) Response() *Response {
	return a.response
}

// Name returns the action name resolved by the dispatcher.
func (a *Action) Name() string {
	return a.name
}

// Context returns the request context, or context.Background before a request is set.
func (a *Action) Context() context.Context {
	if a.request == nil || a.request.http == nil {
		return context.Background()
	}

	return a.request.http.Context()
}

func (a *Action) SetAttribute(key string, value any) error {
	return a.attributes.SetAttribute(a.Context(), key, value)
}

func (a *Action) Attribute(key string) (any, error) {
	return a.attributes.Attribute(a.Context(), key)
}

// BaseURL returns the URL to use in the HTML base tag: "/" when the request came in
// through one of the application's virtual hosts, the context path plus "/" otherwise.
func (a *Action) BaseURL() string {
	if a.request == nil {
		panic(ErrRequestNotSet)
	}

	return baseURLOf(a.request)
}

func baseURLOf(req *Request) string {
	if req.Application().IsVhostOf(req.ServerName()) {
		return baseURL
	}

	return req.ContextPath() + baseURL
}

// Redirect sends the client to path, resolved against BaseURL unless absolute.
func (a *Action) Redirect(code int, path string) {
	target := path
	if !strings.Contains(path, "://") {
		target = a.BaseURL() + strings.TrimPrefix(path, "/")
	}

	http.Redirect(a.response, a.request.http, target, code)
}

func (a *Action) JSON(code int, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	a.response.Header().Set("Content-Type", "application/json; charset=utf-8")
	a.response.WriteHeader(code)
	_, err = a.response.Write(b)

	return err
}

// Render executes the named view with the action's attributes and writes it.
func (a *Action) Render(code int, view string) error {
	if a.views == nil {
		return ErrNoViews
	}

	return a.views.render(a, code, view)
}
