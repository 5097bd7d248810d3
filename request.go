package vesta

import (
	"net"
	"net/http"
	"strings"
)

// RequestContext is the application a request was routed to.
type RequestContext interface {
	ContextPath() string
	IsVhostOf(serverName string) bool
}

// Application is the default RequestContext. It knows the path prefix the application
// is mounted under and the server names that serve it from the root.
type Application struct {
	name         string
	contextPath  string
	virtualHosts map[string]struct{}
}

func NewApplication(name, contextPath string, virtualHosts ...string) *Application {
	app := &Application{
		name:         name,
		contextPath:  normalizeContextPath(contextPath),
		virtualHosts: make(map[string]struct{}, len(virtualHosts)),
	}

	for _, vh := range virtualHosts {
		if vh = normalizeServerName(vh); vh != "" {
			app.virtualHosts[vh] = struct{}{}
		}
	}

	return app
}

func (a *Application) Name() string {
	return a.name
}

func (a *Application) ContextPath() string {
	return a.contextPath
}

// IsVhostOf reports whether serverName is one of the application's virtual hosts.
func (a *Application) IsVhostOf(serverName string) bool {
	_, ok := a.virtualHosts[normalizeServerName(serverName)]
	return ok
}

func normalizeContextPath(p string) string {
	p = strings.TrimRight(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}

	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}

	return p
}

func normalizeServerName(s string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), ".")
}

// Request is the inbound request handed to an Action.
type Request struct {
	http *http.Request
	app  RequestContext
}

func NewRequest(r *http.Request, app RequestContext) *Request {
	return &Request{
		http: r,
		app:  app,
	}
}

// HTTP returns the underlying *http.Request.
func (r *Request) HTTP() *http.Request {
	return r.http
}

// ServerName returns the host the client addressed, without the port.
func (r *Request) ServerName() string {
	host := r.http.Host
	if host == "" && r.http.URL != nil {
		host = r.http.URL.Host
	}

	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}

	return host
}

func (r *Request) ContextPath() string {
	return r.app.ContextPath()
}

func (r *Request) Application() RequestContext {
	return r.app
}

// Param returns the named query or form parameter.
func (r *Request) Param(name string) string {
	return r.http.FormValue(name)
}
