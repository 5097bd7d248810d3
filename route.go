package vesta

import "net/http"

// MethodAny matches every HTTP method.
const MethodAny = "*"

type Route struct {
	Path        string
	Method      string
	Controller  *Controller
	Dispatcher  Dispatcher
	Middlewares []Middleware

	handler http.Handler
}
