package vesta

import "net/http"

// Response is the outbound side of one invocation. It remembers the status code
// and whether the handler has written anything yet.
type Response struct {
	http.ResponseWriter

	status  int
	written bool
}

func NewResponse(w http.ResponseWriter) *Response {
	return &Response{
		ResponseWriter: w,
		status:         http.StatusOK,
	}
}

func (r *Response) WriteHeader(code int) {
	if r.written {
		return
	}

	r.status = code
	r.written = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *Response) Write(b []byte) (int, error) {
	if !r.written {
		r.WriteHeader(http.StatusOK)
	}

	return r.ResponseWriter.Write(b)
}

// Status returns the status code sent, or 200 when nothing was sent yet.
func (r *Response) Status() int {
	return r.status
}

// Written reports whether the header has been sent.
func (r *Response) Written() bool {
	return r.written
}

func (r *Response) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
