// Package status registers the "status" controller, a liveness endpoint that also
// reports how the application sees the request.
package status

import (
	"net/http"
	"time"

	"github.com/xff16/vesta"
)

const Name = "status"

//nolint:gochecknoinits // controllers register themselves like middlewares do
func init() {
	vesta.RegisterController(New(time.Now()))
}

// New builds the controller. Uptime is reported relative to started.
func New(started time.Time) *vesta.Controller {
	return vesta.NewController(Name).
		MustHandle("index", func(act *vesta.Action) error {
			return act.JSON(http.StatusOK, map[string]any{
				"status":     "ok",
				"action":     act.Name(),
				"base_url":   act.BaseURL(),
				"request_id": vesta.RequestID(act.Context()),
				"uptime":     time.Since(started).Round(time.Second).String(),
			})
		}).
		MustHandle("ping", func(act *vesta.Action) error {
			act.Response().Header().Set("Content-Type", "text/plain; charset=utf-8")
			act.Response().WriteHeader(http.StatusOK)
			_, err := act.Response().Write([]byte("pong"))

			return err
		})
}
