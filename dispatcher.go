package vesta

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xff16/vesta/internal/metric"
)

const (
	defaultActionParam = "action"
	defaultAction      = "index"
)

// paramDispatcher picks the action from a request parameter: a path parameter of
// that name wins over the query string and form body, and an empty value falls
// back to the default action.
type paramDispatcher struct {
	controller    *Controller
	param         string
	defaultAction string

	log     *zap.Logger
	metrics metric.Metrics
}

func newParamDispatcher(c *Controller, param, def string, log *zap.Logger, metrics metric.Metrics) *paramDispatcher {
	if param == "" {
		param = defaultActionParam
	}
	if def == "" {
		def = defaultAction
	}

	return &paramDispatcher{
		controller:    c,
		param:         param,
		defaultAction: def,
		log:           log,
		metrics:       metrics,
	}
}

func (d *paramDispatcher) actionName(req *Request) string {
	if name := chi.URLParam(req.HTTP(), d.param); name != "" {
		return name
	}

	if name := req.Param(d.param); name != "" {
		return name
	}

	return d.defaultAction
}

func (d *paramDispatcher) Dispatch(act *Action, req *Request, _ *Response) error {
	name := d.actionName(req)

	fn, err := d.controller.Lookup(name)
	if err != nil {
		return err
	}

	act.name = name

	d.log.Debug("dispatching action",
		zap.String("controller", d.controller.Name()),
		zap.String("action", name),
	)
	d.metrics.IncActionsTotal(d.controller.Name(), name)

	return fn(act)
}
