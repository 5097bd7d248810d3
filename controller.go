package vesta

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sync"
)

var (
	ErrActionNotFound      = errors.New("action not found")
	ErrInvalidAction       = errors.New("invalid action")
	ErrDuplicateAction     = errors.New("duplicate action")
	ErrUnknownController   = errors.New("unknown controller")
	errDuplicateController = errors.New("duplicate controller")
)

var actionNameRx = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// Controller maps action names to handlers.
type Controller struct {
	name    string
	actions map[string]ActionFunc
}

func NewController(name string) *Controller {
	return &Controller{
		name:    name,
		actions: make(map[string]ActionFunc),
	}
}

func (c *Controller) Name() string {
	return c.name
}

// Handle registers fn under the action name.
func (c *Controller) Handle(action string, fn ActionFunc) error {
	if !actionNameRx.MatchString(action) {
		return fmt.Errorf("%w: name %q", ErrInvalidAction, action)
	}

	if fn == nil {
		return fmt.Errorf("%w: %q has no handler", ErrInvalidAction, action)
	}

	if _, ok := c.actions[action]; ok {
		return fmt.Errorf("%w: %s.%s", ErrDuplicateAction, c.name, action)
	}

	c.actions[action] = fn

	return nil
}

// MustHandle is like Handle but panics on error. It returns c for chaining.
func (c *Controller) MustHandle(action string, fn ActionFunc) *Controller {
	if err := c.Handle(action, fn); err != nil {
		panic(err)
	}

	return c
}

func (c *Controller) Lookup(action string) (ActionFunc, error) {
	fn, ok := c.actions[action]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrActionNotFound, c.name, action)
	}

	return fn, nil
}

// Actions returns the registered action names in sorted order.
func (c *Controller) Actions() []string {
	names := make([]string, 0, len(c.actions))
	for name := range c.actions {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

//nolint:gochecknoglobals // registered from init functions
var (
	controllers   = make(map[string]*Controller)
	muControllers sync.RWMutex
)

// RegisterController makes c available to routes by name. It panics if the name is
// already taken.
func RegisterController(c *Controller) {
	muControllers.Lock()
	defer muControllers.Unlock()

	if _, ok := controllers[c.name]; ok {
		panic(fmt.Errorf("%w: %s", errDuplicateController, c.name))
	}

	controllers[c.name] = c
}

func LookupController(name string) (*Controller, error) {
	muControllers.RLock()
	defer muControllers.RUnlock()

	c, ok := controllers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownController, name)
	}

	return c, nil
}

// Controllers returns a copy of the registered controllers.
func Controllers() map[string]*Controller {
	muControllers.RLock()
	defer muControllers.RUnlock()

	c := make(map[string]*Controller, len(controllers))
	for k, v := range controllers {
		c[k] = v
	}

	return c
}
