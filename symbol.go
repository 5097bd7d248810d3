package vesta

import (
	"plugin"

	"go.uber.org/zap"
)

func loadSymbol[T any](path, symbol string, log *zap.Logger) T {
	var zero T

	log = log.With(zap.String("path", path), zap.String("symbol", symbol))

	p, err := plugin.Open(path)
	if err != nil {
		log.Error("cannot open plugin", zap.Error(err))
		return zero
	}

	sym, err := p.Lookup(symbol)
	if err != nil {
		log.Error("symbol not found", zap.Error(err))
		return zero
	}

	// Exported functions are looked up as values, exported variables as pointers.
	switch s := sym.(type) {
	case T:
		log.Info("symbol loaded successfully")
		return s
	case *T:
		log.Info("symbol loaded successfully")
		return *s
	}

	log.Error("symbol has wrong signature")

	return zero
}
