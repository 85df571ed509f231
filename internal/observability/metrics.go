package observability

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// InstrumentationPrefix scopes every meter created by this module.
const InstrumentationPrefix = "github.com/cory-johannsen/motorpool/"

// Meter returns the global meter for the named package scope.
func Meter(scope string) metric.Meter {
	return otel.Meter(InstrumentationPrefix + scope)
}

// Int64Counter creates a counter on the scope's meter, falling back to a
// no-op counter when the provider rejects the instrument.
//
// Postcondition: Returns a non-nil counter.
func Int64Counter(scope, name, description string) metric.Int64Counter {
	c, err := Meter(scope).Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		return noop.Int64Counter{}
	}
	return c
}
