package channel

import (
	"go.uber.org/zap"

	"github.com/wippyai/webbridge"
	"github.com/wippyai/webbridge/describe"
)

// Reflector derives the type descriptor of a native object.
type Reflector func(obj any) (webbridge.Descriptor, error)

// Reflect is the default Reflector. Objects implementing Describer supply
// their own descriptor; others are described by reflection.
func Reflect(obj any) (webbridge.Descriptor, error) {
	if d, ok := obj.(webbridge.Describer); ok {
		return d.Describe()
	}
	t, err := describe.Of(obj)
	if err != nil {
		return nil, err
	}
	return t, nil
}

type config struct {
	name      string
	sequence  *Sequence
	queue     Queue
	logger    *zap.Logger
	reflector Reflector
}

// Option configures a Channel.
type Option func(*config)

// WithName sets the endpoint name. Without it a name is drawn from the
// sequence.
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

// WithSequence sets the sequence used for the default name.
func WithSequence(s *Sequence) Option {
	return func(c *config) { c.sequence = s }
}

// WithQueue sets the queue that delivers messages. The channel does not
// close a queue it was given.
func WithQueue(q Queue) Option {
	return func(c *config) { c.queue = q }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithReflector replaces the default Reflector.
func WithReflector(r Reflector) Option {
	return func(c *config) { c.reflector = r }
}
