package channel

import (
	"fmt"
	"regexp"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/webbridge"
	"github.com/wippyai/webbridge/binding"
	"github.com/wippyai/webbridge/describe"
	"github.com/wippyai/webbridge/errors"
	"github.com/wippyai/webbridge/host"
	"github.com/wippyai/webbridge/registry"
	"github.com/wippyai/webbridge/stub"
)

var namespacePattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*(\.[A-Za-z_$][A-Za-z0-9_$]*)*$`)

type state uint8

const (
	stateFresh state = iota
	stateBound
	stateInert
)

func (s state) String() string {
	switch s {
	case stateFresh:
		return "fresh"
	case stateBound:
		return "bound"
	}
	return "inert"
}

// Channel connects one native object to one named message handler of a
// host endpoint.
type Channel struct {
	name      string
	logger    *zap.Logger
	queue     Queue
	ownsQueue bool
	reflector Reflector

	mu        sync.Mutex
	state     state
	desc      webbridge.Descriptor // set by Bind, kept after Unbind
	namespace string
	ref       host.Ref
	scripts   []host.ScriptID
	instances *registry.Registry
}

var _ webbridge.ScriptContext = (*Channel)(nil)

// New creates an unbound channel.
func New(opts ...Option) *Channel {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.sequence == nil {
		cfg.sequence = DefaultSequence
	}
	if cfg.name == "" {
		cfg.name = cfg.sequence.NextName()
	}
	if cfg.logger == nil {
		cfg.logger = Logger()
	}
	if cfg.reflector == nil {
		cfg.reflector = Reflect
	}

	c := &Channel{
		name:      cfg.name,
		logger:    cfg.logger.Named("channel").With(zap.String("channel", cfg.name)),
		queue:     cfg.queue,
		reflector: cfg.reflector,
		instances: registry.New(),
	}
	if c.queue == nil {
		c.queue = NewSerialQueue(c.logger)
		c.ownsQueue = true
	}
	return c
}

// Name returns the endpoint name the channel registers under.
func (c *Channel) Name() string { return c.name }

// Namespace returns the script path of the principal instance.
func (c *Channel) Namespace() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.namespace
}

// Bound reports whether the channel processes messages.
func (c *Channel) Bound() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == stateBound
}

// Descriptor returns the descriptor set by Bind. It stays available after
// Unbind.
func (c *Channel) Descriptor() webbridge.Descriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.desc
}

// Instance returns the binding registered under id.
func (c *Channel) Instance(id int) (webbridge.Binding, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.instances.Get(id)
}

// Instances returns the live instance ids in ascending order.
func (c *Channel) Instances() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.instances.IDs()
}

// Subscribe registers an observer for instance lifecycle events. Observers
// run with the channel locked and must not call back into it.
func (c *Channel) Subscribe(o registry.Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.instances.Subscribe(o)
}

// Bind exposes obj to scripts under namespace. It registers the channel's
// message handler on the endpoint, schedules the proxy for every document
// load and evaluates it in the current document. Bind fails without side
// effects if the channel was bound before or the endpoint is gone.
func (c *Channel) Bind(ref host.Ref, obj any, namespace string) (webbridge.Binding, error) {
	if obj == nil {
		return nil, errors.InvalidInput(errors.PhaseBind, "nil object")
	}
	if !namespacePattern.MatchString(namespace) {
		return nil, errors.InvalidInput(errors.PhaseBind, fmt.Sprintf("invalid namespace %q", namespace))
	}

	c.mu.Lock()
	if c.state != stateFresh {
		st := c.state
		c.mu.Unlock()
		return nil, errors.Precondition(errors.PhaseBind, "channel is "+st.String())
	}
	var endpoint host.Endpoint
	ok := false
	if ref != nil {
		endpoint, ok = ref.Endpoint()
	}
	if !ok {
		c.mu.Unlock()
		return nil, errors.Precondition(errors.PhaseBind, "host endpoint unavailable")
	}

	desc, err := c.reflector(obj)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	principal, err := newBinding(obj, namespace, desc)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}

	source := stub.Generate(desc, principal, c.name)
	if p, ok := obj.(webbridge.ProxySourceProvider); ok {
		source = p.ProxySource(source)
	}

	if err := endpoint.AddMessageHandler(c.name, c.HandleMessage); err != nil {
		c.mu.Unlock()
		return nil, errors.Registration(errors.PhaseBind, c.name, err)
	}
	c.scripts = []host.ScriptID{
		endpoint.AddUserScript(host.UserScript{Source: stub.Runtime, InjectAt: host.DocumentStart, MainFrameOnly: true}),
		endpoint.AddUserScript(host.UserScript{Source: source, InjectAt: host.DocumentStart, MainFrameOnly: true}),
	}
	c.instances.Insert(registry.Principal, principal)
	c.desc = desc
	c.namespace = namespace
	c.ref = ref
	c.state = stateBound
	c.mu.Unlock()

	c.logger.Debug("bound", zap.String("namespace", namespace), zap.Int("members", len(desc.Members())))

	if err := endpoint.EvaluateScript(stub.Runtime + "\n" + source); err != nil {
		c.logger.Warn("proxy not evaluated in current document", zap.Error(err))
	}
	if sa, ok := obj.(webbridge.ScriptAware); ok {
		sa.SetScriptContext(c)
	}
	return principal, nil
}

// Unbind clears the instance registry and detaches from the endpoint.
// Documents loaded afterwards no longer receive the proxy. Unbind on a
// channel that is not bound does nothing.
func (c *Channel) Unbind() {
	c.mu.Lock()
	if c.state != stateBound {
		c.mu.Unlock()
		return
	}
	c.instances.Clear()
	c.state = stateInert
	scripts := c.scripts
	c.scripts = nil
	ref := c.ref
	c.mu.Unlock()

	if endpoint, ok := ref.Endpoint(); ok {
		endpoint.RemoveMessageHandler(c.name)
		for _, id := range scripts {
			endpoint.RemoveUserScript(id)
		}
	}
	if c.ownsQueue {
		c.queue.Close()
	}
	c.logger.Debug("unbound")
}

// HandleMessage queues body for dispatch. It is the message handler the
// channel registers on its endpoint. Dropped messages are logged.
func (c *Channel) HandleMessage(body any) {
	ok := c.queue.Submit(func() {
		msg, err := c.dispatch(body)
		if err == nil {
			return
		}
		if kind, _ := errors.KindOf(err); kind == errors.KindEmptyPayload {
			c.logger.Debug("empty message ignored")
			return
		}
		c.logger.Warn("message dropped",
			zap.String("opcode", msg.Opcode),
			zap.Int("target", msg.Target),
			zap.Error(err))
	})
	if !ok {
		c.logger.Debug("message after close ignored")
	}
}

// Sync waits until messages handed to HandleMessage so far are processed.
func (c *Channel) Sync() {
	c.queue.Wait()
}

// Dispatch processes one message on the channel's queue and waits for the
// outcome, so it never overlaps messages from HandleMessage. Messages
// arriving while the channel is not bound are discarded with a nil error.
// It must not be called from native code running on the queue.
func (c *Channel) Dispatch(body any) error {
	result := make(chan error, 1)
	ok := c.queue.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				result <- errors.Panic(errors.PhaseDispatch, nil, r)
			}
		}()
		_, err := c.dispatch(body)
		result <- err
	})
	if !ok {
		return nil
	}
	return <-result
}

func (c *Channel) dispatch(body any) (Message, error) {
	msg, err := ParseMessage(body)
	if err != nil {
		return msg, err
	}

	c.mu.Lock()
	if c.state != stateBound {
		c.mu.Unlock()
		return msg, nil
	}

	if msg.Raw {
		principal, _ := c.instances.Principal()
		c.mu.Unlock()
		if r, ok := principal.Object().(webbridge.RawMessageReceiver); ok {
			r.ReceiveRawMessage(msg.Payload)
			return msg, nil
		}
		return msg, errors.Malformed(errors.PhaseDispatch, "unknown message", msg.Payload)
	}

	target, found := c.instances.Get(msg.Target)
	desc := c.desc
	switch {
	case found && msg.Opcode == OpDispose:
		if msg.Target == registry.Principal {
			c.mu.Unlock()
			c.Unbind()
			return msg, nil
		}
		c.instances.Remove(msg.Target)
		c.mu.Unlock()
		if f, ok := target.Object().(webbridge.Finalizer); ok {
			f.FinalizeForScript()
		}
		c.logger.Debug("instance disposed", zap.Int("target", msg.Target))
		return msg, nil

	case found:
		c.mu.Unlock()
		return msg, c.invoke(target, desc, msg)

	case msg.Opcode == OpCreate:
		namespace := c.namespace
		c.mu.Unlock()
		return msg, c.create(desc, namespace, msg)
	}

	c.mu.Unlock()
	return msg, errors.UnresolvedTarget(msg.Target)
}

func (c *Channel) invoke(b webbridge.Binding, desc webbridge.Descriptor, msg Message) error {
	name, _ := webbridge.SplitTag(msg.Opcode)
	member, ok := desc.Lookup(name)
	if !ok {
		return errors.UnknownMember(msg.Opcode, msg.Target)
	}

	switch member.Kind {
	case webbridge.KindProperty:
		if err := b.SetProperty(name, msg.Operand); err != nil {
			return err
		}
		c.logger.Debug("property set", zap.String("name", name), zap.Int("target", msg.Target))
		return nil
	case webbridge.KindMethod:
		args, ok := msg.Args()
		if !ok {
			return errors.Malformed(errors.PhaseDispatch, "method operand must be a sequence", msg.Operand)
		}
		if _, err := b.Invoke(name, args); err != nil {
			return err
		}
		c.logger.Debug("method invoked", zap.String("name", name), zap.Int("target", msg.Target))
		return nil
	}
	return errors.UnknownMember(msg.Opcode, msg.Target)
}

func (c *Channel) create(desc webbridge.Descriptor, principal string, msg Message) error {
	ctor, ok := desc.(webbridge.Constructor)
	if !ok {
		return errors.Unsupported(errors.PhaseDispatch, "instance creation")
	}
	args, ok := msg.Args()
	if !ok {
		args = nil
	}
	obj, err := ctor.Construct(args)
	if err != nil {
		return err
	}
	b, err := newBinding(obj, fmt.Sprintf("%s[%d]", principal, msg.Target), desc)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.state != stateBound {
		c.mu.Unlock()
		return nil
	}
	if !c.instances.Insert(msg.Target, b) {
		c.mu.Unlock()
		return errors.UnknownMember(msg.Opcode, msg.Target)
	}
	c.mu.Unlock()

	c.logger.Debug("instance created", zap.Int("target", msg.Target), zap.String("namespace", b.Namespace()))
	if sa, ok := obj.(webbridge.ScriptAware); ok {
		sa.SetScriptContext(c)
	}
	return nil
}

// EvaluateScript runs source in the bound document. It does nothing if the
// channel is not bound or the endpoint is gone.
func (c *Channel) EvaluateScript(source string) error {
	endpoint, ok := c.endpoint()
	if !ok {
		return nil
	}
	return endpoint.EvaluateScript(source)
}

// SyncProperty pushes the native value of a property of instance id into
// its script proxy.
func (c *Channel) SyncProperty(id int, name string) error {
	c.mu.Lock()
	if c.state != stateBound {
		c.mu.Unlock()
		return nil
	}
	b, ok := c.instances.Get(id)
	if !ok {
		c.mu.Unlock()
		return errors.UnresolvedTarget(id)
	}
	if m, ok := c.desc.Lookup(name); !ok || !m.IsProperty() {
		c.mu.Unlock()
		return errors.UnknownMember(name, id)
	}
	namespace := c.namespace
	c.mu.Unlock()

	v, err := b.Property(name)
	if err != nil {
		return err
	}
	return c.EvaluateScript(stub.UpdateProperty(namespace, id, name, b.Serialize(v)))
}

func (c *Channel) endpoint() (host.Endpoint, bool) {
	c.mu.Lock()
	bound, ref := c.state == stateBound, c.ref
	c.mu.Unlock()
	if !bound {
		return nil, false
	}
	return ref.Endpoint()
}

// newBinding wraps obj for namespace. Objects implementing Binder supply
// their own binding; others need a reflected descriptor.
func newBinding(obj any, namespace string, desc webbridge.Descriptor) (webbridge.Binding, error) {
	if b, ok := obj.(webbridge.Binder); ok {
		return b.BindingFor(namespace, desc)
	}
	t, ok := desc.(*describe.Type)
	if !ok {
		return nil, errors.Unsupported(errors.PhaseBind, fmt.Sprintf("binding for descriptor %T", desc))
	}
	return binding.New(namespace, obj, t)
}
