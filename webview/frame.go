package webview

import (
	"context"
	"sort"
	"strings"

	"github.com/dop251/goja"
	"github.com/fxamacker/cbor/v2"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// frame is one document context with its own script runtime.
type frame struct {
	vm   *goja.Runtime
	main bool
}

func (p *Page) newFrame(main bool) *frame {
	vm := goja.New()
	f := &frame{vm: vm, main: main}

	global := vm.GlobalObject()
	_ = vm.Set("window", global)
	_ = vm.Set("self", global)
	_ = vm.Set("console", p.console(vm))
	_ = vm.Set("messageHandlers", vm.NewDynamicObject(&handlerTable{page: p, vm: vm}))
	return f
}

// run executes src, interrupting it if ctx is done first.
func (f *frame) run(ctx context.Context, name, src string) (goja.Value, error) {
	stop := make(chan struct{})
	watched := make(chan struct{})
	go func() {
		defer close(watched)
		select {
		case <-ctx.Done():
			f.vm.Interrupt(ctx.Err())
		case <-stop:
		}
	}()
	v, err := f.vm.RunScript(name, src)
	close(stop)
	<-watched
	f.vm.ClearInterrupt()
	return v, err
}

func (p *Page) console(vm *goja.Runtime) *goja.Object {
	console := vm.NewObject()
	logger := p.logger.Named("console")
	levels := map[string]func(string, ...zap.Field){
		"log":   logger.Info,
		"info":  logger.Info,
		"debug": logger.Debug,
		"warn":  logger.Warn,
		"error": logger.Error,
	}
	for name, log := range levels {
		_ = console.Set(name, func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				parts[i] = arg.String()
			}
			log(strings.Join(parts, " "))
			return goja.Undefined()
		})
	}
	return console
}

// handlerTable exposes the page's message handlers as a live script object.
type handlerTable struct {
	page *Page
	vm   *goja.Runtime
}

func (t *handlerTable) Get(key string) goja.Value {
	if _, ok := t.page.handler(key); !ok {
		return goja.Undefined()
	}
	obj := t.vm.NewObject()
	_ = obj.Set("postMessage", func(call goja.FunctionCall) goja.Value {
		h, ok := t.page.handler(key)
		if !ok {
			return goja.Undefined()
		}
		body, err := t.page.encode(call.Argument(0).Export())
		if err != nil {
			t.page.logger.Warn("message not encoded", zap.String("handler", key), zap.Error(err))
			return goja.Undefined()
		}
		h(body)
		return goja.Undefined()
	})
	return obj
}

func (t *handlerTable) Set(string, goja.Value) bool { return false }
func (t *handlerTable) Delete(string) bool          { return false }

func (t *handlerTable) Has(key string) bool {
	_, ok := t.page.handler(key)
	return ok
}

func (t *handlerTable) Keys() []string {
	t.page.mu.Lock()
	defer t.page.mu.Unlock()
	keys := make([]string, 0, len(t.page.handlers))
	for k := range t.page.handlers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (p *Page) encode(v any) (any, error) {
	switch p.encoding {
	case EncodingJSON:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case EncodingCBOR:
		return cbor.Marshal(v)
	}
	return v, nil
}
