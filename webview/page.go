package webview

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"

	"github.com/antchfx/htmlquery"
	"github.com/dop251/goja"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/wippyai/webbridge/errors"
	"github.com/wippyai/webbridge/host"
)

var errClosed = errors.HostUnavailable(errors.PhaseHost)

// maxFrameDepth bounds nesting of srcdoc iframes.
const maxFrameDepth = 4

// Page is an in-process host endpoint. Each loaded document gets fresh
// script runtimes for its top frame and every srcdoc iframe.
type Page struct {
	logger   *zap.Logger
	encoding Encoding
	fsys     fs.FS
	work     *worker

	mu       sync.Mutex
	handlers map[string]host.MessageHandler
	scripts  map[host.ScriptID]host.UserScript
	nextID   host.ScriptID
	closed   bool

	// touched only on the worker
	frames []*frame
}

var _ host.Endpoint = (*Page)(nil)

// New creates a page with no document loaded.
func New(opts ...Option) *Page {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	return &Page{
		logger:   cfg.logger.Named("webview"),
		encoding: cfg.encoding,
		fsys:     cfg.fsys,
		work:     newWorker(),
		handlers: make(map[string]host.MessageHandler),
		scripts:  make(map[host.ScriptID]host.UserScript),
	}
}

// Ref returns a reference that does not keep the page alive and reports
// the page gone once it is closed.
func (p *Page) Ref() host.Ref {
	weak := host.Weak(p)
	return host.RefFunc(func() (host.Endpoint, bool) {
		e, ok := weak.Endpoint()
		if !ok || e.(*Page).Closed() {
			return nil, false
		}
		return e, true
	})
}

// AddMessageHandler registers h under name. Names must be unique.
func (p *Page) AddMessageHandler(name string, h host.MessageHandler) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errClosed
	}
	if _, exists := p.handlers[name]; exists {
		return errors.Registration(errors.PhaseHost, name, fmt.Errorf("message handler already registered"))
	}
	p.handlers[name] = h
	return nil
}

// RemoveMessageHandler unregisters the handler for name.
func (p *Page) RemoveMessageHandler(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.handlers, name)
}

func (p *Page) handler(name string) (host.MessageHandler, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.handlers[name]
	return h, ok
}

// AddUserScript schedules s for every document loaded afterwards.
func (p *Page) AddUserScript(s host.UserScript) host.ScriptID {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	p.scripts[p.nextID] = s
	return p.nextID
}

// RemoveUserScript stops injecting the script with the given id.
func (p *Page) RemoveUserScript(id host.ScriptID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.scripts, id)
}

type userScript struct {
	id host.ScriptID
	host.UserScript
}

// userScripts returns the scripts for one injection point in the order
// they were added.
func (p *Page) userScripts(at host.InjectAt, main bool) []userScript {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []userScript
	for id, s := range p.scripts {
		if s.InjectAt != at || (!main && s.MainFrameOnly) {
			continue
		}
		out = append(out, userScript{id: id, UserScript: s})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// EvaluateScript queues source for the top frame of the current document
// and returns without waiting. Exceptions are logged.
func (p *Page) EvaluateScript(source string) error {
	ok := p.work.post(func() {
		if len(p.frames) == 0 {
			return
		}
		err := protect(func() error {
			_, err := p.frames[0].run(context.Background(), "evaluate", source)
			return err
		})
		if err != nil {
			p.logger.Warn("script failed", zap.Error(err))
		}
	})
	if !ok {
		return errClosed
	}
	return nil
}

// Evaluate runs source in the top frame and returns its exported result.
func (p *Page) Evaluate(ctx context.Context, source string) (any, error) {
	return p.EvaluateInFrame(ctx, 0, source)
}

// EvaluateInFrame runs source in frame i, where 0 is the top frame and
// srcdoc iframes follow in document order.
func (p *Page) EvaluateInFrame(ctx context.Context, i int, source string) (any, error) {
	var result any
	err := p.work.do(ctx, func() error {
		if i < 0 || i >= len(p.frames) {
			return errors.NotFound(errors.PhaseHost, "frame", fmt.Sprint(i))
		}
		v, err := p.frames[i].run(ctx, "evaluate", source)
		if err != nil {
			return scriptError(ctx, err)
		}
		result = v.Export()
		return nil
	})
	return result, err
}

// Frames returns the number of frames in the current document.
func (p *Page) Frames(ctx context.Context) (int, error) {
	n := 0
	err := p.work.do(ctx, func() error {
		n = len(p.frames)
		return nil
	})
	return n, err
}

// LoadHTML replaces the current document. Document-start user scripts run
// first, then the document's scripts in order, then document-end user
// scripts. Script exceptions are logged and do not stop the load; an
// interrupted load returns the context error.
func (p *Page) LoadHTML(ctx context.Context, source string) error {
	doc, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return errors.Wrap(errors.PhaseLoad, errors.KindMalformed, err, "parse document")
	}
	return p.work.do(ctx, func() error {
		p.frames = p.frames[:0]
		return p.load(ctx, doc, true, 0)
	})
}

func (p *Page) load(ctx context.Context, doc *html.Node, main bool, depth int) error {
	f := p.newFrame(main)
	p.frames = append(p.frames, f)
	index := len(p.frames) - 1

	for _, s := range p.userScripts(host.DocumentStart, main) {
		if err := p.runLogged(ctx, f, fmt.Sprintf("userscript:%d", s.id), s.Source); err != nil {
			return err
		}
	}

	for i, node := range htmlquery.Find(doc, "//script") {
		name, src, ok := p.scriptSource(node, i)
		if !ok {
			continue
		}
		if err := p.runLogged(ctx, f, name, src); err != nil {
			return err
		}
	}

	for _, s := range p.userScripts(host.DocumentEnd, main) {
		if err := p.runLogged(ctx, f, fmt.Sprintf("userscript:%d", s.id), s.Source); err != nil {
			return err
		}
	}

	p.logger.Debug("document loaded", zap.Int("frame", index), zap.Bool("main", main))

	if depth >= maxFrameDepth {
		return nil
	}
	for _, node := range htmlquery.Find(doc, "//iframe[@srcdoc]") {
		sub, err := html.Parse(strings.NewReader(htmlquery.SelectAttr(node, "srcdoc")))
		if err != nil {
			p.logger.Warn("iframe not parsed", zap.Error(err))
			continue
		}
		if err := p.load(ctx, sub, false, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// scriptSource returns the code of a script element, loading src from the
// page file system. Non-script types are skipped.
func (p *Page) scriptSource(node *html.Node, i int) (name, src string, ok bool) {
	switch strings.ToLower(strings.TrimSpace(htmlquery.SelectAttr(node, "type"))) {
	case "", "text/javascript", "application/javascript", "module":
	default:
		return "", "", false
	}

	path := htmlquery.SelectAttr(node, "src")
	if path == "" {
		return fmt.Sprintf("inline:%d", i), htmlquery.InnerText(node), true
	}
	if p.fsys == nil {
		p.logger.Warn("external script skipped", zap.String("src", path))
		return "", "", false
	}
	data, err := fs.ReadFile(p.fsys, strings.TrimPrefix(path, "/"))
	if err != nil {
		p.logger.Warn("external script not loaded", zap.String("src", path), zap.Error(err))
		return "", "", false
	}
	return path, string(data), true
}

// runLogged runs a document script. Only interruption is returned.
func (p *Page) runLogged(ctx context.Context, f *frame, name, src string) error {
	_, err := f.run(ctx, name, src)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	p.logger.Warn("script failed", zap.String("script", name), zap.Error(err))
	return nil
}

func scriptError(ctx context.Context, err error) error {
	var interrupted *goja.InterruptedError
	if stderrors.As(err, &interrupted) && ctx.Err() != nil {
		return ctx.Err()
	}
	return errors.Script(errors.PhaseHost, err)
}

// Closed reports whether Close was called.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Close drops all handlers and stops the page worker.
func (p *Page) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.handlers = make(map[string]host.MessageHandler)
	p.mu.Unlock()

	p.work.post(func() { p.frames = nil })
	p.work.close()
	return nil
}
