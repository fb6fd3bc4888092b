package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/webbridge"
	"github.com/wippyai/webbridge/channel"
	"github.com/wippyai/webbridge/wasmobj"
	"github.com/wippyai/webbridge/webview"
)

const blankPage = "<!DOCTYPE html><html><head></head><body></body></html>"

func main() {
	cfg := &Config{}
	var (
		configFile  = flag.String("config", "", "Path to bridge.toml")
		pageFile    = flag.String("page", "", "HTML page to load")
		encoding    = flag.String("encoding", "", "Message encoding: value, json or cbor")
		logLevel    = flag.String("log-level", "", "Log level (debug, info, warn, error)")
		replayFile  = flag.String("replay", "", "JSON lines file of messages for the first channel")
		timeout     = flag.Duration("timeout", 10*time.Second, "Page load timeout")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		binds       []BindConfig
	)
	flag.Var(bindList{entries: &binds}, "bind", "Bind a built-in object: name=namespace (repeatable; "+demoNames()+")")
	flag.Var(bindList{entries: &binds, wasm: true}, "wasm", "Bind a wasm module: file.wasm=namespace (repeatable)")
	flag.Parse()

	if *configFile != "" {
		loaded, err := LoadConfig(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *pageFile != "" {
		cfg.Page.Path = *pageFile
	}
	if *encoding != "" {
		cfg.Page.Encoding = *encoding
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	cfg.Bind = append(cfg.Bind, binds...)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(cfg.Bind) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: bridge [-page index.html] -bind counter=app.counter [-wasm calc.wasm=app.calc]")
		fmt.Fprintln(os.Stderr, "       bridge -config bridge.toml [-replay messages.jsonl]")
		fmt.Fprintln(os.Stderr, "       bridge -config bridge.toml -i  (interactive mode)")
		os.Exit(1)
	}
	if *interactive && !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
		os.Exit(1)
	}

	if err := run(cfg, *timeout, *replayFile, *interactive); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *Config, timeout time.Duration, replayFile string, interactive bool) error {
	if cfg.Page.Timeout != "" {
		d, err := time.ParseDuration(cfg.Page.Timeout)
		if err != nil {
			return fmt.Errorf("page timeout: %w", err)
		}
		timeout = d
	}

	logger, err := cfg.Logger()
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	if interactive {
		// zap output would tear the alternate screen
		logger = zap.NewNop()
	}
	defer logger.Sync()
	channel.SetLogger(logger)

	ctx := context.Background()
	b, err := newBridge(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close(ctx)

	loadCtx, cancel := context.WithTimeout(ctx, timeout)
	err = b.load(loadCtx, cfg.Page.Path)
	cancel()
	if err != nil {
		return err
	}

	if replayFile != "" {
		if err := b.replay(replayFile, os.Stdout); err != nil {
			return err
		}
	}

	if interactive {
		return runInteractive(b)
	}
	b.printRegistry(os.Stdout)
	return nil
}

// bridge owns the page, the channels bound on it and the wasm runtime.
type bridge struct {
	logger   *zap.Logger
	page     *webview.Page
	rt       wazero.Runtime
	channels []*channel.Channel
	title    string
}

func newBridge(ctx context.Context, cfg *Config, logger *zap.Logger) (*bridge, error) {
	enc, err := cfg.Encoding()
	if err != nil {
		return nil, err
	}
	opts := []webview.Option{webview.WithLogger(logger), webview.WithMessageEncoding(enc)}
	if cfg.Page.Path != "" {
		opts = append(opts, webview.WithFS(os.DirFS(filepath.Dir(cfg.Page.Path))))
	}

	b := &bridge{
		logger: logger,
		page:   webview.New(opts...),
		title:  cfg.Page.Path,
	}
	if b.title == "" {
		b.title = "(blank page)"
	}

	for _, bc := range cfg.Bind {
		obj, err := b.object(ctx, bc)
		if err != nil {
			b.Close(ctx)
			return nil, err
		}
		ch := channel.New(channel.WithLogger(logger))
		if _, err := ch.Bind(b.page.Ref(), obj, bc.Namespace); err != nil {
			b.Close(ctx)
			return nil, fmt.Errorf("bind %s: %w", bc.Namespace, err)
		}
		b.channels = append(b.channels, ch)
	}
	return b, nil
}

func (b *bridge) object(ctx context.Context, bc BindConfig) (any, error) {
	if bc.Object != "" {
		return demos[bc.Object](b.logger), nil
	}

	data, err := os.ReadFile(bc.Wasm)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if b.rt == nil {
		b.rt = wazero.NewRuntime(ctx)
	}
	class, err := wasmobj.Compile(ctx, b.rt, data, wasmobj.WithLogger(b.logger))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", bc.Wasm, err)
	}
	return class.New(ctx)
}

func (b *bridge) load(ctx context.Context, path string) error {
	src := blankPage
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read page: %w", err)
		}
		src = string(data)
	}
	if err := b.page.LoadHTML(ctx, src); err != nil {
		return fmt.Errorf("load page: %w", err)
	}
	b.sync()
	return nil
}

func (b *bridge) sync() {
	for _, ch := range b.channels {
		ch.Sync()
	}
}

// replay dispatches each JSON line of path to the first channel. Blank
// lines and lines starting with # are skipped.
func (b *bridge) replay(path string, w io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open replay: %w", err)
	}
	defer f.Close()

	ch := b.channels[0]
	ch.Sync()

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var body any
		if err := json.Unmarshal([]byte(text), &body); err != nil {
			return fmt.Errorf("%s:%d: %w", path, line, err)
		}
		if err := ch.Dispatch(body); err != nil {
			fmt.Fprintf(w, "%s:%d: dropped: %v\n", path, line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read replay: %w", err)
	}
	// property updates are pushed to the page asynchronously
	_, err = b.page.Frames(context.Background())
	return err
}

func (b *bridge) printRegistry(w io.Writer) {
	for _, ch := range b.channels {
		state := "bound"
		if !ch.Bound() {
			state = "unbound"
		}
		fmt.Fprintf(w, "Channel %s: %s (%s)\n", ch.Name(), ch.Namespace(), state)
		for _, id := range ch.Instances() {
			inst, ok := ch.Instance(id)
			if !ok {
				continue
			}
			fmt.Fprintf(w, "  [%d] %s %T\n", id, inst.Namespace(), inst.Object())
			for _, m := range ch.Descriptor().Members() {
				if !m.IsProperty() {
					continue
				}
				v, err := inst.Property(m.Name)
				if err != nil {
					fmt.Fprintf(w, "      %s: <%v>\n", m.Name, err)
					continue
				}
				fmt.Fprintf(w, "      %s = %s\n", m.Name, inst.Serialize(v))
			}
		}
		if desc := ch.Descriptor(); desc != nil {
			fmt.Fprintf(w, "  members: %s\n", formatMembers(desc.Members()))
		}
	}
}

func formatMembers(members []webbridge.Member) string {
	parts := make([]string, 0, len(members))
	for _, m := range members {
		name := m.Name
		if name == "" {
			name = "()"
		}
		switch {
		case m.IsInitializer():
			parts = append(parts, "new"+m.Type)
		case m.IsMethod():
			parts = append(parts, name+m.Type)
		case m.Settable:
			parts = append(parts, name)
		default:
			parts = append(parts, name+" (readonly)")
		}
	}
	return strings.Join(parts, ", ")
}

// Close unbinds every channel and releases the page and wasm runtime.
func (b *bridge) Close(ctx context.Context) {
	for _, ch := range b.channels {
		ch.Unbind()
	}
	b.page.Close()
	if b.rt != nil {
		b.rt.Close(ctx)
	}
}
