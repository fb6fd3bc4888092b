package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/wippyai/webbridge/webview"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bridge.toml", `
[page]
path = "index.html"
encoding = "cbor"

[[bind]]
object = "counter"
namespace = "app.counter"

[[bind]]
wasm = "calc.wasm"
namespace = "app.calc"

[log]
level = "debug"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	abs, _ := filepath.Abs(dir)
	if cfg.Page.Path != filepath.Join(abs, "index.html") {
		t.Errorf("page path = %q", cfg.Page.Path)
	}
	want := []BindConfig{
		{Object: "counter", Namespace: "app.counter"},
		{Wasm: filepath.Join(abs, "calc.wasm"), Namespace: "app.calc"},
	}
	if diff := cmp.Diff(want, cfg.Bind); diff != "" {
		t.Errorf("bind mismatch (-want +got):\n%s", diff)
	}
	if enc, _ := cfg.Encoding(); enc != webview.EncodingCBOR {
		t.Errorf("encoding = %v, want cbor", enc)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"ok", Config{Bind: []BindConfig{{Object: "echo", Namespace: "app.echo"}}}, ""},
		{"both", Config{Bind: []BindConfig{{Object: "echo", Wasm: "x.wasm", Namespace: "a"}}}, "exactly one"},
		{"neither", Config{Bind: []BindConfig{{Namespace: "a"}}}, "exactly one"},
		{"no namespace", Config{Bind: []BindConfig{{Object: "echo"}}}, "namespace is required"},
		{"unknown object", Config{Bind: []BindConfig{{Object: "nope", Namespace: "a"}}}, "unknown object"},
		{"encoding", Config{Page: PageConfig{Encoding: "xml"}}, "unknown encoding"},
		{"log level", Config{Log: LogConfig{Level: "loud"}}, "log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestBindFlags(t *testing.T) {
	var binds []BindConfig
	objects := bindList{entries: &binds}
	modules := bindList{entries: &binds, wasm: true}

	for _, err := range []error{
		objects.Set("counter=app.counter"),
		modules.Set("calc.wasm=app.calc"),
	} {
		if err != nil {
			t.Fatal(err)
		}
	}
	if err := objects.Set("counter"); err == nil {
		t.Error("expected error for missing namespace")
	}

	want := []BindConfig{
		{Object: "counter", Namespace: "app.counter"},
		{Wasm: "calc.wasm", Namespace: "app.calc"},
	}
	if diff := cmp.Diff(want, binds); diff != "" {
		t.Errorf("binds mismatch (-want +got):\n%s", diff)
	}
	if objects.String() != "counter=app.counter" || modules.String() != "calc.wasm=app.calc" {
		t.Errorf("String() = %q, %q", objects.String(), modules.String())
	}
}

func TestBridge_LoadReplayPrint(t *testing.T) {
	dir := t.TempDir()
	page := writeFile(t, dir, "index.html", `<html><body>
<script>
app.counter.add(2);
app.echo.prefix = "~";
</script>
</body></html>`)
	replay := writeFile(t, dir, "messages.jsonl", `
# create a second counter starting at 5 with step 2
{"$opcode":"+","$target":1,"$operand":[5,2]}
{"$opcode":"add#1","$target":1,"$operand":[3]}
{"$opcode":"missing","$target":1,"$operand":[]}
`)

	cfg := &Config{
		Page: PageConfig{Path: page},
		Bind: []BindConfig{
			{Object: "counter", Namespace: "app.counter"},
			{Object: "echo", Namespace: "app.echo"},
		},
	}
	ctx := context.Background()
	b, err := newBridge(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close(ctx)

	if err := b.load(ctx, cfg.Page.Path); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := b.replay(replay, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "messages.jsonl:5: dropped") {
		t.Errorf("replay output = %q", out.String())
	}

	out.Reset()
	b.printRegistry(&out)
	for _, want := range []string{
		"app.counter (bound)",
		"[0] app.counter *main.Counter",
		"value = 2",
		"[1] app.counter[1] *main.Counter",
		"value = 11",
		"new#2, value, step (readonly), add#1, reset#0",
		`prefix = "~"`,
		"()#1, join#",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("registry output missing %q:\n%s", want, out.String())
		}
	}

	v, err := b.page.Evaluate(ctx, "app.counter.value")
	if err != nil {
		t.Fatal(err)
	}
	if v != int64(2) {
		t.Errorf("page sees counter value %v (%T), want 2", v, v)
	}
}
