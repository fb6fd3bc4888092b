package webview

import (
	"io/fs"

	"go.uber.org/zap"
)

// Encoding selects the form of message bodies handed to handlers.
type Encoding uint8

const (
	// EncodingValue delivers the exported script value (maps, slices, numbers).
	EncodingValue Encoding = iota
	// EncodingJSON delivers JSON text.
	EncodingJSON
	// EncodingCBOR delivers CBOR bytes.
	EncodingCBOR
)

// String returns the encoding name.
func (e Encoding) String() string {
	switch e {
	case EncodingJSON:
		return "json"
	case EncodingCBOR:
		return "cbor"
	}
	return "value"
}

type config struct {
	logger   *zap.Logger
	encoding Encoding
	fsys     fs.FS
}

// Option configures a Page.
type Option func(*config)

// WithLogger sets the logger. Script console output goes to it as well.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithMessageEncoding sets the body form delivered to message handlers.
func WithMessageEncoding(e Encoding) Option {
	return func(c *config) { c.encoding = e }
}

// WithFS sets the file system external scripts (<script src>) load from.
// Without it such scripts are skipped.
func WithFS(fsys fs.FS) Option {
	return func(c *config) { c.fsys = fsys }
}
