package stub

import _ "embed"

// Runtime is the proxy runtime script.
//
//go:embed runtime.js
var Runtime string
