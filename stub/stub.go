package stub

import (
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/wippyai/webbridge"
)

// Generate renders the proxy source for desc. Property values are read from
// b and rendered with b.Serialize; a property that cannot be read starts
// out undefined.
func Generate(desc webbridge.Descriptor, b webbridge.Binding, channel string) string {
	base, hasBase := desc.Lookup("")
	prebind := !hasBase || !base.IsInitializer()

	var sb strings.Builder
	sb.WriteString("(function(exports) {\n")
	for _, m := range desc.Members() {
		if m.Name == "" {
			continue
		}
		switch m.Kind {
		case webbridge.KindMethod:
			sb.WriteString("exports[")
			sb.WriteString(literal(m.Name))
			sb.WriteString("] = ")
			if prebind {
				sb.WriteString("__bridge.invokeNative.bind(null, exports, ")
				sb.WriteString(literal(m.Name + m.Type))
				sb.WriteString(")")
			} else {
				sb.WriteString(forwarder(m.Name + m.Type))
			}
			sb.WriteString(";\n")
		case webbridge.KindProperty:
			sb.WriteString("__bridge.defineProperty(exports, ")
			sb.WriteString(literal(m.Name))
			sb.WriteString(", ")
			sb.WriteString(propertyValue(b, m.Name))
			if m.Settable {
				sb.WriteString(", true);\n")
			} else {
				sb.WriteString(", false);\n")
			}
		}
	}
	sb.WriteString("})(__bridge.createPlugin(")
	sb.WriteString(literal(channel))
	sb.WriteString(", ")
	sb.WriteString(literal(b.Namespace()))
	sb.WriteString(", ")
	switch {
	case !hasBase:
		sb.WriteString("null")
	case base.IsInitializer():
		sb.WriteString(literal(base.Type))
	default:
		sb.WriteString(forwarder(base.Type))
	}
	sb.WriteString("));\n")
	return sb.String()
}

// forwarder renders a function passing this and its arguments to invokeNative.
func forwarder(opcode string) string {
	return "function(){return __bridge.invokeNative.apply(null, [this, " +
		literal(opcode) + "].concat(Array.prototype.slice.call(arguments)));}"
}

func propertyValue(b webbridge.Binding, name string) string {
	v, err := b.Property(name)
	if err != nil {
		return "undefined"
	}
	return b.Serialize(v)
}

// literal renders s as a script string literal.
func literal(s string) string {
	out, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(out)
}

// UpdateProperty renders a statement that stores value, already rendered as a
// script literal, into the proxy property cache of instance id under
// namespace. It does not post a message back to native code.
func UpdateProperty(namespace string, id int, name, value string) string {
	return "__bridge.updateProperty(" + literal(namespace) + ", " + strconv.Itoa(id) + ", " +
		literal(name) + ", " + value + ");"
}
