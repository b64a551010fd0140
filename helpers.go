package dotprompt

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/aymerick/raymond"

	"github.com/dotprompt-go/dotprompt/internal/cast"
)

// builtinHelpers are registered on every compiled template. All marker
// emitters return raymond.SafeString so the sentinel wire format survives
// the engine's escape policy intact.
var builtinHelpers = map[string]any{
	"json":         jsonHelper,
	"role":         roleHelper,
	"history":      historyHelper,
	"section":      sectionHelper,
	"media":        mediaHelper,
	"ifEquals":     ifEqualsHelper,
	"unlessEquals": unlessEqualsHelper,
}

// registerHelpers registers custom helpers first, then the built-ins, on the
// given template. Registration is additive and idempotent per name: a custom
// helper shadowing a built-in name wins, and a duplicate name is skipped
// rather than re-registered (raymond panics on double registration).
func registerHelpers(tpl *raymond.Template, custom map[string]any) {
	known := make(map[string]bool, len(custom)+len(builtinHelpers))
	for name, fn := range custom {
		if known[name] {
			continue
		}
		tpl.RegisterHelper(name, fn)
		known[name] = true
	}
	for name, fn := range builtinHelpers {
		if known[name] {
			continue
		}
		tpl.RegisterHelper(name, fn)
		known[name] = true
	}
}

// jsonHelper serializes its positional argument. The "indent" hash argument
// (an int or a numeric string) selects pretty-printing; indent=0 or absent
// means compact. A non-serializable value renders as "{}".
func jsonHelper(value any, options *raymond.Options) raymond.SafeString {
	indent := 0
	if raw := options.HashProp("indent"); raw != nil {
		if n, ok := cast.ToIndent(raw); ok {
			indent = n
		}
	}

	var data []byte
	var err error
	if indent > 0 {
		data, err = json.MarshalIndent(value, "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(value)
	}
	if err != nil {
		return "{}"
	}
	return raymond.SafeString(data)
}

// roleHelper and sectionHelper take the name as their one positional
// argument. When a call has no positional argument, raymond binds its
// *raymond.Options to that parameter instead, so the string assertion fails
// and the helper renders "".
func roleHelper(arg any) raymond.SafeString {
	name, _ := arg.(string)
	if name == "" {
		return ""
	}
	return raymond.SafeString(fmt.Sprintf("<<<dotprompt:role:%s>>>", name))
}

func historyHelper() raymond.SafeString {
	return raymond.SafeString("<<<dotprompt:history>>>")
}

func sectionHelper(arg any) raymond.SafeString {
	name, _ := arg.(string)
	if name == "" {
		return ""
	}
	return raymond.SafeString(fmt.Sprintf("<<<dotprompt:section %s>>>", name))
}

func mediaHelper(options *raymond.Options) raymond.SafeString {
	url := options.HashStr("url")
	if url == "" {
		return ""
	}
	if contentType := options.HashStr("contentType"); contentType != "" {
		return raymond.SafeString(fmt.Sprintf("<<<dotprompt:media:url %s %s>>>", url, contentType))
	}
	return raymond.SafeString(fmt.Sprintf("<<<dotprompt:media:url %s>>>", url))
}

// ifEqualsHelper is a block helper: renders the main block when both
// arguments are equal, the else block otherwise. Comparison is deep so
// uncomparable values (maps, slices) never panic the render.
func ifEqualsHelper(a, b any, options *raymond.Options) string {
	if reflect.DeepEqual(a, b) {
		return options.Fn()
	}
	return options.Inverse()
}

func unlessEqualsHelper(a, b any, options *raymond.Options) string {
	if !reflect.DeepEqual(a, b) {
		return options.Fn()
	}
	return options.Inverse()
}
