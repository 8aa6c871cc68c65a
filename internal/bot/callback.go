package bot

import (
	"strconv"
	"strings"
)

// Callback actions. Data is "action|arg|arg..."; free text never goes into
// callback data, options are referenced by index.
const (
	actLevel    = "lvl"   // lvl|<level>
	actExercise = "ex"    // ex|<kind>
	actChoose   = "ch"    // ch|<seq>|<option>
	actMatch    = "mt"    // mt|l|<seq>|<i> or mt|r|<seq>|<i>
	actDict     = "dict"  // dict|p, dict|g, dict|s|<id>, dict|new, dict|join, dict|leave|<id>
	actAdd      = "add"   // add|ok
	actWords    = "words" // words|<page>
	actWord     = "w"     // w|<word id>
	actEdit     = "wed"   // wed|<word id>
	actRemove   = "wrm"   // wrm|<word id>
	actNoop     = "noop"
)

const callbackSep = "|"

type callback struct {
	action string
	args   []string
}

func encodeCallback(action string, args ...any) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, action)
	for _, a := range args {
		switch v := a.(type) {
		case string:
			parts = append(parts, v)
		case int:
			parts = append(parts, strconv.Itoa(v))
		case int64:
			parts = append(parts, strconv.FormatInt(v, 10))
		default:
			panic("unsupported callback argument")
		}
	}
	return strings.Join(parts, callbackSep)
}

func decodeCallback(data string) callback {
	parts := strings.Split(data, callbackSep)
	return callback{action: parts[0], args: parts[1:]}
}

func (c callback) arg(i int) string {
	if i < 0 || i >= len(c.args) {
		return ""
	}
	return c.args[i]
}

func (c callback) int(i int) (int, bool) {
	v, err := strconv.Atoi(c.arg(i))
	return v, err == nil
}

func (c callback) int64(i int) (int64, bool) {
	v, err := strconv.ParseInt(c.arg(i), 10, 64)
	return v, err == nil
}
