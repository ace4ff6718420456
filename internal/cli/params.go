package cli

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// parseParams turns key=value arguments into JSON attributes. Quoted values
// are strings with "_" read as a space and \" as a quote; unquoted values
// containing a dot are floats, the rest integers. Malformed pairs are
// skipped.
func parseParams(args []string) map[string]json.RawMessage {
	attrs := make(map[string]json.RawMessage, len(args))
	for _, arg := range args {
		key, val, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			log.Debug().Str("arg", arg).Msg("skipping parameter without key")
			continue
		}
		raw, ok := parseValue(val)
		if !ok {
			log.Debug().Str("key", key).Str("value", val).Msg("skipping unparsable value")
			continue
		}
		attrs[key] = raw
	}
	return attrs
}

func parseValue(v string) (json.RawMessage, bool) {
	var out any
	switch {
	case len(v) >= 2 && strings.HasPrefix(v, `"`) && strings.HasSuffix(v, `"`):
		s := v[1 : len(v)-1]
		s = strings.ReplaceAll(s, `\"`, `"`)
		out = strings.ReplaceAll(s, "_", " ")
	case strings.Contains(v, "."):
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, false
		}
		out = f
	default:
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, false
		}
		out = n
	}
	raw, err := json.Marshal(out)
	return raw, err == nil
}
