package chain

import "strings"

// ResolveArguments builds a target's argument map from its declared value
// sources. Unresolved paths yield "parameter omitted", never an error:
// target handlers own the decision of what a missing argument means.
func ResolveArguments(mappings map[string]ValueSource, trig *Trigger) map[string]any {
	args := make(map[string]any, len(mappings))
	for param, src := range mappings {
		if src.Source == "" {
			args[param] = src.Value
			continue
		}
		if v, ok := resolveSource(src.Source, trig); ok {
			args[param] = v
		}
	}
	return args
}

func resolveSource(source string, trig *Trigger) (any, bool) {
	switch {
	case source == "result":
		return trig.Result, trig.Result != nil
	case strings.HasPrefix(source, "result."):
		return resolvePath(trig.Result, strings.TrimPrefix(source, "result."))
	case source == "input":
		return trig.Input, trig.Input != nil
	case strings.HasPrefix(source, "input."):
		return resolvePath(trig.Input, strings.TrimPrefix(source, "input."))
	}
	return nil, false
}
