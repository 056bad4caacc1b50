// Package catalog declares the static tool sets registered for each enabled
// capability. Catalogs are compile-time-known: the set of tools is fixed for
// the server's lifetime by which capability configs are present at startup.
package catalog

import (
	"fmt"

	"github.com/sharkhunterr/mcparr-sub000/internal/tools"
)

// Tool categories.
const (
	categoryDiscovery  = "media_discovery"
	categoryManagement = "media_management"
	categoryDownloads  = "downloads"
	categoryLibrary    = "library"
)

// stringArg extracts a required string argument.
func stringArg(args map[string]any, name string) (string, *tools.Result) {
	v, ok := args[name]
	if !ok {
		return "", tools.Fail("invalid_arguments", fmt.Sprintf("missing required argument: %s", name))
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", tools.Fail("invalid_arguments", fmt.Sprintf("argument %s must be a non-empty string", name))
	}
	return s, nil
}

// numberArg extracts a required numeric argument. JSON numbers decode as
// float64; integers sent as strings are rejected.
func numberArg(args map[string]any, name string) (float64, *tools.Result) {
	v, ok := args[name]
	if !ok {
		return 0, tools.Fail("invalid_arguments", fmt.Sprintf("missing required argument: %s", name))
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	}
	return 0, tools.Fail("invalid_arguments", fmt.Sprintf("argument %s must be a number", name))
}

// optionalString extracts an optional string argument, returning def when
// absent.
func optionalString(args map[string]any, name, def string) string {
	if v, ok := args[name].(string); ok && v != "" {
		return v
	}
	return def
}

// upstreamFail normalizes an adapter error into a tool-level failure.
func upstreamFail(err error) *tools.Result {
	return tools.Fail("upstream_error", err.Error())
}
