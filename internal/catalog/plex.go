package catalog

import (
	"context"
	"net/http"

	"github.com/sharkhunterr/mcparr-sub000/internal/capability"
	"github.com/sharkhunterr/mcparr-sub000/internal/tools"
)

// PlexOptions returns the client options for a Plex media server.
func PlexOptions() capability.Options {
	return capability.Options{
		APIKeyHeader: "X-Plex-Token",
		StatusPath:   "/identity",
	}
}

// Plex builds the tool catalog for a media server.
func Plex(c *capability.Client) ([]tools.Definition, tools.Handler) {
	defs := []tools.Definition{
		{
			Name:               "plex_list_libraries",
			Description:        "List the media libraries on the Plex server.",
			Category:           categoryLibrary,
			RequiresCapability: c.Name(),
		},
		{
			Name:        "plex_recently_added",
			Description: "List media recently added to a library section.",
			Category:    categoryLibrary,
			Parameters: []tools.Parameter{
				{Name: "section_id", Type: tools.TypeString, Description: "Library section to list; all sections when omitted"},
			},
			RequiresCapability: c.Name(),
		},
		{
			Name:               "plex_service_info",
			Description:        "Report the Plex server identity and version.",
			Category:           categoryLibrary,
			RequiresCapability: c.Name(),
		},
	}

	handler := func(ctx context.Context, name string, args map[string]any) *tools.Result {
		switch name {
		case "plex_list_libraries":
			var out map[string]any
			if err := c.Do(ctx, http.MethodGet, "/library/sections", nil, nil, &out); err != nil {
				return upstreamFail(err)
			}
			return tools.Ok(out)

		case "plex_recently_added":
			path := "/library/recentlyAdded"
			if section := optionalString(args, "section_id", ""); section != "" {
				path = "/library/sections/" + section + "/recentlyAdded"
			}
			var out map[string]any
			if err := c.Do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
				return upstreamFail(err)
			}
			return tools.Ok(out)

		case "plex_service_info":
			info, err := c.ServiceInfo(ctx)
			if err != nil {
				return upstreamFail(err)
			}
			return tools.Ok(info)
		}
		return tools.Fail("unknown_tool", "unknown plex tool: "+name)
	}

	return defs, handler
}
