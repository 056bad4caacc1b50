package catalog

import (
	"context"
	"net/http"
	"net/url"

	"github.com/sharkhunterr/mcparr-sub000/internal/capability"
	"github.com/sharkhunterr/mcparr-sub000/internal/tools"
)

// SonarrOptions returns the client options for a Sonarr instance.
func SonarrOptions() capability.Options {
	return capability.Options{
		APIKeyHeader: "X-Api-Key",
		StatusPath:   "/api/v3/system/status",
	}
}

// Sonarr builds the tool catalog for a TV series collection manager.
func Sonarr(c *capability.Client) ([]tools.Definition, tools.Handler) {
	defs := []tools.Definition{
		{
			Name:        "sonarr_lookup_series",
			Description: "Look up TV series by title or TVDB id.",
			Category:    categoryDiscovery,
			Parameters: []tools.Parameter{
				{Name: "term", Type: tools.TypeString, Description: "Title or id to look up", Required: true},
			},
			RequiresCapability: c.Name(),
		},
		{
			Name:        "sonarr_add_series",
			Description: "Add a TV series to the collection and start searching for it.",
			Category:    categoryManagement,
			IsMutation:  true,
			Parameters: []tools.Parameter{
				{Name: "tvdb_id", Type: tools.TypeNumber, Description: "TVDB id of the series", Required: true},
				{Name: "quality_profile_id", Type: tools.TypeNumber, Description: "Quality profile to use", Default: 1},
				{Name: "root_folder_path", Type: tools.TypeString, Description: "Root folder for the series", Default: "/tv"},
			},
			RequiresCapability: c.Name(),
		},
		{
			Name:               "sonarr_get_queue",
			Description:        "List episode downloads currently in the queue.",
			Category:           categoryDownloads,
			RequiresCapability: c.Name(),
		},
	}

	handler := func(ctx context.Context, name string, args map[string]any) *tools.Result {
		switch name {
		case "sonarr_lookup_series":
			term, fail := stringArg(args, "term")
			if fail != nil {
				return fail
			}
			var out []any
			if err := c.Do(ctx, http.MethodGet, "/api/v3/series/lookup", url.Values{"term": {term}}, nil, &out); err != nil {
				return upstreamFail(err)
			}
			return tools.Ok(map[string]any{
				"count":   len(out),
				"results": out,
			})

		case "sonarr_add_series":
			tvdbID, fail := numberArg(args, "tvdb_id")
			if fail != nil {
				return fail
			}
			qualityProfile := 1.0
			if n, ok := args["quality_profile_id"].(float64); ok {
				qualityProfile = n
			}
			body := map[string]any{
				"tvdbId":           int(tvdbID),
				"qualityProfileId": int(qualityProfile),
				"rootFolderPath":   optionalString(args, "root_folder_path", "/tv"),
				"monitored":        true,
				"addOptions":       map[string]any{"searchForMissingEpisodes": true},
			}
			var out map[string]any
			if err := c.Do(ctx, http.MethodPost, "/api/v3/series", nil, body, &out); err != nil {
				return upstreamFail(err)
			}
			return tools.Ok(out)

		case "sonarr_get_queue":
			var out map[string]any
			if err := c.Do(ctx, http.MethodGet, "/api/v3/queue", nil, nil, &out); err != nil {
				return upstreamFail(err)
			}
			return tools.Ok(out)
		}
		return tools.Fail("unknown_tool", "unknown sonarr tool: "+name)
	}

	return defs, handler
}
