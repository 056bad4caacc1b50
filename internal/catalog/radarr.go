package catalog

import (
	"context"
	"net/http"
	"net/url"

	"github.com/sharkhunterr/mcparr-sub000/internal/capability"
	"github.com/sharkhunterr/mcparr-sub000/internal/tools"
)

// RadarrOptions returns the client options for a Radarr instance.
func RadarrOptions() capability.Options {
	return capability.Options{
		APIKeyHeader: "X-Api-Key",
		StatusPath:   "/api/v3/system/status",
	}
}

// Radarr builds the tool catalog for a movie collection manager.
func Radarr(c *capability.Client) ([]tools.Definition, tools.Handler) {
	defs := []tools.Definition{
		{
			Name:        "radarr_lookup_movie",
			Description: "Look up movies by title or TMDB/IMDB id.",
			Category:    categoryDiscovery,
			Parameters: []tools.Parameter{
				{Name: "term", Type: tools.TypeString, Description: "Title or id to look up", Required: true},
			},
			RequiresCapability: c.Name(),
		},
		{
			Name:        "radarr_add_movie",
			Description: "Add a movie to the collection and start searching for it.",
			Category:    categoryManagement,
			IsMutation:  true,
			Parameters: []tools.Parameter{
				{Name: "tmdb_id", Type: tools.TypeNumber, Description: "TMDB id of the movie", Required: true},
				{Name: "quality_profile_id", Type: tools.TypeNumber, Description: "Quality profile to use", Default: 1},
				{Name: "root_folder_path", Type: tools.TypeString, Description: "Root folder for the movie", Default: "/movies"},
			},
			RequiresCapability: c.Name(),
		},
		{
			Name:               "radarr_get_queue",
			Description:        "List movie downloads currently in the queue.",
			Category:           categoryDownloads,
			RequiresCapability: c.Name(),
		},
	}

	handler := func(ctx context.Context, name string, args map[string]any) *tools.Result {
		switch name {
		case "radarr_lookup_movie":
			term, fail := stringArg(args, "term")
			if fail != nil {
				return fail
			}
			var out []any
			if err := c.Do(ctx, http.MethodGet, "/api/v3/movie/lookup", url.Values{"term": {term}}, nil, &out); err != nil {
				return upstreamFail(err)
			}
			return tools.Ok(map[string]any{
				"count":   len(out),
				"results": out,
			})

		case "radarr_add_movie":
			tmdbID, fail := numberArg(args, "tmdb_id")
			if fail != nil {
				return fail
			}
			qualityProfile := 1.0
			if n, ok := args["quality_profile_id"].(float64); ok {
				qualityProfile = n
			}
			body := map[string]any{
				"tmdbId":           int(tmdbID),
				"qualityProfileId": int(qualityProfile),
				"rootFolderPath":   optionalString(args, "root_folder_path", "/movies"),
				"monitored":        true,
				"addOptions":       map[string]any{"searchForMovie": true},
			}
			var out map[string]any
			if err := c.Do(ctx, http.MethodPost, "/api/v3/movie", nil, body, &out); err != nil {
				return upstreamFail(err)
			}
			return tools.Ok(out)

		case "radarr_get_queue":
			var out map[string]any
			if err := c.Do(ctx, http.MethodGet, "/api/v3/queue", nil, nil, &out); err != nil {
				return upstreamFail(err)
			}
			return tools.Ok(out)
		}
		return tools.Fail("unknown_tool", "unknown radarr tool: "+name)
	}

	return defs, handler
}
