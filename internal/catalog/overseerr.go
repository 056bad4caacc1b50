package catalog

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sharkhunterr/mcparr-sub000/internal/capability"
	"github.com/sharkhunterr/mcparr-sub000/internal/tools"
)

// OverseerrOptions returns the client options for an Overseerr instance.
func OverseerrOptions() capability.Options {
	return capability.Options{
		APIKeyHeader: "X-Api-Key",
		StatusPath:   "/api/v1/status",
	}
}

// Overseerr builds the tool catalog for a media request manager.
func Overseerr(c *capability.Client) ([]tools.Definition, tools.Handler) {
	defs := []tools.Definition{
		{
			Name:        "overseerr_search_media",
			Description: "Search for movies and TV shows by title.",
			Category:    categoryDiscovery,
			Parameters: []tools.Parameter{
				{Name: "query", Type: tools.TypeString, Description: "Search term", Required: true},
				{Name: "page", Type: tools.TypeNumber, Description: "Result page, starting at 1", Default: 1},
			},
			RequiresCapability: c.Name(),
		},
		{
			Name:               "overseerr_get_trending",
			Description:        "List currently trending movies and TV shows.",
			Category:           categoryDiscovery,
			RequiresCapability: c.Name(),
		},
		{
			Name:        "overseerr_list_requests",
			Description: "List media requests, optionally filtered by status.",
			Category:    categoryDiscovery,
			Parameters: []tools.Parameter{
				{Name: "filter", Type: tools.TypeString, Description: "Request status filter",
					Enum: []string{"all", "pending", "approved", "available", "processing"}, Default: "all"},
			},
			RequiresCapability: c.Name(),
		},
		{
			Name:        "overseerr_create_request",
			Description: "Request a movie or TV show to be added to the library.",
			Category:    categoryManagement,
			IsMutation:  true,
			Parameters: []tools.Parameter{
				{Name: "media_type", Type: tools.TypeString, Description: "Kind of media",
					Enum: []string{"movie", "tv"}, Required: true},
				{Name: "media_id", Type: tools.TypeNumber, Description: "TMDB id of the media", Required: true},
			},
			RequiresCapability: c.Name(),
		},
		{
			Name:               "overseerr_service_info",
			Description:        "Report the Overseerr instance version and status.",
			Category:           categoryDiscovery,
			RequiresCapability: c.Name(),
		},
	}

	handler := func(ctx context.Context, name string, args map[string]any) *tools.Result {
		switch name {
		case "overseerr_search_media":
			query, fail := stringArg(args, "query")
			if fail != nil {
				return fail
			}
			q := url.Values{"query": {query}}
			if n, ok := args["page"].(float64); ok {
				q.Set("page", strconv.Itoa(int(n)))
			}
			var out map[string]any
			if err := c.Do(ctx, http.MethodGet, "/api/v1/search", q, nil, &out); err != nil {
				return upstreamFail(err)
			}
			results, _ := out["results"].([]any)
			return tools.Ok(map[string]any{
				"count":   len(results),
				"results": results,
			})

		case "overseerr_get_trending":
			var out map[string]any
			if err := c.Do(ctx, http.MethodGet, "/api/v1/discover/trending", nil, nil, &out); err != nil {
				return upstreamFail(err)
			}
			results, _ := out["results"].([]any)
			return tools.Ok(map[string]any{
				"count":   len(results),
				"results": results,
			})

		case "overseerr_list_requests":
			filter := optionalString(args, "filter", "all")
			var out map[string]any
			if err := c.Do(ctx, http.MethodGet, "/api/v1/request", url.Values{"filter": {filter}}, nil, &out); err != nil {
				return upstreamFail(err)
			}
			return tools.Ok(out)

		case "overseerr_create_request":
			mediaType, fail := stringArg(args, "media_type")
			if fail != nil {
				return fail
			}
			mediaID, fail := numberArg(args, "media_id")
			if fail != nil {
				return fail
			}
			body := map[string]any{
				"mediaType": mediaType,
				"mediaId":   int(mediaID),
			}
			var out map[string]any
			if err := c.Do(ctx, http.MethodPost, "/api/v1/request", nil, body, &out); err != nil {
				return upstreamFail(err)
			}
			return tools.Ok(out)

		case "overseerr_service_info":
			info, err := c.ServiceInfo(ctx)
			if err != nil {
				return upstreamFail(err)
			}
			return tools.Ok(info)
		}
		return tools.Fail("unknown_tool", "unknown overseerr tool: "+name)
	}

	return defs, handler
}
