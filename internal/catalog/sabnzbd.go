package catalog

import (
	"context"
	"net/http"
	"net/url"

	"github.com/sharkhunterr/mcparr-sub000/internal/capability"
	"github.com/sharkhunterr/mcparr-sub000/internal/tools"
)

// SABnzbdOptions returns the client options for a SABnzbd instance.
// SABnzbd takes its key as a query parameter rather than a header.
func SABnzbdOptions() capability.Options {
	return capability.Options{
		APIKeyQuery: "apikey",
		StatusPath:  "/api",
	}
}

// SABnzbd builds the tool catalog for a usenet download manager.
func SABnzbd(c *capability.Client) ([]tools.Definition, tools.Handler) {
	defs := []tools.Definition{
		{
			Name:               "sabnzbd_get_queue",
			Description:        "List the current download queue with progress and speed.",
			Category:           categoryDownloads,
			RequiresCapability: c.Name(),
		},
		{
			Name:               "sabnzbd_pause_queue",
			Description:        "Pause all downloads.",
			Category:           categoryDownloads,
			IsMutation:         true,
			RequiresCapability: c.Name(),
		},
		{
			Name:               "sabnzbd_resume_queue",
			Description:        "Resume all downloads.",
			Category:           categoryDownloads,
			IsMutation:         true,
			RequiresCapability: c.Name(),
		},
	}

	mode := func(ctx context.Context, m string) *tools.Result {
		q := url.Values{"mode": {m}, "output": {"json"}}
		var out map[string]any
		if err := c.Do(ctx, http.MethodGet, "/api", q, nil, &out); err != nil {
			return upstreamFail(err)
		}
		return tools.Ok(out)
	}

	handler := func(ctx context.Context, name string, args map[string]any) *tools.Result {
		switch name {
		case "sabnzbd_get_queue":
			return mode(ctx, "queue")
		case "sabnzbd_pause_queue":
			return mode(ctx, "pause")
		case "sabnzbd_resume_queue":
			return mode(ctx, "resume")
		}
		return tools.Fail("unknown_tool", "unknown sabnzbd tool: "+name)
	}

	return defs, handler
}
