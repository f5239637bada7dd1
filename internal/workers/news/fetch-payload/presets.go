package fetchpayload

import (
	"fmt"
	"sort"
	"strings"
)

// Search endpoints.
const (
	EndpointAll    = "all"
	EndpointRecent = "recent"
)

// DefaultQuery is searched when neither a query nor a preset is given.
const DefaultQuery = "government"

// Preset is a named query with the endpoint and ordering it was tuned for.
type Preset struct {
	Name      string
	Endpoint  string
	Query     string
	SortOrder string
}

const newsOutlets = "(url:nytimes.com OR url:cnn.com OR url:bloomberg.com OR url:foxnews.com OR url:ndtv.com OR url:indiatimes.com OR url:channelnewsasia.com)"

var presets = map[string]Preset{
	"crime": {
		Endpoint: EndpointAll,
		Query:    "crime",
	},
	"politics": {
		Endpoint: EndpointAll,
		Query:    "politics",
	},
	"sports": {
		Endpoint:  EndpointRecent,
		SortOrder: "recency",
		Query:     "(cricket OR basketball OR football OR soccer OR baseball OR athletics) " + newsOutlets + " has:links lang:en min_likes:10 -is:retweet -is:reply",
	},
	"breaking": {
		Endpoint:  EndpointRecent,
		SortOrder: "recency",
		Query:     `(breaking OR "just in" OR announcement OR update OR "new report" OR "major development") ` + newsOutlets + " has:links lang:en min_likes:100 -is:retweet -is:reply",
	},
	"relevant": {
		Endpoint: EndpointRecent,
		Query:    "breaking min_likes:10000 min_reposts:1000 is:verified -has:hashtags lang:en -has:links",
	},
	"news": {
		Endpoint: EndpointRecent,
		Query:    "breaking min_likes:10 min_reposts:200 is:verified -has:hashtags lang:en -has:links",
	},
	"general": {
		Endpoint: EndpointRecent,
		Query: `("breaking" OR "update" OR "announcement" OR "new report" OR "published today" OR "leaked" OR "revealed" OR "new study" OR "launch" OR "rollout") ` +
			`("analysis" OR "deep dive" OR "context" OR "implications" OR "counterintuitive" OR "underappreciated" OR "the real reason" OR "if you zoom out" OR "why this matters") ` +
			"min_likes:100 min_reposts:100 is:verified -has:hashtags lang:en has:links",
	},
	"announcements": {
		Endpoint: EndpointRecent,
		Query:    "announcement min_likes:100 min_reposts:100 is:verified -has:hashtags lang:en has:links",
	},
}

// PresetNames lists the available presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve picks the search to run. A preset wins over a query; an ad-hoc
// query runs against the full archive.
func Resolve(query, preset string) (Preset, error) {
	if preset != "" {
		p, ok := presets[strings.ToLower(preset)]
		if !ok {
			return Preset{}, fmt.Errorf("unknown preset %q (available: %s)", preset, strings.Join(PresetNames(), ", "))
		}
		p.Name = strings.ToLower(preset)
		return p, nil
	}
	if strings.TrimSpace(query) == "" {
		query = DefaultQuery
	}
	return Preset{Endpoint: EndpointAll, Query: query}, nil
}
