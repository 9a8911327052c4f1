package sanitize

// Whitelist enumerates everything the sanitizer lets through. Anything absent
// from it is removed.
type Whitelist struct {
	// Tags maps an allowed tag to the attributes it may carry.
	Tags map[string][]string
	// StripBody lists tags removed together with their content.
	StripBody []string
	// Styles is the allow-list of inline style properties.
	Styles []string
	// Schemes permitted in href and src values.
	Schemes []string
	// EmbedHosts an iframe src may point at.
	EmbedHosts []string
}

// Default whitelist for chat messages
var Default = Whitelist{
	Tags: map[string][]string{
		"a":      {"href", "target", "rel", "title", "style"},
		"b":      nil,
		"i":      nil,
		"u":      nil,
		"s":      nil,
		"em":     nil,
		"strong": nil,
		"del":    nil,
		"code":   nil,
		"pre":    nil,
		"br":     nil,
		"p":      {"style"},
		"span":   {"style"},
		"div":    {"class", "style"},
		"img":    {"src", "alt", "title", "width", "height"},
		"video":  {"src", "controls", "width", "height"},
		"source": {"src", "type"},
		"iframe": {"src", "width", "height", "frameborder", "allow", "allowfullscreen"},
	},
	StripBody: []string{"script", "style"},
	Styles: []string{
		"color",
		"background-color",
		"font-size",
		"font-style",
		"font-weight",
		"text-align",
		"text-decoration",
	},
	Schemes: []string{"http", "https"},
	EmbedHosts: []string{
		"www.youtube.com",
		"youtube.com",
		"www.youtube-nocookie.com",
		"youtube-nocookie.com",
	},
}

// Names whitelist for nicknames: inline formatting only, no media or links
var Names = Whitelist{
	Tags: map[string][]string{
		"b":      nil,
		"i":      nil,
		"u":      nil,
		"s":      nil,
		"em":     nil,
		"strong": nil,
		"del":    nil,
		"code":   nil,
		"span":   {"style"},
	},
	StripBody: Default.StripBody,
	Styles:    Default.Styles,
	Schemes:   Default.Schemes,
}
