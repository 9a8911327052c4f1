// Package media decides how a URL found in a chat message is rendered.
package media

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

// Kind of content behind a URL
type Kind int

// Media kinds
const (
	GenericLink Kind = iota
	YouTube
	Image
	Video
	UnsafeProtocol
)

func (k Kind) String() string {
	switch k {
	case YouTube:
		return "youtube"
	case Image:
		return "image"
	case Video:
		return "video"
	case UnsafeProtocol:
		return "unsafe"
	}
	return "link"
}

// Media is the classification of a URL
type Media struct {
	Kind Kind
	// VideoID is set for YouTube.
	VideoID string
	// MimeType is set for Video.
	MimeType string
}

type rule func(u *url.URL) (Media, bool)

// rules are evaluated in order, the first match wins.
var rules = []rule{
	unsafeProtocol,
	youtube,
	image,
	video,
}

var (
	imageExts = map[string]bool{"jpg": true, "jpeg": true, "png": true, "gif": true, "bmp": true}
	videoExts = map[string]bool{
		"mp4": true, "webm": true, "ogg": true, "mov": true,
		"avi": true, "wmv": true, "flv": true, "mkv": true,
	}
	videoMimeTypes = map[string]string{
		"mp4":  "video/mp4",
		"webm": "video/webm",
		"ogg":  "video/ogg",
	}
)

// DefaultVideoMimeType is announced for video extensions without a mapping.
const DefaultVideoMimeType = "video/mp4"

var (
	videoIDRe       = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	youtubeHosts    = map[string]bool{"youtube.com": true, "www.youtube.com": true, "m.youtube.com": true}
	youtubeShorts   = map[string]bool{"youtu.be": true, "www.youtu.be": true}
	youtubePrefixes = []string{"/embed/", "/v/"}
)

// Classify rawURL. Unparsable URLs are UnsafeProtocol.
func Classify(rawURL string) Media {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return Media{Kind: UnsafeProtocol}
	}
	for _, match := range rules {
		if m, ok := match(u); ok {
			return m
		}
	}
	return Media{Kind: GenericLink}
}

// YouTubeID extracts the video id of a YouTube URL
func YouTubeID(rawURL string) (string, bool) {
	m := Classify(rawURL)
	return m.VideoID, m.Kind == YouTube
}

// ValidVideoID reports whether id has the shape of a YouTube video id
func ValidVideoID(id string) bool {
	return videoIDRe.MatchString(id)
}

// VideoMimeType for a video file extension
func VideoMimeType(ext string) string {
	if mime, ok := videoMimeTypes[strings.ToLower(ext)]; ok {
		return mime
	}
	return DefaultVideoMimeType
}

func unsafeProtocol(u *url.URL) (Media, bool) {
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if u.Host != "" {
			return Media{}, false
		}
	}
	return Media{Kind: UnsafeProtocol}, true
}

func youtube(u *url.URL) (Media, bool) {
	host := strings.ToLower(u.Hostname())
	var id string
	switch {
	case youtubeShorts[host]:
		id = strings.TrimPrefix(u.Path, "/")
	case youtubeHosts[host]:
		if u.Path == "/watch" {
			id = u.Query().Get("v")
			break
		}
		for _, prefix := range youtubePrefixes {
			if strings.HasPrefix(u.Path, prefix) {
				id = strings.TrimPrefix(u.Path, prefix)
				break
			}
		}
	default:
		return Media{}, false
	}
	if !ValidVideoID(id) {
		return Media{}, false
	}
	return Media{Kind: YouTube, VideoID: id}, true
}

func image(u *url.URL) (Media, bool) {
	if imageExts[extension(u)] {
		return Media{Kind: Image}, true
	}
	return Media{}, false
}

func video(u *url.URL) (Media, bool) {
	ext := extension(u)
	if videoExts[ext] {
		return Media{Kind: Video, MimeType: VideoMimeType(ext)}, true
	}
	return Media{}, false
}

// extension of the URL path, lower case and without the dot. The query
// string and fragment are not part of u.Path.
func extension(u *url.URL) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(u.Path), "."))
}
