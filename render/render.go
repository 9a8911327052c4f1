// Package render builds the HTML fragment shown in place of a URL.
package render

import (
	"fmt"

	"github.com/n0madic/unachat/media"
	"github.com/n0madic/unachat/sanitize"
)

// EmbedURL is the privacy-enhanced YouTube embed endpoint
const EmbedURL = "https://www.youtube-nocookie.com/embed/"

const (
	embedWidth  = 560
	embedHeight = 315
	embedAllow  = "accelerometer; encrypted-media; gyroscope; picture-in-picture"

	linkAttrs = `target="_blank" rel="noopener noreferrer"`

	// imageFallback turns a broken image into the plain link next to it.
	imageFallback = `var a=this.nextElementSibling;if(a){a.textContent=a.href;}this.remove();`
)

// Render the fragment for rawURL classified as m
func Render(m media.Media, rawURL string) string {
	switch m.Kind {
	case media.YouTube:
		return YouTube(m.VideoID, rawURL)
	case media.Image:
		return Image(rawURL)
	case media.Video:
		return Video(rawURL, m.MimeType)
	case media.UnsafeProtocol:
		return sanitize.Escape(rawURL)
	}
	return Link(rawURL)
}

// YouTube embed for id. An id of the wrong shape falls back to a link to rawURL.
func YouTube(id, rawURL string) string {
	if !media.ValidVideoID(id) {
		return Link(rawURL)
	}
	return fmt.Sprintf(`<div class="media-container">`+
		`<iframe width="%d" height="%d" src="%s" frameborder="0" allow="%s" allowfullscreen></iframe>`+
		`</div>`,
		embedWidth, embedHeight, sanitize.Escape(EmbedURL+id), sanitize.Escape(embedAllow))
}

// Image with a fallback link
func Image(rawURL string) string {
	if !linkable(rawURL) {
		return sanitize.Escape(rawURL)
	}
	safeURL := sanitize.Escape(rawURL)
	return fmt.Sprintf(`<div class="media-container">`+
		`<img src="%s" alt="Imagen compartida" onerror="%s">`+
		`<a href="%s" %s style="font-size: 11px; color: #7f8c8d;">Ver imagen</a>`+
		`</div>`,
		safeURL, sanitize.Escape(imageFallback), safeURL, linkAttrs)
}

// Video player with a link to the original file
func Video(rawURL, mimeType string) string {
	if mimeType == "" {
		mimeType = media.DefaultVideoMimeType
	}
	if !linkable(rawURL) {
		return sanitize.Escape(rawURL)
	}
	safeURL := sanitize.Escape(rawURL)
	return fmt.Sprintf(`<div class="media-container">`+
		`<video width="100%%" controls><source src="%s" type="%s">Tu navegador no soporta la reproducción de video.</video>`+
		`<a href="%s" %s style="font-size: 11px; color: #7f8c8d;">Ver video original</a>`+
		`</div>`,
		safeURL, sanitize.Escape(mimeType), safeURL, linkAttrs)
}

// Link opening rawURL in a new tab
func Link(rawURL string) string {
	if !linkable(rawURL) {
		return sanitize.Escape(rawURL)
	}
	safeURL := sanitize.Escape(rawURL)
	return fmt.Sprintf(`<a href="%s" %s>%s</a>`, safeURL, linkAttrs, safeURL)
}

// linkable reports whether rawURL may be placed in href or src.
func linkable(rawURL string) bool {
	return media.Classify(rawURL).Kind != media.UnsafeProtocol
}
