package rss

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/feeds"
	"github.com/n0madic/unachat"
	"github.com/n0madic/unachat/message"
	"github.com/n0madic/unachat/utils"
	log "github.com/sirupsen/logrus"
)

const (
	maxTitleLength = 50
	defaultSize    = 20
)

// RSS endpoint keeps recent chat messages as a feed
type RSS struct {
	endpoint *unachat.Endpoint
	size     int
	mu       sync.RWMutex
	feed     *feeds.Feed
}

func init() {
	unachat.AddEndpoint("rss", New)
}

// New return RSS endpoint
func New(endpoint unachat.Endpoint) (unachat.EndpointInterface, error) {
	size := defaultSize
	if value := endpoint.Options["size"]; value != "" {
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("option size must be a positive number, got %q", value)
		}
		size = n
	}
	link := endpoint.Options["url"]
	if link == "" {
		link = "/"
	}
	rss := &RSS{
		endpoint: &endpoint,
		size:     size,
		feed: &feeds.Feed{
			Title:       endpoint.Name,
			Description: endpoint.Description,
			Link:        &feeds.Link{Href: link},
		},
	}
	return rss, nil
}

// Pattern of feed route
func (rss *RSS) Pattern() string {
	return "/rss/" + rss.endpoint.Name
}

// Deliver add chat message to RSS feed
func (rss *RSS) Deliver(event unachat.Event) {
	envelope, ok := event.Payload.(unachat.Envelope)
	if !ok {
		return
	}
	created, err := time.Parse(message.TimeLayout, envelope.Timestamp)
	if err != nil {
		created = time.Now().UTC()
	}
	title := utils.TruncateText(envelope.PlainText(), maxTitleLength)
	if title == "" {
		title = envelope.Name
	}

	rss.mu.Lock()
	defer rss.mu.Unlock()
	rss.feed.Items = append([]*feeds.Item{{
		Title:       title,
		Link:        &feeds.Link{Href: rss.feed.Link.Href},
		Description: envelope.Body,
		Author:      &feeds.Author{Name: envelope.Name},
		Created:     created,
	}}, rss.feed.Items...)
	if len(rss.feed.Items) > rss.size {
		rss.feed.Items = rss.feed.Items[:rss.size]
	}
	rss.feed.Updated = created
	log.WithFields(log.Fields{"endpoint": rss.endpoint.Name, "items": len(rss.feed.Items)}).Debug("Feed updated")
}

// Handler return RSS XML
func (rss *RSS) Handler(w http.ResponseWriter, r *http.Request) {
	rss.mu.RLock()
	defer rss.mu.RUnlock()
	if len(rss.feed.Items) > 0 {
		xml, err := rss.feed.ToRss()
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(err.Error()))
		} else {
			w.Header().Set("Content-Type", "application/xml")
			w.Write([]byte(xml))
		}
	} else {
		w.WriteHeader(http.StatusNoContent)
		w.Write([]byte("No messages yet"))
	}
}
