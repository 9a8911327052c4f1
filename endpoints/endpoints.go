// Package endpoints registers every endpoint type.
package endpoints

import (
	// endpoint types register themselves on init
	_ "github.com/n0madic/unachat/endpoints/logger"
	_ "github.com/n0madic/unachat/endpoints/rss"
	_ "github.com/n0madic/unachat/endpoints/websocket"
)
