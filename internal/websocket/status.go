package websocket

import (
	"io"
	"net/http"
)

const (
	statusCacheKey = "status"
	instanceHeader = "X-Questnet-Instance"
)

// handleStatus answers the status path with the status callback's text, or
// an empty 404 when no callback is installed.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	callback := s.statusCallback()
	if callback == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	body := s.statusText(callback)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if s.instanceID != "" {
		w.Header().Set(instanceHeader, s.instanceID)
	}
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, body)
}

func (s *Server) statusText(callback func() string) string {
	if s.statusCache == nil {
		return callback()
	}

	if cached, ok := s.statusCache.Get(statusCacheKey); ok {
		return cached.(string)
	}

	text := callback()
	s.statusCache.SetDefault(statusCacheKey, text)
	return text
}
