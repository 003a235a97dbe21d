package dashboard

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// MonthStats is the per-month view returned by /api/stats.
type MonthStats struct {
	Month          int    `json:"month"`
	Name           string `json:"name"`
	Images         int    `json:"images"`
	Captions       int    `json:"captions"`
	PostsUsed      int    `json:"posts_used"`
	PostsAvailable int    `json:"posts_available"`
	Posted         bool   `json:"posted"`
	LastPost       string `json:"last_post,omitempty"`
}

// StatsResponse is the envelope returned by /api/stats.
type StatsResponse struct {
	Months      []MonthStats `json:"months"`
	LastPost    string       `json:"last_post,omitempty"`
	GeneratedAt string       `json:"generated_at"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	months, err := s.lib.Scan()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// An optional ?month=N narrows the response to a single month folder.
	if raw := r.URL.Query().Get("month"); raw != "" {
		wanted, err := strconv.Atoi(raw)
		if err != nil || wanted < 1 || wanted > 12 {
			s.writeError(w, http.StatusBadRequest, "month must be between 1 and 12")
			return
		}
		filtered := months[:0]
		for _, month := range months {
			if month.Number == wanted {
				filtered = append(filtered, month)
			}
		}
		if len(filtered) == 0 {
			s.writeError(w, http.StatusNotFound, fmt.Sprintf("no content folder for month %d", wanted))
			return
		}
		months = filtered
	}

	resp := StatsResponse{
		Months:      make([]MonthStats, 0, len(months)),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}

	for _, month := range months {
		stats := MonthStats{Month: month.Number, Name: month.Name()}

		if images, err := month.ImageFiles(); err == nil {
			stats.Images = len(images)
		}
		if captions, err := month.CaptionFiles(); err == nil {
			stats.Captions = len(captions)
		}
		stats.Posted = month.Posted()
		if stats.Posted {
			stats.PostsUsed = 1
			if at, err := month.ReadMarker(); err == nil {
				stats.LastPost = at.UTC().Format(time.RFC3339)
			}
		}
		if s.ledger != nil {
			if count, err := s.ledger.CountForMonth(r.Context(), month.Number); err == nil && count > 0 {
				stats.PostsUsed = count
			}
			if last, err := s.ledger.LastPostForMonth(r.Context(), month.Number); err == nil && last != nil {
				stats.LastPost = last.PostedAt.UTC().Format(time.RFC3339)
			}
		}
		if !stats.Posted && stats.Captions > 0 {
			stats.PostsAvailable = stats.Images
		}

		resp.Months = append(resp.Months, stats)
	}

	if s.ledger != nil {
		if last, err := s.ledger.LastPost(r.Context()); err == nil && last != nil {
			resp.LastPost = last.PostedAt.UTC().Format(time.RFC3339)
		}
	}

	s.writeJSON(w, http.StatusOK, resp)
}
