package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/kapu/sevenlist-go/internal/constants"
	"github.com/kapu/sevenlist-go/internal/domain"
	"github.com/kapu/sevenlist-go/internal/service/persona"
	"github.com/kapu/sevenlist-go/internal/util"
	"go.uber.org/zap"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	category, err := domain.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown category")
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if n := util.RuneLen(query); n < constants.SearchLimits.MinQueryRunes || n > constants.SearchLimits.MaxQueryRunes {
		writeError(w, http.StatusBadRequest, "query must be between 2 and 200 characters")
		return
	}

	results := s.deps.Search.Search(r.Context(), query, category)
	if results == nil {
		results = []domain.SearchResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

type analyzeRequest struct {
	Shelf *struct {
		Movies []*string `json:"movies"`
		Books  []*string `json:"books"`
		Music  []*string `json:"music"`
	} `json:"shelf"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if s.deps.Persona == nil || !s.deps.Persona.Configured() {
		s.logger.Error("Analyze requested without a text provider")
		writeError(w, http.StatusInternalServerError, "server configuration error")
		return
	}

	var req analyzeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Shelf == nil {
		writeError(w, http.StatusBadRequest, "missing shelf data")
		return
	}

	var titles domain.ShelfTitles
	for _, field := range []struct {
		name string
		in   []*string
		out  *[]string
	}{
		{"movies", req.Shelf.Movies, &titles.Movies},
		{"books", req.Shelf.Books, &titles.Books},
		{"music", req.Shelf.Music, &titles.Music},
	} {
		clean, msg := sanitizeEntries(field.in)
		if msg != "" {
			writeError(w, http.StatusBadRequest, field.name+": "+msg)
			return
		}
		*field.out = clean
	}

	res := s.deps.Persona.GenerateFromTitles(r.Context(), titles)
	switch res.Status {
	case persona.StatusUnconfigured:
		writeError(w, http.StatusInternalServerError, "server configuration error")
	case persona.StatusUnavailable:
		writeError(w, http.StatusBadGateway, "failed to generate persona")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"text": res.Text})
	}
}

// sanitizeEntries enforces the per-category shape of analyze input.
func sanitizeEntries(entries []*string) ([]string, string) {
	if len(entries) > domain.ShelfSize {
		return nil, "too many entries"
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e == nil {
			continue
		}
		if util.RuneLen(*e) > constants.ShelfLimits.MaxEntryRunes {
			return nil, "entry too long"
		}
		if v := strings.TrimSpace(util.StripAngleBrackets(*e)); v != "" {
			out = append(out, v)
		}
	}
	return out, ""
}

type profileResponse struct {
	Profile *domain.UserProfile `json:"profile"`
	Shelf   *domain.Shelf       `json:"shelf"`
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	if s.deps.Profiles == nil || s.deps.Shelves == nil {
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}

	profile, err := s.deps.Profiles.FindByHandle(r.Context(), chi.URLParam(r, "handle"))
	if err != nil {
		s.writeServiceError(w, r, "profile.find", err)
		return
	}
	if profile == nil {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}

	shelf, err := s.deps.Shelves.Get(r.Context(), profile.ID)
	if err != nil {
		s.writeServiceError(w, r, "shelf.get", err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{Profile: profile, Shelf: shelf})
}

func (s *Server) handleExplore(w http.ResponseWriter, r *http.Request) {
	if s.deps.Profiles == nil {
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}

	q := r.URL.Query()
	filter := domain.ExploreFilter{
		Query:   util.ClipRunes(strings.TrimSpace(q.Get("q")), constants.SearchLimits.MaxQueryRunes),
		Country: strings.TrimSpace(q.Get("country")),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}

	profiles, err := s.deps.Profiles.Explore(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, r, "profile.explore", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profiles": profiles})
}

func (s *Server) handleRankings(w http.ResponseWriter, r *http.Request) {
	if s.deps.Rankings == nil {
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}

	q := r.URL.Query()
	category := domain.CategoryMovies
	if v := q.Get("category"); v != "" {
		c, err := domain.ParseCategory(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unknown category")
			return
		}
		category = c
	}

	rankings, err := s.deps.Rankings.Top(r.Context(), category, q.Get("country"), 0)
	if err != nil {
		s.writeServiceError(w, r, "rankings.top", err)
		return
	}
	countries, err := s.deps.Rankings.Countries(r.Context())
	if err != nil {
		s.logger.Warn("Failed to list ranking countries", zap.Error(err))
		countries = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"rankings": rankings, "countries": countries})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	if s.deps.Profiles == nil {
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	userID, _ := UserIDFromContext(r.Context())

	var upd domain.ProfileUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		s.writeServiceError(w, r, "profile.update", err)
		return
	}
	if msg := validateProfileUpdate(upd); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	profile, err := s.deps.Profiles.Update(r.Context(), userID, upd)
	if err != nil {
		s.writeServiceError(w, r, "profile.update", err)
		return
	}
	if upd.Country != nil {
		s.invalidateRankings(r)
	}
	writeJSON(w, http.StatusOK, map[string]any{"profile": profile})
}

func validateProfileUpdate(upd domain.ProfileUpdate) string {
	if upd.Handle != nil {
		h := domain.NormalizeHandle(*upd.Handle)
		if !domain.ValidHandle(h) {
			return "invalid username"
		}
	}
	for _, f := range []*string{upd.DisplayName, upd.Bio, upd.AvatarURL, upd.InstagramURL, upd.SpotifyURL} {
		if f != nil && util.RuneLen(*f) > constants.ShelfLimits.MaxEntryRunes {
			return "field too long"
		}
	}
	if upd.Country != nil {
		if c := strings.TrimSpace(*upd.Country); c != "" && util.RuneLen(c) != 2 {
			return "country must be a two-letter code"
		}
	}
	return ""
}

func (s *Server) shelfSlot(w http.ResponseWriter, r *http.Request) (domain.Category, int, bool) {
	category, err := domain.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown category")
		return "", 0, false
	}
	slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
	if err != nil || slot < 0 || slot >= domain.ShelfSize {
		writeError(w, http.StatusBadRequest, "slot must be between 0 and 6")
		return "", 0, false
	}
	return category, slot, true
}

func (s *Server) handlePutShelfItem(w http.ResponseWriter, r *http.Request) {
	if s.deps.Shelves == nil {
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	category, slot, ok := s.shelfSlot(w, r)
	if !ok {
		return
	}
	userID, _ := UserIDFromContext(r.Context())

	var result domain.SearchResult
	if err := decodeJSON(w, r, &result); err != nil {
		s.writeServiceError(w, r, "shelf.put", err)
		return
	}
	result.Title = strings.TrimSpace(util.StripAngleBrackets(result.Title))
	result.Subtitle = strings.TrimSpace(util.StripAngleBrackets(result.Subtitle))
	if result.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if util.RuneLen(result.Title) > constants.ShelfLimits.MaxEntryRunes ||
		util.RuneLen(result.Subtitle) > constants.ShelfLimits.MaxEntryRunes {
		writeError(w, http.StatusBadRequest, "field too long")
		return
	}

	shelf, err := s.deps.Shelves.Get(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, r, "shelf.get", err)
		return
	}
	item := domain.NewItem(result, category, s.deps.Links)
	if err := shelf.Set(category, slot, item); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.deps.Shelves.Save(r.Context(), userID, shelf); err != nil {
		s.writeServiceError(w, r, "shelf.save", err)
		return
	}
	s.invalidateRankings(r)
	writeJSON(w, http.StatusOK, map[string]any{"item": item, "shelf": shelf})
}

func (s *Server) handleDeleteShelfItem(w http.ResponseWriter, r *http.Request) {
	if s.deps.Shelves == nil {
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	category, slot, ok := s.shelfSlot(w, r)
	if !ok {
		return
	}
	userID, _ := UserIDFromContext(r.Context())

	shelf, err := s.deps.Shelves.Get(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, r, "shelf.get", err)
		return
	}
	if err := shelf.Clear(category, slot); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.deps.Shelves.Save(r.Context(), userID, shelf); err != nil {
		s.writeServiceError(w, r, "shelf.save", err)
		return
	}
	s.invalidateRankings(r)
	writeJSON(w, http.StatusOK, map[string]any{"shelf": shelf})
}

func (s *Server) invalidateRankings(r *http.Request) {
	if s.deps.Rankings != nil {
		s.deps.Rankings.Invalidate(r.Context())
	}
}
