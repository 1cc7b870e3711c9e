package httpapi

import (
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (s *Server) MediaContent(w http.ResponseWriter, r *http.Request) {
	asset, body, err := s.Media.Open(r.Context(), CurrentCaller(r), chi.URLParam(r, "assetId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer body.Close()

	name := asset.ID
	if asset.Filename != nil && *asset.Filename != "" {
		name = *asset.Filename
	}
	w.Header().Set("Content-Type", asset.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(asset.SizeBytes, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": name}))
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		s.Log.Warn().Err(err).Str("asset_id", asset.ID).Msg("media copy interrupted")
	}
}
