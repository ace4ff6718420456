// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hbnb_api/internal/app"
	"hbnb_api/internal/domain"
)

const maxBodyBytes = 1 << 20

type Handlers struct {
	Q *app.QueryService
	C *app.CommandService
}

type errorBody struct {
	Error string `json:"error"`
}

// collections maps each kind to its URL segment.
var collections = map[domain.Kind]string{
	domain.KindState:   "states",
	domain.KindCity:    "cities",
	domain.KindPlace:   "places",
	domain.KindUser:    "users",
	domain.KindReview:  "reviews",
	domain.KindAmenity: "amenities",
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, r, http.StatusOK, map[string]string{"status": "OK"})
		})
		r.Get("/stats", h.stats)

		for _, k := range domain.Kinds {
			base := "/" + collections[k]
			r.Get(base, h.list(k))
			r.Get(base+"/{id}", h.get(k))
			r.Put(base+"/{id}", h.update(k))
			r.Delete(base+"/{id}", h.remove(k))
		}

		r.Post("/states", h.create(domain.KindState, ""))
		r.Post("/users", h.create(domain.KindUser, ""))
		r.Post("/amenities", h.create(domain.KindAmenity, ""))

		r.Get("/states/{id}/cities", h.children(domain.KindState, domain.KindCity))
		r.Post("/states/{id}/cities", h.create(domain.KindCity, "id"))
		r.Get("/cities/{id}/places", h.children(domain.KindCity, domain.KindPlace))
		r.Post("/cities/{id}/places", h.create(domain.KindPlace, "id"))
		r.Get("/places/{id}/reviews", h.children(domain.KindPlace, domain.KindReview))
		r.Post("/places/{id}/reviews", h.create(domain.KindReview, "id"))

		r.Get("/places/{id}/amenities", h.children(domain.KindPlace, domain.KindAmenity))
		r.Get("/users/{id}/places", h.children(domain.KindUser, domain.KindPlace))
		r.Get("/users/{id}/reviews", h.children(domain.KindUser, domain.KindReview))
		r.Get("/amenities/{id}/places", h.children(domain.KindAmenity, domain.KindPlace))
		r.Post("/places/{id}/amenities/{amenity_id}", h.linkAmenity)
		r.Delete("/places/{id}/amenities/{amenity_id}", h.unlinkAmenity)

		r.Post("/places_search", h.searchPlaces)
	})
}

/********** responses **********/

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorBody{Error: msg}); err != nil {
		log.Error().Err(err).Msg("write JSON error response failed")
	}
}

// writeError maps service errors onto status codes. Not-found has no body;
// anything unclassified, storage and context errors included, is a 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.As(err, &ve):
		writeJSONError(w, http.StatusBadRequest, ve.Message)
	case errors.Is(err, domain.ErrConflict):
		writeJSONError(w, http.StatusConflict, err.Error())
	default:
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		writeJSONError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeJSON renders v; 200 responses to GET carry an ETag and honour
// If-None-Match.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeJSONError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}
	if r.Method == http.MethodGet && status == http.StatusOK && etag != "" {
		if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
			w.Header().Set("ETag", etag) // include ETag on 304
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

// view is the wire form of an entity: its fields plus __class__, never the
// password digest.
func view(e domain.Entity) map[string]json.RawMessage {
	raw, err := json.Marshal(e)
	out := map[string]json.RawMessage{}
	if err != nil || json.Unmarshal(raw, &out) != nil {
		log.Error().Err(err).Str("kind", string(e.Kind())).Msg("render entity failed")
		return out
	}
	delete(out, "password")
	out["__class__"], _ = json.Marshal(e.Kind())
	return out
}

func views[T domain.Entity](es []T) []map[string]json.RawMessage {
	out := make([]map[string]json.RawMessage, 0, len(es))
	for _, e := range es {
		out = append(out, view(e))
	}
	return out
}

// readBody returns the raw request body, capped at maxBodyBytes.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, http.StatusText(http.StatusRequestEntityTooLarge))
			return nil, false
		}
		writeJSONError(w, http.StatusBadRequest, "Not a JSON")
		return nil, false
	}
	return body, true
}

/********** handlers **********/

func (h *Handlers) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.Q.Stats())
}

func (h *Handlers) list(k domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, views(h.Q.List(k)))
	}
}

func (h *Handlers) get(k domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := h.Q.Get(k, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, view(e))
	}
}

func (h *Handlers) children(parent, child domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		es, err := h.Q.Children(parent, chi.URLParam(r, "id"), child)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, views(es))
	}
}

// create handles both root collections and parent-scoped ones; parentParam
// names the URL parameter holding the parent id, if any.
func (h *Handlers) create(k domain.Kind, parentParam string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := readBody(w, r)
		if !ok {
			return
		}
		var parentID string
		if parentParam != "" {
			parentID = chi.URLParam(r, parentParam)
		}
		e, err := h.C.Create(r.Context(), k, parentID, body)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusCreated, view(e))
	}
}

func (h *Handlers) update(k domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := readBody(w, r)
		if !ok {
			return
		}
		e, err := h.C.Update(r.Context(), k, chi.URLParam(r, "id"), body)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, view(e))
	}
}

func (h *Handlers) remove(k domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.C.Delete(r.Context(), k, chi.URLParam(r, "id")); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, struct{}{})
	}
}

func (h *Handlers) linkAmenity(w http.ResponseWriter, r *http.Request) {
	a, created, err := h.C.LinkAmenity(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "amenity_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, r, status, view(a))
}

func (h *Handlers) unlinkAmenity(w http.ResponseWriter, r *http.Request) {
	if err := h.C.UnlinkAmenity(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "amenity_id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, struct{}{})
}

func (h *Handlers) searchPlaces(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	places, err := h.Q.SearchPlaces(body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, views(places))
}
