package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/couchcryptid/site-cluster-map/internal/domain"
	"github.com/couchcryptid/site-cluster-map/internal/icon"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// maxClusterRequest bounds the body of a cluster-icon request.
const maxClusterRequest = 1 << 20

type layerHandler func(w http.ResponseWriter, r *http.Request, layer *icon.Layer)

// withLayer answers 503 until a dataset has been loaded. The layer is read
// once per request so a concurrent reload never mixes two datasets.
func (s *Server) withLayer(h layerHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		layer := s.layers.Current()
		if layer == nil {
			writeError(w, http.StatusServiceUnavailable, "dataset not loaded")
			return
		}
		h(w, r, layer)
	}
}

func (s *Server) handleFeatures(w http.ResponseWriter, _ *http.Request, layer *icon.Layer) {
	fc := domain.ToGeoJSON(layer.Dataset().Collection, layer.Decorate)
	data, err := fc.MarshalJSON()
	if err != nil {
		s.logger.Error("encode features failed", "error", err)
		writeError(w, http.StatusInternalServerError, "encode features")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type categoryResponse struct {
	Index     int    `json:"index"`
	Value     string `json:"value"`
	ClassName string `json:"className"`
}

type categoriesResponse struct {
	Field      domain.CategoryField `json:"field"`
	Version    uint64               `json:"version"`
	Categories []categoryResponse   `json:"categories"`
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request, layer *icon.Layer) {
	known := layer.Dataset().Known
	resp := categoriesResponse{
		Field:      known.Field(),
		Version:    known.Version(),
		Categories: make([]categoryResponse, 0, known.Len()),
	}
	for i, v := range known.Values() {
		resp.Categories = append(resp.Categories, categoryResponse{
			Index:     i,
			Value:     v,
			ClassName: icon.CategoryClass(i),
		})
	}
	sharedobs.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClusterOptions(w http.ResponseWriter, _ *http.Request, layer *icon.Layer) {
	sharedobs.WriteJSON(w, http.StatusOK, layer.ClusterOptions())
}

type boundsResponse struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

func (s *Server) handleBounds(w http.ResponseWriter, _ *http.Request, layer *icon.Layer) {
	rect := layer.Dataset().Collection.Bounds()
	if rect.IsEmpty() {
		writeError(w, http.StatusNotFound, "dataset has no features")
		return
	}
	lo, hi := rect.Lo(), rect.Hi()
	sharedobs.WriteJSON(w, http.StatusOK, boundsResponse{
		South: lo.Lat.Degrees(),
		West:  lo.Lng.Degrees(),
		North: hi.Lat.Degrees(),
		East:  hi.Lng.Degrees(),
	})
}

func (s *Server) handleMarker(w http.ResponseWriter, r *http.Request, layer *icon.Layer) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "feature id must be an integer")
		return
	}
	marker, err := layer.PointToLayer(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.metrics.IconsRendered.WithLabelValues("marker").Inc()
	sharedobs.WriteJSON(w, http.StatusOK, marker)
}

type clusterIconRequest struct {
	Members []int `json:"members"`
}

type clusterIconResponse struct {
	icon.IconDescriptor
	IconSize [2]int `json:"iconSize"`
	Unknown  []int  `json:"unknown,omitempty"`
}

// handleClusterIcon renders the pie for the member IDs the host's clusterer
// grouped. With ?format=svg the bare markup is returned instead of JSON.
func (s *Server) handleClusterIcon(w http.ResponseWriter, r *http.Request, layer *icon.Layer) {
	var req clusterIconRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxClusterRequest))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid cluster request: "+err.Error())
		return
	}

	desc, unknown := layer.IconCreate(req.Members)
	s.metrics.IconsRendered.WithLabelValues("cluster").Inc()
	s.metrics.ClusterMembers.Observe(float64(desc.Count))
	if len(unknown) > 0 {
		s.metrics.UnknownMembers.Add(float64(len(unknown)))
		s.logger.Warn("cluster request referenced unknown features",
			"unknown", len(unknown),
			"version", layer.Dataset().Version,
		)
	}

	if r.URL.Query().Get("format") == "svg" {
		w.Header().Set("Content-Type", "image/svg+xml")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, desc.HTML)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, clusterIconResponse{
		IconDescriptor: desc,
		IconSize:       desc.IconSize(),
		Unknown:        unknown,
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
