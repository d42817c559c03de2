package api

import (
	"Go2FlowID/internal/config"
	"Go2FlowID/internal/engine/protocol"
	"Go2FlowID/internal/enricher"
	"Go2FlowID/internal/metrics"
	"Go2FlowID/internal/model"
	"Go2FlowID/pkg/communityid"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// maxBodySize caps request bodies at 1 MiB.
const maxBodySize = 1 << 20

// requestFields names the keys of a community-id request body.
var requestFields = config.FieldSet{
	SourceIP:        communityid.FieldSourceIP,
	SourcePort:      communityid.FieldSourcePort,
	DestinationIP:   communityid.FieldDestinationIP,
	DestinationPort: communityid.FieldDestinationPort,
	Protocol:        communityid.FieldProtocol,
}

// CommunityIDResponse is returned by POST /api/v1/community-id.
type CommunityIDResponse struct {
	CommunityID string `json:"community_id"`
}

// ErrorResponse is the body of every 4xx/5xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Field string `json:"field,omitempty"`
}

// APIHandler holds the dependencies for API handlers.
type APIHandler struct {
	cfg      *config.Config
	enricher *enricher.Enricher
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewAPIHandler creates the handler set. logger and m may be nil.
func NewAPIHandler(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) *APIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		cfg:      cfg,
		enricher: enricher.New(cfg.CommunityID, logger.Named("enricher"), m),
		metrics:  m,
		logger:   logger,
	}
}

// Router returns the HTTP routes of the service.
func (h *APIHandler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/community-id", h.communityIDHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/enrich", h.enrichHandler).Methods(http.MethodPost)
	r.HandleFunc("/healthz", h.healthHandler).Methods(http.MethodGet)
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics.Handler()).Methods(http.MethodGet)
	}
	return r
}

// MetricsRouter serves only GET /metrics, for services without the full API.
func MetricsRouter(m *metrics.Metrics) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	return r
}

// communityIDHandler computes the fingerprint of a single 5-tuple.
func (h *APIHandler) communityIDHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("failed to read request body: %w", err))
		return
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var req model.Record
	if err := dec.Decode(&req); err != nil || req == nil {
		writeError(w, http.StatusBadRequest, errors.New("failed to decode request: body must be a JSON object"))
		return
	}

	hasher := communityid.New(h.cfg.Seed())
	if raw, ok := req.Get("seed"); ok {
		seed, err := protocol.ParsePort("seed", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		hasher = communityid.New(seed)
	}

	tuple, err := protocol.ParseTuple(req, requestFields)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	id, err := hasher.HashTuple(tuple)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, CommunityIDResponse{CommunityID: id})
}

// enrichHandler runs one record through the enricher and returns it.
func (h *APIHandler) enrichHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("failed to read request body: %w", err))
		return
	}
	var pbRecord structpb.Struct
	if err := protojson.Unmarshal(body, &pbRecord); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("failed to decode request: %w", err))
		return
	}

	rec := model.Record(pbRecord.AsMap())
	res := h.enricher.Enrich(rec)
	if !res.OK() {
		h.logger.Debug("Record not enriched", zap.String("tag", res.Tag))
	}

	out, err := structpb.NewStruct(rec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to convert response: %w", err))
		return
	}
	jsonBytes, err := protojson.Marshal(out)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to marshal response: %w", err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(jsonBytes)
}

func (h *APIHandler) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := ErrorResponse{Error: err.Error()}
	if kind := communityid.KindOf(err); kind != communityid.KindUnknown {
		resp.Kind = kind.String()
		resp.Field = communityid.FieldOf(err)
	}
	writeJSON(w, status, resp)
}
