package chi

import (
	"time"

	dombatch "github.com/whokrish/vectorbeats/internal/domain/batch"
	domcol "github.com/whokrish/vectorbeats/internal/domain/collection"
	"github.com/whokrish/vectorbeats/internal/domain/metadata"
	dompoint "github.com/whokrish/vectorbeats/internal/domain/point"
	"github.com/whokrish/vectorbeats/internal/domain/search/modality"
	"github.com/whokrish/vectorbeats/internal/domain/search/result"
	collectionuc "github.com/whokrish/vectorbeats/internal/usecase/collection"
	vectoruc "github.com/whokrish/vectorbeats/internal/usecase/vector"
)

// Error codes returned in ErrorResponse.Code.
const (
	codeBadRequest         = "bad_request"
	codeUnauthorized       = "unauthorized"
	codeUnknownCollection  = "unknown_collection"
	codeNotFound           = "not_found"
	codeSchemaConflict     = "schema_conflict"
	codeDimensionMismatch  = "dimension_mismatch"
	codeInvalidFilter      = "invalid_filter"
	codeInvalidRequest     = "invalid_request"
	codeUpstreamInput      = "upstream_input"
	codeBackendUnavailable = "backend_unavailable"
	codeNotImplemented     = "not_implemented"
	codeInternal           = "internal_error"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --- Requests ---

// PointRequest is the body of POST /collections/{collection}/points.
type PointRequest struct {
	ID       string            `json:"id,omitempty"`
	Vector   []float32         `json:"vector"`
	Metadata metadata.Metadata `json:"metadata,omitempty"`
}

// BatchRequest is the body of POST /collections/{collection}/points/batch.
type BatchRequest struct {
	Points []PointRequest `json:"points"`
}

// MultimodalRequest is the body of POST /multimodal.
type MultimodalRequest struct {
	ID          string            `json:"id,omitempty"`
	ImageVector []float32         `json:"image_vector"`
	AudioVector []float32         `json:"audio_vector"`
	Metadata    metadata.Metadata `json:"metadata,omitempty"`
}

// FilterRequest carries an optional filter (count, delete by filter).
type FilterRequest struct {
	Filter metadata.Metadata `json:"filter,omitempty"`
}

// SearchRequest is the body of POST /collections/{collection}/search.
type SearchRequest struct {
	Vector     []float32         `json:"vector"`
	Limit      int               `json:"limit,omitempty"`
	Threshold  *float64          `json:"threshold,omitempty"`
	Filter     metadata.Metadata `json:"filter,omitempty"`
	WithVector bool              `json:"with_vector,omitempty"`
}

// HybridRequest is the body of POST /hybrid-search.
type HybridRequest struct {
	ImageVector []float32          `json:"image_vector,omitempty"`
	AudioVector []float32          `json:"audio_vector,omitempty"`
	Text        string             `json:"text,omitempty"`
	Weights     map[string]float64 `json:"weights,omitempty"`
	Limit       int                `json:"limit,omitempty"`
	Filter      metadata.Metadata  `json:"filter,omitempty"`
}

// --- Responses ---

// IDResponse acknowledges a stored point.
type IDResponse struct {
	ID string `json:"id"`
}

// PointResponse is one stored point.
type PointResponse struct {
	ID       string            `json:"id"`
	Vector   []float32         `json:"vector,omitempty"`
	Metadata metadata.Metadata `json:"metadata"`
}

// BatchItemResponse is the outcome of one batch item.
type BatchItemResponse struct {
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Status string `json:"status"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// BatchResponse lists per-item outcomes in submission order.
type BatchResponse struct {
	Accepted int                 `json:"accepted"`
	Rejected int                 `json:"rejected"`
	Results  []BatchItemResponse `json:"results"`
}

// CountResponse is the body of count replies.
type CountResponse struct {
	Count int `json:"count"`
}

// DeletedResponse is the body of delete-by-filter replies.
type DeletedResponse struct {
	Deleted int `json:"deleted"`
}

// CandidateResponse is one similarity search hit.
type CandidateResponse struct {
	ID         string            `json:"id"`
	Score      float64           `json:"score"`
	Collection string            `json:"collection"`
	Metadata   metadata.Metadata `json:"metadata"`
	Vector     []float32         `json:"vector,omitempty"`
}

// SearchResponse wraps similarity search hits.
type SearchResponse struct {
	Results []CandidateResponse `json:"results"`
}

// FusedResponse is one fused ranking entry.
type FusedResponse struct {
	ID               string             `json:"id"`
	Score            float64            `json:"score"`
	IndividualScores map[string]float64 `json:"individual_scores"`
	SearchTypes      []string           `json:"search_types"`
	Metadata         metadata.Metadata  `json:"metadata"`
}

// HybridResponse wraps the fused ranking.
type HybridResponse struct {
	Results []FusedResponse `json:"results"`
}

// CollectionResponse describes one collection.
type CollectionResponse struct {
	Name           string   `json:"name"`
	Dimension      int      `json:"dimension,omitempty"`
	Metric         string   `json:"metric,omitempty"`
	PointsCount    int      `json:"points_count"`
	IndexedVectors int      `json:"indexed_vectors"`
	Status         string   `json:"status"`
	PayloadIndexes []string `json:"payload_indexes,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// CollectionsResponse lists configured collections.
type CollectionsResponse struct {
	Collections []CollectionResponse `json:"collections"`
}

// SnapshotResponse describes a created snapshot.
type SnapshotResponse struct {
	Collection string    `json:"collection"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at,omitzero"`
	Size       int64     `json:"size"`
}

// RolesResponse names the collection behind each modality.
type RolesResponse struct {
	Catalog string `json:"catalog"`
	Image   string `json:"image"`
	Audio   string `json:"audio"`
	Joint   string `json:"joint"`
}

// ServiceInfoResponse is the body of GET /service-info.
type ServiceInfoResponse struct {
	Version     string               `json:"version"`
	Backend     string               `json:"backend"`
	Address     string               `json:"address"`
	Connected   bool                 `json:"connected"`
	DBVersion   string               `json:"db_version,omitempty"`
	Collections []CollectionResponse `json:"collections"`
	Roles       RolesResponse        `json:"roles"`
	Features    []string             `json:"features"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// --- Converters ---

func pointToResponse(p dompoint.Point) PointResponse {
	meta := p.Metadata()
	if meta == nil {
		meta = metadata.Metadata{}
	}
	return PointResponse{ID: p.ID(), Vector: p.Vector(), Metadata: meta}
}

func candidateToResponse(c *result.Candidate) CandidateResponse {
	meta := c.Metadata()
	if meta == nil {
		meta = metadata.Metadata{}
	}
	return CandidateResponse{
		ID:         c.ID(),
		Score:      c.Score(),
		Collection: c.Collection(),
		Metadata:   meta,
		Vector:     c.Vector(),
	}
}

func fusedToResponse(f *result.Fused) FusedResponse {
	individual := make(map[string]float64, len(f.IndividualScores()))
	for m, s := range f.IndividualScores() {
		individual[string(m)] = s
	}
	types := make([]string, len(f.SearchTypes()))
	for i, m := range f.SearchTypes() {
		types[i] = string(m)
	}
	meta := f.Metadata()
	if meta == nil {
		meta = metadata.Metadata{}
	}
	return FusedResponse{
		ID:               f.ID(),
		Score:            f.Score(),
		IndividualScores: individual,
		SearchTypes:      types,
		Metadata:         meta,
	}
}

func infoToResponse(name string, info domcol.Info) CollectionResponse {
	return CollectionResponse{
		Name:           name,
		Dimension:      info.Schema.Dimension(),
		Metric:         string(info.Schema.Metric()),
		PointsCount:    info.PointsCount,
		IndexedVectors: info.IndexedVectors,
		Status:         string(info.Status),
		PayloadIndexes: info.PayloadIndexes,
	}
}

func descriptionToResponse(d collectionuc.Description) CollectionResponse {
	if d.Err != nil {
		return CollectionResponse{
			Name:   d.Name,
			Status: string(domcol.StatusUnknown),
			Error:  safeDomainMessage(d.Err),
		}
	}
	return infoToResponse(d.Name, d.Info)
}

func batchToResponse(results []dombatch.Result) BatchResponse {
	resp := BatchResponse{Results: make([]BatchItemResponse, len(results))}
	for i, r := range results {
		item := BatchItemResponse{Index: r.Index(), ID: r.ID(), Status: string(r.Status())}
		if r.OK() {
			resp.Accepted++
		} else {
			resp.Rejected++
			item.Error = &struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			}{Code: errorCode(r.Err()), Message: clientMessage(r.Err())}
		}
		resp.Results[i] = item
	}
	return resp
}

func serviceInfoToResponse(info vectoruc.ServiceInfo, version string) ServiceInfoResponse {
	cols := make([]CollectionResponse, len(info.Collections))
	for i, d := range info.Collections {
		cols[i] = descriptionToResponse(d)
	}
	return ServiceInfoResponse{
		Version:     version,
		Backend:     info.Backend.Kind,
		Address:     info.Backend.Address,
		Connected:   info.Connected,
		DBVersion:   info.Version,
		Collections: cols,
		Roles: RolesResponse{
			Catalog: info.Roles.Catalog,
			Image:   info.Roles.Image,
			Audio:   info.Roles.Audio,
			Joint:   info.Roles.Joint,
		},
		Features: info.Features,
	}
}

func weightsFromRequest(raw map[string]float64) map[modality.Modality]float64 {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[modality.Modality]float64, len(raw))
	for k, v := range raw {
		out[modality.Modality(k)] = v
	}
	return out
}
