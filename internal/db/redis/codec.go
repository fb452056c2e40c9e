package redis

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/whokrish/vectorbeats/internal/db"
	domcol "github.com/whokrish/vectorbeats/internal/domain/collection"
	"github.com/whokrish/vectorbeats/internal/domain/metadata"
)

// Key layout.
const (
	keyPrefix     = "vb:"
	metaKeyPrefix = "vb:collection:"
	indexPrefix   = "vb:idx:"

	// Hash fields of a point.
	fieldID      = "__id"
	fieldVector  = "__vector"
	fieldPayload = "__payload"
	fieldScore   = "__vector_score"
	// tagPrefix marks hash fields mirroring scalar payload values for TAG pushdown.
	tagPrefix = "m_"

	// Hash fields of a collection settings hash.
	metaDimension = "dimension"
	metaMetric    = "metric"
	metaIndexes   = "indexes"

	tagSeparator = ","
)

func metaKey(collection string) string   { return metaKeyPrefix + collection }
func indexName(collection string) string { return indexPrefix + collection }
func pointPrefix(collection string) string {
	return keyPrefix + "p:" + collection + ":"
}
func pointKey(collection, id string) string { return pointPrefix(collection) + id }

// collectionMeta is the persisted collection settings.
type collectionMeta struct {
	schema  domcol.Schema
	indexed map[string]bool
}

func (m collectionMeta) indexList() []string {
	out := make([]string, 0, len(m.indexed))
	for f := range m.indexed {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func decodeMeta(name string, h map[string]string) (collectionMeta, error) {
	dim, err := strconv.Atoi(h[metaDimension])
	if err != nil {
		return collectionMeta{}, fmt.Errorf("collection %s: bad dimension %q", name, h[metaDimension])
	}
	schema, err := domcol.NewSchema(name, dim, domcol.Metric(h[metaMetric]))
	if err != nil {
		return collectionMeta{}, fmt.Errorf("collection %s: %w", name, err)
	}
	indexed := make(map[string]bool)
	for _, f := range strings.Split(h[metaIndexes], tagSeparator) {
		if f != "" {
			indexed[f] = true
		}
	}
	return collectionMeta{schema: schema, indexed: indexed}, nil
}

// encodeRecord builds the hash fields of a point.
func encodeRecord(r db.Record) (map[string]string, error) {
	payload, err := json.Marshal(r.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload of %s: %w", r.ID, err)
	}
	fields := map[string]string{
		fieldID:      r.ID,
		fieldVector:  vectorToBytes(r.Vector),
		fieldPayload: string(payload),
	}
	for k, v := range r.Payload {
		if tag, ok := tagValue(v); ok {
			fields[tagPrefix+k] = tag
		}
	}
	return fields, nil
}

// decodeRecord rebuilds a record from hash fields.
func decodeRecord(fields map[string]string, withVector bool) (db.Record, error) {
	rec := db.Record{ID: fields[fieldID]}
	if raw := fields[fieldPayload]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &rec.Payload); err != nil {
			return db.Record{}, fmt.Errorf("decode payload of %s: %w", rec.ID, err)
		}
	}
	if withVector {
		rec.Vector = bytesToVector(fields[fieldVector])
	}
	return rec, nil
}

// tagValue renders a scalar, or a list of scalars, as TAG text.
// Text containing the separator is left out so it cannot split into false tags;
// filters on such text are never pushed down.
func tagValue(v metadata.Value) (string, bool) {
	if v.IsScalar() {
		text := v.Text()
		return text, !strings.Contains(text, tagSeparator)
	}
	list, ok := v.AsList()
	if !ok || len(list) == 0 {
		return "", false
	}
	parts := make([]string, 0, len(list))
	for _, e := range list {
		if !e.IsScalar() {
			return "", false
		}
		if text := e.Text(); !strings.Contains(text, tagSeparator) {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, tagSeparator), true
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

func bytesToVector(s string) []float32 {
	if len(s) == 0 || len(s)%4 != 0 {
		return nil
	}
	out := make([]float32, len(s)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32([]byte(s[i*4 : i*4+4])))
	}
	return out
}
