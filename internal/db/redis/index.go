package redis

import (
	"errors"
	"strconv"

	domcol "github.com/whokrish/vectorbeats/internal/domain/collection"
)

type fieldType string

const (
	fieldTag    fieldType = "TAG"
	fieldVec    fieldType = "VECTOR"
	vectorAlgo            = "HNSW"
)

// indexField is one FT.CREATE / FT.ALTER schema entry.
type indexField struct {
	name  string
	alias string
	typ   fieldType
	dim   int
	dist  string
}

// distanceMetric maps a collection metric onto the Query Engine name.
func distanceMetric(m domcol.Metric) string {
	switch m {
	case domcol.MetricEuclidean:
		return "L2"
	case domcol.MetricDot:
		return "IP"
	default:
		return "COSINE"
	}
}

// payloadField is the TAG schema entry for an indexed payload field.
func payloadField(name string) indexField {
	return indexField{name: tagPrefix + name, alias: name, typ: fieldTag}
}

// buildCreateArgs renders FT.CREATE arguments for a collection.
func buildCreateArgs(schema domcol.Schema, payloadIndexes []string) ([]string, error) {
	if schema.Name() == "" {
		return nil, errors.New("collection name is required")
	}

	args := []string{
		indexName(schema.Name()),
		"ON", "HASH",
		"PREFIX", "1", pointPrefix(schema.Name()),
		"SCHEMA",
	}

	vec, err := buildFieldArgs(indexField{
		name: fieldVector,
		typ:  fieldVec,
		dim:  schema.Dimension(),
		dist: distanceMetric(schema.Metric()),
	})
	if err != nil {
		return nil, err
	}
	args = append(args, vec...)

	for _, p := range payloadIndexes {
		fieldArgs, err := buildFieldArgs(payloadField(p))
		if err != nil {
			return nil, err
		}
		args = append(args, fieldArgs...)
	}
	return args, nil
}

func buildFieldArgs(f indexField) ([]string, error) {
	if f.name == "" {
		return nil, errors.New("field name is required")
	}

	args := []string{f.name}
	if f.alias != "" {
		args = append(args, "AS", f.alias)
	}

	switch f.typ {
	case fieldTag:
		args = append(args, "TAG", "SEPARATOR", tagSeparator, "CASESENSITIVE")
	case fieldVec:
		if f.dim <= 0 {
			return nil, errors.New("vector DIM must be positive")
		}
		attrs := []string{
			"TYPE", "FLOAT32",
			"DIM", strconv.Itoa(f.dim),
			"DISTANCE_METRIC", f.dist,
		}
		args = append(args, string(fieldVec), vectorAlgo, strconv.Itoa(len(attrs)))
		args = append(args, attrs...)
	default:
		return nil, errors.New("unknown field type")
	}
	return args, nil
}
