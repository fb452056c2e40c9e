package redis

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/whokrish/vectorbeats/internal/db"
	domcol "github.com/whokrish/vectorbeats/internal/domain/collection"
	"github.com/whokrish/vectorbeats/internal/domain/metadata"
	"github.com/whokrish/vectorbeats/internal/domain/search/filter"
)

const (
	// residualOverfetch widens KNN when part of the filter is evaluated client side.
	residualOverfetch = 4
	maxKNN            = 1000
	scanPage          = 200
)

// SearchKNN runs a KNN query via FT.SEARCH.
// Conditions on indexed fields are pushed down as TAG pre-filters; the rest
// are evaluated on the decoded payload.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) ([]db.Hit, error) {
	if len(q.Vector) == 0 {
		return nil, &db.Error{Op: db.OpQuery, Err: fmt.Errorf("%w: vector is required", db.ErrInvalidArgument)}
	}
	if q.Limit <= 0 {
		return nil, &db.Error{Op: db.OpQuery, Err: fmt.Errorf("%w: limit must be positive", db.ErrInvalidArgument)}
	}

	meta, err := s.loadMeta(ctx, db.OpQuery, q.Collection)
	if err != nil {
		return nil, err
	}
	prefilter, residual := splitFilter(q.Filters, meta.indexed)

	k := q.Limit
	if !residual.IsEmpty() {
		k = min(q.Limit*residualOverfetch, maxKNN)
	}

	query := fmt.Sprintf("%s=>[KNN %d @%s $BLOB AS %s]", groupQuery(prefilter), k, fieldVector, fieldScore)
	returned := []string{fieldID, fieldPayload, fieldScore}
	if q.WithVector {
		returned = append(returned, fieldVector)
	}

	args := []string{indexName(q.Collection), query, "RETURN", strconv.Itoa(len(returned))}
	args = append(args, returned...)
	args = append(args,
		"SORTBY", fieldScore, "ASC",
		"LIMIT", "0", strconv.Itoa(k),
		"PARAMS", "2", "BLOB", vectorToBytes(q.Vector),
		"DIALECT", "2",
	)

	raw, err := s.do(ctx, s.b().Arbitrary("FT.SEARCH").Args(args...).Build()).ToArray()
	if err != nil {
		return nil, wrapErr(db.OpQuery, err)
	}
	entries, _, err := parseSearchResult(raw)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}

	hits := make([]db.Hit, 0, min(len(entries), q.Limit))
	for _, e := range entries {
		score, ok := scoreOf(meta.schema.Metric(), e.fields[fieldScore])
		if !ok {
			continue
		}
		if q.Threshold != nil && score < *q.Threshold {
			continue
		}
		rec, err := decodeRecord(e.fields, q.WithVector)
		if err != nil {
			return nil, &db.Error{Op: db.OpQuery, Err: err}
		}
		if rec.ID == "" {
			rec.ID = strings.TrimPrefix(e.key, pointPrefix(q.Collection))
		}
		if !residual.Matches(rec.Payload) {
			continue
		}
		if !q.WithPayload {
			rec.Payload = nil
		}
		hits = append(hits, db.Hit{Record: rec, Score: score})
		if len(hits) == q.Limit {
			break
		}
	}
	return hits, nil
}

// scoreOf converts the engine distance into a similarity.
// L2 distances are reported squared.
func scoreOf(metric domcol.Metric, raw string) (float64, bool) {
	d, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	if metric == domcol.MetricEuclidean {
		d = math.Sqrt(math.Max(d, 0))
	}
	return db.Similarity(metric, d), true
}

// scan pages through the points matching expr. limit <= 0 means no limit.
func (s *Store) scan(
	ctx context.Context, op, collection string, meta collectionMeta,
	expr filter.Expression, match func(metadata.Metadata) bool, limit int, withVector bool,
) ([]db.Record, error) {
	prefilter, residual := splitFilter(expr, meta.indexed)
	query := groupQuery(prefilter)

	returned := []string{fieldID, fieldPayload}
	if withVector {
		returned = append(returned, fieldVector)
	}

	var out []db.Record
	for offset := 0; ; offset += scanPage {
		args := []string{indexName(collection), query, "RETURN", strconv.Itoa(len(returned))}
		args = append(args, returned...)
		args = append(args, "LIMIT", strconv.Itoa(offset), strconv.Itoa(scanPage), "DIALECT", "2")

		raw, err := s.do(ctx, s.b().Arbitrary("FT.SEARCH").Args(args...).Build()).ToArray()
		if err != nil {
			return nil, wrapErr(op, err)
		}
		entries, total, err := parseSearchResult(raw)
		if err != nil {
			return nil, &db.Error{Op: op, Err: err}
		}

		for _, e := range entries {
			rec, err := decodeRecord(e.fields, withVector)
			if err != nil {
				return nil, &db.Error{Op: op, Err: err}
			}
			if rec.ID == "" {
				rec.ID = strings.TrimPrefix(e.key, pointPrefix(collection))
			}
			if !residual.Matches(rec.Payload) || (match != nil && !match(rec.Payload)) {
				continue
			}
			out = append(out, rec)
			if limit > 0 && len(out) == limit {
				return out, nil
			}
		}

		if len(entries) < scanPage || offset+scanPage >= total {
			return out, nil
		}
	}
}

// countQuery returns the FT total for a fully pushed-down filter.
func (s *Store) countQuery(ctx context.Context, collection, query string) (int, error) {
	cmd := s.b().Arbitrary("FT.SEARCH").Args(indexName(collection), query, "LIMIT", "0", "0").Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return 0, wrapErr(db.OpCount, err)
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpCount, Err: fmt.Errorf("parse count: %w", err)}
	}
	return int(total), nil
}

// --- Result parsing ---

type searchEntry struct {
	key    string
	fields map[string]string
}

// parseSearchResult reads a RESP2 FT.SEARCH reply: [total, key1, fields1, key2, fields2, ...].
func parseSearchResult(raw []rueidis.RedisMessage) ([]searchEntry, int, error) {
	if len(raw) == 0 {
		return nil, 0, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, 0, fmt.Errorf("parse total: %w", err)
	}

	entries := make([]searchEntry, 0, (len(raw)-1)/2)
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}
		entries = append(entries, searchEntry{key: key, fields: parseFieldPairs(fields)})
	}
	return entries, int(total), nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// --- Filter building ---

// splitFilter renders exact matches on indexed fields as an FT pre-filter and
// returns the remaining conditions for client-side evaluation.
func splitFilter(expr filter.Expression, indexed map[string]bool) (string, filter.Expression) {
	var parts []string
	var rest []filter.Condition

	for _, c := range expr.Conditions() {
		if indexed[c.Key()] && (c.Op() == filter.OpEquals || c.Op() == filter.OpAnyOf) {
			if tag, ok := buildTagFilter(c.Key(), c.Values()); ok {
				parts = append(parts, tag)
				continue
			}
		}
		rest = append(rest, c)
	}

	// A subset of a valid expression is valid.
	residual, _ := filter.NewExpression(rest...)
	return strings.Join(parts, " "), residual
}

func groupQuery(prefilter string) string {
	if prefilter == "" {
		return "*"
	}
	return "(" + prefilter + ")"
}

func buildTagFilter(key string, values []metadata.Value) (string, bool) {
	escaped := make([]string, 0, len(values))
	for _, v := range values {
		text := v.Text()
		if text == "" || strings.Contains(text, tagSeparator) {
			return "", false
		}
		escaped = append(escaped, tagEscaper.Replace(text))
	}
	return fmt.Sprintf("@%s:{%s}", key, strings.Join(escaped, " | ")), true
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"[", "\\[",
	"]", "\\]",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	" ", "\\ ",
)
