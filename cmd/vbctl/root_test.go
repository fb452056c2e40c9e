package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whokrish/vectorbeats/internal/domain"
	domcol "github.com/whokrish/vectorbeats/internal/domain/collection"
	"github.com/whokrish/vectorbeats/internal/domain/search/filter"
	collectionuc "github.com/whokrish/vectorbeats/internal/usecase/collection"
)

type fakeOperator struct {
	ensured   bool
	ensureErr error
	descs     []collectionuc.Description
	counted   string
	filter    filter.Expression
	count     int
	snapshot  domcol.Snapshot
	snapErr   error
}

func (f *fakeOperator) EnsureCollections(context.Context) error {
	f.ensured = true
	return f.ensureErr
}

func (f *fakeOperator) AllCollectionsInfo(context.Context) []collectionuc.Description { return f.descs }

func (f *fakeOperator) Count(_ context.Context, collection string, fl filter.Expression) (int, error) {
	f.counted = collection
	f.filter = fl
	return f.count, nil
}

func (f *fakeOperator) Snapshot(context.Context, string) (domcol.Snapshot, error) {
	return f.snapshot, f.snapErr
}

func execute(t *testing.T, op *fakeOperator, args ...string) (string, string, error) {
	t.Helper()
	var gotEnv string
	open := func(_ context.Context, env string) (operator, func(), error) {
		gotEnv = env
		return op, func() {}, nil
	}
	cmd := newRootCmd(open)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), gotEnv, err
}

func TestEnsure(t *testing.T) {
	schema, err := domcol.NewSchema("music_vectors", 128, domcol.MetricCosine)
	require.NoError(t, err)
	op := &fakeOperator{descs: []collectionuc.Description{
		{Name: "music_vectors", Info: domcol.Info{Schema: schema, PointsCount: 2, Status: domcol.StatusGreen}},
		{Name: "image_vectors", Err: errors.New("unavailable")},
	}}

	out, env, err := execute(t, op, "--env", "docker", "ensure")
	require.NoError(t, err)
	assert.True(t, op.ensured)
	assert.Equal(t, "docker", env)

	var lines []collectionLine
	require.NoError(t, json.Unmarshal([]byte(out), &lines))
	require.Len(t, lines, 2)
	assert.Equal(t, 128, lines[0].Dimension)
	assert.Equal(t, "green", lines[0].Status)
	assert.Equal(t, "unavailable", lines[1].Error)
}

func TestEnsure_Error(t *testing.T) {
	op := &fakeOperator{ensureErr: domain.ErrSchemaConflict}
	_, _, err := execute(t, op, "ensure")
	assert.ErrorIs(t, err, domain.ErrSchemaConflict)
}

func TestCount(t *testing.T) {
	op := &fakeOperator{count: 7}
	out, _, err := execute(t, op, "count", "music_vectors", "--filter", `{"genre":["rock","jazz"],"bpm":{"gte":90}}`)
	require.NoError(t, err)

	assert.Equal(t, "music_vectors", op.counted)
	assert.Len(t, op.filter.Conditions(), 2)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, float64(7), got["count"])
}

func TestCount_BadFilter(t *testing.T) {
	op := &fakeOperator{}
	_, _, err := execute(t, op, "count", "music_vectors", "--filter", `{"genre":`)
	require.Error(t, err)
	assert.Empty(t, op.counted)

	_, _, err = execute(t, op, "count", "music_vectors", "--filter", `{"genre":null}`)
	assert.ErrorIs(t, err, domain.ErrInvalidFilter)
}

func TestCount_RequiresCollection(t *testing.T) {
	_, _, err := execute(t, &fakeOperator{}, "count")
	assert.Error(t, err)
}

func TestSnapshot(t *testing.T) {
	op := &fakeOperator{snapshot: domcol.Snapshot{Collection: "music_vectors", Name: "s1", Size: 10}}
	out, _, err := execute(t, op, "snapshot", "music_vectors")
	require.NoError(t, err)
	assert.Contains(t, out, `"s1"`)

	op.snapErr = domain.ErrNotImplemented
	_, _, err = execute(t, op, "snapshot", "music_vectors")
	assert.ErrorIs(t, err, domain.ErrNotImplemented)
}
