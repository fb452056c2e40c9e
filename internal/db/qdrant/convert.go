package qdrant

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/whokrish/vectorbeats/internal/domain/metadata"
	"github.com/whokrish/vectorbeats/internal/domain/point"
)

// idNamespace seeds UUIDv5 point IDs for caller IDs qdrant cannot store natively.
var idNamespace = uuid.MustParse("7b0c6a1e-3f43-5c8e-9d1a-6f2b4e8a9c10")

// pointID maps a caller ID onto a qdrant point ID.
// Unsigned integers and UUIDs pass through; anything else becomes a UUIDv5.
func pointID(id string) *qdrant.PointId {
	if n, err := strconv.ParseUint(id, 10, 64); err == nil {
		return qdrant.NewIDNum(n)
	}
	if u, err := uuid.Parse(id); err == nil {
		return qdrant.NewIDUUID(u.String())
	}
	return qdrant.NewIDUUID(uuid.NewSHA1(idNamespace, []byte(id)).String())
}

func pointIDs(ids []string) []*qdrant.PointId {
	out := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		out[i] = pointID(id)
	}
	return out
}

// recordID prefers the caller ID stored in the payload over the native point ID.
func recordID(id *qdrant.PointId, payload map[string]*qdrant.Value) string {
	if v, ok := payload[point.FieldVectorID]; ok {
		if s := v.GetStringValue(); s != "" {
			return s
		}
	}
	switch pid := id.GetPointIdOptions().(type) {
	case *qdrant.PointId_Num:
		return strconv.FormatUint(pid.Num, 10)
	case *qdrant.PointId_Uuid:
		return pid.Uuid
	default:
		return ""
	}
}

func toValue(v metadata.Value) *qdrant.Value {
	switch v.Kind() {
	case metadata.KindString:
		s, _ := v.AsString()
		return qdrant.NewValueString(s)
	case metadata.KindInt:
		i, _ := v.AsInt()
		return qdrant.NewValueInt(i)
	case metadata.KindFloat:
		f, _ := v.AsFloat()
		return qdrant.NewValueDouble(f)
	case metadata.KindBool:
		b, _ := v.AsBool()
		return qdrant.NewValueBool(b)
	case metadata.KindMap:
		m, _ := v.AsMap()
		return qdrant.NewValueFromFields(toPayload(m))
	case metadata.KindList:
		l, _ := v.AsList()
		vals := make([]*qdrant.Value, len(l))
		for i, e := range l {
			vals[i] = toValue(e)
		}
		return qdrant.NewValueFromList(vals...)
	default:
		return qdrant.NewValueNull()
	}
}

func toPayload(m metadata.Metadata) map[string]*qdrant.Value {
	out := make(map[string]*qdrant.Value, len(m))
	for k, v := range m {
		out[k] = toValue(v)
	}
	return out
}

func fromValue(v *qdrant.Value) (metadata.Value, error) {
	switch k := v.GetKind().(type) {
	case nil, *qdrant.Value_NullValue:
		return metadata.Null(), nil
	case *qdrant.Value_StringValue:
		return metadata.String(k.StringValue), nil
	case *qdrant.Value_IntegerValue:
		return metadata.Int(k.IntegerValue), nil
	case *qdrant.Value_DoubleValue:
		return metadata.Float(k.DoubleValue), nil
	case *qdrant.Value_BoolValue:
		return metadata.Bool(k.BoolValue), nil
	case *qdrant.Value_StructValue:
		m, err := fromPayload(k.StructValue.GetFields())
		if err != nil {
			return metadata.Value{}, err
		}
		return metadata.Map(m), nil
	case *qdrant.Value_ListValue:
		items := k.ListValue.GetValues()
		out := make([]metadata.Value, len(items))
		for i, item := range items {
			e, err := fromValue(item)
			if err != nil {
				return metadata.Value{}, err
			}
			out[i] = e
		}
		return metadata.List(out...), nil
	default:
		return metadata.Value{}, fmt.Errorf("unsupported payload value %T", k)
	}
}

func fromPayload(p map[string]*qdrant.Value) (metadata.Metadata, error) {
	out := make(metadata.Metadata, len(p))
	for k, v := range p {
		mv, err := fromValue(v)
		if err != nil {
			return nil, fmt.Errorf("payload %q: %w", k, err)
		}
		out[k] = mv
	}
	return out, nil
}

// denseVector extracts the unnamed dense vector from a point.
func denseVector(v *qdrant.VectorsOutput) []float32 {
	out := v.GetVector()
	if out == nil {
		return nil
	}
	if dense := out.GetDense(); dense != nil {
		return dense.GetData()
	}
	return out.GetData() //nolint:staticcheck // older servers fill the deprecated field
}
