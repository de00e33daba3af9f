// Package vector 提供外部向量服务的 core.VectorIndex 适配器。
package vector

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/recipehub/recipekit/core"
)

// QdrantIndex 是 Qdrant 的 core.VectorIndex 实现（gRPC 客户端适配器）。
// 进程启动时构造一次，长生命周期复用；不在请求路径上重复建连。
type QdrantIndex struct {
	client *qdrant.Client
}

// NewQdrantIndex 建立到 Qdrant 的 gRPC 连接。
func NewQdrantIndex(host string, port int) (*QdrantIndex, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("init qdrant client: %w", err)
	}
	return &QdrantIndex{client: client}, nil
}

func (q *QdrantIndex) Retrieve(ctx context.Context, collection string, ids []int64, withVectors bool) ([]core.Point, error) {
	pointIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		pointIDs = append(pointIDs, qdrant.NewIDNum(uint64(id)))
	}

	points, err := q.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: collection,
		Ids:            pointIDs,
		WithVectors:    qdrant.NewWithVectors(withVectors),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, wrapIndexErr(err)
	}

	out := make([]core.Point, 0, len(points))
	for _, p := range points {
		cp := core.Point{
			ID:      int64(p.GetId().GetNum()),
			Payload: decodePayload(p.GetPayload()),
		}
		if withVectors {
			cp.Vector = p.GetVectors().GetVector().GetData()
		}
		out = append(out, cp)
	}
	return out, nil
}

func (q *QdrantIndex) Upsert(ctx context.Context, collection string, points []core.Point) error {
	qpoints := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		qpoints = append(qpoints, &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(uint64(p.ID)),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(encodePayload(p.Payload)),
		})
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         qpoints,
		Wait:           qdrant.PtrOf(true),
	})
	return wrapIndexErr(err)
}

func (q *QdrantIndex) DeletePoints(ctx context.Context, collection string, ids []int64) error {
	pointIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		pointIDs = append(pointIDs, qdrant.NewIDNum(uint64(id)))
	}

	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points:         qdrant.NewPointsSelector(pointIDs...),
		Wait:           qdrant.PtrOf(true),
	})
	return wrapIndexErr(err)
}

func (q *QdrantIndex) QueryNearest(ctx context.Context, query *core.NearestQuery) ([]core.ScoredPoint, error) {
	req := &qdrant.QueryPoints{
		CollectionName: query.Collection,
		Query:          qdrant.NewQuery(query.Vector...),
		Filter:         encodeFilter(query.Filter),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if query.Limit > 0 {
		req.Limit = qdrant.PtrOf(uint64(query.Limit))
	}
	if query.ScoreThreshold != nil {
		req.ScoreThreshold = qdrant.PtrOf(float32(*query.ScoreThreshold))
	}

	points, err := q.client.Query(ctx, req)
	if err != nil {
		return nil, wrapIndexErr(err)
	}

	out := make([]core.ScoredPoint, 0, len(points))
	for _, p := range points {
		out = append(out, core.ScoredPoint{
			ID:      int64(p.GetId().GetNum()),
			Score:   float64(p.GetScore()),
			Payload: decodePayload(p.GetPayload()),
		})
	}
	return out, nil
}

func (q *QdrantIndex) Scroll(ctx context.Context, collection string, filter *core.IndexFilter, limit int) ([]core.Point, error) {
	req := &qdrant.ScrollPoints{
		CollectionName: collection,
		Filter:         encodeFilter(filter),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if limit > 0 {
		req.Limit = qdrant.PtrOf(uint32(limit))
	}

	points, err := q.client.Scroll(ctx, req)
	if err != nil {
		return nil, wrapIndexErr(err)
	}

	out := make([]core.Point, 0, len(points))
	for _, p := range points {
		out = append(out, core.Point{
			ID:      int64(p.GetId().GetNum()),
			Payload: decodePayload(p.GetPayload()),
		})
	}
	return out, nil
}

func (q *QdrantIndex) HasCollection(ctx context.Context, name string) (bool, error) {
	exists, err := q.client.CollectionExists(ctx, name)
	if err != nil {
		return false, wrapIndexErr(err)
	}
	return exists, nil
}

func (q *QdrantIndex) CreateCollection(ctx context.Context, name string, dimension int, metric string) error {
	err := q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: encodeMetric(metric),
		}),
	})
	return wrapIndexErr(err)
}

func (q *QdrantIndex) Close() error {
	return q.client.Close()
}

// encodeFilter 将领域过滤条件编码为 Qdrant 过滤器。
// Should 列表编码为 min_should(min_count=1)，与既有索引查询语义一致。
func encodeFilter(f *core.IndexFilter) *qdrant.Filter {
	if f.Empty() {
		return nil
	}

	out := &qdrant.Filter{}
	for _, cond := range f.Must {
		out.Must = append(out.Must, encodeCondition(cond))
	}
	if len(f.Should) > 0 {
		minShould := &qdrant.MinShould{MinCount: 1}
		for _, cond := range f.Should {
			minShould.Conditions = append(minShould.Conditions, encodeCondition(cond))
		}
		out.MinShould = minShould
	}
	return out
}

func encodeCondition(cond core.Condition) *qdrant.Condition {
	switch cond.Kind {
	case core.MatchInteger:
		return qdrant.NewMatchInt(cond.Field, cond.Integer)
	default:
		return qdrant.NewMatch(cond.Field, cond.Keyword)
	}
}

func encodeMetric(metric string) qdrant.Distance {
	switch metric {
	case core.MetricEuclidean:
		return qdrant.Distance_Euclid
	case core.MetricInnerProduct:
		return qdrant.Distance_Dot
	default:
		return qdrant.Distance_Cosine
	}
}

// encodePayload 将领域 payload 归一化为 qdrant.NewValueMap 支持的类型。
// NewValueMap 只接受标量 / []any / map[string]any，遇到类型化切片
//（用户点的 []int64 交互列表、菜谱点的 []string 标签/食材）会 panic，
// 因此上行前统一转为 []any。
func encodePayload(payload map[string]any) map[string]any {
	if payload == nil {
		return nil
	}
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = encodeValue(v)
	}
	return out
}

func encodeValue(v any) any {
	switch val := v.(type) {
	case []int64:
		list := make([]any, 0, len(val))
		for _, e := range val {
			list = append(list, e)
		}
		return list
	case []int:
		list := make([]any, 0, len(val))
		for _, e := range val {
			list = append(list, int64(e))
		}
		return list
	case []string:
		list := make([]any, 0, len(val))
		for _, e := range val {
			list = append(list, e)
		}
		return list
	case []float64:
		list := make([]any, 0, len(val))
		for _, e := range val {
			list = append(list, e)
		}
		return list
	case []float32:
		list := make([]any, 0, len(val))
		for _, e := range val {
			list = append(list, float64(e))
		}
		return list
	case []any:
		list := make([]any, 0, len(val))
		for _, e := range val {
			list = append(list, encodeValue(e))
		}
		return list
	case map[string]any:
		return encodePayload(val)
	default:
		return v
	}
}

// decodePayload 将 Qdrant payload 还原为 map[string]any。
// 列表元素与标量统一转为 Go 原生类型，供 pkg/conv 解码。
func decodePayload(payload map[string]*qdrant.Value) map[string]any {
	if payload == nil {
		return nil
	}
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = decodeValue(v)
	}
	return out
}

func decodeValue(v *qdrant.Value) any {
	if v == nil {
		return nil
	}
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_ListValue:
		values := kind.ListValue.GetValues()
		list := make([]any, 0, len(values))
		for _, item := range values {
			list = append(list, decodeValue(item))
		}
		return list
	default:
		return nil
	}
}

func wrapIndexErr(err error) error {
	if err == nil {
		return nil
	}
	return core.NewDomainError(core.ModuleIndex, core.ErrorCodeUnavailable, err.Error())
}

// 确保 QdrantIndex 实现了 core.VectorIndex 接口
var _ core.VectorIndex = (*QdrantIndex)(nil)
