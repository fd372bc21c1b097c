package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
	"github.com/kirillkom/counsel-assistant/internal/core/scoring"
)

// Index is an in-process vector index. Searches are exhaustive and
// results keep insertion order among equal scores.
type Index struct {
	dimension int

	mu      sync.RWMutex
	order   []string
	records map[string]domain.VectorRecord
}

func New(dimension int) *Index {
	return &Index{
		dimension: dimension,
		records:   make(map[string]domain.VectorRecord),
	}
}

func (i *Index) Dimension() int {
	return i.dimension
}

func (i *Index) Put(_ context.Context, record domain.VectorRecord) error {
	if record.ID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "vector put", fmt.Errorf("record id is required"))
	}
	if len(record.Vector) != i.dimension {
		return domain.WrapError(domain.ErrInvalidInput, "vector put", domain.NewDimensionError(i.dimension, len(record.Vector)))
	}

	stored := record
	stored.Vector = append([]float32(nil), record.Vector...)
	stored.Metadata = cloneMetadata(record.Metadata)

	i.mu.Lock()
	defer i.mu.Unlock()
	if _, exists := i.records[record.ID]; !exists {
		i.order = append(i.order, record.ID)
	}
	i.records[record.ID] = stored
	return nil
}

func (i *Index) Get(_ context.Context, id string) (*domain.VectorRecord, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	record, ok := i.records[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrRecordNotFound, "vector get", fmt.Errorf("id %q", id))
	}
	out := cloneRecord(record)
	return &out, nil
}

func (i *Index) Delete(_ context.Context, id string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.records[id]; !ok {
		return nil
	}
	delete(i.records, id)
	i.compact()
	return nil
}

func (i *Index) DeleteWhere(_ context.Context, filters map[string]string) (int, error) {
	if len(filters) == 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "vector delete where", fmt.Errorf("at least one filter is required"))
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	removed := 0
	for id, record := range i.records {
		if record.MatchesFilters(filters) {
			delete(i.records, id)
			removed++
		}
	}
	if removed > 0 {
		i.compact()
	}
	return removed, nil
}

func (i *Index) SearchSimilar(_ context.Context, query []float32, limit int, threshold float64) ([]domain.ScoredRecord, error) {
	if len(query) != i.dimension {
		return nil, domain.NewDimensionError(i.dimension, len(query))
	}
	if limit <= 0 {
		return []domain.ScoredRecord{}, nil
	}

	i.mu.RLock()
	out := make([]domain.ScoredRecord, 0, len(i.order))
	for _, id := range i.order {
		record := i.records[id]
		score, err := scoring.CosineSimilarity(query, record.Vector)
		if err != nil {
			i.mu.RUnlock()
			return nil, err
		}
		if score < threshold {
			continue
		}
		out = append(out, domain.ScoredRecord{Record: record, Score: score})
	}
	i.mu.RUnlock()

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Score > out[b].Score
	})
	if len(out) > limit {
		out = out[:limit]
	}
	for n := range out {
		out[n].Record = cloneRecord(out[n].Record)
	}
	return out, nil
}

func (i *Index) SearchByMetadata(_ context.Context, filters map[string]string, limit int) ([]domain.VectorRecord, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	out := make([]domain.VectorRecord, 0)
	for _, id := range i.order {
		if limit > 0 && len(out) >= limit {
			break
		}
		record := i.records[id]
		if record.MatchesFilters(filters) {
			out = append(out, cloneRecord(record))
		}
	}
	return out, nil
}

func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.records)
}

// compact drops ids removed from records; callers hold the write lock.
func (i *Index) compact() {
	kept := i.order[:0]
	for _, id := range i.order {
		if _, ok := i.records[id]; ok {
			kept = append(kept, id)
		}
	}
	i.order = kept
}

func cloneMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// cloneRecord copies the vector and metadata so callers cannot mutate
// what the index stores.
func cloneRecord(record domain.VectorRecord) domain.VectorRecord {
	out := record
	out.Vector = append([]float32(nil), record.Vector...)
	out.Metadata = cloneMetadata(record.Metadata)
	return out
}
