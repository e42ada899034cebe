package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/almanac/internal/core/domain"
)

func docIDs(docs []domain.Document) []string {
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids
}

func orderDocs(docs []domain.Document) []domain.Document {
	return OrderByAncestry(docs,
		func(d domain.Document) string { return d.ID },
		func(d domain.Document) string { return d.ParentKey() },
		func(d domain.Document) time.Time { return d.CreatedAt },
	)
}

func withParent(id, parent string, created time.Time) domain.Document {
	d := domain.Document{ID: id, CreatedAt: created}
	if parent != "" {
		d.SourceParentID = &parent
	}
	return d
}

func TestOrderByAncestry_ParentsFirst(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	docs := []domain.Document{
		withParent("C", "B", base.Add(2*time.Hour)),
		withParent("B", "A", base.Add(time.Hour)),
		withParent("A", "", base),
	}

	assert.Equal(t, []string{"A", "B", "C"}, docIDs(orderDocs(docs)))
}

func TestOrderByAncestry_DepthThenCreated(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	docs := []domain.Document{
		withParent("late-root", "", base.Add(5*time.Hour)),
		withParent("child", "early-root", base.Add(time.Hour)),
		withParent("early-root", "", base),
		withParent("orphan", "not-in-batch", base.Add(3*time.Hour)),
	}

	got := docIDs(orderDocs(docs))

	assert.Equal(t, []string{"early-root", "orphan", "late-root", "child"}, got)
}

func TestOrderByAncestry_StableOnTies(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	docs := []domain.Document{
		withParent("x", "", at),
		withParent("y", "", at),
		withParent("z", "", at),
	}

	assert.Equal(t, []string{"x", "y", "z"}, docIDs(orderDocs(docs)))
}

func TestOrderByAncestry_Cycle(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	docs := []domain.Document{
		withParent("a", "b", at),
		withParent("b", "a", at.Add(time.Second)),
	}

	got := orderDocs(docs)

	assert.ElementsMatch(t, []string{"a", "b"}, docIDs(got))
}

func TestOrderByAncestry_Empty(t *testing.T) {
	assert.Empty(t, orderDocs(nil))
}
