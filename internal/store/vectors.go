package store

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// Document is one embedded chunk of an ingested paper, kept alongside enough
// metadata to cite it back in a chat answer.
type Document struct {
	Source  string `json:"source"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// SearchResult pairs a document with its cosine similarity to the query.
type SearchResult struct {
	Document   Document
	Collection string
	Score      float64
}

type vectorCollection struct {
	docs    []Document
	vectors [][]float64
}

// VectorStore holds embedded chunks per ingested document, in memory and
// bounded: when a new collection would exceed the cap the oldest one is
// evicted, so a long-running server never accumulates unbounded state.
type VectorStore struct {
	mu          sync.Mutex
	max         int
	order       []string
	collections map[string]*vectorCollection
}

func NewVectorStore(maxCollections int) *VectorStore {
	if maxCollections <= 0 {
		maxCollections = 4
	}
	return &VectorStore{
		max:         maxCollections,
		collections: map[string]*vectorCollection{},
	}
}

// Add stores a new collection, evicting the oldest when the cap is reached.
// Re-adding an existing name replaces its contents without eviction.
func (s *VectorStore) Add(name string, docs []Document, vectors [][]float64) error {
	if name == "" {
		return fmt.Errorf("vectors: collection name required")
	}
	if len(docs) != len(vectors) {
		return fmt.Errorf("vectors: %d documents but %d vectors", len(docs), len(vectors))
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.collections[name]; !exists {
		for len(s.order) >= s.max {
			oldest := s.order[0]
			s.order = s.order[1:]
			delete(s.collections, oldest)
		}
		s.order = append(s.order, name)
	}
	s.collections[name] = &vectorCollection{docs: docs, vectors: vectors}
	return nil
}

// Collections lists active collection names, oldest first.
func (s *VectorStore) Collections() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

func (s *VectorStore) Has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.collections[name]
	return ok
}

// Search returns the k most similar documents to the query vector across the
// named collections. An empty names slice searches everything; unknown names
// are skipped.
func (s *VectorStore) Search(names []string, query []float64, k int) []SearchResult {
	if k <= 0 || len(query) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(names) == 0 {
		names = s.order
	}
	var results []SearchResult
	for _, name := range names {
		coll, ok := s.collections[name]
		if !ok {
			continue
		}
		for i, vec := range coll.vectors {
			score := cosine(query, vec)
			if math.IsNaN(score) {
				continue
			}
			results = append(results, SearchResult{
				Document:   coll.docs[i],
				Collection: name,
				Score:      score,
			})
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > k {
		results = results[:k]
	}
	return results
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.NaN()
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return math.NaN()
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
