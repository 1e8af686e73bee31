package application

import "context"

// StaticRepository serves lookups from a fixed in-memory table.
// It is read-only after construction and safe for concurrent use.
type StaticRepository struct {
	records map[string]Record
}

// NewStaticRepository builds a table from records; later duplicates win.
// With no records it is seeded from SeedRecords.
func NewStaticRepository(records ...Record) *StaticRepository {
	if len(records) == 0 {
		records = SeedRecords()
	}
	table := make(map[string]Record, len(records))
	for _, rec := range records {
		table[rec.SubmissionID] = rec
	}
	return &StaticRepository{records: table}
}

// Find returns the record stored under id. Matching is exact.
func (r *StaticRepository) Find(_ context.Context, id string) (Record, error) {
	rec, ok := r.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}
