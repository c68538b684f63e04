package sqldb

// Collection is a row of the collections catalog.
type Collection struct {
	Store          string
	Name           string
	KeyPath        string
	AutoIncrement  bool
	NextKey        int64
	CreatedVersion int64
}

// CollectionIndex is a row of the collection_indexes catalog.
type CollectionIndex struct {
	Store          string
	Collection     string
	Name           string
	KeyPath        string
	MultiEntry     bool
	IsUnique       bool
	CreatedVersion int64
}

// Record is a stored document with its primary key. Pk is int64 or string.
type Record struct {
	Pk   any
	Data string
}

// MigrationLog is one applied migration gate.
type MigrationLog struct {
	ID        int64
	Store     string
	Version   int64
	Steps     int64
	AppliedAt string
}
