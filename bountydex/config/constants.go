package config

import "time"

// Database and performance constants
const (
	DefaultQueryTimeout = 30 * time.Second
	BatchQueryTimeout   = 2 * time.Minute

	// All bulk insert/update statements are chunked to this size so a
	// catalog with tens of thousands of rows never produces a single
	// oversized statement.
	MaxBatchSize = 1000

	// Cache settings
	CacheExpiration = 5 * time.Minute
	CacheSize       = 10000
)

// Pipeline constants
const (
	// One request per set id, sequential; a stuck upstream bounds a run
	// to len(sets) * SnapshotFetchTimeout.
	SnapshotFetchTimeout = 30 * time.Second

	SetListFileName = "Groups.csv"
)

// API constants
const (
	RequestTimeout  = 30 * time.Second
	DefaultPageSize = 50
	MaxPageSize     = 200
	MaxSearchLimit  = 25
)
