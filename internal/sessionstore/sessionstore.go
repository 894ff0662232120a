// Package sessionstore records a history of jellyfish runs (source file,
// outcome, duration, any DebugPrint output) to a local sqlite database and,
// optionally, to a remote DynamoDB table. It is ambient telemetry: nothing
// in the language depends on it, and a store that fails to open degrades to
// a no-op rather than blocking a run.
package sessionstore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run is one recorded jellyfish invocation.
type Run struct {
	ID         string
	SourceName string
	StartedAt  time.Time
	Duration   time.Duration
	Output     string
	Err        string
}

// Summary renders a one-line human-readable description of the run.
func (r Run) Summary() string {
	status := "ok"
	if r.Err != "" {
		status = "error: " + r.Err
	}
	return fmt.Sprintf("%s (%s) ran in %s, %s of output: %s",
		r.SourceName, r.ID, r.Duration, humanize.Bytes(uint64(len(r.Output))), status)
}

// Store persists Run records. Implementations must be safe for concurrent use.
type Store interface {
	RecordRun(ctx context.Context, run Run) error
	Close() error
}

// NewRun builds a Run with a freshly generated ID.
func NewRun(sourceName string, startedAt time.Time, duration time.Duration, output, errMsg string) Run {
	return Run{
		ID:         uuid.New().String(),
		SourceName: sourceName,
		StartedAt:  startedAt,
		Duration:   duration,
		Output:     output,
		Err:        errMsg,
	}
}

// ---- local sqlite sink ----

// SQLiteStore records runs to a local sqlite database through a single,
// mutex-guarded handle.
type SQLiteStore struct {
	mu sync.Mutex
	db *sql.DB
}

// OpenSQLiteStore opens (and creates, if needed) the sqlite database at
// path and ensures its schema exists.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sessionstore: open sqlite: %w", err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	source_name TEXT NOT NULL,
	started_at TEXT NOT NULL,
	duration_ns INTEGER NOT NULL,
	output TEXT NOT NULL,
	err TEXT NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sessionstore: create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) RecordRun(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, source_name, started_at, duration_ns, output, err) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.SourceName, run.StartedAt.Format(time.RFC3339Nano), run.Duration.Nanoseconds(), run.Output, run.Err)
	if err != nil {
		return fmt.Errorf("sessionstore: insert run: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ---- remote DynamoDB sink ----

// DynamoDBStore mirrors SQLiteStore's schema into a DynamoDB table.
type DynamoDBStore struct {
	client *dynamodb.Client
	table  string
}

// OpenDynamoDBStore loads the default AWS config for region and targets
// table for subsequent RecordRun calls.
func OpenDynamoDBStore(ctx context.Context, region, table string) (*DynamoDBStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("sessionstore: load aws config: %w", err)
	}
	return &DynamoDBStore{client: dynamodb.NewFromConfig(cfg), table: table}, nil
}

type runItem struct {
	ID         string `dynamodbav:"id"`
	SourceName string `dynamodbav:"source_name"`
	StartedAt  string `dynamodbav:"started_at"`
	DurationNs int64  `dynamodbav:"duration_ns"`
	Output     string `dynamodbav:"output"`
	Err        string `dynamodbav:"err"`
}

func (s *DynamoDBStore) RecordRun(ctx context.Context, run Run) error {
	av, err := attributevalue.MarshalMap(runItem{
		ID:         run.ID,
		SourceName: run.SourceName,
		StartedAt:  run.StartedAt.Format(time.RFC3339Nano),
		DurationNs: run.Duration.Nanoseconds(),
		Output:     run.Output,
		Err:        run.Err,
	})
	if err != nil {
		return fmt.Errorf("sessionstore: marshal run: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("sessionstore: put item: %w", err)
	}
	return nil
}

func (s *DynamoDBStore) Close() error { return nil }

// EnsureTableExists creates the table if it doesn't already exist, using
// an on-demand billing mode suited to a low-traffic CLI sidecar.
func (s *DynamoDBStore) EnsureTableExists(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)})
	if err == nil {
		return nil
	}
	_, err = s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("sessionstore: create table: %w", err)
	}
	return nil
}

// ---- fan-out ----

// MultiStore writes every run to all of its member stores, returning the
// first error encountered but still attempting every store.
type MultiStore struct {
	Stores []Store
}

func (m MultiStore) RecordRun(ctx context.Context, run Run) error {
	var firstErr error
	for _, s := range m.Stores {
		if err := s.RecordRun(ctx, run); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m MultiStore) Close() error {
	var firstErr error
	for _, s := range m.Stores {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
