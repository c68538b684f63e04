package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/focus-md/focus/internal/database"
	"github.com/focus-md/focus/internal/logging"
	"github.com/focus-md/focus/internal/usecase"
)

// Server wraps the MCP server with read access to the focus store
type Server struct {
	server *mcp.Server
	dbCtx  *database.Context
}

// NewServer creates a new MCP server instance
func NewServer(cfg database.Config) (*Server, error) {
	dbCtx, err := database.CreateDatabase(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "focus",
		Version: "0.1.0",
	}, nil)

	s := &Server{
		server: mcpServer,
		dbCtx:  dbCtx,
	}

	// Register tools
	s.registerTools()

	return s, nil
}

// Run starts the MCP server with stdio transport
func (s *Server) Run(ctx context.Context) error {
	defer database.CloseDatabase(s.dbCtx)
	logging.GetLogger("mcp").Infof("serving store %s over stdio", s.dbCtx.Registry().Name())
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "store_schema",
		Description: "Describe the collections and indexes of the focus store",
	}, s.handleSchema)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "store_get",
		Description: "Get one record by collection and primary key",
	}, s.handleGet)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "store_list",
		Description: "List the records of a collection ordered by primary key",
	}, s.handleList)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "store_query",
		Description: "Find records through a secondary index with equality or range operators",
	}, s.handleQuery)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "store_export",
		Description: "Write a backup of every collection to the backups directory",
	}, s.handleExport)
}

// Input/Output types for each tool

type SchemaInput struct{}

type SchemaOutput struct {
	Name             string                    `json:"name"`
	PersistedVersion int                       `json:"persistedVersion"`
	LatestVersion    int                       `json:"latestVersion"`
	Collections      []usecase.CollectionStats `json:"collections"`
}

type GetInput struct {
	Collection string `json:"collection" jsonschema:"Collection name, for example tasks"`
	Key        string `json:"key" jsonschema:"Primary key; numeric keys are parsed as integers"`
}

type GetOutput struct {
	Record map[string]any `json:"record"`
}

type ListInput struct {
	Collection string `json:"collection" jsonschema:"Collection name, for example tasks"`
	Limit      *int   `json:"limit,omitempty" jsonschema:"Maximum number of records to return"`
}

type RecordsOutput struct {
	Records []map[string]any `json:"records"`
}

type QueryInput struct {
	Collection string `json:"collection" jsonschema:"Collection name, for example tasks"`
	Index      string `json:"index" jsonschema:"Index name, for example byDueDate"`
	Eq         any    `json:"eq,omitempty" jsonschema:"Match values equal to this number or string"`
	Gt         any    `json:"gt,omitempty" jsonschema:"Match values greater than this"`
	Gte        any    `json:"gte,omitempty" jsonschema:"Match values greater than or equal to this"`
	Lt         any    `json:"lt,omitempty" jsonschema:"Match values less than this"`
	Lte        any    `json:"lte,omitempty" jsonschema:"Match values less than or equal to this"`
	Limit      *int   `json:"limit,omitempty" jsonschema:"Maximum number of records to return"`
}

type ExportInput struct{}

type ExportOutput struct {
	Path        string `json:"path"`
	Hash        string `json:"hash"`
	Collections int    `json:"collections"`
	Records     int    `json:"records"`
}

// Tool handlers

func (s *Server) handleSchema(ctx context.Context, req *mcp.CallToolRequest, input SchemaInput) (*mcp.CallToolResult, SchemaOutput, error) {
	stats, err := usecase.NewRecords(s.dbCtx).Stats(ctx)
	if err != nil {
		return nil, SchemaOutput{}, fmt.Errorf("failed to describe store: %w", err)
	}

	return nil, SchemaOutput{
		Name:             stats.Name,
		PersistedVersion: stats.PersistedVersion,
		LatestVersion:    stats.LatestVersion,
		Collections:      stats.Collections,
	}, nil
}

func (s *Server) handleGet(ctx context.Context, req *mcp.CallToolRequest, input GetInput) (*mcp.CallToolResult, GetOutput, error) {
	records := usecase.NewRecords(s.dbCtx)
	data, err := records.Get(ctx, input.Collection, records.KeyFor(input.Collection, input.Key))
	if err != nil {
		return nil, GetOutput{}, fmt.Errorf("failed to get record: %w", err)
	}

	record, err := decodeRecord(data)
	if err != nil {
		return nil, GetOutput{}, err
	}
	return nil, GetOutput{Record: record}, nil
}

func (s *Server) handleList(ctx context.Context, req *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, RecordsOutput, error) {
	limit := 0
	if input.Limit != nil {
		limit = *input.Limit
	}

	docs, err := usecase.NewRecords(s.dbCtx).List(ctx, input.Collection, limit)
	if err != nil {
		return nil, RecordsOutput{}, fmt.Errorf("failed to list records: %w", err)
	}

	records, err := decodeRecords(docs)
	if err != nil {
		return nil, RecordsOutput{}, err
	}
	return nil, RecordsOutput{Records: records}, nil
}

func (s *Server) handleQuery(ctx context.Context, req *mcp.CallToolRequest, input QueryInput) (*mcp.CallToolResult, RecordsOutput, error) {
	r, err := usecase.Bounds{Eq: input.Eq, Gt: input.Gt, Gte: input.Gte, Lt: input.Lt, Lte: input.Lte}.Range()
	if err != nil {
		return nil, RecordsOutput{}, err
	}

	q := usecase.QueryInput{Collection: input.Collection, Index: input.Index, Range: r}
	if input.Limit != nil {
		q.Limit = *input.Limit
	}

	docs, err := usecase.NewRecords(s.dbCtx).Query(ctx, q)
	if err != nil {
		return nil, RecordsOutput{}, fmt.Errorf("failed to query records: %w", err)
	}

	records, err := decodeRecords(docs)
	if err != nil {
		return nil, RecordsOutput{}, err
	}
	return nil, RecordsOutput{Records: records}, nil
}

func (s *Server) handleExport(ctx context.Context, req *mcp.CallToolRequest, input ExportInput) (*mcp.CallToolResult, ExportOutput, error) {
	result, err := usecase.NewBackup(s.dbCtx).Create(ctx)
	if err != nil {
		return nil, ExportOutput{}, fmt.Errorf("failed to export store: %w", err)
	}

	return nil, ExportOutput{
		Path:        result.Path,
		Hash:        result.Hash,
		Collections: result.Collections,
		Records:     result.Records,
	}, nil
}

func decodeRecord(data json.RawMessage) (map[string]any, error) {
	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return record, nil
}

func decodeRecords(docs []database.Document) ([]map[string]any, error) {
	records := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		record, err := decodeRecord(doc.Data)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
