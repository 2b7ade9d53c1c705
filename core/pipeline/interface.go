package pipeline

import (
	"context"
	"log/slog"

	"github.com/siherrmann/graphreason/model"
)

// ChunkFunc is a function that splits text into chunks with their hierarchical paths.
// The path follows the dotted format of the document id (e.g. "doc1.chunk3").
type ChunkFunc func(text string, basePath string) ([]Chunk, error)

// GraphExtractFunc extracts candidate entities and relations from text in a
// single pass. Relations reference entities by name.
type GraphExtractFunc func(ctx context.Context, text string) ([]*model.CandidateEntity, []*model.CandidateRelation, error)

// Chunk is a piece of a document handed to the extractor.
type Chunk struct {
	Content  string
	Path     string
	StartPos int
	EndPos   int
	Index    int
}

// GraphStore is the repository access of the ingestion pipeline.
type GraphStore interface {
	SelectNode(ctx context.Context, id string) (*model.Node, error)
	SelectNodeByName(ctx context.Context, name string, nodeType *model.NodeType) (*model.Node, error)
	InsertNode(ctx context.Context, node *model.Node) error
	UpdateNode(ctx context.Context, id string, update model.NodeUpdate) (*model.Node, error)
	LinkNodeSourceDoc(ctx context.Context, id string, docID string) (*model.Node, error)
	InsertEdge(ctx context.Context, edge *model.Edge) error
	SelectEdgesBetween(ctx context.Context, headID string, tailID string, edgeType *model.EdgeType) ([]*model.Edge, error)
	UpdateEdge(ctx context.Context, id string, update model.EdgeUpdate) (*model.Edge, error)
	LinkEdgeSourceDoc(ctx context.Context, id string, docID string) (*model.Edge, error)
}

// EntityResolver matches candidate entities against existing nodes.
type EntityResolver interface {
	ResolveBatch(ctx context.Context, requests []model.ResolveRequest, sharedContext string) ([]*model.ResolveResult, error)
}

// Config holds the filters applied to extracted candidates.
type Config struct {
	EntityMinConfidence   float64
	RelationMinConfidence float64
	NodeTypes             []model.NodeType // empty allows all types
	EdgeTypes             []model.EdgeType // empty allows all types
}

// ConfigFromReasoner takes the candidate filters of a reasoner configuration.
func ConfigFromReasoner(c model.ReasonerConfig) Config {
	return Config{
		EntityMinConfidence:   c.EntityMinConfidence,
		RelationMinConfidence: c.RelationMinConfidence,
		NodeTypes:             c.NodeTypes,
		EdgeTypes:             c.EdgeTypes,
	}
}

// Pipeline turns documents into graph nodes and edges.
type Pipeline struct {
	Chunker   ChunkFunc        // Optional, the whole text is one chunk without it
	Extractor GraphExtractFunc // Required
	store     GraphStore
	resolver  EntityResolver // Optional, only exact name matches are merged without it
	config    Config
	logger    *slog.Logger
}

// NewPipeline creates a new ingestion pipeline
func NewPipeline(store GraphStore, resolver EntityResolver, extractor GraphExtractFunc, config Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		Extractor: extractor,
		store:     store,
		resolver:  resolver,
		config:    config,
		logger:    logger,
	}
}

// SetChunker sets the chunking function
func (p *Pipeline) SetChunker(chunker ChunkFunc) {
	p.Chunker = chunker
}
