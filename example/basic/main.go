package main

import (
	"context"
	"fmt"
	"log"
	"regexp"

	"github.com/siherrmann/graphreason"
	"github.com/siherrmann/graphreason/core/pipeline"
	"github.com/siherrmann/graphreason/helper"
	"github.com/siherrmann/graphreason/model"
)

const sampleContent = `Acme Corp is located at Berlin. Widget is created by Acme Corp.

Widget depends on Gizmo. Gizmo is created by Initech.

Initech is located at Berlin.`

// relationPattern matches sentences like "Widget is created by Acme Corp".
var relationPattern = regexp.MustCompile(`([A-Z][\w ]*?) (?:is )?(located at|created by|depends on) ([A-Z][\w ]*?)\.`)

var relationTypes = map[string]model.EdgeType{
	"located at": model.EdgeTypeLocatedAt,
	"created by": model.EdgeTypeCreatedBy,
	"depends on": model.EdgeTypeDependsOn,
}

// patternExtractor is a toy extractor standing in for a model based one.
func patternExtractor(ctx context.Context, text string) ([]*model.CandidateEntity, []*model.CandidateRelation, error) {
	var entities []*model.CandidateEntity
	var relations []*model.CandidateRelation
	for _, m := range relationPattern.FindAllStringSubmatch(text, -1) {
		entities = append(entities,
			&model.CandidateEntity{Name: m[1], Type: model.NodeTypeConcept, Confidence: 0.9},
			&model.CandidateEntity{Name: m[3], Type: model.NodeTypeConcept, Confidence: 0.9},
		)
		relations = append(relations, &model.CandidateRelation{
			Head:       m[1],
			Type:       relationTypes[m[2]],
			Tail:       m[3],
			Evidence:   m[0],
			Confidence: 0.85,
		})
	}
	return entities, relations, nil
}

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "graphreason",
		Username: "graphreason",
		Password: "graphreason",
		Schema:   "public",
		SSLMode:  "disable",
	}

	r, err := graphreason.NewReasoner(dbConfig, model.DefaultReasonerConfig())
	if err != nil {
		log.Fatalf("Failed to create reasoner: %v", err)
	}
	defer r.Close()

	r.SetExtractor(patternExtractor)
	r.Pipeline.SetChunker(pipeline.ParagraphChunker())

	ctx := context.Background()
	fmt.Println("Ingesting document...")
	result, err := r.Ingest(ctx, "doc1", sampleContent)
	if err != nil {
		log.Fatalf("Failed to ingest document: %v", err)
	}
	fmt.Printf("Created %d nodes and %d edges\n", len(result.CreatedNodes), len(result.CreatedEdges))

	path, err := r.ShortestPath(ctx, "Acme Corp", "Initech", model.DefaultPathOptions())
	if err != nil {
		log.Fatalf("Failed to find shortest path: %v", err)
	}
	fmt.Printf("\nShortest path from Acme Corp to Initech (confidence %.4f):\n", path.Confidence)
	for i, node := range path.Nodes {
		if i > 0 {
			fmt.Printf("  -[%s]-> ", path.Edges[i-1].Type)
		}
		fmt.Printf("%s", node.Name)
	}
	fmt.Println()

	report, err := r.QualityReport(ctx)
	if err != nil {
		log.Fatalf("Failed to generate quality report: %v", err)
	}
	fmt.Printf("\nQuality: %.4f (%s)\n", report.OverallScore, report.Level)
	for _, rec := range report.Recommendations {
		fmt.Printf("  - %s\n", rec)
	}
}
