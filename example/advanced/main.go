package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/siherrmann/graphreason"
	"github.com/siherrmann/graphreason/model"
)

type seedEdge struct {
	head, tail string
	edgeType   model.EdgeType
	confidence float64
	doc        string
}

func main() {
	config, err := graphreason.NewReasonerConfigFromEnv()
	if err != nil {
		log.Fatalf("Failed to read configuration: %v", err)
	}

	r, err := graphreason.NewMemoryReasoner(config)
	if err != nil {
		log.Fatalf("Failed to create reasoner: %v", err)
	}
	defer r.Close()

	ctx := context.Background()

	// Seed a small supply chain graph
	nodes := map[string]model.NodeType{
		"Acme Corp":   model.NodeTypeOrganization,
		"Berlin":      model.NodeTypeLocation,
		"Widget":      model.NodeTypeProduct,
		"Gizmo":       model.NodeTypeProduct,
		"Chip Crisis": model.NodeTypeEvent,
	}
	ids := map[string]string{}
	for name, nodeType := range nodes {
		node := &model.Node{Name: name, Type: nodeType, Confidence: 0.9, Description: name + " in the supply chain example"}
		if err := r.Store.InsertNode(ctx, node); err != nil {
			log.Fatalf("Failed to insert node %s: %v", name, err)
		}
		ids[name] = node.ID
	}

	edges := []seedEdge{
		{"Acme Corp", "Berlin", model.EdgeTypeLocatedAt, 0.95, "registry"},
		{"Widget", "Acme Corp", model.EdgeTypeCreatedBy, 0.9, "catalog"},
		{"Widget", "Gizmo", model.EdgeTypeDependsOn, 0.8, "bom"},
		{"Chip Crisis", "Gizmo", model.EdgeTypeAffects, 0.7, "news"},
		{"Chip Crisis", "Widget", model.EdgeTypeAffects, 0.4, "rumor"},
	}
	for _, e := range edges {
		edge := &model.Edge{HeadID: ids[e.head], TailID: ids[e.tail], Type: e.edgeType, Confidence: e.confidence, SourceDocs: []string{e.doc}}
		if err := r.Store.InsertEdge(ctx, edge); err != nil {
			log.Fatalf("Failed to insert edge %s -> %s: %v", e.head, e.tail, err)
		}
	}

	// 1. Entity resolution
	fmt.Println("=== 1. Entity Resolution ===")
	resolved, err := r.ResolveEntity(ctx, model.ResolveRequest{Name: "ACME corp", Context: "Acme Corp in the supply chain example"})
	if err != nil {
		log.Fatalf("Resolve failed: %v", err)
	}
	fmt.Printf("ACME corp -> new=%v node=%s confidence=%.4f\n", resolved.IsNew, resolved.NodeID, resolved.Confidence)

	// 2. Traversal
	fmt.Println("\n=== 2. Breadth First Traversal ===")
	opts := model.DefaultTraversalOptions()
	opts.MaxHops = 2
	traversal, err := r.Traverse(ctx, ids["Chip Crisis"], opts)
	if err != nil {
		log.Fatalf("Traversal failed: %v", err)
	}
	for _, visited := range traversal.Nodes {
		fmt.Printf("  hop %d: %s\n", visited.Hop, visited.Node.Name)
	}

	// 3. All paths
	fmt.Println("\n=== 3. All Paths ===")
	paths, err := r.AllPaths(ctx, "Chip Crisis", "Berlin", model.DefaultPathOptions())
	if err != nil {
		log.Fatalf("Path query failed: %v", err)
	}
	for _, p := range paths {
		names := make([]string, len(p.Nodes))
		for i, n := range p.Nodes {
			names[i] = n.Name
		}
		fmt.Printf("  %s (confidence %.4f)\n", strings.Join(names, " -> "), p.Confidence)
	}

	// 4. Multi-hop with filters
	fmt.Println("\n=== 4. Multi-Hop Query ===")
	hops, err := r.NHop(ctx, ids["Chip Crisis"], 3, model.MultiHopOptions{EntityTypes: []model.NodeType{model.NodeTypeOrganization, model.NodeTypeLocation}})
	if err != nil {
		log.Fatalf("Multi-hop query failed: %v", err)
	}
	for _, h := range hops.Results {
		fmt.Printf("  %s at %d hops\n", h.Node.Name, h.HopCount)
	}

	// 5. Evidence chain
	fmt.Println("\n=== 5. Evidence Chain ===")
	chain, err := r.EvidenceChain(ctx, ids["Chip Crisis"], ids["Acme Corp"], 3, nil)
	if err != nil {
		log.Fatalf("Evidence chain failed: %v", err)
	}
	fmt.Printf("  %d paths, total confidence %.4f, sources %v\n", len(chain.Paths), chain.TotalConfidence, chain.SourceDocs)

	// 6. Quality and statistics
	fmt.Println("\n=== 6. Graph Quality ===")
	report, err := r.QualityReport(ctx)
	if err != nil {
		log.Fatalf("Quality report failed: %v", err)
	}
	fmt.Printf("  overall %.4f (%s)\n", report.OverallScore, report.Level)

	overview, err := r.Quality.Overview(ctx)
	if err != nil {
		log.Fatalf("Overview failed: %v", err)
	}
	fmt.Printf("  %d entities, %d relations, density %.6f\n", overview.EntityCount, overview.RelationCount, overview.Density)
}
