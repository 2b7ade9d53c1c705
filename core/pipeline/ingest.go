package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/siherrmann/graphreason/core/resolve"
	"github.com/siherrmann/graphreason/helper"
	"github.com/siherrmann/graphreason/model"
)

// AliasesProperty is the node property holding the alternative names of an entity.
const AliasesProperty = "aliases"

// Ingest extracts entities and relations from a document and writes them into
// the graph. Existing nodes and edges are merged instead of duplicated, the
// document id is added to the provenance of everything it touches.
//
// Extraction failures of single chunks are recorded in the result, store
// failures abort the ingestion and return the partial result.
func (p *Pipeline) Ingest(ctx context.Context, docID string, text string) (*model.IngestResult, error) {
	if strings.TrimSpace(docID) == "" {
		return nil, helper.NewError("ingest", helper.Invalid("document id is required"))
	}
	if p.Extractor == nil {
		return nil, helper.NewError("ingest", helper.Invalid("no extractor set"))
	}

	result := &model.IngestResult{
		DocID:        docID,
		CreatedNodes: []string{},
		MergedNodes:  []string{},
		CreatedEdges: []string{},
		MergedEdges:  []string{},
	}

	entities, relations, err := p.extract(ctx, docID, text, result)
	if err != nil {
		return nil, helper.NewError("ingest", err)
	}

	ids, err := p.storeEntities(ctx, docID, entities, result)
	if err != nil {
		return result, helper.NewError("ingest", err)
	}
	err = p.storeRelations(ctx, docID, relations, ids, result)
	if err != nil {
		return result, helper.NewError("ingest", err)
	}

	p.logger.Info(
		"Ingested document",
		slog.String("doc_id", docID),
		slog.Int("created_nodes", len(result.CreatedNodes)),
		slog.Int("merged_nodes", len(result.MergedNodes)),
		slog.Int("created_edges", len(result.CreatedEdges)),
		slog.Int("merged_edges", len(result.MergedEdges)),
		slog.Int("rejected_relations", result.RejectedRelation),
	)
	return result, nil
}

// extract runs the extractor on every chunk and returns the deduplicated and
// filtered candidates.
func (p *Pipeline) extract(ctx context.Context, docID string, text string, result *model.IngestResult) ([]*model.CandidateEntity, []*model.CandidateRelation, error) {
	chunks := []Chunk{{Content: text, Path: docID, EndPos: len(text)}}
	if p.Chunker != nil {
		var err error
		chunks, err = p.Chunker(text, docID)
		if err != nil {
			return nil, nil, err
		}
	}

	var allEntities []*model.CandidateEntity
	var allRelations []*model.CandidateRelation
	for _, chunk := range chunks {
		if strings.TrimSpace(chunk.Content) == "" {
			continue
		}
		entities, relations, err := p.Extractor(ctx, chunk.Content)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			p.logger.Warn("Extraction failed for chunk", slog.String("path", chunk.Path), slog.String("error", err.Error()))
			result.Errors = append(result.Errors, chunk.Path+": "+err.Error())
			continue
		}

		valid, rejected := ValidateRelations(relations, entities)
		result.RejectedRelation += len(rejected)
		allEntities = append(allEntities, entities...)
		allRelations = append(allRelations, valid...)
	}

	return filterEntities(DedupeEntities(allEntities), p.config), filterRelations(DedupeRelations(allRelations), p.config), nil
}

// storeEntities inserts or merges every entity and returns the node id per
// normalized name and alias.
func (p *Pipeline) storeEntities(ctx context.Context, docID string, entities []*model.CandidateEntity, result *model.IngestResult) (map[string]string, error) {
	ids := map[string]string{}
	bind := func(e *model.CandidateEntity, id string) {
		for _, name := range append([]string{e.Name}, e.Aliases...) {
			key := resolve.Normalize(name)
			if _, ok := ids[key]; !ok {
				ids[key] = id
			}
		}
	}

	pending := []*model.CandidateEntity{}
	for _, e := range entities {
		existing, err := p.store.SelectNodeByName(ctx, e.Name, &e.Type)
		if err != nil {
			if !helper.IsNotFound(err) {
				return ids, err
			}
			pending = append(pending, e)
			continue
		}
		err = p.mergeNode(ctx, existing, e, docID)
		if err != nil {
			return ids, err
		}
		result.MergedNodes = append(result.MergedNodes, existing.ID)
		bind(e, existing.ID)
	}

	resolved := make([]*model.ResolveResult, len(pending))
	if p.resolver != nil && len(pending) > 0 {
		requests := make([]model.ResolveRequest, len(pending))
		for i, e := range pending {
			nodeType := e.Type
			requests[i] = model.ResolveRequest{Name: e.Name, Type: &nodeType, Context: e.Description}
		}
		var err error
		resolved, err = p.resolver.ResolveBatch(ctx, requests, "")
		if err != nil {
			return ids, err
		}
	}

	for i, e := range pending {
		if r := resolved[i]; r != nil && !r.IsNew {
			existing, err := p.store.SelectNode(ctx, r.NodeID)
			if err != nil {
				return ids, err
			}
			err = p.mergeNode(ctx, existing, e, docID)
			if err != nil {
				return ids, err
			}
			result.MergedNodes = append(result.MergedNodes, existing.ID)
			bind(e, existing.ID)
			continue
		}

		node := &model.Node{
			ID:          uuid.New().String(),
			Name:        e.Name,
			Type:        e.Type,
			Description: e.Description,
			Confidence:  e.Confidence,
			Properties:  e.Properties.Clone(),
			SourceDocs:  []string{docID},
		}
		if len(e.Aliases) > 0 {
			node.Properties = node.Properties.MergeMissing(model.Metadata{AliasesProperty: strings.Join(e.Aliases, ", ")})
		}
		err := p.store.InsertNode(ctx, node)
		if err != nil {
			return ids, err
		}
		result.CreatedNodes = append(result.CreatedNodes, node.ID)
		bind(e, node.ID)
	}
	return ids, nil
}

// mergeNode copies missing description and properties and the higher
// confidence of e into node and links the document.
func (p *Pipeline) mergeNode(ctx context.Context, node *model.Node, e *model.CandidateEntity, docID string) error {
	update := model.NodeUpdate{Properties: model.Metadata{}}
	for k, v := range e.Properties {
		if _, ok := node.Properties[k]; !ok {
			update.Properties[k] = v
		}
	}
	if node.Description == "" && e.Description != "" {
		update.Description = &e.Description
	}
	if e.Confidence > node.Confidence {
		update.Confidence = &e.Confidence
	}

	if len(update.Properties) > 0 || update.Description != nil || update.Confidence != nil {
		_, err := p.store.UpdateNode(ctx, node.ID, update)
		if err != nil {
			return err
		}
	}
	_, err := p.store.LinkNodeSourceDoc(ctx, node.ID, docID)
	return err
}

// storeRelations inserts new edges and merges relations into existing edges of
// the same type between the same nodes.
func (p *Pipeline) storeRelations(ctx context.Context, docID string, relations []*model.CandidateRelation, ids map[string]string, result *model.IngestResult) error {
	for _, r := range relations {
		headID, headOk := ids[resolve.Normalize(r.Head)]
		tailID, tailOk := ids[resolve.Normalize(r.Tail)]
		if !headOk || !tailOk {
			p.logger.Debug("Skipping relation with unknown entity", slog.String("head", r.Head), slog.String("tail", r.Tail))
			result.RejectedRelation++
			continue
		}

		edgeType := r.Type
		existing, err := p.store.SelectEdgesBetween(ctx, headID, tailID, &edgeType)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			err = p.mergeEdge(ctx, existing[0], r, docID)
			if err != nil {
				return err
			}
			result.MergedEdges = append(result.MergedEdges, existing[0].ID)
			continue
		}

		edge := &model.Edge{
			ID:         uuid.New().String(),
			Type:       r.Type,
			HeadID:     headID,
			TailID:     tailID,
			Confidence: r.Confidence,
			Evidence:   r.Evidence,
			Properties: r.Properties.Clone(),
			SourceDocs: []string{docID},
		}
		err = p.store.InsertEdge(ctx, edge)
		if err != nil {
			return err
		}
		result.CreatedEdges = append(result.CreatedEdges, edge.ID)
	}
	return nil
}

func (p *Pipeline) mergeEdge(ctx context.Context, edge *model.Edge, r *model.CandidateRelation, docID string) error {
	update := model.EdgeUpdate{Properties: model.Metadata{}}
	for k, v := range r.Properties {
		if _, ok := edge.Properties[k]; !ok {
			update.Properties[k] = v
		}
	}
	if evidence := joinEvidence(edge.Evidence, r.Evidence); evidence != edge.Evidence {
		update.Evidence = &evidence
	}
	if r.Confidence > edge.Confidence {
		update.Confidence = &r.Confidence
	}

	if len(update.Properties) > 0 || update.Evidence != nil || update.Confidence != nil {
		_, err := p.store.UpdateEdge(ctx, edge.ID, update)
		if err != nil {
			return err
		}
	}
	_, err := p.store.LinkEdgeSourceDoc(ctx, edge.ID, docID)
	return err
}
