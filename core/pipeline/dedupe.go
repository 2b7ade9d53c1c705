package pipeline

import (
	"slices"
	"strings"

	"github.com/siherrmann/graphreason/core/resolve"
	"github.com/siherrmann/graphreason/model"
)

// entityKey identifies duplicate candidates of one document.
func entityKey(e *model.CandidateEntity) string {
	return string(e.Type) + "_" + resolve.Normalize(e.Name)
}

func relationKey(r *model.CandidateRelation) string {
	return resolve.Normalize(r.Head) + "|" + string(r.Type) + "|" + resolve.Normalize(r.Tail)
}

// DedupeEntities merges candidates with the same type and normalized name.
// The first mention keeps its name, later names become aliases, descriptions
// are joined, missing properties are copied and confidences are averaged.
func DedupeEntities(entities []*model.CandidateEntity) []*model.CandidateEntity {
	groups := map[string][]*model.CandidateEntity{}
	order := []string{}
	for _, e := range entities {
		if e == nil || strings.TrimSpace(e.Name) == "" {
			continue
		}
		key := entityKey(e)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], e)
	}

	deduped := make([]*model.CandidateEntity, 0, len(order))
	for _, key := range order {
		deduped = append(deduped, mergeEntities(groups[key]))
	}
	return deduped
}

func mergeEntities(group []*model.CandidateEntity) *model.CandidateEntity {
	primary := group[0]
	merged := &model.CandidateEntity{
		Name:       primary.Name,
		Type:       primary.Type,
		Properties: primary.Properties.Clone(),
		Aliases:    append([]string{}, primary.Aliases...),
	}

	descriptions := []string{}
	confidenceSum := 0.0
	for _, e := range group {
		if e.Description != "" && !slices.Contains(descriptions, e.Description) {
			descriptions = append(descriptions, e.Description)
		}
		for _, alias := range append([]string{e.Name}, e.Aliases...) {
			if alias != primary.Name && !slices.Contains(merged.Aliases, alias) {
				merged.Aliases = append(merged.Aliases, alias)
			}
		}
		merged.Properties = merged.Properties.MergeMissing(e.Properties)
		merged.SourceCount += max(e.SourceCount, 1)
		confidenceSum += e.Confidence
	}
	merged.Description = strings.Join(descriptions, " ")
	merged.Confidence = confidenceSum / float64(len(group))
	return merged
}

// DedupeRelations merges candidates with the same head, type and tail. Every
// repetition raises the confidence by 0.1 up to 1 and adds new evidence.
func DedupeRelations(relations []*model.CandidateRelation) []*model.CandidateRelation {
	byKey := map[string]*model.CandidateRelation{}
	deduped := []*model.CandidateRelation{}
	for _, r := range relations {
		if r == nil {
			continue
		}
		key := relationKey(r)
		existing, ok := byKey[key]
		if !ok {
			c := *r
			c.Properties = r.Properties.Clone()
			c.SourceCount = max(r.SourceCount, 1)
			byKey[key] = &c
			deduped = append(deduped, &c)
			continue
		}

		existing.SourceCount++
		existing.Confidence = min(1.0, existing.Confidence+0.1)
		existing.Evidence = joinEvidence(existing.Evidence, r.Evidence)
		existing.Properties = existing.Properties.MergeMissing(r.Properties)
	}
	return deduped
}

// joinEvidence appends evidence that is not contained yet.
func joinEvidence(existing string, evidence string) string {
	switch {
	case evidence == "" || strings.Contains(existing, evidence):
		return existing
	case existing == "":
		return evidence
	}
	return existing + "; " + evidence
}

// ValidateRelations splits relations into those whose endpoints are among the
// given entities and the rejected rest.
func ValidateRelations(relations []*model.CandidateRelation, entities []*model.CandidateEntity) (valid []*model.CandidateRelation, rejected []*model.CandidateRelation) {
	names := map[string]struct{}{}
	for _, e := range entities {
		if e == nil {
			continue
		}
		names[resolve.Normalize(e.Name)] = struct{}{}
		for _, alias := range e.Aliases {
			names[resolve.Normalize(alias)] = struct{}{}
		}
	}

	for _, r := range relations {
		if r == nil {
			continue
		}
		_, headOk := names[resolve.Normalize(r.Head)]
		_, tailOk := names[resolve.Normalize(r.Tail)]
		if headOk && tailOk {
			valid = append(valid, r)
		} else {
			rejected = append(rejected, r)
		}
	}
	return valid, rejected
}

func filterEntities(entities []*model.CandidateEntity, c Config) []*model.CandidateEntity {
	filtered := []*model.CandidateEntity{}
	for _, e := range entities {
		if e.Confidence < c.EntityMinConfidence {
			continue
		}
		if len(c.NodeTypes) > 0 && !slices.Contains(c.NodeTypes, e.Type) {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered
}

func filterRelations(relations []*model.CandidateRelation, c Config) []*model.CandidateRelation {
	filtered := []*model.CandidateRelation{}
	for _, r := range relations {
		if r.Confidence < c.RelationMinConfidence {
			continue
		}
		if len(c.EdgeTypes) > 0 && !slices.Contains(c.EdgeTypes, r.Type) {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}
