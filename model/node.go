package model

import (
	"strings"
	"time"
	"unicode"
)

// NodeType is the entity class of a node.
type NodeType string

const (
	NodeTypePerson       NodeType = "Person"
	NodeTypeOrganization NodeType = "Organization"
	NodeTypeLocation     NodeType = "Location"
	NodeTypeProduct      NodeType = "Product"
	NodeTypeEvent        NodeType = "Event"
	NodeTypeConcept      NodeType = "Concept"
)

// DefaultNodeTypes lists the entity types known to extraction.
var DefaultNodeTypes = []NodeType{
	NodeTypePerson,
	NodeTypeOrganization,
	NodeTypeLocation,
	NodeTypeProduct,
	NodeTypeEvent,
	NodeTypeConcept,
}

// Node is an entity vertex of the knowledge graph.
type Node struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        NodeType  `json:"type"`
	Description string    `json:"description,omitempty"`
	Confidence  float64   `json:"confidence"`
	Properties  Metadata  `json:"properties,omitempty"`
	SourceDocs  []string  `json:"source_docs,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NodeUpdate holds the mutable fields of a node. Nil fields are left unchanged,
// Properties are merged key by key.
type NodeUpdate struct {
	Name        *string   `json:"name,omitempty"`
	Type        *NodeType `json:"type,omitempty"`
	Description *string   `json:"description,omitempty"`
	Confidence  *float64  `json:"confidence,omitempty"`
	Properties  Metadata  `json:"properties,omitempty"`
}

// Apply writes the update into n.
func (u NodeUpdate) Apply(n *Node) {
	if u.Name != nil {
		n.Name = *u.Name
	}
	if u.Type != nil {
		n.Type = *u.Type
	}
	if u.Description != nil {
		n.Description = *u.Description
	}
	if u.Confidence != nil {
		n.Confidence = *u.Confidence
	}
	if len(u.Properties) > 0 {
		if n.Properties == nil {
			n.Properties = Metadata{}
		}
		for k, v := range u.Properties {
			n.Properties[k] = v
		}
	}
}

// Clone returns a deep enough copy for handing out of a store.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Properties = n.Properties.Clone()
	c.SourceDocs = append([]string(nil), n.SourceDocs...)
	return &c
}

// AddSourceDocs appends unseen document ids and reports whether anything changed.
func AddSourceDocs(docs []string, add ...string) ([]string, bool) {
	changed := false
	for _, d := range add {
		if d == "" || containsString(docs, d) {
			continue
		}
		docs = append(docs, d)
		changed = true
	}
	return docs, changed
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// NormalizeName lowercases a name and drops whitespace and every character
// that is not a letter, digit, underscore or CJK ideograph. Name matching in
// every store and in entity resolution compares normalized names.
func NormalizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsSpace(r):
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsNumber(r), r == '_':
			b.WriteRune(unicode.ToLower(r))
		case r >= 0x4e00 && r <= 0x9fff:
			b.WriteRune(r)
		}
	}
	return b.String()
}
