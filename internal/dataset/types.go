package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// FunnelStage is one bar of a monthly funnel. A stage may carry either a flat
// sub_category list or a keyed breakdown; both make it expandable.
type FunnelStage struct {
	Stage         string        `yaml:"stage" json:"stage"`
	Label         string        `yaml:"label" json:"label"`
	Count         int64         `yaml:"count" json:"count"`
	Percentage    float64       `yaml:"percentage" json:"percentage"`
	Color         string        `yaml:"color,omitempty" json:"color,omitempty"`
	HasErrorCodes bool          `yaml:"has_error_codes,omitempty" json:"has_error_codes,omitempty"`
	HasPageURLs   bool          `yaml:"has_page_urls,omitempty" json:"has_page_urls,omitempty"`
	TxnType       TxnType       `yaml:"txn_type,omitempty" json:"txn_type,omitempty"`
	SubCategory   []FunnelStage `yaml:"sub_category,omitempty" json:"sub_category,omitempty"`
	Breakdown     *Breakdown    `yaml:"breakdown,omitempty" json:"breakdown,omitempty"`
}

// BreakdownEntry is a keyed child of a stage breakdown.
type BreakdownEntry struct {
	Label         string  `yaml:"label" json:"label"`
	Count         int64   `yaml:"count" json:"count"`
	Percentage    float64 `yaml:"percentage" json:"percentage"`
	Color         string  `yaml:"color,omitempty" json:"color,omitempty"`
	HasErrorCodes bool    `yaml:"has_error_codes,omitempty" json:"has_error_codes,omitempty"`
	HasPageURLs   bool    `yaml:"has_page_urls,omitempty" json:"has_page_urls,omitempty"`
	TxnType       TxnType `yaml:"txn_type,omitempty" json:"txn_type,omitempty"`
}

// Child is a normalised expandable child with its stable identity key.
type Child struct {
	ID    string         `json:"id"`
	Entry BreakdownEntry `json:"entry"`
}

// Expandable reports whether the stage has any children to drill into.
func (s FunnelStage) Expandable() bool {
	return len(s.SubCategory) > 0 || s.Breakdown.Len() > 0
}

// Children converts either child representation into one ordered sequence.
// When both are populated the sub_category list wins.
func (s FunnelStage) Children() []Child {
	if len(s.SubCategory) > 0 {
		children := make([]Child, 0, len(s.SubCategory))
		for _, sub := range s.SubCategory {
			id := sub.Stage
			if id == "" {
				id = sub.Label
			}
			children = append(children, Child{ID: id, Entry: sub.entry()})
		}
		return children
	}
	children := make([]Child, 0, s.Breakdown.Len())
	if s.Breakdown != nil {
		for _, id := range s.Breakdown.keys {
			children = append(children, Child{ID: id, Entry: s.Breakdown.entries[id]})
		}
	}
	return children
}

// Child looks up a child by identity key.
func (s FunnelStage) Child(id string) (Child, bool) {
	for _, child := range s.Children() {
		if child.ID == id {
			return child, true
		}
	}
	return Child{}, false
}

func (s FunnelStage) entry() BreakdownEntry {
	return BreakdownEntry{
		Label:         s.Label,
		Count:         s.Count,
		Percentage:    s.Percentage,
		Color:         s.Color,
		HasErrorCodes: s.HasErrorCodes,
		HasPageURLs:   s.HasPageURLs,
		TxnType:       s.TxnType,
	}
}

// Breakdown is an insertion-ordered map of breakdown entries.
type Breakdown struct {
	keys    []string
	entries map[string]BreakdownEntry
}

// NewBreakdown returns an empty breakdown ready for Set.
func NewBreakdown() *Breakdown {
	return &Breakdown{entries: make(map[string]BreakdownEntry)}
}

// Set adds or replaces an entry. Replacing keeps the original position.
func (b *Breakdown) Set(id string, entry BreakdownEntry) *Breakdown {
	if b.entries == nil {
		b.entries = make(map[string]BreakdownEntry)
	}
	if _, exists := b.entries[id]; !exists {
		b.keys = append(b.keys, id)
	}
	b.entries[id] = entry
	return b
}

// Get returns the entry stored under id.
func (b *Breakdown) Get(id string) (BreakdownEntry, bool) {
	if b == nil {
		return BreakdownEntry{}, false
	}
	entry, ok := b.entries[id]
	return entry, ok
}

// Len is safe on a nil receiver.
func (b *Breakdown) Len() int {
	if b == nil {
		return 0
	}
	return len(b.keys)
}

// Keys returns the identity keys in source order.
func (b *Breakdown) Keys() []string {
	if b == nil {
		return nil
	}
	return append([]string(nil), b.keys...)
}

// UnmarshalYAML decodes a mapping node keeping the document order of its keys.
func (b *Breakdown) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("breakdown: expected mapping at line %d", node.Line)
	}
	b.keys = nil
	b.entries = make(map[string]BreakdownEntry, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var entry BreakdownEntry
		if err := node.Content[i+1].Decode(&entry); err != nil {
			return fmt.Errorf("breakdown %q: %w", node.Content[i].Value, err)
		}
		b.Set(node.Content[i].Value, entry)
	}
	return nil
}

// MarshalJSON writes the entries as an object in source order.
func (b *Breakdown) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range b.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(b.entries[id])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ErrorCodeRecord counts one internal error code.
type ErrorCodeRecord struct {
	Code  string `yaml:"code" json:"code"`
	Count int64  `yaml:"count" json:"count"`
}

// FailureReasonRecord maps an internal error code to a curated failure reason.
type FailureReasonRecord struct {
	Month               string `yaml:"mth" json:"mth"`
	Count               int64  `yaml:"cnt" json:"cnt"`
	LastInternalErrCode string `yaml:"last_intrnl_err_code" json:"last_intrnl_err_code"`
	FailureReason       string `yaml:"failure_reason" json:"failure_reason"`
}

// CSHelpPages is the sentinel grouping all customer help pages.
const CSHelpPages = "cshelp_pages"

// LoginPageURLRecord counts logins landing on a grouped page URL.
type LoginPageURLRecord struct {
	PageURL string `yaml:"pu_grouped" json:"pu_grouped"`
	Count   int64  `yaml:"cnt" json:"cnt"`
}

// InferTxnType picks the error code table family for a flagged child. An
// explicit txn_type wins; otherwise invoice children are recognised by name.
func InferTxnType(child Child) TxnType {
	if child.Entry.TxnType != TxnNone {
		return child.Entry.TxnType
	}
	name := strings.ToLower(child.ID + " " + child.Entry.Label)
	if strings.Contains(name, "invoice") || strings.Contains(name, "inv_") {
		return TxnInvoice
	}
	return TxnEC
}
