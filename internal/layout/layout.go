// Package layout parses and validates the declarative layout file: for
// each reference, an ordered list of UMI configurations naming the
// capture regions (cell barcodes, UMIs, static anchors) inside it. The
// YAML format itself is an out-of-scope collaborator per spec §1; this
// package wraps gopkg.in/yaml.v2 (a named, ungrounded ecosystem
// dependency -- see DESIGN.md) behind the Layout/ReferenceLayout types
// spec §3/§6 define.
package layout

import (
	"io"
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// SortType distinguishes closed-vocabulary (KnownTag) from
// open-vocabulary (DegenerateTag) capture regions.
type SortType string

const (
	KnownTag      SortType = "KNOWN"
	DegenerateTag SortType = "DEGENERATE"
)

// UMIConfiguration describes one capture region: its symbol, its position
// in sort order, and the parameters governing its correction/clustering.
type UMIConfiguration struct {
	Symbol   string   `yaml:"symbol"`
	Order    int      `yaml:"order"`
	SortType SortType `yaml:"sort_type"`

	// KnownTag fields.
	File        string `yaml:"file,omitempty"`
	MaxDistance int    `yaml:"max_distance"`

	// DegenerateTag fields.
	MaxGaps             *float64 `yaml:"max_gaps,omitempty"`
	MaximumSubsequences int      `yaml:"maximum_subsequences,omitempty"`

	Length                     int  `yaml:"length"`
	ReverseComplementSequences bool `yaml:"reverse_complement_sequences,omitempty"`
	Pad                        int  `yaml:"pad,omitempty"`
}

// SymbolByte returns the single-byte tag symbol, per spec's "a
// one-character symbol" contract.
func (c UMIConfiguration) SymbolByte() byte {
	if len(c.Symbol) == 0 {
		return 0
	}
	return c.Symbol[0]
}

// ReferenceLayout is the ordered set of UMI configurations declared for
// one reference.
type ReferenceLayout struct {
	ReferenceName string              `yaml:"reference"`
	Configs       []UMIConfiguration  `yaml:"umi_configurations"`
}

// Ordered returns Configs sorted by Order, ascending -- the order the sort
// driver processes tags in.
func (r *ReferenceLayout) Ordered() []UMIConfiguration {
	out := make([]UMIConfiguration, len(r.Configs))
	copy(out, r.Configs)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Order < out[j-1].Order; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// Layout is the full, parsed layout file: one ReferenceLayout per
// reference name.
type Layout struct {
	References map[string]*ReferenceLayout
}

// Parse reads a YAML layout document from r.
func Parse(r io.Reader) (*Layout, error) {
	raw, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "layout: reading input")
	}
	var doc struct {
		References []*ReferenceLayout `yaml:"references"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, "layout: parsing YAML")
	}
	l := &Layout{References: make(map[string]*ReferenceLayout)}
	for _, ref := range doc.References {
		l.References[ref.ReferenceName] = ref
	}
	return l, nil
}
