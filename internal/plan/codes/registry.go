// Package codes resolves code list values (regulation types, themes, legal
// effects and the like) to the identifiers stored on plan rows.
package codes

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"arho/internal/plan/models"
	"arho/internal/plan/store"
	id "arho/pkg/domain"
	dErrors "arho/pkg/domain-errors"
)

// Code lists the plan model refers to.
const (
	ListRegulationType            = "type_of_plan_regulation"
	ListRegulationGroupType       = "type_of_plan_regulation_group"
	ListAdditionalInformationType = "type_of_additional_information"
	ListUndergroundType           = "type_of_underground"
	ListVerbalRegulationType      = "type_of_verbal_plan_regulation"
	ListPlanTheme                 = "plan_theme"
	ListLegalEffect               = "type_of_legal_effects"
	ListLifecycleStatus           = "lifecycle_status"
)

// GeneralRegulationsValue is the regulation group type of general regulation
// groups.
const GeneralRegulationsValue = "generalRegulations"

// Code is one entry of a code list. DataType and Unit are the attribute value
// defaults of regulation and additional information types.
type Code struct {
	ID       id.ID           `json:"id" yaml:"-"`
	List     string          `json:"code_list" yaml:"code_list"`
	Value    string          `json:"value" yaml:"value"`
	Title    string          `json:"title,omitempty" yaml:"title,omitempty"`
	DataType models.DataType `json:"value_data_type,omitempty" yaml:"value_data_type,omitempty"`
	Unit     string          `json:"unit,omitempty" yaml:"unit,omitempty"`
}

type key struct {
	list  string
	value string
}

// Registry maps (code list, value) to codes and back. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	byValue map[key]Code
	byID    map[id.ID]Code
}

// NewRegistry returns a registry seeded with codes.
func NewRegistry(codes ...Code) *Registry {
	r := &Registry{
		byValue: make(map[key]Code),
		byID:    make(map[id.ID]Code),
	}
	r.Add(codes...)
	return r
}

// Add registers codes, replacing entries with the same list and value.
func (r *Registry) Add(codes ...Code) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range codes {
		if old, ok := r.byValue[key{c.List, c.Value}]; ok {
			delete(r.byID, old.ID)
		}
		r.byValue[key{c.List, c.Value}] = c
		r.byID[c.ID] = c
	}
}

// Lookup finds a code by list and value.
func (r *Registry) Lookup(list, value string) (Code, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byValue[key{list, value}]
	return c, ok
}

// ID returns the identifier of a code.
func (r *Registry) ID(list, value string) (id.ID, bool) {
	c, ok := r.Lookup(list, value)
	return c.ID, ok
}

// ByID finds a code by identifier.
func (r *Registry) ByID(v id.ID) (Code, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[v]
	return c, ok
}

// Defaults returns the attribute value defaults of a regulation or
// additional information type.
func (r *Registry) Defaults(typeID id.ID) models.AttributeValue {
	c, _ := r.ByID(typeID)
	return models.AttributeValue{DataType: c.DataType, Unit: c.Unit}
}

// GeneralGroupType returns the id of the general regulations group type, or
// the zero id when the registry does not know it.
func (r *Registry) GeneralGroupType() id.ID {
	v, _ := r.ID(ListRegulationGroupType, GeneralRegulationsValue)
	return v
}

// All returns every code ordered by list and value.
func (r *Registry) All() []Code {
	r.mu.RLock()
	out := make([]Code, 0, len(r.byValue))
	for _, c := range r.byValue {
		out = append(out, c)
	}
	r.mu.RUnlock()
	slices.SortFunc(out, func(a, b Code) int {
		if n := strings.Compare(a.List, b.List); n != 0 {
			return n
		}
		return strings.Compare(a.Value, b.Value)
	})
	return out
}

// Len returns the number of codes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byValue)
}

// Load reads every code_value row through gw.
func Load(ctx context.Context, gw store.Gateway) (*Registry, error) {
	recs, err := gw.Query(ctx, store.KindCode, nil)
	if err != nil {
		return nil, fmt.Errorf("load codes: %w", err)
	}
	r := NewRegistry()
	for _, rec := range recs {
		r.Add(Code{
			ID:       rec.ID(),
			List:     rec.String("code_list"),
			Value:    rec.String("value"),
			Title:    rec.String("title"),
			DataType: models.DataType(rec.String("value_data_type")),
			Unit:     rec.String("unit"),
		})
	}
	return r, nil
}

// Seed inserts codes that gw does not have yet and stores the assigned ids
// back into the returned slice.
func Seed(ctx context.Context, gw store.Gateway, codes []Code) ([]Code, error) {
	existing, err := Load(ctx, gw)
	if err != nil {
		return nil, err
	}
	out := make([]Code, 0, len(codes))
	for _, c := range codes {
		if found, ok := existing.Lookup(c.List, c.Value); ok {
			out = append(out, found)
			continue
		}
		rec := store.Record{
			"code_list":       c.List,
			"value":           c.Value,
			"title":           optional(c.Title),
			"value_data_type": optional(string(c.DataType)),
			"unit":            optional(c.Unit),
		}
		v, err := gw.Upsert(ctx, store.KindCode, rec, "")
		if err != nil {
			return nil, fmt.Errorf("seed code %s/%s: %w", c.List, c.Value, err)
		}
		c.ID = v
		out = append(out, c)
	}
	return out, nil
}

// ParseSeed decodes a YAML list of codes for Seed. Every entry needs a code
// list and a value.
func ParseSeed(data []byte) ([]Code, error) {
	var out []Code
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid code seed document")
	}
	for i, c := range out {
		if c.List == "" || c.Value == "" {
			return nil, dErrors.Newf(dErrors.CodeValidation, "code %d: code_list and value are required", i)
		}
	}
	return out, nil
}

func optional(v string) any {
	if v == "" {
		return nil
	}
	return v
}
