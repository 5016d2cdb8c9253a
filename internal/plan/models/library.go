package models

import (
	"slices"

	"arho/internal/plan/fingerprint"
)

// LibraryType classifies where a library came from.
type LibraryType string

const (
	LibraryDefault    LibraryType = "default"
	LibraryCustom     LibraryType = "custom"
	LibraryActivePlan LibraryType = "active_plan"
)

// Library is the metadata every template library shares.
type Library struct {
	Name        string      `json:"name"`
	FilePath    string      `json:"file_path,omitempty"`
	Version     *int        `json:"version,omitempty"`
	Description string      `json:"description,omitempty"`
	Status      bool        `json:"status"`
	Type        LibraryType `json:"library_type"`
}

// RegulationGroupLibrary is a named collection of reusable regulation groups.
type RegulationGroupLibrary struct {
	Library
	Groups []*RegulationGroup `json:"plan_regulation_groups"`
}

// HashIndex indexes the library's groups by content.
func (l *RegulationGroupLibrary) HashIndex() *fingerprint.Index[*RegulationGroup] {
	return fingerprint.BuildIndex(l.Groups)
}

// LetterCodes returns the sorted distinct non-empty letter codes in use.
func (l *RegulationGroupLibrary) LetterCodes() []string {
	codes := make([]string, 0, len(l.Groups))
	for _, g := range l.Groups {
		if g.LetterCode != "" && !slices.Contains(codes, g.LetterCode) {
			codes = append(codes, g.LetterCode)
		}
	}
	slices.Sort(codes)
	return codes
}

// Categories groups the library's groups by category, preserving order.
func (l *RegulationGroupLibrary) Categories() map[string][]*RegulationGroup {
	out := make(map[string][]*RegulationGroup)
	for _, g := range l.Groups {
		category := g.Category
		if category == "" {
			category = DefaultCategory
		}
		out[category] = append(out[category], g)
	}
	return out
}

// PlanFeatureLibrary is a named collection of plan object templates.
type PlanFeatureLibrary struct {
	Library
	Features []*PlanObject `json:"plan_features"`
}
