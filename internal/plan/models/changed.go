package models

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	id "arho/pkg/domain"
)

// compareOptions ignore identity, write intent, parent keys and transient fields.
// Nested child collections and theme links are not compared either: every child
// carries its own write intent and links are reconciled on each save. Plain
// value collections compare as sets, matching the content hash.
var compareOptions = cmp.Options{
	cmpopts.IgnoreFields(State{}, "ID", "Modified"),
	cmpopts.IgnoreFields(Plan{}, "PlanMatterID", "GeneralRegulations", "Documents"),
	cmpopts.IgnoreFields(PlanObject{}, "PlanID", "RegulationGroups"),
	cmpopts.IgnoreFields(RegulationGroup{}, "Category", "PlanID", "Regulations", "Propositions"),
	cmpopts.IgnoreFields(Regulation{}, "Files", "GroupID", "AdditionalInformation", "ThemeIDs"),
	cmpopts.IgnoreFields(Proposition{}, "GroupID", "ThemeIDs"),
	cmpopts.IgnoreFields(AdditionalInformation{}, "RegulationID"),
	cmpopts.IgnoreFields(Document{}, "PlanID"),
	cmpopts.EquateEmpty(),
	cmpopts.SortSlices(func(a, b id.ID) bool { return a < b }),
	cmpopts.SortSlices(func(a, b string) bool { return a < b }),
}

// Changed reports whether edited differs from original in any field stored in
// its own row.
func Changed[T Entity](original, edited T) bool {
	return !cmp.Equal(original, edited, compareOptions)
}

// Diff describes the content difference between two snapshots, empty when equal.
func Diff[T Entity](original, edited T) string {
	return cmp.Diff(original, edited, compareOptions)
}

// MarkIfChanged sets the write intent on edited when it differs from original.
// It never clears an intent that was already set.
func MarkIfChanged[T Entity](original, edited T) bool {
	if Changed(original, edited) {
		edited.MarkModified()
		return true
	}
	return false
}
