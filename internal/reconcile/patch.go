// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import (
	"fmt"

	"github.com/pdiddy/bibmatch/pkg/types"
)

// ForceOverwriteScore is the confidence at which an index record is
// trusted over the extracted values. At or above it, patch fields replace
// existing ones; below it, patches only fill blanks.
const ForceOverwriteScore = 0.95

// ApplyPatch merges an index patch into a reference. Blank patch values
// are never written, and ItemType is never patched: the index's notion of
// record type rarely aligns with the citation's role in the text.
func ApplyPatch(ref types.ExtractedReference, patch *types.ExtractedReference, force bool) types.ExtractedReference {
	if patch == nil {
		return ref
	}

	setField(&ref.Title, patch.Title, force)
	setField(&ref.Date, patch.Date, force)
	setField(&ref.Year, patch.Year, force)
	setField(&ref.PublicationTitle, patch.PublicationTitle, force)
	setField(&ref.Volume, patch.Volume, force)
	setField(&ref.Issue, patch.Issue, force)
	setField(&ref.Pages, patch.Pages, force)
	setField(&ref.DOI, patch.DOI, force)
	setField(&ref.ISBN, patch.ISBN, force)
	setField(&ref.ISSN, patch.ISSN, force)
	setField(&ref.URL, patch.URL, force)
	setField(&ref.Publisher, patch.Publisher, force)
	setField(&ref.Place, patch.Place, force)
	setField(&ref.Edition, patch.Edition, force)
	setField(&ref.BookTitle, patch.BookTitle, force)
	setField(&ref.ConferenceName, patch.ConferenceName, force)
	setField(&ref.ProceedingsTitle, patch.ProceedingsTitle, force)
	setField(&ref.University, patch.University, force)
	setField(&ref.ThesisType, patch.ThesisType, force)
	setField(&ref.Series, patch.Series, force)
	setField(&ref.SeriesNumber, patch.SeriesNumber, force)
	setField(&ref.NumPages, patch.NumPages, force)

	if len(patch.Authors) > 0 && (force || len(ref.Authors) == 0) {
		ref.Authors = append([]types.Author{}, patch.Authors...)
	}
	return ref
}

// setField writes a patch value over a reference field when the patch
// value is present and either force is set or the field is blank.
func setField(dst *string, value string, force bool) {
	if types.IsBlank(value) {
		return
	}
	if force || types.IsBlank(*dst) {
		*dst = value
	}
}

// patchConflicts lists the headline fields where a non-forced patch
// disagrees with values the reference already has. These surface as
// suggestions so the user can adopt the index value by hand.
func patchConflicts(ref types.ExtractedReference, patch *types.ExtractedReference, src types.Source) []string {
	if patch == nil {
		return nil
	}
	fields := []struct {
		name, have, want string
	}{
		{"title", ref.Title, patch.Title},
		{"year", ref.Year, patch.Year},
		{"DOI", ref.DOI, patch.DOI},
		{"publicationTitle", ref.PublicationTitle, patch.PublicationTitle},
		{"publisher", ref.Publisher, patch.Publisher},
	}
	var out []string
	for _, f := range fields {
		if types.IsBlank(f.have) || types.IsBlank(f.want) || f.have == f.want {
			continue
		}
		out = append(out, fmt.Sprintf("%s records %s %q (reference has %q)", src, f.name, f.want, f.have))
	}
	return out
}
