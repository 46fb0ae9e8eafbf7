// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"io"
	"strconv"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bibmatch/internal/textnorm"
	"github.com/pdiddy/bibmatch/pkg/types"
)

// CSLItem is a bibliographic entry in CSL (Citation Style Language)
// format. The field names follow the CSL-JSON/CSL-YAML schema so that
// output is consumable by Pandoc and reference managers.
type CSLItem struct {
	ID             string    `yaml:"id"`
	Type           string    `yaml:"type"`
	Title          string    `yaml:"title"`
	Author         []CSLName `yaml:"author,omitempty"`
	ContainerTitle string    `yaml:"container-title,omitempty"`
	Publisher      string    `yaml:"publisher,omitempty"`
	PublisherPlace string    `yaml:"publisher-place,omitempty"`
	Volume         string    `yaml:"volume,omitempty"`
	Issue          string    `yaml:"issue,omitempty"`
	Page           string    `yaml:"page,omitempty"`
	Edition        string    `yaml:"edition,omitempty"`
	Issued         *CSLDate  `yaml:"issued,omitempty"`
	DOI            string    `yaml:"DOI,omitempty"`
	ISBN           string    `yaml:"ISBN,omitempty"`
	ISSN           string    `yaml:"ISSN,omitempty"`
	URL            string    `yaml:"URL,omitempty"`
}

// CSLName is a person's name in CSL format.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate is a date in CSL format using date-parts.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// cslTypes maps item types onto CSL types.
var cslTypes = map[types.ItemType]string{
	types.ItemJournalArticle:  "article-journal",
	types.ItemBook:            "book",
	types.ItemBookSection:     "chapter",
	types.ItemConferencePaper: "paper-conference",
	types.ItemThesis:          "thesis",
	types.ItemWebpage:         "webpage",
	types.ItemReport:          "report",
	types.ItemPatent:          "patent",
	types.ItemPreprint:        "article",
}

// FormatCSL writes references as a CSL-YAML list to w.
func FormatCSL(refs []types.ExtractedReference, w io.Writer) error {
	items := make([]CSLItem, len(refs))
	for i, ref := range refs {
		items[i] = toCSLItem(ref)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

func toCSLItem(ref types.ExtractedReference) CSLItem {
	cslType, ok := cslTypes[ref.ItemType]
	if !ok {
		cslType = "document"
	}

	item := CSLItem{
		ID:             CitationKey(ref),
		Type:           cslType,
		Title:          ref.Title,
		ContainerTitle: containerTitle(ref),
		Publisher:      blankGuard(ref.Publisher),
		PublisherPlace: blankGuard(ref.Place),
		Volume:         blankGuard(ref.Volume),
		Issue:          blankGuard(ref.Issue),
		Page:           blankGuard(ref.Pages),
		Edition:        blankGuard(ref.Edition),
		DOI:            textnorm.NormalizeDOI(ref.DOI),
		ISBN:           blankGuard(ref.ISBN),
		ISSN:           blankGuard(ref.ISSN),
		URL:            blankGuard(ref.URL),
	}

	for _, a := range ref.Authors {
		item.Author = append(item.Author, toCSLName(a))
	}

	if year := ref.YearString(); year != "" {
		if y, err := strconv.Atoi(year); err == nil {
			item.Issued = &CSLDate{DateParts: [][]int{{y}}}
		}
	}

	return item
}

// containerTitle picks the CSL container for the item type: the journal
// for articles, the parent book for chapters, the proceedings for papers.
func containerTitle(ref types.ExtractedReference) string {
	for _, c := range []string{ref.PublicationTitle, ref.BookTitle, ref.ProceedingsTitle, ref.ConferenceName} {
		if !types.IsBlank(c) {
			return c
		}
	}
	return ""
}

func toCSLName(a types.Author) CSLName {
	switch {
	case types.IsBlank(a.FirstName) && types.IsBlank(a.LastName):
		return CSLName{}
	case types.IsBlank(a.FirstName):
		return CSLName{Literal: a.LastName}
	default:
		return CSLName{Given: a.FirstName, Family: a.LastName}
	}
}

func blankGuard(s string) string {
	if types.IsBlank(s) {
		return ""
	}
	return s
}
