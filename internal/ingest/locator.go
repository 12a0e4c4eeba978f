package ingest

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// The council has published the listing under at least two DOM shapes across
// page revisions. Each shape is a strategy that either yields entries or
// reports no match, and locateEntries falls through the ordered list. A page
// matching no shape yields zero entries, which is a valid empty result.

type entryShape interface {
	name() string
	locate(doc *goquery.Document, closingHeading string) []EntryFragment
}

var entryShapes = []entryShape{
	genericListShape{},
	paragraphShape{},
}

var closingHeadingRe = regexp.MustCompile(`(?i)\bclosing\b`)

// findClosingHeading picks the page-level heading that carries the notice
// closing date, shared by every entry on the page.
func findClosingHeading(doc *goquery.Document) string {
	heading := ""
	doc.Find("h1, h2, h3, h4, .generic-list__heading").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		text := cleanFragmentText(sel.Text())
		if closingHeadingRe.MatchString(text) {
			heading = text
			return false
		}
		return true
	})
	return heading
}

// locateEntries walks the parsed page and returns the entry fragments found
// by the first shape that matches, plus the shape's name for logging.
func locateEntries(doc *goquery.Document) ([]EntryFragment, string) {
	heading := findClosingHeading(doc)
	for _, shape := range entryShapes {
		if entries := shape.locate(doc, heading); len(entries) > 0 {
			return entries, shape.name()
		}
	}
	return nil, ""
}

// genericListShape matches the current page revision: a tab pane holding
// "generic list" items, each with a linked title and a caption span.
type genericListShape struct{}

func (genericListShape) name() string { return "generic_list" }

func (genericListShape) locate(doc *goquery.Document, closingHeading string) []EntryFragment {
	var entries []EntryFragment
	doc.Find(".tab-pane .generic-list__item").Each(func(i int, item *goquery.Selection) {
		titleLink := item.Find(".generic-list__title a").First()
		title := cleanFragmentText(titleLink.Text())
		if title == "" {
			// No title means no reference code, so nothing to key on.
			return
		}
		entries = append(entries, EntryFragment{
			Title:          title,
			Descriptor:     cleanFragmentText(item.Find("span").First().Text()),
			Link:           strings.TrimSpace(titleLink.AttrOr("href", "")),
			ClosingHeading: closingHeading,
		})
	})
	return entries
}

// paragraphShape matches the older revision: a container of paragraphs, each
// holding exactly two links (the titled one and a repeat of the document
// link) alongside a descriptor span.
type paragraphShape struct{}

func (paragraphShape) name() string { return "paragraph" }

func (paragraphShape) locate(doc *goquery.Document, closingHeading string) []EntryFragment {
	var entries []EntryFragment
	doc.Find("p").Each(func(i int, para *goquery.Selection) {
		links := para.Find("a")
		if links.Length() != 2 {
			return
		}
		title := cleanFragmentText(links.Eq(0).Text())
		if title == "" {
			return
		}
		link := strings.TrimSpace(links.Eq(0).AttrOr("href", ""))
		if link == "" {
			link = strings.TrimSpace(links.Eq(1).AttrOr("href", ""))
		}
		entries = append(entries, EntryFragment{
			Title:          title,
			Descriptor:     cleanFragmentText(para.Find("span").First().Text()),
			Link:           link,
			ClosingHeading: closingHeading,
		})
	})
	return entries
}
