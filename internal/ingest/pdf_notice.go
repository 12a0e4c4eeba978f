package ingest

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	rpdf "rsc.io/pdf"
)

// Fallback date source: when the page heading fails to parse, the notice
// document itself usually states the closing date ("representations close on
// 14 March 2025"). Text extraction is best-effort; council PDFs are
// generated by several tools and some defeat the parser.

var noticeDateRegexes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b\d{1,2}\s+(January|February|March|April|May|June|July|August|September|October|November|December)\s+20\d{2}\b`),
	regexp.MustCompile(`\b\d{1,2}/\d{1,2}/20\d{2}\b`),
}

var noticeCloseHints = []string{"closing", "close", "on notice", "representations", "submissions"}

// extractPDFText pulls the plain text out of a PDF document. The parser
// panics on some malformed files, so the panic is converted to an error.
func extractPDFText(content []byte) (text string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("pdf parser panic: %v", recovered)
			text = ""
		}
	}()

	reader, err := rpdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	for pageIndex := 1; pageIndex <= reader.NumPage(); pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		for _, fragment := range page.Content().Text {
			builder.WriteString(fragment.S)
			builder.WriteString(" ")
		}
		builder.WriteString("\n")
	}

	return builder.String(), nil
}

// closingDateFromNoticeText scans extracted notice text for a closing date.
// A date preceded by closing-period wording wins over the first bare date.
func closingDateFromNoticeText(text string) *time.Time {
	var first *time.Time
	for _, expr := range noticeDateRegexes {
		for _, loc := range expr.FindAllStringIndex(text, -1) {
			token := text[loc[0]:loc[1]]
			parsed, err := normalizeClosingDate(token)
			if err != nil || parsed == nil {
				continue
			}
			if first == nil {
				first = parsed
			}

			leadStart := loc[0] - 80
			if leadStart < 0 {
				leadStart = 0
			}
			lead := strings.ToLower(text[leadStart:loc[0]])
			for _, hint := range noticeCloseHints {
				if strings.Contains(lead, hint) {
					return parsed
				}
			}
		}
	}
	return first
}

// closingDateFromPDF extracts the notice closing date from a PDF document.
func closingDateFromPDF(content []byte) (*time.Time, error) {
	text, err := extractPDFText(content)
	if err != nil {
		return nil, err
	}
	if d := closingDateFromNoticeText(text); d != nil {
		return d, nil
	}
	return nil, fmt.Errorf("no closing date found in notice document")
}
