package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// HWPX is a zip container holding OWPML section files under Contents/.
// The visible text lives in <hp:t> leaf elements.
const hwpxSectionPrefix = "Contents/section"

var digitsOnly = regexp.MustCompile(`\D`)

type hwpxExtractor struct{}

func (hwpxExtractor) Extract(ctx context.Context, data []byte) (*Result, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open hwpx container: %w", err)
	}

	sections := make([]*zip.File, 0)
	for _, file := range archive.File {
		if strings.HasPrefix(file.Name, hwpxSectionPrefix) && strings.HasSuffix(file.Name, ".xml") {
			sections = append(sections, file)
		}
	}

	// section10 must sort after section2, so sort on the embedded number
	// rather than the raw name.
	sort.Slice(sections, func(i, j int) bool {
		return sectionIndex(sections[i].Name) < sectionIndex(sections[j].Name)
	})

	texts := make([]string, 0, len(sections))
	for _, file := range sections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := extractSectionText(file)
		if err != nil {
			return nil, fmt.Errorf("parse section %s: %w", file.Name, err)
		}
		if text != "" {
			texts = append(texts, text)
		}
	}

	units := len(texts)
	if units == 0 {
		units = 1
	}

	return &Result{
		Text:  strings.Join(texts, "\n\n"),
		Units: units,
	}, nil
}

func sectionIndex(name string) int {
	idx, err := strconv.Atoi(digitsOnly.ReplaceAllString(name, ""))
	if err != nil {
		return -1
	}
	return idx
}

// extractSectionText walks one OWPML section in document order and
// collects the character data of every <hp:t> element, joined with single
// spaces and with whitespace runs collapsed.
func extractSectionText(file *zip.File) (string, error) {
	rc, err := file.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var tokens []string
	depth := 0

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				depth++
			}
		case xml.EndElement:
			if t.Name.Local == "t" && depth > 0 {
				depth--
			}
		case xml.CharData:
			if depth > 0 {
				if s := strings.TrimSpace(string(t)); s != "" {
					tokens = append(tokens, strings.Fields(s)...)
				}
			}
		}
	}

	return strings.Join(tokens, " "), nil
}
