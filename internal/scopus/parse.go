// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scopus

import (
	"math"
	"strconv"
	"strings"

	"github.com/pdiddy/citation-engine/pkg/types"
)

// scopusIDPrefixLen is the length of the "SCOPUS_ID:" prefix on dc:identifier.
const scopusIDPrefixLen = 10

// ParseEntry converts one raw search-result entry into a Record. It never
// fails: each field is read by its own accessor and a missing or malformed
// value only blanks that field.
func ParseEntry(entry map[string]any) types.Record {
	names, ids := authors(entry["author"])

	return types.Record{
		ScopusID:           scopusID(entry["dc:identifier"]),
		EID:                str(entry["eid"]),
		Title:              str(entry["dc:title"]),
		PublicationName:    str(entry["prism:publicationName"]),
		ISSN:               str(entry["prism:issn"]),
		ISBN:               isbn(entry["prism:isbn"]),
		EISSN:              str(entry["prism:eIssn"]),
		Volume:             str(entry["prism:volume"]),
		Issue:              str(entry["prism:issueIdentifier"]),
		PageRange:          str(entry["prism:pageRange"]),
		CoverDate:          str(entry["prism:coverDate"]),
		DOI:                str(entry["prism:doi"]),
		Description:        str(entry["dc:description"]),
		CitationCount:      citedBy(entry["citedby-count"]),
		Affiliation:        entry["affiliation"],
		AggregationType:    str(entry["prism:aggregationType"]),
		SubtypeDescription: str(entry["subtypeDescription"]),
		AuthorNames:        names,
		AuthorIDs:          ids,
		AuthKeywords:       str(entry["authkeywords"]),
		FundAcr:            str(entry["fund-acr"]),
		FundNo:             str(entry["fund-no"]),
		FundSponsor:        str(entry["fund-sponsor"]),
		FullText:           fullText(entry["link"]),
	}
}

// str renders a scalar JSON value; objects, arrays and null are absent.
func str(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

func scopusID(v any) string {
	s, ok := v.(string)
	if !ok || len(s) <= scopusIDPrefixLen {
		return ""
	}
	return s[scopusIDPrefixLen:]
}

// isbn handles prism:isbn, which the COMPLETE view returns as a list of
// {"$": "..."} objects rather than a plain string.
func isbn(v any) string {
	list, ok := v.([]any)
	if !ok {
		return str(v)
	}
	var parts []string
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return ""
		}
		if s := str(obj["$"]); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

func citedBy(v any) *int {
	var n int
	switch x := v.(type) {
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return nil
		}
		n = i
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		n = int(x)
	default:
		return nil
	}
	return &n
}

// authors projects the author list into parallel name and id slices. Any
// malformed element empties both so they stay aligned.
func authors(v any) (names, ids []string) {
	list, ok := v.([]any)
	if !ok {
		return []string{}, []string{}
	}
	names = make([]string, 0, len(list))
	ids = make([]string, 0, len(list))
	for _, item := range list {
		a, ok := item.(map[string]any)
		if !ok {
			return []string{}, []string{}
		}
		id, hasID := a["authid"]
		name, hasName := a["authname"]
		if !hasID || !hasName {
			return []string{}, []string{}
		}
		ids = append(ids, str(id))
		names = append(names, str(name))
	}
	return names, ids
}

// fullText returns the href of the last link whose @ref is "full-text".
func fullText(v any) string {
	list, ok := v.([]any)
	if !ok {
		return ""
	}
	href := ""
	for _, item := range list {
		link, ok := item.(map[string]any)
		if !ok {
			return ""
		}
		ref, ok := link["@ref"]
		if !ok {
			return ""
		}
		if ref == "full-text" {
			h, ok := link["@href"].(string)
			if !ok {
				return ""
			}
			href = h
		}
	}
	return href
}
