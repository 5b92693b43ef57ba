// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"bytes"
	"encoding/json"
	"strings"
	"text/template"
)

// summaryPromptTmpl asks for a plain-prose summary of one abstract.
var summaryPromptTmpl = template.Must(template.New("summary").Parse(`You summarize academic abstracts for a literature review spreadsheet.

Write a neutral summary of the abstract below in at most {{.MaxWords}} words.
Use plain prose in one or two sentences. Do not use bullets, quotes, headings, or any preamble such as "This paper".

Abstract:
{{.Text}}
`))

// keywordPromptTmpl asks for keyphrases as a JSON array.
var keywordPromptTmpl = template.Must(template.New("keywords").Parse(`You extract keyphrases from academic abstracts for cataloging and search.

Return the {{.TopN}} most representative keyphrases of one or two words from the text below.
Avoid duplicates and near-duplicates. Respond with ONLY a JSON array of strings, for example ["quantum key distribution", "lattice"].

Text:
{{.Text}}
`))

func renderSummaryPrompt(text string, maxWords int) (string, error) {
	var buf bytes.Buffer
	err := summaryPromptTmpl.Execute(&buf, struct {
		Text     string
		MaxWords int
	}{text, maxWords})
	return buf.String(), err
}

func renderKeywordPrompt(text string, topN int) (string, error) {
	var buf bytes.Buffer
	err := keywordPromptTmpl.Execute(&buf, struct {
		Text string
		TopN int
	}{text, topN})
	return buf.String(), err
}

// parseKeywords reads a model reply as a JSON array of strings. When the
// reply wraps the array in other text, the outermost [...] is tried; as a
// last resort the reply is split on commas or newlines. Blank and repeated
// phrases are dropped and at most topN are returned.
func parseKeywords(reply string, topN int) []string {
	reply = strings.TrimSpace(reply)

	var raw []string
	if err := json.Unmarshal([]byte(reply), &raw); err != nil {
		start, end := strings.Index(reply, "["), strings.LastIndex(reply, "]")
		if start < 0 || end <= start || json.Unmarshal([]byte(reply[start:end+1]), &raw) != nil {
			sep := ","
			if !strings.Contains(reply, ",") {
				sep = "\n"
			}
			raw = strings.Split(reply, sep)
		}
	}

	seen := make(map[string]bool)
	var out []string
	for _, k := range raw {
		k = strings.Trim(strings.TrimSpace(k), "[]\"'`-* ")
		key := strings.ToLower(k)
		if k == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, k)
		if topN > 0 && len(out) == topN {
			break
		}
	}
	return out
}
