package classify

import (
	"regexp"
	"strings"
)

// Components are the identifiers extracted from one product name.
type Components struct {
	OriginalName string
	CleanedName  string
	Brand        string
	ProductLine  string
	ModelNumber  string
	Series       string
	Variant      string
	FormFactor   string
}

// Classification is a proposed family for a product name with a
// confidence score derived from which identifiers were found.
type Classification struct {
	FamilyName string
	Components Components
	Confidence float64
}

// Classifier extracts brand, product line, and model identifiers from
// product names and synthesizes a family name from them. It holds only
// compiled patterns and is safe for concurrent use.
type Classifier struct {
	patterns    *Patterns
	brands      []namedPattern
	lines       []namedPattern
	formFactors []namedPattern
	brandSet    map[string]bool
}

type namedPattern struct {
	name    string
	pattern *regexp.Regexp
}

// NewClassifier compiles a classifier from the given pattern tables.
func NewClassifier(patterns *Patterns) *Classifier {
	c := &Classifier{
		patterns: patterns,
		brandSet: make(map[string]bool, len(patterns.Brands)),
	}
	for _, brand := range patterns.Brands {
		c.brands = append(c.brands, namedPattern{brand, wordPattern(brand)})
		c.brandSet[brand] = true
	}
	for _, line := range patterns.ProductLines {
		c.lines = append(c.lines, namedPattern{line, wordPattern(line)})
	}
	for _, factor := range patterns.FormFactors {
		c.formFactors = append(c.formFactors, namedPattern{factor, wordPattern(factor)})
	}
	return c
}

func wordPattern(word string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
}

// cleanName strips reseller noise prefixes and collapses whitespace.
func (c *Classifier) cleanName(name string) string {
	cleaned := c.patterns.NoisePrefix.ReplaceAllString(name, "")
	return strings.Join(strings.Fields(cleaned), " ")
}

// Extract pulls the recognizable identifiers out of a product name.
func (c *Classifier) Extract(name string) Components {
	cleaned := c.cleanName(name)
	components := Components{OriginalName: name, CleanedName: cleaned}

	for _, brand := range c.brands {
		if brand.pattern.MatchString(cleaned) {
			components.Brand = brand.name
			break
		}
	}
	for _, line := range c.lines {
		if line.pattern.MatchString(cleaned) {
			components.ProductLine = line.name
			break
		}
	}
	for _, series := range c.patterns.Series {
		if series.Pattern.MatchString(cleaned) {
			components.Series = series.Name
			break
		}
	}

	for _, pattern := range c.patterns.ModelNumbers {
		for _, groups := range findNamedMatches(pattern, cleaned) {
			model := groups["model"]
			if model == "" {
				continue
			}
			// A leading word like "thinkpad" in "thinkpad t490" acts as
			// the product line when the tables did not already find one.
			// Brands never stand in for a product line, and neither does
			// a single letter: in a bare code like "t490" the "t" is part
			// of the model, not a product line.
			if base := strings.ToLower(groups["base"]); len(base) > 1 && components.ProductLine == "" && !c.brandSet[base] {
				components.ProductLine = base
			}
			components.ModelNumber = model
			if variant := groups["variant"]; variant != "" {
				components.Variant = variant
			}
		}
	}

	for _, factor := range c.formFactors {
		if factor.pattern.MatchString(cleaned) {
			components.FormFactor = factor.name
			break
		}
	}
	return components
}

// FamilyName synthesizes the standardized family name for the extracted
// components. Returns false when the components cannot name a family,
// including the bare-model-number case where the number has no brand or
// product line context.
func FamilyName(components Components) (string, bool) {
	var parts []string
	if components.Brand != "" {
		parts = append(parts, capWords(components.Brand))
	}
	if components.ProductLine != "" {
		parts = append(parts, capWords(components.ProductLine))
	}
	if components.ModelNumber != "" {
		parts = append(parts, strings.ToUpper(components.ModelNumber))
	}
	if components.Variant != "" {
		parts = append(parts, capWords(components.Variant))
	}

	if len(parts) == 0 {
		return "", false
	}
	if components.ModelNumber != "" && components.Brand == "" && components.ProductLine == "" {
		return "", false
	}
	return strings.Join(parts, " "), true
}

// Classify proposes a family for a product name. The confidence tiers
// reward richer extractions: a full brand + line + model hit scores
// 0.95, while a lone brand or line scores 0.60.
func (c *Classifier) Classify(name string) (*Classification, bool) {
	components := c.Extract(name)
	familyName, ok := FamilyName(components)
	if !ok {
		return nil, false
	}

	confidence := 0.5
	switch {
	case components.Brand != "" && components.ProductLine != "" && components.ModelNumber != "":
		confidence = 0.95
	case components.Brand != "" && components.ModelNumber != "":
		confidence = 0.85
	case components.ProductLine != "" && components.ModelNumber != "":
		confidence = 0.8
	case components.ModelNumber != "":
		confidence = 0.7
	case components.Brand != "" || components.ProductLine != "":
		confidence = 0.6
	}

	return &Classification{
		FamilyName: familyName,
		Confidence: confidence,
		Components: components,
	}, true
}

func findNamedMatches(pattern *regexp.Regexp, s string) []map[string]string {
	names := pattern.SubexpNames()
	var results []map[string]string
	for _, match := range pattern.FindAllStringSubmatch(s, -1) {
		groups := make(map[string]string, len(names))
		for i, name := range names {
			if name != "" && i < len(match) {
				groups[name] = match[i]
			}
		}
		results = append(results, groups)
	}
	return results
}

func capWords(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
