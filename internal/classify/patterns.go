// Package classify assigns product families to manifest groups using
// pattern extraction over product names.
package classify

import "regexp"

// Patterns holds the recognition tables the classifier matches against.
// A Patterns value is immutable after construction; build one with
// DefaultPatterns or assemble your own for a different catalog.
type Patterns struct {
	Brands       []string
	ProductLines []string
	FormFactors  []string
	Series       []SeriesPattern
	ModelNumbers []*regexp.Regexp
	NoisePrefix  *regexp.Regexp
}

// SeriesPattern names one model-series shape, like ThinkPad T-series.
type SeriesPattern struct {
	Name    string
	Pattern *regexp.Regexp
}

// DefaultPatterns builds the stock recognition tables covering the
// brands and product lines that dominate refurbished-electronics
// manifests.
func DefaultPatterns() *Patterns {
	return &Patterns{
		Brands: []string{
			"lenovo", "dell", "hp", "samsung", "sony", "google", "microsoft",
			"playstation", "asus", "oneplus", "hisense", "acer", "alienware",
		},
		ProductLines: []string{
			"thinkpad", "ideapad", "latitude", "elitebook", "probook", "galaxy",
			"pixel", "surface", "playstation", "nest", "chromebook", "inspiron",
			"optiplex", "xps",
		},
		FormFactors: []string{
			"laptop", "notebook", "desktop", "ultrabook", "tablet", "smartphone",
			"monitor", "console", "2-in-1", "convertible", "all-in-one", "aio",
		},
		Series: []SeriesPattern{
			{"thinkpad_t", regexp.MustCompile(`(?i)thinkpad\s+t\d{3}s?`)},
			{"thinkpad_x", regexp.MustCompile(`(?i)thinkpad\s+x\d{3}s?`)},
			{"thinkpad_l", regexp.MustCompile(`(?i)thinkpad\s+l\d{3}s?`)},
			{"thinkpad_p", regexp.MustCompile(`(?i)thinkpad\s+p\d{2,3}s?`)},
			{"latitude_series", regexp.MustCompile(`(?i)latitude\s+\d{4}`)},
			{"elitebook_series", regexp.MustCompile(`(?i)elitebook\s+\d{3}\s+g\d`)},
			{"galaxy_s", regexp.MustCompile(`(?i)galaxy\s+s\d{1,2}`)},
			{"galaxy_a", regexp.MustCompile(`(?i)galaxy\s+a\d{1,2}`)},
			{"galaxy_z", regexp.MustCompile(`(?i)galaxy\s+z`)},
			{"pixel_series", regexp.MustCompile(`(?i)pixel\s+\d`)},
			{"surface_pro", regexp.MustCompile(`(?i)surface\s+pro\s+\d`)},
			{"playstation", regexp.MustCompile(`(?i)playstation\s*\d`)},
		},
		ModelNumbers: []*regexp.Regexp{
			// ThinkPad T490, Latitude 5490
			regexp.MustCompile(`(?i)(?P<base>[a-zA-Z]+)\s*(?P<model>[a-zA-Z]?\d{3,4}[a-zA-Z]?)\b`),
			// Galaxy S24, Pixel 7
			regexp.MustCompile(`(?i)(?P<base>[a-zA-Z]+)\s+(?P<model>[a-zA-Z]\d{1,2})(\s+(?P<variant>ultra|pro|\+|plus|slim))?`),
			// PlayStation 5
			regexp.MustCompile(`(?i)playstation\s*(?P<model>\d)(\s+(?P<variant>slim|digital))?`),
			// EliteBook 840 G5
			regexp.MustCompile(`(?i)(?P<base>[a-zA-Z]+)\s*(?P<model>\d{3})\s*g(?P<generation>\d)`),
			// Surface Pro 8
			regexp.MustCompile(`(?i)surface\s+pro\s+(?P<model>\d)`),
			// Generic model numbers like M700Q
			regexp.MustCompile(`(?i)\b(?P<model>[a-zA-Z]\d{3,5}[a-zA-Z]?)\b`),
		},
		NoisePrefix: regexp.MustCompile(`(?i)^(?:refurbished|certified|renewed|recertified|rf)\s+`),
	}
}
