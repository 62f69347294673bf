package catalog

import(
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Each FITS file in the Chandra open FITS index is a list item linking
// to <dir>/<object>_<band>.fits.
var chandraLinkRegexp = regexp.MustCompile(
	`<li><a href="(?P<path>(?P<directory>.*?)(?P<object>[^_/]*?)_(?P<band>.*?).fits)">(?P<description>.*?)</a></li>`)

// Chandra's short object names, mapped onto the names local catalogs use.
var chandraAliases = map[string]string{
	"ngc6543": "cats_eye_nebula",
	"m51":     "whirlpool_galaxy",
}

// Chandra's band name abbreviations; a band name is a list of these,
// joined with underscores (e.g. "opt_R").
var chandraBandWords = map[string]string{
	"R":   "red",
	"G":   "green",
	"B":   "blue",
	"he":  "high_energy",
	"le":  "low_energy",
	"ir":  "infrared",
	"opt": "optical",
}

// A ChandraEntry is one FITS file found in the index.
type ChandraEntry struct {
	Object      string
	Band        string
	URL         string
	Description string
}

func ExpandChandraBand(band string) string {
	words := strings.Split(band, "_")
	for i, w := range words {
		if long, exists := chandraBandWords[w]; exists {
			words[i] = long
		}
	}
	return strings.Join(words, "_")
}

// ParseChandraIndex pulls every FITS link out of the index page. Links
// are relative to baseURL.
func ParseChandraIndex(baseURL, html string) []ChandraEntry {
	entries := []ChandraEntry{}
	names := chandraLinkRegexp.SubexpNames()

	for _, match := range chandraLinkRegexp.FindAllStringSubmatch(html, -1) {
		grp := map[string]string{}
		for i, name := range names {
			if name != "" {
				grp[name] = match[i]
			}
		}

		object := grp["object"]
		if alias, exists := chandraAliases[object]; exists {
			object = alias
		}

		entries = append(entries, ChandraEntry{
			Object:      object,
			Band:        ExpandChandraBand(grp["band"]),
			URL:         strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(grp["path"], "/"),
			Description: grp["description"],
		})
	}

	return entries
}

// loadChandraIndex reads the local copy of the index, downloading it
// first if there isn't one.
func (c *Catalog)loadChandraIndex(ctx context.Context) (string, error) {
	if c.IndexFile != "" {
		if err := c.fetcher.Download(ctx, c.IndexURL, c.IndexFile); err != nil {
			return "", fmt.Errorf("chandra index: %w", err)
		}
		b, err := os.ReadFile(c.IndexFile)
		if err != nil {
			return "", fmt.Errorf("chandra index: %v", err)
		}
		return string(b), nil
	}

	b, err := c.fetcher.Get(ctx, c.IndexURL)
	if err != nil {
		return "", fmt.Errorf("chandra index: %w", err)
	}
	return string(b), nil
}
