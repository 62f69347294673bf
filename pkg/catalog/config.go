package catalog

import(
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

const(
	ChandraURL      = "https://chandra.harvard.edu"
	ChandraIndexURL = ChandraURL + "/photo/openFITS/multiwavelength_data.html"
)

type Config struct {
	Verbosity    int

	CatalogFile  string        // YAML, object -> band -> file or URL
	DataDir      string        // Local band files live in DataDir/<object>/

	ScrapeRemote bool          // Add the objects listed in the Chandra open FITS index
	IndexURL     string
	RemoteURL    string        // What links in the index are relative to
	IndexFile    string        // Local copy of the index; fetched if missing

	FetchRetries int
	FetchTimeout time.Duration
	Prefetchers  int           // How many downloads Prefetch runs at once

	Orientations map[string]Orientation // Per object fixups, applied after decoding
}

func NewConfig() Config {
	return Config{
		CatalogFile:  "catalog.yaml",
		DataDir:      "data",
		ScrapeRemote: true,
		IndexURL:     ChandraIndexURL,
		RemoteURL:    ChandraURL,
		IndexFile:    "chandra_index.html",
		FetchRetries: 2,
		FetchTimeout: 2 * time.Minute,
		Prefetchers:  4,
		Orientations: DefaultOrientations(),
	}
}

func NewConfigFromYaml(b []byte) (Config, error) {
	c := NewConfig()
	err := yaml.Unmarshal(b, &c)
	return c, err
}

func LoadConfig(filename string) (Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("catalog LoadConfig '%s': %v", filename, err)
	}
	return NewConfigFromYaml(b)
}

func (c Config)AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		log.Fatalf("Can't marshal catalog config yaml: %v\n", err)
	}
	return string(b)
}
