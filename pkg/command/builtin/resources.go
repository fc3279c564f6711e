package builtin

import (
	"embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed resources/*.yaml
var resourceFS embed.FS

// Quote is one attributed quotation.
type Quote struct {
	Text string `yaml:"quote"`
	From string `yaml:"from"`
}

// Resources holds the trivia the fun commands pick from.
type Resources struct {
	Jokes  []string
	Quotes []Quote
	Facts  map[string][]string
}

// Categories returns the fact categories in stable order.
func (r Resources) Categories() []string {
	categories := make([]string, 0, len(r.Facts))
	for name, facts := range r.Facts {
		if len(facts) > 0 {
			categories = append(categories, name)
		}
	}
	sort.Strings(categories)
	return categories
}

// LoadResources decodes the embedded trivia files.
func LoadResources() (Resources, error) {
	var res Resources
	if err := decodeResource("resources/jokes.yaml", &res.Jokes); err != nil {
		return Resources{}, err
	}
	if err := decodeResource("resources/quotes.yaml", &res.Quotes); err != nil {
		return Resources{}, err
	}
	if err := decodeResource("resources/facts.yaml", &res.Facts); err != nil {
		return Resources{}, err
	}

	return res, nil
}

func decodeResource(name string, out any) error {
	content, err := resourceFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(content, out); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}
