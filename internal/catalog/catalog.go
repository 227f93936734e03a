// Package catalog maps the structured topic, concern, and follow-up codes
// carried in insight payloads to caregiver-facing display labels.
package catalog

import (
	_ "embed"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

type codeCatalog struct {
	Topics          map[string]string `yaml:"topics"`
	Concerns        map[string]string `yaml:"concerns"`
	FollowUpReasons map[string]string `yaml:"follow_up_reasons"`
}

var (
	loadOnce sync.Once
	loaded   codeCatalog
)

func load() codeCatalog {
	loadOnce.Do(func() {
		// The catalog ships embedded; a parse failure is a build defect, and
		// lookups still work through the fallback.
		_ = yaml.Unmarshal(catalogYAML, &loaded)
	})
	return loaded
}

func TopicLabel(code string) string {
	if label, ok := load().Topics[code]; ok {
		return label
	}
	return fallbackLabel(code)
}

func ConcernLabel(code string) string {
	if label, ok := load().Concerns[code]; ok {
		return label
	}
	return fallbackLabel(code)
}

func FollowUpLabel(code string) string {
	if label, ok := load().FollowUpReasons[code]; ok {
		return label
	}
	return fallbackLabel(code)
}

// fallbackLabel turns an unknown code into a readable label so a new upstream
// code never breaks a dashboard.
func fallbackLabel(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	words := strings.Split(strings.ReplaceAll(code, "-", "_"), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
