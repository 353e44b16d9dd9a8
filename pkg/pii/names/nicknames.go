package names

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed nicknames.yaml
var nicknamesYAML []byte

// nicknameTable maps every member of an equivalence class to the full class,
// so lookups are symmetric: formal -> nicknames and nickname -> formal both
// work with one map hit.
type nicknameTable map[string][]string

var nicknames = mustLoadNicknames()

func mustLoadNicknames() nicknameTable {
	var doc struct {
		Classes [][]string `yaml:"classes"`
	}
	if err := yaml.Unmarshal(nicknamesYAML, &doc); err != nil {
		panic(fmt.Sprintf("names: embedded nickname table: %v", err))
	}
	t := make(nicknameTable)
	for _, class := range doc.Classes {
		for _, member := range class {
			m := strings.ToLower(member)
			if _, dup := t[m]; dup {
				panic(fmt.Sprintf("names: %q appears in two nickname classes", m))
			}
			t[m] = class
		}
	}
	return t
}

// Related returns every other member of first's equivalence class, or nil
// when first has no known nicknames. Matching is case-insensitive; results
// are lower-case.
func Related(first string) []string {
	key := strings.ToLower(first)
	class, ok := nicknames[key]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(class)-1)
	for _, m := range class {
		if strings.ToLower(m) != key {
			out = append(out, strings.ToLower(m))
		}
	}
	return out
}
