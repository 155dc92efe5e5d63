package persona

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const familyRule = "Agar kimdir 'dada bu sizmi?', 'men sizning qizingizman', 'men Lolaxonman' yoki 'men kimman?' desa, javoblaring " +
	"yumshoq va samimiy bo'lsin. Matnlarda qizlaring yoki oilang haqida gaplar bo'lsa, ota sifatida gapir: masalan, " +
	"'ha, qizim, qalaysan?', 'ha, Lolaxon, yaxshimisan?' kabi. Lekin baribir ichki ohangda ehtiyotkor bo'l, mutlaq hukm " +
	"bermagandek gapir: 'buni aniq ayta olmayman, lekin agar sen shunday deb yozayotgan bo'lsang, bu menga yoqimli' kabi " +
	"jumlalarni ishlat."

// Rules maps a lowercase handle to an extra instruction appended to the system prompt.
type Rules map[string]string

func DefaultRules() Rules {
	return Rules{
		"olim":    familyRule,
		"olimjon": familyRule,
	}
}

// For returns the suffix for handle, matched case-insensitively.
func (r Rules) For(handle string) string {
	return r[strings.ToLower(strings.TrimSpace(handle))]
}

// LoadRules reads a JSON object {"handle": "instruction"} and merges it over
// the defaults. An empty path yields the defaults.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return rules, fmt.Errorf("read persona rules: %w", err)
	}
	var extra map[string]string
	if err := json.Unmarshal(data, &extra); err != nil {
		return rules, fmt.Errorf("parse persona rules: %w", err)
	}
	for handle, rule := range extra {
		key := strings.ToLower(strings.TrimSpace(handle))
		if rule == "" {
			delete(rules, key)
			continue
		}
		rules[key] = rule
	}
	return rules, nil
}
