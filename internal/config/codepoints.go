package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MichealWayne/svgs2fonts-sub000/internal/errors"
)

// LoadCodepoints reads a YAML file mapping icon names to fixed codepoints.
// Values may be integers (57345), hex strings ("0xE001", "E001") or
// "U+E001" notation. The returned map feeds the assigner as overrides so
// shipped icons keep their codepoints across rebuilds.
func LoadCodepoints(path string) (map[string]rune, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigurationError("font.codepoints_file", err.Error())
	}

	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.NewConfigurationError("font.codepoints_file",
			fmt.Sprintf("%s: %s", path, err))
	}

	out := make(map[string]rune, len(doc))
	for name, node := range doc {
		cp, err := parseCodepoint(&node)
		if err != nil {
			return nil, errors.NewConfigurationError("font.codepoints_file",
				fmt.Sprintf("%s: icon %q: %s", path, name, err))
		}
		out[name] = cp
	}
	return out, nil
}

func parseCodepoint(node *yaml.Node) (rune, error) {
	var asInt int
	if err := node.Decode(&asInt); err == nil {
		return validCodepoint(asInt)
	}

	var asStr string
	if err := node.Decode(&asStr); err != nil {
		return 0, fmt.Errorf("expected a codepoint, got %s", node.Tag)
	}

	s := strings.TrimSpace(asStr)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "U+"), "u+")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseInt(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("cannot parse %q as a codepoint", asStr)
	}
	return validCodepoint(int(v))
}

func validCodepoint(v int) (rune, error) {
	if v < 0x20 || v > 0x10FFFF {
		return 0, fmt.Errorf("U+%04X is outside the assignable range", v)
	}
	return rune(v), nil
}
