// Package servingconfig parses and serializes the serving engine's
// text-format model_config_list config file, and guards writes to it with
// an optimistic CRC32 check so two concurrent editors never silently
// clobber each other.
package servingconfig

import (
	"fmt"
	"strings"

	"github.com/vitaliisemenov/modelfleet/internal/model"
)

// emptyConfigText is the literal text the engine expects for a config with
// no entries. It is not produced by the generic writer below because the
// writer always emits a newline-separated config block per entry; this is
// special-cased to match the exact serialization the engine requires.
const emptyConfigText = "model_config_list {\n\n}\n"

// Serialize renders cfg in the engine's text format.
func Serialize(cfg *model.ServingConfig) string {
	if len(cfg.Entries) == 0 {
		return emptyConfigText
	}

	var b strings.Builder
	b.WriteString("model_config_list {\n")
	for _, e := range cfg.Entries {
		writeConfigEntry(&b, e)
	}
	b.WriteString("}\n")
	return b.String()
}

func writeConfigEntry(b *strings.Builder, e model.ConfigEntry) {
	b.WriteString("  config {\n")
	fmt.Fprintf(b, "    name: %q\n", e.Name)
	fmt.Fprintf(b, "    base_path: %q\n", e.BasePath)
	b.WriteString("    model_platform: \"tensorflow\"\n")
	b.WriteString("    model_version_policy {\n")
	switch e.Policy.Kind {
	case model.PolicySpecific:
		b.WriteString("      specific {\n")
		for _, v := range e.Policy.Versions {
			fmt.Fprintf(b, "        versions: %d\n", v)
		}
		b.WriteString("      }\n")
	default:
		b.WriteString("      latest {\n")
		fmt.Fprintf(b, "        num_versions: %d\n", e.Policy.NumVersions)
		b.WriteString("      }\n")
	}
	b.WriteString("    }\n")
	b.WriteString("  }\n")
}
