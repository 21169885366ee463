package safety

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// CollectTelemetry gathers metric values for the given check keys when
// the request carries none. JSON report files under dir merge in name
// order (later files win); HELIX_METRIC_* environment variables win over
// files. Nested report objects flatten to dotted keys. Unreadable files
// are skipped.
func CollectTelemetry(dir string, keys []string) map[string]float64 {
	collected := make(map[string]float64)
	if dir != "" {
		entries, err := os.ReadDir(dir)
		if err == nil {
			for _, entry := range entries {
				if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
					continue
				}
				raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
				if err != nil {
					continue
				}
				var node map[string]any
				if err := json.Unmarshal(raw, &node); err != nil {
					continue
				}
				flattenInto(collected, "", node)
			}
		}
	}
	for _, key := range keys {
		raw, ok := os.LookupEnv(envMetricName(key))
		if !ok {
			continue
		}
		if value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			collected[key] = value
		}
	}
	return collected
}

// envMetricName maps a telemetry key to its override variable:
// "tools.callCount" -> "HELIX_METRIC_TOOLS_CALLCOUNT".
func envMetricName(key string) string {
	return "HELIX_METRIC_" + strings.ToUpper(idSepRe.ReplaceAllString(key, "_"))
}

func flattenInto(out map[string]float64, prefix string, node map[string]any) {
	for key, value := range node {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		switch v := value.(type) {
		case float64:
			out[full] = v
		case map[string]any:
			flattenInto(out, full, v)
		}
	}
}
