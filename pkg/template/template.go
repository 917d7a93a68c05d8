// Package template provides templating functionality for dynamic node
// configuration. String config values may reference workflow metadata,
// the execution id and environment variables through text/template
// expressions; everything else passes through untouched.
package template

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/flowgrid/flowgrid/pkg/models"
)

// Context carries the data a node config expression can reference.
type Context struct {
	ExecutionID string
	Workflow    *models.Workflow
}

// RenderConfig renders every string value of a node config against the
// context. Non-string values and strings without template markers are
// returned as-is.
func RenderConfig(config map[string]any, ctx Context) (map[string]any, error) {
	rendered := make(map[string]any, len(config))

	for key, value := range config {
		str, ok := value.(string)
		if !ok || !strings.Contains(str, "{{") {
			rendered[key] = value

			continue
		}

		result, err := Render(str, ctx.data())
		if err != nil {
			return nil, fmt.Errorf("config key %q: %w", key, err)
		}

		rendered[key] = result
	}

	return rendered, nil
}

// Render evaluates a single template expression. Results that look like
// JSON, numbers or booleans are decoded into their native type.
func Render(templateStr string, data any) (any, error) {
	tmpl, err := template.
		New("config").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
			"rand": func(max int) int {
				if max <= 0 {
					return 0
				}
				num := make([]byte, 1)
				_, err := rand.Read(num)
				if err != nil {
					return 0
				}

				return int(num[0]) % max
			},
		}).Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return nil, fmt.Errorf("failed to execute template '%s': %w", templateStr, err)
	}

	result := strings.TrimSpace(buf.String())

	if (strings.HasPrefix(result, "{") && strings.HasSuffix(result, "}")) ||
		(strings.HasPrefix(result, "[") && strings.HasSuffix(result, "]")) {
		var jsonResult any

		if err := json.Unmarshal([]byte(result), &jsonResult); err == nil {
			return jsonResult, nil
		}
	}

	if num, err := strconv.ParseFloat(result, 64); err == nil {
		return num, nil
	}

	if b, err := strconv.ParseBool(result); err == nil {
		return b, nil
	}

	return result, nil
}

func (c Context) data() map[string]any {
	data := map[string]any{
		"env": envVars(),
		"execution": map[string]any{
			"id": c.ExecutionID,
		},
	}

	if c.Workflow != nil {
		data["workflow"] = map[string]any{
			"id":   c.Workflow.ID,
			"name": c.Workflow.Name,
		}
	}

	return data
}

func envVars() map[string]any {
	envMap := make(map[string]any)

	for _, env := range os.Environ() {
		parts := strings.SplitN(env, "=", 2)
		if len(parts) == 2 {
			envMap[parts[0]] = parts[1]
		}
	}

	return envMap
}
