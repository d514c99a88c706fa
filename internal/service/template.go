// internal/service/template.go
package service

import (
    "fmt"
    "strings"
)

// RenderTemplate replaces every {{a.b.c}} token with the dot-path lookup into
// data, string-coerced. Unknown or missing paths resolve to the empty string.
// Single pass, no control flow; safe to call concurrently.
func RenderTemplate(template string, data map[string]any) string {
    var b strings.Builder
    b.Grow(len(template))

    rest := template
    for {
        start := strings.Index(rest, "{{")
        if start < 0 {
            b.WriteString(rest)
            return b.String()
        }
        end := strings.Index(rest[start+2:], "}}")
        if end < 0 {
            b.WriteString(rest)
            return b.String()
        }

        b.WriteString(rest[:start])
        path := strings.TrimSpace(rest[start+2 : start+2+end])
        b.WriteString(lookupPath(data, path))
        rest = rest[start+2+end+2:]
    }
}

func lookupPath(data map[string]any, path string) string {
    if path == "" {
        return ""
    }
    var current any = data
    for _, key := range strings.Split(path, ".") {
        m, ok := current.(map[string]any)
        if !ok {
            return ""
        }
        current, ok = m[key]
        if !ok {
            return ""
        }
    }
    if current == nil {
        return ""
    }
    return fmt.Sprint(current)
}
