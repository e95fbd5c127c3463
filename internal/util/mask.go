package util

import "strings"

// MaskEmail oculta el local-part y el primer label del dominio:
// "john.doe@example.com" -> "j…@e….com".
func MaskEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	local, domain, ok := strings.Cut(s, "@")
	if !ok || local == "" {
		switch {
		case s == "":
			return ""
		case len(s) <= 3:
			return "***"
		default:
			return s[:1] + "…" + s[len(s)-1:]
		}
	}
	if len(local) > 1 {
		local = local[:1] + "…"
	}
	labels := strings.Split(domain, ".")
	if len(labels[0]) > 1 {
		labels[0] = labels[0][:1] + "…"
	}
	return local + "@" + strings.Join(labels, ".")
}
