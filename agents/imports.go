package agents

import "strings"

// isImportLine reports whether a top-level line is a Python import.
func isImportLine(line string) bool {
	if line == "" || line[0] == ' ' || line[0] == '\t' {
		return false
	}
	if strings.HasPrefix(line, "import ") {
		return true
	}
	return strings.HasPrefix(line, "from ") && strings.Contains(line, " import ")
}

func normalizeImport(line string) string {
	return strings.Join(strings.Fields(line), " ")
}

// SplitImports separates top-level import lines from the rest of code.
func SplitImports(code string) (imports []string, body string) {
	var rest []string
	for _, line := range strings.Split(code, "\n") {
		if isImportLine(strings.TrimRight(line, " \t\r")) {
			imports = append(imports, strings.TrimSpace(line))
			continue
		}
		rest = append(rest, line)
	}
	return imports, strings.Trim(strings.Join(rest, "\n"), "\n")
}

// DedupeImports drops import lines from code that already appear in existing
// or earlier in code. Whitespace inside a statement is not significant.
func DedupeImports(existing, code string) string {
	seen := make(map[string]struct{})
	for _, line := range strings.Split(existing, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if isImportLine(line) {
			seen[normalizeImport(line)] = struct{}{}
		}
	}
	var out []string
	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimRight(line, " \t\r")
		if isImportLine(trimmed) {
			key := normalizeImport(trimmed)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		out = append(out, line)
	}
	return strings.Trim(strings.Join(out, "\n"), "\n")
}
