package fieldgen

import (
	"strings"

	"github.com/promptform/promptform/model"
)

// ParseFields extracts field descriptors from the raw model response.
//
// Only lines starting with a decimal digit are considered list items;
// everything else (preamble, blank lines, trailing chatter) is skipped.
// Each item is split on the first period to drop the numbering, then on
// commas into label, description, type, optional validation string and an
// optional bracketed options list. Lines with fewer than three segments are
// dropped silently.
//
// Known format limitation: a literal comma inside a label or description
// mis-splits the line. There is no escaping or quoting in the upstream
// format, so nothing can be done about it here.
func ParseFields(rawText string) []model.FieldDescriptor {
	fields := []model.FieldDescriptor{}

	for _, line := range strings.Split(strings.TrimSpace(rawText), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line[0] < '0' || line[0] > '9' {
			continue
		}

		_, rest, found := strings.Cut(line, ".")
		if !found {
			continue
		}

		parts := strings.Split(rest, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) < 3 {
			continue
		}

		field := model.FieldDescriptor{
			Label:       parts[0],
			Description: parts[1],
			Type:        parts[2],
		}
		if len(parts) > 3 {
			field.Validation = parts[3]
		}
		if len(parts) > 4 {
			field.Options = parseOptions(strings.Join(parts[4:], ","))
		}

		fields = append(fields, field)
	}

	return fields
}

// parseOptions splits a "[a, b, c]" segment into its values. A segment not
// wrapped in brackets yields no options.
func parseOptions(segment string) []string {
	if !strings.HasPrefix(segment, "[") || !strings.HasSuffix(segment, "]") {
		return nil
	}

	opts := strings.Split(segment[1:len(segment)-1], ",")
	for i := range opts {
		opts[i] = strings.TrimSpace(opts[i])
	}
	return opts
}
