package syntax

// ToMap converts a node to a map representation suitable for JSON output.
func ToMap(n Node) map[string]any {
	if isNil(n) {
		return nil
	}

	result := map[string]any{
		"kind": n.Kind().String(),
		"id":   uint64(n.NodeID()),
		"tag":  n.Tag(),
		"span": buildSpanMap(n.NodeSpan()),
	}

	addAttrsToMap(result, n.Attributes())
	addFieldsToMap(result, n.Fields())

	return result
}

// FileToMap converts a file to a map representation.
func FileToMap(f *File) map[string]any {
	result := map[string]any{
		"kind": "file",
		"id":   uint64(f.ID),
		"span": buildSpanMap(f.Span),
	}

	if len(f.Inner) > 0 {
		result["inner_attrs"] = buildAttrsMap(f.Inner)
	}

	addFieldsToMap(result, f.Fields())

	return result
}

func buildSpanMap(s Span) map[string]any {
	return map[string]any{"lo": s.Lo, "hi": s.Hi}
}

func addAttrsToMap(result map[string]any, attrs []Attribute) {
	if len(attrs) > 0 {
		result["attrs"] = buildAttrsMap(attrs)
	}
}

func buildAttrsMap(attrs []Attribute) []map[string]any {
	out := make([]map[string]any, len(attrs))

	for i, a := range attrs {
		out[i] = map[string]any{
			"name": a.Name,
			"args": a.Args,
			"span": buildSpanMap(a.Span),
		}
	}

	return out
}

func addFieldsToMap(result map[string]any, fields []Field) {
	for _, f := range fields {
		switch f.Kind() {
		case FieldString:
			if s := f.String(); s != "" {
				result[f.Name] = s
			}
		case FieldBool:
			if f.Bool() {
				result[f.Name] = true
			}
		case FieldNode:
			if child := f.Node(); child != nil {
				result[f.Name] = ToMap(child)
			}
		case FieldList:
			if f.Len() > 0 {
				result[f.Name] = buildChildrenMap(f.Nodes())
			}
		case FieldComposites:
			comps := f.Composites()
			if len(comps) == 0 {
				continue
			}

			out := make([]map[string]any, len(comps))

			for i, c := range comps {
				out[i] = map[string]any{}
				addFieldsToMap(out[i], c.Fields())
			}

			result[f.Name] = out
		}
	}
}

func buildChildrenMap(children []Node) []map[string]any {
	out := make([]map[string]any, len(children))

	for i, child := range children {
		out[i] = ToMap(child)
	}

	return out
}
