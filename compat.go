package formlink

// typeFlows declares, per semantic type, the set of types it may flow into.
// A pair is compatible if either direction's declared set contains the other
// type; every type is compatible with itself.
var typeFlows = map[FieldType][]FieldType{
	FieldTypeString:      {FieldTypeText, FieldTypeEmail, FieldTypeURL, FieldTypeTel},
	FieldTypeText:        {FieldTypeString, FieldTypeEmail, FieldTypeURL, FieldTypeTel},
	FieldTypeEmail:       {FieldTypeString, FieldTypeText, FieldTypeURL, FieldTypeTel},
	FieldTypeURL:         {FieldTypeString, FieldTypeText, FieldTypeEmail, FieldTypeTel},
	FieldTypeTel:         {FieldTypeString, FieldTypeText, FieldTypeEmail, FieldTypeURL},
	FieldTypeNumber:      {FieldTypeInteger, FieldTypeFloat},
	FieldTypeInteger:     {FieldTypeNumber, FieldTypeFloat},
	FieldTypeFloat:       {FieldTypeNumber, FieldTypeInteger},
	FieldTypeDate:        {FieldTypeDateTime},
	FieldTypeDateTime:    {FieldTypeDate},
	FieldTypeBoolean:     {FieldTypeCheckbox},
	FieldTypeCheckbox:    {FieldTypeBoolean},
	FieldTypeMultiSelect: {FieldTypeSelect, FieldTypeArray},
}

// ValidateFieldTypes reports whether a value of sourceType may be mapped into
// a field of targetType.
func ValidateFieldTypes(sourceType, targetType FieldType) bool {
	if sourceType == targetType {
		return true
	}
	for _, t := range typeFlows[sourceType] {
		if t == targetType {
			return true
		}
	}
	for _, t := range typeFlows[targetType] {
		if t == sourceType {
			return true
		}
	}
	return false
}

// CompatibleTypes returns every type a value of t may be mapped into,
// including t itself.
func CompatibleTypes(t FieldType) []FieldType {
	seen := map[FieldType]bool{t: true}
	out := []FieldType{t}
	for _, other := range typeFlows[t] {
		if !seen[other] {
			seen[other] = true
			out = append(out, other)
		}
	}
	for other, flows := range typeFlows {
		if seen[other] {
			continue
		}
		for _, into := range flows {
			if into == t {
				seen[other] = true
				out = append(out, other)
				break
			}
		}
	}
	return out
}
