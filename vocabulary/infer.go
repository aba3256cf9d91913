package vocabulary

import (
	"encoding/json"
	"strconv"
)

// NaturalDatatype infers the XSD datatype for a literal value coming out
// of a decoded JSON tree. Strings get no datatype (plain literal), which
// matches how untyped literals behave downstream.
func NaturalDatatype(v any) string {
	switch val := v.(type) {
	case bool:
		return XSDBoolean
	case int, int32, int64:
		return XSDInteger
	case float32:
		return XSDDouble
	case float64:
		// JSON numbers decode as float64. Whole values are integers.
		if val == float64(int64(val)) {
			return XSDInteger
		}
		return XSDDouble
	case json.Number:
		if _, err := strconv.ParseInt(string(val), 10, 64); err == nil {
			return XSDInteger
		}
		return XSDDouble
	default:
		return ""
	}
}
