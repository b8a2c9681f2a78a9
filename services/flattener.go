package services

import (
	"fmt"
	"sort"
	"strconv"

	"form-query-platform/models"
)

// Flatten converts decoded JSON into ordered (path, leaf value) pairs.
// Map keys join with ".", array indices render as "[i]". Null leaves are
// skipped; scalar leaves are stringified. Repeated paths are kept as-is,
// downstream chunk ids disambiguate by index.
func Flatten(value interface{}, pathPrefix string) []models.FlatField {
	var fields []models.FlatField
	flattenInto(value, pathPrefix, &fields)
	return fields
}

func flattenInto(value interface{}, path string, out *[]models.FlatField) {
	switch v := value.(type) {
	case map[string]interface{}:
		// Stable order keeps flattening deterministic across runs
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flattenInto(v[k], joinPath(path, k), out)
		}
	case []interface{}:
		for i, item := range v {
			flattenInto(item, fmt.Sprintf("%s[%d]", path, i), out)
		}
	case string:
		*out = append(*out, models.FlatField{Path: path, Value: v})
	case float64:
		*out = append(*out, models.FlatField{Path: path, Value: strconv.FormatFloat(v, 'f', -1, 64)})
	case bool:
		*out = append(*out, models.FlatField{Path: path, Value: strconv.FormatBool(v)})
	case nil:
		// null leaves carry no answerable content
	default:
		*out = append(*out, models.FlatField{Path: path, Value: fmt.Sprintf("%v", v)})
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
