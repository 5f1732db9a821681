package store

// Typed accessors for Document fields. Numeric values may arrive as int,
// int64, or float64 depending on the backend's decoder, so the accessors
// coerce rather than assert.

// Str returns the string at key, or "" when absent or not a string.
func Str(doc Document, key string) string {
	s, _ := doc[key].(string)
	return s
}

// Int returns the integer at key, coercing from any numeric type.
func Int(doc Document, key string) int {
	switch v := doc[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// Int64 returns the 64-bit integer at key, coercing from any numeric type.
func Int64(doc Document, key string) int64 {
	switch v := doc[key].(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

// Bool returns the boolean at key, or false when absent.
func Bool(doc Document, key string) bool {
	b, _ := doc[key].(bool)
	return b
}

// Slice returns the array at key, or nil when absent.
func Slice(doc Document, key string) []any {
	s, _ := doc[key].([]any)
	return s
}

// Sub returns the nested document at key, or nil when absent.
func Sub(doc Document, key string) Document {
	m, _ := doc[key].(map[string]any)
	return m
}
