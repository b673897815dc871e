package http

// Unwrap 取出列表：接受裸数组或 {data:[...]} 包装，其它形状返回 nil
func Unwrap(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case map[string]any:
		if list, ok := t["data"].([]any); ok {
			return list
		}
	}
	return nil
}
