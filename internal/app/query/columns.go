// internal/app/query/columns.go
package query

import "strings"

// ColumnsReference reports whether any requested output column path is
// prefixed by the given relation prefix (e.g. "facilities."). Together with
// the criteria check this drives stage inclusion: a relation is joined iff
// it is filtered on or returned.
func ColumnsReference(prefix string, columns []string) bool {
	for _, c := range columns {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

// ColumnsInclude reports whether the column restriction admits the named
// column. A nil restriction admits everything.
func ColumnsInclude(columns []string, name string) bool {
	if columns == nil {
		return true
	}
	for _, c := range columns {
		if c == name {
			return true
		}
	}
	return false
}

// TopLevel returns the first path segment of a column ("facilities.gender"
// -> "facilities").
func TopLevel(column string) string {
	if i := strings.IndexByte(column, '.'); i >= 0 {
		return column[:i]
	}
	return column
}
