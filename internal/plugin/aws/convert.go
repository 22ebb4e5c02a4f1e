package aws

import (
	"strconv"
	"strings"

	"github.com/yairfalse/awsinventory/pkg/inventory"
)

// listSeparator joins multi-valued fields into a single cell.
const listSeparator = ", "

func str(s *string) string {
	if s == nil {
		return inventory.NotAvailable
	}
	return *s
}

func int32Str(n *int32) string {
	if n == nil {
		return inventory.NotAvailable
	}
	return strconv.Itoa(int(*n))
}

func boolStr(b *bool) string {
	if b == nil {
		return inventory.NotAvailable
	}
	return strconv.FormatBool(*b)
}

func join(values []string) string {
	return strings.Join(values, listSeparator)
}

// tagMap flattens a provider tag list into key → value. Later duplicates win.
func tagMap[T any](tags []T, kv func(T) (*string, *string)) map[string]string {
	m := make(map[string]string, len(tags))
	for _, tag := range tags {
		k, v := kv(tag)
		if k == nil {
			continue
		}
		m[*k] = deref(v)
	}
	return m
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// hasMore reports whether a pagination token points at another page.
func hasMore(token *string) bool {
	return token != nil && *token != ""
}
