package history

import "reflect"

func equal(a, b any) bool {
	if s, ok := a.(interface{ String() string }); ok {
		if t, ok := b.(interface{ String() string }); ok {
			return s.String() == t.String()
		}
	}
	return reflect.DeepEqual(a, b)
}
