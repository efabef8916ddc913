package models

import (
	"encoding/json"
	"strings"
)

// FlexStrings is a URL collection that legacy documents stored as either
// a single string or an array of strings. The original encoding is
// preserved on write so legacy fields pass through untouched.
type FlexStrings struct {
	values    []string
	wasSingle bool
}

// NewFlexStrings wraps a slice as an array-encoded collection.
func NewFlexStrings(values []string) FlexStrings {
	return FlexStrings{values: values}
}

// Values returns the URLs, nil when empty.
func (f FlexStrings) Values() []string { return f.values }

// Empty reports whether the collection holds no URLs.
func (f FlexStrings) Empty() bool { return len(f.values) == 0 }

func (f FlexStrings) MarshalJSON() ([]byte, error) {
	if f.wasSingle && len(f.values) == 1 {
		return json.Marshal(f.values[0])
	}
	if f.values == nil {
		return []byte("null"), nil
	}
	return json.Marshal(f.values)
}

func (f *FlexStrings) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = FlexStrings{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var one string
		if err := json.Unmarshal(b, &one); err != nil {
			return err
		}
		if one == "" {
			*f = FlexStrings{wasSingle: true}
			return nil
		}
		*f = FlexStrings{values: []string{one}, wasSingle: true}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*f = FlexStrings{values: many}
	return nil
}
