package criteria

import (
	"github.com/viant/txshield/service/dao"
)

// ParamState is the parameter name used to filter by lifecycle state.
const ParamState = "State"

// FilterByState reports whether state satisfies every State parameter.
// Parameters with other names are ignored.
func FilterByState(state string, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil || parameter.Name != ParamState {
			continue
		}
		switch actual := parameter.Value.(type) {
		case string:
			if state != actual {
				return false
			}
		case []string:
			matched := false
			for _, candidate := range actual {
				if state == candidate {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		}
	}
	return true
}
