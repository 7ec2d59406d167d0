package export

import (
	"encoding/json"

	"gorm.io/datatypes"
)

func decodeList(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	return list
}
