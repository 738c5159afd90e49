package output

import (
	"encoding/json"
)

// JSONFormatter renders values with their API field names.
type JSONFormatter struct {
	Indent bool
}

func (f *JSONFormatter) Format(v any) (string, error) {
	var (
		data []byte
		err  error
	)
	if f.Indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
