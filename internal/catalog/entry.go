package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// siteEntry mirrors one record of the Sherlock-style data.json
type siteEntry struct {
	URL            string            `json:"url"`
	URLMain        string            `json:"urlMain"`
	URLProbe       string            `json:"urlProbe"`
	ErrorType      string            `json:"errorType"`
	ErrorCode      intList           `json:"errorCode"`
	ErrorMsg       stringList        `json:"errorMsg"`
	ErrorURL       string            `json:"errorUrl"`
	RegexCheck     string            `json:"regexCheck"`
	IsNSFW         bool              `json:"isNSFW"`
	Headers        map[string]string `json:"headers"`
	RequestMethod  string            `json:"request_method"`
	RequestMethod2 string            `json:"requestMethod"`
	RequestPayload map[string]any    `json:"request_payload"`
}

func (e *siteEntry) method() string {
	if e.RequestMethod != "" {
		return e.RequestMethod
	}
	return e.RequestMethod2
}

// intList accepts either a single integer or a list of integers
type intList []int

func (l *intList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var many []int
		if err := json.Unmarshal(data, &many); err != nil {
			return fmt.Errorf("errorCode: %w", err)
		}
		*l = many
		return nil
	}
	var one int
	if err := json.Unmarshal(data, &one); err != nil {
		return fmt.Errorf("errorCode: %w", err)
	}
	*l = intList{one}
	return nil
}

// stringList accepts either a single string or a list of strings
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var many []string
		if err := json.Unmarshal(data, &many); err != nil {
			return fmt.Errorf("errorMsg: %w", err)
		}
		*l = many
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err != nil {
		return fmt.Errorf("errorMsg: %w", err)
	}
	*l = stringList{one}
	return nil
}
