package api

import (
	"encoding/json"
	"strings"

	apperrors "PronosticsPlatform/pkg/errors"
)

// errorBody объединяет форматы ошибок, которые отдает бэкенд:
// {"message": ...}, {"error": "..."}, {"error": {"code", "message"}}
// и {"errors": [{"field"|"param"|"path", "message"|"msg"}]}.
type errorBody struct {
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
	Errors  []fieldError    `json:"errors"`
}

type nestedError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type fieldError struct {
	Field   string `json:"field"`
	Param   string `json:"param"`
	Path    string `json:"path"`
	Message string `json:"message"`
	Msg     string `json:"msg"`
}

func (f fieldError) name() string {
	switch {
	case f.Field != "":
		return f.Field
	case f.Param != "":
		return f.Param
	}
	return f.Path
}

func (f fieldError) text() string {
	if f.Message != "" {
		return f.Message
	}
	return f.Msg
}

// parseError превращает ответ с кодом >= 400 в *apperrors.Error
func parseError(status int, body []byte) error {
	var parsed errorBody
	message := ""
	details := ""

	if err := json.Unmarshal(body, &parsed); err == nil {
		message = parsed.Message

		if len(parsed.Error) > 0 {
			var text string
			var nested nestedError
			if json.Unmarshal(parsed.Error, &text) == nil {
				if message == "" {
					message = text
				} else {
					details = text
				}
			} else if json.Unmarshal(parsed.Error, &nested) == nil {
				if message == "" {
					message = nested.Message
				}
				details = nested.Code
			}
		}
	} else if text := strings.TrimSpace(string(body)); text != "" && len(text) < 200 && !strings.HasPrefix(text, "<") {
		message = text
	}

	if message == "" && len(parsed.Errors) > 0 {
		message = parsed.Errors[0].text()
	}

	apiErr := apperrors.FromHTTPStatus(status, message)
	if details != "" {
		apiErr = apiErr.WithDetails(details)
	}
	for _, fe := range parsed.Errors {
		if name := fe.name(); name != "" {
			apiErr = apiErr.WithField(name, fe.text())
		}
	}
	return apiErr
}
