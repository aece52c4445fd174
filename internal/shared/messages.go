package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrBackendUnavailable marks transport failures and an open circuit breaker.
var ErrBackendUnavailable = errors.New("backend unavailable")

// GenericMessage is shown when nothing more specific is known.
const GenericMessage = "Ocurrió un error inesperado. Intentá nuevamente."

const offlineMessage = "No hay conexión con el servidor. Verificá tu conexión e intentá nuevamente."

// ResponseError is implemented by errors that carry a backend HTTP response.
type ResponseError interface {
	error
	HTTPStatus() int
	ResponseDetail() json.RawMessage
}

// UserSafeMessage maps err to a display string without a caller fallback.
func UserSafeMessage(err error) string {
	return UserMessage(err, "")
}

// UserMessage maps err to a display string. The response detail wins, then the
// error's own message when it is meant for users, then fallback, then a generic text.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return firstNonEmpty(fallback, GenericMessage)
	}
	if errors.Is(err, ErrBackendUnavailable) {
		return offlineMessage
	}

	var respErr ResponseError
	if errors.As(err, &respErr) {
		if msg := DetailMessage(respErr.ResponseDetail()); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(respErr.Error()); msg != "" {
			return msg
		}
	}

	var validation *ValidationError
	if errors.As(err, &validation) && validation.Message != "" {
		return validation.Message
	}

	return firstNonEmpty(fallback, GenericMessage)
}

// DetailMessage renders a backend `detail` value: a string, a list of
// validation errors or an object.
func DetailMessage(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ""
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			if msg := validationItem(item); msg != "" {
				parts = append(parts, msg)
			}
		}
		return strings.Join(parts, "; ")
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		for _, key := range []string{"message", "msg", "detail", "error"} {
			if value, ok := obj[key]; ok {
				if msg := DetailMessage(value); msg != "" {
					return msg
				}
			}
		}
	}
	return trimmed
}

func validationItem(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}
	var item struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &item); err != nil || item.Msg == "" {
		return ""
	}
	field := ""
	for i := len(item.Loc) - 1; i >= 0; i-- {
		if name, ok := item.Loc[i].(string); ok && name != "body" && name != "query" {
			field = name
			break
		}
	}
	if field == "" {
		return item.Msg
	}
	return field + ": " + item.Msg
}

// StatusMessage returns a human-readable text for an HTTP status code.
func StatusMessage(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "Solicitud inválida. Revisá los datos ingresados."
	case http.StatusUnauthorized:
		return "Tu sesión expiró. Iniciá sesión nuevamente."
	case http.StatusForbidden:
		return "No tenés permisos para realizar esta acción."
	case http.StatusNotFound:
		return "El recurso solicitado no existe."
	case http.StatusConflict:
		return "La operación entra en conflicto con datos existentes."
	case http.StatusUnprocessableEntity:
		return "Los datos enviados no son válidos."
	case http.StatusInternalServerError:
		return "Error interno del servidor. Intentá más tarde."
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return "El servidor no está disponible en este momento. Intentá más tarde."
	default:
		return fmt.Sprintf("Error inesperado (código %d).", code)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
