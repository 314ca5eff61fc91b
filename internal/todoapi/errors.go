package todoapi

import (
	"fmt"
	"net/http"

	"github.com/mmcdole/todos/internal/domain"
)

// StatusError is returned when the server answers with a non-success status.
// It unwraps to one of the domain sentinels.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
	Kind       error
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return fmt.Sprintf("%v: %s", e.Kind, msg)
}

func (e *StatusError) Unwrap() error {
	return e.Kind
}

// statusKinds maps HTTP statuses to sentinels for one operation.
// Anything unmapped is a transport failure.
type statusKinds map[int]error

func (k statusKinds) classify(code int) error {
	if err, ok := k[code]; ok {
		return err
	}
	return domain.ErrTransport
}

var (
	fetchStatuses  = statusKinds{}
	createStatuses = statusKinds{
		http.StatusBadRequest:          domain.ErrValidation,
		http.StatusUnprocessableEntity: domain.ErrValidation,
	}
	updateStatuses = statusKinds{
		http.StatusNotFound:            domain.ErrNotFound,
		http.StatusBadRequest:          domain.ErrValidation,
		http.StatusUnprocessableEntity: domain.ErrValidation,
	}
	deleteStatuses = statusKinds{
		http.StatusNotFound: domain.ErrNotFound,
	}
)

// maxErrorBody caps how much of an error response is kept
const maxErrorBody = 512

func truncateBody(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}
