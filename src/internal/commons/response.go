package commons

import "github.com/api-sage/branch-teller-core/src/internal/domain"

// Response is the envelope every console command answers with. Kind is set
// when a business rule stopped the operation.
type Response[T any] struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Kind    string   `json:"kind,omitempty"`
	Data    *T       `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func SuccessResponse[T any](message string, data T) Response[T] {
	return Response[T]{
		Success: true,
		Message: message,
		Data:    &data,
	}
}

func ErrorResponse[T any](message string, errors ...string) Response[T] {
	return Response[T]{
		Success: false,
		Message: message,
		Errors:  errors,
	}
}

func FailureResponse[T any](message string, err error) Response[T] {
	response := ErrorResponse[T](message, err.Error())
	if kind, ok := domain.ErrorKindOf(err); ok {
		response.Kind = string(kind)
	}
	return response
}
