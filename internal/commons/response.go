package commons

// Error codes exposed to callers. Stable: clients branch on these, not on
// the human-readable message.
const (
	CodeInvalidInput      = "INVALID_INPUT"
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidState      = "INVALID_STATE"
	CodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	CodeStorageError      = "STORAGE_ERROR"
	CodeInconsistentState = "INCONSISTENT_STATE"
)

type Response[T any] struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
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

func ErrorResponse[T any](code string, message string, errors ...string) Response[T] {
	return Response[T]{
		Success: false,
		Message: message,
		Code:    code,
		Errors:  errors,
	}
}
