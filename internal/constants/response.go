package constants

// Envelope field keys
const (
	ResponseFieldStatus = "status"
	ResponseFieldDetail = "detail"
	ResponseFieldData   = "data"

	ResponseFieldCode   = "code"
	ResponseFieldErrors = "errors"

	// Pagination fields
	ResponseFieldTotal     = "total"
	ResponseFieldPage      = "page"
	ResponseFieldPageTotal = "page_total"
	ResponseFieldResults   = "results"
)

// Envelope status values
const (
	StatusSuccess = "Success"
	StatusError   = "Error"
)

// Envelope is the uniform response body of every endpoint.
type Envelope struct {
	Status string `json:"status"`
	Detail string `json:"detail"`
	Data   any    `json:"data"`
}

// BuildSuccessResponse wraps data in a success envelope. A nil data becomes an
// empty object so clients can always index into it.
func BuildSuccessResponse(detail string, data any) Envelope {
	if data == nil {
		data = map[string]any{}
	}
	return Envelope{
		Status: StatusSuccess,
		Detail: detail,
		Data:   data,
	}
}

// BuildErrorResponse reports a failure with its machine-readable code and,
// when present, the individual violations.
func BuildErrorResponse(detail, code string, errs any) Envelope {
	data := map[string]any{
		ResponseFieldCode: code,
	}
	if errs != nil {
		data[ResponseFieldErrors] = errs
	}
	return Envelope{
		Status: StatusError,
		Detail: detail,
		Data:   data,
	}
}

func BuildListResponse(total int64, page int, pageTotal int, results any) map[string]any {
	return map[string]any{
		ResponseFieldTotal:     total,
		ResponseFieldPage:      page,
		ResponseFieldPageTotal: pageTotal,
		ResponseFieldResults:   results,
	}
}
