package apperrors

import "fmt"

// ErrorType is the fixed vocabulary every failure in the system is classified
// under. Collaborators return typed errors instead of relying on message text.
type ErrorType string

const (
	TypeDatabase           ErrorType = "database"
	TypeDatabaseConnection ErrorType = "database_connection"
	TypeDatabaseQuery      ErrorType = "database_query"
	TypeValidation         ErrorType = "validation"
	TypeAuthentication     ErrorType = "authentication"
	TypeAuthorization      ErrorType = "authorization"
	TypeNotFound           ErrorType = "not_found"
	TypeParsing            ErrorType = "parsing"
	TypeTimeout            ErrorType = "timeout"
	TypeNetwork            ErrorType = "network"
	TypeExternalService    ErrorType = "external_service"
	TypeResource           ErrorType = "resource"
	TypeInternal           ErrorType = "internal"
	TypeInput              ErrorType = "input"
	TypeConfiguration      ErrorType = "configuration"
	TypeClassification     ErrorType = "classification"
	TypeEntityResolution   ErrorType = "entity_resolution"
	TypeTemporalAnalysis   ErrorType = "temporal_analysis"
	TypeSQLGeneration      ErrorType = "sql_generation"
	TypeSQLExecution       ErrorType = "sql_execution"
	TypeContext            ErrorType = "context"
	TypeAction             ErrorType = "action"
	TypeResponseGeneration ErrorType = "response_generation"
	TypeCorrection         ErrorType = "correction"
	TypeQueryCancelled     ErrorType = "query_cancelled"
)

// TypedError carries an ErrorType alongside the underlying cause so callers
// classify failures with errors.As rather than sniffing message text.
type TypedError struct {
	Type ErrorType
	Err  error
}

func (e *TypedError) Error() string {
	if e.Err == nil {
		return string(e.Type)
	}
	return fmt.Sprintf("%s: %v", e.Type, e.Err)
}

func (e *TypedError) Unwrap() error {
	return e.Err
}

// Typed wraps err with a classification.
func Typed(t ErrorType, err error) *TypedError {
	return &TypedError{Type: t, Err: err}
}

// Typedf is Typed over a formatted message.
func Typedf(t ErrorType, format string, args ...interface{}) *TypedError {
	return &TypedError{Type: t, Err: fmt.Errorf(format, args...)}
}

var statusCodes = map[ErrorType]int{
	TypeDatabase:           500,
	TypeDatabaseConnection: 503,
	TypeDatabaseQuery:      500,
	TypeValidation:         400,
	TypeAuthentication:     401,
	TypeAuthorization:      403,
	TypeNotFound:           404,
	TypeParsing:            400,
	TypeTimeout:            504,
	TypeNetwork:            502,
	TypeExternalService:    502,
	TypeResource:           507,
	TypeInternal:           500,
	TypeInput:              400,
	TypeConfiguration:      500,
	TypeClassification:     422,
	TypeEntityResolution:   422,
	TypeTemporalAnalysis:   422,
	TypeSQLGeneration:      500,
	TypeSQLExecution:       500,
	TypeContext:            500,
	TypeAction:             422,
	TypeResponseGeneration: 500,
	TypeCorrection:         422,
	TypeQueryCancelled:     499,
}

var recoverySuggestions = map[ErrorType]string{
	TypeDatabase:           "Check the database connection and try again.",
	TypeDatabaseConnection: "The database is unreachable. Try again in a moment.",
	TypeDatabaseQuery:      "The query could not be completed. Try rephrasing your question.",
	TypeValidation:         "Check the request fields and resubmit.",
	TypeAuthentication:     "Sign in again and retry.",
	TypeAuthorization:      "You do not have access to this operation.",
	TypeNotFound:           "The requested record could not be found.",
	TypeParsing:            "The input could not be parsed. Check the format.",
	TypeTimeout:            "The operation took too long. Try again or narrow the request.",
	TypeNetwork:            "A network error occurred. Check connectivity and retry.",
	TypeExternalService:    "An upstream service failed. Try again shortly.",
	TypeResource:           "The system is out of resources for this request.",
	TypeInternal:           "An unexpected error occurred. Try again.",
	TypeInput:              "The input was not understood. Try rephrasing.",
	TypeConfiguration:      "A configuration problem prevented this operation.",
	TypeClassification:     "The question could not be classified. Try rephrasing it.",
	TypeEntityResolution:   "The reference could not be resolved. Name the item explicitly.",
	TypeTemporalAnalysis:   "The date range was not understood. Use explicit dates.",
	TypeSQLGeneration:      "A query could not be generated for this question.",
	TypeSQLExecution:       "The generated query failed. Try a simpler question.",
	TypeContext:            "Conversation context was unavailable. Start a fresh question.",
	TypeAction:             "The action could not be performed. Check its parameters.",
	TypeResponseGeneration: "The response could not be formatted.",
	TypeCorrection:         "The correction could not be applied. Restate the full question.",
	TypeQueryCancelled:     "The query was cancelled before it completed.",
}

// StatusCode maps an error type to an HTTP-style status, defaulting to 500.
func StatusCode(t ErrorType) int {
	if code, ok := statusCodes[t]; ok {
		return code
	}
	return 500
}

// SuggestionFor returns the default recovery suggestion for an error type.
func SuggestionFor(t ErrorType) string {
	if s, ok := recoverySuggestions[t]; ok {
		return s
	}
	return recoverySuggestions[TypeInternal]
}
