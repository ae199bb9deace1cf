package errors

// ErrorCode is a stable machine-readable error identifier returned by the API
type ErrorCode string

// Authentication error codes (AUTH_*)
const (
	AuthInvalidCredentials ErrorCode = "AUTH_001"
	AuthMissingToken       ErrorCode = "AUTH_002"
	AuthExpiredToken       ErrorCode = "AUTH_003"
	AuthInvalidTokenFormat ErrorCode = "AUTH_004"
	AuthInvalidMFACode     ErrorCode = "AUTH_005"
	AuthAccountLocked      ErrorCode = "AUTH_006"
	AuthRevokedToken       ErrorCode = "AUTH_007"
	AuthInvalidResetToken  ErrorCode = "AUTH_008"
)

// Validation error codes (VALIDATION_*)
const (
	ValidationGeneral        ErrorCode = "VALIDATION_001"
	ValidationRequiredField  ErrorCode = "VALIDATION_002"
	ValidationInvalidFormat  ErrorCode = "VALIDATION_003"
	ValidationOutOfRange     ErrorCode = "VALIDATION_004"
	ValidationInvalidEmail   ErrorCode = "VALIDATION_005"
	ValidationWeakPassword   ErrorCode = "VALIDATION_006"
	ValidationInvalidDate    ErrorCode = "VALIDATION_007"
	ValidationInvalidFilters ErrorCode = "VALIDATION_008"
)

// User error codes (USER_*)
const (
	UserAlreadyExists ErrorCode = "USER_001"
	UserNotFound      ErrorCode = "USER_002"
)

// Transaction error codes (TRANSACTION_*)
const (
	TransactionNotFound            ErrorCode = "TRANSACTION_001"
	TransactionInvalidAmount       ErrorCode = "TRANSACTION_002"
	TransactionCategoryMismatch    ErrorCode = "TRANSACTION_003"
	TransactionAlreadyMaterialized ErrorCode = "TRANSACTION_004"
	TransactionValidationFailed    ErrorCode = "TRANSACTION_005"
	TransactionInvalidType         ErrorCode = "TRANSACTION_006"
	TransactionInvalidSchedule     ErrorCode = "TRANSACTION_007"
)

// System error codes (SYSTEM_*)
const (
	SystemInternalError      ErrorCode = "SYSTEM_001"
	SystemDatabaseError      ErrorCode = "SYSTEM_002"
	SystemServiceUnavailable ErrorCode = "SYSTEM_003"
	SystemConfigurationError ErrorCode = "SYSTEM_004"
	SystemUnexpectedError    ErrorCode = "SYSTEM_005"
	SystemRateLimitExceeded  ErrorCode = "SYSTEM_006"
)

var errorMessages = map[ErrorCode]string{
	AuthInvalidCredentials: "Invalid email or password",
	AuthMissingToken:       "Authorization token is required",
	AuthExpiredToken:       "Authorization token has expired",
	AuthInvalidTokenFormat: "Invalid authorization token format",
	AuthInvalidMFACode:     "Invalid authentication code",
	AuthAccountLocked:      "Account is temporarily locked after too many failed attempts",
	AuthRevokedToken:       "Authorization token has been revoked",
	AuthInvalidResetToken:  "Password reset link is invalid or has expired",

	ValidationGeneral:        "Validation failed",
	ValidationRequiredField:  "Required field is missing",
	ValidationInvalidFormat:  "Invalid field format",
	ValidationOutOfRange:     "Field value is out of allowed range",
	ValidationInvalidEmail:   "Invalid email address format",
	ValidationWeakPassword:   "Password does not meet the security requirements",
	ValidationInvalidDate:    "Invalid date format or range",
	ValidationInvalidFilters: "Invalid filter or sort parameters",

	UserAlreadyExists: "An account with this email already exists",
	UserNotFound:      "User not found",

	TransactionNotFound:            "Transaction not found",
	TransactionInvalidAmount:       "Amount must be a non-negative number",
	TransactionCategoryMismatch:    "Category does not belong to the transaction type",
	TransactionAlreadyMaterialized: "This recurring occurrence has already been recorded",
	TransactionValidationFailed:    "Transaction validation failed",
	TransactionInvalidType:         "Transaction type must be income or expense",
	TransactionInvalidSchedule:     "Invalid recurrence schedule",

	SystemInternalError:      "An unexpected error occurred. Please contact support with trace ID",
	SystemDatabaseError:      "Database connection error",
	SystemServiceUnavailable: "Service temporarily unavailable",
	SystemConfigurationError: "System configuration error",
	SystemUnexpectedError:    "An unexpected error occurred",
	SystemRateLimitExceeded:  "Rate limit exceeded. Please try again later",
}

// GetErrorMessage returns the default message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "An error occurred"
}

// IsValidErrorCode checks if the provided error code is a registered code
func IsValidErrorCode(code ErrorCode) bool {
	_, ok := errorMessages[code]
	return ok
}
