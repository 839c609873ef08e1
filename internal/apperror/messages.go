package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// Price resolution outcomes
	CodeNoPricePath:       "No price path between the requested assets",
	CodeZeroRate:          "Venue or unwrap step returned a zero rate",
	CodeDepthExceeded:     "Resolution depth budget exhausted",
	CodeInvalidAsset:      "Unknown or malformed asset identifier",
	CodeResolutionTimeout: "Price resolution timed out",

	// Blockchain/Ethereum errors
	CodeEthereumConnectionFailed: "Failed to connect to Ethereum node",
	CodeEthereumSubscribeFailed:  "Failed to subscribe to Ethereum events",
	CodeEthereumRPCError:         "Ethereum RPC call failed",
	CodeBlockNotFound:            "Block not found",
	CodeContractCallFailed:       "Smart contract call failed",

	// Venue adapter errors
	CodeVenueStateReadFailed: "Venue state read failed",
	CodePairNotCovered:       "Venue does not cover the requested pair",
	CodePoolNotFound:         "No pool found for the requested pair",
	CodeInvalidQuote:         "Invalid quote data",

	// Unwrap errors
	CodeUnwrapRateFailed: "Failed to read unwrap conversion rate",
	CodeUnwrapCycle:      "Unwrap link chain does not terminate",

	// Circuit breaker errors
	CodeCircuitOpen:     "Circuit breaker is open",
	CodeCircuitHalfOpen: "Circuit breaker is half-open",
}
