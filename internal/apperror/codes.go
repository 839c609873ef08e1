package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Resolver-specific error codes
const (
	// Price resolution outcomes. These form the caller-visible taxonomy of
	// the public price API; callers branch on them with errors.Is/GetCode.
	CodeNoPricePath       Code = "NO_PRICE_PATH"
	CodeZeroRate          Code = "ZERO_RATE"
	CodeDepthExceeded     Code = "DEPTH_EXCEEDED"
	CodeInvalidAsset      Code = "INVALID_ASSET"
	CodeResolutionTimeout Code = "RESOLUTION_TIMEOUT"

	// Blockchain/Ethereum errors
	CodeEthereumConnectionFailed Code = "ETHEREUM_CONNECTION_FAILED"
	CodeEthereumSubscribeFailed  Code = "ETHEREUM_SUBSCRIBE_FAILED"
	CodeEthereumRPCError         Code = "ETHEREUM_RPC_ERROR"
	CodeBlockNotFound            Code = "BLOCK_NOT_FOUND"
	CodeContractCallFailed       Code = "CONTRACT_CALL_FAILED"

	// Venue adapter errors
	CodeVenueStateReadFailed Code = "VENUE_STATE_READ_FAILED"
	CodePairNotCovered       Code = "PAIR_NOT_COVERED"
	CodePoolNotFound         Code = "POOL_NOT_FOUND"
	CodeInvalidQuote         Code = "INVALID_QUOTE"

	// Unwrap errors
	CodeUnwrapRateFailed Code = "UNWRAP_RATE_FAILED"
	CodeUnwrapCycle      Code = "UNWRAP_CYCLE"

	// Circuit breaker errors
	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)
