package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode представляет код ошибки
type ErrorCode string

const (
	// Общие ошибки
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation      ErrorCode = "VALIDATION_ERROR"
	ErrCodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden       ErrorCode = "FORBIDDEN"
	ErrCodeRateLimit       ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeServiceDegraded ErrorCode = "SERVICE_UNAVAILABLE"

	// Ошибки гивов
	ErrCodeGiveawayNotFound ErrorCode = "GIVEAWAY_NOT_FOUND"
	ErrCodeDuplicateID      ErrorCode = "DUPLICATE_ID"
	ErrCodeNotActive        ErrorCode = "NOT_ACTIVE"
	ErrCodeGiveawayExpired  ErrorCode = "GIVEAWAY_EXPIRED"
	ErrCodeCapacityReached  ErrorCode = "CAPACITY_REACHED"

	// Ошибки клеймов
	ErrCodeDuplicateClaim ErrorCode = "DUPLICATE_CLAIM"
	ErrCodeAlreadyClaimed ErrorCode = "ALREADY_CLAIMED"
	ErrCodeNotVerified    ErrorCode = "NOT_VERIFIED"

	// Ошибки верификации
	ErrCodeInvalidProofFormat ErrorCode = "INVALID_PROOF_FORMAT"
	ErrCodeKeywordsMissing    ErrorCode = "KEYWORDS_MISSING"
	ErrCodeProofFetchFailed   ErrorCode = "PROOF_FETCH_FAILED"
)

// AppError представляет типизированную ошибку приложения
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Context   map[string]string      `json:"-"`
	Stack     []string               `json:"-"`
	Timestamp time.Time              `json:"timestamp"`
	RequestID string                 `json:"request_id,omitempty"`
	UserID    string                 `json:"-"`
	Cause     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по коду, чтобы errors.Is работал с шаблонными ошибками
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func (e *AppError) IsNotFound() bool {
	return e.Code == ErrCodeGiveawayNotFound
}

// IsValidation проверяет, является ли ошибка ошибкой входных данных
func (e *AppError) IsValidation() bool {
	return e.Code == ErrCodeValidation || e.Code == ErrCodeInvalidProofFormat
}

func (e *AppError) IsConflict() bool {
	switch e.Code {
	case ErrCodeDuplicateID, ErrCodeDuplicateClaim, ErrCodeAlreadyClaimed:
		return true
	}
	return false
}

// IsNotEligible проверяет, является ли ошибка отказом в клейме
func (e *AppError) IsNotEligible() bool {
	switch e.Code {
	case ErrCodeNotActive, ErrCodeCapacityReached, ErrCodeNotVerified,
		ErrCodeGiveawayExpired, ErrCodeKeywordsMissing:
		return true
	}
	return false
}

func (e *AppError) IsUnauthorized() bool {
	return e.Code == ErrCodeUnauthorized || e.Code == ErrCodeForbidden
}

func (e *AppError) IsExternal() bool {
	return e.Code == ErrCodeProofFetchFailed
}

// IsInternal проверяет, является ли ошибка внутренней ошибкой
func (e *AppError) IsInternal() bool {
	return e.Code == ErrCodeInternal || e.Code == ErrCodeServiceDegraded
}

// WithContext добавляет контекст к ошибке
func (e *AppError) WithContext(key, value string) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithDetail добавляет детальную информацию к ошибке
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

func (e *AppError) WithUserID(userID string) *AppError {
	e.UserID = userID
	return e
}

// New создает новую ошибку приложения
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Wrap оборачивает существующую ошибку. Стек сохраняется только для внутренних ошибок.
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	if appErr.IsInternal() {
		appErr.Stack = getStackTrace()
	}
	return appErr
}

func getStackTrace() []string {
	var stack []string
	for i := 2; ; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		// Пропускаем внутренние функции пакета errors
		if strings.Contains(fn.Name(), "internal/common/errors") {
			continue
		}
		stack = append(stack, fmt.Sprintf("%s:%d %s", file, line, fn.Name()))
		if len(stack) >= 10 {
			break
		}
	}
	return stack
}

// Конструкторы для часто используемых ошибок

// NewValidationError создает ошибку валидации
func NewValidationError(field, reason string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("Validation failed for field '%s': %s", field, reason)).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

func NewGiveawayNotFoundError(giveawayID string) *AppError {
	return New(ErrCodeGiveawayNotFound, fmt.Sprintf("Giveaway not found: %s", giveawayID)).
		WithDetail("giveaway_id", giveawayID)
}

func NewDuplicateIDError(giveawayID string) *AppError {
	return New(ErrCodeDuplicateID, fmt.Sprintf("Giveaway already exists: %s", giveawayID)).
		WithDetail("giveaway_id", giveawayID)
}

func NewNotActiveError(giveawayID, status string) *AppError {
	return New(ErrCodeNotActive, "Giveaway is no longer active").
		WithDetail("giveaway_id", giveawayID).
		WithDetail("status", status)
}

func NewExpiredError(giveawayID string) *AppError {
	return New(ErrCodeGiveawayExpired, "Giveaway has expired").
		WithDetail("giveaway_id", giveawayID)
}

func NewCapacityReachedError(giveawayID string, maxRecipients int) *AppError {
	return New(ErrCodeCapacityReached, "Maximum number of recipients reached").
		WithDetail("giveaway_id", giveawayID).
		WithDetail("max_recipients", maxRecipients)
}

func NewDuplicateClaimError(giveawayID string) *AppError {
	return New(ErrCodeDuplicateClaim, "Claim already recorded for this giveaway").
		WithDetail("giveaway_id", giveawayID)
}

func NewAlreadyClaimedError(giveawayID string) *AppError {
	return New(ErrCodeAlreadyClaimed, "You have already claimed this giveaway").
		WithDetail("giveaway_id", giveawayID)
}

func NewNotVerifiedError(giveawayID string) *AppError {
	return New(ErrCodeNotVerified, "Tweet verification required before claiming").
		WithDetail("giveaway_id", giveawayID)
}

// NewInvalidProofFormatError создает ошибку неверной ссылки на твит
func NewInvalidProofFormatError(locator string) *AppError {
	return New(ErrCodeInvalidProofFormat, "Invalid tweet URL").
		WithDetail("tweet_url", locator)
}

// NewKeywordsMissingError перечисляет отсутствующие ключевые слова в Details["missing"]
func NewKeywordsMissingError(missing []string) *AppError {
	return New(ErrCodeKeywordsMissing, fmt.Sprintf("Tweet is missing required keywords: %s", strings.Join(missing, ", "))).
		WithDetail("missing", missing)
}

func NewProofFetchFailedError(tweetID string, err error) *AppError {
	return Wrap(err, ErrCodeProofFetchFailed, "Failed to fetch tweet").
		WithDetail("tweet_id", tweetID)
}

func NewUnauthorizedError(reason string) *AppError {
	return New(ErrCodeUnauthorized, fmt.Sprintf("Unauthorized: %s", reason)).
		WithDetail("reason", reason)
}

func NewForbiddenError(reason string) *AppError {
	return New(ErrCodeForbidden, fmt.Sprintf("Forbidden: %s", reason)).
		WithDetail("reason", reason)
}

// NewRateLimitError создает ошибку превышения лимита запросов
func NewRateLimitError(scope string, retryAfter time.Duration) *AppError {
	return New(ErrCodeRateLimit, fmt.Sprintf("Rate limit exceeded for %s", scope)).
		WithDetail("scope", scope).
		WithDetail("retry_after", retryAfter.String())
}

// NewInternalError скрывает причину от клиента, она попадает только в лог
func NewInternalError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeInternal, "Internal server error").
		WithContext("operation", operation)
}

// AsAppError приводит ошибку к AppError, в том числе обернутую через %w
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err != nil && stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode проверяет код ошибки
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
