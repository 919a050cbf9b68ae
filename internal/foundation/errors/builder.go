package errors

// ErrorBuilder assembles a ClassifiedError fluently.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts an error of category. Defaults: error severity, no retry.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{
		category: category,
		severity: SeverityError,
		retry:    RetryNever,
		message:  message,
		context:  make(ErrorContext),
	}}
}

// WrapError starts an error of category caused by err.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	b := NewError(category, message)
	b.err.cause = err
	return b
}

// WithContext adds a context value.
func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context = b.err.context.Set(key, value)
	return b
}

func (b *ErrorBuilder) severity(s ErrorSeverity) *ErrorBuilder {
	b.err.severity = s
	return b
}

func (b *ErrorBuilder) retry(r RetryStrategy) *ErrorBuilder {
	b.err.retry = r
	return b
}

func (b *ErrorBuilder) Fatal() *ErrorBuilder   { return b.severity(SeverityFatal) }
func (b *ErrorBuilder) Warning() *ErrorBuilder { return b.severity(SeverityWarning) }
func (b *ErrorBuilder) Info() *ErrorBuilder    { return b.severity(SeverityInfo) }

// Retryable marks the error for retry with backoff.
func (b *ErrorBuilder) Retryable() *ErrorBuilder { return b.retry(RetryBackoff) }

// RateLimit marks the error as retryable once a limit window passes.
func (b *ErrorBuilder) RateLimit() *ErrorBuilder { return b.retry(RetryRateLimit) }

// UserAction marks the error as needing different input before a retry.
func (b *ErrorBuilder) UserAction() *ErrorBuilder { return b.retry(RetryUserAction) }

// Build returns the error. The builder must not be reused afterwards.
func (b *ErrorBuilder) Build() *ClassifiedError {
	e := b.err
	return &e
}

// Category constructors. Severity follows who has to act: callers get
// warnings, operators get errors.

// ConfigError creates a configuration error.
func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal()
}

// ValidationError creates a validation error. Validation failures are caused by
// client input, so they are logged at warning level.
func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message).Warning().UserAction()
}

// AuthError creates an authentication error.
func AuthError(message string) *ErrorBuilder {
	return NewError(CategoryAuth, message).Warning().UserAction()
}

// ForbiddenError creates an authorization error for authenticated callers.
func ForbiddenError(message string) *ErrorBuilder {
	return NewError(CategoryForbidden, message).Warning().UserAction()
}

// NotFoundError creates a missing resource error.
func NotFoundError(message string) *ErrorBuilder {
	return NewError(CategoryNotFound, message).Info()
}

// AlreadyExistsError creates a uniqueness conflict error.
func AlreadyExistsError(message string) *ErrorBuilder {
	return NewError(CategoryAlreadyExists, message).Warning().UserAction()
}

// RateLimitedError creates an error for a caller that exceeded a usage limit.
func RateLimitedError(message string) *ErrorBuilder {
	return NewError(CategoryRateLimit, message).Warning().RateLimit()
}

// NetworkError creates a network error (typically retryable).
func NetworkError(message string) *ErrorBuilder {
	return NewError(CategoryNetwork, message).Retryable()
}

// UploadError creates an image host integration error.
func UploadError(message string) *ErrorBuilder {
	return NewError(CategoryUpload, message).Retryable()
}

// MessagingError creates an event bus error.
func MessagingError(message string) *ErrorBuilder {
	return NewError(CategoryMessaging, message).Warning().Retryable()
}

// DatabaseError creates a persistence error.
func DatabaseError(message string) *ErrorBuilder {
	return NewError(CategoryDatabase, message)
}

// FileSystemError creates a filesystem error.
func FileSystemError(message string) *ErrorBuilder {
	return NewError(CategoryFileSystem, message).Retryable()
}

// RuntimeError creates a runtime error.
func RuntimeError(message string) *ErrorBuilder {
	return NewError(CategoryRuntime, message).Fatal()
}

// InternalError creates an internal error.
func InternalError(message string) *ErrorBuilder {
	return NewError(CategoryInternal, message).Fatal()
}
