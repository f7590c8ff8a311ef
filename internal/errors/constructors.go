package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *TagIndexError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigRequired(field string) *TagIndexError {
	return New(CategoryConfig, SeverityFatal, "required configuration missing").
		WithContext("field", field)
}

func ValidationFailed(field, reason string) *TagIndexError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Document processing errors

func ScanError(cause error) *TagIndexError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "document scan failed")
}

func TemplateError(name string, cause error) *TagIndexError {
	return Wrap(cause, CategoryTemplate, SeverityFatal, "template rendering failed").
		WithContext("template", name)
}

func TemplateNotFound(path string) *TagIndexError {
	return New(CategoryTemplate, SeverityFatal, "template override not found").
		WithContext("path", path)
}

func WriteError(path string, cause error) *TagIndexError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "page write failed").
		WithContext("path", path)
}

// Git errors

func GitCloneError(repo string, cause error) *TagIndexError {
	return Wrap(cause, CategoryGit, SeverityFatal, "repository clone failed").
		WithContext("repository", repo)
}

func GitNetworkError(repo string, cause error) *TagIndexError {
	return WrapRetryable(cause, CategoryGit, SeverityWarning, "git network error").
		WithContext("repository", repo)
}

// Store and publisher errors degrade the pass rather than stopping it.

func StateError(operation string, cause error) *TagIndexError {
	return Wrap(cause, CategoryState, SeverityWarning, "state store operation failed").
		WithContext("operation", operation)
}

func EventPublishError(subject string, cause error) *TagIndexError {
	return Wrap(cause, CategoryEvents, SeverityWarning, "event publish failed").
		WithContext("subject", subject)
}

// Internal errors

func InternalError(message string, cause error) *TagIndexError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
