package service

import "errors"

var (
	ErrUnsupportedLanguage   = errors.New("unsupported language")
	ErrProblemNotFound       = errors.New("problem not found")
	ErrNoTestCases           = errors.New("problem has no test cases")
	ErrSubmissionNotFound    = errors.New("submission not found")
	ErrJobAccessDenied       = errors.New("job access denied")
	ErrInvalidUserOrPassword = errors.New("invalid username or password")
	ErrUserDuplicate         = errors.New("username already exists")
)
