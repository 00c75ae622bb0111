package handler

const (
	// RootPath is the root path the route group.
	RootPath = "/"

	// ErrNilACDFatalLogMsg is used if app, cfg or deps is nil.
	ErrNilACDFatalLogMsg = "app, cfg or deps is nil"
)
