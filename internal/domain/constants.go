package domain

const (
	Version = "1.0.0"

	PathEmpty        = ""
	PathCurrent      = "."
	PathRoot         = "/"
	HiddenFilePrefix = "."
	ExtensionZip     = ".zip"
	MIMEOctetStream  = "application/octet-stream"
	MIMEZip          = "application/zip"
	MIMEJSON         = "application/json"
)
