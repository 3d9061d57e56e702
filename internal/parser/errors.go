package parser

import "errors"

// Errors returned by the ingestion pipeline. Callers match them with errors.Is;
// the returned errors wrap them with file and count details.
var (
	ErrNoFiles         = errors.New("no files provided")
	ErrInvalidFileType = errors.New("file type is incorrect, make sure it is a .csv file")
	ErrFileTooLarge    = errors.New("file is too large")
	ErrSchemaMismatch  = errors.New("number of columns is not the same across files")
	ErrMissingHeader   = errors.New("file has no header line")
	ErrInvalidStride   = errors.New("sample rate must be a positive integer")
)
