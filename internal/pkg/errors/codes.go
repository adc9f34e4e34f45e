package errors

// Error taxonomy from spec §7. Fatal errors abort the run (P1 errors
// are always fatal); the rest are logged and handled at their own
// granularity (record, batch, dataset, file) by the component that
// raises them.
const (
	CodeConfigError        = "CONFIG_ERROR"
	CodeStoreInitError     = "STORE_INIT_ERROR"
	CodeParseError         = "PARSE_ERROR"
	CodeResolveError       = "RESOLVE_ERROR"
	CodeSpatialLookupError = "SPATIAL_LOOKUP_ERROR"
	CodeDownloadError      = "DOWNLOAD_ERROR"
	CodeExtractError       = "EXTRACT_ERROR"
	CodeGtfsParseError     = "GTFS_PARSE_ERROR"
	CodeSerializationError = "SERIALIZATION_ERROR"
)

func NewConfigError(message string) *AppError       { return New(CodeConfigError, message, true) }
func NewStoreInitError(message string) *AppError     { return New(CodeStoreInitError, message, true) }
func NewParseError(message string) *AppError         { return New(CodeParseError, message, false) }
func NewResolveError(message string) *AppError       { return New(CodeResolveError, message, false) }
func NewSpatialLookupError(message string) *AppError { return New(CodeSpatialLookupError, message, false) }
func NewDownloadError(message string) *AppError      { return New(CodeDownloadError, message, false) }
func NewExtractError(message string) *AppError       { return New(CodeExtractError, message, false) }
func NewGtfsParseError(message string) *AppError     { return New(CodeGtfsParseError, message, false) }
func NewSerializationError(message string) *AppError { return New(CodeSerializationError, message, true) }
