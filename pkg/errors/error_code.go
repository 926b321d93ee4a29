package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidLookback      ErrorCode = 102
	ErrCodeInvalidThreshold     ErrorCode = 103
	ErrCodeInvalidConfidence    ErrorCode = 104
	ErrCodeInvalidSeriesLength  ErrorCode = 105
	ErrCodeInsufficientData     ErrorCode = 106
	ErrCodeInvalidType          ErrorCode = 107
	ErrCodeInvalidInterval      ErrorCode = 108
	ErrCodeMissingParameter     ErrorCode = 109
	ErrCodeInvalidVersion       ErrorCode = 110
	ErrCodeMisalignedSeries     ErrorCode = 111

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeHistoricalDataFailed  ErrorCode = 203
	ErrCodeNoDataFound           ErrorCode = 204

	// Statistics errors (300-399)
	ErrCodeSingularRegression  ErrorCode = 300
	ErrCodeDegenerateSeries    ErrorCode = 301
	ErrCodeStatisticalTest     ErrorCode = 302
	ErrCodeUndefinedRatio      ErrorCode = 303
	ErrCodeInvalidPercentile   ErrorCode = 304
	ErrCodeSimulationFailed    ErrorCode = 305
	ErrCodeInvalidDistribution ErrorCode = 306

	// Strategy errors (400-499)
	ErrCodeStrategyConfigError ErrorCode = 400
	ErrCodeSignalGeneration    ErrorCode = 401
	ErrCodeUnsupportedStrategy ErrorCode = 402
	ErrCodeVersionMismatch     ErrorCode = 403

	// Pair scan errors (500-599)
	ErrCodePairScanFailed     ErrorCode = 500
	ErrCodePairAlignmentEmpty ErrorCode = 501
	ErrCodeCointegration      ErrorCode = 502

	// Backtest errors (600-699)
	ErrCodeBacktestStateNil     ErrorCode = 600
	ErrCodeBacktestInitFailed   ErrorCode = 601
	ErrCodeBacktestConfigError  ErrorCode = 602
	ErrCodeBacktestDataPath     ErrorCode = 603
	ErrCodeBacktestNoStrategies ErrorCode = 604
	ErrCodeBacktestNoSymbols    ErrorCode = 605
	ErrCodeBacktestNoResultsDir ErrorCode = 606
	ErrCodeBacktestNoDatasource ErrorCode = 607
	ErrCodeEmptyLedger          ErrorCode = 608

	// Market data errors (700-799)
	ErrCodeMarketDataFetchFailed ErrorCode = 700
	ErrCodeMarketDataWriteFailed ErrorCode = 701
	ErrCodeMarketDataParseFailed ErrorCode = 702
	ErrCodeInvalidTimespan       ErrorCode = 703
	ErrCodeInvalidProvider       ErrorCode = 704

	// Report errors (800-899)
	ErrCodeAdvisorUnavailable   ErrorCode = 800
	ErrCodeAdvisorRequestFailed ErrorCode = 801
	ErrCodeEmptyPayload         ErrorCode = 802
)
