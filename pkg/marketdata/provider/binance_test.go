package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/stretchr/testify/suite"

	"github.com/alphabench-lab/alphabench/internal/types"
)

// mockWriter is a simple mock implementation of MarketDataWriter for testing.
type mockWriter struct {
	initialized    bool
	initializeErr  error
	writeErr       error
	writeErrAfterN int // return writeErr after N successful writes
	finalizeErr    error
	outputPath     string
	writtenBars    []types.Bar
	writeCallCount int
}

func (m *mockWriter) Initialize() error {
	if m.initializeErr != nil {
		return m.initializeErr
	}

	m.initialized = true

	return nil
}

func (m *mockWriter) Write(bar types.Bar) error {
	m.writeCallCount++
	if m.writeErr != nil && (m.writeErrAfterN == 0 || m.writeCallCount > m.writeErrAfterN) {
		return m.writeErr
	}

	m.writtenBars = append(m.writtenBars, bar)

	return nil
}

func (m *mockWriter) Finalize() (string, error) {
	if m.finalizeErr != nil {
		return "", m.finalizeErr
	}

	return m.outputPath, nil
}

func (m *mockWriter) Close() error { return nil }

func (m *mockWriter) GetOutputPath() string { return m.outputPath }

// mockBinanceAPIClient implements BinanceAPIClient for testing.
type mockBinanceAPIClient struct {
	klines    []*binance.Kline
	klinesErr error
	// For pagination testing - returns different results on subsequent calls
	callCount     int
	klinesPerCall [][]*binance.Kline
	errorsPerCall []error
}

func (m *mockBinanceAPIClient) NewKlinesService() BinanceKlinesService {
	return &mockBinanceKlinesService{client: m}
}

type mockBinanceKlinesService struct {
	client *mockBinanceAPIClient
}

func (m *mockBinanceKlinesService) Symbol(string) BinanceKlinesService   { return m }
func (m *mockBinanceKlinesService) Interval(string) BinanceKlinesService { return m }
func (m *mockBinanceKlinesService) StartTime(int64) BinanceKlinesService { return m }
func (m *mockBinanceKlinesService) EndTime(int64) BinanceKlinesService   { return m }

func (m *mockBinanceKlinesService) Do(_ context.Context) ([]*binance.Kline, error) {
	if len(m.client.klinesPerCall) > 0 {
		idx := m.client.callCount
		m.client.callCount++

		if idx < len(m.client.klinesPerCall) {
			var err error
			if idx < len(m.client.errorsPerCall) {
				err = m.client.errorsPerCall[idx]
			}

			return m.client.klinesPerCall[idx], err
		}

		return nil, nil
	}

	return m.client.klines, m.client.klinesErr
}

func kline(openTime int64, closePrice string) *binance.Kline {
	return &binance.Kline{
		OpenTime:  openTime,
		Open:      "42000.50",
		High:      "42500.00",
		Low:       "41800.00",
		Close:     closePrice,
		Volume:    "1000.5",
		CloseTime: openTime + 86399999,
	}
}

func noProgress(float64, float64, string) {}

type BinanceClientTestSuite struct {
	suite.Suite
}

func TestBinanceClientSuite(t *testing.T) {
	suite.Run(t, new(BinanceClientTestSuite))
}

func (suite *BinanceClientTestSuite) TestNewBinanceClient() {
	client, err := NewBinanceClient()
	suite.NoError(err)

	binanceClient, ok := client.(*BinanceClient)
	suite.Require().True(ok)
	suite.NotNil(binanceClient.apiClient)
	suite.Nil(binanceClient.writer)

	_, ok = binanceClient.apiClient.(*binanceClientWrapper)
	suite.True(ok)
}

func (suite *BinanceClientTestSuite) TestDownloadWithoutWriter() {
	client, err := NewBinanceClient()
	suite.Require().NoError(err)

	startDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	endDate := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	_, err = client.Download(context.Background(), "BTCUSDT", startDate, endDate, 1, models.Day, noProgress)
	suite.Error(err)
	suite.Contains(err.Error(), "writer is not configured")
}

func (suite *BinanceClientTestSuite) TestDownloadWithInvalidTimespan() {
	client := NewBinanceClientWithAPI(&mockBinanceAPIClient{})
	client.ConfigWriter(&mockWriter{})

	startDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	endDate := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	_, err := client.Download(context.Background(), "BTCUSDT", startDate, endDate, 1, models.Quarter, noProgress)
	suite.Error(err)
	suite.Contains(err.Error(), "unsupported timespan")
}

func (suite *BinanceClientTestSuite) TestDownloadWriterInitializationError() {
	client := NewBinanceClientWithAPI(&mockBinanceAPIClient{})
	client.ConfigWriter(&mockWriter{initializeErr: errors.New("initialization failed")})

	startDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	endDate := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	_, err := client.Download(context.Background(), "BTCUSDT", startDate, endDate, 1, models.Day, noProgress)
	suite.Error(err)
	suite.Contains(err.Error(), "failed to initialize writer")
}

func (suite *BinanceClientTestSuite) TestConvertTimespanToBinanceInterval() {
	tests := []struct {
		name       string
		timespan   models.Timespan
		multiplier int
		want       string
		wantErr    bool
		errMsg     string
	}{
		{name: "1 minute", timespan: models.Minute, multiplier: 1, want: "1m"},
		{name: "15 minutes", timespan: models.Minute, multiplier: 15, want: "15m"},
		{name: "4 hours", timespan: models.Hour, multiplier: 4, want: "4h"},
		{name: "1 day", timespan: models.Day, multiplier: 1, want: "1d"},
		{name: "1 week", timespan: models.Week, multiplier: 1, want: "1w"},
		{name: "2 weeks - unsupported", timespan: models.Week, multiplier: 2, wantErr: true, errMsg: "unsupported weekly multiplier"},
		{name: "1 month", timespan: models.Month, multiplier: 1, want: "1M"},
		{name: "3 months - unsupported", timespan: models.Month, multiplier: 3, wantErr: true, errMsg: "unsupported monthly multiplier"},
		{name: "quarter - unsupported", timespan: models.Quarter, multiplier: 1, wantErr: true, errMsg: "unsupported timespan"},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			got, err := convertTimespanToBinanceInterval(tt.timespan, tt.multiplier)
			if tt.wantErr {
				suite.Error(err)
				suite.Contains(err.Error(), tt.errMsg)
			} else {
				suite.NoError(err)
				suite.Equal(tt.want, got)
			}
		})
	}
}

func (suite *BinanceClientTestSuite) TestProcessKlines() {
	klines := []*binance.Kline{
		kline(1704067200000, "42300.00"),
		kline(1704153600000, "42350.00"),
	}

	mockW := &mockWriter{}

	err := processKlines(mockW, "BTCUSDT", klines)
	suite.NoError(err)
	suite.Require().Len(mockW.writtenBars, 2)

	first := mockW.writtenBars[0]
	suite.Equal("BTCUSDT", first.Symbol)
	suite.Equal(time.UnixMilli(1704067200000), first.Time)
	suite.InDelta(42000.50, first.Open, 0.01)
	suite.InDelta(42300.00, first.Close, 0.01)
	suite.InDelta(1000.5, first.Volume, 0.01)

	suite.InDelta(42350.00, mockW.writtenBars[1].Close, 0.01)
}

func (suite *BinanceClientTestSuite) TestProcessKlinesInvalidNumbersParseAsZero() {
	klines := []*binance.Kline{
		{
			OpenTime:  1704067200000,
			Open:      "invalid",
			High:      "also_invalid",
			Low:       "not_a_number",
			Close:     "xyz",
			Volume:    "abc",
			CloseTime: 1704067259999,
		},
	}

	mockW := &mockWriter{}

	err := processKlines(mockW, "BTCUSDT", klines)
	suite.NoError(err)
	suite.Require().Len(mockW.writtenBars, 1)
	suite.Equal(float64(0), mockW.writtenBars[0].Close)
}

func (suite *BinanceClientTestSuite) TestDownloadSuccess() {
	mockAPI := &mockBinanceAPIClient{klines: []*binance.Kline{
		kline(1704067200000, "42300.00"),
		kline(1704153600000, "42350.00"),
	}}
	mockW := &mockWriter{outputPath: "/tmp/test.parquet"}

	client := NewBinanceClientWithAPI(mockAPI)
	client.ConfigWriter(mockW)

	startDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	endDate := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	path, err := client.Download(context.Background(), "BTCUSDT", startDate, endDate, 1, models.Day, noProgress)
	suite.NoError(err)
	suite.Equal("/tmp/test.parquet", path)
	suite.Len(mockW.writtenBars, 2)
	suite.True(mockW.initialized)
}

func (suite *BinanceClientTestSuite) TestDownloadAPIError() {
	mockAPI := &mockBinanceAPIClient{klinesErr: errors.New("API rate limit exceeded")}
	mockW := &mockWriter{outputPath: "/tmp/test.parquet"}

	client := NewBinanceClientWithAPI(mockAPI)
	client.ConfigWriter(mockW)

	startDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	endDate := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	_, err := client.Download(context.Background(), "BTCUSDT", startDate, endDate, 1, models.Day, noProgress)
	suite.Error(err)
	suite.Contains(err.Error(), "failed to fetch klines from Binance")
	suite.Contains(err.Error(), "API rate limit exceeded")
}

func (suite *BinanceClientTestSuite) TestDownloadAPIErrorWithFinalizeError() {
	mockAPI := &mockBinanceAPIClient{klinesErr: errors.New("API error")}
	mockW := &mockWriter{finalizeErr: errors.New("finalize failed")}

	client := NewBinanceClientWithAPI(mockAPI)
	client.ConfigWriter(mockW)

	startDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	endDate := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	_, err := client.Download(context.Background(), "BTCUSDT", startDate, endDate, 1, models.Day, noProgress)
	suite.Error(err)
	suite.Contains(err.Error(), "failed to fetch klines from Binance")
	suite.Contains(err.Error(), "also failed to finalize writer")
}

func (suite *BinanceClientTestSuite) TestDownloadFinalizeError() {
	mockAPI := &mockBinanceAPIClient{klines: []*binance.Kline{kline(1704067200000, "42300.00")}}
	mockW := &mockWriter{finalizeErr: errors.New("disk full")}

	client := NewBinanceClientWithAPI(mockAPI)
	client.ConfigWriter(mockW)

	startDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	endDate := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	_, err := client.Download(context.Background(), "BTCUSDT", startDate, endDate, 1, models.Day, noProgress)
	suite.Error(err)
	suite.Contains(err.Error(), "failed to finalize writer")
}

func (suite *BinanceClientTestSuite) TestDownloadWriteError() {
	mockAPI := &mockBinanceAPIClient{klines: []*binance.Kline{kline(1704067200000, "42300.00")}}
	mockW := &mockWriter{writeErr: errors.New("write error")}

	client := NewBinanceClientWithAPI(mockAPI)
	client.ConfigWriter(mockW)

	startDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	endDate := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	_, err := client.Download(context.Background(), "BTCUSDT", startDate, endDate, 1, models.Day, noProgress)
	suite.Error(err)
	suite.Contains(err.Error(), "failed to process klines")
	suite.NotContains(err.Error(), "also failed to finalize")
}

func (suite *BinanceClientTestSuite) TestDownloadPagination() {
	startTimeMs := int64(1704067200000)

	// Two full pages of 500 trigger pagination; the third partial page ends it.
	makePage := func(offset, count int) []*binance.Kline {
		page := make([]*binance.Kline, count)
		for i := 0; i < count; i++ {
			openTime := startTimeMs + int64((offset+i)*60000)
			page[i] = &binance.Kline{
				OpenTime:  openTime,
				Open:      "42000.50",
				High:      "42500.00",
				Low:       "41800.00",
				Close:     "42300.00",
				Volume:    "1000.5",
				CloseTime: openTime + 59999,
			}
		}

		return page
	}

	mockAPI := &mockBinanceAPIClient{
		klinesPerCall: [][]*binance.Kline{makePage(0, 500), makePage(500, 500), makePage(1000, 100)},
	}
	mockW := &mockWriter{outputPath: "/tmp/paginated.parquet"}

	client := NewBinanceClientWithAPI(mockAPI)
	client.ConfigWriter(mockW)

	startDate := time.UnixMilli(startTimeMs)
	endDate := time.UnixMilli(startTimeMs + int64(2000*60000))

	path, err := client.Download(context.Background(), "BTCUSDT", startDate, endDate, 1, models.Minute, noProgress)
	suite.NoError(err)
	suite.Equal("/tmp/paginated.parquet", path)
	suite.Len(mockW.writtenBars, 1100)
	suite.Equal(3, mockAPI.callCount)
}

func (suite *BinanceClientTestSuite) TestDownloadPaginationAPIErrorOnSecondPage() {
	startTimeMs := int64(1704067200000)

	firstPage := make([]*binance.Kline, 500)
	for i := 0; i < 500; i++ {
		openTime := startTimeMs + int64(i*60000)
		firstPage[i] = &binance.Kline{
			OpenTime:  openTime,
			Open:      "42000.50",
			High:      "42500.00",
			Low:       "41800.00",
			Close:     "42300.00",
			Volume:    "1000.5",
			CloseTime: openTime + 59999,
		}
	}

	mockAPI := &mockBinanceAPIClient{
		klinesPerCall: [][]*binance.Kline{firstPage, nil},
		errorsPerCall: []error{nil, errors.New("connection timeout")},
	}
	mockW := &mockWriter{outputPath: "/tmp/test.parquet"}

	client := NewBinanceClientWithAPI(mockAPI)
	client.ConfigWriter(mockW)

	startDate := time.UnixMilli(startTimeMs)
	endDate := time.UnixMilli(startTimeMs + int64(2000*60000))

	_, err := client.Download(context.Background(), "BTCUSDT", startDate, endDate, 1, models.Minute, noProgress)
	suite.Error(err)
	suite.Contains(err.Error(), "connection timeout")
	// First page was written before the error.
	suite.Len(mockW.writtenBars, 500)
}

func (suite *BinanceClientTestSuite) TestDownloadProgressIsRelative() {
	mockAPI := &mockBinanceAPIClient{klines: []*binance.Kline{kline(1704067200000, "42300.00")}}
	mockW := &mockWriter{outputPath: "/tmp/test.parquet"}

	client := NewBinanceClientWithAPI(mockAPI)
	client.ConfigWriter(mockW)

	startDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	endDate := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	progress := make(chan [2]float64, 1)

	_, err := client.Download(context.Background(), "BTCUSDT", startDate, endDate, 1, models.Day, func(current float64, total float64, message string) {
		select {
		case progress <- [2]float64{current, total}:
		default:
		}
	})
	suite.Require().NoError(err)

	select {
	case p := <-progress:
		suite.Equal(float64(0), p[0])
		// A 30-day window in milliseconds, not an absolute timestamp.
		suite.InDelta(float64(30*24*60*60*1000), p[1], float64(24*60*60*1000))
	case <-time.After(time.Second):
		suite.Fail("progress callback was never invoked")
	}
}
