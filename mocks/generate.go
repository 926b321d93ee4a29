package mocks

//go:generate mockgen -destination=./mock_datasource.go -package=mocks github.com/alphabench-lab/alphabench/internal/backtest/datasource DataSource
//go:generate mockgen -destination=./mock_provider.go -package=mocks github.com/alphabench-lab/alphabench/pkg/marketdata/provider Provider
