// Package api is the REST client of the GasPrice.io service.
//
// Every call is independent: the client holds only immutable configuration and
// an HTTP transport, so it can be shared between goroutines.
//
// Usage:
//
//	client := api.NewClient(configs.DefaultAPIConfig(configs.DefaultAPIURL), logger)
//	estimates, err := client.Estimates(ctx, "USD")
//	history, err := client.HistoryByMinute(ctx, api.WithDuration(1800))
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/navid-fn/gasradar/configs"
	"github.com/navid-fn/gasradar/gasprice"
	"github.com/sirupsen/logrus"
)

// Endpoint paths, query parameters and history windows in seconds. Max values are
// the documented upper bounds; the client does not enforce them.
const (
	estimatesPath        = "/estimates"
	historyByMinutePath  = "/historyByMinute"
	historyByHourPath    = "/historyByHour"
	poolByGasPricePath   = "/txpoolByGasPrice"
	poolAnalysisPath     = "/txpoolAnalysis"
	countervalueParam    = "countervalue"
	durationParam        = "duration"
	DefaultMinuteHistory = 10800
	MaxMinuteHistory     = 3600
	DefaultHourHistory   = 2592000
	MaxHourHistory       = 86300 * 30
)

// Client issues requests against one configured base URL.
type Client struct {
	http   *resty.Client
	logger *logrus.Entry
}

// NewClient creates a REST client. A nil logger means logrus.StandardLogger().
func NewClient(cfg *configs.APIConfig, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetTimeout(cfg.RequestTimeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(0).
		SetLogger(logger)
	if cfg.UserAgent != "" {
		httpClient.SetHeader("User-Agent", cfg.UserAgent)
	}

	return &Client{
		http:   httpClient,
		logger: logger.WithField("component", "api"),
	}
}

// HistoryOption tunes a history request.
type HistoryOption func(*historyOptions)

type historyOptions struct {
	duration    int
	durationSet bool
}

// WithDuration sets the history window in seconds. Values outside the documented
// range are sent as-is and left for the service to reject.
func WithDuration(seconds int) HistoryOption {
	return func(o *historyOptions) {
		o.duration = seconds
		o.durationSet = true
	}
}

// Estimates fetches the current fee estimates. An empty countervalue lets the
// service pick its default currency for the ETH price.
func (c *Client) Estimates(ctx context.Context, countervalue string) (*gasprice.FeeEstimateSet, error) {
	result, err := c.get(ctx, estimatesPath, map[string]string{countervalueParam: countervalue})
	if err != nil {
		return nil, err
	}

	set, err := gasprice.DecodeFeeEstimateSet(result)
	if err != nil {
		return nil, err
	}
	return &set, nil
}

// HistoryByMinute fetches minute based history. Documented range: 0 to 3600 seconds.
func (c *Client) HistoryByMinute(ctx context.Context, opts ...HistoryOption) ([]gasprice.HistoryRecord, error) {
	return c.history(ctx, historyByMinutePath, DefaultMinuteHistory, MaxMinuteHistory, opts)
}

// HistoryByHour fetches hour based history. Documented range: 0 to 86300*30 seconds.
func (c *Client) HistoryByHour(ctx context.Context, opts ...HistoryOption) ([]gasprice.HistoryRecord, error) {
	return c.history(ctx, historyByHourPath, DefaultHourHistory, MaxHourHistory, opts)
}

// PoolByGasPrice fetches the transaction pool grouped by gas price. The result has
// no typed schema; numbers are kept as json.Number.
func (c *Client) PoolByGasPrice(ctx context.Context) (map[string]any, error) {
	result, err := c.get(ctx, poolByGasPricePath, nil)
	if err != nil {
		return nil, err
	}

	if len(result) == 0 || string(result) == "null" {
		return nil, &gasprice.DecodeError{Field: "result", Err: gasprice.ErrMissingField}
	}
	value, err := gasprice.DecodeAny(result)
	if err != nil {
		return nil, &gasprice.DecodeError{Field: "result", Err: err}
	}
	pool, ok := value.(map[string]any)
	if !ok {
		return nil, &gasprice.DecodeError{Field: "result", Err: gasprice.ErrWrongType}
	}
	return pool, nil
}

// PoolAnalysis fetches the analysis of the pending transaction pool.
func (c *Client) PoolAnalysis(ctx context.Context) (*gasprice.PoolAnalysis, error) {
	result, err := c.get(ctx, poolAnalysisPath, nil)
	if err != nil {
		return nil, err
	}

	analysis, err := gasprice.DecodePoolAnalysis(result)
	if err != nil {
		return nil, err
	}
	return &analysis, nil
}

func (c *Client) history(ctx context.Context, path string, defaultDuration, maxDuration int, opts []HistoryOption) ([]gasprice.HistoryRecord, error) {
	options := historyOptions{duration: defaultDuration}
	for _, opt := range opts {
		opt(&options)
	}
	// defaults are not checked; the minute default is above its documented max
	if options.durationSet && (options.duration < 0 || options.duration > maxDuration) {
		c.logger.WithFields(logrus.Fields{
			"path":     path,
			"duration": options.duration,
			"max":      maxDuration,
		}).Debug("Duration outside documented range, sending as-is")
	}

	result, err := c.get(ctx, path, map[string]string{durationParam: strconv.Itoa(options.duration)})
	if err != nil {
		return nil, err
	}
	return gasprice.DecodeHistory(result)
}

// get performs the request and validates the response: status code first, then
// the envelope's error field. It returns the raw result on success.
func (c *Client) get(ctx context.Context, path string, params map[string]string) (json.RawMessage, error) {
	req := c.http.R().SetContext(ctx)
	if len(params) > 0 {
		req.SetQueryParams(params)
	}

	resp, err := req.Get(path)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}

	requestURL := responseURL(resp)
	c.logger.WithFields(logrus.Fields{
		"url":    requestURL,
		"status": resp.StatusCode(),
	}).Debug("Response received")

	if !accepted(resp.StatusCode()) {
		return nil, &UnexpectedStatusError{
			StatusCode: resp.StatusCode(),
			Reason:     reasonPhrase(resp),
			URL:        requestURL,
		}
	}

	envelope, err := gasprice.DecodeEnvelope(resp.Body())
	if err != nil {
		return nil, err
	}
	payload, failed, err := envelope.Failed()
	if err != nil {
		return nil, err
	}
	if failed {
		return nil, &ServiceError{Payload: payload, URL: requestURL}
	}
	return envelope.Result, nil
}

func responseURL(resp *resty.Response) string {
	if resp.Request != nil && resp.Request.RawRequest != nil {
		return resp.Request.RawRequest.URL.String()
	}
	if resp.Request != nil {
		return resp.Request.URL
	}
	return ""
}

// reasonPhrase strips the code from "404 Not Found".
func reasonPhrase(resp *resty.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status(), strconv.Itoa(resp.StatusCode())))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode())
	}
	return reason
}
