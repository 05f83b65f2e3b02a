package market

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
)

const restFetchLimit = 1000

// RESTSource 基于 Binance 风格的 /klines REST 端点拉取 K 线。
// 返回体为 JSON 数组的数组，字段顺序 open_time/o/h/l/c/volume/close_time。
type RESTSource struct {
	baseURL string
	path    string
	client  *http.Client
}

func NewRESTSource(base string) *RESTSource {
	if base == "" {
		base = "https://fapi.binance.com"
	}
	return &RESTSource{
		baseURL: base,
		path:    "/fapi/v1/klines",
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (r *RESTSource) Name() string { return "rest" }

func (r *RESTSource) GetCandles(ctx context.Context, symbol, timeframe string, start, end int64) ([]Candle, error) {
	if symbol == "" || timeframe == "" {
		return nil, fmt.Errorf("symbol/timeframe 不能为空")
	}
	var out []Candle
	cursor := start
	for {
		batch, err := r.fetch(ctx, symbol, timeframe, cursor, end)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		out = append(out, batch...)
		last := batch[len(batch)-1]
		if len(batch) < restFetchLimit || last.OpenTime >= end {
			break
		}
		cursor = last.OpenTime + 1
	}
	return out, nil
}

func (r *RESTSource) GetExecutionWindow(ctx context.Context, symbol string, signalTime int64, windowMinutes, preMinutes int) ([]Candle, error) {
	start, end := WindowRange(signalTime, windowMinutes, preMinutes)
	return r.GetCandles(ctx, symbol, ExecutionInterval, start, end)
}

func (r *RESTSource) fetch(ctx context.Context, symbol, interval string, start, end int64) ([]Candle, error) {
	u, err := url.Parse(r.baseURL)
	if err != nil {
		return nil, fmt.Errorf("base url 无效: %w", err)
	}
	u.Path = r.path
	q := u.Query()
	q.Set("symbol", normalizeSymbol(symbol))
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(restFetchLimit))
	if start > 0 {
		q.Set("startTime", strconv.FormatInt(start, 10))
	}
	if end > 0 {
		q.Set("endTime", strconv.FormatInt(end, 10))
	}
	u.RawQuery = q.Encode()

	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("kline 接口返回状态码 %d", resp.StatusCode)
	}
	return parseKlinePayload(body)
}

// parseKlinePayload 解析 kline 数组；交易所偶尔把数字放在字符串里，用 gjson 统一兜底。
func parseKlinePayload(body []byte) ([]Candle, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("kline 返回体不是合法 JSON")
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("kline 返回体不是数组")
	}
	rows := parsed.Array()
	out := make([]Candle, 0, len(rows))
	for _, row := range rows {
		cols := row.Array()
		if len(cols) < 7 {
			continue
		}
		out = append(out, Candle{
			OpenTime:  cols[0].Int(),
			Open:      cols[1].Float(),
			High:      cols[2].Float(),
			Low:       cols[3].Float(),
			Close:     cols[4].Float(),
			Volume:    cols[5].Float(),
			CloseTime: cols[6].Int(),
		})
	}
	return out, nil
}
