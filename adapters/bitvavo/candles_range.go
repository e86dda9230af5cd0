package bitvavo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"dipwatch/internal/types"
)

// LoadCandlesRange fetches candles for market over [start,end). The exchange
// answers newest first and caps each page, so we page backward from end
// until start is covered or a short page comes back. The result is oldest
// first, deduplicated by timestamp. An empty result is not an error.
func (c *Client) LoadCandlesRange(ctx context.Context, mkt string, tf types.TF, start, end time.Time) ([]types.Candle, error) {
	if mkt == "" {
		return nil, fmt.Errorf("market required")
	}
	if !end.After(start) {
		return nil, fmt.Errorf("end must be after start")
	}
	if tf.Duration() <= 0 {
		return nil, fmt.Errorf("unsupported interval: %q", tf)
	}

	endpoint := "/" + mkt + "/candles"
	cursor := end
	var stash []types.Candle

	for cursor.After(start) {
		raw, err := c.fetchCandlePage(ctx, endpoint, tf, start, cursor)
		if err != nil {
			return nil, err
		}
		if len(raw) == 0 {
			break
		}
		var oldest time.Time
		for _, r := range raw {
			cdl, ok := candleRowToCandle(r)
			if !ok {
				continue
			}
			if cdl.T.Before(start) || !cdl.T.Before(end) {
				continue
			}
			stash = append(stash, cdl)
			if oldest.IsZero() || cdl.T.Before(oldest) {
				oldest = cdl.T
			}
		}
		if len(raw) < c.PageLimit || oldest.IsZero() || !oldest.Before(cursor) {
			break
		}
		cursor = oldest
	}

	return types.Dedupe(types.EnsureSorted(stash)), nil
}

func (c *Client) fetchCandlePage(ctx context.Context, endpoint string, tf types.TF, start, end time.Time) (candleRows, error) {
	var raw candleRows
	err := c.fetchJSON(ctx, endpoint, map[string]string{
		"interval": tf.String(),
		"start":    strconv.FormatInt(start.UnixMilli(), 10),
		"end":      strconv.FormatInt(end.UnixMilli(), 10),
		"limit":    strconv.Itoa(c.PageLimit),
	}, &raw)
	return raw, err
}

// candleRowToCandle needs a parseable timestamp; price and volume fields
// that do not parse are kept as undefined.
func candleRowToCandle(r []json.RawMessage) (types.Candle, bool) {
	if len(r) < 6 {
		return types.Candle{}, false
	}
	ms, err := strconv.ParseInt(string(bytes.Trim(r[0], `"`)), 10, 64)
	if err != nil {
		return types.Candle{}, false
	}
	return types.Candle{
		T: time.UnixMilli(ms).UTC(),
		O: parseNumber(r[1]),
		H: parseNumber(r[2]),
		L: parseNumber(r[3]),
		C: parseNumber(r[4]),
		V: parseNumber(r[5]),
	}, true
}
