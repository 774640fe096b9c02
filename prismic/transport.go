package prismic

import (
	"log/slog"
	"net/http"
	"time"
)

// loggingRoundTripper logs every outbound API call. The access token is
// stripped from the logged URL.
type loggingRoundTripper struct {
	inner  http.RoundTripper
	logger *slog.Logger
}

func (l *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := l.inner.RoundTrip(req)
	duration := time.Since(start)

	logged := *req.URL
	q := logged.Query()
	if q.Has("access_token") {
		q.Set("access_token", "redacted")
		logged.RawQuery = q.Encode()
	}

	if err != nil {
		l.logger.Warn("prismic request failed",
			"method", req.Method,
			"url", logged.String(),
			"duration", duration.String(),
			"error", err,
		)
		return nil, err
	}
	l.logger.Debug("prismic request",
		"method", req.Method,
		"url", logged.String(),
		"status", resp.StatusCode,
		"duration", duration.String(),
	)
	return resp, nil
}
