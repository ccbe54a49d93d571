package myhttpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MarcGrol/shopfront/lib/mylog"
	"github.com/MarcGrol/shopfront/lib/myuuid"
)

const (
	DefaultTimeout = 5 * time.Second
)

type jsonHTTPClient struct {
	httpClient *http.Client
	uuider     myuuid.UUIDer
	logger     mylog.Logger
}

func NewJSONClient(timeout time.Duration, uuider myuuid.UUIDer) HTTPSender {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &jsonHTTPClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		uuider: uuider,
		logger: mylog.New("httpclient"),
	}
}

func (hc *jsonHTTPClient) Send(c context.Context, req Request) (int, []byte, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(c, req.Method, req.URL, body)
	if err != nil {
		return 0, nil, fmt.Errorf("error creating http request for %s %s: %w", req.Method, req.URL, err)
	}

	for name, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	requestUID := hc.uuider.Create()
	httpReq.Header.Set("X-Request-ID", requestUID)

	hc.logger.Log(c, requestUID, mylog.SeverityDebug, "HTTP request: %s %s", req.Method, req.URL)

	httpResp, err := hc.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, fmt.Errorf("error sending %s %s: %w", req.Method, req.URL, err)
	}
	defer httpResp.Body.Close()

	respPayload, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("error reading response %s %s: %w", req.Method, req.URL, err)
	}

	hc.logger.Log(c, requestUID, mylog.SeverityDebug, "HTTP resp: %d", httpResp.StatusCode)

	return httpResp.StatusCode, respPayload, nil
}
