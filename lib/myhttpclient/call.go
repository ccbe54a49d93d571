package myhttpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/MarcGrol/shopfront/lib/myerrors"
	"github.com/MarcGrol/shopfront/lib/myhttp"
)

// Call sends body as JSON and unwraps the result from the response envelope.
// A non-2xx status becomes an error carrying that status.
func Call[T any](c context.Context, sender HTTPSender, method string, url string, body any) (T, error) {
	var result T

	req := Request{
		Method: method,
		URL:    url,
	}
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return result, fmt.Errorf("error marshalling request for %s %s: %w", method, url, err)
		}
		req.Body = payload
	}

	status, respBody, err := sender.Send(c, req)
	if err != nil {
		if myerrors.HasHTTPStatus(err) {
			return result, err
		}
		return result, myerrors.NewUnavailableError(err)
	}

	envelope := myhttp.Envelope[T]{}
	if len(respBody) > 0 {
		err = json.Unmarshal(respBody, &envelope)
		if err != nil && status >= 200 && status < 300 {
			return result, fmt.Errorf("error parsing response of %s %s: %w", method, url, err)
		}
	}

	if status < 200 || status >= 300 {
		return result, myerrors.New(status, errors.New(describe(method, url, status, envelope)))
	}

	return envelope.Result, nil
}

func describe[T any](method string, url string, status int, envelope myhttp.Envelope[T]) string {
	msg := envelope.Message
	if msg == "" && len(envelope.Messages) > 0 {
		msg = strings.Join(envelope.Messages, "; ")
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return fmt.Sprintf("%s %s failed with status %d: %s", method, url, status, msg)
}
