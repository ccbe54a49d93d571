package myhttpclient

import (
	"context"
	"net/http"
)

type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

//go:generate mockgen -source=api.go -package myhttpclient -destination httpClient_mock.go HTTPSender
type HTTPSender interface {
	Send(c context.Context, req Request) (int, []byte, error)
}
