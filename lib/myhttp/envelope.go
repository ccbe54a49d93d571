package myhttp

// SuccessCode is the application code the identity service puts in a successful envelope.
const SuccessCode = 10000

// Envelope is the wrapper every storefront backend response is returned in.
type Envelope[T any] struct {
	Code      int      `json:"code"`
	Message   string   `json:"message,omitempty"`
	Messages  []string `json:"messages,omitempty"`
	Succeeded bool     `json:"succeeded"`
	Result    T        `json:"result"`
}

func Success[T any](result T) Envelope[T] {
	return Envelope[T]{
		Code:      SuccessCode,
		Succeeded: true,
		Result:    result,
	}
}
