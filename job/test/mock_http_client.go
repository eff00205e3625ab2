package test

import (
	"errors"
	"io"
	"net/http"
	"sync"
)

type MockHttpClient struct {
	sync.Mutex
	SentReqs     map[string]bool
	returnErrors bool
}

func NewMockHttpClient() *MockHttpClient {
	return &MockHttpClient{
		SentReqs: map[string]bool{},
	}
}

func (m *MockHttpClient) Post(url, contentType string, body io.Reader) (resp *http.Response, err error) {
	m.Lock()
	defer m.Unlock()

	if m.returnErrors {
		return nil, errors.New("oops")
	}

	m.SentReqs[url] = true

	return &http.Response{StatusCode: http.StatusOK}, nil
}

func (m *MockHttpClient) ReturnErrors() {
	m.Lock()
	defer m.Unlock()
	m.returnErrors = true
}
