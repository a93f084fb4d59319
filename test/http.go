// Package test 提供测试支持工具和辅助函数
package test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// HTTPClient 直接调用 http.Handler 的上传接口测试客户端
type HTTPClient struct {
	Handler http.Handler
	T       *testing.T
	Headers http.Header
}

// NewHTTPClient 创建测试客户端
func NewHTTPClient(t *testing.T, handler http.Handler) *HTTPClient {
	return &HTTPClient{
		Handler: handler,
		T:       t,
		Headers: make(http.Header),
	}
}

// WithHeader 为之后的每个请求设置请求头
func (c *HTTPClient) WithHeader(key, value string) *HTTPClient {
	c.Headers.Set(key, value)
	return c
}

// WithBearer 为之后的每个请求附带 Bearer 令牌
func (c *HTTPClient) WithBearer(token string) *HTTPClient {
	return c.WithHeader("Authorization", "Bearer "+token)
}

// Request 一次测试请求，Body 为 string、[]byte、io.Reader 之外的值时按 JSON 编码
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Headers map[string]string
	Body    interface{}
}

// Response 记录下来的响应
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Do 执行请求，请求自带的头部覆盖客户端的公共头部
func (c *HTTPClient) Do(req Request) *Response {
	target := req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	httpReq := httptest.NewRequest(req.Method, target, c.body(req.Body))
	httpReq.Header.Set("Content-Type", "application/json")
	for key, values := range c.Headers {
		httpReq.Header[key] = append([]string(nil), values...)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	w := httptest.NewRecorder()
	c.Handler.ServeHTTP(w, httpReq)

	return &Response{
		StatusCode: w.Code,
		Header:     w.Header(),
		Body:       w.Body.Bytes(),
	}
}

func (c *HTTPClient) body(body interface{}) io.Reader {
	switch b := body.(type) {
	case nil:
		return nil
	case string:
		return bytes.NewBufferString(b)
	case []byte:
		return bytes.NewReader(b)
	case io.Reader:
		return b
	default:
		data, err := json.Marshal(b)
		require.NoError(c.T, err, "无法序列化请求体")
		return bytes.NewReader(data)
	}
}

// GET 发送GET请求
func (c *HTTPClient) GET(path string, query url.Values, headers map[string]string) *Response {
	return c.Do(Request{Method: http.MethodGet, Path: path, Query: query, Headers: headers})
}

// POST 发送POST请求
func (c *HTTPClient) POST(path string, body interface{}, headers map[string]string) *Response {
	return c.Do(Request{Method: http.MethodPost, Path: path, Headers: headers, Body: body})
}

// BindJSON 将响应体解码到 v
func (r *Response) BindJSON(v interface{}) error {
	return json.Unmarshal(r.Body, v)
}

// JSON 将响应体解码为对象
func (r *Response) JSON() (map[string]interface{}, error) {
	var result map[string]interface{}
	err := r.BindJSON(&result)
	return result, err
}

// String 返回响应体文本
func (r *Response) String() string {
	return string(r.Body)
}

// AssertStatus 断言HTTP状态码
func (r *Response) AssertStatus(t *testing.T, status int) *Response {
	assert.Equal(t, status, r.StatusCode, "HTTP状态码不匹配: %s", r.Body)
	return r
}

// AssertJSON 断言响应体与 expected 完全一致
func (r *Response) AssertJSON(t *testing.T, expected interface{}) *Response {
	var actual interface{}
	require.NoError(t, r.BindJSON(&actual), "响应不是有效的JSON")
	assert.Equal(t, expected, actual, "响应内容不匹配")
	return r
}

// AssertJSONContains 断言响应对象中 key 的值
func (r *Response) AssertJSONContains(t *testing.T, key string, value interface{}) *Response {
	body, err := r.JSON()
	require.NoError(t, err, "响应不是有效的JSON")
	if assert.Contains(t, body, key) {
		assert.Equal(t, value, body[key], "字段 %q 的值不匹配", key)
	}
	return r
}

// AssertHeader 断言响应头的值
func (r *Response) AssertHeader(t *testing.T, key, value string) *Response {
	assert.Equal(t, value, r.Header.Get(key), "响应头 %q 不匹配", key)
	return r
}
