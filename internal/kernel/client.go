package kernel

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"proxydesk/internal/logger"
	"proxydesk/pkg/domain"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Client 运行内核外部控制接口的客户端。
// 内核进程独立于本应用运行，连接重置和配置下发都通过它的
// HTTP 控制接口完成。
type Client struct {
	baseURL string
	secret  string
	httpc   *http.Client
	log     logger.Logger
}

// NewClient 创建内核控制接口客户端
func NewClient(baseURL, secret string, l logger.Logger) *Client {
	if l == nil {
		l = logger.Nop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		httpc:   &http.Client{Timeout: 10 * time.Second},
		log:     l,
	}
}

// ResetConnections 断开内核当前的所有活动连接。
// 内核侧实现是幂等的，重复调用无副作用。
func (c *Client) ResetConnections(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodDelete, "/connections", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return c.readError(resp)
	}

	c.log.Debug("已重置内核连接")
	return nil
}

// ApplyProfile 把指定配置文件下发到运行内核
func (c *Client) ApplyProfile(ctx context.Context, filePath string) error {
	body, err := sjson.Set("", "path", filePath)
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, http.MethodPut, "/configs?force=true", []byte(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return c.readError(resp)
	}

	c.log.Info("配置已下发到内核", "path", filePath)
	return nil
}

// Version 查询内核版本号
func (c *Client) Version(ctx context.Context) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/version", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return "", c.readError(resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(raw, "version").String(), nil
}

// Reachable 探测内核控制接口是否可达
func (c *Client) Reachable(ctx context.Context) bool {
	_, err := c.Version(ctx)
	return err == nil
}

// do 发送一次控制接口请求
func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.secret != "" {
		req.Header.Set("Authorization", "Bearer "+c.secret)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.log.Err(err, "内核控制接口不可达", "method", method, "path", path)
		return nil, fmt.Errorf("%w: %v", domain.ErrCoreUnreachable, err)
	}
	return resp, nil
}

// readError 解析内核返回的错误消息
func (c *Client) readError(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)

	msg := gjson.GetBytes(raw, "message").String()
	if msg == "" {
		msg = resp.Status
	}

	c.log.Error("内核控制接口返回错误", "status", resp.StatusCode, "message", msg)
	return fmt.Errorf("%w: %s", domain.ErrCoreApplyFailed, msg)
}
