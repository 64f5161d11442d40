package utils

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/yashrajoria/storefront/services/common/errors"
	"github.com/yashrajoria/storefront/services/common/logger"
	"go.uber.org/zap"
)

var hopByHop = map[string]bool{
	"connection":          true,
	"keep-alive":          true,
	"proxy-authenticate":  true,
	"proxy-authorization": true,
	"te":                  true,
	"trailers":            true,
	"transfer-encoding":   true,
	"upgrade":             true,
}

// Forwarder relays requests unchanged to one backend service.
type Forwarder struct {
	target *url.URL
	client *http.Client
}

func NewForwarder(targetBase string, timeout time.Duration) (*Forwarder, error) {
	u, err := url.Parse(targetBase)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q", targetBase)
	}
	return &Forwarder{target: u, client: &http.Client{Timeout: timeout}}, nil
}

func (f *Forwarder) Handle(c *gin.Context) {
	targetURL := *f.target
	targetURL.Path = strings.TrimSuffix(f.target.Path, "/") + c.Request.URL.Path
	targetURL.RawQuery = c.Request.URL.RawQuery

	log := logger.FromContext(c.Request.Context())
	log.Debug("Forwarding request",
		zap.String("method", c.Request.Method),
		zap.String("url", targetURL.String()))

	req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, targetURL.String(), c.Request.Body)
	if err != nil {
		log.Error("Failed to create forward request", zap.Error(err))
		apperrors.Fail(c, apperrors.Internal("Failed to create request", err))
		return
	}
	req.ContentLength = c.Request.ContentLength
	for k, v := range c.Request.Header {
		if !hopByHop[strings.ToLower(k)] {
			req.Header[k] = v
		}
	}
	if rid := logger.RequestID(c); rid != "" {
		req.Header.Set("X-Request-ID", rid)
	}
	req.Header.Set("X-Forwarded-For", c.ClientIP())

	resp, err := f.client.Do(req)
	if err != nil {
		log.Error("Failed to forward request", zap.String("backend", f.target.Host), zap.Error(err))
		apperrors.Fail(c, apperrors.New(http.StatusBadGateway, "Service unreachable", err))
		return
	}
	defer resp.Body.Close()

	for k, v := range resp.Header {
		lowerKey := strings.ToLower(k)
		// CORS belongs to the gateway.
		if strings.HasPrefix(lowerKey, "access-control-") || hopByHop[lowerKey] {
			continue
		}
		c.Header(k, strings.Join(v, ","))
	}

	c.Status(resp.StatusCode)
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		log.Warn("Failed to copy response body", zap.Error(err))
	}
}
