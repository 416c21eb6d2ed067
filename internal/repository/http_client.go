package repository

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	apperrors "puntoazul/internal/errors"
	"strings"
	"time"
)

// DefaultRequestTimeout bounds every call to the WordPress backend.
const DefaultRequestTimeout = 15 * time.Second

// maxErrorBody caps how much of a failed response is echoed back in the error.
const maxErrorBody = 4 << 10

// BasicToken is the credential stored for a session: base64(user:appPassword).
func BasicToken(username, appPassword string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + appPassword))
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &http.Client{Timeout: timeout}
}

// do sends req with its own deadline and classifies transport failures.
func do(client *http.Client, req *http.Request, op string) (*http.Response, error) {
	resp, err := client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, apperrors.Timeout(op+": request timed out", err)
		}
		return nil, apperrors.Network(op+": request failed", err)
	}
	return resp, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func readErrorBody(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	text := strings.TrimSpace(string(body))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return fmt.Sprintf("status %d: %s", resp.StatusCode, text)
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
