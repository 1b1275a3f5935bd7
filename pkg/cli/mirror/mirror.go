/* Copyright 2025 StoryLab Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package mirror provides the client for the remote mirror: an
// HTTP-addressable object store holding the authoritative shared copy of
// author data, keyed by path-like strings.
package mirror

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dahtruth/storylab/pkg/cli/context"
	"github.com/dahtruth/storylab/pkg/cli/log"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// HTTPError represents an HTTP error response from the mirror
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf(`response %d "%s"`, e.StatusCode, e.Message)
}

// IsNotFound returns true if the error is a 404 Not Found error
func (e *HTTPError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

const (
	// clientRateLimitPerSecond is the max requests per second the client will make
	clientRateLimitPerSecond = 50
	// clientRateLimitBurst is the burst capacity for rate limiting
	clientRateLimitBurst = 100
)

// rateLimitedTransport wraps an http.RoundTripper with rate limiting
type rateLimitedTransport struct {
	transport http.RoundTripper
	limiter   *rate.Limiter
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.transport.RoundTrip(req)
}

// NewRateLimitedHTTPClient creates an HTTP client with rate limiting
func NewRateLimitedHTTPClient() *http.Client {
	interval := time.Second / time.Duration(clientRateLimitPerSecond)

	transport := &rateLimitedTransport{
		transport: http.DefaultTransport,
		limiter:   rate.NewLimiter(rate.Every(interval), clientRateLimitBurst),
	}
	return &http.Client{
		Transport: transport,
	}
}

// ProfileKey returns the object key for an author's profile
func ProfileKey(authorID string) string {
	return fmt.Sprintf("authors/%s/profile.json", authorID)
}

// ProjectKey returns the object key for a project body
func ProjectKey(authorID, projectID string) string {
	return fmt.Sprintf("authors/%s/projects/%s.json", authorID, projectID)
}

// IndexKey returns the object key for an author's project index
func IndexKey(authorID string) string {
	return fmt.Sprintf("authors/%s/projects/index.json", authorID)
}

func getHTTPClient(ctx context.StoryLabCtx) *http.Client {
	if ctx.HTTPClient != nil {
		return ctx.HTTPClient
	}

	return &http.Client{}
}

func getReq(ctx context.StoryLabCtx, method, key string, body []byte) (*http.Request, error) {
	endpoint := fmt.Sprintf("%s/v1/objects/%s", ctx.APIEndpoint, key)
	req, err := http.NewRequest(method, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "constructing http request")
	}

	req.Header.Set("CLI-Version", ctx.Version)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if ctx.APIToken != "" {
		credential := fmt.Sprintf("Bearer %s", ctx.APIToken)
		req.Header.Set("Authorization", credential)
	}

	return req, nil
}

// checkRespErr checks if the given http response indicates an error. A non-2xx
// status decodes into an HTTPError carrying the response body.
func checkRespErr(res *http.Response) error {
	if res.StatusCode < 400 {
		return nil
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrapf(err, "mirror responded with %d but client could not read the response body", res.StatusCode)
	}

	return &HTTPError{
		StatusCode: res.StatusCode,
		Message:    string(bytes.TrimRight(body, "\n")),
	}
}

// doReq does a http request for the given object key in the mirror endpoint
func doReq(ctx context.StoryLabCtx, method, key string, body []byte) (*http.Response, error) {
	req, err := getReq(ctx, method, key, body)
	if err != nil {
		return nil, errors.Wrap(err, "getting request")
	}

	log.Debug("HTTP %s %s\n", method, key)

	hc := getHTTPClient(ctx)
	res, err := hc.Do(req)
	if err != nil {
		return res, errors.Wrap(err, "making http request")
	}

	log.Debug("HTTP %d %s\n", res.StatusCode, res.Status)

	if err = checkRespErr(res); err != nil {
		return res, err
	}

	return res, nil
}

// GetObject fetches the object stored under the given key. An absent object is
// not an error: the second return value reports presence.
func GetObject(ctx context.StoryLabCtx, key string) ([]byte, bool, error) {
	res, err := doReq(ctx, "GET", key, nil)
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.IsNotFound() {
			return nil, false, nil
		}

		return nil, false, errors.Wrap(err, "getting the object")
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, false, errors.Wrap(err, "reading the response body")
	}

	return body, true, nil
}

// PutObject stores the given body under the given key, replacing any existing object
func PutObject(ctx context.StoryLabCtx, key string, body []byte) error {
	res, err := doReq(ctx, "PUT", key, body)
	if err != nil {
		return errors.Wrap(err, "putting the object")
	}
	res.Body.Close()

	return nil
}

// DeleteObject removes the object stored under the given key. Deleting an
// absent object is not an error.
func DeleteObject(ctx context.StoryLabCtx, key string) error {
	res, err := doReq(ctx, "DELETE", key, nil)
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.IsNotFound() {
			return nil
		}

		return errors.Wrap(err, "deleting the object")
	}
	res.Body.Close()

	return nil
}

// GetJSON fetches the object under the given key and unmarshals it into dest.
// The boolean return reports whether the object existed.
func GetJSON(ctx context.StoryLabCtx, key string, dest interface{}) (bool, error) {
	body, ok, err := GetObject(ctx, key)
	if err != nil {
		return false, errors.Wrap(err, "getting the object")
	}
	if !ok {
		return false, nil
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return false, errors.Wrap(err, "unmarshalling the payload")
	}

	return true, nil
}

// PutJSON marshals the given value and stores it under the given key
func PutJSON(ctx context.StoryLabCtx, key string, value interface{}) error {
	b, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "marshalling the payload")
	}

	return PutObject(ctx, key, b)
}
