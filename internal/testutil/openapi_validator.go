package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

// apiPrefix is the part of the URL space described by the API document.
const apiPrefix = "/api/v1/"

// maxReportedBody caps how much of a response body ends up in a failure message.
const maxReportedBody = 300

// OpenAPIValidator checks requests and responses against the API document.
type OpenAPIValidator struct {
	router  routers.Router
	options *openapi3filter.Options
}

// NewOpenAPIValidator loads the document at path or fails the test.
func NewOpenAPIValidator(t *testing.T, path string) *OpenAPIValidator {
	t.Helper()

	v, err := LoadOpenAPIValidator(path)
	if err != nil {
		t.Fatalf("load OpenAPI validator: %v", err)
	}
	return v
}

// LoadOpenAPIValidator loads and validates the document at path. It is meant
// for TestMain, where no *testing.T exists yet.
func LoadOpenAPIValidator(path string) (*OpenAPIValidator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid document %s: %w", path, err)
	}

	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build router: %w", err)
	}

	return &OpenAPIValidator{
		router: router,
		options: &openapi3filter.Options{
			MultiError:         true,
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		},
	}, nil
}

// ValidateRequestResponse checks req against its operation and resp against the
// documented response for its status. req must carry an unread body. The
// response body is restored for the caller.
func (v *OpenAPIValidator) ValidateRequestResponse(t *testing.T, req *http.Request, resp *http.Response) {
	t.Helper()

	if !strings.HasPrefix(req.URL.Path, apiPrefix) {
		return
	}

	input, err := v.requestInput(req)
	if err != nil {
		t.Errorf("OpenAPI: %s %s is not documented: %v", req.Method, req.URL.Path, err)
		return
	}

	ctx := context.Background()
	if err := openapi3filter.ValidateRequest(ctx, input); err != nil {
		t.Errorf("OpenAPI: request %s %s: %v", req.Method, req.URL.Path, err)
	}

	body, err := drain(resp)
	if err != nil {
		t.Errorf("OpenAPI: read response body: %v", err)
		return
	}

	respInput := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: input,
		Status:                 resp.StatusCode,
		Header:                 resp.Header,
		Body:                   io.NopCloser(bytes.NewReader(body)),
		Options: &openapi3filter.Options{
			MultiError:            true,
			IncludeResponseStatus: true,
		},
	}
	if err := openapi3filter.ValidateResponse(ctx, respInput); err != nil {
		t.Errorf("OpenAPI: response %s %s (status %d): %v\nbody: %s",
			req.Method, req.URL.Path, resp.StatusCode, err, clip(body))
	}
}

func (v *OpenAPIValidator) requestInput(req *http.Request) (*openapi3filter.RequestValidationInput, error) {
	// The router matches on path only; the document's server URL is "/".
	routeReq, err := http.NewRequest(req.Method, req.URL.RequestURI(), nil)
	if err != nil {
		return nil, err
	}
	route, params, err := v.router.FindRoute(routeReq)
	if err != nil {
		return nil, err
	}
	return &openapi3filter.RequestValidationInput{
		Request:    req,
		PathParams: params,
		Route:      route,
		Options:    v.options,
	}, nil
}

// drain reads resp.Body and replaces it with an in-memory copy.
func drain(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return body, err
}

func clip(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxReportedBody {
		return s[:maxReportedBody] + "..."
	}
	return s
}
