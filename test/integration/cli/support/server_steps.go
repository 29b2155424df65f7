package support

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/handscan/internal/scan"
	"github.com/MeKo-Tech/handscan/internal/server"
	"github.com/MeKo-Tech/handscan/internal/vision"
	"github.com/cucumber/godog"
)

func (testCtx *TestContext) theServerIsRunning() error {
	client, err := vision.NewClient(vision.Config{BaseURL: testCtx.Vision.URL(), APIKey: "integration-key"})
	if err != nil {
		return err
	}
	srv, err := server.NewServer(server.Config{
		Detector:   client,
		Options:    scan.DefaultOptions(),
		TimeoutSec: 10,
		Version:    "integration",
	})
	if err != nil {
		return err
	}
	testCtx.HTTPServer = httptest.NewServer(srv.Handler())
	return nil
}

func (testCtx *TestContext) iUploadTo(name, endpoint string) error {
	return testCtx.iUploadToWith(name, endpoint, "", "")
}

func (testCtx *TestContext) iUploadToWith(name, endpoint, field, value string) error {
	data, err := os.ReadFile(testCtx.Path(name))
	if err != nil {
		return err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", filepath.Base(name))
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if field != "" {
		if err := mw.WriteField(field, value); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}
	return testCtx.send(http.MethodPost, endpoint, mw.FormDataContentType(), &body)
}

func (testCtx *TestContext) iPostJSONTo(endpoint, payload string) error {
	return testCtx.send(http.MethodPost, endpoint, "application/json", strings.NewReader(payload))
}

func (testCtx *TestContext) iRequest(endpoint string) error {
	return testCtx.send(http.MethodGet, endpoint, "", nil)
}

func (testCtx *TestContext) send(method, endpoint, contentType string, body io.Reader) error {
	if testCtx.HTTPServer == nil {
		return fmt.Errorf("server is not running")
	}
	req, err := http.NewRequest(method, testCtx.HTTPServer.URL+endpoint, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := testCtx.HTTPServer.Client().Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	testCtx.LastHTTPStatusCode = resp.StatusCode
	testCtx.LastHTTPResponse = string(data)
	return nil
}

func (testCtx *TestContext) theResponseStatusShouldBe(status int) error {
	if testCtx.LastHTTPStatusCode != status {
		return fmt.Errorf("status is %d, want %d\nbody: %s", testCtx.LastHTTPStatusCode, status, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseFieldShouldBe(field, expected string) error {
	var data any
	if err := json.Unmarshal([]byte(testCtx.LastHTTPResponse), &data); err != nil {
		return fmt.Errorf("response is not JSON: %w\n%s", err, testCtx.LastHTTPResponse)
	}
	return fieldEquals(data, field, expected)
}

func (testCtx *TestContext) theResponseShouldContain(text string) error {
	if !strings.Contains(testCtx.LastHTTPResponse, text) {
		return fmt.Errorf("response does not contain %q\nbody: %s", text, testCtx.LastHTTPResponse)
	}
	return nil
}

// RegisterServerSteps registers the HTTP API steps.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the handscan server is running$`, testCtx.theServerIsRunning)
	sc.Step(`^I upload "([^"]*)" to "([^"]*)"$`, testCtx.iUploadTo)
	sc.Step(`^I upload "([^"]*)" to "([^"]*)" with "([^"]*)" set to "([^"]*)"$`, testCtx.iUploadToWith)
	sc.Step(`^I post '([^']*)' to "([^"]*)"$`, func(payload, endpoint string) error {
		return testCtx.iPostJSONTo(endpoint, payload)
	})
	sc.Step(`^I request "([^"]*)"$`, testCtx.iRequest)
	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseFieldShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, testCtx.theResponseShouldContain)
}
