package support

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/MeKo-Tech/handscan/internal/testutil"
	"github.com/cucumber/godog"
)

// FakeVision is a scriptable images:annotate endpoint.
type FakeVision struct {
	server   *httptest.Server
	requests atomic.Int64

	mu     sync.Mutex
	status int
	body   string
}

// NewFakeVision starts an endpoint that finds no text until told otherwise.
func NewFakeVision() *FakeVision {
	fv := &FakeVision{status: http.StatusOK, body: testutil.EmptyAnnotateResponseJSON}
	fv.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fv.requests.Add(1)
		fv.mu.Lock()
		status, body := fv.status, fv.body
		fv.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	return fv
}

// URL is the base URL to configure as vision.base_url.
func (fv *FakeVision) URL() string { return fv.server.URL }

// Close stops the endpoint.
func (fv *FakeVision) Close() { fv.server.Close() }

// Requests returns how many calls were received.
func (fv *FakeVision) Requests() int { return int(fv.requests.Load()) }

func (fv *FakeVision) respond(status int, body string) {
	fv.mu.Lock()
	defer fv.mu.Unlock()
	fv.status, fv.body = status, body
}

func (testCtx *TestContext) theVisionServiceRecognizes(text string) error {
	text = strings.ReplaceAll(text, `\n`, "\n")
	testCtx.Vision.respond(http.StatusOK, testutil.AnnotateResponseJSON(text, "de"))
	return nil
}

func (testCtx *TestContext) theVisionServiceFindsNoText() error {
	testCtx.Vision.respond(http.StatusOK, testutil.EmptyAnnotateResponseJSON)
	return nil
}

func (testCtx *TestContext) theVisionServiceRejectsRequests(status int, message string) error {
	testCtx.Vision.respond(status, testutil.ErrorBodyJSON(status, http.StatusText(status), message))
	return nil
}

func (testCtx *TestContext) noAPIKeyIsConfigured() error {
	testCtx.AddEnvVar("HANDSCAN_VISION_API_KEY", "")
	return nil
}

func (testCtx *TestContext) theVisionServiceShouldHaveReceived(n int) error {
	if got := testCtx.Vision.Requests(); got != n {
		return fmt.Errorf("vision service received %d requests, want %d", got, n)
	}
	return nil
}

// RegisterVisionSteps registers the remote OCR steps.
func (testCtx *TestContext) RegisterVisionSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the vision service recognizes "([^"]*)"$`, testCtx.theVisionServiceRecognizes)
	sc.Step(`^the vision service finds no text$`, testCtx.theVisionServiceFindsNoText)
	sc.Step(`^the vision service rejects requests with status (\d+) and message "([^"]*)"$`,
		testCtx.theVisionServiceRejectsRequests)
	sc.Step(`^no API key is configured$`, testCtx.noAPIKeyIsConfigured)
	sc.Step(`^the vision service should have received (\d+) requests?$`, testCtx.theVisionServiceShouldHaveReceived)
}
