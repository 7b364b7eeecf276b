package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

type recordingObserver struct {
	statuses []string
}

func (o *recordingObserver) ObserveUpstream(status string, _ time.Duration) {
	o.statuses = append(o.statuses, status)
}

func newUpstream(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func testRequest() Request {
	return Request{
		Inputs: "a red fox",
		Parameters: Parameters{
			Height:            1024,
			Width:             1024,
			GuidanceScale:     3.5,
			NumInferenceSteps: 50,
		},
	}
}

func TestGenerateSuccess(t *testing.T) {
	srv, calls := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer hf_test" {
			t.Errorf("authorization = %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("content type = %q", got)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body["inputs"] != "a red fox" {
			t.Errorf("inputs = %v", body["inputs"])
		}
		params, _ := body["parameters"].(map[string]any)
		if params["height"] != float64(1024) || params["width"] != float64(1024) ||
			params["guidance_scale"] != 3.5 || params["num_inference_steps"] != float64(50) {
			t.Errorf("parameters = %v", params)
		}
		w.Write([]byte("PNGDATA"))
	})

	obs := &recordingObserver{}
	client := NewClient(srv.Client(), srv.URL, "hf_test", obs)
	data, err := client.Generate(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(data) != "PNGDATA" {
		t.Fatalf("data = %q", data)
	}
	if atomic.LoadInt32(calls) != 1 {
		t.Fatalf("calls = %d", *calls)
	}
	if len(obs.statuses) != 1 || obs.statuses[0] != "200" {
		t.Fatalf("observed = %v", obs.statuses)
	}
}

func TestGenerateNoToken(t *testing.T) {
	srv, calls := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {})

	client := NewClient(srv.Client(), srv.URL, "", nil)
	if _, err := client.Generate(context.Background(), testRequest()); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
	if atomic.LoadInt32(calls) != 0 {
		t.Fatalf("upstream called without a token")
	}
}

func TestGenerateLoading(t *testing.T) {
	srv, _ := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"Model black-forest-labs/FLUX.1-dev is currently loading","estimated_time":20.5}`))
	})

	client := NewClient(srv.Client(), srv.URL, "hf_test", nil)
	_, err := client.Generate(context.Background(), testRequest())

	var loadingErr *LoadingError
	if !errors.As(err, &loadingErr) {
		t.Fatalf("expected LoadingError, got %v", err)
	}
	if loadingErr.EstimatedTime != 20500*time.Millisecond {
		t.Fatalf("estimated time = %s", loadingErr.EstimatedTime)
	}
}

func TestGenerateLoadingWithoutEstimate(t *testing.T) {
	srv, _ := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
	})

	client := NewClient(srv.Client(), srv.URL, "hf_test", nil)
	_, err := client.Generate(context.Background(), testRequest())

	var loadingErr *LoadingError
	if !errors.As(err, &loadingErr) {
		t.Fatalf("expected LoadingError, got %v", err)
	}
	if loadingErr.EstimatedTime != 0 {
		t.Fatalf("estimated time = %s", loadingErr.EstimatedTime)
	}
}

func TestGenerateStatusError(t *testing.T) {
	srv, calls := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("invalid parameters"))
	})

	client := NewClient(srv.Client(), srv.URL, "hf_test", nil)
	_, err := client.Generate(context.Background(), testRequest())

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusBadRequest || statusErr.Body != "invalid parameters" {
		t.Fatalf("status error = %+v", statusErr)
	}
	if atomic.LoadInt32(calls) != 1 {
		t.Fatalf("expected exactly one upstream call, got %d", *calls)
	}
}

func TestGenerateTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	obs := &recordingObserver{}
	client := NewClient(nil, url, "hf_test", obs)
	_, err := client.Generate(context.Background(), testRequest())

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if transportErr.Unwrap() == nil {
		t.Fatalf("expected wrapped cause")
	}
	if len(obs.statuses) != 1 || obs.statuses[0] != "error" {
		t.Fatalf("observed = %v", obs.statuses)
	}
}
