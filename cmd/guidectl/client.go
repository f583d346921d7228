package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ai-buildguide-be/internal/pkg/serverutils"
)

var httpClient = &http.Client{Timeout: 2 * time.Minute}

// call sends body as JSON and decodes the envelope's data into out.
func call[T any](method, path string, body any) (T, error) {
	var zero T

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return zero, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, strings.TrimRight(apiAddr, "/")+path, reader)
	if err != nil {
		return zero, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return zero, fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	var envelope serverutils.BaseResponse[T]
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return zero, fmt.Errorf("unexpected response (%s): %w", resp.Status, err)
	}
	if !envelope.Success {
		if envelope.Kind != "" {
			return zero, fmt.Errorf("%s (%s)", envelope.Message, envelope.Kind)
		}
		return zero, fmt.Errorf("%s", envelope.Message)
	}
	return envelope.Data, nil
}
