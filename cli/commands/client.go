// Package commands implements the rulekit CLI's subcommands: thin HTTP
// clients talking to a running rulekit API server, the same shape as the
// teacher's cli/main.go runCmd.
package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIServer is the target server URL, set from the root command's
// --server persistent flag.
var APIServer string

var httpClient = &http.Client{Timeout: 30 * time.Second}

func postJSON(path string, body interface{}) (*http.Response, []byte, error) {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, APIServer+path, bytes.NewReader(reqBody))
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp, respBody, nil
}

func getJSON(path string) (*http.Response, []byte, error) {
	resp, err := httpClient.Get(APIServer + path)
	if err != nil {
		return nil, nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp, respBody, nil
}

// printIndentedJSON re-marshals raw JSON bytes with indentation for
// terminal display, falling back to raw output if it doesn't parse.
func printIndentedJSON(raw []byte) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		fmt.Println(string(raw))
		return
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(string(raw))
		return
	}
	fmt.Println(string(pretty))
}
