package client

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"time"

	"github.com/iancoleman/orderedmap"
	"github.com/pkg/errors"
)

// LicenseStatus is the body of GET /license.
type LicenseStatus struct {
	Valid        bool                   `json:"valid"`
	Product      string                 `json:"product"`
	Message      string                 `json:"message,omitempty"`
	Kind         string                 `json:"kind,omitempty"`
	ExpiresAfter string                 `json:"expires_after,omitempty"`
	Cloud        bool                   `json:"cloud"`
	Heroku       bool                   `json:"heroku"`
	TrackUsage   bool                   `json:"track_usage"`
	Fields       *orderedmap.OrderedMap `json:"fields,omitempty"`
	CheckedAt    *time.Time             `json:"checked_at,omitempty"`
}

// Feature is the body of GET /license/features/{tag}.
type Feature struct {
	Tag     string `json:"tag"`
	Enabled bool   `json:"enabled"`
}

// CheckResult is the body of POST /license/check.
type CheckResult struct {
	Valid   bool   `json:"valid"`
	Status  string `json:"status"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

// HTTPClient is used for every request of this package.
var HTTPClient = &http.Client{Timeout: 10 * time.Second}

// Status fetches the license state of the f-keyfile host at serverURL.
func Status(serverURL string) (*LicenseStatus, error) {
	var s LicenseStatus
	if err := get(serverURL+"/license", &s); err != nil {
		return nil, err
	}

	return &s, nil
}

// HasFeature asks the host whether its verified license contains tag. It is
// false while the host holds no valid license.
func HasFeature(serverURL string, tag string) (bool, error) {
	var f Feature
	if err := get(serverURL+"/license/features/"+url.PathEscape(tag), &f); err != nil {
		return false, err
	}

	return f.Enabled, nil
}

func get(u string, v interface{}) error {
	resp, err := HTTPClient.Get(u)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	bytes, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		var res map[string]interface{}
		if err := json.Unmarshal(bytes, &res); err == nil {
			if errMsg, ok := res["error"].(string); ok {
				return errors.New(errMsg)
			}
		}
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return errors.Wrap(json.Unmarshal(bytes, v), "decode response")
}
