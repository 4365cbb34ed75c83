package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/entra-tools/devicectl/internal/odata"
	"github.com/rs/zerolog/log"
)

// Device is a directory device object. Properties excluded by $select
// decode to their zero values.
//
// https://learn.microsoft.com/en-us/graph/api/resources/device
type Device struct {
	ID                            string     `json:"id,omitempty"`
	DeviceID                      string     `json:"deviceId,omitempty"`
	DisplayName                   string     `json:"displayName,omitempty"`
	AccountEnabled                bool       `json:"accountEnabled,omitempty"`
	OperatingSystem               string     `json:"operatingSystem,omitempty"`
	OperatingSystemVersion        string     `json:"operatingSystemVersion,omitempty"`
	TrustType                     string     `json:"trustType,omitempty"`
	ProfileType                   string     `json:"profileType,omitempty"`
	Manufacturer                  string     `json:"manufacturer,omitempty"`
	Model                         string     `json:"model,omitempty"`
	IsCompliant                   *bool      `json:"isCompliant,omitempty"`
	IsManaged                     *bool      `json:"isManaged,omitempty"`
	RegistrationDateTime          *time.Time `json:"registrationDateTime,omitempty"`
	ApproximateLastSignInDateTime *time.Time `json:"approximateLastSignInDateTime,omitempty"`
}

// ListDevices returns the directory devices matching the query. Requires
// admin consent for Device.Read.All application permissions.
//
// https://learn.microsoft.com/en-us/graph/api/device-list
func (c *Client) ListDevices(ctx context.Context, q odata.Query) ([]Device, error) {
	return listPages[Device](ctx, c, "/devices", q)
}

// GetDevice returns a single device by object id. Filter and search are
// listing options: combining either with an id fails before any request is
// made.
func (c *Client) GetDevice(ctx context.Context, deviceID string, q odata.Query) (*Device, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("%w: device id required", ErrInvalidArgument)
	}
	if q.Filter != "" || q.Search != "" {
		return nil, fmt.Errorf("%w: device id and filter|search are mutually exclusive", ErrInvalidArgument)
	}

	params := url.Values{}
	if len(q.Select) > 0 {
		params.Set("$select", strings.Join(q.Select, ","))
	}

	resp, err := c.do(ctx, http.MethodGet, "/devices/"+url.PathEscape(deviceID), params, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, requestError(resp)
	}

	var device Device
	if err := json.NewDecoder(resp.Body).Decode(&device); err != nil {
		return nil, fmt.Errorf("decode device: %w", err)
	}

	return &device, nil
}

// DeleteDevice removes a device by object id. Requires admin consent for
// Device.ReadWrite.All application permissions.
//
// https://learn.microsoft.com/en-us/graph/api/device-delete
func (c *Client) DeleteDevice(ctx context.Context, deviceID string) error {
	if deviceID == "" {
		return fmt.Errorf("%w: device id required", ErrInvalidArgument)
	}

	resp, err := c.do(ctx, http.MethodDelete, "/devices/"+url.PathEscape(deviceID), nil, false)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return requestError(resp)
	}

	log.Info().Str("device", deviceID).Msg("device deleted")
	return nil
}

// ListOwnedDevices returns the devices owned by a user. Requires admin
// consent for Directory.Read.All application permissions.
//
// https://learn.microsoft.com/en-us/graph/api/user-list-owneddevices
func (c *Client) ListOwnedDevices(ctx context.Context, userID string, q odata.Query) ([]Device, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id required", ErrInvalidArgument)
	}

	return listPages[Device](ctx, c, "/users/"+url.PathEscape(userID)+"/ownedDevices", q)
}
