package graph

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// LocalCredential is a single rotated local administrator credential stored
// by Intune for a device.
type LocalCredential struct {
	AccountName    string     `json:"accountName,omitempty"`
	AccountSID     string     `json:"accountSid,omitempty"`
	BackupDateTime *time.Time `json:"backupDateTime,omitempty"`
	PasswordBase64 string     `json:"passwordBase64,omitempty"`
}

// LocalAdminPassword returns the current plaintext LAPS password for an
// Intune device. ok is false when the device has no stored password: Graph
// answers those requests with a non-JSON body rather than an error status.
// Requires admin consent for DeviceLocalCredential.Read.All application
// permissions.
//
// https://learn.microsoft.com/en-us/graph/api/devicelocalcredentialinfo-get
func (c *Client) LocalAdminPassword(ctx context.Context, deviceID string) (password string, ok bool, err error) {
	if deviceID == "" {
		return "", false, fmt.Errorf("%w: device id required", ErrInvalidArgument)
	}

	params := url.Values{"$select": {"credentials"}}

	resp, err := c.do(ctx, http.MethodGet, "/directory/deviceLocalCredentials/"+url.PathEscape(deviceID), params, false)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false, requestError(resp)
	}

	if !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		log.Warn().Str("device", deviceID).Msg("device has no local administrator passwords")
		return "", false, nil
	}

	var info struct {
		Credentials []LocalCredential `json:"credentials"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", false, fmt.Errorf("decode device local credentials: %w", err)
	}

	if len(info.Credentials) == 0 {
		return "", false, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(info.Credentials[0].PasswordBase64)
	if err != nil {
		return "", false, fmt.Errorf("decode local administrator password: %w", err)
	}

	return string(decoded), true, nil
}
