// Package remoteconfig fetches and decodes the SDK remote configuration.
package remoteconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrDecode is wrapped by every error Decode returns.
var ErrDecode = errors.New("remoteconfig: decode")

// LenientBool decodes a JSON boolean, or a string that is exactly "true"
// (true) or anything else (false). Numbers, objects and arrays are rejected.
type LenientBool bool

func (b *LenientBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("lenient bool: empty value")
	}
	switch data[0] {
	case 't', 'f':
		var v bool
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*b = LenientBool(v)
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*b = s == "true"
		return nil
	default:
		return fmt.Errorf("lenient bool: unexpected value %s", data)
	}
}

// Response is the remote configuration payload. Absent fields stay nil.
type Response struct {
	KillSwitch             *LenientBool `json:"killSwitch"`
	AndroidDisplayURLMacro *string      `json:"AndroidDisplayUrlMacro"`
	AndroidAdTagURLMode    *string      `json:"AndroidAdTagUrlMode"`
	AndroidAdTagDataMacro  *string      `json:"AndroidAdTagDataMacro"`
	AndroidAdTagDataMode   *string      `json:"AndroidAdTagDataMode"`
	CSMEnabled             *LenientBool `json:"csmEnabled"`
}

// IsKillSwitchEnabled reports whether the kill switch is engaged. An absent
// value means disengaged.
func (r *Response) IsKillSwitchEnabled() bool {
	return r != nil && r.KillSwitch != nil && bool(*r.KillSwitch)
}

// IsCSMEnabled reports whether client-side metrics are enabled. An absent
// value means enabled.
func (r *Response) IsCSMEnabled() bool {
	if r == nil || r.CSMEnabled == nil {
		return true
	}
	return bool(*r.CSMEnabled)
}

// Decode reads a Response. Unknown fields are ignored; empty input,
// malformed JSON and badly typed fields fail with an error wrapping ErrDecode.
func Decode(r io.Reader) (*Response, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read: %v", ErrDecode, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrDecode)
	}
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return &resp, nil
}
