package game

import "errors"

// ErrIdentityMissing is returned when no valid local identity exists for the session being viewed.
// It is fatal to the view.
var ErrIdentityMissing = errors.New("identity missing")

// ErrPermissionDenied is returned when a command is attempted without the matching permission
var ErrPermissionDenied = errors.New("permission denied")

// ErrMalformedCommand is returned when a command carries an invalid argument
var ErrMalformedCommand = errors.New("malformed command")

// ErrTransportUnavailable is returned when there is no live connection to send a command on
var ErrTransportUnavailable = errors.New("transport unavailable")

// ErrStartRequestFailed is returned when the server rejects a start request
var ErrStartRequestFailed = errors.New("start request failed")

// IsFatal reports whether err must halt the session view
func IsFatal(err error) bool {
	return errors.Is(err, ErrIdentityMissing)
}
