package cli

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/qrattend/internal/client/client"
	"github.com/dmitrijs2005/qrattend/internal/client/scan"
	"github.com/dmitrijs2005/qrattend/internal/client/services"
)

// errNotAllowed is returned by gated commands after the user was told why.
var errNotAllowed = errors.New("command not available")

// describe turns a command error into a user-facing message with a hint on
// what to do next.
func describe(err error) string {
	var (
		ve *services.ValidationError
		de *scan.DeviceError
		se *client.ServerError
	)
	switch {
	case errors.As(err, &ve):
		return ve.Message
	case errors.As(err, &de):
		return de.Remedy()
	case errors.Is(err, client.ErrUnavailable):
		return "Server unavailable. Check the server address and try again."
	case errors.Is(err, client.ErrUnauthorized):
		return "Not authorized. Log in and try again."
	case errors.As(err, &se):
		return fmt.Sprintf("Server error: %s. Try again.", se.Message)
	case errors.Is(err, services.ErrScanTimeout):
		return "No QR code was found in time. Try again closer to the code."
	case errors.Is(err, scan.ErrStreamEnded):
		return "No QR code found in the image. Try another picture."
	default:
		return fmt.Sprintf("Error: %v. Try again.", err)
	}
}
