// Package validation provides input validation for relay's API and
// control-message handlers.
//
// Struct tag validation (using the validator library) covers the publish
// and control message shapes:
//
//	type PublishRequest struct {
//	    Channel string `json:"channel" validate:"required,channel"`
//	    Event   string `json:"event" validate:"required,max=128"`
//	}
//	err := validation.Validate(req)
//
// The custom "channel" tag enforces relay's channel naming rules.
package validation
