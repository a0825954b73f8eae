package contract

import "errors"

var (
	ErrValidation      = errors.New("validation failed")
	ErrNotQualified    = errors.New("lead is not qualified")
	ErrNoRoute         = errors.New("no routing rule matched")
	ErrMailTransport   = errors.New("mail transport failed")
	ErrHandoffRejected = errors.New("handoff rejected")
	ErrStore           = errors.New("store operation failed")
)
