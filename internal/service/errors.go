package service

import "errors"

var ErrUnknownStatus = errors.New("unknown appointment status")
