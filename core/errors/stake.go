package errors

import stderrors "errors"

var (
	ErrUnknownHotkey           = stderrors.New("stake: unknown hotkey")
	ErrUnauthorized            = stderrors.New("stake: caller neither owns nor is delegated to hotkey")
	ErrZeroAmount              = stderrors.New("stake: amount must be positive")
	ErrInsufficientStake       = stderrors.New("stake: not enough stake to withdraw")
	ErrRateLimited             = stderrors.New("stake: rate limit exceeded for hotkey")
	ErrInsufficientBalance     = stderrors.New("stake: insufficient balance")
	ErrHotkeyAlreadyRegistered = stderrors.New("stake: hotkey already registered")
	ErrAlreadyDelegate         = stderrors.New("stake: hotkey already a delegate")
	ErrUnknownSubnet           = stderrors.New("stake: unknown subnet")
)
