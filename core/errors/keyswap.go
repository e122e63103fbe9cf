package errors

import stderrors "errors"

var (
	ErrSameColdkey              = stderrors.New("keyswap: new coldkey equals old coldkey")
	ErrColdkeyAlreadyAssociated = stderrors.New("keyswap: new coldkey already has associated hotkeys")
	ErrNewColdkeyIsHotkey       = stderrors.New("keyswap: new coldkey is a registered hotkey")
	ErrNotHotkeyOwner           = stderrors.New("keyswap: caller does not own hotkey")
)
