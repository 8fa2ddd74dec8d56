package presidente

import "fmt"

// Error is a user-correctable rejection. It renders as "CODE: message".
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any *Error with the same code, so variants built with NewError
// compare equal to the exported sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

var (
	ErrNotYourTurn       = NewError("NOT_YOUR_TURN", "It is not your turn")
	ErrCardsNotOwned     = NewError("CARDS_NOT_OWNED", "You do not hold all of the selected cards")
	ErrInvalidCount      = NewError("INVALID_COUNT", "You must play between 1 and 4 cards")
	ErrMixedRanks        = NewError("MIXED_RANKS", "All played cards must share one rank")
	ErrWrongPlayType     = NewError("WRONG_PLAY_TYPE", "You must play the same number of cards as the last play")
	ErrTooLow            = NewError("TOO_LOW", "You must play a higher rank than the last play")
	ErrCannotPassOpening = NewError("CANNOT_PASS_OPENING", "The opening play of a round cannot be passed")
	ErrNotPlaying        = NewError("NOT_PLAYING", "No game is being played")
)
