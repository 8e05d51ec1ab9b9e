package gesture

import (
	"github.com/ayusman/mudra/internal/hand"
)

// ClickSignal reads the raw click signal from the gesture hand. A closed
// hand (no extended fingers) signals a press. ok is false when the hand
// carries no finger records at all, in which case no signal should be fed
// to the debouncer.
func ClickSignal(h hand.Hand) (click bool, ok bool) {
	if len(h.Fingers) == 0 {
		return false, false
	}
	return h.ExtendedCount() == 0, true
}
