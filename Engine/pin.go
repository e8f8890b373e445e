package Engine

// PinPhase is the PIN entry dialog's current phase.
type PinPhase int

const (
	PinIdle PinPhase = iota
	PinEntering
	PinSubmitting
)

// DefaultMaxPinDigits matches the roster policy of 4-8 digit PINs.
const DefaultMaxPinDigits = 8

// PinDialog models the shared-kiosk PIN entry dialog. The dialog is modal,
// so it also serializes complete/signoff attempts for one task. It never
// caches a validated identity; the gate's verdict is fed back through
// Accept or Reject and the next action starts over.
type PinDialog struct {
	phase   PinPhase
	digits  []byte
	maxLen  int
	lastErr string
}

func NewPinDialog(maxLen int) *PinDialog {
	if maxLen <= 0 {
		maxLen = DefaultMaxPinDigits
	}
	return &PinDialog{phase: PinIdle, maxLen: maxLen}
}

func (d *PinDialog) Phase() PinPhase { return d.phase }

// Error returns the message surfaced by the last failed submit, if any.
func (d *PinDialog) Error() string { return d.lastErr }

// Entered returns the digits typed so far, for masked display.
func (d *PinDialog) Entered() string { return string(d.digits) }

// Open moves the dialog from Idle to Entering with a clean slate.
func (d *PinDialog) Open() {
	if d.phase != PinIdle {
		return
	}
	d.phase = PinEntering
	d.digits = d.digits[:0]
	d.lastErr = ""
}

// Input appends one digit while Entering and below the length cap.
// Non-digit input is ignored.
func (d *PinDialog) Input(ch byte) {
	if d.phase != PinEntering || ch < '0' || ch > '9' {
		return
	}
	if len(d.digits) >= d.maxLen {
		return
	}
	d.digits = append(d.digits, ch)
}

// Backspace removes the last entered digit.
func (d *PinDialog) Backspace() {
	if d.phase != PinEntering || len(d.digits) == 0 {
		return
	}
	d.digits = d.digits[:len(d.digits)-1]
}

// Clear removes all entered digits.
func (d *PinDialog) Clear() {
	if d.phase != PinEntering {
		return
	}
	d.digits = d.digits[:0]
}

// Submit hands the entry to the authorization gate. Submitting an empty
// entry surfaces an error without leaving Entering.
func (d *PinDialog) Submit() (string, bool) {
	if d.phase != PinEntering {
		return "", false
	}
	if len(d.digits) == 0 {
		d.lastErr = "enter your PIN"
		return "", false
	}
	d.phase = PinSubmitting
	d.lastErr = ""
	return string(d.digits), true
}

// Reject records a gate rejection: digits are cleared, the message is
// surfaced and the dialog stays open for another attempt.
func (d *PinDialog) Reject(msg string) {
	if d.phase != PinSubmitting {
		return
	}
	d.phase = PinEntering
	d.digits = d.digits[:0]
	d.lastErr = msg
}

// Accept records gate acceptance: the dialog closes and the digits are
// discarded.
func (d *PinDialog) Accept() {
	if d.phase != PinSubmitting {
		return
	}
	d.reset()
}

// Cancel is permitted from any phase and discards all entered digits
// without committing anything.
func (d *PinDialog) Cancel() {
	d.reset()
}

func (d *PinDialog) reset() {
	d.phase = PinIdle
	d.digits = d.digits[:0]
	d.lastErr = ""
}
