package form

const (
	msgCreateFailed = "Error al guardar la transacción. Por favor, intenta de nuevo."
	msgUpdateFailed = "Error al actualizar la transacción. Por favor, intenta de nuevo."
	msgDeleteFailed = "Error al eliminar la transacción. Por favor, intenta de nuevo."
)

// Alert is the blocking notice shown when the store refuses a write. The
// dialog stays open so the user can retry by hand.
type Alert struct {
	Op      string
	Message string
	Err     error
}

func (a *Alert) Error() string {
	return a.Message
}

func (a *Alert) Unwrap() error {
	return a.Err
}

func newAlert(op string, err error) *Alert {
	a := &Alert{Op: op, Err: err}
	switch op {
	case opUpdate:
		a.Message = msgUpdateFailed
	case opDelete:
		a.Message = msgDeleteFailed
	default:
		a.Message = msgCreateFailed
	}
	return a
}
