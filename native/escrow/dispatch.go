package escrow

// Instruction opcodes. The envelope is one opcode byte followed by the
// type-specific fixed-layout payload.
const (
	OpMake byte = 0x01
	OpTake byte = 0x02
)

// Dispatcher routes decoded instruction envelopes to the engine handlers.
// The embedding host authenticates the signer (see RecoverSigner) before
// dispatching.
type Dispatcher struct {
	engine *Engine
}

// NewDispatcher wraps an engine with envelope decoding.
func NewDispatcher(engine *Engine) *Dispatcher {
	return &Dispatcher{engine: engine}
}

// Dispatch splits the opcode, decodes the payload and invokes the matching
// handler. Make returns the created order address; Take returns the zero
// address.
func (d *Dispatcher) Dispatch(data []byte, signer [20]byte) ([20]byte, error) {
	var zero [20]byte
	if d == nil || d.engine == nil {
		return zero, errNilState
	}
	if len(data) == 0 {
		return zero, ErrInvalidInstruction
	}
	opcode, payload := data[0], data[1:]
	switch opcode {
	case OpMake:
		ix, err := DecodeMakeInstruction(payload)
		if err != nil {
			return zero, err
		}
		return d.engine.HandleMake(ix, signer)
	case OpTake:
		ix, err := DecodeTakeInstruction(payload)
		if err != nil {
			return zero, err
		}
		return zero, d.engine.HandleTake(ix, signer)
	default:
		return zero, ErrInvalidInstruction
	}
}
