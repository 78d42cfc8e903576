package driver

// Driver represents a data processor.
type Driver interface {
	Process(Payload) Result
}

// Payload is passed through each Driver of a step and carries the current record.
type Payload interface {
	Bytes() []byte
	UseBytes([]byte)
}

type payload struct {
	b []byte
}

// NewPayload returns a new Payload holding b.
func NewPayload(b []byte) Payload {
	return &payload{b: b}
}

func (p *payload) Bytes() []byte {
	return p.b
}

func (p *payload) UseBytes(b []byte) {
	p.b = b
}

// Result contains the results of processing data through a Driver.
// A Result without bytes and without an error discards the record.
type Result interface {
	Bytes() []byte
	Error() error
}

type result struct {
	data []byte
	err  error
}

// NewResult conveniently takes []byte data and an error and creates a Result.
func NewResult(d []byte, err error) Result {
	return &result{
		data: d,
		err:  err,
	}
}

// Discarded returns a Result which drops the record.
func Discarded() Result {
	return &result{}
}

// Bytes returns the underlying data.
func (r *result) Bytes() []byte {
	return r.data
}

// Error returns the underlying error.
func (r *result) Error() error {
	return r.err
}
