package pipeline

import "bytes"

// Data represents data traveling through the pipeline.
type Data interface {
	Bytes() []byte
	Read([]byte) (int, error)
	Write([]byte) (int, error)
}

// DataFunc processes Data in place. Returning false discards the Data.
type DataFunc func(Data) (bool, error)

// NewData wraps b as Data.
func NewData(b []byte) Data {
	return bytes.NewBuffer(b)
}

// NoopData performs no actions on the given data.
func NoopData(d Data) (bool, error) {
	return true, nil
}
