package drivers

import (
	"io/ioutil"

	"github.com/jbvmio/pumper/driver"
	"github.com/jbvmio/pumper/pipeline"
	"github.com/pkg/errors"
)

// MakeDriversFunc creates a useable function using the given Drivers.
// Steps run in order and every Driver of a step sees the output of the previous one.
func MakeDriversFunc(steps [][]driver.Driver) pipeline.DataFunc {
	if len(steps) < 1 {
		return pipeline.NoopData
	}
	return func(d pipeline.Data) (bool, error) {
		if len(d.Bytes()) < 1 {
			return false, nil
		}
		data, err := ioutil.ReadAll(d)
		if err != nil {
			return false, errors.Wrap(err, "could not read data")
		}
		P := driver.NewPayload(data)
		for _, drivers := range steps {
			for _, dr := range drivers {
				result := dr.Process(P)
				if result.Error() != nil {
					return false, result.Error()
				}
				if len(result.Bytes()) < 1 {
					return false, nil
				}
				P.UseBytes(result.Bytes())
			}
		}
		d.Write(P.Bytes())
		return true, nil
	}
}
