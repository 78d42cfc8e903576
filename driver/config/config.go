package config

import (
	"sort"
	"strings"

	"github.com/jbvmio/pumper/driver"
	"github.com/jbvmio/pumper/driver/json"
	"github.com/pkg/errors"
)

// Factory builds a Driver from the workflow details of a processing step.
type Factory func(details map[string]interface{}) (driver.Driver, error)

var factories = map[string]Factory{
	`json`: jsonDriver,
}

// Names returns the available driver names in sorted order.
func Names() []string {
	names := make([]string, 0, len(factories))
	for n := range factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FromConfig builds the Driver named by details["driver"].
func FromConfig(details map[string]interface{}) (driver.Driver, error) {
	name, _ := details[`driver`].(string)
	if name == "" {
		return nil, errors.New("missing or invalid driver")
	}
	build, ok := factories[name]
	if !ok {
		return nil, errors.Errorf("invalid driver %s, expected one of: %s", name, strings.Join(Names(), ", "))
	}
	d, err := build(details)
	if err != nil {
		return nil, errors.Wrapf(err, "%s driver", name)
	}
	return d, nil
}

func jsonDriver(details map[string]interface{}) (driver.Driver, error) {
	var c json.Config
	if err := c.Configure(details); err != nil {
		return nil, err
	}
	return json.NewDriver(&c)
}
