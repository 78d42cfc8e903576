package json

import (
	"github.com/jbvmio/pumper/driver"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v2"
)

// JSON Driver methods.
const (
	MethodFilter  = `filter`
	MethodExtract = `extract`
)

// Config contains configuration details when using the JSON Driver.
type Config struct {
	Method string   `yaml:"method" json:"method"`
	Paths  []string `yaml:"paths" json:"paths"`
	Path   string   `yaml:"path" json:"path"`
	// Strict reports invalid json records as errors instead of discarding them.
	Strict bool `yaml:"strict" json:"strict"`
}

// Configure attempts to configure the Config based on the details entered.
func (c *Config) Configure(details map[string]interface{}) error {
	d, err := yaml.Marshal(details)
	if err != nil {
		return errors.Wrap(err, "invalid configuration format")
	}
	var cfg Config
	err = yaml.Unmarshal(d, &cfg)
	if err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	*c = cfg
	switch c.Method {
	case MethodFilter:
		if len(c.Paths) < 1 {
			return errors.New("json filter requires at least one path")
		}
	case MethodExtract:
		if c.Path == "" {
			return errors.New("json extract requires a path")
		}
	default:
		return errors.Errorf("missing or invalid method for json driver: %q", c.Method)
	}
	return nil
}

// Driver applies a single json method to each Payload.
type Driver struct {
	cfg Config
	fn  func(gjson.Result) driver.Result
}

// NewDriver returns a new json Driver from a configured Config.
func NewDriver(c *Config) (*Driver, error) {
	d := &Driver{cfg: *c}
	switch c.Method {
	case MethodFilter:
		d.fn = d.filter
	case MethodExtract:
		d.fn = d.extract
	default:
		return nil, errors.Errorf("invalid method for json driver: %q", c.Method)
	}
	return d, nil
}

// Process implements driver.Driver.
func (d *Driver) Process(p driver.Payload) driver.Result {
	b := p.Bytes()
	if !gjson.ValidBytes(b) {
		if d.cfg.Strict {
			return driver.NewResult(nil, errors.Errorf("invalid json received: %.64q", b))
		}
		return driver.Discarded()
	}
	return d.fn(gjson.ParseBytes(b))
}

// filter keeps records containing every configured path.
func (d *Driver) filter(r gjson.Result) driver.Result {
	for _, path := range d.cfg.Paths {
		if !r.Get(path).Exists() {
			return driver.Discarded()
		}
	}
	return driver.NewResult([]byte(r.Raw), nil)
}

// extract replaces the record with the raw value found at path.
func (d *Driver) extract(r gjson.Result) driver.Result {
	v := r.Get(d.cfg.Path)
	if !v.Exists() {
		return driver.Discarded()
	}
	return driver.NewResult([]byte(v.Raw), nil)
}
