package plugins

import (
	"github.com/jbvmio/pumper"
	"github.com/jbvmio/pumper/log"
	"github.com/jbvmio/pumper/plugin"
	"github.com/jbvmio/pumper/plugin/config"
	"github.com/pkg/errors"
)

// loggerSetter is implemented by Plugins which accept a Logger.
type loggerSetter interface {
	UseLogger(log.Logger)
}

// LoadInputs loads Input Plugins.
func LoadInputs(cfg pumper.Configs, l log.Logger) (inputs map[string][]plugin.Input, err error) {
	inputs = make(map[string][]plugin.Input)
	if len(cfg) < 1 {
		return nil, errors.New("invalid config")
	}
	for k, v := range cfg {
		var ins []plugin.Input
		for _, input := range v.Sources {
			p, err := pluginName(input)
			if err != nil {
				return nil, errors.Wrapf(err, "error loading input for %s", k)
			}
			in, err := loadInputPlugin(k, p, input)
			if err != nil {
				return nil, errors.Wrapf(err, "error loading input for %s", k)
			}
			useLogger(in, l, k, p)
			ins = append(ins, in)
		}
		inputs[k] = append(inputs[k], ins...)
	}
	return
}

// LoadOutputs loads Output Plugins.
func LoadOutputs(cfg pumper.Configs, l log.Logger) (outputs map[string][]plugin.Output, err error) {
	outputs = make(map[string][]plugin.Output)
	if len(cfg) < 1 {
		return nil, errors.New("invalid config")
	}
	for k, v := range cfg {
		var outs []plugin.Output
		for _, output := range v.Destinations {
			p, err := pluginName(output)
			if err != nil {
				return nil, errors.Wrapf(err, "error loading output for %s", k)
			}
			out, err := loadOutputPlugin(p, output)
			if err != nil {
				return nil, errors.Wrapf(err, "error loading output for %s", k)
			}
			useLogger(out, l, k, p)
			outs = append(outs, out)
		}
		outputs[k] = append(outputs[k], outs...)
	}
	return
}

func loadInputPlugin(id, name string, details map[string]interface{}) (p plugin.Input, err error) {
	typ := config.InputType(name)
	if typ == plugin.TypeNone {
		return nil, errors.Errorf("no defined input plugin named %s available", name)
	}
	c := config.GetInputConfig(typ)
	if c == nil {
		return nil, errors.Errorf("invalid plugin %s entered", name)
	}
	if _, there := details[`name`]; !there {
		details[`name`] = id + `/` + name
	}
	if typ == plugin.TypeInputKafka {
		if g, there := details[`group`].(string); there {
			details[`group`] = g + `-` + id
		}
	}
	err = c.Configure(details)
	if err != nil {
		return nil, errors.Wrap(err, "error configuring input")
	}
	return c.CreateInput()
}

func loadOutputPlugin(name string, details map[string]interface{}) (p plugin.Output, err error) {
	typ := config.OutputType(name)
	if typ == plugin.TypeNone {
		return nil, errors.Errorf("no defined output plugin named %s available", name)
	}
	c := config.GetOutputConfig(typ)
	if c == nil {
		return nil, errors.Errorf("invalid plugin %s entered", name)
	}
	err = c.Configure(details)
	if err != nil {
		return nil, errors.Wrap(err, "error configuring output")
	}
	return c.CreateOutput()
}

func useLogger(p interface{}, l log.Logger, pipeline, name string) {
	if l == nil {
		return
	}
	if s, ok := p.(loggerSetter); ok {
		s.UseLogger(log.Named(l, pipeline+`.`+name))
	}
}

func pluginName(x map[string]interface{}) (string, error) {
	p, ok := x[`plugin`].(string)
	if !ok {
		return "", errors.New("no plugin defined")
	}
	return p, nil
}
