package config

import (
	"github.com/jbvmio/pumper/plugin"
	"github.com/jbvmio/pumper/plugin/kafka"
	"github.com/jbvmio/pumper/plugin/loki"
	"github.com/jbvmio/pumper/plugin/osio"
)

// Config represents configuration details for a Input or Output Plugin.
type Config interface {
	Configure(map[string]interface{}) error
}

// InputConfig is a Config for an Input Plugin.
type InputConfig interface {
	Config
	CreateInput() (plugin.Input, error)
}

// OutputConfig is a Config for an Output Plugin.
type OutputConfig interface {
	Config
	CreateOutput() (plugin.Output, error)
}

var inputNames = map[string]plugin.TypeID{
	`file`:  plugin.TypeInputFile,
	`kafka`: plugin.TypeInputKafka,
	`stdin`: plugin.TypeInputStd,
	`exec`:  plugin.TypeInputExec,
}

var outputNames = map[string]plugin.TypeID{
	`file`:   plugin.TypeOutputFile,
	`stdout`: plugin.TypeOutputStd,
	`loki`:   plugin.TypeOutputLoki,
	`kafka`:  plugin.TypeOutputKafka,
}

// InputType returns the TypeID for an input plugin name, or TypeNone.
func InputType(name string) plugin.TypeID {
	return inputNames[name]
}

// OutputType returns the TypeID for an output plugin name, or TypeNone.
func OutputType(name string) plugin.TypeID {
	return outputNames[name]
}

// GetInputConfig returns an InputConfig based on the entered ID.
// Returns nil if TypeID is None an invalid ID is entered.
func GetInputConfig(i plugin.TypeID) InputConfig {
	switch i {
	case plugin.TypeInputFile:
		return &osio.FileInputConfig{}
	case plugin.TypeInputKafka:
		return &kafka.InputConfig{}
	case plugin.TypeInputStd:
		return &osio.StdInputConfig{}
	case plugin.TypeInputExec:
		return &osio.ExecInputConfig{}
	default:
		return nil
	}
}

// GetOutputConfig returns an OutputConfig based on the entered ID.
// Returns nil if TypeID is None an invalid ID is entered.
func GetOutputConfig(i plugin.TypeID) OutputConfig {
	switch i {
	case plugin.TypeOutputFile:
		return &osio.FileOutputConfig{}
	case plugin.TypeOutputKafka:
		return &kafka.OutputConfig{}
	case plugin.TypeOutputLoki:
		return &loki.OutputConfig{}
	case plugin.TypeOutputStd:
		return &osio.StdOutputConfig{}
	default:
		return nil
	}
}
