package loki

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/cortexproject/cortex/pkg/util"
	"github.com/cortexproject/cortex/pkg/util/flagext"
	lclient "github.com/grafana/loki/pkg/promtail/client"
	"github.com/jbvmio/pumper/log"
	"github.com/jbvmio/pumper/plugin"
	"github.com/prometheus/common/model"
	"gopkg.in/yaml.v2"
)

// Record formats accepted by the Loki Output.
const (
	FormatLine = `line`
	FormatJSON = `json`
)

// OutputConfig contains configuration details when using the Loki Output Plugin.
type OutputConfig struct {
	URL        string            `yaml:"url" json:"url"`
	Labels     map[string]string `yaml:"labels" json:"labels"`
	Format     string            `yaml:"format" json:"format"`
	MaxBackoff time.Duration     `yaml:"maxBackoff" json:"maxBackoff"`
	MaxRetries int               `yaml:"maxRetries" json:"maxRetries"`
	MinBackoff time.Duration     `yaml:"minBackoff" json:"minBackoff"`
	BatchSize  int               `yaml:"batchSize" json:"batchSize"`
	BatchWait  time.Duration     `yaml:"batchWait" json:"batchWait"`
	Timeout    time.Duration     `yaml:"timeout" json:"timeout"`
}

// Configure attempts to configure the Config based on the details entered.
func (c *OutputConfig) Configure(details map[string]interface{}) error {
	y, err := yaml.Marshal(details)
	if err != nil {
		return fmt.Errorf("invalid loki output configuration: %w", err)
	}
	if err := yaml.Unmarshal(y, c); err != nil {
		return fmt.Errorf("invalid loki output configuration: %w", err)
	}
	if _, err := url.ParseRequestURI(c.URL); err != nil {
		return fmt.Errorf("invalid loki url: %w", err)
	}
	switch c.Format {
	case "":
		c.Format = FormatLine
	case FormatLine, FormatJSON:
	default:
		return fmt.Errorf("invalid loki format %q", c.Format)
	}
	if c.Format == FormatLine && len(c.Labels) < 1 {
		return fmt.Errorf("loki output in %s format requires labels", FormatLine)
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = 1 * time.Minute
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.MinBackoff == 0 {
		c.MinBackoff = 5 * time.Second
	}
	if c.BatchSize == 0 {
		c.BatchSize = 100 * 2048
	}
	if c.BatchWait == 0 {
		c.BatchWait = 5 * time.Second
	}
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Second
	}
	return nil
}

// CreateOutput creates an Output based on the Config.
func (c *OutputConfig) CreateOutput() (plugin.Output, error) {
	U, err := url.Parse(c.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid loki url: %w", err)
	}
	return &Output{
		cfg: lclient.Config{
			URL: flagext.URLValue{URL: U},
			BackoffConfig: util.BackoffConfig{
				MaxBackoff: c.MaxBackoff,
				MaxRetries: c.MaxRetries,
				MinBackoff: c.MinBackoff,
			},
			BatchSize: c.BatchSize,
			BatchWait: c.BatchWait,
			Timeout:   c.Timeout,
		},
		labels:   createLabelSet(c.Labels),
		format:   c.Format,
		data:     make(chan []byte),
		errs:     make(chan error, 1000),
		stopChan: make(chan struct{}),
		l:        log.NewNoop(),
	}, nil
}

// Output ships records to Loki.
type Output struct {
	cfg      lclient.Config
	loki     lclient.Client
	labels   model.LabelSet
	format   string
	data     chan []byte
	errs     chan error
	stopChan chan struct{}
	wg       sync.WaitGroup
	l        log.Logger
}

// Entry is the record structure expected by the Loki Output in json format.
type Entry struct {
	E    string            `json:"entry"`
	TS   time.Time         `json:"timestamp"`
	Tags map[string]string `json:"tags"`
}

// UseLogger assigns a logger for the Output and its client.
func (out *Output) UseLogger(l log.Logger) {
	out.l = l
}

// Start starts the plugin.
func (out *Output) Start() error {
	C, err := lclient.New(out.cfg, log.KitLogger(out.l))
	if err != nil {
		return fmt.Errorf("could not create loki client: %w", err)
	}
	out.loki = C
	out.wg.Add(1)
	go func() {
		defer out.wg.Done()
	outLoop:
		for {
			select {
			case <-out.stopChan:
				break outLoop
			case input := <-out.data:
				ls, ts, line, err := out.entry(input)
				if err != nil {
					out.errs <- err
					continue
				}
				if err := out.loki.Handle(ls, ts, line); err != nil {
					out.errs <- fmt.Errorf("error sending to loki: %w", err)
				}
			}
		}
	}()
	return nil
}

// entry turns a record into the label set, timestamp and line handed to the client.
func (out *Output) entry(input []byte) (model.LabelSet, time.Time, string, error) {
	if out.format == FormatLine {
		return out.labels, time.Now(), string(input), nil
	}
	var entry Entry
	if err := json.Unmarshal(input, &entry); err != nil {
		return nil, time.Time{}, "", fmt.Errorf("invalid entry received by loki output: %w", err)
	}
	ls := out.labels.Merge(createLabelSet(entry.Tags))
	if len(ls) < 1 {
		return nil, time.Time{}, "", fmt.Errorf("invalid entry received by loki output: no tags defined")
	}
	if entry.TS.IsZero() {
		entry.TS = time.Now()
	}
	return ls, entry.TS, entry.E, nil
}

// Stop stops the plugin.
func (out *Output) Stop() error {
	close(out.stopChan)
	out.wg.Wait()
	if out.loki != nil {
		out.loki.Stop()
	}
	return nil
}

// Destination returns the channel used for accept data to the intended Plugin destination.
func (out *Output) Destination() chan<- []byte {
	return out.data
}

// Errors returns the error channel for the Output Plugin.
func (out *Output) Errors() <-chan error {
	return out.errs
}

func createLabelSet(tags map[string]string) model.LabelSet {
	labelSet := make(model.LabelSet, len(tags))
	for k, v := range tags {
		labelSet[model.LabelName(k)] = model.LabelValue(v)
	}
	return labelSet
}
